package notifications

import (
	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/ecoloop-app/ecoloop-backend/internal/pkg/logger"
	"github.com/ecoloop-app/ecoloop-backend/internal/pkg/pagination"
	"github.com/ecoloop-app/ecoloop-backend/internal/pkg/response"
)

// Handler handles notification endpoints
type Handler struct {
	repo *Repository
}

// NewHandler creates a new notifications handler
func NewHandler(repo *Repository) *Handler {
	return &Handler{repo: repo}
}

// List godoc
// @Summary List the caller's notifications
// @Tags notifications
// @Produce json
// @Security BearerAuth
// @Param page query int false "Page number"
// @Param limit query int false "Items per page"
// @Success 200 {object} response.PaginatedResponse
// @Router /notifications [get]
func (h *Handler) List(c *gin.Context) {
	uid, err := primitive.ObjectIDFromHex(c.GetString("userID"))
	if err != nil {
		response.Unauthorized(c, "Authentication required", "UNAUTHORIZED")
		return
	}

	page := pagination.ParseParam(c.Query("page"), 1)
	limit := pagination.ParseParam(c.Query("limit"), 20)
	pg := pagination.New(page, limit, 0)

	notifications, total, err := h.repo.ListForUser(c.Request.Context(), uid, pg.GetLimit(), pg.GetOffset())
	if err != nil {
		logger.Error("Failed to list notifications: %v", err)
		response.InternalServerError(c, "Failed to load notifications")
		return
	}

	response.Paginated(c, notifications, total, pg.GetLimit(), pg.Page)
}

// UnreadCount godoc
// @Summary Get the caller's unread notification count
// @Tags notifications
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.APIResponse
// @Router /notifications/unread-count [get]
func (h *Handler) UnreadCount(c *gin.Context) {
	uid, err := primitive.ObjectIDFromHex(c.GetString("userID"))
	if err != nil {
		response.Unauthorized(c, "Authentication required", "UNAUTHORIZED")
		return
	}

	count, err := h.repo.UnreadCount(c.Request.Context(), uid)
	if err != nil {
		logger.Error("Failed to count unread notifications: %v", err)
		response.InternalServerError(c, "Failed to load unread count")
		return
	}

	response.Success(c, gin.H{"unread": count})
}

// MarkRead godoc
// @Summary Mark one notification as read
// @Tags notifications
// @Produce json
// @Security BearerAuth
// @Param id path string true "Notification ID"
// @Success 200 {object} response.APIResponse
// @Router /notifications/{id}/read [post]
func (h *Handler) MarkRead(c *gin.Context) {
	uid, err := primitive.ObjectIDFromHex(c.GetString("userID"))
	if err != nil {
		response.Unauthorized(c, "Authentication required", "UNAUTHORIZED")
		return
	}

	notificationID, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "Invalid notification id", "INVALID_ID")
		return
	}

	if err := h.repo.MarkRead(c.Request.Context(), uid, notificationID); err != nil {
		logger.Error("Failed to mark notification read: %v", err)
		response.InternalServerError(c, "Failed to update notification")
		return
	}

	response.Success(c, gin.H{"read": true})
}

// MarkAllRead godoc
// @Summary Mark all notifications as read
// @Tags notifications
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.APIResponse
// @Router /notifications/read-all [post]
func (h *Handler) MarkAllRead(c *gin.Context) {
	uid, err := primitive.ObjectIDFromHex(c.GetString("userID"))
	if err != nil {
		response.Unauthorized(c, "Authentication required", "UNAUTHORIZED")
		return
	}

	if err := h.repo.MarkAllRead(c.Request.Context(), uid); err != nil {
		logger.Error("Failed to mark notifications read: %v", err)
		response.InternalServerError(c, "Failed to update notifications")
		return
	}

	response.Success(c, gin.H{"read": true})
}
