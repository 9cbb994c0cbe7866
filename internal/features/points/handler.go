package points

import (
	"errors"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/ecoloop-app/ecoloop-backend/internal/pkg/logger"
	"github.com/ecoloop-app/ecoloop-backend/internal/pkg/pagination"
	"github.com/ecoloop-app/ecoloop-backend/internal/pkg/response"
	apperrors "github.com/ecoloop-app/ecoloop-backend/pkg/errors"
)

// Handler handles points balance and ledger endpoints
type Handler struct {
	repo *Repository
}

// NewHandler creates a new points handler
func NewHandler(repo *Repository) *Handler {
	return &Handler{repo: repo}
}

// GetBalance godoc
// @Summary Get the caller's current point balance
// @Tags points
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.APIResponse
// @Router /points/balance [get]
func (h *Handler) GetBalance(c *gin.Context) {
	uid, err := primitive.ObjectIDFromHex(c.GetString("userID"))
	if err != nil {
		response.Unauthorized(c, "Authentication required", "UNAUTHORIZED")
		return
	}

	balance, err := h.repo.GetBalance(c.Request.Context(), uid)
	if err != nil {
		logger.Error("Failed to load balance: %v", err)
		response.InternalServerError(c, "Failed to load balance")
		return
	}

	response.Success(c, balance)
}

// ListTransactions godoc
// @Summary List the caller's point transactions
// @Tags points
// @Produce json
// @Security BearerAuth
// @Param page query int false "Page number"
// @Param limit query int false "Items per page"
// @Success 200 {object} response.PaginatedResponse
// @Router /points/transactions [get]
func (h *Handler) ListTransactions(c *gin.Context) {
	uid, err := primitive.ObjectIDFromHex(c.GetString("userID"))
	if err != nil {
		response.Unauthorized(c, "Authentication required", "UNAUTHORIZED")
		return
	}

	page := pagination.ParseParam(c.Query("page"), 1)
	limit := pagination.ParseParam(c.Query("limit"), 20)
	pg := pagination.New(page, limit, 0)

	transactions, total, err := h.repo.ListTransactions(c.Request.Context(), uid, pg.GetLimit(), pg.GetOffset())
	if err != nil {
		logger.Error("Failed to load transactions: %v", err)
		response.InternalServerError(c, "Failed to load transactions")
		return
	}

	response.Paginated(c, transactions, total, pg.GetLimit(), pg.Page)
}

// Spend godoc
// @Summary Redeem points
// @Tags points
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body SpendRequest true "Redemption payload"
// @Success 200 {object} response.APIResponse
// @Failure 409 {object} response.ErrorResponse
// @Router /points/spend [post]
func (h *Handler) Spend(c *gin.Context) {
	uid, err := primitive.ObjectIDFromHex(c.GetString("userID"))
	if err != nil {
		response.Unauthorized(c, "Authentication required", "UNAUTHORIZED")
		return
	}

	var req SpendRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ValidationError(c, err.Error())
		return
	}

	err = h.repo.Spend(c.Request.Context(), uid, req.Amount, req.Description)
	if err != nil {
		if errors.Is(err, apperrors.ErrConflict) {
			response.Conflict(c, "Insufficient balance", "INSUFFICIENT_BALANCE")
			return
		}
		logger.Error("Failed to spend points: %v", err)
		response.InternalServerError(c, "Failed to redeem points")
		return
	}

	balance, err := h.repo.GetBalance(c.Request.Context(), uid)
	if err != nil {
		response.Success(c, gin.H{"spent": req.Amount})
		return
	}

	response.Success(c, gin.H{"spent": req.Amount, "balance": balance.Balance})
}
