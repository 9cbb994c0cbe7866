package challenges

import (
	"context"
	"errors"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/ecoloop-app/ecoloop-backend/internal/config"
	"github.com/ecoloop-app/ecoloop-backend/internal/pkg/logger"
	"github.com/ecoloop-app/ecoloop-backend/internal/pkg/pagination"
	"github.com/ecoloop-app/ecoloop-backend/internal/pkg/response"
	apperrors "github.com/ecoloop-app/ecoloop-backend/pkg/errors"
)

// GateChecker reports how many peer reviews a user has completed while a
// given instance was pending. Implemented by the reviews feature.
type GateChecker interface {
	ReviewsCompleted(ctx context.Context, userID, instanceID primitive.ObjectID) (int, error)
}

// Handler handles challenge catalog and instance endpoints
type Handler struct {
	repo *Repository
	gate GateChecker
	cfg  *config.Config
}

// NewHandler creates a new challenges handler
func NewHandler(repo *Repository, gate GateChecker, cfg *config.Config) *Handler {
	return &Handler{repo: repo, gate: gate, cfg: cfg}
}

// ListChallenges godoc
// @Summary List active catalog challenges
// @Tags challenges
// @Produce json
// @Success 200 {object} response.APIResponse
// @Router /challenges [get]
func (h *Handler) ListChallenges(c *gin.Context) {
	challenges, err := h.repo.ListChallenges(c.Request.Context())
	if err != nil {
		logger.Error("Failed to list challenges: %v", err)
		response.InternalServerError(c, "Failed to load challenges")
		return
	}

	response.Success(c, challenges)
}

// PickChallenge godoc
// @Summary Start a new challenge instance
// @Tags challenges
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body PickChallengeRequest true "Challenge to start"
// @Success 201 {object} response.APIResponse
// @Failure 409 {object} response.ErrorResponse
// @Router /challenges/pick [post]
func (h *Handler) PickChallenge(c *gin.Context) {
	userID := c.GetString("userID")
	uid, err := primitive.ObjectIDFromHex(userID)
	if err != nil {
		response.Unauthorized(c, "Authentication required", "UNAUTHORIZED")
		return
	}

	var req PickChallengeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ValidationError(c, err.Error())
		return
	}

	challengeID, err := primitive.ObjectIDFromHex(req.ChallengeID)
	if err != nil {
		response.BadRequest(c, "Invalid challenge id", "INVALID_ID")
		return
	}

	ctx := c.Request.Context()

	challenge, err := h.repo.GetChallenge(ctx, challengeID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			response.NotFound(c, "Challenge not found", "CHALLENGE_NOT_FOUND")
			return
		}
		logger.Error("Failed to load challenge: %v", err)
		response.InternalServerError(c, "Failed to start challenge")
		return
	}

	if !challenge.Active {
		response.BadRequest(c, "This challenge is no longer available", "CHALLENGE_INACTIVE")
		return
	}

	instance := &Instance{UserID: uid, ChallengeID: challengeID}
	if err := h.repo.CreateInstance(ctx, instance); err != nil {
		if errors.Is(err, apperrors.ErrConflict) {
			response.Conflict(c, "You already have a challenge in progress", "INSTANCE_EXISTS")
			return
		}
		logger.Error("Failed to create instance: %v", err)
		response.InternalServerError(c, "Failed to start challenge")
		return
	}

	response.Created(c, instance)
}

// CurrentInstance godoc
// @Summary Get the user's live challenge instance with gate progress
// @Tags challenges
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.APIResponse
// @Failure 404 {object} response.ErrorResponse
// @Router /challenges/current [get]
func (h *Handler) CurrentInstance(c *gin.Context) {
	uid, err := primitive.ObjectIDFromHex(c.GetString("userID"))
	if err != nil {
		response.Unauthorized(c, "Authentication required", "UNAUTHORIZED")
		return
	}

	ctx := c.Request.Context()

	instance, err := h.repo.GetOpenInstance(ctx, uid)
	if err != nil {
		logger.Error("Failed to load open instance: %v", err)
		response.InternalServerError(c, "Failed to load current challenge")
		return
	}
	if instance == nil {
		response.NotFound(c, "No challenge in progress", "NO_OPEN_INSTANCE")
		return
	}

	challenge, err := h.repo.GetChallenge(ctx, instance.ChallengeID)
	if err != nil {
		logger.Error("Failed to load challenge for instance: %v", err)
		response.InternalServerError(c, "Failed to load current challenge")
		return
	}

	reviewsCompleted, err := h.gate.ReviewsCompleted(ctx, uid, instance.ID)
	if err != nil {
		logger.Error("Failed to load review gate count: %v", err)
		response.InternalServerError(c, "Failed to load current challenge")
		return
	}

	quota := h.cfg.ReviewQuota

	response.Success(c, gin.H{
		"instance":         instance,
		"challenge":        challenge,
		"reviewsCompleted": reviewsCompleted,
		"reviewQuota":      quota,
		"feedbackUnlocked": instance.Status == StatusValidated && reviewsCompleted >= quota,
	})
}

// SubmitFeedback godoc
// @Summary Submit feedback on a validated challenge to clear it
// @Tags challenges
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Instance ID"
// @Param request body FeedbackRequest true "Feedback payload"
// @Success 200 {object} response.APIResponse
// @Failure 403 {object} response.ErrorResponse
// @Failure 409 {object} response.ErrorResponse
// @Router /challenges/instances/{id}/feedback [post]
func (h *Handler) SubmitFeedback(c *gin.Context) {
	uid, err := primitive.ObjectIDFromHex(c.GetString("userID"))
	if err != nil {
		response.Unauthorized(c, "Authentication required", "UNAUTHORIZED")
		return
	}

	instanceID, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "Invalid instance id", "INVALID_ID")
		return
	}

	var req FeedbackRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ValidationError(c, err.Error())
		return
	}

	ctx := c.Request.Context()

	instance, err := h.repo.GetInstance(ctx, instanceID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			response.NotFound(c, "Instance not found", "INSTANCE_NOT_FOUND")
			return
		}
		logger.Error("Failed to load instance: %v", err)
		response.InternalServerError(c, "Failed to submit feedback")
		return
	}

	if instance.UserID != uid {
		response.Forbidden(c, "Not your challenge instance", "FORBIDDEN")
		return
	}

	if !CanTransition(instance.Status, StatusCleared) {
		response.Conflict(c, "Feedback is only available after validation", "NOT_VALIDATED")
		return
	}

	// Review quota must be met before feedback unlocks
	reviewsCompleted, err := h.gate.ReviewsCompleted(ctx, uid, instance.ID)
	if err != nil {
		logger.Error("Failed to load review gate count: %v", err)
		response.InternalServerError(c, "Failed to submit feedback")
		return
	}
	if reviewsCompleted < h.cfg.ReviewQuota {
		response.Forbidden(c, "Complete your peer reviews to unlock feedback", "GATE_NOT_SATISFIED")
		return
	}

	feedback := &Feedback{Rating: req.Rating, Comment: req.Comment}
	if err := h.repo.SubmitFeedback(ctx, instance.ID, uid, feedback); err != nil {
		if errors.Is(err, apperrors.ErrConflict) {
			response.Conflict(c, "Feedback already submitted", "ALREADY_CLEARED")
			return
		}
		logger.Error("Failed to submit feedback: %v", err)
		response.InternalServerError(c, "Failed to submit feedback")
		return
	}

	response.Success(c, gin.H{"status": StatusCleared})
}

// History godoc
// @Summary List the user's past challenge instances
// @Tags challenges
// @Produce json
// @Security BearerAuth
// @Param page query int false "Page number"
// @Param limit query int false "Items per page"
// @Success 200 {object} response.PaginatedResponse
// @Router /challenges/history [get]
func (h *Handler) History(c *gin.Context) {
	uid, err := primitive.ObjectIDFromHex(c.GetString("userID"))
	if err != nil {
		response.Unauthorized(c, "Authentication required", "UNAUTHORIZED")
		return
	}

	page := pagination.ParseParam(c.Query("page"), 1)
	limit := pagination.ParseParam(c.Query("limit"), 20)

	ctx := c.Request.Context()

	pg := pagination.New(page, limit, 0)
	instances, total, err := h.repo.ListUserHistory(ctx, uid, pg.GetLimit(), pg.GetOffset())
	if err != nil {
		logger.Error("Failed to load history: %v", err)
		response.InternalServerError(c, "Failed to load history")
		return
	}

	response.Paginated(c, instances, total, pg.GetLimit(), pg.Page)
}
