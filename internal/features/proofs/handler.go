package proofs

import (
	"context"
	"errors"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/ecoloop-app/ecoloop-backend/internal/config"
	"github.com/ecoloop-app/ecoloop-backend/internal/features/challenges"
	"github.com/ecoloop-app/ecoloop-backend/internal/pkg/cloudinary"
	"github.com/ecoloop-app/ecoloop-backend/internal/pkg/logger"
	"github.com/ecoloop-app/ecoloop-backend/internal/pkg/pagination"
	"github.com/ecoloop-app/ecoloop-backend/internal/pkg/response"
	apperrors "github.com/ecoloop-app/ecoloop-backend/pkg/errors"
)

// ValidatorAssigner picks reviewers for a fresh proof. Implemented by the
// reviews feature and wired in at route registration.
type ValidatorAssigner interface {
	Assign(ctx context.Context, submitterID primitive.ObjectID) ([]primitive.ObjectID, error)
}

// ReviewAssignedNotifier tells validators they have a proof waiting
type ReviewAssignedNotifier interface {
	NotifyReviewAssigned(validatorIDs []primitive.ObjectID, proofID primitive.ObjectID)
}

// Handler handles proof submission and review queue endpoints
type Handler struct {
	repo       *Repository
	instances  *challenges.Repository
	cloudinary *cloudinary.Service
	assigner   ValidatorAssigner
	notifier   ReviewAssignedNotifier
	client     *mongo.Client
	cfg        *config.Config
}

// NewHandler creates a new proofs handler
func NewHandler(repo *Repository, instances *challenges.Repository, cld *cloudinary.Service, assigner ValidatorAssigner, notifier ReviewAssignedNotifier, client *mongo.Client, cfg *config.Config) *Handler {
	return &Handler{
		repo:       repo,
		instances:  instances,
		cloudinary: cld,
		assigner:   assigner,
		notifier:   notifier,
		client:     client,
		cfg:        cfg,
	}
}

// Submit godoc
// @Summary Submit a photo proof for the current challenge
// @Tags proofs
// @Accept multipart/form-data
// @Produce json
// @Security BearerAuth
// @Param photo formData file true "Proof photo"
// @Param comment formData string false "Optional comment"
// @Success 201 {object} response.APIResponse
// @Failure 409 {object} response.ErrorResponse
// @Router /proofs [post]
func (h *Handler) Submit(c *gin.Context) {
	uid, err := primitive.ObjectIDFromHex(c.GetString("userID"))
	if err != nil {
		response.Unauthorized(c, "Authentication required", "UNAUTHORIZED")
		return
	}

	var req SubmitProofRequest
	if err := c.ShouldBind(&req); err != nil {
		response.ValidationError(c, err.Error())
		return
	}

	fileHeader, err := c.FormFile("photo")
	if err != nil {
		response.BadRequest(c, "Proof photo is required", "PHOTO_REQUIRED")
		return
	}

	if err := cloudinary.ValidateImageFile(fileHeader); err != nil {
		response.ValidationError(c, err.Error())
		return
	}

	ctx := c.Request.Context()

	instance, err := h.instances.GetOpenInstance(ctx, uid)
	if err != nil {
		logger.Error("Failed to load open instance: %v", err)
		response.InternalServerError(c, "Failed to submit proof")
		return
	}
	if instance == nil {
		response.NotFound(c, "No challenge in progress", "NO_OPEN_INSTANCE")
		return
	}
	if !challenges.CanTransition(instance.Status, challenges.StatusPendingValidation) {
		response.Conflict(c, "A proof is already submitted for this challenge", "PROOF_EXISTS")
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		response.BadRequest(c, "Failed to read photo file", "PHOTO_READ_FAILED")
		return
	}
	defer file.Close()

	upload, err := h.cloudinary.UploadProofPhoto(ctx, file)
	if err != nil {
		logger.Error("Proof photo upload failed for %s: %v", uid.Hex(), err)
		response.InternalServerError(c, "Failed to upload photo")
		return
	}

	// Assignment must not block submission; an empty list just means the
	// sweeper or a later pass deals with the proof.
	validators, err := h.assigner.Assign(ctx, uid)
	if err != nil {
		logger.Warn("Validator assignment failed for %s: %v", uid.Hex(), err)
		validators = []primitive.ObjectID{}
	}

	proof := &Proof{
		SubmitterID:        uid,
		ChallengeID:        instance.ChallengeID,
		InstanceID:         instance.ID,
		Photo:              Photo{URL: upload.URL, PublicID: upload.PublicID},
		Comment:            req.Comment,
		AssignedValidators: validators,
	}

	// Proof insert and instance flip commit together
	session, err := h.client.StartSession()
	if err != nil {
		logger.Error("Failed to start session: %v", err)
		response.InternalServerError(c, "Failed to submit proof")
		return
	}
	defer session.EndSession(ctx)

	_, err = session.WithTransaction(ctx, func(sc mongo.SessionContext) (interface{}, error) {
		if err := h.repo.Create(sc, proof); err != nil {
			return nil, err
		}
		if err := h.instances.MarkPendingValidation(sc, instance.ID, proof.ID); err != nil {
			return nil, err
		}
		return nil, nil
	})
	if err != nil {
		if errors.Is(err, apperrors.ErrConflict) {
			response.Conflict(c, "A proof is already submitted for this challenge", "PROOF_EXISTS")
			return
		}
		logger.Error("Failed to persist proof: %v", err)
		response.InternalServerError(c, "Failed to submit proof")
		return
	}

	if h.notifier != nil && len(validators) > 0 {
		h.notifier.NotifyReviewAssigned(validators, proof.ID)
	}

	response.Created(c, proof)
}

// ReviewQueue godoc
// @Summary List pending proofs awaiting this validator's vote
// @Tags proofs
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.APIResponse
// @Router /proofs/review-queue [get]
func (h *Handler) ReviewQueue(c *gin.Context) {
	uid, err := primitive.ObjectIDFromHex(c.GetString("userID"))
	if err != nil {
		response.Unauthorized(c, "Authentication required", "UNAUTHORIZED")
		return
	}

	proofs, err := h.repo.ReviewQueue(c.Request.Context(), uid)
	if err != nil {
		logger.Error("Failed to load review queue: %v", err)
		response.InternalServerError(c, "Failed to load review queue")
		return
	}

	items := make([]QueueItem, 0, len(proofs))
	for _, p := range proofs {
		items = append(items, QueueItem{
			ProofID:     p.ID,
			ChallengeID: p.ChallengeID,
			PhotoURL:    p.Photo.URL,
			Comment:     p.Comment,
			SubmittedAt: p.CreatedAt,
		})
	}

	response.Success(c, items)
}

// Get godoc
// @Summary Get a proof visible to the caller
// @Tags proofs
// @Produce json
// @Security BearerAuth
// @Param id path string true "Proof ID"
// @Success 200 {object} response.APIResponse
// @Failure 404 {object} response.ErrorResponse
// @Router /proofs/{id} [get]
func (h *Handler) Get(c *gin.Context) {
	uid, err := primitive.ObjectIDFromHex(c.GetString("userID"))
	if err != nil {
		response.Unauthorized(c, "Authentication required", "UNAUTHORIZED")
		return
	}

	proofID, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "Invalid proof id", "INVALID_ID")
		return
	}

	proof, err := h.repo.GetByID(c.Request.Context(), proofID)
	if err != nil {
		if errors.Is(err, apperrors.ErrProofNotFound) {
			response.NotFound(c, "Proof not found", "PROOF_NOT_FOUND")
			return
		}
		logger.Error("Failed to load proof: %v", err)
		response.InternalServerError(c, "Failed to load proof")
		return
	}

	// Only the submitter and assigned validators may look at a proof
	if proof.SubmitterID != uid && !proof.IsAssigned(uid) {
		response.NotFound(c, "Proof not found", "PROOF_NOT_FOUND")
		return
	}

	response.Success(c, proof)
}

// MyProofs godoc
// @Summary List the caller's own submitted proofs
// @Tags proofs
// @Produce json
// @Security BearerAuth
// @Param page query int false "Page number"
// @Param limit query int false "Items per page"
// @Success 200 {object} response.PaginatedResponse
// @Router /proofs/mine [get]
func (h *Handler) MyProofs(c *gin.Context) {
	uid, err := primitive.ObjectIDFromHex(c.GetString("userID"))
	if err != nil {
		response.Unauthorized(c, "Authentication required", "UNAUTHORIZED")
		return
	}

	page := pagination.ParseParam(c.Query("page"), 1)
	limit := pagination.ParseParam(c.Query("limit"), 20)
	pg := pagination.New(page, limit, 0)

	proofs, total, err := h.repo.ListBySubmitter(c.Request.Context(), uid, pg.GetLimit(), pg.GetOffset())
	if err != nil {
		logger.Error("Failed to list proofs: %v", err)
		response.InternalServerError(c, "Failed to load proofs")
		return
	}

	response.Paginated(c, proofs, total, pg.GetLimit(), pg.Page)
}
