package safety

import (
	"context"
	"errors"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/ecoloop-app/ecoloop-backend/internal/features/proofs"
	"github.com/ecoloop-app/ecoloop-backend/internal/pkg/events"
	"github.com/ecoloop-app/ecoloop-backend/internal/pkg/logger"
	"github.com/ecoloop-app/ecoloop-backend/internal/pkg/response"
	apperrors "github.com/ecoloop-app/ecoloop-backend/pkg/errors"
)

// ReportStore persists moderation reports
type ReportStore interface {
	Create(ctx context.Context, report *Report) error
}

// ProofStore is the slice of the proof repository moderation needs
type ProofStore interface {
	GetByID(ctx context.Context, id primitive.ObjectID) (*proofs.Proof, error)
	MarkReported(ctx context.Context, proofID primitive.ObjectID) (bool, error)
}

// InstanceStore mirrors a pulled proof onto its challenge instance
type InstanceStore interface {
	MirrorDecision(ctx context.Context, instanceID primitive.ObjectID, approved bool) error
}

// UserBlocker records one user blocking another
type UserBlocker interface {
	BlockUser(ctx context.Context, userID, blockedID primitive.ObjectID) error
}

// TxnRunner commits the report override and the instance mirror atomically
type TxnRunner interface {
	Run(ctx context.Context, fn func(ctx context.Context) error) error
}

// Handler handles moderation endpoints
type Handler struct {
	repo      ReportStore
	proofs    ProofStore
	instances InstanceStore
	users     UserBlocker
	txn       TxnRunner
	bus       *events.Bus
}

// NewHandler creates a new safety handler
func NewHandler(repo ReportStore, proofStore ProofStore, instances InstanceStore, users UserBlocker, txn TxnRunner, bus *events.Bus) *Handler {
	return &Handler{repo: repo, proofs: proofStore, instances: instances, users: users, txn: txn, bus: bus}
}

// ReportProof godoc
// @Summary Report a proof for moderation
// @Tags safety
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Proof ID"
// @Param request body ReportProofRequest true "Report payload"
// @Success 200 {object} response.APIResponse
// @Failure 404 {object} response.ErrorResponse
// @Router /proofs/{id}/report [post]
func (h *Handler) ReportProof(c *gin.Context) {
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

	var req ReportProofRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ValidationError(c, err.Error())
		return
	}
	if !ValidReportReasons[req.Reason] {
		response.ValidationError(c, "Invalid report reason")
		return
	}

	ctx := c.Request.Context()

	proof, err := h.proofs.GetByID(ctx, proofID)
	if err != nil {
		if errors.Is(err, apperrors.ErrProofNotFound) {
			response.NotFound(c, "Proof not found", "PROOF_NOT_FOUND")
			return
		}
		logger.Error("Failed to load proof: %v", err)
		response.InternalServerError(c, "Failed to report proof")
		return
	}

	if proof.SubmitterID == uid {
		response.BadRequest(c, "You cannot report your own proof", "OWN_PROOF")
		return
	}

	report := &Report{
		ProofID:    proofID,
		ReporterID: uid,
		Reason:     req.Reason,
		Details:    req.Details,
	}
	if err := h.repo.Create(ctx, report); err != nil {
		logger.Error("Failed to store report: %v", err)
		response.InternalServerError(c, "Failed to report proof")
		return
	}

	// A report overrides pending validation and pulls the proof. Decided
	// proofs keep their outcome, the report stays on record for operators.
	// The override and the instance mirror commit together; a failed mirror
	// leaves the proof pending so the report can be retried.
	var flipped bool
	err = h.txn.Run(ctx, func(tc context.Context) error {
		var err error
		flipped, err = h.proofs.MarkReported(tc, proofID)
		if err != nil || !flipped {
			return err
		}
		return h.instances.MirrorDecision(tc, proof.InstanceID, false)
	})
	if err != nil {
		logger.Error("Failed to mark proof reported: %v", err)
		response.InternalServerError(c, "Failed to report proof")
		return
	}

	if flipped {
		h.bus.Publish(events.Event{
			Type:    events.TypeProofReported,
			ProofID: proofID.Hex(),
			Status:  proofs.StatusReported,
		})
	}

	response.Success(c, gin.H{"reported": true})
}

// BlockUser godoc
// @Summary Block another user
// @Tags safety
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body BlockUserRequest true "User to block"
// @Success 200 {object} response.APIResponse
// @Router /safety/block [post]
func (h *Handler) BlockUser(c *gin.Context) {
	uid, err := primitive.ObjectIDFromHex(c.GetString("userID"))
	if err != nil {
		response.Unauthorized(c, "Authentication required", "UNAUTHORIZED")
		return
	}

	var req BlockUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ValidationError(c, err.Error())
		return
	}

	blockedID, err := primitive.ObjectIDFromHex(req.UserID)
	if err != nil {
		response.BadRequest(c, "Invalid user id", "INVALID_ID")
		return
	}
	if blockedID == uid {
		response.BadRequest(c, "You cannot block yourself", "SELF_BLOCK")
		return
	}

	if err := h.users.BlockUser(c.Request.Context(), uid, blockedID); err != nil {
		logger.Error("Failed to block user: %v", err)
		response.InternalServerError(c, "Failed to block user")
		return
	}

	response.Success(c, gin.H{"blocked": true})
}
