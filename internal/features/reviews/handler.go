package reviews

import (
	"context"
	"errors"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/ecoloop-app/ecoloop-backend/internal/config"
	"github.com/ecoloop-app/ecoloop-backend/internal/features/challenges"
	"github.com/ecoloop-app/ecoloop-backend/internal/features/proofs"
	"github.com/ecoloop-app/ecoloop-backend/internal/pkg/events"
	"github.com/ecoloop-app/ecoloop-backend/internal/pkg/logger"
	"github.com/ecoloop-app/ecoloop-backend/internal/pkg/response"
	apperrors "github.com/ecoloop-app/ecoloop-backend/pkg/errors"
)

// ProofStore is the slice of the proof repository the vote path needs
type ProofStore interface {
	GetByID(ctx context.Context, id primitive.ObjectID) (*proofs.Proof, error)
	CastVote(ctx context.Context, proofID, validatorID primitive.ObjectID, approve bool) error
	Decide(ctx context.Context, proofID primitive.ObjectID, approved bool) (bool, error)
}

// InstanceStore resolves the voter's open challenge and mirrors decisions
// onto the submitter's instance
type InstanceStore interface {
	GetOpenInstance(ctx context.Context, userID primitive.ObjectID) (*challenges.Instance, error)
	MirrorDecision(ctx context.Context, instanceID primitive.ObjectID, approved bool) error
}

// GateStore tracks completed reviews per (user, instance)
type GateStore interface {
	Increment(ctx context.Context, userID, instanceID primitive.ObjectID) error
	ReviewsCompleted(ctx context.Context, userID, instanceID primitive.ObjectID) (int, error)
}

// TxnRunner commits the vote, the gate bump and the decision atomically
type TxnRunner interface {
	Run(ctx context.Context, fn func(ctx context.Context) error) error
}

// Handler handles validation vote endpoints
type Handler struct {
	proofs    ProofStore
	instances InstanceStore
	gates     GateStore
	txn       TxnRunner
	bus       *events.Bus
	cfg       *config.Config
}

// NewHandler creates a new reviews handler
func NewHandler(proofStore ProofStore, instances InstanceStore, gates GateStore, txn TxnRunner, bus *events.Bus, cfg *config.Config) *Handler {
	return &Handler{
		proofs:    proofStore,
		instances: instances,
		gates:     gates,
		txn:       txn,
		bus:       bus,
		cfg:       cfg,
	}
}

// CastVote godoc
// @Summary Cast a validation vote on an assigned proof
// @Tags reviews
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Proof ID"
// @Param request body VoteRequest true "Vote payload"
// @Success 200 {object} response.APIResponse
// @Failure 403 {object} response.ErrorResponse
// @Failure 409 {object} response.ErrorResponse
// @Router /proofs/{id}/vote [post]
func (h *Handler) CastVote(c *gin.Context) {
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

	var req VoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ValidationError(c, err.Error())
		return
	}
	approve := *req.Approve

	ctx := c.Request.Context()

	proof, err := h.proofs.GetByID(ctx, proofID)
	if err != nil {
		if errors.Is(err, apperrors.ErrProofNotFound) {
			response.NotFound(c, "Proof not found", "PROOF_NOT_FOUND")
			return
		}
		logger.Error("Failed to load proof: %v", err)
		response.InternalServerError(c, "Failed to cast vote")
		return
	}

	if proof.SubmitterID == uid {
		response.Forbidden(c, "You cannot review your own proof", "OWN_PROOF")
		return
	}
	if !proof.IsAssigned(uid) {
		response.Forbidden(c, "You are not assigned to this proof", "NOT_ASSIGNED")
		return
	}
	if proof.IsDecided() {
		response.Conflict(c, "This proof has already been decided", "PROOF_DECIDED")
		return
	}
	if proof.HasVoted(uid) {
		response.Conflict(c, "You already voted on this proof", "ALREADY_VOTED")
		return
	}

	var decidedByUs bool
	var finalStatus string

	err = h.txn.Run(ctx, func(sc context.Context) error {
		// The filter re-checks pending/assigned/unvoted, so pre-check races
		// surface here as a conflict.
		if err := h.proofs.CastVote(sc, proofID, uid, approve); err != nil {
			return err
		}

		// The completed review counts toward the voter's own gate
		if voterInstance, err := h.instances.GetOpenInstance(sc, uid); err != nil {
			return err
		} else if voterInstance != nil {
			if err := h.gates.Increment(sc, uid, voterInstance.ID); err != nil {
				return err
			}
		}

		fresh, err := h.proofs.GetByID(sc, proofID)
		if err != nil {
			return err
		}
		finalStatus = fresh.Status

		outcome := DeriveDecision(h.cfg.VotePolicy, len(fresh.AssignedValidators), fresh.Votes)
		if !outcome.Decided {
			return nil
		}

		flipped, err := h.proofs.Decide(sc, proofID, outcome.Approved)
		if err != nil {
			return err
		}
		if !flipped {
			return nil
		}

		if err := h.instances.MirrorDecision(sc, fresh.InstanceID, outcome.Approved); err != nil {
			return err
		}

		decidedByUs = true
		if outcome.Approved {
			finalStatus = proofs.StatusApproved
		} else {
			finalStatus = proofs.StatusRejected
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, apperrors.ErrConflict) {
			response.Conflict(c, "Vote could not be recorded, the proof changed underneath you", "VOTE_CONFLICT")
			return
		}
		logger.Error("Vote transaction failed: %v", err)
		response.InternalServerError(c, "Failed to cast vote")
		return
	}

	// Only the request that flipped the status announces the decision, so
	// downstream consumers see exactly one decision event per proof.
	if decidedByUs {
		h.bus.Publish(events.Event{
			Type:    events.TypeProofDecided,
			ProofID: proofID.Hex(),
			Status:  finalStatus,
		})
	}

	response.Success(c, VoteResult{
		ProofID:     proofID,
		VoteCounted: true,
		ProofStatus: finalStatus,
	})
}

// GateProgress godoc
// @Summary Get review gate progress for the caller's current challenge
// @Tags reviews
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.APIResponse
// @Router /reviews/gate [get]
func (h *Handler) GateProgress(c *gin.Context) {
	uid, err := primitive.ObjectIDFromHex(c.GetString("userID"))
	if err != nil {
		response.Unauthorized(c, "Authentication required", "UNAUTHORIZED")
		return
	}

	ctx := c.Request.Context()

	instance, err := h.instances.GetOpenInstance(ctx, uid)
	if err != nil {
		logger.Error("Failed to load open instance: %v", err)
		response.InternalServerError(c, "Failed to load gate progress")
		return
	}
	if instance == nil {
		response.NotFound(c, "No challenge in progress", "NO_OPEN_INSTANCE")
		return
	}

	completed, err := h.gates.ReviewsCompleted(ctx, uid, instance.ID)
	if err != nil {
		logger.Error("Failed to load gate counter: %v", err)
		response.InternalServerError(c, "Failed to load gate progress")
		return
	}

	response.Success(c, gin.H{
		"instanceId":       instance.ID,
		"reviewsCompleted": completed,
		"reviewQuota":      h.cfg.ReviewQuota,
		"satisfied":        completed >= h.cfg.ReviewQuota,
	})
}
