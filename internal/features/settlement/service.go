package settlement

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/ecoloop-app/ecoloop-backend/internal/features/proofs"
	"github.com/ecoloop-app/ecoloop-backend/internal/pkg/events"
	"github.com/ecoloop-app/ecoloop-backend/internal/pkg/logger"
	apperrors "github.com/ecoloop-app/ecoloop-backend/pkg/errors"
)

// ProofInfo is the slice of proof state settlement needs
type ProofInfo struct {
	SubmitterID primitive.ObjectID
	ChallengeID primitive.ObjectID
	Status      string
	Settled     bool
}

// Store is the persistence surface for settlement. SettleAndCredit must be
// atomic: marking the proof settled and crediting the ledger either both
// happen or neither does, and a second call returns ErrAlreadySettled.
type Store interface {
	ProofForSettlement(ctx context.Context, proofID primitive.ObjectID) (*ProofInfo, error)
	ChallengePointValue(ctx context.Context, challengeID primitive.ObjectID) (int, error)
	SettleAndCredit(ctx context.Context, proofID primitive.ObjectID, info *ProofInfo, amount int) error
}

// Service turns proof decisions into point credits. Delivery from the bus is
// at-least-once, so every path through here is idempotent.
type Service struct {
	store Store
}

// NewService creates a settlement service
func NewService(store Store) *Service {
	return &Service{store: store}
}

// Register hooks the service into the event bus with redelivery enabled
func (s *Service) Register(bus *events.Bus) {
	bus.Subscribe(events.TypeProofDecided, "settlement", true, s.HandleProofDecided)
}

// HandleProofDecided settles one decided proof. Rejected and reported proofs
// settle as a no-op; approved proofs get credited exactly once.
func (s *Service) HandleProofDecided(ctx context.Context, e events.Event) error {
	if e.Status != proofs.StatusApproved {
		return nil
	}

	proofID, err := primitive.ObjectIDFromHex(e.ProofID)
	if err != nil {
		// Malformed ids never become valid; retrying would spin forever
		logger.Error("Settlement got malformed proof id %q", e.ProofID)
		return nil
	}

	info, err := s.store.ProofForSettlement(ctx, proofID)
	if err != nil {
		if errors.Is(err, apperrors.ErrProofNotFound) {
			logger.Error("Settlement could not find proof %s", e.ProofID)
			return nil
		}
		return fmt.Errorf("load proof for settlement: %w", err)
	}

	if info.Settled {
		return nil
	}
	if info.Status != proofs.StatusApproved {
		return nil
	}

	amount, err := s.store.ChallengePointValue(ctx, info.ChallengeID)
	if err != nil {
		return fmt.Errorf("load point value: %w", err)
	}

	if err := s.store.SettleAndCredit(ctx, proofID, info, amount); err != nil {
		if errors.Is(err, apperrors.ErrAlreadySettled) {
			return nil
		}
		return fmt.Errorf("settle proof %s: %w", e.ProofID, err)
	}

	logger.WithFields(logger.Fields{
		"proofId": e.ProofID,
		"userId":  info.SubmitterID.Hex(),
		"amount":  amount,
	}).Info("proof settled, points credited")
	return nil
}
