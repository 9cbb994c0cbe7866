package settlement

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/ecoloop-app/ecoloop-backend/internal/config"
	"github.com/ecoloop-app/ecoloop-backend/internal/features/proofs"
	"github.com/ecoloop-app/ecoloop-backend/internal/pkg/events"
	"github.com/ecoloop-app/ecoloop-backend/internal/pkg/logger"
)

// StaleProofStore is the slice of the proof repository the sweeper needs
type StaleProofStore interface {
	ListStalePending(ctx context.Context, cutoff time.Time) ([]proofs.Proof, error)
	MarkStale(ctx context.Context, proofID primitive.ObjectID) error
	Decide(ctx context.Context, proofID primitive.ObjectID, approved bool) (bool, error)
}

// InstanceMirror mirrors a proof decision onto its challenge instance
type InstanceMirror interface {
	MirrorDecision(ctx context.Context, instanceID primitive.ObjectID, approved bool) error
}

// TxnRunner commits the decision and the instance mirror atomically
type TxnRunner interface {
	Run(ctx context.Context, fn func(ctx context.Context) error) error
}

// Sweeper periodically deals with proofs that sat pending past their TTL.
// Depending on configuration it either flags them for operators or rejects
// them outright through the same compare-and-swap path votes use.
type Sweeper struct {
	proofs    StaleProofStore
	instances InstanceMirror
	txn       TxnRunner
	bus       *events.Bus
	cfg       *config.Config
}

// NewSweeper creates a sweeper
func NewSweeper(proofStore StaleProofStore, instances InstanceMirror, txn TxnRunner, bus *events.Bus, cfg *config.Config) *Sweeper {
	return &Sweeper{proofs: proofStore, instances: instances, txn: txn, bus: bus, cfg: cfg}
}

// Start runs the sweep loop until ctx is cancelled
func (s *Sweeper) Start(ctx context.Context) {
	go func() {
		ticker := time.NewTicker(s.cfg.SweepInterval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				s.sweep(ctx)
			}
		}
	}()
}

func (s *Sweeper) sweep(ctx context.Context) {
	cutoff := time.Now().Add(-s.cfg.PendingProofTTL)

	stale, err := s.proofs.ListStalePending(ctx, cutoff)
	if err != nil {
		logger.Error("Stale proof sweep failed: %v", err)
		return
	}
	if len(stale) == 0 {
		return
	}

	logger.Info("Sweeping %d stale pending proofs (policy=%s)", len(stale), s.cfg.StalePolicy)

	for _, p := range stale {
		if s.cfg.StalePolicy == config.StalePolicyReject {
			s.reject(ctx, p)
			continue
		}

		if !p.Stale {
			if err := s.proofs.MarkStale(ctx, p.ID); err != nil {
				logger.Warn("Failed to flag stale proof %s: %v", p.ID.Hex(), err)
			}
		}
	}
}

// reject pushes a timed-out proof through the normal decision path so the
// instance mirror and decision event fire the same way a vote would. The
// decision and the mirror commit together; if the mirror write fails the
// proof stays pending and the next sweep retries it.
func (s *Sweeper) reject(ctx context.Context, p proofs.Proof) {
	var flipped bool
	err := s.txn.Run(ctx, func(tc context.Context) error {
		var err error
		flipped, err = s.proofs.Decide(tc, p.ID, false)
		if err != nil || !flipped {
			return err
		}
		return s.instances.MirrorDecision(tc, p.InstanceID, false)
	})
	if err != nil {
		logger.Warn("Failed to reject stale proof %s: %v", p.ID.Hex(), err)
		return
	}
	if !flipped {
		// A vote got there first
		return
	}

	s.bus.Publish(events.Event{
		Type:    events.TypeProofDecided,
		ProofID: p.ID.Hex(),
		Status:  proofs.StatusRejected,
	})
}
