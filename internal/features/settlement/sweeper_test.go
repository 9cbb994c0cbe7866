package settlement

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/ecoloop-app/ecoloop-backend/internal/config"
	"github.com/ecoloop-app/ecoloop-backend/internal/features/proofs"
	"github.com/ecoloop-app/ecoloop-backend/internal/pkg/events"
)

type fakeSweepStore struct {
	stale     []proofs.Proof
	flagged   []primitive.ObjectID
	decided   []primitive.ObjectID
	decideHit bool // when false, Decide reports the proof was already decided
}

func (f *fakeSweepStore) ListStalePending(_ context.Context, _ time.Time) ([]proofs.Proof, error) {
	return f.stale, nil
}

func (f *fakeSweepStore) MarkStale(_ context.Context, proofID primitive.ObjectID) error {
	f.flagged = append(f.flagged, proofID)
	return nil
}

func (f *fakeSweepStore) Decide(_ context.Context, proofID primitive.ObjectID, _ bool) (bool, error) {
	if !f.decideHit {
		return false, nil
	}
	f.decided = append(f.decided, proofID)
	return true, nil
}

type fakeSweepMirror struct {
	mirrored []primitive.ObjectID
	err      error
}

func (f *fakeSweepMirror) MirrorDecision(_ context.Context, instanceID primitive.ObjectID, _ bool) error {
	if f.err != nil {
		return f.err
	}
	f.mirrored = append(f.mirrored, instanceID)
	return nil
}

type sweepTxn struct{}

func (sweepTxn) Run(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

func newSweeperBus(t *testing.T) (*events.Bus, *atomic.Int32) {
	t.Helper()
	bus := events.New(8)
	var published atomic.Int32
	bus.Subscribe(events.TypeProofDecided, "capture", false, func(ctx context.Context, e events.Event) error {
		published.Add(1)
		return nil
	})
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	bus.Start(ctx)
	return bus, &published
}

func staleProof() proofs.Proof {
	return proofs.Proof{
		ID:         primitive.NewObjectID(),
		InstanceID: primitive.NewObjectID(),
		Status:     proofs.StatusPending,
		CreatedAt:  time.Now().Add(-100 * time.Hour),
	}
}

func TestSweepRejectPolicyDecidesAndMirrors(t *testing.T) {
	p := staleProof()
	store := &fakeSweepStore{stale: []proofs.Proof{p}, decideHit: true}
	mirror := &fakeSweepMirror{}
	bus, published := newSweeperBus(t)
	cfg := &config.Config{StalePolicy: config.StalePolicyReject, PendingProofTTL: 72 * time.Hour}

	s := NewSweeper(store, mirror, sweepTxn{}, bus, cfg)
	s.sweep(context.Background())

	require.Equal(t, []primitive.ObjectID{p.ID}, store.decided)
	require.Equal(t, []primitive.ObjectID{p.InstanceID}, mirror.mirrored)
	require.Eventually(t, func() bool { return published.Load() == 1 }, 2*time.Second, 10*time.Millisecond)
}

func TestSweepRejectSkipsProofDecidedMeanwhile(t *testing.T) {
	store := &fakeSweepStore{stale: []proofs.Proof{staleProof()}, decideHit: false}
	mirror := &fakeSweepMirror{}
	bus, published := newSweeperBus(t)
	cfg := &config.Config{StalePolicy: config.StalePolicyReject, PendingProofTTL: 72 * time.Hour}

	s := NewSweeper(store, mirror, sweepTxn{}, bus, cfg)
	s.sweep(context.Background())

	require.Empty(t, mirror.mirrored)
	time.Sleep(50 * time.Millisecond)
	require.Equal(t, int32(0), published.Load())
}

func TestSweepRejectMirrorFailureSuppressesEvent(t *testing.T) {
	store := &fakeSweepStore{stale: []proofs.Proof{staleProof()}, decideHit: true}
	mirror := &fakeSweepMirror{err: errors.New("write conflict")}
	bus, published := newSweeperBus(t)
	cfg := &config.Config{StalePolicy: config.StalePolicyReject, PendingProofTTL: 72 * time.Hour}

	s := NewSweeper(store, mirror, sweepTxn{}, bus, cfg)
	s.sweep(context.Background())

	time.Sleep(50 * time.Millisecond)
	require.Equal(t, int32(0), published.Load())
}

func TestSweepFlagPolicyMarksStale(t *testing.T) {
	p := staleProof()
	store := &fakeSweepStore{stale: []proofs.Proof{p}, decideHit: true}
	mirror := &fakeSweepMirror{}
	bus, published := newSweeperBus(t)
	cfg := &config.Config{StalePolicy: config.StalePolicyFlag, PendingProofTTL: 72 * time.Hour}

	s := NewSweeper(store, mirror, sweepTxn{}, bus, cfg)
	s.sweep(context.Background())

	require.Equal(t, []primitive.ObjectID{p.ID}, store.flagged)
	require.Empty(t, store.decided)
	require.Empty(t, mirror.mirrored)
	time.Sleep(50 * time.Millisecond)
	require.Equal(t, int32(0), published.Load())
}
