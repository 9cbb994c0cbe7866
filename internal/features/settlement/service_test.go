package settlement

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/ecoloop-app/ecoloop-backend/internal/features/proofs"
	"github.com/ecoloop-app/ecoloop-backend/internal/pkg/events"
	apperrors "github.com/ecoloop-app/ecoloop-backend/pkg/errors"
)

type fakeStore struct {
	info       *ProofInfo
	infoErr    error
	pointValue int
	credits    []int
	settleErr  error
}

func (f *fakeStore) ProofForSettlement(_ context.Context, _ primitive.ObjectID) (*ProofInfo, error) {
	if f.infoErr != nil {
		return nil, f.infoErr
	}
	return f.info, nil
}

func (f *fakeStore) ChallengePointValue(_ context.Context, _ primitive.ObjectID) (int, error) {
	return f.pointValue, nil
}

func (f *fakeStore) SettleAndCredit(_ context.Context, _ primitive.ObjectID, _ *ProofInfo, amount int) error {
	if f.settleErr != nil {
		return f.settleErr
	}
	if f.info.Settled {
		return apperrors.ErrAlreadySettled
	}
	f.info.Settled = true
	f.credits = append(f.credits, amount)
	return nil
}

func approvedEvent(proofID primitive.ObjectID) events.Event {
	return events.Event{
		Type:    events.TypeProofDecided,
		ProofID: proofID.Hex(),
		Status:  proofs.StatusApproved,
	}
}

func TestHandleProofDecidedCreditsApprovedProof(t *testing.T) {
	proofID := primitive.NewObjectID()
	store := &fakeStore{
		info:       &ProofInfo{SubmitterID: primitive.NewObjectID(), ChallengeID: primitive.NewObjectID(), Status: proofs.StatusApproved},
		pointValue: 50,
	}
	svc := NewService(store)

	err := svc.HandleProofDecided(context.Background(), approvedEvent(proofID))
	require.NoError(t, err)
	require.Equal(t, []int{50}, store.credits)
	require.True(t, store.info.Settled)
}

func TestHandleProofDecidedRedeliveryCreditsOnce(t *testing.T) {
	proofID := primitive.NewObjectID()
	store := &fakeStore{
		info:       &ProofInfo{SubmitterID: primitive.NewObjectID(), ChallengeID: primitive.NewObjectID(), Status: proofs.StatusApproved},
		pointValue: 50,
	}
	svc := NewService(store)

	for i := 0; i < 3; i++ {
		require.NoError(t, svc.HandleProofDecided(context.Background(), approvedEvent(proofID)))
	}

	require.Equal(t, []int{50}, store.credits)
}

func TestHandleProofDecidedIgnoresRejected(t *testing.T) {
	store := &fakeStore{
		info:       &ProofInfo{Status: proofs.StatusRejected},
		pointValue: 50,
	}
	svc := NewService(store)

	e := approvedEvent(primitive.NewObjectID())
	e.Status = proofs.StatusRejected

	require.NoError(t, svc.HandleProofDecided(context.Background(), e))
	require.Empty(t, store.credits)
}

func TestHandleProofDecidedSkipsWhenProofNoLongerApproved(t *testing.T) {
	// Event says approved but the stored proof moved on, e.g. a report
	// override raced the decision.
	store := &fakeStore{
		info:       &ProofInfo{Status: proofs.StatusReported},
		pointValue: 50,
	}
	svc := NewService(store)

	require.NoError(t, svc.HandleProofDecided(context.Background(), approvedEvent(primitive.NewObjectID())))
	require.Empty(t, store.credits)
}

func TestHandleProofDecidedRetriesOnTransientFailure(t *testing.T) {
	store := &fakeStore{
		info:       &ProofInfo{SubmitterID: primitive.NewObjectID(), ChallengeID: primitive.NewObjectID(), Status: proofs.StatusApproved},
		pointValue: 25,
		settleErr:  errors.New("connection reset"),
	}
	svc := NewService(store)

	e := approvedEvent(primitive.NewObjectID())

	// First delivery fails and asks for redelivery
	require.Error(t, svc.HandleProofDecided(context.Background(), e))
	require.Empty(t, store.credits)

	// Redelivery succeeds after the transient failure clears
	store.settleErr = nil
	require.NoError(t, svc.HandleProofDecided(context.Background(), e))
	require.Equal(t, []int{25}, store.credits)
}

func TestHandleProofDecidedMissingProofDoesNotRetry(t *testing.T) {
	store := &fakeStore{infoErr: apperrors.ErrProofNotFound}
	svc := NewService(store)

	require.NoError(t, svc.HandleProofDecided(context.Background(), approvedEvent(primitive.NewObjectID())))
}

func TestHandleProofDecidedMalformedIDDoesNotRetry(t *testing.T) {
	store := &fakeStore{}
	svc := NewService(store)

	e := events.Event{Type: events.TypeProofDecided, ProofID: "not-an-id", Status: proofs.StatusApproved}
	require.NoError(t, svc.HandleProofDecided(context.Background(), e))
}
