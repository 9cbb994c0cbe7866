package reviews

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/ecoloop-app/ecoloop-backend/internal/config"
	"github.com/ecoloop-app/ecoloop-backend/internal/features/challenges"
	"github.com/ecoloop-app/ecoloop-backend/internal/features/proofs"
	"github.com/ecoloop-app/ecoloop-backend/internal/pkg/events"
	apperrors "github.com/ecoloop-app/ecoloop-backend/pkg/errors"
)

// fakeProofStore keeps one proof in memory and applies the same
// compare-and-swap rules the Mongo filters enforce.
type fakeProofStore struct {
	proof      *proofs.Proof
	decisions  int
	staleReads int // serve this many reads as if the proof were still pending
}

func (f *fakeProofStore) GetByID(ctx context.Context, id primitive.ObjectID) (*proofs.Proof, error) {
	if f.proof == nil || f.proof.ID != id {
		return nil, apperrors.ErrProofNotFound
	}
	cp := *f.proof
	cp.Votes = make(map[string]bool, len(f.proof.Votes))
	for k, v := range f.proof.Votes {
		cp.Votes[k] = v
	}
	if f.staleReads > 0 {
		f.staleReads--
		cp.Status = proofs.StatusPending
		cp.Votes = map[string]bool{}
	}
	return &cp, nil
}

func (f *fakeProofStore) CastVote(ctx context.Context, proofID, validatorID primitive.ObjectID, approve bool) error {
	p := f.proof
	if p == nil || p.ID != proofID || p.Status != proofs.StatusPending ||
		!p.IsAssigned(validatorID) || p.HasVoted(validatorID) {
		return apperrors.ErrConflict
	}
	if p.Votes == nil {
		p.Votes = map[string]bool{}
	}
	p.Votes[validatorID.Hex()] = approve
	return nil
}

func (f *fakeProofStore) Decide(ctx context.Context, proofID primitive.ObjectID, approved bool) (bool, error) {
	p := f.proof
	if p == nil || p.ID != proofID || p.Status != proofs.StatusPending {
		return false, nil
	}
	if approved {
		p.Status = proofs.StatusApproved
	} else {
		p.Status = proofs.StatusRejected
	}
	now := time.Now()
	p.DecidedAt = &now
	f.decisions++
	return true, nil
}

type fakeInstanceStore struct {
	open     map[primitive.ObjectID]*challenges.Instance
	mirrored []bool
}

func (f *fakeInstanceStore) GetOpenInstance(ctx context.Context, userID primitive.ObjectID) (*challenges.Instance, error) {
	return f.open[userID], nil
}

func (f *fakeInstanceStore) MirrorDecision(ctx context.Context, instanceID primitive.ObjectID, approved bool) error {
	f.mirrored = append(f.mirrored, approved)
	return nil
}

type fakeGateStore struct {
	counts map[string]int
}

func (f *fakeGateStore) Increment(ctx context.Context, userID, instanceID primitive.ObjectID) error {
	f.counts[userID.Hex()+"/"+instanceID.Hex()]++
	return nil
}

func (f *fakeGateStore) ReviewsCompleted(ctx context.Context, userID, instanceID primitive.ObjectID) (int, error) {
	return f.counts[userID.Hex()+"/"+instanceID.Hex()], nil
}

// passTxn just runs the function; the fakes apply writes immediately
type passTxn struct{}

func (passTxn) Run(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

func newCaptureBus(t *testing.T) (*events.Bus, *atomic.Int32) {
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

func newVoteHandler(t *testing.T, policy string, store *fakeProofStore) (*Handler, *fakeInstanceStore, *fakeGateStore, *atomic.Int32) {
	t.Helper()
	instances := &fakeInstanceStore{open: map[primitive.ObjectID]*challenges.Instance{}}
	gates := &fakeGateStore{counts: map[string]int{}}
	bus, published := newCaptureBus(t)
	cfg := &config.Config{VotePolicy: policy, ReviewQuota: 3}
	return NewHandler(store, instances, gates, passTxn{}, bus, cfg), instances, gates, published
}

func newVoteRouter(h *Handler) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.POST("/proofs/:id/vote", func(c *gin.Context) {
		c.Set("userID", c.GetHeader("X-User-ID"))
		h.CastVote(c)
	})
	return r
}

func castVote(r *gin.Engine, proofID, voter primitive.ObjectID, approve bool) *httptest.ResponseRecorder {
	body, _ := json.Marshal(gin.H{"approve": approve})
	req := httptest.NewRequest(http.MethodPost, "/proofs/"+proofID.Hex()+"/vote", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-User-ID", voter.Hex())
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func pendingProof(validators ...primitive.ObjectID) *proofs.Proof {
	return &proofs.Proof{
		ID:                 primitive.NewObjectID(),
		SubmitterID:        primitive.NewObjectID(),
		InstanceID:         primitive.NewObjectID(),
		Status:             proofs.StatusPending,
		AssignedValidators: validators,
		Votes:              map[string]bool{},
	}
}

func errorCode(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	code, _ := body["code"].(string)
	return code
}

func TestCastVoteFirstApprovalDecides(t *testing.T) {
	v1 := primitive.NewObjectID()
	store := &fakeProofStore{proof: pendingProof(v1, primitive.NewObjectID())}
	h, instances, _, published := newVoteHandler(t, config.VotePolicyFirst, store)
	r := newVoteRouter(h)

	w := castVote(r, store.proof.ID, v1, true)

	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, proofs.StatusApproved, store.proof.Status)
	require.Equal(t, []bool{true}, instances.mirrored)
	require.Eventually(t, func() bool { return published.Load() == 1 }, 2*time.Second, 10*time.Millisecond)
}

func TestCastVoteAfterDecisionConflicts(t *testing.T) {
	v1, v2 := primitive.NewObjectID(), primitive.NewObjectID()
	store := &fakeProofStore{proof: pendingProof(v1, v2)}
	h, instances, _, published := newVoteHandler(t, config.VotePolicyFirst, store)
	r := newVoteRouter(h)

	require.Equal(t, http.StatusOK, castVote(r, store.proof.ID, v1, true).Code)

	w := castVote(r, store.proof.ID, v2, false)
	require.Equal(t, http.StatusConflict, w.Code)
	require.Equal(t, "PROOF_DECIDED", errorCode(t, w))

	// the first transition out of pending is the only one
	require.Equal(t, proofs.StatusApproved, store.proof.Status)
	require.Equal(t, 1, store.decisions)
	require.Equal(t, []bool{true}, instances.mirrored)
	require.Eventually(t, func() bool { return published.Load() == 1 }, 2*time.Second, 10*time.Millisecond)
	time.Sleep(50 * time.Millisecond)
	require.Equal(t, int32(1), published.Load())
}

func TestCastVoteConcurrentDecisionLosesCleanly(t *testing.T) {
	v1, v2 := primitive.NewObjectID(), primitive.NewObjectID()
	store := &fakeProofStore{proof: pendingProof(v1, v2)}
	h, instances, _, published := newVoteHandler(t, config.VotePolicyFirst, store)
	r := newVoteRouter(h)

	require.Equal(t, http.StatusOK, castVote(r, store.proof.ID, v1, true).Code)

	// the second voter read the proof before the first decision landed, so
	// the pre-checks pass and the conflict only surfaces at the write
	store.staleReads = 1
	w := castVote(r, store.proof.ID, v2, false)
	require.Equal(t, http.StatusConflict, w.Code)
	require.Equal(t, "VOTE_CONFLICT", errorCode(t, w))

	require.Equal(t, proofs.StatusApproved, store.proof.Status)
	require.Equal(t, 1, store.decisions)
	require.Equal(t, []bool{true}, instances.mirrored)
	require.Eventually(t, func() bool { return published.Load() == 1 }, 2*time.Second, 10*time.Millisecond)
	time.Sleep(50 * time.Millisecond)
	require.Equal(t, int32(1), published.Load())
}

func TestCastVoteQuorumWaitsForMoreVotes(t *testing.T) {
	v1 := primitive.NewObjectID()
	store := &fakeProofStore{proof: pendingProof(v1, primitive.NewObjectID(), primitive.NewObjectID())}
	h, instances, _, published := newVoteHandler(t, config.VotePolicyQuorum, store)
	r := newVoteRouter(h)

	w := castVote(r, store.proof.ID, v1, true)

	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, proofs.StatusPending, store.proof.Status)
	require.True(t, store.proof.HasVoted(v1))
	require.Empty(t, instances.mirrored)
	time.Sleep(50 * time.Millisecond)
	require.Equal(t, int32(0), published.Load())
}

func TestCastVoteIncrementsVoterGate(t *testing.T) {
	v1 := primitive.NewObjectID()
	store := &fakeProofStore{proof: pendingProof(v1)}
	h, instances, gates, _ := newVoteHandler(t, config.VotePolicyFirst, store)

	voterInstance := &challenges.Instance{ID: primitive.NewObjectID(), UserID: v1, Status: challenges.StatusActive, Open: true}
	instances.open[v1] = voterInstance

	r := newVoteRouter(h)
	require.Equal(t, http.StatusOK, castVote(r, store.proof.ID, v1, true).Code)

	completed, err := gates.ReviewsCompleted(context.Background(), v1, voterInstance.ID)
	require.NoError(t, err)
	require.Equal(t, 1, completed)
}

func TestCastVoteGuards(t *testing.T) {
	v1 := primitive.NewObjectID()
	store := &fakeProofStore{proof: pendingProof(v1, primitive.NewObjectID(), primitive.NewObjectID())}
	h, _, _, _ := newVoteHandler(t, config.VotePolicyQuorum, store)
	r := newVoteRouter(h)

	w := castVote(r, store.proof.ID, store.proof.SubmitterID, true)
	require.Equal(t, http.StatusForbidden, w.Code)
	require.Equal(t, "OWN_PROOF", errorCode(t, w))

	w = castVote(r, store.proof.ID, primitive.NewObjectID(), true)
	require.Equal(t, http.StatusForbidden, w.Code)
	require.Equal(t, "NOT_ASSIGNED", errorCode(t, w))

	require.Equal(t, http.StatusOK, castVote(r, store.proof.ID, v1, true).Code)
	w = castVote(r, store.proof.ID, v1, true)
	require.Equal(t, http.StatusConflict, w.Code)
	require.Equal(t, "ALREADY_VOTED", errorCode(t, w))
}
