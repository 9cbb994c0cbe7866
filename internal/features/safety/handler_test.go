package safety

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/ecoloop-app/ecoloop-backend/internal/features/proofs"
	"github.com/ecoloop-app/ecoloop-backend/internal/pkg/events"
	apperrors "github.com/ecoloop-app/ecoloop-backend/pkg/errors"
)

type fakeReportStore struct {
	reports []*Report
}

func (f *fakeReportStore) Create(_ context.Context, report *Report) error {
	f.reports = append(f.reports, report)
	return nil
}

type fakeProofStore struct {
	proof *proofs.Proof
}

func (f *fakeProofStore) GetByID(_ context.Context, id primitive.ObjectID) (*proofs.Proof, error) {
	if f.proof == nil || f.proof.ID != id {
		return nil, apperrors.ErrProofNotFound
	}
	cp := *f.proof
	return &cp, nil
}

func (f *fakeProofStore) MarkReported(_ context.Context, proofID primitive.ObjectID) (bool, error) {
	p := f.proof
	if p == nil || p.ID != proofID || p.Status != proofs.StatusPending {
		return false, nil
	}
	p.Status = proofs.StatusReported
	p.Visible = false
	return true, nil
}

type fakeInstanceStore struct {
	mirrored []primitive.ObjectID
	err      error
}

func (f *fakeInstanceStore) MirrorDecision(_ context.Context, instanceID primitive.ObjectID, _ bool) error {
	if f.err != nil {
		return f.err
	}
	f.mirrored = append(f.mirrored, instanceID)
	return nil
}

type fakeBlocker struct{}

func (fakeBlocker) BlockUser(_ context.Context, _, _ primitive.ObjectID) error { return nil }

type passTxn struct{}

func (passTxn) Run(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

func newReportedBus(t *testing.T) (*events.Bus, *atomic.Int32) {
	t.Helper()
	bus := events.New(8)
	var published atomic.Int32
	bus.Subscribe(events.TypeProofReported, "capture", false, func(ctx context.Context, e events.Event) error {
		published.Add(1)
		return nil
	})
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	bus.Start(ctx)
	return bus, &published
}

func newReportRouter(h *Handler) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.POST("/proofs/:id/report", func(c *gin.Context) {
		c.Set("userID", c.GetHeader("X-User-ID"))
		h.ReportProof(c)
	})
	return r
}

func reportProof(r *gin.Engine, proofID, reporter primitive.ObjectID, reason string) *httptest.ResponseRecorder {
	body, _ := json.Marshal(gin.H{"reason": reason})
	req := httptest.NewRequest(http.MethodPost, "/proofs/"+proofID.Hex()+"/report", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-User-ID", reporter.Hex())
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestReportPendingProofPullsAndMirrors(t *testing.T) {
	proof := &proofs.Proof{
		ID:          primitive.NewObjectID(),
		SubmitterID: primitive.NewObjectID(),
		InstanceID:  primitive.NewObjectID(),
		Status:      proofs.StatusPending,
		Visible:     true,
	}
	store := &fakeProofStore{proof: proof}
	instances := &fakeInstanceStore{}
	reports := &fakeReportStore{}
	bus, published := newReportedBus(t)
	h := NewHandler(reports, store, instances, fakeBlocker{}, passTxn{}, bus)
	r := newReportRouter(h)

	w := reportProof(r, proof.ID, primitive.NewObjectID(), "spam")

	require.Equal(t, http.StatusOK, w.Code)
	require.Len(t, reports.reports, 1)
	require.Equal(t, proofs.StatusReported, proof.Status)
	require.False(t, proof.Visible)
	require.Equal(t, []primitive.ObjectID{proof.InstanceID}, instances.mirrored)
	require.Eventually(t, func() bool { return published.Load() == 1 }, 2*time.Second, 10*time.Millisecond)
}

func TestReportDecidedProofKeepsOutcome(t *testing.T) {
	proof := &proofs.Proof{
		ID:          primitive.NewObjectID(),
		SubmitterID: primitive.NewObjectID(),
		InstanceID:  primitive.NewObjectID(),
		Status:      proofs.StatusApproved,
	}
	store := &fakeProofStore{proof: proof}
	instances := &fakeInstanceStore{}
	reports := &fakeReportStore{}
	bus, published := newReportedBus(t)
	h := NewHandler(reports, store, instances, fakeBlocker{}, passTxn{}, bus)
	r := newReportRouter(h)

	w := reportProof(r, proof.ID, primitive.NewObjectID(), "unrelated")

	require.Equal(t, http.StatusOK, w.Code)
	require.Len(t, reports.reports, 1) // the report stays on record
	require.Equal(t, proofs.StatusApproved, proof.Status)
	require.Empty(t, instances.mirrored)
	time.Sleep(50 * time.Millisecond)
	require.Equal(t, int32(0), published.Load())
}

func TestReportMirrorFailureSuppressesEvent(t *testing.T) {
	proof := &proofs.Proof{
		ID:          primitive.NewObjectID(),
		SubmitterID: primitive.NewObjectID(),
		InstanceID:  primitive.NewObjectID(),
		Status:      proofs.StatusPending,
	}
	store := &fakeProofStore{proof: proof}
	instances := &fakeInstanceStore{err: errors.New("write conflict")}
	bus, published := newReportedBus(t)
	h := NewHandler(&fakeReportStore{}, store, instances, fakeBlocker{}, passTxn{}, bus)
	r := newReportRouter(h)

	w := reportProof(r, proof.ID, primitive.NewObjectID(), "spam")

	require.Equal(t, http.StatusInternalServerError, w.Code)
	time.Sleep(50 * time.Millisecond)
	require.Equal(t, int32(0), published.Load())
}

func TestReportOwnProofRejected(t *testing.T) {
	proof := &proofs.Proof{
		ID:          primitive.NewObjectID(),
		SubmitterID: primitive.NewObjectID(),
		Status:      proofs.StatusPending,
	}
	store := &fakeProofStore{proof: proof}
	h := NewHandler(&fakeReportStore{}, store, &fakeInstanceStore{}, fakeBlocker{}, passTxn{}, events.New(8))
	r := newReportRouter(h)

	w := reportProof(r, proof.ID, proof.SubmitterID, "spam")
	require.Equal(t, http.StatusBadRequest, w.Code)
}
