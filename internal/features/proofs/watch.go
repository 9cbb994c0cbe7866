package proofs

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/ecoloop-app/ecoloop-backend/internal/pkg/events"
	"github.com/ecoloop-app/ecoloop-backend/internal/pkg/logger"
	"github.com/ecoloop-app/ecoloop-backend/internal/pkg/response"
	apperrors "github.com/ecoloop-app/ecoloop-backend/pkg/errors"
)

const (
	writeWait  = 10 * time.Second
	pingPeriod = 30 * time.Second
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// Token auth happens before the upgrade; cross-origin browsers are fine
	CheckOrigin: func(r *http.Request) bool { return true },
}

// StatusUpdate is pushed to watchers when a proof leaves the pending state
type StatusUpdate struct {
	ProofID   string    `json:"proofId"`
	Status    string    `json:"status"`
	DecidedAt time.Time `json:"decidedAt"`
}

type watcher struct {
	conn *websocket.Conn
	send chan StatusUpdate
}

// Hub fans proof decisions out to websocket watchers. It subscribes to the
// event bus without retry: a missed push is recoverable by polling.
type Hub struct {
	mu       sync.RWMutex
	watchers map[string]map[*watcher]struct{}
}

// NewHub creates a hub and hooks it into the bus
func NewHub(bus *events.Bus) *Hub {
	h := &Hub{watchers: make(map[string]map[*watcher]struct{})}

	notify := func(ctx context.Context, e events.Event) error {
		h.broadcast(StatusUpdate{ProofID: e.ProofID, Status: e.Status, DecidedAt: e.CreatedAt})
		return nil
	}
	bus.Subscribe(events.TypeProofDecided, "proof-watch", false, notify)
	bus.Subscribe(events.TypeProofReported, "proof-watch", false, notify)

	return h
}

func (h *Hub) register(proofID string, w *watcher) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.watchers[proofID] == nil {
		h.watchers[proofID] = make(map[*watcher]struct{})
	}
	h.watchers[proofID][w] = struct{}{}
}

func (h *Hub) unregister(proofID string, w *watcher) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if set, ok := h.watchers[proofID]; ok {
		delete(set, w)
		if len(set) == 0 {
			delete(h.watchers, proofID)
		}
	}
}

func (h *Hub) broadcast(update StatusUpdate) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for w := range h.watchers[update.ProofID] {
		select {
		case w.send <- update:
		default:
			// Slow consumer; it can poll for the final state
		}
	}
}

// Watch godoc
// @Summary Stream status updates for a proof over a websocket
// @Tags proofs
// @Security BearerAuth
// @Param id path string true "Proof ID"
// @Success 101 {string} string "Switching Protocols"
// @Router /proofs/{id}/watch [get]
func (h *Handler) Watch(hub *Hub) gin.HandlerFunc {
	return func(c *gin.Context) {
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
			response.InternalServerError(c, "Failed to load proof")
			return
		}

		if proof.SubmitterID != uid && !proof.IsAssigned(uid) {
			response.NotFound(c, "Proof not found", "PROOF_NOT_FOUND")
			return
		}

		conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			logger.Warn("Websocket upgrade failed: %v", err)
			return
		}

		w := &watcher{conn: conn, send: make(chan StatusUpdate, 4)}
		key := proofID.Hex()
		hub.register(key, w)

		// Already-decided proofs get their final state pushed immediately
		if proof.IsDecided() && proof.DecidedAt != nil {
			w.send <- StatusUpdate{ProofID: key, Status: proof.Status, DecidedAt: *proof.DecidedAt}
		}

		go w.writePump()
		w.readPump(func() { hub.unregister(key, w) })
	}
}

func (w *watcher) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		w.conn.Close()
	}()

	for {
		select {
		case update, ok := <-w.send:
			w.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				w.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := w.conn.WriteJSON(update); err != nil {
				return
			}
		case <-ticker.C:
			w.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := w.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (w *watcher) readPump(onClose func()) {
	defer func() {
		onClose()
		close(w.send)
	}()

	for {
		if _, _, err := w.conn.ReadMessage(); err != nil {
			return
		}
	}
}
