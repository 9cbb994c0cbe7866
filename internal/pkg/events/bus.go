package events

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/ecoloop-app/ecoloop-backend/internal/pkg/logger"
)

// Type identifies the kind of event flowing through the bus
type Type string

const (
	// TypeProofDecided fires exactly once per proof status transition out of
	// "pending". Consumers must be idempotent: delivery is at-least-once.
	TypeProofDecided Type = "proof_decided"

	// TypeProofReported fires when moderation pulls a proof
	TypeProofReported Type = "proof_reported"
)

// Event is the unit of delivery. ProofID and Status are hex/string forms so
// subscribers stay decoupled from Mongo types.
type Event struct {
	ID        string
	Type      Type
	ProofID   string
	Status    string
	Attempts  int
	CreatedAt time.Time
}

// HandlerFunc processes one event. Returning an error requeues the event for
// handlers registered with retry enabled.
type HandlerFunc func(ctx context.Context, e Event) error

type subscriber struct {
	name  string
	fn    HandlerFunc
	retry bool
}

// delivery pairs an event with the subscribers it is destined for. A nil set
// means everyone; redeliveries carry only the subscribers that failed, so a
// retrying settlement never makes best-effort handlers (push, websocket)
// see the same event twice.
type delivery struct {
	event Event
	only  map[string]bool
}

// Bus is an in-process publish/subscribe queue with at-least-once delivery
// semantics for retryable subscribers.
type Bus struct {
	mu          sync.RWMutex
	subscribers map[Type][]subscriber
	queue       chan delivery
	retryDelay  time.Duration
	maxAttempts int
	wg          sync.WaitGroup
}

// New creates a bus with the given buffer size
func New(buffer int) *Bus {
	if buffer <= 0 {
		buffer = 256
	}
	return &Bus{
		subscribers: make(map[Type][]subscriber),
		queue:       make(chan delivery, buffer),
		retryDelay:  2 * time.Second,
		maxAttempts: 10,
	}
}

// Subscribe registers a handler for an event type. Handlers with retry=true
// get the event redelivered (with backoff) until they succeed or the attempt
// budget runs out; retry=false handlers are fire-and-forget.
func (b *Bus) Subscribe(t Type, name string, retry bool, fn HandlerFunc) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.subscribers[t] = append(b.subscribers[t], subscriber{name: name, fn: fn, retry: retry})
}

// Publish enqueues an event. Blocks if the buffer is full rather than
// dropping: losing a proof_decided event would strand a settlement.
func (b *Bus) Publish(e Event) {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now()
	}
	b.queue <- delivery{event: e}
}

// Start runs the delivery loop until ctx is cancelled
func (b *Bus) Start(ctx context.Context) {
	b.wg.Add(1)
	go func() {
		defer b.wg.Done()
		for {
			select {
			case <-ctx.Done():
				return
			case d := <-b.queue:
				b.dispatch(ctx, d)
			}
		}
	}()
}

// Wait blocks until the delivery loop has stopped
func (b *Bus) Wait() {
	b.wg.Wait()
}

func (b *Bus) dispatch(ctx context.Context, d delivery) {
	b.mu.RLock()
	subs := b.subscribers[d.event.Type]
	b.mu.RUnlock()

	failed := map[string]bool{}
	for _, s := range subs {
		if d.only != nil && !d.only[s.name] {
			continue
		}
		if err := s.fn(ctx, d.event); err != nil {
			if s.retry {
				failed[s.name] = true
				logger.WithFields(logger.Fields{
					"event":    d.event.ID,
					"type":     d.event.Type,
					"handler":  s.name,
					"attempts": d.event.Attempts,
				}).Warnf("event handler failed, will redeliver: %v", err)
			} else {
				logger.WithFields(logger.Fields{
					"event":   d.event.ID,
					"type":    d.event.Type,
					"handler": s.name,
				}).Warnf("event handler failed (no retry): %v", err)
			}
		}
	}

	if len(failed) == 0 {
		return
	}

	e := d.event
	e.Attempts++
	if e.Attempts >= b.maxAttempts {
		// Operators must pick this up: a dropped settlement event silently
		// withholds a user's earned points.
		logger.WithFields(logger.Fields{
			"event":   e.ID,
			"type":    e.Type,
			"proofId": e.ProofID,
		}).Error("event delivery exhausted retry budget, giving up")
		return
	}

	redelivery := delivery{event: e, only: failed}
	delay := b.retryDelay * time.Duration(e.Attempts)
	time.AfterFunc(delay, func() {
		select {
		case b.queue <- redelivery:
		case <-ctx.Done():
		}
	})
}
