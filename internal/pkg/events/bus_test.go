package events

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestBusDeliversToAllSubscribers(t *testing.T) {
	bus := New(8)

	var a, b atomic.Int32
	bus.Subscribe(TypeProofDecided, "a", false, func(ctx context.Context, e Event) error {
		a.Add(1)
		return nil
	})
	bus.Subscribe(TypeProofDecided, "b", false, func(ctx context.Context, e Event) error {
		b.Add(1)
		return nil
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	bus.Start(ctx)

	bus.Publish(Event{Type: TypeProofDecided, ProofID: "p1", Status: "approved"})

	require.Eventually(t, func() bool {
		return a.Load() == 1 && b.Load() == 1
	}, 2*time.Second, 10*time.Millisecond)
}

func TestBusRedeliversUntilHandlerSucceeds(t *testing.T) {
	bus := New(8)
	bus.retryDelay = 5 * time.Millisecond

	var calls atomic.Int32
	bus.Subscribe(TypeProofDecided, "settlement", true, func(ctx context.Context, e Event) error {
		if calls.Add(1) < 3 {
			return errors.New("transient")
		}
		return nil
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	bus.Start(ctx)

	bus.Publish(Event{Type: TypeProofDecided, ProofID: "p1", Status: "approved"})

	require.Eventually(t, func() bool {
		return calls.Load() >= 3
	}, 2*time.Second, 5*time.Millisecond)
}

func TestBusDoesNotRetryBestEffortHandlers(t *testing.T) {
	bus := New(8)
	bus.retryDelay = 5 * time.Millisecond

	var calls atomic.Int32
	bus.Subscribe(TypeProofDecided, "push", false, func(ctx context.Context, e Event) error {
		calls.Add(1)
		return errors.New("always fails")
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	bus.Start(ctx)

	bus.Publish(Event{Type: TypeProofDecided, ProofID: "p1", Status: "rejected"})

	// give redelivery a chance to (wrongly) happen
	time.Sleep(100 * time.Millisecond)
	require.Equal(t, int32(1), calls.Load())
}

func TestBusRedeliversOnlyToFailedSubscribers(t *testing.T) {
	bus := New(8)
	bus.retryDelay = 5 * time.Millisecond

	var settled, pushed atomic.Int32
	bus.Subscribe(TypeProofDecided, "settlement", true, func(ctx context.Context, e Event) error {
		if settled.Add(1) < 3 {
			return errors.New("transient")
		}
		return nil
	})
	bus.Subscribe(TypeProofDecided, "push", false, func(ctx context.Context, e Event) error {
		pushed.Add(1)
		return nil
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	bus.Start(ctx)

	bus.Publish(Event{Type: TypeProofDecided, ProofID: "p1", Status: "approved"})

	require.Eventually(t, func() bool {
		return settled.Load() >= 3
	}, 2*time.Second, 5*time.Millisecond)

	// redeliveries triggered by settlement must not reach the push handler
	time.Sleep(50 * time.Millisecond)
	require.Equal(t, int32(1), pushed.Load())
}

func TestPublishAssignsIDAndTimestamp(t *testing.T) {
	bus := New(8)

	got := make(chan Event, 1)
	bus.Subscribe(TypeProofReported, "capture", false, func(ctx context.Context, e Event) error {
		got <- e
		return nil
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	bus.Start(ctx)

	bus.Publish(Event{Type: TypeProofReported, ProofID: "p2", Status: "reported"})

	select {
	case e := <-got:
		require.NotEmpty(t, e.ID)
		require.False(t, e.CreatedAt.IsZero())
	case <-time.After(2 * time.Second):
		t.Fatal("event not delivered")
	}
}
