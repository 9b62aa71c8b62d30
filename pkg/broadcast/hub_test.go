package broadcast_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sebrinamusbah/bookstore-client/pkg/broadcast"
)

func recvSignal(t *testing.T, sub *broadcast.Subscription[broadcast.Signal]) bool {
	t.Helper()
	select {
	case _, ok := <-sub.C():
		return ok
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for signal")
		return false
	}
}

func TestHub_PublishReachesAllSubscribers(t *testing.T) {
	t.Parallel()

	hub := broadcast.NewHub[broadcast.Signal](4)
	defer hub.Close()

	ctx := context.Background()
	sub1 := hub.Subscribe(ctx)
	sub2 := hub.Subscribe(ctx)
	defer sub1.Close()
	defer sub2.Close()

	hub.Publish(broadcast.Signal{})

	assert.True(t, recvSignal(t, sub1))
	assert.True(t, recvSignal(t, sub2))
}

func TestHub_FullBufferDropsInsteadOfBlocking(t *testing.T) {
	t.Parallel()

	hub := broadcast.NewHub[broadcast.Signal](1)
	defer hub.Close()

	sub := hub.Subscribe(context.Background())
	defer sub.Close()

	done := make(chan struct{})
	go func() {
		defer close(done)
		for range 10 {
			hub.Publish(broadcast.Signal{})
		}
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("publish blocked on a slow subscriber")
	}

	// At least the buffered signal arrives; the rest were coalesced away.
	assert.True(t, recvSignal(t, sub))
}

func TestHub_SubscriptionCloseStopsDelivery(t *testing.T) {
	t.Parallel()

	hub := broadcast.NewHub[broadcast.Signal](4)
	defer hub.Close()

	sub := hub.Subscribe(context.Background())
	sub.Close()
	sub.Close() // idempotent

	hub.Publish(broadcast.Signal{})

	_, ok := <-sub.C()
	assert.False(t, ok, "channel should be closed")
}

func TestHub_ContextCancelDetaches(t *testing.T) {
	t.Parallel()

	hub := broadcast.NewHub[broadcast.Signal](4)
	defer hub.Close()

	ctx, cancel := context.WithCancel(context.Background())
	sub := hub.Subscribe(ctx)
	cancel()

	require.Eventually(t, func() bool {
		select {
		case _, ok := <-sub.C():
			return !ok
		default:
			return false
		}
	}, time.Second, 5*time.Millisecond)
}

func TestHub_CloseIsIdempotentAndClosesSubscribers(t *testing.T) {
	t.Parallel()

	hub := broadcast.NewHub[broadcast.Signal](4)
	sub := hub.Subscribe(context.Background())

	hub.Close()
	hub.Close()

	_, ok := <-sub.C()
	assert.False(t, ok)

	// Subscribing after close yields an already-closed subscription.
	late := hub.Subscribe(context.Background())
	_, ok = <-late.C()
	assert.False(t, ok)

	// Publishing after close is a no-op.
	assert.NotPanics(t, func() { hub.Publish(broadcast.Signal{}) })
}

func TestHub_GenericPayload(t *testing.T) {
	t.Parallel()

	hub := broadcast.NewHub[string](2)
	defer hub.Close()

	sub := hub.Subscribe(context.Background())
	defer sub.Close()

	hub.Publish("session-changed")

	select {
	case msg := <-sub.C():
		assert.Equal(t, "session-changed", msg)
	case <-time.After(time.Second):
		t.Fatal("timed out")
	}
}
