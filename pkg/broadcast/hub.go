package broadcast

import (
	"context"
	"sync"
)

// Signal is a payload-free notification. Receivers re-read shared state
// instead of inspecting the message.
type Signal struct{}

// Subscription receives messages published to a Hub.
type Subscription[T any] struct {
	ch     chan T
	once   sync.Once
	cancel func()
}

// C returns the receive channel. It is closed when the subscription or the
// hub is closed.
func (s *Subscription[T]) C() <-chan T {
	return s.ch
}

// Close detaches the subscription from its hub and closes the channel.
// Safe to call multiple times.
func (s *Subscription[T]) Close() {
	s.cancel()
}

func (s *Subscription[T]) shut() {
	s.once.Do(func() { close(s.ch) })
}

// Hub fans out messages to every active subscription. All methods are safe
// for concurrent use. Publishing never blocks: a subscription whose buffer
// is full simply misses that message.
type Hub[T any] struct {
	mu      sync.Mutex
	subs    map[*Subscription[T]]struct{}
	bufSize int
	closed  bool
}

// NewHub creates a hub whose subscriptions buffer up to bufSize messages.
// A minimum buffer of 1 is enforced so sends are never synchronous.
func NewHub[T any](bufSize int) *Hub[T] {
	return &Hub[T]{
		subs:    make(map[*Subscription[T]]struct{}),
		bufSize: max(bufSize, 1),
	}
}

// Subscribe registers a new subscription. It is detached automatically when
// ctx is cancelled. Subscribing to a closed hub returns an already-closed
// subscription.
func (h *Hub[T]) Subscribe(ctx context.Context) *Subscription[T] {
	sub := &Subscription[T]{ch: make(chan T, h.bufSize)}
	sub.cancel = func() { h.unsubscribe(sub) }

	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		sub.shut()
		return sub
	}
	h.subs[sub] = struct{}{}
	h.mu.Unlock()

	if ctx.Done() != nil {
		go func() {
			<-ctx.Done()
			h.unsubscribe(sub)
		}()
	}

	return sub
}

// Publish delivers msg to every active subscription without blocking.
func (h *Hub[T]) Publish(msg T) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return
	}

	for sub := range h.subs {
		select {
		case sub.ch <- msg:
		default:
			// Full buffer: the subscriber is behind, the next signal
			// will cover this one.
		}
	}
}

// Close shuts down the hub and every subscription. Idempotent.
func (h *Hub[T]) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return
	}
	h.closed = true

	for sub := range h.subs {
		sub.shut()
	}
	clear(h.subs)
}

func (h *Hub[T]) unsubscribe(sub *Subscription[T]) {
	h.mu.Lock()
	defer h.mu.Unlock()

	delete(h.subs, sub)
	sub.shut()
}
