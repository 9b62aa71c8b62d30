// Package broadcast provides in-process one-to-many change notification.
//
// The session manager publishes a payload-free Signal whenever the session
// value changes; subscribers re-derive their own view by re-reading shared
// state rather than trusting a payload, which avoids version-skew between
// publisher and subscriber.
//
// Basic usage:
//
//	hub := broadcast.NewHub[broadcast.Signal](4)
//	defer hub.Close()
//
//	sub := hub.Subscribe(ctx)
//	defer sub.Close()
//
//	hub.Publish(broadcast.Signal{})
//
//	for range sub.C() {
//		// re-read shared state
//	}
//
// Sends are non-blocking: a subscriber whose buffer is full misses the signal
// instead of stalling the publisher. For change notification this is safe
// because every signal means the same thing, "re-read"; a coalesced or
// dropped signal is covered by the next one.
package broadcast
