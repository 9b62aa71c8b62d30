// Package syncer keeps the local cart and order views consistent with the
// server.
//
// The cart snapshot is rebuilt wholesale after every mutating call rather
// than patched in place, so server-side price and stock recalculation can
// never drift from what the client shows. Orders are likewise replaced
// wholesale on fetch: an order cancelled on the server disappears from the
// client on the next fetch.
//
// Every operation requires an authenticated session; without one, reads
// resolve to empty views and mutations fail before touching the network.
// Checkout's atomic boundary is order creation: once the order is placed,
// failures in the follow-up cart cleanup are never allowed to roll it back.
package syncer
