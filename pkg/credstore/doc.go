// Package credstore persists the client's credentials: the bearer token, the
// serialized user record, and an optional remembered login email.
//
// The store is shared by every client of the same user profile (other
// windows, other processes on the same machine, or other hosts when backed
// by Redis). Watch exposes a coalesced change signal so a session manager
// can re-read the store whenever another client mutates it; the signal
// carries no payload on purpose, receivers always re-derive state from a
// fresh read.
//
// Three backends are provided: MemoryStore for tests and single-process use,
// FileStore for durable single-machine storage, and RedisStore for storage
// shared across processes with pub/sub change notification.
package credstore
