// Package session owns the authenticated-user value for one client process.
//
// The Manager is a three-state machine: Unknown before the first Rehydrate,
// then Anonymous or Authenticated. Unknown is transient and never re-entered;
// UI must treat it as "do not render auth-dependent content yet", not as
// anonymous.
//
// All mutation funnels through Rehydrate, Login, Register, Logout and
// UpdateProfile. Consumers read through Current and subscribe to change
// signals; nothing outside this package writes the session value.
//
// The credential store is the only state shared with other client processes.
// The Manager watches it and re-derives its own state from a fresh store read
// whenever another process mutates it, so every window of the same profile
// converges on one session view without extra network calls.
package session
