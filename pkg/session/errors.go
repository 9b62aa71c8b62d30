package session

import "errors"

var (
	// ErrNotAuthenticated indicates an operation requiring a session was
	// called without one.
	ErrNotAuthenticated = errors.New("session.not_authenticated")

	// ErrMalformedExchange indicates a login or register response that does
	// not carry the expected token and user record.
	ErrMalformedExchange = errors.New("session.malformed_exchange")
)
