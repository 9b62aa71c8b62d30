package gateway

import "fmt"

// Kind is the normalized classification of a failed call.
type Kind string

const (
	// KindUnauthenticated maps HTTP 401. Side effect: credentials cleared,
	// unauthenticated hook fired.
	KindUnauthenticated Kind = "unauthenticated"
	// KindForbidden maps HTTP 403.
	KindForbidden Kind = "forbidden"
	// KindNotFound maps HTTP 404.
	KindNotFound Kind = "not_found"
	// KindValidation maps HTTP 422 and carries server-supplied field errors.
	KindValidation Kind = "validation"
	// KindServerError maps HTTP 5xx, any response violating the envelope
	// contract, and local failures building a request.
	KindServerError Kind = "server_error"
	// KindNetworkError covers transport failures and timeouts: no usable
	// response was received.
	KindNetworkError Kind = "network_error"
	// KindCancelled marks a deliberately cancelled call. Never user-visible.
	KindCancelled Kind = "cancelled"
	// KindDomainError is a business-rule failure signaled in a 2xx body,
	// e.g. "out of stock".
	KindDomainError Kind = "domain_error"
)

// Error is the uniform failure shape produced by classification.
type Error struct {
	Kind    Kind
	Status  int               // 0 when no response was received
	Message string            // empty for KindCancelled
	Fields  map[string]string // populated for KindValidation only
}

func (e *Error) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("gateway: %s", e.Kind)
	}
	return fmt.Sprintf("gateway: %s: %s", e.Kind, e.Message)
}

// Is reports kind equality so errors.Is works against kind sentinels like
// ErrUnauthenticated.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}

// Kind sentinels for errors.Is checks.
var (
	ErrUnauthenticated = &Error{Kind: KindUnauthenticated}
	ErrForbidden       = &Error{Kind: KindForbidden}
	ErrNotFound        = &Error{Kind: KindNotFound}
	ErrValidation      = &Error{Kind: KindValidation}
	ErrServerError     = &Error{Kind: KindServerError}
	ErrNetworkError    = &Error{Kind: KindNetworkError}
	ErrCancelled       = &Error{Kind: KindCancelled}
	ErrDomainError     = &Error{Kind: KindDomainError}
)
