package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
)

// envelope is the single response contract: success bodies carry data,
// failure bodies carry an error string and optional field errors. Deviations
// classify as ServerError rather than being guessed at.
type envelope struct {
	Data   json.RawMessage   `json:"data"`
	Error  string            `json:"error"`
	Errors map[string]string `json:"errors"`
}

// classifyTransport maps a failed dispatch (no response received) to a Kind.
// A deliberate caller cancellation is Cancelled; everything else, including
// the request timeout, is NetworkError.
func classifyTransport(ctx context.Context, err error) *Error {
	if errors.Is(err, context.Canceled) || errors.Is(ctx.Err(), context.Canceled) {
		return &Error{Kind: KindCancelled}
	}
	return &Error{Kind: KindNetworkError, Message: "could not reach the server, check your connection"}
}

// classifyResponse maps a received response to a Result.
func classifyResponse(status int, body []byte) Result {
	var env envelope
	parsed := len(body) > 0 && json.Unmarshal(body, &env) == nil

	if status >= 200 && status < 300 {
		if !parsed {
			if len(body) == 0 {
				return success(nil)
			}
			return failure(&Error{
				Kind:    KindServerError,
				Status:  status,
				Message: "malformed response from server",
			})
		}
		if env.Error != "" {
			return failure(&Error{Kind: KindDomainError, Status: status, Message: env.Error})
		}
		if env.Data != nil {
			return success(env.Data)
		}
		// Bare JSON body without the data wrapper is the payload itself.
		return success(body)
	}

	msg := env.Error
	if msg == "" {
		msg = http.StatusText(status)
	}

	switch {
	case status == http.StatusUnauthorized:
		return failure(&Error{Kind: KindUnauthenticated, Status: status, Message: msg})
	case status == http.StatusForbidden:
		return failure(&Error{Kind: KindForbidden, Status: status, Message: msg})
	case status == http.StatusNotFound:
		return failure(&Error{Kind: KindNotFound, Status: status, Message: msg})
	case status == http.StatusUnprocessableEntity:
		return failure(&Error{Kind: KindValidation, Status: status, Message: msg, Fields: env.Errors})
	default:
		// 5xx and any status outside the contract fail closed.
		return failure(&Error{Kind: KindServerError, Status: status, Message: msg})
	}
}
