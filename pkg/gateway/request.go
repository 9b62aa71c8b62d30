package gateway

import (
	"encoding/json"
	"net/url"
)

// Request describes one backend call.
type Request struct {
	Method string
	Path   string
	Body   any        // marshaled to JSON when non-nil
	Query  url.Values // appended to the path

	// SkipAuth suppresses the bearer header, used by login and register
	// before a token exists.
	SkipAuth bool

	// Upload selects the longer upload timeout.
	Upload bool
}

// Result is the uniform outcome of a call: exactly one of Data or Err is
// meaningful. Err == nil means success.
type Result struct {
	Data json.RawMessage
	Err  *Error
}

// OK reports whether the call succeeded.
func (r Result) OK() bool {
	return r.Err == nil
}

// Decode unmarshals the payload into v. Returns the classified error on a
// failed result so callers can decode-and-check in one step.
func (r Result) Decode(v any) error {
	if r.Err != nil {
		return r.Err
	}
	if len(r.Data) == 0 {
		return nil
	}
	return json.Unmarshal(r.Data, v)
}

func failure(err *Error) Result {
	return Result{Err: err}
}

func success(data json.RawMessage) Result {
	return Result{Data: data}
}
