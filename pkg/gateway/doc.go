// Package gateway is the single entry point for every call to the storefront
// backend.
//
// It attaches the bearer token from the credential store, enforces the
// request timeout, and normalizes every outcome into a Result holding either
// response data or a classified *Error. No transport error or panic ever
// escapes this package; callers branch on Result.Err and its Kind.
//
// The pipeline is two pure stages composed once: prepare builds the
// *http.Request (URL, query, JSON body, auth header) and classify maps the
// raw outcome (transport error or status + body) to a Result. There are no
// mutable interceptor chains.
//
// The one side effect lives on 401 responses: the credential store is
// cleared and the registered unauthenticated hook fires, exactly once per
// attached token even when several in-flight calls fail together.
package gateway
