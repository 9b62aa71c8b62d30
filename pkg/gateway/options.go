package gateway

import (
	"log/slog"
	"net/http"
)

// Option configures a Client.
type Option func(*Client)

// WithLogger sets the logger. The default discards all records.
func WithLogger(log *slog.Logger) Option {
	return func(c *Client) {
		if log != nil {
			c.log = log
		}
	}
}

// WithHTTPClient overrides the transport, mainly for tests and custom
// proxies. The per-call timeout still comes from Config.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.http = hc
		}
	}
}

// WithUnauthenticatedHook registers the callback fired when a call comes back
// 401: the UI embeds its redirect-to-login here. The hook fires at most once
// per attached token, after the credential store has been cleared.
func WithUnauthenticatedHook(fn func()) Option {
	return func(c *Client) {
		c.onUnauthenticated = fn
	}
}
