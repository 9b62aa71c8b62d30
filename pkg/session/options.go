package session

import "log/slog"

// Option configures a Manager.
type Option func(*Manager)

// WithLogger sets the logger. The default discards all records.
func WithLogger(log *slog.Logger) Option {
	return func(m *Manager) {
		if log != nil {
			m.log = log
		}
	}
}

// WithOnForcedLogout registers the callback invoked when the backend rejects
// the session with a 401. A UI embeds its redirect-to-login here; the
// gateway's unauthenticated gate guarantees it fires at most once per token.
func WithOnForcedLogout(fn func()) Option {
	return func(m *Manager) {
		m.onForcedLogout = fn
	}
}

// WithoutStoreWatch disables the credential-store watch loop. Mainly for
// tests that drive resync explicitly.
func WithoutStoreWatch() Option {
	return func(m *Manager) {
		m.watchDisabled = true
	}
}
