package session

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"

	"github.com/sebrinamusbah/bookstore-client/pkg/broadcast"
	"github.com/sebrinamusbah/bookstore-client/pkg/credstore"
	"github.com/sebrinamusbah/bookstore-client/pkg/gateway"
	"github.com/sebrinamusbah/bookstore-client/pkg/logger"
)

// RegisterData is the payload for account creation.
type RegisterData struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// ProfileUpdate carries the mutable profile fields. Zero fields are left
// unchanged by the backend.
type ProfileUpdate struct {
	Name string `json:"name"`
}

// exchange is the response shape of the login and register endpoints.
type exchange struct {
	Token string     `json:"token"`
	User  userRecord `json:"user"`
}

// Manager is the session state machine. Safe for concurrent use.
type Manager struct {
	store credstore.Store
	gw    *gateway.Client
	log   *slog.Logger
	hub   *broadcast.Hub[broadcast.Signal]

	onForcedLogout func()
	watchDisabled  bool

	mu      sync.RWMutex
	status  Status
	current Session

	loading     atomic.Int32
	watchCancel context.CancelFunc
	closeOnce   sync.Once
}

// New creates a manager over the store and gateway. The manager installs
// itself as the gateway's unauthenticated hook and, unless disabled, starts
// watching the store for changes made by other client processes.
func New(store credstore.Store, gw *gateway.Client, opts ...Option) *Manager {
	m := &Manager{
		store:  store,
		gw:     gw,
		log:    logger.Discard(),
		hub:    broadcast.NewHub[broadcast.Signal](4),
		status: StatusUnknown,
	}
	for _, opt := range opts {
		opt(m)
	}

	gw.SetUnauthenticatedHook(m.forcedLogout)

	if !m.watchDisabled {
		ctx, cancel := context.WithCancel(context.Background())
		m.watchCancel = cancel
		go m.watchLoop(ctx)
	}

	return m
}

// Close stops the store watch and closes all subscriptions.
func (m *Manager) Close() {
	m.closeOnce.Do(func() {
		if m.watchCancel != nil {
			m.watchCancel()
		}
		m.hub.Close()
	})
}

// Current returns the machine status and a copy of the session, nil when not
// authenticated.
func (m *Manager) Current() (Status, *Session) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.status != StatusAuthenticated {
		return m.status, nil
	}
	sess := m.current
	return m.status, &sess
}

// Subscribe returns a subscription receiving a signal on every session
// change. Receivers re-read Current rather than expecting a payload.
func (m *Manager) Subscribe(ctx context.Context) *broadcast.Subscription[broadcast.Signal] {
	return m.hub.Subscribe(ctx)
}

// Loading reports whether any session operation has a network call in
// flight.
func (m *Manager) Loading() bool {
	return m.loading.Load() > 0
}

// IsAdmin reports whether the current session belongs to an admin.
func (m *Manager) IsAdmin() bool {
	return m.HasRole(RoleAdmin)
}

// HasRole reports whether the current session carries the role.
func (m *Manager) HasRole(role Role) bool {
	_, sess := m.Current()
	return sess.HasRole(role)
}

// Rehydrate derives the session from the credential store. With both entries
// present it refreshes the profile from the server, adopting the server copy
// as authoritative; if that call fails for any reason other than a rejected
// token, the cached copy is kept so a transient network problem never forces
// a logout. Idempotent: a second call with an unchanged store lands in the
// same state.
func (m *Manager) Rehydrate(ctx context.Context) (*Session, error) {
	m.beginLoading()
	defer m.endLoading()

	token, userJSON, ok, err := m.readStore(ctx)
	if err != nil {
		return nil, err
	}
	if !ok {
		m.transition(StatusAnonymous, Session{})
		return nil, nil
	}

	cached, err := unmarshalRecord(userJSON, token)
	if err != nil {
		// An unreadable user record is indistinguishable from a torn write:
		// treat the store as unauthenticated.
		_ = credstore.ClearCredentials(ctx, m.store)
		m.transition(StatusAnonymous, Session{})
		return nil, nil
	}

	res := m.gw.Get(ctx, "/auth/profile", nil)
	switch {
	case res.OK():
		var fresh userRecord
		if err := res.Decode(&fresh); err == nil && fresh.ID != "" {
			sess := fresh.session(token)
			sess.IssuedAt = cached.IssuedAt
			m.persistUser(ctx, sess)
			m.transition(StatusAuthenticated, sess)
			out := sess
			return &out, nil
		}
		// Malformed profile payload: keep the cached copy.
		m.transition(StatusAuthenticated, cached)
		out := cached
		return &out, nil

	case res.Err.Kind == gateway.KindUnauthenticated:
		// Gateway already cleared the store and fired the hook.
		m.transition(StatusAnonymous, Session{})
		return nil, nil

	case res.Err.Kind == gateway.KindCancelled:
		// A cancelled rehydrate must not move the machine.
		return nil, res.Err

	default:
		m.log.Debug("profile refresh failed, keeping cached session",
			logger.Kind(string(res.Err.Kind)))
		m.transition(StatusAuthenticated, cached)
		out := cached
		return &out, nil
	}
}

// Login exchanges credentials for a session. On failure the machine does not
// move and the classified error is returned; a session is never silently
// created.
func (m *Manager) Login(ctx context.Context, email, password string) (*Session, error) {
	m.beginLoading()
	defer m.endLoading()

	res := m.gw.Do(ctx, gateway.Request{
		Method:   http.MethodPost,
		Path:     "/auth/login",
		Body:     map[string]string{"email": email, "password": password},
		SkipAuth: true,
	})
	if !res.OK() {
		return nil, res.Err
	}

	return m.adopt(ctx, res)
}

// LoginRemember logs in and, on success, keeps the email for prefilling the
// next login form. A failed remember write never fails the login.
func (m *Manager) LoginRemember(ctx context.Context, email, password string) (*Session, error) {
	sess, err := m.Login(ctx, email, password)
	if err != nil {
		return nil, err
	}
	if err := m.RememberEmail(ctx, email); err != nil {
		m.log.Debug("failed to remember login email", logger.Error(err))
	}
	return sess, nil
}

// Register creates an account. When the backend returns a usable token the
// session is adopted directly; otherwise an implicit login with the same
// credentials establishes it.
func (m *Manager) Register(ctx context.Context, data RegisterData) (*Session, error) {
	m.beginLoading()

	res := m.gw.Do(ctx, gateway.Request{
		Method:   http.MethodPost,
		Path:     "/auth/register",
		Body:     data,
		SkipAuth: true,
	})
	if !res.OK() {
		m.endLoading()
		return nil, res.Err
	}

	var ex exchange
	if err := res.Decode(&ex); err != nil || ex.User.ID == "" {
		m.endLoading()
		return nil, errors.Join(ErrMalformedExchange, err)
	}

	if ex.Token == "" {
		m.endLoading()
		return m.Login(ctx, data.Email, data.Password)
	}
	defer m.endLoading()
	return m.commit(ctx, ex)
}

// Logout clears the stored credentials and moves to Anonymous. Purely local;
// the backend holds no session state worth revoking here.
func (m *Manager) Logout(ctx context.Context) error {
	if err := credstore.ClearCredentials(ctx, m.store); err != nil {
		return err
	}
	m.transition(StatusAnonymous, Session{})
	return nil
}

// UpdateProfile pushes profile changes and merges the server's copy into the
// session. The token is unchanged.
func (m *Manager) UpdateProfile(ctx context.Context, update ProfileUpdate) (*Session, error) {
	_, cur := m.Current()
	if cur == nil {
		return nil, ErrNotAuthenticated
	}

	m.beginLoading()
	defer m.endLoading()

	res := m.gw.Put(ctx, "/auth/profile", update)
	if !res.OK() {
		return nil, res.Err
	}

	var fresh userRecord
	if err := res.Decode(&fresh); err != nil || fresh.ID == "" {
		return nil, errors.Join(ErrMalformedExchange, err)
	}

	sess := fresh.session(cur.Token)
	sess.IssuedAt = cur.IssuedAt
	m.persistUser(ctx, sess)
	m.transition(StatusAuthenticated, sess)
	out := sess
	return &out, nil
}

// RememberEmail stores the login email for prefilling the form next time.
func (m *Manager) RememberEmail(ctx context.Context, email string) error {
	return m.store.Set(ctx, credstore.KeyRememberEmail, email)
}

// RememberedEmail returns the stored login email, empty when none is kept.
func (m *Manager) RememberedEmail(ctx context.Context) (string, error) {
	email, err := m.store.Get(ctx, credstore.KeyRememberEmail)
	if errors.Is(err, credstore.ErrNotFound) {
		return "", nil
	}
	return email, err
}

// ForgetEmail drops the remembered login email.
func (m *Manager) ForgetEmail(ctx context.Context) error {
	return m.store.Remove(ctx, credstore.KeyRememberEmail)
}

// adopt decodes a login-shaped exchange and commits it.
func (m *Manager) adopt(ctx context.Context, res gateway.Result) (*Session, error) {
	var ex exchange
	if err := res.Decode(&ex); err != nil || ex.Token == "" || ex.User.ID == "" {
		return nil, errors.Join(ErrMalformedExchange, err)
	}
	return m.commit(ctx, ex)
}

// commit persists the exchange and moves to Authenticated. A cancelled
// context or a failed store write leaves the machine untouched: a session
// must never exist without a stored token.
func (m *Manager) commit(ctx context.Context, ex exchange) (*Session, error) {
	if err := context.Cause(ctx); err != nil {
		return nil, &gateway.Error{Kind: gateway.KindCancelled}
	}

	sess := ex.User.session(ex.Token)
	sess.IssuedAt = issuedNow()
	if sess.ID == "" {
		sess.ID = uuid.NewString()
	}

	userJSON, err := marshalRecord(sess)
	if err != nil {
		return nil, err
	}
	if err := credstore.SaveCredentials(ctx, m.store, ex.Token, userJSON); err != nil {
		return nil, err
	}

	m.transition(StatusAuthenticated, sess)
	m.log.Info("session established", logger.UserID(sess.ID))
	out := sess
	return &out, nil
}

// readStore loads both credential entries. ok is false when either is
// missing or the token is demonstrably expired; in the expired case the
// store is cleared.
func (m *Manager) readStore(ctx context.Context) (token, userJSON string, ok bool, err error) {
	token, err = m.store.Get(ctx, credstore.KeyToken)
	if errors.Is(err, credstore.ErrNotFound) {
		return "", "", false, nil
	}
	if err != nil {
		return "", "", false, err
	}

	userJSON, err = m.store.Get(ctx, credstore.KeyUser)
	if errors.Is(err, credstore.ErrNotFound) {
		// Half-written credentials read as unauthenticated.
		return "", "", false, nil
	}
	if err != nil {
		return "", "", false, err
	}

	if token == "" || userJSON == "" {
		return "", "", false, nil
	}

	if tokenExpired(token) {
		m.log.Info("stored token expired, clearing credentials")
		_ = credstore.ClearCredentials(ctx, m.store)
		return "", "", false, nil
	}

	return token, userJSON, true, nil
}

// resync re-derives state from a store read alone. Used on cross-process
// change signals; deliberately network-free so converging tabs cost nothing.
func (m *Manager) resync(ctx context.Context) {
	m.mu.RLock()
	unknown := m.status == StatusUnknown
	m.mu.RUnlock()
	if unknown {
		// First Rehydrate owns the Unknown exit.
		return
	}

	token, userJSON, ok, err := m.readStore(ctx)
	if err != nil {
		m.log.Debug("store resync failed", logger.Error(err))
		return
	}
	if !ok {
		m.transition(StatusAnonymous, Session{})
		return
	}

	sess, err := unmarshalRecord(userJSON, token)
	if err != nil {
		m.transition(StatusAnonymous, Session{})
		return
	}
	m.transition(StatusAuthenticated, sess)
}

// forcedLogout is the gateway's unauthenticated hook: the store is already
// cleared, move the machine and surface the one redirect.
func (m *Manager) forcedLogout() {
	m.transition(StatusAnonymous, Session{})
	if m.onForcedLogout != nil {
		m.onForcedLogout()
	}
}

// transition moves the machine and signals subscribers when something
// actually changed.
func (m *Manager) transition(status Status, sess Session) {
	m.mu.Lock()
	changed := m.status != status || m.current != sess
	m.status = status
	m.current = sess
	m.mu.Unlock()

	if changed {
		m.hub.Publish(broadcast.Signal{})
	}
}

// persistUser rewrites the stored user record after a server refresh so the
// cached copy other tabs rehydrate from stays current.
func (m *Manager) persistUser(ctx context.Context, sess Session) {
	userJSON, err := marshalRecord(sess)
	if err != nil {
		return
	}
	if err := m.store.Set(ctx, credstore.KeyUser, userJSON); err != nil {
		m.log.Debug("failed to persist refreshed user record", logger.Error(err))
	}
}

func (m *Manager) beginLoading() { m.loading.Add(1) }
func (m *Manager) endLoading()   { m.loading.Add(-1) }

func (m *Manager) watchLoop(ctx context.Context) {
	ch, err := m.store.Watch(ctx)
	if err != nil {
		m.log.Debug("store watch unavailable", logger.Error(err))
		return
	}
	for {
		select {
		case <-ctx.Done():
			return
		case _, open := <-ch:
			if !open {
				return
			}
			m.resync(ctx)
		}
	}
}
