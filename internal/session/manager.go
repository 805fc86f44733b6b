// Package session owns the signed-in identity of the dashboard process.
package session

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/frahmantamala/construction-dashboard/internal/backend"
	"github.com/frahmantamala/construction-dashboard/internal/core/datamodel/user"
	"github.com/frahmantamala/construction-dashboard/internal/core/events"
	"github.com/frahmantamala/construction-dashboard/internal/tokenstore"
	"github.com/golang-jwt/jwt/v5"
)

const (
	msgLoginFailed        = "Login failed"
	msgRegisterFailed     = "Registration failed"
	msgCredentialsMissing = "Username and password are required"
	msgPersistFailed      = "Could not save the session"
)

// AuthAPI is the part of the backend used before a session exists.
type AuthAPI interface {
	Register(ctx context.Context, req *user.RegisterRequest) (*user.User, error)
	Token(ctx context.Context, username, password string) (string, error)
	Me(ctx context.Context, token string) (*user.User, error)
}

// Result is the outcome of a form submission. Message is empty on success.
type Result struct {
	OK      bool
	Message string
	User    *user.User
	Err     error
}

func failure(err error, fallback string) Result {
	return Result{Message: backend.Message(err, fallback), Err: err}
}

// Manager is the only writer of the session state. It implements
// backend.TokenSource and backend.UnauthorizedPolicy.
type Manager struct {
	mu    sync.RWMutex
	state Snapshot

	store  tokenstore.Store
	auth   AuthAPI
	bus    *events.EventBus
	logger *slog.Logger
	now    func() time.Time
}

func NewManager(store tokenstore.Store, auth AuthAPI, bus *events.EventBus, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	if bus == nil {
		bus = events.NewEventBus(logger)
	}
	return &Manager{
		state:  Snapshot{Loading: true},
		store:  store,
		auth:   auth,
		bus:    bus,
		logger: logger,
		now:    time.Now,
	}
}

// Current returns a copy of the latest state.
func (m *Manager) Current() Snapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.state.clone()
}

func (m *Manager) CurrentToken() (string, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.state.Token, m.state.Token != ""
}

func (m *Manager) User() *user.User {
	return m.Current().User
}

// Subscribe calls fn with every new snapshot. Snapshots from concurrent
// transitions may arrive out of order; compare Version.
func (m *Manager) Subscribe(fn func(Snapshot)) (unsubscribe func()) {
	return m.bus.Subscribe(events.EventTypeSessionChanged, func(_ context.Context, e events.Event) error {
		if changed, ok := e.(*ChangedEvent); ok {
			fn(changed.Snapshot.clone())
		}
		return nil
	})
}

// set replaces the whole state. token and u are always written together.
func (m *Manager) set(ctx context.Context, token string, u *user.User) Snapshot {
	snap, _ := m.transition(ctx, nil, token, u)
	return snap
}

// transition writes the new state only while the current version still
// equals *since. A nil since always writes. The returned snapshot is the
// state in effect afterwards.
func (m *Manager) transition(ctx context.Context, since *uint64, token string, u *user.User) (Snapshot, bool) {
	m.mu.Lock()
	if since != nil && m.state.Version != *since {
		snap := m.state.clone()
		m.mu.Unlock()
		return snap, false
	}
	if u == nil {
		token = ""
	}
	m.state = Snapshot{
		Version: m.state.Version + 1,
		Token:   token,
		User:    u.Clone(),
		Loading: false,
	}
	snap := m.state.clone()
	m.mu.Unlock()

	if err := m.bus.PublishSync(ctx, newChangedEvent(snap)); err != nil {
		m.logger.WarnContext(ctx, "session subscriber failed", "error", err)
	}
	return snap, true
}

func (m *Manager) version() uint64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.state.Version
}

// Restore makes a single attempt to resume the persisted session. Any failure
// leaves the session signed out with the stored token removed. A login or
// logout that completes while Restore waits on the backend wins, and the
// restore result is dropped.
func (m *Manager) Restore(ctx context.Context) Snapshot {
	since := m.version()

	token, ok, err := m.store.Load(ctx)
	if err != nil {
		m.logger.WarnContext(ctx, "failed to load persisted token", "error", err)
		return m.abandonRestore(ctx, since, "")
	}
	if !ok {
		snap, _ := m.finishRestore(ctx, since, "", nil)
		return snap
	}

	if exp, isJWT := tokenExpiry(token); isJWT && !exp.IsZero() && !m.now().Before(exp) {
		m.logger.InfoContext(ctx, "persisted token expired", "expired_at", exp)
		return m.abandonRestore(ctx, since, token)
	}

	u, err := m.auth.Me(ctx, token)
	if err != nil {
		m.logger.InfoContext(ctx, "persisted token rejected", "error", err)
		return m.abandonRestore(ctx, since, token)
	}

	snap, applied := m.finishRestore(ctx, since, token, u)
	if applied {
		m.logger.InfoContext(ctx, "session restored", "user_id", u.ID, "role", u.Role.String())
	}
	return snap
}

// abandonRestore removes the token that failed to restore. A token saved by a
// newer login stays in place.
func (m *Manager) abandonRestore(ctx context.Context, since uint64, loaded string) Snapshot {
	if m.version() == since {
		stored, ok, err := m.store.Load(ctx)
		if err != nil || (ok && stored == loaded) {
			if err := m.store.Clear(ctx); err != nil {
				m.logger.WarnContext(ctx, "failed to clear persisted token", "error", err)
			}
		}
	}
	snap, _ := m.finishRestore(ctx, since, "", nil)
	return snap
}

func (m *Manager) finishRestore(ctx context.Context, since uint64, token string, u *user.User) (Snapshot, bool) {
	snap, applied := m.transition(ctx, &since, token, u)
	if !applied {
		m.logger.DebugContext(ctx, "restore result dropped, session changed meanwhile", "version", snap.Version)
	}
	return snap, applied
}

// Login exchanges credentials for a token and resolves the user. The token is
// kept only if the user lookup succeeds.
func (m *Manager) Login(ctx context.Context, username, password string) Result {
	if strings.TrimSpace(username) == "" || password == "" {
		return Result{Message: msgCredentialsMissing}
	}

	token, err := m.auth.Token(ctx, username, password)
	if err != nil {
		m.logger.InfoContext(ctx, "login rejected", "username", username, "error", err)
		return failure(err, msgLoginFailed)
	}

	if err := m.store.Save(ctx, token); err != nil {
		m.logger.ErrorContext(ctx, "failed to persist token", "error", err)
		m.clear(ctx)
		return Result{Message: msgPersistFailed, Err: err}
	}

	u, err := m.auth.Me(ctx, token)
	if err != nil {
		m.logger.WarnContext(ctx, "user lookup after login failed", "username", username, "error", err)
		m.clear(ctx)
		return failure(err, msgLoginFailed)
	}

	snap := m.set(ctx, token, u)
	m.logger.InfoContext(ctx, "user logged in", "user_id", u.ID, "role", u.Role.String())
	return Result{OK: true, User: snap.User}
}

// Register validates locally, then forwards to the backend. It never signs in.
func (m *Manager) Register(ctx context.Context, req *user.RegisterRequest) Result {
	if err := req.Validate(); err != nil {
		return failure(err, msgRegisterFailed)
	}

	created, err := m.auth.Register(ctx, req)
	if err != nil {
		m.logger.InfoContext(ctx, "registration rejected", "username", req.Username, "error", err)
		return failure(err, msgRegisterFailed)
	}
	m.logger.InfoContext(ctx, "user registered", "username", req.Username, "role", req.Role.String())
	return Result{OK: true, User: created}
}

// Logout signs out and drops the persisted token. Safe to call when signed out.
func (m *Manager) Logout(ctx context.Context) error {
	err := m.store.Clear(ctx)
	if err != nil {
		m.logger.WarnContext(ctx, "failed to clear persisted token", "error", err)
	}

	m.mu.RLock()
	signedOut := m.state.Token == "" && m.state.User == nil && !m.state.Loading
	m.mu.RUnlock()
	if !signedOut {
		m.set(ctx, "", nil)
	}
	return err
}

func (m *Manager) clear(ctx context.Context) Snapshot {
	if err := m.store.Clear(ctx); err != nil {
		m.logger.WarnContext(ctx, "failed to clear persisted token", "error", err)
	}
	return m.set(ctx, "", nil)
}

// ForceLogout ends the session after the backend rejected its token.
func (m *Manager) ForceLogout(ctx context.Context, reason string) {
	m.mu.RLock()
	active := m.state.Token != ""
	m.mu.RUnlock()
	if !active {
		return
	}

	m.logger.WarnContext(ctx, "session ended by backend", "reason", reason)
	snap := m.clear(ctx)
	if err := m.bus.PublishSync(ctx, newForcedLogoutEvent(reason, snap.Version)); err != nil {
		m.logger.WarnContext(ctx, "forced logout subscriber failed", "error", err)
	}
}

// OnUnauthorized only acts when the rejected request carried the current
// token, so a 401 for a replaced session does not sign the new one out.
func (m *Manager) OnUnauthorized(req *http.Request) {
	current, ok := m.CurrentToken()
	if !ok {
		return
	}
	if strings.TrimPrefix(req.Header.Get("Authorization"), "Bearer ") != current {
		return
	}
	m.ForceLogout(req.Context(), req.Method+" "+req.URL.Path+" returned 401")
}

func (m *Manager) HasRole(roles ...user.Role) bool {
	return m.Current().HasRole(roles...)
}

func (m *Manager) IsAdmin() bool {
	return m.HasRole(user.RoleAdmin)
}

func (m *Manager) IsManager() bool {
	return m.HasRole(user.RoleManager)
}

func (m *Manager) IsEngineer() bool {
	return m.HasRole(user.RoleEngineer)
}

func (m *Manager) IsClient() bool {
	return m.HasRole(user.RoleClient)
}

// TokenExpiry reports the exp claim of the current token when it is a JWT
// carrying one.
func (m *Manager) TokenExpiry() (time.Time, bool) {
	token, ok := m.CurrentToken()
	if !ok {
		return time.Time{}, false
	}
	exp, isJWT := tokenExpiry(token)
	return exp, isJWT && !exp.IsZero()
}

// tokenExpiry reads exp without verifying the signature; the backend remains
// the authority on validity.
func tokenExpiry(token string) (time.Time, bool) {
	claims := &jwt.RegisteredClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return time.Time{}, false
	}
	if claims.ExpiresAt == nil {
		return time.Time{}, true
	}
	return claims.ExpiresAt.Time, true
}
