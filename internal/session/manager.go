package session

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/ahmetcoskunkizilkaya/crms/internal/roles"
)

// RefreshTokenKey holds the opaque refresh token next to authToken.
const RefreshTokenKey = "refreshToken"

// LoginResult is what the backend returns for a successful sign-in.
type LoginResult struct {
	Token        string
	RefreshToken string
	User         UserRecord
}

// Registration carries a self-registration form. A non-empty
// StudentNumber selects the student registration endpoint.
type Registration struct {
	Email         string
	Password      string
	FirstName     string
	MiddleName    string
	LastName      string
	Role          string
	StudentNumber string
	DepartmentID  string
	ProgramID     string
	YearLevel     int
	ContactNumber string
}

// API is the subset of the backend the session needs.
type API interface {
	Login(ctx context.Context, email, password string) (*LoginResult, error)
	Register(ctx context.Context, r Registration) error
	Me(ctx context.Context, token string) (*UserRecord, error)
	UpdateProfile(ctx context.Context, token string, fields map[string]string) (*UserRecord, error)
	ChangePassword(ctx context.Context, token, current, next string) error
	Logout(ctx context.Context, token, refreshToken string) error
}

// Result reports the outcome of a user-facing operation. Operations never
// return Go errors to the caller; failures land in Error.
type Result struct {
	Success bool
	Error   string
	User    *UserRecord
}

func failed(err error) Result {
	return Result{Error: err.Error()}
}

// Manager owns the session state, mirrors it to storage and runs
// background profile refreshes.
type Manager struct {
	api     API
	local   Storage
	sess    Storage
	log     *slog.Logger
	timeout time.Duration

	mu    sync.RWMutex
	state State

	bgCtx    context.Context
	bgCancel context.CancelFunc
	wg       sync.WaitGroup
}

type Option func(*Manager)

func WithLogger(l *slog.Logger) Option { return func(m *Manager) { m.log = l } }

// WithTimeout bounds each background request.
func WithTimeout(d time.Duration) Option { return func(m *Manager) { m.timeout = d } }

// NewManager creates a manager in the loading state. Call Rehydrate to
// restore a stored session.
func NewManager(api API, local, sess Storage, opts ...Option) *Manager {
	m := &Manager{
		api:     api,
		local:   local,
		sess:    sess,
		log:     slog.Default(),
		timeout: 15 * time.Second,
		state:   Initial(),
	}
	for _, opt := range opts {
		opt(m)
	}
	m.bgCtx, m.bgCancel = context.WithCancel(context.Background())
	return m
}

// State returns a snapshot of the current state.
func (m *Manager) State() State {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s := m.state
	if s.User != nil {
		u := *s.User
		s.User = &u
	}
	return s
}

func (m *Manager) dispatch(a Action) State {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.state = Reduce(m.state, a)
	return m.state
}

// Login signs in and persists the session. The full profile is fetched in
// the background and replaces the stored user when it arrives.
func (m *Manager) Login(ctx context.Context, email, password string) Result {
	m.dispatch(Action{Type: LoginStart})

	res, err := m.api.Login(ctx, email, password)
	if err != nil {
		m.dispatch(Action{Type: LoginFailure, Error: err.Error()})
		return failed(err)
	}
	if !authenticatable(&res.User, res.Token) {
		const msg = "login response is missing the user or token"
		m.dispatch(Action{Type: LoginFailure, Error: msg})
		return Result{Error: msg}
	}

	m.persist(&res.User, res.Token, res.RefreshToken)
	st := m.dispatch(Action{Type: LoginSuccess, User: &res.User, Token: res.Token})
	m.refreshInBackground()
	return Result{Success: true, User: st.User}
}

// Register creates an account. It does not sign in: new accounts wait
// for approval.
func (m *Manager) Register(ctx context.Context, r Registration) Result {
	if err := m.api.Register(ctx, r); err != nil {
		return failed(err)
	}
	return Result{Success: true}
}

// Logout clears the session locally. The server-side logout is best effort.
func (m *Manager) Logout(ctx context.Context) {
	m.mu.Lock()
	token := m.state.Token
	m.bgCancel()
	m.bgCtx, m.bgCancel = context.WithCancel(context.Background())
	m.mu.Unlock()

	if token != "" {
		refresh, _, _ := m.local.Get(RefreshTokenKey)
		if err := m.api.Logout(ctx, token, refresh); err != nil {
			m.log.Warn("server logout failed", "error", err)
		}
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.clearStorage()
	m.state = Reduce(m.state, Action{Type: Logout})
}

// Rehydrate restores the session from storage. A stored token and a user
// record with an id and role restore the session at once and trigger a
// background refresh; anything else clears storage.
func (m *Manager) Rehydrate() State {
	token, hasToken, terr := m.local.Get(AuthTokenKey)
	raw, hasUser, uerr := m.local.Get(UserDataKey)
	if terr != nil || uerr != nil {
		m.log.Warn("session storage read failed", "error", errors.Join(terr, uerr))
	}
	if !hasToken || !hasUser || token == "" {
		m.clearStorage()
		return m.dispatch(Action{Type: Logout})
	}

	var user UserRecord
	if err := json.Unmarshal([]byte(raw), &user); err != nil || !user.Valid() {
		m.log.Warn("discarding unreadable cached user", "error", err)
		m.clearStorage()
		return m.dispatch(Action{Type: Logout})
	}

	st := m.dispatch(Action{Type: RestoreSession, User: &user, Token: token})
	if !st.IsAuthenticated {
		m.clearStorage()
		return m.dispatch(Action{Type: Logout})
	}
	m.refreshInBackground()
	return st
}

// RefreshUser fetches the current profile. Failures are logged and
// returned; they never end the session.
func (m *Manager) RefreshUser(ctx context.Context) error {
	token := m.State().Token
	if token == "" {
		return errors.New("not signed in")
	}
	user, err := m.api.Me(ctx, token)
	if err != nil {
		m.log.Warn("profile refresh failed", "error", err)
		return err
	}
	m.applyUser(token, user)
	return nil
}

// UpdateUser merges patch into the current user and persists it.
func (m *Manager) UpdateUser(patch UserRecord) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.state = Reduce(m.state, Action{Type: UpdateUser, User: &patch})
	if m.state.User != nil {
		m.storeUser(m.state.User)
	}
}

func (m *Manager) UpdateProfile(ctx context.Context, fields map[string]string) Result {
	token := m.State().Token
	if token == "" {
		return Result{Error: "not signed in"}
	}
	user, err := m.api.UpdateProfile(ctx, token, fields)
	if err != nil {
		return failed(err)
	}
	m.applyUser(token, user)
	return Result{Success: true, User: m.State().User}
}

func (m *Manager) ChangePassword(ctx context.Context, current, next string) Result {
	token := m.State().Token
	if token == "" {
		return Result{Error: "not signed in"}
	}
	if err := m.api.ChangePassword(ctx, token, current, next); err != nil {
		return failed(err)
	}
	return Result{Success: true}
}

// ClearError drops the last error message.
func (m *Manager) ClearError() { m.dispatch(Action{Type: ClearError}) }

// HasRole reports whether the signed-in user holds any of want.
func (m *Manager) HasRole(want ...string) bool {
	st := m.State()
	if !st.IsAuthenticated {
		return false
	}
	return roles.Is(st.User.Role, want...)
}

func (m *Manager) IsAdmin() bool        { return m.HasRole(roles.Admin) }
func (m *Manager) IsDean() bool         { return m.HasRole(roles.Dean) }
func (m *Manager) IsProgramChair() bool { return m.HasRole(roles.ProgramChair) }
func (m *Manager) IsFaculty() bool      { return m.HasRole(roles.Faculty) }
func (m *Manager) IsStaff() bool        { return m.HasRole(roles.Staff) }
func (m *Manager) IsStudent() bool      { return m.HasRole(roles.Student) }

// DashboardPath is the landing page of the signed-in user, or /login.
func (m *Manager) DashboardPath() string {
	st := m.State()
	if !st.IsAuthenticated {
		return "/login"
	}
	return roles.DashboardPath(st.User.Role)
}

// SessionStorage exposes the session-scoped store to route guards.
func (m *Manager) SessionStorage() Storage { return m.sess }

// Wait blocks until background refreshes finish.
func (m *Manager) Wait() { m.wg.Wait() }

// Close cancels background work and waits for it to stop.
func (m *Manager) Close() {
	m.mu.Lock()
	m.bgCancel()
	m.mu.Unlock()
	m.wg.Wait()
}

func (m *Manager) refreshInBackground() {
	m.mu.RLock()
	parent := m.bgCtx
	m.mu.RUnlock()

	m.wg.Add(1)
	go func() {
		defer m.wg.Done()
		ctx, cancel := context.WithTimeout(parent, m.timeout)
		defer cancel()
		if err := m.RefreshUser(ctx); err != nil && !errors.Is(err, context.Canceled) {
			m.log.Debug("background profile refresh skipped", "error", err)
		}
	}()
}

// applyUser stores a fetched profile unless the session changed meanwhile.
// Storage writes happen under the lock so a concurrent Logout cannot be
// followed by a stale write.
func (m *Manager) applyUser(token string, user *UserRecord) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state.Token != token || !m.state.IsAuthenticated {
		return
	}
	m.state = Reduce(m.state, Action{Type: UpdateUser, User: user})
	m.storeUser(m.state.User)
}

func (m *Manager) persist(user *UserRecord, token, refresh string) {
	m.storeUser(user)
	if err := m.local.Set(AuthTokenKey, token); err != nil {
		m.log.Warn("failed to store auth token", "error", err)
	}
	if refresh != "" {
		if err := m.local.Set(RefreshTokenKey, refresh); err != nil {
			m.log.Warn("failed to store refresh token", "error", err)
		}
	}
}

func (m *Manager) storeUser(user *UserRecord) {
	if err := SetCached(m.local, UserDataKey, user, 0); err != nil {
		m.log.Warn("failed to cache user", "error", err)
	}
}

func (m *Manager) clearStorage() {
	for _, key := range []string{UserDataKey, AuthTokenKey, RefreshTokenKey} {
		if err := m.local.Remove(key); err != nil {
			m.log.Warn("failed to clear storage", "key", key, "error", err)
		}
	}
	if m.sess != nil {
		if err := m.sess.Remove(IntendedDestinationKey); err != nil {
			m.log.Warn("failed to clear session storage", "key", IntendedDestinationKey, "error", err)
		}
	}
}
