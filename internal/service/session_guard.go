package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"salon_admin/internal/model"
	"salon_admin/internal/repository"

	"github.com/google/uuid"
)

var ErrNotAdmin = errors.New("only admin accounts can sign in to the dashboard")

// Authenticator exchanges credentials for a user and bearer token.
type Authenticator interface {
	Login(ctx context.Context, creds model.Credentials) (*model.User, string, error)
}

// GuardDecision is what a protected view must do for the current session.
type GuardDecision int

const (
	ShowLoading GuardDecision = iota
	RedirectToLogin
	RenderContent
)

func (d GuardDecision) String() string {
	switch d {
	case ShowLoading:
		return "loading"
	case RedirectToLogin:
		return "redirect"
	case RenderContent:
		return "render"
	}
	return fmt.Sprintf("GuardDecision(%d)", int(d))
}

// Guard owns the admin session of this process. It is the only writer of
// session state and of the persisted session slot; everything else reads
// through Snapshot, Token and Decide.
type Guard struct {
	store repository.SessionStore
	auth  Authenticator
	log   *slog.Logger

	initMu  sync.Mutex // serializes Initialize
	writeMu sync.Mutex // held across a state change and its slot write

	mu    sync.RWMutex
	state model.Session
}

// NewGuard creates an uninitialized guard. Protected views see ShowLoading
// until Initialize has run.
func NewGuard(store repository.SessionStore, auth Authenticator, log *slog.Logger) *Guard {
	if log == nil {
		log = slog.Default()
	}
	return &Guard{
		store: store,
		auth:  auth,
		log:   log,
		state: model.Session{IsLoading: true},
	}
}

// Initialize restores the session from the storage slot. It runs once per
// process; later calls return immediately. A stored session is kept only if
// it has both a token and an admin user, anything else (including corrupted
// data) wipes the slot. It never fails: the guard always ends initialized.
func (g *Guard) Initialize(ctx context.Context) {
	g.initMu.Lock()
	defer g.initMu.Unlock()

	g.mu.RLock()
	done := g.state.IsInitialized
	g.mu.RUnlock()
	if done {
		return
	}

	g.writeMu.Lock()
	defer g.writeMu.Unlock()

	user, token, sessionID, ok := g.restore(ctx)

	g.mu.Lock()
	defer g.mu.Unlock()
	if ok {
		g.state.User = user
		g.state.Token = token
		g.state.SessionID = sessionID
		g.state.IsAuthenticated = true
	} else {
		g.state.User = nil
		g.state.Token = ""
		g.state.SessionID = ""
		g.state.IsAuthenticated = false
	}
	g.state.IsLoading = false
	g.state.IsInitialized = true
	g.log.Info("session initialized", "authenticated", ok)
}

func (g *Guard) restore(ctx context.Context) (*model.User, string, string, bool) {
	data, err := g.store.Load(ctx)
	if err != nil {
		if !errors.Is(err, repository.ErrNoRecord) {
			g.log.Error("failed to read stored session, starting signed out", "error", err)
		}
		return nil, "", "", false
	}

	var rec model.PersistedSession
	if err := json.Unmarshal(data, &rec); err != nil {
		g.wipe(ctx, "stored session is not valid JSON")
		return nil, "", "", false
	}

	migrate := rec.SessionID == ""
	switch rec.Version {
	case model.SessionRecordVersion:
	case 0:
		migrate = true
	default:
		g.wipe(ctx, fmt.Sprintf("unsupported session record version %d", rec.Version))
		return nil, "", "", false
	}

	if rec.Token == "" || len(rec.User) == 0 || string(rec.User) == "null" {
		g.wipe(ctx, "stored session is incomplete")
		return nil, "", "", false
	}

	var user model.User
	if err := json.Unmarshal(rec.User, &user); err != nil {
		g.wipe(ctx, "stored user is corrupted")
		return nil, "", "", false
	}
	if !user.IsAdmin() {
		g.wipe(ctx, "stored user is not an admin")
		return nil, "", "", false
	}

	if rec.SessionID == "" {
		rec.SessionID = uuid.NewString()
	}
	if migrate {
		if err := g.persist(ctx, &user, rec.Token, rec.SessionID); err != nil {
			g.log.Warn("failed to migrate session record", "error", err)
		}
	}
	return &user, rec.Token, rec.SessionID, true
}

func (g *Guard) wipe(ctx context.Context, reason string) {
	g.log.Warn("discarding stored session", "reason", reason)
	if err := g.store.Clear(ctx); err != nil {
		g.log.Error("failed to clear stored session", "error", err)
	}
}

func (g *Guard) persist(ctx context.Context, user *model.User, token, sessionID string) error {
	rawUser, err := json.Marshal(user)
	if err != nil {
		return fmt.Errorf("failed to encode user: %w", err)
	}
	data, err := json.Marshal(model.PersistedSession{
		Version:         model.SessionRecordVersion,
		User:            rawUser,
		Token:           token,
		SessionID:       sessionID,
		IsAuthenticated: true,
	})
	if err != nil {
		return fmt.Errorf("failed to encode session: %w", err)
	}
	return g.store.Save(ctx, data)
}

// Login authenticates against the backend. On success the session is held in
// memory and written to the slot; on failure the session is left as it was and
// the backend error is returned unchanged. There is no retry. Every sign-in
// starts a new session id, which invalidates dashboard credentials issued for
// the previous one.
func (g *Guard) Login(ctx context.Context, creds model.Credentials) (*model.User, error) {
	g.setLoading(true)

	user, token, err := g.auth.Login(ctx, creds)
	if err != nil {
		g.setLoading(false)
		return nil, err
	}
	if !user.IsAdmin() {
		g.setLoading(false)
		return nil, ErrNotAdmin
	}

	g.writeMu.Lock()
	defer g.writeMu.Unlock()

	sessionID := uuid.NewString()
	g.mu.Lock()
	g.state.User = user
	g.state.Token = token
	g.state.SessionID = sessionID
	g.state.IsAuthenticated = true
	g.state.IsLoading = false
	g.mu.Unlock()

	if err := g.persist(ctx, user, token, sessionID); err != nil {
		g.log.Error("signed in but failed to persist session", "error", err)
	}
	g.log.Info("admin signed in", "user_id", user.ID.String(), "username", user.Username)
	return user, nil
}

// Logout clears the in-memory session and the slot. It does not contact the
// backend and is safe to call when already signed out.
func (g *Guard) Logout(ctx context.Context) error {
	g.writeMu.Lock()
	defer g.writeMu.Unlock()

	g.mu.Lock()
	g.state.User = nil
	g.state.Token = ""
	g.state.SessionID = ""
	g.state.IsAuthenticated = false
	g.state.IsLoading = false
	g.mu.Unlock()

	if err := g.store.Clear(ctx); err != nil {
		return fmt.Errorf("failed to clear stored session: %w", err)
	}
	return nil
}

// Expire is the global 401 hook: the backend no longer accepts our token.
func (g *Guard) Expire(ctx context.Context) {
	g.log.Warn("backend rejected session token, signing out")
	if err := g.Logout(ctx); err != nil {
		g.log.Error("failed to clear expired session", "error", err)
	}
}

// Token returns the bearer credential, empty when signed out.
func (g *Guard) Token() string {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.state.Token
}

// Snapshot returns a copy of the current session.
func (g *Guard) Snapshot() model.Session {
	g.mu.RLock()
	defer g.mu.RUnlock()
	s := g.state
	if s.User != nil {
		u := *s.User
		s.User = &u
	}
	return s
}

// Decide applies the guard contract to the current session.
func (g *Guard) Decide() GuardDecision {
	g.mu.RLock()
	defer g.mu.RUnlock()
	switch {
	case g.state.IsLoading || !g.state.IsInitialized:
		return ShowLoading
	case !g.state.IsAuthenticated:
		return RedirectToLogin
	default:
		return RenderContent
	}
}

func (g *Guard) setLoading(loading bool) {
	g.mu.Lock()
	g.state.IsLoading = loading
	g.mu.Unlock()
}
