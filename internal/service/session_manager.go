package service

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/iliyamo/complaints-admin-portal/internal/model"
	"github.com/iliyamo/complaints-admin-portal/internal/repository"
	"github.com/iliyamo/complaints-admin-portal/internal/utils"
)

// SessionManager mirrors one session's auth token and user in memory and is
// the single answer to "is this session signed in". Token and user are
// written, read and removed together.
type SessionManager struct {
	store repository.SessionStore
	sid   string
	log   *zap.Logger
	now   func() time.Time

	mu        sync.RWMutex
	token     string
	user      *model.User
	expiresAt time.Time
}

func NewSessionManager(store repository.SessionStore, sid string, log *zap.Logger) *SessionManager {
	if log == nil {
		log = zap.NewNop()
	}
	return &SessionManager{store: store, sid: sid, log: log, now: time.Now}
}

// SessionID returns the store scope this manager works on.
func (m *SessionManager) SessionID() string { return m.sid }

// Hydrate loads token and user from the store. A half-present pair, a user
// value that does not parse, or a backend JWT past its exp all resolve to
// signed out and purge both keys. Only store failures are returned.
func (m *SessionManager) Hydrate(ctx context.Context) error {
	tok, err := m.read(ctx, repository.KeyAuthToken)
	if err != nil {
		m.clear()
		return err
	}
	raw, err := m.read(ctx, repository.KeyUser)
	if err != nil {
		m.clear()
		return err
	}

	if tok == "" && raw == "" {
		m.clear()
		return nil
	}

	var user *model.User
	switch {
	case tok == "" || raw == "":
		m.log.Info("session: dropping half-stored credentials", zap.String("sid", m.sid))
		return m.purge(ctx)
	case json.Unmarshal([]byte(raw), &user) != nil || user == nil:
		m.log.Warn("session: stored user is corrupted; signing out", zap.String("sid", m.sid))
		return m.purge(ctx)
	}

	exp, hasExp := utils.TokenExpiry(tok)
	if hasExp && !m.now().Before(exp) {
		m.log.Info("session: backend token expired", zap.String("sid", m.sid), zap.Time("exp", exp))
		return m.purge(ctx)
	}

	m.mu.Lock()
	m.token, m.user = tok, user
	m.expiresAt = time.Time{}
	if hasExp {
		m.expiresAt = exp
	}
	m.mu.Unlock()
	return nil
}

// Login persists token and user, then flips the in-memory state.
func (m *SessionManager) Login(ctx context.Context, token string, user model.User) error {
	if token == "" {
		return errors.New("session: empty token")
	}
	raw, err := json.Marshal(user)
	if err != nil {
		return err
	}
	if err := m.store.Set(ctx, m.sid, repository.KeyAuthToken, token); err != nil {
		return err
	}
	if err := m.store.Set(ctx, m.sid, repository.KeyUser, string(raw)); err != nil {
		// never leave a token without its user
		_ = m.store.Delete(ctx, m.sid, repository.KeyAuthToken)
		return err
	}

	exp, hasExp := utils.TokenExpiry(token)
	m.mu.Lock()
	m.token, m.user = token, &user
	m.expiresAt = time.Time{}
	if hasExp {
		m.expiresAt = exp
	}
	m.mu.Unlock()
	return nil
}

// Logout removes token and user from the store and memory. The in-memory
// state is cleared even when the store call fails.
func (m *SessionManager) Logout(ctx context.Context) error {
	m.clear()
	return m.store.Delete(ctx, m.sid, repository.KeyAuthToken, repository.KeyUser)
}

// IsAuthenticated is true iff both token and user are held.
func (m *SessionManager) IsAuthenticated() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.token != "" && m.user != nil
}

// Token returns the held bearer token.
func (m *SessionManager) Token() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.token
}

// User returns a copy of the held user.
func (m *SessionManager) User() (model.User, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.user == nil {
		return model.User{}, false
	}
	return *m.user, true
}

// ExpiresAt returns the backend token's exp when it is a JWT carrying one.
func (m *SessionManager) ExpiresAt() (time.Time, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.expiresAt, !m.expiresAt.IsZero()
}

// AuthToken reads the bearer token from the store, which makes the manager
// a gateway.TokenSource.
func (m *SessionManager) AuthToken(ctx context.Context) (string, error) {
	return m.read(ctx, repository.KeyAuthToken)
}

func (m *SessionManager) read(ctx context.Context, key string) (string, error) {
	v, err := m.store.Get(ctx, m.sid, key)
	if errors.Is(err, repository.ErrNotFound) {
		return "", nil
	}
	return v, err
}

func (m *SessionManager) purge(ctx context.Context) error {
	m.clear()
	if err := m.store.Delete(ctx, m.sid, repository.KeyAuthToken, repository.KeyUser); err != nil {
		m.log.Warn("session: purge failed", zap.String("sid", m.sid), zap.Error(err))
	}
	return nil
}

func (m *SessionManager) clear() {
	m.mu.Lock()
	m.token, m.user, m.expiresAt = "", nil, time.Time{}
	m.mu.Unlock()
}
