package memory

import (
	"context"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/yndnr/supertracker-go/internal/backend"
	"github.com/yndnr/supertracker-go/internal/core/domain"
	"github.com/yndnr/supertracker-go/pkg/cmap"
	"github.com/yndnr/supertracker-go/pkg/token"
)

// DefaultSessionTTL is the lifetime of access tokens.
const DefaultSessionTTL = time.Hour

type account struct {
	user         domain.User
	passwordHash string
}

// Backend is an in-process implementation of backend.Backend.
type Backend struct {
	reachable atomic.Bool

	// Email -> account
	accounts *cmap.Map[string, *account]

	// Access token hash -> user ID
	tokens *cmap.Map[string, string]

	// Table -> row key -> row
	tables *cmap.Map[string, *cmap.Map[string, backend.Record]]

	subs   *cmap.Map[uint64, *subscription]
	nextID atomic.Uint64

	mu      sync.RWMutex
	current *domain.AuthSession
	resets  []string

	sessionTTL time.Duration
	now        func() time.Time
}

// Option configures the Backend.
type Option func(*Backend)

// WithSessionTTL sets the access token lifetime.
func WithSessionTTL(ttl time.Duration) Option {
	return func(b *Backend) {
		b.sessionTTL = ttl
	}
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(b *Backend) {
		b.now = now
	}
}

// New creates an empty, reachable backend.
func New(opts ...Option) *Backend {
	b := &Backend{
		accounts:   cmap.New[string, *account](),
		tokens:     cmap.New[string, string](),
		tables:     cmap.New[string, *cmap.Map[string, backend.Record]](),
		subs:       cmap.New[uint64, *subscription](),
		sessionTTL: DefaultSessionTTL,
		now:        time.Now,
	}
	b.reachable.Store(true)

	for _, opt := range opts {
		opt(b)
	}
	return b
}

// SetReachable simulates gaining or losing connectivity.
func (b *Backend) SetReachable(reachable bool) {
	b.reachable.Store(reachable)
}

// Ping implements backend.Pinger.
func (b *Backend) Ping(_ context.Context) error {
	return b.checkReachable()
}

func (b *Backend) checkReachable() error {
	if !b.reachable.Load() {
		return backend.Unreachable(nil)
	}
	return nil
}

// CreateAccount registers email and signs it in.
func (b *Backend) CreateAccount(_ context.Context, email, password string, profile domain.Profile) (*domain.AuthSession, error) {
	if err := b.checkReachable(); err != nil {
		return nil, err
	}

	hash, err := token.HashPassword(password)
	if err != nil {
		return nil, err
	}
	id, err := domain.NewULID()
	if err != nil {
		return nil, err
	}

	key := strings.ToLower(email)
	acct := &account{
		user: domain.User{
			ID:        id,
			Email:     key,
			FirstName: profile.FirstName,
			LastName:  profile.LastName,
			CreatedAt: b.now().UTC(),
		},
		passwordHash: hash,
	}
	if !b.accounts.SetIfAbsent(key, acct) {
		return nil, &backend.Error{Status: 422, Code: backend.CodeUserAlreadyExists, Message: "User already registered"}
	}

	return b.startSession(acct.user)
}

// Authenticate signs in with email and password.
func (b *Backend) Authenticate(_ context.Context, email, password string) (*domain.AuthSession, error) {
	if err := b.checkReachable(); err != nil {
		return nil, err
	}

	invalid := &backend.Error{Status: 400, Code: backend.CodeInvalidCredentials, Message: "Invalid login credentials"}

	acct, ok := b.accounts.Get(strings.ToLower(email))
	if !ok {
		return nil, invalid
	}
	match, err := token.CheckPassword(password, acct.passwordHash)
	if err != nil {
		return nil, err
	}
	if !match {
		return nil, invalid
	}

	return b.startSession(acct.user)
}

func (b *Backend) startSession(user domain.User) (*domain.AuthSession, error) {
	access, err := token.NewAccessToken()
	if err != nil {
		return nil, err
	}
	refresh, err := token.NewRefreshToken()
	if err != nil {
		return nil, err
	}
	b.tokens.Set(token.Hash(access), user.ID)

	u := user
	session := &domain.AuthSession{
		AccessToken:  access,
		RefreshToken: refresh,
		TokenType:    "bearer",
		ExpiresAt:    b.now().Add(b.sessionTTL).UTC(),
		User:         &u,
	}

	b.mu.Lock()
	if b.current != nil {
		b.tokens.Delete(token.Hash(b.current.AccessToken))
	}
	b.current = session
	b.mu.Unlock()

	return cloneSession(session), nil
}

// EndSession revokes the current access token.
func (b *Backend) EndSession(_ context.Context) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.current != nil {
		b.tokens.Delete(token.Hash(b.current.AccessToken))
		b.current = nil
	}
	return nil
}

// CurrentSession returns the current unexpired session, or nil.
func (b *Backend) CurrentSession(_ context.Context) (*domain.AuthSession, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if b.current == nil || b.now().After(b.current.ExpiresAt) {
		return nil, nil
	}
	return cloneSession(b.current), nil
}

// CurrentUser returns the user of the current session, or nil.
func (b *Backend) CurrentUser(ctx context.Context) (*domain.User, error) {
	session, err := b.CurrentSession(ctx)
	if err != nil || session == nil {
		return nil, err
	}
	return session.User, nil
}

// ResetPassword records a reset request. Unknown emails are accepted
// silently so callers cannot probe for accounts.
func (b *Backend) ResetPassword(_ context.Context, email string) error {
	if err := b.checkReachable(); err != nil {
		return err
	}

	b.mu.Lock()
	b.resets = append(b.resets, strings.ToLower(email))
	b.mu.Unlock()
	return nil
}

// ResetRequests returns the emails for which a reset was requested.
func (b *Backend) ResetRequests() []string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return append([]string(nil), b.resets...)
}

// VerifyAccessToken returns the user ID that owns accessToken.
func (b *Backend) VerifyAccessToken(accessToken string) (string, bool) {
	return b.tokens.Get(token.Hash(accessToken))
}

// authorizedUser returns the signed-in user ID for row access.
func (b *Backend) authorizedUser() (string, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if b.current == nil || b.now().After(b.current.ExpiresAt) {
		return "", &backend.Error{Status: 401, Code: backend.CodeNotAuthenticated, Message: "JWT required"}
	}
	return b.current.User.ID, nil
}

func cloneSession(s *domain.AuthSession) *domain.AuthSession {
	cp := *s
	if s.User != nil {
		u := *s.User
		cp.User = &u
	}
	return &cp
}
