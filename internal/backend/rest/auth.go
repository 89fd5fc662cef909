package rest

import (
	"context"
	"net/http"
	"net/url"
	"time"

	"github.com/yndnr/supertracker-go/internal/core/domain"
)

// gotrueUser is the user object returned by GoTrue.
type gotrueUser struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	CreatedAt    time.Time `json:"created_at"`
	UserMetadata struct {
		FirstName string `json:"firstName"`
		LastName  string `json:"lastName"`
	} `json:"user_metadata"`
}

func (u *gotrueUser) toDomain() *domain.User {
	if u == nil || u.ID == "" {
		return nil
	}
	return &domain.User{
		ID:        u.ID,
		Email:     u.Email,
		FirstName: u.UserMetadata.FirstName,
		LastName:  u.UserMetadata.LastName,
		CreatedAt: u.CreatedAt,
	}
}

// tokenResponse is the session object returned by GoTrue. Sign-up
// without auto-confirm returns the bare user fields instead.
type tokenResponse struct {
	AccessToken  string      `json:"access_token"`
	TokenType    string      `json:"token_type"`
	ExpiresIn    int64       `json:"expires_in"`
	ExpiresAt    int64       `json:"expires_at"`
	RefreshToken string      `json:"refresh_token"`
	User         *gotrueUser `json:"user"`
}

func (t *tokenResponse) toSession(now time.Time) *domain.AuthSession {
	if t.AccessToken == "" {
		return nil
	}
	s := &domain.AuthSession{
		AccessToken:  t.AccessToken,
		RefreshToken: t.RefreshToken,
		TokenType:    t.TokenType,
		User:         t.User.toDomain(),
	}
	switch {
	case t.ExpiresAt > 0:
		s.ExpiresAt = time.Unix(t.ExpiresAt, 0).UTC()
	case t.ExpiresIn > 0:
		s.ExpiresAt = now.Add(time.Duration(t.ExpiresIn) * time.Second).UTC()
	}
	return s
}

// Authenticate signs in with a password grant.
func (c *Client) Authenticate(ctx context.Context, email, password string) (*domain.AuthSession, error) {
	var resp tokenResponse
	err := c.do(ctx, "sign_in", http.MethodPost, "/auth/v1/token",
		url.Values{"grant_type": {"password"}},
		map[string]string{"email": email, "password": password}, &resp)
	if err != nil {
		return nil, err
	}

	session := resp.toSession(time.Now())
	if err := c.setSession(ctx, session); err != nil {
		return nil, err
	}
	return session, nil
}

// CreateAccount signs up and, when the backend auto-confirms, signs in.
func (c *Client) CreateAccount(ctx context.Context, email, password string, profile domain.Profile) (*domain.AuthSession, error) {
	body := map[string]any{
		"email":    email,
		"password": password,
		"data":     profile,
	}

	var resp struct {
		tokenResponse
		gotrueUser
	}
	if err := c.do(ctx, "sign_up", http.MethodPost, "/auth/v1/signup", nil, body, &resp); err != nil {
		return nil, err
	}

	session := resp.tokenResponse.toSession(time.Now())
	if session == nil {
		c.log.Info("account created, email confirmation pending", "user_id", resp.gotrueUser.ID)
		return nil, nil
	}
	if err := c.setSession(ctx, session); err != nil {
		return nil, err
	}
	return session, nil
}

// EndSession logs out on the backend and forgets the local session.
// The local session is dropped even when the backend call fails.
func (c *Client) EndSession(ctx context.Context) error {
	var err error
	if c.currentSession() != nil {
		err = c.do(ctx, "sign_out", http.MethodPost, "/auth/v1/logout", nil, nil, nil)
	}
	if clearErr := c.setSession(ctx, nil); clearErr != nil && err == nil {
		err = clearErr
	}
	return err
}

// CurrentSession returns the local session, refreshing it when expired.
// A session that cannot be refreshed because the backend is unreachable
// is returned as is.
func (c *Client) CurrentSession(ctx context.Context) (*domain.AuthSession, error) {
	s := c.currentSession()
	if s == nil || !s.IsExpired() {
		return s, nil
	}
	if s.RefreshToken == "" {
		return nil, c.setSession(ctx, nil)
	}

	refreshed, err := c.refresh(ctx, s.RefreshToken)
	if err != nil {
		c.log.Warn("session refresh failed", "error", err)
		return s, nil
	}
	return refreshed, nil
}

// CurrentUser returns the user of the current session.
func (c *Client) CurrentUser(ctx context.Context) (*domain.User, error) {
	s, err := c.CurrentSession(ctx)
	if err != nil || s == nil {
		return nil, err
	}
	return s.User, nil
}

// ResetPassword requests a password recovery email.
func (c *Client) ResetPassword(ctx context.Context, email string) error {
	return c.do(ctx, "reset_password", http.MethodPost, "/auth/v1/recover", nil,
		map[string]string{"email": email}, nil)
}

// Restore loads a persisted session, if a store is configured.
func (c *Client) Restore(ctx context.Context) error {
	if c.store == nil {
		return nil
	}
	s, err := c.store.LoadSession(ctx)
	if err != nil {
		return err
	}
	c.mu.Lock()
	c.session = s
	c.mu.Unlock()
	if s != nil && s.User != nil {
		c.log.Debug("session restored", "user_id", s.User.ID)
	}
	return nil
}

func (c *Client) refresh(ctx context.Context, refreshToken string) (*domain.AuthSession, error) {
	var resp tokenResponse
	err := c.do(ctx, "refresh", http.MethodPost, "/auth/v1/token",
		url.Values{"grant_type": {"refresh_token"}},
		map[string]string{"refresh_token": refreshToken}, &resp)
	if err != nil {
		return nil, err
	}

	session := resp.toSession(time.Now())
	if err := c.setSession(ctx, session); err != nil {
		return nil, err
	}
	return session, nil
}

func (c *Client) currentSession() *domain.AuthSession {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.session
}

func (c *Client) setSession(ctx context.Context, s *domain.AuthSession) error {
	c.mu.Lock()
	c.session = s
	c.mu.Unlock()

	if c.store == nil {
		return nil
	}
	if s == nil {
		return c.store.ClearSession(ctx)
	}
	return c.store.SaveSession(ctx, s)
}
