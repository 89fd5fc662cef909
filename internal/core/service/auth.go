package service

import (
	"context"
	"errors"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/yndnr/supertracker-go/internal/core/domain"
	"github.com/yndnr/supertracker-go/internal/telemetry/logger"
)

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// validate is shared by every input check in the package.
var validate *validator.Validate

func init() {
	validate = validator.New()
	_ = validate.RegisterValidation("st_email", func(fl validator.FieldLevel) bool {
		return emailPattern.MatchString(fl.Field().String())
	})
}

// credentials is the validated form of an email/password pair.
type credentials struct {
	Email    string `validate:"required,st_email"`
	Password string `validate:"required"`
}

// newCredentials normalises email and validates both fields.
func newCredentials(email, password string) (credentials, error) {
	c := credentials{
		Email:    strings.ToLower(strings.TrimSpace(email)),
		Password: password,
	}
	if err := validate.Struct(c); err != nil {
		return c, validationError(err)
	}
	return c, nil
}

// validationError converts the first validator failure into a domain error.
func validationError(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return domain.ErrInvalidArgument.WithCause(err)
	}

	fe := verrs[0]
	field := strings.ToLower(fe.Field())
	switch fe.Tag() {
	case "required":
		return domain.ErrMissingArgument.WithDetails(field + " is required")
	case "st_email":
		return domain.ErrInvalidEmail
	default:
		return domain.ErrInvalidArgument.WithDetails(field + " failed " + fe.Tag())
	}
}

// SignUp registers a new account. The returned session is nil when the
// backend requires email confirmation first.
func (t *Tracker) SignUp(ctx context.Context, email, password string, profile domain.Profile) (*domain.AuthSession, error) {
	if err := t.requireBackend(); err != nil {
		return nil, err
	}
	c, err := newCredentials(email, password)
	if err != nil {
		return nil, err
	}

	session, err := t.backend.CreateAccount(ctx, c.Email, c.Password, profile)
	if err != nil {
		return nil, t.mapError(err)
	}
	if session == nil {
		t.log.Info("account created, confirmation pending", "email", c.Email)
		return nil, nil
	}
	t.log.Info("account created", "user_id", userID(session))
	return session, nil
}

// SignIn authenticates with email and password.
func (t *Tracker) SignIn(ctx context.Context, email, password string) (*domain.AuthSession, error) {
	if err := t.requireBackend(); err != nil {
		return nil, err
	}
	c, err := newCredentials(email, password)
	if err != nil {
		return nil, err
	}

	session, err := t.backend.Authenticate(ctx, c.Email, c.Password)
	if err != nil {
		return nil, t.mapError(err)
	}
	t.log.Info("signed in", "user_id", userID(session))
	return session, nil
}

// SignOut ends the current session. It does nothing when no backend is
// configured.
func (t *Tracker) SignOut(ctx context.Context) error {
	if t.backend == nil {
		return nil
	}
	if err := t.backend.EndSession(ctx); err != nil {
		return t.mapError(err)
	}
	t.log.Info("signed out")
	return nil
}

// CurrentUser returns the signed-in user.
func (t *Tracker) CurrentUser(ctx context.Context) (*domain.User, error) {
	return t.requireUser(ctx)
}

// CurrentSession returns the current session, or nil when there is none
// or no backend is configured.
func (t *Tracker) CurrentSession(ctx context.Context) (*domain.AuthSession, error) {
	if t.backend == nil {
		return nil, nil
	}
	session, err := t.backend.CurrentSession(ctx)
	if err != nil {
		return nil, t.mapError(err)
	}
	return session, nil
}

// ResetPassword asks the backend to email a password reset link.
func (t *Tracker) ResetPassword(ctx context.Context, email string) error {
	if err := t.requireBackend(); err != nil {
		return err
	}
	email = strings.ToLower(strings.TrimSpace(email))
	if err := validate.Var(email, "required,st_email"); err != nil {
		return domain.ErrInvalidEmail
	}

	if err := t.backend.ResetPassword(ctx, email); err != nil {
		return t.mapError(err)
	}
	logger.L(ctx).Info("password reset requested")
	return nil
}

func userID(s *domain.AuthSession) string {
	if s == nil || s.User == nil {
		return ""
	}
	return s.User.ID
}
