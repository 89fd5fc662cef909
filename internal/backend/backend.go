package backend

import (
	"context"

	"github.com/yndnr/supertracker-go/internal/core/domain"
)

// Backend is the hosted service the tracker reads from and writes to.
type Backend interface {
	// Authenticate signs in with email and password and makes the
	// returned session current.
	Authenticate(ctx context.Context, email, password string) (*domain.AuthSession, error)

	// CreateAccount registers a new account. The returned session is nil
	// when the backend requires email confirmation before sign-in.
	CreateAccount(ctx context.Context, email, password string, profile domain.Profile) (*domain.AuthSession, error)

	// EndSession signs out the current session.
	EndSession(ctx context.Context) error

	// CurrentUser returns the signed-in user, or nil when there is none.
	CurrentUser(ctx context.Context) (*domain.User, error)

	// CurrentSession returns the current session, or nil when there is none.
	CurrentSession(ctx context.Context) (*domain.AuthSession, error)

	// ResetPassword asks the backend to send a password reset email.
	ResetPassword(ctx context.Context, email string) error

	// Upsert inserts record into table, or updates the row whose
	// conflictKey column matches.
	Upsert(ctx context.Context, table string, record Record, conflictKey string) error

	// Select returns the rows of table matching filter.
	Select(ctx context.Context, table string, filter Filter) ([]Record, error)

	// Delete removes the rows of table matching filter.
	Delete(ctx context.Context, table string, filter Filter) error

	// Subscribe calls onChange for every change to rows of table that
	// match filter, until the subscription is closed or ctx is done.
	Subscribe(ctx context.Context, table string, filter Filter, onChange func(Change)) (Subscription, error)
}

// Pinger is implemented by backends that can cheaply check reachability.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Subscription is an active change feed.
type Subscription interface {
	// Close stops delivery. It is safe to call more than once.
	Close() error
}

// Change events.
const (
	EventInsert = "INSERT"
	EventUpdate = "UPDATE"
	EventDelete = "DELETE"
)

// Change describes one row change delivered to a subscriber.
type Change struct {
	Table string
	Event string
	New   Record
	Old   Record
}
