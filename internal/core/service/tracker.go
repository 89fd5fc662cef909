package service

import (
	"context"
	"errors"
	"time"

	"github.com/yndnr/supertracker-go/internal/backend"
	"github.com/yndnr/supertracker-go/internal/core/domain"
	"github.com/yndnr/supertracker-go/internal/syncqueue"
	"github.com/yndnr/supertracker-go/internal/telemetry/logger"
)

// Tracker is the SuperTracker data-access service. It is safe for
// concurrent use.
type Tracker struct {
	backend backend.Backend
	queue   *syncqueue.Manager
	log     logger.Logger
	now     func() time.Time
}

// Option configures a Tracker.
type Option func(*Tracker)

// WithLogger sets the logger.
func WithLogger(l logger.Logger) Option {
	return func(t *Tracker) {
		t.log = l
	}
}

// WithClock sets the time source used for updated_at columns.
func WithClock(now func() time.Time) Option {
	return func(t *Tracker) {
		t.now = now
	}
}

// New creates a Tracker over b. A nil b yields a Tracker whose
// operations fail with domain.ErrNotConfigured. When queue is nil an
// in-memory queue with default settings is used. The Tracker registers
// itself as the queue's replayer.
func New(b backend.Backend, queue *syncqueue.Manager, opts ...Option) *Tracker {
	t := &Tracker{
		backend: b,
		queue:   queue,
		log:     logger.Default(),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(t)
	}
	t.log = t.log.With("component", "tracker")

	if t.queue == nil {
		// Without a store NewManager cannot fail.
		t.queue, _ = syncqueue.NewManager(syncqueue.Config{}, syncqueue.WithLogger(t.log))
	}
	t.queue.SetReplayer(t)
	return t
}

// Queue returns the offline queue.
func (t *Tracker) Queue() *syncqueue.Manager {
	return t.queue
}

// IsAvailable reports whether a backend is configured.
func (t *Tracker) IsAvailable(_ context.Context) bool {
	return t.backend != nil
}

func (t *Tracker) requireBackend() error {
	if t.backend == nil {
		return domain.ErrNotConfigured
	}
	return nil
}

// requireUser returns the signed-in user or ErrNotAuthenticated.
func (t *Tracker) requireUser(ctx context.Context) (*domain.User, error) {
	if err := t.requireBackend(); err != nil {
		return nil, err
	}
	user, err := t.backend.CurrentUser(ctx)
	if err != nil {
		return nil, t.mapError(err)
	}
	if user == nil {
		return nil, domain.ErrNotAuthenticated
	}
	return user, nil
}

// write performs a backend write, queueing it as kind/payload when the
// tracker is offline or the backend turns out to be unreachable.
func (t *Tracker) write(ctx context.Context, kind domain.OperationKind, payload any, do func(context.Context) error) error {
	if !t.queue.IsOnline() {
		return t.enqueue(ctx, kind, payload)
	}

	err := do(ctx)
	if err == nil {
		return nil
	}
	if backend.IsUnreachable(err) {
		logger.L(ctx).Warn("backend unreachable, queueing write", "kind", kind.String(), "error", err)
		t.queue.MarkOffline()
		return t.enqueue(ctx, kind, payload)
	}
	return t.mapError(err)
}

func (t *Tracker) enqueue(ctx context.Context, kind domain.OperationKind, payload any) error {
	op, err := t.queue.Enqueue(kind, payload)
	if err != nil {
		return err
	}
	logger.L(ctx).Debug("write queued for sync", "op_id", op.ID, "kind", kind.String())
	return domain.ErrOffline.WithDetails(domain.DetailsQueued)
}

// read runs a backend read. Reads are never queued.
func (t *Tracker) read(ctx context.Context, do func(context.Context) error) error {
	if !t.queue.IsOnline() {
		return domain.ErrOffline
	}
	err := do(ctx)
	if err != nil && backend.IsUnreachable(err) {
		t.queue.MarkOffline()
	}
	return t.mapError(err)
}

// mapError translates backend failures into domain errors.
func (t *Tracker) mapError(err error) error {
	if err == nil {
		return nil
	}

	var de *domain.DomainError
	switch {
	case errors.As(err, &de):
		return err
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return err
	case backend.IsUnreachable(err):
		return domain.ErrOffline.WithCause(err)
	case backend.HasCode(err, backend.CodeInvalidCredentials):
		return domain.ErrInvalidCredentials.WithCause(err)
	case backend.HasCode(err, backend.CodeUserAlreadyExists):
		return domain.ErrAlreadyRegistered.WithCause(err)
	case backend.HasCode(err, backend.CodeNotAuthenticated):
		return domain.ErrNotAuthenticated.WithCause(err)
	}

	if be, ok := backend.AsError(err); ok {
		switch be.Status {
		case 401:
			return domain.ErrNotAuthenticated.WithCause(err)
		case 404:
			return domain.ErrNotFound.WithCause(err)
		}
	}
	return domain.ErrBackendRejected.WithCause(err)
}
