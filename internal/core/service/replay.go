package service

import (
	"context"

	"github.com/yndnr/supertracker-go/internal/backend"
	"github.com/yndnr/supertracker-go/internal/core/domain"
	"github.com/yndnr/supertracker-go/internal/telemetry/logger"
)

// Available reports whether queued writes can be replayed.
func (t *Tracker) Available(ctx context.Context) bool {
	return t.IsAvailable(ctx)
}

// Replay re-issues a queued write directly against the backend. An
// unreachable backend is reported as domain.ErrOffline.
func (t *Tracker) Replay(ctx context.Context, op *domain.QueuedOperation) error {
	if err := t.requireBackend(); err != nil {
		return err
	}

	err := t.replay(ctx, op)
	if err == nil {
		logger.L(ctx).Debug("operation replayed", "kind", op.Kind.String())
		return nil
	}
	if backend.IsUnreachable(err) {
		return domain.ErrOffline.WithCause(err)
	}
	return t.mapError(err)
}

func (t *Tracker) replay(ctx context.Context, op *domain.QueuedOperation) error {
	switch op.Kind {
	case domain.OpSaveUserData:
		var row domain.UserData
		if err := op.DecodePayload(&row); err != nil {
			return err
		}
		return t.upsert(ctx, domain.TableUserData, row, domain.ConflictUserID)

	case domain.OpSaveSession:
		var row domain.WorkoutSession
		if err := op.DecodePayload(&row); err != nil {
			return err
		}
		return t.upsert(ctx, domain.TableSessions, row, domain.ConflictID)

	case domain.OpSaveRoutine:
		var row domain.Routine
		if err := op.DecodePayload(&row); err != nil {
			return err
		}
		return t.upsert(ctx, domain.TableRoutines, row, domain.ConflictID)

	case domain.OpDeleteSession, domain.OpDeleteRoutine:
		var ref domain.RowRef
		if err := op.DecodePayload(&ref); err != nil {
			return err
		}
		table := domain.TableSessions
		if op.Kind == domain.OpDeleteRoutine {
			table = domain.TableRoutines
		}
		return t.delete(ctx, table, ref)

	default:
		return domain.ErrInvalidArgument.WithDetails("unknown operation kind " + op.Kind.String())
	}
}
