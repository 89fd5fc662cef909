package service

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/yndnr/supertracker-go/internal/backend"
	"github.com/yndnr/supertracker-go/internal/core/domain"
)

// SaveUserData stores data as the signed-in user's document.
//
// When offline the write is queued and domain.ErrOffline is returned.
func (t *Tracker) SaveUserData(ctx context.Context, data any) error {
	user, err := t.requireUser(ctx)
	if err != nil {
		return err
	}
	raw, err := toRaw(data)
	if err != nil {
		return err
	}

	row := domain.UserData{
		UserID:    user.ID,
		Data:      raw,
		UpdatedAt: t.timestamp(),
	}
	return t.write(ctx, domain.OpSaveUserData, row, func(ctx context.Context) error {
		return t.upsert(ctx, domain.TableUserData, row, domain.ConflictUserID)
	})
}

// LoadUserData returns the signed-in user's document, or nil when none
// has been saved yet.
func (t *Tracker) LoadUserData(ctx context.Context) (*domain.UserData, error) {
	user, err := t.requireUser(ctx)
	if err != nil {
		return nil, err
	}

	var rows []backend.Record
	err = t.read(ctx, func(ctx context.Context) error {
		var err error
		rows, err = t.backend.Select(ctx, domain.TableUserData, backend.Eq("user_id", user.ID))
		return err
	})
	if err != nil {
		if backend.HasCode(err, backend.CodeNoRows, backend.CodeUndefinedTable) {
			return nil, nil
		}
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}

	var out domain.UserData
	if err := rows[0].Decode(&out); err != nil {
		return nil, domain.ErrInternal.WithDetails("decode user_data").WithCause(err)
	}
	return &out, nil
}

// SaveSession stores a workout session, generating its ID when empty.
// The stored row is returned, also when the write was queued offline
// alongside domain.ErrOffline.
func (t *Tracker) SaveSession(ctx context.Context, s domain.WorkoutSession) (*domain.WorkoutSession, error) {
	user, err := t.requireUser(ctx)
	if err != nil {
		return nil, err
	}
	if err := validate.Struct(s); err != nil {
		return nil, validationError(err)
	}
	if s.ID == "" {
		if s.ID, err = domain.NewULID(); err != nil {
			return nil, err
		}
	}
	s.UserID = user.ID
	s.UpdatedAt = t.timestamp()

	err = t.write(ctx, domain.OpSaveSession, s, func(ctx context.Context) error {
		return t.upsert(ctx, domain.TableSessions, s, domain.ConflictID)
	})
	if err != nil && !isQueued(err) {
		return nil, err
	}
	return &s, err
}

// LoadSessions returns the signed-in user's sessions, most recent date first.
func (t *Tracker) LoadSessions(ctx context.Context) ([]domain.WorkoutSession, error) {
	var out []domain.WorkoutSession
	err := t.loadRows(ctx, domain.TableSessions, "date", func(rec backend.Record) error {
		var s domain.WorkoutSession
		if err := rec.Decode(&s); err != nil {
			return err
		}
		out = append(out, s)
		return nil
	})
	return out, err
}

// DeleteSession removes a workout session.
func (t *Tracker) DeleteSession(ctx context.Context, id string) error {
	return t.deleteRow(ctx, domain.OpDeleteSession, domain.TableSessions, id)
}

// SaveRoutine stores a routine, generating its ID when empty. The stored
// row is returned, also when the write was queued offline alongside
// domain.ErrOffline.
func (t *Tracker) SaveRoutine(ctx context.Context, r domain.Routine) (*domain.Routine, error) {
	user, err := t.requireUser(ctx)
	if err != nil {
		return nil, err
	}
	if err := validate.Struct(r); err != nil {
		return nil, validationError(err)
	}
	if r.ID == "" {
		if r.ID, err = domain.NewULID(); err != nil {
			return nil, err
		}
	}
	r.UserID = user.ID
	r.UpdatedAt = t.timestamp()

	err = t.write(ctx, domain.OpSaveRoutine, r, func(ctx context.Context) error {
		return t.upsert(ctx, domain.TableRoutines, r, domain.ConflictID)
	})
	if err != nil && !isQueued(err) {
		return nil, err
	}
	return &r, err
}

// LoadRoutines returns the signed-in user's routines, most recently
// updated first.
func (t *Tracker) LoadRoutines(ctx context.Context) ([]domain.Routine, error) {
	var out []domain.Routine
	err := t.loadRows(ctx, domain.TableRoutines, "updated_at", func(rec backend.Record) error {
		var r domain.Routine
		if err := rec.Decode(&r); err != nil {
			return err
		}
		out = append(out, r)
		return nil
	})
	return out, err
}

// DeleteRoutine removes a routine.
func (t *Tracker) DeleteRoutine(ctx context.Context, id string) error {
	return t.deleteRow(ctx, domain.OpDeleteRoutine, domain.TableRoutines, id)
}

func (t *Tracker) loadRows(ctx context.Context, table, orderBy string, each func(backend.Record) error) error {
	user, err := t.requireUser(ctx)
	if err != nil {
		return err
	}

	var rows []backend.Record
	err = t.read(ctx, func(ctx context.Context) error {
		var err error
		rows, err = t.backend.Select(ctx, table, backend.Eq("user_id", user.ID).Order(orderBy, true))
		return err
	})
	if err != nil {
		if backend.HasCode(err, backend.CodeUndefinedTable) {
			return nil
		}
		return err
	}

	for _, rec := range rows {
		if err := each(rec); err != nil {
			return domain.ErrInternal.WithDetails("decode " + table).WithCause(err)
		}
	}
	return nil
}

func (t *Tracker) deleteRow(ctx context.Context, kind domain.OperationKind, table, id string) error {
	if id == "" {
		if err := t.requireBackend(); err != nil {
			return err
		}
		return domain.ErrMissingArgument.WithDetails("id is required")
	}
	user, err := t.requireUser(ctx)
	if err != nil {
		return err
	}

	ref := domain.RowRef{ID: id, UserID: user.ID}
	return t.write(ctx, kind, ref, func(ctx context.Context) error {
		return t.delete(ctx, table, ref)
	})
}

func (t *Tracker) upsert(ctx context.Context, table string, row any, conflictKey string) error {
	rec, err := backend.ToRecord(row)
	if err != nil {
		return domain.ErrInvalidArgument.WithCause(err)
	}
	return t.backend.Upsert(ctx, table, rec, conflictKey)
}

func (t *Tracker) delete(ctx context.Context, table string, ref domain.RowRef) error {
	return t.backend.Delete(ctx, table, backend.Eq("id", ref.ID).And("user_id", ref.UserID))
}

func (t *Tracker) timestamp() time.Time {
	return t.now().UTC()
}

func toRaw(data any) (json.RawMessage, error) {
	if data == nil {
		return nil, domain.ErrMissingArgument.WithDetails("data is required")
	}
	if raw, ok := data.(json.RawMessage); ok {
		if !json.Valid(raw) {
			return nil, domain.ErrInvalidArgument.WithDetails("data is not valid JSON")
		}
		return raw, nil
	}
	raw, err := json.Marshal(data)
	if err != nil {
		return nil, domain.ErrInvalidArgument.WithDetails("encode data").WithCause(err)
	}
	return raw, nil
}

// isQueued reports whether err is the ErrOffline returned for a queued write.
func isQueued(err error) bool {
	var de *domain.DomainError
	return errors.As(err, &de) && de.Code == domain.ErrOffline.Code && de.Details == domain.DetailsQueued
}
