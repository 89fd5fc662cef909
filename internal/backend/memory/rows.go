package memory

import (
	"context"
	"fmt"

	"github.com/yndnr/supertracker-go/internal/backend"
	"github.com/yndnr/supertracker-go/pkg/cmap"
)

// Upsert inserts or replaces the row identified by record[conflictKey].
// Rows are only writable by their owner (column user_id).
func (b *Backend) Upsert(_ context.Context, table string, record backend.Record, conflictKey string) error {
	if err := b.checkReachable(); err != nil {
		return err
	}
	uid, err := b.authorizedUser()
	if err != nil {
		return err
	}

	key := record.String(conflictKey)
	if key == "" {
		return &backend.Error{Status: 400, Code: "23502", Message: fmt.Sprintf("null value in column %q", conflictKey)}
	}
	if owner := record.String("user_id"); owner != uid {
		return &backend.Error{Status: 403, Code: "42501", Message: "new row violates row-level security policy"}
	}

	rows := b.table(table)
	row := record.Clone()

	var (
		old     backend.Record
		existed bool
	)
	rows.Update(key, func(prev backend.Record, exists bool) backend.Record {
		old, existed = prev, exists
		return row
	})

	change := backend.Change{Table: table, Event: backend.EventInsert, New: row.Clone()}
	if existed {
		change.Event = backend.EventUpdate
		change.Old = old.Clone()
	}
	b.publish(change)
	return nil
}

// Select returns the caller's rows of table matching filter.
func (b *Backend) Select(_ context.Context, table string, filter backend.Filter) ([]backend.Record, error) {
	if err := b.checkReachable(); err != nil {
		return nil, err
	}
	uid, err := b.authorizedUser()
	if err != nil {
		return nil, err
	}

	rows, ok := b.tables.Get(table)
	if !ok {
		return nil, &backend.Error{Status: 404, Code: backend.CodeUndefinedTable, Message: fmt.Sprintf("relation %q does not exist", table)}
	}

	matched := rows.Filter(func(_ string, rec backend.Record) bool {
		return rec.String("user_id") == uid && filter.Matches(rec)
	})
	out := make([]backend.Record, len(matched))
	for i, rec := range matched {
		out[i] = rec.Clone()
	}
	filter.Sort(out)
	return out, nil
}

// Delete removes the caller's rows of table matching filter.
func (b *Backend) Delete(_ context.Context, table string, filter backend.Filter) error {
	if err := b.checkReachable(); err != nil {
		return err
	}
	uid, err := b.authorizedUser()
	if err != nil {
		return err
	}

	rows, ok := b.tables.Get(table)
	if !ok {
		return nil
	}

	var removed []backend.Record
	rows.DeleteWhere(func(_ string, rec backend.Record) bool {
		if rec.String("user_id") == uid && filter.Matches(rec) {
			removed = append(removed, rec)
			return true
		}
		return false
	})

	for _, rec := range removed {
		b.publish(backend.Change{Table: table, Event: backend.EventDelete, Old: rec.Clone()})
	}
	return nil
}

// Rows returns every row of table regardless of owner. Intended for tests.
func (b *Backend) Rows(table string) []backend.Record {
	rows, ok := b.tables.Get(table)
	if !ok {
		return nil
	}
	return rows.Values()
}

func (b *Backend) table(name string) *cmap.Map[string, backend.Record] {
	rows, ok := b.tables.Get(name)
	if ok {
		return rows
	}
	b.tables.SetIfAbsent(name, cmap.New[string, backend.Record]())
	rows, _ = b.tables.Get(name)
	return rows
}
