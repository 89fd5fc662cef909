package service

import (
	"context"

	"github.com/yndnr/supertracker-go/internal/backend"
	"github.com/yndnr/supertracker-go/internal/core/domain"
)

// SubscribeToChanges calls onChange for every UPDATE to the signed-in
// user's rows of table until the subscription is closed or ctx is done.
func (t *Tracker) SubscribeToChanges(ctx context.Context, table string, onChange func(backend.Change)) (backend.Subscription, error) {
	user, err := t.requireUser(ctx)
	if err != nil {
		return nil, err
	}

	if table == "" {
		return nil, domain.ErrMissingArgument.WithDetails("table is required")
	}

	filter := backend.Eq("user_id", user.ID)
	sub, err := t.backend.Subscribe(ctx, table, filter, func(c backend.Change) {
		if c.Event == backend.EventUpdate {
			onChange(c)
		}
	})
	if err != nil {
		return nil, t.mapError(err)
	}
	t.log.Debug("subscribed to changes", "table", table, "user_id", user.ID)
	return sub, nil
}
