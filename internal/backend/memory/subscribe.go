package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/yndnr/supertracker-go/internal/backend"
)

type subscription struct {
	id       uint64
	table    string
	filter   backend.Filter
	onChange func(backend.Change)

	owner     *Backend
	closeOnce sync.Once

	mu   sync.Mutex
	stop func() bool
}

// Close implements backend.Subscription.
func (s *subscription) Close() error {
	s.closeOnce.Do(func() {
		s.owner.subs.Delete(s.id)
		s.mu.Lock()
		stop := s.stop
		s.mu.Unlock()
		if stop != nil {
			stop()
		}
	})
	return nil
}

// Subscribe registers onChange for changes to table matching filter.
// Delivery stops when the subscription is closed or ctx is done.
func (b *Backend) Subscribe(ctx context.Context, table string, filter backend.Filter, onChange func(backend.Change)) (backend.Subscription, error) {
	if err := b.checkReachable(); err != nil {
		return nil, err
	}
	if _, err := b.authorizedUser(); err != nil {
		return nil, err
	}

	sub := &subscription{
		id:       b.nextID.Add(1),
		table:    table,
		filter:   filter,
		onChange: onChange,
		owner:    b,
	}
	b.subs.Set(sub.id, sub)

	sub.mu.Lock()
	sub.stop = context.AfterFunc(ctx, func() { sub.Close() })
	sub.mu.Unlock()

	return sub, nil
}

// Subscribers returns the number of open subscriptions.
func (b *Backend) Subscribers() int {
	return b.subs.Count()
}

// publish delivers change to matching subscribers in subscription order.
func (b *Backend) publish(change backend.Change) {
	row := change.New
	if row == nil {
		row = change.Old
	}

	targets := b.subs.Filter(func(_ uint64, s *subscription) bool {
		return s.table == change.Table && s.filter.Matches(row)
	})
	sort.Slice(targets, func(i, j int) bool { return targets[i].id < targets[j].id })

	for _, s := range targets {
		s.onChange(change)
	}
}
