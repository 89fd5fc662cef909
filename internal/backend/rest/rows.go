package rest

import (
	"context"
	"net/http"
	"net/url"

	"github.com/yndnr/supertracker-go/internal/backend"
	"github.com/yndnr/supertracker-go/internal/backend/realtime"
)

// Upsert posts record with merge-duplicates resolution on conflictKey.
func (c *Client) Upsert(ctx context.Context, table string, record backend.Record, conflictKey string) error {
	q := url.Values{}
	if conflictKey != "" {
		q.Set("on_conflict", conflictKey)
	}
	return c.do(ctx, "upsert", http.MethodPost, "/rest/v1/"+table, q,
		[]backend.Record{record}, nil,
		"Prefer", "resolution=merge-duplicates,return=minimal")
}

// Select reads the rows of table matching filter.
func (c *Client) Select(ctx context.Context, table string, filter backend.Filter) ([]backend.Record, error) {
	q := filterQuery(filter)
	q.Set("select", "*")
	if filter.OrderBy != "" {
		dir := "asc"
		if filter.Descending {
			dir = "desc"
		}
		q.Set("order", filter.OrderBy+"."+dir)
	}

	var rows []backend.Record
	if err := c.do(ctx, "select", http.MethodGet, "/rest/v1/"+table, q, nil, &rows); err != nil {
		return nil, err
	}
	return rows, nil
}

// Delete removes the rows of table matching filter.
func (c *Client) Delete(ctx context.Context, table string, filter backend.Filter) error {
	return c.do(ctx, "delete", http.MethodDelete, "/rest/v1/"+table, filterQuery(filter), nil, nil,
		"Prefer", "return=minimal")
}

// Subscribe opens a realtime change feed authorized by the current session.
func (c *Client) Subscribe(ctx context.Context, table string, filter backend.Filter, onChange func(backend.Change)) (backend.Subscription, error) {
	cfg := realtime.Config{
		URL:    c.realtimeURL,
		APIKey: c.apiKey,
		Table:  table,
		Filter: filter,
		Logger: c.log,
	}
	if s := c.currentSession(); s != nil {
		cfg.AccessToken = s.AccessToken
	}
	sub, err := realtime.Subscribe(ctx, cfg, onChange)
	if err != nil {
		return nil, err
	}
	return sub, nil
}

func filterQuery(f backend.Filter) url.Values {
	q := url.Values{}
	for _, cond := range f.Conditions {
		q.Add(cond.Column, "eq."+cond.Value)
	}
	return q
}
