package httpserver

import (
	"context"
	"net/http"
	"time"

	"github.com/yndnr/supertracker-go/internal/core/domain"
	"github.com/yndnr/supertracker-go/internal/syncqueue"
	"github.com/yndnr/supertracker-go/internal/telemetry/logger"
)

// flushTimeout bounds a POST /queue/flush request.
const flushTimeout = 2 * time.Minute

// QueueController is the part of syncqueue.Manager the agent exposes.
type QueueController interface {
	Len() int
	Cap() int
	IsOnline() bool
	IsFlushing() bool
	Pending() []*domain.QueuedOperation
	Flush(ctx context.Context) syncqueue.FlushResult
	Wait()
}

// RouterConfig wires the agent's collaborators into the router.
type RouterConfig struct {
	Queue QueueController

	// Probe checks the backend now and updates the queue's connectivity.
	// Nil means the agent cannot reach a backend at all.
	Probe func(ctx context.Context) bool

	// Metrics serves /metrics. Nil leaves the route unregistered.
	Metrics http.Handler

	Logger logger.Logger
}

// HealthStatus is the body of GET /healthz.
type HealthStatus struct {
	Status  string `json:"status"`
	Online  bool   `json:"online"`
	Pending int    `json:"pending"`
	Time    string `json:"time"`
}

// QueueStatus is the body of GET /queue.
type QueueStatus struct {
	Online     bool                      `json:"online"`
	Flushing   bool                      `json:"flushing"`
	Pending    int                       `json:"pending"`
	Capacity   int                       `json:"capacity"`
	Operations []*domain.QueuedOperation `json:"operations"`
}

// FlushStatus is the body of POST /queue/flush. Processed counts
// operations that left the queue, including any replayed by the flush the
// probe itself triggered.
type FlushStatus struct {
	Pending   int  `json:"pending"`
	Processed int  `json:"processed"`
	Replayed  int  `json:"replayed"`
	Dropped   int  `json:"dropped"`
	Requeued  int  `json:"requeued"`
	Remaining int  `json:"remaining"`
	Skipped   bool `json:"skipped"`
}

type router struct {
	cfg RouterConfig
}

// NewRouter returns the agent's handler with its middleware chain applied.
func NewRouter(cfg RouterConfig) http.Handler {
	if cfg.Logger == nil {
		cfg.Logger = logger.Nop()
	}
	rt := &router{cfg: cfg}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", rt.handleHealth)
	mux.HandleFunc("GET /queue", rt.handleQueue)
	mux.HandleFunc("POST /queue/flush", rt.handleFlush)
	if cfg.Metrics != nil {
		mux.Handle("GET /metrics", cfg.Metrics)
	}

	return Chain(mux,
		RequestID(),
		AccessLog(cfg.Logger),
		Recover(cfg.Logger),
	)
}

// handleHealth reports liveness. The agent is healthy while it runs,
// whether or not the backend is reachable.
func (rt *router) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, r, http.StatusOK, HealthStatus{
		Status:  "healthy",
		Online:  rt.cfg.Queue.IsOnline(),
		Pending: rt.cfg.Queue.Len(),
		Time:    time.Now().UTC().Format(time.RFC3339),
	})
}

func (rt *router) handleQueue(w http.ResponseWriter, r *http.Request) {
	q := rt.cfg.Queue
	ops := q.Pending()
	if ops == nil {
		ops = []*domain.QueuedOperation{}
	}
	writeJSON(w, r, http.StatusOK, QueueStatus{
		Online:     q.IsOnline(),
		Flushing:   q.IsFlushing(),
		Pending:    len(ops),
		Capacity:   q.Cap(),
		Operations: ops,
	})
}

func (rt *router) handleFlush(w http.ResponseWriter, r *http.Request) {
	if rt.cfg.Probe == nil {
		writeError(w, r, domain.ErrNotConfigured)
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), flushTimeout)
	defer cancel()

	q := rt.cfg.Queue
	q.Wait()
	pending := q.Len()

	if !rt.cfg.Probe(ctx) {
		writeError(w, r, domain.ErrOffline)
		return
	}
	// A reconnect detected by the probe starts its own flush.
	q.Wait()
	res := q.Flush(ctx)
	remaining := q.Len()

	processed := pending - remaining
	if processed < 0 {
		processed = 0
	}
	rt.cfg.Logger.Info("flush requested",
		"request_id", GetRequestIDFromContext(r.Context()),
		"processed", processed,
		"remaining", remaining,
	)
	writeJSON(w, r, http.StatusOK, FlushStatus{
		Pending:   pending,
		Processed: processed,
		Replayed:  res.Replayed,
		Dropped:   res.Dropped,
		Requeued:  res.Requeued,
		Remaining: remaining,
		Skipped:   res.Skipped,
	})
}
