package metric

import (
	"net/http"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "supertracker"

// Replay results.
const (
	ResultReplayed = "replayed"
	ResultDropped  = "dropped"
	ResultRequeued = "requeued"
	ResultOffline  = "offline"
)

// Reasons a flush did not run.
const (
	SkipOffline     = "offline"
	SkipInProgress  = "in_progress"
	SkipUnavailable = "unavailable"
)

// Registry holds all application metrics.
type Registry struct {
	registry *prometheus.Registry

	OperationsEnqueued *prometheus.CounterVec
	OperationsEvicted  *prometheus.CounterVec
	OperationsReplayed *prometheus.CounterVec
	FlushesSkipped     *prometheus.CounterVec
	FlushDuration      prometheus.Histogram

	BackendRequests        *prometheus.CounterVec
	BackendRequestDuration *prometheus.HistogramVec
}

// NewRegistry creates a registry with runtime and process collectors
// plus all SuperTracker metrics.
func NewRegistry() *Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	r := &Registry{
		registry: reg,
		OperationsEnqueued: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "sync",
			Name:      "operations_enqueued_total",
			Help:      "Write operations queued while offline",
		}, []string{"kind"}),
		OperationsEvicted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "sync",
			Name:      "operations_evicted_total",
			Help:      "Queued operations dropped because the queue was full",
		}, []string{"kind"}),
		OperationsReplayed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "sync",
			Name:      "operations_replayed_total",
			Help:      "Replay attempts by operation kind and result",
		}, []string{"kind", "result"}),
		FlushesSkipped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "sync",
			Name:      "flushes_skipped_total",
			Help:      "Flush requests that did not run, by reason",
		}, []string{"reason"}),
		FlushDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "sync",
			Name:      "flush_duration_seconds",
			Help:      "Duration of flush passes that ran",
			Buckets:   prometheus.ExponentialBuckets(0.01, 4, 8),
		}),
		BackendRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "backend",
			Name:      "requests_total",
			Help:      "Backend requests by operation and outcome",
		}, []string{"op", "outcome"}),
		BackendRequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "backend",
			Name:      "request_duration_seconds",
			Help:      "Backend request latency",
			Buckets:   prometheus.DefBuckets,
		}, []string{"op"}),
	}

	reg.MustRegister(
		r.OperationsEnqueued,
		r.OperationsEvicted,
		r.OperationsReplayed,
		r.FlushesSkipped,
		r.FlushDuration,
		r.BackendRequests,
		r.BackendRequestDuration,
	)

	return r
}

var (
	globalOnce sync.Once
	global     *Registry
)

// Global returns the process-wide registry.
func Global() *Registry {
	globalOnce.Do(func() {
		global = NewRegistry()
	})
	return global
}

// Registerer exposes the underlying registry for components that
// register their own collectors.
func (r *Registry) Registerer() prometheus.Registerer {
	return r.registry
}

// Gatherer exposes the underlying registry for tests and exporters.
func (r *Registry) Gatherer() prometheus.Gatherer {
	return r.registry
}

// Handler returns an HTTP handler for the /metrics endpoint.
func (r *Registry) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{})
}

// Handler returns the /metrics handler of the global registry.
func Handler() http.Handler {
	return Global().Handler()
}

// RecordEnqueue counts an operation added to the queue.
func (r *Registry) RecordEnqueue(kind string) {
	r.OperationsEnqueued.WithLabelValues(kind).Inc()
}

// RecordEviction counts an operation evicted from a full queue.
func (r *Registry) RecordEviction(kind string) {
	r.OperationsEvicted.WithLabelValues(kind).Inc()
}

// RecordReplay counts one replay attempt.
func (r *Registry) RecordReplay(kind, result string) {
	r.OperationsReplayed.WithLabelValues(kind, result).Inc()
}

// RecordFlushSkipped counts a flush that did not run.
func (r *Registry) RecordFlushSkipped(reason string) {
	r.FlushesSkipped.WithLabelValues(reason).Inc()
}

// ObserveFlush records the duration of a flush pass.
func (r *Registry) ObserveFlush(seconds float64) {
	r.FlushDuration.Observe(seconds)
}

// RecordBackendRequest counts a backend call and its latency.
func (r *Registry) RecordBackendRequest(op, outcome string, seconds float64) {
	r.BackendRequests.WithLabelValues(op, outcome).Inc()
	r.BackendRequestDuration.WithLabelValues(op).Observe(seconds)
}
