// Package metric provides Prometheus metrics for SuperTracker.
//
//   - prometheus.go: Registry with sync queue and backend request metrics,
//     plus the /metrics HTTP handler
//   - collector.go: scrape-time collector reading queue depth and
//     connectivity straight from the sync manager
//
// All metric names carry the "supertracker_" namespace.
package metric
