// Package httpserver serves the supertracker-agent's local HTTP surface.
//
// Endpoints:
//
//   - GET  /healthz      liveness plus connectivity and queue depth
//   - GET  /metrics      prometheus exposition
//   - GET  /queue        pending operations awaiting replay
//   - POST /queue/flush  probe the backend and replay the queue now
//
// Every route runs behind RequestID, AccessLog and Recover.
package httpserver
