// Package main provides the entry point for supertracker-agent.
//
// The agent keeps a device's offline queue moving without a user at the
// keyboard:
//
//   - Restores the durable queue from the data directory
//   - Probes the backend on an interval and replays the queue on reconnect
//   - Reloads the log level when the configuration file changes
//   - Serves /healthz, /metrics and /queue on agent.addr
//
// Usage:
//
//	supertracker-agent [flags]
//	supertracker-agent --config /path/to/config.yaml
//
// SIGINT or SIGTERM stops the HTTP server, waits for an in-flight flush
// and closes the store.
package main
