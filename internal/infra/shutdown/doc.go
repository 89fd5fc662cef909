// Package shutdown coordinates graceful process termination.
//
// A Handler waits for SIGINT/SIGTERM (or an explicit Trigger), then runs
// the registered hooks in reverse registration order under a shared
// timeout. supertracker-agent registers its HTTP server, connectivity
// monitor, queue manager and storage as hooks.
package shutdown
