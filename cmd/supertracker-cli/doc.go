// Package main provides the entry point for supertracker-cli.
//
// The CLI gives command-line access to a SuperTracker account:
//
//   - Authentication (signup, login, logout, whoami, reset-password)
//   - The per-user data document, workout sessions and routines
//   - The offline queue (status, list, flush, clear)
//   - Realtime row updates (watch)
//
// Usage:
//
//	supertracker-cli [global flags] command [command flags]
//	supertracker-cli auth login --email ana@example.com --password ...
//	supertracker-cli -o json session list
//	supertracker-cli --backend memory demo
//
// Writes made while the backend is unreachable are kept in the durable
// queue under the data directory and replayed by the next invocation (or
// by supertracker-agent) once the backend answers again.
package main
