// Package command defines the supertracker-cli commands using urfave/cli/v2.
//
//   - root.go: App, global flags, lazy runtime setup
//   - auth.go: signup, login, logout, whoami, reset-password
//   - data.go: the per-user data document
//   - records.go: workout sessions and routines
//   - queue.go: offline queue status, flush and clear
//   - watch.go: realtime row updates
//   - demo.go: the offline scenario against an in-process backend
//   - config.go, version.go: diagnostics
//
// Commands write results to App.Writer in the selected output format and
// diagnostics to App.ErrWriter. Writes accepted while offline print a
// notice and succeed.
package command
