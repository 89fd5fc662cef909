// Package service provides the SuperTracker data-access service.
//
// Tracker wraps a backend.Backend with the operations the application
// needs:
//
//   - Authentication: sign-up, sign-in, sign-out, password reset
//   - User data, workout sessions and routines stored as backend rows
//   - Realtime change subscriptions scoped to the signed-in user
//
// Writes attempted while offline are queued in a syncqueue.Manager and
// the caller receives domain.ErrOffline. Tracker is the manager's
// Replayer, so queued writes are re-issued against the backend once
// connectivity returns.
package service
