// Package domain defines the core domain models for SuperTracker.
//
// Domain models are plain value objects without IO dependencies.
// This package contains:
//
//   - Records: user data, workout sessions and routines as stored by the backend
//   - User and AuthSession: the authenticated principal
//   - QueuedOperation: a write intent buffered while offline
//   - Errors: coded domain errors and their localized user messages
package domain
