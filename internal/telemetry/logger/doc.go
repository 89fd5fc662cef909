// Package logger provides structured logging for SuperTracker.
//
// It wraps log/slog:
//
//   - logger.go: Logger interface, JSON/text handlers, runtime level changes
//   - context.go: context propagation with operation and user IDs
//   - redact.go: masking of passwords, access tokens and API keys
package logger
