package logger

import "context"

type contextKey string

const (
	loggerKey      contextKey = "supertracker.logger"
	operationIDKey contextKey = "supertracker.op_id"
	userIDKey      contextKey = "supertracker.user_id"
)

// WithLogger adds a logger to the context.
func WithLogger(ctx context.Context, l Logger) context.Context {
	return context.WithValue(ctx, loggerKey, l)
}

// FromContext extracts the logger from context.
// Returns the default logger if none is set.
func FromContext(ctx context.Context) Logger {
	if l, ok := ctx.Value(loggerKey).(Logger); ok {
		return l
	}
	return Default()
}

// WithOperationID tags the context with the queued operation being replayed.
func WithOperationID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, operationIDKey, id)
}

// OperationIDFromContext extracts the operation ID from context.
func OperationIDFromContext(ctx context.Context) string {
	if id, ok := ctx.Value(operationIDKey).(string); ok {
		return id
	}
	return ""
}

// WithUserID tags the context with the signed-in user.
func WithUserID(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, userIDKey, userID)
}

// UserIDFromContext extracts the user ID from context.
func UserIDFromContext(ctx context.Context) string {
	if id, ok := ctx.Value(userIDKey).(string); ok {
		return id
	}
	return ""
}

// L is a shorthand for FromContext that also enriches the logger
// with the operation and user IDs carried by ctx.
func L(ctx context.Context) Logger {
	l := FromContext(ctx)

	if opID := OperationIDFromContext(ctx); opID != "" {
		l = l.With("op_id", opID)
	}
	if userID := UserIDFromContext(ctx); userID != "" {
		l = l.With("user_id", userID)
	}

	return l
}
