package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"
)

func newJSONLogger(t *testing.T, buf *bytes.Buffer) Logger {
	t.Helper()
	l, err := New(Config{Level: "info", Format: "json", Output: buf})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return l
}

func TestWithLogger_FromContext(t *testing.T) {
	var buf bytes.Buffer
	l := newJSONLogger(t, &buf)

	ctx := WithLogger(context.Background(), l)
	FromContext(ctx).Info("from context")

	if buf.Len() == 0 {
		t.Error("FromContext() should return the stored logger")
	}
}

func TestFromContext_Default(t *testing.T) {
	if FromContext(context.Background()) == nil {
		t.Error("FromContext() on empty context returned nil")
	}
}

func TestOperationID(t *testing.T) {
	ctx := WithOperationID(context.Background(), "op-01h")
	if got := OperationIDFromContext(ctx); got != "op-01h" {
		t.Errorf("OperationIDFromContext() = %q, want %q", got, "op-01h")
	}
	if got := OperationIDFromContext(context.Background()); got != "" {
		t.Errorf("OperationIDFromContext() on empty context = %q", got)
	}
}

func TestUserID(t *testing.T) {
	ctx := WithUserID(context.Background(), "user-1")
	if got := UserIDFromContext(ctx); got != "user-1" {
		t.Errorf("UserIDFromContext() = %q, want %q", got, "user-1")
	}
	if got := UserIDFromContext(context.Background()); got != "" {
		t.Errorf("UserIDFromContext() on empty context = %q", got)
	}
}

func TestL(t *testing.T) {
	tests := []struct {
		name       string
		opID       string
		userID     string
		wantFields map[string]string
	}{
		{"none", "", "", map[string]string{}},
		{"operation only", "op-1", "", map[string]string{"op_id": "op-1"}},
		{"user only", "", "u-1", map[string]string{"user_id": "u-1"}},
		{"both", "op-2", "u-2", map[string]string{"op_id": "op-2", "user_id": "u-2"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			ctx := WithLogger(context.Background(), newJSONLogger(t, &buf))
			if tt.opID != "" {
				ctx = WithOperationID(ctx, tt.opID)
			}
			if tt.userID != "" {
				ctx = WithUserID(ctx, tt.userID)
			}

			L(ctx).Info("replay")

			var entry map[string]any
			if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
				t.Fatalf("Failed to parse JSON log: %v", err)
			}
			for k, want := range tt.wantFields {
				if got, _ := entry[k].(string); got != want {
					t.Errorf("%s = %q, want %q", k, got, want)
				}
			}
			for _, k := range []string{"op_id", "user_id"} {
				if _, ok := tt.wantFields[k]; !ok {
					if _, present := entry[k]; present {
						t.Errorf("unexpected field %s in %v", k, entry)
					}
				}
			}
		})
	}
}
