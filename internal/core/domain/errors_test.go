package domain

import (
	"errors"
	"fmt"
	"testing"
)

func TestDomainError_Error(t *testing.T) {
	tests := []struct {
		name     string
		err      *DomainError
		expected string
	}{
		{
			name:     "error without details",
			err:      NewDomainError("ST-TEST-1000", "test message"),
			expected: "[ST-TEST-1000] test message",
		},
		{
			name:     "error with details",
			err:      NewDomainError("ST-TEST-1001", "test message").WithDetails("extra info"),
			expected: "[ST-TEST-1001] test message: extra info",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.expected {
				t.Errorf("Error() = %q, want %q", got, tt.expected)
			}
		})
	}
}

func TestDomainError_Is(t *testing.T) {
	err1 := NewDomainError("ST-TEST-1000", "message 1")
	err2 := NewDomainError("ST-TEST-1000", "message 2")
	err3 := NewDomainError("ST-TEST-1001", "message 1")

	if !errors.Is(err1, err2) {
		t.Error("errors.Is should return true for same error code")
	}
	if errors.Is(err1, err3) {
		t.Error("errors.Is should return false for different error code")
	}
	if errors.Is(err1, fmt.Errorf("some error")) {
		t.Error("errors.Is should return false for non-DomainError")
	}

	wrapped := fmt.Errorf("save: %w", ErrOffline.WithDetails(DetailsQueued))
	if !errors.Is(wrapped, ErrOffline) {
		t.Error("errors.Is should see through fmt wrapping and details")
	}
}

func TestDomainError_Unwrap(t *testing.T) {
	cause := fmt.Errorf("underlying cause")
	err := ErrBackendRejected.WithCause(cause)

	if errors.Unwrap(err) != cause {
		t.Errorf("Unwrap() = %v, want %v", errors.Unwrap(err), cause)
	}
	if errors.Unwrap(ErrNotAuthenticated) != nil {
		t.Error("Unwrap() should return nil when no cause")
	}
}

func TestDomainError_CopiesDoNotMutateSentinel(t *testing.T) {
	_ = ErrOffline.WithDetails("x").WithCause(errors.New("y"))

	if ErrOffline.Details != "" || ErrOffline.Cause != nil {
		t.Error("WithDetails/WithCause must not modify the sentinel")
	}
}

func TestIsDomainError(t *testing.T) {
	err := fmt.Errorf("wrapped: %w", ErrNotConfigured)

	if !IsDomainError(err, "") {
		t.Error("IsDomainError(err, \"\") = false, want true")
	}
	if !IsDomainError(err, ErrNotConfigured.Code) {
		t.Error("IsDomainError with matching code = false, want true")
	}
	if IsDomainError(err, ErrOffline.Code) {
		t.Error("IsDomainError with other code = true, want false")
	}
	if IsDomainError(errors.New("plain"), "") {
		t.Error("IsDomainError(plain) = true, want false")
	}
}

func TestGetErrorCode(t *testing.T) {
	if got := GetErrorCode(ErrNotFound.WithDetails("routine r1")); got != "ST-BACK-4040" {
		t.Errorf("GetErrorCode() = %q, want %q", got, "ST-BACK-4040")
	}
	if got := GetErrorCode(errors.New("plain")); got != "" {
		t.Errorf("GetErrorCode(plain) = %q, want empty", got)
	}
}
