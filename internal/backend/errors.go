package backend

import (
	"errors"
	"fmt"
)

// ErrUnreachable marks failures to reach the backend at all.
var ErrUnreachable = errors.New("backend unreachable")

// Codes reported by GoTrue/PostgREST that callers act on.
const (
	// CodeNoRows is returned when a single-row read finds nothing.
	CodeNoRows = "PGRST116"
	// CodeUndefinedTable is returned when the table does not exist yet.
	CodeUndefinedTable = "42P01"

	CodeInvalidCredentials = "invalid_credentials"
	CodeUserAlreadyExists  = "user_already_exists"
	CodeNotAuthenticated   = "not_authenticated"
)

// Error is a request the backend received and rejected.
type Error struct {
	Status  int
	Code    string
	Message string
}

func (e *Error) Error() string {
	if e.Code == "" {
		return fmt.Sprintf("backend: %d %s", e.Status, e.Message)
	}
	return fmt.Sprintf("backend: %d [%s] %s", e.Status, e.Code, e.Message)
}

// Unreachable wraps cause so that IsUnreachable reports true.
func Unreachable(cause error) error {
	if cause == nil {
		return ErrUnreachable
	}
	return fmt.Errorf("%w: %v", ErrUnreachable, cause)
}

// IsUnreachable reports whether err means the backend could not be reached.
func IsUnreachable(err error) bool {
	return errors.Is(err, ErrUnreachable)
}

// AsError returns the *Error inside err, if any.
func AsError(err error) (*Error, bool) {
	var be *Error
	if errors.As(err, &be) {
		return be, true
	}
	return nil, false
}

// HasCode reports whether err is an *Error with one of the given codes.
func HasCode(err error, codes ...string) bool {
	be, ok := AsError(err)
	if !ok {
		return false
	}
	for _, c := range codes {
		if be.Code == c {
			return true
		}
	}
	return false
}
