package domain

import (
	"crypto/rand"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

// OperationIDPrefix is the prefix for queued operation IDs.
const OperationIDPrefix = "op-"

// OperationKind identifies which write a queued operation replays.
type OperationKind int

const (
	OpSaveUserData OperationKind = iota + 1
	OpSaveSession
	OpDeleteSession
	OpSaveRoutine
	OpDeleteRoutine
)

var operationKindNames = map[OperationKind]string{
	OpSaveUserData:  "save_user_data",
	OpSaveSession:   "save_session",
	OpDeleteSession: "delete_session",
	OpSaveRoutine:   "save_routine",
	OpDeleteRoutine: "delete_routine",
}

// String returns the snake_case name of the kind.
func (k OperationKind) String() string {
	if name, ok := operationKindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("unknown(%d)", int(k))
}

// ParseOperationKind converts a name produced by String back to a kind.
func ParseOperationKind(s string) (OperationKind, error) {
	for k, name := range operationKindNames {
		if name == s {
			return k, nil
		}
	}
	return 0, ErrInvalidArgument.WithDetails("unknown operation kind " + s)
}

// MarshalText encodes the kind by name so persisted queues stay readable.
func (k OperationKind) MarshalText() ([]byte, error) {
	if _, ok := operationKindNames[k]; !ok {
		return nil, ErrInvalidArgument.WithDetails(k.String())
	}
	return []byte(k.String()), nil
}

// UnmarshalText decodes a kind name.
func (k *OperationKind) UnmarshalText(text []byte) error {
	parsed, err := ParseOperationKind(string(text))
	if err != nil {
		return err
	}
	*k = parsed
	return nil
}

// QueuedOperation is a write intent waiting for connectivity.
// Operations are immutable once queued; a retry is a copy with Attempts+1.
type QueuedOperation struct {
	ID         string          `json:"id"`
	Kind       OperationKind   `json:"kind"`
	Payload    json.RawMessage `json:"payload"`
	EnqueuedAt time.Time       `json:"enqueued_at"`
	Attempts   int             `json:"attempts"`
}

// NewQueuedOperation creates an operation with a fresh ID.
// payload is marshaled to JSON unless it is already a json.RawMessage.
func NewQueuedOperation(kind OperationKind, payload any) (*QueuedOperation, error) {
	raw, err := toRawJSON(payload)
	if err != nil {
		return nil, ErrInvalidArgument.WithCause(err)
	}

	id, err := GenerateOperationID()
	if err != nil {
		return nil, err
	}

	return &QueuedOperation{
		ID:         id,
		Kind:       kind,
		Payload:    raw,
		EnqueuedAt: time.Now(),
	}, nil
}

// Retry returns a copy of the operation with the attempt counter incremented.
func (o *QueuedOperation) Retry() *QueuedOperation {
	cp := *o
	cp.Payload = append(json.RawMessage(nil), o.Payload...)
	cp.Attempts++
	return &cp
}

// DecodePayload unmarshals the payload into v.
func (o *QueuedOperation) DecodePayload(v any) error {
	if err := json.Unmarshal(o.Payload, v); err != nil {
		return ErrInvalidArgument.WithDetails("decode " + o.Kind.String() + " payload").WithCause(err)
	}
	return nil
}

// GenerateOperationID generates a new operation ID using ULID.
// IDs sort lexicographically in creation order.
func GenerateOperationID() (string, error) {
	id, err := NewULID()
	if err != nil {
		return "", err
	}
	return OperationIDPrefix + id, nil
}

// Monotonic entropy is not safe for concurrent use.
var (
	entropyMu sync.Mutex
	entropy   = ulid.Monotonic(rand.Reader, 0)
)

// NewULID returns a lowercase ULID string.
func NewULID() (string, error) {
	entropyMu.Lock()
	id, err := ulid.New(ulid.Timestamp(time.Now()), entropy)
	entropyMu.Unlock()
	if err != nil {
		return "", ErrInternal.WithCause(err)
	}
	return strings.ToLower(id.String()), nil
}

func toRawJSON(payload any) (json.RawMessage, error) {
	switch p := payload.(type) {
	case json.RawMessage:
		if !json.Valid(p) {
			return nil, fmt.Errorf("payload is not valid JSON")
		}
		return append(json.RawMessage(nil), p...), nil
	case nil:
		return json.RawMessage("null"), nil
	default:
		return json.Marshal(payload)
	}
}
