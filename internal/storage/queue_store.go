package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/yndnr/supertracker-go/internal/core/domain"
	"github.com/yndnr/supertracker-go/pkg/crypto/adaptive"
)

const (
	queuePrefix = "queue/"
	sessionKey  = "auth/session"
)

// QueueStore keeps pending sync operations and the auth session in a KVEngine.
type QueueStore struct {
	kv     KVEngine
	cipher adaptive.Cipher
}

// QueueStoreOption configures a QueueStore.
type QueueStoreOption func(*QueueStore)

// WithCipher seals every stored value with c.
func WithCipher(c adaptive.Cipher) QueueStoreOption {
	return func(s *QueueStore) {
		s.cipher = c
	}
}

// NewQueueStore creates a store backed by kv.
func NewQueueStore(kv KVEngine, opts ...QueueStoreOption) *QueueStore {
	s := &QueueStore{kv: kv}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Close closes the underlying engine.
func (s *QueueStore) Close() error {
	return s.kv.Close()
}

// SaveOperation persists op under its ID.
func (s *QueueStore) SaveOperation(ctx context.Context, op *domain.QueuedOperation) error {
	return s.putJSON(ctx, queueKey(op.ID), op)
}

// DeleteOperation removes a persisted operation. Missing IDs are ignored.
func (s *QueueStore) DeleteOperation(ctx context.Context, id string) error {
	return s.kv.Delete(ctx, queueKey(id))
}

// LoadOperations returns every persisted operation in enqueue order.
// Entries that cannot be decoded are skipped and reported in the
// returned error alongside the operations that could be read.
func (s *QueueStore) LoadOperations(ctx context.Context) ([]*domain.QueuedOperation, error) {
	var (
		ops  []*domain.QueuedOperation
		errs []error
	)
	err := s.kv.Scan(ctx, []byte(queuePrefix), func(key, value []byte) bool {
		var op domain.QueuedOperation
		if err := s.decode(key, value, &op); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", key, err))
			return true
		}
		ops = append(ops, &op)
		return true
	})
	if err != nil {
		return nil, fmt.Errorf("scan queue: %w", err)
	}
	return ops, errors.Join(errs...)
}

// ClearOperations removes every persisted operation.
func (s *QueueStore) ClearOperations(ctx context.Context) error {
	return s.kv.DeletePrefix(ctx, []byte(queuePrefix))
}

// SaveSession persists the signed-in session.
func (s *QueueStore) SaveSession(ctx context.Context, session *domain.AuthSession) error {
	if session == nil {
		return s.ClearSession(ctx)
	}
	return s.putJSON(ctx, []byte(sessionKey), session)
}

// LoadSession returns the persisted session, or nil when there is none.
func (s *QueueStore) LoadSession(ctx context.Context) (*domain.AuthSession, error) {
	value, err := s.kv.Get(ctx, []byte(sessionKey))
	if errors.Is(err, ErrKeyNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var session domain.AuthSession
	if err := s.decode([]byte(sessionKey), value, &session); err != nil {
		return nil, fmt.Errorf("decode session: %w", err)
	}
	return &session, nil
}

// ClearSession removes the persisted session.
func (s *QueueStore) ClearSession(ctx context.Context) error {
	return s.kv.Delete(ctx, []byte(sessionKey))
}

func (s *QueueStore) putJSON(ctx context.Context, key []byte, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	if s.cipher != nil {
		if data, err = s.cipher.Encrypt(data, key); err != nil {
			return fmt.Errorf("encrypt %s: %w", key, err)
		}
	}
	return s.kv.Set(ctx, key, data)
}

func (s *QueueStore) decode(key, value []byte, v any) error {
	if s.cipher != nil {
		plain, err := s.cipher.Decrypt(value, key)
		if err != nil {
			return fmt.Errorf("decrypt: %w", err)
		}
		value = plain
	}
	return json.Unmarshal(value, v)
}

func queueKey(id string) []byte {
	return []byte(queuePrefix + id)
}
