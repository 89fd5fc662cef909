package syncqueue

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/yndnr/supertracker-go/internal/core/domain"
	"github.com/yndnr/supertracker-go/internal/telemetry/logger"
	"github.com/yndnr/supertracker-go/internal/telemetry/metric"
)

type fakeReplayer struct {
	mu          sync.Mutex
	unavailable bool
	replayed    []string
	opIDs       []string
	fail        func(op *domain.QueuedOperation) error

	// When set, each Replay signals started and waits for release.
	started chan struct{}
	release chan struct{}
}

func (r *fakeReplayer) Available(context.Context) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return !r.unavailable
}

func (r *fakeReplayer) Replay(ctx context.Context, op *domain.QueuedOperation) error {
	if r.started != nil {
		r.started <- struct{}{}
		<-r.release
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.opIDs = append(r.opIDs, logger.OperationIDFromContext(ctx))
	if r.fail != nil {
		if err := r.fail(op); err != nil {
			return err
		}
	}
	r.replayed = append(r.replayed, op.ID)
	return nil
}

func (r *fakeReplayer) calls() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.replayed...)
}

// blockingReplayer holds each Replay until its context ends.
type blockingReplayer struct {
	started chan struct{}
}

func (r *blockingReplayer) Available(context.Context) bool { return true }

func (r *blockingReplayer) Replay(ctx context.Context, _ *domain.QueuedOperation) error {
	r.started <- struct{}{}
	<-ctx.Done()
	return ctx.Err()
}

type fakeStore struct {
	mu  sync.Mutex
	ops map[string]*domain.QueuedOperation
}

func newFakeStore(ops ...*domain.QueuedOperation) *fakeStore {
	s := &fakeStore{ops: make(map[string]*domain.QueuedOperation)}
	for _, op := range ops {
		s.ops[op.ID] = op
	}
	return s
}

func (s *fakeStore) SaveOperation(_ context.Context, op *domain.QueuedOperation) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ops[op.ID] = op
	return nil
}

func (s *fakeStore) DeleteOperation(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.ops, id)
	return nil
}

func (s *fakeStore) LoadOperations(context.Context) ([]*domain.QueuedOperation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*domain.QueuedOperation, 0, len(s.ops))
	for _, op := range s.ops {
		out = append(out, op)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *fakeStore) ClearOperations(context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ops = make(map[string]*domain.QueuedOperation)
	return nil
}

func (s *fakeStore) len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.ops)
}

func newTestManager(t *testing.T, cfg Config, opts ...Option) *Manager {
	t.Helper()
	opts = append([]Option{WithLogger(logger.Nop())}, opts...)
	m, err := NewManager(cfg, opts...)
	if err != nil {
		t.Fatalf("NewManager: %v", err)
	}
	t.Cleanup(m.Close)
	return m
}

func enqueue(t *testing.T, m *Manager, kind domain.OperationKind, payload any) *domain.QueuedOperation {
	t.Helper()
	op, err := m.Enqueue(kind, payload)
	if err != nil {
		t.Fatalf("Enqueue: %v", err)
	}
	return op
}

func TestManager_FlushOfflineIsNoop(t *testing.T) {
	r := &fakeReplayer{}
	m := newTestManager(t, Config{}, WithReplayer(r), WithInitialOnline(false))
	enqueue(t, m, domain.OpSaveUserData, map[string]string{"a": "1"})
	enqueue(t, m, domain.OpSaveSession, map[string]string{"b": "2"})

	res := m.Flush(context.Background())
	if !res.Skipped {
		t.Error("Flush while offline was not skipped")
	}
	if m.Len() != 2 {
		t.Errorf("Len() = %d, want 2", m.Len())
	}
	if len(r.calls()) != 0 {
		t.Errorf("replayed %v while offline", r.calls())
	}
}

func TestManager_FlushUnavailableIsNoop(t *testing.T) {
	tests := []struct {
		name string
		opts []Option
	}{
		{"no replayer", nil},
		{"backend unavailable", []Option{WithReplayer(&fakeReplayer{unavailable: true})}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := newTestManager(t, Config{}, tt.opts...)
			enqueue(t, m, domain.OpSaveRoutine, 1)

			if res := m.Flush(context.Background()); !res.Skipped {
				t.Error("Flush was not skipped")
			}
			if m.Len() != 1 {
				t.Errorf("Len() = %d, want 1", m.Len())
			}
		})
	}
}

func TestManager_FlushReplaysInOrder(t *testing.T) {
	r := &fakeReplayer{}
	m := newTestManager(t, Config{}, WithReplayer(r), WithInitialOnline(false))

	var want []string
	for i := 0; i < 5; i++ {
		want = append(want, enqueue(t, m, domain.OpSaveSession, i).ID)
	}
	m.SetOnline(true)
	m.Wait()

	if got := r.calls(); fmt.Sprint(got) != fmt.Sprint(want) {
		t.Errorf("replay order = %v, want %v", got, want)
	}
	if m.Len() != 0 {
		t.Errorf("Len() = %d after flush", m.Len())
	}
}

func TestManager_ConcurrentFlushIsNoop(t *testing.T) {
	r := &fakeReplayer{
		started: make(chan struct{}),
		release: make(chan struct{}),
	}
	m := newTestManager(t, Config{}, WithReplayer(r))
	enqueue(t, m, domain.OpSaveUserData, 1)
	enqueue(t, m, domain.OpSaveUserData, 2)

	done := make(chan FlushResult)
	go func() { done <- m.Flush(context.Background()) }()

	<-r.started
	if !m.IsFlushing() {
		t.Error("IsFlushing() = false during flush")
	}
	if res := m.Flush(context.Background()); !res.Skipped {
		t.Error("second Flush was not skipped")
	}

	r.release <- struct{}{}
	<-r.started
	r.release <- struct{}{}

	res := <-done
	if res.Replayed != 2 {
		t.Errorf("Replayed = %d, want 2", res.Replayed)
	}
	if len(r.calls()) != 2 {
		t.Errorf("replay calls = %d, want 2", len(r.calls()))
	}
}

func TestManager_OnlineTransitionFlushes(t *testing.T) {
	r := &fakeReplayer{}
	m := newTestManager(t, Config{}, WithReplayer(r), WithInitialOnline(false))

	a := enqueue(t, m, domain.OpSaveUserData, map[string]string{"step": "A"})
	b := enqueue(t, m, domain.OpSaveRoutine, map[string]string{"step": "B"})

	m.SetOnline(false)
	if len(r.calls()) != 0 {
		t.Fatal("flush started without a transition to online")
	}

	m.SetOnline(true)
	m.Wait()

	if got := r.calls(); len(got) != 2 || got[0] != a.ID || got[1] != b.ID {
		t.Errorf("replayed %v, want [A B]", got)
	}
	if !m.IsOnline() {
		t.Error("IsOnline() = false after SetOnline(true)")
	}
}

func TestManager_CapacityEviction(t *testing.T) {
	store := newFakeStore()
	reg := metric.NewRegistry()
	m := newTestManager(t, Config{}, WithStore(store), WithMetrics(reg), WithInitialOnline(false))

	first := enqueue(t, m, domain.OpSaveSession, 0)
	second := enqueue(t, m, domain.OpSaveSession, 1)
	for i := 2; i < DefaultCapacity+1; i++ {
		enqueue(t, m, domain.OpSaveSession, i)
	}

	if m.Len() != DefaultCapacity {
		t.Errorf("Len() = %d, want %d", m.Len(), DefaultCapacity)
	}
	if head := m.Pending()[0]; head.ID != second.ID {
		t.Errorf("head = %s, want second operation", head.ID)
	}
	if store.len() != DefaultCapacity {
		t.Errorf("store holds %d, want %d", store.len(), DefaultCapacity)
	}
	for _, op := range m.Pending() {
		if op.ID == first.ID {
			t.Fatal("evicted operation still pending")
		}
	}

	kind := domain.OpSaveSession.String()
	if got := testutil.ToFloat64(reg.OperationsEvicted.WithLabelValues(kind)); got != 1 {
		t.Errorf("evicted counter = %v, want 1", got)
	}
	if got := testutil.ToFloat64(reg.OperationsEnqueued.WithLabelValues(kind)); got != DefaultCapacity+1 {
		t.Errorf("enqueued counter = %v, want %d", got, DefaultCapacity+1)
	}
}

func TestManager_RetryPolicy(t *testing.T) {
	boom := errors.New("rejected")

	tests := []struct {
		name         string
		maxAttempts  int
		flushes      int
		wantPending  int
		wantDropped  int
		wantRequeued int
	}{
		{"default drops on first failure", 0, 1, 0, 1, 0},
		{"requeued once", 2, 1, 1, 0, 1},
		{"dropped after max attempts", 2, 2, 0, 1, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := &fakeReplayer{fail: func(*domain.QueuedOperation) error { return boom }}
			store := newFakeStore()
			m := newTestManager(t, Config{MaxReplayAttempts: tt.maxAttempts}, WithReplayer(r), WithStore(store))
			enqueue(t, m, domain.OpSaveRoutine, 1)

			var dropped, requeued int
			for i := 0; i < tt.flushes; i++ {
				res := m.Flush(context.Background())
				dropped += res.Dropped
				requeued += res.Requeued
			}

			if m.Len() != tt.wantPending {
				t.Errorf("Len() = %d, want %d", m.Len(), tt.wantPending)
			}
			if store.len() != tt.wantPending {
				t.Errorf("store holds %d, want %d", store.len(), tt.wantPending)
			}
			if dropped != tt.wantDropped || requeued != tt.wantRequeued {
				t.Errorf("dropped=%d requeued=%d, want %d/%d", dropped, requeued, tt.wantDropped, tt.wantRequeued)
			}
		})
	}
}

func TestManager_RetryGoesToTail(t *testing.T) {
	var failOnce sync.Once
	r := &fakeReplayer{}
	m := newTestManager(t, Config{MaxReplayAttempts: 3}, WithReplayer(r), WithInitialOnline(false))
	a := enqueue(t, m, domain.OpSaveUserData, "a")
	b := enqueue(t, m, domain.OpSaveUserData, "b")
	r.fail = func(op *domain.QueuedOperation) error {
		var err error
		if op.ID == a.ID {
			failOnce.Do(func() { err = errors.New("rejected") })
		}
		return err
	}

	m.SetOnline(true)
	m.Wait()

	if pending := m.Pending(); len(pending) != 1 || pending[0].ID != a.ID || pending[0].Attempts != 1 {
		t.Fatalf("pending = %v, want [a] with one attempt", ids(pending))
	}
	m.Flush(context.Background())
	if got := r.calls(); fmt.Sprint(got) != fmt.Sprint([]string{b.ID, a.ID}) {
		t.Errorf("replayed %v, want [b a]", got)
	}
}

func TestManager_OfflineMidFlush(t *testing.T) {
	hookCalls := 0
	r := &fakeReplayer{}
	store := newFakeStore()
	m := newTestManager(t, Config{}, WithReplayer(r), WithStore(store), WithOfflineHook(func() { hookCalls++ }))

	a := enqueue(t, m, domain.OpSaveSession, "a")
	b := enqueue(t, m, domain.OpSaveSession, "b")
	c := enqueue(t, m, domain.OpSaveSession, "c")
	r.fail = func(op *domain.QueuedOperation) error {
		if op.ID == b.ID {
			return domain.ErrOffline
		}
		return nil
	}

	res := m.Flush(context.Background())

	if res.Replayed != 1 || res.Dropped != 0 {
		t.Errorf("result = %+v, want one replayed", res)
	}
	if got := r.calls(); len(got) != 1 || got[0] != a.ID {
		t.Errorf("replayed %v, want [a]", got)
	}
	pending := m.Pending()
	if len(pending) != 2 || pending[0].ID != b.ID || pending[1].ID != c.ID {
		t.Errorf("pending = %v, want [b c]", ids(pending))
	}
	if pending[0].Attempts != 0 {
		t.Errorf("offline failure counted as attempt: %d", pending[0].Attempts)
	}
	if m.IsOnline() {
		t.Error("IsOnline() = true after offline failure")
	}
	if hookCalls != 1 {
		t.Errorf("offline hook called %d times, want 1", hookCalls)
	}
	if store.len() != 2 {
		t.Errorf("store holds %d, want 2", store.len())
	}
}

func TestManager_RestoresFromStore(t *testing.T) {
	a := newOp(t, domain.OpSaveUserData, "a")
	b := newOp(t, domain.OpDeleteRoutine, "b")
	store := newFakeStore(a, b)
	r := &fakeReplayer{}

	m := newTestManager(t, Config{}, WithStore(store), WithReplayer(r))
	if m.Len() != 2 {
		t.Fatalf("restored %d operations, want 2", m.Len())
	}

	res := m.Flush(context.Background())
	if res.Replayed != 2 {
		t.Errorf("Replayed = %d, want 2", res.Replayed)
	}
	if got := r.calls(); fmt.Sprint(got) != fmt.Sprint([]string{a.ID, b.ID}) {
		t.Errorf("replayed %v, want [a b]", got)
	}
	if store.len() != 0 {
		t.Errorf("store holds %d after flush", store.len())
	}
}

func TestManager_RestoreRespectsCapacity(t *testing.T) {
	var ops []*domain.QueuedOperation
	for i := 0; i < 4; i++ {
		ops = append(ops, newOp(t, domain.OpSaveSession, i))
	}
	store := newFakeStore(ops...)

	m := newTestManager(t, Config{Capacity: 2}, WithStore(store))

	pending := m.Pending()
	if len(pending) != 2 || pending[0].ID != ops[2].ID || pending[1].ID != ops[3].ID {
		t.Errorf("pending = %v, want the two newest", ids(pending))
	}
	if store.len() != 2 {
		t.Errorf("store holds %d, want 2", store.len())
	}
}

func TestManager_Clear(t *testing.T) {
	store := newFakeStore()
	m := newTestManager(t, Config{}, WithStore(store), WithInitialOnline(false))
	enqueue(t, m, domain.OpSaveRoutine, 1)
	enqueue(t, m, domain.OpSaveRoutine, 2)

	if n := m.Clear(); n != 2 {
		t.Errorf("Clear() = %d, want 2", n)
	}
	if m.Len() != 0 || store.len() != 0 {
		t.Errorf("Len()=%d store=%d after Clear", m.Len(), store.len())
	}
}

func TestManager_EnqueueInvalidPayload(t *testing.T) {
	m := newTestManager(t, Config{})
	if _, err := m.Enqueue(domain.OpSaveUserData, make(chan int)); !errors.Is(err, domain.ErrInvalidArgument) {
		t.Errorf("Enqueue error = %v, want ErrInvalidArgument", err)
	}
	if m.Len() != 0 {
		t.Errorf("Len() = %d, want 0", m.Len())
	}
}

func TestManager_ReplayRate(t *testing.T) {
	r := &fakeReplayer{}
	m := newTestManager(t, Config{ReplayRate: 1000}, WithReplayer(r))
	for i := 0; i < 3; i++ {
		enqueue(t, m, domain.OpSaveSession, i)
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if res := m.Flush(ctx); res.Replayed != 3 {
		t.Errorf("Replayed = %d, want 3", res.Replayed)
	}
}

func TestManager_FlushMetrics(t *testing.T) {
	reg := metric.NewRegistry()
	r := &fakeReplayer{}
	m := newTestManager(t, Config{}, WithReplayer(r), WithMetrics(reg), WithInitialOnline(false))
	enqueue(t, m, domain.OpSaveUserData, 1)

	m.Flush(context.Background())
	if got := testutil.ToFloat64(reg.FlushesSkipped.WithLabelValues(metric.SkipOffline)); got != 1 {
		t.Errorf("skipped(offline) = %v, want 1", got)
	}

	m.SetOnline(true)
	m.Wait()
	kind := domain.OpSaveUserData.String()
	if got := testutil.ToFloat64(reg.OperationsReplayed.WithLabelValues(kind, metric.ResultReplayed)); got != 1 {
		t.Errorf("replayed counter = %v, want 1", got)
	}
}

func TestManager_AppendDuringFlush(t *testing.T) {
	r := &fakeReplayer{
		started: make(chan struct{}),
		release: make(chan struct{}),
	}
	m := newTestManager(t, Config{}, WithReplayer(r))
	a := enqueue(t, m, domain.OpSaveUserData, "a")

	done := make(chan FlushResult)
	go func() { done <- m.Flush(context.Background()) }()

	<-r.started
	b := enqueue(t, m, domain.OpSaveUserData, "b")
	r.release <- struct{}{}
	<-r.started
	r.release <- struct{}{}

	res := <-done
	if res.Replayed != 2 {
		t.Errorf("Replayed = %d, want 2", res.Replayed)
	}
	if got := r.calls(); fmt.Sprint(got) != fmt.Sprint([]string{a.ID, b.ID}) {
		t.Errorf("replayed %v, want [a b]", got)
	}
	if m.Len() != 0 {
		t.Errorf("Len() = %d after flush", m.Len())
	}
}

func TestManager_CancelledFlushKeepsOperations(t *testing.T) {
	store := newFakeStore()
	r := &blockingReplayer{started: make(chan struct{})}
	m := newTestManager(t, Config{}, WithReplayer(r), WithStore(store))
	a := enqueue(t, m, domain.OpSaveSession, "a")
	b := enqueue(t, m, domain.OpSaveSession, "b")

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan FlushResult)
	go func() { done <- m.Flush(ctx) }()

	<-r.started
	cancel()
	res := <-done

	if res.Replayed != 0 || res.Dropped != 0 || res.Requeued != 0 {
		t.Errorf("result = %+v, want nothing replayed or dropped", res)
	}
	pending := m.Pending()
	if fmt.Sprint(ids(pending)) != fmt.Sprint([]string{a.ID, b.ID}) {
		t.Errorf("pending = %v, want [a b]", ids(pending))
	}
	if pending[0].Attempts != 0 {
		t.Errorf("cancelled replay counted as attempt: %d", pending[0].Attempts)
	}
	if store.len() != 2 {
		t.Errorf("store holds %d, want 2", store.len())
	}
}

func TestManager_CloseKeepsInterruptedOperation(t *testing.T) {
	store := newFakeStore()
	r := &blockingReplayer{started: make(chan struct{})}
	m := newTestManager(t, Config{}, WithReplayer(r), WithStore(store), WithInitialOnline(false))
	a := enqueue(t, m, domain.OpSaveRoutine, "a")

	m.SetOnline(true)
	<-r.started
	m.Close()

	if got := ids(m.Pending()); fmt.Sprint(got) != fmt.Sprint([]string{a.ID}) {
		t.Errorf("pending = %v, want [a]", got)
	}
	if store.len() != 1 {
		t.Errorf("store holds %d, want 1", store.len())
	}

	m.SetOnline(false)
	m.SetOnline(true)
	select {
	case <-r.started:
		t.Error("flush started after Close")
	case <-time.After(50 * time.Millisecond):
	}
}

func TestManager_SetOnlineAndWaitConcurrently(t *testing.T) {
	r := &fakeReplayer{}
	m := newTestManager(t, Config{}, WithReplayer(r), WithInitialOnline(false))

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		for i := range 200 {
			if i%10 == 0 {
				if _, err := m.Enqueue(domain.OpSaveSession, i); err != nil {
					t.Errorf("Enqueue: %v", err)
				}
			}
			m.SetOnline(true)
			m.SetOnline(false)
		}
		m.SetOnline(true)
	}()
	go func() {
		defer wg.Done()
		for range 200 {
			m.Wait()
		}
	}()
	wg.Wait()
	m.Wait()

	if m.Len() != 0 {
		t.Errorf("Len() = %d after the last reconnect", m.Len())
	}
	if n := len(r.calls()); n != 20 {
		t.Errorf("replay calls = %d, want 20", n)
	}
}

func TestManager_ReconnectDuringFlush(t *testing.T) {
	r := &fakeReplayer{}
	var m *Manager
	m = newTestManager(t, Config{}, WithReplayer(r), WithOfflineHook(func() {
		// Connectivity comes back before the interrupted flush returns.
		m.SetOnline(true)
		m.Wait()
	}))
	a := enqueue(t, m, domain.OpSaveUserData, "a")
	b := enqueue(t, m, domain.OpSaveUserData, "b")

	failed := false
	r.fail = func(*domain.QueuedOperation) error {
		if !failed {
			failed = true
			return domain.ErrOffline
		}
		return nil
	}

	res := m.Flush(context.Background())

	if res.Replayed != 2 {
		t.Errorf("Replayed = %d, want 2", res.Replayed)
	}
	if got := r.calls(); fmt.Sprint(got) != fmt.Sprint([]string{a.ID, b.ID}) {
		t.Errorf("replayed %v, want [a b]", got)
	}
	if m.Len() != 0 {
		t.Errorf("Len() = %d, want 0", m.Len())
	}
}

func TestManager_ConcurrentEnqueueMatchesStore(t *testing.T) {
	store := newFakeStore()
	m := newTestManager(t, Config{Capacity: 8}, WithStore(store), WithInitialOnline(false))

	var wg sync.WaitGroup
	for w := range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range 25 {
				if _, err := m.Enqueue(domain.OpSaveSession, w*100+i); err != nil {
					t.Errorf("Enqueue: %v", err)
				}
				if w == 0 && i%10 == 9 {
					m.Clear()
				}
			}
		}()
	}
	wg.Wait()

	stored, err := store.LoadOperations(context.Background())
	if err != nil {
		t.Fatalf("LoadOperations: %v", err)
	}
	// The store restores in ID order, so equality also checks ordering.
	if got, want := ids(stored), ids(m.Pending()); fmt.Sprint(got) != fmt.Sprint(want) {
		t.Errorf("store = %v, queue = %v", got, want)
	}
}

func TestManager_ReplayLogsCarryOperationID(t *testing.T) {
	var buf bytes.Buffer
	log, err := logger.New(logger.Config{Level: "info", Format: "json", Output: &buf})
	if err != nil {
		t.Fatalf("logger.New: %v", err)
	}
	r := &fakeReplayer{fail: func(*domain.QueuedOperation) error { return errors.New("rejected") }}
	m := newTestManager(t, Config{}, WithReplayer(r), WithLogger(log))
	a := enqueue(t, m, domain.OpSaveUserData, "a")

	if res := m.Flush(context.Background()); res.Dropped != 1 {
		t.Fatalf("Dropped = %d, want 1", res.Dropped)
	}

	r.mu.Lock()
	got := fmt.Sprint(r.opIDs)
	r.mu.Unlock()
	if got != fmt.Sprint([]string{a.ID}) {
		t.Errorf("replay context op IDs = %s, want [%s]", got, a.ID)
	}

	found := false
	dec := json.NewDecoder(&buf)
	for dec.More() {
		var entry map[string]any
		if err := dec.Decode(&entry); err != nil {
			t.Fatalf("decode log line: %v", err)
		}
		if entry["msg"] != "replay failed, operation dropped" {
			continue
		}
		found = true
		if entry["op_id"] != a.ID || entry["component"] != "syncqueue" {
			t.Errorf("drop entry = %v", entry)
		}
	}
	if !found {
		t.Errorf("no drop entry in %s", buf.String())
	}
}
