package syncqueue

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/time/rate"

	"github.com/yndnr/supertracker-go/internal/core/domain"
	"github.com/yndnr/supertracker-go/internal/telemetry/logger"
	"github.com/yndnr/supertracker-go/internal/telemetry/metric"
)

// storeTimeout bounds each Store call made on behalf of the queue.
const storeTimeout = 5 * time.Second

// Replayer re-issues queued writes against the backend.
type Replayer interface {
	// Available reports whether the backend is configured and usable.
	Available(ctx context.Context) bool

	// Replay performs op. It returns an error matching domain.ErrOffline
	// when the backend could not be reached.
	Replay(ctx context.Context, op *domain.QueuedOperation) error
}

// Store persists queued operations.
type Store interface {
	SaveOperation(ctx context.Context, op *domain.QueuedOperation) error
	DeleteOperation(ctx context.Context, id string) error
	// LoadOperations returns operations in enqueue order. A non-nil error
	// may accompany the operations that could be read.
	LoadOperations(ctx context.Context) ([]*domain.QueuedOperation, error)
	ClearOperations(ctx context.Context) error
}

// Config tunes a Manager.
type Config struct {
	// Capacity bounds the queue. Default: DefaultCapacity.
	Capacity int

	// MaxReplayAttempts is how many times an operation may be replayed
	// before it is dropped. Default: 1.
	MaxReplayAttempts int

	// ReplayRate limits replays per second during a flush. 0 means unlimited.
	ReplayRate float64
}

// FlushResult summarizes one Flush call.
type FlushResult struct {
	Replayed int
	Dropped  int
	Requeued int
	// Skipped is set when the flush did not run at all.
	Skipped bool
}

// Manager owns the queue and the connectivity state.
type Manager struct {
	queue       *Queue
	maxAttempts int
	limiter     *rate.Limiter

	replayerMu sync.RWMutex
	replayer   Replayer

	store     Store
	log       logger.Logger
	metrics   *metric.Registry
	onOffline func()

	online   atomic.Bool
	flushing atomic.Bool
	// rerun is raised by every flush request; the running flush checks it
	// after releasing flushing and starts another pass if it is set.
	rerun atomic.Bool

	// mirrorMu keeps queue mutations and their store writes in one order.
	mirrorMu sync.Mutex

	ctx    context.Context
	cancel context.CancelFunc

	bgMu      sync.Mutex
	bgRunning int
	bgIdle    chan struct{} // closed while no background flush runs
	closed    bool
}

// Option configures a Manager.
type Option func(*Manager)

// WithStore mirrors the queue to store.
func WithStore(store Store) Option {
	return func(m *Manager) {
		m.store = store
	}
}

// WithReplayer sets the replayer. It can also be set later with SetReplayer.
func WithReplayer(r Replayer) Option {
	return func(m *Manager) {
		m.replayer = r
	}
}

// WithLogger sets the logger.
func WithLogger(l logger.Logger) Option {
	return func(m *Manager) {
		m.log = l
	}
}

// WithMetrics records queue activity in reg.
func WithMetrics(reg *metric.Registry) Option {
	return func(m *Manager) {
		m.metrics = reg
	}
}

// WithInitialOnline sets the starting connectivity. Default: online.
func WithInitialOnline(online bool) Option {
	return func(m *Manager) {
		m.online.Store(online)
	}
}

// WithOfflineHook registers fn to run whenever the manager itself
// detects lost connectivity (see MarkOffline).
func WithOfflineHook(fn func()) Option {
	return func(m *Manager) {
		m.onOffline = fn
	}
}

// NewManager creates a manager and restores any operations from the store.
func NewManager(cfg Config, opts ...Option) (*Manager, error) {
	ctx, cancel := context.WithCancel(context.Background())
	m := &Manager{
		queue:       NewQueue(cfg.Capacity),
		maxAttempts: cfg.MaxReplayAttempts,
		log:         logger.Default(),
		ctx:         ctx,
		cancel:      cancel,
		bgIdle:      make(chan struct{}),
	}
	close(m.bgIdle)
	if m.maxAttempts <= 0 {
		m.maxAttempts = 1
	}
	if cfg.ReplayRate > 0 {
		burst := int(cfg.ReplayRate)
		if burst < 1 {
			burst = 1
		}
		m.limiter = rate.NewLimiter(rate.Limit(cfg.ReplayRate), burst)
	}
	m.online.Store(true)

	for _, opt := range opts {
		opt(m)
	}
	m.log = m.log.With("component", "syncqueue")

	if err := m.restore(); err != nil {
		cancel()
		return nil, err
	}
	return m, nil
}

func (m *Manager) restore() error {
	if m.store == nil {
		return nil
	}

	ctx, cancel := context.WithTimeout(m.ctx, storeTimeout)
	defer cancel()

	ops, err := m.store.LoadOperations(ctx)
	if err != nil {
		if ops == nil {
			return err
		}
		m.log.Warn("some queued operations could not be restored", "error", err)
	}

	for _, op := range ops {
		if evicted := m.queue.Enqueue(op); evicted != nil {
			m.deleteStored(evicted.ID)
		}
	}
	if len(ops) > 0 {
		m.log.Info("restored queued operations", "count", m.queue.Len())
	}
	return nil
}

// SetReplayer sets the replayer used by Flush.
func (m *Manager) SetReplayer(r Replayer) {
	m.replayerMu.Lock()
	m.replayer = r
	m.replayerMu.Unlock()
}

func (m *Manager) getReplayer() Replayer {
	m.replayerMu.RLock()
	defer m.replayerMu.RUnlock()
	return m.replayer
}

// Enqueue queues a write for later replay. Persistence failures are
// logged, not returned; the only error is an unencodable payload.
func (m *Manager) Enqueue(kind domain.OperationKind, payload any) (*domain.QueuedOperation, error) {
	// The ID is minted under mirrorMu so that ID order, which the store
	// restores by, matches queue order.
	m.mirrorMu.Lock()
	op, err := domain.NewQueuedOperation(kind, payload)
	if err == nil {
		m.pushLocked(op)
	}
	m.mirrorMu.Unlock()
	if err != nil {
		return nil, err
	}

	m.log.Info("operation queued", "op_id", op.ID, "kind", kind.String(), "pending", m.queue.Len())
	if m.metrics != nil {
		m.metrics.RecordEnqueue(kind.String())
	}
	return op, nil
}

// push appends op, mirroring the append and any eviction to the store.
func (m *Manager) push(op *domain.QueuedOperation) {
	m.mirrorMu.Lock()
	defer m.mirrorMu.Unlock()
	m.pushLocked(op)
}

func (m *Manager) pushLocked(op *domain.QueuedOperation) {
	m.saveStored(op)

	evicted := m.queue.Enqueue(op)
	if evicted == nil {
		return
	}
	m.deleteStored(evicted.ID)
	m.log.Warn("queue full, oldest operation evicted", "op_id", evicted.ID, "kind", evicted.Kind.String())
	if m.metrics != nil {
		m.metrics.RecordEviction(evicted.Kind.String())
	}
}

// Flush replays queued operations in order until the queue is empty.
// A call that finds another flush running is skipped, and the running
// flush makes one more pass once it finishes.
func (m *Manager) Flush(ctx context.Context) FlushResult {
	if !m.online.Load() {
		m.skip(metric.SkipOffline)
		return FlushResult{Skipped: true}
	}
	m.rerun.Store(true)
	if !m.flushing.CompareAndSwap(false, true) {
		m.skip(metric.SkipInProgress)
		return FlushResult{Skipped: true}
	}

	var res FlushResult
	for first := true; ; first = false {
		m.rerun.Store(false)
		pass := m.flushPass(ctx)
		m.flushing.Store(false)

		if first {
			res = pass
		} else {
			res.Replayed += pass.Replayed
			res.Dropped += pass.Dropped
			res.Requeued += pass.Requeued
		}
		if pass.Skipped || ctx.Err() != nil || !m.online.Load() || !m.rerun.Load() {
			return res
		}
		// A flush that wins the flag here performs the pass itself.
		if !m.flushing.CompareAndSwap(false, true) {
			return res
		}
	}
}

// flushPass drains the queue once. The caller holds the flushing flag.
func (m *Manager) flushPass(ctx context.Context) FlushResult {
	replayer := m.getReplayer()
	if replayer == nil || !replayer.Available(ctx) {
		m.skip(metric.SkipUnavailable)
		return FlushResult{Skipped: true}
	}

	start := time.Now()
	var (
		res   FlushResult
		retry []*domain.QueuedOperation
	)

	for ctx.Err() == nil {
		op, ok := m.queue.PopFront()
		if !ok {
			break
		}

		if m.limiter != nil {
			if err := m.limiter.Wait(ctx); err != nil {
				m.requeueFront(op)
				break
			}
		}

		err := replayer.Replay(logger.WithOperationID(ctx, op.ID), op)
		if err == nil {
			res.Replayed++
			m.deleteStored(op.ID)
			m.recordReplay(op, metric.ResultReplayed)
			continue
		}

		if ctx.Err() != nil {
			m.requeueFront(op)
			m.log.Info("flush cancelled, operation kept", "op_id", op.ID, "pending", m.queue.Len())
			break
		}

		if errors.Is(err, domain.ErrOffline) {
			m.requeueFront(op)
			m.recordReplay(op, metric.ResultOffline)
			m.log.Warn("connectivity lost during flush", "op_id", op.ID, "pending", m.queue.Len())
			m.MarkOffline()
			break
		}

		if op.Attempts+1 < m.maxAttempts {
			next := op.Retry()
			retry = append(retry, next)
			res.Requeued++
			m.recordReplay(op, metric.ResultRequeued)
			m.log.Warn("replay failed, will retry", "op_id", op.ID, "kind", op.Kind.String(),
				"attempt", next.Attempts, "error", err)
			continue
		}

		res.Dropped++
		m.deleteStored(op.ID)
		m.recordReplay(op, metric.ResultDropped)
		m.log.Error("replay failed, operation dropped", "op_id", op.ID, "kind", op.Kind.String(), "error", err)
	}

	for _, op := range retry {
		m.push(op)
	}

	if m.metrics != nil {
		m.metrics.ObserveFlush(time.Since(start).Seconds())
	}
	if res.Replayed+res.Dropped+res.Requeued > 0 {
		m.log.Info("flush finished",
			"replayed", res.Replayed,
			"dropped", res.Dropped,
			"requeued", res.Requeued,
			"pending", m.queue.Len(),
			"elapsed", time.Since(start))
	}
	return res
}

func (m *Manager) requeueFront(op *domain.QueuedOperation) {
	m.mirrorMu.Lock()
	defer m.mirrorMu.Unlock()
	if evicted := m.queue.PushFront(op); evicted != nil {
		m.deleteStored(evicted.ID)
		if m.metrics != nil {
			m.metrics.RecordEviction(evicted.Kind.String())
		}
	}
}

// SetOnline records connectivity. Going from offline to online starts a
// Flush in its own goroutine.
func (m *Manager) SetOnline(online bool) {
	was := m.online.Swap(online)
	if was == online {
		return
	}

	m.log.Info("connectivity changed", "online", online, "pending", m.queue.Len())
	if !online {
		return
	}

	m.goFlush()
}

// goFlush runs Flush in a goroutine tracked by Wait. It does nothing
// once Close has been called.
func (m *Manager) goFlush() {
	m.bgMu.Lock()
	if m.closed {
		m.bgMu.Unlock()
		return
	}
	if m.bgRunning == 0 {
		m.bgIdle = make(chan struct{})
	}
	m.bgRunning++
	m.bgMu.Unlock()

	go func() {
		defer m.flushDone()
		m.Flush(m.ctx)
	}()
}

func (m *Manager) flushDone() {
	m.bgMu.Lock()
	defer m.bgMu.Unlock()
	m.bgRunning--
	if m.bgRunning == 0 {
		close(m.bgIdle)
	}
}

// MarkOffline records lost connectivity detected by a failed call and
// runs the offline hook.
func (m *Manager) MarkOffline() {
	m.SetOnline(false)
	if m.onOffline != nil {
		m.onOffline()
	}
}

// IsOnline reports the current connectivity.
func (m *Manager) IsOnline() bool {
	return m.online.Load()
}

// IsFlushing reports whether a flush is running.
func (m *Manager) IsFlushing() bool {
	return m.flushing.Load()
}

// Len returns the number of pending operations.
func (m *Manager) Len() int {
	return m.queue.Len()
}

// Cap returns the queue capacity.
func (m *Manager) Cap() int {
	return m.queue.Cap()
}

// Pending returns a snapshot of the queue, oldest first.
func (m *Manager) Pending() []*domain.QueuedOperation {
	return m.queue.Snapshot()
}

// Clear discards every pending operation and returns how many were removed.
func (m *Manager) Clear() int {
	m.mirrorMu.Lock()
	defer m.mirrorMu.Unlock()

	removed := m.queue.Clear()
	if m.store != nil {
		ctx, cancel := context.WithTimeout(m.ctx, storeTimeout)
		defer cancel()
		if err := m.store.ClearOperations(ctx); err != nil {
			m.log.Error("clear persisted queue failed", "error", err)
		}
	}
	if len(removed) > 0 {
		m.log.Info("queue cleared", "removed", len(removed))
	}
	return len(removed)
}

// Wait blocks until no background flush started by SetOnline is running.
// It is safe to call concurrently with SetOnline.
func (m *Manager) Wait() {
	m.bgMu.Lock()
	idle := m.bgIdle
	m.bgMu.Unlock()
	<-idle
}

// Close cancels background flushes and waits for them to stop. Operations
// interrupted by the cancellation stay queued.
func (m *Manager) Close() {
	m.bgMu.Lock()
	m.closed = true
	m.bgMu.Unlock()

	m.cancel()
	m.Wait()
}

func (m *Manager) skip(reason string) {
	m.log.Debug("flush skipped", "reason", reason)
	if m.metrics != nil {
		m.metrics.RecordFlushSkipped(reason)
	}
}

func (m *Manager) recordReplay(op *domain.QueuedOperation, result string) {
	if m.metrics != nil {
		m.metrics.RecordReplay(op.Kind.String(), result)
	}
}

func (m *Manager) saveStored(op *domain.QueuedOperation) {
	if m.store == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), storeTimeout)
	defer cancel()
	if err := m.store.SaveOperation(ctx, op); err != nil {
		m.log.Error("persist queued operation failed", "op_id", op.ID, "error", err)
	}
}

func (m *Manager) deleteStored(id string) {
	if m.store == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), storeTimeout)
	defer cancel()
	if err := m.store.DeleteOperation(ctx, id); err != nil {
		m.log.Error("delete persisted operation failed", "op_id", id, "error", err)
	}
}
