// Package netwatch turns a reachability probe into online/offline
// transitions.
package netwatch

import (
	"context"
	"sync"
	"time"

	"github.com/yndnr/supertracker-go/internal/telemetry/logger"
)

// DefaultInterval is the probe period.
const DefaultInterval = 5 * time.Second

// Probe returns nil when the backend is reachable.
type Probe func(ctx context.Context) error

// Sink receives connectivity transitions.
type Sink func(online bool)

// Monitor polls a Probe and reports only transitions to its Sink.
// The first probe result is always reported.
type Monitor struct {
	probe    Probe
	sink     Sink
	interval time.Duration
	timeout  time.Duration
	log      logger.Logger

	mu      sync.Mutex
	known   bool
	online  bool
	running bool
}

// Option configures the Monitor.
type Option func(*Monitor)

// WithInterval sets the probe period.
func WithInterval(d time.Duration) Option {
	return func(m *Monitor) {
		if d > 0 {
			m.interval = d
		}
	}
}

// WithProbeTimeout bounds each probe. Defaults to the interval.
func WithProbeTimeout(d time.Duration) Option {
	return func(m *Monitor) {
		m.timeout = d
	}
}

// WithLogger sets the logger.
func WithLogger(l logger.Logger) Option {
	return func(m *Monitor) {
		m.log = l
	}
}

// New creates a monitor. Call Run to start polling.
func New(probe Probe, sink Sink, opts ...Option) *Monitor {
	m := &Monitor{
		probe:    probe,
		sink:     sink,
		interval: DefaultInterval,
		log:      logger.Default(),
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.timeout <= 0 {
		m.timeout = m.interval
	}
	m.log = m.log.With("component", "netwatch")
	return m
}

// Run probes immediately and then every interval until ctx is done.
func (m *Monitor) Run(ctx context.Context) {
	m.mu.Lock()
	if m.running {
		m.mu.Unlock()
		return
	}
	m.running = true
	m.mu.Unlock()

	defer func() {
		m.mu.Lock()
		m.running = false
		m.mu.Unlock()
	}()

	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	for {
		m.Check(ctx)
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

// Check runs one probe and reports a transition if the state changed.
// It returns the probed state.
func (m *Monitor) Check(ctx context.Context) bool {
	pctx, cancel := context.WithTimeout(ctx, m.timeout)
	err := m.probe(pctx)
	cancel()

	if ctx.Err() != nil {
		return m.Online()
	}
	online := err == nil

	m.mu.Lock()
	changed := !m.known || m.online != online
	m.known = true
	m.online = online
	m.mu.Unlock()

	if changed {
		if online {
			m.log.Info("backend reachable")
		} else {
			m.log.Warn("backend unreachable", "error", err)
		}
		m.sink(online)
	}
	return online
}

// Online returns the last probed state; false before the first probe.
func (m *Monitor) Online() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.online
}

// Invalidate forgets the last probed state so the next probe is reported
// even if it matches. Call it when connectivity loss is detected outside
// the monitor.
func (m *Monitor) Invalidate() {
	m.mu.Lock()
	m.known = false
	m.online = false
	m.mu.Unlock()
}
