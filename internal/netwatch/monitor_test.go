package netwatch

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/yndnr/supertracker-go/internal/telemetry/logger"
)

type scriptedProbe struct {
	mu      sync.Mutex
	results []error
	calls   int
}

func (p *scriptedProbe) probe(context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	i := p.calls
	p.calls++
	if i >= len(p.results) {
		return p.results[len(p.results)-1]
	}
	return p.results[i]
}

type recorder struct {
	mu     sync.Mutex
	states []bool
}

func (r *recorder) sink(online bool) {
	r.mu.Lock()
	r.states = append(r.states, online)
	r.mu.Unlock()
}

func (r *recorder) get() []bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]bool(nil), r.states...)
}

func TestCheck_ReportsOnlyTransitions(t *testing.T) {
	down := errors.New("down")
	p := &scriptedProbe{results: []error{nil, nil, down, down, nil}}
	rec := &recorder{}
	m := New(p.probe, rec.sink, WithLogger(logger.Nop()))

	ctx := context.Background()
	for i := 0; i < 5; i++ {
		m.Check(ctx)
	}

	if got := fmt.Sprint(rec.get()); got != "[true false true]" {
		t.Errorf("transitions = %s, want [true false true]", got)
	}
	if !m.Online() {
		t.Error("Online() = false after last successful probe")
	}
}

func TestCheck_FirstProbeAlwaysReported(t *testing.T) {
	p := &scriptedProbe{results: []error{errors.New("down")}}
	rec := &recorder{}
	m := New(p.probe, rec.sink, WithLogger(logger.Nop()))

	if m.Check(context.Background()) {
		t.Error("Check() = true for failing probe")
	}
	if got := fmt.Sprint(rec.get()); got != "[false]" {
		t.Errorf("transitions = %s, want [false]", got)
	}
}

func TestCheck_ProbeTimeout(t *testing.T) {
	slow := func(ctx context.Context) error {
		<-ctx.Done()
		return ctx.Err()
	}
	rec := &recorder{}
	m := New(slow, rec.sink, WithProbeTimeout(10*time.Millisecond), WithLogger(logger.Nop()))

	if m.Check(context.Background()) {
		t.Error("timed out probe reported online")
	}
}

func TestRun(t *testing.T) {
	p := &scriptedProbe{results: []error{errors.New("down"), nil}}
	rec := &recorder{}
	m := New(p.probe, rec.sink, WithInterval(5*time.Millisecond), WithLogger(logger.Nop()))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		m.Run(ctx)
		close(done)
	}()

	deadline := time.Now().Add(2 * time.Second)
	for len(rec.get()) < 2 {
		if time.Now().After(deadline) {
			t.Fatalf("transitions = %v", rec.get())
		}
		time.Sleep(time.Millisecond)
	}
	cancel()
	<-done

	if got := fmt.Sprint(rec.get()); got != "[false true]" {
		t.Errorf("transitions = %s, want [false true]", got)
	}
}

func TestInvalidate_ReportsNextProbe(t *testing.T) {
	p := &scriptedProbe{results: []error{nil}}
	rec := &recorder{}
	m := New(p.probe, rec.sink, WithLogger(logger.Nop()))

	ctx := context.Background()
	m.Check(ctx)
	m.Check(ctx)
	m.Invalidate()
	if m.Online() {
		t.Error("Online() = true after Invalidate")
	}
	m.Check(ctx)

	if got := fmt.Sprint(rec.get()); got != "[true true]" {
		t.Errorf("transitions = %s, want [true true]", got)
	}
}
