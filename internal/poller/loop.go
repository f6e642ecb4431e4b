// Package poller runs a fetch repeatedly with a fixed delay between the end
// of one fetch and the start of the next.
//
// A Loop never overlaps its own fetches, never stops because a fetch failed,
// and stops cleanly when its context is cancelled. Time comes from an
// injected clockwork.Clock so tests can drive it with a fake clock.
package poller

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"

	"github.com/muurk/rrcmon/internal/logging"
)

// FetchFunc performs one poll. ctx carries the per-fetch timeout.
type FetchFunc func(ctx context.Context) error

// ErrSkipped may be returned by a FetchFunc that had nothing to do this
// cycle. It is counted as a skip, not a failure.
var ErrSkipped = errors.New("poll skipped")

// Loop is a cancellable repeating task.
type Loop struct {
	// Name identifies the loop in logs and stats.
	Name string

	// Delay is the wait after each fetch completes, and before the first
	// one unless Immediate is set.
	Delay time.Duration

	// Timeout bounds a single fetch. Zero means no per-fetch timeout.
	Timeout time.Duration

	// Clock defaults to the real clock.
	Clock clockwork.Clock

	// Immediate runs the first fetch without waiting Delay.
	Immediate bool

	Fetch FetchFunc

	// OnError is called with every failed fetch.
	OnError func(error)

	mu    sync.Mutex
	stats Stats
}

// Stats counts what a loop has done.
type Stats struct {
	Cycles      int
	Failures    int
	Skips       int
	LastError   error
	LastSuccess time.Time
}

// Stats returns a copy of the loop counters.
func (l *Loop) Stats() Stats {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.stats
}

// Run polls until ctx is cancelled. It returns nil on cancellation.
func (l *Loop) Run(ctx context.Context) error {
	if l.Fetch == nil {
		return errors.New("poller: loop " + l.Name + " has no fetch func")
	}
	clock := l.Clock
	if clock == nil {
		clock = clockwork.NewRealClock()
	}

	logging.Debug("Poll loop started",
		zap.String("loop", l.Name),
		zap.Duration("delay", l.Delay),
		zap.Duration("timeout", l.Timeout))
	defer logging.Debug("Poll loop stopped", zap.String("loop", l.Name))

	if !l.Immediate {
		if !wait(ctx, clock, l.Delay) {
			return nil
		}
	}

	for {
		if ctx.Err() != nil {
			return nil
		}
		l.once(ctx, clock)
		if !wait(ctx, clock, l.Delay) {
			return nil
		}
	}
}

func (l *Loop) once(ctx context.Context, clock clockwork.Clock) {
	fetchCtx := ctx
	cancel := func() {}
	if l.Timeout > 0 {
		fetchCtx, cancel = context.WithTimeout(ctx, l.Timeout)
	}
	start := clock.Now()
	err := l.Fetch(fetchCtx)
	cancel()

	l.mu.Lock()
	l.stats.Cycles++
	switch {
	case err == nil:
		l.stats.LastSuccess = clock.Now()
	case errors.Is(err, ErrSkipped):
		l.stats.Skips++
	default:
		l.stats.Failures++
		l.stats.LastError = err
	}
	l.mu.Unlock()

	if err == nil || errors.Is(err, ErrSkipped) {
		return
	}
	// Cancellation during shutdown is not a failure worth reporting.
	if ctx.Err() != nil {
		return
	}
	logging.Debug("Poll failed",
		zap.String("loop", l.Name),
		zap.Duration("elapsed", clock.Since(start)),
		zap.Error(err))
	if l.OnError != nil {
		l.OnError(err)
	}
}

// wait sleeps d on clock. It reports false if ctx was cancelled first.
func wait(ctx context.Context, clock clockwork.Clock, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}
	t := clock.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.Chan():
		return true
	}
}
