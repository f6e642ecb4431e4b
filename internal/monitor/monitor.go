package monitor

import (
	"context"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/muurk/rrcmon/internal/logging"
)

// Sink receives a snapshot after every applied event.
type Sink interface {
	Name() string
	Publish(ctx context.Context, snap Snapshot) error
}

// Monitor is the headless dashboard: a Driver plus one goroutine that owns
// the Session and fans snapshots out to sinks.
type Monitor struct {
	session *Session
	driver  *Driver
	sinks   []Sink

	events chan Event
	done   chan struct{}

	mu     sync.RWMutex
	latest Snapshot
}

// New builds a monitor polling src.
func New(src Source, opts Options, sinks ...Sink) *Monitor {
	m := &Monitor{
		session: NewSession(opts.TenantID),
		sinks:   sinks,
		events:  make(chan Event, 16),
		done:    make(chan struct{}),
	}
	m.driver = NewDriver(src, opts, m.deliver)
	m.latest = m.session.Snapshot(EventVBSPs)
	return m
}

// Prefer selects vbsp and ue once they are listed. Call before Run.
func (m *Monitor) Prefer(vbsp, ue string) {
	m.session.Prefer(vbsp, ue)
}

// AutoSelect picks the first VBSP and UE when nothing is selected. Call
// before Run.
func (m *Monitor) AutoSelect(on bool) {
	m.session.AutoSelect(on)
}

// AddSink registers another sink. Call before Run.
func (m *Monitor) AddSink(s Sink) {
	m.sinks = append(m.sinks, s)
}

// Driver exposes the polling driver, mainly for its stats.
func (m *Monitor) Driver() *Driver {
	return m.driver
}

// Latest returns the most recent snapshot.
func (m *Monitor) Latest() Snapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.latest
}

// Run polls and dispatches until ctx is cancelled.
func (m *Monitor) Run(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error { return m.driver.Run(ctx) })
	g.Go(func() error {
		defer close(m.done)
		m.dispatch(ctx)
		return nil
	})
	return g.Wait()
}

func (m *Monitor) deliver(ev Event) {
	select {
	case m.events <- ev:
	case <-m.done:
	}
}

func (m *Monitor) dispatch(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case ev := <-m.events:
			m.handle(ctx, ev)
		}
	}
}

// handle applies one event on the dispatcher goroutine.
func (m *Monitor) handle(ctx context.Context, ev Event) {
	if !m.session.Apply(ev) {
		logging.Debug("Dropped stale event",
			zap.String("kind", ev.Kind.String()),
			zap.String("vbsp", ev.VBSP),
			zap.String("ue", ev.UE))
		return
	}
	m.driver.SetTarget(m.session.Target())

	snap := m.session.Snapshot(ev.Kind)
	m.mu.Lock()
	m.latest = snap
	m.mu.Unlock()

	for _, s := range m.sinks {
		if err := s.Publish(ctx, snap); err != nil {
			logging.Warn("Sink publish failed", zap.String("sink", s.Name()), zap.Error(err))
		}
	}
}

// LogSink writes a one-line summary of each snapshot to the log.
type LogSink struct{}

func (LogSink) Name() string { return "log" }

func (LogSink) Publish(_ context.Context, snap Snapshot) error {
	fields := []zap.Field{
		zap.String("cause", snap.Cause),
		zap.String("vbsp", snap.VBSPs.Selected),
		zap.String("ue", snap.UEs.Selected),
		zap.Int("vbsps", len(snap.VBSPs.Options)-1),
		zap.Int("ues", len(snap.UEs.Options)-1),
	}
	if m := snap.Measurement; m != nil {
		fields = append(fields,
			zap.Float64("rsrp", m.PrimaryRSRP),
			zap.Float64("rsrq", m.PrimaryRSRQ),
			zap.Int("neighbours", len(m.Neighbours)))
	}
	if snap.Status.LastError != "" {
		fields = append(fields, zap.String("error", snap.Status.LastError), zap.String("class", snap.Status.ErrorClass))
	}
	logging.Info("Dashboard updated", fields...)
	return nil
}
