package monitor

import (
	"context"
	"strconv"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"golang.org/x/sync/errgroup"

	"github.com/muurk/rrcmon/internal/config"
	"github.com/muurk/rrcmon/internal/empower"
	"github.com/muurk/rrcmon/internal/logging"
	"github.com/muurk/rrcmon/internal/poller"
	"github.com/muurk/rrcmon/internal/selector"
)

// Loop names, as they appear in logs and events.
const (
	LoopVBSPs        = "vbsps"
	LoopUEs          = "ues"
	LoopMeasurements = "measurements"
)

// Source is the part of the controller API the driver polls.
// *empower.Client implements it.
type Source interface {
	ListVBSPs(ctx context.Context, tenantID string) ([]empower.VBSP, error)
	ListUEs(ctx context.Context, vbsp string) ([]empower.UE, error)
	RRCMeasurements(ctx context.Context, tenantID, vbsp string, rnti int) (*empower.RRCMeasurements, error)
}

// Options configures a Driver.
type Options struct {
	TenantID            string
	ListInterval        time.Duration
	MeasurementInterval time.Duration
	RequestTimeout      time.Duration

	// Clock defaults to the real clock.
	Clock clockwork.Clock

	// Immediate makes every loop fetch once before its first wait.
	Immediate bool
}

// OptionsFromSettings builds driver options from resolved settings.
func OptionsFromSettings(s config.Settings) Options {
	return Options{
		TenantID:            s.TenantID,
		ListInterval:        s.ListInterval,
		MeasurementInterval: s.MeasurementInterval,
		RequestTimeout:      s.RequestTimeout,
		Immediate:           true,
	}
}

// Driver runs the three polling loops. It never touches a Session: results
// go to deliver, and the session owner publishes the next Target back with
// SetTarget.
type Driver struct {
	src     Source
	opts    Options
	deliver func(Event)

	mu     sync.Mutex
	target Target

	vbsps        *poller.Loop
	ues          *poller.Loop
	measurements *poller.Loop
}

// NewDriver wires the loops. deliver is called from the loop goroutines.
func NewDriver(src Source, opts Options, deliver func(Event)) *Driver {
	if opts.ListInterval <= 0 {
		opts.ListInterval = config.DefaultListInterval
	}
	if opts.MeasurementInterval <= 0 {
		opts.MeasurementInterval = config.DefaultMeasurementInterval
	}
	if opts.RequestTimeout <= 0 {
		opts.RequestTimeout = config.DefaultRequestTimeout
	}
	if opts.Clock == nil {
		opts.Clock = clockwork.NewRealClock()
	}

	d := &Driver{
		src:     src,
		opts:    opts,
		deliver: deliver,
		target:  Target{TenantID: opts.TenantID},
	}
	d.vbsps = d.loop(LoopVBSPs, opts.ListInterval, d.fetchVBSPs)
	d.ues = d.loop(LoopUEs, opts.ListInterval, d.fetchUEs)
	d.measurements = d.loop(LoopMeasurements, opts.MeasurementInterval, d.fetchMeasurements)
	return d
}

func (d *Driver) loop(name string, delay time.Duration, fetch poller.FetchFunc) *poller.Loop {
	return &poller.Loop{
		Name:      name,
		Delay:     delay,
		Timeout:   d.opts.RequestTimeout,
		Clock:     d.opts.Clock,
		Immediate: d.opts.Immediate,
		Fetch:     fetch,
		OnError: func(err error) {
			logging.LogFetchFailure(name, empower.Classify(err).String(), err)
			d.deliver(Event{Kind: EventError, Loop: name, Err: err, At: d.opts.Clock.Now()})
		},
	}
}

// SetTarget publishes what the loops should poll next.
func (d *Driver) SetTarget(t Target) {
	if t.TenantID == "" {
		t.TenantID = d.opts.TenantID
	}
	d.mu.Lock()
	d.target = t
	d.mu.Unlock()
}

// Target returns the published target.
func (d *Driver) Target() Target {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.target
}

// Stats returns the counters of each loop, keyed by loop name.
func (d *Driver) Stats() map[string]poller.Stats {
	return map[string]poller.Stats{
		LoopVBSPs:        d.vbsps.Stats(),
		LoopUEs:          d.ues.Stats(),
		LoopMeasurements: d.measurements.Stats(),
	}
}

// Run polls until ctx is cancelled.
func (d *Driver) Run(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)
	for _, l := range []*poller.Loop{d.vbsps, d.ues, d.measurements} {
		l := l
		g.Go(func() error { return l.Run(ctx) })
	}
	return g.Wait()
}

func (d *Driver) fetchVBSPs(ctx context.Context) error {
	t := d.Target()
	start := d.opts.Clock.Now()
	list, err := d.src.ListVBSPs(ctx, t.TenantID)
	if err != nil {
		return err
	}
	logging.LogFetch(LoopVBSPs, empower.VBSPsPath(t.TenantID), d.opts.Clock.Since(start))
	d.deliver(Event{Kind: EventVBSPs, Loop: LoopVBSPs, Entities: empower.VBSPEntities(list), At: d.opts.Clock.Now()})
	return nil
}

func (d *Driver) fetchUEs(ctx context.Context) error {
	t := d.Target()
	if t.VBSP == selector.None {
		return poller.ErrSkipped
	}
	start := d.opts.Clock.Now()
	list, err := d.src.ListUEs(ctx, t.VBSP)
	if err != nil {
		return err
	}
	logging.LogFetch(LoopUEs, empower.UEsPath(t.VBSP), d.opts.Clock.Since(start))
	d.deliver(Event{Kind: EventUEs, Loop: LoopUEs, VBSP: t.VBSP, Entities: empower.UEEntities(list), At: d.opts.Clock.Now()})
	return nil
}

func (d *Driver) fetchMeasurements(ctx context.Context) error {
	t := d.Target()
	if t.VBSP == selector.None || t.UE == selector.None {
		return poller.ErrSkipped
	}
	rnti, err := strconv.Atoi(t.UE)
	if err != nil {
		return empower.NewValidationError("ue key is not an rnti: " + t.UE)
	}
	start := d.opts.Clock.Now()
	m, err := d.src.RRCMeasurements(ctx, t.TenantID, t.VBSP, rnti)
	if err != nil {
		return err
	}
	logging.LogFetch(LoopMeasurements, empower.MeasurementsPath(t.TenantID, t.VBSP, rnti), d.opts.Clock.Since(start))
	d.deliver(Event{Kind: EventMeasurement, Loop: LoopMeasurements, VBSP: t.VBSP, UE: t.UE, Measurement: m, At: d.opts.Clock.Now()})
	return nil
}
