package monitor

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/muurk/rrcmon/internal/empower"
)

// fakeSource is an in-memory controller.
type fakeSource struct {
	mu       sync.Mutex
	vbsps    []empower.VBSP
	ues      map[string][]empower.UE
	sample   *empower.RRCMeasurements
	vbspErr  error
	calls    map[string]int
	lastRNTI int
}

func newFakeSource() *fakeSource {
	return &fakeSource{
		vbsps: []empower.VBSP{{Addr: "ap-1", Label: "lab"}, {Addr: "ap-2"}},
		ues: map[string][]empower.UE{
			"ap-1": {{RNTI: 4660}, {RNTI: 71}},
		},
		sample: sample(-90, -10, twoCells),
		calls:  map[string]int{},
	}
}

func (f *fakeSource) ListVBSPs(ctx context.Context, tenantID string) ([]empower.VBSP, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls[LoopVBSPs]++
	if f.vbspErr != nil {
		return nil, f.vbspErr
	}
	return f.vbsps, nil
}

func (f *fakeSource) ListUEs(ctx context.Context, vbsp string) ([]empower.UE, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls[LoopUEs]++
	return f.ues[vbsp], nil
}

func (f *fakeSource) RRCMeasurements(ctx context.Context, tenantID, vbsp string, rnti int) (*empower.RRCMeasurements, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls[LoopMeasurements]++
	f.lastRNTI = rnti
	return f.sample, nil
}

func (f *fakeSource) count(loop string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[loop]
}

func testOptions(fc clockwork.Clock) Options {
	return Options{
		TenantID:            tenant,
		ListInterval:        3 * time.Second,
		MeasurementInterval: 500 * time.Millisecond,
		RequestTimeout:      time.Second,
		Clock:               fc,
		Immediate:           true,
	}
}

func nextEvent(t *testing.T, ch <-chan Event) Event {
	t.Helper()
	select {
	case ev := <-ch:
		return ev
	case <-time.After(2 * time.Second):
		t.Fatal("no event delivered")
		return Event{}
	}
}

func runDriver(t *testing.T, d *Driver) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- d.Run(ctx) }()
	t.Cleanup(func() {
		cancel()
		select {
		case err := <-done:
			assert.NoError(t, err)
		case <-time.After(2 * time.Second):
			t.Error("driver did not stop")
		}
	})
}

func TestDriver_PollsOnlyWhatIsSelected(t *testing.T) {
	fc := clockwork.NewFakeClock()
	src := newFakeSource()
	events := make(chan Event, 32)
	d := NewDriver(src, testOptions(fc), func(ev Event) { events <- ev })
	runDriver(t, d)

	ev := nextEvent(t, events)
	assert.Equal(t, EventVBSPs, ev.Kind)
	assert.Equal(t, "lab (ap-1)", ev.Entities[0].Label)

	fc.BlockUntil(3)
	stats := d.Stats()
	assert.Equal(t, 1, stats[LoopUEs].Skips)
	assert.Equal(t, 1, stats[LoopMeasurements].Skips)
	assert.Equal(t, 0, src.count(LoopUEs))

	d.SetTarget(Target{VBSP: "ap-1"})
	fc.Advance(3 * time.Second)

	got := map[EventKind]Event{}
	for i := 0; i < 2; i++ {
		ev := nextEvent(t, events)
		got[ev.Kind] = ev
	}
	require.Contains(t, got, EventUEs)
	assert.Equal(t, "ap-1", got[EventUEs].VBSP)
	assert.Len(t, got[EventUEs].Entities, 2)
	assert.Equal(t, 0, src.count(LoopMeasurements))

	fc.BlockUntil(3)
	d.SetTarget(Target{VBSP: "ap-1", UE: "4660"})
	fc.Advance(500 * time.Millisecond)

	ev = nextEvent(t, events)
	assert.Equal(t, EventMeasurement, ev.Kind)
	assert.Equal(t, "ap-1", ev.VBSP)
	assert.Equal(t, "4660", ev.UE)
	assert.Equal(t, -90.0, ev.Measurement.PrimaryRSRP)

	src.mu.Lock()
	assert.Equal(t, 4660, src.lastRNTI)
	src.mu.Unlock()
	assert.Equal(t, 2, src.count(LoopVBSPs), "the list loop did not fire on the short interval")
}

func TestDriver_ErrorsBecomeEvents(t *testing.T) {
	fc := clockwork.NewFakeClock()
	src := newFakeSource()
	src.vbspErr = empower.NewNetworkError("GET request failed", "/x", errors.New("connection reset"))
	events := make(chan Event, 32)
	d := NewDriver(src, testOptions(fc), func(ev Event) { events <- ev })
	runDriver(t, d)

	ev := nextEvent(t, events)
	assert.Equal(t, EventError, ev.Kind)
	assert.Equal(t, LoopVBSPs, ev.Loop)
	assert.True(t, empower.IsTransient(ev.Err))

	fc.BlockUntil(3)
	src.mu.Lock()
	src.vbspErr = nil
	src.mu.Unlock()
	fc.Advance(3 * time.Second)

	ev = nextEvent(t, events)
	assert.Equal(t, EventVBSPs, ev.Kind, "the loop keeps going after a failure")
}

func TestDriver_BadUEKey(t *testing.T) {
	fc := clockwork.NewFakeClock()
	events := make(chan Event, 32)
	d := NewDriver(newFakeSource(), testOptions(fc), func(ev Event) { events <- ev })
	d.SetTarget(Target{VBSP: "ap-1", UE: "not-a-number"})
	runDriver(t, d)

	var errEv *Event
	for i := 0; i < 3 && errEv == nil; i++ {
		ev := nextEvent(t, events)
		if ev.Kind == EventError {
			errEv = &ev
		}
	}
	require.NotNil(t, errEv)
	assert.Equal(t, LoopMeasurements, errEv.Loop)
	assert.Equal(t, empower.ClassRejected, empower.Classify(errEv.Err))
}

func TestDriver_Defaults(t *testing.T) {
	d := NewDriver(newFakeSource(), Options{TenantID: tenant}, func(Event) {})
	assert.Equal(t, Target{TenantID: tenant}, d.Target())

	d.SetTarget(Target{VBSP: "ap-1"})
	assert.Equal(t, tenant, d.Target().TenantID, "tenant is filled in")
	assert.Len(t, d.Stats(), 3)
}
