package monitor

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type chanSink struct {
	ch  chan Snapshot
	err error
}

func (s *chanSink) Name() string { return "chan" }

func (s *chanSink) Publish(_ context.Context, snap Snapshot) error {
	select {
	case s.ch <- snap:
	default:
	}
	return s.err
}

func TestMonitor_AutoSelectReachesMeasurements(t *testing.T) {
	fc := clockwork.NewFakeClock()
	sink := &chanSink{ch: make(chan Snapshot, 256)}
	failing := &chanSink{ch: make(chan Snapshot, 256), err: errors.New("db down")}

	m := New(newFakeSource(), testOptions(fc), sink)
	m.AddSink(failing)
	m.AddSink(LogSink{})
	m.AutoSelect(true)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- m.Run(ctx) }()

	deadline := time.After(5 * time.Second)
	var got Snapshot
wait:
	for {
		select {
		case snap := <-sink.ch:
			if snap.Cause == "measurement" {
				got = snap
				break wait
			}
		case <-deadline:
			t.Fatal("no measurement snapshot")
		default:
			fc.BlockUntil(3)
			fc.Advance(3 * time.Second)
		}
	}

	assert.Equal(t, "ap-1", got.VBSPs.Selected)
	assert.Equal(t, "4660", got.UEs.Selected)
	assert.True(t, got.Visibility.PrimaryCell)
	require.NotNil(t, got.Measurement)
	assert.Equal(t, -90.0, got.Measurement.PrimaryRSRP)
	assert.NotEmpty(t, failing.ch, "a failing sink does not block the others")

	latest := m.Latest()
	assert.Equal(t, "ap-1", latest.VBSPs.Selected)
	assert.Equal(t, Target{TenantID: tenant, VBSP: "ap-1", UE: "4660"}, m.Driver().Target())

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("monitor did not stop")
	}
}

func TestMonitor_PreferAndStaleDrop(t *testing.T) {
	m := New(newFakeSource(), testOptions(clockwork.NewFakeClock()))
	m.Prefer("ap-2", "")

	ctx := context.Background()
	m.handle(ctx, Event{Kind: EventVBSPs, Entities: ents("ap-1", "ap-2")})
	assert.Equal(t, "ap-2", m.Latest().VBSPs.Selected)
	assert.Equal(t, "ap-2", m.Driver().Target().VBSP)

	m.handle(ctx, Event{Kind: EventUEs, VBSP: "ap-1", Entities: ents("1")})
	assert.Empty(t, m.Latest().UEs.Options[1:], "UE list fetched for the old VBSP is dropped")
}
