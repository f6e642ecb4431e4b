package tui

import (
	"errors"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/muurk/rrcmon/internal/empower"
	"github.com/muurk/rrcmon/internal/monitor"
	"github.com/muurk/rrcmon/internal/selector"
)

const tenant = "52313ecb-9d00-4b7d-b873-b55d3d9ada26"

type recordingTarget struct {
	targets []monitor.Target
}

func (r *recordingTarget) SetTarget(t monitor.Target) {
	r.targets = append(r.targets, t)
}

func (r *recordingTarget) last() monitor.Target {
	if len(r.targets) == 0 {
		return monitor.Target{}
	}
	return r.targets[len(r.targets)-1]
}

func ents(keys ...string) []selector.Entity {
	out := make([]selector.Entity, len(keys))
	for i, k := range keys {
		out[i] = selector.Entity{Key: k, Label: k}
	}
	return out
}

func press(t *testing.T, m Model, k tea.KeyType) Model {
	t.Helper()
	next, _ := m.Update(tea.KeyMsg{Type: k})
	return next.(Model)
}

func send(t *testing.T, m Model, ev monitor.Event) Model {
	t.Helper()
	next, _ := m.Update(EventMsg{Event: ev})
	return next.(Model)
}

func newTestModel(t *testing.T) (Model, *recordingTarget) {
	t.Helper()
	rec := &recordingTarget{}
	m := NewModel(monitor.NewSession(tenant), rec, "http://127.0.0.1:8888")
	next, _ := m.Update(tea.WindowSizeMsg{Width: 140, Height: 50})
	return next.(Model), rec
}

// watching drives the model to ap-1 / 4660 through key presses.
func watching(t *testing.T) (Model, *recordingTarget) {
	t.Helper()
	m, rec := newTestModel(t)

	m = send(t, m, monitor.Event{Kind: monitor.EventVBSPs, Entities: ents("ap-1", "ap-2")})
	m = press(t, m, tea.KeyDown)
	m = press(t, m, tea.KeyEnter)
	require.Equal(t, "ap-1", rec.last().VBSP)

	m = send(t, m, monitor.Event{Kind: monitor.EventUEs, VBSP: "ap-1", Entities: ents("4660", "71")})
	m = press(t, m, tea.KeyTab)
	require.Equal(t, ColumnUE, m.Focus())
	m = press(t, m, tea.KeyDown)
	m = press(t, m, tea.KeyEnter)
	require.Equal(t, "4660", rec.last().UE)

	m = send(t, m, monitor.Event{
		Kind: monitor.EventMeasurement,
		VBSP: "ap-1",
		UE:   "4660",
		Measurement: &empower.RRCMeasurements{
			PrimaryRSRP: -87,
			PrimaryRSRQ: -9,
			Neighbours: map[string]empower.CellMeasurement{
				"12": {MeasID: 1, RATType: "EUTRA", RSRP: -95, RSRQ: -11},
			},
		},
	})
	return m, rec
}

func TestModel_InitialView(t *testing.T) {
	m, rec := newTestModel(t)

	out := m.View()
	assert.Contains(t, out, monitor.VBSPPlaceholder)
	assert.Contains(t, out, "Select a VBSP and a UE")
	assert.NotContains(t, out, monitor.UEPlaceholder)
	assert.Empty(t, rec.targets)
}

func TestModel_SelectThroughKeys(t *testing.T) {
	m, rec := watching(t)

	assert.Equal(t, monitor.Target{TenantID: tenant, VBSP: "ap-1", UE: "4660"}, rec.last())
	assert.Equal(t, monitor.Visibility{UESelector: true, PrimaryCell: true, NeighbourSelector: true}, m.Session().Visibility())

	out := m.View()
	assert.Contains(t, out, "Serving cell")
	assert.Contains(t, out, "-87.0 dBm")

	m = press(t, m, tea.KeyTab)
	require.Equal(t, ColumnCell, m.Focus())
	m = press(t, m, tea.KeyDown)
	m = press(t, m, tea.KeyEnter)

	assert.True(t, m.Session().Visibility().NeighbourCell)
	assert.Contains(t, m.View(), "PCI 12 (EUTRA)")
}

func TestModel_FocusSkipsHiddenColumns(t *testing.T) {
	m, _ := newTestModel(t)
	m = send(t, m, monitor.Event{Kind: monitor.EventVBSPs, Entities: ents("ap-1")})

	m = press(t, m, tea.KeyTab)
	assert.Equal(t, ColumnVBSP, m.Focus(), "no other column is visible")

	m = press(t, m, tea.KeyShiftTab)
	assert.Equal(t, ColumnVBSP, m.Focus())
}

func TestModel_CursorBounds(t *testing.T) {
	m, _ := newTestModel(t)
	m = send(t, m, monitor.Event{Kind: monitor.EventVBSPs, Entities: ents("ap-1", "ap-2")})

	m = press(t, m, tea.KeyUp)
	assert.Equal(t, 0, m.Cursor(ColumnVBSP))

	for i := 0; i < 5; i++ {
		m = press(t, m, tea.KeyDown)
	}
	assert.Equal(t, 2, m.Cursor(ColumnVBSP))
}

func TestModel_ClearResetsDependents(t *testing.T) {
	m, rec := watching(t)

	m = press(t, m, tea.KeyShiftTab)
	require.Equal(t, ColumnVBSP, m.Focus())
	m = press(t, m, tea.KeyEsc)

	assert.Equal(t, monitor.Target{TenantID: tenant}, rec.last())
	assert.Equal(t, monitor.Visibility{}, m.Session().Visibility())
	assert.Equal(t, 0, m.Cursor(ColumnVBSP))
}

func TestModel_VanishedSelectionMovesFocus(t *testing.T) {
	m, rec := watching(t)
	m = press(t, m, tea.KeyTab)
	require.Equal(t, ColumnCell, m.Focus())

	m = send(t, m, monitor.Event{Kind: monitor.EventVBSPs, Entities: ents("ap-2")})

	assert.Equal(t, ColumnVBSP, m.Focus())
	assert.Equal(t, monitor.Target{TenantID: tenant}, rec.last())
}

func TestModel_StaleEventIgnored(t *testing.T) {
	m, rec := watching(t)
	before := len(rec.targets)

	m = send(t, m, monitor.Event{Kind: monitor.EventUEs, VBSP: "ap-2", Entities: ents("99")})

	assert.Len(t, rec.targets, before)
	assert.Equal(t, []string{"", "4660", "71"}, m.Session().UEs.Keys())
}

func TestModel_ErrorStatus(t *testing.T) {
	m, _ := watching(t)
	m = send(t, m, monitor.Event{Kind: monitor.EventError, Loop: monitor.LoopMeasurements, Err: errors.New("boom")})

	out := m.View()
	assert.Contains(t, out, "measurements")
	assert.Contains(t, out, "boom")
}

func TestModel_HelpAndQuit(t *testing.T) {
	m, _ := newTestModel(t)

	next, _ := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("?")})
	m = next.(Model)
	assert.Contains(t, m.View(), "Keyboard shortcuts")

	m = press(t, m, tea.KeyEnter)
	assert.NotContains(t, m.View(), "Keyboard shortcuts")

	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("q")})
	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())
}
