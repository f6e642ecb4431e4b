package monitor

import (
	"time"

	"github.com/muurk/rrcmon/internal/empower"
	"github.com/muurk/rrcmon/internal/gauge"
	"github.com/muurk/rrcmon/internal/logging"
	"github.com/muurk/rrcmon/internal/selector"
)

// Placeholder labels of the three selectors.
const (
	VBSPPlaceholder = "Select a VBSP"
	UEPlaceholder   = "Select a UE"
	CellPlaceholder = "Select a neighbour cell"
)

// Visibility says which parts of the dashboard are shown.
type Visibility struct {
	UESelector        bool `json:"ue_selector"`
	PrimaryCell       bool `json:"primary_cell"`
	NeighbourSelector bool `json:"neighbour_selector"`
	NeighbourCell     bool `json:"neighbour_cell"`
}

// Target is what the polling loops should fetch next.
type Target struct {
	TenantID string
	VBSP     string
	UE       string
}

// Status records the outcome of the most recent poll.
type Status struct {
	LastUpdate time.Time `json:"last_update,omitempty"`
	LastError  string    `json:"last_error,omitempty"`
	ErrorClass string    `json:"error_class,omitempty"`
	ErrorLoop  string    `json:"error_loop,omitempty"`
}

// Session is the dashboard state: three selectors, the gauges and what is
// visible. It is not safe for concurrent use; exactly one goroutine owns it
// and every poll result reaches it as an Event.
type Session struct {
	TenantID string
	VBSPs    *selector.Selector
	UEs      *selector.Selector
	Cells    *selector.Selector
	Gauges   *gauge.Panel

	neighbours map[string]empower.CellMeasurement
	last       *empower.RRCMeasurements
	status     Status

	preferVBSP string
	preferUE   string
	auto       bool

	now func() time.Time
}

// NewSession returns an empty session for tenantID.
func NewSession(tenantID string) *Session {
	return &Session{
		TenantID: tenantID,
		VBSPs:    selector.New(VBSPPlaceholder),
		UEs:      selector.New(UEPlaceholder),
		Cells:    selector.New(CellPlaceholder),
		Gauges:   gauge.NewPanel(),
		now:      time.Now,
	}
}

// Prefer asks the session to select vbsp, then ue, as soon as they appear.
// Each preference is used once.
func (s *Session) Prefer(vbsp, ue string) {
	s.preferVBSP = vbsp
	s.preferUE = ue
}

// AutoSelect makes the session pick the first VBSP and UE whenever nothing
// is selected.
func (s *Session) AutoSelect(on bool) {
	s.auto = on
}

// Apply routes a poll result. It reports false for stale events, which are
// dropped.
func (s *Session) Apply(ev Event) bool {
	switch ev.Kind {
	case EventVBSPs:
		s.ApplyVBSPs(ev.Entities)
	case EventUEs:
		if _, ok := s.ApplyUEs(ev.VBSP, ev.Entities); !ok {
			return false
		}
	case EventMeasurement:
		if !s.ApplyMeasurement(ev.VBSP, ev.UE, ev.Measurement) {
			return false
		}
	case EventError:
		s.status.LastError = ev.Err.Error()
		s.status.ErrorClass = empower.Classify(ev.Err).String()
		s.status.ErrorLoop = ev.Loop
		return true
	default:
		return false
	}
	s.status.LastUpdate = s.now()
	s.status.LastError, s.status.ErrorClass, s.status.ErrorLoop = "", "", ""
	return true
}

// ApplyVBSPs reconciles the VBSP options against the controller's list.
func (s *Session) ApplyVBSPs(list []selector.Entity) selector.Change {
	c := s.VBSPs.Sync(list)
	logChange("vbsp", c)
	if c.SelectionInvalidated {
		s.resetUEs()
	}
	s.applyPreferences()
	return c
}

// ApplyUEs reconciles the UE options of vbsp. It does nothing and reports
// false if vbsp is no longer the selected VBSP.
func (s *Session) ApplyUEs(vbsp string, list []selector.Entity) (selector.Change, bool) {
	if vbsp == selector.None || vbsp != s.VBSPs.Selected() {
		return selector.Change{}, false
	}
	c := s.UEs.Sync(list)
	logChange("ue", c)
	if c.HideDependents {
		s.resetCells()
	}
	s.applyPreferences()
	return c, true
}

// ApplyMeasurement shows a sample for (vbsp, ue). Stale samples are dropped.
func (s *Session) ApplyMeasurement(vbsp, ue string, m *empower.RRCMeasurements) bool {
	if m == nil || vbsp == selector.None || ue == selector.None {
		return false
	}
	if vbsp != s.VBSPs.Selected() || ue != s.UEs.Selected() {
		return false
	}

	s.last = m
	s.Gauges.ApplyPrimary(m.PrimaryRSRP, m.PrimaryRSRQ)

	c := s.Cells.Sync(m.CellEntities())
	logChange("cell", c)
	s.neighbours = m.Neighbours

	if cell := s.Cells.Selected(); cell != selector.None {
		n := s.neighbours[cell]
		s.Gauges.ApplyNeighbour(n.RSRP, n.RSRQ)
	} else if c.SelectionInvalidated {
		s.Gauges.ResetNeighbour()
	}
	return true
}

// SelectVBSP changes the VBSP. Everything below it starts over.
func (s *Session) SelectVBSP(key string) error {
	if key == s.VBSPs.Selected() {
		return nil
	}
	if err := s.VBSPs.Select(key); err != nil {
		return err
	}
	s.resetUEs()
	return nil
}

// SelectUE changes the UE. The cell selector and gauges start over.
func (s *Session) SelectUE(key string) error {
	if key == s.UEs.Selected() {
		return nil
	}
	if err := s.UEs.Select(key); err != nil {
		return err
	}
	s.resetCells()
	return nil
}

// SelectCell changes the neighbour cell shown on the neighbour gauges.
func (s *Session) SelectCell(key string) error {
	if err := s.Cells.Select(key); err != nil {
		return err
	}
	s.Gauges.ResetNeighbour()
	if n, ok := s.neighbours[key]; ok && key != selector.None {
		s.Gauges.ApplyNeighbour(n.RSRP, n.RSRQ)
	}
	return nil
}

// Visibility derives what is shown from the current state.
func (s *Session) Visibility() Visibility {
	var v Visibility
	vbsp := s.VBSPs.Selected() != selector.None
	ue := s.UEs.Selected() != selector.None

	v.UESelector = vbsp && s.UEs.Len() > 0
	v.PrimaryCell = vbsp && ue
	v.NeighbourSelector = v.PrimaryCell && s.Cells.Len() > 0
	v.NeighbourCell = v.NeighbourSelector && s.Cells.Selected() != selector.None
	return v
}

// Target returns what the loops should poll.
func (s *Session) Target() Target {
	return Target{
		TenantID: s.TenantID,
		VBSP:     s.VBSPs.Selected(),
		UE:       s.UEs.Selected(),
	}
}

// Status returns the last poll outcome.
func (s *Session) Status() Status {
	return s.status
}

// Neighbour returns the measurement of the selected neighbour cell.
func (s *Session) Neighbour() (empower.CellMeasurement, bool) {
	cell := s.Cells.Selected()
	if cell == selector.None {
		return empower.CellMeasurement{}, false
	}
	n, ok := s.neighbours[cell]
	return n, ok
}

func (s *Session) resetUEs() {
	s.UEs.Reset()
	s.resetCells()
}

func (s *Session) resetCells() {
	s.Cells.Reset()
	s.neighbours = nil
	s.last = nil
	s.Gauges.ResetPrimary()
	s.Gauges.ResetNeighbour()
}

func (s *Session) applyPreferences() {
	if s.VBSPs.Selected() == selector.None {
		switch {
		case s.preferVBSP != "" && s.VBSPs.Has(s.preferVBSP):
			_ = s.SelectVBSP(s.preferVBSP)
			s.preferVBSP = ""
		case s.auto && s.VBSPs.Len() > 0:
			_ = s.SelectVBSP(s.VBSPs.Keys()[1])
		}
	}

	if s.VBSPs.Selected() != selector.None && s.UEs.Selected() == selector.None {
		switch {
		case s.preferUE != "" && s.UEs.Has(s.preferUE):
			_ = s.SelectUE(s.preferUE)
			s.preferUE = ""
		case s.auto && s.UEs.Len() > 0:
			_ = s.SelectUE(s.UEs.Keys()[1])
		}
	}
}

func logChange(name string, c selector.Change) {
	added := make([]string, len(c.Add))
	for i, e := range c.Add {
		added[i] = e.Key
	}
	logging.LogReconcile(name, c.Remove, added, c.SelectionInvalidated)
}
