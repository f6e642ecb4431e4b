package monitor

import (
	"time"

	"github.com/muurk/rrcmon/internal/empower"
	"github.com/muurk/rrcmon/internal/gauge"
	"github.com/muurk/rrcmon/internal/selector"
)

// EventKind says which loop produced an Event.
type EventKind int

const (
	EventVBSPs EventKind = iota
	EventUEs
	EventMeasurement
	EventError
)

func (k EventKind) String() string {
	switch k {
	case EventVBSPs:
		return "vbsps"
	case EventUEs:
		return "ues"
	case EventMeasurement:
		return "measurement"
	case EventError:
		return "error"
	default:
		return "unknown"
	}
}

// Event is a poll result on its way to the session owner.
// VBSP and UE record the target the fetch was made for.
type Event struct {
	Kind        EventKind
	Loop        string
	VBSP        string
	UE          string
	Entities    []selector.Entity
	Measurement *empower.RRCMeasurements
	Err         error
	At          time.Time
}

// SelectorView is a selector in JSON form.
type SelectorView struct {
	Options  []selector.Entity `json:"options"`
	Selected string            `json:"selected"`
}

// Snapshot is the state handed to sinks after each applied event.
type Snapshot struct {
	Tenant      string                   `json:"tenant"`
	Cause       string                   `json:"cause"`
	At          time.Time                `json:"at"`
	VBSPs       SelectorView             `json:"vbsps"`
	UEs         SelectorView             `json:"ues"`
	Cells       SelectorView             `json:"cells"`
	Visibility  Visibility               `json:"visibility"`
	Gauges      []gauge.Reading          `json:"gauges"`
	Measurement *empower.RRCMeasurements `json:"measurement,omitempty"`
	Status      Status                   `json:"status"`
}

func view(s *selector.Selector) SelectorView {
	return SelectorView{Options: s.Options(), Selected: s.Selected()}
}

// Snapshot captures the session. cause names the event that led to it.
func (s *Session) Snapshot(cause EventKind) Snapshot {
	snap := Snapshot{
		Tenant:     s.TenantID,
		Cause:      cause.String(),
		At:         s.now(),
		VBSPs:      view(s.VBSPs),
		UEs:        view(s.UEs),
		Cells:      view(s.Cells),
		Visibility: s.Visibility(),
		Gauges:     s.Gauges.Readings(),
		Status:     s.status,
	}
	if cause == EventMeasurement {
		snap.Measurement = s.last
	}
	return snap
}
