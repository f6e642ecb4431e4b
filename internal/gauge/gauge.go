// Package gauge holds the values shown on the RSRP/RSRQ gauges.
//
// A Gauge stores whatever it is given. It never clamps or rejects a value.
// Colour bands and quality labels are derived from the gauge's Spec the way
// the dashboard's threshold colouring does it, and Ratio clamps only for
// drawing.
package gauge

import (
	"math"
	"time"
)

// Band colours, worst to best.
const (
	ColorPoor      = "#FF0000"
	ColorFair      = "#F97600"
	ColorGood      = "#F6C600"
	ColorExcellent = "#60B044"
)

// DefaultColors is the colour pattern shared by every preset.
var DefaultColors = []string{ColorPoor, ColorFair, ColorGood, ColorExcellent}

// qualityLabels names the bands of a four-band gauge.
var qualityLabels = []string{"poor", "fair", "good", "excellent"}

// Spec describes a gauge's range and colour bands.
type Spec struct {
	Name       string    `json:"name"`
	Label      string    `json:"label"`
	Unit       string    `json:"unit"`
	Min        float64   `json:"min"`
	Max        float64   `json:"max"`
	Thresholds []float64 `json:"thresholds"`
	Colors     []string  `json:"colors"`
}

// Presets used by the dashboard.
var (
	PrimaryRSRP = Spec{
		Name: "primary_rsrp", Label: "RSRP", Unit: "dBm",
		Min: -140, Max: -43,
		Thresholds: []float64{-100, -90, -80, -43},
		Colors:     DefaultColors,
	}
	PrimaryRSRQ = Spec{
		Name: "primary_rsrq", Label: "RSRQ", Unit: "dB",
		Min: -20, Max: -2,
		Thresholds: []float64{-20, -15, -10, -2},
		Colors:     DefaultColors,
	}
	NeighbourRSRP = Spec{
		Name: "neighbour_rsrp", Label: "RSRP", Unit: "dBm",
		Min: -141, Max: -42,
		Thresholds: []float64{-100, -90, -80, -43},
		Colors:     DefaultColors,
	}
	NeighbourRSRQ = Spec{
		Name: "neighbour_rsrq", Label: "RSRQ", Unit: "dB",
		Min: -21, Max: -1,
		Thresholds: []float64{-20, -15, -10, -2},
		Colors:     DefaultColors,
	}
)

// Gauge is a single displayed reading.
type Gauge struct {
	Spec    Spec
	value   float64
	set     bool
	updated time.Time
}

// New returns an empty gauge for spec.
func New(spec Spec) *Gauge {
	return &Gauge{Spec: spec}
}

// Set stores v as is.
func (g *Gauge) Set(v float64) {
	g.value = v
	g.set = true
	g.updated = time.Now()
}

// Value returns the last value and whether one has been set.
func (g *Gauge) Value() (float64, bool) {
	return g.value, g.set
}

// Updated returns when Set was last called.
func (g *Gauge) Updated() time.Time {
	return g.updated
}

// Reset forgets the value.
func (g *Gauge) Reset() {
	g.value = 0
	g.set = false
	g.updated = time.Time{}
}

// Band returns the index of the first threshold the value is below,
// or the last band when it is not below any of them.
func (g *Gauge) Band() int {
	return BandOf(g.Spec, g.value)
}

// BandOf returns the band index of v under spec.
func BandOf(spec Spec, v float64) int {
	if len(spec.Thresholds) == 0 {
		return 0
	}
	for i, t := range spec.Thresholds {
		if v < t {
			return i
		}
	}
	return len(spec.Thresholds) - 1
}

// Color returns the band colour of the current value.
func (g *Gauge) Color() string {
	if len(g.Spec.Colors) == 0 {
		return ""
	}
	b := g.Band()
	if b >= len(g.Spec.Colors) {
		b = len(g.Spec.Colors) - 1
	}
	return g.Spec.Colors[b]
}

// Quality returns a word for the current band, or "" when no value is set.
func (g *Gauge) Quality() string {
	if !g.set {
		return ""
	}
	b := g.Band()
	if b >= len(qualityLabels) {
		b = len(qualityLabels) - 1
	}
	return qualityLabels[b]
}

// Ratio maps the value onto [0, 1] across the gauge range.
func (g *Gauge) Ratio() float64 {
	span := g.Spec.Max - g.Spec.Min
	if span <= 0 || !g.set || math.IsNaN(g.value) {
		return 0
	}
	r := (g.value - g.Spec.Min) / span
	return math.Max(0, math.Min(1, r))
}

// Reading is the JSON form of a gauge.
type Reading struct {
	Name    string    `json:"name"`
	Value   *float64  `json:"value,omitempty"`
	Band    int       `json:"band"`
	Color   string    `json:"color,omitempty"`
	Quality string    `json:"quality,omitempty"`
	Updated time.Time `json:"updated,omitempty"`
}

// Reading snapshots the gauge.
func (g *Gauge) Reading() Reading {
	r := Reading{Name: g.Spec.Name}
	if g.set {
		v := g.value
		r.Value = &v
		r.Band = g.Band()
		r.Color = g.Color()
		r.Quality = g.Quality()
		r.Updated = g.updated
	}
	return r
}
