package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/lipgloss"

	"github.com/muurk/rrcmon/internal/gauge"
)

// Bar widths for RenderGauge.
const (
	MinGaugeBarWidth = 10
	MaxGaugeBarWidth = 50
)

// RenderGauge draws one gauge as a single line:
//
//	RSRP         ██████████░░░░░░   -95.0 dBm  fair
//
// The bar is filled in the band colour; an unset gauge shows an empty bar
// and "--".
func RenderGauge(g *gauge.Gauge, width int) string {
	barWidth := width - 12 - 12 - 14
	if barWidth < MinGaugeBarWidth {
		barWidth = MinGaugeBarWidth
	}
	if barWidth > MaxGaugeBarWidth {
		barWidth = MaxGaugeBarWidth
	}

	fill := string(MutedColor)
	if c := g.Color(); c != "" {
		fill = c
	}
	bar := progress.New(
		progress.WithSolidFill(fill),
		progress.WithWidth(barWidth),
		progress.WithoutPercentage(),
	)

	label := gaugeLabelStyle.Render(g.Spec.Label)
	v, ok := g.Value()
	if !ok {
		return label + bar.ViewAs(0) + gaugeValueStyle.Foreground(MutedColor).Render(EmptyValue)
	}

	value := gaugeValueStyle.Render(fmt.Sprintf("%.1f %s", v, g.Spec.Unit))
	quality := lipgloss.NewStyle().
		Foreground(lipgloss.Color(g.Color())).
		PaddingLeft(2).
		Render(g.Quality())
	return label + bar.ViewAs(g.Ratio()) + value + quality
}

// RenderGaugeGroup draws a titled block of gauges.
func RenderGaugeGroup(title string, width int, gauges ...*gauge.Gauge) string {
	lines := []string{accentStyle.Render(title)}
	for _, g := range gauges {
		lines = append(lines, RenderGauge(g, width))
	}
	return strings.Join(lines, "\n")
}

// RenderPanel draws the serving-cell gauges and, when a neighbour is
// selected, the neighbour gauges under neighbourTitle.
func RenderPanel(p *gauge.Panel, neighbourTitle string, width int) string {
	out := RenderGaugeGroup("Serving cell", width, p.PrimaryRSRP, p.PrimaryRSRQ)
	if neighbourTitle != "" {
		out += "\n\n" + RenderGaugeGroup(neighbourTitle, width, p.NeighbourRSRP, p.NeighbourRSRQ)
	}
	return out
}
