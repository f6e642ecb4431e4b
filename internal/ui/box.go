package ui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Banner opens a command's output: title, the command line, then its
// parameters in key order.
type Banner struct {
	Title   string
	Command string
	Params  map[string]string
}

// Render draws the banner at width.
func (b Banner) Render(width int) string {
	width = clampWidth(width)

	lines := []string{
		textStyle.Bold(true).PaddingLeft(2).Render(strings.ToUpper(b.Title)),
		mutedStyle.PaddingLeft(2).Render(b.Command),
	}
	if len(b.Params) > 0 {
		lines = append(lines, divider(width-6))
		lines = append(lines, pairs(b.Params, 0, "  ")...)
	}

	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(AccentColor).
		Width(width - 2).
		Render(strings.Join(lines, "\n"))
}

// Kind selects the colour and wording of an Outcome.
type Kind int

const (
	KindSuccess Kind = iota
	KindFailure
	KindWarning
)

type kindStyle struct {
	color  lipgloss.Color
	marker string
	word   string
}

var kindStyles = map[Kind]kindStyle{
	KindSuccess: {SuccessColor, SuccessMarker, "SUCCESS"},
	KindFailure: {ErrorColor, FailureMarker, "FAILED"},
	KindWarning: {WarningColor, WarningMarker, "WARNING"},
}

// Outcome closes a command's output.
type Outcome struct {
	Kind    Kind
	Title   string
	Err     error
	Details map[string]string
	// Items are plain bullet points under the title.
	Items []string
	// Hints go into a troubleshooting box; only failures show them.
	Hints []string
}

// Success is an Outcome for a completed operation.
func Success(title string, details map[string]string) Outcome {
	return Outcome{Kind: KindSuccess, Title: title, Details: details}
}

// Failure is an Outcome for err, with troubleshooting hints.
func Failure(title string, err error, hints []string) Outcome {
	return Outcome{Kind: KindFailure, Title: title, Err: err, Hints: hints}
}

// Warning is an Outcome for something the user should look at.
func Warning(title string, details map[string]string) Outcome {
	return Outcome{Kind: KindWarning, Title: title, Details: details}
}

// Render draws the outcome in a double-bordered box at width.
func (o Outcome) Render(width int) string {
	width = clampWidth(width)
	ks := kindStyles[o.Kind]
	heading := lipgloss.NewStyle().Foreground(ks.color).Bold(true)

	lines := []string{"", heading.Render("   " + ks.marker + "  " + ks.word + "  ─  " + o.Title), ""}

	if o.Err != nil {
		lines = append(lines, lipgloss.NewStyle().Foreground(ErrorColor).Render("   Error: "+o.Err.Error()), "")
	}
	for i, item := range o.Items {
		lines = append(lines, textStyle.Render("   • "+item))
		if i == len(o.Items)-1 {
			lines = append(lines, "")
		}
	}
	if len(o.Details) > 0 {
		lines = append(lines, pairs(o.Details, 15, "   ")...)
		lines = append(lines, "")
	}
	if o.Kind == KindFailure && len(o.Hints) > 0 {
		lines = append(lines, renderHints(o.Hints, width), "")
	}

	return lipgloss.NewStyle().
		Border(lipgloss.DoubleBorder()).
		BorderForeground(ks.color).
		Width(width-2).
		Padding(0, 2).
		Render(strings.Join(lines, "\n"))
}

func renderHints(hints []string, width int) string {
	lines := []string{mutedStyle.Bold(true).Render("Troubleshooting:"), ""}
	for _, h := range hints {
		lines = append(lines, mutedStyle.Render("  • "+h))
	}

	inner := width - 12
	if inner < 40 {
		inner = 40
	}
	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(MutedColor).
		Width(inner).
		Padding(0, 1).
		MarginLeft(3).
		Render(strings.Join(lines, "\n"))
}
