package ui

import (
	"os"
	"sort"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"
)

// Palette for run-once output.
var (
	AccentColor  = lipgloss.Color("#7D56F4")
	SuccessColor = lipgloss.Color("#43BF6D")
	ErrorColor   = lipgloss.Color("#FF5555")
	WarningColor = lipgloss.Color("#FFA500")
	MutedColor   = lipgloss.Color("#626262")
	TextColor    = lipgloss.Color("#FFFFFF")
)

// Output is clamped to this width range.
const (
	MinTerminalWidth = 60
	MaxContentWidth  = 100
)

// Markers used in boxes and by the dashboard status line.
const (
	SuccessMarker = "✓"
	FailureMarker = "✗"
	WarningMarker = "⚠"
	EmptyValue    = "--"
)

var (
	mutedStyle  = lipgloss.NewStyle().Foreground(MutedColor)
	textStyle   = lipgloss.NewStyle().Foreground(TextColor)
	accentStyle = lipgloss.NewStyle().Foreground(AccentColor).Bold(true)

	tableHeaderStyle = accentStyle.Padding(0, 1)
	tableCellStyle   = textStyle.Padding(0, 1)

	gaugeLabelStyle = mutedStyle.Width(12)
	gaugeValueStyle = textStyle.Bold(true).Width(12).Align(lipgloss.Right)
)

// GetTerminalWidth returns the stdout width clamped to
// [MinTerminalWidth, MaxContentWidth]. Non-terminals get the minimum.
func GetTerminalWidth() int {
	width, _, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil {
		return MinTerminalWidth
	}
	return clampWidth(width)
}

func clampWidth(width int) int {
	if width < MinTerminalWidth {
		return MinTerminalWidth
	}
	if width > MaxContentWidth {
		return MaxContentWidth
	}
	return width
}

func divider(width int) string {
	if width < 10 {
		width = 10
	}
	return lipgloss.NewStyle().Foreground(AccentColor).Render(strings.Repeat("─", width))
}

// pairs renders m as "key: value" lines in key order.
func pairs(m map[string]string, keyWidth int, indent string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	keyStyle := mutedStyle
	if keyWidth > 0 {
		keyStyle = keyStyle.Width(keyWidth)
	}
	lines := make([]string, 0, len(keys))
	for _, k := range keys {
		lines = append(lines, keyStyle.Render(indent+k+":")+" "+textStyle.Render(m[k]))
	}
	return lines
}
