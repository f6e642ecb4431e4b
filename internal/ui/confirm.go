package ui

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Confirm shows warnings in a box on out and asks for answer on in. Only an
// exact match, ignoring surrounding spaces, confirms.
func Confirm(in io.Reader, out io.Writer, title string, warnings []string, answer string) bool {
	box := Outcome{Kind: KindWarning, Title: title, Items: warnings}
	_, _ = fmt.Fprintln(out, box.Render(GetTerminalWidth()))
	_, _ = fmt.Fprintln(out)

	prompt := lipgloss.NewStyle().Foreground(WarningColor).Bold(true)
	_, _ = fmt.Fprint(out, prompt.Render(fmt.Sprintf("To proceed, type %q and press Enter: ", answer)))

	input, err := bufio.NewReader(in).ReadString('\n')
	_, _ = fmt.Fprintln(out)
	if (err == nil || input != "") && strings.TrimSpace(input) == answer {
		return true
	}

	_, _ = fmt.Fprintln(out, mutedStyle.Render("  Operation cancelled."))
	return false
}

// ConfirmOverwrite asks before replacing the config file at path.
func ConfirmOverwrite(in io.Reader, out io.Writer, path string) bool {
	return Confirm(in, out, "OVERWRITE CONFIGURATION", []string{
		"A configuration file already exists at " + path,
		"Saved controllers, tenants and preferences will be replaced",
	}, "yes")
}
