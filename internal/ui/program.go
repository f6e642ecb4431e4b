package ui

import (
	"fmt"
	"io"
	"os"
)

// Printer writes styled components to a writer at a fixed width. Commands
// use it for all non-interactive output.
type Printer struct {
	out   io.Writer
	width int
}

// NewPrinter returns a Printer sized to the terminal. A nil w means stdout.
func NewPrinter(w io.Writer) *Printer {
	if w == nil {
		w = os.Stdout
	}
	return &Printer{out: w, width: GetTerminalWidth()}
}

// SetWidth overrides the detected terminal width.
func (p *Printer) SetWidth(width int) *Printer {
	p.width = width
	return p
}

func (p *Printer) Width() int { return p.width }

func (p *Printer) Print(content string) {
	_, _ = fmt.Fprint(p.out, content)
}

func (p *Printer) Println(content string) {
	_, _ = fmt.Fprintln(p.out, content)
}

func (p *Printer) PrintLines(lines ...string) {
	for _, line := range lines {
		p.Println(line)
	}
}

func (p *Printer) Newline() {
	p.Println("")
}

// PrintHeader prints the command banner.
func (p *Printer) PrintHeader(title, command string, params map[string]string) {
	p.Println(Banner{Title: title, Command: command, Params: params}.Render(p.width))
}

func (p *Printer) PrintSuccess(title string, details map[string]string) {
	p.Println(Success(title, details).Render(p.width))
}

func (p *Printer) PrintWarning(title string, details map[string]string) {
	p.Println(Warning(title, details).Render(p.width))
}

// PrintError prints a failure box; hints usually come from
// empower.TroubleshootingHint.
func (p *Printer) PrintError(title string, err error, hints []string) {
	p.Println(Failure(title, err, hints).Render(p.width))
}

// PrintTable prints rows under headers, or empty when there are none.
func (p *Printer) PrintTable(headers []string, rows [][]string, empty string) {
	p.Println(RenderTable(headers, rows, empty))
}
