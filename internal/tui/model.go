package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/muurk/rrcmon/internal/logging"
	"github.com/muurk/rrcmon/internal/monitor"
	"github.com/muurk/rrcmon/internal/selector"
	"github.com/muurk/rrcmon/internal/ui"
)

// Targeter receives the polling target whenever the selection changes.
// *monitor.Driver implements it.
type Targeter interface {
	SetTarget(monitor.Target)
}

// EventMsg carries a poll result into the Bubble Tea event loop.
type EventMsg struct {
	Event monitor.Event
}

// Column identifies one of the three selectors.
type Column int

const (
	ColumnVBSP Column = iota
	ColumnUE
	ColumnCell
	columnCount
)

func (c Column) String() string {
	switch c {
	case ColumnVBSP:
		return "VBSP"
	case ColumnUE:
		return "UE"
	case ColumnCell:
		return "Neighbour cell"
	default:
		return "unknown"
	}
}

// Model is the dashboard screen. It owns the session: poll results arrive
// as EventMsg and every key press runs on the same goroutine, so the
// session needs no locking.
type Model struct {
	session *monitor.Session
	target  Targeter

	controller string

	focus  Column
	cursor [columnCount]int

	spinner  spinner.Model
	help     help.Model
	keys     keyMap
	showHelp bool

	width  int
	height int
}

// NewModel creates a dashboard over session. target may be nil.
func NewModel(session *monitor.Session, target Targeter, controller string) Model {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = SpinnerStyle

	return Model{
		session:    session,
		target:     target,
		controller: controller,
		focus:      ColumnVBSP,
		spinner:    s,
		help:       help.New(),
		keys:       newKeyMap(),
		width:      MinTerminalWidth,
		height:     24,
	}
}

// Session returns the session the dashboard drives.
func (m Model) Session() *monitor.Session {
	return m.session
}

// Focus returns the focused selector column.
func (m Model) Focus() Column {
	return m.focus
}

// Cursor returns the cursor row of column c, 0 being the placeholder.
func (m Model) Cursor(c Column) int {
	return m.cursor[c]
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return m.spinner.Tick
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		return m, nil

	case EventMsg:
		if m.session.Apply(msg.Event) {
			m.sync()
		}
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case tea.KeyMsg:
		return m.updateKeys(msg)
	}

	return m, nil
}

func (m Model) updateKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.showHelp {
		if key.Matches(msg, m.keys.Quit) {
			return m, tea.Quit
		}
		m.showHelp = false
		return m, nil
	}

	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit

	case key.Matches(msg, m.keys.Help):
		m.showHelp = true

	case key.Matches(msg, m.keys.Up):
		if m.cursor[m.focus] > 0 {
			m.cursor[m.focus]--
		}

	case key.Matches(msg, m.keys.Down):
		if m.cursor[m.focus] < m.selector(m.focus).Len() {
			m.cursor[m.focus]++
		}

	case key.Matches(msg, m.keys.Next):
		m.focus = m.step(1)

	case key.Matches(msg, m.keys.Prev):
		m.focus = m.step(-1)

	case key.Matches(msg, m.keys.Select):
		options := m.selector(m.focus).Options()
		m.choose(options[m.cursor[m.focus]].Key)

	case key.Matches(msg, m.keys.Clear):
		m.cursor[m.focus] = 0
		m.choose(selector.None)
	}

	return m, nil
}

// choose applies a selection in the focused column and publishes the new
// target.
func (m *Model) choose(k string) {
	var err error
	switch m.focus {
	case ColumnVBSP:
		err = m.session.SelectVBSP(k)
	case ColumnUE:
		err = m.session.SelectUE(k)
	case ColumnCell:
		err = m.session.SelectCell(k)
	}
	if err != nil {
		logging.Warn(fmt.Sprintf("selection rejected: %v", err))
		return
	}
	m.sync()
}

// sync re-aligns cursors and focus with the session and hands the target to
// the polling loops.
func (m *Model) sync() {
	for c := ColumnVBSP; c < columnCount; c++ {
		s := m.selector(c)
		if s.Selected() != selector.None {
			m.cursor[c] = indexOf(s, s.Selected())
		} else if m.cursor[c] > s.Len() {
			m.cursor[c] = s.Len()
		}
	}
	if !m.visible(m.focus) {
		m.focus = ColumnVBSP
	}
	if m.target != nil {
		m.target.SetTarget(m.session.Target())
	}
}

func (m Model) selector(c Column) *selector.Selector {
	switch c {
	case ColumnUE:
		return m.session.UEs
	case ColumnCell:
		return m.session.Cells
	default:
		return m.session.VBSPs
	}
}

func (m Model) visible(c Column) bool {
	v := m.session.Visibility()
	switch c {
	case ColumnUE:
		return v.UESelector
	case ColumnCell:
		return v.NeighbourSelector
	default:
		return true
	}
}

// step returns the next visible column in direction dir, wrapping around.
func (m Model) step(dir int) Column {
	c := m.focus
	for i := 0; i < int(columnCount); i++ {
		c = Column((int(c) + dir + int(columnCount)) % int(columnCount))
		if m.visible(c) {
			return c
		}
	}
	return m.focus
}

func indexOf(s *selector.Selector, k string) int {
	for i, o := range s.Options() {
		if o.Key == k {
			return i
		}
	}
	return 0
}

// View implements tea.Model.
func (m Model) View() string {
	if m.showHelp {
		return RenderModal(m.renderHelp(), m.width, m.height)
	}

	header := BuildHeaderContent(m.controller, m.session.TenantID)
	footer := m.help.ShortHelpView(m.keys.ShortHelp())

	return RenderApplicationContainer(header, m.renderContent(), footer, m.width, m.height)
}

func (m Model) renderContent() string {
	v := m.session.Visibility()

	columns := []string{m.renderSelector(ColumnVBSP)}
	if v.UESelector {
		columns = append(columns, m.renderSelector(ColumnUE))
	}
	if v.NeighbourSelector {
		columns = append(columns, m.renderSelector(ColumnCell))
	}

	sections := []string{
		lipgloss.JoinHorizontal(lipgloss.Top, columns...),
		"",
	}

	if v.PrimaryCell {
		title := ""
		if v.NeighbourCell {
			title, _ = m.session.Cells.Label(m.session.Cells.Selected())
		}
		sections = append(sections, ui.RenderPanel(m.session.Gauges, title, m.width-6))
	} else {
		sections = append(sections, StatusStyle.Render("Select a VBSP and a UE to see RRC measurements."))
	}

	sections = append(sections, "", m.renderStatus())
	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

func (m Model) renderSelector(c Column) string {
	s := m.selector(c)
	options := s.Options()

	// Scroll so the cursor stays inside the window.
	start := 0
	if m.cursor[c] >= SelectorRows {
		start = m.cursor[c] - SelectorRows + 1
	}
	end := start + SelectorRows
	if end > len(options) {
		end = len(options)
	}

	lines := []string{SelectorTitleStyle.Render(c.String())}
	for i := start; i < end; i++ {
		o := options[i]
		prefix := "  "
		style := OptionStyle
		if o.Key != selector.None && o.Key == s.Selected() {
			prefix = ui.SuccessMarker + " "
			style = SelectedOptionStyle
		}
		if c == m.focus && i == m.cursor[c] {
			prefix = "> "
			style = CursorOptionStyle
		}
		lines = append(lines, style.Render(prefix+truncate(o.Label, SelectorWidth-4)))
	}
	if end < len(options) {
		lines = append(lines, OptionStyle.Render(fmt.Sprintf("  … %d more", len(options)-end)))
	}

	box := SelectorStyle
	if c == m.focus {
		box = FocusedSelectorStyle
	}
	return box.Render(strings.Join(lines, "\n"))
}

func (m Model) renderStatus() string {
	st := m.session.Status()
	if st.LastError != "" {
		return ErrorStatusStyle.Render(fmt.Sprintf("%s %s [%s]: %s", ui.FailureMarker, st.ErrorLoop, st.ErrorClass, st.LastError))
	}
	if st.LastUpdate.IsZero() {
		return m.spinner.View() + StatusStyle.Render(" Waiting for the controller...")
	}
	return StatusStyle.Render("Last update " + st.LastUpdate.Format(time.TimeOnly))
}

func (m Model) renderHelp() string {
	h := m.help
	h.ShowAll = true

	content := lipgloss.JoinVertical(lipgloss.Left,
		SelectorTitleStyle.Render("Keyboard shortcuts"),
		"",
		h.View(m.keys),
		"",
		StatusStyle.Render("Press any key to close"),
	)

	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(PrimaryColor).
		Padding(1, 2).
		Width(SafeModalWidth(60, m.width)).
		Render(content)
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
