package tui

import (
	"context"
	"errors"

	tea "github.com/charmbracelet/bubbletea"
	"golang.org/x/sync/errgroup"

	"github.com/muurk/rrcmon/internal/monitor"
)

// Config configures an interactive dashboard run.
type Config struct {
	// Controller is shown in the header.
	Controller string

	PreferVBSP string
	PreferUE   string
	AutoSelect bool

	Monitor monitor.Options
}

// Selection is what was selected when the dashboard closed.
type Selection struct {
	VBSP string
	UE   string
}

// Run shows the dashboard until the user quits or ctx is cancelled, and
// returns the final selection.
func Run(ctx context.Context, src monitor.Source, cfg Config) (Selection, error) {
	session := monitor.NewSession(cfg.Monitor.TenantID)
	session.Prefer(cfg.PreferVBSP, cfg.PreferUE)
	session.AutoSelect(cfg.AutoSelect)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var program *tea.Program
	driver := monitor.NewDriver(src, cfg.Monitor, func(ev monitor.Event) {
		program.Send(EventMsg{Event: ev})
	})

	g, gctx := errgroup.WithContext(ctx)
	program = tea.NewProgram(
		NewModel(session, driver, cfg.Controller),
		tea.WithAltScreen(),
		tea.WithContext(gctx),
	)

	g.Go(func() error {
		return driver.Run(gctx)
	})

	_, err := program.Run()
	cancel()
	if werr := g.Wait(); werr != nil && !errors.Is(werr, context.Canceled) && err == nil {
		err = werr
	}
	// Cancelled from outside (signal): not a failure.
	if errors.Is(err, tea.ErrProgramKilled) || errors.Is(err, context.Canceled) {
		err = nil
	}

	// Program and driver have stopped; the session is ours again.
	return Selection{
		VBSP: session.VBSPs.Selected(),
		UE:   session.UEs.Selected(),
	}, err
}
