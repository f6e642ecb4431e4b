// Package ui provides the run-once terminal output of the rrcmon CLI.
//
// Commands such as show, tenants, scan and config print styled output and
// exit; the interactive dashboard lives in package tui and reuses the
// palette and gauge rendering from here.
//
// # Components
//
//   - Banner: command header showing the operation and its parameters
//   - Outcome: success, failure and warning boxes, failures with
//     troubleshooting hints
//   - RenderTable: rounded lipgloss table for listings
//   - RenderGauge: one RSRP/RSRQ gauge as a band-coloured bar
//   - Confirm: typed confirmation before destructive operations
//
// Example:
//
//	p := ui.NewPrinter(os.Stdout)
//	p.PrintHeader("Tenants", "rrcmon tenants", map[string]string{"Controller": url})
//	p.PrintTable([]string{"ID", "Name"}, rows, "No tenants")
//
// # Logging Integration
//
// zap logging is silent unless RRCMON_LOG_LEVEL is set, so the curated
// output here is not interleaved with log lines.
package ui
