// Package tui provides the interactive RRC measurement dashboard built on
// Bubble Tea.
//
// The dashboard shows three cascading selectors (VBSP, UE, neighbour cell)
// and the RSRP/RSRQ gauges of the serving cell and the chosen neighbour.
// Poll results from monitor.Driver are injected with Program.Send as
// EventMsg values, so the monitor.Session is only ever touched from the
// Bubble Tea event loop. Each selection change is handed back to the
// driver as a new polling target.
//
// Example:
//
//	sel, err := tui.Run(ctx, client, tui.Config{
//	    Controller: settings.ControllerURL,
//	    Monitor:    monitor.OptionsFromSettings(settings),
//	})
//
// # Keys
//
//	tab / shift+tab   move between visible selectors
//	↑ ↓               move the cursor
//	enter             select the option under the cursor
//	esc               clear the focused selector
//	?                 help
//	q                 quit
package tui
