// Package monitor holds the dashboard state and the loops that keep it
// current.
//
// Session owns the three selectors (VBSP, UE, neighbour cell), the gauges
// and the derived visibility. It is driven by Events and is owned by exactly
// one goroutine: the Bubble Tea Update function, or the dispatcher inside
// Monitor.
//
// Driver runs three poller.Loops against a Source:
//
//	vbsps         every ListInterval
//	ues           every ListInterval, skipped while no VBSP is selected
//	measurements  every MeasurementInterval, skipped while no UE is selected
//
// Loops never read the Session. The owner publishes a Target with SetTarget
// after each change and the loops read it at the start of each fetch. Every
// result carries the target it was fetched for, so a UE list or sample that
// arrives after the selection moved on is dropped by the Session.
//
// Monitor combines a Driver with a dispatcher and fans each resulting
// Snapshot out to Sinks (log, websocket feed, Postgres recorder).
package monitor
