// Package feed pushes dashboard snapshots to websocket subscribers.
//
// Hub is a monitor.Sink. Every snapshot it receives is encoded once and
// written to each connected client; a client whose write fails is dropped.
// New subscribers get the latest snapshot straight away.
//
// Routes (mounted with Hub.Mount):
//
//	GET /ws            websocket, one text frame of Snapshot JSON per event
//	GET /api/snapshot  latest Snapshot JSON, 503 before the first event
package feed
