// Package logging provides structured logging for rrcmon.
//
// This package wraps a global zap logger with convenience functions for the
// logging patterns used by the pollers, the feed and the simulator.
//
// # Silent by Default
//
// Nothing is logged unless RRCMON_LOG_LEVEL or --log-level is set. The
// interactive dashboard owns the terminal, so it logs only to a file:
//
//	if err := logging.InitializeToFile(level, "/tmp/rrcmon.log"); err != nil {
//	    return err
//	}
//	defer logging.Sync()
//
// # Log Levels
//
//   - Debug: every fetch, loop start/stop, feed messages
//   - Info: reconciled option lists, HTTP requests, connections
//   - Warn: failed polls with their error class
//   - Error: startup failures
//
// # Specialized Logging
//
// Polling:
//
//	logging.LogFetch("measurements", endpoint, elapsed)
//	logging.LogFetchFailure("vbsps", empower.Classify(err).String(), err)
//	logging.LogReconcile("ue", change.Remove, keys(change.Add), change.SelectionInvalidated)
//
// Serving:
//
//	logging.LogHTTPRequest(c.ClientIP(), c.Request.Method, path, status, latency)
//	logging.LogConnection(remoteAddr, "websocket_upgraded")
//	logging.LogWebSocketMessage(remoteAddr, "sent", websocket.TextMessage, payload)
//
// # Thread Safety
//
// The logging functions are safe for concurrent use once Initialize has
// returned. Initialize itself is meant to be called once at startup.
package logging
