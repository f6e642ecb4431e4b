// Package server hosts the HTTP surfaces of rrcmon: the simulated controller
// and the live snapshot feed.
//
// It wraps a gin engine with recovery, zap request logging, an always-open
// /healthz and optional HTTP Basic auth on the routes mounted through
// Routes(). Run and Serve block until the context is cancelled and then shut
// the listener down gracefully, waiting up to ShutdownTimeout (10s by
// default) for in-flight requests.
//
// # Usage Example
//
//	srv := server.New(server.Config{Host: "0.0.0.0", Port: 8888})
//	srv.Routes().GET("/api/v1/tenants", listTenants)
//	if err := srv.Run(ctx); err != nil {
//	    return err
//	}
package server
