// Package httpserver runs the admin API over net/http with graceful
// shutdown and health endpoints.
//
// Run binds the listener before it returns control to the caller through
// Ready, then serves until the context is canceled or the process receives
// SIGINT or SIGTERM. In-flight requests get ShutdownTimeout to finish.
//
//	srv := httpserver.NewFromConfig(cfg, httpserver.WithLogger(log))
//	if err := srv.Run(ctx, router); err != nil {
//		log.Error("server stopped", logger.Error(err))
//	}
//
// Liveness and Readiness build the probe handlers. Readiness runs every named
// Check and answers 503 when any of them fails.
package httpserver
