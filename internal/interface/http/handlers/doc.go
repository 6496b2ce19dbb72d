// Package handlers contains health checks and reusable middleware for the
// HTTP server.
//
// # Health Checks
//
// Checks run in parallel, each under its own timeout:
//
//	checker := handlers.NewCompositeHealthChecker("v1.0.0")
//	checker.AddCheck("postgres", handlers.NewPingCheck(conn))
//	checker.AddDegradableCheck("popularity", handlers.NewPopularityCheck(counter))
//
// A failing critical check makes /ready report 503. A failing degradable
// check only marks /health unhealthy.
//
// # Middleware
//
//	handler := handlers.ChainHandler(
//	    mux,
//	    handlers.SecurityHeadersMiddleware,
//	    handlers.TimeoutMiddleware(10*time.Second),
//	    handlers.RequestSizeLimitMiddleware(1<<20),
//	)
package handlers
