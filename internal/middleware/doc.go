// Package middleware provides HTTP middleware for the recipe book API.
//
// Global middleware is composed with Chain, outermost first:
//
//	handler := middleware.Chain(mux,
//	    middleware.Recovery,
//	    middleware.RequestID,
//	    middleware.Logger(logger),
//	    middleware.CORS(cfg.Server.AllowedOrigins),
//	    middleware.Compress,
//	    middleware.Metrics(collector),
//	)
//
// Auth is applied per route. It verifies the bearer token and stores the
// claims in the request context, where handlers read them back with
// GetPrincipal.
//
// RateLimit and Idempotency are also per route: the first throttles
// register and login per client, the second replays the stored response
// when a recipe creation is retried with the same Idempotency-Key.
package middleware
