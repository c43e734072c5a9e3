// Package middleware holds the echo middleware of the fleet API: request
// ids, request-scoped logging, Clerk authentication, New Relic tracing,
// per-client rate limiting and the global error handler.
package middleware
