// Package client is an HTTP client for the scry API. Every request passes
// through a client-side rate limiter and a circuit breaker; the client also
// implements session.Reviewer so a study session can run against a remote
// server.
package client
