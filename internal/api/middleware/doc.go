// Package middleware holds the HTTP middleware of the API server: trace
// IDs with request-scoped loggers, bearer-token authentication and
// per-user rate limiting.
package middleware
