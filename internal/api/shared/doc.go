// Package shared holds the request context keys, JSON decoding and
// response helpers used by both the API handlers and the middleware.
package shared
