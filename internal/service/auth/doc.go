// Package auth validates the bearer tokens presented to the API. Tokens are
// issued by an external identity layer using a shared HMAC secret; this
// package can also mint them for development and tests.
package auth
