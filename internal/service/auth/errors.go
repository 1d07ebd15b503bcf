package auth

import "errors"

// Token validation failures. The middleware maps ErrExpiredToken to its own
// message and every other one to "Invalid token".
var (
	ErrMissingToken     = errors.New("authentication token is missing")
	ErrInvalidToken     = errors.New("invalid authentication token")
	ErrExpiredToken     = errors.New("authentication token has expired")
	ErrTokenNotYetValid = errors.New("authentication token not yet valid")

	// ErrWrongTokenType rejects a token minted for another purpose.
	ErrWrongTokenType = errors.New("wrong token type")

	// ErrMissingUser rejects a well-signed token with no usable uid or sub.
	ErrMissingUser = errors.New("authentication token has no user")
)
