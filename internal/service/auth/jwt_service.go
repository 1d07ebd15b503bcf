package auth

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// JWTService mints and checks the bearer tokens that identify a learner.
// The server only needs ValidateToken; GenerateToken backs the token
// command and tests.
type JWTService interface {
	GenerateToken(ctx context.Context, userID uuid.UUID) (string, error)

	// ValidateToken checks signature, expiry and token type and returns the
	// claims. Errors wrap the sentinels in errors.go.
	ValidateToken(ctx context.Context, tokenString string) (*Claims, error)
}

// Claims is the validated content of a token.
type Claims struct {
	// UserID comes from the uid claim, or from sub when uid is absent.
	UserID uuid.UUID `json:"uid,omitempty"`

	// TokenType is "access" for tokens minted here. Tokens from an external
	// identity provider may leave it empty.
	TokenType string `json:"type,omitempty"`

	Subject   string    `json:"sub,omitempty"`
	IssuedAt  time.Time `json:"iat,omitempty"`
	ExpiresAt time.Time `json:"exp,omitempty"`
	ID        string    `json:"jti,omitempty"`
}
