package core

import (
	"context"
	"time"
)

// Token type claim values.
const (
	TokenTypeSession = "session"
	TokenTypeReset   = "reset"
)

// TokenResult is the outcome of a token generation call.
type TokenResult struct {
	TokenString string
	TokenType   string
	ExpiresAt   time.Time
	Claims      map[string]any
}

// TokenValidationResult is the outcome of a token validation call.
type TokenValidationResult struct {
	UserID    string
	Name      string
	Email     string
	ExpiresAt time.Time
	Claims    map[string]any
}

// TokenProvider signs and verifies the session and reset tokens.
type TokenProvider interface {
	GenerateSessionToken(ctx context.Context, identity Identity) (*TokenResult, error)
	GenerateResetToken(ctx context.Context, userID string) (*TokenResult, error)
	ValidateSessionToken(ctx context.Context, tokenString string) (*TokenValidationResult, error)
	ValidateResetToken(ctx context.Context, tokenString string) (*TokenValidationResult, error)
	Name() string
}
