package token

import "errors"

var (
	// ErrTokenGeneration indicates token generation failed
	ErrTokenGeneration = errors.New("failed to generate token")

	// ErrInvalidToken indicates the token is invalid
	ErrInvalidToken = errors.New("invalid token")

	// ErrExpiredToken indicates the token has expired
	ErrExpiredToken = errors.New("token expired")

	// ErrWrongTokenType indicates a valid token presented for the wrong purpose,
	// e.g. a session token used as a reset token
	ErrWrongTokenType = errors.New("wrong token type")
)
