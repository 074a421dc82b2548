package token

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-authgate/credgate/internal/config"
	"github.com/go-authgate/credgate/internal/core"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Compile-time interface check.
var _ core.TokenProvider = (*LocalTokenProvider)(nil)

// LocalTokenProvider signs and verifies HS256 tokens with the shared JWT secret
type LocalTokenProvider struct {
	config *config.Config
	now    func() time.Time
}

// NewLocalTokenProvider creates a new local token provider
func NewLocalTokenProvider(cfg *config.Config) *LocalTokenProvider {
	return &LocalTokenProvider{config: cfg, now: time.Now}
}

// generateJWT creates a signed JWT with the common claims plus extra
func (p *LocalTokenProvider) generateJWT(
	userID, tokenType string,
	lifetime time.Duration,
	extra jwt.MapClaims,
) (*core.TokenResult, error) {
	now := p.now()
	expiresAt := now.Add(lifetime)

	claims := jwt.MapClaims{
		"user_id": userID,
		"sub":     userID,
		"type":    tokenType,
		"exp":     expiresAt.Unix(),
		"iat":     now.Unix(),
		"iss":     p.config.BaseURL,
		"jti":     uuid.New().String(),
	}
	for k, v := range extra {
		claims[k] = v
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString([]byte(p.config.JWTSecret))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTokenGeneration, err)
	}

	return &core.TokenResult{
		TokenString: tokenString,
		TokenType:   tokenType,
		ExpiresAt:   time.Unix(expiresAt.Unix(), 0),
		Claims:      claims,
	}, nil
}

// GenerateSessionToken signs a session token for identity
func (p *LocalTokenProvider) GenerateSessionToken(
	ctx context.Context,
	identity core.Identity,
) (*core.TokenResult, error) {
	if identity.ID == "" {
		return nil, fmt.Errorf("%w: empty user id", ErrTokenGeneration)
	}
	return p.generateJWT(identity.ID, core.TokenTypeSession, p.config.SessionExpiration,
		jwt.MapClaims{
			"name":  identity.Name,
			"email": identity.Email,
		})
}

// GenerateResetToken signs a single-purpose password reset token for userID
func (p *LocalTokenProvider) GenerateResetToken(
	ctx context.Context,
	userID string,
) (*core.TokenResult, error) {
	if userID == "" {
		return nil, fmt.Errorf("%w: empty user id", ErrTokenGeneration)
	}
	return p.generateJWT(userID, core.TokenTypeReset, p.config.ResetTokenExpiration, nil)
}

// ValidateSessionToken verifies a session token
func (p *LocalTokenProvider) ValidateSessionToken(
	ctx context.Context,
	tokenString string,
) (*core.TokenValidationResult, error) {
	return p.validate(tokenString, core.TokenTypeSession)
}

// ValidateResetToken verifies a reset token
func (p *LocalTokenProvider) ValidateResetToken(
	ctx context.Context,
	tokenString string,
) (*core.TokenValidationResult, error) {
	return p.validate(tokenString, core.TokenTypeReset)
}

func (p *LocalTokenProvider) validate(
	tokenString, wantType string,
) (*core.TokenValidationResult, error) {
	if tokenString == "" {
		return nil, ErrInvalidToken
	}

	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(p.config.JWTSecret), nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithIssuer(p.config.BaseURL),
		jwt.WithTimeFunc(p.now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrExpiredToken
		}
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	if !token.Valid {
		return nil, ErrInvalidToken
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, ErrInvalidToken
	}

	if tokenType, _ := claims["type"].(string); tokenType != wantType {
		return nil, ErrWrongTokenType
	}

	userID, _ := claims["user_id"].(string)
	if userID == "" {
		return nil, fmt.Errorf("%w: missing user_id", ErrInvalidToken)
	}
	name, _ := claims["name"].(string)
	email, _ := claims["email"].(string)

	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return nil, ErrInvalidToken
	}

	return &core.TokenValidationResult{
		UserID:    userID,
		Name:      name,
		Email:     email,
		ExpiresAt: exp.Time,
		Claims:    claims,
	}, nil
}

// Name returns provider name for logging
func (p *LocalTokenProvider) Name() string {
	return "local"
}
