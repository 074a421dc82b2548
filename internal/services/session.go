package services

import (
	"context"
	"log"
	"time"

	"github.com/go-authgate/credgate/internal/core"
)

// UserCacheKey is the user cache key for a user id
func UserCacheKey(userID string) string {
	return "user:" + userID
}

// SessionService issues and resolves stateless session tokens.
// There is no revocation list: a token is valid until it expires.
type SessionService struct {
	tokens   core.TokenProvider
	store    core.UserStore
	cache    core.Cache[core.Identity]
	cacheTTL time.Duration
	metrics  core.Recorder
}

func NewSessionService(
	tokens core.TokenProvider,
	s core.UserStore,
	cache core.Cache[core.Identity],
	cacheTTL time.Duration,
	m core.Recorder,
) *SessionService {
	return &SessionService{
		tokens:   tokens,
		store:    s,
		cache:    cache,
		cacheTTL: cacheTTL,
		metrics:  m,
	}
}

// Issue signs a session token for identity. method labels the sign-in path
// ("password" or a provider name) for metrics.
func (s *SessionService) Issue(
	ctx context.Context,
	identity core.Identity,
	method string,
) (*core.TokenResult, error) {
	result, err := s.tokens.GenerateSessionToken(ctx, identity)
	if err != nil {
		return nil, internalError("sign session token", err)
	}
	s.metrics.RecordSessionIssued(method)
	return result, nil
}

// Resolve verifies a session token and returns the identity it carries.
// Name and email are refreshed from the user record when it can be read,
// otherwise the values signed into the token are used.
func (s *SessionService) Resolve(ctx context.Context, tokenString string) (core.Identity, error) {
	claims, err := s.tokens.ValidateSessionToken(ctx, tokenString)
	if err != nil {
		return core.Identity{}, ErrInvalidSession
	}

	fallback := core.Identity{ID: claims.UserID, Name: claims.Name, Email: claims.Email}

	identity, err := s.cache.GetWithFetch(ctx, UserCacheKey(claims.UserID), s.cacheTTL,
		func(ctx context.Context, _ string) (core.Identity, error) {
			user, err := s.store.GetUserByID(ctx, claims.UserID)
			if err != nil {
				return core.Identity{}, err
			}
			return identityOf(user), nil
		})
	if err != nil {
		log.Printf("[Session] profile refresh failed for user=%s: %v", claims.UserID, err)
		return fallback, nil
	}

	return identity, nil
}

// Forget drops the cached profile of userID
func (s *SessionService) Forget(ctx context.Context, userID string) {
	if err := s.cache.Delete(ctx, UserCacheKey(userID)); err != nil {
		log.Printf("[Session] cache invalidation failed for user=%s: %v", userID, err)
	}
}
