package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/go-authgate/credgate/internal/core"

	"github.com/gin-gonic/gin"
)

// ContextKeyIdentity is the gin context key holding the core.Identity
const ContextKeyIdentity = "identity"

// SessionResolver turns a session token into an identity
type SessionResolver interface {
	Resolve(ctx context.Context, tokenString string) (core.Identity, error)
}

// bearerToken returns the token of an "Authorization: Bearer" header
func bearerToken(c *gin.Context) (string, bool) {
	const prefix = "Bearer "
	h := c.GetHeader("Authorization")
	if len(h) <= len(prefix) || !strings.EqualFold(h[:len(prefix)], prefix) {
		return "", false
	}
	return strings.TrimSpace(h[len(prefix):]), true
}

// SessionToken returns the session token from the cookie, falling back to
// a bearer header
func SessionToken(c *gin.Context, cookieName string) string {
	if v, err := c.Cookie(cookieName); err == nil && v != "" {
		return v
	}
	if tok, ok := bearerToken(c); ok {
		return tok
	}
	return ""
}

// RequireSession resolves the session token and stores the identity in the
// context. API routes (/api/...) get a JSON 401, pages redirect to /sign-in.
func RequireSession(resolver SessionResolver, cookieName string) gin.HandlerFunc {
	return func(c *gin.Context) {
		tok := SessionToken(c, cookieName)
		if tok != "" {
			if identity, err := resolver.Resolve(c.Request.Context(), tok); err == nil {
				c.Set(ContextKeyIdentity, identity)
				c.Next()
				return
			}
		}

		if strings.HasPrefix(c.Request.URL.Path, "/api/") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "Not authenticated",
			})
			return
		}
		c.Redirect(http.StatusFound, "/sign-in")
		c.Abort()
	}
}

// GetIdentity returns the identity stored by RequireSession
func GetIdentity(c *gin.Context) (core.Identity, bool) {
	v, ok := c.Get(ContextKeyIdentity)
	if !ok {
		return core.Identity{}, false
	}
	identity, ok := v.(core.Identity)
	return identity, ok
}
