package handlers

import (
	"context"
	"errors"
	"log"
	"net/http"
	"net/url"

	"github.com/go-authgate/credgate/internal/auth"
	"github.com/go-authgate/credgate/internal/core"
	"github.com/go-authgate/credgate/internal/services"
	"github.com/go-authgate/credgate/internal/templates"
	"github.com/go-authgate/credgate/internal/util"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"golang.org/x/oauth2"
)

// OAuth session keys
const (
	sessionOAuthState    = "oauth_state"
	sessionOAuthProvider = "oauth_provider"
	sessionOAuthRedirect = "oauth_redirect"
)

const defaultLandingPage = "/dashboard"

// OAuthHandler handles OAuth authentication
type OAuthHandler struct {
	providers  auth.Registry
	accounts   *services.AccountService
	sessions   *services.SessionService
	httpClient *http.Client // Custom HTTP client for OAuth requests
	cookie     SessionCookie
	baseURL    string
	metrics    core.Recorder
}

// NewOAuthHandler creates a new OAuth handler
func NewOAuthHandler(
	providers auth.Registry,
	accounts *services.AccountService,
	sessions *services.SessionService,
	httpClient *http.Client,
	cookie SessionCookie,
	baseURL string,
	m core.Recorder,
) *OAuthHandler {
	return &OAuthHandler{
		providers:  providers,
		accounts:   accounts,
		sessions:   sessions,
		httpClient: httpClient,
		cookie:     cookie,
		baseURL:    baseURL,
		metrics:    m,
	}
}

// LoginWithProvider redirects user to OAuth provider
func (h *OAuthHandler) LoginWithProvider(c *gin.Context) {
	provider, ok := h.providers.Get(c.Param("provider"))
	if !ok {
		templates.RenderTempl(
			c,
			http.StatusBadRequest,
			templates.ErrorPage(templates.ErrorPageProps{
				Error: "Unsupported OAuth provider. The requested OAuth provider is not configured.",
			}),
		)
		return
	}

	state, err := util.RandomURLToken(32)
	if err != nil {
		log.Printf("[OAuth] Failed to generate state: %v", err)
		h.internalErrorPage(c, "Failed to initiate OAuth login.")
		return
	}

	session := sessions.Default(c)
	session.Set(sessionOAuthState, state)
	session.Set(sessionOAuthProvider, provider.Name())
	session.Delete(sessionOAuthRedirect)
	if redirect := c.Query("redirect"); redirect != "" {
		session.Set(sessionOAuthRedirect, redirect)
	}

	if err := session.Save(); err != nil {
		log.Printf("[OAuth] Failed to save session: %v", err)
		h.internalErrorPage(c, "Failed to save session.")
		return
	}

	c.Redirect(http.StatusTemporaryRedirect, provider.AuthCodeURL(state))
}

// OAuthCallback handles OAuth provider callback
func (h *OAuthHandler) OAuthCallback(c *gin.Context) {
	name := c.Param("provider")
	provider, ok := h.providers.Get(name)
	if !ok {
		templates.RenderTempl(
			c,
			http.StatusBadRequest,
			templates.ErrorPage(templates.ErrorPageProps{
				Error: "Invalid provider. OAuth provider not found.",
			}),
		)
		return
	}

	// Verify state (CSRF protection)
	session := sessions.Default(c)
	savedState, _ := session.Get(sessionOAuthState).(string)
	savedProvider, _ := session.Get(sessionOAuthProvider).(string)
	if savedState == "" || c.Query("state") != savedState || savedProvider != name {
		h.metrics.RecordOAuthCallback(name, false)
		templates.RenderTempl(
			c,
			http.StatusBadRequest,
			templates.ErrorPage(templates.ErrorPageProps{
				Error: "Invalid state. OAuth session expired or invalid. Please try again.",
			}),
		)
		return
	}

	redirectTo, _ := session.Get(sessionOAuthRedirect).(string)
	session.Delete(sessionOAuthState)
	session.Delete(sessionOAuthProvider)
	session.Delete(sessionOAuthRedirect)
	if err := session.Save(); err != nil {
		log.Printf("[OAuth] Failed to clear session: %v", err)
	}

	// The user declined at the provider
	if providerErr := c.Query("error"); providerErr != "" {
		h.metrics.RecordOAuthCallback(name, false)
		h.redirectToSignIn(c, "Sign-in with "+provider.DisplayName()+" was cancelled")
		return
	}

	ctx := context.WithValue(c.Request.Context(), oauth2.HTTPClient, h.httpClient)

	token, err := provider.Exchange(ctx, c.Query("code"))
	if err != nil {
		h.metrics.RecordOAuthCallback(name, false)
		log.Printf("[OAuth] Failed to exchange code: provider=%s err=%v", name, err)
		h.internalErrorPage(c, "Failed to exchange authorization code.")
		return
	}

	ext, err := provider.FetchIdentity(ctx, token)
	if err != nil {
		h.metrics.RecordOAuthCallback(name, false)
		if errors.Is(err, auth.ErrNoEmail) {
			h.redirectToSignIn(c, "Your "+provider.DisplayName()+" account has no verified email")
			return
		}
		log.Printf("[OAuth] Failed to get user info: provider=%s err=%v", name, err)
		h.internalErrorPage(c, "Failed to retrieve user information from provider.")
		return
	}

	identity, err := h.accounts.SignInWithOAuth(c.Request.Context(), ext)
	if err != nil {
		h.metrics.RecordOAuthCallback(name, false)
		if errors.Is(err, services.ErrMissingEmail) {
			h.redirectToSignIn(c, "Your "+provider.DisplayName()+" account has no verified email")
			return
		}
		log.Printf("[OAuth] Authentication failed: provider=%s err=%v", name, err)
		h.internalErrorPage(c, "Unable to authenticate your account at this time.")
		return
	}

	result, err := h.sessions.Issue(c.Request.Context(), identity, name)
	if err != nil {
		h.metrics.RecordOAuthCallback(name, false)
		log.Printf("[OAuth] Failed to issue session: provider=%s err=%v", name, err)
		h.internalErrorPage(c, "Unable to start a session.")
		return
	}

	h.metrics.RecordOAuthCallback(name, true)
	h.cookie.set(c, result.TokenString, result.ExpiresAt)
	c.Redirect(http.StatusFound, util.SafeRedirect(redirectTo, h.baseURL, defaultLandingPage))
}

func (h *OAuthHandler) redirectToSignIn(c *gin.Context, message string) {
	c.Redirect(http.StatusFound, "/sign-in?error="+url.QueryEscape(message))
}

func (h *OAuthHandler) internalErrorPage(c *gin.Context, detail string) {
	templates.RenderTempl(
		c,
		http.StatusInternalServerError,
		templates.ErrorPage(templates.ErrorPageProps{
			Error:   "Authentication failed.",
			Message: detail,
		}),
	)
}
