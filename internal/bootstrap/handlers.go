package bootstrap

import (
	"net/http"

	"github.com/go-authgate/credgate/internal/auth"
	"github.com/go-authgate/credgate/internal/config"
	"github.com/go-authgate/credgate/internal/core"
	"github.com/go-authgate/credgate/internal/handlers"
	"github.com/go-authgate/credgate/internal/middleware"
	"github.com/go-authgate/credgate/internal/services"

	"github.com/gin-gonic/gin"
)

// handlerSet holds all HTTP handlers and the session guard
type handlerSet struct {
	account        *handlers.AccountHandler
	passwordReset  *handlers.PasswordResetHandler
	oauth          *handlers.OAuthHandler
	pages          *handlers.PageHandler
	providers      auth.Registry
	requireSession gin.HandlerFunc
}

// initializeHandlers creates all HTTP handlers
func initializeHandlers(
	cfg *config.Config,
	accountService *services.AccountService,
	sessionService *services.SessionService,
	passwordResetService *services.PasswordResetService,
	oauthProviders auth.Registry,
	oauthHTTPClient *http.Client,
	prometheusMetrics core.Recorder,
) handlerSet {
	sessionCookie := handlers.SessionCookie{
		Name:   cfg.SessionCookieName,
		Secure: cfg.IsProduction,
	}

	return handlerSet{
		account: handlers.NewAccountHandler(accountService, sessionService, sessionCookie),
		passwordReset: handlers.NewPasswordResetHandler(
			passwordResetService,
			handlers.PasswordResetOptions{
				EchoLink:            cfg.PasswordResetEchoLink,
				ConcealUnknownEmail: cfg.PasswordResetConcealUnknownEmail,
			},
		),
		oauth: handlers.NewOAuthHandler(
			oauthProviders,
			accountService,
			sessionService,
			oauthHTTPClient,
			sessionCookie,
			cfg.BaseURL,
			prometheusMetrics,
		),
		pages:          handlers.NewPageHandler(oauthProviders),
		providers:      oauthProviders,
		requireSession: middleware.RequireSession(sessionService, cfg.SessionCookieName),
	}
}
