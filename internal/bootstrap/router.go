package bootstrap

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/go-authgate/credgate/internal/config"
	"github.com/go-authgate/credgate/internal/core"
	"github.com/go-authgate/credgate/internal/metrics"
	"github.com/go-authgate/credgate/internal/middleware"
	"github.com/go-authgate/credgate/internal/version"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// HealthChecker is the database capability used by /health
type HealthChecker interface {
	Health(ctx context.Context) error
}

// setupRouter configures the Gin router with all routes and middleware
func setupRouter(
	cfg *config.Config,
	db HealthChecker,
	h handlerSet,
	prometheusMetrics core.Recorder,
) *gin.Engine {
	// Setup Gin mode
	setupGinMode(cfg)
	r := gin.New()

	// Setup middleware
	r.Use(metrics.HTTPMetricsMiddleware(prometheusMetrics))
	r.Use(gin.Logger(), gin.Recovery())

	// OAuth state lives in a signed cookie between login and callback
	setupSessionMiddleware(r, cfg)

	// Health check endpoint
	r.GET("/health", createHealthCheckHandler(db))

	// Setup metrics endpoint
	setupMetricsEndpoint(r, cfg)

	// Setup all routes
	setupAllRoutes(r, h)

	// Log server startup info
	logServerStartup(cfg)

	return r
}

// setupSessionMiddleware configures session handling middleware
func setupSessionMiddleware(r *gin.Engine, cfg *config.Config) {
	sessionStore := cookie.NewStore([]byte(cfg.SessionSecret))
	sessionStore.Options(sessions.Options{
		Path:     "/",
		MaxAge:   cfg.OAuthStateMaxAge,
		HttpOnly: true,
		Secure:   cfg.IsProduction,
		SameSite: http.SameSiteLaxMode,
	})
	r.Use(sessions.Sessions("oauth_session", sessionStore))
}

// setupMetricsEndpoint configures the Prometheus metrics endpoint
func setupMetricsEndpoint(r *gin.Engine, cfg *config.Config) {
	switch {
	case !cfg.MetricsEnabled:
		log.Printf("Prometheus metrics disabled")
	case cfg.MetricsToken != "":
		log.Printf("Prometheus metrics enabled at /metrics with Bearer token authentication")
		r.GET(
			"/metrics",
			middleware.MetricsAuthMiddleware(cfg.MetricsToken),
			gin.WrapH(promhttp.Handler()),
		)
	default:
		log.Printf("Prometheus metrics enabled at /metrics (no authentication)")
		r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	}
}

// setupAllRoutes configures all application routes
func setupAllRoutes(r *gin.Engine, h handlerSet) {
	r.GET("/", func(c *gin.Context) {
		c.Redirect(http.StatusFound, "/dashboard")
	})

	// Pages
	r.GET("/sign-in", h.pages.SignIn)
	r.GET("/sign-up", h.pages.SignUp)
	r.GET("/reset_password", h.pages.ResetPassword)
	r.GET("/dashboard", h.requireSession, h.pages.Dashboard)

	// JSON API
	api := r.Group("/api/auth")
	{
		api.POST("/sign-up", h.account.SignUp)
		api.POST("/sign-in", h.account.SignIn)
		api.POST("/sign-out", h.account.SignOut)
		api.GET("/session", h.requireSession, h.account.Session)
		api.POST("/sent-email-reset", h.passwordReset.RequestReset)
		api.POST("/reset_password", h.passwordReset.CompleteReset)
	}

	// OAuth routes
	if len(h.providers) > 0 {
		oauthGroup := r.Group("/auth")
		oauthGroup.GET("/login/:provider", h.oauth.LoginWithProvider)
		oauthGroup.GET("/callback/:provider", h.oauth.OAuthCallback)
	}
}

// createHealthCheckHandler creates health check endpoint handler
func createHealthCheckHandler(db HealthChecker) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()

		switch err := db.Health(ctx); err {
		case nil:
			c.JSON(http.StatusOK, gin.H{
				"status":   "healthy",
				"database": "connected",
			})
		default:
			log.Printf("[Health] database check failed: %v", err)
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status":   "unhealthy",
				"database": "disconnected",
			})
		}
	}
}

// setupGinMode runs gin in release mode in production
func setupGinMode(cfg *config.Config) {
	if cfg.IsProduction {
		gin.SetMode(gin.ReleaseMode)
	} else {
		gin.SetMode(gin.DebugMode)
	}
	log.Printf("Gin mode: %s", gin.Mode())
}

// logServerStartup logs server startup information
func logServerStartup(cfg *config.Config) {
	log.Printf("%s starting on %s", version.String(), cfg.ServerAddr)
	log.Printf("Sign-in page: %s/sign-in", cfg.BaseURL)
	log.Printf("Password reset links: %s?token=...", cfg.ResetURLBase)
}
