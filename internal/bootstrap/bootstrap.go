package bootstrap

import (
	"context"
	"net/http"

	"github.com/go-authgate/credgate/internal/auth"
	"github.com/go-authgate/credgate/internal/config"
	"github.com/go-authgate/credgate/internal/core"
	"github.com/go-authgate/credgate/internal/services"
	"github.com/go-authgate/credgate/internal/store"

	"github.com/appleboy/graceful"
	"github.com/gin-gonic/gin"
)

// Application holds all initialized components
type Application struct {
	Config *config.Config

	// Core infrastructure
	DB              *store.Store
	MetricsRecorder core.Recorder
	UserCache       core.Cache[core.Identity]
	Mailer          core.Mailer

	// Services
	AccountService       *services.AccountService
	SessionService       *services.SessionService
	PasswordResetService *services.PasswordResetService

	// HTTP
	OAuthProviders auth.Registry
	HandlerSet     handlerSet
	Router         *gin.Engine
	Server         *http.Server
}

// Run initializes and starts the application
func Run(ctx context.Context, cfg *config.Config) error {
	app := &Application{Config: cfg}

	// Phase 1: Validate configuration
	if err := cfg.Validate(); err != nil {
		return err
	}

	// Phase 2: Initialize infrastructure
	if err := app.initializeInfrastructure(ctx); err != nil {
		return err
	}

	// Phase 3: Initialize business layer
	app.initializeBusinessLayer()

	// Phase 4: Initialize HTTP layer
	if err := app.initializeHTTPLayer(); err != nil {
		app.closeInfrastructure()
		return err
	}

	// Phase 5: Start server with graceful shutdown
	app.startWithGracefulShutdown()

	return nil
}

// initializeInfrastructure sets up database, metrics, cache and mailer
func (app *Application) initializeInfrastructure(ctx context.Context) error {
	var err error

	app.DB, err = initializeDatabase(ctx, app.Config)
	if err != nil {
		return err
	}

	app.MetricsRecorder = initializeMetrics(app.Config)

	app.UserCache, err = initializeUserCache(ctx, app.Config)
	if err != nil {
		_ = app.DB.Close()
		return err
	}

	app.Mailer, err = initializeMailer(app.Config)
	if err != nil {
		app.closeInfrastructure()
		return err
	}

	return nil
}

// initializeBusinessLayer sets up services
func (app *Application) initializeBusinessLayer() {
	app.AccountService,
		app.SessionService,
		app.PasswordResetService = initializeServices(
		app.Config,
		app.DB,
		app.UserCache,
		app.Mailer,
		app.MetricsRecorder,
	)
}

// initializeHTTPLayer sets up handlers, router, and server
func (app *Application) initializeHTTPLayer() error {
	app.OAuthProviders = initializeOAuthProviders(app.Config)
	logOAuthProvidersStatus(app.OAuthProviders)

	oauthHTTPClient, err := createOAuthHTTPClient(app.Config)
	if err != nil {
		return err
	}

	app.HandlerSet = initializeHandlers(
		app.Config,
		app.AccountService,
		app.SessionService,
		app.PasswordResetService,
		app.OAuthProviders,
		oauthHTTPClient,
		app.MetricsRecorder,
	)

	app.Router = setupRouter(app.Config, app.DB, app.HandlerSet, app.MetricsRecorder)
	app.Server = createHTTPServer(app.Config, app.Router)
	return nil
}

// closeInfrastructure releases what initializeInfrastructure opened when
// startup fails before the graceful manager owns it
func (app *Application) closeInfrastructure() {
	if app.UserCache != nil {
		_ = app.UserCache.Close()
	}
	if app.DB != nil {
		_ = app.DB.Close()
	}
}

// startWithGracefulShutdown starts the server and handles graceful shutdown
func (app *Application) startWithGracefulShutdown() {
	m := graceful.NewManager()

	// Add jobs
	addServerRunningJob(m, app.Server)
	addServerShutdownJob(m, app.Server, app.Config.ServerShutdownTimeout)
	addMetricsGaugeUpdateJob(m, app.Config, app.DB, app.MetricsRecorder)
	addCacheShutdownJob(m, app.UserCache)
	addDatabaseShutdownJob(m, app.DB, app.Config.DBCloseTimeout)

	// Wait for graceful shutdown
	<-m.Done()
}
