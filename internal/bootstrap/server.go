package bootstrap

import (
	"context"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/go-authgate/credgate/internal/config"
	"github.com/go-authgate/credgate/internal/core"
	"github.com/go-authgate/credgate/internal/metrics"
	"github.com/go-authgate/credgate/internal/store"

	"github.com/appleboy/graceful"
)

// createHTTPServer creates the HTTP server instance
func createHTTPServer(cfg *config.Config, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              cfg.ServerAddr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
}

// addServerRunningJob adds the HTTP server running job
func addServerRunningJob(m *graceful.Manager, srv *http.Server) {
	m.AddRunningJob(func(ctx context.Context) error {
		go func() {
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Fatalf("Failed to start server: %v", err)
			}
		}()
		<-ctx.Done()
		return nil
	})
}

// addServerShutdownJob adds HTTP server shutdown handler
func addServerShutdownJob(m *graceful.Manager, srv *http.Server, timeout time.Duration) {
	m.AddShutdownJob(func() error {
		log.Println("Shutting down server...")
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			log.Printf("Server forced to shutdown: %v", err)
			return err
		}

		log.Println("Server exited")
		return nil
	})
}

// addDatabaseShutdownJob closes the connection pool on shutdown
func addDatabaseShutdownJob(m *graceful.Manager, db *store.Store, timeout time.Duration) {
	m.AddShutdownJob(func() error {
		done := make(chan error, 1)
		go func() { done <- db.Close() }()

		select {
		case err := <-done:
			if err != nil {
				log.Printf("Error closing database: %v", err)
				return err
			}
			log.Println("Database connection closed")
			return nil
		case <-time.After(timeout):
			log.Printf("Database close timed out after %s", timeout)
			return context.DeadlineExceeded
		}
	})
}

// addCacheShutdownJob closes the user cache on shutdown
func addCacheShutdownJob(m *graceful.Manager, userCache core.Cache[core.Identity]) {
	if userCache == nil {
		return
	}

	m.AddShutdownJob(func() error {
		if err := userCache.Close(); err != nil {
			log.Printf("Error closing user cache: %v", err)
		} else {
			log.Println("User cache closed")
		}
		return nil
	})
}

// addMetricsGaugeUpdateJob adds periodic metrics gauge update job
func addMetricsGaugeUpdateJob(
	m *graceful.Manager,
	cfg *config.Config,
	db metrics.UserCounter,
	prometheusMetrics core.Recorder,
) {
	if !cfg.MetricsEnabled {
		return
	}

	m.AddRunningJob(func(ctx context.Context) error {
		runGaugeUpdates(ctx, cfg.MetricsGaugeUpdateInterval, db, prometheusMetrics)
		return nil
	})
}

// runGaugeUpdates refreshes the gauges now and then every interval until
// ctx is done
func runGaugeUpdates(
	ctx context.Context,
	interval time.Duration,
	db metrics.UserCounter,
	prometheusMetrics core.Recorder,
) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	// Update immediately on startup
	metrics.UpdateGauges(ctx, db, prometheusMetrics)

	for {
		select {
		case <-ticker.C:
			metrics.UpdateGauges(ctx, db, prometheusMetrics)
		case <-ctx.Done():
			return
		}
	}
}
