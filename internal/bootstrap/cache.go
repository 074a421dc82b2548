package bootstrap

import (
	"context"
	"fmt"
	"log"

	"github.com/go-authgate/credgate/internal/cache"
	"github.com/go-authgate/credgate/internal/config"
	"github.com/go-authgate/credgate/internal/core"
	"github.com/go-authgate/credgate/internal/mailer"
	"github.com/go-authgate/credgate/internal/metrics"
)

const userCacheKeyPrefix = "credgate:users:"

// initializeMetrics initializes Prometheus metrics
func initializeMetrics(cfg *config.Config) core.Recorder {
	prometheusMetrics := metrics.Init(cfg.MetricsEnabled)
	if cfg.MetricsEnabled {
		log.Println("Prometheus metrics initialized")
	} else {
		log.Println("Metrics disabled (using noop implementation)")
	}
	return prometheusMetrics
}

// initializeUserCache initializes the user profile cache (defaults to memory)
func initializeUserCache(
	ctx context.Context,
	cfg *config.Config,
) (core.Cache[core.Identity], error) {
	switch cfg.UserCacheType {
	case config.UserCacheTypeRedis:
		ctx, cancel := context.WithTimeout(ctx, cfg.CacheInitTimeout)
		defer cancel()

		c, err := cache.NewRueidisCache[core.Identity](ctx, cache.RueidisOptions{
			Addr:      cfg.RedisAddr,
			Password:  cfg.RedisPassword,
			DB:        cfg.RedisDB,
			KeyPrefix: userCacheKeyPrefix,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to initialize redis user cache: %w", err)
		}
		log.Printf("User cache: redis (addr=%s, db=%d)", cfg.RedisAddr, cfg.RedisDB)
		return c, nil

	default: // memory
		log.Println("User cache: memory (single instance only)")
		return cache.NewMemoryCache[core.Identity](), nil
	}
}

// initializeMailer selects the mail dispatcher
func initializeMailer(cfg *config.Config) (core.Mailer, error) {
	m, err := mailer.New(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize mailer: %w", err)
	}
	log.Printf("Mailer: %s", cfg.MailerMode)
	return m, nil
}
