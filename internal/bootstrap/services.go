package bootstrap

import (
	"github.com/go-authgate/credgate/internal/auth"
	"github.com/go-authgate/credgate/internal/config"
	"github.com/go-authgate/credgate/internal/core"
	"github.com/go-authgate/credgate/internal/services"
	"github.com/go-authgate/credgate/internal/store"
	"github.com/go-authgate/credgate/internal/token"
)

// initializeServices creates all business logic services
func initializeServices(
	cfg *config.Config,
	db *store.Store,
	userCache core.Cache[core.Identity],
	mailer core.Mailer,
	prometheusMetrics core.Recorder,
) (*services.AccountService, *services.SessionService, *services.PasswordResetService) {
	hasher := auth.NewBcryptHasher(cfg.BcryptCost)
	tokenProvider := token.NewLocalTokenProvider(cfg)
	policy := services.PasswordPolicyFromConfig(cfg)

	accountService := services.NewAccountService(db, hasher, policy, prometheusMetrics)
	sessionService := services.NewSessionService(
		tokenProvider,
		db,
		userCache,
		cfg.UserCacheTTL,
		prometheusMetrics,
	)
	passwordResetService := services.NewPasswordResetService(
		db,
		hasher,
		tokenProvider,
		mailer,
		sessionService,
		policy,
		services.PasswordResetConfig{
			ResetURLBase: cfg.ResetURLBase,
			SenderName:   cfg.MailFromName,
		},
		prometheusMetrics,
	)

	return accountService, sessionService, passwordResetService
}
