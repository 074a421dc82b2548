package mailer

import (
	"fmt"

	"github.com/go-authgate/credgate/internal/config"
	"github.com/go-authgate/credgate/internal/core"
)

// New returns the mailer selected by cfg.MailerMode
func New(cfg *config.Config) (core.Mailer, error) {
	switch cfg.MailerMode {
	case config.MailerModeSMTP:
		return NewSMTPMailer(cfg)
	case config.MailerModeLog, "":
		return NewLogMailer(), nil
	default:
		return nil, fmt.Errorf("unsupported mailer mode: %s", cfg.MailerMode)
	}
}
