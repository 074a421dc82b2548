package mailer

import (
	"context"
	"log"

	"github.com/go-authgate/credgate/internal/core"
)

var _ core.Mailer = (*LogMailer)(nil)

// LogMailer writes a summary of each message to the log instead of sending it.
// Bodies are not logged because they carry reset links.
type LogMailer struct{}

func NewLogMailer() *LogMailer {
	return &LogMailer{}
}

func (m *LogMailer) Send(ctx context.Context, msg core.MailMessage) error {
	if msg.To == "" {
		return ErrInvalidMessage
	}
	log.Printf("[Mail] (log mode) to=%s subject=%q text=%dB html=%dB",
		msg.To, msg.Subject, len(msg.TextBody), len(msg.HTMLBody))
	return nil
}
