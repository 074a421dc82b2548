package mailer

import (
	"context"
	"fmt"
	"log"

	"github.com/go-authgate/credgate/internal/config"
	"github.com/go-authgate/credgate/internal/core"

	"github.com/wneessen/go-mail"
)

var _ core.Mailer = (*SMTPMailer)(nil)

// SMTPMailer delivers messages through an SMTP relay. Each Send dials once;
// failures are reported to the caller and never retried.
type SMTPMailer struct {
	client   *mail.Client
	from     string
	fromName string
}

// NewSMTPMailer creates an SMTP mailer from the SMTP_* settings
func NewSMTPMailer(cfg *config.Config) (*SMTPMailer, error) {
	opts := []mail.Option{
		mail.WithPort(cfg.SMTPPort),
		mail.WithTLSPolicy(tlsPolicy(cfg.SMTPTLSPolicy)),
		mail.WithTimeout(cfg.SMTPTimeout),
	}
	if cfg.SMTPUsername != "" {
		opts = append(opts,
			mail.WithSMTPAuth(mail.SMTPAuthPlain),
			mail.WithUsername(cfg.SMTPUsername),
			mail.WithPassword(cfg.SMTPPassword),
		)
	}

	client, err := mail.NewClient(cfg.SMTPHost, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create SMTP client: %w", err)
	}

	return &SMTPMailer{
		client:   client,
		from:     cfg.MailFrom,
		fromName: cfg.MailFromName,
	}, nil
}

func tlsPolicy(policy string) mail.TLSPolicy {
	switch policy {
	case config.SMTPTLSOpportunistic:
		return mail.TLSOpportunistic
	case config.SMTPTLSNone:
		return mail.NoTLS
	default:
		return mail.TLSMandatory
	}
}

// buildMessage converts msg into a go-mail message with a plain-text body
// and an optional HTML alternative
func (m *SMTPMailer) buildMessage(msg core.MailMessage) (*mail.Msg, error) {
	if msg.TextBody == "" && msg.HTMLBody == "" {
		return nil, fmt.Errorf("%w: empty body", ErrInvalidMessage)
	}

	out := mail.NewMsg()

	var err error
	if m.fromName != "" {
		err = out.FromFormat(m.fromName, m.from)
	} else {
		err = out.From(m.from)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: from: %v", ErrInvalidMessage, err)
	}
	if err := out.To(msg.To); err != nil {
		return nil, fmt.Errorf("%w: to: %v", ErrInvalidMessage, err)
	}
	out.Subject(msg.Subject)

	switch {
	case msg.TextBody != "" && msg.HTMLBody != "":
		out.SetBodyString(mail.TypeTextPlain, msg.TextBody)
		out.AddAlternativeString(mail.TypeTextHTML, msg.HTMLBody)
	case msg.TextBody != "":
		out.SetBodyString(mail.TypeTextPlain, msg.TextBody)
	default:
		out.SetBodyString(mail.TypeTextHTML, msg.HTMLBody)
	}

	return out, nil
}

// Send delivers msg
func (m *SMTPMailer) Send(ctx context.Context, msg core.MailMessage) error {
	out, err := m.buildMessage(msg)
	if err != nil {
		return err
	}

	if err := m.client.DialAndSendWithContext(ctx, out); err != nil {
		log.Printf("[Mail] SMTP delivery to %s failed: %v", msg.To, err)
		return fmt.Errorf("%w: %v", ErrSendFailed, err)
	}
	return nil
}
