package core

import "context"

// MailMessage is a single outgoing email.
type MailMessage struct {
	To       string
	Subject  string
	TextBody string
	HTMLBody string // Optional alternative part
}

// Mailer delivers email. Send is attempted once; callers do not retry.
type Mailer interface {
	Send(ctx context.Context, msg MailMessage) error
}
