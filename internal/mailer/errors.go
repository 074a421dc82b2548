package mailer

import "errors"

var (
	// ErrInvalidMessage indicates the message could not be built (bad address, empty body)
	ErrInvalidMessage = errors.New("invalid mail message")

	// ErrSendFailed indicates the SMTP exchange failed
	ErrSendFailed = errors.New("failed to send mail")
)
