package auth

import "errors"

var (
	// ErrNoEmail is returned when the provider account exposes no usable email
	ErrNoEmail = errors.New("provider account has no email address")

	// ErrProviderAPI wraps non-200 responses from a provider's user API
	ErrProviderAPI = errors.New("provider API error")
)
