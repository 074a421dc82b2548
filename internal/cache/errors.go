package cache

import "errors"

// Errors returned by both cache backends. Callers of GetWithFetch only see
// them when the fetch itself also fails.
var (
	ErrCacheMiss        = errors.New("cache: miss")
	ErrCacheUnavailable = errors.New("cache: redis unavailable")
	ErrInvalidValue     = errors.New("cache: undecodable value")
)
