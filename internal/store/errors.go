package store

import "errors"

var (
	// ErrEmailConflict is returned when the unique email index rejects a write
	ErrEmailConflict = errors.New("email already exists")

	// ErrRecordNotFound wraps GORM's not found error for consistency
	ErrRecordNotFound = errors.New("record not found")

	// ErrUnsupportedDriver is returned by New for unknown driver names
	ErrUnsupportedDriver = errors.New("unsupported database driver")
)
