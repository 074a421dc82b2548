package core

import (
	"context"

	"github.com/go-authgate/credgate/internal/models"
)

// Identity is the authenticated principal handed to downstream code.
// Name and Email may be empty when only the session claims are known.
type Identity struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// ExternalIdentity is the verified assertion produced by an OAuth exchange.
type ExternalIdentity struct {
	Provider string // "google", "github", ...
	Subject  string // Provider's user ID
	Email    string
	Name     string
}

// PasswordHasher is the one-way hash used for local passwords.
type PasswordHasher interface {
	Hash(plain string) (string, error)
	// Compare reports whether plain matches hash. A malformed or empty hash
	// never matches.
	Compare(hash, plain string) bool
}

// UserStore is the persistence boundary for user records.
// Implementations return store.ErrRecordNotFound for missing users and
// store.ErrEmailConflict when the unique email index rejects an insert.
type UserStore interface {
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	GetUserByID(ctx context.Context, id string) (*models.User, error)
	CreateUser(ctx context.Context, user *models.User) error
	UpdatePasswordHash(ctx context.Context, id, hash string) error
}
