package models

import (
	"time"
)

// AuthSourceLocal marks accounts created through sign-up.
const AuthSourceLocal = "local"

type User struct {
	ID           string `gorm:"primaryKey"                json:"id"`
	Email        string `gorm:"uniqueIndex;not null"      json:"email"`
	PasswordHash string `                                 json:"-"` // OAuth-only users have empty password
	Name         string `                                 json:"name"`

	// Identity provider that provisioned the account, "local" for sign-up
	Provider   string `json:"provider,omitempty"`
	ProviderID string `json:"-"` // Provider's subject, kept for traceability only

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName pins the table name for both drivers.
func (User) TableName() string {
	return "users"
}

// HasPassword reports whether the account can sign in with a local password.
func (u *User) HasPassword() bool {
	return u.PasswordHash != ""
}

// IsExternal returns true if the account was provisioned by an OAuth provider.
func (u *User) IsExternal() bool {
	return u.Provider != "" && u.Provider != AuthSourceLocal
}
