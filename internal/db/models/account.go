package models

import (
	"time"

	"github.com/alexedwards/argon2id"
	"gorm.io/gorm"

	"github.com/GreenNest/GreenNest/internal/identity"
)

// Provider represents the way an account signs in.
type Provider string

const (
	// ProviderPassword indicates an email and password account.
	ProviderPassword Provider = "password"
	// ProviderGoogle indicates an account created by Google sign-in.
	ProviderGoogle Provider = identity.ProviderGoogle
)

// Account represents a GreenNest customer account.
type Account struct {
	// ID is a UUID assigned on creation.
	ID string `gorm:"primaryKey;size:36"`
	// Email is stored lower-cased. It is nil for federated accounts without an address.
	Email *string `gorm:"uniqueIndex;size:255"`
	// PasswordHash is the Argon2id hash, empty for federated-only accounts.
	PasswordHash string `gorm:"size:255"`
	DisplayName  string `gorm:"size:255"`
	AvatarURL    string `gorm:"size:2048"`
	// Provider is the provider the account was created with.
	Provider Provider `gorm:"type:varchar(20);not null;default:'password'"`
	// ExternalID is the subject claim of the federated provider.
	ExternalID string `gorm:"size:255;index"`
	CreatedAt  time.Time
	UpdatedAt  time.Time
	DeletedAt  gorm.DeletedAt `gorm:"index"`
}

// HashPassword hashes a plaintext password using the Argon2id algorithm
// with the default parameters.
func HashPassword(password string) (string, error) {
	return argon2id.CreateHash(password, argon2id.DefaultParams)
}

// SetPassword replaces the password hash of the account.
func (a *Account) SetPassword(password string) error {
	hash, err := HashPassword(password)
	if err != nil {
		return err
	}

	a.PasswordHash = hash

	return nil
}

// VerifyPassword verifies a plaintext password against the stored hash in
// constant time. Accounts without a password never match.
func (a *Account) VerifyPassword(password string) (bool, error) {
	if a.PasswordHash == "" {
		return false, nil
	}

	return argon2id.ComparePasswordAndHash(password, a.PasswordHash)
}

// EmailAddress returns the email address or an empty string.
func (a *Account) EmailAddress() string {
	if a.Email == nil {
		return ""
	}

	return *a.Email
}

// Identity converts the account to the identity reported to the session core.
func (a *Account) Identity() *identity.Identity {
	return &identity.Identity{
		ID:          a.ID,
		Email:       a.EmailAddress(),
		DisplayName: a.DisplayName,
		AvatarURL:   a.AvatarURL,
	}
}
