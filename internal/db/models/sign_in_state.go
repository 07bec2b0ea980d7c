package models

import "time"

// SignInState persists which account a browser is signed in with.
type SignInState struct {
	// ClientID is the visitor's session cookie id.
	ClientID  string    `gorm:"primaryKey;size:128"`
	AccountID string    `gorm:"size:36;index;not null"`
	ExpiresAt time.Time `gorm:"index"`
	CreatedAt time.Time
}

// Expired reports whether the state is no longer valid at now.
func (s *SignInState) Expired(now time.Time) bool {
	return !now.Before(s.ExpiresAt)
}
