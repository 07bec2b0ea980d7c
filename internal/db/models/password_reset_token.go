package models

import "time"

// PasswordResetToken is a single-use password reset link. Only the SHA-256
// hash of the token is stored.
type PasswordResetToken struct {
	ID        uint64 `gorm:"primaryKey"`
	TokenHash string `gorm:"uniqueIndex;size:64;not null"`
	AccountID string `gorm:"size:36;index;not null"`
	ExpiresAt time.Time
	UsedAt    *time.Time
	CreatedAt time.Time
}

// Usable reports whether the token can still be redeemed at now.
func (t *PasswordResetToken) Usable(now time.Time) bool {
	return t.UsedAt == nil && now.Before(t.ExpiresAt)
}
