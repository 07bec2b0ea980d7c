// Package models contains database model definitions.
package models

// All returns every model for auto migration.
func All() []any {
	return []any{
		&Account{},
		&SignInState{},
		&PasswordResetToken{},
		&Consultation{},
	}
}
