package accounts

import (
	"errors"
	"fmt"

	"github.com/GreenNest/GreenNest/internal/identity"
)

var (
	// ErrAccountNotFound is returned when no account matches the email address.
	ErrAccountNotFound = fmt.Errorf("%w: account not found", identity.ErrInvalidCredentials)

	// ErrWrongPassword is returned when the password does not match the account.
	ErrWrongPassword = fmt.Errorf("%w: wrong password", identity.ErrInvalidCredentials)

	// ErrEmailTaken is returned when creating an account for a registered email address.
	ErrEmailTaken = fmt.Errorf("%w: email already registered", identity.ErrAccountExists)

	// ErrWeakCredential is returned when a new password is shorter than the backend minimum.
	ErrWeakCredential = fmt.Errorf("%w: password too short", identity.ErrWeakPassword)

	// ErrFederatedRejected is returned when the federated provider rejects the credential.
	ErrFederatedRejected = fmt.Errorf("%w: federated credential rejected", identity.ErrInvalidCredentials)

	// ErrInvalidEmail is returned for an empty or malformed email address.
	ErrInvalidEmail = errors.New("invalid email address")

	// ErrProviderUnavailable is returned when the federated provider is not configured.
	ErrProviderUnavailable = errors.New("federated provider not configured")

	// ErrNoIDToken is returned when the OAuth2 token response doesn't contain an ID token.
	ErrNoIDToken = errors.New("no id_token in token response")

	// ErrResetTokenInvalid is returned for unknown, used or expired password reset tokens.
	ErrResetTokenInvalid = errors.New("password reset link is invalid or has expired")
)
