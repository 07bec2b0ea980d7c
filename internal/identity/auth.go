package identity

import (
	"context"
	"errors"

	"github.com/rs/zerolog/log"
)

// Operation names used in errors, logs and metrics.
const (
	OpSignIn           = "sign_in"
	OpSignUp           = "sign_up"
	OpRegister         = "register"
	OpSignInWithGoogle = "sign_in_with_google"
	OpResetPassword    = "reset_password"
	OpUpdateProfile    = "update_profile"
	OpSignOut          = "sign_out"
)

// Auth mediates all credential operations of one visitor.
//
// Auth never writes Session state. The resulting state change arrives through
// the backend's identity-changed notification at the Store.
type Auth struct {
	backend Backend
	store   *Store
}

// NewAuth creates an Auth that reads the signed-in state from store.
func NewAuth(backend Backend, store *Store) *Auth {
	return &Auth{backend: backend, store: store}
}

// SignIn signs in with email and password.
func (a *Auth) SignIn(ctx context.Context, email, password string) error {
	identity, err := a.backend.SignInWithPassword(ctx, email, password)
	if err != nil {
		return a.fail(OpSignIn, err)
	}

	log.Info().Str("identity", identity.ID).Msg("signed in with password")

	return nil
}

// SignUp creates an account after checking the password policy. The backend
// is not contacted for a weak password. Profile fields are left empty.
func (a *Auth) SignUp(ctx context.Context, email, password string) error {
	if err := ValidatePassword(password); err != nil {
		return a.fail(OpSignUp, err)
	}

	identity, err := a.backend.CreateAccount(ctx, email, password)
	if err != nil {
		return a.fail(OpSignUp, err)
	}

	log.Info().Str("identity", identity.ID).Msg("account created")

	return nil
}

// Register signs up and then sets the profile of the new account. When the
// second step fails the account is kept and a *ProfileUpdateError is returned.
func (a *Auth) Register(ctx context.Context, email, password, displayName, avatarURL string) error {
	if err := a.SignUp(ctx, email, password); err != nil {
		return err
	}

	// the backend signs the new account in while creating it
	if err := a.backend.UpdateIdentityProfile(ctx, displayName, avatarURL); err != nil {
		return &ProfileUpdateError{Err: a.fail(OpRegister, err)}
	}

	return nil
}

// SignInWithGoogle completes a Google sign-in with the credential returned to
// the redirect callback. The account is created on first use.
func (a *Auth) SignInWithGoogle(ctx context.Context, credential FederatedCredential) error {
	if credential.Provider == "" {
		credential.Provider = ProviderGoogle
	}

	identity, err := a.backend.SignInFederated(ctx, credential)
	if err != nil {
		return a.fail(OpSignInWithGoogle, err)
	}

	log.Info().Str("identity", identity.ID).Str("provider", credential.Provider).Msg("signed in with federated provider")

	return nil
}

// ResetPassword asks the backend to mail a password reset link. An unknown
// address is reported as success.
func (a *Auth) ResetPassword(ctx context.Context, email string) error {
	err := a.backend.SendPasswordReset(ctx, email)
	if errors.Is(err, ErrInvalidCredentials) {
		log.Debug().Msg("password reset requested for unknown address")
		return nil
	}

	if err != nil {
		return a.fail(OpResetPassword, err)
	}

	return nil
}

// UpdateProfile changes display name and avatar of the signed-in identity.
func (a *Auth) UpdateProfile(ctx context.Context, displayName, avatarURL string) error {
	current := a.store.Current().Identity
	if current == nil {
		return a.fail(OpUpdateProfile, ErrNotAuthenticated)
	}

	if err := a.backend.UpdateIdentityProfile(ctx, displayName, avatarURL); err != nil {
		return a.fail(OpUpdateProfile, err)
	}

	log.Info().Str("identity", current.ID).Msg("profile updated")

	return nil
}

// SignOut ends the session. Signing out while signed out does nothing.
func (a *Auth) SignOut(ctx context.Context) error {
	session := a.store.Current()
	if !session.IsResolving && session.Identity == nil {
		return nil
	}

	if err := a.backend.SignOut(ctx); err != nil {
		return a.fail(OpSignOut, err)
	}

	if session.Identity != nil {
		log.Info().Str("identity", session.Identity.ID).Msg("signed out")
	}

	return nil
}

func (a *Auth) fail(op string, err error) error {
	wrapped := wrap(op, err)

	log.Debug().Err(wrapped).Str("operation", op).Msg("auth operation failed")

	return wrapped
}
