package identity

import "context"

// ProviderGoogle names the Google federated identity provider.
const ProviderGoogle = "google"

// FederatedCredential is the result of a completed federated redirect flow.
type FederatedCredential struct {
	// Provider names the federated identity provider, e.g. ProviderGoogle.
	Provider string
	// Code is the authorization code returned to the callback.
	Code string
	// CodeVerifier is the PKCE verifier that belongs to Code.
	CodeVerifier string
}

// Backend is the external identity service the core consumes.
//
// A successful credential operation must be followed by an identity-changed
// notification to every listener. UpdateIdentityProfile and SignOut must emit
// before they return; a sign-out while nobody is signed in emits nothing.
type Backend interface {
	SignInWithPassword(ctx context.Context, email, password string) (*Identity, error)
	CreateAccount(ctx context.Context, email, password string) (*Identity, error)
	SignInFederated(ctx context.Context, credential FederatedCredential) (*Identity, error)
	SendPasswordReset(ctx context.Context, email string) error
	UpdateIdentityProfile(ctx context.Context, displayName, avatarURL string) error
	SignOut(ctx context.Context) error

	// OnIdentityChanged registers a listener for identity changes, nil means
	// signed out. The first call after the backend has determined the
	// persisted state carries that state.
	OnIdentityChanged(listener func(*Identity)) (unsubscribe func())
}
