package identity_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GreenNest/GreenNest/internal/identity"
	"github.com/GreenNest/GreenNest/internal/identity/identitytest"
)

func newProvider(t *testing.T) (*identity.Provider, *identitytest.Backend) {
	t.Helper()

	backend := identitytest.New()
	provider := identity.NewProvider(backend, "/login")
	backend.Resolve(nil)

	t.Cleanup(provider.Close)

	return provider, backend
}

func TestAuth_SignInUpdatesStoreThroughNotification(t *testing.T) {
	provider, backend := newProvider(t)
	alice := backend.AddAccount("alice@example.com", "Secret1", "Alice")

	var during identity.Session

	provider.Store.Subscribe(func(s identity.Session) { during = s })

	require.NoError(t, provider.Auth.SignIn(context.Background(), "alice@example.com", "Secret1"))

	require.NotNil(t, during.Identity)
	assert.Equal(t, alice, *during.Identity)
	assert.Equal(t, alice, *provider.Store.Current().Identity)
}

func TestAuth_CurrentUnchangedUntilNotification(t *testing.T) {
	backend := identitytest.New()
	provider := identity.NewProvider(backend, "/login")
	backend.AddAccount("alice@example.com", "Secret1", "Alice")

	// the sign-in notification is the first one and also resolves the store
	before := provider.Store.Current()
	assert.True(t, before.IsResolving)
	assert.Nil(t, before.Identity)

	require.NoError(t, provider.Auth.SignIn(context.Background(), "alice@example.com", "Secret1"))

	after := provider.Store.Current()
	assert.False(t, after.IsResolving)
	assert.NotNil(t, after.Identity)
}

func TestAuth_SignInFailures(t *testing.T) {
	tests := []struct {
		name    string
		inject  error
		wantErr error
	}{
		{name: "wrong password", wantErr: identity.ErrInvalidCredentials},
		{name: "network", inject: context.DeadlineExceeded, wantErr: identity.ErrNetworkFailure},
		{name: "unknown", inject: errors.New("backend exploded"), wantErr: identity.ErrUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			provider, backend := newProvider(t)
			backend.AddAccount("alice@example.com", "Secret1", "Alice")
			backend.Fail(identitytest.OpSignInWithPassword, tt.inject)

			err := provider.Auth.SignIn(context.Background(), "alice@example.com", "wrong")
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.wantErr)
			assert.Equal(t, tt.wantErr, identity.Kind(err))
			assert.Nil(t, provider.Store.Current().Identity)
		})
	}
}

func TestAuth_SignUpRejectsWeakPasswordLocally(t *testing.T) {
	provider, backend := newProvider(t)

	err := provider.Auth.SignUp(context.Background(), "bob@example.com", "abc123")
	require.Error(t, err)
	assert.ErrorIs(t, err, identity.ErrWeakPassword)

	var weak *identity.WeakPasswordError
	require.ErrorAs(t, err, &weak)
	assert.Equal(t, identity.RuleUppercase, weak.Rule)
	assert.Empty(t, backend.Calls())

	require.NoError(t, provider.Auth.SignUp(context.Background(), "bob@example.com", "Abc123"))
	assert.Equal(t, []string{identitytest.OpCreateAccount}, backend.Calls())
	assert.Equal(t, "bob@example.com", provider.Store.Current().Identity.Email)
	assert.Empty(t, provider.Store.Current().Identity.DisplayName)
}

func TestAuth_SignUpExistingAccount(t *testing.T) {
	provider, backend := newProvider(t)
	backend.AddAccount("alice@example.com", "Secret1", "Alice")

	err := provider.Auth.SignUp(context.Background(), "alice@example.com", "Secret2")
	assert.ErrorIs(t, err, identity.ErrAccountExists)
}

func TestAuth_Register(t *testing.T) {
	provider, backend := newProvider(t)

	err := provider.Auth.Register(context.Background(), "carol@example.com", "Garden1", "Carol", "https://example.com/c.png")
	require.NoError(t, err)

	current := provider.Store.Current().Identity
	require.NotNil(t, current)
	assert.Equal(t, "Carol", current.DisplayName)
	assert.Equal(t, "https://example.com/c.png", current.AvatarURL)
	assert.Equal(t, []string{identitytest.OpCreateAccount, identitytest.OpUpdateIdentityProfile}, backend.Calls())
}

func TestAuth_RegisterProfileStepFails(t *testing.T) {
	provider, backend := newProvider(t)
	backend.Fail(identitytest.OpUpdateIdentityProfile, context.DeadlineExceeded)

	err := provider.Auth.Register(context.Background(), "carol@example.com", "Garden1", "Carol", "")
	require.Error(t, err)

	var profileErr *identity.ProfileUpdateError
	require.ErrorAs(t, err, &profileErr)
	assert.ErrorIs(t, err, identity.ErrNetworkFailure)

	// the account is kept and signed in
	require.NotNil(t, provider.Store.Current().Identity)
	assert.Equal(t, "carol@example.com", provider.Store.Current().Identity.Email)
}

func TestAuth_RegisterFirstStepFails(t *testing.T) {
	provider, _ := newProvider(t)

	err := provider.Auth.Register(context.Background(), "carol@example.com", "short", "Carol", "")
	require.Error(t, err)

	var profileErr *identity.ProfileUpdateError
	assert.False(t, errors.As(err, &profileErr))
	assert.ErrorIs(t, err, identity.ErrWeakPassword)
}

func TestAuth_SignInWithGoogle(t *testing.T) {
	provider, backend := newProvider(t)
	backend.AddFederated("good-code", identity.Identity{ID: "g-1", Email: "gina@example.com", DisplayName: "Gina"})

	err := provider.Auth.SignInWithGoogle(context.Background(), identity.FederatedCredential{Code: "bad-code"})
	assert.ErrorIs(t, err, identity.ErrInvalidCredentials)
	assert.Nil(t, provider.Store.Current().Identity)

	err = provider.Auth.SignInWithGoogle(context.Background(), identity.FederatedCredential{Code: "good-code", CodeVerifier: "v"})
	require.NoError(t, err)
	assert.Equal(t, "g-1", provider.Store.Current().Identity.ID)
}

func TestAuth_ResetPasswordDoesNotRevealAccounts(t *testing.T) {
	provider, backend := newProvider(t)
	backend.AddAccount("alice@example.com", "Secret1", "Alice")

	require.NoError(t, provider.Auth.ResetPassword(context.Background(), "alice@example.com"))
	require.NoError(t, provider.Auth.ResetPassword(context.Background(), "nobody@example.com"))
	assert.Equal(t, []string{"alice@example.com"}, backend.Resets())

	backend.Fail(identitytest.OpSendPasswordReset, identity.ErrInvalidCredentials)
	assert.NoError(t, provider.Auth.ResetPassword(context.Background(), "nobody@example.com"))

	backend.Fail(identitytest.OpSendPasswordReset, context.Canceled)
	assert.ErrorIs(t, provider.Auth.ResetPassword(context.Background(), "alice@example.com"), identity.ErrNetworkFailure)
}

func TestAuth_UpdateProfileRequiresIdentity(t *testing.T) {
	provider, backend := newProvider(t)

	err := provider.Auth.UpdateProfile(context.Background(), "Nobody", "")
	require.Error(t, err)
	assert.ErrorIs(t, err, identity.ErrNotAuthenticated)
	assert.Empty(t, backend.Calls())
}

func TestAuth_UpdateProfileIsVisibleImmediately(t *testing.T) {
	provider, backend := newProvider(t)
	backend.AddAccount("alice@example.com", "Secret1", "Alice")
	require.NoError(t, provider.Auth.SignIn(context.Background(), "alice@example.com", "Secret1"))

	require.NoError(t, provider.Auth.UpdateProfile(context.Background(), "Alice Green", "https://example.com/a.png"))

	current := provider.Store.Current().Identity
	assert.Equal(t, "Alice Green", current.DisplayName)
	assert.Equal(t, "https://example.com/a.png", current.AvatarURL)
}

func TestAuth_SignOutTwiceIsNoop(t *testing.T) {
	provider, backend := newProvider(t)
	backend.AddAccount("alice@example.com", "Secret1", "Alice")
	require.NoError(t, provider.Auth.SignIn(context.Background(), "alice@example.com", "Secret1"))

	rec := &recorder{}
	provider.Store.Subscribe(rec.record)

	require.NoError(t, provider.Auth.SignOut(context.Background()))
	require.NoError(t, provider.Auth.SignOut(context.Background()))

	assert.Nil(t, provider.Store.Current().Identity)
	assert.Equal(t, []string{""}, rec.ids())
}

func TestAuth_SwitchAccountsNotifiesInOrder(t *testing.T) {
	provider, backend := newProvider(t)
	a := backend.AddAccount("a@example.com", "Secret1", "A")
	b := backend.AddAccount("b@example.com", "Secret2", "B")

	rec := &recorder{}
	provider.Store.Subscribe(rec.record)

	ctx := context.Background()
	require.NoError(t, provider.Auth.SignIn(ctx, "a@example.com", "Secret1"))
	require.NoError(t, provider.Auth.SignOut(ctx))
	require.NoError(t, provider.Auth.SignIn(ctx, "b@example.com", "Secret2"))

	assert.Equal(t, []string{a.ID, "", b.ID}, rec.ids())
}

func TestAuth_SignInOverExistingIdentityEmitsSignOutFirst(t *testing.T) {
	provider, backend := newProvider(t)
	a := backend.AddAccount("a@example.com", "Secret1", "A")
	b := backend.AddAccount("b@example.com", "Secret2", "B")

	ctx := context.Background()
	require.NoError(t, provider.Auth.SignIn(ctx, "a@example.com", "Secret1"))

	rec := &recorder{}
	provider.Store.Subscribe(rec.record)

	require.NoError(t, provider.Auth.SignIn(ctx, "b@example.com", "Secret2"))

	assert.Equal(t, []string{"", b.ID}, rec.ids())
	assert.NotEqual(t, a.ID, provider.Store.Current().Identity.ID)
}
