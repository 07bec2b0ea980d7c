// Package google provides the Google sign-in redirect flow.
//
// Login stores a random state and a PKCE verifier in the visitor's session
// and redirects to Google. Callback checks the state, then hands the
// authorization code and the verifier to the visitor's Auth facade, which
// signs in or creates the account.
//
// The routes are only registered when the Google provider is configured.
package google
