// Package accounts implements the GreenNest identity backend on top of the
// application database.
//
// Service owns accounts, password reset tokens and the persisted sign-in
// state of every browser. Client is the per-visitor view of the Service and
// implements identity.Backend: it restores the browser's sign-in state in the
// background when created and notifies its listeners whenever the signed-in
// account changes.
//
// Passwords are hashed with Argon2id. Google sign-in uses OpenID Connect with
// PKCE through GoogleProvider.
package accounts
