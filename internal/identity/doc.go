// Package identity provides the session and authentication core of GreenNest.
//
// The package wraps an external identity backend behind a small set of types
// that every page of the web application talks to:
//   - Store holds the visitor's current Session and notifies subscribers
//     whenever the backend reports a change of the signed-in identity
//   - Auth mediates credential operations (sign-in, sign-up, federated sign-in,
//     password reset, profile update, sign-out) and normalizes backend errors
//     into a closed taxonomy
//   - Guard decides whether a protected page may render, must wait for the
//     session to resolve, or must redirect to the sign-in page
//
// # State flow
//
// The Store is the only writer of Session state and it writes only in
// response to backend notifications. Auth never touches the Store directly:
// a successful SignIn is observable through Store.Current once the backend
// has emitted the identity-changed notification, not earlier.
//
// A Store starts in the resolving state. The first backend notification ends
// resolution for good; later notifications only replace the identity.
//
// # Errors
//
// Every error returned by Auth matches exactly one of ErrInvalidCredentials,
// ErrAccountExists, ErrWeakPassword, ErrNotAuthenticated, ErrNetworkFailure or
// ErrUnknown through errors.Is. Use Kind to obtain the matching sentinel.
//
// # Backends
//
// Backend is the consumed boundary. internal/accounts implements it on top of
// the application database; the identitytest package provides an in-memory
// fake for tests.
package identity
