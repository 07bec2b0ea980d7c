package identity

import (
	"context"
	"errors"
	"net"
)

var (
	// ErrInvalidCredentials is returned when the email/password pair or the
	// federated credential is rejected by the backend.
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrAccountExists is returned when signing up with an email that is already registered.
	ErrAccountExists = errors.New("account already exists")

	// ErrWeakPassword is returned when a password violates the password policy.
	ErrWeakPassword = errors.New("weak password")

	// ErrNotAuthenticated is returned by operations that need a signed-in identity.
	ErrNotAuthenticated = errors.New("not authenticated")

	// ErrNetworkFailure is returned when the backend could not be reached.
	ErrNetworkFailure = errors.New("network failure")

	// ErrUnknown is returned for every backend failure outside the other kinds.
	ErrUnknown = errors.New("unknown error")
)

// kinds is ordered: the first match wins in Kind.
var kinds = []error{
	ErrWeakPassword,
	ErrInvalidCredentials,
	ErrAccountExists,
	ErrNotAuthenticated,
	ErrNetworkFailure,
	ErrUnknown,
}

// Error is returned by every failing Auth operation.
type Error struct {
	// Op is the failed operation, one of the Op constants.
	Op string
	// Kind is one of the package sentinels.
	Kind error
	// Err is the underlying cause, it may be nil or equal to Kind.
	Err error
}

func (e *Error) Error() string {
	switch {
	case e.Err == nil:
		return e.Op + ": " + e.Kind.Error()
	case errors.Is(e.Err, e.Kind):
		return e.Op + ": " + e.Err.Error()
	default:
		return e.Op + ": " + e.Kind.Error() + ": " + e.Err.Error()
	}
}

// Unwrap exposes both the kind and the cause to errors.Is and errors.As.
func (e *Error) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}

	return []error{e.Kind, e.Err}
}

// Classify maps an arbitrary backend error to one of the package sentinels.
// It returns nil for a nil error.
func Classify(err error) error {
	if err == nil {
		return nil
	}

	for _, kind := range kinds {
		if errors.Is(err, kind) {
			return kind
		}
	}

	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return ErrNetworkFailure
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return ErrNetworkFailure
	}

	return ErrUnknown
}

// Kind returns the sentinel an error returned by Auth matches, or nil.
func Kind(err error) error {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}

	return Classify(err)
}

func wrap(op string, err error) error {
	if err == nil {
		return nil
	}

	var e *Error
	if errors.As(err, &e) {
		return err
	}

	return &Error{Op: op, Kind: Classify(err), Err: err}
}

// ProfileUpdateError is returned by Auth.Register when the account was
// created but setting its profile failed. The new account stays signed in.
type ProfileUpdateError struct {
	Err error
}

func (e *ProfileUpdateError) Error() string {
	return "profile update failed: " + e.Err.Error()
}

func (e *ProfileUpdateError) Unwrap() error {
	return e.Err
}
