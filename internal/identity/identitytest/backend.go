// Package identitytest provides an in-memory identity.Backend for tests.
package identitytest

import (
	"context"
	"strconv"
	"strings"
	"sync"

	"github.com/GreenNest/GreenNest/internal/identity"
)

// Backend operation names accepted by Fail and recorded in Calls.
const (
	OpSignInWithPassword    = "SignInWithPassword"
	OpCreateAccount         = "CreateAccount"
	OpSignInFederated       = "SignInFederated"
	OpSendPasswordReset     = "SendPasswordReset"
	OpUpdateIdentityProfile = "UpdateIdentityProfile"
	OpSignOut               = "SignOut"
)

type account struct {
	identity identity.Identity
	password string
}

// Backend is a fake identity backend. It emits notifications synchronously
// from the calling goroutine. The initial state is reported by Resolve.
type Backend struct {
	mu        sync.Mutex
	accounts  map[string]*account
	federated map[string]identity.Identity
	current   *identity.Identity
	resolved  bool
	failures  map[string]error
	calls     []string
	resets    []string
	nextID    int

	events identity.Broadcaster[*identity.Identity]
}

// New returns an empty, unresolved fake backend.
func New() *Backend {
	return &Backend{
		accounts:  make(map[string]*account),
		federated: make(map[string]identity.Identity),
		failures:  make(map[string]error),
	}
}

// AddAccount registers a password account and returns its identity.
func (b *Backend) AddAccount(email, password, displayName string) identity.Identity {
	b.mu.Lock()
	defer b.mu.Unlock()

	return b.addLocked(email, password, displayName)
}

func (b *Backend) addLocked(email, password, displayName string) identity.Identity {
	b.nextID++
	id := identity.Identity{
		ID:          "uid-" + strconv.Itoa(b.nextID),
		Email:       email,
		DisplayName: displayName,
	}
	b.accounts[strings.ToLower(email)] = &account{identity: id, password: password}

	return id
}

// AddFederated makes code a valid federated authorization code for id.
func (b *Backend) AddFederated(code string, id identity.Identity) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.federated[code] = id
}

// Fail makes every later call of op return err. A nil err clears the failure.
func (b *Backend) Fail(op string, err error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if err == nil {
		delete(b.failures, op)
		return
	}

	b.failures[op] = err
}

// Calls returns the names of all backend operations called so far.
func (b *Backend) Calls() []string {
	b.mu.Lock()
	defer b.mu.Unlock()

	return append([]string(nil), b.calls...)
}

// Resets returns the addresses password reset mails were sent to.
func (b *Backend) Resets() []string {
	b.mu.Lock()
	defer b.mu.Unlock()

	return append([]string(nil), b.resets...)
}

// Listeners returns the number of registered listeners.
func (b *Backend) Listeners() int {
	return b.events.Len()
}

// Resolve reports the persisted state to all listeners, nil means signed out.
func (b *Backend) Resolve(id *identity.Identity) {
	b.mu.Lock()
	b.resolved = true
	b.current = id.Clone()
	b.events.Enqueue(id.Clone())
	b.mu.Unlock()

	b.events.Drain()
}

// Emit sends an arbitrary notification, e.g. to simulate expiry.
func (b *Backend) Emit(id *identity.Identity) {
	b.Resolve(id)
}

// OnIdentityChanged implements identity.Backend.
func (b *Backend) OnIdentityChanged(listener func(*identity.Identity)) func() {
	b.mu.Lock()
	id, unsubscribe := b.events.Subscribe(listener)

	if b.resolved {
		b.events.EnqueueTo(id, b.current.Clone())
	}
	b.mu.Unlock()

	b.events.Drain()

	return unsubscribe
}

func (b *Backend) begin(op string) error {
	b.calls = append(b.calls, op)

	return b.failures[op]
}

// switchLocked replaces the current identity, emitting a sign-out first when
// another identity was signed in.
func (b *Backend) switchLocked(id identity.Identity) {
	if b.current != nil && b.current.ID != id.ID {
		b.current = nil
		b.events.Enqueue(nil)
	}

	b.resolved = true
	b.current = id.Clone()
	b.events.Enqueue(id.Clone())
}

// SignInWithPassword implements identity.Backend.
func (b *Backend) SignInWithPassword(_ context.Context, email, password string) (*identity.Identity, error) {
	b.mu.Lock()
	if err := b.begin(OpSignInWithPassword); err != nil {
		b.mu.Unlock()
		return nil, err
	}

	acc, ok := b.accounts[strings.ToLower(email)]
	if !ok || acc.password != password {
		b.mu.Unlock()
		return nil, identity.ErrInvalidCredentials
	}

	b.switchLocked(acc.identity)
	b.mu.Unlock()

	b.events.Drain()

	return acc.identity.Clone(), nil
}

// CreateAccount implements identity.Backend.
func (b *Backend) CreateAccount(_ context.Context, email, password string) (*identity.Identity, error) {
	b.mu.Lock()
	if err := b.begin(OpCreateAccount); err != nil {
		b.mu.Unlock()
		return nil, err
	}

	if _, ok := b.accounts[strings.ToLower(email)]; ok {
		b.mu.Unlock()
		return nil, identity.ErrAccountExists
	}

	id := b.addLocked(email, password, "")
	b.switchLocked(id)
	b.mu.Unlock()

	b.events.Drain()

	return id.Clone(), nil
}

// SignInFederated implements identity.Backend.
func (b *Backend) SignInFederated(_ context.Context, credential identity.FederatedCredential) (*identity.Identity, error) {
	b.mu.Lock()
	if err := b.begin(OpSignInFederated); err != nil {
		b.mu.Unlock()
		return nil, err
	}

	id, ok := b.federated[credential.Code]
	if !ok {
		b.mu.Unlock()
		return nil, identity.ErrInvalidCredentials
	}

	b.switchLocked(id)
	b.mu.Unlock()

	b.events.Drain()

	return id.Clone(), nil
}

// SendPasswordReset implements identity.Backend. Unknown addresses succeed.
func (b *Backend) SendPasswordReset(_ context.Context, email string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if err := b.begin(OpSendPasswordReset); err != nil {
		return err
	}

	if _, ok := b.accounts[strings.ToLower(email)]; ok {
		b.resets = append(b.resets, email)
	}

	return nil
}

// UpdateIdentityProfile implements identity.Backend.
func (b *Backend) UpdateIdentityProfile(_ context.Context, displayName, avatarURL string) error {
	b.mu.Lock()
	if err := b.begin(OpUpdateIdentityProfile); err != nil {
		b.mu.Unlock()
		return err
	}

	if b.current == nil {
		b.mu.Unlock()
		return identity.ErrNotAuthenticated
	}

	b.current.DisplayName = displayName
	b.current.AvatarURL = avatarURL

	if acc, ok := b.accounts[strings.ToLower(b.current.Email)]; ok && acc.identity.ID == b.current.ID {
		acc.identity = *b.current.Clone()
	}

	b.events.Enqueue(b.current.Clone())
	b.mu.Unlock()

	b.events.Drain()

	return nil
}

// SignOut implements identity.Backend.
func (b *Backend) SignOut(_ context.Context) error {
	b.mu.Lock()
	if err := b.begin(OpSignOut); err != nil {
		b.mu.Unlock()
		return err
	}

	if b.current == nil {
		b.mu.Unlock()
		return nil
	}

	b.current = nil
	b.events.Enqueue(nil)
	b.mu.Unlock()

	b.events.Drain()

	return nil
}

var _ identity.Backend = (*Backend)(nil)
