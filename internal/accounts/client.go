package accounts

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/GreenNest/GreenNest/internal/db/models"
	"github.com/GreenNest/GreenNest/internal/identity"
)

const (
	restoreTimeout     = 5 * time.Second
	revalidateInterval = 30 * time.Second
)

// Client is the identity backend of one browser, identified by clientID.
type Client struct {
	svc      *Service
	clientID string

	mu        sync.Mutex
	ready     bool
	current   *identity.Identity
	expiresAt time.Time
	checkedAt time.Time

	events identity.Broadcaster[*identity.Identity]
}

// NewClient creates the Client of a browser and restores its sign-in state in
// the background. Listeners learn the restored state through their first
// notification.
func (s *Service) NewClient(clientID string) *Client {
	c := &Client{svc: s, clientID: clientID}

	go c.restore()

	return c
}

func (c *Client) restore() {
	ctx, cancel := context.WithTimeout(context.Background(), restoreTimeout)
	defer cancel()

	acc, expiresAt, err := c.svc.loadState(ctx, c.clientID)
	if err != nil {
		log.Error().Err(err).Msg("failed to restore sign-in state")
	}

	var restored *identity.Identity
	if acc != nil {
		restored = acc.Identity()
	}

	c.mu.Lock()
	if c.ready {
		// a credential operation finished first
		c.mu.Unlock()
		return
	}

	c.ready = true
	c.current = restored
	c.expiresAt = expiresAt
	c.checkedAt = c.svc.now()
	c.events.Enqueue(restored.Clone())
	c.mu.Unlock()

	c.events.Drain()
}

// OnIdentityChanged implements identity.Backend.
func (c *Client) OnIdentityChanged(listener func(*identity.Identity)) func() {
	c.mu.Lock()
	id, unsubscribe := c.events.Subscribe(listener)

	if c.ready {
		c.events.EnqueueTo(id, c.current.Clone())
	}
	c.mu.Unlock()

	c.events.Drain()

	return unsubscribe
}

// signedIn persists acc as the browser's account and notifies listeners.
func (c *Client) signedIn(ctx context.Context, acc *models.Account) (*identity.Identity, error) {
	expiresAt, err := c.svc.saveState(ctx, c.clientID, acc.ID)
	if err != nil {
		return nil, err
	}

	next := acc.Identity()

	c.mu.Lock()
	if c.current != nil && c.current.ID != next.ID {
		c.current = nil
		c.events.Enqueue(nil)
	}

	c.ready = true
	c.current = next
	c.expiresAt = expiresAt
	c.checkedAt = c.svc.now()
	c.events.Enqueue(next.Clone())
	c.mu.Unlock()

	c.events.Drain()

	return next.Clone(), nil
}

// signedOut clears the local state of the account with id, or of any account
// when id is empty, and notifies listeners.
func (c *Client) signedOut(id string) {
	c.mu.Lock()
	if c.current == nil || (id != "" && c.current.ID != id) {
		c.mu.Unlock()
		return
	}

	c.current = nil
	c.expiresAt = time.Time{}
	c.events.Enqueue(nil)
	c.mu.Unlock()

	c.events.Drain()
}

// SignInWithPassword implements identity.Backend.
func (c *Client) SignInWithPassword(ctx context.Context, email, password string) (*identity.Identity, error) {
	acc, err := c.svc.Authenticate(ctx, email, password)
	if err != nil {
		return nil, err
	}

	return c.signedIn(ctx, acc)
}

// CreateAccount implements identity.Backend. The new account is signed in.
func (c *Client) CreateAccount(ctx context.Context, email, password string) (*identity.Identity, error) {
	acc, err := c.svc.CreateAccount(ctx, email, password)
	if err != nil {
		return nil, err
	}

	return c.signedIn(ctx, acc)
}

// SignInFederated implements identity.Backend.
func (c *Client) SignInFederated(ctx context.Context, credential identity.FederatedCredential) (*identity.Identity, error) {
	acc, err := c.svc.SignInFederated(ctx, credential)
	if err != nil {
		return nil, err
	}

	return c.signedIn(ctx, acc)
}

// SendPasswordReset implements identity.Backend.
func (c *Client) SendPasswordReset(ctx context.Context, email string) error {
	return c.svc.SendPasswordReset(ctx, email)
}

// UpdateIdentityProfile implements identity.Backend.
func (c *Client) UpdateIdentityProfile(ctx context.Context, displayName, avatarURL string) error {
	c.mu.Lock()
	current := c.current.Clone()
	c.mu.Unlock()

	if current == nil {
		return identity.ErrNotAuthenticated
	}

	acc, err := c.svc.UpdateProfile(ctx, current.ID, displayName, avatarURL)
	if err != nil {
		return err
	}

	next := acc.Identity()

	c.mu.Lock()
	if c.current == nil || c.current.ID != next.ID {
		// signed out meanwhile
		c.mu.Unlock()
		return nil
	}

	c.current = next
	c.events.Enqueue(next.Clone())
	c.mu.Unlock()

	c.events.Drain()

	return nil
}

// SignOut implements identity.Backend.
func (c *Client) SignOut(ctx context.Context) error {
	if err := c.svc.deleteState(ctx, c.clientID); err != nil {
		log.Error().Err(err).Msg("failed to delete sign-in state")
	}

	c.mu.Lock()
	if !c.ready {
		// resolves the browser as signed out before the restore finishes
		c.ready = true
		c.checkedAt = c.svc.now()
		c.events.Enqueue(nil)
		c.mu.Unlock()
		c.events.Drain()

		return nil
	}
	c.mu.Unlock()

	c.signedOut("")

	return nil
}

// Revalidate signs the browser out when its sign-in state expired or was
// revoked. The database is consulted at most once per revalidate interval;
// lookup errors keep the last known state.
func (c *Client) Revalidate(ctx context.Context) {
	now := c.svc.now()

	c.mu.Lock()
	current := c.current.Clone()
	expired := current != nil && !now.Before(c.expiresAt)
	due := now.Sub(c.checkedAt) >= revalidateInterval
	c.mu.Unlock()

	if current == nil {
		return
	}

	if !expired && !due {
		return
	}

	if !expired {
		acc, _, err := c.svc.loadState(ctx, c.clientID)
		if err != nil {
			log.Warn().Err(err).Msg("failed to revalidate sign-in state")
			return
		}

		c.mu.Lock()
		c.checkedAt = now
		c.mu.Unlock()

		if acc != nil && acc.ID == current.ID {
			return
		}
	} else if err := c.svc.deleteState(ctx, c.clientID); err != nil {
		log.Warn().Err(err).Msg("failed to delete expired sign-in state")
	}

	log.Debug().Str("identity", current.ID).Msg("sign-in state expired")

	c.signedOut(current.ID)
}

var _ identity.Backend = (*Client)(nil)
