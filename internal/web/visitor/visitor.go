// Package visitor keeps one identity.Provider per browser session.
//
// Providers live in a bounded LRU cache keyed by the session id. An evicted
// provider is closed; the next request of that browser builds a new one whose
// backend restores the signed-in identity from its own persistence.
package visitor

import (
	"context"
	"errors"

	"github.com/gofiber/fiber/v2"
	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/singleflight"

	"github.com/GreenNest/GreenNest/internal/identity"
	"github.com/GreenNest/GreenNest/internal/metrics"
	"github.com/GreenNest/GreenNest/internal/web/session"
)

// fiber.Locals keys set by Middleware.
const (
	LocalsProvider    = "Visitor"
	LocalsCurrentUser = "CurrentUser"
	LocalsIdentityID  = "IdentityID"
)

// ErrNoProvider is returned when the visitor middleware did not run.
var ErrNoProvider = errors.New("no visitor provider in request context")

// Factory creates the identity backend of one browser.
type Factory func(clientID string) identity.Backend

// Revalidator is implemented by backends that re-check a restored sign-in on access.
type Revalidator interface {
	Revalidate(ctx context.Context)
}

// Registry maps session ids to providers.
type Registry struct {
	cache      *lru.Cache[string, *identity.Provider]
	group      singleflight.Group
	factory    Factory
	signInPath string
	metrics    metrics.Recorder
}

// New creates a registry holding at most size providers.
func New(size int, factory Factory, signInPath string, recorder metrics.Recorder) (*Registry, error) {
	if recorder == nil {
		recorder = metrics.Nop{}
	}

	r := &Registry{
		factory:    factory,
		signInPath: signInPath,
		metrics:    recorder,
	}

	cache, err := lru.NewWithEvict(size, func(clientID string, p *identity.Provider) {
		log.Trace().Str("client", clientID).Msg("visitor evicted")
		p.Close()
	})
	if err != nil {
		return nil, err //nolint:wrapcheck
	}

	r.cache = cache

	return r, nil
}

// Get returns the provider of clientID, creating it on first use.
func (r *Registry) Get(ctx context.Context, clientID string) (*identity.Provider, error) {
	if p, ok := r.cache.Get(clientID); ok {
		if rv, ok := p.Backend().(Revalidator); ok {
			rv.Revalidate(ctx)
		}

		return p, nil
	}

	v, err, _ := r.group.Do(clientID, func() (any, error) {
		if p, ok := r.cache.Peek(clientID); ok {
			return p, nil
		}

		p := identity.NewProvider(r.factory(clientID), r.signInPath)
		r.cache.Add(clientID, p)
		r.metrics.SetVisitors(r.cache.Len())

		return p, nil
	})
	if err != nil {
		return nil, err //nolint:wrapcheck
	}

	return v.(*identity.Provider), nil //nolint:forcetypeassert
}

// Len returns the number of live providers.
func (r *Registry) Len() int {
	return r.cache.Len()
}

// Purge closes and drops every provider.
func (r *Registry) Purge() {
	r.cache.Purge()
	r.metrics.SetVisitors(0)
}

// Middleware attaches the visitor's provider and current identity to fiber.Locals.
// It needs the session middleware in front of it.
func (r *Registry) Middleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		clientID, err := session.ID(c)
		if err != nil {
			return err //nolint:wrapcheck
		}

		p, err := r.Get(c.UserContext(), clientID)
		if err != nil {
			log.Error().Err(err).Msg("failed to create visitor provider")
			return fiber.ErrInternalServerError
		}

		c.Locals(LocalsProvider, p)
		SetCurrentUser(c, p.Store.Current().Identity)

		return c.Next()
	}
}

// SetCurrentUser refreshes the identity exposed to views, nil clears it.
func SetCurrentUser(c *fiber.Ctx, id *identity.Identity) {
	if id == nil {
		c.Locals(LocalsCurrentUser, nil)
		c.Locals(LocalsIdentityID, nil)

		return
	}

	c.Locals(LocalsCurrentUser, id)
	c.Locals(LocalsIdentityID, id.ID)
}

// FromContext returns the provider attached by Middleware.
func FromContext(c *fiber.Ctx) (*identity.Provider, error) {
	p, ok := c.Locals(LocalsProvider).(*identity.Provider)
	if !ok || p == nil {
		return nil, ErrNoProvider
	}

	return p, nil
}
