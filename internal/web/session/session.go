// Package session wraps the fiber session store: one session per request,
// loaded before the handlers run and saved once after them.
package session

import (
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/session"
	"github.com/rs/zerolog/log"

	"github.com/GreenNest/GreenNest/internal/config"
)

const (
	// CookieName is the name of the session cookie.
	CookieName = "greennest_session"

	// LocalsKey holds the request's *session.Session in fiber.Locals.
	LocalsKey = "Session"

	flashKind    = "flash_kind"
	flashMessage = "flash_message"
)

// Flash kinds.
const (
	FlashSuccess = "success"
	FlashError   = "error"
)

// ErrNoSession is returned when the session middleware did not run.
var ErrNoSession = errors.New("no session in request context")

// Flash is a one-shot notification rendered by the next page.
type Flash struct {
	Kind    string
	Message string
}

// Store is the session store shared by the middleware and handlers.
type Store struct {
	store *session.Store
}

// New creates the session store on top of storage. A nil storage uses fiber's memory storage.
//
// The session ID also keys the visitor's identity provider and is kept when the
// visitor signs in, so a planted cookie would share the signed-in state. The
// cookie is HTTPOnly and SameSite=Lax to keep it from being planted.
//
// TODO: regenerate the session ID on sign-in and move the provider to the new key in visitor.Registry.
func New(storage fiber.Storage, cfg config.Session, devMode bool) *Store {
	expiry := cfg.ExpiryTime
	if expiry <= 0 {
		expiry = 24 * time.Hour
	}

	return &Store{
		store: session.New(session.Config{
			Storage:        storage,
			Expiration:     expiry,
			KeyLookup:      "cookie:" + CookieName,
			CookieSecure:   cfg.CookieSecure && !devMode,
			CookieHTTPOnly: true,
			CookieSameSite: fiber.CookieSameSiteLaxMode,
		}),
	}
}

// Middleware loads the session, runs the chain and persists the session afterwards.
func (s *Store) Middleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		sess, err := s.store.Get(c)
		if err != nil {
			log.Error().Err(err).Msg("failed to load session")
			return fiber.ErrInternalServerError
		}

		c.Locals(LocalsKey, sess)

		chainErr := c.Next()

		if err = sess.Save(); err != nil {
			log.Error().Err(err).Msg("failed to save session")
		}

		return chainErr
	}
}

// FromContext returns the request's session.
func FromContext(c *fiber.Ctx) (*session.Session, error) {
	sess, ok := c.Locals(LocalsKey).(*session.Session)
	if !ok || sess == nil {
		return nil, ErrNoSession
	}

	return sess, nil
}

// ID returns the session id, it identifies the visitor.
func ID(c *fiber.Ctx) (string, error) {
	sess, err := FromContext(c)
	if err != nil {
		return "", err
	}

	return sess.ID(), nil
}

// Set stores a string value in the session.
func Set(c *fiber.Ctx, key, value string) {
	if sess, err := FromContext(c); err == nil {
		sess.Set(key, value)
	}
}

// Pop returns a string value and removes it from the session.
func Pop(c *fiber.Ctx, key string) string {
	sess, err := FromContext(c)
	if err != nil {
		return ""
	}

	v, _ := sess.Get(key).(string)
	sess.Delete(key)

	return v
}

// SetFlash stores a flash message for the next rendered page.
func SetFlash(c *fiber.Ctx, kind, message string) {
	Set(c, flashKind, kind)
	Set(c, flashMessage, message)
}

// PopFlash returns the pending flash message, or nil.
func PopFlash(c *fiber.Ctx) *Flash {
	kind := Pop(c, flashKind)
	message := Pop(c, flashMessage)

	if message == "" {
		return nil
	}

	return &Flash{Kind: kind, Message: message}
}
