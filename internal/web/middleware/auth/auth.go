package auth

import (
	"net/url"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/utils"
	"github.com/rs/zerolog/log"

	"github.com/GreenNest/GreenNest/internal/identity"
	"github.com/GreenNest/GreenNest/internal/metrics"
	"github.com/GreenNest/GreenNest/internal/web/handler"
	"github.com/GreenNest/GreenNest/internal/web/visitor"
)

const (
	// ResolvingTemplate is rendered while the visitor's identity is unknown.
	ResolvingTemplate = "resolving"

	// RetryAfterSeconds is sent with the resolving placeholder.
	RetryAfterSeconds = 1

	// LocalsReturnTo holds a page set by a route in front of the guard. Visitors
	// are sent there after signing in instead of the guarded path.
	LocalsReturnTo = "ReturnTo"
)

// Config for the guard middleware.
type Config struct {
	// SignInPath is where unauthenticated visitors are sent.
	SignInPath string

	// ResolveTimeout bounds how long a request waits for the first identity notification.
	ResolveTimeout time.Duration

	// Metrics records the resolution wait. Optional.
	Metrics metrics.Recorder
}

// New returns the guard for protected routes.
func New(cfg Config) fiber.Handler {
	if cfg.Metrics == nil {
		cfg.Metrics = metrics.Nop{}
	}

	return func(c *fiber.Ctx) error {
		p, err := visitor.FromContext(c)
		if err != nil {
			log.Error().Err(err).Msg("guard without visitor middleware")
			return fiber.ErrInternalServerError
		}

		start := time.Now()
		resolved := WaitResolved(c, p, cfg.ResolveTimeout)
		cfg.Metrics.RecordResolveWait(time.Since(start), resolved)

		decision := p.Guard.Decide(returnTarget(c))

		switch decision.State {
		case identity.Resolving:
			c.Set(fiber.HeaderRetryAfter, strconv.Itoa(RetryAfterSeconds))
			c.Set(fiber.HeaderCacheControl, "no-store")

			return c.Status(fiber.StatusServiceUnavailable).Render(ResolvingTemplate, fiber.Map{
				"Title":      "Loading",
				"RetryAfter": RetryAfterSeconds,
			}, handler.BaseLayout)
		case identity.Redirect:
			target := decision.Target
			if cfg.SignInPath != "" {
				target = cfg.SignInPath
			}

			return c.Redirect(target)
		default:
			visitor.SetCurrentUser(c, p.Store.Current().Identity)

			return c.Next()
		}
	}
}

// ReturnTo makes the guard remember target instead of the guarded path.
func ReturnTo(target func(c *fiber.Ctx) string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		c.Locals(LocalsReturnTo, target(c))
		return c.Next()
	}
}

// returnTarget is the page a visitor returns to after signing in. Only GET and
// HEAD requests can be repeated by a redirect, form posts return to the
// page they were sent from. The result is copied out of the request buffer
// because the guard keeps it beyond the request.
func returnTarget(c *fiber.Ctx) string {
	if target, ok := c.Locals(LocalsReturnTo).(string); ok && target != "" {
		return utils.CopyString(target)
	}

	switch c.Method() {
	case fiber.MethodGet, fiber.MethodHead:
		return utils.CopyString(c.OriginalURL())
	}

	referer := c.Get(fiber.HeaderReferer)
	if referer == "" {
		return identity.DefaultTarget
	}

	u, err := url.Parse(utils.CopyString(referer))
	if err != nil || (u.Host != "" && u.Host != c.Hostname()) {
		return identity.DefaultTarget
	}

	return identity.SafeTarget(u.RequestURI())
}

// RedirectIfAuthenticated sends signed-in visitors to target, e.g. away from the sign-in page.
func RedirectIfAuthenticated(target string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		p, err := visitor.FromContext(c)
		if err != nil {
			return c.Next()
		}

		if p.Store.Current().SignedIn() {
			return c.Redirect(target)
		}

		return c.Next()
	}
}

// WaitResolved blocks until the provider's session is resolved, the timeout
// passes or the request is cancelled. It reports whether the session resolved.
func WaitResolved(c *fiber.Ctx, p *identity.Provider, timeout time.Duration) bool {
	select {
	case <-p.Store.Resolved():
		return true
	default:
	}

	if timeout <= 0 {
		return false
	}

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case <-p.Store.Resolved():
		return true
	case <-timer.C:
		return false
	case <-c.UserContext().Done():
		return false
	}
}
