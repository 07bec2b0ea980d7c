package auth_test

import (
	"context"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GreenNest/GreenNest/internal/identity"
	"github.com/GreenNest/GreenNest/internal/web/handler/handlertest"
	"github.com/GreenNest/GreenNest/internal/web/middleware/auth"
	"github.com/GreenNest/GreenNest/internal/web/visitor"
)

const secretPath = "/secret"

func newGuard() fiber.Handler {
	return auth.New(auth.Config{
		SignInPath:     "/login",
		ResolveTimeout: 5 * time.Millisecond,
	})
}

func secret(c *fiber.Ctx) error {
	id, _ := c.Locals(visitor.LocalsIdentityID).(string)
	return c.SendString("secret for " + id)
}

func TestNewWithoutVisitorMiddleware(t *testing.T) {
	app := fiber.New()
	app.Get(secretPath, newGuard(), secret)

	resp, err := app.Test(httptest.NewRequest(fiber.MethodGet, secretPath, nil), -1)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusInternalServerError, resp.StatusCode)
}

func TestNewWhileResolving(t *testing.T) {
	h := handlertest.New(t)
	h.Resolve = false
	h.App.Get(secretPath, newGuard(), secret)

	resp := h.Get(secretPath)
	assert.Equal(t, fiber.StatusServiceUnavailable, resp.StatusCode)
	assert.Equal(t, strconv.Itoa(auth.RetryAfterSeconds), resp.Header.Get(fiber.HeaderRetryAfter))
	assert.Equal(t, "no-store", resp.Header.Get(fiber.HeaderCacheControl))
	assert.Contains(t, handlertest.Body(t, resp), "template="+auth.ResolvingTemplate)

	// nothing is remembered while the visitor is unknown
	assert.Equal(t, identity.DefaultTarget, h.Provider().Guard.PendingTarget())
}

func TestNewSignedIn(t *testing.T) {
	h := handlertest.New(t)
	h.App.Get(secretPath, newGuard(), secret)

	id := h.SignIn("gina@example.com", "Gina")

	resp := h.Get(secretPath)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, "secret for "+id.ID, handlertest.Body(t, resp))
}

func TestNewRemembersReturnTarget(t *testing.T) {
	tests := []struct {
		name    string
		method  string
		path    string
		referer string
		want    string
	}{
		{name: "get keeps path and query", method: fiber.MethodGet, path: secretPath + "?tab=care", want: secretPath + "?tab=care"},
		{name: "post returns to local referer", method: fiber.MethodPost, path: secretPath, referer: "/plants?category=Succulent", want: "/plants?category=Succulent"},
		{name: "post returns to same host referer", method: fiber.MethodPost, path: secretPath, referer: "http://example.com/plants/4", want: "/plants/4"},
		{name: "post ignores foreign referer", method: fiber.MethodPost, path: secretPath, referer: "https://elsewhere.example/phish", want: identity.DefaultTarget},
		{name: "post without referer", method: fiber.MethodPost, path: secretPath, want: identity.DefaultTarget},
		{name: "route sets the target", method: fiber.MethodPost, path: "/booking", referer: "/plants", want: "/plants/7"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := handlertest.New(t)
			h.App.Get(secretPath, newGuard(), secret)
			h.App.Post(secretPath, newGuard(), secret)
			h.App.Post("/booking", auth.ReturnTo(func(*fiber.Ctx) string { return "/plants/7" }), newGuard(), secret)

			req := httptest.NewRequest(tt.method, tt.path, nil)
			if tt.referer != "" {
				req.Header.Set(fiber.HeaderReferer, tt.referer)
			}

			resp := h.Do(req)
			assert.Equal(t, fiber.StatusFound, resp.StatusCode)
			assert.Equal(t, "/login", resp.Header.Get(fiber.HeaderLocation))

			// later requests reuse the request buffers
			h.Get("/a-much-longer-path-that-overwrites-the-request-buffer")

			assert.Equal(t, tt.want, h.Provider().Guard.PendingTarget())
		})
	}
}

func TestRedirectIfAuthenticated(t *testing.T) {
	t.Run("without visitor", func(t *testing.T) {
		app := fiber.New()
		app.Get("/login", auth.RedirectIfAuthenticated("/"), func(c *fiber.Ctx) error {
			return c.SendString("login")
		})

		resp, err := app.Test(httptest.NewRequest(fiber.MethodGet, "/login", nil), -1)
		require.NoError(t, err)
		assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	})

	t.Run("guest and signed in", func(t *testing.T) {
		h := handlertest.New(t)
		h.App.Get("/login", auth.RedirectIfAuthenticated("/"), func(c *fiber.Ctx) error {
			return c.SendString("login")
		})

		resp := h.Get("/login")
		assert.Equal(t, fiber.StatusOK, resp.StatusCode)

		h.SignIn("gina@example.com", "Gina")

		resp = h.Get("/login")
		assert.Equal(t, fiber.StatusFound, resp.StatusCode)
		assert.Equal(t, "/", resp.Header.Get(fiber.HeaderLocation))
	})
}

func TestWaitResolved(t *testing.T) {
	tests := []struct {
		name    string
		resolve bool
		cancel  bool
		timeout time.Duration
		want    string
	}{
		{name: "already resolved", resolve: true, want: "true"},
		{name: "zero timeout", want: "false"},
		{name: "timeout", timeout: 5 * time.Millisecond, want: "false"},
		{name: "request cancelled", cancel: true, timeout: time.Hour, want: "false"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := handlertest.New(t)
			h.Resolve = tt.resolve

			h.App.Get("/wait", func(c *fiber.Ctx) error {
				p, err := visitor.FromContext(c)
				if err != nil {
					return err
				}

				if tt.cancel {
					ctx, cancel := context.WithCancel(c.UserContext())
					cancel()
					c.SetUserContext(ctx)
				}

				return c.SendString(strconv.FormatBool(auth.WaitResolved(c, p, tt.timeout)))
			})

			assert.Equal(t, tt.want, handlertest.Body(t, h.Get("/wait")))
		})
	}
}
