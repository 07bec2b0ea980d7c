package profile_test

import (
	"errors"
	"net/url"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GreenNest/GreenNest/internal/identity"
	"github.com/GreenNest/GreenNest/internal/identity/identitytest"
	"github.com/GreenNest/GreenNest/internal/web/handler"
	"github.com/GreenNest/GreenNest/internal/web/handler/handlertest"
	"github.com/GreenNest/GreenNest/internal/web/handler/login"
	"github.com/GreenNest/GreenNest/internal/web/handler/profile"
)

func newHarness(t *testing.T) *handlertest.Harness {
	t.Helper()

	h := handlertest.New(t)
	require.NoError(t, (&profile.Service{}).Init(h.App, h.Deps))
	require.NoError(t, (&login.Service{}).Init(h.App, h.Deps))

	return h
}

func TestGetRedirectsAndReturnsAfterSignIn(t *testing.T) {
	h := newHarness(t)
	h.Backend().AddAccount("gina@example.com", "Secret1", "Gina")

	resp := h.Get(profile.Path)
	assert.Equal(t, fiber.StatusFound, resp.StatusCode)
	assert.Equal(t, handler.LoginPath, resp.Header.Get(fiber.HeaderLocation))

	resp = h.PostForm(login.Path, url.Values{"email": {"gina@example.com"}, "password": {"Secret1"}})
	assert.Equal(t, profile.Path, resp.Header.Get(fiber.HeaderLocation))

	resp = h.Get(profile.Path)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Contains(t, handlertest.Body(t, resp), "template="+profile.TemplateName)

	// a second sign-in lands on the default target
	require.NoError(t, h.Backend().SignOut(t.Context()))
	resp = h.PostForm(login.Path, url.Values{"email": {"gina@example.com"}, "password": {"Secret1"}})
	assert.Equal(t, identity.DefaultTarget, resp.Header.Get(fiber.HeaderLocation))
}

func TestPost(t *testing.T) {
	h := newHarness(t)
	h.SignIn("gina@example.com", "Gina")

	resp := h.PostForm(profile.Path, url.Values{"name": {"Gina G."}, "photo": {"https://example.com/g.png"}})
	assert.Equal(t, fiber.StatusFound, resp.StatusCode)

	current := h.Provider().Store.Current().Identity
	require.NotNil(t, current)
	assert.Equal(t, "Gina G.", current.DisplayName)
	assert.Equal(t, "https://example.com/g.png", current.AvatarURL)

	body := handlertest.Body(t, h.Get(profile.Path))
	assert.Contains(t, body, "flash=success:"+profile.MsgUpdated)
}

func TestPostFailures(t *testing.T) {
	tests := []struct {
		name   string
		form   url.Values
		fail   error
		expect string
	}{
		{
			name:   "name required",
			form:   url.Values{"name": {""}},
			expect: profile.MsgUpdateFailed + "Name is required",
		},
		{
			name:   "backend failure",
			form:   url.Values{"name": {"Gina"}},
			fail:   errors.New("quota exceeded"),
			expect: profile.MsgUpdateFailed + "Something went wrong. Please try again.",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t)
			h.SignIn("gina@example.com", "Gina")
			h.Backend().Fail(identitytest.OpUpdateIdentityProfile, tt.fail)

			resp := h.PostForm(profile.Path, tt.form)
			assert.Equal(t, fiber.StatusUnprocessableEntity, resp.StatusCode)
			assert.Contains(t, handlertest.Body(t, resp), "error="+tt.expect)
			assert.Equal(t, "Gina", h.Provider().Store.Current().Identity.DisplayName)
		})
	}
}
