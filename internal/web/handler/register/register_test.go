package register_test

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
	"github.com/GreenNest/GreenNest/internal/web/handler/register"
)

func newHarness(t *testing.T) *handlertest.Harness {
	t.Helper()

	h := handlertest.New(t)
	require.NoError(t, (&register.Service{}).Init(h.App, h.Deps))

	return h
}

func form(password string) url.Values {
	return url.Values{
		"name":     {"Gina"},
		"photo":    {"https://example.com/gina.png"},
		"email":    {"gina@example.com"},
		"password": {password},
	}
}

func TestGet(t *testing.T) {
	h := newHarness(t)

	resp := h.Get(register.Path)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Contains(t, handlertest.Body(t, resp), "template="+register.TemplateName)
}

func TestPost(t *testing.T) {
	h := newHarness(t)

	resp := h.PostForm(register.Path, form("Secret1"))
	assert.Equal(t, fiber.StatusFound, resp.StatusCode)
	assert.Equal(t, identity.DefaultTarget, resp.Header.Get(fiber.HeaderLocation))

	current := h.Provider().Store.Current()
	require.True(t, current.SignedIn())
	assert.Equal(t, "Gina", current.Identity.DisplayName)
	assert.Equal(t, "https://example.com/gina.png", current.Identity.AvatarURL)
}

func TestPostWeakPassword(t *testing.T) {
	tests := []struct {
		password string
		want     string
	}{
		{password: "abc", want: "Password must be at least 6 characters long"},
		{password: "abc123", want: "Password must contain at least one uppercase letter"},
		{password: "ABC123", want: "Password must contain at least one lowercase letter"},
	}

	for _, tt := range tests {
		t.Run(tt.password, func(t *testing.T) {
			h := newHarness(t)

			resp := h.PostForm(register.Path, form(tt.password))
			assert.Equal(t, fiber.StatusUnprocessableEntity, resp.StatusCode)
			assert.Contains(t, handlertest.Body(t, resp), "error="+register.MsgRegistrationFailed+tt.want)

			// the backend is never asked
			assert.NotContains(t, h.Backend().Calls(), identitytest.OpCreateAccount)
		})
	}
}

func TestPostAccountExists(t *testing.T) {
	h := newHarness(t)
	h.Backend().AddAccount("gina@example.com", "Secret1", "Gina")

	resp := h.PostForm(register.Path, form("Secret1"))
	assert.Equal(t, fiber.StatusUnprocessableEntity, resp.StatusCode)
	assert.Contains(t, handlertest.Body(t, resp),
		"error="+register.MsgRegistrationFailed+"An account with this email already exists.")
}

func TestPostInvalidForm(t *testing.T) {
	h := newHarness(t)

	values := form("Secret1")
	values.Set("photo", "not a url")

	resp := h.PostForm(register.Path, values)
	assert.Equal(t, fiber.StatusUnprocessableEntity, resp.StatusCode)
	assert.Contains(t, handlertest.Body(t, resp), "error="+register.MsgRegistrationFailed+"Photo URL must be a valid URL")
}

func TestPostProfileStepFails(t *testing.T) {
	h := newHarness(t)
	h.Backend().Fail(identitytest.OpUpdateIdentityProfile, errors.New("quota exceeded"))

	decision := h.Provider().Guard.Decide("/plants/3")
	require.Equal(t, identity.Redirect, decision.State)

	resp := h.PostForm(register.Path, form("Secret1"))
	assert.Equal(t, fiber.StatusFound, resp.StatusCode)
	assert.Equal(t, handler.ProfilePath, resp.Header.Get(fiber.HeaderLocation))

	// the account exists and stays signed in
	assert.True(t, h.Provider().Store.Current().SignedIn())

	// the sign-in used up the pending target
	assert.Equal(t, identity.DefaultTarget, h.Provider().Guard.PendingTarget())
}
