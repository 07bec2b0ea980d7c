// Package resetpassword completes a mailed password reset link.
package resetpassword

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"

	"github.com/GreenNest/GreenNest/internal/accounts"
	"github.com/GreenNest/GreenNest/internal/identity"
	"github.com/GreenNest/GreenNest/internal/web/handler"
	"github.com/GreenNest/GreenNest/internal/web/navigation"
)

const (
	// Path is the target of mailed reset links.
	Path = accounts.DefaultResetPath

	// TemplateName is the name of the reset template.
	TemplateName = "reset_password"

	// MsgPasswordChanged is flashed after a completed reset.
	MsgPasswordChanged = "Password changed! Please log in with your new password."

	// MsgInvalidLink is shown for unknown, used or expired tokens.
	MsgInvalidLink = "This reset link is invalid or has expired."

	// MsgPasswordMismatch is shown when both password fields differ.
	MsgPasswordMismatch = "Passwords do not match"

	// MsgResetFailed is shown for unexpected failures.
	MsgResetFailed = "Could not change the password. Please try again."
)

// Form is the new password form.
type Form struct {
	Token    string `form:"token"`
	Password string `form:"password"`
	Confirm  string `form:"confirm"`
}

// Service is the reset password handler service.
type Service struct {
	handler.Service
	deps *handler.Deps
}

// Handler is the reset password handler.
var Handler = Service{}

// Init initializes the reset password handler.
func (s *Service) Init(app *fiber.App, deps *handler.Deps) error {
	if app == nil || !deps.Valid() || deps.Accounts == nil {
		return errors.New(handler.ErrNilACDFatalLogMsg)
	}

	s.deps = deps

	app.Route(Path, func(router fiber.Router) {
		router.Get(handler.RouterRootPath, s.Get)
		router.Post(handler.RouterRootPath, s.Post)
	})

	return nil
}

// Get shows the new password form for a valid token.
func (s *Service) Get(c *fiber.Ctx) error {
	token := c.Query("token")

	if err := s.deps.Accounts.CheckResetToken(c.UserContext(), token); err != nil {
		return s.render(c, statusFor(err), "", messageFor(err))
	}

	return s.render(c, fiber.StatusOK, token, "")
}

// Post sets the new password.
func (s *Service) Post(c *fiber.Ctx) error {
	form := new(Form)
	if err := c.BodyParser(form); err != nil {
		return s.render(c, fiber.StatusBadRequest, "", MsgResetFailed)
	}

	if form.Password != form.Confirm {
		return s.render(c, fiber.StatusUnprocessableEntity, form.Token, MsgPasswordMismatch)
	}

	if err := s.deps.Accounts.ConfirmPasswordReset(c.UserContext(), form.Token, form.Password); err != nil {
		token := form.Token
		if errors.Is(err, accounts.ErrResetTokenInvalid) {
			token = ""
		}

		return s.render(c, statusFor(err), token, messageFor(err))
	}

	return handler.Success(c, handler.LoginPath, MsgPasswordChanged)
}

func (s *Service) render(c *fiber.Ctx, status int, token, errMsg string) error {
	nav := navigation.NewContext("Reset Password", navigation.SectionAuth)

	return handler.Render(c, status, TemplateName, fiber.Map{
		"Navigation": nav,
		"Token":      token,
		"Error":      errMsg,
	})
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, accounts.ErrResetTokenInvalid):
		return fiber.StatusBadRequest
	case errors.Is(err, identity.ErrWeakPassword):
		return fiber.StatusUnprocessableEntity
	default:
		return fiber.StatusInternalServerError
	}
}

func messageFor(err error) string {
	switch {
	case errors.Is(err, accounts.ErrResetTokenInvalid):
		return MsgInvalidLink
	case errors.Is(err, identity.ErrWeakPassword):
		return handler.ErrorMessage(err)
	default:
		log.Error().Err(err).Msg("password reset failed")
		return MsgResetFailed
	}
}
