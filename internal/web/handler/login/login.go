// Package login provides the sign-in page and the forgot-password request.
package login

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"

	"github.com/GreenNest/GreenNest/internal/identity"
	"github.com/GreenNest/GreenNest/internal/web/handler"
	"github.com/GreenNest/GreenNest/internal/web/navigation"
	"github.com/GreenNest/GreenNest/internal/web/visitor"
)

const (
	// Path is the path to the login page.
	Path = handler.LoginPath

	// ResetPath receives the forgot-password form.
	ResetPath = Path + "/reset"

	// TemplateName is the name of the login template.
	TemplateName = "login"

	// MsgLoginSuccess is flashed after a successful sign-in.
	MsgLoginSuccess = "Login successful!"

	// MsgLoginFailed prefixes a failed sign-in.
	MsgLoginFailed = "Login failed: "

	// MsgEmailRequired is flashed when the reset form has no address.
	MsgEmailRequired = "Please enter your email address"

	// MsgResetSent is flashed after a reset request, whether or not the address exists.
	MsgResetSent = "Password reset email sent! Check your inbox."

	// MsgResetFailed prefixes a failed reset request.
	MsgResetFailed = "Failed to send reset email: "
)

// Form is the sign-in form.
type Form struct {
	Email    string `form:"email"`
	Password string `form:"password"`
}

// Service is the login handler service.
type Service struct {
	handler.Service
	deps *handler.Deps
}

// Handler is the login handler.
var Handler = Service{}

// Init initializes the login handler.
func (s *Service) Init(app *fiber.App, deps *handler.Deps) error {
	if app == nil || !deps.Valid() {
		return errors.New(handler.ErrNilACDFatalLogMsg)
	}

	s.deps = deps

	app.Route(Path, func(router fiber.Router) {
		router.Get(handler.RouterRootPath, deps.GuestOnly, s.Get)
		router.Post(handler.RouterRootPath, deps.GuestOnly, s.Post)
		router.Post("/reset", s.Reset)
	})

	return nil
}

// Get handles the login page rendering.
func (s *Service) Get(c *fiber.Ctx) error {
	return s.render(c, fiber.StatusOK, "", "")
}

// Post handles the login form submission.
func (s *Service) Post(c *fiber.Ctx) error {
	p, err := handler.Visitor(c)
	if err != nil {
		return err
	}

	form := new(Form)
	if err = c.BodyParser(form); err != nil {
		log.Debug().Err(err).Msg("unparsable login form")
		return s.render(c, fiber.StatusBadRequest, "", MsgLoginFailed+handler.ValidationMessage(err))
	}

	err = p.Auth.SignIn(c.UserContext(), form.Email, form.Password)
	s.deps.Metrics.RecordAuth(identity.OpSignIn, err)

	if err != nil {
		return s.render(c, fiber.StatusUnauthorized, form.Email, MsgLoginFailed+handler.ErrorMessage(err))
	}

	visitor.SetCurrentUser(c, p.Store.Current().Identity)

	return handler.Success(c, p.Guard.ConsumeTarget(), MsgLoginSuccess)
}

// Reset requests a password reset mail for the submitted address.
func (s *Service) Reset(c *fiber.Ctx) error {
	p, err := handler.Visitor(c)
	if err != nil {
		return err
	}

	email := strings.TrimSpace(c.FormValue("email"))
	if email == "" {
		return handler.Fail(c, Path, MsgEmailRequired)
	}

	err = p.Auth.ResetPassword(c.UserContext(), email)
	s.deps.Metrics.RecordAuth(identity.OpResetPassword, err)

	if err != nil {
		return handler.Fail(c, Path, MsgResetFailed+handler.ErrorMessage(err))
	}

	return handler.Success(c, Path, MsgResetSent)
}

func (s *Service) render(c *fiber.Ctx, status int, email, errMsg string) error {
	nav := navigation.NewContext("Login", navigation.SectionAuth)

	data := fiber.Map{
		"Navigation":    nav,
		"Email":         email,
		"Error":         errMsg,
		"GoogleEnabled": s.googleEnabled(),
	}

	return handler.Render(c, status, TemplateName, data)
}

func (s *Service) googleEnabled() bool {
	return s.deps.Accounts != nil && s.deps.Accounts.FederatedEnabled(identity.ProviderGoogle)
}
