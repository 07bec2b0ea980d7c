// Package register provides the account registration page.
package register

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/GreenNest/GreenNest/internal/identity"
	"github.com/GreenNest/GreenNest/internal/web/handler"
	"github.com/GreenNest/GreenNest/internal/web/navigation"
	"github.com/GreenNest/GreenNest/internal/web/visitor"
)

const (
	// Path is the path to the registration page.
	Path = handler.RegisterPath

	// TemplateName is the name of the registration template.
	TemplateName = "register"

	// MsgRegistered is flashed after the account and its profile were created.
	MsgRegistered = "Account created successfully!"

	// MsgRegistrationFailed prefixes a failed registration.
	MsgRegistrationFailed = "Registration failed: "

	// MsgProfileUpdateFailed prefixes a failed profile step; the account exists.
	MsgProfileUpdateFailed = "Profile update failed: "
)

// Form is the registration form.
type Form struct {
	Name     string `form:"name" validate:"required,max=100"`
	PhotoURL string `form:"photo" validate:"omitempty,url,max=2048"`
	Email    string `form:"email" validate:"required,email,max=254"`
	Password string `form:"password" validate:"required"`
}

// Service is the register handler service.
type Service struct {
	handler.Service
	deps *handler.Deps
}

// Handler is the register handler.
var Handler = Service{}

// Init initializes the register handler.
func (s *Service) Init(app *fiber.App, deps *handler.Deps) error {
	if app == nil || !deps.Valid() {
		return errors.New(handler.ErrNilACDFatalLogMsg)
	}

	s.deps = deps

	app.Route(Path, func(router fiber.Router) {
		router.Get(handler.RouterRootPath, deps.GuestOnly, s.Get)
		router.Post(handler.RouterRootPath, deps.GuestOnly, s.Post)
	})

	return nil
}

// Get renders the registration page.
func (s *Service) Get(c *fiber.Ctx) error {
	return s.render(c, fiber.StatusOK, Form{}, "")
}

// Post creates the account, signs it in and sets its profile.
func (s *Service) Post(c *fiber.Ctx) error {
	p, err := handler.Visitor(c)
	if err != nil {
		return err
	}

	form := new(Form)
	if err = c.BodyParser(form); err != nil {
		return s.render(c, fiber.StatusBadRequest, Form{}, MsgRegistrationFailed+handler.ValidationMessage(err))
	}

	if err = s.deps.Validate.Struct(form); err != nil {
		return s.render(c, fiber.StatusUnprocessableEntity, *form, MsgRegistrationFailed+handler.ValidationMessage(err))
	}

	err = p.Auth.Register(c.UserContext(), form.Email, form.Password, form.Name, form.PhotoURL)
	s.deps.Metrics.RecordAuth(identity.OpRegister, err)

	var profileErr *identity.ProfileUpdateError

	switch {
	case err == nil:
		visitor.SetCurrentUser(c, p.Store.Current().Identity)
		return handler.Success(c, p.Guard.ConsumeTarget(), MsgRegistered)
	case errors.As(err, &profileErr):
		// the account is signed in, so the pending target is used up
		p.Guard.ConsumeTarget()

		return handler.Fail(c, handler.ProfilePath, MsgProfileUpdateFailed+handler.ErrorMessage(profileErr.Err))
	default:
		return s.render(c, fiber.StatusUnprocessableEntity, *form, MsgRegistrationFailed+handler.ErrorMessage(err))
	}
}

func (s *Service) render(c *fiber.Ctx, status int, form Form, errMsg string) error {
	nav := navigation.NewContext("Register", navigation.SectionAuth)

	// never echo the password
	form.Password = ""

	return handler.Render(c, status, TemplateName, fiber.Map{
		"Navigation":    nav,
		"Form":          form,
		"Error":         errMsg,
		"GoogleEnabled": s.deps.Accounts != nil && s.deps.Accounts.FederatedEnabled(identity.ProviderGoogle),
	})
}
