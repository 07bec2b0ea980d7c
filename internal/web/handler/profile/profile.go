// Package profile provides the profile page of the signed-in visitor.
package profile

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/GreenNest/GreenNest/internal/identity"
	"github.com/GreenNest/GreenNest/internal/web/handler"
	"github.com/GreenNest/GreenNest/internal/web/navigation"
	"github.com/GreenNest/GreenNest/internal/web/visitor"
)

const (
	// Path is the path to the profile page.
	Path = handler.ProfilePath

	// TemplateName is the name of the profile template.
	TemplateName = "profile"

	// MsgUpdated is flashed after a profile update.
	MsgUpdated = "Profile updated successfully!"

	// MsgUpdateFailed prefixes a failed profile update.
	MsgUpdateFailed = "Profile update failed: "
)

// Form is the profile edit form.
type Form struct {
	Name     string `form:"name" validate:"required,max=100"`
	PhotoURL string `form:"photo" validate:"omitempty,url,max=2048"`
}

// Service is the profile handler service.
type Service struct {
	handler.Service
	deps *handler.Deps
}

// Handler is the profile handler.
var Handler = Service{}

// Init initializes the profile handler.
func (s *Service) Init(app *fiber.App, deps *handler.Deps) error {
	if app == nil || !deps.Valid() {
		return errors.New(handler.ErrNilACDFatalLogMsg)
	}

	s.deps = deps

	app.Route(Path, func(router fiber.Router) {
		router.Get(handler.RouterRootPath, deps.Guard, s.Get)
		router.Post(handler.RouterRootPath, deps.Guard, s.Post)
	})

	return nil
}

// Get renders the profile of the signed-in visitor.
func (s *Service) Get(c *fiber.Ctx) error {
	p, err := handler.Visitor(c)
	if err != nil {
		return err
	}

	form := Form{}
	if id := p.Store.Current().Identity; id != nil {
		form.Name = id.DisplayName
		form.PhotoURL = id.AvatarURL
	}

	return s.render(c, fiber.StatusOK, form, "")
}

// Post updates display name and photo.
func (s *Service) Post(c *fiber.Ctx) error {
	p, err := handler.Visitor(c)
	if err != nil {
		return err
	}

	form := new(Form)
	if err = c.BodyParser(form); err != nil {
		return s.render(c, fiber.StatusBadRequest, Form{}, MsgUpdateFailed+handler.ValidationMessage(err))
	}

	if err = s.deps.Validate.Struct(form); err != nil {
		return s.render(c, fiber.StatusUnprocessableEntity, *form, MsgUpdateFailed+handler.ValidationMessage(err))
	}

	err = p.Auth.UpdateProfile(c.UserContext(), form.Name, form.PhotoURL)
	s.deps.Metrics.RecordAuth(identity.OpUpdateProfile, err)

	if err != nil {
		return s.render(c, fiber.StatusUnprocessableEntity, *form, MsgUpdateFailed+handler.ErrorMessage(err))
	}

	visitor.SetCurrentUser(c, p.Store.Current().Identity)

	return handler.Success(c, Path, MsgUpdated)
}

func (s *Service) render(c *fiber.Ctx, status int, form Form, errMsg string) error {
	nav := navigation.NewContext("My Profile", navigation.SectionProfile).
		Crumb("Home", handler.RootPath).
		Here("Profile", Path)

	return handler.Render(c, status, TemplateName, fiber.Map{
		"Navigation": nav,
		"Form":       form,
		"Error":      errMsg,
	})
}
