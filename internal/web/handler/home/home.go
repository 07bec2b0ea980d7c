// Package home provides the landing page with the featured plants.
package home

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/GreenNest/GreenNest/internal/web/handler"
	"github.com/GreenNest/GreenNest/internal/web/navigation"
)

const (
	// Path is the path to the home page.
	Path = handler.RootPath

	// TemplateName is the name of the home template.
	TemplateName = "home"
)

// Service is the home handler service.
type Service struct {
	handler.Service
	deps *handler.Deps
}

// Handler is the home handler.
var Handler = Service{}

// Init initializes the home handler.
func (s *Service) Init(app *fiber.App, deps *handler.Deps) error {
	if app == nil || !deps.Valid() {
		return errors.New(handler.ErrNilACDFatalLogMsg)
	}

	s.deps = deps

	app.Get(Path, s.Get)

	return nil
}

// Get renders the home page.
func (s *Service) Get(c *fiber.Ctx) error {
	nav := navigation.NewContext("Home", navigation.SectionHome)

	return handler.Render(c, fiber.StatusOK, TemplateName, fiber.Map{
		"Navigation": nav,
		"Featured":   s.deps.Catalog.Featured(),
		"Categories": s.deps.Catalog.Categories(),
	})
}
