// Package logout provides the sign-out endpoint.
package logout

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/GreenNest/GreenNest/internal/identity"
	"github.com/GreenNest/GreenNest/internal/web/handler"
	"github.com/GreenNest/GreenNest/internal/web/visitor"
)

const (
	// Path is the path to the logout endpoint.
	Path = handler.RootPath + "logout"

	// MsgLoggedOut is flashed after signing out.
	MsgLoggedOut = "Logged out successfully!"

	// MsgLogoutFailed prefixes a failed sign-out.
	MsgLogoutFailed = "Logout failed: "
)

// Service is the logout handler service.
type Service struct {
	handler.Service
	deps *handler.Deps
}

// Handler is the logout handler.
var Handler = Service{}

// Init initializes the logout handler.
func (s *Service) Init(app *fiber.App, deps *handler.Deps) error {
	if app == nil || !deps.Valid() {
		return errors.New(handler.ErrNilACDFatalLogMsg)
	}

	s.deps = deps

	app.Get(Path, s.Logout)
	app.Post(Path, s.Logout)

	return nil
}

// Logout signs the visitor out. Signing out twice is harmless.
func (s *Service) Logout(c *fiber.Ctx) error {
	p, err := handler.Visitor(c)
	if err != nil {
		return err
	}

	err = p.Auth.SignOut(c.UserContext())
	s.deps.Metrics.RecordAuth(identity.OpSignOut, err)

	if err != nil {
		return handler.Fail(c, identity.DefaultTarget, MsgLogoutFailed+handler.ErrorMessage(err))
	}

	visitor.SetCurrentUser(c, nil)

	return handler.Success(c, identity.DefaultTarget, MsgLoggedOut)
}
