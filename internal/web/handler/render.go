package handler

import (
	"github.com/gofiber/fiber/v2"

	"github.com/GreenNest/GreenNest/internal/identity"
	"github.com/GreenNest/GreenNest/internal/web/session"
	"github.com/GreenNest/GreenNest/internal/web/visitor"
)

// Render renders template inside the base layout with the pending flash
// message and the visitor's current identity.
func Render(c *fiber.Ctx, status int, template string, data fiber.Map) error {
	if data == nil {
		data = fiber.Map{}
	}

	if _, ok := data["Flash"]; !ok {
		if f := session.PopFlash(c); f != nil {
			data["Flash"] = f
		}
	}

	if p, err := visitor.FromContext(c); err == nil {
		current := p.Store.Current()
		data["CurrentUser"] = current.Identity
		data["Resolving"] = current.IsResolving
	}

	return c.Status(status).Render(template, data, BaseLayout)
}

// Visitor returns the request's identity provider.
func Visitor(c *fiber.Ctx) (*identity.Provider, error) {
	p, err := visitor.FromContext(c)
	if err != nil {
		return nil, err //nolint:wrapcheck
	}

	return p, nil
}

// Success stores a success flash and redirects to target.
func Success(c *fiber.Ctx, target, message string) error {
	session.SetFlash(c, session.FlashSuccess, message)
	return c.Redirect(target)
}

// Fail stores an error flash and redirects to target.
func Fail(c *fiber.Ctx, target, message string) error {
	session.SetFlash(c, session.FlashError, message)
	return c.Redirect(target)
}
