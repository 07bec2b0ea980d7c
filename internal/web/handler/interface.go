package handler

import (
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/GreenNest/GreenNest/internal/accounts"
	"github.com/GreenNest/GreenNest/internal/catalog"
	"github.com/GreenNest/GreenNest/internal/config"
	"github.com/GreenNest/GreenNest/internal/metrics"
)

// Service is the interface for a web handler service.
type Service interface {
	Init(app *fiber.App, deps *Deps) error
}

// Deps are the dependencies shared by all handlers.
type Deps struct {
	Cfg      *config.Config
	DB       *gorm.DB
	Catalog  *catalog.Catalog
	Accounts *accounts.Service
	Metrics  metrics.Recorder
	Validate *validator.Validate

	// Guard protects routes that need a signed-in visitor.
	Guard fiber.Handler
	// GuestOnly keeps signed-in visitors away from sign-in pages.
	GuestOnly fiber.Handler
}

// Valid reports whether the dependencies every handler needs are set.
func (d *Deps) Valid() bool {
	return d != nil && d.Cfg != nil && d.Catalog != nil && d.Metrics != nil &&
		d.Validate != nil && d.Guard != nil && d.GuestOnly != nil
}
