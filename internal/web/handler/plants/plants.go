// Package plants provides the catalog pages and consultation booking.
package plants

import (
	"errors"
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"

	"github.com/GreenNest/GreenNest/internal/catalog"
	"github.com/GreenNest/GreenNest/internal/db/models"
	"github.com/GreenNest/GreenNest/internal/web/handler"
	authmiddleware "github.com/GreenNest/GreenNest/internal/web/middleware/auth"
	"github.com/GreenNest/GreenNest/internal/web/navigation"
)

const (
	// Path is the path to the plant list.
	Path = handler.PlantsPath

	// TemplateList is the name of the plant list template.
	TemplateList = "plants/list"

	// TemplateDetails is the name of the plant details template.
	TemplateDetails = "plants/details"

	// MsgConsultationBooked is flashed after a stored consultation request.
	MsgConsultationBooked = "Consultation booked successfully! We will contact you soon."

	// MsgConsultationFailed is flashed when the request could not be stored.
	MsgConsultationFailed = "Could not book the consultation. Please try again."
)

// ConsultationForm is the booking form on the details page.
type ConsultationForm struct {
	Name  string `form:"name" validate:"required,max=100"`
	Email string `form:"email" validate:"required,email,max=254"`
}

// Service is the plants handler service.
type Service struct {
	handler.Service
	deps *handler.Deps
}

// Handler is the plants handler.
var Handler = Service{}

// Init initializes the plants handler.
func (s *Service) Init(app *fiber.App, deps *handler.Deps) error {
	if app == nil || !deps.Valid() || deps.DB == nil {
		return errors.New(handler.ErrNilACDFatalLogMsg)
	}

	s.deps = deps

	app.Route(Path, func(router fiber.Router) {
		router.Get(handler.RouterRootPath, s.List)
		router.Get("/:id", deps.Guard, s.Details)
		router.Post("/:id/consultation", authmiddleware.ReturnTo(detailsTarget), deps.Guard, s.BookConsultation)
	})

	return nil
}

// DetailsPath returns the details page path of a plant.
func DetailsPath(id int) string {
	return Path + "/" + strconv.Itoa(id)
}

// detailsTarget sends visitors signing in to book a consultation back to the plant.
func detailsTarget(c *fiber.Ctx) string {
	id, err := strconv.Atoi(c.Params("id"))
	if err != nil {
		return ""
	}

	return DetailsPath(id)
}

// List renders the catalog, filtered by the category query parameter.
func (s *Service) List(c *fiber.Ctx) error {
	category := c.Query("category", catalog.AllCategories)

	nav := navigation.NewContext("All Plants", navigation.SectionPlants).
		Crumb("Home", handler.RootPath).
		Here("Plants", Path)

	return handler.Render(c, fiber.StatusOK, TemplateList, fiber.Map{
		"Navigation": nav,
		"Plants":     s.deps.Catalog.Filter(category),
		"Categories": s.deps.Catalog.Categories(),
		"Category":   category,
	})
}

// Details renders one plant with the consultation form.
func (s *Service) Details(c *fiber.Ctx) error {
	plant, err := s.plant(c)
	if err != nil {
		return err
	}

	return s.renderDetails(c, fiber.StatusOK, plant, ConsultationForm{}, "")
}

// BookConsultation stores a consultation request for a plant.
func (s *Service) BookConsultation(c *fiber.Ctx) error {
	plant, err := s.plant(c)
	if err != nil {
		return err
	}

	form := new(ConsultationForm)
	if err = c.BodyParser(form); err != nil {
		return s.renderDetails(c, fiber.StatusBadRequest, plant, *form, handler.ValidationMessage(err))
	}

	if err = s.deps.Validate.Struct(form); err != nil {
		return s.renderDetails(c, fiber.StatusUnprocessableEntity, plant, *form, handler.ValidationMessage(err))
	}

	consultation := models.Consultation{
		PlantID: plant.ID,
		Name:    form.Name,
		Email:   form.Email,
	}

	if p, err := handler.Visitor(c); err == nil {
		if id := p.Store.Current().Identity; id != nil {
			consultation.AccountID = id.ID
		}
	}

	if err = s.deps.DB.WithContext(c.UserContext()).Create(&consultation).Error; err != nil {
		log.Error().Err(err).Int("plant", plant.ID).Msg("failed to store consultation")
		return handler.Fail(c, DetailsPath(plant.ID), MsgConsultationFailed)
	}

	s.deps.Metrics.RecordConsultation()
	log.Info().Int("plant", plant.ID).Msg("consultation booked")

	return handler.Success(c, DetailsPath(plant.ID), MsgConsultationBooked)
}

func (s *Service) plant(c *fiber.Ctx) (catalog.Plant, error) {
	id, err := strconv.Atoi(c.Params("id"))
	if err != nil {
		return catalog.Plant{}, fiber.ErrNotFound
	}

	plant, err := s.deps.Catalog.Find(id)
	if err != nil {
		return catalog.Plant{}, fiber.ErrNotFound
	}

	return plant, nil
}

func (s *Service) renderDetails(c *fiber.Ctx, status int, plant catalog.Plant, form ConsultationForm, errMsg string) error {
	nav := navigation.NewContext(plant.Name, navigation.SectionPlants).
		Crumb("Home", handler.RootPath).
		Crumb("Plants", Path).
		Here(plant.Name, DetailsPath(plant.ID))

	if form.Name == "" && form.Email == "" {
		if p, err := handler.Visitor(c); err == nil {
			if id := p.Store.Current().Identity; id != nil {
				form.Name = id.DisplayName
				form.Email = id.Email
			}
		}
	}

	return handler.Render(c, status, TemplateDetails, fiber.Map{
		"Navigation": nav,
		"Plant":      plant,
		"Form":       form,
		"Error":      errMsg,
	})
}
