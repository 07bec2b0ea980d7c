package web

import (
	"errors"
	"fmt"
	"math"
	"net/http"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/encryptcookie"
	"github.com/gofiber/fiber/v2/middleware/filesystem"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/template/html/v2"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"

	"github.com/GreenNest/GreenNest/internal/config"
	fiberlogger "github.com/GreenNest/GreenNest/internal/logger/adapter/fiber"
	"github.com/GreenNest/GreenNest/internal/web/handler"
	"github.com/GreenNest/GreenNest/internal/web/handler/auth/google"
	"github.com/GreenNest/GreenNest/internal/web/handler/home"
	"github.com/GreenNest/GreenNest/internal/web/handler/login"
	"github.com/GreenNest/GreenNest/internal/web/handler/logout"
	"github.com/GreenNest/GreenNest/internal/web/handler/plants"
	"github.com/GreenNest/GreenNest/internal/web/handler/profile"
	"github.com/GreenNest/GreenNest/internal/web/handler/register"
	"github.com/GreenNest/GreenNest/internal/web/handler/resetpassword"
	"github.com/GreenNest/GreenNest/internal/web/navigation"
	"github.com/GreenNest/GreenNest/internal/web/session"
	"github.com/GreenNest/GreenNest/internal/web/visitor"
)

const (
	// AppName is reported by fiber and used as page title suffix.
	AppName = "GreenNest"

	// CheckAlivePath answers load balancer health checks.
	CheckAlivePath = "/checkalive"

	// MetricsPath exposes the prometheus metrics.
	MetricsPath = "/metrics"

	// StaticPath serves the embedded static files.
	StaticPath = "/static"

	// NotFoundTemplate is rendered for unknown routes.
	NotFoundTemplate = "not_found"

	// ErrorTemplate is rendered for all other errors.
	ErrorTemplate = "error"

	// DefaultAvatar is shown for visitors without a photo.
	DefaultAvatar = "https://img.daisyui.com/images/stock/photo-1534528741775-53994a69daeb.webp"
)

// ErrNilDependency is returned by New for missing dependencies.
var ErrNilDependency = errors.New("web service dependency is nil")

// Service represents the web service.
type Service struct {
	App          *fiber.App
	cfg          *config.Config
	fastShutDown bool
	alive        atomic.Bool
}

// Start starts the web service on the given address.
func (s *Service) Start(addr string) error {
	var doneFiber = make(chan bool)

	s.alive.Store(true)

	go func() {
		if err := s.App.Listen(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Msgf("fiber listen error: %v", err)
		}

		doneFiber <- true
	}()

	<-doneFiber // wait for fiber to stop

	return nil
}

// WaitShutdown waits for SIGINT or SIGTERM and stops the http server.
func (s *Service) WaitShutdown() {
	irqSig := make(chan os.Signal, 1)
	signal.Notify(irqSig, syscall.SIGINT, syscall.SIGTERM)

	sig := <-irqSig
	log.Info().Msgf("shutdown request (signal: %v)", sig)

	// Graceful shutdown for reverse proxies: set status to fail, so checkalive returns fail.
	if !s.fastShutDown {
		log.Info().Msgf(
			"graceful shutdown: return 503 while %d seconds to let LB to remove this pod from active targets",
			s.cfg.Webserver.ShutDownTime,
		)

		s.alive.Store(false)
		time.Sleep(time.Duration(s.cfg.Webserver.ShutDownTime) * time.Second)
	}

	serverShutdown := make(chan struct{})

	go func() {
		log.Info().Msg("stopping http server ...")

		if err := s.App.Shutdown(); err != nil {
			log.Error().Err(err).Msg("")
		}

		serverShutdown <- struct{}{}
	}()

	<-serverShutdown
	log.Info().Msg("http server was stopped ... good bye...")
}

// Alive reports whether checkalive answers with 200.
func (s *Service) Alive() bool {
	return s.alive.Load()
}

// New creates the web service. Routes are registered in the order
// middlewares, operational endpoints, page handlers.
func New(deps *handler.Deps, sessions *session.Store, visitors *visitor.Registry) (*Service, error) {
	if !deps.Valid() || deps.Accounts == nil || sessions == nil || visitors == nil {
		return nil, ErrNilDependency
	}

	cfg := deps.Cfg

	app := fiber.New(fiber.Config{
		ReadBufferSize:    8192,
		AppName:           AppName,
		CaseSensitive:     true,
		Immutable:         true,
		PassLocalsToViews: true,
		Views:             newTemplateEngine(cfg.DevMode),
		ErrorHandler:      errorHandler,
	})

	service := &Service{
		App: app,
		cfg: cfg,
	}

	if !cfg.Webserver.DisableRecover {
		app.Use(recover.New(recover.Config{EnableStackTrace: cfg.DevMode}))
	}

	if cfg.Webserver.CookieEncryptionKey != "" {
		app.Use(encryptcookie.New(encryptcookie.Config{
			Key: cfg.Webserver.CookieEncryptionKey,
		}))
	}

	app.Use(fiberlogger.New(fiberlogger.Config{
		Config:        cfg.Log,
		CheckAliveURI: CheckAlivePath,
		SkipPrefixes:  []string{StaticPath + "/", MetricsPath},
		IdentityLocal: visitor.LocalsIdentityID,
	}))

	app.Use(StaticPath, filesystem.New(filesystem.Config{
		Root:   assetDir("static"),
		MaxAge: staticMaxAge(cfg.Webserver.CacheEnabled),
	}))

	app.Get(CheckAlivePath, func(c *fiber.Ctx) error {
		if !service.alive.Load() {
			return c.SendStatus(fiber.StatusServiceUnavailable)
		}

		return c.SendString("OK")
	})

	app.Get(MetricsPath, adaptor.HTTPHandler(promhttp.Handler()))

	app.Use(sessions.Middleware(), visitors.Middleware())

	services := []handler.Service{
		&home.Handler,
		&plants.Handler,
		&login.Handler,
		&register.Handler,
		&logout.Handler,
		&profile.Handler,
		&resetpassword.Handler,
		&google.Handler,
	}

	for _, h := range services {
		if err := h.Init(app, deps); err != nil {
			return nil, fmt.Errorf("failed to init handler %T: %w", h, err)
		}
	}

	return service, nil
}

func newTemplateEngine(devMode bool) *html.Engine {
	engine := html.NewFileSystem(assetDir("templates"), ".gohtml")

	// in dev mode, use local filesystem for templates
	if devMode {
		engine = html.New("./internal/web/templates", ".gohtml")
		engine.ShouldReload = true

		log.Warn().Msg("dev mode enabled: using local filesystem for templates")
	}

	engine.AddFunc("add", func(a, b int) int {
		return a + b
	})
	engine.AddFunc("price", func(v float64) string {
		return fmt.Sprintf("$%.2f", v)
	})
	engine.AddFunc("stars", func(rating float64) []bool {
		stars := make([]bool, 5)
		full := int(math.Round(rating))

		for i := range stars {
			stars[i] = i < full
		}

		return stars
	})
	engine.AddFunc("avatar", func(url string) string {
		if url == "" {
			return DefaultAvatar
		}

		return url
	})
	engine.AddFunc("appName", func() string {
		return AppName
	})

	return engine
}

func staticMaxAge(cacheEnabled bool) int {
	if cacheEnabled {
		return int((24 * time.Hour).Seconds())
	}

	return 0
}

// errorHandler renders fiber errors inside the base layout.
func errorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError

	var fe *fiber.Error
	if errors.As(err, &fe) {
		code = fe.Code
	}

	template := ErrorTemplate
	if code == fiber.StatusNotFound {
		template = NotFoundTemplate
	}

	if code >= fiber.StatusInternalServerError {
		log.Error().Err(err).Str("path", c.Path()).Msg("request failed")
	}

	nav := navigation.NewContext(http.StatusText(code), navigation.SectionNone)

	if rerr := handler.Render(c, code, template, fiber.Map{
		"Navigation": nav,
		"Code":       code,
		"Message":    http.StatusText(code),
	}); rerr != nil {
		log.Error().Err(rerr).Msg("failed to render error page")

		return c.Status(code).SendString(http.StatusText(code))
	}

	return nil
}
