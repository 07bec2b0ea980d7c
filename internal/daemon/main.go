// Package daemon assembles the storefront from its configuration and runs it.
package daemon

import (
	"context"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	sessionmysql "github.com/gofiber/storage/mysql/v2"
	sessionpostgres "github.com/gofiber/storage/postgres/v3"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/GreenNest/GreenNest/internal/accounts"
	"github.com/GreenNest/GreenNest/internal/catalog"
	"github.com/GreenNest/GreenNest/internal/config"
	"github.com/GreenNest/GreenNest/internal/db"
	"github.com/GreenNest/GreenNest/internal/db/dsn"
	"github.com/GreenNest/GreenNest/internal/identity"
	"github.com/GreenNest/GreenNest/internal/metrics"
	"github.com/GreenNest/GreenNest/internal/web"
	"github.com/GreenNest/GreenNest/internal/web/handler"
	authmiddleware "github.com/GreenNest/GreenNest/internal/web/middleware/auth"
	"github.com/GreenNest/GreenNest/internal/web/session"
	"github.com/GreenNest/GreenNest/internal/web/visitor"
)

const (
	// PurgeInterval is how often expired sign-in states and reset tokens are removed.
	PurgeInterval = 10 * time.Minute

	// SessionTable holds the fiber sessions in sql storages.
	SessionTable = "web_sessions"
)

// Daemon represents the main application daemon.
type Daemon struct {
	cfg        *config.Config
	db         *gorm.DB
	accounts   *accounts.Service
	visitors   *visitor.Registry
	webService *web.Service
}

// Start runs the web service until SIGINT or SIGTERM.
func (d *Daemon) Start() error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go d.purgeLoop(ctx)
	go d.webService.WaitShutdown()

	addr := fmt.Sprintf(":%d", d.cfg.Webserver.Port)
	log.Info().Str("addr", addr).Msg("starting web service")

	err := d.webService.Start(addr)

	d.visitors.Purge()

	if sqlDB, dbErr := d.db.DB(); dbErr == nil {
		_ = sqlDB.Close()
	}

	return err
}

// New creates a Daemon from cfg. It opens and migrates the database and
// wires the accounts backend, the visitor registry and the web service.
func New(ctx context.Context, cfg *config.Config) (*Daemon, error) {
	if cfg == nil {
		return nil, ErrNilConfig
	}

	gdb, err := db.Open(cfg)
	if err != nil {
		return nil, err
	}

	cat, err := catalog.Default()
	if err != nil {
		return nil, fmt.Errorf("failed to load catalog: %w", err)
	}

	opts := []accounts.Option{accounts.WithMailer(accounts.LogMailer{})}

	if cfg.Auth.Google.Enabled {
		google, gErr := accounts.NewGoogleProvider(ctx, accounts.GoogleConfig{
			ProviderURL:  cfg.Auth.Google.ProviderURL,
			ClientID:     cfg.Auth.Google.ClientID,
			ClientSecret: cfg.Auth.Google.ClientSecret,
			RedirectURL:  cfg.Auth.Google.RedirectURL,
		})
		if gErr != nil {
			// the storefront stays usable with email sign-in
			log.Error().Err(gErr).Msg("google sign-in disabled")
		} else {
			opts = append(opts, accounts.WithFederatedProvider(identity.ProviderGoogle, google))
		}
	}

	svc := accounts.NewService(gdb, accounts.Config{
		SessionTTL:    cfg.Webserver.Session.ExpiryTime,
		ResetTokenTTL: cfg.Auth.Reset.TokenTTL,
		BaseURL:       cfg.Webserver.URL,
	}, opts...)

	if cfg.DevMode {
		seed(ctx, svc)
	}

	collector := metrics.NewCollector(prometheus.DefaultRegisterer)

	visitors, err := visitor.New(cfg.Visitors.CacheSize, func(clientID string) identity.Backend {
		return svc.NewClient(clientID)
	}, handler.LoginPath, collector)
	if err != nil {
		return nil, fmt.Errorf("failed to create visitor registry: %w", err)
	}

	deps := &handler.Deps{
		Cfg:      cfg,
		DB:       gdb,
		Catalog:  cat,
		Accounts: svc,
		Metrics:  collector,
		Validate: validator.New(validator.WithRequiredStructEnabled()),
		Guard: authmiddleware.New(authmiddleware.Config{
			SignInPath:     handler.LoginPath,
			ResolveTimeout: cfg.Webserver.Session.ResolveTimeout,
			Metrics:        collector,
		}),
		GuestOnly: authmiddleware.RedirectIfAuthenticated(identity.DefaultTarget),
	}

	sessions := session.New(sessionStorage(cfg), cfg.Webserver.Session, cfg.DevMode)

	webService, err := web.New(deps, sessions, visitors)
	if err != nil {
		return nil, err
	}

	return &Daemon{
		cfg:        cfg,
		db:         gdb,
		accounts:   svc,
		visitors:   visitors,
		webService: webService,
	}, nil
}

// sessionStorage returns the fiber storage for sessions, nil keeps them in memory.
func sessionStorage(cfg *config.Config) fiber.Storage {
	switch cfg.Webserver.Session.Storage {
	case config.StorageMySQL:
		return sessionmysql.New(sessionmysql.Config{
			ConnectionURI: dsn.MySQL(&cfg.DB),
			Table:         SessionTable,
			GCInterval:    time.Minute,
		})
	case config.StoragePostgres:
		return sessionpostgres.New(sessionpostgres.Config{
			ConnectionURI: dsn.Postgres(&cfg.DB),
			Table:         SessionTable,
			GCInterval:    time.Minute,
		})
	default:
		return nil
	}
}

func (d *Daemon) purgeLoop(ctx context.Context) {
	ticker := time.NewTicker(PurgeInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := d.accounts.PurgeExpired(ctx); err != nil {
				log.Error().Err(err).Msg("failed to purge expired sign-in data")
			}
		}
	}
}
