// Package handlertest builds a fiber app with the session, visitor and guard
// middlewares over fake identity backends for handler tests.
package handlertest

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/GreenNest/GreenNest/internal/accounts"
	"github.com/GreenNest/GreenNest/internal/catalog"
	"github.com/GreenNest/GreenNest/internal/config"
	"github.com/GreenNest/GreenNest/internal/db/models"
	"github.com/GreenNest/GreenNest/internal/identity"
	"github.com/GreenNest/GreenNest/internal/identity/identitytest"
	"github.com/GreenNest/GreenNest/internal/metrics"
	"github.com/GreenNest/GreenNest/internal/web/handler"
	authmiddleware "github.com/GreenNest/GreenNest/internal/web/middleware/auth"
	"github.com/GreenNest/GreenNest/internal/web/session"
	"github.com/GreenNest/GreenNest/internal/web/visitor"
)

// Views is a minimal fiber Views engine. It writes the template name, the
// flash message and the "Error" field so tests can assert on them.
type Views struct{}

// Load implements fiber.Views.
func (Views) Load() error { return nil }

// Render implements fiber.Views.
func (Views) Render(w io.Writer, name string, data any, _ ...string) error {
	_, _ = io.WriteString(w, "template="+name)

	m, ok := data.(fiber.Map)
	if !ok {
		return nil
	}

	if f, ok := m["Flash"].(*session.Flash); ok && f != nil {
		_, _ = fmt.Fprintf(w, "\nflash=%s:%s", f.Kind, f.Message)
	}

	if e, ok := m["Error"].(string); ok && e != "" {
		_, _ = io.WriteString(w, "\nerror="+e)
	}

	if id, ok := m["CurrentUser"].(*identity.Identity); ok && id != nil {
		_, _ = io.WriteString(w, "\nuser="+id.ID)
	}

	return nil
}

// Federated is a FederatedProvider whose auth URL embeds state and verifier.
type Federated struct{}

// AuthCodeURL implements accounts.FederatedProvider.
func (Federated) AuthCodeURL(state, verifier string) string {
	return "https://accounts.example.com/auth?state=" + url.QueryEscape(state) +
		"&verifier=" + url.QueryEscape(verifier)
}

// Exchange implements accounts.FederatedProvider.
func (Federated) Exchange(context.Context, string, string) (*accounts.FederatedClaims, error) {
	return nil, accounts.ErrFederatedRejected
}

// Mailer records password reset links.
type Mailer struct {
	mu    sync.Mutex
	links []string
}

// SendPasswordReset implements accounts.Mailer.
func (m *Mailer) SendPasswordReset(_ context.Context, _, link string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.links = append(m.links, link)

	return nil
}

// LastToken returns the token of the last mailed link.
func (m *Mailer) LastToken() string {
	m.mu.Lock()
	defer m.mu.Unlock()

	if len(m.links) == 0 {
		return ""
	}

	u, err := url.Parse(m.links[len(m.links)-1])
	if err != nil {
		return ""
	}

	return u.Query().Get("token")
}

// Harness is a test app with a cookie jar for one browser.
type Harness struct {
	T        *testing.T
	App      *fiber.App
	Deps     *handler.Deps
	Registry *visitor.Registry
	Mailer   *Mailer

	// Resolve controls how new backends resolve: true resolves them signed out
	// on creation, false leaves them resolving.
	Resolve bool

	mu       sync.Mutex
	backends map[string]*identitytest.Backend
	cookies  map[string]*http.Cookie
}

// New creates a harness. Handlers are registered by the caller with
// h.Deps and h.App before the first request.
func New(t *testing.T) *Harness {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Discard,
	})
	if err != nil {
		t.Fatalf("failed to open sqlite in-memory db: %v", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("failed to get sql db: %v", err)
	}

	sqlDB.SetMaxOpenConns(1)

	if err = db.AutoMigrate(models.All()...); err != nil {
		t.Fatalf("failed to migrate models: %v", err)
	}

	cat, err := catalog.Default()
	if err != nil {
		t.Fatalf("failed to load catalog: %v", err)
	}

	cfg := &config.Config{
		Webserver: config.Webserver{
			URL:  "http://localhost:3000",
			Port: 3000,
			Session: config.Session{
				ExpiryTime:     time.Minute,
				ResolveTimeout: 20 * time.Millisecond,
			},
		},
	}

	h := &Harness{
		T:        t,
		Mailer:   &Mailer{},
		Resolve:  true,
		backends: make(map[string]*identitytest.Backend),
		cookies:  make(map[string]*http.Cookie),
	}

	svc := accounts.NewService(db, accounts.Config{BaseURL: cfg.Webserver.URL},
		accounts.WithMailer(h.Mailer),
		accounts.WithFederatedProvider(identity.ProviderGoogle, Federated{}),
	)

	registry, err := visitor.New(100, h.newBackend, handler.LoginPath, metrics.Nop{})
	if err != nil {
		t.Fatalf("failed to create visitor registry: %v", err)
	}

	h.Registry = registry
	h.Deps = &handler.Deps{
		Cfg:      cfg,
		DB:       db,
		Catalog:  cat,
		Accounts: svc,
		Metrics:  metrics.Nop{},
		Validate: validator.New(),
		Guard: authmiddleware.New(authmiddleware.Config{
			SignInPath:     handler.LoginPath,
			ResolveTimeout: cfg.Webserver.Session.ResolveTimeout,
		}),
		GuestOnly: authmiddleware.RedirectIfAuthenticated(identity.DefaultTarget),
	}

	h.App = fiber.New(fiber.Config{Views: Views{}})
	h.App.Use(
		session.New(nil, cfg.Webserver.Session, true).Middleware(),
		registry.Middleware(),
	)

	t.Cleanup(registry.Purge)

	return h
}

func (h *Harness) newBackend(clientID string) identity.Backend {
	b := identitytest.New()

	h.mu.Lock()
	h.backends[clientID] = b
	resolve := h.Resolve
	h.mu.Unlock()

	if resolve {
		b.Resolve(nil)
	}

	return b
}

// Backend returns the fake backend of the harness browser, creating the
// browser's session with a request to "/" when needed.
func (h *Harness) Backend() *identitytest.Backend {
	h.T.Helper()

	c := h.sessionCookie()
	if c == nil {
		h.Get("/")
		c = h.sessionCookie()
	}

	if c == nil {
		h.T.Fatal("no session cookie")
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	return h.backends[c.Value]
}

// Provider returns the identity provider of the harness browser.
func (h *Harness) Provider() *identity.Provider {
	h.T.Helper()

	_ = h.Backend()

	p, err := h.Registry.Get(context.Background(), h.sessionCookie().Value)
	if err != nil {
		h.T.Fatalf("failed to get provider: %v", err)
	}

	return p
}

// SignIn registers an account in the browser's backend and signs it in.
func (h *Harness) SignIn(email, displayName string) identity.Identity {
	h.T.Helper()

	b := h.Backend()
	id := b.AddAccount(email, "Secret1", displayName)

	if _, err := b.SignInWithPassword(context.Background(), email, "Secret1"); err != nil {
		h.T.Fatalf("failed to sign in: %v", err)
	}

	return id
}

func (h *Harness) sessionCookie() *http.Cookie {
	h.mu.Lock()
	defer h.mu.Unlock()

	return h.cookies[session.CookieName]
}

// Get sends a GET request.
func (h *Harness) Get(path string) *http.Response {
	h.T.Helper()

	return h.Do(httptest.NewRequest(fiber.MethodGet, path, nil))
}

// PostForm sends a url-encoded POST request.
func (h *Harness) PostForm(path string, form url.Values) *http.Response {
	h.T.Helper()

	req := httptest.NewRequest(fiber.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationForm)

	return h.Do(req)
}

// Do sends req with the jar's cookies and stores the returned cookies.
func (h *Harness) Do(req *http.Request) *http.Response {
	h.T.Helper()

	h.mu.Lock()
	for _, c := range h.cookies {
		req.AddCookie(c)
	}
	h.mu.Unlock()

	resp, err := h.App.Test(req, -1)
	if err != nil {
		h.T.Fatalf("request %s %s failed: %v", req.Method, req.URL, err)
	}

	h.mu.Lock()
	for _, c := range resp.Cookies() {
		if c.MaxAge < 0 {
			delete(h.cookies, c.Name)
			continue
		}

		h.cookies[c.Name] = c
	}
	h.mu.Unlock()

	return resp
}

// Body reads the response body.
func Body(t *testing.T, resp *http.Response) string {
	t.Helper()

	b, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("failed to read body: %v", err)
	}

	return string(b)
}
