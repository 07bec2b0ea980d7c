package visitor_test

import (
	"context"
	"io"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GreenNest/GreenNest/internal/config"
	"github.com/GreenNest/GreenNest/internal/identity"
	"github.com/GreenNest/GreenNest/internal/identity/identitytest"
	"github.com/GreenNest/GreenNest/internal/metrics"
	"github.com/GreenNest/GreenNest/internal/web/session"
	"github.com/GreenNest/GreenNest/internal/web/visitor"
)

type revalidatingBackend struct {
	*identitytest.Backend
	revalidations atomic.Int32
}

func (b *revalidatingBackend) Revalidate(context.Context) {
	b.revalidations.Add(1)
}

type factory struct {
	mu       sync.Mutex
	backends map[string]*revalidatingBackend
	created  atomic.Int32
}

func newFactory() *factory {
	return &factory{backends: make(map[string]*revalidatingBackend)}
}

func (f *factory) create(clientID string) identity.Backend {
	f.created.Add(1)

	b := &revalidatingBackend{Backend: identitytest.New()}

	f.mu.Lock()
	f.backends[clientID] = b
	f.mu.Unlock()

	return b
}

func (f *factory) backend(clientID string) *revalidatingBackend {
	f.mu.Lock()
	defer f.mu.Unlock()

	return f.backends[clientID]
}

func TestGetReusesProvider(t *testing.T) {
	f := newFactory()
	reg, err := visitor.New(10, f.create, "/login", metrics.Nop{})
	require.NoError(t, err)

	p1, err := reg.Get(context.Background(), "client-a")
	require.NoError(t, err)

	p2, err := reg.Get(context.Background(), "client-a")
	require.NoError(t, err)

	assert.Same(t, p1, p2)
	assert.Equal(t, int32(1), f.created.Load())
	assert.Equal(t, int32(1), f.backend("client-a").revalidations.Load())

	p3, err := reg.Get(context.Background(), "client-b")
	require.NoError(t, err)
	assert.NotSame(t, p1, p3)
	assert.Equal(t, 2, reg.Len())
}

func TestGetCoalescesConcurrentCreation(t *testing.T) {
	f := newFactory()
	reg, err := visitor.New(10, f.create, "/login", nil)
	require.NoError(t, err)

	var wg sync.WaitGroup

	providers := make([]*identity.Provider, 16)
	for i := range providers {
		wg.Add(1)

		go func(i int) {
			defer wg.Done()

			p, err := reg.Get(context.Background(), "client-a")
			assert.NoError(t, err)

			providers[i] = p
		}(i)
	}

	wg.Wait()

	assert.Equal(t, int32(1), f.created.Load())

	for _, p := range providers {
		assert.Same(t, providers[0], p)
	}
}

func TestEvictionClosesProvider(t *testing.T) {
	f := newFactory()
	reg, err := visitor.New(1, f.create, "/login", nil)
	require.NoError(t, err)

	_, err = reg.Get(context.Background(), "client-a")
	require.NoError(t, err)
	assert.Equal(t, 1, f.backend("client-a").Listeners())

	_, err = reg.Get(context.Background(), "client-b")
	require.NoError(t, err)

	assert.Equal(t, 0, f.backend("client-a").Listeners())
	assert.Equal(t, 1, reg.Len())

	reg.Purge()
	assert.Equal(t, 0, f.backend("client-b").Listeners())
	assert.Equal(t, 0, reg.Len())
}

func TestMiddleware(t *testing.T) {
	f := newFactory()
	reg, err := visitor.New(10, f.create, "/login", nil)
	require.NoError(t, err)

	store := session.New(nil, config.Session{ExpiryTime: time.Minute}, true)

	app := fiber.New()
	app.Use(store.Middleware(), reg.Middleware())
	app.Get("/", func(c *fiber.Ctx) error {
		p, err := visitor.FromContext(c)
		if err != nil {
			return err
		}

		if id, ok := c.Locals(visitor.LocalsCurrentUser).(*identity.Identity); ok && id != nil {
			return c.SendString("signed in as " + id.ID)
		}

		if p.Store.Current().IsResolving {
			return c.SendString("resolving")
		}

		return c.SendString("signed out")
	})

	resp, err := app.Test(httptest.NewRequest(fiber.MethodGet, "/", nil))
	require.NoError(t, err)

	body, _ := io.ReadAll(resp.Body)
	assert.Equal(t, "resolving", string(body))

	cookies := resp.Cookies()
	require.NotEmpty(t, cookies)

	clientID := cookies[0].Value
	b := f.backend(clientID)
	require.NotNil(t, b)

	b.Resolve(&identity.Identity{ID: "uid-7"})

	req := httptest.NewRequest(fiber.MethodGet, "/", nil)
	req.AddCookie(cookies[0])

	resp, err = app.Test(req)
	require.NoError(t, err)

	body, _ = io.ReadAll(resp.Body)
	assert.Equal(t, "signed in as uid-7", string(body))
}

func TestFromContextWithoutMiddleware(t *testing.T) {
	app := fiber.New()
	app.Get("/", func(c *fiber.Ctx) error {
		_, err := visitor.FromContext(c)
		assert.ErrorIs(t, err, visitor.ErrNoProvider)

		return nil
	})

	_, err := app.Test(httptest.NewRequest(fiber.MethodGet, "/", nil))
	require.NoError(t, err)
}
