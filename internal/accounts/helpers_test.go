package accounts

import (
	"context"
	"net/url"
	"sync"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/GreenNest/GreenNest/internal/db/models"
	"github.com/GreenNest/GreenNest/internal/identity"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{TranslateError: true})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)

	// every connection of :memory: is a separate database
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.AutoMigrate(models.All()...))

	t.Cleanup(func() { _ = sqlDB.Close() })

	return db
}

type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func newTestClock() *testClock {
	return &testClock{now: time.Date(2025, 4, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.now
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.now = c.now.Add(d)
}

type sentMail struct {
	to   string
	link string
}

type recordingMailer struct {
	mu   sync.Mutex
	sent []sentMail
	err  error
}

func (m *recordingMailer) SendPasswordReset(_ context.Context, to, link string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.err != nil {
		return m.err
	}

	m.sent = append(m.sent, sentMail{to: to, link: link})

	return nil
}

func (m *recordingMailer) last(t *testing.T) sentMail {
	t.Helper()

	m.mu.Lock()
	defer m.mu.Unlock()

	require.NotEmpty(t, m.sent)

	return m.sent[len(m.sent)-1]
}

func tokenFromLink(t *testing.T, link string) string {
	t.Helper()

	u, err := url.Parse(link)
	require.NoError(t, err)

	return u.Query().Get("token")
}

// fakeFederated accepts the codes it knows when the verifier matches.
type fakeFederated struct {
	claims map[string]*FederatedClaims
}

func (f *fakeFederated) AuthCodeURL(state, verifier string) string {
	return "https://idp.example.com/auth?state=" + url.QueryEscape(state) + "&v=" + url.QueryEscape(verifier)
}

func (f *fakeFederated) Exchange(_ context.Context, code, verifier string) (*FederatedClaims, error) {
	claims, ok := f.claims[code]
	if !ok || verifier != "verifier" {
		return nil, ErrFederatedRejected
	}

	return claims, nil
}

type fixture struct {
	svc    *Service
	db     *gorm.DB
	clock  *testClock
	mailer *recordingMailer
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	f := &fixture{
		db:     newTestDB(t),
		clock:  newTestClock(),
		mailer: &recordingMailer{},
	}

	google := &fakeFederated{claims: map[string]*FederatedClaims{
		"code-gina":  {Subject: "sub-gina", Email: "Gina@Example.com", EmailVerified: true, Name: "Gina", Picture: "https://example.com/gina.png"},
		"code-alice": {Subject: "sub-alice", Email: "alice@example.com", EmailVerified: true, Name: "Alice G"},
		"code-spoof": {Subject: "sub-spoof", Email: "alice@example.com", EmailVerified: false, Name: "Not Alice"},
	}}

	f.svc = NewService(f.db,
		Config{SessionTTL: time.Hour, ResetTokenTTL: 15 * time.Minute, BaseURL: "https://greennest.example.com/"},
		WithMailer(f.mailer),
		WithClock(f.clock.Now),
		WithFederatedProvider(identity.ProviderGoogle, google),
	)

	return f
}

func waitResolved(t *testing.T, store *identity.Store) {
	t.Helper()

	select {
	case <-store.Resolved():
	case <-time.After(2 * time.Second):
		t.Fatal("session did not resolve")
	}
}
