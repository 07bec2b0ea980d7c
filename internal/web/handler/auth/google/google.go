package google

import (
	"crypto/subtle"
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"

	"github.com/GreenNest/GreenNest/internal/accounts"
	"github.com/GreenNest/GreenNest/internal/identity"
	"github.com/GreenNest/GreenNest/internal/web/handler"
	"github.com/GreenNest/GreenNest/internal/web/session"
	"github.com/GreenNest/GreenNest/internal/web/visitor"
)

const (
	// LoginPath is the path to initiate Google sign-in.
	LoginPath = handler.RootPath + "auth/google/login"

	// CallbackPath is the path Google redirects back to.
	CallbackPath = handler.RootPath + "auth/google/callback"

	// MsgLoginSuccess is flashed after a successful Google sign-in.
	MsgLoginSuccess = "Login with Google successful!"

	// MsgLoginFailed prefixes a failed Google sign-in.
	MsgLoginFailed = "Google login failed: "

	// MsgUnavailable is flashed when Google sign-in is not configured.
	MsgUnavailable = "Google sign-in is not available."

	stateKey    = "google_state"
	verifierKey = "google_verifier"
)

// ErrStateMismatch is returned when the callback state does not match the session.
var ErrStateMismatch = errors.New("invalid state token")

// Service is the Google sign-in handler service.
type Service struct {
	handler.Service
	deps *handler.Deps
}

// Handler is the Google sign-in handler.
var Handler = Service{}

// Init initializes the Google handler.
func (s *Service) Init(app *fiber.App, deps *handler.Deps) error {
	if app == nil || !deps.Valid() {
		return errors.New(handler.ErrNilACDFatalLogMsg)
	}

	s.deps = deps

	if deps.Accounts == nil || !deps.Accounts.FederatedEnabled(identity.ProviderGoogle) {
		log.Info().Msg("google sign-in is disabled by configuration")

		app.Get(LoginPath, s.Unavailable)

		return nil
	}

	app.Get(LoginPath, s.Login)
	app.Get(CallbackPath, s.Callback)

	return nil
}

// Unavailable answers sign-in attempts while Google is not configured.
func (s *Service) Unavailable(c *fiber.Ctx) error {
	return handler.Fail(c, handler.LoginPath, MsgUnavailable)
}

// Login redirects to Google.
func (s *Service) Login(c *fiber.Ctx) error {
	state, err := accounts.GenerateToken()
	if err != nil {
		log.Error().Err(err).Msg("failed to generate state token")
		return fiber.ErrInternalServerError
	}

	verifier := accounts.NewVerifier()

	authURL, err := s.deps.Accounts.FederatedAuthURL(identity.ProviderGoogle, state, verifier)
	if err != nil {
		return handler.Fail(c, handler.LoginPath, MsgUnavailable)
	}

	session.Set(c, stateKey, state)
	session.Set(c, verifierKey, verifier)

	return c.Redirect(authURL)
}

// Callback completes the sign-in.
func (s *Service) Callback(c *fiber.Ctx) error {
	p, err := handler.Visitor(c)
	if err != nil {
		return err
	}

	// state and verifier are single use
	expected := session.Pop(c, stateKey)
	verifier := session.Pop(c, verifierKey)

	if msg := c.Query("error"); msg != "" {
		log.Debug().Str("error", msg).Msg("google sign-in cancelled")
		return handler.Fail(c, handler.LoginPath, MsgLoginFailed+msg)
	}

	state := c.Query("state")
	if expected == "" || subtle.ConstantTimeCompare([]byte(state), []byte(expected)) != 1 {
		log.Warn().Msg(ErrStateMismatch.Error())
		return handler.Fail(c, handler.LoginPath, MsgLoginFailed+ErrStateMismatch.Error())
	}

	err = p.Auth.SignInWithGoogle(c.UserContext(), identity.FederatedCredential{
		Provider:     identity.ProviderGoogle,
		Code:         c.Query("code"),
		CodeVerifier: verifier,
	})
	s.deps.Metrics.RecordAuth(identity.OpSignInWithGoogle, err)

	if err != nil {
		return handler.Fail(c, handler.LoginPath, MsgLoginFailed+handler.ErrorMessage(err))
	}

	visitor.SetCurrentUser(c, p.Store.Current().Identity)

	return handler.Success(c, p.Guard.ConsumeTarget(), MsgLoginSuccess)
}
