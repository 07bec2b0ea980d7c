package accounts

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/GreenNest/GreenNest/internal/db/models"
	"github.com/GreenNest/GreenNest/internal/identity"
)

const (
	// DefaultSessionTTL is used when Config.SessionTTL is zero.
	DefaultSessionTTL = 24 * time.Hour
	// DefaultResetTokenTTL is used when Config.ResetTokenTTL is zero.
	DefaultResetTokenTTL = time.Hour
	// DefaultResetPath is used when Config.ResetPath is empty.
	DefaultResetPath = "/reset-password"

	// backendMinPasswordLength mirrors the minimum enforced by hosted identity services.
	backendMinPasswordLength = 6
)

// Config holds the Service settings.
type Config struct {
	// SessionTTL is how long a browser stays signed in.
	SessionTTL time.Duration
	// ResetTokenTTL is how long a password reset link is valid.
	ResetTokenTTL time.Duration
	// BaseURL is the public URL used in mailed links.
	BaseURL string
	// ResetPath is the path of the reset page below BaseURL.
	ResetPath string
}

// Option configures a Service.
type Option func(*Service)

// WithMailer sets the mailer for password reset links.
func WithMailer(m Mailer) Option {
	return func(s *Service) { s.mailer = m }
}

// WithFederatedProvider registers a federated identity provider under name.
func WithFederatedProvider(name string, p FederatedProvider) Option {
	return func(s *Service) {
		if p != nil {
			s.federated[name] = p
		}
	}
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// Service manages accounts and their sign-in state.
type Service struct {
	db        *gorm.DB
	cfg       Config
	mailer    Mailer
	federated map[string]FederatedProvider
	now       func() time.Time
}

// NewService creates a Service on db.
func NewService(db *gorm.DB, cfg Config, opts ...Option) *Service {
	if cfg.SessionTTL <= 0 {
		cfg.SessionTTL = DefaultSessionTTL
	}

	if cfg.ResetTokenTTL <= 0 {
		cfg.ResetTokenTTL = DefaultResetTokenTTL
	}

	if cfg.ResetPath == "" {
		cfg.ResetPath = DefaultResetPath
	}

	s := &Service{
		db:        db,
		cfg:       cfg,
		mailer:    LogMailer{},
		federated: make(map[string]FederatedProvider),
		now:       time.Now,
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// NormalizeEmail trims and lower-cases an email address.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// FederatedEnabled reports whether the named federated provider is configured.
func (s *Service) FederatedEnabled(name string) bool {
	_, ok := s.federated[name]

	return ok
}

// FederatedAuthURL returns the URL that starts the named provider's redirect flow.
func (s *Service) FederatedAuthURL(name, state, verifier string) (string, error) {
	p, ok := s.federated[name]
	if !ok {
		return "", ErrProviderUnavailable
	}

	return p.AuthCodeURL(state, verifier), nil
}

// Account loads an account by id.
func (s *Service) Account(ctx context.Context, id string) (*models.Account, error) {
	var acc models.Account
	if err := s.db.WithContext(ctx).Where("id = ?", id).First(&acc).Error; err != nil {
		return nil, err
	}

	return &acc, nil
}

func (s *Service) accountByEmail(ctx context.Context, db *gorm.DB, email string) (*models.Account, error) {
	var acc models.Account
	if err := db.WithContext(ctx).Where("email = ?", email).First(&acc).Error; err != nil {
		return nil, err
	}

	return &acc, nil
}

// Authenticate checks an email and password pair.
func (s *Service) Authenticate(ctx context.Context, email, password string) (*models.Account, error) {
	acc, err := s.accountByEmail(ctx, s.db, NormalizeEmail(email))
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrAccountNotFound
	}

	if err != nil {
		return nil, fmt.Errorf("failed to query account: %w", err)
	}

	match, err := acc.VerifyPassword(password)
	if err != nil {
		return nil, fmt.Errorf("failed to verify password: %w", err)
	}

	if !match {
		return nil, ErrWrongPassword
	}

	return acc, nil
}

// CreateAccount creates a password account.
func (s *Service) CreateAccount(ctx context.Context, email, password string) (*models.Account, error) {
	email = NormalizeEmail(email)
	if email == "" || !strings.Contains(email, "@") {
		return nil, ErrInvalidEmail
	}

	if len(password) < backendMinPasswordLength {
		return nil, ErrWeakCredential
	}

	_, err := s.accountByEmail(ctx, s.db, email)
	if err == nil {
		return nil, ErrEmailTaken
	}

	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("failed to query account: %w", err)
	}

	acc := &models.Account{
		ID:       uuid.NewString(),
		Email:    &email,
		Provider: models.ProviderPassword,
	}

	if err = acc.SetPassword(password); err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	if err = s.db.WithContext(ctx).Create(acc).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrEmailTaken
		}

		return nil, fmt.Errorf("failed to create account: %w", err)
	}

	log.Info().Str("account", acc.ID).Msg("account created")

	return acc, nil
}

// SignInFederated exchanges a federated credential and returns the linked
// account, creating it on first sign-in. An existing password account with the
// same verified email address is linked instead of duplicated.
func (s *Service) SignInFederated(ctx context.Context, credential identity.FederatedCredential) (*models.Account, error) {
	p, ok := s.federated[credential.Provider]
	if !ok {
		return nil, ErrProviderUnavailable
	}

	claims, err := p.Exchange(ctx, credential.Code, credential.CodeVerifier)
	if err != nil {
		return nil, err
	}

	var acc *models.Account

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var found models.Account

		err := tx.Where("provider = ? AND external_id = ?", credential.Provider, claims.Subject).First(&found).Error

		switch {
		case err == nil:
			acc = &found
		case !errors.Is(err, gorm.ErrRecordNotFound):
			return fmt.Errorf("failed to query account: %w", err)
		}

		email := NormalizeEmail(claims.Email)

		if acc == nil && email != "" && claims.EmailVerified {
			linked, err := s.accountByEmail(ctx, tx, email)

			switch {
			case err == nil:
				acc = linked
				acc.ExternalID = claims.Subject
			case !errors.Is(err, gorm.ErrRecordNotFound):
				return fmt.Errorf("failed to query account: %w", err)
			}
		}

		isNew := acc == nil
		if isNew {
			acc = &models.Account{
				ID:         uuid.NewString(),
				Provider:   models.Provider(credential.Provider),
				ExternalID: claims.Subject,
			}

			// an unverified address stays unset when another account owns it
			if email != "" {
				if _, err := s.accountByEmail(ctx, tx, email); errors.Is(err, gorm.ErrRecordNotFound) {
					acc.Email = &email
				}
			}
		}

		if acc.DisplayName == "" {
			acc.DisplayName = claims.Name
		}

		if acc.AvatarURL == "" {
			acc.AvatarURL = claims.Picture
		}

		if isNew {
			return tx.Create(acc).Error
		}

		return tx.Save(acc).Error
	})
	if err != nil {
		return nil, err
	}

	return acc, nil
}

// UpdateProfile sets display name and avatar URL of an account.
func (s *Service) UpdateProfile(ctx context.Context, accountID, displayName, avatarURL string) (*models.Account, error) {
	acc, err := s.Account(ctx, accountID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, identity.ErrNotAuthenticated
	}

	if err != nil {
		return nil, fmt.Errorf("failed to query account: %w", err)
	}

	acc.DisplayName = strings.TrimSpace(displayName)
	acc.AvatarURL = strings.TrimSpace(avatarURL)

	if err = s.db.WithContext(ctx).Model(acc).
		Select("display_name", "avatar_url").
		Updates(acc).Error; err != nil {
		return nil, fmt.Errorf("failed to update profile: %w", err)
	}

	return acc, nil
}

// SendPasswordReset mails a single-use reset link. Unknown addresses succeed
// without sending anything.
func (s *Service) SendPasswordReset(ctx context.Context, email string) error {
	email = NormalizeEmail(email)
	if email == "" {
		return ErrInvalidEmail
	}

	acc, err := s.accountByEmail(ctx, s.db, email)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		log.Debug().Msg("password reset for unknown address ignored")
		return nil
	}

	if err != nil {
		return fmt.Errorf("failed to query account: %w", err)
	}

	token, err := GenerateToken()
	if err != nil {
		return fmt.Errorf("failed to generate reset token: %w", err)
	}

	record := &models.PasswordResetToken{
		TokenHash: HashToken(token),
		AccountID: acc.ID,
		ExpiresAt: s.now().Add(s.cfg.ResetTokenTTL),
	}

	if err = s.db.WithContext(ctx).Create(record).Error; err != nil {
		return fmt.Errorf("failed to store reset token: %w", err)
	}

	if err = s.mailer.SendPasswordReset(ctx, email, s.resetLink(token)); err != nil {
		return fmt.Errorf("failed to send reset mail: %w", err)
	}

	log.Info().Str("account", acc.ID).Msg("password reset link sent")

	return nil
}

func (s *Service) resetLink(token string) string {
	return strings.TrimSuffix(s.cfg.BaseURL, "/") + s.cfg.ResetPath + "?token=" + url.QueryEscape(token)
}

func (s *Service) resetToken(ctx context.Context, db *gorm.DB, token string) (*models.PasswordResetToken, error) {
	if token == "" {
		return nil, ErrResetTokenInvalid
	}

	var record models.PasswordResetToken

	err := db.WithContext(ctx).Where("token_hash = ?", HashToken(token)).First(&record).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrResetTokenInvalid
	}

	if err != nil {
		return nil, fmt.Errorf("failed to query reset token: %w", err)
	}

	if !record.Usable(s.now()) {
		return nil, ErrResetTokenInvalid
	}

	return &record, nil
}

// CheckResetToken reports whether token can still be redeemed.
func (s *Service) CheckResetToken(ctx context.Context, token string) error {
	_, err := s.resetToken(ctx, s.db, token)

	return err
}

// ConfirmPasswordReset redeems a reset token and sets a new password. All
// browsers signed in with the account are signed out.
func (s *Service) ConfirmPasswordReset(ctx context.Context, token, password string) error {
	if err := identity.ValidatePassword(password); err != nil {
		return err
	}

	hash, err := models.HashPassword(password)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		record, err := s.resetToken(ctx, tx, token)
		if err != nil {
			return err
		}

		now := s.now()

		if err = tx.Model(&models.PasswordResetToken{}).
			Where("id = ?", record.ID).
			Update("used_at", now).Error; err != nil {
			return fmt.Errorf("failed to redeem reset token: %w", err)
		}

		if err = tx.Model(&models.Account{}).
			Where("id = ?", record.AccountID).
			Update("password_hash", hash).Error; err != nil {
			return fmt.Errorf("failed to update password: %w", err)
		}

		if err = tx.Where("account_id = ?", record.AccountID).
			Delete(&models.SignInState{}).Error; err != nil {
			return fmt.Errorf("failed to revoke sign-in state: %w", err)
		}

		log.Info().Str("account", record.AccountID).Msg("password reset completed")

		return nil
	})
}

// PurgeExpired deletes expired sign-in states and reset tokens.
func (s *Service) PurgeExpired(ctx context.Context) error {
	now := s.now()

	if err := s.db.WithContext(ctx).Where("expires_at <= ?", now).
		Delete(&models.SignInState{}).Error; err != nil {
		return fmt.Errorf("failed to purge sign-in states: %w", err)
	}

	if err := s.db.WithContext(ctx).Where("expires_at <= ? OR used_at IS NOT NULL", now).
		Delete(&models.PasswordResetToken{}).Error; err != nil {
		return fmt.Errorf("failed to purge reset tokens: %w", err)
	}

	return nil
}

func (s *Service) saveState(ctx context.Context, clientID, accountID string) (time.Time, error) {
	state := models.SignInState{
		ClientID:  clientID,
		AccountID: accountID,
		ExpiresAt: s.now().Add(s.cfg.SessionTTL),
	}

	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "client_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"account_id", "expires_at"}),
	}).Create(&state).Error
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to persist sign-in state: %w", err)
	}

	return state.ExpiresAt, nil
}

// loadState returns the account a browser is signed in with, or nil.
func (s *Service) loadState(ctx context.Context, clientID string) (*models.Account, time.Time, error) {
	var state models.SignInState

	err := s.db.WithContext(ctx).Where("client_id = ?", clientID).First(&state).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, time.Time{}, nil
	}

	if err != nil {
		return nil, time.Time{}, fmt.Errorf("failed to query sign-in state: %w", err)
	}

	if state.Expired(s.now()) {
		return nil, time.Time{}, s.deleteState(ctx, clientID)
	}

	acc, err := s.Account(ctx, state.AccountID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, time.Time{}, s.deleteState(ctx, clientID)
	}

	if err != nil {
		return nil, time.Time{}, fmt.Errorf("failed to query account: %w", err)
	}

	return acc, state.ExpiresAt, nil
}

func (s *Service) deleteState(ctx context.Context, clientID string) error {
	err := s.db.WithContext(ctx).Where("client_id = ?", clientID).Delete(&models.SignInState{}).Error
	if err != nil {
		return fmt.Errorf("failed to delete sign-in state: %w", err)
	}

	return nil
}

// GenerateToken generates a random URL safe token.
func GenerateToken() (string, error) {
	b := make([]byte, 32) //nolint:mnd
	if _, err := rand.Read(b); err != nil {
		return "", err
	}

	return base64.RawURLEncoding.EncodeToString(b), nil
}

// HashToken returns the hex encoded SHA-256 hash of a token.
func HashToken(token string) string {
	sum := sha256.Sum256([]byte(token))

	return hex.EncodeToString(sum[:])
}
