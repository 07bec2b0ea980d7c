package accounts

import (
	"context"

	"github.com/rs/zerolog/log"
)

// Mailer delivers account mails.
type Mailer interface {
	SendPasswordReset(ctx context.Context, to, link string) error
}

// LogMailer writes mails to the log instead of sending them. It is meant for
// development setups without a mail relay.
type LogMailer struct{}

// SendPasswordReset implements Mailer.
func (LogMailer) SendPasswordReset(_ context.Context, to, link string) error {
	log.Info().Str("to", to).Str("link", link).Msg("password reset mail")

	return nil
}
