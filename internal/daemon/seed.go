package daemon

import (
	"context"
	"errors"

	"github.com/rs/zerolog/log"

	"github.com/GreenNest/GreenNest/internal/accounts"
)

// Demo account created in dev mode.
const (
	DemoEmail       = "demo@greennest.local"
	DemoPassword    = "GreenNest1"
	DemoDisplayName = "Demo Gardener"
)

// seed creates the demo account unless it exists.
func seed(ctx context.Context, svc *accounts.Service) {
	acc, err := svc.CreateAccount(ctx, DemoEmail, DemoPassword)
	if errors.Is(err, accounts.ErrEmailTaken) {
		return
	}

	if err != nil {
		log.Error().Err(err).Msg("failed to seed demo account")
		return
	}

	if _, err = svc.UpdateProfile(ctx, acc.ID, DemoDisplayName, ""); err != nil {
		log.Error().Err(err).Msg("failed to set demo profile")
		return
	}

	log.Warn().Str("email", DemoEmail).Msg("dev mode: demo account created")
}
