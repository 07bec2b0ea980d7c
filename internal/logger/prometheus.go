package logger

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
)

// statements counts log statements by service and level. It is shared by all
// hooks so every registry sees the same numbers.
var statements = prometheus.NewCounterVec( //nolint:gochecknoglobals
	prometheus.CounterOpts{
		Namespace: "greennest",
		Subsystem: "log",
		Name:      "statements_total",
		Help:      "Number of log statements, differentiated by service and level.",
	},
	[]string{"service", "level"},
)

// LevelHook is a zerolog hook counting statements per level.
type LevelHook struct {
	service string
}

// Run implements zerolog.Hook.
func (h LevelHook) Run(_ *zerolog.Event, level zerolog.Level, _ string) {
	if level == zerolog.NoLevel {
		return
	}

	statements.WithLabelValues(h.service, level.String()).Inc()
}

// NewLevelHook registers the statement counter with reg and returns a hook
// for service. Registering with the same registry twice is fine.
func NewLevelHook(reg prometheus.Registerer, service string) (LevelHook, error) {
	if err := reg.Register(statements); err != nil {
		var already prometheus.AlreadyRegisteredError
		if !errors.As(err, &already) {
			return LevelHook{}, err //nolint:wrapcheck
		}
	}

	return LevelHook{service: service}, nil
}
