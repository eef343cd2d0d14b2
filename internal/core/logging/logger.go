// Package logging provides zerolog helpers shared by the notification service.
package logging

import (
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Component creates a new logger with a component identifier and the
// caller context hook attached. Uses the "cmp" key for consistency with
// zerolog conventions.
func Component(name string) zerolog.Logger {
	return log.With().Str("cmp", name).Logger().Hook(ContextHook{})
}
