package logging

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/colonyops/ans/internal/core/caller"
)

// ContextHook extracts the caller bundle and user id from the event context
// and adds them to log events.
type ContextHook struct{}

// Run adds contextual fields to the zerolog event.
func (h ContextHook) Run(e *zerolog.Event, level zerolog.Level, msg string) {
	ctx := e.GetCtx()
	if ctx == context.Background() || ctx == nil {
		return
	}

	id, ok := caller.From(ctx)
	if !ok {
		return
	}

	if id.Bundle != "" {
		e.Str("bundle", id.Bundle)
	}
	e.Int32("user_id", id.UserID)
	if id.System {
		e.Bool("system", true)
	}
}
