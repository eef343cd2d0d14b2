package eventbus

import (
	"fmt"

	"github.com/rs/zerolog"
)

// RegisterDebugLogger registers bus hooks that log all event activity at debug level.
// Notification events also carry the hash code of the affected request.
func RegisterDebugLogger(bus *EventBus, logger zerolog.Logger) {
	bus.OnPublish(func(event Event, payload any) {
		e := logger.Debug().Str("event", string(event))
		addPayloadFields(e, payload)
		e.Msg("event fired")
	})

	bus.OnSubscribe(func(event Event) {
		logger.Debug().Str("event", string(event)).Msg("subscriber registered")
	})

	bus.OnDrop(func(event Event, payload any) {
		e := logger.Warn().Str("event", string(event))
		addPayloadFields(e, payload)
		e.Msg("event dropped: bus stopped")
	})

	bus.OnPanic(func(event Event, _ any, recovered any) {
		logger.Error().
			Str("event", string(event)).
			Str("panic", fmt.Sprint(recovered)).
			Msg("subscriber panicked")
	})
}

func addPayloadFields(e *zerolog.Event, payload any) {
	switch p := payload.(type) {
	case NotificationPublishedPayload:
		e.Str("hash_code", p.Request.HashCode).Bool("replaced", p.Replaced)
	case NotificationCanceledPayload:
		e.Str("hash_code", p.Request.HashCode).Stringer("reason", p.Reason)
	case DndChangedPayload:
		e.Int32("user_id", p.UserID).Stringer("dnd_type", p.Window.Type)
	case BundleEnabledChangedPayload:
		e.Str("bundle", p.Bundle).Bool("enabled", p.Enabled)
	case BundleBadgeChangedPayload:
		e.Str("bundle", p.Bundle).Bool("enabled", p.Enabled)
	}
}
