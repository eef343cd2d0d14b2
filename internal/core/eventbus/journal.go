package eventbus

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/colonyops/ans/internal/core/journal"
)

// JournalRouter appends every bus event to the delivery journal.
type JournalRouter struct {
	bus   *EventBus
	store journal.Store
	now   func() time.Time
	log   zerolog.Logger
}

// NewJournalRouter constructs a router writing to store.
func NewJournalRouter(bus *EventBus, store journal.Store, logger zerolog.Logger) *JournalRouter {
	return &JournalRouter{bus: bus, store: store, now: time.Now, log: logger}
}

// Register subscribes all supported event mappings.
func (r *JournalRouter) Register() {
	if r == nil || r.bus == nil || r.store == nil {
		return
	}

	r.bus.SubscribeNotificationPublished(func(p NotificationPublishedPayload) {
		verb := "published"
		if p.Replaced {
			verb = "updated"
		}
		r.record(journal.Entry{
			Kind:     journal.KindConsume,
			Bundle:   p.Request.CreatorBundle,
			UserID:   p.Request.CreatorUserID,
			HashCode: p.Request.HashCode,
			Message:  fmt.Sprintf("notification %d %s: %s", p.Request.ID, verb, p.Request.Content.Basic().Title),
		})
	})

	r.bus.SubscribeNotificationCanceled(func(p NotificationCanceledPayload) {
		r.record(journal.Entry{
			Kind:     journal.KindCancel,
			Bundle:   p.Request.CreatorBundle,
			UserID:   p.Request.CreatorUserID,
			HashCode: p.Request.HashCode,
			Message:  fmt.Sprintf("notification %d removed (%s)", p.Request.ID, p.Reason),
		})
	})

	r.bus.SubscribeDndChanged(func(p DndChangedPayload) {
		r.record(journal.Entry{
			Kind:    journal.KindDnd,
			UserID:  p.UserID,
			Message: fmt.Sprintf("dnd set to %s from %s to %s", p.Window.Type, p.Window.Begin.Format(time.RFC3339), p.Window.End.Format(time.RFC3339)),
		})
	})

	r.bus.SubscribeBundleEnabledChanged(func(p BundleEnabledChangedPayload) {
		r.record(journal.Entry{
			Kind:    journal.KindEnabled,
			Bundle:  p.Bundle,
			UserID:  p.UserID,
			Message: fmt.Sprintf("notifications enabled=%t", p.Enabled),
		})
	})

	r.bus.SubscribeBundleBadgeChanged(func(p BundleBadgeChangedPayload) {
		r.record(journal.Entry{
			Kind:    journal.KindBadge,
			Bundle:  p.Bundle,
			UserID:  p.UserID,
			Message: fmt.Sprintf("badge enabled=%t", p.Enabled),
		})
	})
}

func (r *JournalRouter) record(e journal.Entry) {
	e.CreatedAt = r.now()
	if _, err := r.store.Save(context.Background(), e); err != nil {
		r.log.Error().Err(err).Str("kind", string(e.Kind)).Msg("failed to record journal entry")
	}
}
