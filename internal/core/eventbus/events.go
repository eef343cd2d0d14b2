// Package eventbus provides a typed publish/subscribe event bus connecting
// the notification service to subscribers and the delivery journal.
package eventbus

import (
	"github.com/colonyops/ans/internal/core/dnd"
	"github.com/colonyops/ans/internal/core/notification"
)

// Event names an event type.
type Event string

// Keep list sorted A-Z
const (
	EventBundleBadgeChanged    Event = "bundle.badge-changed"
	EventBundleEnabledChanged  Event = "bundle.enabled-changed"
	EventDndChanged            Event = "dnd.changed"
	EventNotificationCanceled  Event = "notification.canceled"
	EventNotificationPublished Event = "notification.published"
)

// Events lists every event type with its payload.
var Events = map[Event]any{
	EventBundleBadgeChanged:    BundleBadgeChangedPayload{},
	EventBundleEnabledChanged:  BundleEnabledChangedPayload{},
	EventDndChanged:            DndChangedPayload{},
	EventNotificationCanceled:  NotificationCanceledPayload{},
	EventNotificationPublished: NotificationPublishedPayload{},
}

// NotificationPublishedPayload is emitted for every successful publish.
type NotificationPublishedPayload struct {
	Request notification.Request
	// Replaced is true when the publish updated an existing entry.
	Replaced bool
}

// NotificationCanceledPayload is emitted for every removed notification.
type NotificationCanceledPayload struct {
	Request notification.Request
	Reason  notification.Reason
}

// DndChangedPayload is emitted when a user's DND window is stored.
type DndChangedPayload struct {
	UserID int32
	Window dnd.Window
}

// BundleEnabledChangedPayload is emitted when notifications are enabled or
// disabled for a bundle.
type BundleEnabledChangedPayload struct {
	Bundle  string
	UID     int32
	UserID  int32
	Enabled bool
}

// BundleBadgeChangedPayload is emitted when badge display changes for a bundle.
type BundleBadgeChangedPayload struct {
	Bundle  string
	UID     int32
	UserID  int32
	Enabled bool
}
