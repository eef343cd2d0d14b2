// Package notification defines notification requests, their identity and
// the store of active notifications.
package notification

import (
	"fmt"
	"strings"
	"time"

	"github.com/colonyops/ans/internal/core/anserr"
	"github.com/colonyops/ans/internal/core/slot"
)

// FlagStatus is a tri-state switch.
type FlagStatus int32

const (
	FlagNone  FlagStatus = 0
	FlagOpen  FlagStatus = 1
	FlagClose FlagStatus = 2
)

// FlagOf maps a boolean to FlagOpen or FlagClose.
func FlagOf(on bool) FlagStatus {
	if on {
		return FlagOpen
	}
	return FlagClose
}

// Flags reports whether a delivered notification made sound and vibrated.
type Flags struct {
	SoundEnabled     FlagStatus `json:"soundEnabled"`
	VibrationEnabled FlagStatus `json:"vibrationEnabled"`
}

// Progress is the state of a progress-style notification.
type Progress struct {
	Max           int32 `json:"maxValue"`
	Current       int32 `json:"currentValue"`
	Indeterminate bool  `json:"isIndeterminate"`
}

// Template names a system-rendered layout and its data.
type Template struct {
	Name string            `json:"name"`
	Data map[string]string `json:"data,omitempty"`
}

// Request is a notification as published by an application.
type Request struct {
	ID               int32             `json:"id"`
	Label            string            `json:"label,omitempty"`
	SlotType         slot.Type         `json:"slotType"`
	Content          Content           `json:"content"`
	IsOngoing        bool              `json:"isOngoing,omitempty"`
	IsUnremovable    bool              `json:"isUnremovable,omitempty"`
	DeliveryTime     time.Time         `json:"deliveryTime"`
	TapDismissed     bool              `json:"tapDismissed"`
	AutoDeletedTime  time.Time         `json:"autoDeletedTime,omitzero"`
	Color            uint32            `json:"color,omitempty"`
	ColorEnabled     bool              `json:"colorEnabled,omitempty"`
	IsAlertOnce      bool              `json:"isAlertOnce,omitempty"`
	IsStopwatch      bool              `json:"isStopwatch,omitempty"`
	IsCountDown      bool              `json:"isCountDown,omitempty"`
	Progress         *Progress         `json:"progress,omitempty"`
	GroupName        string            `json:"groupName,omitempty"`
	BadgeIconStyle   int32             `json:"badgeIconStyle,omitempty"`
	ShowDeliveryTime bool              `json:"showDeliveryTime,omitempty"`
	Template         *Template         `json:"template,omitempty"`
	Extra            map[string]string `json:"extraInfo,omitempty"`

	// Set by the service on publish.
	HashCode      string `json:"hashCode"`
	Flags         Flags  `json:"notificationFlags"`
	CreatorBundle string `json:"creatorBundleName"`
	CreatorUID    int32  `json:"creatorUid"`
	CreatorUserID int32  `json:"creatorUserId"`
}

// Key returns the identity of the request.
func (r Request) Key() Key {
	return Key{Bundle: r.CreatorBundle, UserID: r.CreatorUserID, ID: r.ID, Label: r.Label}
}

// Expired reports whether the auto-delete time has passed at now.
func (r Request) Expired(now time.Time) bool {
	return !r.AutoDeletedTime.IsZero() && !now.Before(r.AutoDeletedTime)
}

// Validate checks the application-supplied fields.
func (r Request) Validate() error {
	if err := r.Content.Validate(); err != nil {
		return err
	}
	if !r.SlotType.IsValid() {
		return anserr.InvalidParam("invalid slot type %d", int32(r.SlotType))
	}
	if r.IsStopwatch && r.IsCountDown {
		return anserr.InvalidParam("a notification cannot be both stopwatch and countdown")
	}
	if p := r.Progress; p != nil {
		if p.Max < 0 || p.Current < 0 || p.Current > p.Max {
			return anserr.InvalidParam("progress %d/%d is out of range", p.Current, p.Max)
		}
	}
	return nil
}

// Key identifies a notification: (bundle, user, id, label).
type Key struct {
	Bundle string
	UserID int32
	ID     int32
	Label  string
}

// hashEscaper keeps '_' unique to the separators of a hash code.
var hashEscaper = strings.NewReplacer("%", "%25", "_", "%5F")

// HashCode is the derived read-only identifier used to index sorting data.
// Label and bundle are escaped so that distinct keys never share a hash code.
func (k Key) HashCode() string {
	return fmt.Sprintf("%d_%s_%d_%s", k.ID, hashEscaper.Replace(k.Label), k.UserID, hashEscaper.Replace(k.Bundle))
}
