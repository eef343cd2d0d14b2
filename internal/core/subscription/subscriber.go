// Package subscription maintains the registered subscribers and fans out
// notification, DND and bundle-setting callbacks to them.
package subscription

import (
	"github.com/bmatcuk/doublestar/v4"

	"github.com/colonyops/ans/internal/core/anserr"
	"github.com/colonyops/ans/internal/core/dnd"
	"github.com/colonyops/ans/internal/core/policy"
)

// BundleOption identifies the bundle a settings callback refers to.
type BundleOption struct {
	Bundle string `json:"bundle"`
	UID    int32  `json:"uid"`
	UserID int32  `json:"userId"`
	Enable bool   `json:"enable"`
}

// Subscriber is a set of optional callbacks. Nil callbacks are skipped.
// Callbacks run on the event goroutine and must not block for long.
type Subscriber struct {
	OnConsume                    func(policy.CallbackData)
	OnCancel                     func(policy.CallbackData)
	OnUpdate                     func(policy.SortingMap)
	OnConnect                    func()
	OnDisconnect                 func()
	OnDestroy                    func()
	OnDoNotDisturbDateChange     func(dnd.Window)
	OnEnabledNotificationChanged func(BundleOption)
	OnBadgeChanged               func(BundleOption)
}

// Info filters the notifications a subscriber receives.
type Info struct {
	// BundleNames are doublestar patterns; empty matches every bundle.
	BundleNames []string `json:"bundleNames,omitempty"`
	// UserID limits delivery to one user; nil matches every user.
	UserID *int32 `json:"userId,omitempty"`
}

// Validate checks the bundle patterns.
func (i Info) Validate() error {
	for _, p := range i.BundleNames {
		if p == "" || !doublestar.ValidatePattern(p) {
			return anserr.InvalidParam("invalid bundle pattern %q", p)
		}
	}
	return nil
}

func (i Info) matchesUser(userID int32) bool {
	return i.UserID == nil || *i.UserID == userID
}

func (i Info) matches(bundle string, userID int32) bool {
	if !i.matchesUser(userID) {
		return false
	}
	if len(i.BundleNames) == 0 {
		return true
	}
	for _, p := range i.BundleNames {
		if ok, _ := doublestar.Match(p, bundle); ok {
			return true
		}
	}
	return false
}
