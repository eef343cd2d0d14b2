// Package policy computes the delivery attributes reported to subscribers:
// effective sound, vibration and DND suppression of a notification, and
// the sorting map over the active notifications.
package policy

import (
	"github.com/colonyops/ans/internal/core/slot"
)

// ResolveVibration returns whether the slot vibrates and the pattern to use.
//
// An explicit VibrationEnabled wins. When it is unset the slot vibrates iff
// it carries a non-empty pattern. The pattern is returned only when the slot
// vibrates; otherwise the result is an empty, non-nil slice.
func ResolveVibration(s slot.Slot) (bool, []int64) {
	enabled := len(s.VibrationValues) > 0
	if s.VibrationEnabled != nil {
		enabled = *s.VibrationEnabled
	}
	if !enabled {
		return false, []int64{}
	}
	values := make([]int64, len(s.VibrationValues))
	copy(values, s.VibrationValues)
	return true, values
}

// ResolveSound returns the slot sound when the slot level is loud enough to
// make a sound, or "".
func ResolveSound(s slot.Slot) string {
	if s.Level < slot.LevelDefault {
		return ""
	}
	return s.SoundOrEmpty()
}

// Decision is the resolved delivery of one notification.
type Decision struct {
	Sound            string
	VibrationEnabled bool
	VibrationValues  []int64
	Suppressed       bool
}

// Decide combines the slot with DND state. A suppressed delivery, or a
// silent update of an alert-once notification, has no sound or vibration.
func Decide(s slot.Slot, dndActive, silentUpdate bool) Decision {
	enabled, values := ResolveVibration(s)
	d := Decision{
		Sound:            ResolveSound(s),
		VibrationEnabled: enabled,
		VibrationValues:  values,
		Suppressed:       dndActive && !s.BypassDnd,
	}
	if d.Suppressed || silentUpdate {
		d.Sound = ""
		d.VibrationEnabled = false
		d.VibrationValues = []int64{}
	}
	return d
}
