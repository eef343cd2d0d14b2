package notification

import (
	"fmt"
	"strings"

	"github.com/colonyops/ans/internal/core/anserr"
)

// RemindType describes whether the device should actively remind the user.
type RemindType int32

const (
	RemindIdleDoNotRemind   RemindType = 0
	RemindIdle              RemindType = 1
	RemindActiveDoNotRemind RemindType = 2
	RemindActive            RemindType = 3
)

var remindNames = [...]string{"idle_donot_remind", "idle_remind", "active_donot_remind", "active_remind"}

func (r RemindType) String() string {
	if r >= RemindIdleDoNotRemind && r <= RemindActive {
		return remindNames[r]
	}
	return fmt.Sprintf("remind(%d)", int32(r))
}

// ParseRemindType parses a remind type name as printed by String.
func ParseRemindType(s string) (RemindType, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for i, name := range remindNames {
		if name == s {
			return RemindType(i), nil
		}
	}
	return RemindIdleDoNotRemind, anserr.InvalidParam("unknown remind type %q", s)
}
