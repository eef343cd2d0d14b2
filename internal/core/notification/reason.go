package notification

import (
	"fmt"

	"github.com/colonyops/ans/internal/core/anserr"
)

// Reason tells subscribers why a notification was removed.
type Reason int32

const (
	ReasonNone          Reason = 0
	ReasonClick         Reason = 1
	ReasonCancel        Reason = 2
	ReasonCancelAll     Reason = 3
	ReasonAppCancel     Reason = 8
	ReasonAppCancelAll  Reason = 9
	ReasonGroupByApp    Reason = 10
	ReasonGroupBySystem Reason = 11
	ReasonAutoDelete    Reason = 12
)

var reasonNames = map[Reason]string{
	ReasonNone:          "none",
	ReasonClick:         "click",
	ReasonCancel:        "cancel",
	ReasonCancelAll:     "cancel_all",
	ReasonAppCancel:     "app_cancel",
	ReasonAppCancelAll:  "app_cancel_all",
	ReasonGroupByApp:    "group_by_app",
	ReasonGroupBySystem: "group_by_system",
	ReasonAutoDelete:    "auto_delete",
}

func (r Reason) String() string {
	if name, ok := reasonNames[r]; ok {
		return name
	}
	return fmt.Sprintf("reason(%d)", int32(r))
}

// IsValid reports whether r is a declared reason.
func (r Reason) IsValid() bool {
	_, ok := reasonNames[r]
	return ok
}

// ParseReason parses a reason name as printed by String.
func ParseReason(s string) (Reason, error) {
	for r, name := range reasonNames {
		if name == s {
			return r, nil
		}
	}
	return ReasonNone, anserr.InvalidParam("unknown removal reason %q", s)
}
