// Package dnd implements the Do-Not-Disturb window: normalization of
// user-supplied windows, suppression checks and the per-user scheduler.
package dnd

import (
	"fmt"
	"strings"
	"time"

	"github.com/colonyops/ans/internal/core/anserr"
)

// Type is the recurrence of a DND window.
type Type int32

const (
	TypeNone    Type = 0
	TypeOnce    Type = 1
	TypeDaily   Type = 2
	TypeClearly Type = 3
)

var typeNames = [...]string{"none", "once", "daily", "clearly"}

func (t Type) String() string {
	if t.IsValid() {
		return typeNames[t]
	}
	return fmt.Sprintf("type(%d)", int32(t))
}

// IsValid reports whether t is a declared window type.
func (t Type) IsValid() bool {
	return t >= TypeNone && t <= TypeClearly
}

// ParseType parses a window type name as printed by String.
func ParseType(s string) (Type, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for i, name := range typeNames {
		if name == s {
			return Type(i), nil
		}
	}
	return TypeNone, anserr.InvalidParam("unknown dnd type %q", s)
}

// Epoch is the begin and end of every TypeNone window.
var Epoch = time.Unix(0, 0).UTC()

// Window is a Do-Not-Disturb period.
type Window struct {
	Type  Type      `json:"type"`
	Begin time.Time `json:"begin"`
	End   time.Time `json:"end"`
}

// Disabled returns the window stored for TypeNone.
func Disabled() Window {
	return Window{Type: TypeNone, Begin: Epoch, End: Epoch}
}

// Normalize converts a requested window into its stored form.
//
//   - TypeNone ignores begin and end and yields Disabled().
//   - TypeOnce and TypeDaily place begin on the current date (now in loc)
//     with the requested hour and minute. End keeps its own date.
//   - TypeClearly keeps both dates and requires begin < end.
//
// Seconds and sub-seconds are always dropped.
func Normalize(w Window, now time.Time, loc *time.Location) (Window, error) {
	if loc == nil {
		loc = time.Local
	}

	switch w.Type {
	case TypeNone:
		return Disabled(), nil
	case TypeOnce, TypeDaily:
		b := w.Begin.In(loc)
		today := now.In(loc)
		return Window{
			Type:  w.Type,
			Begin: time.Date(today.Year(), today.Month(), today.Day(), b.Hour(), b.Minute(), 0, 0, loc),
			End:   truncateMinute(w.End, loc),
		}, nil
	case TypeClearly:
		out := Window{
			Type:  w.Type,
			Begin: truncateMinute(w.Begin, loc),
			End:   truncateMinute(w.End, loc),
		}
		if !out.Begin.Before(out.End) {
			return Window{}, anserr.InvalidParam("dnd end %s is not after begin %s",
				out.End.Format(time.RFC3339), out.Begin.Format(time.RFC3339))
		}
		return out, nil
	default:
		return Window{}, anserr.InvalidParam("invalid dnd type %d", int32(w.Type))
	}
}

// Contains reports whether t falls inside the window.
//
// TypeClearly covers [begin, end). TypeDaily covers the time-of-day range
// [begin, end) every day, wrapping past midnight when end is not after
// begin; equal times cover the whole day. TypeOnce covers a single
// occurrence starting at begin and ending at end's time of day on begin's
// date, or on the following day when that would not be after begin.
func (w Window) Contains(t time.Time, loc *time.Location) bool {
	if loc == nil {
		loc = time.Local
	}

	switch w.Type {
	case TypeClearly:
		return !t.Before(w.Begin) && t.Before(w.End)
	case TypeDaily:
		begin, end, cur := timeOfDay(w.Begin, loc), timeOfDay(w.End, loc), timeOfDay(t, loc)
		switch {
		case begin == end:
			return true
		case begin < end:
			return cur >= begin && cur < end
		default:
			return cur >= begin || cur < end
		}
	case TypeOnce:
		b := w.Begin.In(loc)
		e := w.End.In(loc)
		end := time.Date(b.Year(), b.Month(), b.Day(), e.Hour(), e.Minute(), 0, 0, loc)
		if !end.After(b) {
			end = end.AddDate(0, 0, 1)
		}
		return !t.Before(b) && t.Before(end)
	default:
		return false
	}
}

func truncateMinute(t time.Time, loc *time.Location) time.Time {
	t = t.In(loc)
	return time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), 0, 0, loc)
}

func timeOfDay(t time.Time, loc *time.Location) time.Duration {
	t = t.In(loc)
	return time.Duration(t.Hour())*time.Hour +
		time.Duration(t.Minute())*time.Minute +
		time.Duration(t.Second())*time.Second
}
