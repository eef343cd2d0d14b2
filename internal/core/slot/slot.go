// Package slot defines notification slots: per-application delivery policy
// buckets (importance level, sound, vibration, badge and light settings)
// keyed by slot type.
package slot

import (
	"fmt"
	"strings"

	"github.com/colonyops/ans/internal/core/anserr"
)

// Type identifies a slot. Each application owns at most one slot per type.
type Type int32

const (
	TypeUnknown             Type = 0
	TypeSocialCommunication Type = 1
	TypeServiceInformation  Type = 2
	TypeContentInformation  Type = 3
	TypeOther               Type = 0xFFFF
)

var typeNames = map[Type]string{
	TypeUnknown:             "unknown",
	TypeSocialCommunication: "social_communication",
	TypeServiceInformation:  "service_information",
	TypeContentInformation:  "content_information",
	TypeOther:               "other",
}

func (t Type) String() string {
	if name, ok := typeNames[t]; ok {
		return name
	}
	return fmt.Sprintf("type(%d)", int32(t))
}

// IsValid reports whether t is one of the declared slot types.
func (t Type) IsValid() bool {
	_, ok := typeNames[t]
	return ok
}

// Normalize maps TypeUnknown to TypeOther; all other types are unchanged.
func (t Type) Normalize() Type {
	if t == TypeUnknown {
		return TypeOther
	}
	return t
}

// ParseType parses a slot type name as printed by String.
func ParseType(s string) (Type, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for t, name := range typeNames {
		if name == s {
			return t, nil
		}
	}
	return TypeUnknown, anserr.InvalidParam("unknown slot type %q", s)
}

// Level is the importance level of a slot.
type Level int32

const (
	LevelNone    Level = 0
	LevelMin     Level = 1
	LevelLow     Level = 2
	LevelDefault Level = 3
	LevelHigh    Level = 4
)

var levelNames = [...]string{"none", "min", "low", "default", "high"}

func (l Level) String() string {
	if l.IsValid() {
		return levelNames[l]
	}
	return fmt.Sprintf("level(%d)", int32(l))
}

// IsValid reports whether l is within LevelNone..LevelHigh.
func (l Level) IsValid() bool {
	return l >= LevelNone && l <= LevelHigh
}

// ParseLevel parses a level name as printed by String.
func ParseLevel(s string) (Level, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for i, name := range levelNames {
		if name == s {
			return Level(i), nil
		}
	}
	return LevelNone, anserr.InvalidParam("unknown slot level %q", s)
}

// DefaultLevel returns the level a slot of type t starts with.
func DefaultLevel(t Type) Level {
	switch t.Normalize() {
	case TypeSocialCommunication, TypeServiceInformation:
		return LevelHigh
	default:
		return LevelMin
	}
}

// Owner scopes slots to an application bundle for a user.
type Owner struct {
	Bundle string
	UserID int32
}

// Slot is the delivery policy of one slot type for one owner.
//
// VibrationEnabled is tri-state: nil means "derive from VibrationValues".
// Use the policy package to obtain the effective value. The zero value of
// every other field is a usable setting; a slot accepts publishes unless
// Disabled is set.
type Slot struct {
	Type             Type    `json:"type"`
	Level            Level   `json:"level"`
	Description      string  `json:"description,omitempty"`
	Sound            *string `json:"sound,omitempty"`
	VibrationValues  []int64 `json:"vibrationValues"`
	VibrationEnabled *bool   `json:"vibrationEnabled,omitempty"`
	BadgeFlag        bool    `json:"badgeFlag"`
	BypassDnd        bool    `json:"bypassDnd"`
	LightEnabled     bool    `json:"lightEnabled"`
	LightColor       int32   `json:"lightColor"`
	Disabled         bool    `json:"disabled,omitempty"`
}

// New returns a slot of type t with default settings.
func New(t Type) Slot {
	t = t.Normalize()
	return Slot{
		Type:            t,
		Level:           DefaultLevel(t),
		VibrationValues: []int64{},
		BadgeFlag:       true,
	}
}

// Validate checks the slot fields.
func (s Slot) Validate() error {
	if !s.Type.IsValid() {
		return anserr.InvalidParam("invalid slot type %d", int32(s.Type))
	}
	if !s.Level.IsValid() {
		return anserr.InvalidParam("invalid slot level %d", int32(s.Level))
	}
	for i, v := range s.VibrationValues {
		if v < 0 {
			return anserr.InvalidParam("vibration value %d is negative: %d", i, v)
		}
	}
	return nil
}

// Clone returns a deep copy of s.
func (s Slot) Clone() Slot {
	out := s
	if s.Sound != nil {
		sound := *s.Sound
		out.Sound = &sound
	}
	if s.VibrationEnabled != nil {
		enabled := *s.VibrationEnabled
		out.VibrationEnabled = &enabled
	}
	out.VibrationValues = make([]int64, len(s.VibrationValues))
	copy(out.VibrationValues, s.VibrationValues)
	return out
}

// SoundOrEmpty returns the configured sound or "".
func (s Slot) SoundOrEmpty() string {
	if s.Sound == nil {
		return ""
	}
	return *s.Sound
}

// Patch holds a partial slot update. Nil fields are left untouched.
type Patch struct {
	Type             Type     `json:"type"`
	Level            *Level   `json:"level,omitempty"`
	Description      *string  `json:"description,omitempty"`
	Sound            *string  `json:"sound,omitempty"`
	VibrationValues  *[]int64 `json:"vibrationValues,omitempty"`
	VibrationEnabled *bool    `json:"vibrationEnabled,omitempty"`
	BadgeFlag        *bool    `json:"badgeFlag,omitempty"`
	BypassDnd        *bool    `json:"bypassDnd,omitempty"`
	LightEnabled     *bool    `json:"lightEnabled,omitempty"`
	LightColor       *int32   `json:"lightColor,omitempty"`
	Disabled         *bool    `json:"disabled,omitempty"`
}

// Apply returns a copy of s with the supplied patch fields merged in.
func (s Slot) Apply(p Patch) Slot {
	out := s.Clone()
	if p.Level != nil {
		out.Level = *p.Level
	}
	if p.Description != nil {
		out.Description = *p.Description
	}
	if p.Sound != nil {
		sound := *p.Sound
		out.Sound = &sound
	}
	if p.VibrationValues != nil {
		out.VibrationValues = make([]int64, len(*p.VibrationValues))
		copy(out.VibrationValues, *p.VibrationValues)
	}
	if p.VibrationEnabled != nil {
		enabled := *p.VibrationEnabled
		out.VibrationEnabled = &enabled
	}
	if p.BadgeFlag != nil {
		out.BadgeFlag = *p.BadgeFlag
	}
	if p.BypassDnd != nil {
		out.BypassDnd = *p.BypassDnd
	}
	if p.LightEnabled != nil {
		out.LightEnabled = *p.LightEnabled
	}
	if p.LightColor != nil {
		out.LightColor = *p.LightColor
	}
	if p.Disabled != nil {
		out.Disabled = *p.Disabled
	}
	return out
}

// FromPatch builds a slot from the type defaults with the supplied fields
// applied. It is the constructor for partially specified slot input.
func FromPatch(p Patch) Slot {
	return New(p.Type).Apply(p)
}
