package policy

import (
	"context"
	"fmt"
	"time"

	"github.com/colonyops/ans/internal/core/notification"
	"github.com/colonyops/ans/internal/core/slot"
)

// SlotLookup returns the current slot of an owner, falling back to type
// defaults for missing slots.
type SlotLookup interface {
	Lookup(ctx context.Context, owner slot.Owner, t slot.Type) (slot.Slot, error)
}

// DndChecker reports whether the user's DND window covers an instant.
type DndChecker interface {
	IsSuppressed(ctx context.Context, userID int32, t time.Time) (bool, error)
}

// ActiveLister lists active notifications.
type ActiveLister interface {
	List(ctx context.Context, f notification.Filter) ([]notification.Request, error)
}

// BadgeChecker reports whether badges are shown for a bundle.
type BadgeChecker interface {
	BadgeEnabled(ctx context.Context, userID int32, bundle string) (bool, error)
}

// Sorting is the per-notification ranking and policy data.
type Sorting struct {
	Slot           slot.Slot  `json:"slot"`
	HashCode       string     `json:"hashCode"`
	Ranking        int        `json:"ranking"`
	Importance     slot.Level `json:"importance"`
	IsDisplayBadge bool       `json:"isDisplayBadge"`
	Suppressed     bool       `json:"isHiddenNotification"`
}

// SortingMap holds the sortings of a user's active notifications.
type SortingMap struct {
	Sortings       map[string]Sorting `json:"sortings"`
	SortedHashCode []string           `json:"sortedHashCode"`
}

// CallbackData is delivered to subscribers for consume and cancel events.
type CallbackData struct {
	Request         notification.Request `json:"request"`
	SortingMap      SortingMap           `json:"sortingMap"`
	Reason          notification.Reason  `json:"reason"`
	Sound           string               `json:"sound"`
	VibrationValues []int64              `json:"vibrationValues"`
}

// Options configure a Resolver.
type Options struct {
	// Now defaults to time.Now.
	Now func() time.Time
	// Badges defaults to badges always enabled.
	Badges BadgeChecker
}

// Resolver builds CallbackData. It reads slots at resolution time, so a
// slot changed between two deliveries of the same request is reflected in
// the second delivery.
type Resolver struct {
	slots  SlotLookup
	dnd    DndChecker
	active ActiveLister
	opts   Options
}

// NewResolver creates a Resolver.
func NewResolver(slots SlotLookup, dnd DndChecker, active ActiveLister, opts Options) *Resolver {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Resolver{slots: slots, dnd: dnd, active: active, opts: opts}
}

// Resolve computes the consume data for a published request. update marks a
// request that replaced an existing entry.
func (r *Resolver) Resolve(ctx context.Context, req notification.Request, update bool) (CallbackData, error) {
	now := r.opts.Now()

	s, err := r.slots.Lookup(ctx, owner(req), req.SlotType)
	if err != nil {
		return CallbackData{}, fmt.Errorf("resolve slot: %w", err)
	}

	dndActive, err := r.dnd.IsSuppressed(ctx, req.CreatorUserID, now)
	if err != nil {
		return CallbackData{}, fmt.Errorf("resolve dnd: %w", err)
	}

	d := Decide(s, dndActive, update && req.IsAlertOnce)
	req.Flags = notification.Flags{
		SoundEnabled:     notification.FlagOf(d.Sound != ""),
		VibrationEnabled: notification.FlagOf(d.VibrationEnabled),
	}

	sm, err := r.sortingMap(ctx, req, now, dndActive, s)
	if err != nil {
		return CallbackData{}, err
	}

	return CallbackData{
		Request:         req,
		SortingMap:      sm,
		Reason:          notification.ReasonNone,
		Sound:           d.Sound,
		VibrationValues: d.VibrationValues,
	}, nil
}

// ResolveCancel computes the cancel data for a removed request.
func (r *Resolver) ResolveCancel(ctx context.Context, req notification.Request, reason notification.Reason) (CallbackData, error) {
	now := r.opts.Now()

	s, err := r.slots.Lookup(ctx, owner(req), req.SlotType)
	if err != nil {
		return CallbackData{}, fmt.Errorf("resolve slot: %w", err)
	}

	dndActive, err := r.dnd.IsSuppressed(ctx, req.CreatorUserID, now)
	if err != nil {
		return CallbackData{}, fmt.Errorf("resolve dnd: %w", err)
	}

	sm, err := r.sortingMap(ctx, req, now, dndActive, s)
	if err != nil {
		return CallbackData{}, err
	}

	return CallbackData{
		Request:         req,
		SortingMap:      sm,
		Reason:          reason,
		VibrationValues: []int64{},
	}, nil
}

// sortingMap ranks the user's active notifications in publish order. The
// subject request is included even when it is no longer active.
func (r *Resolver) sortingMap(ctx context.Context, subject notification.Request, now time.Time, dndActive bool, subjectSlot slot.Slot) (SortingMap, error) {
	userID := subject.CreatorUserID
	active, err := r.active.List(ctx, notification.Filter{UserID: &userID, Now: now})
	if err != nil {
		return SortingMap{}, fmt.Errorf("list active notifications: %w", err)
	}

	subjectHash := subject.HashCode
	found := false
	for _, a := range active {
		if a.HashCode == subjectHash {
			found = true
			break
		}
	}
	if !found {
		active = append(active, subject)
	}

	type slotKey struct {
		owner slot.Owner
		typ   slot.Type
	}
	slots := map[slotKey]slot.Slot{{owner(subject), subject.SlotType.Normalize()}: subjectSlot}
	badges := map[string]bool{}

	sm := SortingMap{
		Sortings:       make(map[string]Sorting, len(active)),
		SortedHashCode: make([]string, 0, len(active)),
	}

	for i, a := range active {
		key := slotKey{owner(a), a.SlotType.Normalize()}
		s, ok := slots[key]
		if !ok {
			s, err = r.slots.Lookup(ctx, key.owner, key.typ)
			if err != nil {
				return SortingMap{}, fmt.Errorf("resolve slot: %w", err)
			}
			slots[key] = s
		}

		badge, ok := badges[a.CreatorBundle]
		if !ok {
			badge, err = r.badgeEnabled(ctx, a.CreatorUserID, a.CreatorBundle)
			if err != nil {
				return SortingMap{}, err
			}
			badges[a.CreatorBundle] = badge
		}

		sm.Sortings[a.HashCode] = Sorting{
			Slot:           s,
			HashCode:       a.HashCode,
			Ranking:        i,
			Importance:     s.Level,
			IsDisplayBadge: badge && s.BadgeFlag,
			Suppressed:     dndActive && !s.BypassDnd,
		}
		sm.SortedHashCode = append(sm.SortedHashCode, a.HashCode)
	}

	return sm, nil
}

func (r *Resolver) badgeEnabled(ctx context.Context, userID int32, bundle string) (bool, error) {
	if r.opts.Badges == nil {
		return true, nil
	}
	ok, err := r.opts.Badges.BadgeEnabled(ctx, userID, bundle)
	if err != nil {
		return false, fmt.Errorf("resolve badge: %w", err)
	}
	return ok, nil
}

func owner(req notification.Request) slot.Owner {
	return slot.Owner{Bundle: req.CreatorBundle, UserID: req.CreatorUserID}
}
