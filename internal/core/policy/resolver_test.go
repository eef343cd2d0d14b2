package policy

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/colonyops/ans/internal/core/notification"
	"github.com/colonyops/ans/internal/core/slot"
)

type fakeSlots map[slot.Owner]map[slot.Type]slot.Slot

func (f fakeSlots) Lookup(_ context.Context, o slot.Owner, t slot.Type) (slot.Slot, error) {
	if s, ok := f[o][t.Normalize()]; ok {
		return s.Clone(), nil
	}
	return slot.New(t), nil
}

func (f fakeSlots) set(o slot.Owner, s slot.Slot) {
	if f[o] == nil {
		f[o] = map[slot.Type]slot.Slot{}
	}
	f[o][s.Type] = s
}

type fakeDnd bool

func (f fakeDnd) IsSuppressed(context.Context, int32, time.Time) (bool, error) {
	return bool(f), nil
}

type fakeActive []notification.Request

func (f fakeActive) List(_ context.Context, filter notification.Filter) ([]notification.Request, error) {
	var out []notification.Request
	for _, r := range f {
		if filter.UserID != nil && r.CreatorUserID != *filter.UserID {
			continue
		}
		out = append(out, r)
	}
	return out, nil
}

type fakeBadges map[string]bool

func (f fakeBadges) BadgeEnabled(_ context.Context, _ int32, bundle string) (bool, error) {
	enabled, ok := f[bundle]
	return !ok || enabled, nil
}

var (
	appOwner = slot.Owner{Bundle: "com.example.app", UserID: 100}
	testNow  = time.Date(2026, time.October, 16, 12, 0, 0, 0, time.UTC)
)

func request(id int32, label string) notification.Request {
	r := notification.Request{
		ID:            id,
		Label:         label,
		SlotType:      slot.TypeSocialCommunication,
		Content:       notification.Text("t", "x"),
		CreatorBundle: appOwner.Bundle,
		CreatorUserID: appOwner.UserID,
	}
	r.HashCode = r.Key().HashCode()
	return r
}

func newResolver(slots fakeSlots, dnd fakeDnd, active fakeActive, badges fakeBadges) *Resolver {
	return NewResolver(slots, dnd, active, Options{
		Now:    func() time.Time { return testNow },
		Badges: badges,
	})
}

func TestResolver_ReadsSlotAtResolutionTime(t *testing.T) {
	ctx := context.Background()
	slots := fakeSlots{}
	req := request(1, "a")
	r := newResolver(slots, false, fakeActive{req}, nil)

	first, err := r.Resolve(ctx, req, false)
	require.NoError(t, err)
	assert.Empty(t, first.SortingMap.Sortings[req.HashCode].Slot.VibrationValues)
	assert.Equal(t, []int64{}, first.VibrationValues)

	updated := slot.New(slot.TypeSocialCommunication)
	updated.VibrationValues = []int64{300, 100}
	updated.Sound = ptr("ring.ogg")
	slots.set(appOwner, updated)

	second, err := r.Resolve(ctx, req, true)
	require.NoError(t, err)
	assert.Equal(t, []int64{300, 100}, second.SortingMap.Sortings[req.HashCode].Slot.VibrationValues)
	assert.Equal(t, []int64{300, 100}, second.VibrationValues)
	assert.Equal(t, "ring.ogg", second.Sound)
	assert.Equal(t, notification.FlagOpen, second.Request.Flags.VibrationEnabled)
	assert.Equal(t, notification.FlagOpen, second.Request.Flags.SoundEnabled)
}

func TestResolver_DefaultSlotHasNoVibration(t *testing.T) {
	req := request(1, "")
	r := newResolver(fakeSlots{}, false, fakeActive{req}, nil)

	data, err := r.Resolve(context.Background(), req, false)
	require.NoError(t, err)

	s := data.SortingMap.Sortings[req.HashCode].Slot
	enabled, _ := ResolveVibration(s)
	assert.False(t, enabled)
	assert.Equal(t, []int64{}, s.VibrationValues)
	assert.Equal(t, notification.FlagClose, data.Request.Flags.VibrationEnabled)
}

func TestResolver_DndSuppresses(t *testing.T) {
	slots := fakeSlots{}
	s := slot.New(slot.TypeSocialCommunication)
	s.Sound = ptr("ring.ogg")
	s.VibrationValues = []int64{100}
	slots.set(appOwner, s)

	req := request(1, "")
	r := newResolver(slots, true, fakeActive{req}, nil)

	data, err := r.Resolve(context.Background(), req, false)
	require.NoError(t, err)
	assert.Empty(t, data.Sound)
	assert.Equal(t, []int64{}, data.VibrationValues)
	assert.True(t, data.SortingMap.Sortings[req.HashCode].Suppressed)
	assert.Equal(t, notification.FlagClose, data.Request.Flags.SoundEnabled)
}

func TestResolver_AlertOnceUpdateIsSilent(t *testing.T) {
	slots := fakeSlots{}
	s := slot.New(slot.TypeSocialCommunication)
	s.Sound = ptr("ring.ogg")
	slots.set(appOwner, s)

	req := request(1, "")
	req.IsAlertOnce = true
	r := newResolver(slots, false, fakeActive{req}, nil)

	first, err := r.Resolve(context.Background(), req, false)
	require.NoError(t, err)
	assert.Equal(t, "ring.ogg", first.Sound)

	update, err := r.Resolve(context.Background(), req, true)
	require.NoError(t, err)
	assert.Empty(t, update.Sound)
}

func TestResolver_SortingMapRanksInPublishOrder(t *testing.T) {
	a, b := request(1, "a"), request(2, "b")
	other := request(3, "c")
	other.CreatorUserID = 101
	other.HashCode = other.Key().HashCode()

	r := newResolver(fakeSlots{}, false, fakeActive{a, b, other}, fakeBadges{appOwner.Bundle: false})

	data, err := r.Resolve(context.Background(), b, false)
	require.NoError(t, err)
	assert.Equal(t, []string{a.HashCode, b.HashCode}, data.SortingMap.SortedHashCode)
	assert.Equal(t, 0, data.SortingMap.Sortings[a.HashCode].Ranking)
	assert.Equal(t, 1, data.SortingMap.Sortings[b.HashCode].Ranking)
	assert.Equal(t, slot.LevelHigh, data.SortingMap.Sortings[b.HashCode].Importance)
	assert.False(t, data.SortingMap.Sortings[b.HashCode].IsDisplayBadge)
}

func TestResolver_ResolveCancelIncludesRemovedRequest(t *testing.T) {
	kept, removed := request(1, "kept"), request(2, "gone")
	r := newResolver(fakeSlots{}, false, fakeActive{kept}, nil)

	data, err := r.ResolveCancel(context.Background(), removed, notification.ReasonAppCancel)
	require.NoError(t, err)
	assert.Equal(t, notification.ReasonAppCancel, data.Reason)
	assert.Equal(t, []string{kept.HashCode, removed.HashCode}, data.SortingMap.SortedHashCode)
	assert.True(t, data.SortingMap.Sortings[removed.HashCode].IsDisplayBadge)
	assert.Equal(t, []int64{}, data.VibrationValues)
}
