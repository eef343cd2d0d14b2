package ans

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/colonyops/ans/internal/core/anserr"
	"github.com/colonyops/ans/internal/core/caller"
	"github.com/colonyops/ans/internal/core/config"
	"github.com/colonyops/ans/internal/core/eventbus"
	"github.com/colonyops/ans/internal/core/notification"
	"github.com/colonyops/ans/internal/core/policy"
	"github.com/colonyops/ans/internal/core/slot"
	"github.com/colonyops/ans/internal/core/subscription"
)

func TestPublish_RequiresIdentity(t *testing.T) {
	h := newHarness(t)

	_, err := h.svc.Publish(context.Background(), textRequest(1, "hello"))
	require.ErrorIs(t, err, anserr.ErrInvalidBundle)
}

func TestPublish_DeliversConsume(t *testing.T) {
	h := newHarness(t)
	rec := h.subscribe(t, nil)
	receive(t, rec.connected)

	require.NoError(t, h.svc.AddSlot(h.app, slot.Slot{
		Type:            slot.TypeSocialCommunication,
		Level:           slot.LevelHigh,
		Sound:           ptr("ring.ogg"),
		VibrationValues: []int64{100, 200},
		BadgeFlag:       true,
	}))

	req := textRequest(1, "hello")
	req.Label = "inbox"
	req.SlotType = slot.TypeSocialCommunication

	published, err := h.svc.Publish(h.app, req)
	require.NoError(t, err)
	assert.Equal(t, "1_inbox_100_com.example.mail", published.HashCode)
	assert.Equal(t, appBundle, published.CreatorBundle)
	assert.Equal(t, int32(20010), published.CreatorUID)
	assert.True(t, published.DeliveryTime.Equal(h.clock.Now()))

	data := receive(t, rec.consumed)
	assert.Equal(t, published.HashCode, data.Request.HashCode)
	assert.Equal(t, notification.ReasonNone, data.Reason)
	assert.Equal(t, "ring.ogg", data.Sound)
	assert.Equal(t, []int64{100, 200}, data.VibrationValues)
	assert.Equal(t, notification.FlagOpen, data.Request.Flags.SoundEnabled)
	assert.Equal(t, notification.FlagOpen, data.Request.Flags.VibrationEnabled)

	require.Equal(t, []string{published.HashCode}, data.SortingMap.SortedHashCode)
	sorting := data.SortingMap.Sortings[published.HashCode]
	assert.Equal(t, slot.LevelHigh, sorting.Importance)
	assert.True(t, sorting.IsDisplayBadge)
	assert.False(t, sorting.Suppressed)
}

func TestPublish_CreatesMissingSlot(t *testing.T) {
	h := newHarness(t)

	req := textRequest(1, "hello")
	req.SlotType = slot.TypeServiceInformation
	_, err := h.svc.Publish(h.app, req)
	require.NoError(t, err)

	s, err := h.svc.GetSlot(h.app, slot.TypeServiceInformation)
	require.NoError(t, err)
	assert.Equal(t, slot.New(slot.TypeServiceInformation).Level, s.Level)

	// Unknown is stored as other.
	_, err = h.svc.Publish(h.app, textRequest(2, "unknown"))
	require.NoError(t, err)
	_, err = h.svc.GetSlot(h.app, slot.TypeOther)
	require.NoError(t, err)
}

func TestPublish_PartialSlotDefaults(t *testing.T) {
	h := newHarness(t)
	rec := h.subscribe(t, nil)

	require.NoError(t, h.svc.AddSlot(h.app, slot.Slot{
		Type:            slot.TypeSocialCommunication,
		VibrationValues: []int64{5},
	}))
	require.NoError(t, h.svc.AddSlot(h.app, slot.Slot{Type: slot.TypeServiceInformation}))

	req := textRequest(1, "vibrates")
	req.SlotType = slot.TypeSocialCommunication
	_, err := h.svc.Publish(h.app, req)
	require.NoError(t, err)

	data := receive(t, rec.consumed)
	assert.Equal(t, []int64{5}, data.VibrationValues)
	assert.Equal(t, notification.FlagOpen, data.Request.Flags.VibrationEnabled)

	req = textRequest(2, "quiet")
	req.SlotType = slot.TypeServiceInformation
	_, err = h.svc.Publish(h.app, req)
	require.NoError(t, err)

	data = receive(t, rec.consumed)
	assert.Equal(t, []int64{}, data.VibrationValues)
	assert.Equal(t, notification.FlagClose, data.Request.Flags.VibrationEnabled)
}

func TestPublish_UnderscoresDoNotCollide(t *testing.T) {
	h := newHarness(t)

	ctxY := caller.With(context.Background(), caller.Identity{Bundle: "y", UID: 30001, UserID: caller.DefaultUserID})
	ctxX := caller.With(context.Background(), caller.Identity{Bundle: "x_100_y", UID: 30002, UserID: caller.DefaultUserID})

	first := textRequest(1, "from y")
	first.Label = "a_100_x"
	a, err := h.svc.Publish(ctxY, first)
	require.NoError(t, err)

	second := textRequest(1, "from x")
	second.Label = "a"
	b, err := h.svc.Publish(ctxX, second)
	require.NoError(t, err)
	assert.NotEqual(t, a.HashCode, b.HashCode)

	all, err := h.svc.GetAllActiveNotifications(h.system)
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestPublish_ResolvesSlotAtDelivery(t *testing.T) {
	h := newHarness(t)
	rec := h.subscribe(t, nil)

	req := textRequest(1, "hello")
	req.SlotType = slot.TypeSocialCommunication

	_, err := h.svc.Publish(h.app, req)
	require.NoError(t, err)
	first := receive(t, rec.consumed)
	assert.Empty(t, first.VibrationValues)

	updated, err := h.svc.SetSlotByBundle(h.system, appBundle, slot.Patch{
		Type:            slot.TypeSocialCommunication,
		VibrationValues: &[]int64{300, 400},
	})
	require.NoError(t, err)
	assert.Equal(t, []int64{300, 400}, updated.VibrationValues)

	_, err = h.svc.Publish(h.app, req)
	require.NoError(t, err)
	second := receive(t, rec.consumed)
	assert.Equal(t, []int64{300, 400}, second.VibrationValues)
	assert.Equal(t, []int64{300, 400}, second.SortingMap.Sortings[second.Request.HashCode].Slot.VibrationValues)
}

func TestPublish_ReplaceKeepsOrder(t *testing.T) {
	h := newHarness(t)

	for _, id := range []int32{1, 2, 3} {
		_, err := h.svc.Publish(h.app, textRequest(id, "first"))
		require.NoError(t, err)
	}

	replaced, err := h.svc.Publish(h.app, textRequest(1, "second"))
	require.NoError(t, err)

	active, err := h.svc.GetActiveNotifications(h.app)
	require.NoError(t, err)
	require.Len(t, active, 3)
	assert.Equal(t, []int32{1, 2, 3}, []int32{active[0].ID, active[1].ID, active[2].ID})
	assert.Equal(t, "second", active[0].Content.Basic().Title)
	assert.Equal(t, replaced.HashCode, active[0].HashCode)

	require.True(t, h.bus.WaitForCount(eventbus.EventNotificationPublished, 4, time.Second))
	events := h.bus.Events()
	last := events[len(events)-1].Payload.(eventbus.NotificationPublishedPayload)
	assert.True(t, last.Replaced)
}

func TestPublish_AlertOnceUpdateIsSilent(t *testing.T) {
	h := newHarness(t)
	rec := h.subscribe(t, nil)

	require.NoError(t, h.svc.AddSlot(h.app, slot.Slot{
		Type:            slot.TypeSocialCommunication,
		Level:           slot.LevelHigh,
		Sound:           ptr("ring.ogg"),
		VibrationValues: []int64{100},
	}))

	req := textRequest(1, "download")
	req.SlotType = slot.TypeSocialCommunication
	req.IsAlertOnce = true

	_, err := h.svc.Publish(h.app, req)
	require.NoError(t, err)
	first := receive(t, rec.consumed)
	assert.Equal(t, "ring.ogg", first.Sound)

	_, err = h.svc.Publish(h.app, req)
	require.NoError(t, err)
	second := receive(t, rec.consumed)
	assert.Empty(t, second.Sound)
	assert.Empty(t, second.VibrationValues)
	assert.Equal(t, notification.FlagClose, second.Request.Flags.SoundEnabled)
}

func TestPublish_Validation(t *testing.T) {
	h := newHarness(t)

	tests := []struct {
		name string
		req  func() notification.Request
	}{
		{
			name: "missing title",
			req: func() notification.Request {
				return notification.Request{ID: 1, Content: notification.Text("", "body")}
			},
		},
		{
			name: "invalid slot type",
			req: func() notification.Request {
				r := textRequest(1, "hello")
				r.SlotType = slot.Type(42)
				return r
			},
		},
		{
			name: "progress out of range",
			req: func() notification.Request {
				r := textRequest(1, "hello")
				r.Progress = &notification.Progress{Max: 10, Current: 11}
				return r
			},
		},
		{
			name: "unsupported template",
			req: func() notification.Request {
				r := textRequest(1, "hello")
				r.Template = &notification.Template{Name: "unknownTemplate"}
				return r
			},
		},
		{
			name: "auto delete in the past",
			req: func() notification.Request {
				r := textRequest(1, "hello")
				r.AutoDeletedTime = h.clock.Now().Add(-time.Minute)
				return r
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := h.svc.Publish(h.app, tt.req())
			require.ErrorIs(t, err, anserr.ErrInvalidParam)
			assert.Equal(t, anserr.Code(67108867), anserr.CodeOf(err))
		})
	}

	count, err := h.svc.GetActiveNotificationCount(h.app)
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestPublish_SupportedTemplate(t *testing.T) {
	h := newHarness(t)

	ok, err := h.svc.IsSupportTemplate(h.app, "downloadTemplate")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = h.svc.IsSupportTemplate(h.app, "other")
	require.NoError(t, err)
	assert.False(t, ok)

	req := textRequest(1, "file.zip")
	req.Template = &notification.Template{Name: "downloadTemplate", Data: map[string]string{"progressValue": "45"}}
	_, err = h.svc.Publish(h.app, req)
	require.NoError(t, err)
}

func TestPublish_DisabledSlotOrBundle(t *testing.T) {
	h := newHarness(t)

	disabled := slot.New(slot.TypeContentInformation)
	disabled.Disabled = true
	require.NoError(t, h.svc.AddSlot(h.app, disabled))

	req := textRequest(1, "hello")
	req.SlotType = slot.TypeContentInformation
	_, err := h.svc.Publish(h.app, req)
	require.ErrorIs(t, err, anserr.ErrNotAllowed)

	require.NoError(t, h.svc.EnableNotification(h.system, appBundle, false))
	_, err = h.svc.Publish(h.app, textRequest(2, "hello"))
	require.ErrorIs(t, err, anserr.ErrNotAllowed)

	_, err = h.svc.Publish(h.other, textRequest(2, "hello"))
	require.NoError(t, err, "other bundles are unaffected")
}

func TestPublish_Limits(t *testing.T) {
	h := newHarness(t, func(c *config.Config) {
		c.Limits.MaxActivePerBundle = 2
		c.Limits.MaxActiveTotal = 3
	})

	for _, id := range []int32{1, 2} {
		_, err := h.svc.Publish(h.app, textRequest(id, "hello"))
		require.NoError(t, err)
	}

	_, err := h.svc.Publish(h.app, textRequest(3, "hello"))
	require.ErrorIs(t, err, anserr.ErrOverMaxActiveCount)

	_, err = h.svc.Publish(h.app, textRequest(2, "replace"))
	require.NoError(t, err, "replacing a live entry does not count against the limit")

	_, err = h.svc.Publish(h.other, textRequest(1, "hello"))
	require.NoError(t, err)
	_, err = h.svc.Publish(h.other, textRequest(2, "hello"))
	require.ErrorIs(t, err, anserr.ErrOverMaxActiveCount, "global limit reached")
}

func TestPublishAsUser(t *testing.T) {
	h := newHarness(t)

	_, err := h.svc.PublishAsUser(h.app, textRequest(1, "hello"), 101)
	require.ErrorIs(t, err, anserr.ErrNonSystemApp)
	assert.Equal(t, anserr.Code(67108877), anserr.CodeOf(err))

	_, err = h.svc.PublishAsUser(h.app, textRequest(1, "hello"), -1)
	require.ErrorIs(t, err, anserr.ErrInvalidParam)

	own, err := h.svc.PublishAsUser(h.app, textRequest(1, "hello"), 100)
	require.NoError(t, err)
	assert.Equal(t, int32(100), own.CreatorUserID)

	req, err := h.svc.PublishAsUser(h.system, textRequest(1, "hello"), 101)
	require.NoError(t, err)
	assert.Equal(t, int32(101), req.CreatorUserID)
	assert.Equal(t, "1__101_com.example.settings", req.HashCode)

	require.NoError(t, h.svc.CancelAsUser(h.system, 1, "", 101))
}

func TestCancel(t *testing.T) {
	h := newHarness(t)
	rec := h.subscribe(t, nil)

	first, err := h.svc.Publish(h.app, textRequest(1, "one"))
	require.NoError(t, err)
	second, err := h.svc.Publish(h.app, textRequest(2, "two"))
	require.NoError(t, err)
	receive(t, rec.consumed)
	receive(t, rec.consumed)

	err = h.svc.Cancel(h.app, 9, "")
	require.ErrorIs(t, err, anserr.ErrNotificationNotExists)

	err = h.svc.Cancel(h.other, 1, "")
	require.ErrorIs(t, err, anserr.ErrNotificationNotExists, "other bundles cannot cancel")

	require.NoError(t, h.svc.Cancel(h.app, 1, ""))

	data := receive(t, rec.canceled)
	assert.Equal(t, first.HashCode, data.Request.HashCode)
	assert.Equal(t, notification.ReasonAppCancel, data.Reason)

	remaining := receive(t, rec.updates)
	assert.Equal(t, []string{second.HashCode}, remaining.SortedHashCode)
	assert.NotContains(t, remaining.Sortings, first.HashCode)

	count, err := h.svc.GetActiveNotificationCount(h.app)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestCancelAllAndGroup(t *testing.T) {
	h := newHarness(t)
	rec := h.subscribe(t, &subscription.Info{BundleNames: []string{appBundle}})

	for _, id := range []int32{1, 2, 3} {
		req := textRequest(id, "hello")
		if id < 3 {
			req.GroupName = "threads"
		}
		_, err := h.svc.Publish(h.app, req)
		require.NoError(t, err)
	}
	_, err := h.svc.Publish(h.other, textRequest(1, "other"))
	require.NoError(t, err)

	require.ErrorIs(t, h.svc.CancelGroup(h.app, ""), anserr.ErrInvalidParam)
	require.NoError(t, h.svc.CancelGroup(h.app, "threads"))
	for range 2 {
		data := receive(t, rec.canceled)
		assert.Equal(t, notification.ReasonGroupByApp, data.Reason)
	}

	require.NoError(t, h.svc.CancelAll(h.app))
	data := receive(t, rec.canceled)
	assert.Equal(t, notification.ReasonAppCancelAll, data.Reason)
	assert.Equal(t, int32(3), data.Request.ID)
	assertQuiet(t, rec.canceled)

	count, err := h.svc.GetActiveNotificationCount(h.other)
	require.NoError(t, err)
	assert.Equal(t, 1, count, "cancel all only affects the caller")
}

func TestRemove(t *testing.T) {
	h := newHarness(t)
	rec := h.subscribe(t, nil)

	pinned := textRequest(1, "pinned")
	pinned.IsUnremovable = true
	pinnedReq, err := h.svc.Publish(h.app, pinned)
	require.NoError(t, err)
	plain, err := h.svc.Publish(h.app, textRequest(2, "plain"))
	require.NoError(t, err)

	err = h.svc.Remove(h.app, plain.HashCode, notification.ReasonClick)
	require.ErrorIs(t, err, anserr.ErrNonSystemApp)

	err = h.svc.Remove(h.system, plain.HashCode, notification.ReasonNone)
	require.ErrorIs(t, err, anserr.ErrInvalidParam)

	err = h.svc.Remove(h.system, pinnedReq.HashCode, notification.ReasonClick)
	require.ErrorIs(t, err, anserr.ErrNotificationIsUnremovable)

	err = h.svc.Remove(h.system, "missing", notification.ReasonClick)
	require.ErrorIs(t, err, anserr.ErrNotificationNotExists)

	require.NoError(t, h.svc.Remove(h.system, plain.HashCode, notification.ReasonClick))
	data := receive(t, rec.canceled)
	assert.Equal(t, notification.ReasonClick, data.Reason)
	assert.Equal(t, plain.HashCode, data.Request.HashCode)

	// The owning application may still cancel its own unremovable entry.
	require.NoError(t, h.svc.Cancel(h.app, 1, ""))
}

func TestRemoveAllAndGroupByBundle(t *testing.T) {
	h := newHarness(t)

	pinned := textRequest(1, "pinned")
	pinned.IsUnremovable = true
	pinned.GroupName = "g"
	_, err := h.svc.Publish(h.app, pinned)
	require.NoError(t, err)

	grouped := textRequest(2, "grouped")
	grouped.GroupName = "g"
	_, err = h.svc.Publish(h.app, grouped)
	require.NoError(t, err)

	_, err = h.svc.Publish(h.app, textRequest(3, "loose"))
	require.NoError(t, err)
	_, err = h.svc.Publish(h.other, textRequest(1, "other"))
	require.NoError(t, err)

	require.ErrorIs(t, h.svc.RemoveGroupByBundle(h.app, appBundle, "g"), anserr.ErrNonSystemApp)
	require.ErrorIs(t, h.svc.RemoveGroupByBundle(h.system, "", "g"), anserr.ErrInvalidBundle)

	require.NoError(t, h.svc.RemoveGroupByBundle(h.system, appBundle, "g"))
	active, err := h.svc.GetActiveNotifications(h.app)
	require.NoError(t, err)
	require.Len(t, active, 2)
	assert.Equal(t, int32(1), active[0].ID, "unremovable entries survive")
	assert.Equal(t, int32(3), active[1].ID)

	require.NoError(t, h.svc.RemoveAll(h.system, appBundle))
	active, err = h.svc.GetActiveNotifications(h.app)
	require.NoError(t, err)
	require.Len(t, active, 1)
	assert.True(t, active[0].IsUnremovable)

	all, err := h.svc.GetAllActiveNotifications(h.system)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	require.NoError(t, h.svc.RemoveAll(h.system, ""))
	all, err = h.svc.GetAllActiveNotifications(h.system)
	require.NoError(t, err)
	assert.Len(t, all, 1)

	_, err = h.svc.GetAllActiveNotifications(h.app)
	require.ErrorIs(t, err, anserr.ErrNonSystemApp)
}

func TestSweepExpired(t *testing.T) {
	h := newHarness(t)
	rec := h.subscribe(t, nil)

	req := textRequest(1, "short lived")
	req.AutoDeletedTime = h.clock.Now().Add(time.Minute)
	_, err := h.svc.Publish(h.app, req)
	require.NoError(t, err)
	_, err = h.svc.Publish(h.app, textRequest(2, "kept"))
	require.NoError(t, err)

	n, err := h.svc.SweepExpired(context.Background())
	require.NoError(t, err)
	assert.Zero(t, n)

	h.clock.Advance(2 * time.Minute)

	count, err := h.svc.GetActiveNotificationCount(h.app)
	require.NoError(t, err)
	assert.Equal(t, 1, count, "expired entries are hidden before the sweep")

	err = h.svc.Cancel(h.app, 1, "")
	require.ErrorIs(t, err, anserr.ErrNotificationNotExists)

	n, err = h.svc.SweepExpired(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	for {
		data := receive(t, rec.canceled)
		if data.Request.ID == 1 {
			assert.Equal(t, notification.ReasonAutoDelete, data.Reason)
			break
		}
	}
}

func TestPublish_ReplacesExpiredEntryAsNew(t *testing.T) {
	h := newHarness(t)

	req := textRequest(1, "short lived")
	req.AutoDeletedTime = h.clock.Now().Add(time.Minute)
	_, err := h.svc.Publish(h.app, req)
	require.NoError(t, err)
	require.True(t, h.bus.WaitFor(eventbus.EventNotificationPublished, time.Second))

	h.clock.Advance(2 * time.Minute)
	h.bus.Reset()

	_, err = h.svc.Publish(h.app, textRequest(1, "fresh"))
	require.NoError(t, err)

	require.True(t, h.bus.WaitFor(eventbus.EventNotificationPublished, time.Second))
	p := h.bus.Events()[0].Payload.(eventbus.NotificationPublishedPayload)
	assert.False(t, p.Replaced)
}

func TestSubscriber_PanicIsolation(t *testing.T) {
	h := newHarness(t)

	panicking := &subscription.Subscriber{
		OnConsume: func(policy.CallbackData) { panic("boom") },
	}
	_, err := h.svc.Subscribe(h.system, panicking, nil)
	require.NoError(t, err)

	rec := h.subscribe(t, nil)

	_, err = h.svc.Publish(h.app, textRequest(1, "hello"))
	require.NoError(t, err)

	data := receive(t, rec.consumed)
	assert.Equal(t, int32(1), data.Request.ID)
}

func TestSubscriber_BurstWithSlowConsumer(t *testing.T) {
	h := newHarness(t, func(c *config.Config) {
		c.Limits.MaxActivePerBundle = 1000
		c.Limits.MaxActiveTotal = 1000
	})

	var consumed atomic.Int32
	slow := &subscription.Subscriber{
		OnConsume: func(policy.CallbackData) {
			time.Sleep(2 * time.Millisecond)
			consumed.Add(1)
		},
	}
	_, err := h.svc.Subscribe(h.system, slow, nil)
	require.NoError(t, err)

	const total = 200
	for id := int32(1); id <= total; id++ {
		_, err := h.svc.Publish(h.app, textRequest(id, "burst"))
		require.NoError(t, err)
	}

	require.Eventually(t, func() bool { return consumed.Load() == total }, 10*time.Second, 10*time.Millisecond)
}

func TestSubscriber_BundleFilter(t *testing.T) {
	h := newHarness(t)
	rec := h.subscribe(t, &subscription.Info{BundleNames: []string{"com.example.c*"}})

	_, err := h.svc.Publish(h.app, textRequest(1, "mail"))
	require.NoError(t, err)
	_, err = h.svc.Publish(h.other, textRequest(1, "chat"))
	require.NoError(t, err)

	data := receive(t, rec.consumed)
	assert.Equal(t, otherBundle, data.Request.CreatorBundle)
	assertQuiet(t, rec.consumed)
}

func TestSubscribe_RequiresSystem(t *testing.T) {
	h := newHarness(t)
	rec := newRecorder()

	_, err := h.svc.Subscribe(h.app, rec.sub, nil)
	require.ErrorIs(t, err, anserr.ErrNonSystemApp)

	_, err = h.svc.Subscribe(h.system, rec.sub, nil)
	require.NoError(t, err)
	receive(t, rec.connected)

	require.ErrorIs(t, h.svc.Unsubscribe(h.app, rec.sub), anserr.ErrNonSystemApp)
	require.NoError(t, h.svc.Unsubscribe(h.system, rec.sub))
	assert.Zero(t, h.hub.Len())

	_, err = h.svc.Publish(h.app, textRequest(1, "hello"))
	require.NoError(t, err)
	assertQuiet(t, rec.consumed)
}

func TestErrorsMatchByCode(t *testing.T) {
	h := newHarness(t)

	_, err := h.svc.GetSlot(h.app, slot.TypeServiceInformation)
	require.Error(t, err)

	var coded *anserr.Error
	require.True(t, errors.As(err, &coded))
	assert.Equal(t, anserr.CodeSlotNotExist, coded.Code)
}
