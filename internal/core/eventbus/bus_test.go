package eventbus_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/colonyops/ans/internal/core/eventbus"
	"github.com/colonyops/ans/internal/core/eventbus/testbus"
	"github.com/colonyops/ans/internal/core/notification"
)

func TestEventBus_DeliversInPublishOrder(t *testing.T) {
	tb := testbus.New(t)

	for i := int32(1); i <= 5; i++ {
		tb.PublishNotificationPublished(eventbus.NotificationPublishedPayload{Request: notification.Request{ID: i}})
	}

	require.True(t, tb.WaitForCount(eventbus.EventNotificationPublished, 5, time.Second))

	var ids []int32
	for _, e := range tb.Events() {
		ids = append(ids, e.Payload.(eventbus.NotificationPublishedPayload).Request.ID)
	}
	assert.Equal(t, []int32{1, 2, 3, 4, 5}, ids)
}

func TestEventBus_PanicIsRecovered(t *testing.T) {
	tb := testbus.New(t)

	var mu sync.Mutex
	var panics []any
	tb.OnPanic(func(_ eventbus.Event, _ any, recovered any) {
		mu.Lock()
		panics = append(panics, recovered)
		mu.Unlock()
	})

	tb.SubscribeDndChanged(func(eventbus.DndChangedPayload) { panic("boom") })

	tb.PublishDndChanged(eventbus.DndChangedPayload{UserID: 100})
	tb.PublishBundleBadgeChanged(eventbus.BundleBadgeChangedPayload{Bundle: "a"})

	tb.AssertPublished(t, eventbus.EventBundleBadgeChanged)
	assert.Equal(t, 1, tb.Count(eventbus.EventDndChanged))

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []any{"boom"}, panics)
}

func TestEventBus_QueueGrowsPastInitialSize(t *testing.T) {
	bus := eventbus.New(1)

	dropped := 0
	bus.OnDrop(func(eventbus.Event, any) { dropped++ })

	var mu sync.Mutex
	var got []int32
	bus.SubscribeDndChanged(func(p eventbus.DndChangedPayload) {
		time.Sleep(time.Millisecond)
		mu.Lock()
		got = append(got, p.UserID)
		mu.Unlock()
	})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		bus.Start(ctx)
	}()

	want := make([]int32, 0, 200)
	for i := int32(1); i <= 200; i++ {
		bus.PublishDndChanged(eventbus.DndChangedPayload{UserID: i})
		want = append(want, i)
	}

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(got) == len(want)
	}, 5*time.Second, 10*time.Millisecond)

	cancel()
	<-done

	assert.Equal(t, want, got)
	assert.Zero(t, dropped)
}

func TestEventBus_DropsAfterStop(t *testing.T) {
	bus := eventbus.New(1)

	dropped := 0
	bus.OnDrop(func(eventbus.Event, any) { dropped++ })

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	bus.Start(ctx)

	bus.PublishDndChanged(eventbus.DndChangedPayload{})
	assert.Equal(t, 1, dropped)
}

func TestEventBus_DrainDeliversHandlerEvents(t *testing.T) {
	bus := eventbus.New(1)

	var badges []string
	bus.SubscribeDndChanged(func(eventbus.DndChangedPayload) {
		bus.PublishBundleBadgeChanged(eventbus.BundleBadgeChangedPayload{Bundle: "a"})
	})
	bus.SubscribeBundleBadgeChanged(func(p eventbus.BundleBadgeChangedPayload) {
		badges = append(badges, p.Bundle)
	})

	bus.PublishDndChanged(eventbus.DndChangedPayload{})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	bus.Start(ctx)

	assert.Equal(t, []string{"a"}, badges)
}

func TestEventBus_StartDrainsOnCancel(t *testing.T) {
	bus := eventbus.New(8)

	var got []bool
	bus.SubscribeBundleEnabledChanged(func(p eventbus.BundleEnabledChangedPayload) {
		got = append(got, p.Enabled)
	})

	bus.PublishBundleEnabledChanged(eventbus.BundleEnabledChangedPayload{Enabled: true})
	bus.PublishBundleEnabledChanged(eventbus.BundleEnabledChangedPayload{Enabled: false})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	bus.Start(ctx)

	assert.Equal(t, []bool{true, false}, got)
}

func TestEventBus_PublishAndSubscribeHooks(t *testing.T) {
	bus := eventbus.New(4)

	var subscribed []eventbus.Event
	var published []eventbus.Event
	bus.OnSubscribe(func(e eventbus.Event) { subscribed = append(subscribed, e) })
	bus.OnPublish(func(e eventbus.Event, _ any) {
		published = append(published, e)
		// Hooks may register further hooks without deadlocking.
		bus.OnPublish(func(eventbus.Event, any) {})
	})

	bus.SubscribeDndChanged(func(eventbus.DndChangedPayload) {})
	bus.PublishDndChanged(eventbus.DndChangedPayload{UserID: 100})
	bus.PublishBundleBadgeChanged(eventbus.BundleBadgeChangedPayload{Bundle: "a"})

	assert.Equal(t, []eventbus.Event{eventbus.EventDndChanged}, subscribed)
	assert.Equal(t, []eventbus.Event{eventbus.EventDndChanged, eventbus.EventBundleBadgeChanged}, published)
}
