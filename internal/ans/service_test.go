package ans

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/colonyops/ans/internal/core/caller"
	"github.com/colonyops/ans/internal/core/config"
	"github.com/colonyops/ans/internal/core/dnd"
	"github.com/colonyops/ans/internal/core/eventbus/testbus"
	"github.com/colonyops/ans/internal/core/notification"
	"github.com/colonyops/ans/internal/core/policy"
	"github.com/colonyops/ans/internal/core/subscription"
	"github.com/colonyops/ans/internal/data/db"
)

const (
	appBundle    = "com.example.mail"
	otherBundle  = "com.example.chat"
	systemBundle = "com.example.settings"
)

// clock is a settable time source shared by the service, scheduler and resolver.
type clock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *clock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type harness struct {
	svc   *Service
	hub   *subscription.Hub
	bus   *testbus.Bus
	clock *clock

	app    context.Context
	other  context.Context
	system context.Context
}

func newHarness(t *testing.T, mutate ...func(*config.Config)) *harness {
	t.Helper()

	cfg := config.DefaultConfig()
	cfg.Dnd.Timezone = "UTC"
	for _, fn := range mutate {
		fn(&cfg)
	}

	// The database must outlive the bus: cleanups run last-in first-out.
	database, err := db.Open(t.TempDir(), db.DefaultOpenOptions())
	require.NoError(t, err)
	t.Cleanup(func() { _ = database.Close() })

	tb := testbus.New(t)
	clk := &clock{now: time.Date(2026, 10, 16, 10, 0, 0, 0, time.UTC)}

	svc, hub, err := newService(database, tb.EventBus, &cfg, clk.Now)
	require.NoError(t, err)

	ctx := context.Background()
	return &harness{
		svc:    svc,
		hub:    hub,
		bus:    tb,
		clock:  clk,
		app:    caller.With(ctx, caller.Identity{Bundle: appBundle, UID: 20010, UserID: caller.DefaultUserID}),
		other:  caller.With(ctx, caller.Identity{Bundle: otherBundle, UID: 20011, UserID: caller.DefaultUserID}),
		system: caller.With(ctx, caller.Identity{Bundle: systemBundle, UID: 1000, UserID: caller.DefaultUserID, System: true}),
	}
}

// recorder is a subscriber capturing every callback on buffered channels.
type recorder struct {
	consumed  chan policy.CallbackData
	canceled  chan policy.CallbackData
	updates   chan policy.SortingMap
	dnd       chan dnd.Window
	enabled   chan subscription.BundleOption
	badges    chan subscription.BundleOption
	connected chan struct{}
	destroyed chan struct{}
	sub       *subscription.Subscriber
}

func newRecorder() *recorder {
	r := &recorder{
		consumed:  make(chan policy.CallbackData, 32),
		canceled:  make(chan policy.CallbackData, 32),
		updates:   make(chan policy.SortingMap, 32),
		dnd:       make(chan dnd.Window, 32),
		enabled:   make(chan subscription.BundleOption, 32),
		badges:    make(chan subscription.BundleOption, 32),
		connected: make(chan struct{}, 1),
		destroyed: make(chan struct{}, 1),
	}
	r.sub = &subscription.Subscriber{
		OnConsume:                    func(d policy.CallbackData) { r.consumed <- d },
		OnCancel:                     func(d policy.CallbackData) { r.canceled <- d },
		OnUpdate:                     func(m policy.SortingMap) { r.updates <- m },
		OnConnect:                    func() { r.connected <- struct{}{} },
		OnDestroy:                    func() { r.destroyed <- struct{}{} },
		OnDoNotDisturbDateChange:     func(w dnd.Window) { r.dnd <- w },
		OnEnabledNotificationChanged: func(o subscription.BundleOption) { r.enabled <- o },
		OnBadgeChanged:               func(o subscription.BundleOption) { r.badges <- o },
	}
	return r
}

func (h *harness) subscribe(t *testing.T, info *subscription.Info) *recorder {
	t.Helper()
	r := newRecorder()
	_, err := h.svc.Subscribe(h.system, r.sub, info)
	require.NoError(t, err)
	return r
}

func receive[T any](t *testing.T, ch <-chan T) T {
	t.Helper()
	select {
	case v := <-ch:
		return v
	case <-time.After(2 * time.Second):
		var zero T
		t.Fatalf("timed out waiting for callback")
		return zero
	}
}

func assertQuiet[T any](t *testing.T, ch <-chan T) {
	t.Helper()
	select {
	case v := <-ch:
		t.Fatalf("unexpected callback: %+v", v)
	case <-time.After(50 * time.Millisecond):
	}
}

func textRequest(id int32, title string) notification.Request {
	return notification.Request{
		ID:      id,
		Content: notification.Text(title, "body"),
	}
}

func ptr[T any](v T) *T { return &v }
