// Package testbus provides test utilities for the event bus.
// It wraps a real EventBus with event recording and assertion helpers.
package testbus

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/colonyops/ans/internal/core/eventbus"
)

// RecordedEvent holds a captured event name and payload.
type RecordedEvent struct {
	Event   eventbus.Event
	Payload any
}

// Bus wraps a real EventBus with event recording for tests.
type Bus struct {
	*eventbus.EventBus
	cancel context.CancelFunc

	mu     sync.Mutex
	events []RecordedEvent
}

// New creates a test bus, starts it in a background goroutine, and
// subscribes to all event types for recording. The bus is stopped
// when the test completes.
func New(t *testing.T) *Bus {
	t.Helper()

	bus := eventbus.New(64)
	ctx, cancel := context.WithCancel(context.Background())

	tb := &Bus{
		EventBus: bus,
		cancel:   cancel,
	}

	bus.SubscribeNotificationPublished(func(p eventbus.NotificationPublishedPayload) {
		tb.record(eventbus.EventNotificationPublished, p)
	})
	bus.SubscribeNotificationCanceled(func(p eventbus.NotificationCanceledPayload) {
		tb.record(eventbus.EventNotificationCanceled, p)
	})
	bus.SubscribeDndChanged(func(p eventbus.DndChangedPayload) {
		tb.record(eventbus.EventDndChanged, p)
	})
	bus.SubscribeBundleEnabledChanged(func(p eventbus.BundleEnabledChangedPayload) {
		tb.record(eventbus.EventBundleEnabledChanged, p)
	})
	bus.SubscribeBundleBadgeChanged(func(p eventbus.BundleBadgeChangedPayload) {
		tb.record(eventbus.EventBundleBadgeChanged, p)
	})

	done := make(chan struct{})
	go func() {
		defer close(done)
		bus.Start(ctx)
	}()

	t.Cleanup(func() {
		cancel()
		<-done
	})

	return tb
}

func (tb *Bus) record(event eventbus.Event, payload any) {
	tb.mu.Lock()
	defer tb.mu.Unlock()
	tb.events = append(tb.events, RecordedEvent{Event: event, Payload: payload})
}

// Events returns a copy of all recorded events.
func (tb *Bus) Events() []RecordedEvent {
	tb.mu.Lock()
	defer tb.mu.Unlock()
	out := make([]RecordedEvent, len(tb.events))
	copy(out, tb.events)
	return out
}

// Count returns how many events of the given type were recorded.
func (tb *Bus) Count(event eventbus.Event) int {
	tb.mu.Lock()
	defer tb.mu.Unlock()
	n := 0
	for _, e := range tb.events {
		if e.Event == event {
			n++
		}
	}
	return n
}

// Reset clears all recorded events.
func (tb *Bus) Reset() {
	tb.mu.Lock()
	defer tb.mu.Unlock()
	tb.events = nil
}

// WaitFor blocks until an event of the given type is recorded or the timeout expires.
// Returns true if the event was found.
func (tb *Bus) WaitFor(event eventbus.Event, timeout time.Duration) bool {
	return tb.WaitForCount(event, 1, timeout)
}

// WaitForCount blocks until at least n events of the given type are recorded
// or the timeout expires.
func (tb *Bus) WaitForCount(event eventbus.Event, n int, timeout time.Duration) bool {
	deadline := time.After(timeout)
	ticker := time.NewTicker(5 * time.Millisecond)
	defer ticker.Stop()

	for {
		if tb.Count(event) >= n {
			return true
		}
		select {
		case <-deadline:
			return false
		case <-ticker.C:
		}
	}
}

// AssertPublished fails the test if the event is not recorded within one second.
func (tb *Bus) AssertPublished(t *testing.T, event eventbus.Event) {
	t.Helper()
	if !tb.WaitFor(event, time.Second) {
		t.Errorf("expected event %q to be published", event)
	}
}

// AssertNotPublished fails the test if the event is recorded within wait.
func (tb *Bus) AssertNotPublished(t *testing.T, event eventbus.Event, wait time.Duration) {
	t.Helper()
	if tb.WaitFor(event, wait) {
		t.Errorf("expected event %q not to be published", event)
	}
}
