package eventbus

import (
	"context"
	"sync"
)

// DefaultBufferSize is used when New is given a non-positive size.
const DefaultBufferSize = 256

type envelope struct {
	event   Event
	payload any
}

// EventBus delivers events to subscribers on a single goroutine started by
// Start. Events published by one goroutine are delivered in publish order.
// Publishing never blocks and never loses an event: the queue grows as
// needed. Only events published after Start has returned are dropped, and
// those fire the OnDrop hooks.
type EventBus struct {
	hooks hooks

	qmu     sync.Mutex
	queue   []envelope
	stopped bool
	wake    chan struct{}

	mu          sync.RWMutex
	subscribers map[Event][]func(any)
}

// New creates a bus whose queue starts with capacity for size events.
func New(size int) *EventBus {
	if size <= 0 {
		size = DefaultBufferSize
	}
	return &EventBus{
		queue:       make([]envelope, 0, size),
		wake:        make(chan struct{}, 1),
		subscribers: make(map[Event][]func(any)),
	}
}

// Start dispatches events until ctx is cancelled. Events queued at
// cancellation, including those published by handlers while draining, are
// dispatched before Start returns.
func (bus *EventBus) Start(ctx context.Context) {
	for {
		for batch := bus.take(false); len(batch) > 0; batch = bus.take(false) {
			bus.dispatchAll(batch)
		}

		select {
		case <-bus.wake:
		case <-ctx.Done():
			for batch := bus.take(true); len(batch) > 0; batch = bus.take(true) {
				bus.dispatchAll(batch)
			}
			return
		}
	}
}

// take removes and returns every queued event. With stop set, an empty
// queue marks the bus stopped in the same critical section so no event can
// slip in between the last batch and the stop.
func (bus *EventBus) take(stop bool) []envelope {
	bus.qmu.Lock()
	defer bus.qmu.Unlock()

	if len(bus.queue) == 0 {
		if stop {
			bus.stopped = true
		}
		return nil
	}
	batch := bus.queue
	bus.queue = nil
	return batch
}

// enqueue appends env unless the bus has stopped.
func (bus *EventBus) enqueue(env envelope) bool {
	bus.qmu.Lock()
	if bus.stopped {
		bus.qmu.Unlock()
		return false
	}
	bus.queue = append(bus.queue, env)
	bus.qmu.Unlock()

	select {
	case bus.wake <- struct{}{}:
	default:
	}
	return true
}

func (bus *EventBus) dispatchAll(batch []envelope) {
	for _, env := range batch {
		bus.dispatch(env)
	}
}

func (bus *EventBus) dispatch(env envelope) {
	bus.mu.RLock()
	subs := make([]func(any), len(bus.subscribers[env.event]))
	copy(subs, bus.subscribers[env.event])
	bus.mu.RUnlock()

	for _, fn := range subs {
		bus.call(env, fn)
	}
}

func (bus *EventBus) call(env envelope, fn func(any)) {
	defer func() {
		if r := recover(); r != nil {
			bus.runOnPanic(env.event, env.payload, r)
		}
	}()
	fn(env.payload)
}

func (bus *EventBus) subscribe(event Event, fn func(any)) {
	bus.mu.Lock()
	bus.subscribers[event] = append(bus.subscribers[event], fn)
	bus.mu.Unlock()
	bus.runOnSubscribe(event)
}

func (bus *EventBus) PublishNotificationPublished(p NotificationPublishedPayload) {
	bus.send(EventNotificationPublished, p)
}

func (bus *EventBus) SubscribeNotificationPublished(fn func(NotificationPublishedPayload)) {
	bus.subscribe(EventNotificationPublished, func(p any) { fn(p.(NotificationPublishedPayload)) })
}

func (bus *EventBus) PublishNotificationCanceled(p NotificationCanceledPayload) {
	bus.send(EventNotificationCanceled, p)
}

func (bus *EventBus) SubscribeNotificationCanceled(fn func(NotificationCanceledPayload)) {
	bus.subscribe(EventNotificationCanceled, func(p any) { fn(p.(NotificationCanceledPayload)) })
}

func (bus *EventBus) PublishDndChanged(p DndChangedPayload) {
	bus.send(EventDndChanged, p)
}

func (bus *EventBus) SubscribeDndChanged(fn func(DndChangedPayload)) {
	bus.subscribe(EventDndChanged, func(p any) { fn(p.(DndChangedPayload)) })
}

func (bus *EventBus) PublishBundleEnabledChanged(p BundleEnabledChangedPayload) {
	bus.send(EventBundleEnabledChanged, p)
}

func (bus *EventBus) SubscribeBundleEnabledChanged(fn func(BundleEnabledChangedPayload)) {
	bus.subscribe(EventBundleEnabledChanged, func(p any) { fn(p.(BundleEnabledChangedPayload)) })
}

func (bus *EventBus) PublishBundleBadgeChanged(p BundleBadgeChangedPayload) {
	bus.send(EventBundleBadgeChanged, p)
}

func (bus *EventBus) SubscribeBundleBadgeChanged(fn func(BundleBadgeChangedPayload)) {
	bus.subscribe(EventBundleBadgeChanged, func(p any) { fn(p.(BundleBadgeChangedPayload)) })
}
