package eventbus

import "sync"

// hookList is an append-only list of callbacks safe for concurrent use.
type hookList[F any] struct {
	mu  sync.RWMutex
	fns []F
}

func (l *hookList[F]) add(fn F) {
	l.mu.Lock()
	l.fns = append(l.fns, fn)
	l.mu.Unlock()
}

// snapshot returns the registered callbacks; callers run them without
// holding the lock so a hook may register further hooks.
func (l *hookList[F]) snapshot() []F {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make([]F, len(l.fns))
	copy(out, l.fns)
	return out
}

type hooks struct {
	publish   hookList[func(Event, any)]
	drop      hookList[func(Event, any)]
	subscribe hookList[func(Event)]
	panic     hookList[func(Event, any, any)]
}

// OnPublish registers a hook run after an event is enqueued, on the
// publishing goroutine.
func (bus *EventBus) OnPublish(fn func(Event, any)) { bus.hooks.publish.add(fn) }

// OnDrop registers a hook run when an event is published after the bus
// has stopped.
func (bus *EventBus) OnDrop(fn func(Event, any)) { bus.hooks.drop.add(fn) }

// OnSubscribe registers a hook run after a handler is registered.
func (bus *EventBus) OnSubscribe(fn func(Event)) { bus.hooks.subscribe.add(fn) }

// OnPanic registers a hook run with the recovered value when a handler
// panics. Panics inside the hook itself are swallowed.
func (bus *EventBus) OnPanic(fn func(Event, any, any)) { bus.hooks.panic.add(fn) }

// send enqueues an event without blocking.
func (bus *EventBus) send(event Event, payload any) {
	hooks := &bus.hooks.publish
	if !bus.enqueue(envelope{event: event, payload: payload}) {
		hooks = &bus.hooks.drop
	}
	for _, fn := range hooks.snapshot() {
		fn(event, payload)
	}
}

func (bus *EventBus) runOnSubscribe(event Event) {
	for _, fn := range bus.hooks.subscribe.snapshot() {
		fn(event)
	}
}

func (bus *EventBus) runOnPanic(event Event, payload any, recovered any) {
	for _, fn := range bus.hooks.panic.snapshot() {
		func() {
			defer func() { _ = recover() }()
			fn(event, payload, recovered)
		}()
	}
}
