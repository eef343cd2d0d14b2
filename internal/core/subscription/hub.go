package subscription

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/colonyops/ans/internal/core/anserr"
	"github.com/colonyops/ans/internal/core/eventbus"
	"github.com/colonyops/ans/internal/core/logging"
	"github.com/colonyops/ans/internal/core/notification"
	"github.com/colonyops/ans/internal/core/policy"
)

// Resolver turns bus events into callback data at delivery time.
type Resolver interface {
	Resolve(ctx context.Context, req notification.Request, update bool) (policy.CallbackData, error)
	ResolveCancel(ctx context.Context, req notification.Request, reason notification.Reason) (policy.CallbackData, error)
}

type entry struct {
	id   uuid.UUID
	sub  *Subscriber
	info Info
}

// Hub holds the registered subscribers.
type Hub struct {
	resolver Resolver
	log      zerolog.Logger

	mu      sync.RWMutex
	entries []*entry
	closed  bool
}

// NewHub creates a hub resolving callback data with resolver.
func NewHub(resolver Resolver) *Hub {
	return &Hub{resolver: resolver, log: logging.Component("subscription")}
}

// Subscribe registers sub. OnConnect fires once, after registration. A
// subscriber that is already registered only has its info replaced.
func (h *Hub) Subscribe(sub *Subscriber, info *Info) (uuid.UUID, error) {
	if sub == nil {
		return uuid.Nil, anserr.InvalidParam("subscriber is nil")
	}
	var i Info
	if info != nil {
		i = *info
		i.BundleNames = slices.Clone(info.BundleNames)
	}
	if err := i.Validate(); err != nil {
		return uuid.Nil, err
	}

	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return uuid.Nil, anserr.ErrServiceNotReady
	}
	for _, e := range h.entries {
		if e.sub == sub {
			e.info = i
			id := e.id
			h.mu.Unlock()
			return id, nil
		}
	}
	e := &entry{id: uuid.New(), sub: sub, info: i}
	h.entries = append(h.entries, e)
	h.mu.Unlock()

	h.log.Debug().Str("subscriber", e.id.String()).Strs("bundles", i.BundleNames).Msg("subscriber connected")
	if sub.OnConnect != nil {
		h.safeCall(e, "OnConnect", sub.OnConnect)
	}
	return e.id, nil
}

// Unsubscribe deregisters sub and fires OnDisconnect.
func (h *Hub) Unsubscribe(sub *Subscriber) error {
	h.mu.Lock()
	idx := slices.IndexFunc(h.entries, func(e *entry) bool { return e.sub == sub })
	if idx < 0 {
		h.mu.Unlock()
		return anserr.InvalidParam("subscriber is not registered")
	}
	e := h.entries[idx]
	h.entries = slices.Delete(h.entries, idx, idx+1)
	h.mu.Unlock()

	h.log.Debug().Str("subscriber", e.id.String()).Msg("subscriber disconnected")
	if sub.OnDisconnect != nil {
		h.safeCall(e, "OnDisconnect", sub.OnDisconnect)
	}
	return nil
}

// Close deregisters every subscriber, firing OnDestroy. Later Subscribe
// calls fail with ERR_ANS_SERVICE_NOT_READY.
func (h *Hub) Close() {
	h.mu.Lock()
	entries := h.entries
	h.entries = nil
	h.closed = true
	h.mu.Unlock()

	for _, e := range entries {
		if e.sub.OnDestroy != nil {
			h.safeCall(e, "OnDestroy", e.sub.OnDestroy)
		}
	}
}

// Len returns the number of registered subscribers.
func (h *Hub) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.entries)
}

// Register subscribes the hub to bus events.
func (h *Hub) Register(bus *eventbus.EventBus) {
	bus.SubscribeNotificationPublished(h.handlePublished)
	bus.SubscribeNotificationCanceled(h.handleCanceled)
	bus.SubscribeDndChanged(h.handleDndChanged)
	bus.SubscribeBundleEnabledChanged(h.handleEnabledChanged)
	bus.SubscribeBundleBadgeChanged(h.handleBadgeChanged)
}

func (h *Hub) snapshot(match func(Info) bool) []*entry {
	h.mu.RLock()
	defer h.mu.RUnlock()
	var out []*entry
	for _, e := range h.entries {
		if match(e.info) {
			out = append(out, e)
		}
	}
	return out
}

func (h *Hub) handlePublished(p eventbus.NotificationPublishedPayload) {
	req := p.Request
	targets := h.snapshot(func(i Info) bool { return i.matches(req.CreatorBundle, req.CreatorUserID) })
	if len(targets) == 0 {
		return
	}

	data, err := h.resolver.Resolve(context.Background(), req, p.Replaced)
	if err != nil {
		h.log.Error().Err(err).Str("hash_code", req.HashCode).Msg("failed to resolve consume data")
		return
	}

	for _, e := range targets {
		if e.sub.OnConsume != nil {
			h.safeCall(e, "OnConsume", func() { e.sub.OnConsume(data) })
		}
	}
}

func (h *Hub) handleCanceled(p eventbus.NotificationCanceledPayload) {
	req := p.Request
	targets := h.snapshot(func(i Info) bool { return i.matches(req.CreatorBundle, req.CreatorUserID) })
	if len(targets) == 0 {
		return
	}

	data, err := h.resolver.ResolveCancel(context.Background(), req, p.Reason)
	if err != nil {
		h.log.Error().Err(err).Str("hash_code", req.HashCode).Msg("failed to resolve cancel data")
		return
	}

	remaining := policy.SortingMap{
		Sortings:       make(map[string]policy.Sorting, len(data.SortingMap.Sortings)),
		SortedHashCode: make([]string, 0, len(data.SortingMap.SortedHashCode)),
	}
	for _, hash := range data.SortingMap.SortedHashCode {
		if hash == req.HashCode {
			continue
		}
		remaining.Sortings[hash] = data.SortingMap.Sortings[hash]
		remaining.SortedHashCode = append(remaining.SortedHashCode, hash)
	}

	for _, e := range targets {
		if e.sub.OnCancel != nil {
			h.safeCall(e, "OnCancel", func() { e.sub.OnCancel(data) })
		}
		if e.sub.OnUpdate != nil {
			h.safeCall(e, "OnUpdate", func() { e.sub.OnUpdate(remaining) })
		}
	}
}

func (h *Hub) handleDndChanged(p eventbus.DndChangedPayload) {
	for _, e := range h.snapshot(func(i Info) bool { return i.matchesUser(p.UserID) }) {
		if e.sub.OnDoNotDisturbDateChange != nil {
			h.safeCall(e, "OnDoNotDisturbDateChange", func() { e.sub.OnDoNotDisturbDateChange(p.Window) })
		}
	}
}

func (h *Hub) handleEnabledChanged(p eventbus.BundleEnabledChangedPayload) {
	opt := BundleOption{Bundle: p.Bundle, UID: p.UID, UserID: p.UserID, Enable: p.Enabled}
	for _, e := range h.snapshot(func(i Info) bool { return i.matches(p.Bundle, p.UserID) }) {
		if e.sub.OnEnabledNotificationChanged != nil {
			h.safeCall(e, "OnEnabledNotificationChanged", func() { e.sub.OnEnabledNotificationChanged(opt) })
		}
	}
}

func (h *Hub) handleBadgeChanged(p eventbus.BundleBadgeChangedPayload) {
	opt := BundleOption{Bundle: p.Bundle, UID: p.UID, UserID: p.UserID, Enable: p.Enabled}
	for _, e := range h.snapshot(func(i Info) bool { return i.matches(p.Bundle, p.UserID) }) {
		if e.sub.OnBadgeChanged != nil {
			h.safeCall(e, "OnBadgeChanged", func() { e.sub.OnBadgeChanged(opt) })
		}
	}
}

// safeCall runs one callback, recovering a panic so that the remaining
// subscribers still receive the event.
func (h *Hub) safeCall(e *entry, name string, fn func()) {
	defer func() {
		if r := recover(); r != nil {
			h.log.Error().
				Str("subscriber", e.id.String()).
				Str("callback", name).
				Str("panic", fmt.Sprint(r)).
				Msg("subscriber callback panicked")
		}
	}()
	fn()
}
