package dnd

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/colonyops/ans/internal/core/anserr"
	"github.com/colonyops/ans/internal/core/logging"
)

// ChangeFunc is called after a window was stored successfully, while the
// scheduler lock is held. It must not call back into the Scheduler.
type ChangeFunc func(ctx context.Context, userID int32, w Window)

// Options configure a Scheduler.
type Options struct {
	// Location is the zone used for dates and times of day. Defaults to time.Local.
	Location *time.Location
	// Now defaults to time.Now.
	Now func() time.Time
	// Supported is reported by Supported. When false, Set is refused.
	Supported bool
	// OnChange receives every stored window.
	OnChange ChangeFunc
}

// Scheduler owns the per-user DND windows.
type Scheduler struct {
	mu    sync.RWMutex
	store Store
	opts  Options
	log   zerolog.Logger
}

// NewScheduler creates a Scheduler backed by store.
func NewScheduler(store Store, opts Options) *Scheduler {
	if opts.Location == nil {
		opts.Location = time.Local
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Scheduler{store: store, opts: opts, log: logging.Component("dnd")}
}

// Location returns the zone the scheduler evaluates windows in.
func (s *Scheduler) Location() *time.Location { return s.opts.Location }

// Supported reports whether DND mode is available.
func (s *Scheduler) Supported() bool { return s.opts.Supported }

// Set normalizes and stores the user's window, then reports the stored
// window to OnChange. On error nothing is stored and OnChange is not called.
func (s *Scheduler) Set(ctx context.Context, userID int32, w Window) (Window, error) {
	if !s.opts.Supported {
		return Window{}, anserr.New(anserr.CodeNotAllowed, "do-not-disturb mode is not supported")
	}

	normalized, err := Normalize(w, s.opts.Now(), s.opts.Location)
	if err != nil {
		return Window{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.store.Save(ctx, userID, normalized); err != nil {
		return Window{}, anserr.Storage("save dnd window", err)
	}

	s.log.Debug().Ctx(ctx).
		Int32("user_id", userID).
		Stringer("type", normalized.Type).
		Time("begin", normalized.Begin).
		Time("end", normalized.End).
		Msg("dnd window updated")

	// OnChange runs under the lock so change events follow store order.
	if s.opts.OnChange != nil {
		s.opts.OnChange(ctx, userID, normalized)
	}
	return normalized, nil
}

// Get returns the user's stored window, or Disabled() when none was set.
func (s *Scheduler) Get(ctx context.Context, userID int32) (Window, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	w, err := s.store.Get(ctx, userID)
	if errors.Is(err, ErrNotFound) {
		return Disabled(), nil
	}
	if err != nil {
		return Window{}, anserr.Storage("get dnd window", err)
	}
	if w.Type == TypeNone {
		return Disabled(), nil
	}

	w.Begin = w.Begin.In(s.opts.Location)
	w.End = w.End.In(s.opts.Location)
	return w, nil
}

// IsSuppressed reports whether the user's window covers t.
func (s *Scheduler) IsSuppressed(ctx context.Context, userID int32, t time.Time) (bool, error) {
	w, err := s.Get(ctx, userID)
	if err != nil {
		return false, err
	}
	return w.Contains(t, s.opts.Location), nil
}
