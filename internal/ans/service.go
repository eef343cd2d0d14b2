// Package ans implements the notification service: the façade applications
// call to publish and cancel notifications, manage slots, DND windows and
// bundle settings, and subscribe to delivery callbacks.
package ans

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/colonyops/ans/internal/core/anserr"
	"github.com/colonyops/ans/internal/core/bundle"
	"github.com/colonyops/ans/internal/core/caller"
	"github.com/colonyops/ans/internal/core/dnd"
	"github.com/colonyops/ans/internal/core/eventbus"
	"github.com/colonyops/ans/internal/core/logging"
	"github.com/colonyops/ans/internal/core/notification"
	"github.com/colonyops/ans/internal/core/slot"
	"github.com/colonyops/ans/internal/core/subscription"
)

// Options configure a Service.
type Options struct {
	// MaxActivePerBundle caps the live notifications of one bundle and user.
	MaxActivePerBundle int
	// MaxActiveTotal caps the live notifications across all bundles.
	MaxActiveTotal int
	// Templates lists the supported template names.
	Templates []string
	// SystemBundles are treated as system callers regardless of the identity flag.
	SystemBundles []string
	RemindType    notification.RemindType
	// AutoGrant answers RequestEnableNotification by enabling the bundle.
	AutoGrant bool
	// Now defaults to time.Now.
	Now func() time.Time
}

// Deps are the components a Service is built from.
type Deps struct {
	Slots         *slot.Manager
	Dnd           *dnd.Scheduler
	Notifications notification.Store
	Bundles       *bundle.Manager
	Hub           *subscription.Hub
	Bus           *eventbus.EventBus
}

// Service is the notification service façade. Every method reads the caller
// identity from the context.
type Service struct {
	slots         *slot.Manager
	dnd           *dnd.Scheduler
	notifications notification.Store
	bundles       *bundle.Manager
	hub           *subscription.Hub
	bus           *eventbus.EventBus
	opts          Options
	log           zerolog.Logger

	// mu serializes mutations of the active notification table so that
	// limit checks, writes and the published events stay in one order.
	mu sync.Mutex
}

// NewService creates a Service.
func NewService(deps Deps, opts Options) *Service {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Service{
		slots:         deps.Slots,
		dnd:           deps.Dnd,
		notifications: deps.Notifications,
		bundles:       deps.Bundles,
		hub:           deps.Hub,
		bus:           deps.Bus,
		opts:          opts,
		log:           logging.Component("service"),
	}
}

// identity returns the caller, marking configured system bundles as system.
func (s *Service) identity(ctx context.Context) (caller.Identity, error) {
	id, err := caller.Require(ctx)
	if err != nil {
		return caller.Identity{}, err
	}
	if !id.System && slices.Contains(s.opts.SystemBundles, id.Bundle) {
		id.System = true
	}
	return id, nil
}

func (s *Service) systemIdentity(ctx context.Context) (caller.Identity, error) {
	id, err := s.identity(ctx)
	if err != nil {
		return caller.Identity{}, err
	}
	if !id.System {
		return caller.Identity{}, anserr.ErrNonSystemApp
	}
	return id, nil
}

// forUser returns the caller acting for userID. Acting for another user
// requires a system caller.
func (s *Service) forUser(ctx context.Context, userID int32) (caller.Identity, error) {
	id, err := s.identity(ctx)
	if err != nil {
		return caller.Identity{}, err
	}
	if userID < 0 {
		return caller.Identity{}, anserr.InvalidParam("invalid user id %d", userID)
	}
	if userID != id.UserID && !id.System {
		return caller.Identity{}, anserr.ErrNonSystemApp
	}
	id.UserID = userID
	return id, nil
}

func requireBundle(bundle string) error {
	if bundle == "" {
		return anserr.ErrInvalidBundle
	}
	return nil
}

func owner(id caller.Identity) slot.Owner {
	return slot.Owner{Bundle: id.Bundle, UserID: id.UserID}
}
