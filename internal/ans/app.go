package ans

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/colonyops/ans/internal/core/bundle"
	"github.com/colonyops/ans/internal/core/config"
	"github.com/colonyops/ans/internal/core/dnd"
	"github.com/colonyops/ans/internal/core/eventbus"
	"github.com/colonyops/ans/internal/core/journal"
	"github.com/colonyops/ans/internal/core/logging"
	"github.com/colonyops/ans/internal/core/policy"
	"github.com/colonyops/ans/internal/core/slot"
	"github.com/colonyops/ans/internal/core/subscription"
	"github.com/colonyops/ans/internal/data/db"
	"github.com/colonyops/ans/internal/data/stores"
)

// App is the central entry point for all ans operations.
// Commands consume App instead of cherry-picking raw dependencies.
type App struct {
	Service *Service
	Hub     *subscription.Hub
	Bus     *eventbus.EventBus
	Journal journal.Store
	Config  *config.Config
	DB      *db.DB

	cancel context.CancelFunc
	group  *errgroup.Group
}

// Open opens the database in cfg.DataDir and wires the service. A corrupted
// database is moved aside and recreated once. now may be nil.
func Open(cfg *config.Config, now func() time.Time) (*App, error) {
	dbOpts := db.OpenOptions{
		MaxOpenConns: cfg.Database.MaxOpenConns,
		MaxIdleConns: cfg.Database.MaxIdleConns,
		BusyTimeout:  cfg.Database.BusyTimeout,
	}

	database, err := db.Open(cfg.DataDir, dbOpts)
	if err != nil && stores.IsCorruptionError(err) {
		log.Warn().Err(err).Str("data_dir", cfg.DataDir).Msg("database corrupted, recreating")
		if rerr := stores.RecoverFromCorruption(cfg.DataDir); rerr != nil {
			return nil, errors.Join(err, rerr)
		}
		database, err = db.Open(cfg.DataDir, dbOpts)
	}
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	bus := eventbus.New(cfg.Events.BufferSize)
	eventbus.RegisterDebugLogger(bus, logging.Component("eventbus"))

	svc, hub, err := newService(database, bus, cfg, now)
	if err != nil {
		_ = database.Close()
		return nil, err
	}

	journalStore := stores.NewJournalStore(database)
	eventbus.NewJournalRouter(bus, journalStore, logging.Component("journal")).Register()

	return &App{
		Service: svc,
		Hub:     hub,
		Bus:     bus,
		Journal: journalStore,
		Config:  cfg,
		DB:      database,
	}, nil
}

// newService builds the service and its subscription hub on bus.
func newService(database *db.DB, bus *eventbus.EventBus, cfg *config.Config, now func() time.Time) (*Service, *subscription.Hub, error) {
	if now == nil {
		now = time.Now
	}

	loc, err := cfg.Location()
	if err != nil {
		return nil, nil, err
	}

	var (
		kvStore       = stores.NewKVStore(database)
		notifications = stores.NewNotificationStore(database)
		slots         = slot.NewManager(stores.NewSlotStore(database))
		bundles       = bundle.NewManager(kvStore)
	)

	scheduler := dnd.NewScheduler(dnd.NewKVStore(kvStore), dnd.Options{
		Location:  loc,
		Now:       now,
		Supported: cfg.Dnd.Supported,
		OnChange: func(_ context.Context, userID int32, w dnd.Window) {
			bus.PublishDndChanged(eventbus.DndChangedPayload{UserID: userID, Window: w})
		},
	})

	resolver := policy.NewResolver(slots, scheduler, notifications, policy.Options{Now: now, Badges: bundles})
	hub := subscription.NewHub(resolver)
	hub.Register(bus)

	svc := NewService(Deps{
		Slots:         slots,
		Dnd:           scheduler,
		Notifications: notifications,
		Bundles:       bundles,
		Hub:           hub,
		Bus:           bus,
	}, Options{
		MaxActivePerBundle: cfg.Limits.MaxActivePerBundle,
		MaxActiveTotal:     cfg.Limits.MaxActiveTotal,
		Templates:          cfg.Templates,
		SystemBundles:      cfg.SystemBundles,
		RemindType:         cfg.RemindType(),
		AutoGrant:          cfg.RequestEnable.AutoGrant,
		Now:                now,
	})

	return svc, hub, nil
}

// Start runs the event bus and, when reap is set and an interval is
// configured, the expired-notification reaper. It returns immediately.
func (a *App) Start(ctx context.Context, reap bool) {
	ctx, cancel := context.WithCancel(ctx)
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		a.Bus.Start(gctx)
		return nil
	})

	if reap && a.Config.Sweep.Interval > 0 {
		g.Go(func() error {
			RunReaper(gctx, a.Service, a.Config.Sweep.Interval, logging.Component("reaper"))
			return nil
		})
	}

	a.cancel = cancel
	a.group = g
}

// Close stops the background loops, delivering events still buffered,
// destroys every subscription and closes the database.
func (a *App) Close() error {
	if a.cancel != nil {
		a.cancel()
		_ = a.group.Wait()
		a.cancel = nil
	}
	a.Hub.Close()
	return a.DB.Close()
}
