// Package bundle stores the per-user notification settings of application
// bundles: whether notifications are enabled, whether badges are shown and
// whether distributed delivery is allowed.
package bundle

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/colonyops/ans/internal/core/anserr"
	"github.com/colonyops/ans/internal/core/kv"
)

// Settings are the switches of one bundle for one user.
type Settings struct {
	Enabled     bool `json:"enabled"`
	Badge       bool `json:"badge"`
	Distributed bool `json:"distributed"`
}

// Defaults returns the settings of a bundle that was never configured.
func Defaults() Settings {
	return Settings{Enabled: true, Badge: true, Distributed: true}
}

// Manager reads and writes bundle settings in a KV store. Updates are
// read-modify-write under one mutex.
type Manager struct {
	mu     sync.Mutex
	byKey  *kv.TypedKV[Settings]
	device *kv.TypedKV[bool]
}

// NewManager creates a Manager backed by store.
func NewManager(store kv.KV) *Manager {
	return &Manager{
		byKey:  kv.Scoped[Settings](store, "bundle"),
		device: kv.Scoped[bool](store, "distributed"),
	}
}

func key(userID int32, bundle string) string {
	return fmt.Sprintf("%d:%s", userID, bundle)
}

// Get returns the bundle's settings, or Defaults when none are stored.
func (m *Manager) Get(ctx context.Context, userID int32, bundle string) (Settings, error) {
	s, err := m.byKey.GetOr(ctx, key(userID, bundle), Defaults())
	if err != nil {
		return Settings{}, anserr.Storage("get bundle settings", err)
	}
	return s, nil
}

// Update applies fn to the bundle's settings and stores the result. It
// returns the settings before and after the update.
func (m *Manager) Update(ctx context.Context, userID int32, bundle string, fn func(*Settings)) (Settings, Settings, error) {
	if bundle == "" {
		return Settings{}, Settings{}, anserr.ErrInvalidBundle
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	before, err := m.Get(ctx, userID, bundle)
	if err != nil {
		return Settings{}, Settings{}, err
	}
	after := before
	fn(&after)

	if err := m.byKey.Set(ctx, key(userID, bundle), after); err != nil {
		return Settings{}, Settings{}, anserr.Storage("save bundle settings", err)
	}
	return before, after, nil
}

// Enabled reports whether the bundle may publish notifications.
func (m *Manager) Enabled(ctx context.Context, userID int32, bundle string) (bool, error) {
	s, err := m.Get(ctx, userID, bundle)
	return s.Enabled, err
}

// BadgeEnabled reports whether badges are displayed for the bundle.
func (m *Manager) BadgeEnabled(ctx context.Context, userID int32, bundle string) (bool, error) {
	s, err := m.Get(ctx, userID, bundle)
	return s.Badge, err
}

// DeviceDistributed reports whether distributed delivery is enabled for the
// user's device. It is off until enabled.
func (m *Manager) DeviceDistributed(ctx context.Context, userID int32) (bool, error) {
	on, err := m.device.GetOr(ctx, fmt.Sprint(userID), false)
	if err != nil {
		return false, anserr.Storage("get distributed setting", err)
	}
	return on, nil
}

// SetDeviceDistributed stores the device distributed switch for the user.
func (m *Manager) SetDeviceDistributed(ctx context.Context, userID int32, enabled bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.device.Set(ctx, fmt.Sprint(userID), enabled); err != nil {
		return anserr.Storage("save distributed setting", err)
	}
	return nil
}

// Configured returns the bundles with stored settings for the user.
func (m *Manager) Configured(ctx context.Context, userID int32) ([]string, error) {
	prefix := fmt.Sprintf("%d:", userID)
	keys, err := m.byKey.Keys(ctx)
	if err != nil {
		return nil, anserr.Storage("list bundle settings", err)
	}

	var out []string
	for _, k := range keys {
		if name, ok := strings.CutPrefix(k, prefix); ok && name != "" {
			out = append(out, name)
		}
	}
	return out, nil
}
