package ans

import (
	"context"
	"slices"

	"github.com/google/uuid"

	"github.com/colonyops/ans/internal/core/bundle"
	"github.com/colonyops/ans/internal/core/eventbus"
	"github.com/colonyops/ans/internal/core/notification"
	"github.com/colonyops/ans/internal/core/subscription"
)

// Subscribe registers sub with an optional filter. Requires a system caller.
func (s *Service) Subscribe(ctx context.Context, sub *subscription.Subscriber, info *subscription.Info) (uuid.UUID, error) {
	if _, err := s.systemIdentity(ctx); err != nil {
		return uuid.Nil, err
	}
	return s.hub.Subscribe(sub, info)
}

// Unsubscribe deregisters sub. Requires a system caller.
func (s *Service) Unsubscribe(ctx context.Context, sub *subscription.Subscriber) error {
	if _, err := s.systemIdentity(ctx); err != nil {
		return err
	}
	return s.hub.Unsubscribe(sub)
}

// EnableNotification turns notifications of bundle on or off for the
// caller's user. Requires a system caller.
func (s *Service) EnableNotification(ctx context.Context, bundleName string, enabled bool) error {
	id, err := s.systemIdentity(ctx)
	if err != nil {
		return err
	}
	if err := requireBundle(bundleName); err != nil {
		return err
	}
	return s.setEnabled(ctx, bundleName, 0, id.UserID, enabled)
}

func (s *Service) setEnabled(ctx context.Context, bundleName string, uid, userID int32, enabled bool) error {
	before, _, err := s.bundles.Update(ctx, userID, bundleName, func(st *bundle.Settings) { st.Enabled = enabled })
	if err != nil {
		return err
	}
	if before.Enabled != enabled {
		s.bus.PublishBundleEnabledChanged(eventbus.BundleEnabledChangedPayload{
			Bundle: bundleName, UID: uid, UserID: userID, Enabled: enabled,
		})
	}
	return nil
}

// IsNotificationEnabled reports whether the caller's bundle may publish.
func (s *Service) IsNotificationEnabled(ctx context.Context) (bool, error) {
	id, err := s.identity(ctx)
	if err != nil {
		return false, err
	}
	return s.bundles.Enabled(ctx, id.UserID, id.Bundle)
}

// IsNotificationEnabledForUser reports whether bundle may publish for
// userID. Requires a system caller.
func (s *Service) IsNotificationEnabledForUser(ctx context.Context, bundleName string, userID int32) (bool, error) {
	if _, err := s.systemIdentity(ctx); err != nil {
		return false, err
	}
	if _, err := s.forUser(ctx, userID); err != nil {
		return false, err
	}
	if err := requireBundle(bundleName); err != nil {
		return false, err
	}
	return s.bundles.Enabled(ctx, userID, bundleName)
}

// RequestEnableNotification asks for the caller's bundle to be enabled. It
// reports whether notifications are enabled afterwards. Without auto grant
// a disabled bundle stays disabled.
func (s *Service) RequestEnableNotification(ctx context.Context) (bool, error) {
	id, err := s.identity(ctx)
	if err != nil {
		return false, err
	}

	enabled, err := s.bundles.Enabled(ctx, id.UserID, id.Bundle)
	if err != nil || enabled {
		return enabled, err
	}
	if !s.opts.AutoGrant {
		return false, nil
	}

	if err := s.setEnabled(ctx, id.Bundle, id.UID, id.UserID, true); err != nil {
		return false, err
	}
	return true, nil
}

// DisplayBadge turns badges of bundle on or off. Requires a system caller.
func (s *Service) DisplayBadge(ctx context.Context, bundleName string, enabled bool) error {
	id, err := s.systemIdentity(ctx)
	if err != nil {
		return err
	}
	if err := requireBundle(bundleName); err != nil {
		return err
	}
	before, _, err := s.bundles.Update(ctx, id.UserID, bundleName, func(st *bundle.Settings) { st.Badge = enabled })
	if err != nil {
		return err
	}
	if before.Badge != enabled {
		s.bus.PublishBundleBadgeChanged(eventbus.BundleBadgeChangedPayload{
			Bundle: bundleName, UserID: id.UserID, Enabled: enabled,
		})
	}
	return nil
}

// IsBadgeDisplayed reports whether badges are shown for bundle. Requires a
// system caller.
func (s *Service) IsBadgeDisplayed(ctx context.Context, bundleName string) (bool, error) {
	id, err := s.systemIdentity(ctx)
	if err != nil {
		return false, err
	}
	if err := requireBundle(bundleName); err != nil {
		return false, err
	}
	return s.bundles.BadgeEnabled(ctx, id.UserID, bundleName)
}

// EnableDistributed turns distributed delivery on or off for the caller's
// device user. Requires a system caller.
func (s *Service) EnableDistributed(ctx context.Context, enabled bool) error {
	id, err := s.systemIdentity(ctx)
	if err != nil {
		return err
	}
	return s.bundles.SetDeviceDistributed(ctx, id.UserID, enabled)
}

// IsDistributedEnabled reports whether distributed delivery is enabled for
// the caller's user.
func (s *Service) IsDistributedEnabled(ctx context.Context) (bool, error) {
	id, err := s.identity(ctx)
	if err != nil {
		return false, err
	}
	return s.bundles.DeviceDistributed(ctx, id.UserID)
}

// EnableDistributedByBundle turns distributed delivery on or off for bundle.
// Requires a system caller.
func (s *Service) EnableDistributedByBundle(ctx context.Context, bundleName string, enabled bool) error {
	id, err := s.systemIdentity(ctx)
	if err != nil {
		return err
	}
	if err := requireBundle(bundleName); err != nil {
		return err
	}
	_, _, err = s.bundles.Update(ctx, id.UserID, bundleName, func(st *bundle.Settings) { st.Distributed = enabled })
	return err
}

// IsDistributedEnabledByBundle reports the distributed switch of bundle.
// Requires a system caller.
func (s *Service) IsDistributedEnabledByBundle(ctx context.Context, bundleName string) (bool, error) {
	id, err := s.systemIdentity(ctx)
	if err != nil {
		return false, err
	}
	if err := requireBundle(bundleName); err != nil {
		return false, err
	}
	st, err := s.bundles.Get(ctx, id.UserID, bundleName)
	return st.Distributed, err
}

// BundleSettings returns the settings of every configured bundle of the
// caller's user. Requires a system caller.
func (s *Service) BundleSettings(ctx context.Context) (map[string]bundle.Settings, error) {
	id, err := s.systemIdentity(ctx)
	if err != nil {
		return nil, err
	}
	names, err := s.bundles.Configured(ctx, id.UserID)
	if err != nil {
		return nil, err
	}
	out := make(map[string]bundle.Settings, len(names))
	for _, name := range names {
		st, err := s.bundles.Get(ctx, id.UserID, name)
		if err != nil {
			return nil, err
		}
		out[name] = st
	}
	return out, nil
}

// IsSupportTemplate reports whether name is a supported template.
func (s *Service) IsSupportTemplate(ctx context.Context, name string) (bool, error) {
	if _, err := s.identity(ctx); err != nil {
		return false, err
	}
	return s.isSupportTemplate(name), nil
}

func (s *Service) isSupportTemplate(name string) bool {
	return slices.Contains(s.opts.Templates, name)
}

// GetDeviceRemindType returns the configured device remind type. Requires a
// system caller.
func (s *Service) GetDeviceRemindType(ctx context.Context) (notification.RemindType, error) {
	if _, err := s.systemIdentity(ctx); err != nil {
		return notification.RemindIdleDoNotRemind, err
	}
	return s.opts.RemindType, nil
}
