package ans

import (
	"context"
	"errors"

	"github.com/colonyops/ans/internal/core/anserr"
	"github.com/colonyops/ans/internal/core/caller"
	"github.com/colonyops/ans/internal/core/eventbus"
	"github.com/colonyops/ans/internal/core/notification"
)

// Publish publishes req for the caller. Re-publishing the same id and label
// replaces the active entry in place.
func (s *Service) Publish(ctx context.Context, req notification.Request) (notification.Request, error) {
	id, err := s.identity(ctx)
	if err != nil {
		return notification.Request{}, err
	}
	return s.publish(ctx, id, req)
}

// PublishAsUser publishes req on behalf of userID. Publishing for a user
// other than the caller's requires a system caller.
func (s *Service) PublishAsUser(ctx context.Context, req notification.Request, userID int32) (notification.Request, error) {
	id, err := s.forUser(ctx, userID)
	if err != nil {
		return notification.Request{}, err
	}
	return s.publish(ctx, id, req)
}

func (s *Service) publish(ctx context.Context, id caller.Identity, req notification.Request) (notification.Request, error) {
	now := s.opts.Now()

	if err := req.Validate(); err != nil {
		return notification.Request{}, err
	}
	if req.Template != nil && !s.isSupportTemplate(req.Template.Name) {
		return notification.Request{}, anserr.InvalidParam("template %q is not supported", req.Template.Name)
	}
	if !req.AutoDeletedTime.IsZero() && !req.AutoDeletedTime.After(now) {
		return notification.Request{}, anserr.InvalidParam("auto delete time %s is not in the future", req.AutoDeletedTime)
	}

	enabled, err := s.bundles.Enabled(ctx, id.UserID, id.Bundle)
	if err != nil {
		return notification.Request{}, err
	}
	if !enabled {
		return notification.Request{}, anserr.New(anserr.CodeNotAllowed, "notifications are disabled for %s", id.Bundle)
	}

	req.SlotType = req.SlotType.Normalize()
	sl, err := s.slots.Ensure(ctx, owner(id), req.SlotType)
	if err != nil {
		return notification.Request{}, err
	}
	if sl.Disabled {
		return notification.Request{}, anserr.New(anserr.CodeNotAllowed, "slot %s is disabled for %s", sl.Type, id.Bundle)
	}

	req.CreatorBundle = id.Bundle
	req.CreatorUID = id.UID
	req.CreatorUserID = id.UserID
	req.HashCode = req.Key().HashCode()
	req.Flags = notification.Flags{}
	if req.DeliveryTime.IsZero() {
		req.DeliveryTime = now
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	live, err := s.isLive(ctx, req.HashCode)
	if err != nil {
		return notification.Request{}, err
	}
	if !live {
		if err := s.checkLimits(ctx, id); err != nil {
			return notification.Request{}, err
		}
	}

	if _, err := s.notifications.Upsert(ctx, req); err != nil {
		return notification.Request{}, anserr.Storage("save notification", err)
	}

	s.bus.PublishNotificationPublished(eventbus.NotificationPublishedPayload{Request: req, Replaced: live})

	s.log.Debug().Ctx(ctx).
		Str("hash_code", req.HashCode).
		Bool("replaced", live).
		Stringer("slot", req.SlotType).
		Msg("notification published")

	return req, nil
}

// isLive reports whether an unexpired entry with the hash code exists.
func (s *Service) isLive(ctx context.Context, hashCode string) (bool, error) {
	existing, err := s.notifications.Get(ctx, hashCode)
	if errors.Is(err, notification.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, anserr.Storage("get notification", err)
	}
	return !existing.Expired(s.opts.Now()), nil
}

func (s *Service) checkLimits(ctx context.Context, id caller.Identity) error {
	now := s.opts.Now()

	if s.opts.MaxActivePerBundle > 0 {
		userID := id.UserID
		n, err := s.notifications.Count(ctx, notification.Filter{Bundle: id.Bundle, UserID: &userID, Now: now})
		if err != nil {
			return anserr.Storage("count notifications", err)
		}
		if n >= s.opts.MaxActivePerBundle {
			return anserr.New(anserr.CodeOverMaxActiveCount, "%s has %d active notifications", id.Bundle, n)
		}
	}

	if s.opts.MaxActiveTotal > 0 {
		n, err := s.notifications.Count(ctx, notification.Filter{Now: now})
		if err != nil {
			return anserr.Storage("count notifications", err)
		}
		if n >= s.opts.MaxActiveTotal {
			return anserr.New(anserr.CodeOverMaxActiveCount, "%d active notifications", n)
		}
	}
	return nil
}

// Cancel removes the caller's notification with the id and label.
func (s *Service) Cancel(ctx context.Context, notificationID int32, label string) error {
	id, err := s.identity(ctx)
	if err != nil {
		return err
	}
	return s.cancel(ctx, id, notificationID, label)
}

// CancelAsUser removes the notification the caller published for userID.
func (s *Service) CancelAsUser(ctx context.Context, notificationID int32, label string, userID int32) error {
	id, err := s.forUser(ctx, userID)
	if err != nil {
		return err
	}
	return s.cancel(ctx, id, notificationID, label)
}

func (s *Service) cancel(ctx context.Context, id caller.Identity, notificationID int32, label string) error {
	key := notification.Key{Bundle: id.Bundle, UserID: id.UserID, ID: notificationID, Label: label}

	s.mu.Lock()
	defer s.mu.Unlock()

	req, err := s.getLive(ctx, key.HashCode())
	if err != nil {
		return err
	}
	return s.removeOne(ctx, req, notification.ReasonAppCancel)
}

// CancelAll removes every active notification of the caller.
func (s *Service) CancelAll(ctx context.Context) error {
	id, err := s.identity(ctx)
	if err != nil {
		return err
	}
	userID := id.UserID
	return s.removeWhere(ctx, notification.Filter{Bundle: id.Bundle, UserID: &userID}, notification.ReasonAppCancelAll, false)
}

// CancelGroup removes the caller's active notifications in group.
func (s *Service) CancelGroup(ctx context.Context, group string) error {
	id, err := s.identity(ctx)
	if err != nil {
		return err
	}
	if group == "" {
		return anserr.InvalidParam("group name is empty")
	}
	userID := id.UserID
	return s.removeWhere(ctx, notification.Filter{Bundle: id.Bundle, UserID: &userID, GroupName: group}, notification.ReasonGroupByApp, false)
}

// Remove removes any bundle's notification by hash code. Unremovable
// notifications are refused. Requires a system caller.
func (s *Service) Remove(ctx context.Context, hashCode string, reason notification.Reason) error {
	if _, err := s.systemIdentity(ctx); err != nil {
		return err
	}
	if !reason.IsValid() || reason == notification.ReasonNone {
		return anserr.InvalidParam("invalid removal reason %d", int32(reason))
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	req, err := s.getLive(ctx, hashCode)
	if err != nil {
		return err
	}
	if req.IsUnremovable {
		return anserr.ErrNotificationIsUnremovable
	}
	return s.removeOne(ctx, req, reason)
}

// RemoveAll removes the removable notifications of bundle, or of every
// bundle when bundle is empty. Requires a system caller.
func (s *Service) RemoveAll(ctx context.Context, bundle string) error {
	if _, err := s.systemIdentity(ctx); err != nil {
		return err
	}
	return s.removeWhere(ctx, notification.Filter{Bundle: bundle}, notification.ReasonCancelAll, true)
}

// RemoveGroupByBundle removes the removable notifications of bundle in
// group. Requires a system caller.
func (s *Service) RemoveGroupByBundle(ctx context.Context, bundle, group string) error {
	if _, err := s.systemIdentity(ctx); err != nil {
		return err
	}
	if err := requireBundle(bundle); err != nil {
		return err
	}
	if group == "" {
		return anserr.InvalidParam("group name is empty")
	}
	return s.removeWhere(ctx, notification.Filter{Bundle: bundle, GroupName: group}, notification.ReasonGroupBySystem, true)
}

// getLive returns the unexpired entry with the hash code.
func (s *Service) getLive(ctx context.Context, hashCode string) (notification.Request, error) {
	req, err := s.notifications.Get(ctx, hashCode)
	if errors.Is(err, notification.ErrNotFound) {
		return notification.Request{}, anserr.ErrNotificationNotExists
	}
	if err != nil {
		return notification.Request{}, anserr.Storage("get notification", err)
	}
	if req.Expired(s.opts.Now()) {
		return notification.Request{}, anserr.ErrNotificationNotExists
	}
	return req, nil
}

// removeOne deletes req and announces it. Callers hold s.mu.
func (s *Service) removeOne(ctx context.Context, req notification.Request, reason notification.Reason) error {
	if err := s.notifications.Delete(ctx, req.HashCode); err != nil {
		if errors.Is(err, notification.ErrNotFound) {
			return anserr.ErrNotificationNotExists
		}
		return anserr.Storage("delete notification", err)
	}

	s.bus.PublishNotificationCanceled(eventbus.NotificationCanceledPayload{Request: req, Reason: reason})

	s.log.Debug().Ctx(ctx).
		Str("hash_code", req.HashCode).
		Stringer("reason", reason).
		Msg("notification removed")
	return nil
}

// removeWhere deletes every live entry matching f in one transaction and
// announces each in publish order.
func (s *Service) removeWhere(ctx context.Context, f notification.Filter, reason notification.Reason, skipUnremovable bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	f.Now = s.opts.Now()
	reqs, err := s.notifications.List(ctx, f)
	if err != nil {
		return anserr.Storage("list notifications", err)
	}

	removed := reqs[:0]
	for _, r := range reqs {
		if skipUnremovable && r.IsUnremovable {
			continue
		}
		removed = append(removed, r)
	}
	if len(removed) == 0 {
		return nil
	}

	hashes := make([]string, 0, len(removed))
	for _, r := range removed {
		hashes = append(hashes, r.HashCode)
	}
	if err := s.notifications.DeleteMany(ctx, hashes); err != nil {
		return anserr.Storage("delete notifications", err)
	}

	for _, r := range removed {
		s.bus.PublishNotificationCanceled(eventbus.NotificationCanceledPayload{Request: r, Reason: reason})
	}

	s.log.Debug().Ctx(ctx).
		Int("count", len(removed)).
		Stringer("reason", reason).
		Msg("notifications removed")
	return nil
}

// GetActiveNotifications returns the caller's live notifications in publish order.
func (s *Service) GetActiveNotifications(ctx context.Context) ([]notification.Request, error) {
	id, err := s.identity(ctx)
	if err != nil {
		return nil, err
	}
	userID := id.UserID
	reqs, err := s.notifications.List(ctx, notification.Filter{Bundle: id.Bundle, UserID: &userID, Now: s.opts.Now()})
	if err != nil {
		return nil, anserr.Storage("list notifications", err)
	}
	return reqs, nil
}

// GetActiveNotificationCount returns the number of the caller's live notifications.
func (s *Service) GetActiveNotificationCount(ctx context.Context) (int, error) {
	id, err := s.identity(ctx)
	if err != nil {
		return 0, err
	}
	userID := id.UserID
	n, err := s.notifications.Count(ctx, notification.Filter{Bundle: id.Bundle, UserID: &userID, Now: s.opts.Now()})
	if err != nil {
		return 0, anserr.Storage("count notifications", err)
	}
	return n, nil
}

// GetAllActiveNotifications returns every bundle's live notifications in
// publish order. Requires a system caller.
func (s *Service) GetAllActiveNotifications(ctx context.Context) ([]notification.Request, error) {
	if _, err := s.systemIdentity(ctx); err != nil {
		return nil, err
	}
	reqs, err := s.notifications.List(ctx, notification.Filter{Now: s.opts.Now()})
	if err != nil {
		return nil, anserr.Storage("list notifications", err)
	}
	return reqs, nil
}

// SweepExpired removes every notification whose auto-delete time has passed
// and announces each with reason auto_delete. It returns the number removed.
func (s *Service) SweepExpired(ctx context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	expired, err := s.notifications.ListExpired(ctx, s.opts.Now())
	if err != nil {
		return 0, anserr.Storage("list expired notifications", err)
	}
	if len(expired) == 0 {
		return 0, nil
	}

	hashes := make([]string, 0, len(expired))
	for _, r := range expired {
		hashes = append(hashes, r.HashCode)
	}
	if err := s.notifications.DeleteMany(ctx, hashes); err != nil {
		return 0, anserr.Storage("delete expired notifications", err)
	}

	for _, r := range expired {
		s.bus.PublishNotificationCanceled(eventbus.NotificationCanceledPayload{Request: r, Reason: notification.ReasonAutoDelete})
	}
	return len(expired), nil
}
