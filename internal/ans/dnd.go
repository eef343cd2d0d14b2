package ans

import (
	"context"

	"github.com/colonyops/ans/internal/core/dnd"
)

// SetDoNotDisturbDate normalizes and stores userID's DND window. Subscribers
// of the user receive the stored window. Requires a system caller.
func (s *Service) SetDoNotDisturbDate(ctx context.Context, userID int32, w dnd.Window) (dnd.Window, error) {
	if _, err := s.systemIdentity(ctx); err != nil {
		return dnd.Window{}, err
	}
	if _, err := s.forUser(ctx, userID); err != nil {
		return dnd.Window{}, err
	}
	return s.dnd.Set(ctx, userID, w)
}

// GetDoNotDisturbDate returns userID's stored window. Reading another
// user's window requires a system caller.
func (s *Service) GetDoNotDisturbDate(ctx context.Context, userID int32) (dnd.Window, error) {
	if _, err := s.forUser(ctx, userID); err != nil {
		return dnd.Window{}, err
	}
	return s.dnd.Get(ctx, userID)
}

// SupportDoNotDisturbMode reports whether DND windows can be set.
func (s *Service) SupportDoNotDisturbMode(ctx context.Context) (bool, error) {
	if _, err := s.identity(ctx); err != nil {
		return false, err
	}
	return s.dnd.Supported(), nil
}
