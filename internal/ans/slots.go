package ans

import (
	"context"

	"github.com/colonyops/ans/internal/core/slot"
)

// AddSlot inserts or overwrites the caller's slot of s.Type.
func (s *Service) AddSlot(ctx context.Context, sl slot.Slot) error {
	id, err := s.identity(ctx)
	if err != nil {
		return err
	}
	_, err = s.slots.Add(ctx, owner(id), sl)
	return err
}

// AddSlotByType inserts or overwrites the caller's slot of type t with the
// type defaults.
func (s *Service) AddSlotByType(ctx context.Context, t slot.Type) error {
	return s.AddSlot(ctx, slot.New(t))
}

// AddSlots inserts or overwrites every slot atomically.
func (s *Service) AddSlots(ctx context.Context, slots []slot.Slot) error {
	id, err := s.identity(ctx)
	if err != nil {
		return err
	}
	_, err = s.slots.AddAll(ctx, owner(id), slots)
	return err
}

// GetSlot returns the caller's slot of type t.
func (s *Service) GetSlot(ctx context.Context, t slot.Type) (slot.Slot, error) {
	id, err := s.identity(ctx)
	if err != nil {
		return slot.Slot{}, err
	}
	return s.slots.Get(ctx, owner(id), t)
}

// GetSlots returns the caller's slots ordered by type.
func (s *Service) GetSlots(ctx context.Context) ([]slot.Slot, error) {
	id, err := s.identity(ctx)
	if err != nil {
		return nil, err
	}
	return s.slots.List(ctx, owner(id))
}

// RemoveSlot deletes the caller's slot of type t.
func (s *Service) RemoveSlot(ctx context.Context, t slot.Type) error {
	id, err := s.identity(ctx)
	if err != nil {
		return err
	}
	return s.slots.Remove(ctx, owner(id), t)
}

// RemoveAllSlots deletes every slot of the caller.
func (s *Service) RemoveAllSlots(ctx context.Context) error {
	id, err := s.identity(ctx)
	if err != nil {
		return err
	}
	return s.slots.RemoveAll(ctx, owner(id))
}

// SetSlotByBundle merges the supplied fields into bundle's slot of p.Type,
// creating the slot from type defaults first when missing. Requires a
// system caller.
func (s *Service) SetSlotByBundle(ctx context.Context, bundle string, p slot.Patch) (slot.Slot, error) {
	id, err := s.systemIdentity(ctx)
	if err != nil {
		return slot.Slot{}, err
	}
	if err := requireBundle(bundle); err != nil {
		return slot.Slot{}, err
	}
	return s.slots.Merge(ctx, slot.Owner{Bundle: bundle, UserID: id.UserID}, p)
}

// GetSlotsByBundle returns bundle's slots. Requires a system caller.
func (s *Service) GetSlotsByBundle(ctx context.Context, bundle string) ([]slot.Slot, error) {
	id, err := s.systemIdentity(ctx)
	if err != nil {
		return nil, err
	}
	if err := requireBundle(bundle); err != nil {
		return nil, err
	}
	return s.slots.List(ctx, slot.Owner{Bundle: bundle, UserID: id.UserID})
}

// GetSlotNumByBundle returns the number of slots bundle has. Requires a
// system caller.
func (s *Service) GetSlotNumByBundle(ctx context.Context, bundle string) (int, error) {
	id, err := s.systemIdentity(ctx)
	if err != nil {
		return 0, err
	}
	if err := requireBundle(bundle); err != nil {
		return 0, err
	}
	return s.slots.Count(ctx, slot.Owner{Bundle: bundle, UserID: id.UserID})
}
