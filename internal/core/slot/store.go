package slot

import (
	"context"
	"errors"
)

// ErrNotFound is returned by Store when no slot exists for the owner and type.
var ErrNotFound = errors.New("slot not found")

// Store persists slots.
type Store interface {
	// Save inserts or replaces the slot for (owner, s.Type).
	Save(ctx context.Context, owner Owner, s Slot) error
	// SaveAll saves every slot atomically.
	SaveAll(ctx context.Context, owner Owner, slots []Slot) error
	// Get returns ErrNotFound when the slot does not exist.
	Get(ctx context.Context, owner Owner, t Type) (Slot, error)
	// List returns the owner's slots ordered by type.
	List(ctx context.Context, owner Owner) ([]Slot, error)
	Count(ctx context.Context, owner Owner) (int, error)
	// Delete returns ErrNotFound when the slot does not exist.
	Delete(ctx context.Context, owner Owner, t Type) error
	DeleteAll(ctx context.Context, owner Owner) error
}
