package slot

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/colonyops/ans/internal/core/anserr"
)

// Manager serializes slot mutations on top of a Store. Writes are
// last-writer-wins and immediately visible to subsequent reads.
type Manager struct {
	mu    sync.RWMutex
	store Store
}

// NewManager creates a Manager backed by store.
func NewManager(store Store) *Manager {
	return &Manager{store: store}
}

// Add inserts or overwrites the slot for (owner, s.Type). Unknown types are
// stored as TypeOther and a nil vibration pattern is stored as empty.
func (m *Manager) Add(ctx context.Context, owner Owner, s Slot) (Slot, error) {
	s = prepare(s)
	if err := s.Validate(); err != nil {
		return Slot{}, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.store.Save(ctx, owner, s); err != nil {
		return Slot{}, anserr.Storage("save slot", err)
	}
	return s, nil
}

// AddAll inserts or overwrites every slot in one transaction. Validation
// failures reject the whole batch.
func (m *Manager) AddAll(ctx context.Context, owner Owner, slots []Slot) ([]Slot, error) {
	if len(slots) == 0 {
		return nil, anserr.InvalidParam("no slots given")
	}

	prepared := make([]Slot, 0, len(slots))
	for i, s := range slots {
		s = prepare(s)
		if err := s.Validate(); err != nil {
			return nil, fmt.Errorf("slot %d: %w", i, err)
		}
		prepared = append(prepared, s)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.store.SaveAll(ctx, owner, prepared); err != nil {
		return nil, anserr.Storage("save slots", err)
	}
	return prepared, nil
}

// Merge applies a partial update to the owner's slot of p.Type. A missing
// slot is created from the type defaults before the patch is applied.
func (m *Manager) Merge(ctx context.Context, owner Owner, p Patch) (Slot, error) {
	p.Type = p.Type.Normalize()
	if !p.Type.IsValid() {
		return Slot{}, anserr.InvalidParam("invalid slot type %d", int32(p.Type))
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	current, err := m.store.Get(ctx, owner, p.Type)
	switch {
	case errors.Is(err, ErrNotFound):
		current = New(p.Type)
	case err != nil:
		return Slot{}, anserr.Storage("get slot", err)
	}

	merged := prepare(current.Apply(p))
	if err := merged.Validate(); err != nil {
		return Slot{}, err
	}

	if err := m.store.Save(ctx, owner, merged); err != nil {
		return Slot{}, anserr.Storage("save slot", err)
	}
	return merged, nil
}

// Get returns the owner's slot or ERR_ANS_SLOT_NOT_EXIST.
func (m *Manager) Get(ctx context.Context, owner Owner, t Type) (Slot, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	s, err := m.store.Get(ctx, owner, t.Normalize())
	if errors.Is(err, ErrNotFound) {
		return Slot{}, anserr.ErrSlotNotExist
	}
	if err != nil {
		return Slot{}, anserr.Storage("get slot", err)
	}
	return s, nil
}

// Lookup returns the owner's slot, falling back to the type defaults without
// persisting anything when the slot does not exist.
func (m *Manager) Lookup(ctx context.Context, owner Owner, t Type) (Slot, error) {
	s, err := m.Get(ctx, owner, t)
	if errors.Is(err, anserr.ErrSlotNotExist) {
		return New(t), nil
	}
	return s, err
}

// Ensure returns the owner's slot, creating it from the type defaults when
// missing.
func (m *Manager) Ensure(ctx context.Context, owner Owner, t Type) (Slot, error) {
	t = t.Normalize()

	m.mu.Lock()
	defer m.mu.Unlock()

	s, err := m.store.Get(ctx, owner, t)
	if err == nil {
		return s, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return Slot{}, anserr.Storage("get slot", err)
	}

	s = New(t)
	if err := m.store.Save(ctx, owner, s); err != nil {
		return Slot{}, anserr.Storage("save slot", err)
	}
	return s, nil
}

// List returns the owner's slots.
func (m *Manager) List(ctx context.Context, owner Owner) ([]Slot, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	slots, err := m.store.List(ctx, owner)
	if err != nil {
		return nil, anserr.Storage("list slots", err)
	}
	return slots, nil
}

// Count returns the number of slots the owner has.
func (m *Manager) Count(ctx context.Context, owner Owner) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	n, err := m.store.Count(ctx, owner)
	if err != nil {
		return 0, anserr.Storage("count slots", err)
	}
	return n, nil
}

// Remove deletes the owner's slot of type t.
func (m *Manager) Remove(ctx context.Context, owner Owner, t Type) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	err := m.store.Delete(ctx, owner, t.Normalize())
	if errors.Is(err, ErrNotFound) {
		return anserr.ErrSlotNotExist
	}
	if err != nil {
		return anserr.Storage("delete slot", err)
	}
	return nil
}

// RemoveAll deletes every slot of the owner.
func (m *Manager) RemoveAll(ctx context.Context, owner Owner) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.store.DeleteAll(ctx, owner); err != nil {
		return anserr.Storage("delete slots", err)
	}
	return nil
}

func prepare(s Slot) Slot {
	s.Type = s.Type.Normalize()
	if s.VibrationValues == nil {
		s.VibrationValues = []int64{}
	}
	return s
}
