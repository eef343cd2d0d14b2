package dnd

import (
	"context"
	"errors"
	"strconv"

	"github.com/colonyops/ans/internal/core/kv"
)

// ErrNotFound is returned by Store when no window was saved for a user.
var ErrNotFound = errors.New("dnd window not found")

// Store persists one window per user.
type Store interface {
	Get(ctx context.Context, userID int32) (Window, error)
	Save(ctx context.Context, userID int32, w Window) error
}

// KVStore keeps windows in the "dnd" namespace of a kv.KV.
type KVStore struct {
	windows *kv.TypedKV[Window]
}

var _ Store = (*KVStore)(nil)

// NewKVStore creates a Store on top of a key-value store.
func NewKVStore(store kv.KV) *KVStore {
	return &KVStore{windows: kv.Scoped[Window](store, "dnd")}
}

func (s *KVStore) Get(ctx context.Context, userID int32) (Window, error) {
	w, err := s.windows.Get(ctx, strconv.Itoa(int(userID)))
	if errors.Is(err, kv.ErrNotFound) {
		return Window{}, ErrNotFound
	}
	return w, err
}

func (s *KVStore) Save(ctx context.Context, userID int32, w Window) error {
	return s.windows.Set(ctx, strconv.Itoa(int(userID)), w)
}
