package stores

import (
	"context"
	"encoding/json"
	"fmt"
	"time"
	"unicode/utf8"

	"github.com/colonyops/ans/internal/core/kv"
	"github.com/colonyops/ans/internal/data/db"
)

// KVStore implements kv.KV using SQLite.
type KVStore struct {
	db *db.DB
}

var _ kv.KV = (*KVStore)(nil)

// NewKVStore creates a new SQLite-backed KV store.
func NewKVStore(db *db.DB) *KVStore {
	return &KVStore{db: db}
}

// Get retrieves and deserializes a value by key.
// Returns an error wrapping kv.ErrNotFound if the key does not exist.
func (s *KVStore) Get(ctx context.Context, key string, dest any) error {
	var value []byte
	err := s.db.X().GetContext(ctx, &value, `SELECT value FROM kv_store WHERE key = ?`, key)
	if IsNotFoundError(err) {
		return fmt.Errorf("kv get %q: %w", key, kv.ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("kv get %q: %w", key, err)
	}

	if err := json.Unmarshal(value, dest); err != nil {
		return fmt.Errorf("kv get %q unmarshal: %w", key, err)
	}

	return nil
}

// Set stores a value, replacing any previous one.
func (s *KVStore) Set(ctx context.Context, key string, value any) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("kv set %q marshal: %w", key, err)
	}

	now := time.Now().UnixNano()
	_, err = s.db.X().ExecContext(ctx, `
		INSERT INTO kv_store (key, value, created_at, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT (key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		key, data, now, now)
	if err != nil {
		return fmt.Errorf("kv set %q: %w", key, err)
	}

	return nil
}

// Delete removes a key. Deleting a missing key is not an error.
func (s *KVStore) Delete(ctx context.Context, key string) error {
	if _, err := s.db.X().ExecContext(ctx, `DELETE FROM kv_store WHERE key = ?`, key); err != nil {
		return fmt.Errorf("kv delete %q: %w", key, err)
	}
	return nil
}

// Has returns whether a key exists.
func (s *KVStore) Has(ctx context.Context, key string) (bool, error) {
	var count int
	if err := s.db.X().GetContext(ctx, &count, `SELECT COUNT(*) FROM kv_store WHERE key = ?`, key); err != nil {
		return false, fmt.Errorf("kv has %q: %w", key, err)
	}
	return count > 0, nil
}

// ListKeys returns the keys starting with prefix in sorted order.
func (s *KVStore) ListKeys(ctx context.Context, prefix string) ([]string, error) {
	keys := []string{}
	err := s.db.X().SelectContext(ctx, &keys,
		`SELECT key FROM kv_store WHERE substr(key, 1, ?) = ? ORDER BY key`,
		utf8.RuneCountInString(prefix), prefix)
	if err != nil {
		return nil, fmt.Errorf("kv list keys %q: %w", prefix, err)
	}
	return keys, nil
}
