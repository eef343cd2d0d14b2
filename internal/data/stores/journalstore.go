package stores

import (
	"context"
	"fmt"
	"time"

	"github.com/colonyops/ans/internal/core/journal"
	"github.com/colonyops/ans/internal/data/db"
)

// JournalStore implements journal.Store using SQLite.
type JournalStore struct {
	db *db.DB
}

var _ journal.Store = (*JournalStore)(nil)

// NewJournalStore creates a new SQLite-backed journal store.
func NewJournalStore(db *db.DB) *JournalStore {
	return &JournalStore{db: db}
}

type journalRow struct {
	ID        int64  `db:"id"`
	Kind      string `db:"kind"`
	Bundle    string `db:"bundle"`
	UserID    int32  `db:"user_id"`
	HashCode  string `db:"hash_code"`
	Message   string `db:"message"`
	CreatedAt int64  `db:"created_at"`
}

// Save appends an entry and returns its id. A zero CreatedAt is set to now.
func (s *JournalStore) Save(ctx context.Context, e journal.Entry) (int64, error) {
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now()
	}

	res, err := s.db.X().ExecContext(ctx, `
		INSERT INTO journal (kind, bundle, user_id, hash_code, message, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		string(e.Kind), e.Bundle, e.UserID, e.HashCode, e.Message, e.CreatedAt.UnixNano())
	if err != nil {
		return 0, fmt.Errorf("save journal entry: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("save journal entry: %w", err)
	}
	return id, nil
}

// List returns entries newest first, or oldest first after opts.AfterID when
// it is set.
func (s *JournalStore) List(ctx context.Context, opts journal.ListOptions) ([]journal.Entry, error) {
	query := `SELECT id, kind, bundle, user_id, hash_code, message, created_at FROM journal`
	var args []any

	if opts.AfterID > 0 {
		query += ` WHERE id > ? ORDER BY id ASC`
		args = append(args, opts.AfterID)
	} else {
		query += ` ORDER BY id DESC`
	}
	if opts.Limit > 0 {
		query += ` LIMIT ?`
		args = append(args, opts.Limit)
	}

	var rows []journalRow
	if err := s.db.X().SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("list journal entries: %w", err)
	}

	out := make([]journal.Entry, 0, len(rows))
	for _, row := range rows {
		out = append(out, journal.Entry{
			ID:        row.ID,
			Kind:      journal.Kind(row.Kind),
			Bundle:    row.Bundle,
			UserID:    row.UserID,
			HashCode:  row.HashCode,
			Message:   row.Message,
			CreatedAt: time.Unix(0, row.CreatedAt),
		})
	}
	return out, nil
}

// Clear deletes every entry.
func (s *JournalStore) Clear(ctx context.Context) error {
	if _, err := s.db.X().ExecContext(ctx, `DELETE FROM journal`); err != nil {
		return fmt.Errorf("clear journal: %w", err)
	}
	return nil
}

// Count returns the number of entries.
func (s *JournalStore) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := s.db.X().GetContext(ctx, &n, `SELECT COUNT(*) FROM journal`); err != nil {
		return 0, fmt.Errorf("count journal entries: %w", err)
	}
	return n, nil
}
