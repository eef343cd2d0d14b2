package stores

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/colonyops/ans/internal/core/notification"
	"github.com/colonyops/ans/internal/data/db"
	"github.com/jmoiron/sqlx"
)

// NotificationStore implements notification.Store using SQLite. The full
// request is stored as JSON next to the columns used for filtering.
type NotificationStore struct {
	db *db.DB
}

var _ notification.Store = (*NotificationStore)(nil)

// NewNotificationStore creates a new SQLite-backed notification store.
func NewNotificationStore(db *db.DB) *NotificationStore {
	return &NotificationStore{db: db}
}

type notificationRow struct {
	HashCode       string        `db:"hash_code"`
	Bundle         string        `db:"bundle"`
	UserID         int32         `db:"user_id"`
	NotificationID int32         `db:"notification_id"`
	Label          string        `db:"label"`
	GroupName      string        `db:"group_name"`
	Unremovable    bool          `db:"unremovable"`
	ExpiresAt      sql.NullInt64 `db:"expires_at"`
	Request        string        `db:"request"`
	CreatedAt      int64         `db:"created_at"`
	UpdatedAt      int64         `db:"updated_at"`
}

// Upsert inserts the request or replaces the entry with the same hash code.
// A replaced entry keeps its position in publish order.
func (s *NotificationStore) Upsert(ctx context.Context, r notification.Request) (bool, error) {
	if r.HashCode == "" {
		r.HashCode = r.Key().HashCode()
	}

	data, err := json.Marshal(r)
	if err != nil {
		return false, fmt.Errorf("marshal notification %s: %w", r.HashCode, err)
	}

	now := time.Now().UnixNano()
	row := notificationRow{
		HashCode:       r.HashCode,
		Bundle:         r.CreatorBundle,
		UserID:         r.CreatorUserID,
		NotificationID: r.ID,
		Label:          r.Label,
		GroupName:      r.GroupName,
		Unremovable:    r.IsUnremovable,
		Request:        string(data),
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if !r.AutoDeletedTime.IsZero() {
		row.ExpiresAt = sql.NullInt64{Int64: r.AutoDeletedTime.UnixNano(), Valid: true}
	}

	var replaced bool
	err = s.db.WithTx(ctx, func(tx *sqlx.Tx) error {
		var n int
		if err := tx.GetContext(ctx, &n, `SELECT COUNT(*) FROM notifications WHERE hash_code = ?`, r.HashCode); err != nil {
			return err
		}
		replaced = n > 0

		_, err := tx.NamedExecContext(ctx, `
			INSERT INTO notifications (hash_code, bundle, user_id, notification_id, label, group_name,
				unremovable, expires_at, request, created_at, updated_at)
			VALUES (:hash_code, :bundle, :user_id, :notification_id, :label, :group_name,
				:unremovable, :expires_at, :request, :created_at, :updated_at)
			ON CONFLICT (hash_code) DO UPDATE SET
				group_name = excluded.group_name,
				unremovable = excluded.unremovable,
				expires_at = excluded.expires_at,
				request = excluded.request,
				updated_at = excluded.updated_at`, row)
		return err
	})
	if err != nil {
		return false, fmt.Errorf("upsert notification %s: %w", r.HashCode, err)
	}
	return replaced, nil
}

// Get returns notification.ErrNotFound for unknown hash codes.
func (s *NotificationStore) Get(ctx context.Context, hashCode string) (notification.Request, error) {
	var data string
	err := s.db.X().GetContext(ctx, &data, `SELECT request FROM notifications WHERE hash_code = ?`, hashCode)
	if IsNotFoundError(err) {
		return notification.Request{}, notification.ErrNotFound
	}
	if err != nil {
		return notification.Request{}, fmt.Errorf("get notification %s: %w", hashCode, err)
	}
	return decodeRequest(data)
}

// List returns matching entries in publish order.
func (s *NotificationStore) List(ctx context.Context, f notification.Filter) ([]notification.Request, error) {
	where, args := filterClause(f)

	var data []string
	if err := s.db.X().SelectContext(ctx, &data, `SELECT request FROM notifications`+where+` ORDER BY seq`, args...); err != nil {
		return nil, fmt.Errorf("list notifications: %w", err)
	}
	return decodeRequests(data)
}

// Count returns the number of matching entries.
func (s *NotificationStore) Count(ctx context.Context, f notification.Filter) (int, error) {
	where, args := filterClause(f)

	var n int
	if err := s.db.X().GetContext(ctx, &n, `SELECT COUNT(*) FROM notifications`+where, args...); err != nil {
		return 0, fmt.Errorf("count notifications: %w", err)
	}
	return n, nil
}

// Delete returns notification.ErrNotFound for unknown hash codes.
func (s *NotificationStore) Delete(ctx context.Context, hashCode string) error {
	res, err := s.db.X().ExecContext(ctx, `DELETE FROM notifications WHERE hash_code = ?`, hashCode)
	if err != nil {
		return fmt.Errorf("delete notification %s: %w", hashCode, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete notification %s: %w", hashCode, err)
	}
	if n == 0 {
		return notification.ErrNotFound
	}
	return nil
}

// DeleteMany removes all given entries in one transaction.
func (s *NotificationStore) DeleteMany(ctx context.Context, hashCodes []string) error {
	if len(hashCodes) == 0 {
		return nil
	}

	query, args, err := sqlx.In(`DELETE FROM notifications WHERE hash_code IN (?)`, hashCodes)
	if err != nil {
		return fmt.Errorf("delete notifications: %w", err)
	}

	return s.db.WithTx(ctx, func(tx *sqlx.Tx) error {
		if _, err := tx.ExecContext(ctx, tx.Rebind(query), args...); err != nil {
			return fmt.Errorf("delete notifications: %w", err)
		}
		return nil
	})
}

// ListExpired returns entries whose auto-delete time is at or before now.
func (s *NotificationStore) ListExpired(ctx context.Context, now time.Time) ([]notification.Request, error) {
	var data []string
	err := s.db.X().SelectContext(ctx, &data,
		`SELECT request FROM notifications WHERE expires_at IS NOT NULL AND expires_at <= ? ORDER BY seq`,
		now.UnixNano())
	if err != nil {
		return nil, fmt.Errorf("list expired notifications: %w", err)
	}
	return decodeRequests(data)
}

func filterClause(f notification.Filter) (string, []any) {
	var (
		conds []string
		args  []any
	)
	if f.Bundle != "" {
		conds = append(conds, "bundle = ?")
		args = append(args, f.Bundle)
	}
	if f.UserID != nil {
		conds = append(conds, "user_id = ?")
		args = append(args, *f.UserID)
	}
	if f.GroupName != "" {
		conds = append(conds, "group_name = ?")
		args = append(args, f.GroupName)
	}
	if !f.Now.IsZero() {
		conds = append(conds, "(expires_at IS NULL OR expires_at > ?)")
		args = append(args, f.Now.UnixNano())
	}
	if len(conds) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

func decodeRequest(data string) (notification.Request, error) {
	var r notification.Request
	if err := json.Unmarshal([]byte(data), &r); err != nil {
		return notification.Request{}, fmt.Errorf("unmarshal notification: %w", err)
	}
	return r, nil
}

func decodeRequests(data []string) ([]notification.Request, error) {
	out := make([]notification.Request, 0, len(data))
	for _, d := range data {
		r, err := decodeRequest(d)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, nil
}
