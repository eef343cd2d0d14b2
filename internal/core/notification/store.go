package notification

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned by Store when no entry has the hash code.
var ErrNotFound = errors.New("notification not found")

// Filter narrows List and Count. Zero fields match everything.
type Filter struct {
	Bundle    string
	UserID    *int32
	GroupName string
	// Now hides entries whose auto-delete time has passed when non-zero.
	Now time.Time
}

// Store is the table of active notifications.
type Store interface {
	// Upsert inserts the request or replaces the entry with the same hash
	// code in place. replaced reports whether an entry existed.
	Upsert(ctx context.Context, r Request) (replaced bool, err error)
	// Get returns ErrNotFound for unknown hash codes.
	Get(ctx context.Context, hashCode string) (Request, error)
	// List returns matching entries in publish order.
	List(ctx context.Context, f Filter) ([]Request, error)
	Count(ctx context.Context, f Filter) (int, error)
	// Delete returns ErrNotFound for unknown hash codes.
	Delete(ctx context.Context, hashCode string) error
	// DeleteMany removes all given entries atomically. Unknown codes are ignored.
	DeleteMany(ctx context.Context, hashCodes []string) error
	// ListExpired returns entries whose auto-delete time is at or before now.
	ListExpired(ctx context.Context, now time.Time) ([]Request, error)
}
