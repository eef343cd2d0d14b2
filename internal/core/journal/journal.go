// Package journal records delivered events so they can be inspected after
// the fact and tailed from another process.
package journal

import (
	"context"
	"time"
)

// Kind classifies a journal entry.
type Kind string

const (
	KindConsume Kind = "consume"
	KindCancel  Kind = "cancel"
	KindDnd     Kind = "dnd"
	KindEnabled Kind = "enabled"
	KindBadge   Kind = "badge"
)

// Entry is one recorded event.
type Entry struct {
	ID        int64     `json:"id"`
	Kind      Kind      `json:"kind"`
	Bundle    string    `json:"bundle,omitempty"`
	UserID    int32     `json:"userId"`
	HashCode  string    `json:"hashCode,omitempty"`
	Message   string    `json:"message"`
	CreatedAt time.Time `json:"createdAt"`
}

// ListOptions narrows List.
type ListOptions struct {
	// AfterID returns only entries with a larger id, oldest first.
	AfterID int64
	// Limit caps the result size; zero means no limit.
	Limit int
}

// Store persists journal entries.
type Store interface {
	Save(ctx context.Context, e Entry) (int64, error)
	// List returns newest first unless AfterID is set.
	List(ctx context.Context, opts ListOptions) ([]Entry, error)
	Clear(ctx context.Context) error
	Count(ctx context.Context) (int64, error)
}
