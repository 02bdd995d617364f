package domain

import (
	"context"
	"time"
)

// HistoryEntry records one completed deck generation.
type HistoryEntry struct {
	ID        string
	UserID    string
	Topic     string
	Template  string
	Language  string
	Path      string
	CreatedAt time.Time
}

// HistoryStore persists generation history. Persistence itself is an
// external collaborator; the service runs with a nil store.
type HistoryStore interface {
	Record(ctx context.Context, entry *HistoryEntry) error
	ListRecent(ctx context.Context, userID string, limit int) ([]HistoryEntry, error)
}
