package repo

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"deckforge/internal/domain"
)

// HistoryStorePG implements domain.HistoryStore on PostgreSQL.
type HistoryStorePG struct {
	pool *pgxpool.Pool
}

// NewHistoryStore creates a history store backed by the given pool.
func NewHistoryStore(pool *pgxpool.Pool) *HistoryStorePG {
	return &HistoryStorePG{pool: pool}
}

// Record inserts one completed generation into the history table.
func (s *HistoryStorePG) Record(ctx context.Context, entry *domain.HistoryEntry) error {
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	query := `
INSERT INTO generation_history (id, user_id, topic, template, language, artifact_path)
VALUES ($1, $2, $3, $4, $5, $6);
`
	_, err := s.pool.Exec(ctx, query,
		entry.ID,
		entry.UserID,
		entry.Topic,
		entry.Template,
		entry.Language,
		entry.Path,
	)
	if err != nil {
		return fmt.Errorf("history: record: %w", err)
	}
	return nil
}

// ListRecent returns the user's newest entries, most recent first.
func (s *HistoryStorePG) ListRecent(ctx context.Context, userID string, limit int) ([]domain.HistoryEntry, error) {
	if limit <= 0 {
		limit = 10
	}
	query := `
SELECT id, user_id, topic, template, language, artifact_path, created_at
FROM generation_history
WHERE user_id = $1
ORDER BY created_at DESC
LIMIT $2;
`
	rows, err := s.pool.Query(ctx, query, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("history: list: %w", err)
	}
	defer rows.Close()

	var entries []domain.HistoryEntry
	for rows.Next() {
		var e domain.HistoryEntry
		if err := rows.Scan(&e.ID, &e.UserID, &e.Topic, &e.Template, &e.Language, &e.Path, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("history: scan: %w", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("history: iterate: %w", err)
	}
	return entries, nil
}

var _ domain.HistoryStore = (*HistoryStorePG)(nil)
