// Package activity provides the append-only activity log bounded context.
// Every notable system and user action lands here for audit and timeline views.
package activity

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Entry is a single immutable activity log record.
type Entry struct {
	ID          uuid.UUID  `json:"id"`
	EntityType  string     `json:"entityType"`
	EntityID    *uuid.UUID `json:"entityId,omitempty"`
	Action      string     `json:"action"`
	ActorType   string     `json:"actorType"`
	ActorID     *uuid.UUID `json:"actorId,omitempty"`
	Description string     `json:"description"`
	Metadata    []byte     `json:"metadata,omitempty"`
	CreatedAt   time.Time  `json:"createdAt"`
}

// Repository provides data access for activity log entries.
// Entries are insert-only; there are no update or delete operations.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a new activity repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Insert appends a new activity entry.
func (r *Repository) Insert(ctx context.Context, entry Entry) (Entry, error) {
	err := r.pool.QueryRow(ctx, `
		INSERT INTO fos_activity_logs (entity_type, entity_id, action, actor_type, actor_id, description, metadata)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at
	`, entry.EntityType, entry.EntityID, entry.Action, entry.ActorType, entry.ActorID,
		entry.Description, entry.Metadata).Scan(&entry.ID, &entry.CreatedAt)
	return entry, err
}

// ListByEntity returns entries for a specific entity, newest first.
func (r *Repository) ListByEntity(ctx context.Context, entityType string, entityID uuid.UUID, limit int) ([]Entry, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, entity_type, entity_id, action, actor_type, actor_id, description, metadata, created_at
		FROM fos_activity_logs
		WHERE entity_type = $1 AND entity_id = $2
		ORDER BY created_at DESC
		LIMIT $3
	`, entityType, entityID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanEntries(rows)
}

// ListRecent returns the most recent entries across all entities.
func (r *Repository) ListRecent(ctx context.Context, limit int) ([]Entry, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, entity_type, entity_id, action, actor_type, actor_id, description, metadata, created_at
		FROM fos_activity_logs
		ORDER BY created_at DESC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanEntries(rows)
}

type rowScanner interface {
	Next() bool
	Scan(dest ...any) error
	Err() error
}

func scanEntries(rows rowScanner) ([]Entry, error) {
	var entries []Entry
	for rows.Next() {
		var e Entry
		if err := rows.Scan(
			&e.ID, &e.EntityType, &e.EntityID, &e.Action, &e.ActorType,
			&e.ActorID, &e.Description, &e.Metadata, &e.CreatedAt,
		); err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
