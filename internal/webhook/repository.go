// Package webhook provides the inbound telephony webhook bounded context.
// It receives phone system deliveries, verifies their signatures, dedupes
// replays, and routes each event to the matching processing flow.
package webhook

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var ErrLogNotFound = errors.New("webhook log not found")

// Webhook log lifecycle statuses.
const (
	StatusReceived  = "received"
	StatusParsing   = "parsing"
	StatusStored    = "stored"
	StatusDuplicate = "duplicate"
	StatusFailed    = "failed"
)

// Log is the audit record of one webhook delivery, from receipt through
// final disposition.
type Log struct {
	ID           uuid.UUID  `json:"id"`
	Endpoint     string     `json:"endpoint"`
	Source       string     `json:"source,omitempty"`
	EventType    string     `json:"eventType,omitempty"`
	EventID      string     `json:"eventId,omitempty"`
	Status       string     `json:"status"`
	Headers      []byte     `json:"headers,omitempty"`
	Payload      []byte     `json:"payload,omitempty"`
	ErrorMessage string     `json:"errorMessage,omitempty"`
	RecordID     *uuid.UUID `json:"recordId,omitempty"`
	ProcessingMs int        `json:"processingMs"`
	CreatedAt    time.Time  `json:"createdAt"`
	UpdatedAt    time.Time  `json:"updatedAt"`
}

const logColumns = `id, endpoint, source, event_type, event_id, status, headers,
	payload, error_message, record_id, processing_ms, created_at, updated_at`

// Repository provides data access for webhook delivery logs.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a new webhook repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

func scanLog(row pgx.Row) (Log, error) {
	var l Log
	err := row.Scan(
		&l.ID, &l.Endpoint, &l.Source, &l.EventType, &l.EventID, &l.Status,
		&l.Headers, &l.Payload, &l.ErrorMessage, &l.RecordID, &l.ProcessingMs,
		&l.CreatedAt, &l.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return Log{}, ErrLogNotFound
	}
	return l, err
}

// CreateLog inserts the initial audit record for a delivery.
func (r *Repository) CreateLog(ctx context.Context, l Log) (Log, error) {
	return scanLog(r.pool.QueryRow(ctx, `
		INSERT INTO fos_webhook_logs (endpoint, source, event_type, event_id, status, headers, payload)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING `+logColumns+`
	`, l.Endpoint, l.Source, l.EventType, l.EventID, l.Status, l.Headers, l.Payload))
}

// MarkParsing stamps the delivery with its routing identity once the
// envelope has been decoded.
func (r *Repository) MarkParsing(ctx context.Context, id uuid.UUID, source, eventType, eventID string) error {
	_, err := r.pool.Exec(ctx, `
		UPDATE fos_webhook_logs
		SET status = $2, source = $3, event_type = $4, event_id = $5, updated_at = now()
		WHERE id = $1
	`, id, StatusParsing, source, eventType, eventID)
	return err
}

// UpdateLog records the final disposition of a delivery.
func (r *Repository) UpdateLog(ctx context.Context, id uuid.UUID, status string, errorMessage string, recordID *uuid.UUID, processingMs int) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE fos_webhook_logs
		SET status = $2, error_message = $3, record_id = $4, processing_ms = $5, updated_at = now()
		WHERE id = $1
	`, id, status, errorMessage, recordID, processingMs)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrLogNotFound
	}
	return nil
}

// GetLog returns a single webhook log.
func (r *Repository) GetLog(ctx context.Context, id uuid.UUID) (Log, error) {
	return scanLog(r.pool.QueryRow(ctx, `
		SELECT `+logColumns+` FROM fos_webhook_logs WHERE id = $1
	`, id))
}

// ListLogs returns recent webhook logs, optionally filtered by status.
func (r *Repository) ListLogs(ctx context.Context, status string, limit, offset int) ([]Log, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+logColumns+` FROM fos_webhook_logs
		WHERE ($1 = '' OR status = $1)
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`, status, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var logs []Log
	for rows.Next() {
		var l Log
		if err := rows.Scan(
			&l.ID, &l.Endpoint, &l.Source, &l.EventType, &l.EventID, &l.Status,
			&l.Headers, &l.Payload, &l.ErrorMessage, &l.RecordID, &l.ProcessingMs,
			&l.CreatedAt, &l.UpdatedAt,
		); err != nil {
			return nil, err
		}
		logs = append(logs, l)
	}
	return logs, rows.Err()
}
