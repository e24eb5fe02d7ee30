// Package calls provides the call records bounded context.
// It stores inbound and outbound call reports ingested from the phone system.
package calls

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var ErrCallNotFound = errors.New("call not found")

// Call represents a stored call record.
type Call struct {
	ID                  uuid.UUID  `json:"id"`
	ConversationSpaceID string     `json:"conversationSpaceId,omitempty"`
	ClientID            *uuid.UUID `json:"clientId,omitempty"`
	CallerNumber        string     `json:"callerNumber,omitempty"`
	CallerName          string     `json:"callerName,omitempty"`
	CalleeNumber        string     `json:"calleeNumber,omitempty"`
	CalleeName          string     `json:"calleeName,omitempty"`
	Direction           string     `json:"direction,omitempty"`
	DurationSeconds     int        `json:"durationSeconds"`
	StartTime           *time.Time `json:"startTime,omitempty"`
	EndTime             *time.Time `json:"endTime,omitempty"`
	Summary             string     `json:"summary,omitempty"`
	Sentiment           string     `json:"sentiment,omitempty"`
	Transcript          string     `json:"transcript,omitempty"`
	RecordingURL        string     `json:"recordingUrl,omitempty"`
	ArchiveKey          string     `json:"archiveKey,omitempty"`
	Metadata            []byte     `json:"metadata,omitempty"`
	CreatedAt           time.Time  `json:"createdAt"`
	UpdatedAt           time.Time  `json:"updatedAt"`
}

const callColumns = `id, conversation_space_id, client_id, caller_number, caller_name,
	callee_number, callee_name, direction, duration_seconds, start_time, end_time,
	summary, sentiment, transcript, recording_url, archive_key, metadata, created_at, updated_at`

// Repository provides data access for call records.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a new calls repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

func scanCall(row pgx.Row) (Call, error) {
	var c Call
	err := row.Scan(
		&c.ID, &c.ConversationSpaceID, &c.ClientID, &c.CallerNumber, &c.CallerName,
		&c.CalleeNumber, &c.CalleeName, &c.Direction, &c.DurationSeconds, &c.StartTime,
		&c.EndTime, &c.Summary, &c.Sentiment, &c.Transcript, &c.RecordingURL, &c.ArchiveKey,
		&c.Metadata, &c.CreatedAt, &c.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return Call{}, ErrCallNotFound
	}
	return c, err
}

// Insert stores a new call record.
func (r *Repository) Insert(ctx context.Context, c Call) (Call, error) {
	return scanCall(r.pool.QueryRow(ctx, `
		INSERT INTO fos_calls (
			conversation_space_id, client_id, caller_number, caller_name,
			callee_number, callee_name, direction, duration_seconds,
			start_time, end_time, summary, sentiment, transcript, recording_url, metadata
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
		RETURNING `+callColumns+`
	`, c.ConversationSpaceID, c.ClientID, c.CallerNumber, c.CallerName,
		c.CalleeNumber, c.CalleeName, c.Direction, c.DurationSeconds,
		c.StartTime, c.EndTime, c.Summary, c.Sentiment, c.Transcript, c.RecordingURL, c.Metadata))
}

// GetByID returns a single call record.
func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (Call, error) {
	return scanCall(r.pool.QueryRow(ctx, `
		SELECT `+callColumns+` FROM fos_calls WHERE id = $1
	`, id))
}

// FindByConversationSpaceID returns the most recent call sharing a
// conversation space. Used to attach recordings that arrive after the
// call report.
func (r *Repository) FindByConversationSpaceID(ctx context.Context, spaceID string) (Call, error) {
	return scanCall(r.pool.QueryRow(ctx, `
		SELECT `+callColumns+` FROM fos_calls
		WHERE conversation_space_id = $1
		ORDER BY created_at DESC
		LIMIT 1
	`, spaceID))
}

// FindByRecordingID returns the call whose metadata lists the recording.
// Recording IDs are stored in the metadata under "recordingIds".
func (r *Repository) FindByRecordingID(ctx context.Context, recordingID string) (Call, error) {
	return scanCall(r.pool.QueryRow(ctx, `
		SELECT `+callColumns+` FROM fos_calls
		WHERE metadata @> jsonb_build_object('recordingIds', jsonb_build_array($1::text))
		ORDER BY created_at DESC
		LIMIT 1
	`, recordingID))
}

// AttachRecording sets the recording URL on a call.
func (r *Repository) AttachRecording(ctx context.Context, id uuid.UUID, recordingURL string) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE fos_calls SET recording_url = $2, updated_at = now() WHERE id = $1
	`, id, recordingURL)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrCallNotFound
	}
	return nil
}

// AttachTranscript sets the transcript on a call.
func (r *Repository) AttachTranscript(ctx context.Context, id uuid.UUID, transcript string) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE fos_calls SET transcript = $2, updated_at = now() WHERE id = $1
	`, id, transcript)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrCallNotFound
	}
	return nil
}

// SetArchiveKey records the object storage key of an archived recording.
func (r *Repository) SetArchiveKey(ctx context.Context, id uuid.UUID, key string) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE fos_calls SET archive_key = $2, updated_at = now() WHERE id = $1
	`, id, key)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrCallNotFound
	}
	return nil
}

// List returns calls ordered by creation time, optionally filtered by client.
func (r *Repository) List(ctx context.Context, clientID *uuid.UUID, limit, offset int) ([]Call, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+callColumns+` FROM fos_calls
		WHERE ($1::uuid IS NULL OR client_id = $1)
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`, clientID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var calls []Call
	for rows.Next() {
		var c Call
		if err := rows.Scan(
			&c.ID, &c.ConversationSpaceID, &c.ClientID, &c.CallerNumber, &c.CallerName,
			&c.CalleeNumber, &c.CalleeName, &c.Direction, &c.DurationSeconds, &c.StartTime,
			&c.EndTime, &c.Summary, &c.Sentiment, &c.Transcript, &c.RecordingURL, &c.ArchiveKey,
			&c.Metadata, &c.CreatedAt, &c.UpdatedAt,
		); err != nil {
			return nil, err
		}
		calls = append(calls, c)
	}
	return calls, rows.Err()
}
