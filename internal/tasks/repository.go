// Package tasks provides the task management bounded context.
// Tasks are created by staff or automatically from inbound phone calls.
package tasks

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var ErrTaskNotFound = errors.New("task not found")

// Task represents a unit of work for the firm.
type Task struct {
	ID                uuid.UUID  `json:"id"`
	Title             string     `json:"title"`
	Description       string     `json:"description,omitempty"`
	Priority          string     `json:"priority"`
	Status            string     `json:"status"`
	ClientID          *uuid.UUID `json:"clientId,omitempty"`
	AssignedTo        *uuid.UUID `json:"assignedTo,omitempty"`
	DueDate           *time.Time `json:"dueDate,omitempty"`
	Source            string     `json:"source,omitempty"`
	SourceReferenceID *uuid.UUID `json:"sourceReferenceId,omitempty"`
	CreatedAt         time.Time  `json:"createdAt"`
	UpdatedAt         time.Time  `json:"updatedAt"`
}

const taskColumns = `id, title, description, priority, status, client_id, assigned_to,
	due_date, source, source_reference_id, created_at, updated_at`

// Repository provides data access for tasks.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a new tasks repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

func scanTask(row pgx.Row) (Task, error) {
	var t Task
	err := row.Scan(
		&t.ID, &t.Title, &t.Description, &t.Priority, &t.Status, &t.ClientID,
		&t.AssignedTo, &t.DueDate, &t.Source, &t.SourceReferenceID,
		&t.CreatedAt, &t.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return Task{}, ErrTaskNotFound
	}
	return t, err
}

// Insert stores a new task.
func (r *Repository) Insert(ctx context.Context, t Task) (Task, error) {
	return scanTask(r.pool.QueryRow(ctx, `
		INSERT INTO fos_tasks (title, description, priority, status, client_id, assigned_to, due_date, source, source_reference_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING `+taskColumns+`
	`, t.Title, t.Description, t.Priority, t.Status, t.ClientID, t.AssignedTo,
		t.DueDate, t.Source, t.SourceReferenceID))
}

// GetByID returns a single task.
func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (Task, error) {
	return scanTask(r.pool.QueryRow(ctx, `
		SELECT `+taskColumns+` FROM fos_tasks WHERE id = $1
	`, id))
}

// UpdateStatus transitions a task and returns the previous status.
func (r *Repository) UpdateStatus(ctx context.Context, id uuid.UUID, status string) (string, error) {
	var oldStatus string
	err := r.pool.QueryRow(ctx, `
		UPDATE fos_tasks t SET status = $2, updated_at = now()
		FROM (SELECT status FROM fos_tasks WHERE id = $1 FOR UPDATE) old
		WHERE t.id = $1
		RETURNING old.status
	`, id, status).Scan(&oldStatus)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", ErrTaskNotFound
	}
	return oldStatus, err
}

// List returns tasks filtered by status and client, newest first.
func (r *Repository) List(ctx context.Context, status string, clientID *uuid.UUID, limit, offset int) ([]Task, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+taskColumns+` FROM fos_tasks
		WHERE ($1 = '' OR status = $1)
		  AND ($2::uuid IS NULL OR client_id = $2)
		ORDER BY created_at DESC
		LIMIT $3 OFFSET $4
	`, status, clientID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tasks []Task
	for rows.Next() {
		var t Task
		if err := rows.Scan(
			&t.ID, &t.Title, &t.Description, &t.Priority, &t.Status, &t.ClientID,
			&t.AssignedTo, &t.DueDate, &t.Source, &t.SourceReferenceID,
			&t.CreatedAt, &t.UpdatedAt,
		); err != nil {
			return nil, err
		}
		tasks = append(tasks, t)
	}
	return tasks, rows.Err()
}
