// Package clients provides the client directory bounded context.
// It stores firm clients and resolves inbound caller numbers to client records.
package clients

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var ErrClientNotFound = errors.New("client not found")

// Client represents a firm client.
type Client struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	CompanyName string    `json:"companyName,omitempty"`
	Email       string    `json:"email,omitempty"`
	Phone       string    `json:"phone,omitempty"`
	AltPhone    string    `json:"altPhone,omitempty"`
	Status      string    `json:"status"`
	Notes       string    `json:"notes,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

const clientColumns = `id, name, company_name, email, phone, alt_phone, status, notes, created_at, updated_at`

// Repository provides data access for clients.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a new clients repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

func scanClient(row pgx.Row) (Client, error) {
	var c Client
	err := row.Scan(
		&c.ID, &c.Name, &c.CompanyName, &c.Email, &c.Phone, &c.AltPhone,
		&c.Status, &c.Notes, &c.CreatedAt, &c.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return Client{}, ErrClientNotFound
	}
	return c, err
}

// Create inserts a new client record.
func (r *Repository) Create(ctx context.Context, c Client) (Client, error) {
	return scanClient(r.pool.QueryRow(ctx, `
		INSERT INTO fos_clients (name, company_name, email, phone, alt_phone, status, notes)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING `+clientColumns+`
	`, c.Name, c.CompanyName, c.Email, c.Phone, c.AltPhone, c.Status, c.Notes))
}

// GetByID returns a single client.
func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (Client, error) {
	return scanClient(r.pool.QueryRow(ctx, `
		SELECT `+clientColumns+` FROM fos_clients WHERE id = $1
	`, id))
}

// Update patches mutable fields of a client.
func (r *Repository) Update(ctx context.Context, c Client) (Client, error) {
	return scanClient(r.pool.QueryRow(ctx, `
		UPDATE fos_clients
		SET name = $2, company_name = $3, email = $4, phone = $5, alt_phone = $6,
		    status = $7, notes = $8, updated_at = now()
		WHERE id = $1
		RETURNING `+clientColumns+`
	`, c.ID, c.Name, c.CompanyName, c.Email, c.Phone, c.AltPhone, c.Status, c.Notes))
}

// List returns clients ordered by name.
func (r *Repository) List(ctx context.Context, limit, offset int) ([]Client, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+clientColumns+` FROM fos_clients
		ORDER BY name
		LIMIT $1 OFFSET $2
	`, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var clients []Client
	for rows.Next() {
		var c Client
		if err := rows.Scan(
			&c.ID, &c.Name, &c.CompanyName, &c.Email, &c.Phone, &c.AltPhone,
			&c.Status, &c.Notes, &c.CreatedAt, &c.UpdatedAt,
		); err != nil {
			return nil, err
		}
		clients = append(clients, c)
	}
	return clients, rows.Err()
}

// FindByPhoneDigits matches a client by stored phone or alt phone. Exact
// digit matches rank before 10-digit suffix matches so a full-number hit
// always wins. Stored numbers shorter than the minimum digit count never
// match.
func (r *Repository) FindByPhoneDigits(ctx context.Context, digits, suffix string, minDigits int) (Client, error) {
	return scanClient(r.pool.QueryRow(ctx, `
		WITH normalized AS (
			SELECT `+clientColumns+`,
				regexp_replace(coalesce(phone, ''), '\D', '', 'g') AS phone_digits,
				regexp_replace(coalesce(alt_phone, ''), '\D', '', 'g') AS alt_digits
			FROM fos_clients
		)
		SELECT `+clientColumns+` FROM normalized
		WHERE (length(phone_digits) >= $3 AND (phone_digits = $1 OR right(phone_digits, 10) = $2))
		   OR (length(alt_digits) >= $3 AND (alt_digits = $1 OR right(alt_digits, 10) = $2))
		ORDER BY (phone_digits = $1 OR alt_digits = $1) DESC, created_at
		LIMIT 1
	`, digits, suffix, minDigits))
}
