package repositories

import (
	"context"
	"fmt"
	"time"

	"github.com/adboardhq/adboard/internal/database"
	"github.com/adboardhq/adboard/internal/models"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// AdRequestRepository handles database operations for advertisement requests.
type AdRequestRepository struct {
	pool *pgxpool.Pool
}

func NewAdRequestRepository(db *database.DB) *AdRequestRepository {
	return &AdRequestRepository{pool: db.Pool}
}

func scanAdRequestRow(row pgx.Row) (*models.AdvertisementRequest, error) {
	var req models.AdvertisementRequest
	err := row.Scan(
		&req.ID, &req.Email, &req.Description, &req.Budget,
		&req.UserIP, &req.CreatedAt, &req.UpdatedAt,
	)
	if err != nil {
		return nil, database.MapPostgresError(err)
	}
	return &req, nil
}

// Create inserts a new advertisement request and returns the stored row.
func (r *AdRequestRepository) Create(ctx context.Context, req *models.AdvertisementRequest) (*models.AdvertisementRequest, error) {
	req.ID = uuid.New().String()

	now := time.Now()
	req.CreatedAt = now
	req.UpdatedAt = now

	query := `
		INSERT INTO advertisement_requests (id, email, description, budget, user_ip, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, email, description, budget, user_ip, created_at, updated_at
	`

	return scanAdRequestRow(r.pool.QueryRow(ctx, query,
		req.ID, req.Email, req.Description, req.Budget,
		req.UserIP, req.CreatedAt, req.UpdatedAt,
	))
}

// List returns all advertisement requests, most recent first.
func (r *AdRequestRepository) List(ctx context.Context) ([]*models.AdvertisementRequest, error) {
	query := `
		SELECT id, email, description, budget, user_ip, created_at, updated_at
		FROM advertisement_requests ORDER BY created_at DESC
	`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query advertisement requests: %w", err)
	}
	defer rows.Close()

	requests := make([]*models.AdvertisementRequest, 0)
	for rows.Next() {
		req, err := scanAdRequestRow(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan advertisement request: %w", err)
		}
		requests = append(requests, req)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	return requests, nil
}

// Delete removes an advertisement request by id. Deleting an id that does
// not exist is not an error; the operation is idempotent.
func (r *AdRequestRepository) Delete(ctx context.Context, id string) error {
	query := `DELETE FROM advertisement_requests WHERE id = $1`

	_, err := r.pool.Exec(ctx, query, id)
	if err != nil {
		return database.MapPostgresError(err)
	}
	return nil
}

// HasRecentRequest reports whether any request from the IP was created at or
// after since.
func (r *AdRequestRepository) HasRecentRequest(ctx context.Context, userIP string, since time.Time) (bool, error) {
	query := `
		SELECT EXISTS (
			SELECT 1 FROM advertisement_requests
			WHERE user_ip = $1 AND created_at >= $2
		)
	`

	var exists bool
	err := r.pool.QueryRow(ctx, query, userIP, since).Scan(&exists)
	return exists, err
}
