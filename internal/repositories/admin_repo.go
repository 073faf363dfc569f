package repositories

import (
	"context"
	"time"

	"github.com/adboardhq/adboard/internal/database"
	"github.com/adboardhq/adboard/internal/models"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// AdminRepository handles database operations for admin accounts.
type AdminRepository struct {
	pool *pgxpool.Pool
}

func NewAdminRepository(db *database.DB) *AdminRepository {
	return &AdminRepository{pool: db.Pool}
}

// GetByName returns the admin account for admin_name, or models.ErrNotFound
// when no account matches.
func (r *AdminRepository) GetByName(ctx context.Context, adminName string) (*models.Admin, error) {
	query := `
		SELECT id, admin_name, password, created_at, updated_at
		FROM admin_auth WHERE admin_name = $1
	`

	var admin models.Admin
	err := r.pool.QueryRow(ctx, query, adminName).Scan(
		&admin.ID, &admin.AdminName, &admin.Password,
		&admin.CreatedAt, &admin.UpdatedAt,
	)
	if err != nil {
		return nil, database.MapPostgresError(err)
	}

	return &admin, nil
}

// Create inserts an admin account. Used only by the startup bootstrap;
// accounts are otherwise provisioned directly in the database.
func (r *AdminRepository) Create(ctx context.Context, admin *models.Admin) (*models.Admin, error) {
	admin.ID = uuid.New().String()

	now := time.Now()
	admin.CreatedAt = now
	admin.UpdatedAt = now

	query := `
		INSERT INTO admin_auth (id, admin_name, password, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5)
	`

	_, err := r.pool.Exec(ctx, query,
		admin.ID, admin.AdminName, admin.Password, admin.CreatedAt, admin.UpdatedAt,
	)
	if err != nil {
		return nil, database.MapPostgresError(err)
	}

	return admin, nil
}
