package repositories

import (
	"context"
	"time"

	"github.com/adboardhq/adboard/internal/database"
	"github.com/adboardhq/adboard/internal/models"
	"github.com/jackc/pgx/v5/pgxpool"
)

// LoginAttemptRepository handles database operations for admin login attempts.
type LoginAttemptRepository struct {
	pool *pgxpool.Pool
}

func NewLoginAttemptRepository(db *database.DB) *LoginAttemptRepository {
	return &LoginAttemptRepository{pool: db.Pool}
}

// RecordAttempt appends a login attempt row. The id and attempt_time columns
// default in the database.
func (r *LoginAttemptRepository) RecordAttempt(ctx context.Context, attempt *models.LoginAttempt) error {
	query := `
		INSERT INTO admin_login_attempts (ip_address, admin_name, is_successful)
		VALUES ($1, $2, $3)
	`

	_, err := r.pool.Exec(ctx, query,
		attempt.IPAddress,
		attempt.AdminName,
		attempt.IsSuccessful,
	)

	return err
}

// CountFailedAttempts returns the number of failed attempts from an IP with
// attempt_time at or after since.
func (r *LoginAttemptRepository) CountFailedAttempts(ctx context.Context, ipAddress string, since time.Time) (int, error) {
	query := `
		SELECT COUNT(*) FROM admin_login_attempts
		WHERE ip_address = $1 AND is_successful = false AND attempt_time >= $2
	`

	var count int
	err := r.pool.QueryRow(ctx, query, ipAddress, since).Scan(&count)
	return count, err
}

// DeleteByIP removes every attempt row for an IP, clearing its failure streak.
func (r *LoginAttemptRepository) DeleteByIP(ctx context.Context, ipAddress string) error {
	query := `DELETE FROM admin_login_attempts WHERE ip_address = $1`
	_, err := r.pool.Exec(ctx, query, ipAddress)
	return err
}

// DeleteOlderThan purges attempt rows recorded before cutoff. Rows that old
// can no longer influence any lockout decision.
func (r *LoginAttemptRepository) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	query := `DELETE FROM admin_login_attempts WHERE attempt_time < $1`

	result, err := r.pool.Exec(ctx, query, cutoff)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected(), nil
}
