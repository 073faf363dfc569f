package integration

import (
	"context"
	"database/sql"
	"fmt"
	"path/filepath"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	_ "github.com/lib/pq"
	"github.com/pressly/goose/v3"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/adboardhq/adboard/internal/database"
	"github.com/adboardhq/adboard/internal/models"
	"github.com/adboardhq/adboard/internal/repositories"
	pkgauth "github.com/adboardhq/adboard/pkg/auth"
)

// TestDB manages the PostgreSQL testcontainer and database handles.
type TestDB struct {
	Container  testcontainers.Container
	ConnString string
	Pool       *pgxpool.Pool
	DB         *database.DB
}

// SetupTestDatabase starts a PostgreSQL container, runs migrations, and
// returns the handles.
func SetupTestDatabase(ctx context.Context) (*TestDB, error) {
	container, err := postgres.RunContainer(ctx,
		testcontainers.WithImage("postgres:16-alpine"),
		postgres.WithDatabase("adboard"),
		postgres.WithUsername("postgres"),
		postgres.WithPassword("postgres"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to start postgres container: %w", err)
	}

	connStr, err := container.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		container.Terminate(ctx)
		return nil, fmt.Errorf("failed to get connection string: %w", err)
	}

	pool, err := pgxpool.New(ctx, connStr)
	if err != nil {
		container.Terminate(ctx)
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		container.Terminate(ctx)
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	if err := runMigrations(ctx, connStr); err != nil {
		pool.Close()
		container.Terminate(ctx)
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return &TestDB{
		Container:  container,
		ConnString: connStr,
		Pool:       pool,
		DB:         &database.DB{Pool: pool},
	}, nil
}

// runMigrations executes all goose migrations. Goose works over database/sql,
// so the pq driver serves migration duty while the application stays on pgx.
func runMigrations(ctx context.Context, connStr string) error {
	migrationsDir, err := filepath.Abs("../../migrations")
	if err != nil {
		return fmt.Errorf("failed to get migrations path: %w", err)
	}

	sqlDB, err := sql.Open("postgres", connStr)
	if err != nil {
		return fmt.Errorf("failed to open sql connection: %w", err)
	}
	defer sqlDB.Close()

	if err := goose.UpContext(ctx, sqlDB, migrationsDir); err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}
	return nil
}

// Teardown stops the container and closes the connection pool.
func (db *TestDB) Teardown(ctx context.Context) error {
	if db.Pool != nil {
		db.Pool.Close()
	}
	if db.Container != nil {
		return db.Container.Terminate(ctx)
	}
	return nil
}

// CleanupTables truncates all tables for test isolation.
func (db *TestDB) CleanupTables(ctx context.Context) error {
	tables := []string{
		"admin_login_attempts",
		"advertisement_requests",
		"admin_auth",
	}

	for _, table := range tables {
		if _, err := db.Pool.Exec(ctx, fmt.Sprintf("TRUNCATE TABLE %s CASCADE", table)); err != nil {
			return fmt.Errorf("failed to truncate table %s: %w", table, err)
		}
	}
	return nil
}

// SeedAdmin inserts an admin row with a bcrypt-hashed credential.
func SeedAdmin(ctx context.Context, db *database.DB, adminName, password string) (*models.Admin, error) {
	hashed, err := pkgauth.HashCredential(password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash credential: %w", err)
	}

	return repositories.NewAdminRepository(db).Create(ctx, &models.Admin{
		AdminName: adminName,
		Password:  hashed,
	})
}

// SeedLoginFailure inserts a failed login attempt backdated by age.
func SeedLoginFailure(ctx context.Context, pool *pgxpool.Pool, ipAddress, adminName string, age time.Duration) error {
	query := `
		INSERT INTO admin_login_attempts (ip_address, admin_name, attempt_time, is_successful)
		VALUES ($1, $2, NOW() - $3::interval, FALSE)
	`
	_, err := pool.Exec(ctx, query, ipAddress, adminName, age.String())
	if err != nil {
		return fmt.Errorf("failed to insert login attempt: %w", err)
	}
	return nil
}

// BackdateAdRequest shifts a request's created_at into the past so window
// expiry can be tested without sleeping.
func BackdateAdRequest(ctx context.Context, pool *pgxpool.Pool, id string, age time.Duration) error {
	query := `UPDATE advertisement_requests SET created_at = NOW() - $2::interval WHERE id = $1`
	_, err := pool.Exec(ctx, query, id, age.String())
	if err != nil {
		return fmt.Errorf("failed to backdate request: %w", err)
	}
	return nil
}
