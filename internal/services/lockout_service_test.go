package services_test

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/adboardhq/adboard/internal/services"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(os.Stdout, nil))
}

func TestLockoutService_NotBlockedBelowThreshold(t *testing.T) {
	store := services.NewFakeLoginAttemptStore()
	service := services.NewLockoutService(store, services.DefaultLockoutConfig(), newTestLogger())
	ctx := context.Background()

	for i := 0; i < 4; i++ {
		store.SeedFailure("1.2.3.4", "admin", time.Now().Add(-time.Duration(i)*time.Minute))
	}

	blocked, err := service.IsBlocked(ctx, "1.2.3.4")
	require.NoError(t, err)
	assert.False(t, blocked)

	count, err := service.CountRecentFailures(ctx, "1.2.3.4")
	require.NoError(t, err)
	assert.Equal(t, 4, count)
}

func TestLockoutService_BlockedAtThreshold(t *testing.T) {
	store := services.NewFakeLoginAttemptStore()
	service := services.NewLockoutService(store, services.DefaultLockoutConfig(), newTestLogger())
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		store.SeedFailure("1.2.3.4", "admin", time.Now().Add(-2*time.Minute))
	}

	blocked, err := service.IsBlocked(ctx, "1.2.3.4")
	require.NoError(t, err)
	assert.True(t, blocked)
}

func TestLockoutService_FailuresOutsideWindowIgnored(t *testing.T) {
	store := services.NewFakeLoginAttemptStore()
	service := services.NewLockoutService(store, services.DefaultLockoutConfig(), newTestLogger())
	ctx := context.Background()

	// Five old failures, one fresh: only the fresh one counts.
	for i := 0; i < 5; i++ {
		store.SeedFailure("1.2.3.4", "admin", time.Now().Add(-46*time.Minute))
	}
	store.SeedFailure("1.2.3.4", "admin", time.Now().Add(-1*time.Minute))

	count, err := service.CountRecentFailures(ctx, "1.2.3.4")
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	blocked, err := service.IsBlocked(ctx, "1.2.3.4")
	require.NoError(t, err)
	assert.False(t, blocked, "block must expire once failures age out of the window")
}

func TestLockoutService_KeysAreIndependentPerIP(t *testing.T) {
	store := services.NewFakeLoginAttemptStore()
	service := services.NewLockoutService(store, services.DefaultLockoutConfig(), newTestLogger())
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		store.SeedFailure("1.2.3.4", "admin", time.Now())
	}

	blocked, err := service.IsBlocked(ctx, "5.6.7.8")
	require.NoError(t, err)
	assert.False(t, blocked)
}

func TestLockoutService_ResetClearsHistory(t *testing.T) {
	store := services.NewFakeLoginAttemptStore()
	service := services.NewLockoutService(store, services.DefaultLockoutConfig(), newTestLogger())
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		store.SeedFailure("1.2.3.4", "admin", time.Now())
	}

	require.NoError(t, service.Reset(ctx, "1.2.3.4"))

	count, err := service.CountRecentFailures(ctx, "1.2.3.4")
	require.NoError(t, err)
	assert.Equal(t, 0, count)

	blocked, err := service.IsBlocked(ctx, "1.2.3.4")
	require.NoError(t, err)
	assert.False(t, blocked)
}

func TestLockoutService_SuccessfulAttemptsDoNotCount(t *testing.T) {
	store := services.NewFakeLoginAttemptStore()
	service := services.NewLockoutService(store, services.DefaultLockoutConfig(), newTestLogger())
	ctx := context.Background()

	for i := 0; i < 6; i++ {
		require.NoError(t, service.RecordAttempt(ctx, "1.2.3.4", "admin", true))
	}

	count, err := service.CountRecentFailures(ctx, "1.2.3.4")
	require.NoError(t, err)
	assert.Equal(t, 0, count)
}

func TestLockoutService_CountPropagatesStoreError(t *testing.T) {
	store := services.NewFakeLoginAttemptStore()
	store.CountErr = errors.New("connection refused")
	service := services.NewLockoutService(store, services.DefaultLockoutConfig(), newTestLogger())

	_, err := service.CountRecentFailures(context.Background(), "1.2.3.4")
	assert.Error(t, err, "callers must be able to tell a failed query from zero rows")
}

func TestLockoutService_CustomThreshold(t *testing.T) {
	store := services.NewFakeLoginAttemptStore()
	config := services.LockoutConfig{MaxFailedAttempts: 2, Window: 10 * time.Minute}
	service := services.NewLockoutService(store, config, newTestLogger())
	ctx := context.Background()

	store.SeedFailure("1.2.3.4", "admin", time.Now())
	blocked, err := service.IsBlocked(ctx, "1.2.3.4")
	require.NoError(t, err)
	assert.False(t, blocked)

	store.SeedFailure("1.2.3.4", "admin", time.Now())
	blocked, err = service.IsBlocked(ctx, "1.2.3.4")
	require.NoError(t, err)
	assert.True(t, blocked)
}
