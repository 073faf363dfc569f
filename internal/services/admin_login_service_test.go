package services_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/adboardhq/adboard/internal/models"
	"github.com/adboardhq/adboard/internal/services"
	pkgauth "github.com/adboardhq/adboard/pkg/auth"
	pkglogger "github.com/adboardhq/adboard/pkg/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newLoginService(admins *services.FakeAdminStore, attempts *services.FakeLoginAttemptStore) *services.AdminLoginService {
	logger := newTestLogger()
	lockout := services.NewLockoutService(attempts, services.DefaultLockoutConfig(), logger)
	return services.NewAdminLoginService(admins, lockout, logger, pkglogger.NewAuditLogger(logger))
}

func seedAdmin(admins *services.FakeAdminStore, name, password string) {
	admins.Admins[name] = &models.Admin{
		ID:        "admin-1",
		AdminName: name,
		Password:  password,
	}
}

func TestLogin_Success(t *testing.T) {
	admins := services.NewFakeAdminStore()
	attempts := services.NewFakeLoginAttemptStore()
	seedAdmin(admins, "root", "correct-horse")
	service := newLoginService(admins, attempts)

	res, err := service.Login(context.Background(), "root", "correct-horse", "1.2.3.4")
	require.NoError(t, err)

	assert.True(t, res.Success)
	require.NotNil(t, res.Admin)
	assert.Equal(t, "admin-1", res.Admin.ID)
	assert.Equal(t, "root", res.Admin.AdminName)
}

func TestLogin_SuccessResetsFailureHistory(t *testing.T) {
	admins := services.NewFakeAdminStore()
	attempts := services.NewFakeLoginAttemptStore()
	seedAdmin(admins, "root", "correct-horse")
	service := newLoginService(admins, attempts)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		attempts.SeedFailure("1.2.3.4", "root", time.Now())
	}

	res, err := service.Login(ctx, "root", "correct-horse", "1.2.3.4")
	require.NoError(t, err)
	require.True(t, res.Success)

	status, err := service.CheckBlocked(ctx, "1.2.3.4")
	require.NoError(t, err)
	assert.Equal(t, 0, status.FailedAttempts)
	assert.False(t, status.IsBlocked)
}

func TestLogin_BcryptStoredCredential(t *testing.T) {
	admins := services.NewFakeAdminStore()
	attempts := services.NewFakeLoginAttemptStore()
	hash, err := pkgauth.HashCredential("correct-horse")
	require.NoError(t, err)
	seedAdmin(admins, "root", hash)
	service := newLoginService(admins, attempts)

	res, err := service.Login(context.Background(), "root", "correct-horse", "1.2.3.4")
	require.NoError(t, err)
	assert.True(t, res.Success)
}

func TestLogin_InvalidPassword_RemainingAttempts(t *testing.T) {
	admins := services.NewFakeAdminStore()
	attempts := services.NewFakeLoginAttemptStore()
	seedAdmin(admins, "root", "correct-horse")
	service := newLoginService(admins, attempts)

	res, err := service.Login(context.Background(), "root", "wrong", "1.2.3.4")
	require.NoError(t, err)

	assert.False(t, res.Success)
	assert.False(t, res.Blocked)
	// The just-recorded failure is included in the count.
	assert.Equal(t, 1, res.FailedAttempts)
	assert.Equal(t, 4, res.RemainingAttempts)
}

func TestLogin_UnknownAdmin_CountsAsFailure(t *testing.T) {
	admins := services.NewFakeAdminStore()
	attempts := services.NewFakeLoginAttemptStore()
	service := newLoginService(admins, attempts)

	res, err := service.Login(context.Background(), "nobody", "whatever", "1.2.3.4")
	require.NoError(t, err)

	assert.False(t, res.Success)
	assert.Equal(t, 1, res.FailedAttempts)
	assert.Equal(t, 1, attempts.Len())
}

func TestLogin_FifthFailureReportsExhaustedAttempts(t *testing.T) {
	admins := services.NewFakeAdminStore()
	attempts := services.NewFakeLoginAttemptStore()
	seedAdmin(admins, "root", "correct-horse")
	service := newLoginService(admins, attempts)
	ctx := context.Background()

	for i := 0; i < 4; i++ {
		attempts.SeedFailure("1.2.3.4", "root", time.Now().Add(-10*time.Minute))
	}

	res, err := service.Login(ctx, "root", "wrong", "1.2.3.4")
	require.NoError(t, err)

	assert.False(t, res.Success)
	assert.Equal(t, 5, res.FailedAttempts)
	assert.Equal(t, 0, res.RemainingAttempts)
}

func TestLogin_BlockedIPShortCircuits(t *testing.T) {
	admins := services.NewFakeAdminStore()
	attempts := services.NewFakeLoginAttemptStore()
	seedAdmin(admins, "root", "correct-horse")
	service := newLoginService(admins, attempts)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		attempts.SeedFailure("1.2.3.4", "root", time.Now().Add(-5*time.Minute))
	}
	rowsBefore := attempts.Len()

	// Even the correct password is rejected while the IP is locked out.
	res, err := service.Login(ctx, "root", "correct-horse", "1.2.3.4")
	require.NoError(t, err)

	assert.True(t, res.Blocked)
	assert.False(t, res.Success)
	assert.Equal(t, rowsBefore, attempts.Len(), "blocked attempt must not be recorded")
	assert.Equal(t, 0, admins.Lookups, "blocked attempt must not touch the credential table")
}

func TestLogin_BlockExpiresWithWindow(t *testing.T) {
	admins := services.NewFakeAdminStore()
	attempts := services.NewFakeLoginAttemptStore()
	seedAdmin(admins, "root", "correct-horse")
	service := newLoginService(admins, attempts)

	for i := 0; i < 5; i++ {
		attempts.SeedFailure("1.2.3.4", "root", time.Now().Add(-46*time.Minute))
	}

	res, err := service.Login(context.Background(), "root", "correct-horse", "1.2.3.4")
	require.NoError(t, err)
	assert.True(t, res.Success)
}

func TestLogin_StoreOutageIsServerErrorNotBadPassword(t *testing.T) {
	admins := services.NewFakeAdminStore()
	admins.GetErr = errors.New("connection refused")
	attempts := services.NewFakeLoginAttemptStore()
	service := newLoginService(admins, attempts)

	_, err := service.Login(context.Background(), "root", "correct-horse", "1.2.3.4")
	assert.ErrorIs(t, err, models.ErrInternalServer)
}

func TestLogin_BlockCheckFailureFailsOpen(t *testing.T) {
	admins := services.NewFakeAdminStore()
	attempts := services.NewFakeLoginAttemptStore()
	attempts.CountErr = errors.New("connection refused")
	seedAdmin(admins, "root", "correct-horse")
	service := newLoginService(admins, attempts)

	res, err := service.Login(context.Background(), "root", "correct-horse", "1.2.3.4")
	require.NoError(t, err)
	assert.True(t, res.Success, "a store hiccup on the pre-check must not lock out legitimate admins")
}

func TestLogin_FailedRecountIsServerErrorNotFreshBudget(t *testing.T) {
	admins := services.NewFakeAdminStore()
	attempts := services.NewFakeLoginAttemptStore()
	seedAdmin(admins, "root", "correct-horse")
	service := newLoginService(admins, attempts)

	// Counting works for the pre-check, then breaks before the recount.
	attempts.CountErrAfter = 1

	_, err := service.Login(context.Background(), "root", "wrong", "1.2.3.4")
	assert.ErrorIs(t, err, models.ErrInternalServer,
		"a failed recount must not advertise a full remaining-attempt budget")
}

func TestCheckBlocked_ReportsStanding(t *testing.T) {
	admins := services.NewFakeAdminStore()
	attempts := services.NewFakeLoginAttemptStore()
	service := newLoginService(admins, attempts)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		attempts.SeedFailure("1.2.3.4", "root", time.Now())
	}

	status, err := service.CheckBlocked(ctx, "1.2.3.4")
	require.NoError(t, err)

	assert.False(t, status.IsBlocked)
	assert.Equal(t, 2, status.FailedAttempts)
	assert.Equal(t, 3, status.RemainingAttempts)
}

func TestCheckBlocked_PropagatesStoreError(t *testing.T) {
	admins := services.NewFakeAdminStore()
	attempts := services.NewFakeLoginAttemptStore()
	attempts.CountErr = errors.New("connection refused")
	service := newLoginService(admins, attempts)

	_, err := service.CheckBlocked(context.Background(), "1.2.3.4")
	assert.Error(t, err)
}

func TestLogin_LockoutScenario(t *testing.T) {
	// 4 failures, a 5th failure reports exhaustion, a 6th attempt
	// short-circuits without recording a row.
	admins := services.NewFakeAdminStore()
	attempts := services.NewFakeLoginAttemptStore()
	seedAdmin(admins, "root", "correct-horse")
	service := newLoginService(admins, attempts)
	ctx := context.Background()

	for i := 0; i < 4; i++ {
		res, err := service.Login(ctx, "root", "wrong", "1.2.3.4")
		require.NoError(t, err)
		assert.False(t, res.Blocked)
		assert.Equal(t, 5-(i+1), res.RemainingAttempts)
	}

	res, err := service.Login(ctx, "root", "wrong", "1.2.3.4")
	require.NoError(t, err)
	assert.Equal(t, 0, res.RemainingAttempts)
	assert.Equal(t, 5, attempts.Len())

	lookupsBefore := admins.Lookups
	res, err = service.Login(ctx, "root", "correct-horse", "1.2.3.4")
	require.NoError(t, err)
	assert.True(t, res.Blocked)
	assert.Equal(t, 5, attempts.Len())
	assert.Equal(t, lookupsBefore, admins.Lookups)
}
