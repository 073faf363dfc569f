package integration

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	testDB  *TestDB
	testApp *TestApp
)

func TestMain(m *testing.M) {
	ctx := context.Background()

	db, err := SetupTestDatabase(ctx)
	if err != nil {
		// No Docker available; unit tests still cover the services.
		os.Exit(0)
	}
	testDB = db
	testApp = NewTestApp(db, slog.New(slog.NewTextHandler(io.Discard, nil)))

	code := m.Run()

	db.Teardown(ctx)
	os.Exit(code)
}

func resetTables(t *testing.T) {
	t.Helper()
	require.NoError(t, testDB.CleanupTables(context.Background()))
}

func loginBody(adminName, password string) map[string]string {
	return map[string]string{"username": adminName, "password": password}
}

func TestLoginFlow_SuccessAgainstDatabase(t *testing.T) {
	resetTables(t)
	ctx := context.Background()

	adminName, password := TestAdmin("success")
	_, err := SeedAdmin(ctx, testDB.DB, adminName, password)
	require.NoError(t, err)

	rec := testApp.ServeJSON(t, "POST", "/api/admin/login", UniqueIP(10), loginBody(adminName, password))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp struct {
		Success bool `json:"success"`
		Admin   struct {
			ID        string `json:"id"`
			AdminName string `json:"admin_name"`
		} `json:"admin"`
	}
	DecodeJSON(t, rec, &resp)
	assert.True(t, resp.Success)
	assert.Equal(t, adminName, resp.Admin.AdminName)
	assert.NotEmpty(t, resp.Admin.ID)
}

func TestLoginFlow_FiveFailuresLockTheIP(t *testing.T) {
	resetTables(t)
	ctx := context.Background()

	adminName, password := TestAdmin("lockout")
	_, err := SeedAdmin(ctx, testDB.DB, adminName, password)
	require.NoError(t, err)

	ip := UniqueIP(20)

	for i := 0; i < 4; i++ {
		rec := testApp.ServeJSON(t, "POST", "/api/admin/login", ip, loginBody(adminName, "wrong"))
		require.Equal(t, http.StatusUnauthorized, rec.Code, rec.Body.String())

		var resp struct {
			Error             string `json:"error"`
			RemainingAttempts int    `json:"remainingAttempts"`
		}
		DecodeJSON(t, rec, &resp)
		assert.Equal(t, "Invalid credentials", resp.Error)
		assert.Equal(t, 4-i, resp.RemainingAttempts)
	}

	// Fifth failure exhausts the budget.
	rec := testApp.ServeJSON(t, "POST", "/api/admin/login", ip, loginBody(adminName, "wrong"))
	assert.Equal(t, http.StatusTooManyRequests, rec.Code, rec.Body.String())

	// Even the correct password is rejected now.
	rec = testApp.ServeJSON(t, "POST", "/api/admin/login", ip, loginBody(adminName, password))
	assert.Equal(t, http.StatusTooManyRequests, rec.Code, rec.Body.String())

	// A different IP is unaffected.
	rec = testApp.ServeJSON(t, "POST", "/api/admin/login", UniqueIP(21), loginBody(adminName, password))
	assert.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
}

func TestLoginFlow_BlockExpiresWithWindow(t *testing.T) {
	resetTables(t)
	ctx := context.Background()

	adminName, password := TestAdmin("expiry")
	_, err := SeedAdmin(ctx, testDB.DB, adminName, password)
	require.NoError(t, err)

	ip := UniqueIP(30)
	for i := 0; i < 5; i++ {
		require.NoError(t, SeedLoginFailure(ctx, testDB.Pool, ip, adminName, 46*time.Minute))
	}

	rec := testApp.ServeJSON(t, "POST", "/api/admin/login", ip, loginBody(adminName, password))
	assert.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
}

func TestLoginFlow_SuccessClearsAttemptHistory(t *testing.T) {
	resetTables(t)
	ctx := context.Background()

	adminName, password := TestAdmin("reset")
	_, err := SeedAdmin(ctx, testDB.DB, adminName, password)
	require.NoError(t, err)

	ip := UniqueIP(40)
	for i := 0; i < 3; i++ {
		require.NoError(t, SeedLoginFailure(ctx, testDB.Pool, ip, adminName, time.Minute))
	}

	rec := testApp.ServeJSON(t, "POST", "/api/admin/login", ip, loginBody(adminName, password))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var count int
	err = testDB.Pool.QueryRow(ctx,
		"SELECT COUNT(*) FROM admin_login_attempts WHERE ip_address = $1", ip).Scan(&count)
	require.NoError(t, err)
	assert.Equal(t, 0, count, "successful login must delete the IP's attempt rows")
}

func TestCheckBlockedFlow(t *testing.T) {
	resetTables(t)
	ctx := context.Background()

	ip := UniqueIP(50)
	for i := 0; i < 5; i++ {
		require.NoError(t, SeedLoginFailure(ctx, testDB.Pool, ip, "someone", time.Minute))
	}

	rec := testApp.ServeJSON(t, "POST", "/api/admin/check-blocked", ip, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var status struct {
		IsBlocked         bool `json:"isBlocked"`
		FailedAttempts    int  `json:"failedAttempts"`
		RemainingAttempts int  `json:"remainingAttempts"`
	}
	DecodeJSON(t, rec, &status)
	assert.True(t, status.IsBlocked)
	assert.Equal(t, 5, status.FailedAttempts)
	assert.Equal(t, 0, status.RemainingAttempts)

	rec = testApp.ServeJSON(t, "POST", "/api/admin/check-blocked", UniqueIP(51), nil)
	require.Equal(t, http.StatusOK, rec.Code)
	DecodeJSON(t, rec, &status)
	assert.False(t, status.IsBlocked)
	assert.Equal(t, 5, status.RemainingAttempts)
}
