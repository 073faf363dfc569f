package integration

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/adboardhq/adboard/internal/handlers"
	"github.com/adboardhq/adboard/internal/repositories"
	"github.com/adboardhq/adboard/internal/routes"
	"github.com/adboardhq/adboard/internal/services"
	pkghttp "github.com/adboardhq/adboard/pkg/http"
	pkglogger "github.com/adboardhq/adboard/pkg/logger"
)

// TestApp wires the full application stack against a test database. Requests
// are served directly through the router so tests control the source IP.
type TestApp struct {
	Router chi.Router
}

// NewTestApp builds the router with production wiring minus the transport
// rate limiter config differences.
func NewTestApp(db *TestDB, logger *slog.Logger) *TestApp {
	adminRepo := repositories.NewAdminRepository(db.DB)
	loginAttemptRepo := repositories.NewLoginAttemptRepository(db.DB)
	adRequestRepo := repositories.NewAdRequestRepository(db.DB)

	auditLogger := pkglogger.NewAuditLogger(logger)
	lockoutService := services.NewLockoutService(loginAttemptRepo, services.DefaultLockoutConfig(), logger)
	loginService := services.NewAdminLoginService(adminRepo, lockoutService, logger, auditLogger)
	adRequestService := services.NewAdRequestService(adRequestRepo, services.DefaultAdRequestConfig(), logger)

	ipConfig := &pkghttp.IPConfig{}
	adminHandler := handlers.NewAdminHandler(loginService, ipConfig)
	adRequestHandler := handlers.NewAdRequestHandler(adRequestService, time.Hour, ipConfig, auditLogger)

	router := chi.NewRouter()
	router.Use(chiMiddleware.RequestID)
	router.Use(chiMiddleware.Recoverer)
	routes.RegisterRoutes(router, adminHandler, adRequestHandler, ipConfig)

	return &TestApp{Router: router}
}

// ServeJSON sends a JSON request through the router from the given source IP
// and returns the recorder.
func (app *TestApp) ServeJSON(t *testing.T, method, url, sourceIP string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("failed to encode request body: %v", err)
		}
	}

	req := httptest.NewRequest(method, url, &buf)
	req.Header.Set("Content-Type", "application/json")
	req.RemoteAddr = sourceIP + ":51234"

	recorder := httptest.NewRecorder()
	app.Router.ServeHTTP(recorder, req)
	return recorder
}

// DecodeJSON unmarshals a recorded response body into target.
func DecodeJSON(t *testing.T, recorder *httptest.ResponseRecorder, target interface{}) {
	t.Helper()
	raw, err := io.ReadAll(recorder.Body)
	if err != nil {
		t.Fatalf("failed to read response body: %v", err)
	}
	if err := json.Unmarshal(raw, target); err != nil {
		t.Fatalf("failed to decode response %q: %v", string(raw), err)
	}
}

// UniqueIP hands out distinct source IPs so lockout state never leaks
// between tests.
func UniqueIP(octet int) string {
	return fmt.Sprintf("198.51.100.%d", octet)
}
