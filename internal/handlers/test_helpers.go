package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/adboardhq/adboard/internal/models"
	"github.com/adboardhq/adboard/internal/services"
	pkghttp "github.com/adboardhq/adboard/pkg/http"
	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
)

// NewTestRequest creates an HTTP request with a JSON body for testing.
func NewTestRequest(t *testing.T, method, url string, body interface{}) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("failed to encode request body: %v", err)
		}
	}
	req := httptest.NewRequest(method, url, &buf)
	req.Header.Set("Content-Type", "application/json")
	return req
}

// AssertJSONResponse checks the status code and decodes the JSON body into
// target.
func AssertJSONResponse(t *testing.T, w *httptest.ResponseRecorder, expectedStatus int, target interface{}) {
	t.Helper()
	assert.Equal(t, expectedStatus, w.Code, "response status mismatch")
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))

	if target != nil {
		err := json.Unmarshal(w.Body.Bytes(), target)
		assert.NoError(t, err, "failed to decode response JSON")
	}
}

// AssertErrorResponse checks the status code and the error message body.
func AssertErrorResponse(t *testing.T, w *httptest.ResponseRecorder, expectedStatus int, expectedError string) {
	t.Helper()
	assert.Equal(t, expectedStatus, w.Code, "response status mismatch")

	var resp pkghttp.ErrorResponse
	err := json.Unmarshal(w.Body.Bytes(), &resp)
	assert.NoError(t, err, "failed to decode error response")
	assert.Equal(t, expectedError, resp.Error)
}

// WithChiRouteContext adds chi URL parameters to the request context so
// handlers can be tested without mounting a router.
func WithChiRouteContext(r *http.Request, params map[string]string) *http.Request {
	rctx := chi.NewRouteContext()
	for key, value := range params {
		rctx.URLParams.Add(key, value)
	}
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

// MockAdminLoginService implements AdminLoginServiceInterface for testing.
type MockAdminLoginService struct {
	LoginFunc        func(ctx context.Context, username, password, ipAddress string) (*services.LoginResult, error)
	CheckBlockedFunc func(ctx context.Context, ipAddress string) (*services.BlockStatus, error)
}

func (m *MockAdminLoginService) Login(ctx context.Context, username, password, ipAddress string) (*services.LoginResult, error) {
	if m.LoginFunc == nil {
		return &services.LoginResult{RemainingAttempts: 4, FailedAttempts: 1}, nil
	}
	return m.LoginFunc(ctx, username, password, ipAddress)
}

func (m *MockAdminLoginService) CheckBlocked(ctx context.Context, ipAddress string) (*services.BlockStatus, error) {
	if m.CheckBlockedFunc == nil {
		return &services.BlockStatus{RemainingAttempts: 5}, nil
	}
	return m.CheckBlockedFunc(ctx, ipAddress)
}

// MockAdRequestService implements AdRequestServiceInterface for testing.
type MockAdRequestService struct {
	CreateFunc           func(ctx context.Context, input services.CreateAdRequestInput) (*models.AdvertisementRequest, error)
	ListFunc             func(ctx context.Context) ([]*models.AdvertisementRequest, error)
	DeleteFunc           func(ctx context.Context, id string) error
	HasRecentRequestFunc func(ctx context.Context, userIP string, since time.Time) (bool, error)
}

func (m *MockAdRequestService) Create(ctx context.Context, input services.CreateAdRequestInput) (*models.AdvertisementRequest, error) {
	if m.CreateFunc == nil {
		return nil, models.ErrInternalServer
	}
	return m.CreateFunc(ctx, input)
}

func (m *MockAdRequestService) List(ctx context.Context) ([]*models.AdvertisementRequest, error) {
	if m.ListFunc == nil {
		return []*models.AdvertisementRequest{}, nil
	}
	return m.ListFunc(ctx)
}

func (m *MockAdRequestService) Delete(ctx context.Context, id string) error {
	if m.DeleteFunc == nil {
		return nil
	}
	return m.DeleteFunc(ctx, id)
}

func (m *MockAdRequestService) HasRecentRequest(ctx context.Context, userIP string, since time.Time) (bool, error) {
	if m.HasRecentRequestFunc == nil {
		return false, nil
	}
	return m.HasRecentRequestFunc(ctx, userIP, since)
}
