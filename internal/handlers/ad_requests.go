package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/adboardhq/adboard/internal/models"
	"github.com/adboardhq/adboard/internal/services"
	pkghttp "github.com/adboardhq/adboard/pkg/http"
	pkglogger "github.com/adboardhq/adboard/pkg/logger"
	"github.com/go-chi/chi/v5"
)

// AdRequestServiceInterface defines the advertisement-request business logic
// the handler depends on.
type AdRequestServiceInterface interface {
	Create(ctx context.Context, input services.CreateAdRequestInput) (*models.AdvertisementRequest, error)
	List(ctx context.Context) ([]*models.AdvertisementRequest, error)
	Delete(ctx context.Context, id string) error
	HasRecentRequest(ctx context.Context, userIP string, since time.Time) (bool, error)
}

// AdRequestHandler handles advertisement-request HTTP requests.
type AdRequestHandler struct {
	service  AdRequestServiceInterface
	window   time.Duration
	ipConfig *pkghttp.IPConfig
	audit    *pkglogger.AuditLogger
}

func NewAdRequestHandler(service AdRequestServiceInterface, window time.Duration, ipConfig *pkghttp.IPConfig, audit *pkglogger.AuditLogger) *AdRequestHandler {
	return &AdRequestHandler{
		service:  service,
		window:   window,
		ipConfig: ipConfig,
		audit:    audit,
	}
}

// CreateAdRequestRequest represents the request body for a new submission.
type CreateAdRequestRequest struct {
	Email       string  `json:"email" validate:"required,email"`
	Description string  `json:"description" validate:"required"`
	Budget      float64 `json:"budget" validate:"required"`
	UserIP      string  `json:"userIP"`
}

// DeleteResponse acknowledges a deletion.
type DeleteResponse struct {
	Success bool `json:"success"`
}

// CheckRecentRequest represents the body for a recent-request probe.
type CheckRecentRequest struct {
	UserIP string `json:"userIP"`
	Since  string `json:"since"`
}

// CheckRecentResponse reports whether the IP already submitted inside the
// window.
type CheckRecentResponse struct {
	HasRecentRequest bool `json:"hasRecentRequest"`
}

// Create handles POST /api/advertisement-requests.
func (h *AdRequestHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateAdRequestRequest

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		pkghttp.WriteBadRequest(w, "Invalid request body")
		return
	}

	if err := ValidateRequest(req); err != nil {
		pkghttp.WriteBadRequest(w, "Missing required fields")
		return
	}

	// The body may carry the submitter's IP from an upstream form relay;
	// otherwise fall back to the connection's client IP.
	userIP := req.UserIP
	if userIP == "" {
		userIP = pkghttp.ExtractClientIP(r, h.ipConfig)
	}

	created, err := h.service.Create(r.Context(), services.CreateAdRequestInput{
		Email:       req.Email,
		Description: req.Description,
		Budget:      req.Budget,
		UserIP:      userIP,
	})
	if err != nil {
		switch {
		case errors.Is(err, models.ErrBadRequest):
			pkghttp.WriteBadRequest(w, "Missing required fields")
		case errors.Is(err, models.ErrBudgetTooLow):
			pkghttp.WriteBadRequest(w, "Minimum budget is ₹5,000")
		case errors.Is(err, models.ErrBudgetTooHigh):
			pkghttp.WriteBadRequest(w, "Maximum budget is ₹10,00,00,000")
		case errors.Is(err, models.ErrRateLimitExceeded):
			pkghttp.WriteTooManyRequests(w, "You can only make one advertisement request every hour. Please try again later.")
		default:
			pkghttp.WriteInternalError(w, "Failed to create advertisement request")
		}
		return
	}

	pkghttp.WriteJSON(w, http.StatusCreated, created)
}

// List handles GET /api/advertisement-requests.
func (h *AdRequestHandler) List(w http.ResponseWriter, r *http.Request) {
	requests, err := h.service.List(r.Context())
	if err != nil {
		pkghttp.WriteInternalError(w, "Failed to fetch advertisement requests")
		return
	}

	if requests == nil {
		requests = []*models.AdvertisementRequest{}
	}
	pkghttp.WriteJSON(w, http.StatusOK, requests)
}

// Delete handles DELETE /api/advertisement-requests/{id}. Deleting an id
// that is already gone still reports success.
func (h *AdRequestHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		pkghttp.WriteBadRequest(w, "Missing request id")
		return
	}

	if err := h.service.Delete(r.Context(), id); err != nil {
		pkghttp.WriteInternalError(w, "Failed to delete advertisement request")
		return
	}

	h.audit.LogAdminAction("ad_request_deleted", pkghttp.ExtractClientIP(r, h.ipConfig),
		map[string]string{"request_id": id})

	pkghttp.WriteJSON(w, http.StatusOK, DeleteResponse{Success: true})
}

// CheckRecent handles POST /api/check-recent-ad-request. The cutoff defaults
// to one submission window ago when the body omits it.
func (h *AdRequestHandler) CheckRecent(w http.ResponseWriter, r *http.Request) {
	var req CheckRecentRequest

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		pkghttp.WriteBadRequest(w, "Invalid request body")
		return
	}

	userIP := req.UserIP
	if userIP == "" {
		userIP = pkghttp.ExtractClientIP(r, h.ipConfig)
	}

	since := time.Now().Add(-h.window)
	if req.Since != "" {
		parsed, err := time.Parse(time.RFC3339, req.Since)
		if err != nil {
			pkghttp.WriteBadRequest(w, "Invalid since timestamp")
			return
		}
		since = parsed
	}

	recent, err := h.service.HasRecentRequest(r.Context(), userIP, since)
	if err != nil {
		pkghttp.WriteInternalError(w, "Failed to check recent requests")
		return
	}

	pkghttp.WriteJSON(w, http.StatusOK, CheckRecentResponse{HasRecentRequest: recent})
}
