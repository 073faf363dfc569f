package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/adboardhq/adboard/internal/services"
	pkghttp "github.com/adboardhq/adboard/pkg/http"
)

// AdminLoginServiceInterface defines the login business logic the handler
// depends on.
type AdminLoginServiceInterface interface {
	Login(ctx context.Context, username, password, ipAddress string) (*services.LoginResult, error)
	CheckBlocked(ctx context.Context, ipAddress string) (*services.BlockStatus, error)
}

// AdminHandler handles admin authentication HTTP requests.
type AdminHandler struct {
	service  AdminLoginServiceInterface
	ipConfig *pkghttp.IPConfig
}

func NewAdminHandler(service AdminLoginServiceInterface, ipConfig *pkghttp.IPConfig) *AdminHandler {
	return &AdminHandler{
		service:  service,
		ipConfig: ipConfig,
	}
}

// LoginRequest represents the request body for admin login.
type LoginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// LoginSuccessResponse is returned when the credentials check out.
type LoginSuccessResponse struct {
	Success bool                   `json:"success"`
	Message string                 `json:"message"`
	Admin   *services.AdminSummary `json:"admin"`
}

// LoginFailureResponse is returned for invalid credentials, carrying the
// number of attempts left before the IP is locked out.
type LoginFailureResponse struct {
	Error             string `json:"error"`
	RemainingAttempts int    `json:"remainingAttempts"`
}

// Login handles POST /api/admin/login.
func (h *AdminHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		pkghttp.WriteBadRequest(w, "Invalid request body")
		return
	}

	if err := ValidateRequest(req); err != nil {
		pkghttp.WriteBadRequest(w, "Username and password are required")
		return
	}

	req.Username = strings.TrimSpace(req.Username)
	ipAddress := pkghttp.ExtractClientIP(r, h.ipConfig)

	res, err := h.service.Login(r.Context(), req.Username, req.Password, ipAddress)
	if err != nil {
		// Only store failures surface here; business outcomes come back in res.
		pkghttp.WriteInternalError(w, "Internal server error during login")
		return
	}

	if res.Blocked {
		pkghttp.WriteTooManyRequests(w, "Too many failed login attempts. Please try again after 45 minutes.")
		return
	}

	if res.Success {
		pkghttp.WriteJSON(w, http.StatusOK, LoginSuccessResponse{
			Success: true,
			Message: "Login successful",
			Admin:   res.Admin,
		})
		return
	}

	if res.RemainingAttempts <= 0 {
		pkghttp.WriteTooManyRequests(w, "Too many failed login attempts. IP blocked for 45 minutes.")
		return
	}

	pkghttp.WriteJSON(w, http.StatusUnauthorized, LoginFailureResponse{
		Error:             "Invalid credentials",
		RemainingAttempts: res.RemainingAttempts,
	})
}

// CheckBlocked handles POST /api/admin/check-blocked. The IP checked is the
// caller's own, as seen through the trusted-proxy chain.
func (h *AdminHandler) CheckBlocked(w http.ResponseWriter, r *http.Request) {
	ipAddress := pkghttp.ExtractClientIP(r, h.ipConfig)

	status, err := h.service.CheckBlocked(r.Context(), ipAddress)
	if err != nil {
		pkghttp.WriteInternalError(w, "Failed to check blocked status")
		return
	}

	pkghttp.WriteJSON(w, http.StatusOK, status)
}
