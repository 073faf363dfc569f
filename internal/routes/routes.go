package routes

import (
	"github.com/adboardhq/adboard/internal/handlers"
	"github.com/adboardhq/adboard/internal/middleware"
	pkghttp "github.com/adboardhq/adboard/pkg/http"
	"github.com/go-chi/chi/v5"
)

// RegisterRoutes registers all application routes under /api.
func RegisterRoutes(
	router chi.Router,
	adminHandler *handlers.AdminHandler,
	adRequestHandler *handlers.AdRequestHandler,
	ipConfig *pkghttp.IPConfig,
) {
	loginRateLimit := middleware.DefaultLoginRateLimit()

	router.Route("/api", func(r chi.Router) {
		// Transport-level cap in front of the sliding-window lockout.
		r.With(middleware.RateLimitByIP(loginRateLimit, ipConfig)).Post("/admin/login", adminHandler.Login)
		r.Post("/admin/check-blocked", adminHandler.CheckBlocked)

		r.Get("/advertisement-requests", adRequestHandler.List)
		r.Post("/advertisement-requests", adRequestHandler.Create)
		r.Delete("/advertisement-requests/{id}", adRequestHandler.Delete)

		r.Post("/check-recent-ad-request", adRequestHandler.CheckRecent)
	})
}
