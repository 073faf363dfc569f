package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/adboardhq/adboard/internal/background"
	"github.com/adboardhq/adboard/internal/config"
	"github.com/adboardhq/adboard/internal/database"
	"github.com/adboardhq/adboard/internal/handlers"
	middlewareCustom "github.com/adboardhq/adboard/internal/middleware"
	"github.com/adboardhq/adboard/internal/models"
	"github.com/adboardhq/adboard/internal/repositories"
	"github.com/adboardhq/adboard/internal/routes"
	"github.com/adboardhq/adboard/internal/services"
	pkgauth "github.com/adboardhq/adboard/pkg/auth"
	pkghttp "github.com/adboardhq/adboard/pkg/http"
	pkglogger "github.com/adboardhq/adboard/pkg/logger"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	cfg, err := config.Load()
	if err != nil {
		logger.Error("failed to load configuration", slog.Any("error", err))
		os.Exit(1)
	}

	logger.Info("configuration loaded", slog.String("env", cfg.Server.Env))

	db, err := database.NewConnection(&cfg.Database, logger)
	if err != nil {
		logger.Error("failed to connect to database", slog.Any("error", err))
		os.Exit(1)
	}
	defer db.Close()

	// Repositories
	adminRepo := repositories.NewAdminRepository(db)
	loginAttemptRepo := repositories.NewLoginAttemptRepository(db)
	adRequestRepo := repositories.NewAdRequestRepository(db)

	// Attempt rows older than the retention period get purged periodically.
	cleanupManager := background.NewCleanupManager(
		loginAttemptRepo,
		logger,
		cfg.Throttle.CleanupInterval,
		cfg.Throttle.AttemptRetention,
	)

	auditLogger := pkglogger.NewAuditLogger(logger)

	// Services
	lockoutService := services.NewLockoutService(loginAttemptRepo, services.LockoutConfig{
		MaxFailedAttempts: cfg.Throttle.MaxFailedLogins,
		Window:            cfg.Throttle.LoginLockoutWindow,
	}, logger)
	loginService := services.NewAdminLoginService(adminRepo, lockoutService, logger, auditLogger)
	adRequestService := services.NewAdRequestService(adRequestRepo, services.AdRequestConfig{
		Window:    cfg.Throttle.AdRequestWindow,
		MinBudget: cfg.Throttle.MinBudget,
		MaxBudget: cfg.Throttle.MaxBudget,
	}, logger)

	// Handlers
	ipConfig := &pkghttp.IPConfig{TrustedProxies: cfg.Server.TrustedProxies}
	adminHandler := handlers.NewAdminHandler(loginService, ipConfig)
	adRequestHandler := handlers.NewAdRequestHandler(adRequestService, cfg.Throttle.AdRequestWindow, ipConfig, auditLogger)

	// Bootstrap the admin account if configured
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	if err := ensureAdminAccount(ctx, adminRepo, logger); err != nil {
		logger.Error("failed to ensure admin account", slog.Any("error", err))
	}
	cancel()

	// Router
	// RemoteAddr must stay the TCP peer: client IP extraction decides on its
	// own when forwarding headers are believed, so chi's RealIP (which
	// rewrites RemoteAddr from spoofable headers) is deliberately absent.
	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middlewareCustom.SecurityHeaders(middlewareCustom.SecurityHeadersConfig{Env: cfg.Server.Env}))
	router.Use(middlewareCustom.CORS(middlewareCustom.DefaultCORSConfig(cfg.Server.AllowedOrigins)))
	router.Use(middlewareCustom.SecureLogger(logger))
	router.Use(middleware.Recoverer)
	router.Use(middleware.Timeout(60 * time.Second))

	routes.RegisterRoutes(router, adminHandler, adRequestHandler, ipConfig)

	router.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		if err := db.HealthCheck(ctx); err != nil {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusServiceUnavailable)
			w.Write([]byte(`{"status":"unhealthy","database":"down"}`))
			return
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"healthy","database":"up"}`))
	})

	server := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	cleanupCtx, cleanupCancel := context.WithCancel(context.Background())
	defer cleanupCancel()

	go cleanupManager.Start(cleanupCtx)

	go func() {
		logger.Info("starting server", slog.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", slog.Any("error", err))
			os.Exit(1)
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	logger.Info("shutdown signal received")

	cleanupCancel()
	cleanupManager.Stop()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown error", slog.Any("error", err))
		os.Exit(1)
	}

	logger.Info("server stopped gracefully")
}

// ensureAdminAccount creates the admin row if ADMIN_NAME and ADMIN_PASSWORD
// are set and no such admin exists. The stored credential is bcrypt-hashed.
func ensureAdminAccount(ctx context.Context, adminRepo *repositories.AdminRepository, logger *slog.Logger) error {
	adminName := os.Getenv("ADMIN_NAME")
	adminPassword := os.Getenv("ADMIN_PASSWORD")

	if adminName == "" || adminPassword == "" {
		logger.Info("no ADMIN_NAME or ADMIN_PASSWORD set, skipping admin bootstrap")
		return nil
	}

	_, err := adminRepo.GetByName(ctx, adminName)
	if err == nil {
		logger.Info("admin account already exists")
		return nil
	}
	if !errors.Is(err, models.ErrNotFound) {
		return fmt.Errorf("failed to check if admin exists: %w", err)
	}

	hashed, err := pkgauth.HashCredential(adminPassword)
	if err != nil {
		return fmt.Errorf("failed to hash admin credential: %w", err)
	}

	if _, err := adminRepo.Create(ctx, &models.Admin{
		AdminName: adminName,
		Password:  hashed,
	}); err != nil {
		return fmt.Errorf("failed to create admin account: %w", err)
	}

	logger.Info("admin account created", slog.String("admin_name", adminName))
	return nil
}
