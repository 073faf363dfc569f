package services

import (
	"context"
	"log/slog"
	"time"

	"github.com/adboardhq/adboard/internal/models"
	pkglogger "github.com/adboardhq/adboard/pkg/logger"
)

// AdRequestStore defines the database operations for advertisement requests.
type AdRequestStore interface {
	Create(ctx context.Context, req *models.AdvertisementRequest) (*models.AdvertisementRequest, error)
	List(ctx context.Context) ([]*models.AdvertisementRequest, error)
	Delete(ctx context.Context, id string) error
	HasRecentRequest(ctx context.Context, userIP string, since time.Time) (bool, error)
}

// AdRequestConfig holds the submission throttle window and budget bounds.
type AdRequestConfig struct {
	Window    time.Duration
	MinBudget float64
	MaxBudget float64
}

func DefaultAdRequestConfig() AdRequestConfig {
	return AdRequestConfig{
		Window:    1 * time.Hour,
		MinBudget: 5000,
		MaxBudget: 100000000,
	}
}

// CreateAdRequestInput carries a validated submission into the service.
type CreateAdRequestInput struct {
	Email       string
	Description string
	Budget      float64
	UserIP      string
}

// AdRequestService handles advertisement request intake, listing and
// deletion. Intake is throttled to one request per IP per rolling window,
// keyed independently of the login lockout.
type AdRequestService struct {
	store  AdRequestStore
	config AdRequestConfig
	logger *slog.Logger
}

func NewAdRequestService(store AdRequestStore, config AdRequestConfig, logger *slog.Logger) *AdRequestService {
	return &AdRequestService{
		store:  store,
		config: config,
		logger: logger,
	}
}

// Create validates the submission, enforces the per-IP window, and inserts
// the request.
func (s *AdRequestService) Create(ctx context.Context, input CreateAdRequestInput) (*models.AdvertisementRequest, error) {
	if input.Email == "" || input.Description == "" || input.UserIP == "" {
		return nil, models.ErrBadRequest
	}
	if input.Budget < s.config.MinBudget {
		return nil, models.ErrBudgetTooLow
	}
	if input.Budget > s.config.MaxBudget {
		return nil, models.ErrBudgetTooHigh
	}

	since := time.Now().Add(-s.config.Window)
	recent, err := s.store.HasRecentRequest(ctx, input.UserIP, since)
	if err != nil {
		s.logger.Error("failed to check recent advertisement request",
			slog.String("user_ip", input.UserIP),
			slog.Any("error", err))
		return nil, models.ErrInternalServer
	}
	if recent {
		return nil, models.ErrRateLimitExceeded
	}

	created, err := s.store.Create(ctx, &models.AdvertisementRequest{
		Email:       input.Email,
		Description: input.Description,
		Budget:      input.Budget,
		UserIP:      input.UserIP,
	})
	if err != nil {
		s.logger.Error("failed to create advertisement request", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	s.logger.Info("advertisement request created",
		slog.String("id", created.ID),
		slog.String("email", pkglogger.SanitizedEmail(created.Email)),
		slog.Float64("budget", created.Budget))

	return created, nil
}

// List returns all advertisement requests, most recent first.
func (s *AdRequestService) List(ctx context.Context) ([]*models.AdvertisementRequest, error) {
	requests, err := s.store.List(ctx)
	if err != nil {
		s.logger.Error("failed to list advertisement requests", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}
	return requests, nil
}

// Delete removes a request by id. Deleting an id that no longer exists
// succeeds; callers cannot tell the difference and retries stay safe.
func (s *AdRequestService) Delete(ctx context.Context, id string) error {
	if err := s.store.Delete(ctx, id); err != nil {
		s.logger.Error("failed to delete advertisement request",
			slog.String("id", id),
			slog.Any("error", err))
		return models.ErrInternalServer
	}
	return nil
}

// HasRecentRequest reports whether the IP submitted a request at or after
// since. The caller supplies the cutoff.
func (s *AdRequestService) HasRecentRequest(ctx context.Context, userIP string, since time.Time) (bool, error) {
	recent, err := s.store.HasRecentRequest(ctx, userIP, since)
	if err != nil {
		s.logger.Error("failed to check recent advertisement request",
			slog.String("user_ip", userIP),
			slog.Any("error", err))
		return false, models.ErrInternalServer
	}
	return recent, nil
}
