package services

import (
	"context"
	"log/slog"
	"time"

	"github.com/adboardhq/adboard/internal/models"
)

// LoginAttemptStore defines the database operations the lockout logic needs.
type LoginAttemptStore interface {
	RecordAttempt(ctx context.Context, attempt *models.LoginAttempt) error
	CountFailedAttempts(ctx context.Context, ipAddress string, since time.Time) (int, error)
	DeleteByIP(ctx context.Context, ipAddress string) error
}

// LockoutConfig holds the sliding-window parameters for the IP lockout.
type LockoutConfig struct {
	MaxFailedAttempts int
	Window            time.Duration
}

func DefaultLockoutConfig() LockoutConfig {
	return LockoutConfig{
		MaxFailedAttempts: 5,
		Window:            45 * time.Minute,
	}
}

// LockoutService decides whether an IP is locked out of admin login based on
// its failed attempts within a trailing window. All counts derive from store
// queries at call time; the window slides, it never resets on a boundary.
type LockoutService struct {
	store  LoginAttemptStore
	config LockoutConfig
	logger *slog.Logger
}

func NewLockoutService(store LoginAttemptStore, config LockoutConfig, logger *slog.Logger) *LockoutService {
	return &LockoutService{
		store:  store,
		config: config,
		logger: logger,
	}
}

// MaxFailedAttempts exposes the failure threshold for remaining-attempt math.
func (s *LockoutService) MaxFailedAttempts() int {
	return s.config.MaxFailedAttempts
}

// Window exposes the lockout window duration.
func (s *LockoutService) Window() time.Duration {
	return s.config.Window
}

// CountRecentFailures returns the number of failed attempts from the IP
// within the trailing window.
func (s *LockoutService) CountRecentFailures(ctx context.Context, ipAddress string) (int, error) {
	since := time.Now().Add(-s.config.Window)

	count, err := s.store.CountFailedAttempts(ctx, ipAddress, since)
	if err != nil {
		s.logger.Error("failed to count recent login failures",
			slog.String("ip_address", ipAddress),
			slog.Any("error", err))
		return 0, err
	}

	return count, nil
}

// IsBlocked reports whether the IP has reached the failure threshold.
func (s *LockoutService) IsBlocked(ctx context.Context, ipAddress string) (bool, error) {
	count, err := s.CountRecentFailures(ctx, ipAddress)
	if err != nil {
		return false, err
	}
	return count >= s.config.MaxFailedAttempts, nil
}

// RecordAttempt appends a login attempt row for the IP.
func (s *LockoutService) RecordAttempt(ctx context.Context, ipAddress, adminName string, success bool) error {
	attempt := &models.LoginAttempt{
		IPAddress:    ipAddress,
		AdminName:    adminName,
		IsSuccessful: success,
	}
	return s.store.RecordAttempt(ctx, attempt)
}

// Reset clears the IP's entire attempt history so a stale failure streak
// cannot outlive a successful login.
func (s *LockoutService) Reset(ctx context.Context, ipAddress string) error {
	if err := s.store.DeleteByIP(ctx, ipAddress); err != nil {
		s.logger.Error("failed to reset login attempts",
			slog.String("ip_address", ipAddress),
			slog.Any("error", err))
		return err
	}
	return nil
}
