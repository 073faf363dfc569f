package services

import (
	"context"
	"errors"
	"log/slog"

	"github.com/adboardhq/adboard/internal/models"
	pkgauth "github.com/adboardhq/adboard/pkg/auth"
	pkglogger "github.com/adboardhq/adboard/pkg/logger"
)

// AdminStore defines the credential lookup the login guard needs.
type AdminStore interface {
	GetByName(ctx context.Context, adminName string) (*models.Admin, error)
}

// AdminSummary is the admin payload returned on successful login. The stored
// password never leaves the service layer.
type AdminSummary struct {
	ID        string `json:"id"`
	AdminName string `json:"admin_name"`
}

// LoginResult describes the outcome of one login attempt.
type LoginResult struct {
	Success bool
	Admin   *AdminSummary

	// Blocked means the IP was already locked out before this attempt; no
	// credential lookup happened and no attempt row was recorded.
	Blocked bool

	FailedAttempts    int
	RemainingAttempts int
}

// BlockStatus reports an IP's standing against the lockout threshold.
type BlockStatus struct {
	IsBlocked         bool `json:"isBlocked"`
	FailedAttempts    int  `json:"failedAttempts"`
	RemainingAttempts int  `json:"remainingAttempts"`
}

// AdminLoginService orchestrates the credential check and the IP lockout for
// the admin login flow.
type AdminLoginService struct {
	admins  AdminStore
	lockout *LockoutService
	logger  *slog.Logger
	audit   *pkglogger.AuditLogger
}

func NewAdminLoginService(admins AdminStore, lockout *LockoutService, logger *slog.Logger, audit *pkglogger.AuditLogger) *AdminLoginService {
	return &AdminLoginService{
		admins:  admins,
		lockout: lockout,
		logger:  logger,
		audit:   audit,
	}
}

// Login runs the guarded login sequence: block check, credential check,
// attempt recording, then reset or recount. A store outage during the
// credential lookup surfaces as models.ErrInternalServer rather than being
// passed off as invalid credentials.
func (s *AdminLoginService) Login(ctx context.Context, username, password, ipAddress string) (*LoginResult, error) {
	blocked, err := s.lockout.IsBlocked(ctx, ipAddress)
	if err != nil {
		// Fail open on the pre-check so a store hiccup cannot lock out every
		// legitimate admin at once. The attempt still gets recorded below.
		s.logger.Warn("block check failed, allowing attempt",
			slog.String("ip_address", ipAddress),
			slog.Any("error", err))
		blocked = false
	}
	if blocked {
		// Short-circuit: no credential lookup and no new attempt row, so a
		// sustained attack cannot grow the log or shift the counters.
		s.audit.LogLoginAttempt(pkglogger.AuditEvent{
			EventType:     "login_blocked",
			AdminName:     username,
			IPAddress:     ipAddress,
			FailureReason: "ip_locked_out",
		})
		return &LoginResult{Blocked: true}, nil
	}

	admin, err := s.admins.GetByName(ctx, username)
	if err != nil && !errors.Is(err, models.ErrNotFound) {
		s.logger.Error("admin lookup failed", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	authenticated := admin != nil && pkgauth.CompareCredential(admin.Password, password) == nil

	if recErr := s.lockout.RecordAttempt(ctx, ipAddress, username, authenticated); recErr != nil {
		s.logger.Error("failed to record login attempt",
			slog.String("ip_address", ipAddress),
			slog.Any("error", recErr))
	}

	if authenticated {
		if resetErr := s.lockout.Reset(ctx, ipAddress); resetErr != nil {
			s.logger.Error("failed to reset failure history after login",
				slog.String("ip_address", ipAddress),
				slog.Any("error", resetErr))
		}

		s.audit.LogLoginAttempt(pkglogger.AuditEvent{
			EventType: "login_success",
			AdminName: admin.AdminName,
			IPAddress: ipAddress,
			Success:   true,
		})

		return &LoginResult{
			Success: true,
			Admin:   &AdminSummary{ID: admin.ID, AdminName: admin.AdminName},
		}, nil
	}

	// Recount including the failure just recorded so remainingAttempts is
	// accurate for this response. A failed recount surfaces as a server
	// error rather than advertising a fresh attempt budget.
	count, err := s.lockout.CountRecentFailures(ctx, ipAddress)
	if err != nil {
		return nil, models.ErrInternalServer
	}

	remaining := s.lockout.MaxFailedAttempts() - count
	if remaining < 0 {
		remaining = 0
	}

	s.audit.LogLoginAttempt(pkglogger.AuditEvent{
		EventType:     "login_failed",
		AdminName:     username,
		IPAddress:     ipAddress,
		FailureReason: "invalid_credentials",
	})

	return &LoginResult{
		FailedAttempts:    count,
		RemainingAttempts: remaining,
	}, nil
}

// CheckBlocked returns the IP's current lockout standing. Unlike the login
// pre-check this propagates store errors; the status endpoint answers 500
// rather than guessing.
func (s *AdminLoginService) CheckBlocked(ctx context.Context, ipAddress string) (*BlockStatus, error) {
	count, err := s.lockout.CountRecentFailures(ctx, ipAddress)
	if err != nil {
		return nil, err
	}

	remaining := s.lockout.MaxFailedAttempts() - count
	if remaining < 0 {
		remaining = 0
	}

	return &BlockStatus{
		IsBlocked:         count >= s.lockout.MaxFailedAttempts(),
		FailedAttempts:    count,
		RemainingAttempts: remaining,
	}, nil
}
