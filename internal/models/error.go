package models

import "errors"

// Sentinel errors for common failure conditions
var (
	ErrNotFound       = errors.New("resource not found")
	ErrConflict       = errors.New("resource already exists")
	ErrBadRequest     = errors.New("bad request")
	ErrUnauthorized   = errors.New("unauthorized")
	ErrInternalServer = errors.New("internal server error")

	// Throttling errors
	ErrIPBlocked         = errors.New("ip address is blocked")
	ErrRateLimitExceeded = errors.New("rate limit exceeded")

	// Advertisement request validation errors
	ErrBudgetTooLow  = errors.New("budget below minimum")
	ErrBudgetTooHigh = errors.New("budget above maximum")
)
