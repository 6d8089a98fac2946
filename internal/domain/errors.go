package domain

import (
	"errors"
	"fmt"
)

var (
	ErrUnauthenticated      = errors.New("unauthenticated")
	ErrPermissionDenied     = errors.New("permission denied")
	ErrBuyerRequestNotFound = errors.New("buyer request not found")
	ErrAlreadyClaimed       = errors.New("buyer request already claimed")
	ErrNoActiveClaim        = errors.New("no active claim for buyer request")
	ErrClaimNotFound        = errors.New("claim not found")
	ErrRateLimited          = errors.New("rate limited")
	ErrValidation           = errors.New("validation error")
	ErrInvalidID            = errors.New("invalid id")
	ErrTransient            = errors.New("store temporarily unavailable")
)

// RateLimitScope names the velocity threshold that was exceeded.
type RateLimitScope string

const (
	RateLimitScopeAgent        RateLimitScope = "agent"
	RateLimitScopeBuyerRequest RateLimitScope = "buyer_request"
)

// RateLimitError carries the exceeded limit so callers can report it.
// CooldownHours is only set for buyer-request limits.
type RateLimitError struct {
	Scope         RateLimitScope
	Limit         int
	CooldownHours int
}

func (e *RateLimitError) Error() string {
	if e.Scope == RateLimitScopeBuyerRequest {
		return fmt.Sprintf("buyer request reached %d claims within %d hours", e.Limit, e.CooldownHours)
	}
	return fmt.Sprintf("agent reached the limit of %d active claims", e.Limit)
}

func (e *RateLimitError) Is(target error) bool {
	return target == ErrRateLimited
}

// Validationf wraps ErrValidation with a field-level detail message.
func Validationf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}
