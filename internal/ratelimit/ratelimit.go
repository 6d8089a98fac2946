// Package ratelimit decides claim velocity from counts the caller has already
// read from durable claim history. It holds no state of its own.
package ratelimit

import (
	"time"

	"github.com/malhajri07/real-estate-CRM-project-sub000/internal/domain"
)

const (
	DefaultMaxActivePerAgent       = 5
	DefaultMaxClaimsPerBuyerPerDay = 3
	DefaultCooldown                = 24 * time.Hour
)

type Limits struct {
	MaxActivePerAgent       int
	MaxClaimsPerBuyerPerDay int
	Cooldown                time.Duration
}

func DefaultLimits() Limits {
	return Limits{
		MaxActivePerAgent:       DefaultMaxActivePerAgent,
		MaxClaimsPerBuyerPerDay: DefaultMaxClaimsPerBuyerPerDay,
		Cooldown:                DefaultCooldown,
	}
}

// Usage is the velocity observed at claim time.
type Usage struct {
	// AgentActive is the agent's count of ACTIVE, unexpired claims.
	AgentActive int
	// BuyerRecent is the count of claims created on the buyer request within Cooldown.
	BuyerRecent int
}

type Limiter struct {
	limits Limits
}

func New(limits Limits) *Limiter {
	defaults := DefaultLimits()
	if limits.MaxActivePerAgent <= 0 {
		limits.MaxActivePerAgent = defaults.MaxActivePerAgent
	}
	if limits.MaxClaimsPerBuyerPerDay <= 0 {
		limits.MaxClaimsPerBuyerPerDay = defaults.MaxClaimsPerBuyerPerDay
	}
	if limits.Cooldown <= 0 {
		limits.Cooldown = defaults.Cooldown
	}
	return &Limiter{limits: limits}
}

func (l *Limiter) Limits() Limits {
	return l.limits
}

// WindowStart is the lower bound of the cooldown window ending at now.
func (l *Limiter) WindowStart(now time.Time) time.Time {
	return now.Add(-l.limits.Cooldown)
}

// Check returns a *domain.RateLimitError when usage is at or over a limit.
// The agent limit is evaluated first.
func (l *Limiter) Check(u Usage) error {
	if u.AgentActive >= l.limits.MaxActivePerAgent {
		return &domain.RateLimitError{
			Scope: domain.RateLimitScopeAgent,
			Limit: l.limits.MaxActivePerAgent,
		}
	}
	if u.BuyerRecent >= l.limits.MaxClaimsPerBuyerPerDay {
		return &domain.RateLimitError{
			Scope:         domain.RateLimitScopeBuyerRequest,
			Limit:         l.limits.MaxClaimsPerBuyerPerDay,
			CooldownHours: int(l.limits.Cooldown / time.Hour),
		}
	}
	return nil
}
