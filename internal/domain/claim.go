package domain

import "time"

type ClaimStatus string

const (
	ClaimStatusActive   ClaimStatus = "ACTIVE"
	ClaimStatusReleased ClaimStatus = "RELEASED"
	ClaimStatusExpired  ClaimStatus = "EXPIRED"
)

// Terminal reports whether no further transition is allowed.
func (s ClaimStatus) Terminal() bool {
	return s == ClaimStatusReleased || s == ClaimStatusExpired
}

// Claim is an agent's time-boxed exclusive right to pursue a buyer request.
type Claim struct {
	ID             string
	AgentID        string
	BuyerRequestID string
	Status         ClaimStatus
	ClaimedAt      time.Time
	ExpiresAt      time.Time
	ReleasedAt     *time.Time
	Notes          string
}

// LiveAt reports whether the claim still grants exclusivity at now.
func (c Claim) LiveAt(now time.Time) bool {
	return c.Status == ClaimStatusActive && c.ExpiresAt.After(now)
}

type LeadStatus string

const LeadStatusNew LeadStatus = "NEW"

// Lead is the work item opened for the agent alongside a successful claim.
type Lead struct {
	ID             string
	AgentID        string
	BuyerRequestID string
	Status         LeadStatus
	CreatedAt      time.Time
}
