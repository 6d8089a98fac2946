package app

import (
	"context"
	"time"

	"github.com/malhajri07/real-estate-CRM-project-sub000/internal/domain"
)

// transitionStore is the persistence surface shared by release, lazy expiry
// and the sweeper. Every method except WithTx expects to run inside WithTx.
type transitionStore interface {
	WithTx(ctx context.Context, fn func(ctx context.Context) error) error
	GetBuyerRequestForUpdate(ctx context.Context, id string) (domain.BuyerRequest, error)
	// TerminateClaim moves an ACTIVE claim to status and reports whether a row changed.
	TerminateClaim(ctx context.Context, claimID string, status domain.ClaimStatus, releasedAt *time.Time, notes string) (bool, error)
	// CompareAndSetBuyerRequestStatus updates the status only when it currently equals from.
	CompareAndSetBuyerRequestStatus(ctx context.Context, id string, from, to domain.BuyerRequestStatus, at time.Time) (bool, error)
}

type ClaimRepository interface {
	transitionStore
	// FindActiveClaimForUpdate returns the ACTIVE claim (expired or not) or nil.
	FindActiveClaimForUpdate(ctx context.Context, buyerRequestID string) (*domain.Claim, error)
	// LockAgent serializes claim creation per agent until the transaction ends.
	LockAgent(ctx context.Context, agentID string) error
	CountActiveClaimsByAgent(ctx context.Context, agentID string, now time.Time) (int, error)
	CountClaimsSince(ctx context.Context, buyerRequestID string, since time.Time) (int, error)
	CreateClaim(ctx context.Context, claim domain.Claim) error
	CreateLead(ctx context.Context, lead domain.Lead) error
	ListActiveClaimsByAgent(ctx context.Context, agentID string, now time.Time) ([]ClaimWithRequest, error)
}

type SweepRepository interface {
	transitionStore
	GetClaimForUpdate(ctx context.Context, claimID string) (domain.Claim, error)
	ListExpiredActiveClaims(ctx context.Context, now time.Time, limit int) ([]domain.Claim, error)
}

type PoolRepository interface {
	SearchBuyerRequests(ctx context.Context, q PoolQuery) ([]PoolRow, int, error)
}

// AuditSink appends audit records. Failures never undo a committed transition.
type AuditSink interface {
	Record(ctx context.Context, entry domain.AuditEntry) error
}

// ClaimWithRequest is an agent's claim joined with its buyer request.
type ClaimWithRequest struct {
	Claim   domain.Claim
	Request domain.BuyerRequest
}

// PoolQuery is the repository-level form of a pool search.
type PoolQuery struct {
	Filters  SearchFilters
	CallerID string
	Now      time.Time
	Limit    int
	Offset   int
}

// PoolRow is one search hit; HasActiveClaim is scoped to the caller.
type PoolRow struct {
	Request        domain.BuyerRequest
	HasActiveClaim bool
}
