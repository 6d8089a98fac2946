package app

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/malhajri07/real-estate-CRM-project-sub000/internal/domain"
)

const (
	defaultStoreTimeout = 5 * time.Second
	defaultAuditTimeout = 2 * time.Second

	auditEntityClaim = "claim"
	sweeperActorID   = "system:sweeper"
)

// terminateClaim is the single transition out of ACTIVE used by release,
// lazy expiry and the sweeper. The caller must hold the buyer request row lock.
func terminateClaim(ctx context.Context, store transitionStore, claim domain.Claim, status domain.ClaimStatus, now time.Time, notes string) (domain.Claim, error) {
	if claim.Status.Terminal() || !status.Terminal() {
		return domain.Claim{}, domain.ErrNoActiveClaim
	}
	var releasedAt *time.Time
	if status == domain.ClaimStatusReleased {
		releasedAt = &now
	}

	changed, err := store.TerminateClaim(ctx, claim.ID, status, releasedAt, notes)
	if err != nil {
		return domain.Claim{}, err
	}
	if !changed {
		return domain.Claim{}, domain.ErrNoActiveClaim
	}
	// Already OPEN means the request was never marked; the end state is the same.
	if _, err := store.CompareAndSetBuyerRequestStatus(ctx, claim.BuyerRequestID, domain.BuyerRequestStatusClaimed, domain.BuyerRequestStatusOpen, now); err != nil {
		return domain.Claim{}, err
	}

	claim.Status = status
	claim.ReleasedAt = releasedAt
	claim.Notes = notes
	return claim, nil
}

func mergeNotes(existing, added string) string {
	switch {
	case added == "":
		return existing
	case existing == "":
		return added
	default:
		return existing + "\n" + added
	}
}

// detachedContext keeps store work running if the caller goes away, bounded by timeout.
func detachedContext(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.WithoutCancel(ctx), timeout)
}

// classifyStoreErr turns deadline overruns into domain.ErrTransient.
func classifyStoreErr(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.DeadlineExceeded) && !errors.Is(err, domain.ErrTransient) {
		return fmt.Errorf("%w: %v", domain.ErrTransient, err)
	}
	return err
}

type claimSnapshot struct {
	ID                 string                    `json:"id"`
	AgentID            string                    `json:"agentId"`
	BuyerRequestID     string                    `json:"buyerRequestId"`
	Status             domain.ClaimStatus        `json:"status"`
	ClaimedAt          time.Time                 `json:"claimedAt"`
	ExpiresAt          time.Time                 `json:"expiresAt"`
	ReleasedAt         *time.Time                `json:"releasedAt,omitempty"`
	Notes              string                    `json:"notes,omitempty"`
	BuyerRequestStatus domain.BuyerRequestStatus `json:"buyerRequestStatus"`
}

func snapshot(c domain.Claim, brStatus domain.BuyerRequestStatus) json.RawMessage {
	raw, err := json.Marshal(claimSnapshot{
		ID:                 c.ID,
		AgentID:            c.AgentID,
		BuyerRequestID:     c.BuyerRequestID,
		Status:             c.Status,
		ClaimedAt:          c.ClaimedAt,
		ExpiresAt:          c.ExpiresAt,
		ReleasedAt:         c.ReleasedAt,
		Notes:              c.Notes,
		BuyerRequestStatus: brStatus,
	})
	if err != nil {
		return nil
	}
	return raw
}

func requestSnapshot(buyerRequestID string, status domain.BuyerRequestStatus) json.RawMessage {
	raw, err := json.Marshal(struct {
		BuyerRequestID string                    `json:"buyerRequestId"`
		Status         domain.BuyerRequestStatus `json:"buyerRequestStatus"`
	}{buyerRequestID, status})
	if err != nil {
		return nil
	}
	return raw
}

// auditor writes entries after commit and only logs failures.
type auditor struct {
	sink    AuditSink
	timeout time.Duration
	logger  *slog.Logger
}

func (a auditor) record(ctx context.Context, entries ...domain.AuditEntry) {
	if a.sink == nil {
		return
	}
	for _, entry := range entries {
		auditCtx, cancel := detachedContext(ctx, a.timeout)
		err := a.sink.Record(auditCtx, entry)
		cancel()
		if err != nil {
			a.logger.Warn("audit write failed",
				"action", entry.Action,
				"entity_id", entry.EntityID,
				"actor_id", entry.ActorID,
				"error", err,
			)
		}
	}
}
