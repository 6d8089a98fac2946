package app

import (
	"context"
	"errors"
	"log/slog"
	"time"
	"unicode/utf8"

	"github.com/malhajri07/real-estate-CRM-project-sub000/internal/clock"
	"github.com/malhajri07/real-estate-CRM-project-sub000/internal/domain"
	"github.com/malhajri07/real-estate-CRM-project-sub000/internal/identity"
	"github.com/malhajri07/real-estate-CRM-project-sub000/internal/ratelimit"
	"github.com/malhajri07/real-estate-CRM-project-sub000/internal/visibility"
)

const (
	defaultClaimTTL = 72 * time.Hour
	maxNotesLength  = 2000
)

// ClaimService owns the claim lifecycle: claim, release and the agent's view
// of its own active claims.
type ClaimService struct {
	repo         ClaimRepository
	directory    identity.Directory
	limiter      *ratelimit.Limiter
	clock        clock.Clock
	audit        auditor
	logger       *slog.Logger
	claimTTL     time.Duration
	storeTimeout time.Duration
}

type ClaimServiceOption func(*ClaimService)

// WithClaimTTL overrides the default lifetime of new claims.
func WithClaimTTL(d time.Duration) ClaimServiceOption {
	return func(s *ClaimService) {
		if d > 0 {
			s.claimTTL = d
		}
	}
}

func WithAuditSink(sink AuditSink) ClaimServiceOption {
	return func(s *ClaimService) {
		s.audit.sink = sink
	}
}

func WithClaimLogger(logger *slog.Logger) ClaimServiceOption {
	return func(s *ClaimService) {
		if logger != nil {
			s.logger = logger
			s.audit.logger = logger
		}
	}
}

// WithClaimTimeouts bounds store transactions and audit writes.
func WithClaimTimeouts(store, audit time.Duration) ClaimServiceOption {
	return func(s *ClaimService) {
		if store > 0 {
			s.storeTimeout = store
		}
		if audit > 0 {
			s.audit.timeout = audit
		}
	}
}

func NewClaimService(repo ClaimRepository, dir identity.Directory, limiter *ratelimit.Limiter, clk clock.Clock, opts ...ClaimServiceOption) *ClaimService {
	if limiter == nil {
		limiter = ratelimit.New(ratelimit.DefaultLimits())
	}
	logger := slog.Default()
	svc := &ClaimService{
		repo:         repo,
		directory:    dir,
		limiter:      limiter,
		clock:        clk,
		logger:       logger,
		audit:        auditor{timeout: defaultAuditTimeout, logger: logger},
		claimTTL:     defaultClaimTTL,
		storeTimeout: defaultStoreTimeout,
	}
	for _, opt := range opts {
		opt(svc)
	}
	return svc
}

type ClaimInput struct {
	BuyerRequestID string
	Notes          string
}

type ClaimResult struct {
	Claim domain.Claim
	Lead  domain.Lead
}

// Claim gives the caller an exclusive, time-boxed claim on an OPEN buyer
// request and opens a lead for it. Checks run in order and the first failure
// is returned; the claim, status change and lead commit together or not at all.
func (s *ClaimService) Claim(ctx context.Context, caller identity.Principal, in ClaimInput) (ClaimResult, error) {
	if !caller.IsAgent() {
		return ClaimResult{}, domain.ErrPermissionDenied
	}
	if in.BuyerRequestID == "" {
		return ClaimResult{}, domain.ErrInvalidID
	}
	if err := validateNotes(in.Notes); err != nil {
		return ClaimResult{}, err
	}

	now := s.clock.Now()
	var (
		result ClaimResult
		healed *domain.Claim
	)

	txCtx, cancel := detachedContext(ctx, s.storeTimeout)
	defer cancel()

	err := s.repo.WithTx(txCtx, func(txCtx context.Context) error {
		healed = nil

		br, err := s.repo.GetBuyerRequestForUpdate(txCtx, in.BuyerRequestID)
		if err != nil {
			return err
		}

		active, err := s.repo.FindActiveClaimForUpdate(txCtx, br.ID)
		if err != nil {
			return err
		}
		switch {
		case active != nil && active.LiveAt(now):
			return domain.ErrAlreadyClaimed
		case active != nil:
			// Past expiresAt but not swept yet.
			expired, err := terminateClaim(txCtx, s.repo, *active, domain.ClaimStatusExpired, now, active.Notes)
			if err != nil {
				return err
			}
			healed = &expired
		case br.Status == domain.BuyerRequestStatusClaimed:
			// CLAIMED without an ACTIVE claim; reopen before evaluating.
			if _, err := s.repo.CompareAndSetBuyerRequestStatus(txCtx, br.ID, domain.BuyerRequestStatusClaimed, domain.BuyerRequestStatusOpen, now); err != nil {
				return err
			}
		}

		if err := s.repo.LockAgent(txCtx, caller.UserID); err != nil {
			return err
		}
		agentActive, err := s.repo.CountActiveClaimsByAgent(txCtx, caller.UserID, now)
		if err != nil {
			return err
		}
		buyerRecent, err := s.repo.CountClaimsSince(txCtx, br.ID, s.limiter.WindowStart(now))
		if err != nil {
			return err
		}
		if err := s.limiter.Check(ratelimit.Usage{AgentActive: agentActive, BuyerRecent: buyerRecent}); err != nil {
			return err
		}

		claim := domain.Claim{
			ID:             newUUID(),
			AgentID:        caller.UserID,
			BuyerRequestID: br.ID,
			Status:         domain.ClaimStatusActive,
			ClaimedAt:      now,
			ExpiresAt:      now.Add(s.claimTTL),
			Notes:          in.Notes,
		}
		if err := s.repo.CreateClaim(txCtx, claim); err != nil {
			return err
		}
		swapped, err := s.repo.CompareAndSetBuyerRequestStatus(txCtx, br.ID, domain.BuyerRequestStatusOpen, domain.BuyerRequestStatusClaimed, now)
		if err != nil {
			return err
		}
		if !swapped {
			return domain.ErrAlreadyClaimed
		}

		lead := domain.Lead{
			ID:             newUUID(),
			AgentID:        caller.UserID,
			BuyerRequestID: br.ID,
			Status:         domain.LeadStatusNew,
			CreatedAt:      now,
		}
		if err := s.repo.CreateLead(txCtx, lead); err != nil {
			return err
		}

		result = ClaimResult{Claim: claim, Lead: lead}
		return nil
	})
	if err != nil {
		return ClaimResult{}, classifyStoreErr(err)
	}

	entries := make([]domain.AuditEntry, 0, 2)
	if healed != nil {
		before := *healed
		before.Status = domain.ClaimStatusActive
		entries = append(entries, domain.AuditEntry{
			ActorID:    sweeperActorID,
			Action:     domain.AuditActionExpire,
			Entity:     auditEntityClaim,
			EntityID:   healed.ID,
			BeforeJSON: snapshot(before, domain.BuyerRequestStatusClaimed),
			AfterJSON:  snapshot(*healed, domain.BuyerRequestStatusOpen),
			CreatedAt:  now,
		})
	}
	entries = append(entries, domain.AuditEntry{
		ActorID:    caller.UserID,
		Action:     domain.AuditActionClaim,
		Entity:     auditEntityClaim,
		EntityID:   result.Claim.ID,
		BeforeJSON: requestSnapshot(result.Claim.BuyerRequestID, domain.BuyerRequestStatusOpen),
		AfterJSON:  snapshot(result.Claim, domain.BuyerRequestStatusClaimed),
		CreatedAt:  now,
	})
	s.audit.record(ctx, entries...)

	s.logger.Info("buyer request claimed",
		"claim_id", result.Claim.ID,
		"buyer_request_id", result.Claim.BuyerRequestID,
		"agent_id", caller.UserID,
		"expires_at", result.Claim.ExpiresAt,
	)
	return result, nil
}

type ReleaseInput struct {
	BuyerRequestID string
	Notes          string
}

// Release ends the ACTIVE claim on a buyer request and reopens it.
func (s *ClaimService) Release(ctx context.Context, caller identity.Principal, in ReleaseInput) (domain.Claim, error) {
	if in.BuyerRequestID == "" {
		return domain.Claim{}, domain.ErrInvalidID
	}
	if err := validateNotes(in.Notes); err != nil {
		return domain.Claim{}, err
	}

	now := s.clock.Now()
	var before, after domain.Claim

	txCtx, cancel := detachedContext(ctx, s.storeTimeout)
	defer cancel()

	err := s.repo.WithTx(txCtx, func(txCtx context.Context) error {
		if _, err := s.repo.GetBuyerRequestForUpdate(txCtx, in.BuyerRequestID); err != nil {
			return err
		}
		active, err := s.repo.FindActiveClaimForUpdate(txCtx, in.BuyerRequestID)
		if err != nil {
			return err
		}
		if active == nil || !active.LiveAt(now) {
			return domain.ErrNoActiveClaim
		}
		if err := authorizeRelease(txCtx, s.directory, caller, *active); err != nil {
			return err
		}

		released, err := terminateClaim(txCtx, s.repo, *active, domain.ClaimStatusReleased, now, mergeNotes(active.Notes, in.Notes))
		if err != nil {
			return err
		}
		before, after = *active, released
		return nil
	})
	if err != nil {
		return domain.Claim{}, classifyStoreErr(err)
	}

	s.audit.record(ctx, domain.AuditEntry{
		ActorID:    caller.UserID,
		Action:     domain.AuditActionRelease,
		Entity:     auditEntityClaim,
		EntityID:   after.ID,
		BeforeJSON: snapshot(before, domain.BuyerRequestStatusClaimed),
		AfterJSON:  snapshot(after, domain.BuyerRequestStatusOpen),
		CreatedAt:  now,
	})

	s.logger.Info("claim released",
		"claim_id", after.ID,
		"buyer_request_id", after.BuyerRequestID,
		"agent_id", after.AgentID,
		"released_by", caller.UserID,
	)
	return after, nil
}

// ActiveClaimView is one entry of an agent's own claim list.
type ActiveClaimView struct {
	Claim   domain.Claim
	Request domain.BuyerRequest
	Contact visibility.ContactView
}

// ListActiveClaimsForAgent returns the caller's live claims with full contact.
func (s *ClaimService) ListActiveClaimsForAgent(ctx context.Context, caller identity.Principal) ([]ActiveClaimView, error) {
	if !caller.IsAgent() {
		return nil, domain.ErrPermissionDenied
	}

	now := s.clock.Now()
	readCtx, cancel := context.WithTimeout(ctx, s.storeTimeout)
	defer cancel()

	rows, err := s.repo.ListActiveClaimsByAgent(readCtx, caller.UserID, now)
	if err != nil {
		return nil, classifyStoreErr(err)
	}

	views := make([]ActiveClaimView, 0, len(rows))
	for _, row := range rows {
		if !row.Claim.LiveAt(now) || row.Claim.AgentID != caller.UserID {
			continue
		}
		views = append(views, ActiveClaimView{
			Claim:   row.Claim,
			Request: row.Request,
			Contact: visibility.Project(row.Request, caller, true),
		})
	}
	return views, nil
}

// authorizeRelease allows the claiming agent, a website admin, or an owner of
// the claiming agent's organization.
func authorizeRelease(ctx context.Context, dir identity.Directory, caller identity.Principal, claim domain.Claim) error {
	if caller.UserID != "" && caller.UserID == claim.AgentID {
		return nil
	}
	if caller.IsAdmin() {
		return nil
	}
	if !caller.IsOrgOwner() || caller.OrganizationID == "" || dir == nil {
		return domain.ErrPermissionDenied
	}

	claimant, err := dir.Resolve(ctx, claim.AgentID)
	if err != nil {
		if errors.Is(err, domain.ErrUnauthenticated) {
			return domain.ErrPermissionDenied
		}
		return err
	}
	if claimant.OrganizationID != caller.OrganizationID {
		return domain.ErrPermissionDenied
	}
	return nil
}

func validateNotes(notes string) error {
	if utf8.RuneCountInString(notes) > maxNotesLength {
		return domain.Validationf("notes must be at most %d characters", maxNotesLength)
	}
	return nil
}
