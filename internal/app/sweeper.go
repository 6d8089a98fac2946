package app

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/malhajri07/real-estate-CRM-project-sub000/internal/clock"
	"github.com/malhajri07/real-estate-CRM-project-sub000/internal/domain"
)

const (
	defaultSweepInterval  = 5 * time.Minute
	defaultSweepBatchSize = 100
)

// Sweeper expires ACTIVE claims past their expiresAt and reopens their
// buyer requests. Several sweepers may run at once; each claim is
// re-checked under its buyer request lock before it is touched.
type Sweeper struct {
	repo         SweepRepository
	clock        clock.Clock
	audit        auditor
	logger       *slog.Logger
	interval     time.Duration
	batchSize    int
	storeTimeout time.Duration
}

type SweeperConfig struct {
	Interval     time.Duration
	BatchSize    int
	StoreTimeout time.Duration
	AuditTimeout time.Duration
}

func NewSweeper(repo SweepRepository, sink AuditSink, clk clock.Clock, logger *slog.Logger, cfg SweeperConfig) *Sweeper {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Interval <= 0 {
		cfg.Interval = defaultSweepInterval
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = defaultSweepBatchSize
	}
	if cfg.StoreTimeout <= 0 {
		cfg.StoreTimeout = defaultStoreTimeout
	}
	if cfg.AuditTimeout <= 0 {
		cfg.AuditTimeout = defaultAuditTimeout
	}
	return &Sweeper{
		repo:         repo,
		clock:        clk,
		audit:        auditor{sink: sink, timeout: cfg.AuditTimeout, logger: logger},
		logger:       logger,
		interval:     cfg.Interval,
		batchSize:    cfg.BatchSize,
		storeTimeout: cfg.StoreTimeout,
	}
}

// Run sweeps immediately and then on every interval until ctx is done.
func (s *Sweeper) Run(ctx context.Context) error {
	s.logger.Info("expiry sweeper started", "interval", s.interval, "batch_size", s.batchSize)
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		if _, err := s.ExpireDue(ctx); err != nil && ctx.Err() == nil {
			s.logger.Error("expiry sweep failed", "error", err)
		}
		select {
		case <-ctx.Done():
			s.logger.Info("expiry sweeper stopped")
			return nil
		case <-ticker.C:
		}
	}
}

// ExpireDue runs one pass and returns how many claims it expired. A failure
// on one claim is logged and does not stop the pass.
func (s *Sweeper) ExpireDue(ctx context.Context) (int, error) {
	now := s.clock.Now()

	listCtx, cancel := context.WithTimeout(ctx, s.storeTimeout)
	due, err := s.repo.ListExpiredActiveClaims(listCtx, now, s.batchSize)
	cancel()
	if err != nil {
		return 0, classifyStoreErr(err)
	}

	expired := 0
	for _, claim := range due {
		if ctx.Err() != nil {
			break
		}
		ok, err := s.expireOne(ctx, claim.ID, claim.BuyerRequestID, now)
		if err != nil {
			s.logger.Error("expire claim failed",
				"claim_id", claim.ID,
				"buyer_request_id", claim.BuyerRequestID,
				"error", err,
			)
			continue
		}
		if ok {
			expired++
		}
	}
	if expired > 0 {
		s.logger.Info("expired stale claims", "count", expired)
	}
	return expired, nil
}

func (s *Sweeper) expireOne(ctx context.Context, claimID, buyerRequestID string, now time.Time) (bool, error) {
	var before, after domain.Claim
	skipped := false

	txCtx, cancel := detachedContext(ctx, s.storeTimeout)
	defer cancel()

	err := s.repo.WithTx(txCtx, func(txCtx context.Context) error {
		skipped = false
		if _, err := s.repo.GetBuyerRequestForUpdate(txCtx, buyerRequestID); err != nil {
			return err
		}
		current, err := s.repo.GetClaimForUpdate(txCtx, claimID)
		if err != nil {
			return err
		}
		// Released, already expired, or extended since the listing read.
		if current.Status.Terminal() || current.ExpiresAt.After(now) {
			skipped = true
			return nil
		}
		expired, err := terminateClaim(txCtx, s.repo, current, domain.ClaimStatusExpired, now, current.Notes)
		if err != nil {
			return err
		}
		before, after = current, expired
		return nil
	})
	if err != nil {
		if errors.Is(err, domain.ErrNoActiveClaim) || errors.Is(err, domain.ErrClaimNotFound) {
			return false, nil
		}
		return false, classifyStoreErr(err)
	}
	if skipped {
		return false, nil
	}

	s.audit.record(ctx, domain.AuditEntry{
		ActorID:    sweeperActorID,
		Action:     domain.AuditActionExpire,
		Entity:     auditEntityClaim,
		EntityID:   after.ID,
		BeforeJSON: snapshot(before, domain.BuyerRequestStatusClaimed),
		AfterJSON:  snapshot(after, domain.BuyerRequestStatusOpen),
		CreatedAt:  now,
	})
	return true, nil
}
