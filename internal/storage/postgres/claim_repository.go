package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/malhajri07/real-estate-CRM-project-sub000/internal/app"
	"github.com/malhajri07/real-estate-CRM-project-sub000/internal/domain"
)

const buyerRequestColumns = `br.id::text, br.city, br.property_type, br.min_price, br.max_price,
	br.min_bedrooms, br.max_bedrooms, br.contact_preferences, br.status,
	br.masked_contact, br.full_contact, br.created_at, br.updated_at`

const claimColumns = `c.id::text, c.agent_id, c.buyer_request_id::text, c.status,
	c.claimed_at, c.expires_at, c.released_at, c.notes`

// ClaimRepository persists claims, leads and buyer request status changes.
// It serves both the claim service and the expiry sweeper.
type ClaimRepository struct {
	pool *pgxpool.Pool
}

func NewClaimRepository(pool *pgxpool.Pool) *ClaimRepository {
	return &ClaimRepository{pool: pool}
}

func (r *ClaimRepository) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return withTx(ctx, r.pool, fn)
}

func (r *ClaimRepository) GetBuyerRequestForUpdate(ctx context.Context, id string) (domain.BuyerRequest, error) {
	query := `SELECT ` + buyerRequestColumns + ` FROM buyer_requests br WHERE br.id = $1 FOR UPDATE`
	br, err := scanBuyerRequest(conn(ctx, r.pool).QueryRow(ctx, query, id))
	if err != nil {
		if isInvalidUUID(err) {
			return domain.BuyerRequest{}, domain.ErrInvalidID
		}
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.BuyerRequest{}, domain.ErrBuyerRequestNotFound
		}
		return domain.BuyerRequest{}, wrapErr("get buyer request", err)
	}
	return br, nil
}

func (r *ClaimRepository) FindActiveClaimForUpdate(ctx context.Context, buyerRequestID string) (*domain.Claim, error) {
	query := `SELECT ` + claimColumns + ` FROM claims c
WHERE c.buyer_request_id = $1 AND c.status = 'ACTIVE'
FOR UPDATE`
	c, err := scanClaim(conn(ctx, r.pool).QueryRow(ctx, query, buyerRequestID))
	if err != nil {
		if isInvalidUUID(err) {
			return nil, domain.ErrInvalidID
		}
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, wrapErr("find active claim", err)
	}
	return &c, nil
}

func (r *ClaimRepository) GetClaimForUpdate(ctx context.Context, claimID string) (domain.Claim, error) {
	query := `SELECT ` + claimColumns + ` FROM claims c WHERE c.id = $1 FOR UPDATE`
	c, err := scanClaim(conn(ctx, r.pool).QueryRow(ctx, query, claimID))
	if err != nil {
		if isInvalidUUID(err) {
			return domain.Claim{}, domain.ErrInvalidID
		}
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Claim{}, domain.ErrClaimNotFound
		}
		return domain.Claim{}, wrapErr("get claim", err)
	}
	return c, nil
}

// LockAgent takes a transaction-scoped advisory lock keyed by agent id.
func (r *ClaimRepository) LockAgent(ctx context.Context, agentID string) error {
	const stmt = `SELECT pg_advisory_xact_lock(hashtextextended('claim-agent:' || $1, 0))`
	if _, err := conn(ctx, r.pool).Exec(ctx, stmt, agentID); err != nil {
		return wrapErr("lock agent", err)
	}
	return nil
}

func (r *ClaimRepository) CountActiveClaimsByAgent(ctx context.Context, agentID string, now time.Time) (int, error) {
	const query = `
SELECT COUNT(*)
FROM claims
WHERE agent_id = $1 AND status = 'ACTIVE' AND expires_at > $2`

	var n int
	if err := conn(ctx, r.pool).QueryRow(ctx, query, agentID, now).Scan(&n); err != nil {
		return 0, wrapErr("count active claims", err)
	}
	return n, nil
}

// CountClaimsSince counts claims of any status created after since.
func (r *ClaimRepository) CountClaimsSince(ctx context.Context, buyerRequestID string, since time.Time) (int, error) {
	const query = `
SELECT COUNT(*)
FROM claims
WHERE buyer_request_id = $1 AND claimed_at > $2`

	var n int
	if err := conn(ctx, r.pool).QueryRow(ctx, query, buyerRequestID, since).Scan(&n); err != nil {
		if isInvalidUUID(err) {
			return 0, domain.ErrInvalidID
		}
		return 0, wrapErr("count recent claims", err)
	}
	return n, nil
}

func (r *ClaimRepository) CreateClaim(ctx context.Context, claim domain.Claim) error {
	const stmt = `
INSERT INTO claims (id, agent_id, buyer_request_id, status, claimed_at, expires_at, released_at, notes)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

	_, err := conn(ctx, r.pool).Exec(ctx, stmt,
		claim.ID,
		claim.AgentID,
		claim.BuyerRequestID,
		claim.Status,
		claim.ClaimedAt,
		claim.ExpiresAt,
		claim.ReleasedAt,
		claim.Notes,
	)
	if err != nil {
		switch {
		case isUniqueViolation(err):
			return domain.ErrAlreadyClaimed
		case isForeignKeyViolation(err):
			return domain.ErrBuyerRequestNotFound
		case isInvalidUUID(err):
			return domain.ErrInvalidID
		}
		return wrapErr("create claim", err)
	}
	return nil
}

func (r *ClaimRepository) CreateLead(ctx context.Context, lead domain.Lead) error {
	const stmt = `
INSERT INTO leads (id, agent_id, buyer_request_id, status, created_at)
VALUES ($1, $2, $3, $4, $5)`

	_, err := conn(ctx, r.pool).Exec(ctx, stmt, lead.ID, lead.AgentID, lead.BuyerRequestID, lead.Status, lead.CreatedAt)
	if err != nil {
		if isForeignKeyViolation(err) {
			return domain.ErrBuyerRequestNotFound
		}
		return wrapErr("create lead", err)
	}
	return nil
}

func (r *ClaimRepository) TerminateClaim(ctx context.Context, claimID string, status domain.ClaimStatus, releasedAt *time.Time, notes string) (bool, error) {
	const stmt = `
UPDATE claims
SET status = $2, released_at = $3, notes = $4
WHERE id = $1 AND status = 'ACTIVE'`

	tag, err := conn(ctx, r.pool).Exec(ctx, stmt, claimID, status, releasedAt, notes)
	if err != nil {
		if isInvalidUUID(err) {
			return false, domain.ErrInvalidID
		}
		return false, wrapErr("terminate claim", err)
	}
	return tag.RowsAffected() == 1, nil
}

func (r *ClaimRepository) CompareAndSetBuyerRequestStatus(ctx context.Context, id string, from, to domain.BuyerRequestStatus, at time.Time) (bool, error) {
	const stmt = `
UPDATE buyer_requests
SET status = $3, updated_at = $4
WHERE id = $1 AND status = $2`

	tag, err := conn(ctx, r.pool).Exec(ctx, stmt, id, from, to, at)
	if err != nil {
		if isInvalidUUID(err) {
			return false, domain.ErrInvalidID
		}
		return false, wrapErr("update buyer request status", err)
	}
	return tag.RowsAffected() == 1, nil
}

func (r *ClaimRepository) ListActiveClaimsByAgent(ctx context.Context, agentID string, now time.Time) ([]app.ClaimWithRequest, error) {
	query := `SELECT ` + claimColumns + `, ` + buyerRequestColumns + `
FROM claims c
JOIN buyer_requests br ON br.id = c.buyer_request_id
WHERE c.agent_id = $1 AND c.status = 'ACTIVE' AND c.expires_at > $2
ORDER BY c.claimed_at DESC, c.id`

	rows, err := conn(ctx, r.pool).Query(ctx, query, agentID, now)
	if err != nil {
		return nil, wrapErr("list agent claims", err)
	}
	defer rows.Close()

	var out []app.ClaimWithRequest
	for rows.Next() {
		var (
			item app.ClaimWithRequest
			c    = &item.Claim
			br   = &item.Request
		)
		err := rows.Scan(
			&c.ID, &c.AgentID, &c.BuyerRequestID, &c.Status, &c.ClaimedAt, &c.ExpiresAt, &c.ReleasedAt, &c.Notes,
			&br.ID, &br.City, &br.PropertyType, &br.MinPrice, &br.MaxPrice, &br.MinBedrooms, &br.MaxBedrooms,
			&br.ContactPreferences, &br.Status, &br.MaskedContact, &br.FullContact, &br.CreatedAt, &br.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan agent claim: %w", err)
		}
		out = append(out, item)
	}
	if err := rows.Err(); err != nil {
		return nil, wrapErr("iterate agent claims", err)
	}
	return out, nil
}

func (r *ClaimRepository) ListExpiredActiveClaims(ctx context.Context, now time.Time, limit int) ([]domain.Claim, error) {
	query := `SELECT ` + claimColumns + ` FROM claims c
WHERE c.status = 'ACTIVE' AND c.expires_at <= $1
ORDER BY c.expires_at, c.id
LIMIT $2`

	rows, err := conn(ctx, r.pool).Query(ctx, query, now, limit)
	if err != nil {
		return nil, wrapErr("list expired claims", err)
	}
	defer rows.Close()

	var out []domain.Claim
	for rows.Next() {
		c, err := scanClaim(rows)
		if err != nil {
			return nil, fmt.Errorf("scan expired claim: %w", err)
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, wrapErr("iterate expired claims", err)
	}
	return out, nil
}

func scanBuyerRequest(row pgx.Row) (domain.BuyerRequest, error) {
	var br domain.BuyerRequest
	err := row.Scan(
		&br.ID, &br.City, &br.PropertyType, &br.MinPrice, &br.MaxPrice, &br.MinBedrooms, &br.MaxBedrooms,
		&br.ContactPreferences, &br.Status, &br.MaskedContact, &br.FullContact, &br.CreatedAt, &br.UpdatedAt,
	)
	return br, err
}

func scanClaim(row pgx.Row) (domain.Claim, error) {
	var c domain.Claim
	err := row.Scan(&c.ID, &c.AgentID, &c.BuyerRequestID, &c.Status, &c.ClaimedAt, &c.ExpiresAt, &c.ReleasedAt, &c.Notes)
	return c, err
}
