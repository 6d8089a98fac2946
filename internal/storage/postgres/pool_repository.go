package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/malhajri07/real-estate-CRM-project-sub000/internal/app"
	"github.com/malhajri07/real-estate-CRM-project-sub000/internal/domain"
)

// poolFrom selects requests nobody holds plus the ones the caller holds.
// A CLAIMED request whose claim lapsed is listed as OPEN until it is swept.
const poolFrom = `
FROM buyer_requests br
LEFT JOIN LATERAL (
	SELECT lc.agent_id
	FROM claims lc
	WHERE lc.buyer_request_id = br.id AND lc.status = 'ACTIVE' AND lc.expires_at > $2
) live ON TRUE
WHERE (live.agent_id IS NULL OR live.agent_id = $1)
	AND ($3::text IS NULL OR lower(br.city) = lower($3))
	AND ($4::text IS NULL OR br.property_type = $4)
	AND ($5::bigint IS NULL OR br.max_price IS NULL OR br.max_price >= $5)
	AND ($6::bigint IS NULL OR br.min_price IS NULL OR br.min_price <= $6)
	AND ($7::int IS NULL OR br.max_bedrooms IS NULL OR br.max_bedrooms >= $7)
	AND ($8::int IS NULL OR br.min_bedrooms IS NULL OR br.min_bedrooms <= $8)`

type PoolRepository struct {
	pool *pgxpool.Pool
}

func NewPoolRepository(pool *pgxpool.Pool) *PoolRepository {
	return &PoolRepository{pool: pool}
}

// SearchBuyerRequests returns one page of matches, newest first, and the
// total match count.
func (r *PoolRepository) SearchBuyerRequests(ctx context.Context, q app.PoolQuery) ([]app.PoolRow, int, error) {
	args := []any{
		q.CallerID,
		q.Now,
		optionalText(q.Filters.City),
		optionalText(q.Filters.PropertyType),
		q.Filters.MinPrice,
		q.Filters.MaxPrice,
		q.Filters.MinBedrooms,
		q.Filters.MaxBedrooms,
	}

	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*)`+poolFrom, args...).Scan(&total); err != nil {
		return nil, 0, wrapErr("count buyer requests", err)
	}
	if total == 0 || q.Offset >= total {
		return []app.PoolRow{}, total, nil
	}

	query := `SELECT ` + buyerRequestColumns + `, live.agent_id IS NOT NULL` + poolFrom + `
ORDER BY br.created_at DESC, br.id
LIMIT $9 OFFSET $10`
	rows, err := r.pool.Query(ctx, query, append(args, q.Limit, q.Offset)...)
	if err != nil {
		return nil, 0, wrapErr("search buyer requests", err)
	}
	defer rows.Close()

	out := make([]app.PoolRow, 0, q.Limit)
	for rows.Next() {
		var (
			row app.PoolRow
			br  = &row.Request
		)
		err := rows.Scan(
			&br.ID, &br.City, &br.PropertyType, &br.MinPrice, &br.MaxPrice, &br.MinBedrooms, &br.MaxBedrooms,
			&br.ContactPreferences, &br.Status, &br.MaskedContact, &br.FullContact, &br.CreatedAt, &br.UpdatedAt,
			&row.HasActiveClaim,
		)
		if err != nil {
			return nil, 0, fmt.Errorf("scan buyer request: %w", err)
		}
		if !row.HasActiveClaim {
			br.Status = domain.BuyerRequestStatusOpen
		}
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, wrapErr("iterate buyer requests", err)
	}
	return out, total, nil
}

func optionalText(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
