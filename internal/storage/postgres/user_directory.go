package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/malhajri07/real-estate-CRM-project-sub000/internal/domain"
	"github.com/malhajri07/real-estate-CRM-project-sub000/internal/identity"
)

// UserDirectory resolves callers from the users table.
type UserDirectory struct {
	pool *pgxpool.Pool
}

func NewUserDirectory(pool *pgxpool.Pool) *UserDirectory {
	return &UserDirectory{pool: pool}
}

func (d *UserDirectory) Resolve(ctx context.Context, userID string) (identity.Principal, error) {
	if userID == "" {
		return identity.Principal{}, domain.ErrUnauthenticated
	}

	const query = `SELECT organization_id, roles FROM users WHERE id = $1 AND is_active`
	var (
		org   *string
		roles []string
	)
	if err := conn(ctx, d.pool).QueryRow(ctx, query, userID).Scan(&org, &roles); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return identity.Principal{}, domain.ErrUnauthenticated
		}
		return identity.Principal{}, wrapErr("resolve user", err)
	}

	p := identity.Principal{
		UserID:       userID,
		Capabilities: identity.CapabilitiesFromRoles(roles),
	}
	if org != nil {
		p.OrganizationID = *org
	}
	return p, nil
}
