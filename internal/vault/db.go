package vault

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/domainpulse/registrar-sync/internal/registrar"
	"github.com/domainpulse/registrar-sync/internal/store"
)

// DBVault reads credentials from the api_credentials table
type DBVault struct {
	pool *pgxpool.Pool
}

// NewDBVault creates a Vault over a pgx connection pool
func NewDBVault(pool *pgxpool.Pool) *DBVault {
	return &DBVault{pool: pool}
}

// Load implements Vault
func (v *DBVault) Load(ctx context.Context, tenant store.Tenant) (*registrar.Credentials, error) {
	var creds registrar.Credentials
	err := v.pool.QueryRow(ctx,
		`SELECT api_url, api_identifier, api_secret
		 FROM api_credentials
		 WHERE company_id = $1 AND user_email = $2`,
		tenant.CompanyID, tenant.UserEmail,
	).Scan(&creds.APIURL, &creds.Identifier, &creds.Secret)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNoCredentials
		}
		return nil, fmt.Errorf("failed to load credentials: %w", err)
	}
	return &creds, nil
}

var _ Vault = (*DBVault)(nil)
