package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// DBStore is the Postgres-backed Store
type DBStore struct {
	pool *pgxpool.Pool
}

// NewDBStore creates a Store over a pgx connection pool
func NewDBStore(pool *pgxpool.Pool) *DBStore {
	return &DBStore{pool: pool}
}

const upsertDomainQuery = `
INSERT INTO domains (
    company_id, user_email, domain_id, domain_name, registrar, status,
    expiry_date, batch_number, last_synced
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
ON CONFLICT (company_id, user_email, domain_id) DO UPDATE SET
    domain_name  = EXCLUDED.domain_name,
    registrar    = EXCLUDED.registrar,
    status       = EXCLUDED.status,
    expiry_date  = EXCLUDED.expiry_date,
    batch_number = EXCLUDED.batch_number,
    last_synced  = EXCLUDED.last_synced
RETURNING (xmax = 0) AS inserted
`

// UpsertDomain implements Store. The upsert is a single atomic statement
// keyed by the tenant-scoped unique constraint, so concurrent duplicate
// batches cannot produce duplicate rows; xmax tells insert from update.
func (d *DBStore) UpsertDomain(ctx context.Context, record DomainRecord) (UpsertOutcome, error) {
	var inserted bool
	err := d.pool.QueryRow(ctx, upsertDomainQuery,
		record.CompanyID,
		record.UserEmail,
		record.DomainID,
		record.DomainName,
		record.Registrar,
		string(record.Status),
		record.ExpiryDate,
		record.BatchNumber,
		record.LastSynced,
	).Scan(&inserted)
	if err != nil {
		return "", fmt.Errorf("failed to upsert domain %s: %w", record.DomainName, err)
	}

	if inserted {
		return OutcomeInserted, nil
	}
	return OutcomeUpdated, nil
}

// UpsertNameservers implements Store with a delete-and-insert inside one
// transaction: the set is replaced wholesale, never merged.
func (d *DBStore) UpsertNameservers(ctx context.Context, tenant Tenant, domainID string, nameservers []string) error {
	tx, err := d.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck // rollback after commit is a no-op

	_, err = tx.Exec(ctx,
		`DELETE FROM nameservers WHERE company_id = $1 AND user_email = $2 AND domain_id = $3`,
		tenant.CompanyID, tenant.UserEmail, domainID,
	)
	if err != nil {
		return fmt.Errorf("failed to clear nameservers: %w", err)
	}

	for i, hostname := range nameservers {
		_, err = tx.Exec(ctx,
			`INSERT INTO nameservers (company_id, user_email, domain_id, position, hostname)
			 VALUES ($1, $2, $3, $4, $5)`,
			tenant.CompanyID, tenant.UserEmail, domainID, i+1, hostname,
		)
		if err != nil {
			return fmt.Errorf("failed to insert nameserver %s: %w", hostname, err)
		}
	}

	return tx.Commit(ctx)
}

// GetNameservers implements Store
func (d *DBStore) GetNameservers(ctx context.Context, tenant Tenant, domainID string) ([]string, error) {
	rows, err := d.pool.Query(ctx,
		`SELECT hostname FROM nameservers
		 WHERE company_id = $1 AND user_email = $2 AND domain_id = $3
		 ORDER BY position`,
		tenant.CompanyID, tenant.UserEmail, domainID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query nameservers: %w", err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var hostname string
		if err := rows.Scan(&hostname); err != nil {
			return nil, err
		}
		out = append(out, hostname)
	}
	return out, rows.Err()
}

// AppendSyncRun implements Store
func (d *DBStore) AppendSyncRun(ctx context.Context, run SyncRun) error {
	id := run.ID
	if id == uuid.Nil {
		id = uuid.New()
	}

	var errorMessage *string
	if run.ErrorMessage != "" {
		errorMessage = &run.ErrorMessage
	}

	_, err := d.pool.Exec(ctx,
		`INSERT INTO sync_runs (
		    id, company_id, user_email, batch_number, status,
		    domains_found, domains_processed, domains_added, domains_updated,
		    errors, sync_started, error_message
		 ) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
		id, run.CompanyID, run.UserEmail, run.BatchNumber, string(run.Status),
		run.DomainsFound, run.DomainsProcessed, run.DomainsAdded, run.DomainsUpdated,
		run.Errors, run.SyncStarted, errorMessage,
	)
	if err != nil {
		return fmt.Errorf("failed to append sync run: %w", err)
	}
	return nil
}

// LastSyncRun implements Store. Ties on sync_started (duplicate retried
// batches) are broken by id for a deterministic answer.
func (d *DBStore) LastSyncRun(ctx context.Context, tenant Tenant) (*SyncRun, error) {
	var (
		run          SyncRun
		status       string
		errorMessage *string
	)
	err := d.pool.QueryRow(ctx,
		`SELECT id, company_id, user_email, batch_number, status,
		        domains_found, domains_processed, domains_added, domains_updated,
		        errors, sync_started, error_message
		 FROM sync_runs
		 WHERE company_id = $1 AND user_email = $2
		 ORDER BY sync_started DESC, id DESC
		 LIMIT 1`,
		tenant.CompanyID, tenant.UserEmail,
	).Scan(
		&run.ID, &run.CompanyID, &run.UserEmail, &run.BatchNumber, &status,
		&run.DomainsFound, &run.DomainsProcessed, &run.DomainsAdded, &run.DomainsUpdated,
		&run.Errors, &run.SyncStarted, &errorMessage,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to query last sync run: %w", err)
	}

	run.Status = RunStatus(status)
	if errorMessage != nil {
		run.ErrorMessage = *errorMessage
	}
	return &run, nil
}

// ListDomains implements Store
func (d *DBStore) ListDomains(ctx context.Context, tenant Tenant, filter DomainFilter) ([]DomainRecord, error) {
	query := `SELECT company_id, user_email, domain_id, domain_name, registrar,
	                 status, expiry_date, batch_number, last_synced
	          FROM domains
	          WHERE company_id = $1 AND user_email = $2`
	args := []any{tenant.CompanyID, tenant.UserEmail}

	if filter.Status != "" {
		args = append(args, string(filter.Status))
		query += fmt.Sprintf(" AND status = $%d", len(args))
	}
	if filter.Registrar != "" {
		args = append(args, filter.Registrar)
		query += fmt.Sprintf(" AND registrar = $%d", len(args))
	}
	query += " ORDER BY domain_name"

	rows, err := d.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query domains: %w", err)
	}
	defer rows.Close()

	var out []DomainRecord
	for rows.Next() {
		var (
			rec    DomainRecord
			status string
		)
		if err := rows.Scan(
			&rec.CompanyID, &rec.UserEmail, &rec.DomainID, &rec.DomainName,
			&rec.Registrar, &status, &rec.ExpiryDate, &rec.BatchNumber, &rec.LastSynced,
		); err != nil {
			return nil, err
		}
		rec.Status = DomainStatus(status)
		out = append(out, rec)
	}
	return out, rows.Err()
}

// CountDomains implements Store
func (d *DBStore) CountDomains(ctx context.Context, tenant Tenant) (int64, error) {
	var count int64
	err := d.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM domains WHERE company_id = $1 AND user_email = $2`,
		tenant.CompanyID, tenant.UserEmail,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count domains: %w", err)
	}
	return count, nil
}

// CountByStatus implements Store
func (d *DBStore) CountByStatus(ctx context.Context, tenant Tenant) (map[DomainStatus]int64, error) {
	rows, err := d.pool.Query(ctx,
		`SELECT status, COUNT(*) FROM domains
		 WHERE company_id = $1 AND user_email = $2
		 GROUP BY status`,
		tenant.CompanyID, tenant.UserEmail,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to count domains by status: %w", err)
	}
	defer rows.Close()

	out := make(map[DomainStatus]int64)
	for rows.Next() {
		var (
			status string
			count  int64
		)
		if err := rows.Scan(&status, &count); err != nil {
			return nil, err
		}
		out[DomainStatus(status)] = count
	}
	return out, rows.Err()
}

// DistinctRegistrars implements Store
func (d *DBStore) DistinctRegistrars(ctx context.Context, tenant Tenant) ([]string, error) {
	rows, err := d.pool.Query(ctx,
		`SELECT DISTINCT registrar FROM domains
		 WHERE company_id = $1 AND user_email = $2 AND registrar <> ''
		 ORDER BY registrar`,
		tenant.CompanyID, tenant.UserEmail,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query registrars: %w", err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var registrar string
		if err := rows.Scan(&registrar); err != nil {
			return nil, err
		}
		out = append(out, registrar)
	}
	return out, rows.Err()
}

var _ Store = (*DBStore)(nil)
