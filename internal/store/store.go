// Package store provides tenant-scoped persistence for mirrored domains,
// nameserver sets, and the sync run audit log.
package store

import (
	"context"
	"errors"
)

// ErrNotFound is returned when a requested record does not exist
var ErrNotFound = errors.New("record not found")

// Store is the persistence contract. Every operation is scoped by the
// tenant embedded in its arguments; implementations must keep the tenant
// key in every predicate and unique constraint.
type Store interface {
	// UpsertDomain inserts the record or updates the existing row matched
	// on (tenant, domain_id), bumping last_synced and batch_number. The
	// returned outcome reports which of the two happened.
	UpsertDomain(ctx context.Context, record DomainRecord) (UpsertOutcome, error)

	// UpsertNameservers replaces the full nameserver set for a domain.
	// Replacement is a full overwrite, not a merge.
	UpsertNameservers(ctx context.Context, tenant Tenant, domainID string, nameservers []string) error

	// GetNameservers returns the ordered nameserver set for a domain
	GetNameservers(ctx context.Context, tenant Tenant, domainID string) ([]string, error)

	// AppendSyncRun appends one audit row. Rows are insert-only and carry a
	// terminal status; they are never updated afterwards.
	AppendSyncRun(ctx context.Context, run SyncRun) error

	// LastSyncRun returns the most recent run for a tenant by sync_started,
	// or ErrNotFound when the tenant has none. Duplicate batch numbers are
	// possible (client retries); recency wins.
	LastSyncRun(ctx context.Context, tenant Tenant) (*SyncRun, error)

	// ListDomains returns the tenant's domains matching the filter,
	// ordered by domain name
	ListDomains(ctx context.Context, tenant Tenant, filter DomainFilter) ([]DomainRecord, error)

	// CountDomains returns the tenant's total domain count
	CountDomains(ctx context.Context, tenant Tenant) (int64, error)

	// CountByStatus returns domain counts grouped by status
	CountByStatus(ctx context.Context, tenant Tenant) (map[DomainStatus]int64, error)

	// DistinctRegistrars returns the tenant's registrars, sorted
	DistinctRegistrars(ctx context.Context, tenant Tenant) ([]string, error)
}
