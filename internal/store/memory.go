package store

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/google/uuid"
)

type memoryKey struct {
	companyID string
	userEmail string
	domainID  string
}

// MemoryStore is an in-memory Store mirroring the semantics of DBStore.
// Used by orchestrator and handler tests.
type MemoryStore struct {
	mu          sync.RWMutex
	domains     map[memoryKey]DomainRecord
	nameservers map[memoryKey][]string
	runs        []SyncRun
}

// NewMemoryStore creates an empty in-memory store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		domains:     make(map[memoryKey]DomainRecord),
		nameservers: make(map[memoryKey][]string),
	}
}

func key(tenant Tenant, domainID string) memoryKey {
	return memoryKey{
		companyID: tenant.CompanyID,
		userEmail: tenant.UserEmail,
		domainID:  domainID,
	}
}

// UpsertDomain implements Store
func (m *MemoryStore) UpsertDomain(_ context.Context, record DomainRecord) (UpsertOutcome, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	k := key(record.Tenant, record.DomainID)
	_, exists := m.domains[k]
	m.domains[k] = record
	if exists {
		return OutcomeUpdated, nil
	}
	return OutcomeInserted, nil
}

// UpsertNameservers implements Store
func (m *MemoryStore) UpsertNameservers(_ context.Context, tenant Tenant, domainID string, nameservers []string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.nameservers[key(tenant, domainID)] = append([]string(nil), nameservers...)
	return nil
}

// GetNameservers implements Store
func (m *MemoryStore) GetNameservers(_ context.Context, tenant Tenant, domainID string) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return append([]string(nil), m.nameservers[key(tenant, domainID)]...), nil
}

// AppendSyncRun implements Store
func (m *MemoryStore) AppendSyncRun(_ context.Context, run SyncRun) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if run.ID == uuid.Nil {
		run.ID = uuid.New()
	}
	m.runs = append(m.runs, run)
	return nil
}

// LastSyncRun implements Store
func (m *MemoryStore) LastSyncRun(_ context.Context, tenant Tenant) (*SyncRun, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var last *SyncRun
	for i := range m.runs {
		run := m.runs[i]
		if run.CompanyID != tenant.CompanyID || run.UserEmail != tenant.UserEmail {
			continue
		}
		if last == nil || run.SyncStarted.After(last.SyncStarted) || run.SyncStarted.Equal(last.SyncStarted) {
			last = &run
		}
	}
	if last == nil {
		return nil, ErrNotFound
	}
	out := *last
	return &out, nil
}

// SyncRuns returns all recorded runs for a tenant, oldest first. Test helper.
func (m *MemoryStore) SyncRuns(tenant Tenant) []SyncRun {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []SyncRun
	for _, run := range m.runs {
		if run.CompanyID == tenant.CompanyID && run.UserEmail == tenant.UserEmail {
			out = append(out, run)
		}
	}
	return out
}

// ListDomains implements Store
func (m *MemoryStore) ListDomains(_ context.Context, tenant Tenant, filter DomainFilter) ([]DomainRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []DomainRecord
	for k, rec := range m.domains {
		if k.companyID != tenant.CompanyID || k.userEmail != tenant.UserEmail {
			continue
		}
		if filter.Status != "" && rec.Status != filter.Status {
			continue
		}
		if filter.Registrar != "" && rec.Registrar != filter.Registrar {
			continue
		}
		out = append(out, rec)
	}
	sort.Slice(out, func(i, j int) bool {
		return strings.Compare(out[i].DomainName, out[j].DomainName) < 0
	})
	return out, nil
}

// CountDomains implements Store
func (m *MemoryStore) CountDomains(ctx context.Context, tenant Tenant) (int64, error) {
	domains, err := m.ListDomains(ctx, tenant, DomainFilter{})
	if err != nil {
		return 0, err
	}
	return int64(len(domains)), nil
}

// CountByStatus implements Store
func (m *MemoryStore) CountByStatus(ctx context.Context, tenant Tenant) (map[DomainStatus]int64, error) {
	domains, err := m.ListDomains(ctx, tenant, DomainFilter{})
	if err != nil {
		return nil, err
	}
	out := make(map[DomainStatus]int64)
	for _, rec := range domains {
		out[rec.Status]++
	}
	return out, nil
}

// DistinctRegistrars implements Store
func (m *MemoryStore) DistinctRegistrars(ctx context.Context, tenant Tenant) ([]string, error) {
	domains, err := m.ListDomains(ctx, tenant, DomainFilter{})
	if err != nil {
		return nil, err
	}
	seen := make(map[string]bool)
	var out []string
	for _, rec := range domains {
		if rec.Registrar == "" || seen[rec.Registrar] {
			continue
		}
		seen[rec.Registrar] = true
		out = append(out, rec.Registrar)
	}
	sort.Strings(out)
	return out, nil
}

var _ Store = (*MemoryStore)(nil)
