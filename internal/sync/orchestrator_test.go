package sync

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/domainpulse/registrar-sync/internal/registrar"
	"github.com/domainpulse/registrar-sync/internal/store"
	"github.com/domainpulse/registrar-sync/internal/sync/mocks"
	"github.com/domainpulse/registrar-sync/internal/vault"
)

var (
	testTenant = store.Tenant{CompanyID: "acme", UserEmail: "ops@acme.test"}
	testCreds  = registrar.Credentials{
		APIURL:     "https://billing.acme.test/includes/api.php",
		Identifier: "ident",
		Secret:     "secret",
	}
)

// fakeVault serves fixed credentials for every tenant
type fakeVault struct {
	err error
}

func (f *fakeVault) Load(_ context.Context, _ store.Tenant) (*registrar.Credentials, error) {
	if f.err != nil {
		return nil, f.err
	}
	creds := testCreds
	return &creds, nil
}

// fakeUpstream serves pages out of a fixed portfolio slice and resolves
// nameservers from a per-domain map; names listed in failing get the
// exhausted-fallback error instead
type fakeUpstream struct {
	portfolio   []registrar.Domain
	nameservers map[string][]string
	failing     map[string]bool
}

func (f *fakeUpstream) ListDomains(_ context.Context, _ registrar.Credentials, limitStart, limitNum int) ([]registrar.Domain, error) {
	if limitStart >= len(f.portfolio) {
		return nil, nil
	}
	end := limitStart + limitNum
	if end > len(f.portfolio) {
		end = len(f.portfolio)
	}
	return f.portfolio[limitStart:end], nil
}

func (f *fakeUpstream) LookupNameservers(_ context.Context, _ registrar.Credentials, dom registrar.Domain) ([]string, error) {
	if f.failing[dom.Name] {
		return nil, &registrar.UpstreamError{
			Kind:    registrar.KindNameserverUnavailable,
			Message: "all nameserver actions failed",
		}
	}
	return f.nameservers[dom.Name], nil
}

func makePortfolio(n int) []registrar.Domain {
	domains := make([]registrar.Domain, 0, n)
	for i := 1; i <= n; i++ {
		domains = append(domains, registrar.Domain{
			ID:        fmt.Sprintf("%d", i),
			Name:      fmt.Sprintf("domain-%03d.com", i),
			Registrar: "enom",
			Status:    registrar.StatusActive,
		})
	}
	return domains
}

func TestRunBatchSyncsPage(t *testing.T) {
	t.Parallel()

	upstream := &fakeUpstream{
		portfolio: makePortfolio(3),
		nameservers: map[string][]string{
			"domain-001.com": {"ns1.dns.test", "ns2.dns.test"},
			"domain-002.com": {"ns1.dns.test"},
			"domain-003.com": {"ns3.dns.test", "ns4.dns.test"},
		},
	}
	memStore := store.NewMemoryStore()
	orch := NewOrchestrator(&fakeVault{}, upstream, memStore)

	result, err := orch.RunBatch(context.Background(), testTenant, 1, 25)
	require.NoError(t, err)

	assert.Equal(t, 3, result.DomainsFound)
	assert.Equal(t, 3, result.DomainsProcessed)
	assert.Equal(t, 3, result.DomainsAdded)
	assert.Equal(t, 0, result.DomainsUpdated)
	assert.Equal(t, 0, result.Errors)
	assert.True(t, result.Done)

	ns, err := memStore.GetNameservers(context.Background(), testTenant, "1")
	require.NoError(t, err)
	assert.Equal(t, []string{"ns1.dns.test", "ns2.dns.test"}, ns)

	runs := memStore.SyncRuns(testTenant)
	require.Len(t, runs, 1)
	assert.Equal(t, store.RunStatusCompleted, runs[0].Status)
	assert.Equal(t, 3, runs[0].DomainsFound)
	assert.Equal(t, 3, runs[0].DomainsAdded)
}

func TestRunBatchIdempotent(t *testing.T) {
	t.Parallel()

	upstream := &fakeUpstream{portfolio: makePortfolio(3)}
	memStore := store.NewMemoryStore()
	orch := NewOrchestrator(&fakeVault{}, upstream, memStore)

	_, err := orch.RunBatch(context.Background(), testTenant, 1, 25)
	require.NoError(t, err)

	// Re-running the same batch converges: every record updates in place
	result, err := orch.RunBatch(context.Background(), testTenant, 1, 25)
	require.NoError(t, err)
	assert.Equal(t, 0, result.DomainsAdded)
	assert.Equal(t, 3, result.DomainsUpdated)

	count, err := memStore.CountDomains(context.Background(), testTenant)
	require.NoError(t, err)
	assert.Equal(t, int64(3), count)
}

func TestRunBatchPaginationTermination(t *testing.T) {
	t.Parallel()

	// 23 domains at batch size 10: two full pages, then a short final page
	upstream := &fakeUpstream{portfolio: makePortfolio(23)}
	memStore := store.NewMemoryStore()
	orch := NewOrchestrator(&fakeVault{}, upstream, memStore)

	ctx := context.Background()

	for batch := 1; batch <= 2; batch++ {
		result, err := orch.RunBatch(ctx, testTenant, batch, 10)
		require.NoError(t, err)
		assert.Equal(t, 10, result.DomainsFound, "batch %d", batch)
		assert.False(t, result.Done, "batch %d", batch)
	}

	result, err := orch.RunBatch(ctx, testTenant, 3, 10)
	require.NoError(t, err)
	assert.Equal(t, 3, result.DomainsFound)
	assert.True(t, result.Done)

	count, err := memStore.CountDomains(ctx, testTenant)
	require.NoError(t, err)
	assert.Equal(t, int64(23), count)
}

func TestRunBatchEmptyPage(t *testing.T) {
	t.Parallel()

	upstream := &fakeUpstream{portfolio: makePortfolio(5)}
	memStore := store.NewMemoryStore()
	orch := NewOrchestrator(&fakeVault{}, upstream, memStore)

	// Past the end of the portfolio: an empty completed batch, done
	result, err := orch.RunBatch(context.Background(), testTenant, 4, 5)
	require.NoError(t, err)
	assert.Equal(t, 0, result.DomainsFound)
	assert.Equal(t, 0, result.DomainsProcessed)
	assert.True(t, result.Done)

	runs := memStore.SyncRuns(testTenant)
	require.Len(t, runs, 1)
	assert.Equal(t, store.RunStatusCompleted, runs[0].Status)
}

func TestRunBatchEnrichmentFailureIsPartial(t *testing.T) {
	t.Parallel()

	upstream := &fakeUpstream{
		portfolio: makePortfolio(3),
		nameservers: map[string][]string{
			"domain-001.com": {"ns1.dns.test"},
			"domain-003.com": {"ns1.dns.test"},
		},
		failing: map[string]bool{"domain-002.com": true},
	}
	memStore := store.NewMemoryStore()
	orch := NewOrchestrator(&fakeVault{}, upstream, memStore)

	result, err := orch.RunBatch(context.Background(), testTenant, 1, 25)
	require.NoError(t, err)

	// The failed lookup counts once; the record itself is still upserted
	assert.Equal(t, 1, result.Errors)
	assert.Equal(t, 3, result.DomainsProcessed)
	assert.Equal(t, 3, result.DomainsAdded)

	domains, err := memStore.ListDomains(context.Background(), testTenant, store.DomainFilter{})
	require.NoError(t, err)
	assert.Len(t, domains, 3)

	ns, err := memStore.GetNameservers(context.Background(), testTenant, "2")
	require.NoError(t, err)
	assert.Empty(t, ns)

	runs := memStore.SyncRuns(testTenant)
	require.Len(t, runs, 1)
	assert.Equal(t, store.RunStatusCompleted, runs[0].Status)
	assert.Equal(t, 1, runs[0].Errors)
}

func TestRunBatchListingFailure(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	upstream := mocks.NewMockUpstreamAPI(ctrl)
	upstream.EXPECT().
		ListDomains(gomock.Any(), testCreds, 0, 25).
		Return(nil, &registrar.UpstreamError{
			Kind:    registrar.KindUnreachable,
			Action:  registrar.ActionListDomains,
			Message: "connection refused",
		})

	memStore := store.NewMemoryStore()
	orch := NewOrchestrator(&fakeVault{}, upstream, memStore)

	_, err := orch.RunBatch(context.Background(), testTenant, 1, 25)
	require.Error(t, err)
	assert.True(t, registrar.IsKind(err, registrar.KindUnreachable))

	// No records written, one failed audit row
	count, err := memStore.CountDomains(context.Background(), testTenant)
	require.NoError(t, err)
	assert.Equal(t, int64(0), count)

	runs := memStore.SyncRuns(testTenant)
	require.Len(t, runs, 1)
	assert.Equal(t, store.RunStatusFailed, runs[0].Status)
	assert.NotEmpty(t, runs[0].ErrorMessage)
}

func TestRunBatchMissingCredentials(t *testing.T) {
	t.Parallel()

	memStore := store.NewMemoryStore()
	orch := NewOrchestrator(&fakeVault{err: vault.ErrNoCredentials}, &fakeUpstream{}, memStore)

	_, err := orch.RunBatch(context.Background(), testTenant, 1, 25)
	assert.ErrorIs(t, err, vault.ErrNoCredentials)

	runs := memStore.SyncRuns(testTenant)
	require.Len(t, runs, 1)
	assert.Equal(t, store.RunStatusFailed, runs[0].Status)
	assert.Contains(t, runs[0].ErrorMessage, "credentials")
}

func TestRunBatchValidatesInput(t *testing.T) {
	t.Parallel()

	memStore := store.NewMemoryStore()
	orch := NewOrchestrator(&fakeVault{}, &fakeUpstream{}, memStore)

	_, err := orch.RunBatch(context.Background(), testTenant, 0, 25)
	require.Error(t, err)

	_, err = orch.RunBatch(context.Background(), testTenant, 1, 0)
	require.Error(t, err)

	// Validation failures never reach the audit log
	assert.Empty(t, memStore.SyncRuns(testTenant))
}

func TestRunBatchOffsetsFollowBatchNumber(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	upstream := mocks.NewMockUpstreamAPI(ctrl)
	upstream.EXPECT().
		ListDomains(gomock.Any(), testCreds, 40, 20).
		Return(nil, nil)

	orch := NewOrchestrator(&fakeVault{}, upstream, store.NewMemoryStore())

	result, err := orch.RunBatch(context.Background(), testTenant, 3, 20)
	require.NoError(t, err)
	assert.True(t, result.Done)
}

func TestRunBatchRecordsSyncStart(t *testing.T) {
	t.Parallel()

	started := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	upstream := &fakeUpstream{portfolio: makePortfolio(1)}
	memStore := store.NewMemoryStore()
	orch := NewOrchestrator(&fakeVault{}, upstream, memStore,
		withClock(func() time.Time { return started }))

	_, err := orch.RunBatch(context.Background(), testTenant, 1, 25)
	require.NoError(t, err)

	runs := memStore.SyncRuns(testTenant)
	require.Len(t, runs, 1)
	assert.Equal(t, started, runs[0].SyncStarted)

	domains, err := memStore.ListDomains(context.Background(), testTenant, store.DomainFilter{})
	require.NoError(t, err)
	require.Len(t, domains, 1)
	assert.Equal(t, started, domains[0].LastSynced)
}

func TestLastRunPassesThrough(t *testing.T) {
	t.Parallel()

	memStore := store.NewMemoryStore()
	orch := NewOrchestrator(&fakeVault{}, &fakeUpstream{}, memStore)

	_, err := orch.LastRun(context.Background(), testTenant)
	assert.ErrorIs(t, err, store.ErrNotFound)

	require.NoError(t, memStore.AppendSyncRun(context.Background(), store.SyncRun{
		Tenant:      testTenant,
		BatchNumber: 7,
		Status:      store.RunStatusCompleted,
		SyncStarted: time.Now(),
	}))

	last, err := orch.LastRun(context.Background(), testTenant)
	require.NoError(t, err)
	assert.Equal(t, 7, last.BatchNumber)
}
