// Package sync drives batch synchronization of a tenant's domain portfolio
// from the upstream registrar API into the local store.
//
// One RunBatch invocation processes exactly one page. Orchestration state
// that spans batches lives entirely in the store: the resume cursor is a
// pure function of the last audit row, so the process holds no required
// in-memory state between invocations and a crashed batch is simply re-run
// under the same batch number, which the idempotent upserts make safe.
package sync

import (
	"context"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/domainpulse/registrar-sync/internal/logger"
	"github.com/domainpulse/registrar-sync/internal/registrar"
	"github.com/domainpulse/registrar-sync/internal/store"
	"github.com/domainpulse/registrar-sync/internal/telemetry"
	"github.com/domainpulse/registrar-sync/internal/vault"
)

// defaultEnrichmentConcurrency bounds the per-batch nameserver worker pool
const defaultEnrichmentConcurrency = 4

//go:generate mockgen -destination=mocks/mock_upstream.go -package=mocks -source=orchestrator.go UpstreamAPI

// UpstreamAPI is the slice of the registrar adapter the orchestrator needs
type UpstreamAPI interface {
	// ListDomains fetches one page of the tenant's portfolio
	ListDomains(ctx context.Context, creds registrar.Credentials, limitStart, limitNum int) ([]registrar.Domain, error)

	// LookupNameservers resolves one domain's nameserver set via the
	// fallback chain
	LookupNameservers(ctx context.Context, creds registrar.Credentials, dom registrar.Domain) ([]string, error)
}

var _ UpstreamAPI = (*registrar.API)(nil)

// BatchResult is the outcome of one RunBatch invocation
type BatchResult struct {
	DomainsFound     int  `json:"domains_found"`
	DomainsProcessed int  `json:"domains_processed"`
	DomainsAdded     int  `json:"domains_added"`
	DomainsUpdated   int  `json:"domains_updated"`
	Errors           int  `json:"errors"`
	// Done signals the external caller to stop requesting further batches:
	// the page came back short, so the portfolio is exhausted
	Done bool `json:"done"`
}

// Option configures an Orchestrator
type Option func(*Orchestrator)

// WithEnrichmentConcurrency sets the bounded worker pool size for
// per-item nameserver enrichment
func WithEnrichmentConcurrency(n int) Option {
	return func(o *Orchestrator) {
		if n > 0 {
			o.concurrency = n
		}
	}
}

// withClock overrides the time source. Test hook.
func withClock(now func() time.Time) Option {
	return func(o *Orchestrator) {
		o.now = now
	}
}

// Orchestrator coordinates the credential vault, the (cached) upstream API,
// and the store for one batch at a time
type Orchestrator struct {
	vault       vault.Vault
	upstream    UpstreamAPI
	store       store.Store
	concurrency int
	now         func() time.Time
}

// NewOrchestrator creates an Orchestrator
func NewOrchestrator(v vault.Vault, upstream UpstreamAPI, s store.Store, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		vault:       v,
		upstream:    upstream,
		store:       s,
		concurrency: defaultEnrichmentConcurrency,
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// accumulator collects per-batch counters across enrichment workers
type accumulator struct {
	mu        sync.Mutex
	processed int
	added     int
	updated   int
	errors    int
}

func (a *accumulator) recordOutcome(outcome store.UpsertOutcome) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.processed++
	switch outcome {
	case store.OutcomeInserted:
		a.added++
	case store.OutcomeUpdated:
		a.updated++
	}
}

func (a *accumulator) recordError() {
	a.mu.Lock()
	a.errors++
	a.mu.Unlock()
	telemetry.EnrichmentErrorsTotal.Inc()
}

// RunBatch synchronizes one page of the tenant's portfolio. A listing-level
// failure finalizes a failed audit row and aborts with no record writes;
// per-item failures are recovered locally and only counted. The batch
// always finalizes exactly one audit row with a terminal status.
func (o *Orchestrator) RunBatch(ctx context.Context, tenant store.Tenant, batchNumber, batchSize int) (*BatchResult, error) {
	if batchNumber < 1 {
		return nil, fmt.Errorf("batch number must be >= 1, got %d", batchNumber)
	}
	if batchSize < 1 {
		return nil, fmt.Errorf("batch size must be > 0, got %d", batchSize)
	}

	syncStarted := o.now()

	creds, err := o.vault.Load(ctx, tenant)
	if err != nil {
		o.finalizeFailed(ctx, tenant, batchNumber, syncStarted, fmt.Sprintf("failed to load credentials: %v", err))
		return nil, err
	}

	offset := (batchNumber - 1) * batchSize
	domains, err := o.upstream.ListDomains(ctx, *creds, offset, batchSize)
	if err != nil {
		logger.Errorf("Domain listing failed for %s/%s batch %d: %v",
			tenant.CompanyID, tenant.UserEmail, batchNumber, err)
		o.finalizeFailed(ctx, tenant, batchNumber, syncStarted, err.Error())
		return nil, err
	}

	acc := &accumulator{}
	o.processPage(ctx, tenant, *creds, domains, batchNumber, acc)

	run := store.SyncRun{
		Tenant:           tenant,
		BatchNumber:      batchNumber,
		Status:           store.RunStatusCompleted,
		DomainsFound:     len(domains),
		DomainsProcessed: acc.processed,
		DomainsAdded:     acc.added,
		DomainsUpdated:   acc.updated,
		Errors:           acc.errors,
		SyncStarted:      syncStarted,
	}
	o.appendRun(ctx, run)
	telemetry.SyncBatchesTotal.WithLabelValues(string(store.RunStatusCompleted)).Inc()

	logger.Infof("Batch %d for %s/%s: found=%d processed=%d added=%d updated=%d errors=%d",
		batchNumber, tenant.CompanyID, tenant.UserEmail,
		len(domains), acc.processed, acc.added, acc.updated, acc.errors)

	return &BatchResult{
		DomainsFound:     len(domains),
		DomainsProcessed: acc.processed,
		DomainsAdded:     acc.added,
		DomainsUpdated:   acc.updated,
		Errors:           acc.errors,
		Done:             len(domains) < batchSize,
	}, nil
}

// processPage enriches and upserts every domain of one page. Items are
// independent: each touches a disjoint (tenant, domain_id) key, so the
// bounded worker pool needs no ordering between them.
func (o *Orchestrator) processPage(
	ctx context.Context,
	tenant store.Tenant,
	creds registrar.Credentials,
	domains []registrar.Domain,
	batchNumber int,
	acc *accumulator,
) {
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(o.concurrency)

	for _, dom := range domains {
		dom := dom
		g.Go(func() error {
			o.processDomain(ctx, tenant, creds, dom, batchNumber, acc)
			return nil
		})
	}

	// Workers never return errors; Wait only observes completion
	_ = g.Wait()
}

// processDomain handles one item: nameserver enrichment, record upsert,
// nameserver upsert. Every failure here is recovered locally.
func (o *Orchestrator) processDomain(
	ctx context.Context,
	tenant store.Tenant,
	creds registrar.Credentials,
	dom registrar.Domain,
	batchNumber int,
	acc *accumulator,
) {
	nameservers, nsErr := o.upstream.LookupNameservers(ctx, creds, dom)
	if nsErr != nil {
		// Partial success: the record is still upserted without enrichment
		logger.Debugf("Nameserver enrichment failed for %s: %v", dom.Name, nsErr)
		acc.recordError()
	}

	record := store.DomainRecord{
		Tenant:      tenant,
		DomainID:    dom.ID,
		DomainName:  dom.Name,
		Registrar:   dom.Registrar,
		Status:      store.DomainStatus(dom.Status),
		ExpiryDate:  dom.ExpiryDate,
		BatchNumber: batchNumber,
		LastSynced:  o.now(),
	}

	outcome, err := o.store.UpsertDomain(ctx, record)
	if err != nil {
		logger.Errorf("Failed to upsert domain %s: %v", dom.Name, err)
		acc.recordError()
		return
	}
	acc.recordOutcome(outcome)
	telemetry.DomainsUpsertedTotal.WithLabelValues(string(outcome)).Inc()

	if nsErr == nil {
		if err := o.store.UpsertNameservers(ctx, tenant, dom.ID, nameservers); err != nil {
			logger.Errorf("Failed to upsert nameservers for %s: %v", dom.Name, err)
			acc.recordError()
		}
	}
}

// finalizeFailed writes the failed audit row for a batch-level failure
func (o *Orchestrator) finalizeFailed(ctx context.Context, tenant store.Tenant, batchNumber int, syncStarted time.Time, message string) {
	o.appendRun(ctx, store.SyncRun{
		Tenant:       tenant,
		BatchNumber:  batchNumber,
		Status:       store.RunStatusFailed,
		SyncStarted:  syncStarted,
		ErrorMessage: message,
	})
	telemetry.SyncBatchesTotal.WithLabelValues(string(store.RunStatusFailed)).Inc()
}

// appendRun writes the audit row. The write survives caller abandonment:
// a batch whose requester went away must still finalize.
func (o *Orchestrator) appendRun(ctx context.Context, run store.SyncRun) {
	if err := o.store.AppendSyncRun(context.WithoutCancel(ctx), run); err != nil {
		// The batch outcome stands even if the audit write fails
		logger.Errorf("Failed to append sync run for %s/%s batch %d: %v",
			run.CompanyID, run.UserEmail, run.BatchNumber, err)
	}
}

// LastRun returns the tenant's most recent audit row, the resume cursor
// for an external caller deciding which batch to request next
func (o *Orchestrator) LastRun(ctx context.Context, tenant store.Tenant) (*store.SyncRun, error) {
	return o.store.LastSyncRun(ctx, tenant)
}
