// Package v0 provides the REST API handlers for the sync service.
package v0

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/domainpulse/registrar-sync/internal/cache"
	"github.com/domainpulse/registrar-sync/internal/logger"
	"github.com/domainpulse/registrar-sync/internal/registrar"
	"github.com/domainpulse/registrar-sync/internal/store"
	"github.com/domainpulse/registrar-sync/internal/sync"
	"github.com/domainpulse/registrar-sync/internal/vault"
	"github.com/domainpulse/registrar-sync/internal/versions"
)

// SyncService runs sync batches and exposes the tenant's resume cursor
type SyncService interface {
	RunBatch(ctx context.Context, tenant store.Tenant, batchNumber, batchSize int) (*sync.BatchResult, error)
	LastRun(ctx context.Context, tenant store.Tenant) (*store.SyncRun, error)
}

var _ SyncService = (*sync.Orchestrator)(nil)

// DomainReader is the read-only slice of the store the dashboard
// endpoints need
type DomainReader interface {
	ListDomains(ctx context.Context, tenant store.Tenant, filter store.DomainFilter) ([]store.DomainRecord, error)
	CountDomains(ctx context.Context, tenant store.Tenant) (int64, error)
	CountByStatus(ctx context.Context, tenant store.Tenant) (map[store.DomainStatus]int64, error)
	DistinctRegistrars(ctx context.Context, tenant store.Tenant) ([]string, error)
}

// Deps bundles the dependencies of the v0 routes
type Deps struct {
	Sync             SyncService
	Domains          DomainReader
	Cache            cache.Cache
	Readiness        func(ctx context.Context) error
	DefaultBatchSize int
}

// Response is the envelope every v0 endpoint answers with
type Response struct {
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
}

// SyncRequest is the body of POST /api/v0/sync
type SyncRequest struct {
	CompanyID   string `json:"company_id"`
	UserEmail   string `json:"user_email"`
	BatchNumber int    `json:"batch_number"`
	BatchSize   int    `json:"batch_size"`
}

// CacheRequest is the body of POST /api/v0/cache
type CacheRequest struct {
	Action string `json:"action"`
}

// Cache admin actions
const (
	CacheActionStats = "get_stats"
	CacheActionClear = "clear_cache"
)

// DomainSummary is the portfolio overview for a tenant
type DomainSummary struct {
	Total      int64                        `json:"total"`
	ByStatus   map[store.DomainStatus]int64 `json:"by_status"`
	Registrars []string                     `json:"registrars"`
}

// Routes holds the handler dependencies
type Routes struct {
	deps Deps
}

// NewRoutes creates a new Routes instance
func NewRoutes(deps Deps) *Routes {
	if deps.DefaultBatchSize < 1 {
		deps.DefaultBatchSize = 25
	}
	return &Routes{deps: deps}
}

// Router creates the router for the v0 API
func Router(deps Deps) http.Handler {
	routes := NewRoutes(deps)

	r := chi.NewRouter()

	r.Post("/sync", routes.runSync)
	r.Get("/sync/last", routes.getLastSync)
	r.Get("/domains", routes.listDomains)
	r.Get("/domains/summary", routes.getDomainSummary)
	r.Post("/cache", routes.manageCache)

	return r
}

// runSync handles POST /api/v0/sync: it executes one batch synchronously
// and reports the batch counters
func (rr *Routes) runSync(w http.ResponseWriter, r *http.Request) {
	var req SyncRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		rr.writeError(w, "invalid request body", http.StatusBadRequest)
		return
	}

	tenant := store.Tenant{CompanyID: req.CompanyID, UserEmail: req.UserEmail}
	if tenant.CompanyID == "" || tenant.UserEmail == "" {
		rr.writeError(w, "company_id and user_email are required", http.StatusBadRequest)
		return
	}
	if req.BatchNumber < 1 {
		rr.writeError(w, "batch_number must be >= 1", http.StatusBadRequest)
		return
	}
	batchSize := req.BatchSize
	if batchSize == 0 {
		batchSize = rr.deps.DefaultBatchSize
	}
	if batchSize < 1 {
		rr.writeError(w, "batch_size must be > 0", http.StatusBadRequest)
		return
	}

	result, err := rr.deps.Sync.RunBatch(r.Context(), tenant, req.BatchNumber, batchSize)
	if err != nil {
		rr.writeSyncError(w, err)
		return
	}

	rr.writeJSON(w, http.StatusOK, result)
}

// writeSyncError maps a batch failure to a status code: missing
// credentials are a client problem, upstream failures are a gateway
// problem, anything else is internal
func (rr *Routes) writeSyncError(w http.ResponseWriter, err error) {
	logger.Errorf("Sync batch failed: %v", err)

	switch {
	case errors.Is(err, vault.ErrNoCredentials):
		rr.writeError(w, "no API credentials configured for tenant", http.StatusNotFound)
	case registrar.IsUpstreamError(err):
		rr.writeError(w, err.Error(), http.StatusBadGateway)
	default:
		rr.writeError(w, "sync failed", http.StatusInternalServerError)
	}
}

// getLastSync handles GET /api/v0/sync/last: the tenant's resume cursor
func (rr *Routes) getLastSync(w http.ResponseWriter, r *http.Request) {
	tenant, ok := rr.tenantFromQuery(w, r)
	if !ok {
		return
	}

	run, err := rr.deps.Sync.LastRun(r.Context(), tenant)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			rr.writeError(w, "no sync runs recorded for tenant", http.StatusNotFound)
			return
		}
		logger.Errorf("Failed to read last sync run: %v", err)
		rr.writeError(w, "failed to read sync history", http.StatusInternalServerError)
		return
	}

	rr.writeJSON(w, http.StatusOK, run)
}

// listDomains handles GET /api/v0/domains
func (rr *Routes) listDomains(w http.ResponseWriter, r *http.Request) {
	tenant, ok := rr.tenantFromQuery(w, r)
	if !ok {
		return
	}

	filter := store.DomainFilter{
		Status:    store.DomainStatus(r.URL.Query().Get("status")),
		Registrar: r.URL.Query().Get("registrar"),
	}

	domains, err := rr.deps.Domains.ListDomains(r.Context(), tenant, filter)
	if err != nil {
		logger.Errorf("Failed to list domains: %v", err)
		rr.writeError(w, "failed to list domains", http.StatusInternalServerError)
		return
	}
	if domains == nil {
		domains = []store.DomainRecord{}
	}

	rr.writeJSON(w, http.StatusOK, domains)
}

// getDomainSummary handles GET /api/v0/domains/summary
func (rr *Routes) getDomainSummary(w http.ResponseWriter, r *http.Request) {
	tenant, ok := rr.tenantFromQuery(w, r)
	if !ok {
		return
	}

	ctx := r.Context()

	total, err := rr.deps.Domains.CountDomains(ctx, tenant)
	if err != nil {
		logger.Errorf("Failed to count domains: %v", err)
		rr.writeError(w, "failed to build summary", http.StatusInternalServerError)
		return
	}
	byStatus, err := rr.deps.Domains.CountByStatus(ctx, tenant)
	if err != nil {
		logger.Errorf("Failed to count domains by status: %v", err)
		rr.writeError(w, "failed to build summary", http.StatusInternalServerError)
		return
	}
	registrars, err := rr.deps.Domains.DistinctRegistrars(ctx, tenant)
	if err != nil {
		logger.Errorf("Failed to list registrars: %v", err)
		rr.writeError(w, "failed to build summary", http.StatusInternalServerError)
		return
	}
	if registrars == nil {
		registrars = []string{}
	}

	rr.writeJSON(w, http.StatusOK, DomainSummary{
		Total:      total,
		ByStatus:   byStatus,
		Registrars: registrars,
	})
}

// manageCache handles POST /api/v0/cache: stats and explicit clearing
func (rr *Routes) manageCache(w http.ResponseWriter, r *http.Request) {
	var req CacheRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		rr.writeError(w, "invalid request body", http.StatusBadRequest)
		return
	}

	switch req.Action {
	case CacheActionStats:
		rr.writeJSON(w, http.StatusOK, rr.deps.Cache.Stats())
	case CacheActionClear:
		if err := rr.deps.Cache.Clear(); err != nil {
			logger.Errorf("Failed to clear cache: %v", err)
			rr.writeError(w, "failed to clear cache", http.StatusInternalServerError)
			return
		}
		rr.writeJSON(w, http.StatusOK, map[string]string{"message": "cache cleared"})
	default:
		rr.writeError(w, "unknown cache action", http.StatusBadRequest)
	}
}

// tenantFromQuery extracts and validates the tenant query parameters
func (rr *Routes) tenantFromQuery(w http.ResponseWriter, r *http.Request) (store.Tenant, bool) {
	tenant := store.Tenant{
		CompanyID: r.URL.Query().Get("company_id"),
		UserEmail: r.URL.Query().Get("user_email"),
	}
	if tenant.CompanyID == "" || tenant.UserEmail == "" {
		rr.writeError(w, "company_id and user_email are required", http.StatusBadRequest)
		return store.Tenant{}, false
	}
	return tenant, true
}

// writeJSON writes a success envelope with the given data
func (*Routes) writeJSON(w http.ResponseWriter, statusCode int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	if err := json.NewEncoder(w).Encode(Response{Success: true, Data: data}); err != nil {
		logger.Errorf("Failed to encode JSON response: %v", err)
	}
}

// writeError writes a failure envelope
func (*Routes) writeError(w http.ResponseWriter, message string, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	if err := json.NewEncoder(w).Encode(Response{Success: false, Error: message}); err != nil {
		logger.Errorf("Failed to encode error response: %v", err)
	}
}

// HealthRouter creates a router for health check endpoints
func HealthRouter(readiness func(ctx context.Context) error) http.Handler {
	r := chi.NewRouter()

	r.Get("/health", healthHandler)
	r.Get("/readiness", readinessHandler(readiness))
	r.Get("/version", versionHandler)

	return r
}

// healthHandler handles health check requests
func healthHandler(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(`{"status":"healthy"}`))
}

// readinessHandler reports whether the database is reachable
func readinessHandler(readiness func(ctx context.Context) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if readiness != nil {
			if err := readiness(r.Context()); err != nil {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusServiceUnavailable)
				if encodeErr := json.NewEncoder(w).Encode(Response{Success: false, Error: "not ready: " + err.Error()}); encodeErr != nil {
					logger.Errorf("Failed to encode readiness error response: %v", encodeErr)
				}
				return
			}
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ready"}`))
	}
}

// versionHandler handles version information requests
func versionHandler(w http.ResponseWriter, _ *http.Request) {
	info := versions.GetVersionInfo()

	response := map[string]string{
		"version":    info.Version,
		"commit":     info.Commit,
		"build_date": info.BuildDate,
		"go_version": info.GoVersion,
		"platform":   info.Platform,
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(response); err != nil {
		logger.Errorf("Failed to encode version info: %v", err)
	}
}
