// Package telemetry exposes Prometheus metrics for the registrar sync server.
package telemetry

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// SyncBatchesTotal counts finished sync batches by terminal status
	SyncBatchesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "regsync",
		Subsystem: "sync",
		Name:      "batches_total",
		Help:      "Number of sync batches finished, by terminal status.",
	}, []string{"status"})

	// DomainsUpsertedTotal counts domain upserts by outcome
	DomainsUpsertedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "regsync",
		Subsystem: "sync",
		Name:      "domains_upserted_total",
		Help:      "Number of domain records upserted, by outcome (inserted or updated).",
	}, []string{"outcome"})

	// EnrichmentErrorsTotal counts per-item enrichment and persistence errors
	// that were recovered locally without failing the batch
	EnrichmentErrorsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "regsync",
		Subsystem: "sync",
		Name:      "item_errors_total",
		Help:      "Number of per-item errors recovered without failing the batch.",
	})

	// UpstreamCallsTotal counts calls issued to the upstream registrar API
	UpstreamCallsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "regsync",
		Subsystem: "upstream",
		Name:      "calls_total",
		Help:      "Number of upstream API calls, by action and outcome.",
	}, []string{"action", "outcome"})

	// CacheHitsTotal counts response cache hits
	CacheHitsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "regsync",
		Subsystem: "cache",
		Name:      "hits_total",
		Help:      "Number of response cache hits.",
	})

	// CacheMissesTotal counts response cache misses
	CacheMissesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "regsync",
		Subsystem: "cache",
		Name:      "misses_total",
		Help:      "Number of response cache misses, including expired entries.",
	})

	// CacheClearsTotal counts explicit cache wipes
	CacheClearsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "regsync",
		Subsystem: "cache",
		Name:      "clears_total",
		Help:      "Number of explicit cache clears.",
	})
)
