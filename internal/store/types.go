package store

import (
	"time"

	"github.com/google/uuid"
)

// Tenant is the isolation unit every record is scoped by. No query or
// write may cross tenant boundaries.
type Tenant struct {
	CompanyID string `json:"company_id"`
	UserEmail string `json:"user_email"`
}

// DomainStatus is the canonical lifecycle status of a domain
type DomainStatus string

// Domain status values
const (
	StatusActive    DomainStatus = "active"
	StatusExpired   DomainStatus = "expired"
	StatusPending   DomainStatus = "pending"
	StatusSuspended DomainStatus = "suspended"
	StatusUnknown   DomainStatus = "unknown"
)

// DomainRecord is one mirrored domain. (company_id, user_email, domain_id)
// is unique; records are never deleted automatically when the domain
// disappears upstream.
type DomainRecord struct {
	Tenant
	DomainID    string       `json:"domain_id"`
	DomainName  string       `json:"domain_name"`
	Registrar   string       `json:"registrar"`
	Status      DomainStatus `json:"status"`
	ExpiryDate  *time.Time   `json:"expiry_date,omitempty"`
	BatchNumber int          `json:"batch_number"`
	LastSynced  time.Time    `json:"last_synced"`
}

// UpsertOutcome reports whether an upsert inserted a new row or updated an
// existing one
type UpsertOutcome string

// Upsert outcomes
const (
	OutcomeInserted UpsertOutcome = "inserted"
	OutcomeUpdated  UpsertOutcome = "updated"
)

// RunStatus is the terminal status of a sync run
type RunStatus string

// Sync run statuses. Runs are written once, at completion, so "running" is
// never persisted by this code; it stays in the enum because a concurrent
// reader of a partially written row may observe it and must treat it as
// advisory.
const (
	RunStatusRunning   RunStatus = "running"
	RunStatusCompleted RunStatus = "completed"
	RunStatusFailed    RunStatus = "failed"
)

// SyncRun is one append-only audit row capturing the outcome of one batch.
// It doubles as the resumability anchor: the most recent run per tenant
// yields the batch cursor.
type SyncRun struct {
	ID uuid.UUID `json:"id"`
	Tenant
	BatchNumber      int       `json:"batch_number"`
	Status           RunStatus `json:"status"`
	DomainsFound     int       `json:"domains_found"`
	DomainsProcessed int       `json:"domains_processed"`
	DomainsAdded     int       `json:"domains_added"`
	DomainsUpdated   int       `json:"domains_updated"`
	Errors           int       `json:"errors"`
	SyncStarted      time.Time `json:"sync_started"`
	ErrorMessage     string    `json:"error_message,omitempty"`
}

// DomainFilter narrows ListDomains results. Zero values mean no filtering.
type DomainFilter struct {
	Status    DomainStatus
	Registrar string
}
