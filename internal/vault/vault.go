// Package vault consumes the credential vault contract: it loads decrypted
// per-tenant upstream API credentials. Writing credentials and their
// encryption at rest happen outside this service.
package vault

import (
	"context"
	"errors"

	"github.com/domainpulse/registrar-sync/internal/registrar"
	"github.com/domainpulse/registrar-sync/internal/store"
)

// ErrNoCredentials is returned when a tenant has no stored credentials
var ErrNoCredentials = errors.New("no credentials configured for tenant")

// Vault loads upstream API credentials for a tenant
type Vault interface {
	// Load returns the tenant's decrypted credentials, or ErrNoCredentials
	Load(ctx context.Context, tenant store.Tenant) (*registrar.Credentials, error)
}
