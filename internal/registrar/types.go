package registrar

import "time"

// Credentials identify one tenant against the upstream registrar API.
// Values arrive already decrypted from the credential vault.
type Credentials struct {
	APIURL     string
	Identifier string
	Secret     string
}

// Canonical domain status values
const (
	StatusActive    = "active"
	StatusExpired   = "expired"
	StatusPending   = "pending"
	StatusSuspended = "suspended"
	StatusUnknown   = "unknown"
)

// Domain is one canonical domain record extracted from an upstream listing page
type Domain struct {
	// ID is the upstream-assigned domain identifier, unique within a tenant
	ID string

	// Name is the fully qualified domain name
	Name string

	// Registrar is the sponsoring registrar as reported upstream
	Registrar string

	// Status is one of the canonical status values
	Status string

	// ExpiryDate is the upstream expiry date, nil when not reported or unparseable
	ExpiryDate *time.Time
}

// ParamKind selects which identifying parameter a nameserver lookup
// candidate sends
type ParamKind string

const (
	// ParamDomainID sends the numeric upstream domain id as "domainid"
	ParamDomainID ParamKind = "domainid"

	// ParamDomainName sends the literal domain name as "domain"
	ParamDomainName ParamKind = "domain"
)

// FallbackCandidate is one entry of the nameserver lookup strategy list:
// an upstream action name paired with the identifying parameter it expects.
// Candidates are tried in order; the first result=success reply wins.
type FallbackCandidate struct {
	Action string
	Param  ParamKind
}

// DefaultNameserverCandidates covers the action name and parameter variants
// observed across upstream API versions. Deployments can override the chain
// through configuration.
var DefaultNameserverCandidates = []FallbackCandidate{
	{Action: "DomainGetNameservers", Param: ParamDomainID},
	{Action: "GetDomainNameservers", Param: ParamDomainID},
	{Action: "DomainGetNameservers", Param: ParamDomainName},
}
