package registrar

import (
	"context"
	"fmt"
	"net/url"

	"github.com/tidwall/gjson"

	"github.com/domainpulse/registrar-sync/internal/logger"
)

// Upstream action and parameter names for the domain listing call
const (
	// ActionListDomains is the upstream action returning one page of the
	// tenant's domain portfolio
	ActionListDomains = "GetClientsDomains"

	paramIdentifier = "identifier"
	paramSecret     = "secret"
	paramLimitStart = "limitstart"
	paramLimitNum   = "limitnum"
)

// maxNameserverSlots bounds how many ns1..nsN keys are probed on a
// nameserver reply
const maxNameserverSlots = 10

// APIOption configures an API
type APIOption func(*API)

// WithNameserverCandidates overrides the nameserver lookup fallback chain
func WithNameserverCandidates(candidates []FallbackCandidate) APIOption {
	return func(a *API) {
		if len(candidates) > 0 {
			a.candidates = candidates
		}
	}
}

// API provides the high-level upstream operations the sync engine needs,
// built on a Client (typically wrapped by the response cache).
type API struct {
	client     Client
	candidates []FallbackCandidate
}

// NewAPI creates an API over the given client
func NewAPI(client Client, opts ...APIOption) *API {
	a := &API{
		client:     client,
		candidates: DefaultNameserverCandidates,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// ListDomains fetches one page of the tenant's domain portfolio starting at
// limitStart (zero-based offset) with at most limitNum entries.
func (a *API) ListDomains(ctx context.Context, creds Credentials, limitStart, limitNum int) ([]Domain, error) {
	params := url.Values{}
	params.Set(paramIdentifier, creds.Identifier)
	params.Set(paramSecret, creds.Secret)
	params.Set(paramLimitStart, fmt.Sprintf("%d", limitStart))
	params.Set(paramLimitNum, fmt.Sprintf("%d", limitNum))

	resp, err := a.client.Call(ctx, creds.APIURL, ActionListDomains, params)
	if err != nil {
		return nil, err
	}
	if !resp.Success() {
		return nil, &UpstreamError{
			Kind:    KindLogicalError,
			Action:  ActionListDomains,
			Message: resp.Message,
		}
	}

	items := resp.Collection("domains.domain")
	domains := make([]Domain, 0, len(items))
	for _, item := range items {
		domains = append(domains, domainFromItem(item))
	}
	return domains, nil
}

// domainFromItem maps one upstream listing entry onto the canonical record
func domainFromItem(item gjson.Result) Domain {
	name := item.Get("domainname").String()
	if name == "" {
		name = item.Get("domain").String()
	}
	return Domain{
		ID:         item.Get("id").String(),
		Name:       name,
		Registrar:  item.Get("registrar").String(),
		Status:     NormalizeStatus(item.Get("status").String()),
		ExpiryDate: parseExpiry(item.Get("expirydate").String()),
	}
}

// LookupNameservers resolves the nameserver set for one domain by walking
// the fallback chain. The first candidate whose reply carries
// result=success wins; when every candidate fails, an UpstreamError of kind
// KindNameserverUnavailable is returned and the caller proceeds without
// enrichment.
func (a *API) LookupNameservers(ctx context.Context, creds Credentials, dom Domain) ([]string, error) {
	var lastErr error

	for _, cand := range a.candidates {
		params := url.Values{}
		params.Set(paramIdentifier, creds.Identifier)
		params.Set(paramSecret, creds.Secret)
		switch cand.Param {
		case ParamDomainID:
			params.Set(string(ParamDomainID), dom.ID)
		case ParamDomainName:
			params.Set(string(ParamDomainName), dom.Name)
		default:
			continue
		}

		resp, err := a.client.Call(ctx, creds.APIURL, cand.Action, params)
		if err != nil {
			if ctx.Err() != nil {
				return nil, err
			}
			logger.Debugf("Nameserver candidate %s/%s failed for %s: %v",
				cand.Action, cand.Param, dom.Name, err)
			lastErr = err
			continue
		}
		if !resp.Success() {
			lastErr = &UpstreamError{
				Kind:    KindLogicalError,
				Action:  cand.Action,
				Message: resp.Message,
			}
			continue
		}

		return extractNameservers(resp), nil
	}

	return nil, &UpstreamError{
		Kind:    KindNameserverUnavailable,
		Message: fmt.Sprintf("all %d nameserver lookup candidates failed for %s", len(a.candidates), dom.Name),
		Err:     lastErr,
	}
}

// extractNameservers collects the ordered ns1..nsN values from a successful
// nameserver reply, skipping empty slots
func extractNameservers(resp *Response) []string {
	var out []string
	for i := 1; i <= maxNameserverSlots; i++ {
		ns := resp.Get(fmt.Sprintf("ns%d", i)).String()
		if ns != "" {
			out = append(out, ns)
		}
	}
	return out
}
