package cache

import (
	"context"
	"net/url"
	"time"

	"github.com/domainpulse/registrar-sync/internal/logger"
	"github.com/domainpulse/registrar-sync/internal/registrar"
	"github.com/domainpulse/registrar-sync/internal/telemetry"
)

// TTLPolicy picks the cache TTL for an upstream action. Returning zero or a
// negative duration disables caching for that action.
type TTLPolicy func(action string) time.Duration

// DefaultTTLPolicy caches listing replies for listingTTL and everything
// else (nameserver lookups) for otherTTL
func DefaultTTLPolicy(listingTTL, otherTTL time.Duration) TTLPolicy {
	return func(action string) time.Duration {
		if action == registrar.ActionListDomains {
			return listingTTL
		}
		return otherTTL
	}
}

// CachingClient is a read-through registrar.Client: a miss transparently
// triggers the wrapped client and stores the normalized payload before
// returning. Only successful replies are cached, so transient upstream
// errors are never pinned for a TTL.
type CachingClient struct {
	inner  registrar.Client
	cache  Cache
	policy TTLPolicy
}

// NewCachingClient wraps a client with read-through caching
func NewCachingClient(inner registrar.Client, c Cache, policy TTLPolicy) *CachingClient {
	return &CachingClient{
		inner:  inner,
		cache:  c,
		policy: policy,
	}
}

// Call implements registrar.Client
func (c *CachingClient) Call(ctx context.Context, endpoint, action string, params url.Values) (*registrar.Response, error) {
	ttl := c.policy(action)
	if ttl <= 0 {
		return c.inner.Call(ctx, endpoint, action, params)
	}

	fingerprint := Fingerprint(endpoint, action, params)

	if payload, ok := c.cache.Get(fingerprint); ok {
		resp, err := registrar.Decode(payload)
		if err == nil {
			telemetry.CacheHitsTotal.Inc()
			return resp, nil
		}
		// A cached payload that no longer decodes is dropped via miss path
		logger.Warnf("Discarding undecodable cache entry for action %s: %v", action, err)
	}
	telemetry.CacheMissesTotal.Inc()

	resp, err := c.inner.Call(ctx, endpoint, action, params)
	if err != nil {
		return nil, err
	}

	if resp.Success() {
		if err := c.cache.Put(fingerprint, resp.Raw, ttl); err != nil {
			// Caching is best effort; the reply is still served
			logger.Warnf("Failed to cache response for action %s: %v", action, err)
		}
	}

	return resp, nil
}

var _ registrar.Client = (*CachingClient)(nil)
