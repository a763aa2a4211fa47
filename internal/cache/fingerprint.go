package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"net/url"
	"sort"
	"strings"
)

// Fingerprint derives the deterministic cache key for one upstream request.
// Every request parameter participates, including the tenant's identifier
// and secret: the key must distinguish tenants, so two tenants issuing the
// same action can never observe each other's cached replies. Parameter
// order does not affect the result.
func Fingerprint(endpoint, action string, params url.Values) string {
	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	b.WriteString(endpoint)
	b.WriteByte('\n')
	b.WriteString(action)
	for _, k := range keys {
		for _, v := range params[k] {
			b.WriteByte('\n')
			b.WriteString(k)
			b.WriteByte('=')
			b.WriteString(v)
		}
	}

	sum := sha256.Sum256([]byte(b.String()))
	return hex.EncodeToString(sum[:])
}
