// Package registrar adapts the upstream registrar/billing API: it shapes
// form-encoded requests, normalizes the provider's inconsistent reply
// shapes, and walks the nameserver lookup fallback chain.
package registrar

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/tidwall/gjson"

	"github.com/domainpulse/registrar-sync/internal/telemetry"
)

const (
	// CallTimeout bounds every upstream call. There is no automatic retry
	// at this layer; retry policy belongs to the caller.
	CallTimeout = 30 * time.Second

	// maxResponseBytes caps how much of an upstream reply is read
	maxResponseBytes = 10 << 20
)

// resultSuccess is the upstream's result field value for a successful call
const resultSuccess = "success"

//go:generate mockgen -destination=mocks/mock_client.go -package=mocks -source=client.go Client

// Client issues one synchronous call against the upstream registrar API
type Client interface {
	// Call sends a form-encoded POST for the given action and returns the
	// normalized response. A non-nil error means transport failure or a
	// malformed reply; logical errors (result=error) are visible on the
	// returned Response.
	Call(ctx context.Context, endpoint, action string, params url.Values) (*Response, error)
}

// Response is a normalized upstream reply
type Response struct {
	// Result is the upstream result field ("success" or "error")
	Result string

	// Message is the upstream message field, populated on logical errors
	Message string

	// Raw is the scrubbed payload, suitable for caching
	Raw []byte

	body gjson.Result
}

// Success reports whether the upstream accepted the call
func (r *Response) Success() bool {
	return strings.EqualFold(r.Result, resultSuccess)
}

// Get returns the value at the given gjson path
func (r *Response) Get(path string) gjson.Result {
	return r.body.Get(path)
}

// Collection returns the node at the given path normalized into a list:
// a bare object becomes a one-element list and a missing node an empty one.
func (r *Response) Collection(path string) []gjson.Result {
	return normalizeCollection(r.body.Get(path))
}

// defaultClient is the production Client backed by net/http
type defaultClient struct {
	httpClient *http.Client
}

// NewClient creates a Client with the fixed per-call timeout
func NewClient() Client {
	return &defaultClient{
		httpClient: &http.Client{
			Timeout: CallTimeout,
		},
	}
}

// Call implements Client
func (c *defaultClient) Call(ctx context.Context, endpoint, action string, params url.Values) (*Response, error) {
	form := url.Values{}
	for key, values := range params {
		for _, v := range values {
			form.Add(key, v)
		}
	}
	form.Set("action", action)
	form.Set("responsetype", "json")

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, &UpstreamError{
			Kind:   KindUnreachable,
			Action: action,
			Err:    err,
		}
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		telemetry.UpstreamCallsTotal.WithLabelValues(action, "unreachable").Inc()
		return nil, &UpstreamError{
			Kind:    KindUnreachable,
			Action:  action,
			Message: "request failed",
			Err:     err,
		}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		telemetry.UpstreamCallsTotal.WithLabelValues(action, "unreachable").Inc()
		return nil, &UpstreamError{
			Kind:    KindUnreachable,
			Action:  action,
			Message: fmt.Sprintf("unexpected HTTP status %d from %s", resp.StatusCode, endpoint),
		}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		telemetry.UpstreamCallsTotal.WithLabelValues(action, "unreachable").Inc()
		return nil, &UpstreamError{
			Kind:    KindUnreachable,
			Action:  action,
			Message: "failed to read response body",
			Err:     err,
		}
	}

	normalized, err := Decode(scrubArtifacts(body))
	if err != nil {
		telemetry.UpstreamCallsTotal.WithLabelValues(action, "malformed").Inc()
		var ue *UpstreamError
		if errors.As(err, &ue) {
			ue.Action = action
		}
		return nil, err
	}

	outcome := "success"
	if !normalized.Success() {
		outcome = "logical_error"
	}
	telemetry.UpstreamCallsTotal.WithLabelValues(action, outcome).Inc()

	return normalized, nil
}
