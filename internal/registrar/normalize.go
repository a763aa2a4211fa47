package registrar

import (
	"strings"
	"time"

	"github.com/tidwall/gjson"
)

// htmlMarkers identify replies that are error pages rather than JSON.
// Matched case-insensitively against the scrubbed body.
var htmlMarkers = []string{
	"<!doctype",
	"<html",
	"<body",
	"fatal error",
	"parse error",
	"warning:",
	"notice:",
}

// brTags are formatting artifacts the upstream interleaves with otherwise
// valid JSON. They are stripped before the strict parse attempt.
var brTags = []string{"<br />", "<br/>", "<br>", "<BR />", "<BR/>", "<BR>"}

// scrubArtifacts removes line-break markup and surrounding whitespace from a
// raw upstream reply
func scrubArtifacts(body []byte) []byte {
	s := string(body)
	for _, tag := range brTags {
		s = strings.ReplaceAll(s, tag, "")
	}
	return []byte(strings.TrimSpace(s))
}

// looksLikeHTML reports whether a body that failed JSON parsing carries
// known HTML or PHP error markers
func looksLikeHTML(body []byte) bool {
	lower := strings.ToLower(string(body))
	for _, marker := range htmlMarkers {
		if strings.Contains(lower, marker) {
			return true
		}
	}
	return false
}

// Decode normalizes a scrubbed upstream payload into a Response. It returns
// an UpstreamError of kind KindMalformedResponse when the payload is not a
// JSON object, classifying HTML error pages explicitly.
func Decode(raw []byte) (*Response, error) {
	if len(raw) == 0 {
		return nil, &UpstreamError{
			Kind:    KindMalformedResponse,
			Message: "empty response body",
		}
	}

	if !gjson.ValidBytes(raw) {
		msg := "response is not valid JSON"
		if looksLikeHTML(raw) {
			msg = "response is an HTML error page"
		}
		return nil, &UpstreamError{
			Kind:    KindMalformedResponse,
			Message: msg,
		}
	}

	body := gjson.ParseBytes(raw)
	if !body.IsObject() {
		return nil, &UpstreamError{
			Kind:    KindMalformedResponse,
			Message: "response is not a JSON object",
		}
	}

	return &Response{
		Result:  body.Get("result").String(),
		Message: body.Get("message").String(),
		Raw:     raw,
		body:    body,
	}, nil
}

// normalizeCollection maps the upstream's inconsistent nesting into a list.
// The provider serializes a one-element collection as a bare object instead
// of a list; a missing or null node means an empty collection.
func normalizeCollection(v gjson.Result) []gjson.Result {
	switch {
	case !v.Exists() || v.Type == gjson.Null:
		return nil
	case v.IsArray():
		return v.Array()
	case v.IsObject():
		return []gjson.Result{v}
	default:
		return nil
	}
}

// NormalizeStatus maps an upstream status string onto the canonical enum
func NormalizeStatus(s string) string {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "active":
		return StatusActive
	case "expired":
		return StatusExpired
	case "pending", "pending transfer", "pending registration":
		return StatusPending
	case "suspended":
		return StatusSuspended
	default:
		return StatusUnknown
	}
}

// expiryFormats are the date layouts observed in upstream listing replies
var expiryFormats = []string{
	"2006-01-02",
	"2006-01-02 15:04:05",
	"02/01/2006",
}

// parseExpiry parses an upstream expiry date, returning nil when absent or
// unparseable. A zero date ("0000-00-00") also yields nil.
func parseExpiry(s string) *time.Time {
	s = strings.TrimSpace(s)
	if s == "" || strings.HasPrefix(s, "0000") {
		return nil
	}
	for _, layout := range expiryFormats {
		if t, err := time.Parse(layout, s); err == nil {
			return &t
		}
	}
	return nil
}
