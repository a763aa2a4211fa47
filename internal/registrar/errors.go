package registrar

import (
	"errors"
	"fmt"
)

// ErrorKind classifies upstream API failures
type ErrorKind string

const (
	// KindUnreachable means the upstream API could not be reached (network
	// error, timeout, or non-2xx HTTP status)
	KindUnreachable ErrorKind = "upstream_unreachable"

	// KindMalformedResponse means the upstream reply was not parseable JSON,
	// typically an HTML error page or a PHP error banner
	KindMalformedResponse ErrorKind = "malformed_response"

	// KindLogicalError means the upstream replied with well-formed JSON
	// carrying result=error
	KindLogicalError ErrorKind = "upstream_logical_error"

	// KindNameserverUnavailable means every nameserver lookup fallback
	// candidate was exhausted without a successful reply
	KindNameserverUnavailable ErrorKind = "nameserver_lookup_unavailable"
)

// UpstreamError is a classified upstream API failure
type UpstreamError struct {
	Kind    ErrorKind
	Action  string
	Message string
	Err     error
}

func (e *UpstreamError) Error() string {
	msg := e.Message
	if msg == "" && e.Err != nil {
		msg = e.Err.Error()
	}
	if e.Action != "" {
		return fmt.Sprintf("upstream %s (action %s): %s", e.Kind, e.Action, msg)
	}
	return fmt.Sprintf("upstream %s: %s", e.Kind, msg)
}

func (e *UpstreamError) Unwrap() error {
	return e.Err
}

// IsKind reports whether err is an UpstreamError of the given kind
func IsKind(err error, kind ErrorKind) bool {
	var ue *UpstreamError
	if errors.As(err, &ue) {
		return ue.Kind == kind
	}
	return false
}

// IsUpstreamError reports whether err is any classified upstream failure
func IsUpstreamError(err error) bool {
	var ue *UpstreamError
	return errors.As(err, &ue)
}
