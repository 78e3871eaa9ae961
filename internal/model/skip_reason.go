package model

// SkipReason explains why a URL ended up in the skipped list.
type SkipReason string

const (
	// SkipUnfetchable marks image and PDF URLs, which are never requested.
	SkipUnfetchable SkipReason = "unfetchable"

	// SkipBlacklisted marks URLs matching a blacklist pattern.
	SkipBlacklisted SkipReason = "blacklisted"

	// SkipAlreadyVisited marks URLs whose identity was fetched earlier in the run.
	SkipAlreadyVisited SkipReason = "already_visited"

	// SkipTransportError marks requests that failed without an HTTP response
	// (DNS, connection refused, timeout, TLS).
	SkipTransportError SkipReason = "transport_error"

	// SkipHTTPStatus marks responses with a status other than 200.
	SkipHTTPStatus SkipReason = "http_status"

	// SkipEmptyBody marks 200 responses without a body.
	SkipEmptyBody SkipReason = "empty_body"
)

// AllSkipReasons lists every reason in a stable display order.
var AllSkipReasons = []SkipReason{
	SkipUnfetchable,
	SkipBlacklisted,
	SkipAlreadyVisited,
	SkipTransportError,
	SkipHTTPStatus,
	SkipEmptyBody,
}

// String returns the reason identifier.
func (r SkipReason) String() string {
	return string(r)
}

// Description returns a short human-readable explanation.
func (r SkipReason) Description() string {
	switch r {
	case SkipUnfetchable:
		return "image or PDF, not requested"
	case SkipBlacklisted:
		return "matches a blacklist pattern"
	case SkipAlreadyVisited:
		return "already fetched in this run"
	case SkipTransportError:
		return "request failed"
	case SkipHTTPStatus:
		return "non-200 response"
	case SkipEmptyBody:
		return "empty response body"
	default:
		return "unknown"
	}
}

// IsFailure reports whether the reason means a request was made and did not succeed.
// Filtered URLs (unfetchable, blacklisted, already visited) are not failures.
func (r SkipReason) IsFailure() bool {
	switch r {
	case SkipTransportError, SkipHTTPStatus, SkipEmptyBody:
		return true
	default:
		return false
	}
}
