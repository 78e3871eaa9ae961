package model

import (
	"net/http"
	"time"
)

// FetchResult is the outcome of one GET request.
type FetchResult struct {
	// URL is the requested URL.
	URL string `json:"url"`

	// StatusCode is the HTTP status. 0 means no response was received.
	StatusCode int `json:"status_code"`

	// Body holds the response body for link extraction.
	// It is released once the page has been processed.
	Body []byte `json:"-"`

	// BodySize is the number of body bytes read.
	BodySize int64 `json:"body_size"`

	// Digest is the hex SHA3-256 of the body. Empty when no body was read.
	Digest string `json:"digest,omitempty"`

	// CacheStatus is the cache outcome reported by the response headers.
	CacheStatus CacheStatus `json:"cache_status,omitempty"`

	// Elapsed is the time from sending the request to finishing the body read.
	Elapsed time.Duration `json:"elapsed_ns"`

	// FetchedAt is when the request was started.
	FetchedAt time.Time `json:"fetched_at"`

	// Err is the transport error, if any.
	Err error `json:"-"`

	// Error is Err as text, kept for serialization.
	Error string `json:"error,omitempty"`
}

// SetError records err on the result.
func (f *FetchResult) SetError(err error) {
	f.Err = err
	if err != nil {
		f.Error = err.Error()
	}
}

// Succeeded reports whether the fetch counts as a visit:
// a 200 response with a non-empty body.
func (f *FetchResult) Succeeded() bool {
	return f.Err == nil && f.Error == "" && f.StatusCode == http.StatusOK && f.BodySize > 0
}

// SkipReason classifies an unsuccessful fetch. It returns "" for a success.
func (f *FetchResult) SkipReason() SkipReason {
	switch {
	case f.Err != nil || f.Error != "" || f.StatusCode == 0:
		return SkipTransportError
	case f.StatusCode != http.StatusOK:
		return SkipHTTPStatus
	case f.BodySize == 0:
		return SkipEmptyBody
	default:
		return ""
	}
}

// ElapsedMillis returns Elapsed in whole milliseconds.
func (f *FetchResult) ElapsedMillis() int64 {
	return f.Elapsed.Milliseconds()
}
