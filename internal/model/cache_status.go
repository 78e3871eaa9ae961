package model

// CacheStatus is the cache outcome a CDN or reverse proxy reported for a response.
type CacheStatus string

// Cache statuses, normalized from the vendor-specific headers.
const (
	CacheHit     CacheStatus = "hit"
	CacheMiss    CacheStatus = "miss"
	CacheStale   CacheStatus = "stale"
	CacheExpired CacheStatus = "expired"
	CacheBypass  CacheStatus = "bypass"
	CacheDynamic CacheStatus = "dynamic"
)

// String returns the status text, "unknown" when no cache header was seen.
func (c CacheStatus) String() string {
	if c == "" {
		return "unknown"
	}
	return string(c)
}
