package crawler

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/nao1215/cachewarmer/internal/model"
)

// cacheHeaders are checked in order; the first one present wins.
var cacheHeaders = []string{
	"CF-Cache-Status",
	"X-Cache-Status",
	"X-Cache",
	"X-Proxy-Cache",
	"X-Varnish-Cache",
	"Cache-Status",
}

// CacheStatusFromHeader classifies the cache outcome of a response.
//
// Vendors disagree on the header and its vocabulary: Cloudflare sends
// "CF-Cache-Status: HIT", nginx "X-Cache-Status: EXPIRED", CloudFront
// "X-Cache: Miss from cloudfront" and RFC 9211 caches
// "Cache-Status: edge; hit". When none of them is present, a positive Age
// header still means the response came out of a shared cache.
// It returns "" when the response carries no cache information.
func CacheStatusFromHeader(h http.Header) model.CacheStatus {
	for _, name := range cacheHeaders {
		v := h.Get(name)
		if v == "" {
			continue
		}
		if status := classifyCacheValue(v); status != "" {
			return status
		}
	}

	if age, err := strconv.Atoi(strings.TrimSpace(h.Get("Age"))); err == nil && age > 0 {
		return model.CacheHit
	}
	return ""
}

// classifyCacheValue maps a single header value to a CacheStatus.
func classifyCacheValue(v string) model.CacheStatus {
	v = strings.ToLower(v)

	switch {
	case strings.Contains(v, "stale"), strings.Contains(v, "updating"),
		strings.Contains(v, "revalidated"):
		return model.CacheStale
	case strings.Contains(v, "expired"):
		return model.CacheExpired
	case strings.Contains(v, "bypass"), strings.Contains(v, "uri-miss"):
		return model.CacheBypass
	case strings.Contains(v, "dynamic"):
		return model.CacheDynamic
	case strings.Contains(v, "miss"):
		return model.CacheMiss
	case strings.Contains(v, "hit"):
		return model.CacheHit
	default:
		return ""
	}
}
