package model

import (
	"sort"
	"time"
)

// LatencyStats summarizes request latencies.
type LatencyStats struct {
	Min time.Duration `json:"min_ns"`
	Avg time.Duration `json:"avg_ns"`
	P50 time.Duration `json:"p50_ns"`
	P95 time.Duration `json:"p95_ns"`
	Max time.Duration `json:"max_ns"`
}

// Summary holds aggregate numbers for a run.
type Summary struct {
	Visited   int                 `json:"visited"`
	Skipped   int                 `json:"skipped"`
	Failed    int                 `json:"failed"`
	Requests  int                 `json:"requests"`
	BySkip    map[SkipReason]int  `json:"by_skip_reason"`
	ByStatus  map[int]int         `json:"by_status"`
	ByCache   map[CacheStatus]int `json:"by_cache,omitempty"`
	Bytes     int64               `json:"bytes"`
	Latency   LatencyStats        `json:"latency"`
	Duration  time.Duration       `json:"duration_ns"`
	Cancelled bool                `json:"cancelled,omitempty"`
	Pending   int                 `json:"pending,omitempty"`
}

// NewSummary computes the summary of r.
// Status code 0 in ByStatus counts requests that got no response.
func NewSummary(r *CrawlReport) Summary {
	s := Summary{
		Visited:   len(r.Visited),
		Skipped:   len(r.Skipped),
		Requests:  len(r.Fetches),
		BySkip:    make(map[SkipReason]int),
		ByStatus:  make(map[int]int),
		ByCache:   make(map[CacheStatus]int),
		Duration:  r.Duration(),
		Cancelled: r.Cancelled,
		Pending:   r.Pending,
	}

	for _, sk := range r.Skipped {
		s.BySkip[sk.Reason]++
		if sk.Reason.IsFailure() {
			s.Failed++
		}
	}

	latencies := make([]time.Duration, 0, len(r.Fetches))
	for _, f := range r.Fetches {
		s.ByStatus[f.StatusCode]++
		if f.StatusCode != 0 {
			s.ByCache[f.CacheStatus]++
		}
		s.Bytes += f.BodySize
		latencies = append(latencies, f.Elapsed)
	}
	s.Latency = latencyStats(latencies)

	return s
}

// StatusCodes returns the keys of ByStatus in ascending order.
func (s Summary) StatusCodes() []int {
	codes := make([]int, 0, len(s.ByStatus))
	for code := range s.ByStatus {
		codes = append(codes, code)
	}
	sort.Ints(codes)
	return codes
}

// CacheStatuses returns the keys of ByCache sorted by name,
// with responses without cache information last.
func (s Summary) CacheStatuses() []CacheStatus {
	statuses := make([]CacheStatus, 0, len(s.ByCache))
	for status := range s.ByCache {
		statuses = append(statuses, status)
	}
	sort.Slice(statuses, func(i, j int) bool {
		if statuses[i] == "" || statuses[j] == "" {
			return statuses[j] == "" && statuses[i] != ""
		}
		return statuses[i] < statuses[j]
	})
	return statuses
}

// HasCacheInfo reports whether any response carried a cache header.
func (s Summary) HasCacheInfo() bool {
	for status, n := range s.ByCache {
		if status != "" && n > 0 {
			return true
		}
	}
	return false
}

func latencyStats(d []time.Duration) LatencyStats {
	if len(d) == 0 {
		return LatencyStats{}
	}
	sort.Slice(d, func(i, j int) bool { return d[i] < d[j] })

	var total time.Duration
	for _, v := range d {
		total += v
	}

	return LatencyStats{
		Min: d[0],
		Avg: total / time.Duration(len(d)),
		P50: percentile(d, 50),
		P95: percentile(d, 95),
		Max: d[len(d)-1],
	}
}

// percentile uses the nearest-rank method on sorted input.
func percentile(sorted []time.Duration, p int) time.Duration {
	rank := (p*len(sorted) + 99) / 100
	if rank < 1 {
		rank = 1
	}
	return sorted[rank-1]
}
