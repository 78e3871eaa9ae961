package database

import (
	"sort"
	"time"
)

// Comparison describes how a site changed between two runs.
type Comparison struct {
	Older RunMeta `json:"older"`
	Newer RunMeta `json:"newer"`

	// NewlyVisited are URLs warmed by the newer run but not the older one.
	NewlyVisited []string `json:"newly_visited"`

	// NoLongerVisited are URLs warmed by the older run but not the newer one.
	NoLongerVisited []string `json:"no_longer_visited"`

	// NewFailures are newer requests that failed where the older run
	// either succeeded or never asked.
	NewFailures []FetchRecord `json:"new_failures"`

	// Recovered are URLs that failed in the older run and were warmed in the newer one.
	Recovered []string `json:"recovered"`

	// ContentChanged are URLs warmed in both runs whose body digest differs.
	ContentChanged []string `json:"content_changed"`

	// AvgLatencyOlder and AvgLatencyNewer are the mean request times of
	// each run, over URLs warmed in both.
	AvgLatencyOlder time.Duration `json:"avg_latency_older_ns"`
	AvgLatencyNewer time.Duration `json:"avg_latency_newer_ns"`
}

// LatencyDelta is the change in mean latency. Negative means faster.
func (c *Comparison) LatencyDelta() time.Duration {
	return c.AvgLatencyNewer - c.AvgLatencyOlder
}

// HasChanges reports whether anything other than latency changed.
func (c *Comparison) HasChanges() bool {
	return len(c.NewlyVisited) > 0 || len(c.NoLongerVisited) > 0 ||
		len(c.NewFailures) > 0 || len(c.Recovered) > 0 || len(c.ContentChanged) > 0
}

// CompareFetches diffs the requests of two runs. Result slices are sorted by URL.
// When a URL was requested more than once in a run, the last record wins.
func CompareFetches(older, newer []FetchRecord) *Comparison {
	oldByURL := indexByURL(older)
	newByURL := indexByURL(newer)

	cmp := &Comparison{
		NewlyVisited:    make([]string, 0),
		NoLongerVisited: make([]string, 0),
		NewFailures:     make([]FetchRecord, 0),
		Recovered:       make([]string, 0),
		ContentChanged:  make([]string, 0),
	}

	var oldSum, newSum time.Duration
	var common int

	for u, n := range newByURL {
		o, seen := oldByURL[u]
		switch {
		case n.Outcome == OutcomeVisited && (!seen || o.Outcome != OutcomeVisited):
			if seen && isFailureOutcome(o.Outcome) {
				cmp.Recovered = append(cmp.Recovered, u)
			} else {
				cmp.NewlyVisited = append(cmp.NewlyVisited, u)
			}
		case isFailureOutcome(n.Outcome) && (!seen || !isFailureOutcome(o.Outcome)):
			cmp.NewFailures = append(cmp.NewFailures, n)
		}

		if seen && n.Outcome == OutcomeVisited && o.Outcome == OutcomeVisited {
			common++
			oldSum += o.Elapsed
			newSum += n.Elapsed
			if o.Digest != "" && n.Digest != "" && o.Digest != n.Digest {
				cmp.ContentChanged = append(cmp.ContentChanged, u)
			}
		}
	}

	for u, o := range oldByURL {
		if o.Outcome != OutcomeVisited {
			continue
		}
		if n, ok := newByURL[u]; !ok || n.Outcome != OutcomeVisited {
			cmp.NoLongerVisited = append(cmp.NoLongerVisited, u)
		}
	}

	if common > 0 {
		cmp.AvgLatencyOlder = oldSum / time.Duration(common)
		cmp.AvgLatencyNewer = newSum / time.Duration(common)
	}

	sort.Strings(cmp.NewlyVisited)
	sort.Strings(cmp.NoLongerVisited)
	sort.Strings(cmp.Recovered)
	sort.Strings(cmp.ContentChanged)
	sort.Slice(cmp.NewFailures, func(i, j int) bool {
		return cmp.NewFailures[i].URL < cmp.NewFailures[j].URL
	})

	return cmp
}

func indexByURL(records []FetchRecord) map[string]FetchRecord {
	m := make(map[string]FetchRecord, len(records))
	for _, r := range records {
		m[r.URL] = r
	}
	return m
}

// isFailureOutcome reports whether a stored outcome is a failed request.
// Filter outcomes never reach the fetches table.
func isFailureOutcome(outcome string) bool {
	return outcome != OutcomeVisited && outcome != ""
}
