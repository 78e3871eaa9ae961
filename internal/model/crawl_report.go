package model

import "time"

// SkippedURL is a URL that was not counted as visited, with the reason.
type SkippedURL struct {
	URL        string     `json:"url"`
	Reason     SkipReason `json:"reason"`
	StatusCode int        `json:"status_code,omitempty"`
	Error      string     `json:"error,omitempty"`
}

// CrawlReport is the result of one warm run.
//
// The report is owned by the goroutine driving the crawl and is not safe
// for concurrent mutation.
type CrawlReport struct {
	// BaseURL is the site root the crawl was restricted to.
	BaseURL string `json:"base_url"`

	// SitemapURL is the sitemap used for seeding.
	SitemapURL string `json:"sitemap_url"`

	// StartedAt and FinishedAt bound the run.
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`

	// SeedCount is the number of URLs enqueued before crawling started.
	SeedCount int `json:"seed_count"`

	// SitemapError holds the sitemap failure, if any. Seeding continues
	// with the base URL when the sitemap cannot be read.
	SitemapError string `json:"sitemap_error,omitempty"`

	// Visited lists URLs that answered 200 with a body, in processing order.
	Visited []string `json:"visited"`

	// Skipped lists every other URL taken from the frontier, in processing order.
	Skipped []SkippedURL `json:"skipped"`

	// DebugTrace maps a page URL to the raw href values found on it.
	// Only filled in debug mode.
	DebugTrace map[string][]string `json:"debug_trace,omitempty"`

	// Fetches holds every request made, in completion-collection order.
	Fetches []FetchResult `json:"fetches"`

	// Cancelled is true when the run was interrupted before the frontier drained.
	Cancelled bool `json:"cancelled,omitempty"`

	// Pending is the number of URLs left in the frontier at cancellation.
	Pending int `json:"pending,omitempty"`

	// Errors collects pipeline step failures that did not stop the run.
	Errors []string `json:"errors,omitempty"`
}

// NewCrawlReport creates an empty report for a run starting now.
func NewCrawlReport(baseURL, sitemapURL string) *CrawlReport {
	return &CrawlReport{
		BaseURL:    baseURL,
		SitemapURL: sitemapURL,
		StartedAt:  time.Now(),
		Visited:    make([]string, 0),
		Skipped:    make([]SkippedURL, 0),
		DebugTrace: make(map[string][]string),
		Fetches:    make([]FetchResult, 0),
	}
}

// AddVisited records a successfully warmed URL.
func (r *CrawlReport) AddVisited(url string) {
	r.Visited = append(r.Visited, url)
}

// AddSkipped records a URL that was filtered out or failed.
func (r *CrawlReport) AddSkipped(url string, reason SkipReason, statusCode int, errMsg string) {
	r.Skipped = append(r.Skipped, SkippedURL{
		URL:        url,
		Reason:     reason,
		StatusCode: statusCode,
		Error:      errMsg,
	})
}

// AddFetch records a completed request.
func (r *CrawlReport) AddFetch(f FetchResult) {
	f.Body = nil
	r.Fetches = append(r.Fetches, f)
}

// AddTrace records the raw hrefs found on source.
func (r *CrawlReport) AddTrace(source string, hrefs []string) {
	if r.DebugTrace == nil {
		r.DebugTrace = make(map[string][]string)
	}
	r.DebugTrace[source] = append(r.DebugTrace[source], hrefs...)
}

// AddError records a non-fatal step failure.
func (r *CrawlReport) AddError(err error) {
	if err != nil {
		r.Errors = append(r.Errors, err.Error())
	}
}

// SkippedURLs returns the skipped URLs in order, without reasons.
func (r *CrawlReport) SkippedURLs() []string {
	urls := make([]string, len(r.Skipped))
	for i, s := range r.Skipped {
		urls[i] = s.URL
	}
	return urls
}

// Finish stamps the end time.
func (r *CrawlReport) Finish() {
	r.FinishedAt = time.Now()
}

// Duration returns the run time. Before Finish it is the time elapsed so far.
func (r *CrawlReport) Duration() time.Duration {
	if r.FinishedAt.IsZero() {
		return time.Since(r.StartedAt)
	}
	return r.FinishedAt.Sub(r.StartedAt)
}

// Failures returns the skipped entries whose request was made and failed.
func (r *CrawlReport) Failures() []SkippedURL {
	out := make([]SkippedURL, 0)
	for _, s := range r.Skipped {
		if s.Reason.IsFailure() {
			out = append(out, s)
		}
	}
	return out
}
