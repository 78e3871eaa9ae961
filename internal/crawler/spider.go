package crawler

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/nao1215/cachewarmer/internal/blacklist"
	"github.com/nao1215/cachewarmer/internal/model"
)

// Default spider settings.
const (
	// DefaultConcurrency is the batch size when none is configured.
	DefaultConcurrency = 1

	// DefaultMaxBodySize limits how much of each response body is read.
	DefaultMaxBodySize = 5 * 1024 * 1024 // 5MB
)

// Spider fetches every URL of a frontier once and feeds discovered
// same-host links back into it.
//
// The frontier is drained in batches of the concurrency size. A batch is
// fetched concurrently and fully collected before any of its pages are
// processed, so the next batch only starts when the slowest request of the
// current one has finished.
type Spider struct {
	// client performs the requests. Its timeout bounds each fetch.
	client *http.Client

	// baseURL restricts the crawl to its host and is the base for relative links.
	baseURL string

	// concurrency is the batch size and the number of parallel requests.
	concurrency int

	// maxBodySize limits the size of response bodies to read.
	maxBodySize int64

	// blacklist filters URLs before fetching and before enqueueing.
	blacklist *blacklist.Filter

	// limiter caps the global request rate. Nil means unlimited.
	limiter *rate.Limiter

	// debug keeps the raw hrefs of each page in the report.
	debug bool

	logger *slog.Logger
}

// SpiderOption configures a Spider.
type SpiderOption func(*Spider)

// WithConcurrency sets the batch size. Values below 1 are ignored.
func WithConcurrency(n int) SpiderOption {
	return func(s *Spider) {
		if n >= 1 {
			s.concurrency = n
		}
	}
}

// WithMaxBodySize sets the maximum response body size. Values below 1 are ignored.
func WithMaxBodySize(size int64) SpiderOption {
	return func(s *Spider) {
		if size > 0 {
			s.maxBodySize = size
		}
	}
}

// WithBlacklist sets the URL blacklist.
func WithBlacklist(f *blacklist.Filter) SpiderOption {
	return func(s *Spider) {
		s.blacklist = f
	}
}

// WithRateLimit caps requests per second across all workers.
// Zero or a negative value disables the limit.
func WithRateLimit(perSecond float64) SpiderOption {
	return func(s *Spider) {
		if perSecond <= 0 {
			s.limiter = nil
			return
		}
		burst := int(perSecond)
		if burst < 1 {
			burst = 1
		}
		s.limiter = rate.NewLimiter(rate.Limit(perSecond), burst)
	}
}

// WithDebug records the raw hrefs found on each page in the report.
func WithDebug(debug bool) SpiderOption {
	return func(s *Spider) {
		s.debug = debug
	}
}

// WithSpiderLogger sets the logger. The default is slog.Default().
func WithSpiderLogger(logger *slog.Logger) SpiderOption {
	return func(s *Spider) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// NewSpider creates a Spider that stays on the host of baseURL.
func NewSpider(client *http.Client, baseURL string, opts ...SpiderOption) *Spider {
	s := &Spider{
		client:      client,
		baseURL:     baseURL,
		concurrency: DefaultConcurrency,
		maxBodySize: DefaultMaxBodySize,
		blacklist:   blacklist.New(),
		logger:      slog.Default(),
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Run drains frontier, recording every outcome in report.
//
// Cancellation is checked before each batch. Requests already in flight
// are not interrupted; they finish or hit the client timeout. On
// cancellation report.Cancelled is set, report.Pending holds the number of
// URLs never dequeued, and the context error is returned.
func (s *Spider) Run(ctx context.Context, frontier *Frontier, report *model.CrawlReport) error {
	batchNum := 0
	for {
		if err := ctx.Err(); err != nil {
			report.Cancelled = true
			report.Pending = frontier.Len()
			s.logger.Warn("warm run interrupted", "pending", report.Pending, "visited", len(report.Visited))
			return fmt.Errorf("warm run interrupted: %w", err)
		}

		batch := frontier.DequeueBatch(s.concurrency)
		if len(batch) == 0 {
			return nil
		}
		batchNum++
		s.logger.Debug("processing batch", "batch", batchNum, "size", len(batch), "remaining", frontier.Len())

		s.processBatch(ctx, frontier, report, batch)
	}
}

// processBatch filters, fetches and processes one batch.
func (s *Spider) processBatch(ctx context.Context, frontier *Frontier, report *model.CrawlReport, batch []string) {
	toFetch := make([]string, 0, len(batch))
	for _, u := range batch {
		switch {
		case !IsFetchable(u):
			report.AddSkipped(u, model.SkipUnfetchable, 0, "")
		case s.blacklist.IsBlacklisted(u):
			report.AddSkipped(u, model.SkipBlacklisted, 0, "")
		case frontier.IsVisited(u):
			report.AddSkipped(u, model.SkipAlreadyVisited, 0, "")
		default:
			toFetch = append(toFetch, u)
			continue
		}
		s.logger.Debug("skipping URL", "url", u, "reason", report.Skipped[len(report.Skipped)-1].Reason)
	}

	results := s.fetchAll(ctx, toFetch)

	for _, u := range batch {
		frontier.MarkVisited(u)
	}

	for i := range results {
		res := &results[i]
		report.AddFetch(*res)

		if !res.Succeeded() {
			reason := res.SkipReason()
			report.AddSkipped(res.URL, reason, res.StatusCode, res.Error)
			s.logger.Info("fetch not warmed", "url", res.URL, "status", res.StatusCode, "reason", reason, "error", res.Error)
			continue
		}

		report.AddVisited(res.URL)
		s.expand(frontier, report, res.URL, res.Body)
		res.Body = nil
	}
}

// fetchAll requests urls concurrently and returns the results in input order.
// A failed request never stops the others.
func (s *Spider) fetchAll(ctx context.Context, urls []string) []model.FetchResult {
	results := make([]model.FetchResult, len(urls))
	if len(urls) == 0 {
		return results
	}

	// In-flight requests must not be torn down by cancellation.
	reqCtx := context.WithoutCancel(ctx)

	g := new(errgroup.Group)
	g.SetLimit(s.concurrency)
	for i, u := range urls {
		g.Go(func() error {
			results[i] = s.fetch(reqCtx, u)
			return nil
		})
	}
	_ = g.Wait() //nolint:errcheck // workers never return errors

	return results
}

// expand extracts links from a warmed page and enqueues the ones to crawl.
func (s *Spider) expand(frontier *Frontier, report *model.CrawlReport, source string, body []byte) {
	hrefs := ExtractLinks(body)
	if s.debug {
		report.AddTrace(source, hrefs)
	}

	added := 0
	for _, raw := range hrefs {
		abs, ok := Resolve(s.baseURL, DecodeHref(raw))
		if !ok {
			continue
		}
		if !IsSameHost(s.baseURL, abs) {
			continue
		}
		if s.blacklist.IsBlacklisted(abs) {
			continue
		}
		if frontier.Enqueue(abs) {
			added++
		}
	}

	s.logger.Debug("links extracted", "url", source, "found", len(hrefs), "enqueued", added)
}
