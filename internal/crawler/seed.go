package crawler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/nao1215/cachewarmer/internal/sitemap"
)

// SeedResult describes what Seed put into the frontier.
type SeedResult struct {
	// Enqueued is the number of URLs added to the frontier.
	Enqueued int

	// SitemapEntries is the number of <loc> entries read from the sitemap.
	SitemapEntries int

	// Dropped is the number of sitemap or extra seed URLs rejected because
	// they are on another host or could not be resolved.
	Dropped int

	// SitemapErr is the sitemap failure, if any. It never stops seeding.
	SitemapErr error
}

// Seeder fills a frontier before crawling starts.
type Seeder struct {
	client *http.Client
	extra  []string
	logger *slog.Logger
}

// SeederOption configures a Seeder.
type SeederOption func(*Seeder)

// WithExtraSeeds adds URLs enqueued right after the base URL.
// Relative entries are resolved against the base URL.
func WithExtraSeeds(urls []string) SeederOption {
	return func(s *Seeder) {
		s.extra = append(s.extra, urls...)
	}
}

// WithSeederLogger sets the logger. The default is slog.Default().
func WithSeederLogger(logger *slog.Logger) SeederOption {
	return func(s *Seeder) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// NewSeeder creates a Seeder that downloads sitemaps with client.
func NewSeeder(client *http.Client, opts ...SeederOption) *Seeder {
	s := &Seeder{
		client: client,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Seed enqueues baseURL, then the extra seeds, then every same-host <loc>
// of the sitemap at sitemapURL, in that order.
//
// A sitemap that cannot be fetched or parsed is logged and reported in
// SeedResult.SitemapErr; the crawl then starts from the base URL and the
// extra seeds alone. The sitemap is not retried.
func (s *Seeder) Seed(ctx context.Context, frontier *Frontier, baseURL, sitemapURL string) SeedResult {
	var result SeedResult

	if frontier.Enqueue(baseURL) {
		result.Enqueued++
	}

	for _, seed := range s.extra {
		s.add(frontier, baseURL, seed, &result)
	}

	if sitemapURL == "" {
		return result
	}

	locs, err := sitemap.Fetch(ctx, s.client, sitemapURL)
	if err != nil {
		s.logger.Warn("sitemap unavailable, continuing without it", "sitemap", sitemapURL, "error", err)
		result.SitemapErr = err
		return result
	}

	result.SitemapEntries = len(locs)
	for _, loc := range locs {
		s.add(frontier, baseURL, loc, &result)
	}

	s.logger.Info("frontier seeded",
		"enqueued", result.Enqueued,
		"sitemap_entries", result.SitemapEntries,
		"dropped", result.Dropped,
	)

	return result
}

// add resolves a seed against baseURL and enqueues it when it is on the same host.
// Blacklisted seeds are enqueued so they show up as skipped in the report.
func (s *Seeder) add(frontier *Frontier, baseURL, seed string, result *SeedResult) {
	abs, ok := Resolve(baseURL, seed)
	if !ok || !IsSameHost(baseURL, abs) {
		s.logger.Debug("dropping off-host seed", "url", seed)
		result.Dropped++
		return
	}
	if frontier.Enqueue(abs) {
		result.Enqueued++
	}
}
