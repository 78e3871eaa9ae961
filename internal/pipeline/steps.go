package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/nao1215/cachewarmer/internal/blacklist"
	"github.com/nao1215/cachewarmer/internal/config"
	"github.com/nao1215/cachewarmer/internal/crawler"
	"github.com/nao1215/cachewarmer/internal/database"
	"github.com/nao1215/cachewarmer/internal/model"
)

// State is shared by the steps of one run.
// SeedStep fills it and WarmStep drains it.
type State struct {
	// Frontier holds the URLs waiting to be fetched.
	Frontier *crawler.Frontier

	// Blacklist is the filter loaded by SeedStep.
	Blacklist *blacklist.Filter
}

// NewState creates an empty state for a new run.
func NewState() *State {
	return &State{
		Frontier:  crawler.NewFrontier(),
		Blacklist: blacklist.New(),
	}
}

// SeedStep loads the blacklist and extra seeds, then fills the frontier
// from the base URL, the extra seeds and the sitemap.
// Missing or unreadable input files are logged and never stop the run.
type SeedStep struct {
	client *http.Client
	state  *State

	blacklistFile string
	seedsFile     string

	// siteBlacklist and siteSeeds come from the configuration file.
	siteBlacklist []string
	siteSeeds     []string

	logger *slog.Logger
}

// SeedStepOption configures a SeedStep.
type SeedStepOption func(*SeedStep)

// WithBlacklistFile sets the blacklist file. An empty path disables it.
func WithBlacklistFile(path string) SeedStepOption {
	return func(s *SeedStep) {
		s.blacklistFile = path
	}
}

// WithSeedsFile sets the extra seeds file. An empty path disables it.
func WithSeedsFile(path string) SeedStepOption {
	return func(s *SeedStep) {
		s.seedsFile = path
	}
}

// WithSiteBlacklist adds patterns on top of the blacklist file.
func WithSiteBlacklist(patterns []string) SeedStepOption {
	return func(s *SeedStep) {
		s.siteBlacklist = patterns
	}
}

// WithSiteSeeds adds seed URLs after the ones from the seeds file.
func WithSiteSeeds(urls []string) SeedStepOption {
	return func(s *SeedStep) {
		s.siteSeeds = urls
	}
}

// WithSeedLogger sets a custom logger for the seed step.
func WithSeedLogger(logger *slog.Logger) SeedStepOption {
	return func(s *SeedStep) {
		s.logger = logger
	}
}

// NewSeedStep creates a seed step that fills state.
// The client is used to download the sitemap.
func NewSeedStep(client *http.Client, state *State, opts ...SeedStepOption) *SeedStep {
	s := &SeedStep{
		client: client,
		state:  state,
		logger: slog.Default(),
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Name returns the step name.
func (s *SeedStep) Name() string {
	return "seed"
}

// Do executes the seed step.
func (s *SeedStep) Do(ctx context.Context, report *model.CrawlReport) error {
	s.state.Blacklist = s.loadBlacklist(report).Extend(s.siteBlacklist...)

	seeds := append(s.loadSeeds(report), s.siteSeeds...)
	seeder := crawler.NewSeeder(s.client,
		crawler.WithExtraSeeds(seeds),
		crawler.WithSeederLogger(s.logger),
	)

	result := seeder.Seed(ctx, s.state.Frontier, report.BaseURL, report.SitemapURL)
	report.SeedCount = result.Enqueued
	if result.SitemapErr != nil {
		report.SitemapError = result.SitemapErr.Error()
	}

	s.logger.Debug("seeding completed",
		"seeds", result.Enqueued,
		"sitemap_entries", result.SitemapEntries,
		"blacklist_patterns", s.state.Blacklist.Len(),
	)

	return nil
}

func (s *SeedStep) loadBlacklist(report *model.CrawlReport) *blacklist.Filter {
	if s.blacklistFile == "" {
		return blacklist.New()
	}

	filter, err := blacklist.Load(s.blacklistFile)
	switch {
	case errors.Is(err, blacklist.ErrBlacklistNotFound):
		s.logger.Debug("no blacklist file, nothing is blacklisted", "path", s.blacklistFile)
	case err != nil:
		s.logger.Warn("failed to load blacklist", "path", s.blacklistFile, "error", err)
		report.AddError(err)
	}
	return filter
}

func (s *SeedStep) loadSeeds(report *model.CrawlReport) []string {
	if s.seedsFile == "" {
		return nil
	}

	seeds, err := config.LoadSeedsFile(s.seedsFile)
	switch {
	case errors.Is(err, config.ErrSeedsFileNotFound):
		s.logger.Debug("no seeds file, starting from the base URL", "path", s.seedsFile)
	case err != nil:
		s.logger.Warn("failed to load seeds", "path", s.seedsFile, "error", err)
		report.AddError(err)
	}
	return seeds
}

// WarmStep drains the frontier with the spider.
type WarmStep struct {
	client     *http.Client
	state      *State
	spiderOpts []crawler.SpiderOption
	logger     *slog.Logger
}

// WarmStepOption configures a WarmStep.
type WarmStepOption func(*WarmStep)

// WithSpiderOptions passes options through to the spider.
// The blacklist always comes from the shared state.
func WithSpiderOptions(opts ...crawler.SpiderOption) WarmStepOption {
	return func(s *WarmStep) {
		s.spiderOpts = append(s.spiderOpts, opts...)
	}
}

// WithWarmLogger sets a custom logger for the warm step and its spider.
func WithWarmLogger(logger *slog.Logger) WarmStepOption {
	return func(s *WarmStep) {
		s.logger = logger
	}
}

// NewWarmStep creates a warm step that drains state.Frontier.
func NewWarmStep(client *http.Client, state *State, opts ...WarmStepOption) *WarmStep {
	s := &WarmStep{
		client: client,
		state:  state,
		logger: slog.Default(),
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Name returns the step name.
func (s *WarmStep) Name() string {
	return "warm"
}

// Do executes the warm step. The report is finished even when the run is
// interrupted, and the interruption error is returned.
func (s *WarmStep) Do(ctx context.Context, report *model.CrawlReport) error {
	opts := make([]crawler.SpiderOption, 0, len(s.spiderOpts)+2)
	opts = append(opts, s.spiderOpts...)
	opts = append(opts,
		crawler.WithBlacklist(s.state.Blacklist),
		crawler.WithSpiderLogger(s.logger),
	)

	spider := crawler.NewSpider(s.client, report.BaseURL, opts...)
	err := spider.Run(ctx, s.state.Frontier, report)
	report.Finish()

	s.logger.Info("warm completed",
		"visited", len(report.Visited),
		"skipped", len(report.Skipped),
		"duration", report.Duration(),
	)

	return err
}

// HistoryStep stores the finished report in the history database.
// A failure here is fatal: the operator asked for the run to be archived.
type HistoryStep struct {
	dbDir   string
	onSaved func(id int64)
	logger  *slog.Logger
}

// HistoryStepOption configures a HistoryStep.
type HistoryStepOption func(*HistoryStep)

// WithOnSaved registers a callback receiving the ID of the stored run.
func WithOnSaved(fn func(id int64)) HistoryStepOption {
	return func(s *HistoryStep) {
		s.onSaved = fn
	}
}

// WithHistoryLogger sets a custom logger for the history step.
func WithHistoryLogger(logger *slog.Logger) HistoryStepOption {
	return func(s *HistoryStep) {
		s.logger = logger
	}
}

// NewHistoryStep creates a history step writing to the database in dbDir.
func NewHistoryStep(dbDir string, opts ...HistoryStepOption) *HistoryStep {
	s := &HistoryStep{
		dbDir:  dbDir,
		logger: slog.Default(),
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Name returns the step name.
func (s *HistoryStep) Name() string {
	return "history"
}

// Do executes the history step.
func (s *HistoryStep) Do(ctx context.Context, report *model.CrawlReport) error {
	db, err := database.Open(s.dbDir, database.DefaultOptions())
	if err != nil {
		return fmt.Errorf("failed to open history database: %w", err)
	}
	defer db.Close()

	id, err := db.SaveRun(ctx, report)
	if err != nil {
		return fmt.Errorf("failed to save run: %w", err)
	}

	s.logger.Info("run saved", "id", id, "path", db.Path())
	if s.onSaved != nil {
		s.onSaved(id)
	}

	return nil
}

// DefaultPipeline creates the standard warm pipeline for cfg:
// seed, warm, and history when cfg.SaveHistory is set.
//
// The first variadic parameter accepts pipeline options (WithLogger, etc).
// The second configures the history step.
func DefaultPipeline(cfg *config.Config, client *http.Client, pipelineOpts []Option, historyOpts ...HistoryStepOption) *Pipeline {
	p := New(pipelineOpts...)
	site := cfg.SiteConfig()
	state := NewState()

	p.AddSteps(
		NewSeedStep(client, state,
			WithBlacklistFile(cfg.BlacklistFile),
			WithSeedsFile(cfg.SeedsFile),
			WithSiteBlacklist(site.Blacklist),
			WithSiteSeeds(site.Seeds),
			WithSeedLogger(p.logger),
		),
		NewWarmStep(client, state,
			WithSpiderOptions(
				crawler.WithConcurrency(cfg.Concurrency),
				crawler.WithMaxBodySize(cfg.MaxBodySize),
				crawler.WithRateLimit(cfg.RateLimit),
				crawler.WithDebug(cfg.Debug),
			),
			WithWarmLogger(p.logger),
		),
	)

	if cfg.SaveHistory {
		opts := append([]HistoryStepOption{WithHistoryLogger(p.logger)}, historyOpts...)
		p.AddStep(NewHistoryStep(cfg.DBDir, opts...))
	}

	return p
}
