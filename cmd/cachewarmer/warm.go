package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"syscall"

	"github.com/nao1215/cachewarmer/internal/config"
	"github.com/nao1215/cachewarmer/internal/httpclient"
	"github.com/nao1215/cachewarmer/internal/log"
	"github.com/nao1215/cachewarmer/internal/model"
	"github.com/nao1215/cachewarmer/internal/pipeline"
	"github.com/nao1215/cachewarmer/internal/report"
	"github.com/spf13/cobra"
)

// warmUsage is printed when the positional arguments are missing or malformed.
const warmUsage = "usage: cachewarmer warm <base-url> <sitemap-url> [concurrency] [--debug]"

// errUsage is returned for missing or malformed positional arguments.
var errUsage = errors.New(warmUsage)

// NewWarmCmd creates the warm command.
func NewWarmCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "warm <base-url> <sitemap-url> [concurrency]",
		Short: "Crawl a site once to populate its caches",
		Long: `Warm requests every page of a site exactly once.

The frontier is seeded with the base URL, the extra seeds from the seeds
file and every same-host <loc> of the sitemap. Pages are fetched in
batches of [concurrency] requests (default 1); links found in successful
pages are added to the frontier until nothing new is discovered.

Links to other hosts, images and PDFs, and URLs containing a blacklisted
substring are never requested.

Examples:
  # Warm a site one page at a time
  cachewarmer warm https://www.example.com https://www.example.com/sitemap.xml

  # Eight requests in parallel, capped at 20 requests per second
  cachewarmer warm https://www.example.com https://www.example.com/sitemap.xml 8 --rate 20

  # Show which links were found on each page
  cachewarmer warm https://www.example.com https://www.example.com/sitemap.xml --debug

  # Write a Markdown report and archive the run
  cachewarmer warm https://www.example.com https://www.example.com/sitemap.xml -m -o warm.md --history

Configuration file (.cachewarmer) example:
  defaults:
    userAgent: "cachewarmer/1.0"
  sites:
    staging.example.com:
      cookie: "preview=1"
      headers:
        Authorization: "Basic dXNlcjpwYXNz"
      blacklist:
        - /logout`,
		Args: validateWarmArgs,
		RunE: runWarmCmd,
	}

	// Crawl behavior flags
	cmd.Flags().Bool("debug", false,
		"Record the raw links found on each page and print them")
	cmd.Flags().DurationP("timeout", "t", config.DefaultTimeout,
		"Timeout for each request")
	cmd.Flags().Int("max-redirects", config.DefaultMaxRedirects,
		"Maximum redirects followed per request")
	cmd.Flags().Int64("max-body-size", config.DefaultMaxBodySize,
		"Maximum response body size in bytes read per page")
	cmd.Flags().String("user-agent", config.DefaultUserAgent,
		"User-Agent header sent with every request")
	cmd.Flags().String("proxy", "",
		"SOCKS5 proxy address for all requests (e.g., 127.0.0.1:1080)")
	cmd.Flags().Float64("rate", 0,
		"Maximum requests per second across all workers (0 = unlimited)")

	// Input files
	cmd.Flags().String("blacklist-file", config.DefaultBlacklistFile,
		"File of URL substrings that are never fetched, one per line")
	cmd.Flags().String("seeds-file", config.DefaultSeedsFile,
		"File of extra seed URLs, one per line")

	// Configuration file
	cmd.Flags().StringP("config", "c", "",
		"Configuration file path (default: .cachewarmer in current or home directory)")

	// Report flags
	cmd.Flags().BoolP("json", "j", false,
		"Output JSON report (mutually exclusive with --markdown)")
	cmd.Flags().BoolP("markdown", "m", false,
		"Output Markdown report (mutually exclusive with --json)")
	cmd.Flags().StringP("output", "o", "",
		"Write report to specified file path (creates directories if needed)")
	cmd.Flags().Bool("log-json", false,
		"Write logs to stderr as JSON lines")

	// History flags
	cmd.Flags().Bool("history", false,
		"Save the finished run to the history database")
	cmd.Flags().String("db-dir", config.XDGDataDir(),
		"Directory of the history database")

	return cmd
}

// validateWarmArgs requires a base URL and a sitemap URL, plus an optional
// positive concurrency limit.
func validateWarmArgs(_ *cobra.Command, args []string) error {
	if len(args) < 2 || len(args) > 3 {
		return errUsage
	}
	if len(args) == 3 {
		if _, err := parseConcurrency(args[2]); err != nil {
			return fmt.Errorf("%w: %w", errUsage, err)
		}
	}
	return nil
}

// parseConcurrency parses the optional concurrency argument.
func parseConcurrency(arg string) (int, error) {
	n, err := strconv.Atoi(arg)
	if err != nil {
		return 0, fmt.Errorf("concurrency %q is not a number", arg)
	}
	if n < 1 {
		return 0, config.ErrInvalidConcurrency
	}
	return n, nil
}

// runWarmCmd executes the warm command.
func runWarmCmd(cmd *cobra.Command, args []string) error {
	cfg, err := buildConfig(cmd, args)
	if err != nil {
		return err
	}

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}

	logJSON, err := cmd.Flags().GetBool("log-json")
	if err != nil {
		return err
	}
	logger := setupLogger(cmd.ErrOrStderr(), cfg.Verbose, logJSON)
	slog.SetDefault(logger)

	// Set up context with signal handling for graceful shutdown
	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigCh)
	go func() {
		select {
		case <-sigCh:
			logger.Warn("received shutdown signal, finishing in-flight requests...")
			cancel()
		case <-ctx.Done():
		}
	}()

	return runWarm(ctx, cmd, cfg, logger)
}

// buildConfig creates a Config from cobra command flags and arguments.
func buildConfig(cmd *cobra.Command, args []string) (*config.Config, error) {
	cfg := config.NewConfig()

	var err error

	if len(args) < 2 {
		return nil, errUsage
	}
	cfg.BaseURL = args[0]
	cfg.SitemapURL = args[1]
	if len(args) == 3 {
		cfg.Concurrency, err = parseConcurrency(args[2])
		if err != nil {
			return nil, err
		}
	}

	cfg.Verbose = getVerboseFlag(cmd)

	cfg.Debug, err = cmd.Flags().GetBool("debug")
	if err != nil {
		return nil, err
	}

	cfg.Timeout, err = cmd.Flags().GetDuration("timeout")
	if err != nil {
		return nil, err
	}

	cfg.MaxRedirects, err = cmd.Flags().GetInt("max-redirects")
	if err != nil {
		return nil, err
	}

	cfg.MaxBodySize, err = cmd.Flags().GetInt64("max-body-size")
	if err != nil {
		return nil, err
	}

	cfg.UserAgent, err = cmd.Flags().GetString("user-agent")
	if err != nil {
		return nil, err
	}

	cfg.ProxyAddress, err = cmd.Flags().GetString("proxy")
	if err != nil {
		return nil, err
	}

	cfg.RateLimit, err = cmd.Flags().GetFloat64("rate")
	if err != nil {
		return nil, err
	}

	cfg.BlacklistFile, err = cmd.Flags().GetString("blacklist-file")
	if err != nil {
		return nil, err
	}

	cfg.SeedsFile, err = cmd.Flags().GetString("seeds-file")
	if err != nil {
		return nil, err
	}

	cfg.ConfigFilePath, err = cmd.Flags().GetString("config")
	if err != nil {
		return nil, err
	}

	// An explicit config path must exist; a missing default file is fine.
	explicitConfigPath := cfg.ConfigFilePath != ""
	configPath := config.FindConfigFile(cfg.ConfigFilePath)

	switch {
	case configPath != "":
		cfg.SiteConfigs, err = config.LoadConfigFile(configPath)
		if err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
	case explicitConfigPath:
		return nil, fmt.Errorf("%w: %s", config.ErrConfigNotFound, cfg.ConfigFilePath)
	default:
		cfg.SiteConfigs = &config.File{
			Sites: make(map[string]config.SiteConfig),
		}
	}

	// A user agent from the config file applies unless the flag was given.
	if site := cfg.SiteConfig(); site.UserAgent != "" && !cmd.Flags().Changed("user-agent") {
		cfg.UserAgent = site.UserAgent
	}

	cfg.JSONReport, err = cmd.Flags().GetBool("json")
	if err != nil {
		return nil, err
	}

	cfg.MarkdownReport, err = cmd.Flags().GetBool("markdown")
	if err != nil {
		return nil, err
	}

	cfg.ReportFile, err = cmd.Flags().GetString("output")
	if err != nil {
		return nil, err
	}

	cfg.SaveHistory, err = cmd.Flags().GetBool("history")
	if err != nil {
		return nil, err
	}

	cfg.DBDir, err = cmd.Flags().GetString("db-dir")
	if err != nil {
		return nil, err
	}

	return cfg, nil
}

// setupLogger creates the sanitizing logger used for the run.
func setupLogger(w io.Writer, verbose, jsonFormat bool) *slog.Logger {
	if jsonFormat {
		return log.NewSecureJSONLogger(w, verbose)
	}
	return log.NewSecureLogger(w, verbose)
}

// newHTTPClient builds the client shared by the sitemap download and the spider.
func newHTTPClient(cfg *config.Config) (*http.Client, error) {
	site := cfg.SiteConfig()
	return httpclient.New(
		httpclient.WithTimeout(cfg.Timeout),
		httpclient.WithMaxRedirects(cfg.MaxRedirects),
		httpclient.WithUserAgent(cfg.UserAgent),
		httpclient.WithCookie(site.Cookie),
		httpclient.WithHeaders(site.Headers),
		httpclient.WithProxy(cfg.ProxyAddress),
	)
}

// runWarm executes the warm run and writes its report.
// The report is written even when the run was interrupted.
func runWarm(ctx context.Context, cmd *cobra.Command, cfg *config.Config, logger *slog.Logger) error {
	client, err := newHTTPClient(cfg)
	if err != nil {
		return fmt.Errorf("failed to create HTTP client: %w", err)
	}

	if cfg.ProxyAddress != "" {
		if err := httpclient.CheckProxy(ctx, cfg.ProxyAddress, cfg.BaseURL); err != nil {
			return fmt.Errorf("proxy %s is not usable: %w", cfg.ProxyAddress, err)
		}
		logger.Debug("proxy check passed", "proxy", cfg.ProxyAddress)
	}

	logger.Info("starting warm run",
		"base_url", cfg.BaseURL,
		"sitemap", cfg.SitemapURL,
		"concurrency", cfg.Concurrency,
		"history", cfg.SaveHistory,
	)

	p := pipeline.DefaultPipeline(cfg, client,
		[]pipeline.Option{pipeline.WithLogger(logger)},
		pipeline.WithOnSaved(func(id int64) {
			fmt.Fprintf(cmd.ErrOrStderr(), "Saved run #%d to history (%s)\n", id, cfg.DBDir)
		}),
	)

	crawlReport := model.NewCrawlReport(cfg.BaseURL, cfg.SitemapURL)
	runErr := p.Execute(ctx, crawlReport)
	if crawlReport.FinishedAt.IsZero() {
		crawlReport.Finish()
	}

	if err := outputReport(cmd.OutOrStdout(), cfg, crawlReport); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}

	if runErr != nil {
		if crawlReport.Cancelled {
			return fmt.Errorf("warm run interrupted after %d visited pages: %w", len(crawlReport.Visited), runErr)
		}
		return runErr
	}

	return nil
}

// outputReport writes the report in the requested format to stdout.
// With a report file, the formatted report goes to the file and the
// console listing is still printed to stdout.
func outputReport(stdout io.Writer, cfg *config.Config, crawlReport *model.CrawlReport) error {
	if cfg.ReportFile == "" {
		_, err := newReportWriter(stdout, cfg).Write(crawlReport)
		return err
	}

	dir := filepath.Dir(cfg.ReportFile)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0750); err != nil {
			return fmt.Errorf("failed to create output directory: %w", err)
		}
	}

	// Reports can list preview URLs, keep them owner-readable.
	f, err := os.OpenFile(cfg.ReportFile, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	defer f.Close()

	writer := report.NewMultiWriter(
		newReportWriter(f, cfg),
		report.NewSimpleWriter(stdout, report.WithRequestLog(false)),
	)
	_, err = writer.Write(crawlReport)
	return err
}

// newReportWriter selects the writer for the configured format.
func newReportWriter(output io.Writer, cfg *config.Config) report.Writer {
	switch {
	case cfg.JSONReport:
		return report.NewJSONWriter(output, report.WithPrettyPrint(), report.WithVersion(getVersion()))
	case cfg.MarkdownReport:
		return report.NewMarkdownWriter(output)
	default:
		return report.NewSimpleWriter(output)
	}
}
