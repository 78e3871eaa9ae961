package config

import (
	"net/url"
	"path/filepath"
	"time"

	"github.com/adrg/xdg"
)

// Default configuration values.
// Timeout, concurrency and the file names mirror the behavior cache-warming
// operators already rely on: one request at a time unless told otherwise,
// and a 10 second budget per page.
const (
	// DefaultTimeout is the per-request budget. A page that cannot be served
	// within 10 seconds is recorded as skipped and never retried in the run.
	DefaultTimeout = 10 * time.Second

	// DefaultConcurrency is the batch size used when no concurrency limit is given.
	DefaultConcurrency = 1

	// DefaultMaxRedirects limits how many redirects a single fetch follows.
	DefaultMaxRedirects = 10

	// DefaultMaxBodySize limits how much of a response body is read.
	// The body is only needed for link extraction, and 5MB covers
	// virtually every HTML page.
	DefaultMaxBodySize = 5 * 1024 * 1024 // 5MB

	// DefaultUserAgent identifies cachewarmer in HTTP requests so operators
	// can tell warming traffic apart from real visitors in their logs.
	DefaultUserAgent = "cachewarmer/1.0 (+https://github.com/nao1215/cachewarmer)"

	// DefaultBlacklistFile is the blacklist file looked up in the working directory.
	DefaultBlacklistFile = "blacklist"

	// DefaultSeedsFile is the extra seed URL file looked up in the working directory.
	DefaultSeedsFile = "urls"

	// AppName is the application name used for XDG directory paths.
	AppName = "cachewarmer"
)

// Config holds all configuration options for a warm run.
// It is populated from CLI flags and passed through the application
// explicitly rather than via global state.
type Config struct {
	// BaseURL is the site root. Only URLs on its host are crawled.
	BaseURL string

	// SitemapURL is the sitemap document used to seed the crawl.
	SitemapURL string

	// Concurrency is the batch size: the number of requests issued in parallel.
	Concurrency int

	// Debug keeps the raw hrefs found on each page in the report.
	Debug bool

	// Verbose enables slog.LevelDebug output. When false, only warnings
	// and errors are logged.
	Verbose bool

	// Timeout is the per-request timeout.
	Timeout time.Duration

	// MaxRedirects is the number of redirects followed per request.
	MaxRedirects int

	// MaxBodySize is the maximum response body size in bytes to read.
	MaxBodySize int64

	// UserAgent is the User-Agent header sent with every request.
	UserAgent string

	// ProxyAddress is an optional SOCKS5 proxy in "host:port" format.
	// Empty means direct connections.
	ProxyAddress string

	// RateLimit caps requests per second across the whole run.
	// Zero disables the limit.
	RateLimit float64

	// BlacklistFile is the path to the substring blacklist (one pattern per line).
	BlacklistFile string

	// SeedsFile is the path to extra seed URLs (one per line).
	SeedsFile string

	// ConfigFilePath is the path to the YAML configuration file.
	// If empty, .cachewarmer is searched in the current and home directory.
	ConfigFilePath string

	// SiteConfigs holds per-host settings loaded from the configuration file.
	SiteConfigs *File

	// JSONReport writes the report as JSON. Mutually exclusive with MarkdownReport.
	JSONReport bool

	// MarkdownReport writes the report as Markdown. Mutually exclusive with JSONReport.
	MarkdownReport bool

	// ReportFile is the output path for the report. Empty means stdout.
	ReportFile string

	// SaveHistory stores the finished run in the history database.
	SaveHistory bool

	// DBDir is the directory holding the history database.
	DBDir string
}

// NewConfig creates a new Config with default values.
func NewConfig() *Config {
	return &Config{
		Concurrency:   DefaultConcurrency,
		Timeout:       DefaultTimeout,
		MaxRedirects:  DefaultMaxRedirects,
		MaxBodySize:   DefaultMaxBodySize,
		UserAgent:     DefaultUserAgent,
		BlacklistFile: DefaultBlacklistFile,
		SeedsFile:     DefaultSeedsFile,
		DBDir:         XDGDataDir(),
	}
}

// XDGDataDir returns the XDG data directory for cachewarmer.
// On Linux: ~/.local/share/cachewarmer
func XDGDataDir() string {
	return filepath.Join(xdg.DataHome, AppName)
}

// XDGConfigDir returns the XDG config directory for cachewarmer.
// On Linux: ~/.config/cachewarmer
func XDGConfigDir() string {
	return filepath.Join(xdg.ConfigHome, AppName)
}

// Validate checks if the configuration is valid.
// It returns the first problem found as one of the sentinel errors in errors.go.
func (c *Config) Validate() error {
	if c.BaseURL == "" {
		return ErrNoBaseURL
	}
	if !isHTTPURL(c.BaseURL) {
		return ErrInvalidBaseURL
	}

	if c.SitemapURL == "" {
		return ErrNoSitemapURL
	}
	if !isHTTPURL(c.SitemapURL) {
		return ErrInvalidSitemapURL
	}

	if c.Concurrency < 1 {
		return ErrInvalidConcurrency
	}

	if c.Timeout <= 0 {
		return ErrInvalidTimeout
	}

	if c.MaxBodySize < 0 {
		return ErrInvalidMaxBodySize
	}

	if c.RateLimit < 0 {
		return ErrInvalidRateLimit
	}

	if c.JSONReport && c.MarkdownReport {
		return ErrConflictingReportFormats
	}

	return nil
}

// SiteConfig returns the merged per-host settings for the configured base URL.
func (c *Config) SiteConfig() SiteConfig {
	if c.SiteConfigs == nil {
		return SiteConfig{}
	}
	u, err := url.Parse(c.BaseURL)
	if err != nil {
		return c.SiteConfigs.Defaults
	}
	return c.SiteConfigs.GetSiteConfig(u.Host)
}

// isHTTPURL reports whether raw is an absolute http(s) URL with a host.
func isHTTPURL(raw string) bool {
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}
