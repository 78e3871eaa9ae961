package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/nao1215/cachewarmer/internal/model"
)

// DBFileName is the name of the history database inside the data directory.
const DBFileName = "history.db"

// OutcomeVisited marks a fetch that warmed a page. Other fetches store
// their model.SkipReason as outcome.
const OutcomeVisited = "visited"

var (
	// ErrRunNotFound is returned when no run has the requested ID.
	ErrRunNotFound = errors.New("run not found")

	// ErrNotEnoughRuns is returned when a comparison needs two runs of a site
	// and fewer are stored.
	ErrNotEnoughRuns = errors.New("at least two runs are needed for a comparison")
)

// HistoryDB provides SQLite-based storage for finished warm runs.
type HistoryDB struct {
	// db is the underlying SQL database connection.
	db *sql.DB

	// dbPath is the path to the SQLite database file.
	dbPath string
}

// Options configures HistoryDB behavior.
type Options struct {
	// CreateIfNotExists creates the database file if it doesn't exist.
	CreateIfNotExists bool

	// EnableWAL enables Write-Ahead Logging.
	EnableWAL bool
}

// DefaultOptions returns the default database options.
func DefaultOptions() Options {
	return Options{
		CreateIfNotExists: true,
		EnableWAL:         true,
	}
}

// Open opens or creates the history database in dbDir.
// If CreateIfNotExists is false and the database doesn't exist, an error is returned.
func Open(dbDir string, opts Options) (*HistoryDB, error) {
	dbPath := filepath.Join(dbDir, DBFileName)

	if !opts.CreateIfNotExists {
		if _, err := os.Stat(dbPath); os.IsNotExist(err) {
			return nil, fmt.Errorf("history database not found at %s (run warm with --history first)", dbPath)
		} else if err != nil {
			return nil, fmt.Errorf("failed to check database path: %w", err)
		}
	} else {
		if err := os.MkdirAll(dbDir, 0750); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	// mode=rw refuses to create a missing file, mode=rwc creates it.
	dsn := dbPath + "?mode=rw"
	if opts.CreateIfNotExists {
		dsn = dbPath + "?mode=rwc"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite supports a single writer.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(time.Hour)

	hdb := &HistoryDB{
		db:     db,
		dbPath: dbPath,
	}

	if opts.EnableWAL {
		if _, err := db.ExecContext(context.Background(), "PRAGMA journal_mode=WAL"); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
		}
	}

	if err := hdb.createTables(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	return hdb, nil
}

// Close closes the database connection.
func (hdb *HistoryDB) Close() error {
	return hdb.db.Close()
}

// Path returns the database file path.
func (hdb *HistoryDB) Path() string {
	return hdb.dbPath
}

// createTables creates the database schema if it doesn't exist.
func (hdb *HistoryDB) createTables() error {
	schema := `
	-- One row per finished warm run
	CREATE TABLE IF NOT EXISTS runs (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		base_url TEXT NOT NULL,
		sitemap_url TEXT,
		started_at TEXT NOT NULL,
		finished_at TEXT NOT NULL,
		seed_count INTEGER DEFAULT 0,
		visited INTEGER DEFAULT 0,
		skipped INTEGER DEFAULT 0,
		failed INTEGER DEFAULT 0,
		requests INTEGER DEFAULT 0,
		sitemap_error TEXT,
		report_json TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_runs_base_url ON runs(base_url);
	CREATE INDEX IF NOT EXISTS idx_runs_started_at ON runs(started_at);

	-- One row per request made during a run
	CREATE TABLE IF NOT EXISTS fetches (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		run_id INTEGER NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
		url TEXT NOT NULL,
		status_code INTEGER,
		outcome TEXT NOT NULL,
		elapsed_ns INTEGER,
		body_size INTEGER,
		digest TEXT,
		cache_status TEXT,
		error TEXT
	);

	CREATE INDEX IF NOT EXISTS idx_fetches_run ON fetches(run_id);
	CREATE INDEX IF NOT EXISTS idx_fetches_url ON fetches(url);
	`

	_, err := hdb.db.ExecContext(context.Background(), schema)
	return err
}

// RunMeta summarizes a stored run without loading the full report.
type RunMeta struct {
	ID           int64     `json:"id"`
	BaseURL      string    `json:"base_url"`
	SitemapURL   string    `json:"sitemap_url,omitempty"`
	StartedAt    time.Time `json:"started_at"`
	FinishedAt   time.Time `json:"finished_at"`
	SeedCount    int       `json:"seed_count"`
	Visited      int       `json:"visited"`
	Skipped      int       `json:"skipped"`
	Failed       int       `json:"failed"`
	Requests     int       `json:"requests"`
	SitemapError string    `json:"sitemap_error,omitempty"`
}

// Duration returns how long the run took.
func (m RunMeta) Duration() time.Duration {
	return m.FinishedAt.Sub(m.StartedAt)
}

// FetchRecord is a stored request.
type FetchRecord struct {
	URL         string            `json:"url"`
	StatusCode  int               `json:"status_code"`
	Outcome     string            `json:"outcome"`
	Elapsed     time.Duration     `json:"elapsed_ns"`
	BodySize    int64             `json:"body_size"`
	Digest      string            `json:"digest,omitempty"`
	CacheStatus model.CacheStatus `json:"cache_status,omitempty"`
	Error       string            `json:"error,omitempty"`
}

// SiteInfo summarizes the stored runs of one base URL.
type SiteInfo struct {
	BaseURL string    `json:"base_url"`
	Runs    int       `json:"runs"`
	LastRun time.Time `json:"last_run"`
}

// SaveRun stores a finished report and its requests in one transaction.
// It returns the ID of the new run.
func (hdb *HistoryDB) SaveRun(ctx context.Context, report *model.CrawlReport) (int64, error) {
	reportJSON, err := json.Marshal(report)
	if err != nil {
		return 0, fmt.Errorf("failed to serialize report: %w", err)
	}

	finished := report.FinishedAt
	if finished.IsZero() {
		finished = time.Now()
	}
	summary := model.NewSummary(report)

	tx, err := hdb.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after Commit

	res, err := tx.ExecContext(ctx, `
	INSERT INTO runs (base_url, sitemap_url, started_at, finished_at, seed_count,
		visited, skipped, failed, requests, sitemap_error, report_json)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		report.BaseURL,
		report.SitemapURL,
		formatTimestamp(report.StartedAt),
		formatTimestamp(finished),
		report.SeedCount,
		summary.Visited,
		summary.Skipped,
		summary.Failed,
		summary.Requests,
		report.SitemapError,
		string(reportJSON),
	)
	if err != nil {
		return 0, fmt.Errorf("failed to save run: %w", err)
	}

	runID, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get run id: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
	INSERT INTO fetches (run_id, url, status_code, outcome, elapsed_ns, body_size, digest, cache_status, error)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return 0, fmt.Errorf("failed to prepare fetch insert: %w", err)
	}
	defer stmt.Close()

	for i := range report.Fetches {
		f := &report.Fetches[i]
		outcome := OutcomeVisited
		if !f.Succeeded() {
			outcome = f.SkipReason().String()
		}
		if _, err := stmt.ExecContext(ctx, runID, f.URL, f.StatusCode, outcome,
			int64(f.Elapsed), f.BodySize, f.Digest, string(f.CacheStatus), f.Error); err != nil {
			return 0, fmt.Errorf("failed to save fetch %s: %w", f.URL, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit run: %w", err)
	}

	return runID, nil
}

// ListSites returns every base URL with stored runs, ordered by base URL.
func (hdb *HistoryDB) ListSites(ctx context.Context) ([]SiteInfo, error) {
	rows, err := hdb.db.QueryContext(ctx, `
	SELECT base_url, COUNT(*), MAX(started_at) FROM runs
	GROUP BY base_url
	ORDER BY base_url
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to list sites: %w", err)
	}
	defer rows.Close()

	sites := make([]SiteInfo, 0)
	for rows.Next() {
		var site SiteInfo
		var last string
		if err := rows.Scan(&site.BaseURL, &site.Runs, &last); err != nil {
			return nil, fmt.Errorf("failed to scan site: %w", err)
		}
		site.LastRun = parseTimestamp(last)
		sites = append(sites, site)
	}

	return sites, rows.Err()
}

const runColumns = `id, base_url, sitemap_url, started_at, finished_at, seed_count,
	visited, skipped, failed, requests, sitemap_error`

// ListRuns returns the runs of baseURL, newest first.
// A limit of zero or less returns every run.
func (hdb *HistoryDB) ListRuns(ctx context.Context, baseURL string, limit int) ([]RunMeta, error) {
	query := `SELECT ` + runColumns + ` FROM runs WHERE base_url = ? ORDER BY started_at DESC, id DESC`
	args := []any{baseURL}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := hdb.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	defer rows.Close()

	runs := make([]RunMeta, 0)
	for rows.Next() {
		meta, err := scanRunMeta(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, meta)
	}

	return runs, rows.Err()
}

// GetRun returns the stored report of a run.
func (hdb *HistoryDB) GetRun(ctx context.Context, id int64) (*model.CrawlReport, error) {
	var reportJSON string
	err := hdb.db.QueryRowContext(ctx, `SELECT report_json FROM runs WHERE id = ?`, id).Scan(&reportJSON)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %d", ErrRunNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get run: %w", err)
	}

	var report model.CrawlReport
	if err := json.Unmarshal([]byte(reportJSON), &report); err != nil {
		return nil, fmt.Errorf("failed to parse report: %w", err)
	}

	return &report, nil
}

// GetRunMeta returns the summary row of a run.
func (hdb *HistoryDB) GetRunMeta(ctx context.Context, id int64) (RunMeta, error) {
	row := hdb.db.QueryRowContext(ctx, `SELECT `+runColumns+` FROM runs WHERE id = ?`, id)
	meta, err := scanRunMeta(row)
	if errors.Is(err, sql.ErrNoRows) {
		return RunMeta{}, fmt.Errorf("%w: %d", ErrRunNotFound, id)
	}
	return meta, err
}

// GetFetches returns the requests of a run in the order they were recorded.
func (hdb *HistoryDB) GetFetches(ctx context.Context, runID int64) ([]FetchRecord, error) {
	rows, err := hdb.db.QueryContext(ctx, `
	SELECT url, status_code, outcome, elapsed_ns, body_size, digest, cache_status, error
	FROM fetches WHERE run_id = ? ORDER BY id
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to get fetches: %w", err)
	}
	defer rows.Close()

	fetches := make([]FetchRecord, 0)
	for rows.Next() {
		var f FetchRecord
		var elapsed int64
		var digest, cacheStatus, errMsg sql.NullString
		if err := rows.Scan(&f.URL, &f.StatusCode, &f.Outcome, &elapsed, &f.BodySize, &digest, &cacheStatus, &errMsg); err != nil {
			return nil, fmt.Errorf("failed to scan fetch: %w", err)
		}
		f.Elapsed = time.Duration(elapsed)
		f.Digest = digest.String
		f.CacheStatus = model.CacheStatus(cacheStatus.String)
		f.Error = errMsg.String
		fetches = append(fetches, f)
	}

	return fetches, rows.Err()
}

// CompareLatest compares the two most recent runs of baseURL.
func (hdb *HistoryDB) CompareLatest(ctx context.Context, baseURL string) (*Comparison, error) {
	runs, err := hdb.ListRuns(ctx, baseURL, 2)
	if err != nil {
		return nil, err
	}
	if len(runs) < 2 {
		return nil, ErrNotEnoughRuns
	}
	return hdb.Compare(ctx, runs[1].ID, runs[0].ID)
}

// Compare compares two stored runs. older should be the earlier run.
func (hdb *HistoryDB) Compare(ctx context.Context, olderID, newerID int64) (*Comparison, error) {
	older, err := hdb.GetRunMeta(ctx, olderID)
	if err != nil {
		return nil, err
	}
	newer, err := hdb.GetRunMeta(ctx, newerID)
	if err != nil {
		return nil, err
	}

	olderFetches, err := hdb.GetFetches(ctx, olderID)
	if err != nil {
		return nil, err
	}
	newerFetches, err := hdb.GetFetches(ctx, newerID)
	if err != nil {
		return nil, err
	}

	cmp := CompareFetches(olderFetches, newerFetches)
	cmp.Older = older
	cmp.Newer = newer
	return cmp, nil
}

// DeleteRun removes a run and its requests.
func (hdb *HistoryDB) DeleteRun(ctx context.Context, id int64) error {
	tx, err := hdb.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after Commit

	if _, err := tx.ExecContext(ctx, `DELETE FROM fetches WHERE run_id = ?`, id); err != nil {
		return fmt.Errorf("failed to delete fetches: %w", err)
	}
	res, err := tx.ExecContext(ctx, `DELETE FROM runs WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete run: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("%w: %d", ErrRunNotFound, id)
	}

	return tx.Commit()
}

// rowScanner is implemented by *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanRunMeta(row rowScanner) (RunMeta, error) {
	var meta RunMeta
	var started, finished string
	var sitemapURL, sitemapErr sql.NullString

	err := row.Scan(&meta.ID, &meta.BaseURL, &sitemapURL, &started, &finished, &meta.SeedCount,
		&meta.Visited, &meta.Skipped, &meta.Failed, &meta.Requests, &sitemapErr)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return meta, err
		}
		return meta, fmt.Errorf("failed to scan run: %w", err)
	}

	meta.SitemapURL = sitemapURL.String
	meta.SitemapError = sitemapErr.String
	meta.StartedAt = parseTimestamp(started)
	meta.FinishedAt = parseTimestamp(finished)

	return meta, nil
}

// storedTimestampFormat sorts lexically in chronological order for UTC times.
const storedTimestampFormat = "2006-01-02T15:04:05.000000000Z07:00"

func formatTimestamp(t time.Time) string {
	return t.UTC().Format(storedTimestampFormat)
}

// timestampFormats contains the timestamp formats that may be stored.
// The order matters: more specific formats should come first.
var timestampFormats = []string{
	storedTimestampFormat,
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02 15:04:05", // SQLite default datetime format
}

// parseTimestamp attempts to parse a timestamp string using multiple formats.
// If parsing fails with all formats, returns zero time.
func parseTimestamp(s string) time.Time {
	for _, format := range timestampFormats {
		if t, err := time.Parse(format, s); err == nil {
			return t
		}
	}
	return time.Time{}
}
