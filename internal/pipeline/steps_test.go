package pipeline

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sort"
	"testing"
	"time"

	"github.com/nao1215/cachewarmer/internal/config"
	"github.com/nao1215/cachewarmer/internal/database"
	"github.com/nao1215/cachewarmer/internal/model"
)

// newTestSite serves a sitemap listing /a and /b, a home page linking to /c,
// and a /private page that should only ever be blacklisted.
func newTestSite(t *testing.T) *httptest.Server {
	t.Helper()

	page := func(body string) http.HandlerFunc {
		return func(w http.ResponseWriter, _ *http.Request) {
			w.Header().Set("Content-Type", "text/html")
			fmt.Fprint(w, body)
		}
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/sitemap.xml", func(w http.ResponseWriter, r *http.Request) {
		base := "http://" + r.Host
		fmt.Fprintf(w, `<?xml version="1.0" encoding="UTF-8"?>
<urlset xmlns="http://www.sitemaps.org/schemas/sitemap/0.9">
  <url><loc>%s/a</loc></url>
  <url><loc>%s/b</loc></url>
</urlset>`, base, base)
	})
	mux.HandleFunc("/{$}", page(`<a href="/c">c</a><a href="/private/area">private</a>`))
	mux.HandleFunc("/a", page(`<p>a</p>`))
	mux.HandleFunc("/b", page(`<p>b</p>`))
	mux.HandleFunc("/c", page(`<p>c</p>`))
	mux.HandleFunc("/d", page(`<p>d</p>`))
	mux.HandleFunc("/private/area", page(`<p>secret</p>`))

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()

	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("failed to write %s: %v", name, err)
	}
	return path
}

func sorted(in []string) []string {
	out := append([]string(nil), in...)
	sort.Strings(out)
	return out
}

// TestSeedStep tests frontier seeding from files, site config and the sitemap.
func TestSeedStep(t *testing.T) {
	t.Parallel()

	t.Run("seeds base, extra seeds and sitemap", func(t *testing.T) {
		t.Parallel()

		srv := newTestSite(t)
		dir := t.TempDir()
		seeds := writeFile(t, dir, "urls", "# extra pages\n/d\n\n")

		state := NewState()
		step := NewSeedStep(srv.Client(), state,
			WithSeedsFile(seeds),
			WithBlacklistFile(filepath.Join(dir, "missing-blacklist")),
			WithSiteBlacklist([]string{"/private"}),
		)
		if step.Name() != "seed" {
			t.Errorf("unexpected name %q", step.Name())
		}

		report := model.NewCrawlReport(srv.URL, srv.URL+"/sitemap.xml")
		if err := step.Do(context.Background(), report); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if report.SeedCount != 4 {
			t.Errorf("expected 4 seeds (base, /d, /a, /b), got %d", report.SeedCount)
		}
		if report.SitemapError != "" {
			t.Errorf("unexpected sitemap error %q", report.SitemapError)
		}
		if !state.Blacklist.IsBlacklisted(srv.URL + "/private/area") {
			t.Error("expected site blacklist pattern to be loaded")
		}
		if len(report.Errors) != 0 {
			t.Errorf("missing input files should not be errors, got %v", report.Errors)
		}

		batch := state.Frontier.DequeueBatch(10)
		want := []string{srv.URL, srv.URL + "/d", srv.URL + "/a", srv.URL + "/b"}
		if len(batch) != len(want) {
			t.Fatalf("expected %v, got %v", want, batch)
		}
		for i := range want {
			if batch[i] != want[i] {
				t.Errorf("seed %d: expected %s, got %s", i, want[i], batch[i])
			}
		}
	})

	t.Run("broken sitemap falls back to the base URL", func(t *testing.T) {
		t.Parallel()

		srv := newTestSite(t)
		state := NewState()
		step := NewSeedStep(srv.Client(), state)

		report := model.NewCrawlReport(srv.URL, srv.URL+"/no-such-sitemap.xml")
		if err := step.Do(context.Background(), report); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if report.SitemapError == "" {
			t.Error("expected sitemap error to be recorded")
		}
		if report.SeedCount != 1 || state.Frontier.Len() != 1 {
			t.Errorf("expected only the base URL, got %d seeds", report.SeedCount)
		}
	})
}

// TestDefaultPipeline tests a full warm run.
func TestDefaultPipeline(t *testing.T) {
	t.Parallel()

	srv := newTestSite(t)
	dir := t.TempDir()

	cfg := config.NewConfig()
	cfg.BaseURL = srv.URL
	cfg.SitemapURL = srv.URL + "/sitemap.xml"
	cfg.Concurrency = 2
	cfg.Timeout = 2 * time.Second
	cfg.BlacklistFile = writeFile(t, dir, "blacklist", "/private\n")
	cfg.SeedsFile = ""
	cfg.SaveHistory = true
	cfg.DBDir = filepath.Join(dir, "data")

	var savedID int64
	p := DefaultPipeline(cfg, srv.Client(), nil, WithOnSaved(func(id int64) { savedID = id }))

	names := p.StepNames()
	if len(names) != 3 || names[0] != "seed" || names[1] != "warm" || names[2] != "history" {
		t.Fatalf("unexpected steps %v", names)
	}

	report := model.NewCrawlReport(cfg.BaseURL, cfg.SitemapURL)
	if err := p.Execute(context.Background(), report); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	wantVisited := sorted([]string{srv.URL, srv.URL + "/a", srv.URL + "/b", srv.URL + "/c"})
	gotVisited := sorted(report.Visited)
	if len(gotVisited) != len(wantVisited) {
		t.Fatalf("expected visited %v, got %v", wantVisited, gotVisited)
	}
	for i := range wantVisited {
		if gotVisited[i] != wantVisited[i] {
			t.Errorf("expected visited %v, got %v", wantVisited, gotVisited)
			break
		}
	}
	for _, s := range report.Skipped {
		if s.URL == srv.URL+"/private/area" {
			t.Error("blacklisted link should be dropped, not skipped")
		}
	}
	if report.FinishedAt.IsZero() {
		t.Error("expected report to be finished")
	}

	if savedID == 0 {
		t.Fatal("expected run to be saved")
	}
	db, err := database.Open(cfg.DBDir, database.Options{})
	if err != nil {
		t.Fatalf("failed to open history: %v", err)
	}
	defer db.Close()

	meta, err := db.GetRunMeta(context.Background(), savedID)
	if err != nil {
		t.Fatalf("GetRunMeta failed: %v", err)
	}
	if meta.Visited != 4 {
		t.Errorf("expected 4 visited in history, got %d", meta.Visited)
	}
}

// TestDefaultPipeline_WithoutHistory tests that history is opt-in.
func TestDefaultPipeline_WithoutHistory(t *testing.T) {
	t.Parallel()

	cfg := config.NewConfig()
	cfg.BaseURL = "https://www.example.com"
	cfg.SitemapURL = "https://www.example.com/sitemap.xml"

	p := DefaultPipeline(cfg, http.DefaultClient, nil)
	if p.StepCount() != 2 {
		t.Errorf("expected 2 steps, got %v", p.StepNames())
	}
}

// TestHistoryStep_OpenFailure tests that an unusable database directory fails the step.
func TestHistoryStep_OpenFailure(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	blocker := writeFile(t, dir, "not-a-dir", "x")

	step := NewHistoryStep(filepath.Join(blocker, "data"))
	if step.Name() != "history" {
		t.Errorf("unexpected name %q", step.Name())
	}

	report := newTestReport()
	report.Finish()
	if err := step.Do(context.Background(), report); err == nil {
		t.Error("expected error for unusable database directory")
	}
}

// TestWarmStep_Cancelled tests that an interrupted warm still finishes the report.
func TestWarmStep_Cancelled(t *testing.T) {
	t.Parallel()

	srv := newTestSite(t)
	state := NewState()
	state.Frontier.Enqueue(srv.URL)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	step := NewWarmStep(srv.Client(), state)
	if step.Name() != "warm" {
		t.Errorf("unexpected name %q", step.Name())
	}

	report := model.NewCrawlReport(srv.URL, "")
	if err := step.Do(ctx, report); err == nil {
		t.Fatal("expected interruption error")
	}
	if !report.Cancelled || report.Pending != 1 {
		t.Errorf("expected cancelled report with 1 pending, got cancelled=%v pending=%d", report.Cancelled, report.Pending)
	}
	if report.FinishedAt.IsZero() {
		t.Error("expected report to be finished")
	}
}
