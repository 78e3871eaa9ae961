package main

import (
	"encoding/json"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"github.com/nao1215/cachewarmer/internal/database"
)

// TestHistoryCmd archives two runs and reads them back.
func TestHistoryCmd(t *testing.T) {
	srv := newWarmSite(t)
	dir := t.TempDir()
	dbDir := filepath.Join(dir, "data")

	for i := 0; i < 2; i++ {
		args := append([]string{"warm", srv.URL, srv.URL + "/sitemap.xml", "--history"}, isolatedFlags(t, dir)...)
		if _, err := executeRoot(t, args...); err != nil {
			t.Fatalf("warm run %d failed: %v", i+1, err)
		}
	}

	t.Run("lists sites", func(t *testing.T) {
		out, err := executeRoot(t, "history", "--list-sites", "--db-dir", dbDir)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !strings.Contains(out, srv.URL) || !strings.Contains(out, "2 runs") {
			t.Errorf("unexpected output: %s", out)
		}
	})

	t.Run("lists runs of a site", func(t *testing.T) {
		out, err := executeRoot(t, "history", srv.URL, "--db-dir", dbDir, "--json")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		var runs []database.RunMeta
		if err := json.Unmarshal([]byte(out), &runs); err != nil {
			t.Fatalf("invalid JSON: %v\n%s", err, out)
		}
		if len(runs) != 2 {
			t.Fatalf("expected 2 runs, got %d", len(runs))
		}
		if runs[0].Visited != 4 || runs[0].Failed != 1 {
			t.Errorf("unexpected counts: %+v", runs[0])
		}
	})

	t.Run("shows a run", func(t *testing.T) {
		out, err := executeRoot(t, "history", "--show", "1", "--db-dir", dbDir)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !strings.Contains(out, "Visited URLs (4):") {
			t.Errorf("expected archived listing, got %s", out)
		}
	})

	t.Run("compares the latest runs", func(t *testing.T) {
		out, err := executeRoot(t, "history", "--compare", srv.URL, "--db-dir", dbDir)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !strings.Contains(out, "Comparing run #1") || !strings.Contains(out, "No changes in warmed pages.") {
			t.Errorf("unexpected comparison: %s", out)
		}
	})

	t.Run("unknown run", func(t *testing.T) {
		if _, err := executeRoot(t, "history", "--show", "99", "--db-dir", dbDir); err == nil {
			t.Error("expected error for unknown run")
		}
	})

	t.Run("base URL is required", func(t *testing.T) {
		_, err := executeRoot(t, "history", "--db-dir", dbDir)
		if err == nil || !strings.Contains(err.Error(), "base URL is required") {
			t.Errorf("expected base URL error, got %v", err)
		}
	})

	t.Run("missing database", func(t *testing.T) {
		if _, err := executeRoot(t, "history", "--list-sites", "--db-dir", filepath.Join(dir, "nothing")); err == nil {
			t.Error("expected error for missing database")
		}
	})

	t.Run("deletes a run", func(t *testing.T) {
		out, err := executeRoot(t, "history", "--delete", "1", "--db-dir", dbDir)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !strings.Contains(out, "Deleted run #1") {
			t.Errorf("unexpected output: %s", out)
		}

		if _, err := executeRoot(t, "history", "--show", "1", "--db-dir", dbDir); !errors.Is(err, database.ErrRunNotFound) {
			t.Errorf("expected ErrRunNotFound after delete, got %v", err)
		}
		if _, err := executeRoot(t, "history", "--delete", "1", "--db-dir", dbDir); !errors.Is(err, database.ErrRunNotFound) {
			t.Errorf("expected ErrRunNotFound for second delete, got %v", err)
		}

		out, err = executeRoot(t, "history", "--list-sites", "--db-dir", dbDir)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !strings.Contains(out, "1 runs") {
			t.Errorf("expected one remaining run, got %s", out)
		}
	})
}
