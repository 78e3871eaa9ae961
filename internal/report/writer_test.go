package report

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/nao1215/cachewarmer/internal/model"
)

// createTestReport creates a report with sample data for testing.
func createTestReport() *model.CrawlReport {
	report := model.NewCrawlReport("https://www.example.com", "https://www.example.com/sitemap.xml")
	report.StartedAt = time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	report.FinishedAt = report.StartedAt.Add(75*time.Second + 250*time.Millisecond)

	report.AddFetch(model.FetchResult{URL: "https://www.example.com", StatusCode: 200, BodySize: 512, Elapsed: 120 * time.Millisecond, CacheStatus: model.CacheHit})
	report.AddFetch(model.FetchResult{URL: "https://www.example.com/a", StatusCode: 200, BodySize: 256, Elapsed: 80 * time.Millisecond, CacheStatus: model.CacheMiss})
	report.AddFetch(model.FetchResult{URL: "https://www.example.com/broken", StatusCode: 500, BodySize: 4, Elapsed: 40 * time.Millisecond})

	report.AddVisited("https://www.example.com")
	report.AddVisited("https://www.example.com/a")
	report.AddSkipped("https://www.example.com/logo.png", model.SkipUnfetchable, 0, "")
	report.AddSkipped("https://www.example.com/broken", model.SkipHTTPStatus, 500, "")

	report.AddTrace("https://www.example.com", []string{"/a", "/logo.png", "/search?q=1&amp;p=2"})
	report.AddTrace("https://www.example.com/a", []string{"/broken"})

	return report
}

// TestSimpleWriter tests the console writer.
func TestSimpleWriter(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	if _, err := NewSimpleWriter(&buf).Write(createTestReport()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	output := buf.String()

	tests := []struct {
		name string
		want string
	}{
		{name: "request trace numbered from zero", want: "Loading URL #0: https://www.example.com | Response Code: 200 | Time: 120.00ms"},
		{name: "failed request trace", want: "Loading URL #2: https://www.example.com/broken | Response Code: 500 | Time: 40.00ms"},
		{name: "visited header", want: "Visited URLs (2):"},
		{name: "visited entry", want: "  https://www.example.com/a\n"},
		{name: "total loaded", want: "Total URLs loaded: 2"},
		{name: "skipped header", want: "Skipped URLs (2):"},
		{name: "skipped reason", want: "https://www.example.com/logo.png [unfetchable]"},
		{name: "skipped status", want: "https://www.example.com/broken [http_status] status=500"},
		{name: "debug section", want: "Debug Information:"},
		{name: "raw href kept", want: "    /search?q=1&amp;p=2\n"},
		{name: "summary", want: "Skipped:   2 (1 failed)"},
		{name: "statuses", want: "Statuses:  200=2 500=1"},
		{name: "cache", want: "Cache:     hit=1 miss=1 unknown=1"},
		{name: "execution time", want: "Total execution time: 1m 15.25s"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if !strings.Contains(output, tt.want) {
				t.Errorf("expected output to contain %q, got:\n%s", tt.want, output)
			}
		})
	}

	t.Run("debug trace follows visit order", func(t *testing.T) {
		t.Parallel()
		root := strings.Index(output, "  https://www.example.com (3 links)")
		page := strings.Index(output, "  https://www.example.com/a (1 links)")
		if root < 0 || page < 0 || root > page {
			t.Errorf("unexpected trace order:\n%s", output)
		}
	})
}

// TestSimpleWriterOptions tests that sections can be turned off.
func TestSimpleWriterOptions(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	w := NewSimpleWriter(&buf, WithRequestLog(false), WithSummary(false))
	if _, err := w.Write(createTestReport()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	output := buf.String()
	if strings.Contains(output, "Loading URL") {
		t.Error("request log should be hidden")
	}
	if strings.Contains(output, "Summary:") {
		t.Error("summary should be hidden")
	}
	if !strings.Contains(output, "Total execution time:") {
		t.Error("execution time is always printed")
	}
}

// TestSimpleWriterStatus tests interrupted and degraded runs.
func TestSimpleWriterStatus(t *testing.T) {
	t.Parallel()

	report := createTestReport()
	report.Cancelled = true
	report.Pending = 7
	report.SitemapError = "sitemap is empty"
	report.DebugTrace = map[string][]string{}

	var buf bytes.Buffer
	if _, err := NewSimpleWriter(&buf).Write(report); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	output := buf.String()
	if !strings.Contains(output, "Run interrupted: 7 URLs were never fetched") {
		t.Errorf("missing interruption notice:\n%s", output)
	}
	if !strings.Contains(output, "Sitemap could not be read: sitemap is empty") {
		t.Errorf("missing sitemap notice:\n%s", output)
	}
	if strings.Contains(output, "Debug Information:") {
		t.Error("debug section should be omitted without traces")
	}
}

// TestJSONWriter tests the JSON writer.
func TestJSONWriter(t *testing.T) {
	t.Parallel()

	t.Run("round trips report and summary", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		w := NewJSONWriter(&buf, WithVersion("v1.2.3"))
		if _, err := w.Write(createTestReport()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		var decoded JSONReport
		if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
			t.Fatalf("invalid JSON: %v", err)
		}
		if decoded.Version != "v1.2.3" {
			t.Errorf("Version = %q", decoded.Version)
		}
		if decoded.Report == nil || len(decoded.Report.Visited) != 2 {
			t.Fatalf("Report = %+v", decoded.Report)
		}
		if decoded.Report.Skipped[1].Reason != model.SkipHTTPStatus {
			t.Errorf("skip reason = %q", decoded.Report.Skipped[1].Reason)
		}
		if decoded.Summary.Requests != 3 || decoded.Summary.ByStatus[500] != 1 {
			t.Errorf("Summary = %+v", decoded.Summary)
		}
	})

	t.Run("compact by default", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		if _, err := NewJSONWriter(&buf).Write(createTestReport()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if strings.Count(buf.String(), "\n") != 1 {
			t.Error("expected a single line of JSON")
		}
	})

	t.Run("pretty print", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		if _, err := NewJSONWriter(&buf, WithPrettyPrint()).Write(createTestReport()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !strings.Contains(buf.String(), "\n  \"report\"") {
			t.Errorf("expected indented output, got %s", buf.String())
		}
	})

	t.Run("body is never serialized", func(t *testing.T) {
		t.Parallel()

		report := createTestReport()
		report.Fetches[0].Body = []byte("<html>secret-markup</html>")

		var buf bytes.Buffer
		if _, err := NewJSONWriter(&buf).Write(report); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if strings.Contains(buf.String(), "secret-markup") {
			t.Error("response body leaked into JSON")
		}
	})
}

// TestMarkdownWriter tests the Markdown report writer.
func TestMarkdownWriter(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	if _, err := NewMarkdownWriter(&buf).Write(createTestReport()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	output := buf.String()

	for _, want := range []string{
		"# Cache Warm Report",
		"https://www.example.com/sitemap.xml",
		"## Outcome",
		"pie",
		"## Latency",
		"## Cache",
		"## Failures",
		"https://www.example.com/broken",
		"[!IMPORTANT]",
		"## Visited",
		"cachewarmer",
	} {
		if !strings.Contains(output, want) {
			t.Errorf("expected output to contain %q", want)
		}
	}
}

// TestMarkdownWriterStatus tests alerts for clean and interrupted runs.
func TestMarkdownWriterStatus(t *testing.T) {
	t.Parallel()

	t.Run("clean run", func(t *testing.T) {
		t.Parallel()

		report := model.NewCrawlReport("https://www.example.com", "")
		report.AddVisited("https://www.example.com")
		report.Finish()

		var buf bytes.Buffer
		if _, err := NewMarkdownWriter(&buf).Write(report); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !strings.Contains(buf.String(), "[!TIP]") {
			t.Error("expected TIP alert for a clean run")
		}
		if strings.Contains(buf.String(), "## Failures") {
			t.Error("failures section should be omitted")
		}
	})

	t.Run("interrupted run", func(t *testing.T) {
		t.Parallel()

		report := createTestReport()
		report.Cancelled = true
		report.Pending = 3

		var buf bytes.Buffer
		if _, err := NewMarkdownWriter(&buf).Write(report); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !strings.Contains(buf.String(), "[!WARNING]") {
			t.Error("expected WARNING alert for an interrupted run")
		}
		if !strings.Contains(buf.String(), "Interrupted") {
			t.Error("expected interrupted status")
		}
	})
}

// errWriter fails every write.
type errWriter struct{}

func (errWriter) Write([]byte) (int, error) { return 0, errors.New("disk full") }

// TestMultiWriter tests writing to several writers.
func TestMultiWriter(t *testing.T) {
	t.Parallel()

	t.Run("writes to all", func(t *testing.T) {
		t.Parallel()

		var text, js bytes.Buffer
		mw := NewMultiWriter(NewSimpleWriter(&text), NewJSONWriter(&js))
		n, err := mw.Write(createTestReport())
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if n != text.Len()+js.Len() {
			t.Errorf("n = %d, want %d", n, text.Len()+js.Len())
		}
	})

	t.Run("stops on first error", func(t *testing.T) {
		t.Parallel()

		var js bytes.Buffer
		mw := NewMultiWriter(NewSimpleWriter(errWriter{}), NewJSONWriter(&js))
		if _, err := mw.Write(createTestReport()); err == nil {
			t.Fatal("expected error")
		}
		if js.Len() != 0 {
			t.Error("second writer should not run after a failure")
		}
	})
}

// TestFormatDuration tests the execution time format.
func TestFormatDuration(t *testing.T) {
	t.Parallel()

	tests := []struct {
		d    time.Duration
		want string
	}{
		{d: 0, want: "0m 0.00s"},
		{d: 1500 * time.Millisecond, want: "0m 1.50s"},
		{d: 60 * time.Second, want: "1m 0.00s"},
		{d: 125*time.Second + 678*time.Millisecond, want: "2m 5.68s"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			t.Parallel()
			if got := FormatDuration(tt.d); got != tt.want {
				t.Errorf("FormatDuration(%v) = %q, want %q", tt.d, got, tt.want)
			}
		})
	}
}
