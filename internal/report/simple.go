package report

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/nao1215/cachewarmer/internal/model"
)

// SimpleWriter outputs the console listing of a run.
type SimpleWriter struct {
	baseWriter

	// showRequests prints one "Loading URL" line per request.
	showRequests bool

	// showSummary prints counts and latency percentiles.
	showSummary bool
}

// SimpleWriterOption configures a SimpleWriter.
type SimpleWriterOption func(*SimpleWriter)

// WithRequestLog controls the per-request "Loading URL" lines. Enabled by default.
func WithRequestLog(show bool) SimpleWriterOption {
	return func(w *SimpleWriter) {
		w.showRequests = show
	}
}

// WithSummary controls the summary block. Enabled by default.
func WithSummary(show bool) SimpleWriterOption {
	return func(w *SimpleWriter) {
		w.showSummary = show
	}
}

// NewSimpleWriter creates a SimpleWriter that outputs to the given writer.
func NewSimpleWriter(output io.Writer, opts ...SimpleWriterOption) *SimpleWriter {
	w := &SimpleWriter{
		baseWriter:   newBaseWriter(output),
		showRequests: true,
		showSummary:  true,
	}

	for _, opt := range opts {
		opt(w)
	}

	return w
}

// Write outputs the report in human-readable format.
func (w *SimpleWriter) Write(report *model.CrawlReport) (int, error) {
	var sb strings.Builder

	if w.showRequests {
		w.writeRequests(&sb, report)
	}
	w.writeVisited(&sb, report)
	w.writeSkipped(&sb, report)
	w.writeDebugTrace(&sb, report)
	if w.showSummary {
		w.writeSummary(&sb, report)
	}
	w.writeFooter(&sb, report)

	return w.output.Write([]byte(sb.String()))
}

// writeRequests prints one line per request in fetch order, numbered from 0.
func (w *SimpleWriter) writeRequests(sb *strings.Builder, report *model.CrawlReport) {
	for i, f := range report.Fetches {
		fmt.Fprintf(sb, "Loading URL #%d: %s | Response Code: %d | Time: %s\n",
			i, f.URL, f.StatusCode, FormatMillis(f.Elapsed))
	}
	if len(report.Fetches) > 0 {
		sb.WriteString("\n")
	}
}

func (w *SimpleWriter) writeVisited(sb *strings.Builder, report *model.CrawlReport) {
	fmt.Fprintf(sb, "Visited URLs (%d):\n", len(report.Visited))
	for _, u := range report.Visited {
		fmt.Fprintf(sb, "  %s\n", u)
	}
	fmt.Fprintf(sb, "Total URLs loaded: %d\n\n", len(report.Visited))
}

func (w *SimpleWriter) writeSkipped(sb *strings.Builder, report *model.CrawlReport) {
	fmt.Fprintf(sb, "Skipped URLs (%d):\n", len(report.Skipped))
	for _, s := range report.Skipped {
		fmt.Fprintf(sb, "  %s [%s]", s.URL, s.Reason)
		if s.StatusCode != 0 {
			fmt.Fprintf(sb, " status=%d", s.StatusCode)
		}
		if s.Error != "" {
			fmt.Fprintf(sb, " error=%q", s.Error)
		}
		sb.WriteString("\n")
	}
	sb.WriteString("\n")
}

// writeDebugTrace prints the raw hrefs per page, pages in visit order.
func (w *SimpleWriter) writeDebugTrace(sb *strings.Builder, report *model.CrawlReport) {
	if len(report.DebugTrace) == 0 {
		return
	}

	sb.WriteString("Debug Information:\n")
	for _, source := range traceSources(report) {
		fmt.Fprintf(sb, "  %s (%d links)\n", source, len(report.DebugTrace[source]))
		for _, href := range report.DebugTrace[source] {
			fmt.Fprintf(sb, "    %s\n", href)
		}
	}
	sb.WriteString("\n")
}

func (w *SimpleWriter) writeSummary(sb *strings.Builder, report *model.CrawlReport) {
	s := model.NewSummary(report)

	sb.WriteString("Summary:\n")
	fmt.Fprintf(sb, "  Requests:  %d (%d bytes)\n", s.Requests, s.Bytes)
	fmt.Fprintf(sb, "  Visited:   %d\n", s.Visited)
	fmt.Fprintf(sb, "  Skipped:   %d (%d failed)\n", s.Skipped, s.Failed)
	if s.Requests > 0 {
		fmt.Fprintf(sb, "  Latency:   min %s / avg %s / p50 %s / p95 %s / max %s\n",
			FormatMillis(s.Latency.Min), FormatMillis(s.Latency.Avg),
			FormatMillis(s.Latency.P50), FormatMillis(s.Latency.P95), FormatMillis(s.Latency.Max))

		codes := make([]string, 0, len(s.ByStatus))
		for _, code := range s.StatusCodes() {
			codes = append(codes, fmt.Sprintf("%s=%d", statusLabel(code), s.ByStatus[code]))
		}
		fmt.Fprintf(sb, "  Statuses:  %s\n", strings.Join(codes, " "))

		if s.HasCacheInfo() {
			fmt.Fprintf(sb, "  Cache:     %s\n", cacheLine(s))
		}
	}
	sb.WriteString("\n")
}

func (w *SimpleWriter) writeFooter(sb *strings.Builder, report *model.CrawlReport) {
	if report.SitemapError != "" {
		fmt.Fprintf(sb, "Sitemap could not be read: %s\n", report.SitemapError)
	}
	for _, e := range report.Errors {
		fmt.Fprintf(sb, "Error: %s\n", e)
	}
	if report.Cancelled {
		fmt.Fprintf(sb, "Run interrupted: %d URLs were never fetched\n", report.Pending)
	}
	fmt.Fprintf(sb, "Total execution time: %s\n", FormatDuration(report.Duration()))
}

// traceSources returns the debug trace keys, visited pages first in visit order.
func traceSources(report *model.CrawlReport) []string {
	sources := make([]string, 0, len(report.DebugTrace))
	seen := make(map[string]bool, len(report.DebugTrace))
	for _, u := range report.Visited {
		if _, ok := report.DebugTrace[u]; ok && !seen[u] {
			sources = append(sources, u)
			seen[u] = true
		}
	}

	rest := make([]string, 0)
	for u := range report.DebugTrace {
		if !seen[u] {
			rest = append(rest, u)
		}
	}
	sort.Strings(rest)

	return append(sources, rest...)
}

func statusLabel(code int) string {
	if code == 0 {
		return "none"
	}
	return fmt.Sprintf("%d", code)
}

// cacheLine renders ByCache as "hit=3 miss=1 unknown=2".
func cacheLine(s model.Summary) string {
	parts := make([]string, 0, len(s.ByCache))
	for _, status := range s.CacheStatuses() {
		parts = append(parts, fmt.Sprintf("%s=%d", status, s.ByCache[status]))
	}
	return strings.Join(parts, " ")
}
