package report

import (
	"io"
	"strconv"

	"github.com/nao1215/markdown"
	"github.com/nao1215/markdown/mermaid/piechart"

	"github.com/nao1215/cachewarmer/internal/model"
)

// maxMarkdownRows caps the URL tables so reports for large sites stay readable.
const maxMarkdownRows = 200

// MarkdownWriter outputs a run summary in Markdown format.
type MarkdownWriter struct {
	baseWriter
}

// NewMarkdownWriter creates a MarkdownWriter that outputs to the given writer.
func NewMarkdownWriter(output io.Writer) *MarkdownWriter {
	return &MarkdownWriter{
		baseWriter: newBaseWriter(output),
	}
}

// Write outputs the report in Markdown format.
func (w *MarkdownWriter) Write(report *model.CrawlReport) (int, error) {
	md := markdown.NewMarkdown(w.output)
	summary := model.NewSummary(report)

	w.writeHeader(md, report, summary)
	w.writeOutcome(md, summary)
	w.writeStatus(md, report)
	w.writeLatency(md, summary)
	w.writeCache(md, summary)
	w.writeFailures(md, report)
	w.writeVisited(md, report)
	w.writeFooter(md)

	return len(md.String()), md.Build()
}

// writeHeader writes the run information table.
func (w *MarkdownWriter) writeHeader(md *markdown.Markdown, report *model.CrawlReport, summary model.Summary) {
	md.H1("Cache Warm Report")
	md.PlainText("")

	sitemap := report.SitemapURL
	if sitemap == "" {
		sitemap = "-"
	}

	md.Table(markdown.TableSet{
		Header: []string{"Property", "Value"},
		Rows: [][]string{
			{"Base URL", "`" + report.BaseURL + "`"},
			{"Sitemap", "`" + sitemap + "`"},
			{"Started", report.StartedAt.Format("2006-01-02 15:04:05 MST")},
			{"Duration", FormatDuration(summary.Duration)},
			{"Requests", strconv.Itoa(summary.Requests)},
			{"Status", w.getStatusText(report)},
		},
	})
	md.PlainText("")
}

// getStatusText returns the status text based on report state.
func (w *MarkdownWriter) getStatusText(report *model.CrawlReport) string {
	if report.Cancelled {
		return "⚠️ Interrupted (" + strconv.Itoa(report.Pending) + " URLs pending)"
	}
	if len(report.Errors) > 0 {
		return "❌ Error - " + report.Errors[0]
	}
	return "✅ Complete"
}

// writeOutcome writes the outcome table and pie chart.
func (w *MarkdownWriter) writeOutcome(md *markdown.Markdown, summary model.Summary) {
	md.H2("Outcome")
	md.PlainText("")

	rows := [][]string{{"Visited", strconv.Itoa(summary.Visited)}}
	for _, reason := range model.AllSkipReasons {
		rows = append(rows, []string{"Skipped: " + reason.Description(), strconv.Itoa(summary.BySkip[reason])})
	}
	rows = append(rows, []string{"**Total**", "**" + strconv.Itoa(summary.Visited+summary.Skipped) + "**"})

	md.Table(markdown.TableSet{
		Header: []string{"Outcome", "URLs"},
		Rows:   rows,
	})
	md.PlainText("")

	if summary.Visited+summary.Skipped > 0 {
		w.writePieChart(md, summary)
	}
}

// writePieChart writes a mermaid pie chart of URL outcomes.
func (w *MarkdownWriter) writePieChart(md *markdown.Markdown, summary model.Summary) {
	chart := piechart.NewPieChart(
		io.Discard,
		piechart.WithTitle("URL Outcomes"),
		piechart.WithShowData(true),
	)

	if summary.Visited > 0 {
		chart.LabelAndIntValue("Visited", uint64(summary.Visited))
	}
	for _, reason := range model.AllSkipReasons {
		if n := summary.BySkip[reason]; n > 0 {
			chart.LabelAndIntValue(reason.String(), uint64(n))
		}
	}

	md.PlainText("")
	md.CodeBlocks(markdown.SyntaxHighlightMermaid, chart.String())
	md.PlainText("")
}

// writeStatus writes an alert based on failures.
func (w *MarkdownWriter) writeStatus(md *markdown.Markdown, report *model.CrawlReport) {
	failures := len(report.Failures())
	switch {
	case report.Cancelled:
		md.Warningf("The run was interrupted. %d URL(s) were never fetched.", report.Pending)
	case failures > 0:
		md.Importantf("%d request(s) did not return a page and were not warmed.", failures)
	case report.SitemapError != "":
		md.Cautionf("The sitemap could not be read: %s", report.SitemapError)
	default:
		md.Tip("Every requested page was warmed.")
	}
	md.PlainText("")
}

// writeLatency writes the latency percentiles.
func (w *MarkdownWriter) writeLatency(md *markdown.Markdown, summary model.Summary) {
	if summary.Requests == 0 {
		return
	}

	md.H2("Latency")
	md.PlainText("")
	md.Table(markdown.TableSet{
		Header: []string{"Min", "Avg", "P50", "P95", "Max"},
		Rows: [][]string{{
			FormatMillis(summary.Latency.Min),
			FormatMillis(summary.Latency.Avg),
			FormatMillis(summary.Latency.P50),
			FormatMillis(summary.Latency.P95),
			FormatMillis(summary.Latency.Max),
		}},
	})
	md.PlainText("")
}

// writeCache writes the cache outcome table. Runs against origins without
// cache headers get no section.
func (w *MarkdownWriter) writeCache(md *markdown.Markdown, summary model.Summary) {
	if !summary.HasCacheInfo() {
		return
	}

	md.H2("Cache")
	md.PlainText("")

	rows := make([][]string, 0, len(summary.ByCache))
	for _, status := range summary.CacheStatuses() {
		rows = append(rows, []string{status.String(), strconv.Itoa(summary.ByCache[status])})
	}
	md.Table(markdown.TableSet{
		Header: []string{"Cache", "Responses"},
		Rows:   rows,
	})
	md.PlainText("")
}

// writeFailures writes the failed requests.
func (w *MarkdownWriter) writeFailures(md *markdown.Markdown, report *model.CrawlReport) {
	failures := report.Failures()
	if len(failures) == 0 {
		return
	}

	md.H2("Failures")
	md.PlainText("")

	rows := make([][]string, 0, len(failures))
	for i, f := range failures {
		if i == maxMarkdownRows {
			break
		}
		status := "-"
		if f.StatusCode != 0 {
			status = strconv.Itoa(f.StatusCode)
		}
		errMsg := f.Error
		if errMsg == "" {
			errMsg = "-"
		}
		rows = append(rows, []string{f.URL, f.Reason.String(), status, truncateString(errMsg, 60)})
	}

	md.Table(markdown.TableSet{
		Header: []string{"URL", "Reason", "Status", "Error"},
		Rows:   rows,
	})
	md.PlainText("")
	w.writeTruncated(md, len(failures))
}

// writeVisited lists the warmed pages.
func (w *MarkdownWriter) writeVisited(md *markdown.Markdown, report *model.CrawlReport) {
	if len(report.Visited) == 0 {
		return
	}

	md.H2("Visited")
	md.PlainText("")

	items := report.Visited
	if len(items) > maxMarkdownRows {
		items = items[:maxMarkdownRows]
	}
	md.BulletList(items...)
	md.PlainText("")
	w.writeTruncated(md, len(report.Visited))
}

func (w *MarkdownWriter) writeTruncated(md *markdown.Markdown, total int) {
	if total > maxMarkdownRows {
		md.Note("Showing the first " + strconv.Itoa(maxMarkdownRows) + " of " + strconv.Itoa(total) + " entries.")
		md.PlainText("")
	}
}

// writeFooter writes the report footer.
func (w *MarkdownWriter) writeFooter(md *markdown.Markdown) {
	md.HorizontalRule()
	md.PlainText("")
	md.PlainTextf("*Report generated by [cachewarmer](https://github.com/nao1215/cachewarmer)*")
}

// truncateString truncates a string to maxLen characters with ellipsis.
func truncateString(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return s[:maxLen]
	}
	return s[:maxLen-3] + "..."
}
