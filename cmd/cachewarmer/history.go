package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/nao1215/cachewarmer/internal/config"
	"github.com/nao1215/cachewarmer/internal/database"
	"github.com/nao1215/cachewarmer/internal/report"
	"github.com/spf13/cobra"
)

// NewHistoryCmd creates the history command.
// It reads runs archived by "warm --history"; it never starts a crawl.
func NewHistoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history [base-url]",
		Short: "Inspect and compare archived warm runs",
		Long: `History reads the runs saved with 'cachewarmer warm --history'.

Without flags it lists the runs of the given base URL. The comparison
shows what changed between the two most recent runs of a site:
- pages warmed now that were not warmed before, and the reverse
- requests that started failing, and failures that recovered
- pages whose content digest changed
- the change in mean latency over pages warmed in both runs

Examples:
  # List every site with archived runs
  cachewarmer history --list-sites

  # List the runs of a site
  cachewarmer history https://www.example.com

  # Print the full report of run 12
  cachewarmer history --show 12

  # Compare the latest two runs of a site
  cachewarmer history --compare https://www.example.com

  # Compare two specific runs as JSON
  cachewarmer history --compare --older 10 --newer 12 --json

  # Remove run 7 from the archive
  cachewarmer history --delete 7`,
		Args: cobra.MaximumNArgs(1),
		RunE: runHistoryCmd,
	}

	cmd.Flags().BoolP("list-sites", "L", false,
		"List all sites with archived runs")
	cmd.Flags().Int64P("show", "s", 0,
		"Print the report of the run with this ID")
	cmd.Flags().Int64("delete", 0,
		"Remove the run with this ID from the archive")
	cmd.Flags().BoolP("compare", "C", false,
		"Compare the latest two runs of the site (or --older/--newer)")
	cmd.Flags().Int64("older", 0,
		"ID of the earlier run to compare")
	cmd.Flags().Int64("newer", 0,
		"ID of the later run to compare")
	cmd.Flags().IntP("limit", "n", 20,
		"Maximum number of runs to list (0 = all)")
	cmd.Flags().BoolP("json", "j", false,
		"Output in JSON format")
	cmd.Flags().String("db-dir", config.XDGDataDir(),
		"Directory of the history database")

	return cmd
}

// runHistoryCmd executes the history command.
func runHistoryCmd(cmd *cobra.Command, args []string) error {
	listSites, err := cmd.Flags().GetBool("list-sites")
	if err != nil {
		return err
	}
	showID, err := cmd.Flags().GetInt64("show")
	if err != nil {
		return err
	}
	deleteID, err := cmd.Flags().GetInt64("delete")
	if err != nil {
		return err
	}
	compare, err := cmd.Flags().GetBool("compare")
	if err != nil {
		return err
	}
	olderID, err := cmd.Flags().GetInt64("older")
	if err != nil {
		return err
	}
	newerID, err := cmd.Flags().GetInt64("newer")
	if err != nil {
		return err
	}
	limit, err := cmd.Flags().GetInt("limit")
	if err != nil {
		return err
	}
	jsonOutput, err := cmd.Flags().GetBool("json")
	if err != nil {
		return err
	}
	dbDir, err := cmd.Flags().GetString("db-dir")
	if err != nil {
		return err
	}

	// Validate arguments before opening the database.
	var baseURL string
	if len(args) == 1 {
		baseURL = args[0]
	}
	explicitPair := olderID != 0 || newerID != 0
	switch {
	case listSites, showID != 0, deleteID != 0:
	case compare && explicitPair:
		if olderID == 0 || newerID == 0 {
			return errors.New("--older and --newer must be given together")
		}
	case baseURL == "":
		return errors.New("base URL is required (use --list-sites to see archived sites)")
	}

	db, err := database.Open(dbDir, database.Options{CreateIfNotExists: false})
	if err != nil {
		return err
	}
	defer db.Close()

	ctx := cmd.Context()
	out := cmd.OutOrStdout()

	switch {
	case listSites:
		return listArchivedSites(ctx, out, db, jsonOutput)
	case showID != 0:
		return showRun(ctx, out, db, showID, jsonOutput)
	case deleteID != 0:
		if err := db.DeleteRun(ctx, deleteID); err != nil {
			return err
		}
		fmt.Fprintf(out, "Deleted run #%d\n", deleteID)
		return nil
	case compare:
		return compareRuns(ctx, out, db, baseURL, olderID, newerID, jsonOutput)
	default:
		return listRuns(ctx, out, db, baseURL, limit, jsonOutput)
	}
}

// listArchivedSites prints every base URL with archived runs.
func listArchivedSites(ctx context.Context, out io.Writer, db *database.HistoryDB, jsonOutput bool) error {
	sites, err := db.ListSites(ctx)
	if err != nil {
		return err
	}

	if jsonOutput {
		_, err := report.NewJSONWriter(out, report.WithPrettyPrint()).WriteValue(sites)
		return err
	}

	if len(sites) == 0 {
		fmt.Fprintln(out, "No archived runs found.")
		fmt.Fprintln(out, "\nUse 'cachewarmer warm --history' to archive a run.")
		return nil
	}

	fmt.Fprintf(out, "Archived sites (%d):\n\n", len(sites))
	for _, site := range sites {
		fmt.Fprintf(out, "  • %s  (%d runs, last %s)\n",
			site.BaseURL, site.Runs, site.LastRun.Local().Format("2006-01-02 15:04"))
	}

	return nil
}

// listRuns prints the runs of one site, newest first.
func listRuns(ctx context.Context, out io.Writer, db *database.HistoryDB, baseURL string, limit int, jsonOutput bool) error {
	runs, err := db.ListRuns(ctx, baseURL, limit)
	if err != nil {
		return err
	}

	if jsonOutput {
		_, err := report.NewJSONWriter(out, report.WithPrettyPrint()).WriteValue(runs)
		return err
	}

	if len(runs) == 0 {
		fmt.Fprintf(out, "No archived runs found for %s\n", baseURL)
		return nil
	}

	fmt.Fprintf(out, "Runs for %s (%d):\n\n", baseURL, len(runs))
	fmt.Fprintf(out, "  %-6s  %-16s  %10s  %7s  %7s  %6s\n", "ID", "Started", "Duration", "Visited", "Skipped", "Failed")
	fmt.Fprintln(out, "  "+strings.Repeat("-", 64))
	for _, run := range runs {
		fmt.Fprintf(out, "  %-6d  %-16s  %10s  %7d  %7d  %6d\n",
			run.ID,
			run.StartedAt.Local().Format("2006-01-02 15:04"),
			report.FormatDuration(run.Duration()),
			run.Visited,
			run.Skipped,
			run.Failed,
		)
	}
	fmt.Fprintln(out, "\nUse 'cachewarmer history --show <id>' to see a full report.")

	return nil
}

// showRun prints the archived report of one run.
func showRun(ctx context.Context, out io.Writer, db *database.HistoryDB, id int64, jsonOutput bool) error {
	crawlReport, err := db.GetRun(ctx, id)
	if err != nil {
		return err
	}

	var writer report.Writer = report.NewSimpleWriter(out)
	if jsonOutput {
		writer = report.NewJSONWriter(out, report.WithPrettyPrint())
	}
	_, err = writer.Write(crawlReport)
	return err
}

// compareRuns prints the differences between two runs.
func compareRuns(ctx context.Context, out io.Writer, db *database.HistoryDB, baseURL string, olderID, newerID int64, jsonOutput bool) error {
	var (
		cmp *database.Comparison
		err error
	)
	if olderID != 0 {
		cmp, err = db.Compare(ctx, olderID, newerID)
	} else {
		cmp, err = db.CompareLatest(ctx, baseURL)
	}
	if errors.Is(err, database.ErrNotEnoughRuns) {
		return fmt.Errorf("%w for %s", err, baseURL)
	}
	if err != nil {
		return err
	}

	if jsonOutput {
		_, err := report.NewJSONWriter(out, report.WithPrettyPrint()).WriteValue(cmp)
		return err
	}

	writeComparison(out, cmp)
	return nil
}

// writeComparison prints a comparison in human-readable form.
func writeComparison(out io.Writer, cmp *database.Comparison) {
	fmt.Fprintf(out, "Comparing run #%d (%s) with run #%d (%s)\n\n",
		cmp.Older.ID, cmp.Older.StartedAt.Local().Format("2006-01-02 15:04"),
		cmp.Newer.ID, cmp.Newer.StartedAt.Local().Format("2006-01-02 15:04"))

	fmt.Fprintf(out, "Visited: %d -> %d\n", cmp.Older.Visited, cmp.Newer.Visited)
	fmt.Fprintf(out, "Failed:  %d -> %d\n", cmp.Older.Failed, cmp.Newer.Failed)
	fmt.Fprintf(out, "Mean latency: %s -> %s (%+.2fms)\n\n",
		report.FormatMillis(cmp.AvgLatencyOlder),
		report.FormatMillis(cmp.AvgLatencyNewer),
		float64(cmp.LatencyDelta().Microseconds())/1000)

	if !cmp.HasChanges() {
		fmt.Fprintln(out, "No changes in warmed pages.")
		return
	}

	writeURLSection(out, "Newly visited", cmp.NewlyVisited)
	writeURLSection(out, "No longer visited", cmp.NoLongerVisited)
	writeURLSection(out, "Recovered", cmp.Recovered)
	writeURLSection(out, "Content changed", cmp.ContentChanged)

	if len(cmp.NewFailures) > 0 {
		fmt.Fprintf(out, "New failures (%d):\n", len(cmp.NewFailures))
		for _, f := range cmp.NewFailures {
			detail := fmt.Sprintf("status=%d", f.StatusCode)
			if f.Error != "" {
				detail = "error=" + f.Error
			}
			fmt.Fprintf(out, "  %s [%s] %s\n", f.URL, f.Outcome, detail)
		}
		fmt.Fprintln(out)
	}
}

func writeURLSection(out io.Writer, title string, urls []string) {
	if len(urls) == 0 {
		return
	}
	fmt.Fprintf(out, "%s (%d):\n", title, len(urls))
	for _, u := range urls {
		fmt.Fprintf(out, "  %s\n", u)
	}
	fmt.Fprintln(out)
}
