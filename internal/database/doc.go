// Package database stores the history of warm runs in SQLite.
//
// Every run saved with SaveRun is kept as one row in runs (counts, timing
// and the full report as JSON) plus one row per request in fetches. The
// history is only written by the warm command and read by the history
// command: the crawl engine never consults it, so a run never depends on
// what an earlier run did. Interrupted runs are not stored.
//
// SQLite is used through modernc.org/sqlite, a CGO-free driver, so the
// binary stays easy to cross-compile. WAL mode is enabled by default.
package database
