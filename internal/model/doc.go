// Package model defines the data produced by a warm run.
//
// This package contains the following main types:
//   - FetchResult: the outcome of a single GET request
//   - CrawlReport: everything a run visited, skipped and fetched
//   - SkipReason: why a URL was not counted as visited
//   - Summary: aggregate counts and latency percentiles for a report
//
// The crawler, pipeline, report writers and history database all share
// these types, so they live in their own package to avoid import cycles.
package model
