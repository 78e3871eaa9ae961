// Package report renders a finished warm run.
//
// This package contains writers for different output formats:
//   - SimpleWriter: the console listing (per-request trace, visited and
//     skipped URLs, debug trace, total execution time)
//   - JSONWriter: the full report plus its summary, for tooling
//   - MarkdownWriter: a shareable summary with an outcome pie chart
//
// Writers implement the Writer interface, allowing them to be used
// interchangeably and composed with MultiWriter.
package report
