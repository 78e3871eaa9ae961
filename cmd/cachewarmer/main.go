// Package main provides the entry point for the cachewarmer CLI.
//
// cachewarmer requests every page of a website once so that caches in
// front of it (CDN, reverse proxy, application cache) are filled before
// real visitors arrive. It starts from the base URL and the sitemap and
// follows same-host links until no new page is found.
//
// Usage:
//
//	cachewarmer warm <base-url> <sitemap-url> [concurrency] [--debug]
//	cachewarmer history [base-url]
//
// See --help for all available options.
package main

// main is the entry point for cachewarmer.
func main() {
	Execute()
}
