// Package crawler implements the warm-run crawl engine.
//
// # Architecture
//
// A run is driven by three values created per run:
//
//   - Frontier: FIFO of pending URLs plus the identity state of every URL seen
//   - Spider: drains the frontier in batches and fetches each batch concurrently
//   - Seeder: fills the frontier with the base URL, extra seeds and sitemap entries
//
// The goroutine calling Spider.Run owns the Frontier and the report. Only the
// HTTP requests of a batch run concurrently; link extraction and re-enqueueing
// happen after the whole batch has been collected, so neither Frontier nor the
// blacklist needs locking.
//
// # URL identity
//
// Two URLs are the same page when their path and query are equal. Scheme,
// host and fragment are ignored; the crawl never leaves one host anyway.
// A page is requested at most once per run.
//
// # Cache status
//
// Every fetch records the cache outcome reported by the CDN or reverse proxy
// (see CacheStatusFromHeader), so a second run shows whether warming worked.
//
// # Usage
//
//	frontier := crawler.NewFrontier()
//	crawler.NewSeeder(client).Seed(ctx, frontier, baseURL, sitemapURL)
//
//	spider := crawler.NewSpider(client, baseURL, crawler.WithConcurrency(8))
//	err := spider.Run(ctx, frontier, report)
package crawler
