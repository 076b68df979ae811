// Package crawler mirrors a single site to the local filesystem.
//
// # Architecture
//
// The Spider coordinates a fixed pool of workers that share one frontier.
// The frontier owns every piece of mutable crawl state (the seen set, the
// saved set, the page counter and the pending count) behind a single mutex
// and exposes it only through atomic operations such as Enqueue and
// CountPage.
//
// Each worker repeatedly takes a task from the frontier and runs it through
// the same pipeline:
//
//	robots gate -> crawl patterns -> rate limit -> fetch -> status 200 ->
//	save -> extract (HTML, CSS) -> enqueue discoveries -> finish
//
// # Components
//
//   - Spider: worker pool and completion detection
//   - Fetcher: HTTP GET with user agent, site headers and a body size limit
//   - Saver: writes response bytes to the path chosen by pathmap
//   - Extractor: finds page links and asset references in HTML and CSS
//
// # Usage
//
//	sc, _ := scope.New("https://example.com/", false)
//	fetcher := crawler.NewFetcher(client, crawler.WithUserAgent(ua))
//	saver := crawler.NewSaver(pathmap.New("out"))
//	spider := crawler.NewSpider(sc, fetcher, saver, crawler.WithWorkers(4))
//	report, err := spider.Crawl(ctx, "https://example.com/")
//
// # Failure handling
//
// Every per-URL failure is recorded against that URL and logged; none of
// them stops the crawl. Cancelling the context stops the workers from
// taking new tasks. Requests already in flight run to completion, bounded by
// the HTTP client timeout, and Crawl returns a report marked Interrupted.
package crawler
