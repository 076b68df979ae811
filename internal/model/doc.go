// Package model defines the core data structures shared across SiteMirror.
//
// This package contains the following main types:
//   - CrawlTask: A single normalized URL waiting to be visited
//   - State: The lifecycle state of a URL inside the frontier
//   - Resource: The terminal outcome of one task (saved, skipped, failed)
//   - Stats: Aggregate counters reported at the end of a run
//   - MirrorReport: The result of a whole crawl run
//
// Models live in their own package so that the crawler, database and
// report packages can share them without import cycles. All types are
// serializable to JSON for report output and history storage.
package model
