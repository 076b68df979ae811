// Package scope canonicalizes URLs and decides whether they belong to a
// crawl's origin.
//
// Normalize is the single dedup key function: every frontier insertion and
// every dedup lookup goes through it. It strips fragments and surrounding
// whitespace while leaving the path and query untouched, so two references
// that differ only by "#anchor" map to the same key.
//
// A Scope is derived once from the start URL and is immutable for the
// duration of a crawl. It accepts the origin host and, optionally, its
// strict subdomains.
package scope
