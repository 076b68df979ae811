// Package main provides the entry point for the sitemirror CLI.
//
// sitemirror mirrors the pages and assets of a website to disk. It follows
// links that stay on the start URL's origin, saves every page and asset
// under an output directory, and respects robots.txt.
//
// Usage:
//
//	sitemirror mirror https://example.com/ ./mirror
//	sitemirror history example.com
//
// See --help for all available options.
package main

// main is the entry point for sitemirror.
func main() {
	Execute()
}
