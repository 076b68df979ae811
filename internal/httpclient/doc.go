// Package httpclient builds the HTTP client shared by the robots loader and
// the crawl workers.
//
// The client follows redirects up to a limit, keeps cookies set by the site
// in a jar, and applies a single timeout to every request. Traffic can
// optionally be routed through a SOCKS5 proxy such as a local Tor daemon.
package httpclient
