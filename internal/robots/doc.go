// Package robots loads and queries the robots.txt policy of a crawl's origin.
//
// The policy is fetched once at startup through the same HTTP client used
// for crawling and is read-only afterwards, so a single Gate can be shared
// by every worker without locking.
//
// The gate fails open. When robots.txt cannot be fetched or parsed, Load
// returns a nil policy and the gate allows every URL for the rest of the
// run. When evaluating a rule panics or the URL cannot be parsed, Allowed
// returns true as well.
package robots
