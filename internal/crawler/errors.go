package crawler

import (
	"errors"
	"fmt"
)

var (
	// ErrOutOfScope is returned when a URL lies outside the crawl scope.
	// It is never logged per URL.
	ErrOutOfScope = errors.New("url is out of crawl scope")

	// ErrRobotsDisallowed marks a URL skipped because robots.txt forbids it.
	ErrRobotsDisallowed = errors.New("disallowed by robots.txt")

	// ErrPatternExcluded marks a URL skipped by site ignore or follow patterns.
	ErrPatternExcluded = errors.New("excluded by crawl patterns")

	// ErrBodyTooLarge marks a response whose body exceeds the fetcher's
	// size limit. Such responses are not saved.
	ErrBodyTooLarge = errors.New("response body exceeds size limit")
)

// FetchError reports a network-level failure for a URL
// (DNS, connect, TLS, timeout, too many redirects).
type FetchError struct {
	URL string
	Err error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetch %s: %v", e.URL, e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// HTTPStatusError reports a response whose status code is not 200.
type HTTPStatusError struct {
	URL        string
	StatusCode int
}

func (e *HTTPStatusError) Error() string {
	return fmt.Sprintf("fetch %s: unexpected status %d", e.URL, e.StatusCode)
}

// SaveError reports a failure to write a response to disk.
type SaveError struct {
	URL  string
	Path string
	Err  error
}

func (e *SaveError) Error() string {
	return fmt.Sprintf("save %s to %s: %v", e.URL, e.Path, e.Err)
}

func (e *SaveError) Unwrap() error {
	return e.Err
}
