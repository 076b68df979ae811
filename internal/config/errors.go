package config

import "errors"

// Configuration validation errors.
// These errors are returned by Config.Validate() and allow callers to use
// errors.Is() to tell configuration mistakes apart.
var (
	// ErrNoStartURL is returned when no start URL is given.
	ErrNoStartURL = errors.New("no start URL specified")

	// ErrUnsupportedScheme is returned when the start URL is not http or https.
	ErrUnsupportedScheme = errors.New("unsupported start URL: scheme must be http or https and a host is required")

	// ErrNoOutDir is returned when no output directory is given.
	ErrNoOutDir = errors.New("no output directory specified")

	// ErrInvalidTimeout is returned when the timeout is not positive.
	ErrInvalidTimeout = errors.New("invalid timeout: must be positive")

	// ErrInvalidWorkers is returned when the worker count is not positive.
	ErrInvalidWorkers = errors.New("invalid workers: must be at least 1")

	// ErrInvalidMaxPages is returned when the page cap is negative.
	// Use 0 for no cap.
	ErrInvalidMaxPages = errors.New("invalid max pages: must be non-negative")

	// ErrInvalidDelay is returned when the per-worker delay is negative.
	// Use 0 for no delay between requests.
	ErrInvalidDelay = errors.New("invalid delay: must be non-negative")

	// ErrInvalidMaxBodySize is returned when the max body size is negative.
	// Use 0 to use the default limit.
	ErrInvalidMaxBodySize = errors.New("invalid max body size: must be non-negative")

	// ErrConflictingReportFormats is returned when both --json and --markdown
	// are specified. Only one output format can be used at a time.
	ErrConflictingReportFormats = errors.New("conflicting report formats: --json and --markdown cannot be used together")

	// ErrInvalidDuration is returned when a duration flag cannot be parsed.
	ErrInvalidDuration = errors.New("invalid duration: use seconds (0.5) or a Go duration (500ms)")
)
