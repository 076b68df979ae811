package model

import "time"

// Resource records the terminal outcome of one crawl task.
// A Resource is emitted exactly once per URL that entered the frontier.
type Resource struct {
	// URL is the normalized URL that was processed.
	URL string `json:"url"`

	// State is the terminal state (saved, skipped or failed).
	State State `json:"-"`

	// StateText is the string form of State, kept for JSON output.
	StateText string `json:"state"`

	// StatusCode is the HTTP status code, 0 if no response was received.
	StatusCode int `json:"status_code,omitempty"`

	// ContentType is the media type of the response without parameters.
	ContentType string `json:"content_type,omitempty"`

	// LocalPath is where the body was written, relative to the output directory.
	// Empty unless State is StateSaved.
	LocalPath string `json:"local_path,omitempty"`

	// Reason explains a skip or failure (e.g. "robots", "http 404").
	Reason string `json:"reason,omitempty"`

	// IsPage is true when the response was an HTML document.
	IsPage bool `json:"is_page,omitempty"`

	// FinishedAt is when the task reached its terminal state.
	FinishedAt time.Time `json:"finished_at"`
}

// NewResource creates a Resource in the given terminal state.
func NewResource(url string, state State) Resource {
	return Resource{
		URL:        url,
		State:      state,
		StateText:  state.String(),
		FinishedAt: time.Now(),
	}
}
