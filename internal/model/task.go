package model

import "fmt"

// CrawlTask wraps a single normalized URL to visit.
// It has no identity beyond its URL string and is never mutated after
// it has been created by the frontier.
type CrawlTask struct {
	// URL is the normalized absolute URL (fragment stripped).
	URL string `json:"url"`
}

// NewCrawlTask returns a task for the given normalized URL.
func NewCrawlTask(url string) CrawlTask {
	return CrawlTask{URL: url}
}

// State is the lifecycle state of a URL inside the frontier.
//
// A URL moves Unseen -> Enqueued exactly once, Enqueued -> InProgress when a
// worker dequeues it, and finally into exactly one terminal state.
type State int

const (
	// StateUnseen means the URL has never been discovered.
	StateUnseen State = iota
	// StateEnqueued means the URL is waiting in the queue.
	StateEnqueued
	// StateInProgress means a worker is processing the URL.
	StateInProgress
	// StateSaved means the URL returned 200 and its body was written to disk.
	StateSaved
	// StateSkipped means the URL was disallowed by robots, filtered by a
	// pattern, or dropped because of the page cap.
	StateSkipped
	// StateFailed means fetching or saving the URL failed.
	StateFailed
)

// String returns the lowercase name of the state.
func (s State) String() string {
	switch s {
	case StateUnseen:
		return "unseen"
	case StateEnqueued:
		return "enqueued"
	case StateInProgress:
		return "in_progress"
	case StateSaved:
		return "saved"
	case StateSkipped:
		return "skipped"
	case StateFailed:
		return "failed"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// IsTerminal reports whether the state is one of Saved, Skipped or Failed.
func (s State) IsTerminal() bool {
	return s == StateSaved || s == StateSkipped || s == StateFailed
}

// ParseState converts the output of State.String back to a State.
// Unknown names return StateUnseen and false.
func ParseState(name string) (State, bool) {
	for s := StateUnseen; s <= StateFailed; s++ {
		if s.String() == name {
			return s, true
		}
	}
	return StateUnseen, false
}
