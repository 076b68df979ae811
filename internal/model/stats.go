package model

import "time"

// Stats contains aggregate crawl counters.
// Counts never contain per-URL detail.
type Stats struct {
	// Scheduled is the number of distinct URLs that entered the frontier
	// (pages and assets).
	Scheduled int `json:"scheduled"`

	// Saved is the number of URLs whose body was written to disk.
	Saved int `json:"saved"`

	// Skipped is the number of URLs dropped by robots, patterns or page cap.
	Skipped int `json:"skipped"`

	// Failed is the number of URLs that failed to fetch or save.
	Failed int `json:"failed"`

	// Pages is the number of HTML pages counted toward the page cap.
	Pages int `json:"pages"`

	// Pending is the number of URLs that had not reached a terminal state
	// when the report was produced. Non-zero only for interrupted runs.
	Pending int `json:"pending"`
}

// Terminal returns the number of URLs that reached a terminal state.
func (s Stats) Terminal() int {
	return s.Saved + s.Skipped + s.Failed
}

// MirrorReport is the result of a single crawl run.
type MirrorReport struct {
	// StartURL is the normalized start URL.
	StartURL string `json:"start_url"`

	// OutDir is the output directory the mirror was written to.
	OutDir string `json:"out_dir"`

	// Scope is the human-readable crawl scope (host or *.host).
	Scope string `json:"scope"`

	// RobotsRespected is false when --ignore-robots was used.
	RobotsRespected bool `json:"robots_respected"`

	// RobotsLoaded is true when a robots policy was loaded successfully.
	RobotsLoaded bool `json:"robots_loaded"`

	// StartedAt is when the crawl started.
	StartedAt time.Time `json:"started_at"`

	// FinishedAt is when the crawl returned.
	FinishedAt time.Time `json:"finished_at"`

	// Interrupted is true when the crawl stopped before the frontier drained.
	Interrupted bool `json:"interrupted"`

	// Stats holds the aggregate counters.
	Stats Stats `json:"stats"`
}

// NewMirrorReport creates a report for a run starting now.
func NewMirrorReport(startURL, outDir string) *MirrorReport {
	return &MirrorReport{
		StartURL:  startURL,
		OutDir:    outDir,
		StartedAt: time.Now(),
	}
}

// Elapsed returns the duration of the run. Zero if the run has not finished.
func (r *MirrorReport) Elapsed() time.Duration {
	if r.FinishedAt.IsZero() {
		return 0
	}
	return r.FinishedAt.Sub(r.StartedAt)
}
