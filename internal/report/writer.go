package report

import (
	"io"

	"github.com/nao1215/sitemirror/internal/model"
)

// Writer defines the interface for report output.
type Writer interface {
	// Write outputs the report to the configured destination.
	// Returns the number of bytes written and any error encountered.
	Write(report *model.MirrorReport) (int, error)
}

// MultiWriter writes to multiple Writers in order.
// This is useful for printing the summary and saving a file in one pass.
type MultiWriter struct {
	writers []Writer
}

// NewMultiWriter creates a Writer that writes to all provided Writers.
func NewMultiWriter(writers ...Writer) *MultiWriter {
	return &MultiWriter{writers: writers}
}

// Write outputs the report to all configured Writers.
// Returns the total bytes written across all writers.
// Stops on first error encountered.
func (m *MultiWriter) Write(report *model.MirrorReport) (int, error) {
	var total int
	for _, w := range m.writers {
		n, err := w.Write(report)
		total += n
		if err != nil {
			return total, err
		}
	}
	return total, nil
}

// baseWriter provides common functionality for report writers.
type baseWriter struct {
	output io.Writer
}

// newBaseWriter creates a baseWriter with the given output destination.
func newBaseWriter(output io.Writer) baseWriter {
	return baseWriter{output: output}
}

// robotsMode describes how robots.txt was applied during the run.
func robotsMode(report *model.MirrorReport) string {
	switch {
	case !report.RobotsRespected:
		return "IGNORED"
	case !report.RobotsLoaded:
		return "respected (not available, allowing all)"
	default:
		return "respected"
	}
}

// status describes how the run ended.
func status(report *model.MirrorReport) string {
	if report.Interrupted {
		return "Interrupted (partial mirror)"
	}
	return "Complete"
}
