package report

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/nao1215/sitemirror/internal/model"
)

// SimpleWriter outputs the plain text summary shown at the end of a run.
type SimpleWriter struct {
	baseWriter

	// verbose adds the outcome breakdown and timing to the summary.
	verbose bool
}

// SimpleWriterOption configures a SimpleWriter.
type SimpleWriterOption func(*SimpleWriter)

// WithVerbose enables verbose output with additional details.
func WithVerbose(verbose bool) SimpleWriterOption {
	return func(w *SimpleWriter) {
		w.verbose = verbose
	}
}

// NewSimpleWriter creates a SimpleWriter that outputs to the given writer.
func NewSimpleWriter(output io.Writer, opts ...SimpleWriterOption) *SimpleWriter {
	w := &SimpleWriter{
		baseWriter: newBaseWriter(output),
	}

	for _, opt := range opts {
		opt(w)
	}

	return w
}

// Write outputs the summary. The scheduled and saved lines are always
// present, including for interrupted runs.
func (w *SimpleWriter) Write(report *model.MirrorReport) (int, error) {
	var sb strings.Builder

	sb.WriteString("\n")
	if report.Interrupted {
		sb.WriteString("Interrupted. Partial mirror kept.\n")
	} else {
		sb.WriteString("Done.\n")
	}
	sb.WriteString(fmt.Sprintf("Pages/assets scheduled: %d\n", report.Stats.Scheduled))
	sb.WriteString(fmt.Sprintf("Saved files: %d\n", report.Stats.Saved))

	if w.verbose {
		sb.WriteString(fmt.Sprintf("Pages parsed: %d\n", report.Stats.Pages))
		sb.WriteString(fmt.Sprintf("Skipped: %d\n", report.Stats.Skipped))
		sb.WriteString(fmt.Sprintf("Failed: %d\n", report.Stats.Failed))
		if report.Stats.Pending > 0 {
			sb.WriteString(fmt.Sprintf("Not fetched: %d\n", report.Stats.Pending))
		}
		sb.WriteString(fmt.Sprintf("Elapsed: %s\n", report.Elapsed().Round(time.Millisecond)))
	}

	sb.WriteString(fmt.Sprintf("Output: %s\n", report.OutDir))

	return w.output.Write([]byte(sb.String()))
}

// WriteBanner outputs the start banner printed before crawling begins.
func (w *SimpleWriter) WriteBanner(report *model.MirrorReport) (int, error) {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("Start URL:  %s\n", report.StartURL))
	sb.WriteString(fmt.Sprintf("Output dir: %s\n", report.OutDir))
	sb.WriteString(fmt.Sprintf("Scope:      %s\n", report.Scope))
	sb.WriteString(fmt.Sprintf("robots.txt: %s\n", robotsMode(report)))
	sb.WriteString("\n")

	return w.output.Write([]byte(sb.String()))
}
