package report

import (
	"io"
	"strconv"
	"time"

	"github.com/nao1215/markdown"
	"github.com/nao1215/markdown/mermaid/piechart"
	"github.com/nao1215/sitemirror/internal/model"
)

// MarkdownWriter outputs reports in Markdown format for sharing.
type MarkdownWriter struct {
	baseWriter
}

// NewMarkdownWriter creates a MarkdownWriter that outputs to the given writer.
func NewMarkdownWriter(output io.Writer) *MarkdownWriter {
	return &MarkdownWriter{
		baseWriter: newBaseWriter(output),
	}
}

// Write outputs the report in Markdown format.
func (w *MarkdownWriter) Write(report *model.MirrorReport) (int, error) {
	md := markdown.NewMarkdown(w.output)

	w.writeHeader(md, report)
	w.writeOutcomes(md, report)
	w.writeFooter(md)

	return len(md.String()), md.Build()
}

// writeHeader writes the run properties table.
func (w *MarkdownWriter) writeHeader(md *markdown.Markdown, report *model.MirrorReport) {
	md.H1("Mirror Report")
	md.PlainText("")

	md.Table(markdown.TableSet{
		Header: []string{"Property", "Value"},
		Rows: [][]string{
			{"Start URL", "`" + report.StartURL + "`"},
			{"Output Directory", "`" + report.OutDir + "`"},
			{"Scope", "`" + report.Scope + "`"},
			{"robots.txt", robotsMode(report)},
			{"Started", report.StartedAt.Format("2006-01-02 15:04:05 MST")},
			{"Elapsed", report.Elapsed().Round(time.Millisecond).String()},
			{"Status", status(report)},
		},
	})
	md.PlainText("")
}

// writeOutcomes writes the counters, a distribution chart and an alert.
func (w *MarkdownWriter) writeOutcomes(md *markdown.Markdown, report *model.MirrorReport) {
	stats := report.Stats

	md.H2("Outcomes")
	md.PlainText("")

	md.Table(markdown.TableSet{
		Header: []string{"Outcome", "Count"},
		Rows: [][]string{
			{"Scheduled", strconv.Itoa(stats.Scheduled)},
			{"Saved", strconv.Itoa(stats.Saved)},
			{"Pages parsed", strconv.Itoa(stats.Pages)},
			{"Skipped", strconv.Itoa(stats.Skipped)},
			{"Failed", strconv.Itoa(stats.Failed)},
			{"Not fetched", strconv.Itoa(stats.Pending)},
		},
	})
	md.PlainText("")

	if stats.Scheduled > 0 {
		w.writePieChart(md, stats)
	}

	switch {
	case report.Interrupted:
		md.Warningf("Run interrupted. %d of %d resource(s) were not fetched.", stats.Pending, stats.Scheduled)
	case stats.Failed > 0:
		md.Importantf("%d resource(s) failed to download.", stats.Failed)
	default:
		md.Tip("All reachable resources were processed.")
	}
	md.PlainText("")
}

// writePieChart writes a mermaid pie chart of the outcome distribution.
func (w *MarkdownWriter) writePieChart(md *markdown.Markdown, stats model.Stats) {
	chart := piechart.NewPieChart(
		io.Discard,
		piechart.WithTitle("Outcome Distribution"),
		piechart.WithShowData(true),
	)

	slices := []struct {
		label string
		count int
	}{
		{"Saved", stats.Saved},
		{"Skipped", stats.Skipped},
		{"Failed", stats.Failed},
		{"Not fetched", stats.Pending},
	}
	for _, s := range slices {
		if s.count > 0 {
			chart.LabelAndIntValue(s.label, uint64(s.count))
		}
	}

	md.CodeBlocks(markdown.SyntaxHighlightMermaid, chart.String())
	md.PlainText("")
}

// writeFooter writes the report footer.
func (w *MarkdownWriter) writeFooter(md *markdown.Markdown) {
	md.HorizontalRule()
	md.PlainText("")
	md.PlainTextf("*Report generated by [sitemirror](https://github.com/nao1215/sitemirror)*")
}
