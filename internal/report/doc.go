// Package report writes the summary of a mirror run.
//
// Three formats are supported:
//   - SimpleWriter: the plain text summary printed at the end of a run
//   - JSONWriter: machine readable output of the MirrorReport
//   - MarkdownWriter: a shareable document built with nao1215/markdown
//
// Reports carry aggregate counts only. Per-resource outcomes live in the
// run history database.
package report
