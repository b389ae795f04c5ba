// Package output renders review reports as markdown, styled terminal
// output, and JSON.
package output

import (
	"fmt"
	"io"
	"strings"
	"time"

	"loupe/internal/finding"
	"loupe/internal/review"
)

// Markdown builds the markdown report for a set of file reports.
func Markdown(reports []*review.Report) string {
	var b strings.Builder

	b.WriteString("# Loupe Code Review\n\n")

	var counts finding.SeverityCounts
	var failed int
	for _, r := range reports {
		counts.High += r.Summary.Counts.High
		counts.Medium += r.Summary.Counts.Medium
		counts.Low += r.Summary.Counts.Low
		failed += len(r.Meta.FailedChunks)
	}
	total := counts.High + counts.Medium + counts.Low

	b.WriteString("| Severity | Count |\n")
	b.WriteString("|----------|-------|\n")
	fmt.Fprintf(&b, "| High     | %d |\n", counts.High)
	fmt.Fprintf(&b, "| Medium   | %d |\n", counts.Medium)
	fmt.Fprintf(&b, "| Low      | %d |\n", counts.Low)
	fmt.Fprintf(&b, "| **Total** | **%d** |\n\n", total)

	if total == 0 {
		b.WriteString("No issues found.\n")
	}

	for _, r := range reports {
		if len(r.Findings) == 0 && len(r.Meta.FailedChunks) == 0 {
			continue
		}
		fmt.Fprintf(&b, "## %s\n\n", r.Path)
		for _, f := range r.Findings {
			fmt.Fprintf(&b, "### %s `%s` — line %d (%s)\n\n", severityIcon(f.Severity), f.Category, f.Line, f.Severity)
			fmt.Fprintf(&b, "%s\n\n", f.Description)
			if f.Reasoning != "" {
				fmt.Fprintf(&b, "> %s\n\n", strings.ReplaceAll(f.Reasoning, "\n", "\n> "))
			}
			if f.Confidence > 0 {
				fmt.Fprintf(&b, "Confidence: %.0f%%\n\n", f.Confidence*100)
			}
		}
		for _, fc := range r.Meta.FailedChunks {
			fmt.Fprintf(&b, "⚠️ chunk %d was not analyzed: %s\n\n", fc.Index, fc.Err)
		}
	}

	if failed > 0 {
		fmt.Fprintf(&b, "*Partial result: %d chunk(s) failed analysis; their findings are missing above.*\n\n", failed)
	}

	var elapsed time.Duration
	for _, r := range reports {
		elapsed += r.Elapsed
	}
	fmt.Fprintf(&b, "*Reviewed %d file(s) in %s*\n", len(reports), elapsed.Round(time.Millisecond))

	return b.String()
}

// WriteMarkdown writes the raw markdown report to w.
func WriteMarkdown(w io.Writer, reports []*review.Report) error {
	_, err := io.WriteString(w, Markdown(reports))
	return err
}

func severityIcon(s finding.Severity) string {
	switch s {
	case finding.SeverityHigh:
		return "🔴"
	case finding.SeverityMedium:
		return "🟡"
	default:
		return "🟢"
	}
}
