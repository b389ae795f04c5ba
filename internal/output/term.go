package output

import (
	"fmt"
	"io"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"

	"loupe/internal/finding"
	"loupe/internal/review"
)

var (
	highStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("196"))
	mediumStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
	lowStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("78"))
	dimStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
)

// WriteTerminal renders the markdown report for a terminal via glamour,
// with a styled one-line summary on top. It falls back to raw markdown if
// the renderer cannot be constructed.
func WriteTerminal(w io.Writer, reports []*review.Report) error {
	fmt.Fprintln(w, summaryLine(reports))

	md := Markdown(reports)
	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(100),
	)
	if err != nil {
		_, werr := io.WriteString(w, md)
		return werr
	}
	rendered, err := r.Render(md)
	if err != nil {
		_, werr := io.WriteString(w, md)
		return werr
	}
	_, err = io.WriteString(w, rendered)
	return err
}

// UsageLine formats backend token totals for the end of a terminal report.
func UsageLine(promptTokens, outputTokens int64) string {
	return dimStyle.Render(fmt.Sprintf("tokens: %d prompt, %d output", promptTokens, outputTokens))
}

func summaryLine(reports []*review.Report) string {
	var counts finding.SeverityCounts
	var failed int
	for _, r := range reports {
		counts.High += r.Summary.Counts.High
		counts.Medium += r.Summary.Counts.Medium
		counts.Low += r.Summary.Counts.Low
		failed += len(r.Meta.FailedChunks)
	}

	line := fmt.Sprintf("%s  %s  %s",
		highStyle.Render(fmt.Sprintf("%d high", counts.High)),
		mediumStyle.Render(fmt.Sprintf("%d medium", counts.Medium)),
		lowStyle.Render(fmt.Sprintf("%d low", counts.Low)),
	)
	if failed > 0 {
		line += "  " + dimStyle.Render(fmt.Sprintf("(%d chunk(s) failed)", failed))
	}
	return line
}
