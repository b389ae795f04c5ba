// Package tui shows a live progress view while a review runs.
package tui

import (
	"fmt"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"loupe/internal/review"
)

// ReviewFunc runs a review, reporting chunk completion through onProgress.
type ReviewFunc func(onProgress review.ProgressFunc) ([]*review.Report, error)

type progressModel struct {
	spinner spinner.Model
	path    string
	done    int
	total   int
	files   int
	reports []*review.Report
	err     error
}

// progressMsg is sent for every completed chunk.
type progressMsg struct {
	path  string
	done  int
	total int
}

// doneMsg is sent when the review completes.
type doneMsg struct {
	reports []*review.Report
	err     error
}

func newProgressModel() progressModel {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = spinnerStyle
	return progressModel{spinner: sp}
}

func (m progressModel) Init() tea.Cmd {
	return m.spinner.Tick
}

func (m progressModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case progressMsg:
		if msg.path != m.path {
			m.path = msg.path
			m.files++
		}
		m.done = msg.done
		m.total = msg.total
		return m, nil
	case doneMsg:
		m.reports = msg.reports
		m.err = msg.err
		return m, tea.Quit
	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			m.err = fmt.Errorf("interrupted")
			return m, tea.Quit
		}
		return m, nil
	default:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}
}

func (m progressModel) View() string {
	if m.err != nil {
		return errorStyle.Render("✗ review failed") + "\n"
	}
	if m.reports != nil {
		return successStyle.Render("✓ review complete") + "\n"
	}
	header := titleStyle.Render("Reviewing")
	if m.path == "" {
		return fmt.Sprintf("%s %s\n", m.spinner.View(), header)
	}
	return fmt.Sprintf("%s %s %s %s\n",
		m.spinner.View(),
		header,
		m.path,
		dimStyle.Render(fmt.Sprintf("(chunk %d/%d)", m.done, m.total)),
	)
}

// RunWithProgress executes fn while showing a spinner with per-chunk
// progress and returns fn's result once the view exits.
func RunWithProgress(fn ReviewFunc) ([]*review.Report, error) {
	p := tea.NewProgram(newProgressModel())

	go func() {
		reports, err := fn(func(path string, done, total int) {
			p.Send(progressMsg{path: path, done: done, total: total})
		})
		p.Send(doneMsg{reports: reports, err: err})
	}()

	final, err := p.Run()
	if err != nil {
		return nil, err
	}
	m := final.(progressModel)
	return m.reports, m.err
}
