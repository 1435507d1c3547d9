package tui

import (
	"context"
	"fmt"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/BugBuster18/Agentic-File-Recommender/internal/scan"
)

// scanModel drives the live scan-progress screen, kept from the teacher's
// indexingModel spinner/progress shape and repointed at scan.Report instead
// of the old chunk/embedding indexer stats.
type scanModel struct {
	spinner spinner.Model
	root    string
	done    bool
	report  *scan.Report
	err     error
}

func newScanModel(root string) scanModel {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = selectedStyle
	return scanModel{spinner: sp, root: root}
}

// scanDoneMsg is sent when a Scan call completes.
type scanDoneMsg struct {
	report *scan.Report
	err    error
}

func runScan(ctx context.Context, sc *scan.Scanner, root string) tea.Cmd {
	return func() tea.Msg {
		rpt, err := sc.Scan(ctx, root)
		return scanDoneMsg{report: rpt, err: err}
	}
}

func (m scanModel) Update(msg tea.Msg) (scanModel, tea.Cmd) {
	switch msg := msg.(type) {
	case scanDoneMsg:
		m.done = true
		m.report = msg.report
		m.err = msg.err
		return m, nil
	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m scanModel) View(width, height int) string {
	s := "\n"
	s += titleStyle.Render("  Scanning "+m.root) + "\n\n"

	if m.done {
		if m.err != nil {
			s += errorStyle.Render(fmt.Sprintf("  Error: %v", m.err)) + "\n\n"
			s += dimStyle.Render("  Press q to quit.") + "\n"
			return s
		}
		s += successStyle.Render("  ✓ Scan complete!") + "\n\n"
		if m.report != nil {
			s += fmt.Sprintf("  Added: %d  Updated: %d  Unchanged: %d  Tombstoned: %d\n",
				m.report.Added, m.report.Updated, m.report.Unchanged, m.report.Tombstoned)
			if len(m.report.Failures) > 0 {
				s += warnStyle.Render(fmt.Sprintf("  %d file(s) failed", len(m.report.Failures))) + "\n"
			}
		}
		s += "\n"
		s += dimStyle.Render("  Press Enter to get recommendations, or q to quit.") + "\n"
		return s
	}

	s += fmt.Sprintf("  %s scanning...\n", m.spinner.View())
	s += "\n"
	s += dimStyle.Render("  This may take a while for large trees...") + "\n"
	return s
}
