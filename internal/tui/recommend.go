package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"

	"github.com/BugBuster18/Agentic-File-Recommender/internal/rank"
)

// recommendModel renders recommendation results as markdown cards through
// glamour, grounded on the teacher's chat-answer renderer (chatModel's
// glamour.TermRenderer usage) repointed at factor-score cards instead of
// LLM answers.
type recommendModel struct {
	input       textinput.Model
	renderer    *glamour.TermRenderer
	recs        []rank.Recommendation
	err         error
	initialized bool
	width       int
}

func newRecommendModel() recommendModel {
	ti := textinput.New()
	ti.Placeholder = "path to a file you just opened..."
	ti.Focus()
	return recommendModel{input: ti}
}

func (m *recommendModel) initViewport(width, height int) {
	m.width = width
	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(width-2),
	)
	if err == nil {
		m.renderer = r
	}
	m.initialized = true
}

// recommendDoneMsg is sent when a Recommend call completes.
type recommendDoneMsg struct {
	recs []rank.Recommendation
	err  error
}

func runRecommend(ctx context.Context, r *rank.Ranker, path string, k int) tea.Cmd {
	return func() tea.Msg {
		recs, err := r.Recommend(ctx, path, k, time.Now())
		return recommendDoneMsg{recs: recs, err: err}
	}
}

func (m recommendModel) Update(msg tea.Msg) (recommendModel, tea.Cmd) {
	switch msg := msg.(type) {
	case recommendDoneMsg:
		m.recs = msg.recs
		m.err = msg.err
		return m, nil
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m recommendModel) View(width, height int) string {
	var b strings.Builder
	b.WriteString("\n")
	b.WriteString(titleStyle.Render("  Recommend") + "\n\n")
	b.WriteString("  " + m.input.View() + "\n\n")

	if m.err != nil {
		b.WriteString(errorStyle.Render("  "+m.err.Error()) + "\n")
		return b.String()
	}
	if len(m.recs) == 0 {
		b.WriteString(dimStyle.Render("  Enter a file path and press Enter.") + "\n")
		return b.String()
	}

	md := renderRecommendationsMarkdown(m.recs)
	if m.renderer != nil {
		if out, err := m.renderer.Render(md); err == nil {
			b.WriteString(out)
			return b.String()
		}
	}
	b.WriteString(md)
	return b.String()
}

// renderRecommendationsMarkdown formats each recommendation's factor
// breakdown (spec.md §6's Recommendation shape) as a markdown card.
func renderRecommendationsMarkdown(recs []rank.Recommendation) string {
	var b strings.Builder
	for i, r := range recs {
		fmt.Fprintf(&b, "### %d. %s\n\n", i+1, r.File.Path)
		fmt.Fprintf(&b, "**score:** %.3f &nbsp;·&nbsp; semantic=%.3f recency=%.3f co-access=%.3f\n\n",
			r.FinalScore, r.Semantic, r.Recency, r.CoAccess)
	}
	return b.String()
}
