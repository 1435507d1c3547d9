// Package tui is the interactive dashboard adapter (SPEC_FULL.md §6.3),
// kept from the teacher's bubbletea top-level Model/Update/View shape but
// repointed at the scan → recommend flow instead of the teacher's
// welcome → setup → chat flow: a root-path prompt drives a live scan
// screen (scanModel, indexing.go), which on completion hands off to a
// query-path prompt driving the recommendation screen (recommendModel,
// recommend.go).
package tui

import (
	"context"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/BugBuster18/Agentic-File-Recommender/internal/app"
)

// screen identifies which view is active.
type screen int

const (
	screenRootPrompt screen = iota
	screenScanning
	screenQueryPrompt
	screenRecommend
)

// Model is the top-level Bubble Tea model.
type Model struct {
	app    *app.App
	ctx    context.Context
	screen screen

	rootInput textinput.Model
	scan      scanModel
	recommend recommendModel

	width, height int
	err           error
}

// New creates a new TUI model driving a already-opened App.
func New(a *app.App) Model {
	ti := textinput.New()
	ti.Placeholder = "directory to scan..."
	ti.Focus()
	return Model{
		app:       a,
		ctx:       context.Background(),
		screen:    screenRootPrompt,
		rootInput: ti,
	}
}

func (m Model) Init() tea.Cmd {
	return textinput.Blink
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c":
			return m, tea.Quit
		case "q":
			if m.screen == screenRootPrompt || m.screen == screenQueryPrompt || (m.screen == screenScanning && m.scan.done) {
				return m, tea.Quit
			}
		case "enter":
			switch m.screen {
			case screenRootPrompt:
				root := m.rootInput.Value()
				if root == "" {
					return m, nil
				}
				m.scan = newScanModel(root)
				m.screen = screenScanning
				return m, tea.Batch(m.scan.spinner.Tick, runScan(m.ctx, m.app.Scanner, root))
			case screenQueryPrompt:
				path := m.recommend.input.Value()
				if path == "" {
					return m, nil
				}
				m.recommend.initViewport(m.width, m.height)
				m.screen = screenRecommend
				return m, runRecommend(m.ctx, m.app.Ranker, path, 5)
			}
		}

	case scanDoneMsg:
		var cmd tea.Cmd
		m.scan, cmd = m.scan.Update(msg)
		if m.scan.done && m.scan.err == nil {
			m.recommend = newRecommendModel()
		}
		return m, cmd
	}

	var cmd tea.Cmd
	switch m.screen {
	case screenRootPrompt:
		m.rootInput, cmd = m.rootInput.Update(msg)
	case screenScanning:
		m.scan, cmd = m.scan.Update(msg)
		if _, ok := msg.(tea.KeyMsg); ok && m.scan.done {
			m.screen = screenQueryPrompt
			m.recommend = newRecommendModel()
		}
	case screenQueryPrompt, screenRecommend:
		m.recommend, cmd = m.recommend.Update(msg)
	}
	return m, cmd
}

func (m Model) View() string {
	if m.err != nil {
		return errorStyle.Render("Error: "+m.err.Error()) + "\n"
	}
	switch m.screen {
	case screenRootPrompt:
		return "\n" + titleStyle.Render("  Scan a directory") + "\n\n  " + m.rootInput.View() + "\n\n" +
			dimStyle.Render("  Enter a path and press Enter, q to quit.") + "\n"
	case screenScanning:
		return m.scan.View(m.width, m.height)
	case screenQueryPrompt, screenRecommend:
		return m.recommend.View(m.width, m.height)
	}
	return ""
}

// Run starts the TUI program against an already-opened App.
func Run(a *app.App) error {
	p := tea.NewProgram(New(a), tea.WithAltScreen())
	_, err := p.Run()
	return err
}
