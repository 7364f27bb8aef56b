// Package tui renders a terminal front end for a loaded score: the
// performance list, playback progress and the live decoration count.
package tui

import (
	"time"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/joeberkovitz/gmnx-viewer/engine"
)

// Model is the bubbletea model for the viewer.
type Model struct {
	engine   *engine.Engine
	index    int
	spinner  spinner.Model
	progress progress.Model
	err      error
	quitting bool
}

// NewModel creates a new Model object cued to the performance at index.
func NewModel(eng *engine.Engine, index int) Model {
	s := spinner.New()
	s.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("63"))

	p := progress.New(
		progress.WithDefaultGradient(),
		progress.WithWidth(40),
		progress.WithoutPercentage(),
	)

	if index < 0 {
		index = 0
	}
	return Model{
		engine:   eng,
		index:    index,
		spinner:  s,
		progress: p,
	}
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(tickCmd(), m.spinner.Tick)
}

type tickMsg time.Time

func tickCmd() tea.Cmd {
	return tea.Tick(time.Millisecond*25, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

// Run drives the TUI until the user quits.
func Run(eng *engine.Engine, index int) error {
	return tea.NewProgram(NewModel(eng, index)).Start()
}
