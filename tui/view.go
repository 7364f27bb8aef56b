package tui

import (
	"fmt"
	"time"

	"github.com/charmbracelet/lipgloss"
)

var (
	titleStyle = lipgloss.NewStyle().Bold(true)
	errorStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	helpStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("241")).Margin(1, 0)
	appStyle   = lipgloss.NewStyle().Margin(1, 2, 0, 2)
)

func (m Model) View() string {
	var s string

	title := "no score loaded"
	if doc := m.engine.Document(); doc != nil && doc.Title != "" {
		title = doc.Title
	}
	s += titleStyle.Render(title) + "\n\n"

	for i, p := range m.engine.Performances() {
		marker := "  "
		if i == m.index {
			marker = "> "
		}
		state := "stopped"
		if p.Playing() {
			state = "playing"
		}
		s += fmt.Sprintf("%s%s (%s, %s)\n", marker, p.Name(), p.Kind(), state)
	}
	s += "\n"

	if active := m.engine.Active(); active != nil {
		s += fmt.Sprintf("%s %s %s\n", m.spinner.View(), m.progress.ViewAs(active.Progress()), formatElapsed(active.Elapsed()))
		s += fmt.Sprintf("\nActive decorations: %d\n", active.ActiveCount())
	} else {
		s += m.progress.ViewAs(0) + "\n"
	}

	if m.err != nil {
		s += "\n" + errorStyle.Render(m.err.Error()) + "\n"
	}

	s += helpStyle.Render("(p) play/stop (tab) switch performance\n\nPress q to exit\n")

	if m.quitting {
		s += "\n"
	}
	return appStyle.Render(s)
}

func formatElapsed(d time.Duration) string {
	return d.Truncate(100 * time.Millisecond).String()
}
