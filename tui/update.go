package tui

import (
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
)

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "p":
			if m.engine.Active() != nil {
				m.engine.StopAll()
				m.err = nil
			} else {
				m.err = m.engine.Play(m.index)
			}
		case "tab":
			if n := len(m.engine.Performances()); n > 0 {
				m.index = (m.index + 1) % n
			}
		case "q", "ctrl+c":
			m.quitting = true
			m.engine.StopAll()
			return m, tea.Quit
		}
	case tickMsg:
		return m, tickCmd()
	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}
	return m, nil
}
