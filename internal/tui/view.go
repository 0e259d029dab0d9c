package tui

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
)

func (m Model) View() string {
	if m.quitting {
		return ""
	}

	var content string
	switch m.state {
	case StateAgenda:
		content = docStyle.Render(m.agenda.View())
	case StateItems:
		content = docStyle.Render(m.items.View())
	case StateEditing:
		content = docStyle.Render(m.form.View())
	case StateConfirmSchedule:
		content = m.viewConfirmSchedule()
	}

	return lipgloss.JoinVertical(
		lipgloss.Left,
		m.viewTabs(),
		content,
		m.viewStatus(),
		m.help.View(m),
	)
}

func (m Model) viewTabs() string {
	var tabs []string
	for i, title := range []string{"Agenda", "Items"} {
		if m.state == SessionState(i) || (m.state >= tabCount && m.previousState == SessionState(i)) {
			tabs = append(tabs, activeTabStyle.Render(title))
		} else {
			tabs = append(tabs, inactiveTabStyle.Render(title))
		}
	}
	if m.draft != nil {
		tabs = append(tabs, inactiveTabStyle.Render(string(m.draft.Status)))
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, tabs...)
}

func (m Model) viewStatus() string {
	var lines []string
	if w := m.conflictWarning(); w != "" {
		lines = append(lines, warningStyle.Render(w))
	}
	if m.status != "" {
		if m.statusIsError {
			lines = append(lines, dangerStyle.Render(m.status))
		} else {
			lines = append(lines, statusStyle.Render(m.status))
		}
	}
	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}

func (m Model) viewConfirmSchedule() string {
	n := 0
	if m.draft != nil {
		n = len(m.draft.DraftItems())
	}
	return lipgloss.Place(m.width, m.height-4,
		lipgloss.Center, lipgloss.Center,
		lipgloss.JoinVertical(lipgloss.Center,
			dangerStyle.Render(fmt.Sprintf("Write %d item(s) to your calendar?", n)),
			"",
			"[y] Yes",
			"[n] No",
		),
	)
}

// Err reports why the program stopped, if the connection failed.
func (m Model) Err() error {
	return m.err
}
