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
	case StateToday:
		if !m.loaded && m.status == "" {
			content = docStyle.Render("Loading habits...")
		} else {
			content = docStyle.Render(m.habitsModel.View())
		}
	case StateDashboard:
		content = docStyle.Render(m.dashboardModel.View())
	case StateAddHabit:
		content = docStyle.Render(m.form.View())
	case StateConfirmDelete:
		content = m.viewConfirmDelete()
	}

	status := ""
	if m.status != "" {
		status = statusStyle.Render(m.status)
	}

	return lipgloss.JoinVertical(
		lipgloss.Left,
		m.viewTabs(),
		content,
		status,
		m.help.View(m),
	)
}

func (m Model) viewTabs() string {
	titles := []string{"Today", "Dashboard"}
	active := 0
	if m.state == StateDashboard {
		active = 1
	}

	tabs := make([]string, len(titles))
	for i, title := range titles {
		if i == active {
			tabs[i] = activeTabStyle.Render(title)
		} else {
			tabs[i] = inactiveTabStyle.Render(title)
		}
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, tabs...)
}

func (m Model) viewConfirmDelete() string {
	return lipgloss.Place(m.width, m.height-4,
		lipgloss.Center, lipgloss.Center,
		lipgloss.JoinVertical(lipgloss.Center,
			dangerStyle.Render(fmt.Sprintf("Delete %q and all of its logs?", m.pendingDelete.Name)),
			"",
			"[y] Yes",
			"[n] No",
		),
	)
}
