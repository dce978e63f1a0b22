package tui

import (
	"fmt"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"

	"github.com/julianstephens/habitlog/internal/logger"
	"github.com/julianstephens/habitlog/internal/models"
	"github.com/julianstephens/habitlog/internal/tui/components/habits"
)

// chromeHeight is the space taken by tabs, status line and help.
const chromeHeight = 6

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.help.Width = msg.Width
		m.habitsModel.SetSize(msg.Width-4, msg.Height-chromeHeight)
		m.dashboardModel.SetSize(msg.Width-4, msg.Height-chromeHeight)
		return m, nil

	case dataLoadedMsg:
		if msg.err != nil {
			logger.Error("tui: failed to load habits", "error", msg.err)
			m.status = fmt.Sprintf("Failed to load habits: %v", msg.err)
			return m, nil
		}
		m.loaded = true
		m.habitsModel.SetStats(msg.dashboard.Habits)
		m.dashboardModel.SetDashboard(msg.dashboard)
		return m, nil

	case actionDoneMsg:
		if msg.err != nil {
			m.status = fmt.Sprintf("Error: %v", msg.err)
		} else {
			m.status = msg.status
		}
		return m, m.load()

	case habits.AddHabitMsg:
		m.habitForm = &HabitFormModel{Type: string(models.HabitTypeGeneral)}
		m.form = newHabitForm(m.habitForm)
		m.state = StateAddHabit
		return m, m.form.Init()

	case habits.ToggleHabitMsg:
		return m, m.toggle(msg.ID)

	case habits.DeleteHabitMsg:
		m.pendingDelete = msg
		m.state = StateConfirmDelete
		return m, nil
	}

	switch m.state {
	case StateAddHabit:
		return m.updateForm(msg)
	case StateConfirmDelete:
		return m.updateConfirmDelete(msg)
	}

	keyMsg, isKey := msg.(tea.KeyMsg)
	if isKey && !m.habitsModel.Filtering() {
		switch {
		case keyMsg.String() == "ctrl+c" || key.Matches(keyMsg, m.keys.Quit):
			m.quitting = true
			return m, tea.Quit
		case key.Matches(keyMsg, m.keys.Tab):
			if m.state == StateToday {
				m.state = StateDashboard
			} else {
				m.state = StateToday
			}
			return m, nil
		case key.Matches(keyMsg, m.keys.Refresh):
			m.status = ""
			return m, m.load()
		case key.Matches(keyMsg, m.keys.Help):
			m.help.ShowAll = !m.help.ShowAll
			return m, nil
		}
	}

	if m.state == StateToday {
		var cmd tea.Cmd
		m.habitsModel, cmd = m.habitsModel.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m Model) updateForm(msg tea.Msg) (tea.Model, tea.Cmd) {
	if keyMsg, ok := msg.(tea.KeyMsg); ok && keyMsg.Type == tea.KeyEsc {
		m.state = StateToday
		return m, nil
	}

	var cmds []tea.Cmd
	form, cmd := m.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		m.form = f
	}
	cmds = append(cmds, cmd)

	switch m.form.State {
	case huh.StateCompleted:
		m.state = StateToday
		cmds = append(cmds, m.create(*m.habitForm))
	case huh.StateAborted:
		m.state = StateToday
	}
	return m, tea.Batch(cmds...)
}

func (m Model) updateConfirmDelete(msg tea.Msg) (tea.Model, tea.Cmd) {
	keyMsg, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}
	switch {
	case key.Matches(keyMsg, m.keys.Confirm):
		m.state = StateToday
		return m, m.remove(m.pendingDelete)
	case key.Matches(keyMsg, m.keys.Cancel):
		m.state = StateToday
		m.pendingDelete = habits.DeleteHabitMsg{}
	}
	return m, nil
}
