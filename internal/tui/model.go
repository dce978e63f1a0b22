package tui

import (
	"context"
	"errors"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"

	"github.com/julianstephens/habitlog/internal/models"
	"github.com/julianstephens/habitlog/internal/service"
	"github.com/julianstephens/habitlog/internal/tui/components/dashboard"
	"github.com/julianstephens/habitlog/internal/tui/components/habits"
)

type SessionState int

const (
	StateToday SessionState = iota
	StateDashboard
	StateAddHabit
	StateConfirmDelete
)

type HabitFormModel struct {
	Name        string
	Description string
	Type        string
}

// dataLoadedMsg carries a fresh dashboard for the owner.
type dataLoadedMsg struct {
	dashboard models.Dashboard
	err       error
}

// actionDoneMsg reports the outcome of a write and triggers a reload.
type actionDoneMsg struct {
	status string
	err    error
}

type Model struct {
	svc            *service.HabitService
	owner          string
	state          SessionState
	keys           KeyMap
	help           help.Model
	habitsModel    habits.Model
	dashboardModel dashboard.Model
	form           *huh.Form
	habitForm      *HabitFormModel
	pendingDelete  habits.DeleteHabitMsg
	status         string
	loaded         bool
	quitting       bool
	width          int
	height         int
}

func NewModel(svc *service.HabitService, owner string) Model {
	return Model{
		svc:            svc,
		owner:          owner,
		state:          StateToday,
		keys:           DefaultKeyMap(),
		help:           help.New(),
		habitsModel:    habits.New(nil, 0, 0),
		dashboardModel: dashboard.New(models.Dashboard{}, 0, 0),
	}
}

func (m Model) Init() tea.Cmd {
	return m.load()
}

// load fetches today's dashboard over the configured default window.
func (m Model) load() tea.Cmd {
	svc, owner := m.svc, m.owner
	return func() tea.Msg {
		ctx := context.Background()
		today, err := svc.Today(ctx)
		if err != nil {
			return dataLoadedMsg{err: err}
		}
		d, err := svc.Dashboard(ctx, owner, today, svc.ResolveWindow(ctx, 0))
		return dataLoadedMsg{dashboard: d, err: err}
	}
}

func (m Model) toggle(habitID string) tea.Cmd {
	svc, owner := m.svc, m.owner
	return func() tea.Msg {
		res, err := svc.ToggleCompletion(context.Background(), owner, habitID, "", nil)
		if err != nil {
			return actionDoneMsg{err: err}
		}
		if res.Log.Completed {
			return actionDoneMsg{status: "Marked done"}
		}
		return actionDoneMsg{status: "Marked not done"}
	}
}

func (m Model) create(form HabitFormModel) tea.Cmd {
	svc, owner := m.svc, m.owner
	return func() tea.Msg {
		habit, err := svc.CreateHabit(context.Background(), owner, service.HabitInput{
			Name:        form.Name,
			Description: form.Description,
			Type:        form.Type,
		})
		if err != nil {
			return actionDoneMsg{err: err}
		}
		return actionDoneMsg{status: "Added " + habit.Name}
	}
}

func (m Model) remove(target habits.DeleteHabitMsg) tea.Cmd {
	svc, owner := m.svc, m.owner
	return func() tea.Msg {
		if err := svc.DeleteHabit(context.Background(), owner, target.ID); err != nil {
			return actionDoneMsg{err: err}
		}
		return actionDoneMsg{status: "Deleted " + target.Name}
	}
}

func newHabitForm(f *HabitFormModel) *huh.Form {
	options := make([]huh.Option[string], len(models.HabitTypes))
	for i, t := range models.HabitTypes {
		options[i] = huh.NewOption(string(t), string(t))
	}

	return huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Name").
				Value(&f.Name).
				Validate(func(s string) error {
					if strings.TrimSpace(s) == "" {
						return errors.New("name is required")
					}
					return nil
				}),
			huh.NewInput().
				Title("Description").
				Value(&f.Description),
			huh.NewSelect[string]().
				Title("Type").
				Options(options...).
				Value(&f.Type),
		),
	)
}

func (m Model) ShortHelp() []key.Binding {
	return []key.Binding{m.keys.Tab, m.keys.Refresh, m.keys.Quit, m.keys.Help}
}

func (m Model) FullHelp() [][]key.Binding {
	global := []key.Binding{m.keys.Tab, m.keys.Refresh, m.keys.Quit, m.keys.Help}
	if m.state != StateToday {
		return [][]key.Binding{global}
	}
	hk := habits.DefaultKeyMap()
	return [][]key.Binding{global, {hk.Toggle, hk.Add, hk.Delete}}
}
