// Package agenda is the terminal view of today's plan.
package agenda

import (
	"context"
	"fmt"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/dayplanner/internal/dateonly"
	"github.com/nhle/dayplanner/internal/keys"
	"github.com/nhle/dayplanner/internal/model"
	"github.com/nhle/dayplanner/internal/planner"
	"github.com/nhle/dayplanner/internal/tasks"
	"github.com/nhle/dayplanner/internal/theme"
)

// TasksLoadedMsg is sent when today's tasks have been loaded.
type TasksLoadedMsg struct {
	Tasks []model.Task
	Err   error
}

// PlannedMsg is sent when a planning run started from the agenda finishes.
type PlannedMsg struct {
	Result planner.Result
}

// CompletedMsg is sent when a task was marked done from the agenda.
type CompletedMsg struct {
	Task model.Task
	Next *model.Task
	Err  error
}

// Source loads the tasks shown for a day.
type Source interface {
	GetPlanningCandidates(ctx context.Context, today string) ([]model.Task, error)
}

// DayPlanner plans the current day.
type DayPlanner interface {
	PlanDay(ctx context.Context, prefs model.Preferences) planner.Result
}

// Completer marks tasks done.
type Completer interface {
	Complete(ctx context.Context, id string) (tasks.UpdateResult, error)
}

// Deps are the services the agenda calls.
type Deps struct {
	Source    Source
	Planner   DayPlanner
	Completer Completer

	// Today returns the local calendar date shown. Defaults to dateonly.Today.
	Today func() string
}

// Model is the agenda list view component.
type Model struct {
	list    list.Model
	deps    Deps
	keys    *keys.KeyMap
	prefs   model.Preferences
	message string
	err     error
	width   int
	height  int
}

// New creates an agenda model.
func New(deps Deps, prefs model.Preferences, k *keys.KeyMap, width, height int) Model {
	if deps.Today == nil {
		deps.Today = dateonly.Today
	}

	l := list.New([]list.Item{}, ItemDelegate{}, width, height-2)
	l.Title = "Today"
	l.SetShowStatusBar(false)
	l.SetShowHelp(false)
	l.SetFilteringEnabled(false)
	l.Styles.Title = theme.HeaderStyle

	return Model{
		list:   l,
		deps:   deps,
		keys:   k,
		prefs:  prefs,
		width:  width,
		height: height,
	}
}

// Init returns a command that loads today's tasks.
func (m Model) Init() tea.Cmd {
	return m.LoadTasks()
}

// Update handles messages for the agenda view.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case TasksLoadedMsg:
		m.err = msg.Err
		if msg.Err != nil {
			return m, nil
		}
		sortForAgenda(msg.Tasks)
		items := make([]list.Item, len(msg.Tasks))
		for i, t := range msg.Tasks {
			items[i] = TaskItem{Task: t}
		}
		return m, m.list.SetItems(items)

	case PlannedMsg:
		m.message = msg.Result.Message
		m.err = nil
		return m, m.LoadTasks()

	case CompletedMsg:
		if msg.Err != nil {
			m.err = msg.Err
			return m, nil
		}
		m.err = nil
		m.message = fmt.Sprintf("Completed %s", msg.Task.Name)
		if msg.Next != nil {
			m.message += fmt.Sprintf("; next occurrence due %s", msg.Next.DueDate)
		}
		return m, m.LoadTasks()

	case tea.KeyMsg:
		return m.handleKeys(msg)
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

func (m Model) handleKeys(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Plan):
		m.message = "Planning..."
		return m, m.planDay()

	case key.Matches(msg, m.keys.Complete):
		item, ok := m.list.SelectedItem().(TaskItem)
		if !ok {
			return m, nil
		}
		return m, m.complete(item.Task)

	case key.Matches(msg, m.keys.Reload):
		return m, m.LoadTasks()
	}

	// Delegate to the list for navigation keys.
	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

// View renders the agenda.
func (m Model) View() string {
	var body string
	if len(m.list.Items()) == 0 {
		body = lipgloss.NewStyle().
			Width(m.width).
			Height(m.height-2).
			Align(lipgloss.Center, lipgloss.Center).
			Foreground(theme.ColorGray).
			Render("Nothing due or planned today.\nPress p to plan the day.")
	} else {
		body = m.list.View()
	}

	footer := theme.MutedStyle.Render(m.message)
	if m.err != nil {
		footer = theme.ErrorStyle.Render("Error: " + m.err.Error())
	}
	return lipgloss.JoinVertical(lipgloss.Left, body, footer)
}

// LoadTasks returns a tea.Cmd that loads today's tasks.
func (m Model) LoadTasks() tea.Cmd {
	src := m.deps.Source
	today := m.deps.Today()
	return func() tea.Msg {
		ts, err := src.GetPlanningCandidates(context.Background(), today)
		return TasksLoadedMsg{Tasks: ts, Err: err}
	}
}

func (m Model) planDay() tea.Cmd {
	p := m.deps.Planner
	prefs := m.prefs
	return func() tea.Msg {
		return PlannedMsg{Result: p.PlanDay(context.Background(), prefs)}
	}
}

func (m Model) complete(t model.Task) tea.Cmd {
	c := m.deps.Completer
	return func() tea.Msg {
		res, err := c.Complete(context.Background(), t.ID)
		if err != nil {
			return CompletedMsg{Task: t, Err: err}
		}
		return CompletedMsg{Task: res.Task, Next: res.Next}
	}
}

// SetPreferences replaces the preferences used when planning.
func (m *Model) SetPreferences(prefs model.Preferences) {
	m.prefs = prefs
}

// SetMessage replaces the footer message.
func (m *Model) SetMessage(msg string) {
	m.message = msg
}

// Items returns the tasks currently listed.
func (m Model) Items() []model.Task {
	items := m.list.Items()
	out := make([]model.Task, 0, len(items))
	for _, it := range items {
		if ti, ok := it.(TaskItem); ok {
			out = append(out, ti.Task)
		}
	}
	return out
}

// SetSize updates the list dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.list.SetSize(width, height-2)
}
