// Package projectmgr is the project screen: every project with the open
// and recurring work it holds, plus create and delete.
package projectmgr

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/dayplanner/internal/keys"
	"github.com/nhle/dayplanner/internal/model"
	"github.com/nhle/dayplanner/internal/theme"
)

// ProjectListCloseMsg signals the parent to close the project view.
type ProjectListCloseMsg struct{}

// ProjectChangedMsg signals that projects were created or deleted.
type ProjectChangedMsg struct{}

// Store is the project storage the view needs.
type Store interface {
	CreateProject(ctx context.Context, project model.Project) (string, error)
	GetProjectSummaries(ctx context.Context) ([]model.ProjectSummary, error)
	DeleteProject(ctx context.Context, id string) error
}

const defaultColor = "#5B9BD5"

var hexColor = regexp.MustCompile(`^#[0-9A-Fa-f]{6}$`)

// draft holds the values bound to the open form.
type draft struct {
	name      string
	color     string
	confirmed bool
}

type summariesMsg struct {
	rows []model.ProjectSummary
	err  error
}

// changeMsg reports the outcome of a create or delete.
type changeMsg struct {
	done string
	err  error
}

// Model is the Bubble Tea model for the project screen. While form is set
// it owns the keyboard and submit runs when it completes.
type Model struct {
	store  Store
	keys   *keys.KeyMap
	rows   []model.ProjectSummary
	cursor int

	form   *huh.Form
	draft  *draft
	submit func(*draft) tea.Cmd

	status        string
	width, height int
}

// New creates the project screen. Call Init to load projects.
func New(s Store, k *keys.KeyMap, width, height int) Model {
	return Model{store: s, keys: k, width: width, height: height}
}

// Init loads project summaries from the store.
func (m Model) Init() tea.Cmd {
	return m.load()
}

// Update handles messages.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case summariesMsg:
		if msg.err != nil {
			m.status = fmt.Sprintf("Error: %v", msg.err)
			return m, nil
		}
		m.rows = msg.rows
		if m.cursor >= len(m.rows) {
			m.cursor = max(len(m.rows)-1, 0)
		}
		return m, nil

	case changeMsg:
		if msg.err != nil {
			m.status = fmt.Sprintf("Error: %v", msg.err)
			return m, nil
		}
		m.status = msg.done
		return m, tea.Batch(m.load(), func() tea.Msg { return ProjectChangedMsg{} })
	}

	if m.form != nil {
		return m.updateForm(msg)
	}
	if k, ok := msg.(tea.KeyMsg); ok {
		return m.handleKey(k)
	}
	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Back):
		return m, func() tea.Msg { return ProjectListCloseMsg{} }

	case key.Matches(msg, m.keys.Down):
		if n := len(m.rows); n > 0 {
			m.cursor = (m.cursor + 1) % n
		}

	case key.Matches(msg, m.keys.Up):
		if n := len(m.rows); n > 0 {
			m.cursor = (m.cursor + n - 1) % n
		}

	case msg.String() == "n":
		m.draft = &draft{color: defaultColor}
		m.form = m.createForm()
		m.submit = m.create
		return m, m.form.Init()

	case msg.String() == "d":
		target, ok := m.Selected()
		if !ok {
			return m, nil
		}
		m.draft = &draft{}
		m.form = m.deleteForm(target)
		m.submit = func(d *draft) tea.Cmd {
			if !d.confirmed {
				return nil
			}
			return m.remove(target)
		}
		return m, m.form.Init()
	}
	return m, nil
}

func (m Model) updateForm(msg tea.Msg) (Model, tea.Cmd) {
	next, cmd := m.form.Update(msg)
	if f, ok := next.(*huh.Form); ok {
		m.form = f
	}
	switch m.form.State {
	case huh.StateCompleted:
		submit, d := m.submit, m.draft
		m.form, m.submit = nil, nil
		return m, submit(d)
	case huh.StateAborted:
		m.form, m.submit = nil, nil
		return m, nil
	}
	return m, cmd
}

// Selected returns the project under the cursor.
func (m Model) Selected() (model.ProjectSummary, bool) {
	if m.cursor < 0 || m.cursor >= len(m.rows) {
		return model.ProjectSummary{}, false
	}
	return m.rows[m.cursor], true
}

// InForm reports whether a form has input focus.
func (m Model) InForm() bool {
	return m.form != nil
}

// SetSize updates dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
}

func (m Model) createForm() *huh.Form {
	return m.sized(huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Name").
				Placeholder("Project name").
				Value(&m.draft.name).
				Validate(m.validateName),
			huh.NewInput().
				Title("Color").
				Description("Hex color such as " + defaultColor + ", or empty").
				Value(&m.draft.color).
				Validate(validateColor),
		),
	))
}

func (m Model) deleteForm(p model.ProjectSummary) *huh.Form {
	return m.sized(huh.NewForm(
		huh.NewGroup(
			huh.NewConfirm().
				Title(fmt.Sprintf("Delete project %q?", p.Name)).
				Description(deleteWarning(p)).
				Affirmative("Yes, delete").
				Negative("Cancel").
				Value(&m.draft.confirmed),
		),
	))
}

func (m Model) sized(f *huh.Form) *huh.Form {
	w := min(max(m.width-4, 40), 100)
	h := max(m.height-4, 10)
	return f.WithWidth(w).WithHeight(h)
}

// validateName rejects blank names and names already taken, ignoring case.
func (m Model) validateName(s string) error {
	name := strings.TrimSpace(s)
	if name == "" {
		return fmt.Errorf("name is required")
	}
	for _, p := range m.rows {
		if strings.EqualFold(p.Name, name) {
			return fmt.Errorf("project %q already exists", p.Name)
		}
	}
	return nil
}

func validateColor(s string) error {
	if s = strings.TrimSpace(s); s != "" && !hexColor.MatchString(s) {
		return fmt.Errorf("color must look like %s", defaultColor)
	}
	return nil
}

// deleteWarning says what deleting p takes with it.
func deleteWarning(p model.ProjectSummary) string {
	open := countOf(p.OpenTasks, "open task")
	series := countOf(p.RecurringRules, "recurring series")
	switch {
	case p.OpenTasks == 0 && p.RecurringRules == 0:
		return "It has no open tasks."
	case p.RecurringRules == 0:
		return fmt.Sprintf("Deletes %s.", open)
	case p.OpenTasks == 0:
		return fmt.Sprintf("Ends %s.", series)
	}
	return fmt.Sprintf("Deletes %s and ends %s.", open, series)
}

func countOf(n int, noun string) string {
	if n != 1 && !strings.HasSuffix(noun, "series") {
		noun += "s"
	}
	return fmt.Sprintf("%d %s", n, noun)
}

// View renders the project screen.
func (m Model) View() string {
	if m.form != nil {
		return lipgloss.NewStyle().Padding(1, 2).Render(m.form.View())
	}

	var b strings.Builder
	b.WriteString(theme.HeaderStyle.Render("Projects"))
	b.WriteString("\n\n")

	if len(m.rows) == 0 {
		b.WriteString(theme.MutedStyle.Italic(true).Render("No projects yet. Press 'n' to create one."))
	}
	var open, recurring int
	for i, p := range m.rows {
		open += p.OpenTasks
		recurring += p.RecurringRules
		row := fmt.Sprintf("%s %-24s %s", swatch(p.Color), p.Name,
			theme.MutedStyle.Render(fmt.Sprintf("%d open | %d recurring", p.OpenTasks, p.RecurringRules)))
		if i == m.cursor {
			b.WriteString(theme.SelectedItemStyle.Render(row))
		} else {
			b.WriteString(theme.ListItemStyle.Render(row))
		}
		b.WriteString("\n")
	}
	if len(m.rows) > 0 {
		b.WriteString("\n")
		b.WriteString(theme.MutedStyle.Render(fmt.Sprintf("%s, %s, %s",
			countOf(len(m.rows), "project"), countOf(open, "open task"), countOf(recurring, "recurring series"))))
	}

	if m.status != "" {
		style := theme.HelpStyle
		if strings.HasPrefix(m.status, "Error:") {
			style = theme.ErrorStyle
		}
		b.WriteString("\n")
		b.WriteString(style.Render(m.status))
	}

	b.WriteString("\n\n")
	b.WriteString(theme.HelpStyle.Render("n new | d delete | esc back"))

	return lipgloss.NewStyle().Padding(1, 2).Width(m.width).Height(m.height).Render(b.String())
}

func swatch(color string) string {
	if color == "" {
		return " "
	}
	return lipgloss.NewStyle().Foreground(lipgloss.Color(color)).Render("■")
}

func (m Model) load() tea.Cmd {
	s := m.store
	return func() tea.Msg {
		rows, err := s.GetProjectSummaries(context.Background())
		return summariesMsg{rows: rows, err: err}
	}
}

func (m Model) create(d *draft) tea.Cmd {
	s := m.store
	p := model.Project{
		Name:  strings.TrimSpace(d.name),
		Color: strings.TrimSpace(d.color),
	}
	return func() tea.Msg {
		_, err := s.CreateProject(context.Background(), p)
		return changeMsg{done: fmt.Sprintf("Created %q", p.Name), err: err}
	}
}

func (m Model) remove(p model.ProjectSummary) tea.Cmd {
	s := m.store
	return func() tea.Msg {
		err := s.DeleteProject(context.Background(), p.ID)
		return changeMsg{done: fmt.Sprintf("Deleted %q", p.Name), err: err}
	}
}
