package projectmgr

import (
	"context"
	"errors"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/nhle/dayplanner/internal/keys"
	"github.com/nhle/dayplanner/internal/model"
)

type fakeStore struct {
	createFn func(ctx context.Context, p model.Project) (string, error)
	listFn   func(ctx context.Context) ([]model.ProjectSummary, error)
	deleteFn func(ctx context.Context, id string) error
}

func (f *fakeStore) CreateProject(ctx context.Context, p model.Project) (string, error) {
	return f.createFn(ctx, p)
}

func (f *fakeStore) GetProjectSummaries(ctx context.Context) ([]model.ProjectSummary, error) {
	return f.listFn(ctx)
}

func (f *fakeStore) DeleteProject(ctx context.Context, id string) error {
	return f.deleteFn(ctx, id)
}

func summary(id, name string, open, recurring int) model.ProjectSummary {
	return model.ProjectSummary{
		Project:        model.Project{ID: id, Name: name},
		OpenTasks:      open,
		RecurringRules: recurring,
	}
}

func listing(rows ...model.ProjectSummary) func(context.Context) ([]model.ProjectSummary, error) {
	return func(context.Context) ([]model.ProjectSummary, error) { return rows, nil }
}

func loaded(t *testing.T, s *fakeStore) Model {
	t.Helper()
	m := New(s, keys.DefaultKeyMap(), 80, 24)
	m, _ = m.Update(m.Init()())
	return m
}

func press(m Model, s string) (Model, tea.Cmd) {
	return m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)})
}

func TestView_ListsCounts(t *testing.T) {
	s := &fakeStore{listFn: listing(summary("p1", "Home", 3, 1), summary("p2", "Work", 0, 0))}
	m := loaded(t, s)

	view := m.View()
	for _, want := range []string{
		"Projects", "Home", "3 open | 1 recurring", "Work", "0 open | 0 recurring",
		"2 projects, 3 open tasks, 1 recurring series",
	} {
		if !strings.Contains(view, want) {
			t.Errorf("View() missing %q:\n%s", want, view)
		}
	}
}

func TestView_Empty(t *testing.T) {
	m := loaded(t, &fakeStore{listFn: listing()})
	if !strings.Contains(m.View(), "No projects yet") {
		t.Errorf("View() missing empty state:\n%s", m.View())
	}
}

func TestUpdate_LoadError(t *testing.T) {
	s := &fakeStore{listFn: func(context.Context) ([]model.ProjectSummary, error) {
		return nil, errors.New("locked")
	}}
	m := loaded(t, s)
	if !strings.Contains(m.View(), "Error: locked") {
		t.Errorf("View() missing error:\n%s", m.View())
	}
}

func TestUpdate_NavigationWraps(t *testing.T) {
	m := loaded(t, &fakeStore{listFn: listing(summary("a", "A", 0, 0), summary("b", "B", 0, 0))})

	m, _ = press(m, "k")
	if p, _ := m.Selected(); p.ID != "b" {
		t.Errorf("selected after up = %q, want b", p.ID)
	}
	m, _ = press(m, "j")
	if p, _ := m.Selected(); p.ID != "a" {
		t.Errorf("selected after down = %q, want a", p.ID)
	}
}

func TestUpdate_ReloadClampsCursor(t *testing.T) {
	m := loaded(t, &fakeStore{listFn: listing(summary("a", "A", 0, 0), summary("b", "B", 0, 0))})
	m, _ = press(m, "j")

	m, _ = m.Update(summariesMsg{rows: []model.ProjectSummary{summary("a", "A", 0, 0)}})
	if p, ok := m.Selected(); !ok || p.ID != "a" {
		t.Errorf("Selected() = %+v, %v after shrink", p, ok)
	}
}

func TestDeleteWarning(t *testing.T) {
	tests := []struct {
		open, recurring int
		want            string
	}{
		{0, 0, "It has no open tasks."},
		{1, 0, "Deletes 1 open task."},
		{4, 0, "Deletes 4 open tasks."},
		{0, 2, "Ends 2 recurring series."},
		{3, 1, "Deletes 3 open tasks and ends 1 recurring series."},
	}
	for _, tt := range tests {
		if got := deleteWarning(summary("p", "P", tt.open, tt.recurring)); got != tt.want {
			t.Errorf("deleteWarning(%d, %d) = %q, want %q", tt.open, tt.recurring, got, tt.want)
		}
	}
}

func TestUpdate_DeleteOpensWarningForm(t *testing.T) {
	m := loaded(t, &fakeStore{listFn: listing(summary("p1", "Gym", 2, 1))})

	m, _ = press(m, "d")
	if !m.InForm() {
		t.Fatal("d did not open the confirm form")
	}
	view := m.View()
	for _, want := range []string{"Gym", "2 open tasks", "1 recurring series"} {
		if !strings.Contains(view, want) {
			t.Errorf("confirm view missing %q:\n%s", want, view)
		}
	}
}

func TestUpdate_DeleteWithNoProjects(t *testing.T) {
	m := loaded(t, &fakeStore{listFn: listing()})
	m, cmd := press(m, "d")
	if m.InForm() || cmd != nil {
		t.Error("d with no projects opened a form")
	}
}

func TestSubmitDelete(t *testing.T) {
	var deleted string
	s := &fakeStore{
		listFn: listing(summary("p1", "Gym", 0, 0), summary("p2", "Home", 0, 0)),
		deleteFn: func(_ context.Context, id string) error {
			deleted = id
			return nil
		},
	}
	m := loaded(t, s)
	m, _ = press(m, "j")
	m, _ = press(m, "d")
	submit := m.submit
	m.form, m.submit = nil, nil

	if cmd := submit(&draft{confirmed: false}); cmd != nil {
		t.Error("declined confirm returned a command")
	}

	m, cmd := m.Update(submit(&draft{confirmed: true})())
	if deleted != "p2" {
		t.Errorf("deleted = %q, want p2", deleted)
	}
	if cmd == nil || !strings.Contains(m.View(), `Deleted "Home"`) {
		t.Errorf("after delete view = %s", m.View())
	}
}

func TestCreate(t *testing.T) {
	var got model.Project
	s := &fakeStore{
		listFn: listing(),
		createFn: func(_ context.Context, p model.Project) (string, error) {
			got = p
			return "new-id", nil
		},
	}
	m := loaded(t, s)

	msg := m.create(&draft{name: "  Garden ", color: " #00FF00"})()
	if c, ok := msg.(changeMsg); !ok || c.err != nil {
		t.Fatalf("create() msg = %+v", msg)
	}
	if got.Name != "Garden" || got.Color != "#00FF00" {
		t.Errorf("created project = %+v", got)
	}
}

func TestCreateErrorKeepsList(t *testing.T) {
	s := &fakeStore{
		listFn: listing(),
		createFn: func(context.Context, model.Project) (string, error) {
			return "", errors.New("UNIQUE constraint failed")
		},
	}
	m := loaded(t, s)

	m, cmd := m.Update(m.create(&draft{name: "Home"})())
	if cmd != nil {
		t.Error("failed create triggered a reload")
	}
	if !strings.Contains(m.View(), "Error: UNIQUE constraint failed") {
		t.Errorf("View() missing error:\n%s", m.View())
	}
}

func TestUpdate_NewOpensForm(t *testing.T) {
	m := loaded(t, &fakeStore{listFn: listing()})

	m, _ = press(m, "n")
	if !m.InForm() {
		t.Fatal("n did not open the form")
	}
	if m.draft.color != defaultColor {
		t.Errorf("draft color = %q, want %q", m.draft.color, defaultColor)
	}
}

func TestUpdate_AbortClosesForm(t *testing.T) {
	m := loaded(t, &fakeStore{listFn: listing()})
	m, _ = press(m, "n")

	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyCtrlC})
	if m.InForm() {
		t.Error("aborted form still open")
	}
}

func TestValidateName(t *testing.T) {
	m := loaded(t, &fakeStore{listFn: listing(summary("p1", "Home", 0, 0))})

	for _, name := range []string{"", "   ", "home", " HOME "} {
		if m.validateName(name) == nil {
			t.Errorf("validateName(%q) = nil, want error", name)
		}
	}
	if err := m.validateName("Work"); err != nil {
		t.Errorf("validateName(Work) = %v", err)
	}
}

func TestValidateColor(t *testing.T) {
	for _, c := range []string{"", "#5B9BD5", "#abcdef"} {
		if err := validateColor(c); err != nil {
			t.Errorf("validateColor(%q) = %v", c, err)
		}
	}
	for _, c := range []string{"blue", "#12345", "5B9BD5"} {
		if validateColor(c) == nil {
			t.Errorf("validateColor(%q) = nil, want error", c)
		}
	}
}

func TestUpdate_BackCloses(t *testing.T) {
	m := loaded(t, &fakeStore{listFn: listing()})

	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEsc})
	if cmd == nil {
		t.Fatal("esc returned nil cmd")
	}
	if _, ok := cmd().(ProjectListCloseMsg); !ok {
		t.Error("esc did not close the project view")
	}
}
