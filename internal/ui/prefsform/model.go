// Package prefsform is the huh form for editing planning preferences.
package prefsform

import (
	"fmt"
	"strconv"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/dayplanner/internal/model"
	"github.com/nhle/dayplanner/internal/theme"
)

// PrefsSavedMsg is dispatched when the form is submitted with valid values.
type PrefsSavedMsg struct {
	Preferences model.Preferences
}

// PrefsCancelMsg is dispatched when the user aborts the form.
type PrefsCancelMsg struct{}

// formBindings holds form field values on the heap so that huh's Value()
// pointers remain valid across Bubble Tea model copies.
type formBindings struct {
	startTime       string
	endTime         string
	bufferTime      string
	defaultDuration string
}

// Model is the Bubble Tea model for the preferences form.
type Model struct {
	form   *huh.Form
	fb     *formBindings
	width  int
	height int
}

// New creates a new preferences form model.
func New(width, height int) Model {
	return Model{
		fb:     &formBindings{},
		width:  width,
		height: height,
	}
}

// Start fills the form with prefs and returns its init command.
func (m *Model) Start(prefs model.Preferences) tea.Cmd {
	m.fb.startTime = prefs.WorkingHours.StartTime
	m.fb.endTime = prefs.WorkingHours.EndTime
	m.fb.bufferTime = strconv.Itoa(prefs.BufferTime)
	m.fb.defaultDuration = strconv.Itoa(prefs.DefaultDuration)
	m.form = m.buildForm()
	return m.form.Init()
}

// Update handles messages for the form.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	if m.form == nil {
		return m, nil
	}

	mdl, cmd := m.form.Update(msg)
	if f, ok := mdl.(*huh.Form); ok {
		m.form = f
	}

	if m.form.State == huh.StateCompleted {
		return m, m.handleSubmit()
	}
	if m.form.State == huh.StateAborted {
		return m, func() tea.Msg { return PrefsCancelMsg{} }
	}

	return m, cmd
}

// View renders the form.
func (m Model) View() string {
	if m.form == nil {
		return ""
	}

	titleStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(theme.ColorWhite).
		MarginBottom(1)

	content := titleStyle.Render("Planning Preferences") + "\n" + m.form.View()

	return lipgloss.NewStyle().
		Padding(1, 2).
		Render(content)
}

// SetSize updates the form dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
}

func (m *Model) buildForm() *huh.Form {
	return huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Working hours start").
				Placeholder("HH:MM").
				Value(&m.fb.startTime).
				Validate(validateClock),
			huh.NewInput().
				Title("Working hours end").
				Placeholder("HH:MM").
				Value(&m.fb.endTime).
				Validate(validateClock),
			huh.NewInput().
				Title("Buffer between tasks").
				Description("Minutes").
				Value(&m.fb.bufferTime).
				Validate(validateMinutes("Buffer")),
			huh.NewInput().
				Title("Default task duration").
				Description("Minutes, used for tasks without a duration").
				Value(&m.fb.defaultDuration).
				Validate(validateMinutes("Default duration")),
		),
	).WithWidth(m.formWidth()).WithHeight(m.formHeight())
}

// handleSubmit converts the bound values into preferences. Field validators
// run per input, so the cross-field start/end check happens here.
func (m Model) handleSubmit() tea.Cmd {
	prefs, err := m.fb.preferences()
	if err != nil {
		m.form.State = huh.StateNormal
		return func() tea.Msg { return err }
	}
	return func() tea.Msg { return PrefsSavedMsg{Preferences: prefs} }
}

func (fb *formBindings) preferences() (model.Preferences, error) {
	buffer, _ := strconv.Atoi(strings.TrimSpace(fb.bufferTime))
	duration, _ := strconv.Atoi(strings.TrimSpace(fb.defaultDuration))

	prefs := model.Preferences{
		WorkingHours: model.WorkingHours{
			StartTime: strings.TrimSpace(fb.startTime),
			EndTime:   strings.TrimSpace(fb.endTime),
		},
		BufferTime:      buffer,
		DefaultDuration: duration,
	}
	if err := prefs.Validate(); err != nil {
		return model.Preferences{}, err
	}
	return prefs, nil
}

func (m Model) formWidth() int {
	w := m.width - 4
	if w < 40 {
		w = 40
	}
	if w > 80 {
		w = 80
	}
	return w
}

func (m Model) formHeight() int {
	h := m.height - 4
	if h < 10 {
		h = 10
	}
	return h
}

func validateClock(s string) error {
	_, _, err := model.ParseClock(s)
	return err
}

func validateMinutes(fieldName string) func(string) error {
	return func(s string) error {
		n, err := strconv.Atoi(strings.TrimSpace(s))
		if err != nil {
			return fmt.Errorf("%s must be a whole number of minutes", fieldName)
		}
		if n < 0 {
			return fmt.Errorf("%s must not be negative", fieldName)
		}
		return nil
	}
}
