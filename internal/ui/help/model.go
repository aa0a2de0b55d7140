package help

import (
	"fmt"

	"github.com/charmbracelet/bubbles/help"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/dayplanner/internal/keys"
	"github.com/nhle/dayplanner/internal/model"
	"github.com/nhle/dayplanner/internal/theme"
)

// Model is the help overlay view.
type Model struct {
	keys   *keys.KeyMap
	help   help.Model
	prefs  model.Preferences
	width  int
	height int
}

// New creates a new help view model.
func New(keys *keys.KeyMap, prefs model.Preferences, width, height int) Model {
	h := help.New()
	h.Width = width
	return Model{
		keys:   keys,
		help:   h,
		prefs:  prefs,
		width:  width,
		height: height,
	}
}

// Init returns the initial command.
func (m Model) Init() tea.Cmd {
	return nil
}

// Update handles messages for the help view.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	return m, nil
}

// View renders the help overlay.
func (m Model) View() string {
	titleStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(theme.ColorWhite).
		MarginBottom(1)

	title := titleStyle.Render("Keyboard Shortcuts")

	m.help.Width = m.width - 4
	m.help.ShowAll = true
	helpText := m.help.View(m.keys)

	planning := theme.MutedStyle.MarginTop(1).Render(fmt.Sprintf(
		"Planning fills %s-%s with a %d minute buffer before each task.\n"+
			"Tasks without a duration take %d minutes.",
		m.prefs.WorkingHours.StartTime,
		m.prefs.WorkingHours.EndTime,
		m.prefs.BufferTime,
		m.prefs.DefaultDuration,
	))

	content := lipgloss.JoinVertical(lipgloss.Left, title, helpText, planning)

	return theme.PanelStyle.
		Width(m.width - 4).
		Height(m.height - 4).
		Render(content)
}

// SetPreferences updates the planning summary shown below the shortcuts.
func (m *Model) SetPreferences(prefs model.Preferences) {
	m.prefs = prefs
}

// SetSize updates the help view dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.help.Width = width - 4
}
