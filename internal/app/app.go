package app

import (
	"fmt"
	"log/slog"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/nhle/dayplanner/internal/autoplan"
	"github.com/nhle/dayplanner/internal/dateonly"
	"github.com/nhle/dayplanner/internal/keys"
	"github.com/nhle/dayplanner/internal/logging"
	"github.com/nhle/dayplanner/internal/model"
	"github.com/nhle/dayplanner/internal/ui"
	"github.com/nhle/dayplanner/internal/ui/agenda"
	helpview "github.com/nhle/dayplanner/internal/ui/help"
	"github.com/nhle/dayplanner/internal/ui/prefsform"
	"github.com/nhle/dayplanner/internal/ui/projectmgr"
)

// ViewState represents the current active view in the application.
type ViewState int

const (
	ViewAgenda ViewState = iota
	ViewPrefs
	ViewHelp
	ViewProjects
)

// Deps are the services the terminal UI drives.
type Deps struct {
	Tasks     Store
	Planner   agenda.DayPlanner
	Completer agenda.Completer

	// Runner is the background auto-planner. Nil when auto-planning is off.
	Runner *autoplan.Runner

	Preferences model.Preferences

	// SavePreferences persists edited preferences.
	SavePreferences func(model.Preferences) error

	Log *slog.Logger
}

// Option configures the root model.
type Option func(*Model)

// WithPrefsView opens the preferences form on start.
func WithPrefsView() Option {
	return func(m *Model) { m.startInPrefs = true }
}

// Model is the root Bubble Tea model that manages view routing and layout.
type Model struct {
	currentView  ViewState
	previousView ViewState
	frame        ui.Frame
	deps         Deps
	log          *slog.Logger
	keys         *keys.KeyMap
	agenda       agenda.Model
	prefsForm    prefsform.Model
	helpView     helpview.Model
	projectView  projectmgr.Model
	prefs        model.Preferences
	ready        bool
	startInPrefs bool
	unreadCount  int
	errMessage   string
}

// New creates the root application model.
func New(deps Deps, opts ...Option) Model {
	k := keys.DefaultKeyMap()
	m := Model{
		currentView: ViewAgenda,
		deps:        deps,
		log:         logging.OrDiscard(deps.Log),
		keys:        k,
		prefs:       deps.Preferences,
		agenda: agenda.New(agenda.Deps{
			Source:    deps.Tasks,
			Planner:   deps.Planner,
			Completer: deps.Completer,
		}, deps.Preferences, k, 80, 22),
		prefsForm:   prefsform.New(80, 22),
		helpView:    helpview.New(k, deps.Preferences, 80, 22),
		projectView: projectmgr.New(deps.Tasks, k, 80, 22),
	}
	for _, opt := range opts {
		opt(&m)
	}
	return m
}

// Init loads the agenda and unread count, and subscribes to auto-plan runs.
func (m Model) Init() tea.Cmd {
	cmds := []tea.Cmd{m.agenda.Init(), m.fetchUnreadCount()}
	if m.deps.Runner != nil {
		cmds = append(cmds, m.deps.Runner.WaitForRun())
	}
	if m.startInPrefs {
		cmds = append(cmds, func() tea.Msg { return openPrefsMsg{} })
	}
	return tea.Batch(cmds...)
}

// Update handles messages and dispatches to the active view.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.frame = ui.NewFrame(msg.Width, msg.Height)
		m.ready = true
		contentWidth, contentHeight := m.frame.Body()
		m.agenda.SetSize(contentWidth, contentHeight)
		m.prefsForm.SetSize(contentWidth, contentHeight)
		m.helpView.SetSize(contentWidth, contentHeight)
		m.projectView.SetSize(contentWidth, contentHeight)
		// Forward to active view so huh forms can calculate their layout.
		return m.updateActiveView(msg)

	case openPrefsMsg:
		return m, m.openPrefs()

	case autoplan.RunDoneMsg:
		// A scheduled run changed today's plan; reload and keep listening.
		m.agenda.SetMessage(msg.Result.Message)
		cmds := []tea.Cmd{m.agenda.LoadTasks(), m.fetchUnreadCount()}
		if m.deps.Runner != nil {
			cmds = append(cmds, m.deps.Runner.WaitForRun())
		}
		return m, tea.Batch(cmds...)

	case agenda.PlannedMsg, agenda.CompletedMsg:
		var cmd tea.Cmd
		m.agenda, cmd = m.agenda.Update(msg)
		return m, tea.Batch(cmd, m.fetchUnreadCount())

	case unreadCountMsg:
		m.unreadCount = msg.count
		return m, nil

	case prefsform.PrefsSavedMsg:
		m.currentView = ViewAgenda
		return m, m.savePrefs(msg.Preferences)

	case prefsform.PrefsCancelMsg:
		m.currentView = ViewAgenda
		return m, nil

	case projectmgr.ProjectListCloseMsg:
		m.currentView = ViewAgenda
		return m, nil

	case projectmgr.ProjectChangedMsg:
		return m, m.agenda.LoadTasks()

	case prefsSavedResultMsg:
		if msg.err != nil {
			m.errMessage = fmt.Sprintf("Saving preferences failed: %v", msg.err)
			return m, nil
		}
		m.errMessage = ""
		m.applyPrefs(msg.prefs)
		m.agenda.SetMessage("Preferences saved")
		return m, nil

	case error:
		m.errMessage = msg.Error()
		return m, nil

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return m, tea.Quit
		}

		if m.currentView == ViewPrefs {
			if msg.String() == "esc" {
				m.currentView = ViewAgenda
				return m, nil
			}
			break
		}
		if m.currentView == ViewProjects && m.projectView.InForm() {
			break
		}

		switch {
		case key.Matches(msg, m.keys.Quit):
			return m, tea.Quit

		case key.Matches(msg, m.keys.Help):
			if m.currentView == ViewHelp {
				m.currentView = m.previousView
				return m, nil
			}
			m.previousView = m.currentView
			m.currentView = ViewHelp
			return m, nil

		case key.Matches(msg, m.keys.Prefs):
			if m.currentView == ViewAgenda {
				return m, m.openPrefs()
			}

		case key.Matches(msg, m.keys.Projects):
			if m.currentView == ViewAgenda {
				m.previousView = m.currentView
				m.currentView = ViewProjects
				return m, m.projectView.Init()
			}

		case msg.String() == "esc":
			if m.currentView == ViewHelp {
				m.currentView = m.previousView
				return m, nil
			}
		}
	}

	// Delegate to active sub-view
	return m.updateActiveView(msg)
}

func (m *Model) openPrefs() tea.Cmd {
	m.previousView = m.currentView
	m.currentView = ViewPrefs
	return m.prefsForm.Start(m.prefs)
}

func (m *Model) applyPrefs(prefs model.Preferences) {
	m.prefs = prefs
	m.agenda.SetPreferences(prefs)
	m.helpView.SetPreferences(prefs)
	if m.deps.Runner != nil {
		m.deps.Runner.SetPreferences(prefs)
	}
}

// updateActiveView dispatches the message to the currently active view.
func (m Model) updateActiveView(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch m.currentView {
	case ViewAgenda:
		m.agenda, cmd = m.agenda.Update(msg)
	case ViewPrefs:
		m.prefsForm, cmd = m.prefsForm.Update(msg)
	case ViewHelp:
		m.helpView, cmd = m.helpView.Update(msg)
	case ViewProjects:
		m.projectView, cmd = m.projectView.Update(msg)
	}

	return m, cmd
}

// View renders the active view inside the screen frame.
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}

	return m.frame.Render(m.header(), m.renderContent(), m.keyHints())
}

// renderContent returns the rendered string for the current active view.
func (m Model) renderContent() string {
	switch m.currentView {
	case ViewAgenda:
		return m.agenda.View()
	case ViewPrefs:
		return m.prefsForm.View()
	case ViewHelp:
		return m.helpView.View()
	case ViewProjects:
		return m.projectView.View()
	default:
		return ""
	}
}

func (m Model) header() ui.Header {
	h := ui.Header{Day: dateonly.Today(), Unread: m.unreadCount}
	if m.deps.Runner != nil {
		st := m.deps.Runner.Status()
		h.Plan = &st
	}
	return h
}

// keyHints returns keyboard shortcut hints for the status bar.
func (m Model) keyHints() string {
	if m.errMessage != "" {
		return m.errMessage
	}

	switch m.currentView {
	case ViewHelp:
		return "? close help | esc back"
	case ViewPrefs:
		return "enter next | esc cancel"
	case ViewProjects:
		return "n new | d delete | esc back"
	default:
		return "q quit | ? help | p plan | x complete | r reload | e preferences | P projects"
	}
}

// CurrentView reports the active view.
func (m Model) CurrentView() ViewState {
	return m.currentView
}

// Preferences returns the preferences currently in effect.
func (m Model) Preferences() model.Preferences {
	return m.prefs
}
