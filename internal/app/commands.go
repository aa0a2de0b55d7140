package app

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/nhle/dayplanner/internal/model"
	"github.com/nhle/dayplanner/internal/ui/projectmgr"
)

// Store is the slice of persistence the root model reads directly.
type Store interface {
	projectmgr.Store
	GetPlanningCandidates(ctx context.Context, today string) ([]model.Task, error)
	GetUnreadNotifications(ctx context.Context) ([]model.Notification, error)
}

// unreadCountMsg carries the number of unread notifications to the UI.
type unreadCountMsg struct {
	count int
}

// openPrefsMsg switches to the preferences form once the program starts.
type openPrefsMsg struct{}

// prefsSavedResultMsg is sent after preferences are persisted.
type prefsSavedResultMsg struct {
	prefs model.Preferences
	err   error
}

// fetchUnreadCount returns a tea.Cmd that queries the store for the
// number of unread notifications.
func (m Model) fetchUnreadCount() tea.Cmd {
	s := m.deps.Tasks
	log := m.log
	return func() tea.Msg {
		notifications, err := s.GetUnreadNotifications(context.Background())
		if err != nil {
			log.Warn("loading notifications failed", "error", err)
			return unreadCountMsg{count: 0}
		}
		return unreadCountMsg{count: len(notifications)}
	}
}

// savePrefs persists prefs through the configured save function.
func (m Model) savePrefs(prefs model.Preferences) tea.Cmd {
	save := m.deps.SavePreferences
	return func() tea.Msg {
		if save == nil {
			return prefsSavedResultMsg{prefs: prefs}
		}
		return prefsSavedResultMsg{prefs: prefs, err: save(prefs)}
	}
}
