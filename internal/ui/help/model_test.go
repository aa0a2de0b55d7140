package help

import (
	"strings"
	"testing"

	"github.com/nhle/dayplanner/internal/keys"
	"github.com/nhle/dayplanner/internal/model"
)

func TestView_ListsBindingsAndPreferences(t *testing.T) {
	m := New(keys.DefaultKeyMap(), model.DefaultPreferences(), 100, 30)
	prefs := model.DefaultPreferences()
	prefs.WorkingHours.StartTime = "08:00"
	m.SetPreferences(prefs)

	view := m.View()
	for _, want := range []string{"Keyboard Shortcuts", "plan day", "complete", "08:00-17:00", "15 minute buffer"} {
		if !strings.Contains(view, want) {
			t.Errorf("View() missing %q", want)
		}
	}
}
