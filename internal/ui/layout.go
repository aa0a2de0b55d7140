package ui

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/dayplanner/internal/autoplan"
	"github.com/nhle/dayplanner/internal/dateonly"
	"github.com/nhle/dayplanner/internal/theme"
)

// Frame is the screen chrome around the active view: a one-line header
// and a one-line hint bar.
type Frame struct {
	Width  int
	Height int
}

// NewFrame creates a Frame for a terminal of the given size.
func NewFrame(width, height int) Frame {
	return Frame{Width: width, Height: height}
}

// Body returns the size left for the active view.
func (f Frame) Body() (width, height int) {
	return f.Width, max(f.Height-2, 0)
}

// Render stacks the header, the active view and the hint bar.
func (f Frame) Render(h Header, body, hints string) string {
	return lipgloss.JoinVertical(lipgloss.Left,
		bar(theme.HeaderStyle, h.Title(), h.PlanStatus(), f.Width),
		body,
		bar(theme.StatusBarStyle, hints, "", f.Width),
	)
}

// Header is what the top bar reports: the planning day and the state of
// the background planner. A nil Plan means auto-planning is off.
type Header struct {
	Day    string
	Plan   *autoplan.Status
	Unread int
}

// Title names the app and the day being planned.
func (h Header) Title() string {
	day, err := dateonly.ParseLocal(h.Day)
	if err != nil {
		return "Day Planner"
	}
	return "Day Planner  " + day.Format("Mon 2 Jan 2006")
}

// PlanStatus summarises the background planner and unread notifications.
func (h Header) PlanStatus() string {
	var s string
	switch st := h.Plan; {
	case st == nil:
		s = "auto-plan off"
	case st.State == autoplan.RunRunning:
		s = "planning..."
	case st.State == autoplan.RunError:
		s = "auto-plan failed"
	case !st.NextRun.IsZero():
		s = "next plan " + st.NextRun.Format("Mon 15:04")
	default:
		s = "auto-plan idle"
	}
	if h.Unread > 0 {
		s += fmt.Sprintf(" | %d new", h.Unread)
	}
	return s
}

// bar renders left and right in style and fills the gap between them so
// the background spans width.
func bar(style lipgloss.Style, left, right string, width int) string {
	l := style.Render(left)
	var r string
	if right != "" {
		r = style.Render(right)
	}
	gap := max(width-lipgloss.Width(l)-lipgloss.Width(r), 0)
	fill := style.UnsetPadding().Width(gap).Render("")
	return lipgloss.JoinHorizontal(lipgloss.Top, l, fill, r)
}
