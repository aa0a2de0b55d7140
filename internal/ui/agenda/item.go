package agenda

import (
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/nhle/dayplanner/internal/model"
	"github.com/nhle/dayplanner/internal/theme"
)

// TaskItem wraps a model.Task so it can be used in a bubbles/list.
type TaskItem struct {
	Task model.Task
}

// FilterValue returns the string used for fuzzy filtering.
func (i TaskItem) FilterValue() string { return i.Task.Name }

// Title returns the task name for the list.
func (i TaskItem) Title() string { return i.Task.Name }

// Description returns a short summary line for the list.
func (i TaskItem) Description() string {
	parts := []string{string(i.Task.Priority), string(i.Task.Status)}
	if i.Task.Duration != nil {
		parts = append(parts, fmt.Sprintf("%dm", *i.Task.Duration))
	}
	return strings.Join(parts, " | ")
}

// ItemDelegate implements list.ItemDelegate for rendering agenda rows.
type ItemDelegate struct{}

// Height returns the number of lines each item takes.
func (d ItemDelegate) Height() int { return 1 }

// Spacing returns the number of blank lines between items.
func (d ItemDelegate) Spacing() int { return 0 }

// Update handles per-item messages (unused).
func (d ItemDelegate) Update(_ tea.Msg, _ *list.Model) tea.Cmd {
	return nil
}

// Render draws a single agenda line: start time, priority, name, duration
// and status.
func (d ItemDelegate) Render(w io.Writer, m list.Model, index int, item list.Item) {
	ti, ok := item.(TaskItem)
	if !ok {
		return
	}
	fmt.Fprint(w, renderRow(ti.Task, index == m.Index()))
}

func renderRow(t model.Task, selected bool) string {
	start := "--:--"
	if t.PlannedTime != nil {
		start = t.PlannedTime.In(time.Local).Format("15:04")
	}

	duration := ""
	if t.Duration != nil {
		duration = theme.MutedStyle.Render(fmt.Sprintf(" %dm", *t.Duration))
	}

	line := fmt.Sprintf("%s  %s  %s%s  %s",
		theme.TimeStyle.Render(start),
		theme.PriorityStyle(t.Priority).Render(fmt.Sprintf("%-6s", t.Priority)),
		t.Name,
		duration,
		theme.StatusStyle(t.Status).Render(string(t.Status)),
	)

	if selected {
		return theme.SelectedItemStyle.Render(line)
	}
	return theme.ListItemStyle.Render(line)
}

// sortForAgenda orders planned tasks by start time ahead of unplanned ones,
// which follow by priority.
func sortForAgenda(tasks []model.Task) {
	sort.SliceStable(tasks, func(i, j int) bool {
		a, b := tasks[i], tasks[j]
		switch {
		case a.PlannedTime != nil && b.PlannedTime != nil:
			return a.PlannedTime.Before(*b.PlannedTime)
		case a.PlannedTime != nil:
			return true
		case b.PlannedTime != nil:
			return false
		default:
			return a.Priority.Rank() > b.Priority.Rank()
		}
	})
}
