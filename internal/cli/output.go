package cli

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/nhle/dayplanner/internal/model"
	"github.com/nhle/dayplanner/internal/theme"
)

func printTaskLine(w io.Writer, t model.Task) {
	start := "--:--"
	if t.PlannedTime != nil {
		start = t.PlannedTime.In(time.Local).Format("15:04")
	}

	var extra []string
	if t.Duration != nil {
		extra = append(extra, fmt.Sprintf("%dm", *t.Duration))
	}
	if t.DueDate != "" {
		extra = append(extra, "due "+t.DueDate)
	}

	fmt.Fprintf(w, "  %s  %s  %-8s %s %s\n",
		theme.TimeStyle.Render(start),
		theme.PriorityStyle(t.Priority).Render(fmt.Sprintf("%-6s", t.Priority)),
		theme.StatusStyle(t.Status).Render(string(t.Status)),
		t.Name,
		theme.MutedStyle.Render(strings.Join(extra, ", ")),
	)
	fmt.Fprintf(w, "         %s\n", theme.MutedStyle.Render(t.ID))
}

func printHeading(w io.Writer, s string) {
	fmt.Fprintln(w, theme.HeaderStyle.Render(s))
}
