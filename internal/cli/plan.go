package cli

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/nhle/dayplanner/internal/theme"
)

func newPlanCmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "plan",
		Short: "Fit today's tasks into working hours",
		Long: `Plan assigns start times to the tasks due today, highest priority first,
keeping a buffer before each task. Tasks already planned later today keep
their slot.`,
		Args: cobra.NoArgs,
		RunE: e.runPlan,
	}
}

func (e *env) runPlan(cmd *cobra.Command, _ []string) error {
	out := cmd.OutOrStdout()
	res := e.planner.PlanDay(cmd.Context(), e.cfg.Preferences)

	if len(res.Scheduled) > 0 {
		printHeading(out, "Scheduled")
		for _, t := range res.Scheduled {
			printTaskLine(out, t)
		}
	}

	if len(res.Unscheduled) > 0 {
		printHeading(out, "Unscheduled")
		for _, t := range res.Unscheduled {
			printTaskLine(out, t)
		}
	}

	if len(res.Failed) > 0 {
		ids := make([]string, 0, len(res.Failed))
		for id := range res.Failed {
			ids = append(ids, id)
		}
		sort.Strings(ids)
		for _, id := range ids {
			fmt.Fprintln(out, theme.ErrorStyle.Render(fmt.Sprintf("  %s: %v", id, res.Failed[id])))
		}
	}

	fmt.Fprintln(out, res.Message)
	return nil
}
