package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/nhle/dayplanner/internal/dateonly"
	"github.com/nhle/dayplanner/internal/recurrence"
)

func newNextCmd(e *env) *cobra.Command {
	nextCmd := &cobra.Command{
		Use:   "next",
		Short: "Preview the next dates of a recurrence rule",
		Args:  cobra.NoArgs,
		RunE:  e.runNext,
	}
	addRuleFlags(nextCmd)
	nextCmd.Flags().String("from", "", "Date to step from (default today)")
	nextCmd.Flags().IntP("number", "n", 1, "How many dates to show")
	return nextCmd
}

func (e *env) runNext(cmd *cobra.Command, _ []string) error {
	rule := ruleFromFlags(cmd)
	if !rule.Frequency.Valid() {
		return fmt.Errorf("unknown frequency %q", rule.Frequency)
	}
	if rule.Interval <= 0 {
		return fmt.Errorf("interval must be positive, got %d", rule.Interval)
	}

	from, _ := cmd.Flags().GetString("from")
	if from == "" {
		from = dateonly.Today()
	}
	n, _ := cmd.Flags().GetInt("number")

	out := cmd.OutOrStdout()
	dates := recurrence.Upcoming(rule, from, n)
	if len(dates) == 0 {
		fmt.Fprintln(out, "No further occurrences")
		return nil
	}
	for _, d := range dates {
		fmt.Fprintln(out, d)
	}
	return nil
}
