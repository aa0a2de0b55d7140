package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/nhle/dayplanner/internal/model"
)

func newRepeatCmd(e *env) *cobra.Command {
	repeatCmd := &cobra.Command{
		Use:   "repeat <task-id>",
		Short: "Make a task recur",
		Long: `Repeat attaches a recurrence rule to a task. Completing the task then
creates the next occurrence. Use --remove to stop a task from recurring.`,
		Args: cobra.ExactArgs(1),
		RunE: e.runRepeat,
	}
	addRuleFlags(repeatCmd)
	repeatCmd.Flags().Bool("remove", false, "Remove the task's recurrence rule")
	return repeatCmd
}

// addRuleFlags registers the flags shared by repeat and next.
func addRuleFlags(cmd *cobra.Command) {
	cmd.Flags().String("frequency", "daily", "daily, weekly, monthly or yearly")
	cmd.Flags().Int("interval", 1, "Repeat every N periods")
	cmd.Flags().String("end-date", "", "Last date an occurrence may fall on")
	cmd.Flags().Int("count", 0, "Number of occurrences, including the current one")
}

// ruleFromFlags reads a rule from the shared flags. Count is only set when
// --count was given.
func ruleFromFlags(cmd *cobra.Command) model.RecurrenceRule {
	flags := cmd.Flags()
	freq, _ := flags.GetString("frequency")
	interval, _ := flags.GetInt("interval")
	end, _ := flags.GetString("end-date")

	rule := model.RecurrenceRule{
		Frequency: model.Frequency(strings.ToUpper(freq)),
		Interval:  interval,
		EndDate:   end,
	}
	if flags.Changed("count") {
		count, _ := flags.GetInt("count")
		rule.Count = &count
	}
	return rule
}

func (e *env) runRepeat(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()
	taskID := args[0]

	if remove, _ := cmd.Flags().GetBool("remove"); remove {
		if err := e.tasks.DetachRecurrence(cmd.Context(), taskID); err != nil {
			return err
		}
		fmt.Fprintf(out, "Task %s no longer repeats\n", taskID)
		return nil
	}

	rule, err := e.tasks.AttachRecurrence(cmd.Context(), taskID, ruleFromFlags(cmd))
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "Task %s repeats %s\n", taskID, describeRule(rule))
	return nil
}

func describeRule(r model.RecurrenceRule) string {
	unit := map[model.Frequency]string{
		model.FrequencyDaily:   "day",
		model.FrequencyWeekly:  "week",
		model.FrequencyMonthly: "month",
		model.FrequencyYearly:  "year",
	}[r.Frequency]

	s := "every " + unit
	if r.Interval > 1 {
		s = fmt.Sprintf("every %d %ss", r.Interval, unit)
	}
	if r.EndDate != "" {
		s += " until " + r.EndDate
	}
	if r.Count != nil {
		s += fmt.Sprintf(", %d occurrence(s)", *r.Count)
	}
	return s
}
