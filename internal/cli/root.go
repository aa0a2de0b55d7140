// Package cli is the dayplanner command tree.
package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/nhle/dayplanner/internal/model"
)

// newRootCmd builds the full command tree around e.
func newRootCmd(e *env) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "dayplanner",
		Short: "Plan your day around tasks, working hours and recurring chores",
		Long: `dayplanner keeps a list of tasks, fits today's tasks into your working
hours and rolls recurring tasks forward when you complete them.

Run without a subcommand to open today's agenda.`,
		RunE:              e.runAgenda,
		PersistentPreRunE: e.open,
		PersistentPostRun: func(*cobra.Command, []string) { e.close() },
		SilenceUsage:      true,
		SilenceErrors:     true,
	}

	// Global flags
	rootCmd.PersistentFlags().StringVar(&e.configPath, "config", model.DefaultConfigPath(), "Path to the config file")
	rootCmd.PersistentFlags().StringVar(&e.dbPath, "db", "", "Database path (overrides database.path)")
	rootCmd.PersistentFlags().StringVar(&e.logLevel, "log-level", "", "Log level (overrides log.level)")

	rootCmd.AddCommand(newPlanCmd(e))
	rootCmd.AddCommand(newTaskCmd(e))
	rootCmd.AddCommand(newCompleteCmd(e))
	rootCmd.AddCommand(newRepeatCmd(e))
	rootCmd.AddCommand(newNextCmd(e))
	rootCmd.AddCommand(newProjectCmd(e))
	rootCmd.AddCommand(newNotificationsCmd(e))
	rootCmd.AddCommand(newAgendaCmd(e))
	rootCmd.AddCommand(newPrefsCmd(e))
	rootCmd.AddCommand(newDaemonCmd(e))

	return rootCmd
}

// Execute runs the root command
func Execute(version string) error {
	e := &env{}
	defer e.close()

	rootCmd := newRootCmd(e)
	rootCmd.Version = version
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		return err
	}
	return nil
}
