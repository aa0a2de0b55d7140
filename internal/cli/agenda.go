package cli

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/nhle/dayplanner/internal/app"
)

func newAgendaCmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "agenda",
		Short: "Open today's agenda",
		Long: `Agenda shows today's tasks in planned order.

Keys: j/k move, p plan the day, x complete, r reload, e preferences, q quit.`,
		Args: cobra.NoArgs,
		RunE: e.runAgenda,
	}
}

func newPrefsCmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "prefs",
		Short: "Edit working hours, buffer and default duration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return e.runTUI(app.WithPrefsView())
		},
	}
}

func (e *env) runAgenda(_ *cobra.Command, _ []string) error {
	return e.runTUI()
}

func (e *env) runTUI(opts ...app.Option) error {
	deps := app.Deps{
		Tasks:           e.store,
		Planner:         e.planner,
		Completer:       e.tasks,
		Preferences:     e.cfg.Preferences,
		SavePreferences: e.savePreferences,
		Log:             e.log,
	}

	if e.cfg.AutoPlan.Enabled {
		runner, err := e.newRunner()
		if err != nil {
			return err
		}
		if err := runner.Start(); err != nil {
			return err
		}
		defer runner.Stop()
		deps.Runner = runner
	}

	p := tea.NewProgram(app.New(deps, opts...), tea.WithAltScreen())
	_, err := p.Run()
	return err
}
