package cli

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

func newDaemonCmd(e *env) *cobra.Command {
	daemonCmd := &cobra.Command{
		Use:   "daemon",
		Short: "Plan the day automatically at autoplan.at",
		Long: `Daemon runs in the foreground and plans the day once a day at the time
set by autoplan.at, recording a notification for each planned task. It
stops on SIGINT or SIGTERM.`,
		Args: cobra.NoArgs,
		RunE: e.runDaemon,
	}
	daemonCmd.Flags().Bool("run-now", false, "Plan once immediately before waiting")
	return daemonCmd
}

func (e *env) runDaemon(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	return e.serve(ctx, cmd)
}

// serve runs the auto-plan runner until ctx is done.
func (e *env) serve(ctx context.Context, cmd *cobra.Command) error {
	runner, err := e.newRunner()
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if runNow, _ := cmd.Flags().GetBool("run-now"); runNow {
		st := runner.RunNow(ctx)
		fmt.Fprintln(out, st.Message)
	}

	if err := runner.Start(); err != nil {
		return err
	}
	defer runner.Stop()

	st := runner.Status()
	fmt.Fprintf(out, "Auto-planning daily at %s, next run %s\n",
		e.cfg.AutoPlan.At, st.NextRun.Format("Mon Jan 2 15:04"))
	e.log.Info("daemon started", "at", e.cfg.AutoPlan.At, "next_run", st.NextRun)

	<-ctx.Done()
	e.log.Info("daemon stopping")
	return nil
}
