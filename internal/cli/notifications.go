package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/nhle/dayplanner/internal/theme"
)

func newNotificationsCmd(e *env) *cobra.Command {
	notificationsCmd := &cobra.Command{
		Use:   "notifications",
		Short: "Show unread notifications",
		Args:  cobra.NoArgs,
		RunE:  e.runNotifications,
	}
	notificationsCmd.Flags().Bool("mark-read", false, "Mark the listed notifications as read")
	return notificationsCmd
}

func (e *env) runNotifications(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	list, err := e.store.GetUnreadNotifications(ctx)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if len(list) == 0 {
		fmt.Fprintln(out, "No unread notifications.")
		return nil
	}

	markRead, _ := cmd.Flags().GetBool("mark-read")
	for _, n := range list {
		when := n.CreatedAt
		if n.ScheduledAt != nil {
			when = *n.ScheduledAt
		}
		fmt.Fprintf(out, "  %s  %s\n",
			theme.TimeStyle.Render(when.In(time.Local).Format("Jan 02 15:04")),
			n.Message)

		if markRead {
			if err := e.store.MarkNotificationRead(ctx, n.ID); err != nil {
				return err
			}
		}
	}
	if markRead {
		fmt.Fprintf(out, "Marked %d notification(s) read\n", len(list))
	}
	return nil
}
