package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/alexanderramin/stagegate/internal/cli/formatter"
)

func newNotifyCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "notify",
		Short: "Read your notifications",
	}

	cmd.AddCommand(newNotifyListCmd(app), newNotifyReadCmd(app), newNotifySweepCmd(app))
	return cmd
}

func newNotifyListCmd(app *App) *cobra.Command {
	var unread bool
	var limit int

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List notifications for the acting user",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			user, err := app.actor(ctx)
			if err != nil {
				return err
			}
			items, err := app.Notifications.List(ctx, user, unread, limit)
			if err != nil {
				return err
			}
			count, err := app.Notifications.UnreadCount(ctx, user)
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), formatter.FormatNotifications(items, count))
			return nil
		},
	}

	cmd.Flags().BoolVarP(&unread, "unread", "u", false, "Only unread notifications")
	cmd.Flags().IntVarP(&limit, "limit", "n", 50, "Maximum notifications to show")
	return cmd
}

func newNotifyReadCmd(app *App) *cobra.Command {
	var all bool

	cmd := &cobra.Command{
		Use:   "read [ID]",
		Short: "Mark a notification, or all of them, as read",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			user, err := app.actor(ctx)
			if err != nil {
				return err
			}
			if all {
				n, err := app.Notifications.MarkAllRead(ctx, user)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Marked %d notifications read\n", n)
				return nil
			}
			if len(args) == 0 {
				return fmt.Errorf("pass a notification ID or --all")
			}
			id, err := app.notificationID(cmd, user, args[0])
			if err != nil {
				return err
			}
			if err := app.Notifications.MarkRead(ctx, user, id); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Marked read")
			return nil
		},
	}

	cmd.Flags().BoolVar(&all, "all", false, "Mark every notification read")
	return cmd
}

func newNotifySweepCmd(app *App) *cobra.Command {
	var on *time.Time

	cmd := &cobra.Command{
		Use:   "sweep",
		Short: "Send due-soon reminders now (serve does this periodically)",
		RunE: func(cmd *cobra.Command, args []string) error {
			today := time.Now().UTC()
			if on != nil {
				today = *on
			}
			n, err := app.Notifications.SweepDueSoon(cmd.Context(), today)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Sent %d reminders\n", n)
			return nil
		},
	}

	dateFlag(cmd.Flags(), &on, "on", "Sweep as of this date")
	return cmd
}
