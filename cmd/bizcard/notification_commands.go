package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jrsteele09/go-bizcard-client/notifications"
	"github.com/jrsteele09/go-bizcard-client/router"
	"github.com/spf13/cobra"
)

func newNotificationsCommand(c *cli) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "notifications",
		Aliases: []string{"notif"},
		Short:   "Comments and likes on your posts",
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	cmd.AddCommand(
		newNotificationsListCommand(c),
		newNotificationsReadCommand(c),
		newNotificationsDeleteCommand(c),
		newNotificationsClearCommand(c),
		newNotificationsWatchCommand(c),
	)
	return cmd
}

func newNotificationsListCommand(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List notifications, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := commandContext(cmd)
			d, err := c.app.Navigate(ctx, router.RouteNotifications)
			if err != nil {
				return err
			}
			return renderDecision(ctx, cmd.OutOrStdout(), c.app, d)
		},
	}
}

func newNotificationsReadCommand(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "read <notificationId>",
		Short: "Mark a notification as read",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := c.requireLogin(); err != nil {
				return err
			}
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			return c.app.Notifications().MarkRead(commandContext(cmd), id)
		},
	}
}

func newNotificationsDeleteCommand(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <notificationId>",
		Short: "Delete a notification",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := c.requireLogin(); err != nil {
				return err
			}
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			return c.app.Notifications().Delete(commandContext(cmd), id)
		},
	}
}

func newNotificationsClearCommand(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Delete every notification",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := c.requireLogin(); err != nil {
				return err
			}
			ctx := commandContext(cmd)
			svc := c.app.Notifications()
			if err := svc.Refresh(ctx); err != nil {
				return err
			}
			n := len(svc.Store().IDs())
			if err := svc.DeleteAll(ctx); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted %d notifications\n", n)
			return nil
		},
	}
}

func newNotificationsWatchCommand(c *cli) *cobra.Command {
	var interval time.Duration

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Poll for notifications until interrupted",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := c.requireLogin(); err != nil {
				return err
			}
			if interval <= 0 {
				interval = c.cfg.GetNotificationInterval()
			}

			ctx, stop := signal.NotifyContext(commandContext(cmd), os.Interrupt, syscall.SIGTERM)
			defer stop()

			w := cmd.OutOrStdout()
			seen := map[int64]bool{}
			poller := notifications.NewPoller(c.app.Notifications(), c.app.State(),
				notifications.WithInterval(interval),
				notifications.WithOnUpdate(func(s *notifications.Store) {
					for _, n := range s.List() {
						if seen[n.NotificationID] {
							continue
						}
						seen[n.NotificationID] = true
						if !n.IsRead {
							fmt.Fprintf(w, "[%s] %s\n", n.Type, n.Message)
						}
					}
				}),
			)

			err := poller.Run(ctx)
			if err == nil && ctx.Err() == context.Canceled {
				fmt.Fprintln(w, "stopped")
			}
			return err
		},
	}

	cmd.Flags().DurationVar(&interval, "interval", 0, "Poll interval (defaults to BIZCARD_NOTIFY_INTERVAL)")
	return cmd
}
