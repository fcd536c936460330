package commands

import (
	"context"
	"fmt"
	"text/tabwriter"

	"github.com/urfave/cli/v3"

	"github.com/dohr-michael/taskdeck/internal/api"
)

// NewNotificationsCommand returns the notifications subcommand.
func NewNotificationsCommand() *cli.Command {
	return &cli.Command{
		Name:    "notifications",
		Aliases: []string{"notif"},
		Usage:   "Read and manage notifications",
		Commands: []*cli.Command{
			{
				Name:  "list",
				Usage: "List notifications, newest first",
				Flags: []cli.Flag{
					&cli.BoolFlag{Name: "unread", Aliases: []string{"u"}, Usage: "Only unread notifications"},
					&cli.IntFlag{Name: "page", Usage: "Page number", Value: 1},
					&cli.IntFlag{Name: "limit", Usage: "Page size", Value: 20},
					outputFlag(),
				},
				Action: withEnv(runNotificationsList),
			},
			{
				Name:      "read",
				Usage:     "Mark a notification as read",
				ArgsUsage: "<notification_id>",
				Action: withEnv(func(ctx context.Context, cmd *cli.Command, e *env) error {
					return notificationOp(ctx, cmd, e, "mark read", (*api.Client).MarkNotificationRead, "Marked notification %d as read.\n")
				}),
			},
			{
				Name:  "read-all",
				Usage: "Mark every notification as read",
				Action: withEnv(func(ctx context.Context, _ *cli.Command, e *env) error {
					c, _, err := e.client()
					if err != nil {
						return err
					}
					if err := c.MarkAllNotificationsRead(ctx); err != nil {
						return describe("mark all read", err)
					}
					fmt.Fprintln(e.out, "All notifications marked as read.")
					return nil
				}),
			},
			{
				Name:      "delete",
				Aliases:   []string{"rm"},
				Usage:     "Delete a notification",
				ArgsUsage: "<notification_id>",
				Action: withEnv(func(ctx context.Context, cmd *cli.Command, e *env) error {
					return notificationOp(ctx, cmd, e, "delete notification", (*api.Client).DeleteNotification, "Deleted notification %d.\n")
				}),
			},
		},
		DefaultCommand: "list",
	}
}

func runNotificationsList(ctx context.Context, cmd *cli.Command, e *env) error {
	c, _, err := e.client()
	if err != nil {
		return err
	}
	q := api.NotificationQuery{Page: cmd.Int("page"), Limit: cmd.Int("limit")}
	if cmd.Bool("unread") {
		unread := false
		q.IsRead = &unread
	}
	list, err := c.ListNotifications(ctx, q)
	if err != nil {
		return describe("list notifications", err)
	}
	return render(e.out, cmd.String("output"), list, func(w *tabwriter.Writer) {
		if len(list.Notifications) == 0 {
			fmt.Fprintln(w, "No notifications.")
			return
		}
		fmt.Fprintln(w, "ID\t\tTASK\tWHEN\tMESSAGE")
		for _, n := range list.Notifications {
			mark := " "
			if !n.IsRead {
				mark = "•"
			}
			fmt.Fprintf(w, "%d\t%s\t%d\t%s\t%s\n", n.ID, mark, n.TaskID, n.CreatedAt.Local().Format("2006-01-02 15:04"), n.Message)
		}
		fmt.Fprintf(w, "\n%d total · %d unread\n", list.Total, list.UnreadCount)
	})
}

func notificationOp(ctx context.Context, cmd *cli.Command, e *env, what string, op func(*api.Client, context.Context, int64) error, done string) error {
	id, err := idArg(cmd, 0, "notification")
	if err != nil {
		return err
	}
	c, _, err := e.client()
	if err != nil {
		return err
	}
	if err := op(c, ctx, id); err != nil {
		return describe(what, err)
	}
	fmt.Fprintf(e.out, done, id)
	return nil
}
