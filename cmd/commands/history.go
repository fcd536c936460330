package commands

import (
	"context"
	"fmt"
	"text/tabwriter"

	"github.com/urfave/cli/v3"

	"github.com/dohr-michael/taskdeck/internal/events"
)

// NewHistoryCommand returns the history subcommand.
func NewHistoryCommand() *cli.Command {
	return &cli.Command{
		Name:  "history",
		Usage: "Show recent task and session activity from this machine",
		Flags: []cli.Flag{
			&cli.IntFlag{Name: "limit", Aliases: []string{"n"}, Usage: "Number of entries", Value: 20},
			outputFlag(),
		},
		Action: withEnv(runHistory),
	}
}

func runHistory(_ context.Context, cmd *cli.Command, e *env) error {
	entries, err := e.journal.Tail(cmd.Int("limit"))
	if err != nil {
		return err
	}
	return render(e.out, cmd.String("output"), entries, func(w *tabwriter.Writer) {
		if len(entries) == 0 {
			fmt.Fprintln(w, "No activity recorded yet.")
			return
		}
		fmt.Fprintln(w, "WHEN\tSOURCE\tEVENT\tDETAIL")
		for _, evt := range entries {
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\n",
				evt.Timestamp.Local().Format("2006-01-02 15:04:05"), evt.Source, evt.Type, activityDetail(evt))
		}
	})
}

func activityDetail(evt events.Event) string {
	switch evt.Type {
	case events.EventTaskCreated, events.EventTaskUpdated, events.EventTaskDeleted:
		if p, ok := events.GetTaskPayload(evt); ok {
			return fmt.Sprintf("#%d %s", p.TaskID, p.Title)
		}
	case events.EventSessionStarted, events.EventSessionEnded:
		if p, ok := events.ExtractPayload[events.SessionPayload](evt); ok {
			if p.Email != "" {
				return p.Email + " @ " + p.BaseURL
			}
			return p.BaseURL
		}
	}
	return "-"
}
