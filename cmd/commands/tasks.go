package commands

import (
	"context"
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/urfave/cli/v3"
	"golang.org/x/term"

	"github.com/dohr-michael/taskdeck/clients/tui/components"
	"github.com/dohr-michael/taskdeck/internal/api"
	"github.com/dohr-michael/taskdeck/internal/events"
	"github.com/dohr-michael/taskdeck/internal/taskview"
)

// NewTasksCommand returns the tasks subcommand.
func NewTasksCommand() *cli.Command {
	return &cli.Command{
		Name:  "tasks",
		Usage: "Manage tasks",
		Commands: []*cli.Command{
			{
				Name:  "list",
				Usage: "List tasks, one page at a time",
				Flags: []cli.Flag{
					&cli.IntFlag{Name: "page", Usage: "Page number", Value: 1},
					&cli.IntFlag{Name: "limit", Usage: "Page size", Value: 10},
					&cli.StringFlag{Name: "query", Aliases: []string{"q"}, Usage: "Search in title and description"},
					&cli.StringFlag{Name: "status", Usage: "pending, in_progress, completed or cancelled"},
					&cli.BoolFlag{Name: "important", Usage: "Only important (or, with =false, only non-important) tasks"},
					&cli.Int64Flag{Name: "category", Usage: "Category id"},
					&cli.StringFlag{Name: "sort", Usage: "Server-side order, field:asc or field:desc"},
					&cli.BoolFlag{Name: "priority-order", Usage: "Order by the server priority queue"},
					outputFlag(),
				},
				Action: withEnv(runTasksList),
			},
			{
				Name:      "show",
				Usage:     "Show task details",
				ArgsUsage: "<task_id>",
				Flags:     []cli.Flag{outputFlag()},
				Action:    withEnv(runTasksShow),
			},
			{
				Name:      "create",
				Aliases:   []string{"add"},
				Usage:     "Create a task",
				ArgsUsage: "<title>",
				Flags:     append(taskFieldFlags(), outputFlag()),
				Action:    withEnv(runTasksCreate),
			},
			{
				Name:      "edit",
				Usage:     "Edit a task; only the given flags change",
				ArgsUsage: "<task_id>",
				Flags: append(taskFieldFlags(),
					&cli.StringFlag{Name: "title", Usage: "New title"},
					&cli.StringFlag{Name: "status", Usage: "pending, in_progress, completed or cancelled"},
					&cli.BoolFlag{Name: "completed", Usage: "Mark completed (=false reopens)"},
					&cli.BoolFlag{Name: "clear-due", Usage: "Remove the due date"},
					&cli.BoolFlag{Name: "clear-category", Usage: "Remove the category"},
					outputFlag(),
				),
				Action: withEnv(runTasksEdit),
			},
			{
				Name:      "delete",
				Aliases:   []string{"rm"},
				Usage:     "Delete a task",
				ArgsUsage: "<task_id>",
				Flags:     []cli.Flag{&cli.BoolFlag{Name: "yes", Aliases: []string{"y"}, Usage: "Do not ask for confirmation"}},
				Action:    withEnv(runTasksDelete),
			},
			{
				Name:  "priority",
				Usage: "Show the most urgent open tasks",
				Flags: []cli.Flag{
					&cli.IntFlag{Name: "limit", Usage: "Number of tasks", Value: 10},
					outputFlag(),
				},
				Action: withEnv(runTasksPriority),
			},
			{
				Name:  "upcoming",
				Usage: "Show open tasks due soon",
				Flags: []cli.Flag{
					&cli.IntFlag{Name: "limit", Usage: "Number of tasks", Value: 10},
					&cli.IntFlag{Name: "days", Usage: "Look-ahead window in days", Value: 3},
					outputFlag(),
				},
				Action: withEnv(runTasksUpcoming),
			},
		},
		DefaultCommand: "list",
	}
}

// taskFieldFlags are shared by create and edit.
func taskFieldFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{Name: "description", Aliases: []string{"d"}, Usage: "Description (markdown)"},
		&cli.StringFlag{Name: "due", Usage: "Due date, YYYY-MM-DD"},
		&cli.StringFlag{Name: "time", Usage: "Due time, HH:MM"},
		&cli.StringFlag{Name: "priority", Aliases: []string{"p"}, Usage: "low, medium, high or urgent"},
		&cli.BoolFlag{Name: "important", Aliases: []string{"i"}, Usage: "Flag as important"},
		&cli.Int64Flag{Name: "category", Usage: "Category id"},
	}
}

func runTasksList(ctx context.Context, cmd *cli.Command, e *env) error {
	c, _, err := e.client()
	if err != nil {
		return err
	}
	q := api.TaskQuery{
		Page:          cmd.Int("page"),
		Limit:         cmd.Int("limit"),
		Query:         strings.TrimSpace(cmd.String("query")),
		Status:        api.TaskStatus(cmd.String("status")),
		Sort:          cmd.String("sort"),
		PriorityOrder: cmd.Bool("priority-order"),
	}
	if cmd.IsSet("important") {
		v := cmd.Bool("important")
		q.Important = &v
	}
	if cmd.IsSet("category") {
		v := cmd.Int64("category")
		q.CategoryID = &v
	}

	page, err := c.ListTasks(ctx, q)
	if err != nil {
		return describe("list tasks", err)
	}
	return render(e.out, cmd.String("output"), page, func(w *tabwriter.Writer) {
		if len(page.Tasks) == 0 {
			fmt.Fprintln(w, "No tasks found.")
			return
		}
		taskTable(page.Tasks)(w)
		fmt.Fprintf(w, "\nPage %d/%d · %d total\n", page.Page, max(page.TotalPages, 1), page.Total)
	})
}

func runTasksShow(ctx context.Context, cmd *cli.Command, e *env) error {
	id, err := idArg(cmd, 0, "task")
	if err != nil {
		return err
	}
	c, _, err := e.client()
	if err != nil {
		return err
	}
	task, err := c.GetTask(ctx, id)
	if err != nil {
		return describe("show task", err)
	}

	category := "-"
	if task.CategoryID != nil {
		if cat, err := c.GetCategory(ctx, *task.CategoryID); err == nil {
			category = cat.Icon + " " + cat.Name
		}
	}

	return render(e.out, cmd.String("output"), task, func(w *tabwriter.Writer) {
		fmt.Fprintf(w, "ID\t%d\n", task.ID)
		fmt.Fprintf(w, "Title\t%s\n", task.Title)
		fmt.Fprintf(w, "Status\t%s\n", task.Status)
		fmt.Fprintf(w, "Priority\t%s\n", task.Priority)
		fmt.Fprintf(w, "Due\t%s\n", dashIfEmpty(dueString(*task)))
		fmt.Fprintf(w, "Flags\t%s\n", dashIfEmpty(flags(*task)))
		fmt.Fprintf(w, "Category\t%s\n", category)
		fmt.Fprintf(w, "Created\t%s\n", task.CreatedAt.Local().Format("2006-01-02 15:04"))
		if task.CompletedAt != nil && !task.CompletedAt.IsZero() {
			fmt.Fprintf(w, "Completed\t%s\n", task.CompletedAt.Local().Format("2006-01-02 15:04"))
		}
		if task.Description != "" {
			w.Flush()
			fmt.Fprintf(e.out, "\n%s\n", components.RenderMarkdown(task.Description, terminalWidth()))
		}
	})
}

func runTasksCreate(ctx context.Context, cmd *cli.Command, e *env) error {
	title := strings.TrimSpace(strings.Join(cmd.Args().Slice(), " "))
	if title == "" {
		return fmt.Errorf("usage: taskdeck tasks create <title> [flags]")
	}
	due, clock, err := api.ParseDue(cmd.String("due"), cmd.String("time"))
	if err != nil {
		return err
	}
	in := api.TaskInput{
		Title:       title,
		Description: cmd.String("description"),
		DueDate:     due,
		DueTime:     clock,
		Priority:    api.TaskPriority(cmd.String("priority")),
		Important:   cmd.Bool("important"),
	}
	if cmd.IsSet("category") {
		v := cmd.Int64("category")
		in.CategoryID = &v
	}

	c, _, err := e.client()
	if err != nil {
		return err
	}
	task, err := c.CreateTask(ctx, in)
	if err != nil {
		return describe("create task", err)
	}
	e.publish(events.TaskPayload{Op: events.TaskCreated, TaskID: task.ID, Title: task.Title})
	return render(e.out, cmd.String("output"), task, func(w *tabwriter.Writer) {
		fmt.Fprintf(w, "Created task %d: %s\n", task.ID, task.Title)
	})
}

// runTasksEdit loads the task into a draft, applies the flags and submits
// the draft with the same rules as the browser editor.
func runTasksEdit(ctx context.Context, cmd *cli.Command, e *env) error {
	id, err := idArg(cmd, 0, "task")
	if err != nil {
		return err
	}
	c, _, err := e.client()
	if err != nil {
		return err
	}
	task, err := c.GetTask(ctx, id)
	if err != nil {
		return describe("load task", err)
	}

	d := taskview.DraftOf(*task)
	if cmd.IsSet("title") {
		d.Title = strings.TrimSpace(cmd.String("title"))
	}
	if cmd.IsSet("description") {
		d.Description = cmd.String("description")
	}
	if cmd.IsSet("due") || cmd.IsSet("time") {
		date := cmd.String("due")
		if !cmd.IsSet("due") && d.DueDate != nil {
			date = d.DueDate.String()
		}
		d.DueDate, d.DueTime, err = api.ParseDue(date, cmd.String("time"))
		if err != nil {
			return err
		}
	}
	if cmd.Bool("clear-due") {
		d.DueDate, d.DueTime = nil, nil
	}
	if cmd.IsSet("priority") {
		d.Priority = api.TaskPriority(cmd.String("priority"))
	}
	if cmd.IsSet("important") {
		d.Important = cmd.Bool("important")
	}
	if cmd.IsSet("category") {
		v := cmd.Int64("category")
		d.CategoryID = &v
	}
	if cmd.Bool("clear-category") {
		d.CategoryID = nil
	}
	if cmd.IsSet("status") {
		d.Status = api.TaskStatus(cmd.String("status"))
		d.Completed = d.Status == api.StatusCompleted
	}
	if cmd.IsSet("completed") {
		d.Completed = cmd.Bool("completed")
	}

	up, err := d.Update(api.Now())
	if err != nil {
		return err
	}
	updated, err := c.UpdateTask(ctx, id, up)
	if err != nil {
		return describe("update task", err)
	}
	e.publish(events.TaskPayload{Op: events.TaskUpdated, TaskID: updated.ID, Title: updated.Title})
	return render(e.out, cmd.String("output"), updated, func(w *tabwriter.Writer) {
		fmt.Fprintf(w, "Updated task %d: %s (%s)\n", updated.ID, updated.Title, updated.Status)
	})
}

func runTasksDelete(ctx context.Context, cmd *cli.Command, e *env) error {
	id, err := idArg(cmd, 0, "task")
	if err != nil {
		return err
	}
	c, _, err := e.client()
	if err != nil {
		return err
	}
	task, err := c.GetTask(ctx, id)
	if err != nil {
		return describe("load task", err)
	}

	var pending taskview.Confirmation[api.Task]
	pending.Request(*task)
	if !cmd.Bool("yes") && !confirm(fmt.Sprintf("Delete task %d %q?", task.ID, task.Title)) {
		pending.Cancel()
		fmt.Fprintln(e.out, "Cancelled.")
		return nil
	}
	target, ok := pending.Confirm()
	if !ok {
		return nil
	}
	if err := c.DeleteTask(ctx, target.ID); err != nil {
		return describe("delete task", err)
	}
	e.publish(events.TaskPayload{Op: events.TaskDeleted, TaskID: target.ID, Title: target.Title})
	fmt.Fprintf(e.out, "Deleted task %d.\n", target.ID)
	return nil
}

func runTasksPriority(ctx context.Context, cmd *cli.Command, e *env) error {
	c, _, err := e.client()
	if err != nil {
		return err
	}
	tasks, err := c.PriorityTasks(ctx, cmd.Int("limit"))
	if err != nil {
		return describe("priority tasks", err)
	}
	return renderTaskList(e, cmd, tasks, "No open tasks.")
}

func runTasksUpcoming(ctx context.Context, cmd *cli.Command, e *env) error {
	c, _, err := e.client()
	if err != nil {
		return err
	}
	tasks, err := c.UpcomingTasks(ctx, cmd.Int("limit"), cmd.Int("days"))
	if err != nil {
		return describe("upcoming tasks", err)
	}
	return renderTaskList(e, cmd, tasks, fmt.Sprintf("Nothing due in the next %d days.", cmd.Int("days")))
}

func renderTaskList(e *env, cmd *cli.Command, tasks []api.Task, empty string) error {
	return render(e.out, cmd.String("output"), tasks, func(w *tabwriter.Writer) {
		if len(tasks) == 0 {
			fmt.Fprintln(w, empty)
			return
		}
		taskTable(tasks)(w)
	})
}

func terminalWidth() int {
	w, _, err := term.GetSize(1)
	if err != nil || w <= 0 {
		return 80
	}
	return min(w, 120)
}
