package tui

import (
	"context"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/dohr-michael/taskdeck/internal/api"
	"github.com/dohr-michael/taskdeck/internal/taskview"
)

// Backend is the part of the task API the browser uses.
type Backend interface {
	taskview.Source
	CreateTask(ctx context.Context, in api.TaskInput) (*api.Task, error)
	UpdateTask(ctx context.Context, id int64, up api.TaskUpdate) (*api.Task, error)
	DeleteTask(ctx context.Context, id int64) error
	ListCategories(ctx context.Context) (*api.CategoryList, error)
	ListNotifications(ctx context.Context, q api.NotificationQuery) (*api.NotificationList, error)
	MarkNotificationRead(ctx context.Context, id int64) error
	MarkAllNotificationsRead(ctx context.Context) error
	DeleteNotification(ctx context.Context, id int64) error
}

// notificationPageSize is how many notifications the panel shows.
const notificationPageSize = 20

func fetchCmd(ctx context.Context, b Backend, req taskview.Request) tea.Cmd {
	return func() tea.Msg {
		return fetchedMsg{res: taskview.Fetch(ctx, b, req)}
	}
}

func categoriesCmd(ctx context.Context, b Backend) tea.Cmd {
	return func() tea.Msg {
		list, err := b.ListCategories(ctx)
		if err != nil {
			return categoriesMsg{err: err}
		}
		return categoriesMsg{categories: list.Categories}
	}
}

func updateTaskCmd(ctx context.Context, b Backend, id int64, up api.TaskUpdate) tea.Cmd {
	return func() tea.Msg {
		task, err := b.UpdateTask(ctx, id, up)
		return taskSavedMsg{task: task, err: err}
	}
}

func createTaskCmd(ctx context.Context, b Backend, in api.TaskInput) tea.Cmd {
	return func() tea.Msg {
		task, err := b.CreateTask(ctx, in)
		return taskCreatedMsg{task: task, err: err}
	}
}

func deleteTaskCmd(ctx context.Context, b Backend, task api.Task) tea.Cmd {
	return func() tea.Msg {
		return taskDeletedMsg{task: task, err: b.DeleteTask(ctx, task.ID)}
	}
}

func notificationsCmd(ctx context.Context, b Backend, poll bool) tea.Cmd {
	return func() tea.Msg {
		list, err := b.ListNotifications(ctx, api.NotificationQuery{Page: 1, Limit: notificationPageSize})
		return notificationsMsg{list: list, poll: poll, err: err}
	}
}

func notificationOpCmd(ctx context.Context, b Backend, op string, id int64) tea.Cmd {
	return func() tea.Msg {
		var err error
		switch op {
		case opMarkRead:
			err = b.MarkNotificationRead(ctx, id)
		case opMarkAllRead:
			err = b.MarkAllNotificationsRead(ctx)
		case opDelete:
			err = b.DeleteNotification(ctx, id)
		}
		return notificationChangedMsg{op: op, id: id, err: err}
	}
}

func pollCmd(every time.Duration) tea.Cmd {
	if every <= 0 {
		return nil
	}
	return tea.Tick(every, func(time.Time) tea.Msg { return pollMsg{} })
}
