package tui

import (
	"github.com/dohr-michael/taskdeck/internal/api"
	"github.com/dohr-michael/taskdeck/internal/events"
	"github.com/dohr-michael/taskdeck/internal/taskview"
)

// NoticeMsg is a user-facing message projected from the event bus.
type NoticeMsg struct {
	Level events.Level
	Text  string
}

// fetchedMsg carries the outcome of a browser fetch.
type fetchedMsg struct {
	res taskview.Result
}

// categoriesMsg carries the category list used by pickers and the table.
type categoriesMsg struct {
	categories []api.Category
	err        error
}

// taskSavedMsg is the outcome of an edit.
type taskSavedMsg struct {
	task *api.Task
	err  error
}

// taskCreatedMsg is the outcome of a create.
type taskCreatedMsg struct {
	task *api.Task
	err  error
}

// taskDeletedMsg is the outcome of a confirmed delete.
type taskDeletedMsg struct {
	task api.Task
	err  error
}

// notificationsMsg carries a notification page. poll is set for the
// background refresh of the badge.
type notificationsMsg struct {
	list *api.NotificationList
	poll bool
	err  error
}

// Notification mutations.
const (
	opMarkRead    = "read"
	opMarkAllRead = "read-all"
	opDelete      = "delete"
)

// notificationChangedMsg is the outcome of a notification mutation.
type notificationChangedMsg struct {
	op  string
	id  int64
	err error
}

// pollMsg triggers the periodic notification refresh.
type pollMsg struct{}

// busClosedMsg stops the event listener.
type busClosedMsg struct{}
