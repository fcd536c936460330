package tui

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/dohr-michael/taskdeck/clients/tui/atoms"
	"github.com/dohr-michael/taskdeck/clients/tui/components"
	"github.com/dohr-michael/taskdeck/clients/tui/molecules"
	"github.com/dohr-michael/taskdeck/clients/tui/organisms"
	"github.com/dohr-michael/taskdeck/internal/api"
	"github.com/dohr-michael/taskdeck/internal/events"
	"github.com/dohr-michael/taskdeck/internal/taskview"
)

// panel is the main area currently shown.
type panel int

const (
	panelList panel = iota
	panelForm
	panelDetail
	panelNotifications
)

// Options configures the Task Browser.
type Options struct {
	Backend Backend
	// Bus carries notices to the toast line. A private bus is created when nil.
	Bus     *events.Bus
	Browser taskview.Options
	// Category is the navigation marker (--category), or nil.
	Category *int64
	// User is shown in the status bar.
	User string
	// PollInterval refreshes the notification badge; zero disables polling.
	PollInterval time.Duration
	Logger       *slog.Logger
}

// App is the root bubbletea model of the Task Browser.
type App struct {
	ctx     context.Context
	backend Backend
	bus     *events.Bus
	ownBus  bool
	events  <-chan events.Event
	unsub   func()
	log     *slog.Logger
	poll    time.Duration

	browser    *taskview.Browser
	categories []api.Category

	panel   panel
	width   int
	height  int
	keys    keyMap
	help    help.Model
	spinner atoms.Spinner

	list   organisms.TaskList
	form   organisms.Form
	detail organisms.TaskDetail
	notifs organisms.NotificationsPanel
	info   organisms.InformationPanel
	toast  molecules.Toast

	// seenNotifications is set once the first notification list arrived.
	seenNotifications bool
}

// busHistory is the size of a private bus and of the history window read
// for recent messages.
const busHistory = 64

// NewApp creates the Task Browser. ctx bounds every request it issues.
func NewApp(ctx context.Context, opts Options) *App {
	bus, ownBus := opts.Bus, false
	if bus == nil {
		bus, ownBus = events.NewBus(busHistory), true
	}
	log := opts.Logger
	if log == nil {
		log = slog.Default()
	}
	ch, unsub := bus.SubscribeChan(16, events.EventNotice)

	selected := lipgloss.NewStyle().Foreground(ColorAccent).Bold(true)
	info := organisms.NewInformationPanel(StatusBarStyle, lipgloss.NewStyle().Foreground(ColorWarning).Bold(true))
	info.SetUser(opts.User)

	return &App{
		ctx:     ctx,
		backend: opts.Backend,
		bus:     bus,
		ownBus:  ownBus,
		events:  ch,
		unsub:   unsub,
		log:     log,
		poll:    opts.PollInterval,
		browser: taskview.New(opts.Browser, opts.Category),
		keys:    defaultKeyMap(),
		help:    help.New(),
		spinner: atoms.NewSpinner(ColorAccent),
		list:    organisms.NewTaskList(selected, MutedStyle),
		form:    organisms.NewForm(PromptBorderStyle),
		detail:  organisms.NewTaskDetail(80, 20, MutedStyle),
		notifs:  organisms.NewNotificationsPanel(selected, MutedStyle),
		info:    info,
	}
}

// Browser exposes the view state (tests, embedding).
func (a *App) Browser() *taskview.Browser { return a.browser }

// Close releases the event subscription, and the bus when the App created it.
func (a *App) Close() {
	if a.unsub != nil {
		a.unsub()
		a.unsub = nil
	}
	if a.ownBus {
		a.bus.Close()
	}
}

// Init loads categories, the first page and the notification badge.
func (a *App) Init() tea.Cmd {
	return tea.Batch(
		listen(a.events),
		categoriesCmd(a.ctx, a.backend),
		a.fetch(a.browser.Load()),
		notificationsCmd(a.ctx, a.backend, true),
		pollCmd(a.poll),
	)
}

// Update processes all incoming messages.
func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width, a.height = msg.Width, msg.Height
		a.list.SetWidth(msg.Width)
		a.info.SetWidth(msg.Width)
		a.help.Width = msg.Width
		a.detail.SetSize(msg.Width, max(msg.Height-5, 1))
		return a, nil

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return a, tea.Quit
		}
		return a.handleKey(msg)

	case NoticeMsg:
		return a, tea.Batch(a.showToast(msg), listen(a.events))

	case busClosedMsg:
		return a, nil

	case molecules.ToastExpiredMsg:
		a.toast.Expire(msg)
		return a, nil

	case fetchedMsg:
		return a, a.applyFetch(msg.res)

	case categoriesMsg:
		if msg.err != nil {
			return a, a.fail("Could not load categories", msg.err)
		}
		a.categories = msg.categories
		a.list.SetCategories(msg.categories)
		return a, nil

	case organisms.FormSubmitMsg:
		return a, a.submitForm(msg)

	case organisms.FormCancelMsg:
		if msg.ID == formEdit {
			a.browser.CancelEdit()
		}
		a.panel = panelList
		return a, nil

	case taskSavedMsg:
		if msg.err != nil {
			return a, a.fail("Could not update task", msg.err)
		}
		a.browser.CommitEdit(*msg.task)
		a.form.Deactivate()
		a.panel = panelList
		a.publish(events.TaskPayload{Op: events.TaskUpdated, TaskID: msg.task.ID, Title: msg.task.Title})
		return a, a.notify(events.LevelSuccess, "Task updated")

	case taskCreatedMsg:
		if msg.err != nil {
			return a, a.fail("Could not create task", msg.err)
		}
		a.form.Deactivate()
		a.panel = panelList
		a.publish(events.TaskPayload{Op: events.TaskCreated, TaskID: msg.task.ID, Title: msg.task.Title})
		return a, tea.Batch(a.notify(events.LevelSuccess, "Task created"), a.fetch(a.browser.Reload()))

	case taskDeletedMsg:
		if msg.err != nil {
			return a, a.fail("Could not delete task", msg.err)
		}
		a.publish(events.TaskPayload{Op: events.TaskDeleted, TaskID: msg.task.ID, Title: msg.task.Title})
		return a, tea.Batch(a.notify(events.LevelSuccess, "Task deleted"), a.fetch(a.browser.AfterDelete()))

	case notificationsMsg:
		return a, a.applyNotifications(msg)

	case notificationChangedMsg:
		if msg.err != nil {
			return a, a.fail("Notification update failed", msg.err)
		}
		switch msg.op {
		case opMarkRead:
			a.notifs.MarkRead(msg.id)
		case opMarkAllRead:
			a.notifs.MarkRead(0)
		case opDelete:
			a.notifs.Remove(msg.id)
		}
		a.info.SetUnread(a.notifs.Unread())
		return a, nil

	case pollMsg:
		return a, tea.Batch(notificationsCmd(a.ctx, a.backend, true), pollCmd(a.poll))
	}

	var cmds []tea.Cmd
	var cmd tea.Cmd
	a.spinner, cmd = a.spinner.Update(msg)
	cmds = append(cmds, cmd)
	a.info.SetLoading(a.spinner.View())

	if a.form.Active() {
		a.form, cmd = a.form.Update(msg)
		cmds = append(cmds, cmd)
	}
	return a, tea.Batch(cmds...)
}

func (a *App) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if _, pending := a.browser.PendingDelete(); pending {
		return a, a.handleConfirm(msg)
	}

	switch a.panel {
	case panelForm:
		var cmd tea.Cmd
		a.form, cmd = a.form.Update(msg)
		return a, cmd
	case panelDetail:
		if msg.String() == "esc" || msg.String() == "backspace" || msg.String() == "q" {
			a.panel = panelList
			return a, nil
		}
		var cmd tea.Cmd
		a.detail, cmd = a.detail.Update(msg)
		return a, cmd
	case panelNotifications:
		return a, a.handleNotificationKey(msg)
	}

	k := a.keys
	switch {
	case key.Matches(msg, k.Quit):
		return a, tea.Quit
	case key.Matches(msg, k.Help):
		a.help.ShowAll = !a.help.ShowAll
	case key.Matches(msg, k.Normal):
		return a, a.fetch(a.browser.SwitchMode(taskview.ModeNormal))
	case key.Matches(msg, k.Priority):
		return a, a.fetch(a.browser.SwitchMode(taskview.ModePriority))
	case key.Matches(msg, k.Upcoming):
		return a, a.fetch(a.browser.SwitchMode(taskview.ModeUpcoming))
	case key.Matches(msg, k.Next):
		if req, ok := a.browser.NextPage(); ok {
			return a, a.fetch(req)
		}
	case key.Matches(msg, k.Prev):
		if req, ok := a.browser.PrevPage(); ok {
			return a, a.fetch(req)
		}
	case key.Matches(msg, k.Up):
		a.list.Move(-1, len(a.browser.Tasks()))
	case key.Matches(msg, k.Down):
		a.list.Move(1, len(a.browser.Tasks()))
	case key.Matches(msg, k.Reload):
		return a, a.fetch(a.browser.Reload())
	case key.Matches(msg, k.ClearCategory):
		return a, a.fetch(a.browser.ClearCategory())
	case key.Matches(msg, k.ClearFilters):
		return a, a.fetch(a.browser.ClearFilters())
	case key.Matches(msg, k.Filter):
		a.panel = panelForm
		return a, a.form.Activate(formFilter, "Filter tasks", filterFields(a.browser.Draft, a.categories))
	case key.Matches(msg, k.Add):
		a.panel = panelForm
		return a, a.form.Activate(formCreate, "New task", createFields(a.categories, a.browser.Filters().CategoryID))
	case key.Matches(msg, k.Notifications):
		a.panel = panelNotifications
		return a, notificationsCmd(a.ctx, a.backend, false)
	case key.Matches(msg, k.GoCategory):
		if t, ok := a.list.Selected(a.browser.Tasks()); ok && t.CategoryID != nil {
			return a, a.fetch(a.browser.Navigate(*t.CategoryID))
		}
	case key.Matches(msg, k.Open):
		if t, ok := a.list.Selected(a.browser.Tasks()); ok {
			a.detail.Show(t, a.categoryLabel(t.CategoryID), components.RenderMarkdown(t.Description, max(a.width-4, 20)))
			a.panel = panelDetail
		}
	case key.Matches(msg, k.Edit):
		if t, ok := a.list.Selected(a.browser.Tasks()); ok {
			draft, err := a.browser.BeginEdit(t.ID)
			if err != nil {
				return a, a.fail("Cannot edit", err)
			}
			a.panel = panelForm
			return a, a.form.Activate(formEdit, "Edit task #"+fmt.Sprint(t.ID), editFields(draft, a.categories))
		}
	case key.Matches(msg, k.Delete):
		if t, ok := a.list.Selected(a.browser.Tasks()); ok {
			if err := a.browser.RequestDelete(t.ID); err != nil {
				return a, a.fail("Cannot delete", err)
			}
		}
	}
	return a, nil
}

func (a *App) handleConfirm(msg tea.KeyMsg) tea.Cmd {
	switch strings.ToLower(msg.String()) {
	case "y":
		task, ok := a.browser.ConfirmDelete()
		if !ok {
			return nil
		}
		return deleteTaskCmd(a.ctx, a.backend, task)
	case "n", "esc":
		a.browser.CancelDelete()
	}
	return nil
}

func (a *App) handleNotificationKey(msg tea.KeyMsg) tea.Cmd {
	switch msg.String() {
	case "esc", "N", "q":
		a.panel = panelList
	case "up", "k":
		a.notifs.Move(-1)
	case "down", "j":
		a.notifs.Move(1)
	case "enter", "r":
		if n, ok := a.notifs.Selected(); ok && !n.IsRead {
			return notificationOpCmd(a.ctx, a.backend, opMarkRead, n.ID)
		}
	case "R":
		return notificationOpCmd(a.ctx, a.backend, opMarkAllRead, 0)
	case "d":
		if n, ok := a.notifs.Selected(); ok {
			return notificationOpCmd(a.ctx, a.backend, opDelete, n.ID)
		}
	}
	return nil
}

func (a *App) submitForm(msg organisms.FormSubmitMsg) tea.Cmd {
	switch msg.ID {
	case formFilter:
		a.browser.Draft = filtersFrom(msg.Values)
		a.form.Deactivate()
		a.panel = panelList
		return a.fetch(a.browser.ApplyFilters())

	case formCreate:
		in, err := createInput(msg.Values)
		if err == nil {
			err = api.ValidateTaskInput(in)
		}
		if err != nil {
			return a.fail("Invalid task", err)
		}
		return createTaskCmd(a.ctx, a.backend, in)

	case formEdit:
		draft, ok := a.browser.Editing()
		if !ok {
			a.form.Deactivate()
			a.panel = panelList
			return nil
		}
		if err := applyEdit(draft, msg.Values); err != nil {
			return a.fail("Invalid task", err)
		}
		up, err := draft.Update(api.Now())
		if err != nil {
			return a.fail("Invalid task", err)
		}
		return updateTaskCmd(a.ctx, a.backend, draft.ID, up)
	}
	return nil
}

// fetch publishes the request and runs it off the UI loop.
func (a *App) fetch(req taskview.Request) tea.Cmd {
	a.publish(events.FetchPayload{Stage: events.FetchIssued, Seq: req.Seq, Mode: req.Mode.String(), Page: req.Page})
	start := a.spinner.Start()
	a.info.SetLoading(a.spinner.View())
	return tea.Batch(fetchCmd(a.ctx, a.backend, req), start)
}

func (a *App) applyFetch(res taskview.Result) tea.Cmd {
	req := res.Request
	applied, err := a.browser.Apply(res)
	if !a.browser.Loading() {
		a.spinner.Stop()
		a.info.SetLoading("")
	}

	switch {
	case err != nil:
		a.publish(events.FetchPayload{Stage: events.FetchFailed, Seq: req.Seq, Mode: req.Mode.String(), Page: req.Page, Error: err.Error()})
		return a.fail("Could not load tasks", err)
	case !applied:
		a.publish(events.FetchPayload{Stage: events.FetchDropped, Seq: req.Seq, Mode: req.Mode.String(), Page: req.Page})
		return nil
	}

	a.publish(events.FetchPayload{Stage: events.FetchApplied, Seq: req.Seq, Mode: req.Mode.String(), Page: req.Page, Tasks: len(res.Tasks)})
	a.list.Clamp(len(a.browser.Tasks()))
	a.info.SetView(a.browser.Mode(), a.browser.Pagination())
	if res.CategoryErr != nil {
		return a.fail("Could not load category", res.CategoryErr)
	}
	return nil
}

func (a *App) applyNotifications(msg notificationsMsg) tea.Cmd {
	if msg.err != nil {
		if msg.poll {
			a.log.Debug("notification poll failed", "error", msg.err)
			return nil
		}
		return a.fail("Could not load notifications", msg.err)
	}
	prev, seen := a.info.Unread(), a.seenNotifications
	a.seenNotifications = true
	a.notifs.Set(msg.list)
	a.info.SetUnread(msg.list.UnreadCount)
	if msg.poll && seen && msg.list.UnreadCount > prev {
		return a.notify(events.LevelInfo, fmt.Sprintf("%d new notification(s)", msg.list.UnreadCount-prev))
	}
	return nil
}

func (a *App) publish(payload events.EventPayload) {
	a.bus.Publish(events.NewTypedEvent(events.SourceBrowser, payload))
}

// notify posts a notice; it reaches the toast line through the bus.
func (a *App) notify(level events.Level, text string) tea.Cmd {
	a.bus.Publish(events.Notice(events.SourceBrowser, level, text))
	return nil
}

// fail logs err and posts it as an error notice. A rejected session also
// hints at logging in again.
func (a *App) fail(what string, err error) tea.Cmd {
	a.log.Warn(what, "error", err)
	text := what + ": " + api.Message(err)
	if errors.Is(err, api.ErrUnauthorized) {
		text += " (run `taskdeck login`)"
	}
	return a.notify(events.LevelError, text)
}

const recentNoticeCount = 5

// recentNotices returns up to n notices from the bus history, newest first.
func (a *App) recentNotices(n int) []string {
	history := a.bus.History(busHistory)
	var out []string
	for i := len(history) - 1; i >= 0 && len(out) < n; i-- {
		p, ok := events.GetNoticePayload(history[i])
		if !ok {
			continue
		}
		out = append(out, history[i].Timestamp.Format("15:04:05")+"  "+p.Text)
	}
	return out
}

func (a *App) showToast(msg NoticeMsg) tea.Cmd {
	style := MutedStyle
	switch msg.Level {
	case events.LevelError:
		style = ErrorStyle
	case events.LevelSuccess:
		style = SuccessStyle
	}
	return a.toast.Show(msg.Text, style)
}

func (a *App) categoryLabel(id *int64) string {
	if id == nil {
		return ""
	}
	if c, ok := a.list.Category(*id); ok {
		return c.Icon + " " + c.Name
	}
	return fmt.Sprint("#", *id)
}

// View renders the full TUI layout.
func (a *App) View() string {
	var sb strings.Builder

	header := TitleStyle.Render(a.browser.Title())
	if f := a.browser.Filters(); a.browser.Mode() == taskview.ModeNormal && !f.IsZero() {
		header += "  " + MutedStyle.Render(describeFilters(f))
	}
	sb.WriteString(header + "\n\n")

	switch a.panel {
	case panelForm:
		sb.WriteString(a.form.View())
	case panelDetail:
		sb.WriteString(a.detail.View())
	case panelNotifications:
		sb.WriteString(TitleStyle.Render("Notifications") + "\n")
		sb.WriteString(a.notifs.View() + "\n")
		if recent := a.recentNotices(recentNoticeCount); len(recent) > 0 {
			sb.WriteString("\n" + MutedStyle.Render("Recent messages") + "\n")
			for _, line := range recent {
				sb.WriteString("  " + MutedStyle.Render(line) + "\n")
			}
		}
		sb.WriteString(MutedStyle.Render("enter: mark read · R: mark all read · d: delete · esc: back"))
	default:
		if !a.browser.Loaded() {
			sb.WriteString(MutedStyle.Render("Loading tasks..."))
		} else {
			sb.WriteString(a.list.View(a.browser.Tasks()))
		}
	}
	sb.WriteString("\n")

	if t, ok := a.browser.PendingDelete(); ok {
		sb.WriteString(ConfirmStyle.Render(fmt.Sprintf("Delete %q? (y/n)", t.Title)) + "\n")
	}
	if toast := a.toast.View(); toast != "" {
		sb.WriteString(toast + "\n")
	}
	if a.panel == panelList {
		sb.WriteString(a.help.View(a.keys) + "\n")
	}
	sb.WriteString(a.info.View())
	return sb.String()
}

func describeFilters(f taskview.Filters) string {
	var parts []string
	if f.Query != "" {
		parts = append(parts, fmt.Sprintf("q=%q", f.Query))
	}
	if f.Status != "" {
		parts = append(parts, "status="+string(f.Status))
	}
	if f.Important != nil {
		parts = append(parts, fmt.Sprintf("important=%t", *f.Important))
	}
	if f.CategoryID != nil {
		parts = append(parts, fmt.Sprintf("category=%d", *f.CategoryID))
	}
	return strings.Join(parts, " ")
}
