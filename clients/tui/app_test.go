package tui

import (
	"context"
	"fmt"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/dohr-michael/taskdeck/clients/tui/molecules"
	"github.com/dohr-michael/taskdeck/internal/api"
	"github.com/dohr-michael/taskdeck/internal/devserver"
	"github.com/dohr-michael/taskdeck/internal/events"
	"github.com/dohr-michael/taskdeck/internal/taskview"
)

type harness struct {
	app     *App
	client  *api.Client
	server  *httptest.Server
	notices <-chan events.Event
}

func newHarness(t *testing.T, category *int64) *harness {
	t.Helper()
	ts := httptest.NewServer(devserver.New(devserver.Options{Secret: "test"}).Handler())
	t.Cleanup(ts.Close)

	anon, err := api.New(api.Options{BaseURL: ts.URL})
	if err != nil {
		t.Fatal(err)
	}
	auth, err := anon.Register(context.Background(), api.Registration{Name: "Ada", Email: "ada@example.com", Password: "secret1"})
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	client, err := anon.WithToken(auth.AccessToken)
	if err != nil {
		t.Fatal(err)
	}

	bus := events.NewBus(64)
	t.Cleanup(bus.Close)
	notices, unsub := bus.SubscribeChan(64, events.EventNotice)
	t.Cleanup(unsub)

	app := NewApp(context.Background(), Options{
		Backend:  client,
		Bus:      bus,
		Browser:  taskview.Options{PageSize: 10},
		Category: category,
		User:     "Ada",
	})
	t.Cleanup(app.Close)
	app.Update(tea.WindowSizeMsg{Width: 120, Height: 40})
	return &harness{app: app, client: client, server: ts, notices: notices}
}

// run executes cmd, giving up after a short wait so timers and the bus
// listener do not stall the test.
func run(cmd tea.Cmd) (tea.Msg, bool) {
	out := make(chan tea.Msg, 1)
	go func() { out <- cmd() }()
	select {
	case msg := <-out:
		return msg, true
	case <-time.After(300 * time.Millisecond):
		return nil, false
	}
}

// drive feeds cmd and everything it produces back into the app until the
// loop settles.
func (h *harness) drive(t *testing.T, cmd tea.Cmd) {
	t.Helper()
	queue := []tea.Cmd{cmd}
	for steps := 0; len(queue) > 0; steps++ {
		if steps > 500 {
			t.Fatal("update loop did not settle")
		}
		c := queue[0]
		queue = queue[1:]
		if c == nil {
			continue
		}
		msg, ok := run(c)
		if !ok || msg == nil {
			continue
		}
		switch m := msg.(type) {
		case tea.BatchMsg:
			queue = append(queue, m...)
			continue
		case tea.QuitMsg:
			continue
		}
		_, next := h.app.Update(msg)
		queue = append(queue, next)
	}
}

func (h *harness) init(t *testing.T) {
	t.Helper()
	h.drive(t, h.app.Init())
}

func (h *harness) press(t *testing.T, keys ...string) {
	t.Helper()
	for _, k := range keys {
		var msg tea.KeyMsg
		switch k {
		case "enter":
			msg = tea.KeyMsg{Type: tea.KeyEnter}
		case "tab":
			msg = tea.KeyMsg{Type: tea.KeyTab}
		case "esc":
			msg = tea.KeyMsg{Type: tea.KeyEsc}
		case "space":
			msg = tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}}
		default:
			msg = tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(k)}
		}
		_, cmd := h.app.Update(msg)
		h.drive(t, cmd)
	}
}

func (h *harness) typeText(t *testing.T, s string) {
	t.Helper()
	_, cmd := h.app.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)})
	h.drive(t, cmd)
}

func (h *harness) expectNotice(t *testing.T, level events.Level, contains string) {
	t.Helper()
	deadline := time.After(2 * time.Second)
	for {
		select {
		case evt := <-h.notices:
			p, ok := events.GetNoticePayload(evt)
			if ok && p.Level == level && strings.Contains(p.Text, contains) {
				return
			}
		case <-deadline:
			t.Fatalf("no %s notice containing %q", level, contains)
		}
	}
}

func (h *harness) seed(t *testing.T, n int, in func(i int) api.TaskInput) []api.Task {
	t.Helper()
	var out []api.Task
	for i := range n {
		task, err := h.client.CreateTask(context.Background(), in(i))
		if err != nil {
			t.Fatalf("seed %d: %v", i, err)
		}
		out = append(out, *task)
	}
	return out
}

func titled(i int) api.TaskInput { return api.TaskInput{Title: fmt.Sprintf("task %02d", i)} }

func TestApp_InitLoadsFirstPage(t *testing.T) {
	h := newHarness(t, nil)
	h.seed(t, 12, titled)
	h.init(t)

	b := h.app.Browser()
	if len(b.Tasks()) != 10 {
		t.Fatalf("expected 10 tasks on page 1, got %d", len(b.Tasks()))
	}
	if b.Loading() {
		t.Fatal("expected fetch settled")
	}
	view := h.app.View()
	for _, want := range []string{"📋 My tasks", "page 1/2", "Ada"} {
		if !strings.Contains(view, want) {
			t.Errorf("view missing %q", want)
		}
	}
}

func TestApp_ModeKeys(t *testing.T) {
	h := newHarness(t, nil)
	h.seed(t, 3, titled)
	h.init(t)

	h.press(t, "2")
	if h.app.Browser().Mode() != taskview.ModePriority || h.app.Browser().Pagination() != nil {
		t.Fatalf("expected priority view, got %v", h.app.Browser().Mode())
	}
	if !strings.Contains(h.app.View(), "🚨 Priority tasks") {
		t.Error("priority title not shown")
	}

	h.press(t, "3")
	if h.app.Browser().Mode() != taskview.ModeUpcoming {
		t.Fatalf("expected upcoming view, got %v", h.app.Browser().Mode())
	}

	h.press(t, "1")
	if h.app.Browser().Mode() != taskview.ModeNormal || h.app.Browser().Pagination() == nil {
		t.Fatal("expected normal view with pagination")
	}
}

func TestApp_PageKeys(t *testing.T) {
	h := newHarness(t, nil)
	h.seed(t, 25, titled)
	h.init(t)

	h.press(t, "n", "n")
	p := h.app.Browser().Pagination()
	if p.Page != 3 || p.HasNext {
		t.Fatalf("expected last page, got %+v", p)
	}
	h.press(t, "n")
	if h.app.Browser().Pagination().Page != 3 {
		t.Fatal("next on last page must be a no-op")
	}
	h.press(t, "p")
	if h.app.Browser().Pagination().Page != 2 {
		t.Fatalf("expected page 2, got %d", h.app.Browser().Pagination().Page)
	}
}

func TestApp_FilterForm(t *testing.T) {
	h := newHarness(t, nil)
	h.seed(t, 4, func(i int) api.TaskInput {
		if i%2 == 0 {
			return api.TaskInput{Title: fmt.Sprintf("buy milk %d", i)}
		}
		return api.TaskInput{Title: fmt.Sprintf("call bob %d", i)}
	})
	h.init(t)

	h.press(t, "/")
	h.typeText(t, "milk")
	h.press(t, "enter")

	b := h.app.Browser()
	if b.Filters().Query != "milk" {
		t.Fatalf("expected applied query, got %+v", b.Filters())
	}
	if len(b.Tasks()) != 2 {
		t.Fatalf("expected 2 matches, got %d", len(b.Tasks()))
	}
	if !strings.Contains(h.app.View(), `q="milk"`) {
		t.Error("filter summary not shown")
	}

	h.press(t, "x")
	if !b.Filters().IsZero() || len(b.Tasks()) != 4 {
		t.Fatalf("expected filters cleared, got %+v with %d tasks", b.Filters(), len(b.Tasks()))
	}
}

func TestApp_EditMarksCompleted(t *testing.T) {
	h := newHarness(t, nil)
	h.seed(t, 1, titled)
	h.init(t)

	h.press(t, "e")
	// title, description, due date, due time, priority, status, important, completed
	h.press(t, "tab", "tab", "tab", "tab", "tab", "tab", "tab", "space", "enter")

	h.expectNotice(t, events.LevelSuccess, "Task updated")
	task := h.app.Browser().Tasks()[0]
	if !task.Completed || task.Status != api.StatusCompleted {
		t.Fatalf("expected completed task in place, got %+v", task)
	}
	if _, editing := h.app.Browser().Editing(); editing {
		t.Fatal("expected edit mode left after save")
	}
}

func TestApp_EditRejectsPastDueDate(t *testing.T) {
	h := newHarness(t, nil)
	seeded := h.seed(t, 1, titled)
	h.init(t)

	yesterday := time.Now().AddDate(0, 0, -1).Format("2006-01-02")
	h.press(t, "e", "tab", "tab")
	h.typeText(t, yesterday)
	h.press(t, "enter")

	h.expectNotice(t, events.LevelError, "due_date")
	if _, editing := h.app.Browser().Editing(); !editing {
		t.Fatal("edit mode must stay open after a rejected save")
	}
	stored, err := h.client.GetTask(context.Background(), seeded[0].ID)
	if err != nil {
		t.Fatal(err)
	}
	if stored.DueDate != nil {
		t.Fatalf("task must not be updated, got due date %v", stored.DueDate)
	}

	h.press(t, "esc")
	if _, editing := h.app.Browser().Editing(); editing {
		t.Fatal("esc must cancel the edit")
	}
}

func TestApp_DeleteConfirm(t *testing.T) {
	h := newHarness(t, nil)
	h.seed(t, 2, titled)
	h.init(t)

	h.press(t, "d")
	if !strings.Contains(h.app.View(), "(y/n)") {
		t.Fatal("expected confirmation prompt")
	}
	h.press(t, "n")
	if len(h.app.Browser().Tasks()) != 2 {
		t.Fatal("cancelled delete must keep the task")
	}

	target := h.app.Browser().Tasks()[0]
	h.press(t, "d", "y")
	h.expectNotice(t, events.LevelSuccess, "Task deleted")
	for _, task := range h.app.Browser().Tasks() {
		if task.ID == target.ID {
			t.Fatal("deleted task still displayed after refetch")
		}
	}
}

func TestApp_CreateTask(t *testing.T) {
	h := newHarness(t, nil)
	h.init(t)

	h.press(t, "a")
	h.typeText(t, "write report")
	h.press(t, "enter")

	h.expectNotice(t, events.LevelSuccess, "Task created")
	tasks := h.app.Browser().Tasks()
	if len(tasks) != 1 || tasks[0].Title != "write report" || tasks[0].Priority != api.PriorityMedium {
		t.Fatalf("unexpected tasks after create: %+v", tasks)
	}
}

func TestApp_CreateRequiresTitle(t *testing.T) {
	h := newHarness(t, nil)
	h.init(t)

	h.press(t, "a", "enter")
	h.expectNotice(t, events.LevelError, "title")
	if len(h.app.Browser().Tasks()) != 0 {
		t.Fatal("no task should be created")
	}
}

func TestApp_StaleFetchDropped(t *testing.T) {
	h := newHarness(t, nil)
	h.seed(t, 2, titled)
	h.init(t)

	b := h.app.Browser()
	slow := b.SwitchMode(taskview.ModePriority)
	fast := b.SwitchMode(taskview.ModeUpcoming)

	h.app.Update(fetchedMsg{res: taskview.Fetch(context.Background(), h.client, fast)})
	h.app.Update(fetchedMsg{res: taskview.Fetch(context.Background(), h.client, slow)})

	if b.Mode() != taskview.ModeUpcoming {
		t.Fatalf("stale completion replaced the view: mode %v", b.Mode())
	}
}

func TestApp_FetchFailureKeepsView(t *testing.T) {
	h := newHarness(t, nil)
	h.seed(t, 3, titled)
	h.init(t)
	before := len(h.app.Browser().Tasks())

	h.server.Close()
	h.press(t, "2")

	h.expectNotice(t, events.LevelError, "Could not load tasks")
	b := h.app.Browser()
	if b.Mode() != taskview.ModeNormal || len(b.Tasks()) != before {
		t.Fatalf("failed fetch changed the view: mode %v, %d tasks", b.Mode(), len(b.Tasks()))
	}
}

func TestApp_GoToCategory(t *testing.T) {
	h := newHarness(t, nil)
	cat, err := h.client.CreateCategory(context.Background(), api.CategoryInput{Name: "Work", Icon: "💼"})
	if err != nil {
		t.Fatal(err)
	}
	h.seed(t, 3, func(i int) api.TaskInput {
		in := titled(i)
		if i == 0 {
			in.CategoryID = &cat.ID
		}
		return in
	})
	h.init(t)

	for i, task := range h.app.Browser().Tasks() {
		if task.CategoryID != nil {
			for range i {
				h.press(t, "j")
			}
			break
		}
	}
	h.press(t, "g")

	b := h.app.Browser()
	if b.Category() == nil || b.Category().ID != cat.ID {
		t.Fatalf("expected category banner for %d, got %+v", cat.ID, b.Category())
	}
	if len(b.Tasks()) != 1 || !strings.Contains(h.app.View(), "💼 Work (1 task)") {
		t.Fatalf("expected one task in Work, got %d", len(b.Tasks()))
	}

	h.press(t, "c")
	if b.Category() != nil || b.NavCategory() != nil || len(b.Tasks()) != 3 {
		t.Fatal("clear category must drop banner, marker and filter")
	}
}

func TestApp_NavigationMarker(t *testing.T) {
	base := newHarness(t, nil)
	cat, err := base.client.CreateCategory(context.Background(), api.CategoryInput{Name: "Home"})
	if err != nil {
		t.Fatal(err)
	}
	base.seed(t, 2, func(i int) api.TaskInput {
		in := titled(i)
		in.CategoryID = &cat.ID
		return in
	})

	h := &harness{client: base.client, notices: base.notices}
	h.app = NewApp(context.Background(), Options{Backend: base.client, Category: &cat.ID})
	t.Cleanup(h.app.Close)
	h.init(t)

	b := h.app.Browser()
	if b.Category() == nil || b.Category().Name != "Home" || len(b.Tasks()) != 2 {
		t.Fatalf("navigation marker not applied: %+v", b.Category())
	}
}

func TestApp_NotificationsPanel(t *testing.T) {
	h := newHarness(t, nil)
	h.seed(t, 2, titled)
	h.init(t)

	if h.app.info.Unread() != 2 {
		t.Fatalf("expected 2 unread on the badge, got %d", h.app.info.Unread())
	}
	if !strings.Contains(h.app.View(), "🔔 2") {
		t.Error("unread badge not shown")
	}

	h.press(t, "N")
	if len(h.app.notifs.Items()) != 2 {
		t.Fatalf("expected 2 notifications, got %d", len(h.app.notifs.Items()))
	}
	h.press(t, "enter")
	if h.app.info.Unread() != 1 {
		t.Fatalf("expected 1 unread after mark read, got %d", h.app.info.Unread())
	}
	h.press(t, "R")
	if h.app.info.Unread() != 0 {
		t.Fatalf("expected 0 unread after mark all, got %d", h.app.info.Unread())
	}
	h.press(t, "d")
	if len(h.app.notifs.Items()) != 1 {
		t.Fatalf("expected 1 notification after delete, got %d", len(h.app.notifs.Items()))
	}
	h.press(t, "esc")
	if h.app.panel != panelList {
		t.Fatal("esc must return to the list")
	}
}

func TestApp_ToastLifecycle(t *testing.T) {
	h := newHarness(t, nil)

	h.app.Update(NoticeMsg{Level: events.LevelError, Text: "boom"})
	if !strings.Contains(h.app.View(), "boom") {
		t.Fatal("toast not shown")
	}
	h.app.Update(NoticeMsg{Level: events.LevelInfo, Text: "second"})
	h.app.Update(molecules.ToastExpiredMsg{ID: 1})
	if !strings.Contains(h.app.View(), "second") {
		t.Fatal("an older expiry must not hide a newer toast")
	}
	h.app.Update(molecules.ToastExpiredMsg{ID: 2})
	if strings.Contains(h.app.View(), "second") {
		t.Fatal("toast not cleared on expiry")
	}
}

func TestApp_DetailView(t *testing.T) {
	h := newHarness(t, nil)
	h.seed(t, 1, func(int) api.TaskInput {
		return api.TaskInput{Title: "plan trip", Description: "Book **flights**"}
	})
	h.init(t)

	h.press(t, "enter")
	view := h.app.View()
	if !strings.Contains(view, "plan trip") || !strings.Contains(view, "flights") {
		t.Fatalf("detail view incomplete:\n%s", view)
	}
	h.press(t, "esc")
	if h.app.panel != panelList {
		t.Fatal("esc must leave the detail view")
	}
}

func TestProject(t *testing.T) {
	msg := Project(events.Notice(events.SourceBrowser, events.LevelSuccess, "ok"))
	if n, ok := msg.(NoticeMsg); !ok || n.Text != "ok" || n.Level != events.LevelSuccess {
		t.Fatalf("unexpected projection: %#v", msg)
	}
	fetch := events.NewTypedEvent(events.SourceBrowser, events.FetchPayload{Stage: events.FetchIssued})
	if Project(fetch) != nil {
		t.Fatal("fetch events have no TUI message")
	}
}

func TestApp_NoticeWhenUnreadRisesFromZero(t *testing.T) {
	h := newHarness(t, nil)
	h.init(t)
	if h.app.info.Unread() != 0 {
		t.Fatalf("unread = %d, want 0", h.app.info.Unread())
	}

	_, cmd := h.app.Update(notificationsMsg{list: &api.NotificationList{Total: 1, UnreadCount: 1}, poll: true})
	h.drive(t, cmd)

	h.expectNotice(t, events.LevelInfo, "1 new notification")
	if h.app.info.Unread() != 1 {
		t.Fatalf("unread = %d, want 1", h.app.info.Unread())
	}
}

func TestApp_NotificationsPanelShowsRecentMessages(t *testing.T) {
	h := newHarness(t, nil)
	h.init(t)

	h.app.notify(events.LevelSuccess, "Saved the plan")
	h.expectNotice(t, events.LevelSuccess, "Saved the plan")

	h.press(t, "N")
	view := h.app.View()
	if !strings.Contains(view, "Recent messages") || !strings.Contains(view, "Saved the plan") {
		t.Fatalf("recent messages missing from notifications panel:\n%s", view)
	}
}
