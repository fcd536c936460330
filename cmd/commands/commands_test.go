package commands

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
	"text/tabwriter"
	"time"

	"github.com/dohr-michael/taskdeck/internal/api"
	"github.com/dohr-michael/taskdeck/internal/devserver"
)

// cliHarness runs the root command against an in-process dev server with
// an isolated home directory.
type cliHarness struct {
	t    *testing.T
	home string
	url  string
}

func newCLIHarness(t *testing.T) *cliHarness {
	t.Helper()
	home := t.TempDir()
	t.Setenv("TASKDECK_PATH", home)
	t.Setenv("TASKDECK_API_URL", "")
	t.Setenv("TASKDECK_PASSWORD", "")

	srv := devserver.New(devserver.Options{Secret: "cli-test"})
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)

	return &cliHarness{t: t, home: home, url: ts.URL}
}

func (h *cliHarness) run(args ...string) (string, error) {
	h.t.Helper()
	var buf bytes.Buffer
	old := stdout
	stdout = &buf
	defer func() { stdout = old }()

	argv := append([]string{"taskdeck", "--api-url", h.url}, args...)
	err := NewRootCommand().Run(context.Background(), argv)
	return buf.String(), err
}

func (h *cliHarness) mustRun(args ...string) string {
	h.t.Helper()
	out, err := h.run(args...)
	if err != nil {
		h.t.Fatalf("taskdeck %s: %v", strings.Join(args, " "), err)
	}
	return out
}

func TestCLITaskLifecycle(t *testing.T) {
	h := newCLIHarness(t)

	out := h.mustRun("register", "--name", "Ada", "--email", "ada@example.com", "--password", "secret1")
	if !strings.Contains(out, "Signed in as Ada <ada@example.com>") {
		t.Fatalf("register output = %q", out)
	}
	if _, err := os.Stat(filepath.Join(h.home, "session.json")); err != nil {
		t.Fatalf("session not saved: %v", err)
	}

	tomorrow := time.Now().AddDate(0, 0, 1).Format("2006-01-02")
	out = h.mustRun("tasks", "create", "--priority", "high", "--due", tomorrow, "--time", "09:30", "-o", "json", "Write report")
	var created api.Task
	if err := json.Unmarshal([]byte(out), &created); err != nil {
		t.Fatalf("decode created task: %v\n%s", err, out)
	}
	if created.Title != "Write report" || created.Priority != api.PriorityHigh {
		t.Fatalf("created = %+v", created)
	}
	id := strconv.FormatInt(created.ID, 10)

	out = h.mustRun("tasks", "list", "-o", "json")
	var page api.TaskPage
	if err := json.Unmarshal([]byte(out), &page); err != nil {
		t.Fatalf("decode page: %v", err)
	}
	if page.Total != 1 || len(page.Tasks) != 1 || page.Tasks[0].ID != created.ID {
		t.Fatalf("page = %+v", page)
	}

	out = h.mustRun("tasks", "edit", "--completed", "-o", "json", id)
	var edited api.Task
	if err := json.Unmarshal([]byte(out), &edited); err != nil {
		t.Fatalf("decode edited task: %v", err)
	}
	if !edited.Completed || edited.Status != api.StatusCompleted {
		t.Errorf("edited = completed %v status %s", edited.Completed, edited.Status)
	}

	out = h.mustRun("tasks", "edit", "--completed=false", "-o", "json", id)
	if err := json.Unmarshal([]byte(out), &edited); err != nil {
		t.Fatalf("decode reopened task: %v", err)
	}
	if edited.Completed || edited.Status != api.StatusPending {
		t.Errorf("reopened = completed %v status %s", edited.Completed, edited.Status)
	}

	out = h.mustRun("tasks", "delete", "--yes", id)
	if !strings.Contains(out, "Deleted task "+id) {
		t.Errorf("delete output = %q", out)
	}

	out = h.mustRun("history", "-o", "json")
	var entries []map[string]any
	if err := json.Unmarshal([]byte(out), &entries); err != nil {
		t.Fatalf("decode history: %v", err)
	}
	var types []string
	for _, e := range entries {
		types = append(types, e["type"].(string))
	}
	want := "session.started task.created task.updated task.updated task.deleted"
	if got := strings.Join(types, " "); got != want {
		t.Errorf("history = %q, want %q", got, want)
	}
}

func TestCLIRejectsPastDueDate(t *testing.T) {
	h := newCLIHarness(t)
	h.mustRun("register", "--name", "Ada", "--email", "ada@example.com", "--password", "secret1")

	yesterday := time.Now().AddDate(0, 0, -1).Format("2006-01-02")
	_, err := h.run("tasks", "create", "--due", yesterday, "Too late")
	if err == nil || !strings.Contains(err.Error(), "past") {
		t.Fatalf("expected past due date error, got %v", err)
	}
}

func TestCLICategories(t *testing.T) {
	h := newCLIHarness(t)
	h.mustRun("register", "--name", "Ada", "--email", "ada@example.com", "--password", "secret1")

	out := h.mustRun("categories", "create", "-o", "json", "Work")
	var cat api.Category
	if err := json.Unmarshal([]byte(out), &cat); err != nil {
		t.Fatalf("decode category: %v", err)
	}
	if cat.Color != api.DefaultCategoryColor || cat.Icon != api.DefaultCategoryIcon {
		t.Errorf("defaults not applied: %+v", cat)
	}

	if _, err := h.run("categories", "create", "Work"); err == nil {
		t.Error("expected duplicate category to fail")
	}

	catID := strconv.FormatInt(cat.ID, 10)
	h.mustRun("tasks", "create", "--category", catID, "Plan sprint")

	out = h.mustRun("categories", "list")
	if !strings.Contains(out, "Work") || !strings.Contains(out, "TASKS") {
		t.Errorf("list output = %q", out)
	}

	out = h.mustRun("categories", "tasks", catID)
	if !strings.Contains(out, "Plan sprint") {
		t.Errorf("category tasks output = %q", out)
	}

	h.mustRun("categories", "delete", "--yes", catID)
	out = h.mustRun("tasks", "list", "-o", "json")
	var page api.TaskPage
	if err := json.Unmarshal([]byte(out), &page); err != nil {
		t.Fatalf("decode page: %v", err)
	}
	if len(page.Tasks) != 1 || page.Tasks[0].CategoryID != nil {
		t.Errorf("task should survive without category: %+v", page.Tasks)
	}
}

func TestCLIRequiresSession(t *testing.T) {
	h := newCLIHarness(t)
	_, err := h.run("tasks", "list")
	if !errors.Is(err, errNotLoggedIn) {
		t.Fatalf("err = %v, want errNotLoggedIn", err)
	}
}

func TestCLILoginLogout(t *testing.T) {
	h := newCLIHarness(t)
	h.mustRun("register", "--name", "Ada", "--email", "ada@example.com", "--password", "secret1")
	h.mustRun("logout")

	if _, err := h.run("login", "--email", "ada@example.com", "--password", "nope123"); err == nil {
		t.Fatal("expected bad credentials to fail")
	}
	out := h.mustRun("login", "--email", "ada@example.com", "--password", "secret1")
	if !strings.Contains(out, "Signed in as Ada") {
		t.Errorf("login output = %q", out)
	}

	out = h.mustRun("status", "-o", "json")
	var rep statusReport
	if err := json.Unmarshal([]byte(out), &rep); err != nil {
		t.Fatalf("decode status: %v", err)
	}
	if !rep.Reachable || !rep.LoggedIn || !rep.Valid || rep.User != "ada@example.com" {
		t.Errorf("status = %+v", rep)
	}
}

func TestRenderFormats(t *testing.T) {
	v := map[string]any{"title": "x", "is_completed": true}

	var buf bytes.Buffer
	if err := render(&buf, "yaml", v, nil); err != nil {
		t.Fatal(err)
	}
	if got := buf.String(); !strings.Contains(got, "is_completed: true") || !strings.Contains(got, "title: x") {
		t.Errorf("yaml = %q", got)
	}

	buf.Reset()
	if err := render(&buf, "table", v, func(w *tabwriter.Writer) {
		w.Write([]byte("A\tB\nlonger\tC\n"))
	}); err != nil {
		t.Fatal(err)
	}
	if got := buf.String(); got != "A       B\nlonger  C\n" {
		t.Errorf("table = %q", got)
	}
}

func TestInitHomeIdempotent(t *testing.T) {
	root := filepath.Join(t.TempDir(), "home")

	var buf bytes.Buffer
	if err := initHome(&buf, root); err != nil {
		t.Fatalf("initHome: %v", err)
	}
	for _, name := range []string{"config.jsonc", ".env", ".age-key", "logs"} {
		if _, err := os.Stat(filepath.Join(root, name)); err != nil {
			t.Errorf("%s missing: %v", name, err)
		}
	}

	buf.Reset()
	if err := initHome(&buf, root); err != nil {
		t.Fatalf("second initHome: %v", err)
	}
	if !strings.Contains(buf.String(), "Nothing to do") {
		t.Errorf("second run output = %q", buf.String())
	}
}

func TestCLIEditClearsDueAndCategory(t *testing.T) {
	h := newCLIHarness(t)
	h.mustRun("register", "--name", "Ada", "--email", "ada@example.com", "--password", "secret1")

	out := h.mustRun("categories", "create", "-o", "json", "Work")
	var cat api.Category
	if err := json.Unmarshal([]byte(out), &cat); err != nil {
		t.Fatalf("decode category: %v", err)
	}
	tomorrow := time.Now().AddDate(0, 0, 1).Format("2006-01-02")
	out = h.mustRun("tasks", "create", "--due", tomorrow, "--time", "10:00",
		"--category", strconv.FormatInt(cat.ID, 10), "-o", "json", "Review")
	var task api.Task
	if err := json.Unmarshal([]byte(out), &task); err != nil {
		t.Fatalf("decode task: %v", err)
	}
	id := strconv.FormatInt(task.ID, 10)

	out = h.mustRun("tasks", "edit", "--clear-due", "-o", "json", id)
	if err := json.Unmarshal([]byte(out), &task); err != nil {
		t.Fatalf("decode edited task: %v", err)
	}
	if task.DueDate != nil || task.DueTime != nil {
		t.Errorf("due not cleared: date=%v time=%v", task.DueDate, task.DueTime)
	}
	if task.CategoryID == nil || *task.CategoryID != cat.ID {
		t.Errorf("category must survive --clear-due: %v", task.CategoryID)
	}

	out = h.mustRun("tasks", "edit", "--clear-category", "-o", "json", id)
	if err := json.Unmarshal([]byte(out), &task); err != nil {
		t.Fatalf("decode edited task: %v", err)
	}
	if task.CategoryID != nil {
		t.Errorf("category not cleared: %v", *task.CategoryID)
	}
}
