package taskview

import (
	"context"
	"errors"
	"testing"
	"time"

	"cloud.google.com/go/civil"

	"github.com/dohr-michael/taskdeck/internal/api"
)

// fakeSource answers from fixed data and records the last list query.
type fakeSource struct {
	list      api.TaskPage
	priority  []api.Task
	upcoming  []api.Task
	category  *api.Category
	err       error
	lastQuery api.TaskQuery
	lastDays  int
}

func (f *fakeSource) ListTasks(_ context.Context, q api.TaskQuery) (*api.TaskPage, error) {
	f.lastQuery = q
	if f.err != nil {
		return nil, f.err
	}
	page := f.list
	page.Page = q.Page
	return &page, nil
}

func (f *fakeSource) PriorityTasks(_ context.Context, limit int) ([]api.Task, error) {
	return f.priority, f.err
}

func (f *fakeSource) UpcomingTasks(_ context.Context, limit, days int) ([]api.Task, error) {
	f.lastDays = days
	return f.upcoming, f.err
}

func (f *fakeSource) GetCategory(_ context.Context, id int64) (*api.Category, error) {
	if f.category == nil {
		return nil, &api.Error{Status: 404}
	}
	return f.category, nil
}

func run(t *testing.T, b *Browser, src Source, req Request) {
	t.Helper()
	if _, err := b.Apply(Fetch(context.Background(), src, req)); err != nil {
		t.Fatalf("apply: %v", err)
	}
}

func ptr[T any](v T) *T { return &v }

func normalSource() *fakeSource {
	return &fakeSource{
		list:     api.TaskPage{Tasks: []api.Task{{ID: 1, Title: "n1"}, {ID: 2, Title: "n2"}}, Limit: 10, Total: 25, TotalPages: 3, HasNext: true},
		priority: []api.Task{{ID: 9, Title: "p"}},
		upcoming: []api.Task{{ID: 8, Title: "u"}},
	}
}

func TestLoad_AppliesNavigationCategory(t *testing.T) {
	src := normalSource()
	src.category = &api.Category{ID: 5, Name: "Work", Icon: "💼"}
	b := New(Options{}, ptr(int64(5)))

	req := b.Load()
	if req.Filters.CategoryID == nil || *req.Filters.CategoryID != 5 || !req.ResolveCategory {
		t.Fatalf("expected category 5 merged into filters, got %+v", req)
	}
	run(t, b, src, req)

	if src.lastQuery.CategoryID == nil || *src.lastQuery.CategoryID != 5 {
		t.Fatalf("category not sent: %+v", src.lastQuery)
	}
	if b.Category() == nil || b.Category().Name != "Work" {
		t.Fatalf("expected banner, got %+v", b.Category())
	}
	if got, want := b.Title(), "💼 Work (25 tasks)"; got != want {
		t.Fatalf("title = %q, want %q", got, want)
	}
}

func TestLoad_CategoryMetadataFailureKeepsTasks(t *testing.T) {
	src := normalSource()
	b := New(Options{}, ptr(int64(5)))
	res := Fetch(context.Background(), src, b.Load())
	if res.CategoryErr == nil {
		t.Fatal("expected category error")
	}
	if _, err := b.Apply(res); err != nil {
		t.Fatal(err)
	}
	if len(b.Tasks()) != 2 || b.Category() != nil {
		t.Fatalf("unexpected state: %d tasks, category %+v", len(b.Tasks()), b.Category())
	}
	if b.Title() != "📋 My tasks" {
		t.Fatalf("unexpected title %q", b.Title())
	}
}

func TestStaleResultsDropped(t *testing.T) {
	src := normalSource()
	b := New(Options{}, nil)
	run(t, b, src, b.Load())

	first, _ := b.NextPage()
	second := b.SwitchMode(ModePriority)

	secondRes := Fetch(context.Background(), src, second)
	firstRes := Fetch(context.Background(), src, first)

	if applied, _ := b.Apply(secondRes); !applied {
		t.Fatal("latest result was not applied")
	}
	if applied, _ := b.Apply(firstRes); applied {
		t.Fatal("stale result was applied")
	}
	if b.Mode() != ModePriority || b.Pagination() != nil || b.Tasks()[0].ID != 9 {
		t.Fatalf("stale page leaked into view: mode=%v tasks=%+v", b.Mode(), b.Tasks())
	}
	if b.Loading() {
		t.Fatal("still loading after latest result")
	}
}

func TestSwitchMode_FailureLeavesViewUntouched(t *testing.T) {
	src := normalSource()
	b := New(Options{}, nil)
	run(t, b, src, b.Load())

	src.err = errors.New("boom")
	applied, err := b.Apply(Fetch(context.Background(), src, b.SwitchMode(ModeUpcoming)))
	if applied || err == nil {
		t.Fatalf("expected failure, got applied=%v err=%v", applied, err)
	}
	if b.Mode() != ModeNormal || len(b.Tasks()) != 2 || b.Pagination() == nil {
		t.Fatalf("view changed after failed switch: mode=%v", b.Mode())
	}
}

func TestSwitchMode_ReplacesResults(t *testing.T) {
	src := normalSource()
	src.category = &api.Category{ID: 5, Name: "Work"}
	b := New(Options{UpcomingDays: 3}, ptr(int64(5)))
	run(t, b, src, b.Load())

	run(t, b, src, b.SwitchMode(ModeUpcoming))
	if src.lastDays != 3 {
		t.Fatalf("expected 3-day window, got %d", src.lastDays)
	}
	if len(b.Tasks()) != 1 || b.Tasks()[0].ID != 8 {
		t.Fatalf("expected only upcoming tasks, got %+v", b.Tasks())
	}
	if b.Category() != nil || b.Pagination() != nil {
		t.Fatal("special view kept category or pagination")
	}
	if b.Title() != "⏰ Upcoming tasks" {
		t.Fatalf("unexpected title %q", b.Title())
	}

	run(t, b, src, b.SwitchMode(ModeNormal))
	if src.lastQuery.Page != 1 || b.Mode() != ModeNormal || b.Tasks()[0].ID != 1 {
		t.Fatalf("unexpected normal view: %+v", b.Tasks())
	}
	if src.lastQuery.CategoryID != nil || b.NavCategory() != nil || b.Category() != nil {
		t.Fatal("category context survived the special view")
	}
}

func TestPaging_NoOpOutsideNormalOrAtEdges(t *testing.T) {
	src := normalSource()
	b := New(Options{}, nil)
	run(t, b, src, b.Load())

	if _, ok := b.PrevPage(); ok {
		t.Fatal("prev page on first page")
	}
	req, ok := b.NextPage()
	if !ok || req.Page != 2 {
		t.Fatalf("expected page 2, got %+v ok=%v", req, ok)
	}
	run(t, b, src, req)

	run(t, b, src, b.SwitchMode(ModePriority))
	if _, ok := b.NextPage(); ok {
		t.Fatal("next page in priority view")
	}
	if _, ok := b.PrevPage(); ok {
		t.Fatal("prev page in priority view")
	}
}

func TestPagingUsesAppliedFilters(t *testing.T) {
	src := normalSource()
	b := New(Options{}, nil)
	b.Draft.Query = "milk"
	run(t, b, src, b.ApplyFilters())

	b.Draft.Query = "unsubmitted"
	req, ok := b.NextPage()
	if !ok {
		t.Fatal("expected next page")
	}
	if req.Filters.Query != "milk" {
		t.Fatalf("paging used draft filters: %+v", req.Filters)
	}
}

func TestApplyFilters_KeepsPageSize(t *testing.T) {
	src := normalSource()
	src.list.Limit = 25
	b := New(Options{PageSize: 10}, nil)
	run(t, b, src, b.Load())
	req := b.ApplyFilters()
	if req.Page != 1 || req.Limit != 25 {
		t.Fatalf("expected page 1 with limit 25, got %+v", req)
	}
}

func TestClearCategory_DropsMarker(t *testing.T) {
	src := normalSource()
	src.category = &api.Category{ID: 5, Name: "Work"}
	b := New(Options{}, ptr(int64(5)))
	run(t, b, src, b.Load())

	run(t, b, src, b.ClearCategory())
	if b.NavCategory() != nil || b.Category() != nil || b.Filters().CategoryID != nil {
		t.Fatal("category context survived clearing")
	}
	req := b.Reload()
	if req.Filters.CategoryID != nil || req.ResolveCategory {
		t.Fatalf("reload re-applied stale category: %+v", req)
	}
}

func TestClearCategory_FailedFetchKeepsMarker(t *testing.T) {
	src := normalSource()
	src.category = &api.Category{ID: 5, Name: "Work"}
	b := New(Options{}, ptr(int64(5)))
	run(t, b, src, b.Load())

	src.err = errors.New("offline")
	if _, err := b.Apply(Fetch(context.Background(), src, b.ClearCategory())); err == nil {
		t.Fatal("expected fetch error")
	}
	if b.NavCategory() == nil || b.Category() == nil || b.Draft.CategoryID == nil {
		t.Fatal("failed clear dropped the category context")
	}

	src.err = nil
	run(t, b, src, b.ClearCategory())
	if b.NavCategory() != nil || b.Draft.CategoryID != nil {
		t.Fatal("successful clear kept the category context")
	}
}

func TestClearFilters_FailedFetchKeepsDraft(t *testing.T) {
	src := normalSource()
	b := New(Options{}, ptr(int64(5)))
	run(t, b, src, b.Load())
	b.Draft.Query = "x"
	run(t, b, src, b.ApplyFilters())

	src.err = errors.New("offline")
	if _, err := b.Apply(Fetch(context.Background(), src, b.ClearFilters())); err == nil {
		t.Fatal("expected fetch error")
	}
	if b.Draft.Query != "x" || b.NavCategory() == nil {
		t.Fatalf("failed clear changed state: draft %+v nav %v", b.Draft, b.NavCategory())
	}
}

func TestNavigate_SetsMarker(t *testing.T) {
	src := normalSource()
	src.category = &api.Category{ID: 7, Name: "Home"}
	b := New(Options{}, nil)
	run(t, b, src, b.Navigate(7))
	if b.Category() == nil || b.Category().ID != 7 {
		t.Fatal("expected category banner")
	}
	req := b.Reload()
	if req.Filters.CategoryID == nil || *req.Filters.CategoryID != 7 {
		t.Fatalf("reload lost navigation category: %+v", req)
	}
}

func TestClearFilters(t *testing.T) {
	src := normalSource()
	src.category = &api.Category{ID: 5}
	b := New(Options{}, ptr(int64(5)))
	run(t, b, src, b.Load())
	b.Draft.Query = "x"
	b.Draft.Important = ptr(true)
	run(t, b, src, b.ApplyFilters())

	run(t, b, src, b.ClearFilters())
	if !b.Filters().IsZero() || !b.Draft.IsZero() || b.Category() != nil || b.NavCategory() != nil {
		t.Fatalf("filters not cleared: %+v", b.Filters())
	}
	if src.lastQuery.Page != 1 || src.lastQuery.Query != "" || src.lastQuery.CategoryID != nil {
		t.Fatalf("unexpected query after clear: %+v", src.lastQuery)
	}
}

func TestEdit_CommitReplacesInPlace(t *testing.T) {
	src := normalSource()
	b := New(Options{}, nil)
	run(t, b, src, b.Load())

	d, err := b.BeginEdit(2)
	if err != nil {
		t.Fatal(err)
	}
	d.Title = "changed"
	if _, ok := b.Editing(); !ok {
		t.Fatal("expected edit mode")
	}
	b.CommitEdit(api.Task{ID: 2, Title: "changed"})
	if _, ok := b.Editing(); ok {
		t.Fatal("edit mode survived commit")
	}
	if b.Tasks()[1].Title != "changed" || b.Tasks()[0].Title != "n1" {
		t.Fatalf("unexpected tasks: %+v", b.Tasks())
	}

	if _, err := b.BeginEdit(99); !errors.Is(err, ErrNotDisplayed) {
		t.Fatalf("expected ErrNotDisplayed, got %v", err)
	}
}

func TestDraftNormalize(t *testing.T) {
	cases := []struct {
		name      string
		status    api.TaskStatus
		completed bool
		want      api.TaskStatus
	}{
		{"checked", api.StatusPending, true, api.StatusCompleted},
		{"checked in progress", api.StatusInProgress, true, api.StatusCompleted},
		{"unchecked was completed", api.StatusCompleted, false, api.StatusPending},
		{"unchecked in progress", api.StatusInProgress, false, api.StatusInProgress},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			d := &Draft{Title: "t", Status: tc.status, Completed: tc.completed}
			up, err := d.Update(time.Now())
			if err != nil {
				t.Fatal(err)
			}
			if *up.Status != tc.want || *up.Completed != tc.completed {
				t.Fatalf("status=%s completed=%v", *up.Status, *up.Completed)
			}
		})
	}
}

func TestDraftUpdate_DueDate(t *testing.T) {
	now := time.Date(2026, 7, 1, 23, 30, 0, 0, time.Local)
	today := civil.DateOf(now)
	late := civil.Time{Hour: 1}

	d := &Draft{Title: "t", DueDate: &today, DueTime: &late}
	if _, err := d.Update(now); err != nil {
		t.Fatalf("today rejected: %v", err)
	}
	yesterday := today.AddDays(-1)
	d.DueDate = &yesterday
	if _, err := d.Update(now); !errors.Is(err, api.ErrValidation) {
		t.Fatalf("yesterday accepted: %v", err)
	}
}

func TestConfirmation(t *testing.T) {
	var c Confirmation[int]
	if _, ok := c.Confirm(); ok {
		t.Fatal("idle confirmation confirmed")
	}
	c.Request(3)
	if v, ok := c.Pending(); !ok || v != 3 {
		t.Fatalf("pending = %v %v", v, ok)
	}
	c.Cancel()
	if _, ok := c.Pending(); ok {
		t.Fatal("cancel did not reset")
	}
	c.Request(4)
	if v, ok := c.Confirm(); !ok || v != 4 {
		t.Fatalf("confirm = %v %v", v, ok)
	}
	if _, ok := c.Pending(); ok {
		t.Fatal("confirm did not reset")
	}
}

func TestDeleteFlow(t *testing.T) {
	src := normalSource()
	b := New(Options{}, nil)
	run(t, b, src, b.Load())

	if err := b.RequestDelete(1); err != nil {
		t.Fatal(err)
	}
	if task, ok := b.PendingDelete(); !ok || task.ID != 1 {
		t.Fatalf("pending = %+v %v", task, ok)
	}
	b.CancelDelete()
	if _, ok := b.ConfirmDelete(); ok {
		t.Fatal("cancelled delete confirmed")
	}

	b.RequestDelete(2)
	task, ok := b.ConfirmDelete()
	if !ok || task.ID != 2 {
		t.Fatalf("confirm = %+v %v", task, ok)
	}
	req := b.AfterDelete()
	if req.Mode != ModeNormal || req.Page != 1 {
		t.Fatalf("unexpected refetch %+v", req)
	}
}
