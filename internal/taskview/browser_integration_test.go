package taskview_test

import (
	"context"
	"errors"
	"fmt"
	"net/http/httptest"
	"slices"
	"testing"
	"time"

	"cloud.google.com/go/civil"

	"github.com/dohr-michael/taskdeck/internal/api"
	"github.com/dohr-michael/taskdeck/internal/devserver"
	"github.com/dohr-michael/taskdeck/internal/taskview"
)

func newClient(t *testing.T) *api.Client {
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
	c, err := anon.WithToken(auth.AccessToken)
	if err != nil {
		t.Fatal(err)
	}
	return c
}

func apply(t *testing.T, b *taskview.Browser, c *api.Client, req taskview.Request) {
	t.Helper()
	applied, err := b.Apply(taskview.Fetch(context.Background(), c, req))
	if err != nil || !applied {
		t.Fatalf("apply %v: applied=%v err=%v", req.Mode, applied, err)
	}
}

func ids(tasks []api.Task) []int64 {
	out := make([]int64, len(tasks))
	for i, task := range tasks {
		out[i] = task.ID
	}
	return out
}

func seed(t *testing.T, c *api.Client, n int, in func(i int) api.TaskInput) []api.Task {
	t.Helper()
	var out []api.Task
	for i := 0; i < n; i++ {
		task, err := c.CreateTask(context.Background(), in(i))
		if err != nil {
			t.Fatalf("seed %d: %v", i, err)
		}
		out = append(out, *task)
	}
	return out
}

func TestPaginationScenario(t *testing.T) {
	c := newClient(t)
	seed(t, c, 25, func(i int) api.TaskInput { return api.TaskInput{Title: fmt.Sprintf("task %02d", i)} })

	b := taskview.New(taskview.Options{PageSize: 10}, nil)
	apply(t, b, c, b.Load())
	req, _ := b.NextPage()
	apply(t, b, c, req)

	p := b.Pagination()
	if p.Page != 2 || p.Limit != 10 || p.Total != 25 || p.TotalPages != 3 || !p.HasNext || !p.HasPrev {
		t.Fatalf("unexpected page 2 descriptor: %+v", p)
	}

	req, ok := b.NextPage()
	if !ok {
		t.Fatal("expected a third page")
	}
	apply(t, b, c, req)
	if p := b.Pagination(); p.Page != 3 || p.HasNext || len(b.Tasks()) != 5 {
		t.Fatalf("unexpected page 3: %+v (%d tasks)", p, len(b.Tasks()))
	}
	if _, ok := b.NextPage(); ok {
		t.Fatal("next page allowed on the last page")
	}
}

func TestClearFilters_EqualsFreshLoad(t *testing.T) {
	c := newClient(t)
	cat, err := c.CreateCategory(context.Background(), api.CategoryInput{Name: "Work"})
	if err != nil {
		t.Fatal(err)
	}
	seed(t, c, 12, func(i int) api.TaskInput {
		in := api.TaskInput{Title: fmt.Sprintf("task %d", i), Important: i%2 == 0}
		if i%3 == 0 {
			in.CategoryID = &cat.ID
		}
		return in
	})

	fresh := taskview.New(taskview.Options{}, nil)
	apply(t, fresh, c, fresh.Load())

	filterSets := []taskview.Filters{
		{Query: "1"},
		{Status: api.StatusCompleted},
		{Important: new(bool)},
		{CategoryID: &cat.ID},
		{Query: "task", Status: api.StatusPending, CategoryID: &cat.ID},
	}
	for i, f := range filterSets {
		b := taskview.New(taskview.Options{}, &cat.ID)
		apply(t, b, c, b.Load())
		b.Draft = f
		apply(t, b, c, b.ApplyFilters())

		apply(t, b, c, b.ClearFilters())
		if !slices.Equal(ids(b.Tasks()), ids(fresh.Tasks())) || *b.Pagination() != *fresh.Pagination() {
			t.Fatalf("filter set %d: clear differs from fresh load", i)
		}
		if b.Category() != nil {
			t.Fatalf("filter set %d: category banner survived clear", i)
		}
	}
}

func TestNavigationCategoryEqualsManualSelection(t *testing.T) {
	c := newClient(t)
	ctx := context.Background()
	var cats []*api.Category
	for _, name := range []string{"Home", "Work"} {
		cat, err := c.CreateCategory(ctx, api.CategoryInput{Name: name})
		if err != nil {
			t.Fatal(err)
		}
		cats = append(cats, cat)
	}
	seed(t, c, 9, func(i int) api.TaskInput {
		return api.TaskInput{Title: fmt.Sprintf("t%d", i), CategoryID: &cats[i%2].ID}
	})
	target := cats[1].ID

	nav := taskview.New(taskview.Options{}, &target)
	apply(t, nav, c, nav.Load())

	manual := taskview.New(taskview.Options{}, nil)
	apply(t, manual, c, manual.Load())
	manual.Draft.CategoryID = &target
	apply(t, manual, c, manual.ApplyFilters())

	if !slices.Equal(ids(nav.Tasks()), ids(manual.Tasks())) {
		t.Fatalf("navigation %v != manual %v", ids(nav.Tasks()), ids(manual.Tasks()))
	}
	if len(nav.Tasks()) != 4 {
		t.Fatalf("expected 4 tasks in category, got %d", len(nav.Tasks()))
	}
	if nav.Category() == nil || nav.Category().Name != "Work" {
		t.Fatalf("expected Work banner, got %+v", nav.Category())
	}
	if got, want := nav.Title(), "📁 Work (4 tasks)"; got != want {
		t.Fatalf("title = %q, want %q", got, want)
	}
}

func TestModeSwitchNeverMixes(t *testing.T) {
	c := newClient(t)
	today := civil.DateOf(time.Now())
	soon := today.AddDays(1)
	far := today.AddDays(30)
	seed(t, c, 15, func(i int) api.TaskInput {
		in := api.TaskInput{Title: fmt.Sprintf("t%d", i), Priority: api.Priorities[i%4]}
		if i%2 == 0 {
			in.DueDate = &soon
		} else {
			in.DueDate = &far
		}
		return in
	})

	expected := map[taskview.Mode][]int64{}
	for _, m := range []taskview.Mode{taskview.ModeNormal, taskview.ModePriority, taskview.ModeUpcoming} {
		b := taskview.New(taskview.Options{}, nil)
		apply(t, b, c, b.SwitchMode(m))
		expected[m] = ids(b.Tasks())
	}
	if len(expected[taskview.ModeUpcoming]) != 8 {
		t.Fatalf("expected 8 upcoming tasks, got %d", len(expected[taskview.ModeUpcoming]))
	}
	if len(expected[taskview.ModePriority]) != 10 {
		t.Fatalf("expected 10 priority tasks, got %d", len(expected[taskview.ModePriority]))
	}

	b := taskview.New(taskview.Options{}, nil)
	apply(t, b, c, b.Load())
	for _, m := range []taskview.Mode{taskview.ModePriority, taskview.ModeUpcoming, taskview.ModeNormal, taskview.ModeUpcoming, taskview.ModePriority} {
		apply(t, b, c, b.SwitchMode(m))
		if b.Mode() != m || !slices.Equal(ids(b.Tasks()), expected[m]) {
			t.Fatalf("mode %v shows %v, want %v", m, ids(b.Tasks()), expected[m])
		}
		if (m == taskview.ModeNormal) != (b.Pagination() != nil) {
			t.Fatalf("mode %v: pagination presence wrong", m)
		}
	}
}

func TestDeleteRemovesAfterRefetch(t *testing.T) {
	today := civil.DateOf(time.Now())
	for _, m := range []taskview.Mode{taskview.ModeNormal, taskview.ModePriority, taskview.ModeUpcoming} {
		t.Run(m.String(), func(t *testing.T) {
			c := newClient(t)
			seed(t, c, 4, func(i int) api.TaskInput {
				return api.TaskInput{Title: fmt.Sprintf("t%d", i), DueDate: &today, Priority: api.PriorityHigh}
			})

			b := taskview.New(taskview.Options{}, nil)
			apply(t, b, c, b.SwitchMode(m))
			victim := b.Tasks()[1]

			if err := b.RequestDelete(victim.ID); err != nil {
				t.Fatal(err)
			}
			staged, ok := b.ConfirmDelete()
			if !ok {
				t.Fatal("nothing staged")
			}
			if err := c.DeleteTask(context.Background(), staged.ID); err != nil {
				t.Fatal(err)
			}
			apply(t, b, c, b.AfterDelete())

			if b.Mode() != m || len(b.Tasks()) != 3 || slices.Contains(ids(b.Tasks()), victim.ID) {
				t.Fatalf("task %d still displayed in %v: %v", victim.ID, m, ids(b.Tasks()))
			}
		})
	}
}

func TestEditCompletionAndDueDate(t *testing.T) {
	c := newClient(t)
	ctx := context.Background()
	seed(t, c, 2, func(i int) api.TaskInput { return api.TaskInput{Title: fmt.Sprintf("t%d", i)} })

	b := taskview.New(taskview.Options{}, nil)
	apply(t, b, c, b.Load())
	target := b.Tasks()[0]

	save := func(mutate func(d *taskview.Draft)) (*api.Task, error) {
		d, err := b.BeginEdit(target.ID)
		if err != nil {
			t.Fatal(err)
		}
		mutate(d)
		up, err := d.Update(time.Now())
		if err != nil {
			return nil, err
		}
		updated, err := c.UpdateTask(ctx, d.ID, up)
		if err != nil {
			return nil, err
		}
		b.CommitEdit(*updated)
		return updated, nil
	}

	got, err := save(func(d *taskview.Draft) { d.Completed = true })
	if err != nil {
		t.Fatal(err)
	}
	if got.Status != api.StatusCompleted || b.Tasks()[0].Status != api.StatusCompleted {
		t.Fatalf("checked edit: status %s", got.Status)
	}

	got, err = save(func(d *taskview.Draft) { d.Completed = false })
	if err != nil {
		t.Fatal(err)
	}
	if got.Status != api.StatusPending || got.Completed {
		t.Fatalf("unchecked edit: status %s", got.Status)
	}

	yesterday := civil.DateOf(time.Now()).AddDays(-1)
	before := b.Tasks()[0]
	if _, err := save(func(d *taskview.Draft) { d.DueDate = &yesterday }); !errors.Is(err, api.ErrValidation) {
		t.Fatalf("expected past date rejected on edit, got %v", err)
	}
	if d, ok := b.Editing(); !ok || d.ID != target.ID {
		t.Fatal("failed save left edit mode")
	}
	if b.Tasks()[0] != before {
		t.Fatal("failed save changed the displayed task")
	}
	b.CancelEdit()

	today := civil.DateOf(time.Now())
	if _, err := save(func(d *taskview.Draft) { d.DueDate = &today }); err != nil {
		t.Fatalf("today rejected on edit: %v", err)
	}
	if _, err := c.CreateTask(ctx, api.TaskInput{Title: "late", DueDate: &yesterday}); !errors.Is(err, api.ErrValidation) {
		t.Fatalf("expected past date rejected on create, got %v", err)
	}
	if _, err := c.CreateTask(ctx, api.TaskInput{Title: "now", DueDate: &today}); err != nil {
		t.Fatalf("today rejected on create: %v", err)
	}
}

func TestEditClearsDueDateAndCategory(t *testing.T) {
	c := newClient(t)
	ctx := context.Background()

	cat, err := c.CreateCategory(ctx, api.CategoryInput{Name: "Work"})
	if err != nil {
		t.Fatal(err)
	}
	due := civil.DateOf(time.Now()).AddDays(2)
	at := civil.Time{Hour: 8}
	seed(t, c, 1, func(int) api.TaskInput {
		return api.TaskInput{Title: "scoped", DueDate: &due, DueTime: &at, CategoryID: &cat.ID}
	})

	b := taskview.New(taskview.Options{}, nil)
	apply(t, b, c, b.Load())
	target := b.Tasks()[0]

	d, err := b.BeginEdit(target.ID)
	if err != nil {
		t.Fatal(err)
	}
	d.DueDate, d.DueTime, d.CategoryID = nil, nil, nil
	up, err := d.Update(time.Now())
	if err != nil {
		t.Fatal(err)
	}
	updated, err := c.UpdateTask(ctx, d.ID, up)
	if err != nil {
		t.Fatal(err)
	}
	b.CommitEdit(*updated)

	stored, err := c.GetTask(ctx, target.ID)
	if err != nil {
		t.Fatal(err)
	}
	if stored.DueDate != nil || stored.DueTime != nil || stored.CategoryID != nil {
		t.Fatalf("server kept cleared fields: due=%v time=%v category=%v", stored.DueDate, stored.DueTime, stored.CategoryID)
	}
	shown := b.Tasks()[0]
	if shown.DueDate != nil || shown.CategoryID != nil {
		t.Fatalf("displayed task kept cleared fields: %+v", shown)
	}

	// A draft that keeps its values sends them back unchanged.
	d, err = b.BeginEdit(target.ID)
	if err != nil {
		t.Fatal(err)
	}
	d.DueDate, d.CategoryID = &due, &cat.ID
	up, err = d.Update(time.Now())
	if err != nil {
		t.Fatal(err)
	}
	updated, err = c.UpdateTask(ctx, d.ID, up)
	if err != nil {
		t.Fatal(err)
	}
	if updated.DueDate == nil || *updated.DueDate != due || updated.CategoryID == nil || *updated.CategoryID != cat.ID {
		t.Fatalf("set fields not stored: %+v", updated)
	}
}
