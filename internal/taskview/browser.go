package taskview

import (
	"errors"
	"fmt"
	"slices"

	"github.com/dohr-michael/taskdeck/internal/api"
)

// ErrNotDisplayed is returned when an edit or delete targets a task that is
// not in the displayed list.
var ErrNotDisplayed = errors.New("task is not displayed")

// Options size the three views.
type Options struct {
	PageSize     int
	SpecialLimit int
	UpcomingDays int
}

func (o Options) withDefaults() Options {
	if o.PageSize <= 0 {
		o.PageSize = 10
	}
	if o.SpecialLimit <= 0 {
		o.SpecialLimit = 10
	}
	if o.UpcomingDays <= 0 {
		o.UpcomingDays = 3
	}
	return o
}

// Browser is the view state of the Task Browser. It is not safe for
// concurrent use; the UI loop is its only mutator.
type Browser struct {
	opts Options

	mode       Mode
	tasks      []api.Task
	pagination *Pagination
	category   *api.Category

	// applied is the filter set of the displayed normal page; Draft is what
	// the filter panel is editing.
	applied Filters
	Draft   Filters

	// nav is the category id carried by the navigation that opened the browser.
	nav *int64

	issued   uint64
	inflight bool
	loaded   bool

	edit *Draft
	del  Confirmation[api.Task]
}

// New creates a browser. category is the navigation marker, or nil.
func New(opts Options, category *int64) *Browser {
	b := &Browser{opts: opts.withDefaults()}
	if category != nil {
		id := *category
		b.nav = &id
	}
	return b
}

func (b *Browser) issue(req Request) Request {
	b.issued++
	req.Seq = b.issued
	if req.Limit == 0 {
		req.Limit = b.opts.SpecialLimit
		if req.Mode == ModeNormal {
			req.Limit = b.opts.PageSize
		}
	}
	if req.Mode == ModeUpcoming {
		req.Days = b.opts.UpcomingDays
	}
	if req.Mode == ModeNormal && req.Page < 1 {
		req.Page = 1
	}
	b.inflight = true
	return req
}

func (b *Browser) normal(page int, f Filters) Request {
	limit := b.opts.PageSize
	if b.pagination != nil && b.pagination.Limit > 0 {
		limit = b.pagination.Limit
	}
	return Request{Mode: ModeNormal, Page: page, Limit: limit, Filters: f}
}

// withNav overlays the navigation marker onto f.
func (b *Browser) withNav(req Request) Request {
	if b.nav != nil {
		req.Filters = req.Filters.WithCategory(b.nav)
		req.ResolveCategory = true
	}
	return req
}

// Load is the first fetch: page 1 of the normal view, with the navigation
// category merged into the filters.
func (b *Browser) Load() Request {
	req := b.withNav(b.normal(1, b.applied))
	b.Draft = req.Filters
	return b.issue(req)
}

// Reload refetches the active view. In the normal view the current page and
// filters are kept and the navigation marker, if still set, is re-applied.
func (b *Browser) Reload() Request {
	if b.mode != ModeNormal {
		return b.issue(Request{Mode: b.mode})
	}
	page := 1
	if b.pagination != nil {
		page = b.pagination.Page
	}
	return b.issue(b.withNav(b.normal(page, b.applied)))
}

// SwitchMode fetches the given view. Switching to normal fetches page 1 with
// the applied filters.
func (b *Browser) SwitchMode(m Mode) Request {
	if m == ModeNormal {
		return b.issue(b.normal(1, b.applied))
	}
	return b.issue(Request{Mode: m})
}

// Navigate behaves like opening the browser on a category: it sets the
// navigation marker and loads page 1 of that category.
func (b *Browser) Navigate(category int64) Request {
	b.nav = &category
	f := b.applied.WithCategory(&category)
	b.Draft = f
	req := b.normal(1, f)
	req.ResolveCategory = true
	return b.issue(req)
}

// ClearCategory drops the category context and the navigation marker, then
// refetches page 1 without a category filter.
func (b *Browser) ClearCategory() Request {
	return b.issue(b.normal(1, b.applied.WithCategory(nil)))
}

// ApplyFilters fetches page 1 of the normal view with the draft filters.
// The page size is kept.
func (b *Browser) ApplyFilters() Request {
	return b.issue(b.normal(1, b.Draft))
}

// ClearFilters resets every filter and the category context and fetches page
// 1 of the normal view.
func (b *Browser) ClearFilters() Request {
	req := b.normal(1, Filters{})
	req.resetDraft = true
	return b.issue(req)
}

// NextPage fetches the following page. ok is false outside the normal view
// or on the last page.
func (b *Browser) NextPage() (req Request, ok bool) {
	if b.mode != ModeNormal || b.pagination == nil || !b.pagination.HasNext {
		return Request{}, false
	}
	return b.issue(b.normal(b.pagination.Page+1, b.applied)), true
}

// PrevPage fetches the preceding page. ok is false outside the normal view
// or on the first page.
func (b *Browser) PrevPage() (req Request, ok bool) {
	if b.mode != ModeNormal || b.pagination == nil || !b.pagination.HasPrev {
		return Request{}, false
	}
	return b.issue(b.normal(b.pagination.Page-1, b.applied)), true
}

// Apply folds a fetch result into the view. Results of any request other
// than the latest issued one are dropped and reported as not applied. A
// failed fetch leaves the view as it was and returns the error.
func (b *Browser) Apply(res Result) (applied bool, err error) {
	if res.Request.Seq != b.issued {
		return false, nil
	}
	b.inflight = false
	if res.Err != nil {
		return false, res.Err
	}

	req := res.Request
	b.mode = req.Mode
	b.tasks = res.Tasks
	b.loaded = true

	if req.Mode != ModeNormal {
		// A special view drops the category context for good.
		b.pagination = nil
		b.category = nil
		b.nav = nil
		b.applied = b.applied.WithCategory(nil)
		b.Draft = b.Draft.WithCategory(nil)
		return true, nil
	}

	p := *res.Pagination
	b.pagination = &p
	b.applied = req.Filters
	if req.resetDraft {
		b.Draft = Filters{}
	}
	switch {
	case req.Filters.CategoryID == nil:
		// A normal view without a category ends the navigation context.
		b.category = nil
		b.nav = nil
		b.Draft = b.Draft.WithCategory(nil)
	case req.ResolveCategory:
		b.category = res.Category
	case b.category != nil && b.category.ID != *req.Filters.CategoryID:
		b.category = nil
	}
	return true, nil
}

// AfterDelete refetches the active view once a delete succeeded. The normal
// view stays on its current page.
func (b *Browser) AfterDelete() Request {
	if b.mode != ModeNormal {
		return b.issue(Request{Mode: b.mode})
	}
	page := 1
	if b.pagination != nil {
		page = b.pagination.Page
	}
	req := b.normal(page, b.applied)
	req.ResolveCategory = b.category != nil
	return b.issue(req)
}

// --- edit ---

func (b *Browser) find(id int64) (int, bool) {
	i := slices.IndexFunc(b.tasks, func(t api.Task) bool { return t.ID == id })
	return i, i >= 0
}

// BeginEdit starts editing a displayed task and returns its draft.
func (b *Browser) BeginEdit(id int64) (*Draft, error) {
	i, ok := b.find(id)
	if !ok {
		return nil, fmt.Errorf("edit task %d: %w", id, ErrNotDisplayed)
	}
	b.edit = DraftOf(b.tasks[i])
	return b.edit, nil
}

// Editing returns the active draft, if any.
func (b *Browser) Editing() (*Draft, bool) {
	return b.edit, b.edit != nil
}

// CommitEdit replaces the edited task in place with the server's copy and
// leaves edit mode.
func (b *Browser) CommitEdit(updated api.Task) {
	if i, ok := b.find(updated.ID); ok {
		b.tasks[i] = updated
	}
	if b.edit != nil && b.edit.ID == updated.ID {
		b.edit = nil
	}
}

// CancelEdit leaves edit mode without saving.
func (b *Browser) CancelEdit() { b.edit = nil }

// --- delete ---

// RequestDelete stages the deletion of a displayed task.
func (b *Browser) RequestDelete(id int64) error {
	i, ok := b.find(id)
	if !ok {
		return fmt.Errorf("delete task %d: %w", id, ErrNotDisplayed)
	}
	b.del.Request(b.tasks[i])
	return nil
}

// PendingDelete returns the task awaiting confirmation.
func (b *Browser) PendingDelete() (api.Task, bool) { return b.del.Pending() }

// ConfirmDelete returns the staged task; the caller issues the delete.
func (b *Browser) ConfirmDelete() (api.Task, bool) { return b.del.Confirm() }

// CancelDelete drops the staged deletion.
func (b *Browser) CancelDelete() { b.del.Cancel() }

// --- read side ---

// Mode returns the active view.
func (b *Browser) Mode() Mode { return b.mode }

// Tasks returns the displayed list.
func (b *Browser) Tasks() []api.Task { return b.tasks }

// Pagination returns the descriptor of the displayed normal page; nil in the
// special views.
func (b *Browser) Pagination() *Pagination { return b.pagination }

// Filters returns the filter set of the displayed page.
func (b *Browser) Filters() Filters { return b.applied }

// Category returns the active category snapshot, if any.
func (b *Browser) Category() *api.Category { return b.category }

// NavCategory returns the navigation marker.
func (b *Browser) NavCategory() *int64 { return b.nav }

// Loading reports whether the latest request is still in flight.
func (b *Browser) Loading() bool { return b.inflight }

// Loaded reports whether any fetch has been applied.
func (b *Browser) Loaded() bool { return b.loaded }

// Title is the heading of the active view.
func (b *Browser) Title() string {
	if b.category != nil {
		total := 0
		if b.pagination != nil {
			total = b.pagination.Total
		}
		noun := "tasks"
		if total == 1 {
			noun = "task"
		}
		return fmt.Sprintf("%s %s (%d %s)", b.category.Icon, b.category.Name, total, noun)
	}
	switch b.mode {
	case ModePriority:
		return "🚨 Priority tasks"
	case ModeUpcoming:
		return "⏰ Upcoming tasks"
	default:
		return "📋 My tasks"
	}
}
