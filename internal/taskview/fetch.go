// Package taskview coordinates the Task Browser: which of the three views is
// active, the filter and pagination state of the normal view, the category
// context, and the inline edit and delete flows. It holds no I/O of its own;
// fetches are described as Requests, executed by Fetch off the UI loop, and
// folded back with Browser.Apply.
package taskview

import (
	"context"

	"github.com/dohr-michael/taskdeck/internal/api"
)

// Source is the read side of the task API used by the browser.
type Source interface {
	ListTasks(ctx context.Context, q api.TaskQuery) (*api.TaskPage, error)
	PriorityTasks(ctx context.Context, limit int) ([]api.Task, error)
	UpcomingTasks(ctx context.Context, limit, days int) ([]api.Task, error)
	GetCategory(ctx context.Context, id int64) (*api.Category, error)
}

// Request describes one fetch. Seq orders requests issued by a Browser.
type Request struct {
	Seq     uint64
	Mode    Mode
	Page    int
	Limit   int
	Days    int
	Filters Filters
	// ResolveCategory also loads the display metadata of Filters.CategoryID.
	ResolveCategory bool

	resetDraft bool
}

// Result is the outcome of a Request.
type Result struct {
	Request    Request
	Tasks      []api.Task
	Pagination *Pagination
	Category   *api.Category
	// CategoryErr is set when the banner metadata could not be loaded; the
	// task list is still usable.
	CategoryErr error
	Err         error
}

// Fetch executes req against src. It is safe to call from any goroutine.
func Fetch(ctx context.Context, src Source, req Request) Result {
	res := Result{Request: req}
	switch req.Mode {
	case ModePriority:
		res.Tasks, res.Err = src.PriorityTasks(ctx, req.Limit)
	case ModeUpcoming:
		res.Tasks, res.Err = src.UpcomingTasks(ctx, req.Limit, req.Days)
	default:
		page, err := src.ListTasks(ctx, req.Filters.query(req.Page, req.Limit))
		if err != nil {
			res.Err = err
			break
		}
		res.Tasks = page.Tasks
		res.Pagination = &Pagination{
			Page:       page.Page,
			Limit:      page.Limit,
			Total:      page.Total,
			TotalPages: page.TotalPages,
			HasNext:    page.HasNext,
			HasPrev:    page.HasPrev,
		}
		if req.ResolveCategory && req.Filters.CategoryID != nil {
			res.Category, res.CategoryErr = src.GetCategory(ctx, *req.Filters.CategoryID)
		}
	}
	if res.Err == nil && res.Tasks == nil {
		res.Tasks = []api.Task{}
	}
	return res
}
