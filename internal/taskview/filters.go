package taskview

import (
	"strings"

	"github.com/dohr-michael/taskdeck/internal/api"
)

// Mode is the active view of the browser.
type Mode int

const (
	ModeNormal Mode = iota
	ModePriority
	ModeUpcoming
)

func (m Mode) String() string {
	switch m {
	case ModePriority:
		return "priority"
	case ModeUpcoming:
		return "upcoming"
	default:
		return "normal"
	}
}

// Filters narrow the normal view. Zero fields are unset.
type Filters struct {
	Query      string
	Status     api.TaskStatus
	Important  *bool
	CategoryID *int64
}

// IsZero reports whether no filter is set.
func (f Filters) IsZero() bool {
	return strings.TrimSpace(f.Query) == "" && f.Status == "" && f.Important == nil && f.CategoryID == nil
}

// WithCategory returns a copy of f filtered on id; nil unsets the category.
func (f Filters) WithCategory(id *int64) Filters {
	if id != nil {
		v := *id
		id = &v
	}
	f.CategoryID = id
	return f
}

func (f Filters) query(page, limit int) api.TaskQuery {
	return api.TaskQuery{
		Page:       page,
		Limit:      limit,
		Query:      strings.TrimSpace(f.Query),
		Status:     f.Status,
		Important:  f.Important,
		CategoryID: f.CategoryID,
	}
}

// Pagination is the paging descriptor of the last normal fetch, copied from
// the server response.
type Pagination struct {
	Page       int
	Limit      int
	Total      int
	TotalPages int
	HasNext    bool
	HasPrev    bool
}
