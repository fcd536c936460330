package taskview

import (
	"time"

	"cloud.google.com/go/civil"

	"github.com/dohr-michael/taskdeck/internal/api"
)

// Draft is the editable copy of one task.
type Draft struct {
	ID          int64
	Title       string
	Description string
	DueDate     *civil.Date
	DueTime     *civil.Time
	Priority    api.TaskPriority
	Status      api.TaskStatus
	Important   bool
	Completed   bool
	CategoryID  *int64
}

// DraftOf copies t into a Draft.
func DraftOf(t api.Task) *Draft {
	return &Draft{
		ID:          t.ID,
		Title:       t.Title,
		Description: t.Description,
		DueDate:     t.DueDate,
		DueTime:     t.DueTime,
		Priority:    t.Priority,
		Status:      t.Status,
		Important:   t.Important,
		Completed:   t.Completed,
		CategoryID:  t.CategoryID,
	}
}

// Normalize forces the status to agree with the completed flag: checked
// means completed, unchecked while completed means pending.
func (d *Draft) Normalize() {
	switch {
	case d.Completed:
		d.Status = api.StatusCompleted
	case d.Status == api.StatusCompleted:
		d.Status = api.StatusPending
	}
}

// Update validates and normalizes the draft and returns the request body.
// Empty due date, due time and category are sent as explicit clears.
// The draft is left normalized even when validation fails.
func (d *Draft) Update(now time.Time) (api.TaskUpdate, error) {
	if d.DueDate != nil {
		if err := api.ValidateDueDate(*d.DueDate, now); err != nil {
			return api.TaskUpdate{}, err
		}
	}
	d.Normalize()

	title, desc := d.Title, d.Description
	priority, status := d.Priority, d.Status
	important, completed := d.Important, d.Completed
	up := api.TaskUpdate{
		Title:       &title,
		Description: &desc,
		DueDate:     d.DueDate,
		DueTime:     d.DueTime,
		Status:      &status,
		Important:   &important,
		Completed:   &completed,
		CategoryID:  d.CategoryID,
	}
	if priority != "" {
		up.Priority = &priority
	}
	if d.DueDate == nil {
		up.Clear = append(up.Clear, api.FieldDueDate)
	}
	if d.DueTime == nil {
		up.Clear = append(up.Clear, api.FieldDueTime)
	}
	if d.CategoryID == nil {
		up.Clear = append(up.Clear, api.FieldCategoryID)
	}
	if err := api.ValidateTaskUpdate(api.TaskUpdate{Title: up.Title, Description: up.Description, Priority: up.Priority, Status: up.Status}); err != nil {
		return api.TaskUpdate{}, err
	}
	return up, nil
}
