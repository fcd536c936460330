package devserver

import (
	"cmp"
	"math"
	"slices"
	"strings"
	"time"

	"cloud.google.com/go/civil"

	"github.com/dohr-michael/taskdeck/internal/api"
)

var priorityRank = map[api.TaskPriority]int{
	api.PriorityUrgent: 0,
	api.PriorityHigh:   1,
	api.PriorityMedium: 2,
	api.PriorityLow:    3,
}

// comparePriority orders by priority, due moment, importance, completion, id.
func comparePriority(a, b api.Task) int {
	if c := cmp.Compare(rankOf(a.Priority), rankOf(b.Priority)); c != 0 {
		return c
	}
	if c := cmp.Compare(dueKey(a), dueKey(b)); c != 0 {
		return c
	}
	if c := cmp.Compare(boolKey(!a.Important), boolKey(!b.Important)); c != 0 {
		return c
	}
	if c := cmp.Compare(boolKey(a.Completed), boolKey(b.Completed)); c != 0 {
		return c
	}
	return cmp.Compare(a.ID, b.ID)
}

func rankOf(p api.TaskPriority) int {
	if r, ok := priorityRank[p]; ok {
		return r
	}
	return priorityRank[api.PriorityMedium]
}

func dueKey(t api.Task) float64 {
	if t.DueDate == nil {
		return math.Inf(1)
	}
	dt := civil.DateTime{Date: *t.DueDate}
	if t.DueTime != nil {
		dt.Time = *t.DueTime
	}
	return float64(dt.In(time.UTC).Unix())
}

func boolKey(b bool) int {
	if b {
		return 1
	}
	return 0
}

type taskFilter struct {
	query      string
	status     api.TaskStatus
	important  *bool
	categoryID *int64
}

func (f taskFilter) match(t *api.Task) bool {
	if f.query != "" {
		q := strings.ToLower(f.query)
		if !strings.Contains(strings.ToLower(t.Title), q) && !strings.Contains(strings.ToLower(t.Description), q) {
			return false
		}
	}
	if f.status != "" && t.Status != f.status {
		return false
	}
	if f.important != nil && t.Important != *f.important {
		return false
	}
	if f.categoryID != nil && (t.CategoryID == nil || *t.CategoryID != *f.categoryID) {
		return false
	}
	return true
}

func (s *Store) listTasks(userID int64, f taskFilter, page, limit int, sortSpec string, priorityOrder bool) api.TaskPage {
	s.mu.Lock()
	defer s.mu.Unlock()

	tasks := s.userTasks(userID, f.match)
	if priorityOrder {
		slices.SortStableFunc(tasks, comparePriority)
	} else {
		slices.SortStableFunc(tasks, sortFunc(sortSpec))
	}

	total := len(tasks)
	totalPages := (total + limit - 1) / limit
	return api.TaskPage{
		Tasks:      window(tasks, page, limit),
		Page:       page,
		Limit:      limit,
		Total:      total,
		TotalPages: totalPages,
		HasNext:    page < totalPages,
		HasPrev:    page > 1,
	}
}

// sortFunc builds a comparator from "field:dir". Unknown fields fall back to created_at.
func sortFunc(spec string) func(a, b api.Task) int {
	field, dir, _ := strings.Cut(spec, ":")
	if spec == "" {
		field, dir = "created_at", "desc"
	}
	var by func(a, b api.Task) int
	switch field {
	case "title":
		by = func(a, b api.Task) int { return cmp.Compare(strings.ToLower(a.Title), strings.ToLower(b.Title)) }
	case "priority":
		// Descending means most urgent first.
		by = func(a, b api.Task) int { return cmp.Compare(rankOf(b.Priority), rankOf(a.Priority)) }
	case "due_date":
		by = func(a, b api.Task) int { return cmp.Compare(dueKey(a), dueKey(b)) }
	case "status":
		by = func(a, b api.Task) int { return cmp.Compare(a.Status, b.Status) }
	case "updated_at":
		by = func(a, b api.Task) int { return a.UpdatedAt.Compare(b.UpdatedAt.Time) }
	case "id":
		by = func(a, b api.Task) int { return 0 }
	default:
		by = func(a, b api.Task) int { return a.CreatedAt.Compare(b.CreatedAt.Time) }
	}
	desc := dir == "desc"
	return func(a, b api.Task) int {
		c := by(a, b)
		if c == 0 {
			c = cmp.Compare(a.ID, b.ID)
		}
		if desc {
			return -c
		}
		return c
	}
}

func (s *Store) priorityTasks(userID int64, limit int) []api.Task {
	s.mu.Lock()
	defer s.mu.Unlock()

	tasks := s.userTasks(userID, func(t *api.Task) bool { return !t.Completed })
	slices.SortFunc(tasks, comparePriority)
	return window(tasks, 1, limit)
}

// upcomingTasks lists open tasks due between today and today+days, soonest first.
func (s *Store) upcomingTasks(userID int64, limit, days int) []api.Task {
	s.mu.Lock()
	defer s.mu.Unlock()

	today := s.today()
	horizon := today.AddDays(days)
	tasks := s.userTasks(userID, func(t *api.Task) bool {
		return !t.Completed && t.DueDate != nil && !t.DueDate.Before(today) && !t.DueDate.After(horizon)
	})
	slices.SortFunc(tasks, func(a, b api.Task) int {
		if c := cmp.Compare(dueKey(a), dueKey(b)); c != 0 {
			return c
		}
		return comparePriority(a, b)
	})
	return window(tasks, 1, limit)
}

// taskPatch is a decoded update with the set of keys the client sent.
type taskPatch struct {
	api.TaskUpdate
	present map[string]bool
}

func (p taskPatch) has(key string) bool { return p.present[key] }

func (s *Store) updateTask(userID, id int64, p taskPatch) (api.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, err := s.ownedTask(userID, id)
	if err != nil {
		return api.Task{}, err
	}

	reopening := p.has("is_completed") && p.Completed != nil && !*p.Completed
	if t.Status == api.StatusCompleted && p.Status != nil && *p.Status != api.StatusCompleted && !reopening {
		return api.Task{}, errCompletedLocked
	}

	oldCompleted := t.Completed
	oldStatus := t.Status
	oldPriority := t.Priority
	oldImportant := t.Important
	now := api.Timestamp{Time: s.now().UTC()}

	if p.Title != nil {
		t.Title = *p.Title
	}
	if p.Description != nil {
		t.Description = *p.Description
	}
	if p.has("due_date") {
		t.DueDate = p.DueDate
	}
	if p.has("due_time") {
		t.DueTime = p.DueTime
	}
	if p.Priority != nil {
		t.Priority = *p.Priority
	}
	if p.Important != nil {
		t.Important = *p.Important
	}
	if p.has("category_id") {
		t.CategoryID = p.CategoryID
	}
	if p.Completed != nil {
		t.Completed = *p.Completed
		if t.Completed {
			t.Status = api.StatusCompleted
			t.CompletedAt = &now
		} else {
			t.Status = api.StatusPending
			t.CompletedAt = nil
		}
	}
	if p.Status != nil {
		t.Status = *p.Status
		if t.Status == api.StatusCompleted {
			t.Completed = true
			if t.CompletedAt == nil {
				t.CompletedAt = &now
			}
		} else {
			t.Completed = false
			t.CompletedAt = nil
		}
	}
	t.UpdatedAt = now
	s.refresh(t)

	switch {
	case t.Completed && !oldCompleted, t.Status == api.StatusCompleted && oldStatus != api.StatusCompleted:
		s.notifyLocked(userID, id, "✅ Task completed: "+t.Title)
	case !t.Completed && oldCompleted:
		s.notifyLocked(userID, id, "🔄 Task reopened: "+t.Title)
	}
	if t.Priority == api.PriorityUrgent && oldPriority != api.PriorityUrgent {
		s.notifyLocked(userID, id, "🚨 Urgent priority: "+t.Title)
	}
	if t.Important && !oldImportant {
		s.notifyLocked(userID, id, "⭐ Marked important: "+t.Title)
	}
	if p.DueDate != nil {
		switch days := p.DueDate.DaysSince(s.today()); {
		case days == 1:
			s.notifyLocked(userID, id, "⏰ Due tomorrow: "+t.Title)
		case days == 0:
			s.notifyLocked(userID, id, "🚨 Due today: "+t.Title)
		case days < 0:
			s.notifyLocked(userID, id, "🔴 Overdue: "+t.Title)
		}
	} else if p.Title != nil || p.Description != nil || p.has("due_time") || p.Priority != nil {
		s.notifyLocked(userID, id, "✏️ Task updated: "+t.Title)
	}
	return *t, nil
}
