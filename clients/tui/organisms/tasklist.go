package organisms

import (
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/dohr-michael/taskdeck/clients/tui/atoms"
	"github.com/dohr-michael/taskdeck/internal/api"
)

// TaskList renders the displayed tasks as a table with a cursor row.
type TaskList struct {
	cursor     int
	width      int
	categories map[int64]api.Category
	selected   lipgloss.Style
	muted      lipgloss.Style
}

// NewTaskList creates an empty list.
func NewTaskList(selected, muted lipgloss.Style) TaskList {
	return TaskList{selected: selected, muted: muted, categories: map[int64]api.Category{}}
}

// SetCategories replaces the lookup used for the category column.
func (l *TaskList) SetCategories(cats []api.Category) {
	l.categories = make(map[int64]api.Category, len(cats))
	for _, c := range cats {
		l.categories[c.ID] = c
	}
}

// Category returns the cached category, if known.
func (l TaskList) Category(id int64) (api.Category, bool) {
	c, ok := l.categories[id]
	return c, ok
}

// SetWidth updates the rendering width.
func (l *TaskList) SetWidth(w int) { l.width = w }

// Cursor returns the highlighted row.
func (l TaskList) Cursor() int { return l.cursor }

// Move shifts the cursor by delta within n rows.
func (l *TaskList) Move(delta, n int) {
	l.cursor = clamp(l.cursor+delta, 0, n-1)
}

// Clamp keeps the cursor within n rows after the list changed.
func (l *TaskList) Clamp(n int) {
	l.cursor = clamp(l.cursor, 0, n-1)
}

// Selected returns the task under the cursor.
func (l TaskList) Selected(tasks []api.Task) (api.Task, bool) {
	if l.cursor < 0 || l.cursor >= len(tasks) {
		return api.Task{}, false
	}
	return tasks[l.cursor], true
}

// View renders tasks.
func (l TaskList) View(tasks []api.Task) string {
	if len(tasks) == 0 {
		return l.muted.Render("No tasks.")
	}

	rows := make([][]string, len(tasks))
	for i, t := range tasks {
		rows[i] = []string{
			atoms.Status(t.Status),
			strconv.FormatInt(t.ID, 10),
			t.Title,
			atoms.Priority(t.Priority),
			due(t),
			l.categoryName(t.CategoryID),
			atoms.Flags(t),
		}
	}

	tbl := table.New().
		Border(lipgloss.HiddenBorder()).
		Headers("", "ID", "TITLE", "PRIORITY", "DUE", "CATEGORY", "").
		Rows(rows...).
		StyleFunc(func(row, _ int) lipgloss.Style {
			switch {
			case row == table.HeaderRow:
				return l.muted.Bold(true)
			case row == l.cursor:
				return l.selected
			case tasks[row].Completed:
				return l.muted
			}
			return lipgloss.NewStyle()
		})
	if l.width > 0 {
		tbl = tbl.Width(l.width)
	}
	return strings.TrimRight(tbl.Render(), "\n")
}

func (l TaskList) categoryName(id *int64) string {
	if id == nil {
		return ""
	}
	if c, ok := l.categories[*id]; ok {
		return c.Icon + " " + c.Name
	}
	return "#" + strconv.FormatInt(*id, 10)
}

func due(t api.Task) string {
	if t.DueDate == nil {
		return ""
	}
	s := t.DueDate.String()
	if t.DueTime != nil {
		s += " " + t.DueTime.String()[:5]
	}
	return s
}

func clamp(v, lo, hi int) int {
	if hi < lo {
		return lo
	}
	return min(max(v, lo), hi)
}
