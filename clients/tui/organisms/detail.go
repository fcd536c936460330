package organisms

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/dohr-michael/taskdeck/clients/tui/atoms"
	"github.com/dohr-michael/taskdeck/internal/api"
)

// TaskDetail is a scrollable view of one task.
type TaskDetail struct {
	viewport viewport.Model
	task     api.Task
	label    lipgloss.Style
}

// NewTaskDetail creates a detail view of the given size.
func NewTaskDetail(width, height int, label lipgloss.Style) TaskDetail {
	vp := viewport.New(width, height)
	vp.MouseWheelEnabled = false
	return TaskDetail{viewport: vp, label: label}
}

// SetSize updates the viewport dimensions.
func (d *TaskDetail) SetSize(width, height int) {
	d.viewport.Width = width
	d.viewport.Height = height
}

// Show replaces the content. description is the pre-rendered body.
func (d *TaskDetail) Show(t api.Task, category string, description string) {
	d.task = t
	rows := [][2]string{
		{"ID", fmt.Sprint(t.ID)},
		{"Status", atoms.Status(t.Status) + " " + string(t.Status)},
		{"Priority", atoms.Priority(t.Priority)},
		{"Due", due(t)},
		{"Important", yesNo(t.Important)},
		{"Overdue", yesNo(t.Overdue && !t.Completed)},
		{"Category", category},
		{"Created", t.CreatedAt.Local().Format("2006-01-02 15:04")},
	}
	if t.CompletedAt != nil && !t.CompletedAt.IsZero() {
		rows = append(rows, [2]string{"Completed", t.CompletedAt.Local().Format("2006-01-02 15:04")})
	}

	var sb strings.Builder
	sb.WriteString(lipgloss.NewStyle().Bold(true).Render(t.Title) + "\n\n")
	for _, r := range rows {
		if r[1] == "" {
			continue
		}
		sb.WriteString(d.label.Width(11).Render(r[0]) + r[1] + "\n")
	}
	if description != "" {
		sb.WriteString("\n" + description + "\n")
	}
	d.viewport.SetContent(sb.String())
	d.viewport.GotoTop()
}

// Task returns the displayed task.
func (d TaskDetail) Task() api.Task { return d.task }

// Update scrolls the viewport.
func (d TaskDetail) Update(msg tea.Msg) (TaskDetail, tea.Cmd) {
	var cmd tea.Cmd
	d.viewport, cmd = d.viewport.Update(msg)
	return d, cmd
}

// View renders the viewport.
func (d TaskDetail) View() string {
	return d.viewport.View()
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return ""
}
