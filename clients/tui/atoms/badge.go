package atoms

import (
	"strconv"

	"github.com/charmbracelet/lipgloss"

	"github.com/dohr-michael/taskdeck/internal/api"
)

var (
	priorityColors = map[api.TaskPriority]lipgloss.AdaptiveColor{
		api.PriorityLow:    {Light: "#6B7280", Dark: "#9CA3AF"},
		api.PriorityMedium: {Light: "#1D4ED8", Dark: "#79C0FF"},
		api.PriorityHigh:   {Light: "#B45309", Dark: "#FBBF24"},
		api.PriorityUrgent: {Light: "#DC2626", Dark: "#FF6B6B"},
	}
	statusIcons = map[api.TaskStatus]string{
		api.StatusPending:    "○",
		api.StatusInProgress: "◐",
		api.StatusCompleted:  "●",
		api.StatusCancelled:  "⊘",
	}
)

// Priority renders a colored priority label.
func Priority(p api.TaskPriority) string {
	c, ok := priorityColors[p]
	if !ok {
		return string(p)
	}
	return lipgloss.NewStyle().Foreground(c).Render(string(p))
}

// Status renders the status glyph.
func Status(s api.TaskStatus) string {
	if icon, ok := statusIcons[s]; ok {
		return icon
	}
	return "?"
}

// Flags renders the important and overdue markers of a task.
func Flags(t api.Task) string {
	out := ""
	if t.Important {
		out += "★"
	}
	if t.Overdue && !t.Completed {
		out += lipgloss.NewStyle().Foreground(priorityColors[api.PriorityUrgent]).Render("!")
	}
	return out
}

// Unread renders the notification badge; empty when count is zero.
func Unread(count int, style lipgloss.Style) string {
	if count <= 0 {
		return ""
	}
	if count > 99 {
		return style.Render("🔔 99+")
	}
	return style.Render("🔔 " + strconv.Itoa(count))
}
