package organisms

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/dohr-michael/taskdeck/internal/api"
)

// NotificationsPanel lists the latest notifications with a cursor.
type NotificationsPanel struct {
	items    []api.Notification
	unread   int
	cursor   int
	selected lipgloss.Style
	muted    lipgloss.Style
}

// NewNotificationsPanel creates an empty panel.
func NewNotificationsPanel(selected, muted lipgloss.Style) NotificationsPanel {
	return NotificationsPanel{selected: selected, muted: muted}
}

// Set replaces the list.
func (p *NotificationsPanel) Set(list *api.NotificationList) {
	p.items = list.Notifications
	p.unread = list.UnreadCount
	p.cursor = clamp(p.cursor, 0, len(p.items)-1)
}

// MarkRead flags one item as read locally; id 0 marks all.
func (p *NotificationsPanel) MarkRead(id int64) {
	for i := range p.items {
		if (id == 0 || p.items[i].ID == id) && !p.items[i].IsRead {
			p.items[i].IsRead = true
			p.unread = max(p.unread-1, 0)
		}
	}
	if id == 0 {
		p.unread = 0
	}
}

// Remove drops one item locally.
func (p *NotificationsPanel) Remove(id int64) {
	for i, n := range p.items {
		if n.ID == id {
			if !n.IsRead {
				p.unread = max(p.unread-1, 0)
			}
			p.items = append(p.items[:i:i], p.items[i+1:]...)
			break
		}
	}
	p.cursor = clamp(p.cursor, 0, len(p.items)-1)
}

// Unread returns the unread count reported by the server.
func (p NotificationsPanel) Unread() int { return p.unread }

// Items returns the displayed notifications.
func (p NotificationsPanel) Items() []api.Notification { return p.items }

// Move shifts the cursor.
func (p *NotificationsPanel) Move(delta int) {
	p.cursor = clamp(p.cursor+delta, 0, len(p.items)-1)
}

// Selected returns the notification under the cursor.
func (p NotificationsPanel) Selected() (api.Notification, bool) {
	if p.cursor < 0 || p.cursor >= len(p.items) {
		return api.Notification{}, false
	}
	return p.items[p.cursor], true
}

// View renders the list.
func (p NotificationsPanel) View() string {
	if len(p.items) == 0 {
		return p.muted.Render("No notifications.")
	}
	var sb strings.Builder
	for i, n := range p.items {
		marker := "•"
		if n.IsRead {
			marker = " "
		}
		line := marker + " " + n.CreatedAt.Local().Format("01-02 15:04") + "  " + n.Message
		switch {
		case i == p.cursor:
			line = p.selected.Render(line)
		case n.IsRead:
			line = p.muted.Render(line)
		}
		sb.WriteString(line + "\n")
	}
	return strings.TrimRight(sb.String(), "\n")
}
