package organisms

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/dohr-michael/taskdeck/clients/tui/atoms"
	"github.com/dohr-michael/taskdeck/internal/taskview"
)

// InformationPanel is the status bar: view mode, paging, user, unread
// notifications and the loading indicator.
type InformationPanel struct {
	mode       taskview.Mode
	pagination *taskview.Pagination
	user       string
	unread     int
	loading    string
	width      int
	style      lipgloss.Style
	badge      lipgloss.Style
}

// NewInformationPanel creates a new status bar panel.
func NewInformationPanel(style, badge lipgloss.Style) InformationPanel {
	return InformationPanel{style: style, badge: badge}
}

// SetView updates the mode and paging shown.
func (p *InformationPanel) SetView(mode taskview.Mode, pagination *taskview.Pagination) {
	p.mode = mode
	p.pagination = pagination
}

// SetUser updates the signed-in user.
func (p *InformationPanel) SetUser(name string) { p.user = name }

// SetUnread updates the notification badge.
func (p *InformationPanel) SetUnread(n int) { p.unread = n }

// SetLoading shows frame (a spinner view) while a fetch is pending; empty hides it.
func (p *InformationPanel) SetLoading(frame string) { p.loading = frame }

// SetWidth updates the rendering width.
func (p *InformationPanel) SetWidth(w int) { p.width = w }

// Unread returns the badge count.
func (p InformationPanel) Unread() int { return p.unread }

// View renders the status bar.
func (p InformationPanel) View() string {
	parts := []string{p.mode.String()}
	if p.mode == taskview.ModeNormal && p.pagination != nil {
		pages := max(p.pagination.TotalPages, 1)
		parts = append(parts, fmt.Sprintf("page %d/%d · %d total", p.pagination.Page, pages, p.pagination.Total))
	}
	if p.user != "" {
		parts = append(parts, p.user)
	}
	if badge := atoms.Unread(p.unread, p.badge); badge != "" {
		parts = append(parts, badge)
	}
	bar := " " + strings.Join(parts, " | ")
	if p.loading != "" {
		bar += " " + p.loading
	}
	return p.style.Width(p.width).Render(bar)
}
