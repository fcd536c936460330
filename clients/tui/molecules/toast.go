package molecules

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// ToastTTL is how long a notice stays on screen.
const ToastTTL = 3 * time.Second

// ToastExpiredMsg hides the toast with the matching id.
type ToastExpiredMsg struct{ ID int }

// Toast is a transient one-line notice. Showing a new notice replaces the
// current one; only the latest expiry clears it.
type Toast struct {
	id    int
	text  string
	style lipgloss.Style
}

// Show displays text and returns the expiry tick.
func (t *Toast) Show(text string, style lipgloss.Style) tea.Cmd {
	t.id++
	t.text = text
	t.style = style
	id := t.id
	return tea.Tick(ToastTTL, func(time.Time) tea.Msg { return ToastExpiredMsg{ID: id} })
}

// Expire clears the toast if msg belongs to the one displayed.
func (t *Toast) Expire(msg ToastExpiredMsg) {
	if msg.ID == t.id {
		t.text = ""
	}
}

// Text returns the displayed notice.
func (t Toast) Text() string { return t.text }

// View renders the toast, or nothing.
func (t Toast) View() string {
	if t.text == "" {
		return ""
	}
	return t.style.Render(t.text)
}
