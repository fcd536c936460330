// Package organisms provides the panels of the Task Browser.
package organisms

import (
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/dohr-michael/taskdeck/clients/tui/molecules"
)

// FormSubmitMsg is sent when the user submits a form with enter.
type FormSubmitMsg struct {
	ID     string
	Values map[string]string
}

// FormCancelMsg is sent when the user leaves a form with esc.
type FormCancelMsg struct {
	ID string
}

// Form is a vertical list of fields edited one at a time. Tab and the arrow
// keys move between fields, enter submits, esc cancels.
type Form struct {
	id     string
	title  string
	fields []molecules.Field
	focus  int
	active bool
	style  lipgloss.Style
}

// NewForm creates an inactive form.
func NewForm(style lipgloss.Style) Form {
	return Form{style: style}
}

// Activate replaces the fields and focuses the first one.
func (f *Form) Activate(id, title string, fields []molecules.Field) tea.Cmd {
	f.id = id
	f.title = title
	f.fields = fields
	f.focus = 0
	f.active = true
	if len(f.fields) == 0 {
		return nil
	}
	return f.fields[0].Focus()
}

// Deactivate hides the form.
func (f *Form) Deactivate() {
	f.active = false
	for i := range f.fields {
		f.fields[i].Blur()
	}
}

// Active reports whether the form is shown.
func (f Form) Active() bool { return f.active }

// ID returns the identifier passed to Activate.
func (f Form) ID() string { return f.id }

// Values returns the current value of every field by key.
func (f Form) Values() map[string]string {
	out := make(map[string]string, len(f.fields))
	for _, field := range f.fields {
		out[field.Key] = field.Value()
	}
	return out
}

// Update handles form input.
func (f Form) Update(msg tea.Msg) (Form, tea.Cmd) {
	if !f.active || len(f.fields) == 0 {
		return f, nil
	}

	if k, ok := msg.(tea.KeyMsg); ok {
		switch k.String() {
		case "esc":
			id := f.id
			f.Deactivate()
			return f, func() tea.Msg { return FormCancelMsg{ID: id} }
		case "enter":
			id, values := f.id, f.Values()
			return f, func() tea.Msg { return FormSubmitMsg{ID: id, Values: values} }
		case "tab", "down":
			return f, f.move(1)
		case "shift+tab", "up":
			return f, f.move(-1)
		}
	}

	var cmd tea.Cmd
	f.fields[f.focus], cmd = f.fields[f.focus].Update(msg)
	return f, cmd
}

func (f *Form) move(delta int) tea.Cmd {
	f.fields[f.focus].Blur()
	f.focus = (f.focus + delta + len(f.fields)) % len(f.fields)
	return f.fields[f.focus].Focus()
}

// View renders the form.
func (f Form) View() string {
	if !f.active {
		return ""
	}

	labelWidth := 0
	for _, field := range f.fields {
		labelWidth = max(labelWidth, lipgloss.Width(field.Label))
	}
	labelStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	focusStyle := lipgloss.NewStyle().Bold(true)

	var sb strings.Builder
	if f.title != "" {
		sb.WriteString(focusStyle.Render(f.title) + "\n\n")
	}
	for _, field := range f.fields {
		sb.WriteString(field.View(labelWidth+1, labelStyle, focusStyle) + "\n")
	}
	sb.WriteString(labelStyle.Render("tab: next field · ←/→: change · space: toggle · enter: save · esc: cancel"))
	return f.style.Render(sb.String())
}
