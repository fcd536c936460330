// Package molecules provides mid-level TUI components.
package molecules

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// FieldKind selects how a field is edited.
type FieldKind int

const (
	FieldText   FieldKind = iota // free text
	FieldChoice                  // one of Options, cycled with left/right
	FieldToggle                  // boolean, flipped with space
)

// Option is one entry of a choice field.
type Option struct {
	Label string
	Value string
}

// Field is one labeled row of a form.
type Field struct {
	Key   string
	Label string
	Kind  FieldKind

	input   textinput.Model
	options []Option
	cursor  int
	checked bool
	focused bool
}

// TextField creates a text field.
func TextField(key, label, value, placeholder string, limit int) Field {
	ti := textinput.New()
	ti.Prompt = ""
	ti.Placeholder = placeholder
	ti.CharLimit = limit
	ti.SetValue(value)
	return Field{Key: key, Label: label, Kind: FieldText, input: ti}
}

// ChoiceField creates a choice field with value preselected when present.
func ChoiceField(key, label string, options []Option, value string) Field {
	f := Field{Key: key, Label: label, Kind: FieldChoice, options: options}
	for i, o := range options {
		if o.Value == value {
			f.cursor = i
			break
		}
	}
	return f
}

// ToggleField creates a checkbox.
func ToggleField(key, label string, checked bool) Field {
	return Field{Key: key, Label: label, Kind: FieldToggle, checked: checked}
}

// Focus gives the field keyboard focus.
func (f *Field) Focus() tea.Cmd {
	f.focused = true
	if f.Kind == FieldText {
		return f.input.Focus()
	}
	return nil
}

// Blur removes keyboard focus.
func (f *Field) Blur() {
	f.focused = false
	if f.Kind == FieldText {
		f.input.Blur()
	}
}

// Value returns the text, the selected option value, or "true"/"false".
func (f Field) Value() string {
	switch f.Kind {
	case FieldChoice:
		if len(f.options) == 0 {
			return ""
		}
		return f.options[f.cursor].Value
	case FieldToggle:
		return fmt.Sprint(f.checked)
	default:
		return f.input.Value()
	}
}

// Checked reports the state of a toggle.
func (f Field) Checked() bool { return f.checked }

// SetValue replaces a text value or selects a choice.
func (f *Field) SetValue(v string) {
	switch f.Kind {
	case FieldChoice:
		for i, o := range f.options {
			if o.Value == v {
				f.cursor = i
			}
		}
	case FieldToggle:
		f.checked = v == "true"
	default:
		f.input.SetValue(v)
	}
}

// Update handles input for a focused field.
func (f Field) Update(msg tea.Msg) (Field, tea.Cmd) {
	if !f.focused {
		return f, nil
	}
	switch f.Kind {
	case FieldChoice:
		if k, ok := msg.(tea.KeyMsg); ok && len(f.options) > 0 {
			switch k.String() {
			case "left", "h":
				f.cursor = (f.cursor + len(f.options) - 1) % len(f.options)
			case "right", "l", " ":
				f.cursor = (f.cursor + 1) % len(f.options)
			}
		}
		return f, nil
	case FieldToggle:
		if k, ok := msg.(tea.KeyMsg); ok && (k.String() == " " || k.String() == "x") {
			f.checked = !f.checked
		}
		return f, nil
	}
	var cmd tea.Cmd
	f.input, cmd = f.input.Update(msg)
	return f, cmd
}

// View renders "label  value" with the label padded to width.
func (f Field) View(labelWidth int, labelStyle, focusStyle lipgloss.Style) string {
	label := labelStyle.Width(labelWidth).Render(f.Label)
	if f.focused {
		label = focusStyle.Width(labelWidth).Render(f.Label)
	}

	var value string
	switch f.Kind {
	case FieldChoice:
		names := make([]string, len(f.options))
		for i, o := range f.options {
			names[i] = o.Label
		}
		if len(names) > 0 {
			value = "‹ " + names[f.cursor] + " ›"
		}
	case FieldToggle:
		value = "[ ]"
		if f.checked {
			value = "[x]"
		}
	default:
		value = f.input.View()
	}
	return strings.TrimRight(label+" "+value, " ")
}
