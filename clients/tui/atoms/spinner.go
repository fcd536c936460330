// Package atoms provides low-level TUI building blocks.
package atoms

import (
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// Spinner is the loading indicator shown while a fetch is in flight.
type Spinner struct {
	Model  spinner.Model
	active bool
}

// NewSpinner creates a spinner with the dots pattern.
func NewSpinner(color lipgloss.AdaptiveColor) Spinner {
	s := spinner.New()
	s.Spinner = spinner.MiniDot
	s.Style = lipgloss.NewStyle().Foreground(color)
	return Spinner{Model: s}
}

// Start activates the spinner and returns the first tick when it was idle.
func (s *Spinner) Start() tea.Cmd {
	if s.active {
		return nil
	}
	s.active = true
	return s.Model.Tick
}

// Stop hides the spinner; pending ticks are ignored.
func (s *Spinner) Stop() { s.active = false }

// Active reports whether the spinner is shown.
func (s Spinner) Active() bool { return s.active }

// Update advances the animation while active.
func (s Spinner) Update(msg tea.Msg) (Spinner, tea.Cmd) {
	if !s.active {
		return s, nil
	}
	var cmd tea.Cmd
	s.Model, cmd = s.Model.Update(msg)
	return s, cmd
}

// View renders the spinner frame, or nothing when idle.
func (s Spinner) View() string {
	if !s.active {
		return ""
	}
	return s.Model.View()
}
