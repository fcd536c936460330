package tui

import (
	tea "github.com/charmbracelet/bubbletea"

	"github.com/dohr-michael/taskdeck/internal/events"
)

// Project converts a bus event into a typed tea.Msg.
// Returns nil for events that don't map to a TUI message.
func Project(evt events.Event) tea.Msg {
	switch evt.Type {
	case events.EventNotice:
		payload, ok := events.GetNoticePayload(evt)
		if !ok || payload.Text == "" {
			return nil
		}
		return NoticeMsg{Level: payload.Level, Text: payload.Text}
	default:
		return nil
	}
}

// listen waits for the next projectable event on ch.
func listen(ch <-chan events.Event) tea.Cmd {
	return func() tea.Msg {
		for evt := range ch {
			if msg := Project(evt); msg != nil {
				return msg
			}
		}
		return busClosedMsg{}
	}
}
