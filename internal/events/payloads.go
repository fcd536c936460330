package events

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"
)

// EventPayload is the interface all typed payloads implement.
type EventPayload interface {
	EventType() EventType
}

// Level grades a notice.
type Level string

const (
	LevelInfo    Level = "info"
	LevelSuccess Level = "success"
	LevelError   Level = "error"
)

// NoticePayload is a transient message for the user.
type NoticePayload struct {
	Level Level  `json:"level"`
	Text  string `json:"text"`
}

func (NoticePayload) EventType() EventType { return EventNotice }

// Fetch stages.
const (
	FetchIssued  = "issued"
	FetchApplied = "applied"
	FetchDropped = "dropped"
	FetchFailed  = "failed"
)

// FetchPayload describes one Task Browser fetch at one stage.
type FetchPayload struct {
	Stage string `json:"stage"`
	Seq   uint64 `json:"seq"`
	Mode  string `json:"mode"`
	Page  int    `json:"page,omitempty"`
	Tasks int    `json:"tasks,omitempty"`
	Error string `json:"error,omitempty"`
}

func (p FetchPayload) EventType() EventType {
	switch p.Stage {
	case FetchApplied:
		return EventFetchApplied
	case FetchDropped:
		return EventFetchDropped
	case FetchFailed:
		return EventFetchFailed
	default:
		return EventFetchIssued
	}
}

// Task operations.
const (
	TaskCreated = "created"
	TaskUpdated = "updated"
	TaskDeleted = "deleted"
)

// TaskPayload describes a task mutation.
type TaskPayload struct {
	Op     string `json:"op"`
	TaskID int64  `json:"task_id"`
	Title  string `json:"title"`
}

func (p TaskPayload) EventType() EventType {
	switch p.Op {
	case TaskCreated:
		return EventTaskCreated
	case TaskDeleted:
		return EventTaskDeleted
	default:
		return EventTaskUpdated
	}
}

// SessionPayload describes a login or logout.
type SessionPayload struct {
	Email     string    `json:"email,omitempty"`
	BaseURL   string    `json:"base_url"`
	ExpiresAt time.Time `json:"expires_at,omitzero"`
	Ended     bool      `json:"ended,omitempty"`
}

func (p SessionPayload) EventType() EventType {
	if p.Ended {
		return EventSessionEnded
	}
	return EventSessionStarted
}

// NewTypedEvent creates an event from a typed payload.
func NewTypedEvent(source EventSource, payload EventPayload) Event {
	return Event{
		ID:        generateEventID(),
		Type:      payload.EventType(),
		Timestamp: time.Now(),
		Source:    source,
		Payload:   toMap(payload),
	}
}

// Notice is a shorthand for a notice event.
func Notice(source EventSource, level Level, text string) Event {
	return NewTypedEvent(source, NoticePayload{Level: level, Text: text})
}

func toMap(v any) map[string]any {
	var result map[string]any
	data, err := json.Marshal(v)
	if err != nil {
		return nil
	}
	if err := json.Unmarshal(data, &result); err != nil {
		return nil
	}
	return result
}

// ExtractPayload decodes an event payload back into its typed form.
func ExtractPayload[T EventPayload](e Event) (T, bool) {
	var result T
	data, err := json.Marshal(e.Payload)
	if err != nil {
		return result, false
	}
	if err := json.Unmarshal(data, &result); err != nil {
		return result, false
	}
	return result, true
}

func GetNoticePayload(e Event) (NoticePayload, bool) {
	return ExtractPayload[NoticePayload](e)
}

func GetFetchPayload(e Event) (FetchPayload, bool) {
	return ExtractPayload[FetchPayload](e)
}

func GetTaskPayload(e Event) (TaskPayload, bool) {
	return ExtractPayload[TaskPayload](e)
}

// LogSubscriber writes every event to log at debug level; notices of level
// error are logged as warnings.
func LogSubscriber(log *slog.Logger) Subscriber {
	return func(e Event) {
		level := slog.LevelDebug
		if e.Type == EventNotice {
			if p, ok := GetNoticePayload(e); ok && p.Level == LevelError {
				level = slog.LevelWarn
			}
		}
		log.Log(context.Background(), level, "event", "type", e.Type, "source", e.Source, "payload", e.Payload)
	}
}
