package config

import (
	"fmt"
	"time"
)

// Config is the root configuration for taskdeck.
type Config struct {
	API       APIConfig       `json:"api"`
	Browser   BrowserConfig   `json:"browser"`
	Log       LogConfig       `json:"log"`
	DevServer DevServerConfig `json:"dev_server"`
}

// APIConfig describes how to reach the remote task API.
type APIConfig struct {
	BaseURL string   `json:"base_url"`
	Timeout Duration `json:"timeout,omitempty"`
	Routes  Routes   `json:"routes"`
}

// Routes maps each remote operation to a path. Paths containing "{id}" are
// expanded with the resource identifier.
type Routes struct {
	ListTasks     string `json:"list_tasks"`
	GetTask       string `json:"get_task"`
	CreateTask    string `json:"create_task"`
	UpdateTask    string `json:"update_task"`
	DeleteTask    string `json:"delete_task"`
	PriorityTasks string `json:"priority_tasks"`
	UpcomingTasks string `json:"upcoming_tasks"`

	Categories    string `json:"categories"`
	Category      string `json:"category"`
	CategoryTasks string `json:"category_tasks"`

	Login    string `json:"login"`
	Register string `json:"register"`
	User     string `json:"user"`

	Notifications     string `json:"notifications"`
	NotificationRead  string `json:"notification_read"`
	NotificationsRead string `json:"notifications_read_all"`
	Notification      string `json:"notification"`
}

// BrowserConfig tunes the interactive task browser.
type BrowserConfig struct {
	PageSize     int `json:"page_size"`
	SpecialLimit int `json:"special_limit"`
	UpcomingDays int `json:"upcoming_days"`
}

// LogConfig controls slog output.
type LogConfig struct {
	Level string `json:"level"` // debug, info, warn, error
	File  string `json:"file,omitempty"`
}

// DevServerConfig configures the bundled reference API server.
type DevServerConfig struct {
	Addr     string   `json:"addr"`
	Secret   string   `json:"secret"`
	TokenTTL Duration `json:"token_ttl,omitempty"`
}

// Duration wraps time.Duration for JSON unmarshaling.
type Duration time.Duration

func (d Duration) Duration() time.Duration {
	return time.Duration(d)
}

func (d *Duration) UnmarshalJSON(b []byte) error {
	// Remove quotes
	s := string(b)
	if len(s) >= 2 && s[0] == '"' && s[len(s)-1] == '"' {
		s = s[1 : len(s)-1]
	}
	dur, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("parse duration %q: %w", s, err)
	}
	*d = Duration(dur)
	return nil
}

func (d Duration) MarshalJSON() ([]byte, error) {
	return []byte(`"` + time.Duration(d).String() + `"`), nil
}
