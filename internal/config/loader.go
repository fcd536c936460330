package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"regexp"
	"strings"
	"time"

	"github.com/tailscale/hujson"
)

var envTemplateRe = regexp.MustCompile(`\$\{\{\s*\.Env\.(\w+)\s*\}\}`)

// Load reads a JSONC config file, strips comments, expands ${{ .Env.VAR }} templates,
// unmarshals it into Config, and applies defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	return Parse(data)
}

// LoadOrDefault behaves like Load but returns the defaults when the file does not exist.
func LoadOrDefault(path string) (*Config, error) {
	cfg, err := Load(path)
	if errors.Is(err, os.ErrNotExist) {
		cfg = &Config{}
		applyDefaults(cfg)
		return cfg, nil
	}
	return cfg, err
}

// Parse decodes JSONC bytes into a Config with defaults applied.
func Parse(data []byte) (*Config, error) {
	// Expand environment variable templates (before standardizing, since templates are in strings)
	expanded := expandEnvTemplates(string(data))

	std, err := hujson.Standardize([]byte(expanded))
	if err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	var cfg Config
	if err := json.Unmarshal(std, &cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	applyDefaults(&cfg)
	return &cfg, nil
}

// expandEnvTemplates replaces ${{ .Env.VAR }} with the env var value.
func expandEnvTemplates(s string) string {
	return envTemplateRe.ReplaceAllStringFunc(s, func(match string) string {
		parts := envTemplateRe.FindStringSubmatch(match)
		if len(parts) < 2 {
			return match
		}
		return os.Getenv(parts[1])
	})
}

// applyDefaults fills in zero-value fields with sensible defaults.
func applyDefaults(cfg *Config) {
	if v := os.Getenv("TASKDECK_API_URL"); v != "" {
		cfg.API.BaseURL = v
	}
	if cfg.API.BaseURL == "" {
		cfg.API.BaseURL = "http://127.0.0.1:8000"
	}
	cfg.API.BaseURL = strings.TrimRight(cfg.API.BaseURL, "/")
	if cfg.API.Timeout == 0 {
		cfg.API.Timeout = Duration(15 * time.Second)
	}
	applyRouteDefaults(&cfg.API.Routes)

	if cfg.Browser.PageSize <= 0 {
		cfg.Browser.PageSize = 10
	}
	if cfg.Browser.SpecialLimit <= 0 {
		cfg.Browser.SpecialLimit = 10
	}
	if cfg.Browser.UpcomingDays <= 0 {
		cfg.Browser.UpcomingDays = 3
	}

	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}

	if cfg.DevServer.Addr == "" {
		cfg.DevServer.Addr = "127.0.0.1:8000"
	}
	if cfg.DevServer.Secret == "" {
		cfg.DevServer.Secret = "taskdeck-dev-secret"
	}
	if cfg.DevServer.TokenTTL == 0 {
		cfg.DevServer.TokenTTL = Duration(60 * time.Minute)
	}
}

// DefaultRoutes returns the route table used when the config leaves paths empty.
func DefaultRoutes() Routes {
	var r Routes
	applyRouteDefaults(&r)
	return r
}

func applyRouteDefaults(r *Routes) {
	set := func(field *string, value string) {
		if *field == "" {
			*field = value
		}
	}
	set(&r.ListTasks, "/tasks")
	set(&r.GetTask, "/tasks/{id}")
	set(&r.CreateTask, "/tasks")
	set(&r.UpdateTask, "/tasks/{id}")
	set(&r.DeleteTask, "/tasks/{id}")
	set(&r.PriorityTasks, "/tasks/priority")
	set(&r.UpcomingTasks, "/tasks/upcoming")

	set(&r.Categories, "/categories")
	set(&r.Category, "/categories/{id}")
	set(&r.CategoryTasks, "/categories/{id}/tasks")

	set(&r.Login, "/auth/login")
	set(&r.Register, "/auth/register")
	set(&r.User, "/user")

	set(&r.Notifications, "/notifications")
	set(&r.NotificationRead, "/notifications/{id}/read")
	set(&r.NotificationsRead, "/notifications/read-all")
	set(&r.Notification, "/notifications/{id}")
}
