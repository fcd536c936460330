package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoad(t *testing.T) {
	content := `{
	// This is a JSONC comment
	"api": {
		"base_url": "https://tasks.example.com/",
		"timeout": "5s",
		"routes": {
			"list_tasks": "/listarTareas",
			"delete_task": "/eliminarTarea/{id}",
		},
	},
	"browser": {
		"page_size": 25
	},
	"dev_server": {
		"secret": "${{ .Env.TASKDECK_TEST_SECRET }}"
	}
}`

	dir := t.TempDir()
	path := filepath.Join(dir, "config.jsonc")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	t.Setenv("TASKDECK_TEST_SECRET", "test-secret-123")
	t.Setenv("TASKDECK_API_URL", "")

	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}

	if cfg.API.BaseURL != "https://tasks.example.com" {
		t.Errorf("expected trimmed base url, got %s", cfg.API.BaseURL)
	}
	if cfg.API.Timeout.Duration() != 5*time.Second {
		t.Errorf("expected timeout 5s, got %s", cfg.API.Timeout.Duration())
	}
	if cfg.API.Routes.ListTasks != "/listarTareas" {
		t.Errorf("expected list route override, got %s", cfg.API.Routes.ListTasks)
	}
	if cfg.API.Routes.DeleteTask != "/eliminarTarea/{id}" {
		t.Errorf("expected delete route override, got %s", cfg.API.Routes.DeleteTask)
	}
	if cfg.API.Routes.PriorityTasks != "/tasks/priority" {
		t.Errorf("expected default priority route, got %s", cfg.API.Routes.PriorityTasks)
	}
	if cfg.Browser.PageSize != 25 {
		t.Errorf("expected page_size 25, got %d", cfg.Browser.PageSize)
	}
	if cfg.DevServer.Secret != "test-secret-123" {
		t.Errorf("expected secret test-secret-123, got %s", cfg.DevServer.Secret)
	}
}

func TestLoadDefaults(t *testing.T) {
	content := `{}`
	dir := t.TempDir()
	path := filepath.Join(dir, "config.jsonc")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("TASKDECK_API_URL", "")

	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}

	if cfg.API.BaseURL != "http://127.0.0.1:8000" {
		t.Errorf("expected default base url, got %s", cfg.API.BaseURL)
	}
	if cfg.Browser.PageSize != 10 || cfg.Browser.SpecialLimit != 10 || cfg.Browser.UpcomingDays != 3 {
		t.Errorf("unexpected browser defaults: %+v", cfg.Browser)
	}
	if cfg.Log.Level != "info" {
		t.Errorf("expected default log level 'info', got %q", cfg.Log.Level)
	}
	if cfg.API.Routes != DefaultRoutes() {
		t.Errorf("expected default routes, got %+v", cfg.API.Routes)
	}
}

func TestLoadOrDefault_MissingFile(t *testing.T) {
	t.Setenv("TASKDECK_API_URL", "http://override:9000")

	cfg, err := LoadOrDefault(filepath.Join(t.TempDir(), "missing.jsonc"))
	if err != nil {
		t.Fatal(err)
	}
	if cfg.API.BaseURL != "http://override:9000" {
		t.Errorf("expected env override, got %s", cfg.API.BaseURL)
	}
}

func TestParse_InvalidJSONC(t *testing.T) {
	if _, err := Parse([]byte(`{"api": `)); err == nil {
		t.Fatal("expected error for truncated config")
	}
}

func TestExpandEnvTemplates(t *testing.T) {
	t.Setenv("TEST_KEY", "my-secret")
	result := expandEnvTemplates(`{"key": "${{ .Env.TEST_KEY }}"}`)
	expected := `{"key": "my-secret"}`
	if result != expected {
		t.Errorf("expected %s, got %s", expected, result)
	}
}
