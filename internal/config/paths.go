package config

import (
	"os"
	"path/filepath"
)

// HomePath returns the root directory for taskdeck data.
// It uses $TASKDECK_PATH if set, otherwise defaults to ~/.taskdeck.
func HomePath() string {
	if v := os.Getenv("TASKDECK_PATH"); v != "" {
		return v
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", ".taskdeck")
	}
	return filepath.Join(home, ".taskdeck")
}

// ConfigPath returns the path to the config file.
func ConfigPath() string {
	return filepath.Join(HomePath(), "config.jsonc")
}

// DotenvPath returns the path to the .env file.
func DotenvPath() string {
	return filepath.Join(HomePath(), ".env")
}

// SessionPath returns the path to the persisted login session.
func SessionPath() string {
	return filepath.Join(HomePath(), "session.json")
}

// KeyPath returns the path to the age identity protecting the session token.
func KeyPath() string {
	return filepath.Join(HomePath(), ".age-key")
}

// LogPath returns the default log file used by the interactive browser.
func LogPath() string {
	return filepath.Join(HomePath(), "logs", "taskdeck.log")
}

// BeaconPath returns the liveness file written by a running dev server.
func BeaconPath() string {
	return filepath.Join(HomePath(), "dev-server.json")
}

// JournalPath returns the JSONL file recording task and session activity.
func JournalPath() string {
	return filepath.Join(HomePath(), "logs", "activity.jsonl")
}
