package commands

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/urfave/cli/v3"

	"github.com/dohr-michael/taskdeck/internal/config"
	"github.com/dohr-michael/taskdeck/internal/session"
)

// NewInitCommand returns the onboarding subcommand.
func NewInitCommand() *cli.Command {
	return &cli.Command{
		Name:  "init",
		Usage: "Initialize the taskdeck home directory (~/.taskdeck)",
		Action: func(_ context.Context, _ *cli.Command) error {
			return initHome(stdout, config.HomePath())
		},
	}
}

func initHome(out io.Writer, root string) error {
	created := false

	for _, d := range []string{root, filepath.Join(root, "logs")} {
		if _, err := os.Stat(d); err != nil {
			if err := os.MkdirAll(d, 0o755); err != nil {
				return fmt.Errorf("create dir %s: %w", d, err)
			}
			fmt.Fprintf(out, "  Created %s\n", d)
			created = true
		}
	}

	files := []struct {
		path    string
		content string
		perm    os.FileMode
	}{
		{filepath.Join(root, "config.jsonc"), defaultConfig, 0o644},
		{filepath.Join(root, ".env"), defaultDotenv, 0o600},
	}
	for _, f := range files {
		if _, err := os.Stat(f.path); err == nil {
			continue
		}
		if err := os.WriteFile(f.path, []byte(f.content), f.perm); err != nil {
			return fmt.Errorf("write %s: %w", filepath.Base(f.path), err)
		}
		fmt.Fprintf(out, "  Created %s\n", f.path)
		created = true
	}

	keyPath := filepath.Join(root, ".age-key")
	if _, err := os.Stat(keyPath); err != nil {
		if err := session.GenerateIdentity(keyPath); err != nil {
			return err
		}
		fmt.Fprintf(out, "  Created %s\n", keyPath)
		created = true
	}

	if !created {
		fmt.Fprintf(out, "%s is already set up. Nothing to do.\n", root)
		return nil
	}
	fmt.Fprint(out, initMessage(root))
	return nil
}

const defaultConfig = `{
	// taskdeck configuration

	"api": {
		// Override with TASKDECK_API_URL or --api-url.
		"base_url": "http://127.0.0.1:8000",
		"timeout": "15s"

		// Every path can be remapped; "{id}" is replaced by the resource id.
		// "routes": {
		// 	"list_tasks": "/tasks",
		// 	"priority_tasks": "/tasks/priority"
		// }
	},

	"browser": {
		"page_size": 10,
		"special_limit": 10,
		"upcoming_days": 3
	},

	"log": {
		"level": "info"
	},

	"dev_server": {
		"addr": "127.0.0.1:8000",
		"secret": "${{ .Env.TASKDECK_DEV_SECRET }}",
		"token_ttl": "60m"
	}
}
`

const defaultDotenv = `# taskdeck environment variables
# This file is loaded automatically. Existing env vars are never overridden.

# TASKDECK_API_URL=http://127.0.0.1:8000
# TASKDECK_EMAIL=you@example.com
# TASKDECK_DEV_SECRET=change-me
`

func initMessage(root string) string {
	return fmt.Sprintf(`
  Home set up at %s

  Next steps:
    1. Point api.base_url in %s/config.jsonc at your task API
       (or run: taskdeck dev-server)
    2. Run: taskdeck register --name "You" --email you@example.com
    3. Run: taskdeck browse
`, root, root)
}
