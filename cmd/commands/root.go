package commands

import (
	"github.com/urfave/cli/v3"

	"github.com/dohr-michael/taskdeck/internal/config"
)

// NewRootCommand returns the top-level CLI command.
func NewRootCommand() *cli.Command {
	return &cli.Command{
		Name:  "taskdeck",
		Usage: "Browse and manage your tasks from the terminal",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to config file",
				Value:   config.ConfigPath(),
			},
			&cli.BoolFlag{
				Name:  "debug",
				Usage: "Enable debug logging",
			},
			&cli.StringFlag{
				Name:    "api-url",
				Usage:   "Base URL of the task API",
				Sources: cli.EnvVars("TASKDECK_API_URL"),
			},
		},
		Commands: []*cli.Command{
			NewInitCommand(),
			NewLoginCommand(),
			NewRegisterCommand(),
			NewLogoutCommand(),
			NewWhoamiCommand(),
			NewBrowseCommand(),
			NewTasksCommand(),
			NewCategoriesCommand(),
			NewNotificationsCommand(),
			NewProfileCommand(),
			NewHistoryCommand(),
			NewStatusCommand(),
			NewDevServerCommand(),
		},
	}
}
