package commands

import (
	"context"
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/urfave/cli/v3"

	"github.com/dohr-michael/taskdeck/clients/tui"
	"github.com/dohr-michael/taskdeck/internal/config"
	"github.com/dohr-michael/taskdeck/internal/taskview"
)

// NewBrowseCommand returns the browse subcommand, the interactive Task Browser.
func NewBrowseCommand() *cli.Command {
	return &cli.Command{
		Name:    "browse",
		Aliases: []string{"tui"},
		Usage:   "Launch the interactive Task Browser",
		Flags: []cli.Flag{
			&cli.Int64Flag{Name: "category", Usage: "Start in a category"},
			&cli.DurationFlag{Name: "poll", Usage: "Notification refresh interval (0 disables)", Value: 30 * time.Second},
		},
		Action: runBrowse,
	}
}

func runBrowse(ctx context.Context, cmd *cli.Command) error {
	// The terminal belongs to the browser: logs go to a file.
	cfg, err := config.LoadOrDefault(cmd.String("config"))
	if err != nil {
		return err
	}
	logPath := cfg.Log.File
	if logPath == "" {
		logPath = config.LogPath()
	}
	logFile, err := openLogFile(logPath)
	if err != nil {
		return fmt.Errorf("open log: %w", err)
	}
	defer logFile.Close()

	e, err := newEnv(cmd, logFile)
	if err != nil {
		return err
	}
	defer e.bus.Close()
	defer e.journal.Attach(e.bus)()

	c, s, err := e.client()
	if err != nil {
		return err
	}

	var category *int64
	if cmd.IsSet("category") {
		v := cmd.Int64("category")
		category = &v
	}

	app := tui.NewApp(ctx, tui.Options{
		Backend: c,
		Bus:     e.bus,
		Browser: taskview.Options{
			PageSize:     e.cfg.Browser.PageSize,
			SpecialLimit: e.cfg.Browser.SpecialLimit,
			UpcomingDays: e.cfg.Browser.UpcomingDays,
		},
		Category:     category,
		User:         s.User.Name,
		PollInterval: cmd.Duration("poll"),
		Logger:       e.log,
	})
	defer app.Close()

	e.log.Info("browser started", "base_url", s.BaseURL, "user", s.User.Email)
	_, err = tea.NewProgram(app, tea.WithAltScreen(), tea.WithContext(ctx)).Run()
	if err != nil && ctx.Err() == nil {
		return fmt.Errorf("browser: %w", err)
	}
	return nil
}
