package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/urfave/cli/v3"

	"github.com/dohr-michael/taskdeck/internal/api"
	"github.com/dohr-michael/taskdeck/internal/config"
	"github.com/dohr-michael/taskdeck/internal/events"
	"github.com/dohr-michael/taskdeck/internal/session"
)

// errNotLoggedIn is returned by commands that need a session.
var errNotLoggedIn = errors.New("not logged in: run `taskdeck login` first")

// stdout receives command output.
var stdout io.Writer = os.Stdout

// env is what every command action receives: the loaded config, the session
// store, the activity journal and an event bus whose events are logged at
// debug level.
type env struct {
	cfg      *config.Config
	sessions *session.FileStore
	bus      *events.Bus
	journal  *events.Journal
	log      *slog.Logger
	out      io.Writer
}

type envAction func(ctx context.Context, cmd *cli.Command, e *env) error

// withEnv loads the config, sets up logging to stderr and runs fn.
func withEnv(fn envAction) cli.ActionFunc {
	return func(ctx context.Context, cmd *cli.Command) error {
		e, err := newEnv(cmd, os.Stderr)
		if err != nil {
			return err
		}
		defer e.bus.Close()
		return fn(ctx, cmd, e)
	}
}

func newEnv(cmd *cli.Command, logOut io.Writer) (*env, error) {
	cfg, err := config.LoadOrDefault(cmd.String("config"))
	if err != nil {
		return nil, err
	}
	if u := cmd.String("api-url"); u != "" {
		cfg.API.BaseURL = strings.TrimRight(u, "/")
	}

	log := newLogger(logOut, cfg.Log.Level, cmd.Bool("debug"))
	slog.SetDefault(log)

	bus := events.NewBus(256)
	bus.Subscribe(events.LogSubscriber(log))

	return &env{
		cfg:      cfg,
		sessions: session.NewFileStore(config.SessionPath(), config.KeyPath()),
		bus:      bus,
		journal:  events.NewJournal(config.JournalPath()),
		log:      log,
		out:      stdout,
	}, nil
}

func newLogger(w io.Writer, level string, debug bool) *slog.Logger {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		lvl = slog.LevelInfo
	}
	if debug {
		lvl = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: lvl}))
}

// openLogFile opens (creating parents) the log file used by the browser.
func openLogFile(path string) (*os.File, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create log dir: %w", err)
	}
	return os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
}

// anonymous returns a client without credentials, for login and register.
func (e *env) anonymous() (*api.Client, error) {
	return api.New(api.Options{
		BaseURL: e.cfg.API.BaseURL,
		Routes:  e.cfg.API.Routes,
		Timeout: e.cfg.API.Timeout.Duration(),
		Logger:  e.log,
	})
}

// client returns an authenticated client for the stored session. The
// session's own base URL wins over the config so a login stays bound to the
// server that issued it.
func (e *env) client() (*api.Client, *session.Session, error) {
	s, err := e.sessions.Load()
	if errors.Is(err, session.ErrNoSession) {
		return nil, nil, errNotLoggedIn
	}
	if err != nil {
		return nil, nil, fmt.Errorf("load session: %w", err)
	}
	if s.Expired(time.Now()) {
		return nil, nil, fmt.Errorf("session expired at %s: run `taskdeck login` again", s.ExpiresAt.Local().Format(time.DateTime))
	}

	baseURL := e.cfg.API.BaseURL
	if s.BaseURL != "" {
		baseURL = s.BaseURL
	}
	c, err := api.New(api.Options{
		BaseURL: baseURL,
		Routes:  e.cfg.API.Routes,
		Timeout: e.cfg.API.Timeout.Duration(),
		Token:   s.Token,
		Logger:  e.log,
	})
	if err != nil {
		return nil, nil, err
	}
	return c, s, nil
}

// publish sends a typed event from the command line and journals it
// before the process exits.
func (e *env) publish(p events.EventPayload) {
	evt := events.NewTypedEvent(events.SourceCLI, p)
	e.bus.Publish(evt)
	if err := e.journal.Record(evt); err != nil {
		e.log.Warn("journal", "path", e.journal.Path(), "error", err)
	}
}

// idArg parses the n-th positional argument as a resource id.
func idArg(cmd *cli.Command, n int, what string) (int64, error) {
	raw := cmd.Args().Get(n)
	if raw == "" {
		return 0, fmt.Errorf("usage: taskdeck %s <%s_id>", cmd.FullName(), what)
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid %s id %q", what, raw)
	}
	return id, nil
}

// describe turns an API error into a command error with the normalized
// message.
func describe(what string, err error) error {
	return fmt.Errorf("%s: %s", what, api.Message(err))
}
