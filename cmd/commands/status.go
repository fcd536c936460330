package commands

import (
	"context"
	"errors"
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/urfave/cli/v3"

	"github.com/dohr-michael/taskdeck/internal/api"
	"github.com/dohr-michael/taskdeck/internal/config"
	"github.com/dohr-michael/taskdeck/internal/devserver"
	"github.com/dohr-michael/taskdeck/internal/session"
)

// NewStatusCommand returns the status subcommand.
func NewStatusCommand() *cli.Command {
	return &cli.Command{
		Name:   "status",
		Usage:  "Show API reachability and session state",
		Flags:  []cli.Flag{outputFlag()},
		Action: withEnv(runStatus),
	}
}

type statusReport struct {
	BaseURL   string    `json:"base_url"`
	Reachable bool      `json:"reachable"`
	Latency   string    `json:"latency,omitempty"`
	Error     string    `json:"error,omitempty"`
	LoggedIn  bool      `json:"logged_in"`
	User      string    `json:"user,omitempty"`
	Valid     bool      `json:"session_valid"`
	ExpiresAt time.Time `json:"expires_at,omitzero"`

	DevServer       devserver.BeaconState   `json:"dev_server"`
	DevServerRecord *devserver.BeaconRecord `json:"dev_server_record,omitempty"`
}

func runStatus(ctx context.Context, cmd *cli.Command, e *env) error {
	rep := statusReport{BaseURL: e.cfg.API.BaseURL}

	s, err := e.sessions.Load()
	switch {
	case errors.Is(err, session.ErrNoSession):
	case err != nil:
		rep.Error = fmt.Sprintf("load session: %v", err)
	default:
		rep.LoggedIn = true
		rep.User = s.User.Email
		rep.ExpiresAt = s.ExpiresAt
		if s.BaseURL != "" {
			rep.BaseURL = s.BaseURL
		}
	}

	c, err := api.New(api.Options{
		BaseURL: rep.BaseURL,
		Routes:  e.cfg.API.Routes,
		Timeout: e.cfg.API.Timeout.Duration(),
		Token:   tokenOf(s),
		Logger:  e.log,
	})
	if err != nil {
		return err
	}

	// Any HTTP answer, even 401, means the server is up.
	start := time.Now()
	_, err = c.Me(ctx)
	var terr *api.TransportError
	switch {
	case errors.As(err, &terr):
		rep.Error = api.Message(err)
	case err == nil:
		rep.Reachable = true
		rep.Valid = rep.LoggedIn
	default:
		rep.Reachable = true
		if rep.LoggedIn && !errors.Is(err, api.ErrUnauthorized) {
			rep.Error = api.Message(err)
		}
	}
	if rep.Reachable {
		rep.Latency = time.Since(start).Round(time.Millisecond).String()
	}

	rep.DevServer, rep.DevServerRecord, err = devserver.ReadBeacon(config.BeaconPath(), 2*beaconInterval)
	if err != nil {
		e.log.Debug("dev server beacon", "error", err)
	}

	return render(e.out, cmd.String("output"), rep, func(w *tabwriter.Writer) {
		if rep.Reachable {
			fmt.Fprintf(w, "API\t%s: REACHABLE (%s)\n", rep.BaseURL, rep.Latency)
		} else {
			fmt.Fprintf(w, "API\t%s: UNREACHABLE\n", rep.BaseURL)
		}
		switch {
		case !rep.LoggedIn:
			fmt.Fprintln(w, "Session\tnot logged in")
		case rep.Valid:
			fmt.Fprintf(w, "Session\t%s, %s\n", rep.User, expiry(rep.ExpiresAt))
		case !rep.Reachable:
			fmt.Fprintf(w, "Session\t%s, %s (unverified)\n", rep.User, expiry(rep.ExpiresAt))
		default:
			fmt.Fprintf(w, "Session\t%s, rejected by the server: run `taskdeck login`\n", rep.User)
		}
		switch rec := rep.DevServerRecord; rep.DevServer {
		case devserver.BeaconRunning:
			fmt.Fprintf(w, "Dev server\trunning on %s (PID %d, up %s, %d users, %d tasks)\n",
				rec.Addr, rec.PID, time.Since(rec.StartedAt).Truncate(time.Second), rec.Users, rec.Tasks)
		case devserver.BeaconStale:
			fmt.Fprintf(w, "Dev server\tstale (PID %d, last seen %s ago)\n",
				rec.PID, time.Since(rec.UpdatedAt).Truncate(time.Second))
		}
		if rep.Error != "" {
			fmt.Fprintf(w, "Error\t%s\n", rep.Error)
		}
	})
}

func tokenOf(s *session.Session) string {
	if s == nil {
		return ""
	}
	return s.Token
}

func expiry(at time.Time) string {
	if at.IsZero() {
		return "no expiry"
	}
	left := time.Until(at)
	if left <= 0 {
		return "expired " + at.Local().Format(time.DateTime)
	}
	return "expires in " + left.Round(time.Minute).String()
}
