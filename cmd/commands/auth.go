package commands

import (
	"context"
	"fmt"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/urfave/cli/v3"

	"github.com/dohr-michael/taskdeck/internal/api"
	"github.com/dohr-michael/taskdeck/internal/events"
	"github.com/dohr-michael/taskdeck/internal/session"
)

func passwordFlag() *cli.StringFlag {
	return &cli.StringFlag{
		Name:    "password",
		Usage:   "Password (prompted when omitted)",
		Sources: cli.EnvVars("TASKDECK_PASSWORD"),
	}
}

// NewLoginCommand returns the login subcommand.
func NewLoginCommand() *cli.Command {
	return &cli.Command{
		Name:  "login",
		Usage: "Sign in and store the session",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "email", Aliases: []string{"e"}, Usage: "Account email", Sources: cli.EnvVars("TASKDECK_EMAIL")},
			passwordFlag(),
		},
		Action: withEnv(runLogin),
	}
}

func runLogin(ctx context.Context, cmd *cli.Command, e *env) error {
	email := strings.TrimSpace(cmd.String("email"))
	if email == "" {
		return fmt.Errorf("usage: taskdeck login --email <email>")
	}
	password, err := passwordFrom(cmd, "password", "Password: ")
	if err != nil {
		return err
	}

	c, err := e.anonymous()
	if err != nil {
		return err
	}
	resp, err := c.Login(ctx, api.Credentials{Email: email, Password: password})
	if err != nil {
		return describe("login", err)
	}
	return saveSession(e, c.BaseURL(), resp)
}

// NewRegisterCommand returns the register subcommand.
func NewRegisterCommand() *cli.Command {
	return &cli.Command{
		Name:  "register",
		Usage: "Create an account and sign in",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "name", Aliases: []string{"n"}, Usage: "Display name", Required: true},
			&cli.StringFlag{Name: "email", Aliases: []string{"e"}, Usage: "Account email", Required: true},
			passwordFlag(),
		},
		Action: withEnv(runRegister),
	}
}

func runRegister(ctx context.Context, cmd *cli.Command, e *env) error {
	password, err := passwordFrom(cmd, "password", "Choose a password: ")
	if err != nil {
		return err
	}
	if cmd.String("password") == "" {
		again, err := readPassword("Repeat password: ")
		if err != nil {
			return err
		}
		if again != password {
			return fmt.Errorf("passwords do not match")
		}
	}

	c, err := e.anonymous()
	if err != nil {
		return err
	}
	resp, err := c.Register(ctx, api.Registration{
		Name:     strings.TrimSpace(cmd.String("name")),
		Email:    strings.TrimSpace(cmd.String("email")),
		Password: password,
	})
	if err != nil {
		return describe("register", err)
	}
	return saveSession(e, c.BaseURL(), resp)
}

func saveSession(e *env, baseURL string, resp *api.AuthResponse) error {
	s, err := session.FromAuth(baseURL, resp)
	if err != nil {
		return err
	}
	if err := e.sessions.Save(s); err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	e.publish(events.SessionPayload{Email: s.User.Email, BaseURL: s.BaseURL, ExpiresAt: s.ExpiresAt})

	fmt.Fprintf(e.out, "Signed in as %s <%s>", s.User.Name, s.User.Email)
	if !s.ExpiresAt.IsZero() {
		fmt.Fprintf(e.out, " (session valid for %s)", s.Remaining(time.Now()).Round(time.Minute))
	}
	fmt.Fprintln(e.out)
	return nil
}

// NewLogoutCommand returns the logout subcommand.
func NewLogoutCommand() *cli.Command {
	return &cli.Command{
		Name:  "logout",
		Usage: "Forget the stored session",
		Action: withEnv(func(_ context.Context, _ *cli.Command, e *env) error {
			if err := e.sessions.Clear(); err != nil {
				return fmt.Errorf("clear session: %w", err)
			}
			e.publish(events.SessionPayload{BaseURL: e.cfg.API.BaseURL, Ended: true})
			fmt.Fprintln(e.out, "Signed out.")
			return nil
		}),
	}
}

// NewWhoamiCommand returns the whoami subcommand.
func NewWhoamiCommand() *cli.Command {
	return &cli.Command{
		Name:  "whoami",
		Usage: "Show the signed-in user",
		Flags: []cli.Flag{outputFlag()},
		Action: withEnv(func(ctx context.Context, cmd *cli.Command, e *env) error {
			c, s, err := e.client()
			if err != nil {
				return err
			}
			user, err := c.Me(ctx)
			if err != nil {
				return describe("whoami", err)
			}
			expires := "never"
			if !s.ExpiresAt.IsZero() {
				expires = s.ExpiresAt.Local().Format(time.DateTime)
			}
			view := map[string]any{"user": user, "base_url": s.BaseURL, "expires_at": expires}
			return render(e.out, cmd.String("output"), view, func(w *tabwriter.Writer) {
				fmt.Fprintf(w, "Name\t%s\n", user.Name)
				fmt.Fprintf(w, "Email\t%s\n", user.Email)
				fmt.Fprintf(w, "Server\t%s\n", s.BaseURL)
				fmt.Fprintf(w, "Session expires\t%s\n", expires)
			})
		}),
	}
}
