package commands

import (
	"context"
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/urfave/cli/v3"

	"github.com/dohr-michael/taskdeck/internal/api"
	"github.com/dohr-michael/taskdeck/internal/events"
)

// NewProfileCommand returns the profile subcommand.
func NewProfileCommand() *cli.Command {
	return &cli.Command{
		Name:  "profile",
		Usage: "Show or change the signed-in account",
		Commands: []*cli.Command{
			{
				Name:  "update",
				Usage: "Change name, email or password",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "name", Aliases: []string{"n"}, Usage: "New display name"},
					&cli.StringFlag{Name: "email", Aliases: []string{"e"}, Usage: "New email"},
					&cli.BoolFlag{Name: "new-password", Usage: "Prompt for a new password"},
					passwordFlag(),
					outputFlag(),
				},
				Action: withEnv(runProfileUpdate),
			},
			{
				Name:   "delete",
				Usage:  "Delete the account with all its tasks and categories",
				Flags:  []cli.Flag{passwordFlag(), &cli.BoolFlag{Name: "yes", Aliases: []string{"y"}, Usage: "Do not ask for confirmation"}},
				Action: withEnv(runProfileDelete),
			},
		},
		Flags:  []cli.Flag{outputFlag()},
		Action: withEnv(runProfileShow),
	}
}

func runProfileShow(ctx context.Context, cmd *cli.Command, e *env) error {
	c, _, err := e.client()
	if err != nil {
		return err
	}
	user, err := c.Me(ctx)
	if err != nil {
		return describe("profile", err)
	}
	return render(e.out, cmd.String("output"), user, func(w *tabwriter.Writer) {
		fmt.Fprintf(w, "ID\t%d\n", user.ID)
		fmt.Fprintf(w, "Name\t%s\n", user.Name)
		fmt.Fprintf(w, "Email\t%s\n", user.Email)
	})
}

func runProfileUpdate(ctx context.Context, cmd *cli.Command, e *env) error {
	var up api.ProfileUpdate
	if cmd.IsSet("name") {
		v := strings.TrimSpace(cmd.String("name"))
		up.Name = &v
	}
	if cmd.IsSet("email") {
		v := strings.TrimSpace(cmd.String("email"))
		up.Email = &v
	}
	if cmd.Bool("new-password") {
		pw, err := readPassword("New password: ")
		if err != nil {
			return err
		}
		again, err := readPassword("Repeat new password: ")
		if err != nil {
			return err
		}
		if pw != again {
			return fmt.Errorf("passwords do not match")
		}
		up.Password = &pw
	}
	if up.Name == nil && up.Email == nil && up.Password == nil {
		return fmt.Errorf("nothing to change: pass --name, --email or --new-password")
	}

	c, s, err := e.client()
	if err != nil {
		return err
	}
	current, err := passwordFrom(cmd, "password", "Current password: ")
	if err != nil {
		return err
	}
	up.CurrentPassword = current

	user, err := c.UpdateProfile(ctx, up)
	if err != nil {
		return describe("update profile", err)
	}
	s.User = *user
	if err := e.sessions.Save(s); err != nil {
		e.log.Warn("profile updated but session not refreshed", "error", err)
	}
	return render(e.out, cmd.String("output"), user, func(w *tabwriter.Writer) {
		fmt.Fprintf(w, "Profile updated: %s <%s>\n", user.Name, user.Email)
	})
}

func runProfileDelete(ctx context.Context, cmd *cli.Command, e *env) error {
	c, s, err := e.client()
	if err != nil {
		return err
	}
	if !cmd.Bool("yes") && !confirm(fmt.Sprintf("Delete account %s and all its data?", s.User.Email)) {
		fmt.Fprintln(e.out, "Cancelled.")
		return nil
	}
	current, err := passwordFrom(cmd, "password", "Current password: ")
	if err != nil {
		return err
	}
	if err := c.DeleteAccount(ctx, current); err != nil {
		return describe("delete account", err)
	}
	if err := e.sessions.Clear(); err != nil {
		return fmt.Errorf("account deleted, clear session: %w", err)
	}
	e.publish(events.SessionPayload{Email: s.User.Email, BaseURL: s.BaseURL, Ended: true})
	fmt.Fprintln(e.out, "Account deleted.")
	return nil
}
