package command

import (
	"fmt"

	"github.com/urfave/cli/v2"

	"github.com/yndnr/supertracker-go/internal/core/domain"
)

// AuthCommand returns the auth subcommand group.
func AuthCommand() *cli.Command {
	emailFlag := &cli.StringFlag{
		Name:     "email",
		Aliases:  []string{"e"},
		Usage:    "Account email",
		EnvVars:  []string{"SUPERTRACKER_EMAIL"},
		Required: true,
	}
	passwordFlag := &cli.StringFlag{
		Name:     "password",
		Aliases:  []string{"p"},
		Usage:    "Account password",
		EnvVars:  []string{"SUPERTRACKER_PASSWORD"},
		Required: true,
	}

	return &cli.Command{
		Name:  "auth",
		Usage: "Sign up, sign in and manage the current account",
		Subcommands: []*cli.Command{
			{
				Name:  "signup",
				Usage: "Create an account",
				Flags: []cli.Flag{
					emailFlag,
					passwordFlag,
					&cli.StringFlag{Name: "first-name", Usage: "First name"},
					&cli.StringFlag{Name: "last-name", Usage: "Last name"},
				},
				Action: authSignUp,
			},
			{
				Name:    "login",
				Aliases: []string{"signin"},
				Usage:   "Sign in",
				Flags:   []cli.Flag{emailFlag, passwordFlag},
				Action:  authLogin,
			},
			{
				Name:    "logout",
				Aliases: []string{"signout"},
				Usage:   "Sign out",
				Action:  authLogout,
			},
			{
				Name:   "whoami",
				Usage:  "Show the signed-in user",
				Action: authWhoAmI,
			},
			{
				Name:   "reset-password",
				Usage:  "Send a password reset email",
				Flags:  []cli.Flag{emailFlag},
				Action: authResetPassword,
			},
		},
	}
}

func authSignUp(c *cli.Context) error {
	tracker, err := ensureTracker(c)
	if err != nil {
		return err
	}
	ctx, cancel := commandContext(c)
	defer cancel()

	session, err := tracker.SignUp(ctx, c.String("email"), c.String("password"), domain.Profile{
		FirstName: c.String("first-name"),
		LastName:  c.String("last-name"),
	})
	if err != nil {
		return err
	}
	if session == nil {
		fmt.Fprintln(c.App.Writer, "Account created. Confirm your email, then sign in.")
		return nil
	}
	return render(c, session.User)
}

func authLogin(c *cli.Context) error {
	tracker, err := ensureTracker(c)
	if err != nil {
		return err
	}
	ctx, cancel := commandContext(c)
	defer cancel()

	session, err := tracker.SignIn(ctx, c.String("email"), c.String("password"))
	if err != nil {
		return err
	}
	return render(c, session.User)
}

func authLogout(c *cli.Context) error {
	tracker, err := ensureTracker(c)
	if err != nil {
		return err
	}
	ctx, cancel := commandContext(c)
	defer cancel()

	if err := tracker.SignOut(ctx); err != nil {
		return err
	}
	fmt.Fprintln(c.App.Writer, "Signed out.")
	return nil
}

func authWhoAmI(c *cli.Context) error {
	tracker, err := ensureTracker(c)
	if err != nil {
		return err
	}
	ctx, cancel := commandContext(c)
	defer cancel()

	user, err := tracker.CurrentUser(ctx)
	if err != nil {
		return err
	}
	if user == nil {
		return domain.ErrNotAuthenticated
	}
	return render(c, user)
}

func authResetPassword(c *cli.Context) error {
	tracker, err := ensureTracker(c)
	if err != nil {
		return err
	}
	ctx, cancel := commandContext(c)
	defer cancel()

	if err := tracker.ResetPassword(ctx, c.String("email")); err != nil {
		return err
	}
	fmt.Fprintln(c.App.Writer, "If the account exists, a reset email is on its way.")
	return nil
}
