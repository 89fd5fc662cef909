package command

import (
	"fmt"

	"github.com/urfave/cli/v2"

	"github.com/yndnr/supertracker-go/internal/cli/output"
	"github.com/yndnr/supertracker-go/internal/core/domain"
)

// SessionCommand returns the workout session subcommand group.
func SessionCommand() *cli.Command {
	return &cli.Command{
		Name:    "session",
		Aliases: []string{"sess"},
		Usage:   "Manage workout sessions",
		Subcommands: []*cli.Command{
			{
				Name:  "save",
				Usage: "Create or update a workout session",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "id", Usage: "Session ID (generated when empty)"},
					&cli.StringFlag{Name: "data", Aliases: []string{"d"}, Usage: "Session data as JSON, @FILE or -", Required: true},
					&cli.StringFlag{Name: "date", Usage: "Calendar date (YYYY-MM-DD)"},
					&cli.BoolFlag{Name: "completed", Usage: "Mark the session completed"},
				},
				Action: sessionSave,
			},
			{
				Name:    "list",
				Aliases: []string{"ls"},
				Usage:   "List workout sessions, most recent first",
				Action:  sessionList,
			},
			{
				Name:      "delete",
				Aliases:   []string{"rm"},
				Usage:     "Delete a workout session",
				ArgsUsage: "SESSION_ID",
				Action:    sessionDelete,
			},
		},
	}
}

// RoutineCommand returns the routine subcommand group.
func RoutineCommand() *cli.Command {
	return &cli.Command{
		Name:  "routine",
		Usage: "Manage workout routines",
		Subcommands: []*cli.Command{
			{
				Name:  "save",
				Usage: "Create or update a routine",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "id", Usage: "Routine ID (generated when empty)"},
					&cli.StringFlag{Name: "data", Aliases: []string{"d"}, Usage: "Routine data as JSON, @FILE or -", Required: true},
				},
				Action: routineSave,
			},
			{
				Name:    "list",
				Aliases: []string{"ls"},
				Usage:   "List routines, most recently updated first",
				Action:  routineList,
			},
			{
				Name:      "delete",
				Aliases:   []string{"rm"},
				Usage:     "Delete a routine",
				ArgsUsage: "ROUTINE_ID",
				Action:    routineDelete,
			},
		},
	}
}

func sessionSave(c *cli.Context) error {
	doc, err := readJSON(c, "data", c.String("data"))
	if err != nil {
		return err
	}
	tracker, err := ensureTracker(c)
	if err != nil {
		return err
	}
	ctx, cancel := commandContext(c)
	defer cancel()

	saved, err := tracker.SaveSession(ctx, domain.WorkoutSession{
		ID:          c.String("id"),
		SessionData: doc,
		Date:        c.String("date"),
		Completed:   c.Bool("completed"),
	})
	if err := queued(c, err); err != nil {
		return err
	}
	return render(c, saved)
}

func sessionList(c *cli.Context) error {
	tracker, err := ensureTracker(c)
	if err != nil {
		return err
	}
	ctx, cancel := commandContext(c)
	defer cancel()

	sessions, err := tracker.LoadSessions(ctx)
	if err != nil {
		return err
	}
	if err := render(c, sessions); err != nil {
		return err
	}
	return printTotal(c, len(sessions), "sessions")
}

func sessionDelete(c *cli.Context) error {
	id, err := requireArg(c, "session ID")
	if err != nil {
		return err
	}
	tracker, err := ensureTracker(c)
	if err != nil {
		return err
	}
	ctx, cancel := commandContext(c)
	defer cancel()

	if err := queued(c, tracker.DeleteSession(ctx, id)); err != nil {
		return err
	}
	fmt.Fprintf(c.App.Writer, "Session %s deleted.\n", id)
	return nil
}

func routineSave(c *cli.Context) error {
	doc, err := readJSON(c, "data", c.String("data"))
	if err != nil {
		return err
	}
	tracker, err := ensureTracker(c)
	if err != nil {
		return err
	}
	ctx, cancel := commandContext(c)
	defer cancel()

	saved, err := tracker.SaveRoutine(ctx, domain.Routine{
		ID:          c.String("id"),
		RoutineData: doc,
	})
	if err := queued(c, err); err != nil {
		return err
	}
	return render(c, saved)
}

func routineList(c *cli.Context) error {
	tracker, err := ensureTracker(c)
	if err != nil {
		return err
	}
	ctx, cancel := commandContext(c)
	defer cancel()

	routines, err := tracker.LoadRoutines(ctx)
	if err != nil {
		return err
	}
	if err := render(c, routines); err != nil {
		return err
	}
	return printTotal(c, len(routines), "routines")
}

func routineDelete(c *cli.Context) error {
	id, err := requireArg(c, "routine ID")
	if err != nil {
		return err
	}
	tracker, err := ensureTracker(c)
	if err != nil {
		return err
	}
	ctx, cancel := commandContext(c)
	defer cancel()

	if err := queued(c, tracker.DeleteRoutine(ctx, id)); err != nil {
		return err
	}
	fmt.Fprintf(c.App.Writer, "Routine %s deleted.\n", id)
	return nil
}

// printTotal adds a count footer to table output.
func printTotal(c *cli.Context, n int, noun string) error {
	flags, err := ParseGlobalFlags(c)
	if err != nil {
		return err
	}
	if flags.Output == output.FormatTable {
		fmt.Fprintf(c.App.Writer, "\nTotal: %d %s\n", n, noun)
	}
	return nil
}
