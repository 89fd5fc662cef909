package command

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/urfave/cli/v2"

	"github.com/yndnr/supertracker-go/internal/backend/memory"
	"github.com/yndnr/supertracker-go/internal/bootstrap"
	"github.com/yndnr/supertracker-go/internal/config"
	"github.com/yndnr/supertracker-go/internal/core/domain"
)

// DemoCommand returns the demo command.
func DemoCommand() *cli.Command {
	return &cli.Command{
		Name:  "demo",
		Usage: "Walk through an offline session against an in-process backend",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "email",
				Value: "demo@supertracker.app",
				Usage: "Account to create",
			},
		},
		Action: demo,
	}
}

func demo(c *cli.Context) error {
	flags, err := ParseGlobalFlags(c)
	if err != nil {
		return err
	}
	ctx, cancel := commandContext(c)
	defer cancel()

	cfg := *GetConfig(c)
	cfg.Backend.Kind = config.BackendMemory
	cfg.Sync.DataDir = ""

	var logOut io.Writer = io.Discard
	if flags.Verbose {
		logOut = c.App.ErrWriter
	}
	mem := memory.New()
	rt, err := bootstrap.Open(ctx, &cfg, bootstrap.Options{
		LogOutput: logOut,
		Verbose:   flags.Verbose,
		Backend:   mem,
	})
	if err != nil {
		return err
	}
	defer rt.Close()

	w := c.App.Writer
	step := func(format string, args ...any) {
		fmt.Fprintf(w, "==> "+format+"\n", args...)
	}
	notice := func(err error) error {
		if err == nil {
			return nil
		}
		if !errors.Is(err, domain.ErrOffline) {
			return err
		}
		fmt.Fprintf(w, "    %s\n", domain.UserMessage(err, cfg.Locale))
		return nil
	}

	rt.Probe(ctx)
	email := c.String("email")
	step("Signing up %s", email)
	if _, err := rt.Tracker.SignUp(ctx, email, "demo-password", domain.Profile{FirstName: "Demo"}); err != nil {
		return err
	}

	step("Saving a routine while online")
	routine, err := rt.Tracker.SaveRoutine(ctx, domain.Routine{
		RoutineData: json.RawMessage(`{"name":"Push day","exercises":["bench press","dips"]}`),
	})
	if err != nil {
		return err
	}

	step("Connection lost")
	mem.SetReachable(false)
	rt.Probe(ctx)

	step("Logging a workout and deleting the routine while offline")
	_, err = rt.Tracker.SaveSession(ctx, domain.WorkoutSession{
		SessionData: json.RawMessage(`{"exercise":"bench press","sets":[8,8,6]}`),
		Date:        "2024-06-01",
		Completed:   true,
	})
	if err := notice(err); err != nil {
		return err
	}
	if err := notice(rt.Tracker.DeleteRoutine(ctx, routine.ID)); err != nil {
		return err
	}

	step("Pending operations: %d", rt.Queue.Len())
	pending := rt.Queue.Pending()
	rows := make([]PendingOperation, 0, len(pending))
	for _, op := range pending {
		rows = append(rows, pendingRow(op))
	}
	if err := render(c, rows); err != nil {
		return err
	}

	step("Connection restored")
	mem.SetReachable(true)
	rt.Probe(ctx)
	rt.Queue.Wait()
	step("Pending operations: %d", rt.Queue.Len())

	sessions, err := rt.Tracker.LoadSessions(ctx)
	if err != nil {
		return err
	}
	routines, err := rt.Tracker.LoadRoutines(ctx)
	if err != nil {
		return err
	}
	step("Sessions on the backend: %d", len(sessions))
	if err := render(c, sessions); err != nil {
		return err
	}
	step("Routines on the backend: %d", len(routines))
	return nil
}
