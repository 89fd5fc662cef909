package command

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/yndnr/supertracker-go/internal/backend"
)

// WatchCommand returns the watch command.
func WatchCommand() *cli.Command {
	return &cli.Command{
		Name:      "watch",
		Usage:     "Print updates to the signed-in user's rows of a table",
		ArgsUsage: "TABLE",
		Flags: []cli.Flag{
			&cli.DurationFlag{
				Name:    "for",
				Aliases: []string{"t"},
				Usage:   "Stop after this long (default: until interrupted)",
			},
		},
		Action: watch,
	}
}

// ChangeEvent is one line of watch output.
type ChangeEvent struct {
	Time  time.Time      `json:"time"`
	Table string         `json:"table"`
	Event string         `json:"event"`
	ID    string         `json:"id"`
	New   backend.Record `json:"new,omitempty" table:"wide"`
}

func watch(c *cli.Context) error {
	table, err := requireArg(c, "table")
	if err != nil {
		return err
	}
	tracker, err := ensureTracker(c)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
	defer stop()
	if d := c.Duration("for"); d > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d)
		defer cancel()
	}

	var mu sync.Mutex
	sub, err := tracker.SubscribeToChanges(ctx, table, func(ch backend.Change) {
		mu.Lock()
		defer mu.Unlock()
		ev := ChangeEvent{
			Time:  time.Now(),
			Table: ch.Table,
			Event: ch.Event,
			ID:    ch.New.String("id"),
			New:   ch.New,
		}
		if err := render(c, []ChangeEvent{ev}); err != nil {
			fmt.Fprintf(c.App.ErrWriter, "render change: %v\n", err)
		}
	})
	if err != nil {
		return err
	}
	defer sub.Close()

	fmt.Fprintf(c.App.ErrWriter, "Watching %s. Press Ctrl+C to stop.\n", table)
	<-ctx.Done()
	return nil
}
