package command

import (
	"bufio"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/yndnr/supertracker-go/internal/core/domain"
)

// QueueCommand returns the offline queue subcommand group.
func QueueCommand() *cli.Command {
	return &cli.Command{
		Name:    "queue",
		Aliases: []string{"q"},
		Usage:   "Inspect and flush writes waiting for connectivity",
		Subcommands: []*cli.Command{
			{
				Name:   "status",
				Usage:  "Show connectivity and queue length",
				Action: queueStatus,
			},
			{
				Name:    "list",
				Aliases: []string{"ls"},
				Usage:   "List pending operations, oldest first",
				Action:  queueList,
			},
			{
				Name:   "flush",
				Usage:  "Replay pending operations now",
				Action: queueFlush,
			},
			{
				Name:  "clear",
				Usage: "Discard every pending operation",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:    "force",
						Aliases: []string{"f"},
						Usage:   "Skip confirmation",
					},
				},
				Action: queueClear,
			},
		},
	}
}

// QueueStatus is the output of queue status.
type QueueStatus struct {
	Online   bool `json:"online"`
	Flushing bool `json:"flushing"`
	Pending  int  `json:"pending"`
	Capacity int  `json:"capacity"`
}

// PendingOperation is one row of queue list.
type PendingOperation struct {
	ID         string    `json:"id"`
	Kind       string    `json:"kind"`
	Attempts   int       `json:"attempts"`
	EnqueuedAt time.Time `json:"enqueued_at"`
	Payload    string    `json:"payload" table:"wide"`
}

// FlushSummary is the output of queue flush. Processed counts operations
// that left the queue, whether replayed or dropped after failing.
type FlushSummary struct {
	Pending   int  `json:"pending"`
	Processed int  `json:"processed"`
	Dropped   int  `json:"dropped"`
	Remaining int  `json:"remaining"`
	Skipped   bool `json:"skipped"`
}

func queueStatus(c *cli.Context) error {
	rt, err := EnsureRuntime(c)
	if err != nil {
		return err
	}
	// Let a reconnect flush settle before reporting.
	rt.Queue.Wait()

	return render(c, QueueStatus{
		Online:   rt.Queue.IsOnline(),
		Flushing: rt.Queue.IsFlushing(),
		Pending:  rt.Queue.Len(),
		Capacity: rt.Queue.Cap(),
	})
}

func queueList(c *cli.Context) error {
	rt, err := EnsureRuntime(c)
	if err != nil {
		return err
	}
	rt.Queue.Wait()

	pending := rt.Queue.Pending()
	rows := make([]PendingOperation, 0, len(pending))
	for _, op := range pending {
		rows = append(rows, pendingRow(op))
	}
	if err := render(c, rows); err != nil {
		return err
	}
	return printTotal(c, len(rows), "pending")
}

func pendingRow(op *domain.QueuedOperation) PendingOperation {
	return PendingOperation{
		ID:         op.ID,
		Kind:       op.Kind.String(),
		Attempts:   op.Attempts,
		EnqueuedAt: op.EnqueuedAt,
		Payload:    string(op.Payload),
	}
}

func queueFlush(c *cli.Context) error {
	rt, err := EnsureRuntime(c)
	if err != nil {
		return err
	}
	// The probe in EnsureRuntime may already be flushing.
	rt.Queue.Wait()
	pending := rt.Queue.Len()

	ctx, cancel := commandContext(c)
	defer cancel()

	// Coming back online flushes in the background; the explicit Flush
	// below then picks up whatever that pass left behind.
	if !rt.Probe(ctx) {
		return domain.ErrOffline
	}
	rt.Queue.Wait()
	res := rt.Queue.Flush(ctx)

	remaining := rt.Queue.Len()
	return render(c, FlushSummary{
		Pending:   pending,
		Processed: pending - remaining,
		Dropped:   res.Dropped,
		Remaining: remaining,
		Skipped:   res.Skipped && remaining > 0,
	})
}

func queueClear(c *cli.Context) error {
	rt, err := EnsureRuntime(c)
	if err != nil {
		return err
	}
	rt.Queue.Wait()

	n := rt.Queue.Len()
	if n == 0 {
		fmt.Fprintln(c.App.Writer, "Queue is empty.")
		return nil
	}
	if !c.Bool("force") && !confirm(c, fmt.Sprintf("Discard %d pending operations?", n)) {
		fmt.Fprintln(c.App.Writer, "Aborted.")
		return nil
	}

	removed := rt.Queue.Clear()
	fmt.Fprintf(c.App.Writer, "Discarded %d operations.\n", removed)
	return nil
}

// confirm asks a yes/no question on the app's reader.
func confirm(c *cli.Context, prompt string) bool {
	fmt.Fprintf(c.App.Writer, "%s [y/N]: ", prompt)
	r := c.App.Reader
	if r == nil {
		r = os.Stdin
	}
	answer, _ := bufio.NewReader(r).ReadString('\n')
	answer = strings.ToLower(strings.TrimSpace(answer))
	return answer == "y" || answer == "yes"
}
