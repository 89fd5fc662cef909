package command

import (
	"fmt"

	"github.com/urfave/cli/v2"
)

// DataCommand returns the user data subcommand group.
func DataCommand() *cli.Command {
	return &cli.Command{
		Name:  "data",
		Usage: "Save and load the signed-in user's data document",
		Subcommands: []*cli.Command{
			{
				Name:      "save",
				Usage:     "Replace the user data document",
				ArgsUsage: "JSON|@FILE|-",
				Action:    dataSave,
			},
			{
				Name:   "load",
				Usage:  "Show the user data document",
				Action: dataLoad,
			},
		},
	}
}

func dataSave(c *cli.Context) error {
	doc, err := readJSON(c, "data", c.Args().First())
	if err != nil {
		return err
	}
	tracker, err := ensureTracker(c)
	if err != nil {
		return err
	}
	ctx, cancel := commandContext(c)
	defer cancel()

	if err := queued(c, tracker.SaveUserData(ctx, doc)); err != nil {
		return err
	}
	fmt.Fprintln(c.App.Writer, "Saved.")
	return nil
}

func dataLoad(c *cli.Context) error {
	tracker, err := ensureTracker(c)
	if err != nil {
		return err
	}
	ctx, cancel := commandContext(c)
	defer cancel()

	data, err := tracker.LoadUserData(ctx)
	if err != nil {
		return err
	}
	if data == nil {
		fmt.Fprintln(c.App.Writer, "No data saved yet.")
		return nil
	}
	return render(c, data)
}
