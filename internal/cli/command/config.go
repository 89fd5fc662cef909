package command

import (
	"fmt"

	"github.com/urfave/cli/v2"

	"github.com/yndnr/supertracker-go/internal/config"
)

// ConfigCommand returns the config subcommand group.
func ConfigCommand() *cli.Command {
	return &cli.Command{
		Name:  "config",
		Usage: "Inspect the effective configuration",
		Subcommands: []*cli.Command{
			{
				Name:   "show",
				Usage:  "Show the effective configuration with secrets masked",
				Action: configShow,
			},
			{
				Name:   "path",
				Usage:  "Show the default configuration file path",
				Action: configPath,
			},
		},
	}
}

func configShow(c *cli.Context) error {
	values, err := config.Values(config.Sanitize(GetConfig(c)))
	if err != nil {
		return err
	}
	return render(c, values)
}

func configPath(c *cli.Context) error {
	path := c.String("config")
	if path == "" {
		path = config.DefaultConfigPath()
	}
	fmt.Fprintln(c.App.Writer, path)
	return nil
}
