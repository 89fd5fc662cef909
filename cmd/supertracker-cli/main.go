package main

import (
	"os"

	"github.com/yndnr/supertracker-go/internal/cli/command"
)

func main() {
	app := command.App()
	if err := app.Run(os.Args); err != nil {
		command.PrintError(app, os.Stderr, err)
		os.Exit(1)
	}
}
