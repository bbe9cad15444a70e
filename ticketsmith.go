package main

import (
	"fmt"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/ticketsmith/cmd"
)

const (
	version = "0.1.0"
)

func main() {
	app := &cli.App{
		Name:    "ticketsmith",
		Usage:   "LLM-powered Jira ticket description enhancement",
		Version: version,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Load configuration from `FILE`",
			},
		},
		Commands: []*cli.Command{
			cmd.ServeCommand(),
			cmd.EnhanceCommand(),
			cmd.CheckCommand(),
			cmd.ConfigCommand(),
		},
	}

	err := app.Run(os.Args)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		os.Exit(1)
	}
}
