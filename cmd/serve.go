package cmd

import (
	"fmt"

	"github.com/urfave/cli/v2"

	"github.com/ticketsmith/internal/api"
	"github.com/ticketsmith/internal/config"
	"github.com/ticketsmith/internal/enhance"
	"github.com/ticketsmith/internal/logging"
	"github.com/ticketsmith/internal/tenant"
)

// ServeCommand returns the CLI command for starting the Connect app server
func ServeCommand() *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Start the Ticketsmith Connect app server",
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:    "port",
				Aliases: []string{"p"},
				Usage:   "Port for the server (overrides config)",
			},
		},
		Action: func(c *cli.Context) error {
			cfg, err := config.LoadConfig(c.String("config"))
			if err != nil {
				return err
			}
			logging.Setup(cfg.Log.Level)

			if err := config.Validate(cfg); err != nil {
				return fmt.Errorf("invalid configuration: %w", err)
			}

			if c.IsSet("port") {
				cfg.Server.Port = c.Int("port")
			}

			policy, err := enhance.LoadPolicy(cfg.Policy.File)
			if err != nil {
				return err
			}

			registry := tenant.NewRegistry(cfg.Server.TenantsFile)
			if err := registry.Load(); err != nil {
				return fmt.Errorf("failed to load tenant registry: %w", err)
			}

			server := api.NewServer(cfg, registry, policy)
			return server.Start()
		},
	}
}
