package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/ticketsmith/internal/config"
	"github.com/ticketsmith/internal/jira"
	"github.com/ticketsmith/internal/llm"
	"github.com/ticketsmith/internal/logging"
)

// CheckCommand returns the CLI command verifying that the configured
// Jira instance and Ollama server are both reachable.
func CheckCommand() *cli.Command {
	return &cli.Command{
		Name:  "check",
		Usage: "Verify Jira and Ollama connectivity",
		Action: func(c *cli.Context) error {
			cfg, err := config.LoadConfig(c.String("config"))
			if err != nil {
				return err
			}
			logging.Setup(cfg.Log.Level)

			if err := config.Validate(cfg); err != nil {
				return fmt.Errorf("invalid configuration: %w", err)
			}

			tracker, err := jira.NewClient(cfg.Jira.ServerURL, cfg.Jira.Email, cfg.Jira.APIToken)
			if err != nil {
				return err
			}

			count, err := tracker.CountProjects()
			if err != nil {
				return fmt.Errorf("jira check failed: %w", err)
			}
			fmt.Printf("Jira OK: connected to %s, %d projects visible\n", cfg.Jira.ServerURL, count)

			ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
			defer cancel()

			if err := llm.ValidateModel(ctx, cfg.Ollama.BaseURL, cfg.Ollama.Model); err != nil {
				return fmt.Errorf("ollama check failed: %w", err)
			}
			fmt.Printf("Ollama OK: model %s responded at %s\n", cfg.Ollama.Model, cfg.Ollama.BaseURL)

			return nil
		},
	}
}
