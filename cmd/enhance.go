package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/ticketsmith/internal/config"
	"github.com/ticketsmith/internal/enhance"
	"github.com/ticketsmith/internal/jira"
	"github.com/ticketsmith/internal/llm"
	"github.com/ticketsmith/internal/logging"
)

// EnhanceCommand returns the CLI command for enhancing tickets from the
// terminal, without going through the Connect app surface.
func EnhanceCommand() *cli.Command {
	return &cli.Command{
		Name:      "enhance",
		Usage:     "Preview or apply an enhanced description for a Jira issue",
		ArgsUsage: "[ISSUE-KEY]",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "apply",
				Usage: "Write the enhanced description back to Jira",
			},
			&cli.StringFlag{
				Name:    "instructions",
				Aliases: []string{"i"},
				Usage:   "Additional instructions for this enhancement",
			},
			&cli.StringFlag{
				Name:  "project",
				Usage: "Enhance the most recent issues of project `KEY` instead of a single issue",
			},
			&cli.IntFlag{
				Name:  "max",
				Usage: "Maximum number of issues to process in project mode",
				Value: 10,
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

			policy, err := enhance.LoadPolicy(cfg.Policy.File)
			if err != nil {
				return err
			}

			tracker, err := jira.NewClient(cfg.Jira.ServerURL, cfg.Jira.Email, cfg.Jira.APIToken)
			if err != nil {
				return err
			}

			generator := llm.NewOllamaClient(
				cfg.Ollama.BaseURL,
				cfg.Ollama.Model,
				llm.Options{
					Temperature: cfg.Ollama.Temperature,
					TopP:        cfg.Ollama.TopP,
					NumCtx:      cfg.Ollama.NumCtx,
				},
				time.Duration(cfg.Ollama.TimeoutSeconds)*time.Second,
			)

			enhancer := enhance.NewEnhancer(tracker, generator, policy)
			ctx := context.Background()

			if project := c.String("project"); project != "" {
				return enhanceProject(ctx, enhancer, tracker, project, c.Int("max"), c.String("instructions"))
			}

			if c.NArg() < 1 {
				return fmt.Errorf("issue key required (or use --project)")
			}
			issueKey := c.Args().First()

			if c.Bool("apply") {
				success, message := enhancer.Apply(ctx, issueKey, c.String("instructions"))
				fmt.Println(message)
				if !success {
					return fmt.Errorf("enhancement not applied")
				}
				return nil
			}

			return previewIssue(ctx, enhancer, tracker, issueKey, c.String("instructions"))
		},
	}
}

func previewIssue(ctx context.Context, enhancer *enhance.Enhancer, tracker *jira.Client, issueKey, instructions string) error {
	snap, err := tracker.GetIssue(issueKey)
	if err != nil {
		return err
	}

	fmt.Printf("Issue %s: %s\n", snap.Key, snap.Summary)
	fmt.Printf("Type: %s, Priority: %s, Status: %s\n\n", snap.IssueType, snap.Priority, snap.Status)
	fmt.Printf("Current description (%d chars):\n%s\n\n", len(snap.Description), snap.Description)

	result := enhancer.PreviewSnapshot(ctx, snap, instructions)
	if !result.Success {
		return fmt.Errorf("enhancement failed: %s", result.Error)
	}

	fmt.Printf("Enhanced description (%d chars):\n%s\n\n", len(result.EnhancedDescription), result.EnhancedDescription)
	fmt.Printf("Change: %+d characters\n", len(result.EnhancedDescription)-len(snap.Description))
	return nil
}

func enhanceProject(ctx context.Context, enhancer *enhance.Enhancer, tracker *jira.Client, projectKey string, max int, instructions string) error {
	snapshots, err := tracker.SearchProject(projectKey, max)
	if err != nil {
		return err
	}
	if len(snapshots) == 0 {
		return fmt.Errorf("no issues found in project %s", projectKey)
	}

	failures := 0
	for _, snap := range snapshots {
		fmt.Printf("Processing %s...\n", snap.Key)
		success, message := enhancer.Apply(ctx, snap.Key, instructions)
		fmt.Println(message)
		if !success {
			failures++
		}
	}

	fmt.Printf("Done: %d issues processed, %d failed\n", len(snapshots), failures)
	if failures > 0 {
		return fmt.Errorf("%d of %d enhancements failed", failures, len(snapshots))
	}
	return nil
}
