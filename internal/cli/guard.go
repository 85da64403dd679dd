package cli

import (
	"context"
	"fmt"
	"strings"

	"medguide/internal/api"

	"github.com/spf13/cobra"
)

// guardClient builds a client for the git-guard service from the merged
// configuration. Each subcommand gets a fresh context bound to the
// configured timeout.
func guardClient() (*api.Client, context.Context, context.CancelFunc, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, nil, nil, err
	}
	ctx, cancel := context.WithTimeout(context.Background(), cfg.Guard.Timeout())
	return api.NewClient(cfg.Guard.URL, cfg.Guard.Timeout()), ctx, cancel, nil
}

func newGuardCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "guard",
		Short: "Inspect and configure the git-guard CI service",
	}
	cmd.AddCommand(newGuardStatusCmd(), newGuardRunCmd(), newGuardConfigCmd())
	return cmd
}

func newGuardStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show the most recent CI run",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			client, ctx, cancel, err := guardClient()
			if err != nil {
				return err
			}
			defer cancel()

			status, err := client.FetchCIStatus(ctx)
			if err != nil {
				return err
			}
			printCIStatus(cmd, status)
			return nil
		},
	}
}

func newGuardRunCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Trigger a CI run now and report the result",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			client, ctx, cancel, err := guardClient()
			if err != nil {
				return err
			}
			defer cancel()

			if err := client.TriggerCI(ctx); err != nil {
				return err
			}
			status, err := client.FetchCIStatus(ctx)
			if err != nil {
				return fmt.Errorf("triggered, but fetching result failed: %w", err)
			}
			printCIStatus(cmd, status)
			return nil
		},
	}
}

func newGuardConfigCmd() *cobra.Command {
	var (
		template string
		rules    string
		repo     string
		interval int
	)

	cmd := &cobra.Command{
		Use:   "config",
		Short: "Show or update the git-guard configuration",
		Long: "Without flags, prints the current configuration. With flags, updates\n" +
			"only the given fields and prints the saved result.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			client, ctx, cancel, err := guardClient()
			if err != nil {
				return err
			}
			defer cancel()

			cfg, err := client.FetchGuardConfig(ctx)
			if err != nil {
				return err
			}

			if !cmd.Flags().Changed("template") &&
				!cmd.Flags().Changed("rules") &&
				!cmd.Flags().Changed("repo") &&
				!cmd.Flags().Changed("interval") {
				printGuardConfig(cmd, cfg)
				return nil
			}

			if cmd.Flags().Changed("template") {
				cfg.TemplateFormat = template
			}
			if cmd.Flags().Changed("rules") {
				cfg.CustomRules = rules
			}
			if cmd.Flags().Changed("repo") {
				cfg.GithubRepoURL = repo
			}
			if cmd.Flags().Changed("interval") {
				if interval < 1 {
					return fmt.Errorf("interval must be at least 1 minute")
				}
				cfg.CIIntervalMinutes = interval
			}

			saved, err := client.UpdateGuardConfig(ctx, cfg)
			if err != nil {
				return err
			}
			printGuardConfig(cmd, saved)
			return nil
		},
	}

	cmd.Flags().StringVar(&template, "template", "", "commit message template format")
	cmd.Flags().StringVar(&rules, "rules", "", "custom review rules")
	cmd.Flags().StringVar(&repo, "repo", "", "GitHub repository URL")
	cmd.Flags().IntVar(&interval, "interval", 0, "CI interval in minutes")
	return cmd
}

func printGuardConfig(cmd *cobra.Command, cfg api.GuardConfig) {
	cmd.Printf("template:  %s\n", cfg.TemplateFormat)
	cmd.Printf("rules:     %s\n", orNone(cfg.CustomRules))
	cmd.Printf("repo:      %s\n", orNone(cfg.GithubRepoURL))
	cmd.Printf("interval:  %d minutes\n", cfg.CIIntervalMinutes)
}

func printCIStatus(cmd *cobra.Command, status api.CIStatus) {
	if status.Status == "" {
		cmd.Println("no CI runs recorded")
		return
	}
	cmd.Printf("status:  %s\n", status.Status)
	cmd.Printf("ran at:  %s\n", orNone(status.LastRun))
	if details := strings.TrimSpace(status.Details); details != "" {
		cmd.Printf("details: %s\n", details)
	}
}

func orNone(s string) string {
	if strings.TrimSpace(s) == "" {
		return "(none)"
	}
	return s
}
