package cmd

import (
	"errors"
	"fmt"
	"time"

	"github.com/naka-gawa/wiki-edit-report/internal/gateway"
	"github.com/naka-gawa/wiki-edit-report/internal/usecase"
	"github.com/spf13/cobra"
)

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Builds an edit report for one user on one wiki page",
	Long: `Fetches every revision the user made on the page, diffs each revision against
the previous one (the first against the page state preceding it), saves the
report as JSON and renders it to the configured document formats.`,
	Example: `  wiki-edit-report report --url https://en.wikipedia.org/wiki/Example --user Alice`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		logger := newLogger(cmd)

		pageURL, _ := cmd.Flags().GetString("url")
		username, _ := cmd.Flags().GetString("user")
		title, _ := cmd.Flags().GetString("title")
		if pageURL == "" || username == "" {
			return errors.New("both --url and --user are required")
		}

		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		if cmd.Flags().Changed("limit") {
			cfg.Limit, _ = cmd.Flags().GetInt("limit")
		}
		if cmd.Flags().Changed("output-dir") {
			cfg.OutputDir, _ = cmd.Flags().GetString("output-dir")
		}
		if err := cfg.Validate(); err != nil {
			return err
		}

		// Inject dependencies and run the main business logic.
		source, err := gateway.NewMediaWikiGateway(gateway.Options{
			Endpoint:  cfg.Endpoint(pageURL),
			UserAgent: cfg.UserAgent,
			Token:     cfg.Token,
			Timeout:   cfg.Timeout,
		}, logger)
		if err != nil {
			return fmt.Errorf("failed to create revision source: %w", err)
		}
		reporter := usecase.NewReporter(source, logger)

		report, err := reporter.Run(ctx, pageURL, username, cfg.Limit)
		if report == nil {
			return fmt.Errorf("failed to build report: %w", err)
		}
		if err != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "Warning: %v\n", err)
		}

		publisher, err := usecase.NewPublisher(cfg.Formats, logger)
		if err != nil {
			return err
		}
		paths, err := publisher.Publish(ctx, cfg.OutputDir, report, title, time.Now())
		for _, p := range paths {
			fmt.Fprintf(cmd.OutOrStdout(), "Saved %s\n", p)
		}
		return err
	},
}

func init() {
	rootCmd.AddCommand(reportCmd)
	reportCmd.Flags().String("url", "", "Wiki page URL, e.g. https://en.wikipedia.org/wiki/Example (required)")
	reportCmd.Flags().StringP("user", "u", "", "Wiki username whose edits are reported (required)")
	reportCmd.Flags().Int("limit", 0, "Revisions requested per API page (1-500, default from config)")
	reportCmd.Flags().StringP("output-dir", "o", "", "Directory for the report files (default from config)")
	reportCmd.Flags().StringSlice("format", nil, "Document formats to render: html, markdown (default from config)")
	reportCmd.Flags().String("title", "", "Document title (default \"Wikipedia Edit Report for <user> on <page>\")")
}
