package cmd

import (
	"fmt"
	"os"
	"time"

	"github.com/naka-gawa/wiki-edit-report/internal/artifact"
	"github.com/naka-gawa/wiki-edit-report/internal/render"
	"github.com/naka-gawa/wiki-edit-report/internal/usecase"
	"github.com/spf13/cobra"
)

var renderCmd = &cobra.Command{
	Use:   "render <report.json>",
	Short: "Renders documents from a saved JSON report",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		logger := newLogger(cmd)
		recordPath := args[0]

		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		if err := cfg.Validate(); err != nil {
			return err
		}

		report, err := artifact.Load(recordPath)
		if err != nil {
			return err
		}

		capturedAt, ok := artifact.CapturedAt(recordPath, time.Local)
		if !ok {
			info, err := os.Stat(recordPath)
			if err != nil {
				return err
			}
			capturedAt = info.ModTime()
		}

		title, _ := cmd.Flags().GetString("title")
		publisher, err := usecase.NewPublisher(cfg.Formats, logger)
		if err != nil {
			return err
		}
		paths, err := publisher.RenderDocuments(cmd.Context(), recordPath, render.NewDocument(report, title, capturedAt))
		for _, p := range paths {
			fmt.Fprintf(cmd.OutOrStdout(), "Saved %s\n", p)
		}
		return err
	},
}

func init() {
	rootCmd.AddCommand(renderCmd)
	renderCmd.Flags().StringSlice("format", nil, "Document formats to render: html, markdown (default from config)")
	renderCmd.Flags().String("title", "", "Document title (default \"Wikipedia Edit Report for <user> on <page>\")")
}
