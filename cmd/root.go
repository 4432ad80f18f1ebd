// Package cmd contains all the CLI commands for the application,
// built using the Cobra library.
package cmd

import (
	"context"
	"io"
	"log"
	"os"
	"os/signal"

	"github.com/naka-gawa/wiki-edit-report/internal/config"
	"github.com/naka-gawa/wiki-edit-report/internal/render"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "wiki-edit-report",
	Short: "A CLI tool to report a user's edits on a wiki page.",
	Long: `wiki-edit-report fetches every revision a user made on a single wiki page,
diffs each one against the page state before it, and saves the result as a
JSON record plus human-readable HTML and Markdown documents.`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
// An interrupt cancels the running command's context.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	// Add a persistent flag for verbose output, available to all commands.
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose/debug logging")
	rootCmd.PersistentFlags().String("config", "", "Path to a YAML config file (default "+config.DefaultPath()+")")
}

// newLogger returns a logger that discards everything unless --verbose is set.
func newLogger(cmd *cobra.Command) *log.Logger {
	verbose, _ := cmd.InheritedFlags().GetBool("verbose")
	logger := log.New(io.Discard, "", log.LstdFlags) // Default: discard all logs.
	if verbose {
		logger.SetOutput(cmd.ErrOrStderr()) // If verbose, log to standard error.
	}
	return logger
}

// loadConfig loads the config file and applies the format flag when set.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	path, _ := cmd.InheritedFlags().GetString("config")
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	if cmd.Flags().Changed("format") {
		formats, _ := cmd.Flags().GetStringSlice("format")
		cfg.Formats = nil
		for _, f := range formats {
			cfg.Formats = append(cfg.Formats, render.Format(f))
		}
	}
	return cfg, nil
}
