// Package main provides the citefix CLI entry point.
package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/matsen/citefix/internal/config"
	"github.com/matsen/citefix/internal/logging"
)

// Version is set at build time via ldflags
var Version = "dev"

var (
	// humanOutput controls whether to use human-readable output
	humanOutput bool
	verbose     bool
	configPath  string
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		// Print the error since we have SilenceErrors: true
		// This ensures Cobra errors (like missing required flags) are visible
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		os.Exit(ExitError)
	}
}

var rootCmd = &cobra.Command{
	Use:   "citefix",
	Short: "Extract, check and renumber superscript citations in Word manuscripts",
	Long: `citefix reads the superscript numeric citations of a .docx manuscript.

Core features:
  - Per-paragraph and per-table citation reports
  - Reading-order and duplicate-reference checks against the bibliography
  - Renumbering plans, applied to a copy of the document
  - A SQLite index for finding where a reference is cited

Superscripts in front of short element symbols (129Xe, 3He) are recognised
as isotope notation and left alone.
All commands output JSON by default for AI agent integration.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	// Load .env file if present (for CITEFIX_REVIEW_MODEL, CITEFIX_REVIEW_COMMAND)
	_ = godotenv.Load()

	rootCmd.PersistentFlags().BoolVar(&humanOutput, "human", false, "Use human-readable output instead of JSON")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Log progress to stderr")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Config file (default $XDG_CONFIG_HOME/citefix/config.yml)")
	rootCmd.Version = Version
}

// mustLoadConfig loads configuration, exits on error.
func mustLoadConfig() *config.Config {
	var (
		cfg *config.Config
		err error
	)
	if configPath != "" {
		cfg, err = config.LoadFile(configPath)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		exitWithError(ExitConfigError, "loading config: %v", err)
	}
	return cfg
}

// newLogger builds the stderr logger, falling back to a no-op logger.
func newLogger() *zap.Logger {
	logger, err := logging.New(verbose, humanOutput)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: building logger: %v\n", err)
		return zap.NewNop()
	}
	return logger
}
