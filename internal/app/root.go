// Package app contains the Cobra command tree for studiowatch.
package app

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/blackwell-systems/studiowatch/internal/config"
	"github.com/blackwell-systems/studiowatch/internal/logger"
	"github.com/blackwell-systems/studiowatch/internal/output"
)

var appVersion = "dev"

// SetVersion sets the application version (called from main with ldflags value).
func SetVersion(v string) {
	appVersion = v
	rootCmd.Version = v
}

var (
	flagNoColor bool
	flagJSON    bool
	flagVerbose bool
	flagConfig  string
)

var rootCmd = &cobra.Command{
	Use:   "studiowatch",
	Short: "Attendance-driven schedule optimization for fitness studios",
	Long: `studiowatch reads historical class attendance and the current weekly
schedule, profiles trainers, formats, time slots, and locations, and proposes
ranked, constraint-respecting schedule changes. An optional text-generation
advisor can contribute additional suggestions.

Suggestions are never applied; review them with 'studiowatch history'.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		fmt.Println("studiowatch", appVersion)
		fmt.Println()
		fmt.Println("Use a subcommand:")
		fmt.Println("  profile   Show trainer, format, time-slot, and location profiles")
		fmt.Println("  optimize  Generate ranked schedule suggestions")
		fmt.Println("  advise    Ask the advisor about one location or day")
		fmt.Println("  history   List saved runs and review their suggestions")
		fmt.Println("  watch     Re-optimize when the data changes and alert")
		fmt.Println("  mcp       Serve profiles and suggestions over MCP stdio")
		fmt.Println("  doctor    Check configuration and data health")
		return nil
	},
}

// Execute is the entry point called from main.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", "", "Config file path (default: ~/.config/studiowatch/config.yaml)")
	rootCmd.PersistentFlags().BoolVar(&flagNoColor, "no-color", false, "Disable colored output")
	rootCmd.PersistentFlags().BoolVar(&flagJSON, "json", false, "Output as JSON")
	rootCmd.PersistentFlags().BoolVar(&flagVerbose, "verbose", false, "Enable verbose output")
}

// loadConfig reads .env, loads and validates the configuration, and applies
// the logging and color settings every command shares.
func loadConfig() (*config.Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("loading .env: %w", err)
	}

	cfg, err := config.Load(flagConfig)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	level := cfg.Log.Level
	if flagVerbose {
		level = "debug"
	}
	logger.Setup(level, cfg.Log.Format)
	output.SetNoColor(output.ShouldDisableColor(flagNoColor, cfg.Output.Color))

	return cfg, nil
}
