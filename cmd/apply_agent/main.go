// Package main provides the apply_agent CLI: LLM-assisted job application form
// filling and careers-page job search.
package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/jonathan/apply-agent/internal/config"
	"github.com/jonathan/apply-agent/internal/logger"
)

var rootCmd = &cobra.Command{
	Use:   "apply_agent",
	Short: "Fill job application forms and find matching jobs with an LLM",
	Long: `apply_agent opens job application pages in Chrome, maps their form fields onto your
profile with an LLM, fills them in and (optionally) submits. It can also search company
careers pages for roles matching your CV and keep them in a CSV job log.

Configuration can be loaded from a JSON or YAML file using --config and overridden with
APPLY_AGENT_* environment variables. Command-line flags override both.`,
	SilenceUsage:      true,
	PersistentPreRunE: loadRootConfig,
}

var (
	rootConfigPath string
	rootLogLevel   string
	rootLogFormat  string
	rootVerbose    bool

	// cfg is the merged configuration, available once PersistentPreRunE ran.
	cfg *config.Config
	log zerolog.Logger
)

func init() {
	rootCmd.PersistentFlags().StringVar(&rootConfigPath, "config", "", "Path to config file (JSON or YAML)")
	rootCmd.PersistentFlags().StringVar(&rootLogLevel, "log-level", "", "Log level: debug, info, warn, error")
	rootCmd.PersistentFlags().StringVar(&rootLogFormat, "log-format", "", "Log format: pretty or json")
	rootCmd.PersistentFlags().BoolVarP(&rootVerbose, "verbose", "v", false, "Print human-readable summaries")
}

func loadRootConfig(_ *cobra.Command, _ []string) error {
	loaded, err := config.Load(rootConfigPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	flags := config.Config{LogLevel: rootLogLevel, LogFormat: rootLogFormat}
	merged := flags.MergeWithDefaults(*loaded)
	merged.Verbose = loaded.Verbose || rootVerbose
	if err := merged.Validate(); err != nil {
		return err
	}
	cfg = &merged

	log = logger.Init(logger.Config{Level: cfg.LogLevel, Format: cfg.LogFormat})
	return nil
}

func main() {
	// Load .env file if it exists
	_ = godotenv.Load()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
