/*
PURPOSE:
  Defines the root Cobra command for the OCR Runner CLI.
  Handles global flags, config loading and logging setup.

REQUIREMENTS:
  User-specified:
  - Provide a CLI interface.
  - Support global flags like --config.

  Implementation-discovered:
  - Needs to expose an Execute() function for main.go.
  - Logging must be configured before any subcommand logs.

ARCHITECTURE INTEGRATION:
  - Called by: cmd/ocr-runner/main.go
  - Calls: Child commands (run, list-models, config)
  - Modifies: output.Logger via output.Setup.

ERROR HANDLING:
  - Returns error to main.go for exit code handling.
  - Cobra's own error printing is silenced; main prints once.

IMPLEMENTATION RULES:
  - Use `PersistentFlags()` for flags available to all subcommands.
  - Keep Run logic in subcommands, Root is usually empty or helps.

USAGE:
  Called by main.go.

SELF-HEALING INSTRUCTIONS:
  - If adding new global flags, add them to init() and loadConfig().

RELATED FILES:
  - cmd/ocr-runner/main.go
  - internal/config/config.go

MAINTENANCE:
  - Update when adding global configuration options.
*/

package cli

import (
	"context"
	"io"

	"github.com/spf13/cobra"

	"github.com/daryltucker/ocr-runner/internal/config"
	"github.com/daryltucker/ocr-runner/internal/output"
)

var (
	// cfgFile stores the path to the config file (if specified via flag)
	cfgFile  string
	logLevel string
	logFile  string

	rootCmd = &cobra.Command{
		Use:   "ocr-runner",
		Short: "Batch OCR of an image directory through a vision model",
		Long: `Sends every image in a directory to a vision-capable model and appends the
recognized text to a shared results file. Use 'run --help' for options.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
)

// Execute executes the root command.
func Execute(ctx context.Context) error {
	return rootCmd.ExecuteContext(ctx)
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./ocr_runner.yaml)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level: debug, info, warn, error")
	rootCmd.PersistentFlags().StringVar(&logFile, "log-file", "", "log file, rotated by size (\"-\" disables file logging)")
}

// loadConfig loads the config file and applies the global flags, then
// configures logging. The returned closer flushes the log file.
func loadConfig() (*config.Config, io.Closer, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, nil, err
	}

	if logLevel != "" {
		cfg.LogLevel = logLevel
	}
	switch logFile {
	case "":
	case "-":
		cfg.LogFile = ""
	default:
		cfg.LogFile = logFile
	}

	closer, err := output.Setup(cfg.LogLevel, cfg.LogFile, cfg.LogMaxSizeMB)
	if err != nil {
		return nil, nil, err
	}
	return cfg, closer, nil
}
