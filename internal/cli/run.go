/*
PURPOSE:
  Defines the 'run' subcommand.
  Executes one OCR batch over an image directory.

REQUIREMENTS:
  User-specified:
  - Run the batch.
  - specific flags for overrides.

  Implementation-discovered:
  - Need to load config first.
  - Apply flag overrides to config, then validate.
  - Ctrl-C cancels in-flight requests instead of killing the process.

ARCHITECTURE INTEGRATION:
  - Calls: internal/engine.Run()
  - Uses: internal/config

ERROR HANDLING:
  - Returns error if config load/validation fails or engine run fails.

IMPLEMENTATION RULES:
  - Setup flags in init().
  - Logic: Load Config -> Override -> Validate -> Engine.Run.
  - Only flags the user actually set override the config file.

USAGE:
  ocr-runner run ./scans -o results.txt -c 5

SELF-HEALING INSTRUCTIONS:
  - Check flag names match Config struct fields generally.

RELATED FILES:
  - internal/cli/root.go

MAINTENANCE:
  - Update when adding new CLI overrides.
*/

package cli

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/daryltucker/ocr-runner/internal/config"
	"github.com/daryltucker/ocr-runner/internal/engine"
	"github.com/daryltucker/ocr-runner/internal/output"
)

var (
	outputOverride      string
	concurrencyOverride int
	strategyOverride    string
	optimizeOverride    bool
	modelOverride       string
	baseURLOverride     string
	engineOverride      string
	metricsFileOverride string
	jsonlOverride       string
	csvOverride         string
)

var runCmd = &cobra.Command{
	Use:   "run [image-dir]",
	Short: "Recognize every image in a directory",
	Long: `Recognizes the text of every image in a directory.
The process follows a strict protocol:
1. Discovery: Lists .png, .jpg, .jpeg and .gif files (not recursive).
2. Preparation: Reads each image, optionally downscaling it to a JPEG.
3. Recognition: Sends up to --concurrency images at once to the model.

Each successful result is appended to the output file as soon as it arrives,
followed by a timing summary. Failed images are logged and skipped. The output
file is never truncated, so repeated runs accumulate.`,
	Example: `  # Run with defaults (uses ocr_runner.yaml, ./images, results.txt)
  ocr-runner run

  # Five requests at a time, into a custom file
  ocr-runner run ./scans -o scans.txt -c 5

  # Downscale large photos before upload
  ocr-runner run ./photos --optimize

  # Local tesseract instead of a remote model (binary built with -tags tesseract)
  ocr-runner run ./scans --engine tesseract

  # Machine-readable copies and a node_exporter textfile
  ocr-runner run ./scans --jsonl out.jsonl --csv out.csv --metrics-file /var/lib/node_exporter/ocr.prom`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		// 1. Load Config
		cfg, closer, err := loadConfig()
		if err != nil {
			return err
		}
		defer closer.Close()

		// 2. Overrides
		applyRunOverrides(cmd, args, cfg)
		if err := cfg.Validate(); err != nil {
			return err
		}

		// 3. Execution
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		_, err = engine.Run(ctx, cfg)
		if err == nil && ctx.Err() != nil {
			output.Logger.Warn("Run interrupted; remaining images were not recognized")
		}
		return err
	},
}

func applyRunOverrides(cmd *cobra.Command, args []string, cfg *config.Config) {
	flags := cmd.Flags()

	if len(args) == 1 {
		cfg.ImageDir = args[0]
	}
	if flags.Changed("output") {
		cfg.OutputFile = outputOverride
	}
	if flags.Changed("concurrency") {
		cfg.Concurrency = concurrencyOverride
	}
	if flags.Changed("strategy") {
		cfg.Strategy = strategyOverride
	}
	if flags.Changed("optimize") {
		cfg.Optimize = optimizeOverride
	}
	if flags.Changed("model") {
		cfg.Model = modelOverride
	}
	if flags.Changed("base-url") {
		cfg.BaseURL = baseURLOverride
	}
	if flags.Changed("engine") {
		cfg.Engine = engineOverride
	}
	if flags.Changed("metrics-file") {
		cfg.MetricsFile = metricsFileOverride
	}
	if flags.Changed("jsonl") {
		cfg.JSONLFile = jsonlOverride
	}
	if flags.Changed("csv") {
		cfg.CSVFile = csvOverride
	}
}

func addRunFlags(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&outputOverride, "output", "o", "", "Results file to append to")
	cmd.Flags().IntVarP(&concurrencyOverride, "concurrency", "c", 0, "Maximum images in flight")
	cmd.Flags().StringVar(&strategyOverride, "strategy", "", "Dispatch strategy: pool or chunked")
	cmd.Flags().BoolVar(&optimizeOverride, "optimize", false, "Downscale and re-encode images as JPEG before upload")
	cmd.Flags().StringVar(&modelOverride, "model", "", "Model identifier")
	cmd.Flags().StringVar(&baseURLOverride, "base-url", "", "OpenAI-compatible API base URL")
	cmd.Flags().StringVar(&engineOverride, "engine", "", "Recognition engine (openai, tesseract)")
	cmd.Flags().StringVar(&metricsFileOverride, "metrics-file", "", "Write Prometheus textfile metrics here after the run")
	cmd.Flags().StringVar(&jsonlOverride, "jsonl", "", "Also append every result as JSON lines to this file")
	cmd.Flags().StringVar(&csvOverride, "csv", "", "Also append every result as CSV to this file")
}

func init() {
	rootCmd.AddCommand(runCmd)
	addRunFlags(runCmd)
}
