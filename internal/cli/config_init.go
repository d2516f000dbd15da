package cli

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/daryltucker/ocr-runner/internal/assets"
	"github.com/daryltucker/ocr-runner/internal/output"
)

var forceInit bool

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage the OCR Runner configuration file",
}

var configInitCmd = &cobra.Command{
	Use:   "init [path]",
	Short: "Write the default configuration to ./ocr_runner.yaml (or path)",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		target := assets.DefaultConfigName
		if len(args) == 1 {
			target = args[0]
		}
		return writeDefaultConfig(target, forceInit)
	},
}

func writeDefaultConfig(target string, force bool) error {
	if _, err := os.Stat(target); err == nil && !force {
		return fmt.Errorf("%s already exists (use --force to overwrite)", target)
	}

	content, err := fs.ReadFile(assets.Files, assets.DefaultConfigName)
	if err != nil {
		return fmt.Errorf("failed to read embedded config: %w", err)
	}

	if dir := filepath.Dir(target); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}
	if err := os.WriteFile(target, content, 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", target, err)
	}

	output.Logger.Info("Wrote default configuration", "path", target)
	return nil
}

func init() {
	configInitCmd.Flags().BoolVar(&forceInit, "force", false, "Overwrite an existing file")
	configCmd.AddCommand(configInitCmd)
	rootCmd.AddCommand(configCmd)
}
