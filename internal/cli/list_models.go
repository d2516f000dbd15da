/*
PURPOSE:
  Defines the 'list-models' subcommand.
  Helps debug connectivity, credentials and model names.

REQUIREMENTS:
  User-specified:
  - List available models.

  Implementation-discovered:
  - Useful validation step before full run.

ARCHITECTURE INTEGRATION:
  - Calls: internal/recognition.Client.ListModels()

ERROR HANDLING:
  - Returns the endpoint error (bad key, wrong URL) to main.go.

IMPLEMENTATION RULES:
  - Simple output to stdout.

USAGE:
  ocr-runner list-models --base-url http://localhost:11434/v1

SELF-HEALING INSTRUCTIONS:
  - None.

RELATED FILES:
  - internal/recognition/client.go

MAINTENANCE:
  - None.
*/

package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/daryltucker/ocr-runner/internal/recognition"
)

var listBaseURL string

var listModelsCmd = &cobra.Command{
	Use:   "list-models",
	Short: "List models offered by the configured endpoint",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, closer, err := loadConfig()
		if err != nil {
			return err
		}
		defer closer.Close()

		if listBaseURL != "" {
			cfg.BaseURL = listBaseURL
		}

		client := recognition.NewClient(cfg)
		fmt.Fprintf(cmd.ErrOrStderr(), "Querying %s...\n", client.BaseURL)

		models, err := client.ListModels(cmd.Context())
		if err != nil {
			return err
		}
		for _, m := range models {
			marker := " "
			if m == cfg.Model {
				marker = "*"
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", marker, m)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(listModelsCmd)
	listModelsCmd.Flags().StringVar(&listBaseURL, "base-url", "", "OpenAI-compatible API base URL")
}
