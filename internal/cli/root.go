package cli

import (
	"github.com/spf13/cobra"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:          "planwise",
	Short:        "Generate step-by-step plans and track them card by card",
	Long:         `PlanWise asks a language model for a sequence of action cards (one per day, week or month), stores the resulting plans and tracks which cards you have completed.`,
	Version:      "0.1.0",
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "config.json", "path to a JSON or YAML config file")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(generateCmd)
	rootCmd.AddCommand(plansCmd)
	rootCmd.AddCommand(showCmd)
	rootCmd.AddCommand(completeCmd)
	rootCmd.AddCommand(progressCmd)
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}
