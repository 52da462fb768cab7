package cmd

import (
	"github.com/spf13/cobra"
)

var (
	configPath   string
	logLevel     string
	outputFormat string
)

var rootCmd = &cobra.Command{
	Use:   "consultant",
	Short: "consultant - terminal client for the AI-Consultant",
	Long: `Describe a business problem, answer the consultant's hearing questions,
follow the agent while it researches, and read the final report.`,
	SilenceUsage: true,
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "config file (default ~/.consultant/config.toml)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level: debug, info, warn, error (overrides config)")
	rootCmd.PersistentFlags().StringVarP(&outputFormat, "output", "o", "table", "output format: table, json, yaml")
}
