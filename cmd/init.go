package cmd

import (
	"github.com/gabe/consultant/internal/setup"
	"github.com/spf13/cobra"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize consultant with interactive setup",
	Long:  `Run the first-time setup wizard to point consultant at the admin and agent APIs.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		path, err := resolveConfigPath()
		if err != nil {
			return err
		}
		wizard := setup.NewWizard(cmd.InOrStdin(), cmd.OutOrStdout())
		_, err = wizard.Run(path)
		return err
	},
}

func init() {
	rootCmd.AddCommand(initCmd)
}
