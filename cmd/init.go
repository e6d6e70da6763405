package cmd

import (
	"github.com/spf13/cobra"

	"github.com/kyotake/machivoice/internal/config"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize machivoice configuration with an interactive wizard",
	Long:  `Runs an interactive wizard to configure machivoice and generates a .machivoice.yml file.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		_, err := config.RunWizard()
		return err
	},
}

func init() {
	rootCmd.AddCommand(initCmd)
}
