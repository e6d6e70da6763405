package cmd

import (
	"github.com/spf13/cobra"
)

var (
	cfgFile string
	verbose bool
)

var rootCmd = &cobra.Command{
	Use:   "machivoice",
	Short: "Conversational civic feedback collection server",
	Long: `Machivoice runs a conversational intake service that turns resident
chat messages into structured civic feedback. An LLM extracts a title,
category, description and place from each conversation; completed
reports are geocoded and filed as opinion records.`,
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", ".machivoice.yml", "config file path")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
}
