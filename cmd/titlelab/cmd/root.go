package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	colorFlag   string
	noColorFlag bool
)

var rootCmd = &cobra.Command{
	Use:   "titlelab",
	Short: "titlelab: listing title keyword coverage",
	Long:  "Tokenize listing titles, match them against a search-term export, and compare their popularity coverage.",
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if !resolveColor(colorFlag, noColorFlag) {
			disableColor()
		}
	},
	SilenceUsage: true,
}

// projectRoot returns the workspace root (cwd by default).
func projectRoot() string {
	dir, err := os.Getwd()
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
	return dir
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&colorFlag, "color", "auto", "Color output: auto, always, never")
	rootCmd.PersistentFlags().BoolVar(&noColorFlag, "no-color", false, "Disable color output")

	rootCmd.AddCommand(daemonCmd)
	rootCmd.AddCommand(healthCmd)
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(importCmd)
	rootCmd.AddCommand(keywordsCmd)
	rootCmd.AddCommand(analyzeCmd)
	rootCmd.AddCommand(filterCmd)
	rootCmd.AddCommand(recommendCmd)
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(lengthCmd)
	rootCmd.AddCommand(wipeCmd)
}
