// Package cli is the command surface over the tracker core.
package cli

import (
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:           "expense-tracker",
	Short:         "Track expenses from your bank notification emails",
	Long:          "expense-tracker turns bank, credit-card, UPI and mutual-fund notification emails into a local, categorized, deduplicated transaction ledger.",
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command. Cobra does not print errors itself; the
// caller prints a non-nil return and maps it to exit code 1.
func Execute(version string) error {
	rootCmd.Version = version
	rootCmd.AddCommand(setupCmd)
	rootCmd.AddCommand(syncCmd)
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(summaryCmd)
	rootCmd.AddCommand(reviewCmd)
	rootCmd.AddCommand(recategorizeCmd)
	rootCmd.AddCommand(remerchantCmd)
	rootCmd.AddCommand(reparseCmd)
	rootCmd.AddCommand(chatCmd)
	rootCmd.AddCommand(flagCmd)
	rootCmd.AddCommand(insightsCmd)
	return rootCmd.Execute()
}
