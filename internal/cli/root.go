// Package cli implements the saferent command-line interface.
package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "saferent",
	Short: "SafeRent rent-score validation and certification service",
	Long: `SafeRent computes tenant rent scores, routes them through validator
review, and records accepted scores on a hash-chained, signed ledger.
Certificates issued from the ledger verify offline against the
validator's public key.`,
	SilenceUsage: true,
}

// Execute runs the CLI. Called once from main.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().String("config", "", "Path to config file (default: $SAFERENT_HOME/config.toml)")
}
