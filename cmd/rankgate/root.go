package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	// Global flags
	cfgFile string
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "rankgate",
	Short: "Metered rank monitoring API with key-based quotas",
	Long: `RankGate is a self-hosted metered API service.

It issues API keys, enforces per-key daily quotas over a rolling
24-hour window, and records every metered call in a usage ledger.
The bundled rank monitoring API generates deterministic demo data.

Quick start:
  rankgate init      # Create database and a demo API key
  rankgate serve     # Start the API server

Management:
  rankgate accounts  # Manage accounts
  rankgate keys      # Issue, list, and revoke API keys`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "rankgate.yaml", "config file path")
}
