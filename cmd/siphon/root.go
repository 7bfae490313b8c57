package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	// Global flags
	cfgFile string
	verbose bool
)

var rootCmd = &cobra.Command{
	Use:   "siphon",
	Short: "Siphon - an intercepting TLS proxy with live request rewriting",
	Long: `Siphon terminates TLS for an AI coding assistant's backend traffic,
minting per-SNI leaf certificates from a local certificate authority and
rewriting eligible Connect-Protocol requests before forwarding them upstream.

It provides:
  - Per-SNI leaf certificate minting from a persistent local root
  - Live system-prompt and context-file injection into chat requests
  - Optional on-disk capture of matched request/response exchanges
  - Prometheus metrics and an in-process event feed for observability`,
	Version: Version,
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "config.yaml", "config file path")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")

	rootCmd.CompletionOptions.DisableDefaultCmd = false
}
