package main

import (
	"github.com/spf13/cobra"
)

var certsCmd = &cobra.Command{
	Use:   "certs",
	Short: "Manage the local certificate authority",
	Long: `Manage the certificate authority siphon uses to terminate TLS.

siphon mints one leaf certificate per intercepted SNI from a persistent
local root, created on first use under the proxy's configured cert
directory. These subcommands inspect and exercise that root directly,
rather than operating on arbitrary certificate files.

Subcommands:
  info     - Display the local root certificate's details
  generate - Create the local root certificate authority if it does not exist
  validate - Mint a leaf certificate for a host and verify its chain

Examples:
  # Display the root CA certificate
  siphon certs info

  # Create the root CA if it does not already exist
  siphon certs generate --dir ~/.siphon/ca

  # Mint a leaf for a host and confirm it verifies against the root
  siphon certs validate --host api.example.com`,
}

func init() {
	rootCmd.AddCommand(certsCmd)
}
