package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"siphon/pkg/ca"
)

var certsGenerateFlags struct {
	dir string
}

var certsGenerateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Create the local certificate authority",
	Long: `Create siphon's local root certificate authority, if one does not
already exist at the target directory.

The root is a long-lived (10 year) self-signed RSA certificate. Leaf
certificates minted from it are short-lived and never written to disk.
Run this once per machine, then trust the resulting root certificate in
the OS or browser that needs to see through the proxy.

Examples:
  # Create the root CA under the default directory
  siphon certs generate

  # Create it under a custom directory
  siphon certs generate --dir ~/.siphon/ca`,
	RunE: generateAuthority,
}

func init() {
	certsCmd.AddCommand(certsGenerateCmd)

	certsGenerateCmd.Flags().StringVar(&certsGenerateFlags.dir, "dir", "siphon-ca", "certificate authority directory")
}

func generateAuthority(cmd *cobra.Command, args []string) error {
	fmt.Printf("Loading or generating root certificate authority in %s...\n", certsGenerateFlags.dir)

	authority, err := ca.LoadOrGenerateRoot(certsGenerateFlags.dir)
	if err != nil {
		return fmt.Errorf("failed to create certificate authority: %w", err)
	}

	root := authority.RootCertificate()
	fmt.Println()
	fmt.Printf("✓ Root certificate authority ready: %s\n", certsGenerateFlags.dir)
	fmt.Printf("  Common Name: %s\n", root.Subject.CommonName)
	fmt.Printf("  Not Before: %s\n", root.NotBefore.Format("2006-01-02 15:04:05 MST"))
	fmt.Printf("  Not After: %s\n", root.NotAfter.Format("2006-01-02 15:04:05 MST"))
	fmt.Println()
	fmt.Println("Trust ca.pem in this directory so clients accept the leaf")
	fmt.Println("certificates siphon mints for each intercepted host.")

	return nil
}
