package main

import (
	"crypto/x509"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"siphon/pkg/ca"
)

var certsInfoFlags struct {
	dir    string
	format string
}

var certsInfoCmd = &cobra.Command{
	Use:   "info",
	Short: "Display the local root certificate's details",
	Long: `Display detailed information about siphon's local root certificate
authority: subject, validity period, serial number, and algorithms.

Output formats:
  - text (default): Human-readable formatted output
  - json: JSON-formatted output for scripting

Examples:
  # Display the root CA in text format
  siphon certs info

  # Display in JSON format
  siphon certs info --format json`,
	RunE: displayAuthorityInfo,
}

func init() {
	certsCmd.AddCommand(certsInfoCmd)

	certsInfoCmd.Flags().StringVar(&certsInfoFlags.dir, "dir", "siphon-ca", "certificate authority directory")
	certsInfoCmd.Flags().StringVar(&certsInfoFlags.format, "format", "text", "output format: text, json")
}

func displayAuthorityInfo(cmd *cobra.Command, args []string) error {
	authority, err := ca.LoadOrGenerateRoot(certsInfoFlags.dir)
	if err != nil {
		return fmt.Errorf("failed to load certificate authority: %w", err)
	}
	cert := authority.RootCertificate()

	if certsInfoFlags.format == "json" {
		return printAuthorityJSON(cert)
	}
	return printAuthorityText(cert, certsInfoFlags.dir)
}

func printAuthorityText(cert *x509.Certificate, dir string) error {
	fmt.Printf("Certificate authority: %s\n\n", dir)

	fmt.Println("Subject:")
	fmt.Printf("  Common Name (CN): %s\n", cert.Subject.CommonName)

	fmt.Println("\nValidity:")
	fmt.Printf("  Not Before: %s\n", cert.NotBefore.Format(time.RFC3339))
	fmt.Printf("  Not After: %s\n", cert.NotAfter.Format(time.RFC3339))

	now := time.Now()
	if now.After(cert.NotAfter) {
		fmt.Printf("  Status: ✗ EXPIRED on %s\n", cert.NotAfter.Format("2006-01-02"))
	} else {
		daysRemaining := int(time.Until(cert.NotAfter).Hours() / 24)
		fmt.Printf("  Status: ✓ Valid (%d days remaining)\n", daysRemaining)
	}

	fmt.Println("\nAlgorithms:")
	fmt.Printf("  Signature Algorithm: %s\n", cert.SignatureAlgorithm)
	fmt.Printf("  Public Key Algorithm: %s\n", cert.PublicKeyAlgorithm)

	fmt.Println("\nAdditional Information:")
	fmt.Printf("  Serial Number: %x\n", cert.SerialNumber)
	fmt.Printf("  Is CA: %v\n", cert.IsCA)

	return nil
}

func printAuthorityJSON(cert *x509.Certificate) error {
	daysRemaining := int(time.Until(cert.NotAfter).Hours() / 24)
	data := map[string]interface{}{
		"common_name": cert.Subject.CommonName,
		"validity": map[string]interface{}{
			"not_before":     cert.NotBefore.Format(time.RFC3339),
			"not_after":      cert.NotAfter.Format(time.RFC3339),
			"days_remaining": daysRemaining,
			"is_expired":     time.Now().After(cert.NotAfter),
		},
		"signature_algorithm":  cert.SignatureAlgorithm.String(),
		"public_key_algorithm": cert.PublicKeyAlgorithm.String(),
		"serial_number":        fmt.Sprintf("%x", cert.SerialNumber),
		"is_ca":                cert.IsCA,
	}

	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	return encoder.Encode(data)
}
