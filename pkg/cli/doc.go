/*
Package cli provides the typed command errors shared by siphon's cobra
subcommands.

	if err := config.Initialize(cfgFile); err != nil {
		return cli.NewConfigError("", fmt.Sprintf("failed to load config: %v", err))
	}

ConfigError and CommandError distinguish a bad configuration from a
command that failed while running, so cmd/siphon can report each with
the right context without string-matching error text.
*/
package cli
