// Package config provides configuration management for the proxy.
//
// It loads and validates a YAML configuration file, applies sensible
// defaults, and exposes a process-wide singleton for components that don't
// receive config by explicit injection.
//
// # Loading
//
//	cfg, err := config.LoadConfigWithEnvOverrides("/etc/siphon/config.yaml")
//	if err != nil {
//	    log.Fatal(err)
//	}
//
// Environment variables named SIPHON_SECTION_FIELD override the
// corresponding YAML field; see applyEnvOverrides for the full list.
//
// # Defaults and Validation
//
// ApplyDefaults fills zero-valued optional fields before Validate checks
// required fields and value ranges. Validate returns a *ValidationError
// aggregating every FieldError found, rather than failing on the first one.
//
// # Singleton
//
//	if err := config.Initialize(path); err != nil {
//	    log.Fatal(err)
//	}
//	cfg := config.MustGetConfig()
//
// # Hot Reload
//
// InjectionReloader watches the configuration file and any referenced
// context files for changes and swaps the active InjectionConfig in place,
// so an operator can edit the system prompt or context files without
// restarting the proxy.
package config
