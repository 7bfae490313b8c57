package config

import (
	"fmt"
	"sync"
)

var (
	globalConfig     *Config
	globalConfigMu   sync.RWMutex
	globalConfigOnce sync.Once
	globalConfigPath string
)

// Initialize loads the configuration from path and stores it as the
// process-wide global config. Subsequent calls are no-ops; use ReloadConfig
// to pick up changes.
func Initialize(path string) error {
	var err error
	globalConfigOnce.Do(func() {
		var cfg *Config
		cfg, err = LoadConfigWithEnvOverrides(path)
		if err != nil {
			return
		}
		globalConfigMu.Lock()
		globalConfig = cfg
		globalConfigPath = path
		globalConfigMu.Unlock()
	})
	return err
}

// GetConfig returns the process-wide global config, or nil if Initialize has
// not been called successfully.
func GetConfig() *Config {
	globalConfigMu.RLock()
	defer globalConfigMu.RUnlock()
	return globalConfig
}

// MustGetConfig returns the process-wide global config, panicking if it has
// not been initialized.
func MustGetConfig() *Config {
	cfg := GetConfig()
	if cfg == nil {
		panic("config: MustGetConfig called before Initialize")
	}
	return cfg
}

// SetConfig overrides the process-wide global config directly. Intended for
// tests.
func SetConfig(cfg *Config) {
	globalConfigMu.Lock()
	defer globalConfigMu.Unlock()
	globalConfig = cfg
}

// ReloadConfig re-reads the file passed to Initialize and swaps the global
// config atomically. It returns an error without mutating global state if
// the new file fails to load or validate.
func ReloadConfig() error {
	globalConfigMu.RLock()
	path := globalConfigPath
	globalConfigMu.RUnlock()

	if path == "" {
		return fmt.Errorf("config: ReloadConfig called before Initialize")
	}

	cfg, err := LoadConfigWithEnvOverrides(path)
	if err != nil {
		return err
	}

	globalConfigMu.Lock()
	globalConfig = cfg
	globalConfigMu.Unlock()

	return nil
}
