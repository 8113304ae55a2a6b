package config

import (
	"fmt"
	"sync"
)

var (
	// globalConfig holds the process configuration.
	globalConfig *Config

	// globalPath is the file globalConfig was loaded from, if any.
	globalPath string

	// configMutex protects globalConfig and globalPath.
	configMutex sync.RWMutex

	// initOnce ensures configuration is initialized only once.
	initOnce sync.Once
)

// Initialize loads configuration from path (or from defaults when path is
// empty) with environment overrides and stores it as the process
// configuration. Only the first call has any effect.
func Initialize(path string) error {
	var initErr error

	initOnce.Do(func() {
		cfg, err := LoadConfigWithEnvOverrides(path)
		if err != nil {
			initErr = err
			return
		}

		configMutex.Lock()
		globalConfig = cfg
		globalPath = path
		configMutex.Unlock()
	})

	return initErr
}

// GetConfig returns the process configuration, or nil before a successful
// Initialize. It is safe for concurrent use.
func GetConfig() *Config {
	configMutex.RLock()
	defer configMutex.RUnlock()
	return globalConfig
}

// SetConfig replaces the process configuration. Intended for tests.
func SetConfig(cfg *Config) {
	configMutex.Lock()
	defer configMutex.Unlock()
	globalConfig = cfg
}

// ReloadConfig reloads the configuration from the path given to Initialize.
// On failure the current configuration stays in place and the error is
// returned. Long-running commands call it when the file changes.
func ReloadConfig() (*Config, error) {
	configMutex.RLock()
	path := globalPath
	configMutex.RUnlock()

	cfg, err := LoadConfigWithEnvOverrides(path)
	if err != nil {
		return nil, fmt.Errorf("failed to reload configuration: %w", err)
	}

	configMutex.Lock()
	globalConfig = cfg
	configMutex.Unlock()

	return cfg, nil
}

// MustGetConfig returns the process configuration and panics if it has not
// been initialized.
func MustGetConfig() *Config {
	cfg := GetConfig()
	if cfg == nil {
		panic("configuration not initialized: call Initialize first")
	}
	return cfg
}

// reset clears the process configuration so tests can call Initialize again.
func reset() {
	configMutex.Lock()
	defer configMutex.Unlock()
	globalConfig = nil
	globalPath = ""
	initOnce = sync.Once{}
}
