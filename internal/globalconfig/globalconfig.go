package globalconfig

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Well-known hosts and repository layout. The fallback host is only
// consulted when the primary is the stock default; a custom reference
// URL never falls back.
const (
	DefaultReferenceURL  = "https://hpia.hpcloud.hp.com/ref"
	FallbackReferenceURL = "https://ftp.hp.com/pub/caps-softpaq/cmit/imagepal/ref"

	RepoDirName     = ".repository"
	ManifestFile    = "repository.json"
	MarkerDirName   = "mark"
	CacheDirName    = "cache"
	ActivityLogFile = "activity.log"

	DefaultRetryPause = 30 * time.Second
)

// PersistentConfig holds tool-level preferences that survive between
// invocations, independent of any single repository.
type PersistentConfig struct {
	ReferenceURL      string `yaml:"reference_url,omitempty"`
	RetryPauseSeconds int    `yaml:"retry_pause_seconds,omitempty"`
	LogLevel          string `yaml:"log_level,omitempty"`
}

const (
	configDir  = ".config/spqsync"
	configFile = "config.yml"
)

func GetConfigDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(home, configDir), nil
}

// LoadPersistentConfig reads the user preferences, returning defaults
// when no config file exists yet.
func LoadPersistentConfig() (*PersistentConfig, error) {
	fullConfigDir, err := GetConfigDir()
	if err != nil {
		return nil, err
	}
	configPath := filepath.Join(fullConfigDir, configFile)

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return &PersistentConfig{}, nil
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg PersistentConfig
	if err = yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config file: %w", err)
	}
	return &cfg, nil
}

func (c *PersistentConfig) Save() error {
	fullConfigDir, err := GetConfigDir()
	if err != nil {
		return err
	}

	if err := os.MkdirAll(fullConfigDir, 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	configPath := filepath.Join(fullConfigDir, configFile)
	if err := os.WriteFile(configPath, data, 0o644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// ReferenceURLOrDefault resolves the configured reference URL, falling
// back to the stock host.
func (c *PersistentConfig) ReferenceURLOrDefault() string {
	if c.ReferenceURL != "" {
		return c.ReferenceURL
	}
	return DefaultReferenceURL
}

// RetryPauseOrDefault resolves the inter-attempt pause.
func (c *PersistentConfig) RetryPauseOrDefault() time.Duration {
	if c.RetryPauseSeconds > 0 {
		return time.Duration(c.RetryPauseSeconds) * time.Second
	}
	return DefaultRetryPause
}
