package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// GlobalConfig represents configuration stored in ~/.config/lrev/config.yml.
// It carries machine-level settings that do not belong in a repository:
// contact details sent to the source APIs and the local embedding backend.
type GlobalConfig struct {
	ContactEmail string `yaml:"contact_email,omitempty"`
	InspireToken string `yaml:"inspire_token,omitempty"`
	OllamaURL    string `yaml:"ollama_url,omitempty"`
	OllamaModel  string `yaml:"ollama_model,omitempty"`
}

const (
	// GlobalConfigDir is the directory name under XDG_CONFIG_HOME.
	GlobalConfigDir = "lrev"
	// GlobalConfigFile is the config file name.
	GlobalConfigFile = "config.yml"
)

// globalConfigCache caches the loaded global config.
var globalConfigCache *GlobalConfig

// GlobalConfigPath returns the path to the global config file.
// Respects XDG_CONFIG_HOME, defaults to ~/.config/lrev/config.yml.
func GlobalConfigPath() string {
	configHome := os.Getenv("XDG_CONFIG_HOME")
	if configHome == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return ""
		}
		configHome = filepath.Join(home, ".config")
	}
	return filepath.Join(configHome, GlobalConfigDir, GlobalConfigFile)
}

// LoadGlobalConfig loads the global configuration file.
// Returns an empty config (not an error) if the file doesn't exist.
func LoadGlobalConfig() (*GlobalConfig, error) {
	if globalConfigCache != nil {
		return globalConfigCache, nil
	}

	path := GlobalConfigPath()
	if path == "" {
		return &GlobalConfig{}, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return &GlobalConfig{}, nil
		}
		return nil, fmt.Errorf("reading global config: %w", err)
	}

	var cfg GlobalConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing global config: %w", err)
	}

	globalConfigCache = &cfg
	return &cfg, nil
}

// ResetGlobalConfigCache clears the cached global config.
// Useful for testing.
func ResetGlobalConfigCache() {
	globalConfigCache = nil
}

// GetContactEmail returns the contact email sent to polite API pools.
// The LREV_CONTACT_EMAIL environment variable takes precedence.
func GetContactEmail() string {
	if v := os.Getenv("LREV_CONTACT_EMAIL"); v != "" {
		return v
	}
	cfg, _ := LoadGlobalConfig()
	return cfg.ContactEmail
}

// GetInspireToken returns the InspireHEP API token from global config.
// The LREV_INSPIRE_TOKEN environment variable takes precedence.
func GetInspireToken() string {
	if v := os.Getenv("LREV_INSPIRE_TOKEN"); v != "" {
		return v
	}
	cfg, _ := LoadGlobalConfig()
	return cfg.InspireToken
}

// GetOllamaURL returns the embedding backend URL, preferring the global
// config over the repository default.
func GetOllamaURL() string {
	cfg, _ := LoadGlobalConfig()
	return cfg.OllamaURL
}

// GetOllamaModel returns the embedding model name from global config.
func GetOllamaModel() string {
	cfg, _ := LoadGlobalConfig()
	return cfg.OllamaModel
}
