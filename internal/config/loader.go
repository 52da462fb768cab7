package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
)

// Environment variables that override file values
const (
	EnvAdminURL = "CONSULTANT_ADMIN_URL"
	EnvAgentURL = "CONSULTANT_AGENT_URL"
	EnvToken    = "CONSULTANT_TOKEN"
)

// Load reads config from path, applying defaults for missing values
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	if _, err := toml.Decode(string(data), cfg); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}

	cfg.ApplyEnv()
	return cfg, nil
}

// LoadOrCreate loads config or creates default if missing
func LoadOrCreate(path string) (*Config, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		cfg := DefaultConfig()
		if err := Save(path, cfg); err != nil {
			return nil, err
		}
		cfg.ApplyEnv()
		return cfg, nil
	}
	return Load(path)
}

// Save writes config to path
func Save(path string, cfg *Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	encoder := toml.NewEncoder(f)
	return encoder.Encode(cfg)
}

// ApplyEnv overrides endpoint and token settings from the environment
func (c *Config) ApplyEnv() {
	if v := os.Getenv(EnvAdminURL); v != "" {
		c.API.AdminURL = v
	}
	if v := os.Getenv(EnvAgentURL); v != "" {
		c.API.AgentURL = v
	}
	if v := os.Getenv(EnvToken); v != "" {
		c.Auth.Token = v
	}
}

// DefaultDir returns ~/.consultant
func DefaultDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".consultant"), nil
}

// DefaultPath returns the default config file location
func DefaultPath() (string, error) {
	dir, err := DefaultDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.toml"), nil
}

// ExpandPath resolves a leading ~ to the user's home directory
func ExpandPath(path string) string {
	if path == "~" || strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return path
		}
		return filepath.Join(home, strings.TrimPrefix(path, "~"))
	}
	return path
}
