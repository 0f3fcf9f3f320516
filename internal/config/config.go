// Package config loads server configuration from a YAML file with
// environment overrides for secrets.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config holds the settings for the serve and mcp commands.
type Config struct {
	Listen   string         `yaml:"listen"`
	LogLevel string         `yaml:"logLevel"`
	Store    StoreConfig    `yaml:"store"`
	Provider ProviderConfig `yaml:"provider"`
}

// StoreConfig selects the run store backend.
type StoreConfig struct {
	// Backend is one of "memory", "file", or "redis".
	Backend string `yaml:"backend"`
	// Path is the base directory for the file backend.
	Path string `yaml:"path"`
	// Addr is the redis address for the redis backend.
	Addr string `yaml:"addr"`
	// TTLSeconds expires redis snapshots after this many seconds. Zero keeps
	// them forever.
	TTLSeconds int `yaml:"ttlSeconds"`
	// EncryptionKeyEnv names an environment variable holding a base64-encoded
	// 32-byte key. When set, snapshots are encrypted at rest.
	EncryptionKeyEnv string `yaml:"encryptionKeyEnv"`
	// PIIPatterns are regular expressions matched against variable keys;
	// matching values are masked before they reach the store.
	PIIPatterns []string `yaml:"piiPatterns"`
}

// ProviderConfig selects the LLM backend used for agent nodes.
type ProviderConfig struct {
	// Kind is "openai" or "mock".
	Kind    string `yaml:"kind"`
	BaseURL string `yaml:"baseUrl"`
	Model   string `yaml:"model"`
	// APIKeyEnv names the environment variable holding the API key. The key
	// itself never lives in the file.
	APIKeyEnv string `yaml:"apiKeyEnv"`
}

// Default returns the configuration used when no file is given.
func Default() Config {
	return Config{
		Listen:   ":8080",
		LogLevel: "info",
		Store:    StoreConfig{Backend: "memory"},
		Provider: ProviderConfig{Kind: "mock"},
	}
}

// Load reads a YAML config file. A missing file at the default path is not
// an error; the defaults apply.
func Load(path string) (Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("failed to read config: %w", err)
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("failed to parse config: %w", err)
	}
	return cfg, nil
}

// APIKey resolves the provider API key from the configured environment
// variable, falling back to OPENAI_API_KEY.
func (p ProviderConfig) APIKey() string {
	if p.APIKeyEnv != "" {
		return os.Getenv(p.APIKeyEnv)
	}
	return os.Getenv("OPENAI_API_KEY")
}
