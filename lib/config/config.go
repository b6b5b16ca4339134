// Copyright 2026 The Taskwire Authors
// SPDX-License-Identifier: Apache-2.0

// Package config provides configuration loading for the taskwire
// server.
//
// Configuration is loaded from a single YAML file specified by:
//   - TASKWIRE_CONFIG environment variable, or
//   - --config flag passed to the command
//
// There are no fallbacks or automatic discovery. Fields left out of
// the file keep their defaults.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Config is the taskwire server configuration.
type Config struct {
	// HTTP configures the mutation API listener.
	HTTP HTTPConfig `yaml:"http"`

	// Stream configures the realtime change-feed listener.
	Stream StreamConfig `yaml:"stream"`

	// Storage configures the task database.
	Storage StorageConfig `yaml:"storage"`

	// Keys configures token-signing key material.
	Keys KeysConfig `yaml:"keys"`
}

// HTTPConfig configures the mutation API listener.
type HTTPConfig struct {
	// Address is the TCP listen address for the mutation API.
	// Default: :8600
	Address string `yaml:"address"`
}

// StreamConfig configures the realtime listener.
type StreamConfig struct {
	// Address is the TCP listen address for the change feed.
	// Default: :8601
	Address string `yaml:"address"`

	// Buffer is the per-connection event buffer. A connection that
	// falls this many events behind is disconnected.
	// Default: 64
	Buffer int `yaml:"buffer"`
}

// StorageConfig configures the task database.
type StorageConfig struct {
	// Path is the SQLite database file.
	// Default: ${HOME}/.local/share/taskwire/tasks.db
	Path string `yaml:"path"`

	// PoolSize is the connection pool size.
	// Default: 4
	PoolSize int `yaml:"pool_size"`
}

// KeysConfig configures token-signing key material.
type KeysConfig struct {
	// Dir is the directory holding the ed25519 keypair. The server
	// needs only the public key; the private key is used by the
	// token-issuing tooling.
	// Default: ${HOME}/.local/share/taskwire/keys
	Dir string `yaml:"dir"`
}

// Default returns the default configuration. These serve as the base
// before the config file is merged in; every field a file omits keeps
// its default.
func Default() *Config {
	homeDir, _ := os.UserHomeDir()
	dataDir := filepath.Join(homeDir, ".local", "share", "taskwire")

	return &Config{
		HTTP: HTTPConfig{
			Address: ":8600",
		},
		Stream: StreamConfig{
			Address: ":8601",
			Buffer:  64,
		},
		Storage: StorageConfig{
			Path:     filepath.Join(dataDir, "tasks.db"),
			PoolSize: 4,
		},
		Keys: KeysConfig{
			Dir: filepath.Join(dataDir, "keys"),
		},
	}
}

// Load loads configuration from the TASKWIRE_CONFIG environment
// variable. If the variable is not set, this fails; there is no
// config-file discovery.
func Load() (*Config, error) {
	configPath := os.Getenv("TASKWIRE_CONFIG")
	if configPath == "" {
		return nil, fmt.Errorf("TASKWIRE_CONFIG environment variable not set; " +
			"set it to the path of your taskwire.yaml config file, or use --config flag")
	}
	return LoadFile(configPath)
}

// LoadFile loads configuration from a specific file path, merging the
// file's values over the defaults.
func LoadFile(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration in %s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	var errs []error

	if c.HTTP.Address == "" {
		errs = append(errs, fmt.Errorf("http.address is required"))
	}
	if c.Stream.Address == "" {
		errs = append(errs, fmt.Errorf("stream.address is required"))
	}
	if c.Stream.Buffer <= 0 {
		errs = append(errs, fmt.Errorf("stream.buffer must be positive"))
	}
	if c.Storage.Path == "" {
		errs = append(errs, fmt.Errorf("storage.path is required"))
	}
	if c.Storage.PoolSize <= 0 {
		errs = append(errs, fmt.Errorf("storage.pool_size must be positive"))
	}
	if c.Keys.Dir == "" {
		errs = append(errs, fmt.Errorf("keys.dir is required"))
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	return nil
}

// EnsurePaths creates the storage and key directories if they don't
// exist.
func (c *Config) EnsurePaths() error {
	dirs := []string{
		filepath.Dir(c.Storage.Path),
		c.Keys.Dir,
	}
	for _, dir := range dirs {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("creating %s: %w", dir, err)
		}
	}
	return nil
}
