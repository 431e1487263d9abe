// Copyright 2024 The pri Authors. All rights reserved.
// Use of this source code is governed by the MIT License
// that can be found in the LICENSE file.

package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/urfave/cli/v3"
	"gopkg.in/yaml.v3"
)

// Config represents the pri configuration file (~/.config/pri/config.yaml).
// Flags given on the command line take precedence.
type Config struct {
	VersionPolicy string `yaml:"version_policy"`
	Output        string `yaml:"output"`
	LogLevel      string `yaml:"log_level"`
}

func configPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, "pri", "config.yaml")
}

// LoadConfig reads the config file at path.  A missing file yields a zero
// Config unless the path was given explicitly.
func LoadConfig(path string, explicit bool) (Config, error) {
	if path == "" {
		return Config{}, nil
	}
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) && !explicit {
		return Config{}, nil
	} else if err != nil {
		return Config{}, fmt.Errorf("reading config: %w", err)
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parsing config %s: %w", path, err)
	}
	return cfg, nil
}

// applyGlobalConfig merges flag values into cfg: explicitly set flags win,
// then config file values, then flag defaults.
func applyGlobalConfig(c *cli.Command, cfg *Config) {
	if cfg.Output == "" || c.IsSet("output") {
		cfg.Output = c.String("output")
	}
	if cfg.LogLevel == "" || c.IsSet("log-level") {
		cfg.LogLevel = c.String("log-level")
	}
}

// versionPolicy resolves the policy for commands that write files.
func (a *app) versionPolicy(c *cli.Command) string {
	if c.IsSet("version-policy") || a.cfg.VersionPolicy == "" {
		return c.String("version-policy")
	}
	return a.cfg.VersionPolicy
}
