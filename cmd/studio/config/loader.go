// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package config loads the Studio backend configuration.
//
// Configuration lives at ~/.aleutian/studio.yaml and is created with
// defaults on first run. Environment variables override file values:
// STUDIO_PORT, STUDIO_WORKSPACE, STUDIO_TELEMETRY_DIR, STUDIO_LOG_LEVEL.
// The loaded struct is returned to the caller and injected where
// needed; there is no package-level singleton.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// Load reads, overrides, and validates the configuration.
//
// # Inputs
//
//   - path: Config file location. Empty uses ~/.aleutian/studio.yaml.
//
// # Outputs
//
//   - StudioConfig: Validated configuration.
//   - error: Non-nil on read, parse, or validation failure.
func Load(path string) (StudioConfig, error) {
	var cfg StudioConfig

	if path == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return cfg, fmt.Errorf("could not find the user's home directory: %w", err)
		}
		path = filepath.Join(home, ".aleutian", "studio.yaml")
	}

	// create it if it doesn't exist
	if _, err := os.Stat(path); os.IsNotExist(err) {
		fmt.Printf(" First run detected, creating the config at %s\n", path)
		if err := createDefault(path); err != nil {
			return cfg, err
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("failed to read the config file: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("failed to parse the config file: %w", err)
	}

	applyEnvOverrides(&cfg)

	if err := validator.New().Struct(cfg); err != nil {
		return cfg, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// applyEnvOverrides lets environment variables win over file values.
func applyEnvOverrides(cfg *StudioConfig) {
	if v := os.Getenv("STUDIO_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = port
		}
	}
	if v := os.Getenv("STUDIO_WORKSPACE"); v != "" {
		cfg.Workspace.Root = v
	}
	if v := os.Getenv("STUDIO_TELEMETRY_DIR"); v != "" {
		cfg.Telemetry.Dir = v
	}
	if v := os.Getenv("STUDIO_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
}

// createDefault writes the default config for first-run users.
func createDefault(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create the config directory: %w", err)
	}
	data, err := yaml.Marshal(DefaultConfig())
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}
