// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package config

import (
	"os"
	"path/filepath"
)

// StudioConfig is the backend configuration, loaded from YAML.
type StudioConfig struct {
	// Server: HTTP listener and browser access
	Server ServerConfig `yaml:"server"`

	// Workspace: sandbox root the agent operates in
	Workspace WorkspaceConfig `yaml:"workspace"`

	// Telemetry: JSONL event persistence
	Telemetry TelemetryConfig `yaml:"telemetry"`

	// Logging: level and destinations
	Logging LoggingConfig `yaml:"logging"`
}

type ServerConfig struct {
	Port        int      `yaml:"port" validate:"min=1,max=65535"`
	CORSOrigins []string `yaml:"cors_origins"`
	Tracing     bool     `yaml:"tracing"`
}

type WorkspaceConfig struct {
	Root string `yaml:"root" validate:"required"`
}

type TelemetryConfig struct {
	Enabled bool   `yaml:"enabled"`
	Dir     string `yaml:"dir"`
}

type LoggingConfig struct {
	Level string `yaml:"level" validate:"oneof=debug info warn error"`
	Dir   string `yaml:"dir"`
	JSON  bool   `yaml:"json"`
}

// DefaultConfig returns the configuration written on first run.
func DefaultConfig() StudioConfig {
	workspaceRoot := "."
	telemetryDir := ""
	if home, err := os.UserHomeDir(); err == nil {
		workspaceRoot = filepath.Join(home, "studio-workspace")
		telemetryDir = filepath.Join(home, ".aleutian", "studio", "telemetry")
	}

	return StudioConfig{
		Server: ServerConfig{
			Port: 8000,
			CORSOrigins: []string{
				"http://localhost:4200",
				"http://localhost:8000",
			},
			Tracing: false,
		},
		Workspace: WorkspaceConfig{
			Root: workspaceRoot,
		},
		Telemetry: TelemetryConfig{
			Enabled: true,
			Dir:     telemetryDir,
		},
		Logging: LoggingConfig{
			Level: "info",
			Dir:   "~/.aleutian/logs",
			JSON:  false,
		},
	}
}
