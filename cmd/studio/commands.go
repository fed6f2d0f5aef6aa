// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package main

import (
	"github.com/spf13/cobra"
)

// --- Global Command Variables ---
var (
	configPath    string
	workspacePath string
	port          int

	rootCmd = &cobra.Command{
		Use:   "studio",
		Short: "The Aleutian Studio backend: proposal-gated agent file edits",
		Long: `Studio is the approval engine behind the Aleutian coding agent.
Agent write operations become pending change proposals; nothing touches
the workspace until a human approves it.`,
	}

	serveCmd = &cobra.Command{
		Use:   "serve",
		Short: "Run the Studio HTTP backend",
		Run:   runServe, // Defined in main.go
	}

	versionCmd = &cobra.Command{
		Use:   "version",
		Short: "Print the Studio version",
		Run:   runVersion,
	}
)

func init() {
	serveCmd.Flags().StringVar(&configPath, "config", "", "config file (default ~/.aleutian/studio.yaml)")
	serveCmd.Flags().StringVar(&workspacePath, "workspace", "", "override the workspace root")
	serveCmd.Flags().IntVar(&port, "port", 0, "override the listen port")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(versionCmd)
}
