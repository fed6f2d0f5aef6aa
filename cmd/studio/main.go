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
	"context"
	"fmt"
	"log"
	"os"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/AleutianAI/AleutianStudio/cmd/studio/config"
	"github.com/AleutianAI/AleutianStudio/pkg/logging"
	"github.com/AleutianAI/AleutianStudio/services/studio/approval"
	"github.com/AleutianAI/AleutianStudio/services/studio/events"
	"github.com/AleutianAI/AleutianStudio/services/studio/middleware"
	"github.com/AleutianAI/AleutianStudio/services/studio/proposals"
	"github.com/AleutianAI/AleutianStudio/services/studio/routes"
	"github.com/AleutianAI/AleutianStudio/services/studio/telemetry"
	"github.com/AleutianAI/AleutianStudio/services/studio/tools"
	"github.com/AleutianAI/AleutianStudio/services/studio/vcs"
	"github.com/AleutianAI/AleutianStudio/services/studio/workspace"
)

const version = "0.3.0"

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func runVersion(cmd *cobra.Command, args []string) {
	fmt.Printf("studio %s\n", version)
}

func runServe(cmd *cobra.Command, args []string) {
	cfg, err := config.Load(configPath)
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}
	if workspacePath != "" {
		cfg.Workspace.Root = workspacePath
	}
	if port != 0 {
		cfg.Server.Port = port
	}

	logger := logging.New(logging.Config{
		Level:   logging.ParseLevel(cfg.Logging.Level),
		LogDir:  cfg.Logging.Dir,
		Service: "studio",
		JSON:    cfg.Logging.JSON,
	})
	defer logger.Close()
	slogger := logger.Slog()

	if cfg.Server.Tracing {
		cleanup, err := telemetry.InitTracer("studio-backend")
		if err != nil {
			log.Fatalf("failed to setup the tracer: %v", err)
		}
		defer cleanup(context.Background())
	}

	ws, err := workspace.NewManager(cfg.Workspace.Root, slogger)
	if err != nil {
		log.Fatalf("failed to open workspace: %v", err)
	}

	store := proposals.NewStore(slogger)
	emitter := events.NewEmitter()

	var writer *events.JSONLWriter
	if cfg.Telemetry.Enabled && cfg.Telemetry.Dir != "" {
		writer, err = events.NewJSONLWriter(cfg.Telemetry.Dir, slogger)
		if err != nil {
			logger.Warn("telemetry persistence disabled", "error", err)
			writer = nil
		} else {
			writer.Attach(emitter)
		}
	}

	metrics := telemetry.NewMetrics(nil)
	metrics.Bind(emitter)

	git := vcs.New(slogger)
	ctrl := approval.NewController(store, ws, git, emitter, metrics, slogger)
	toolset := tools.New(ws, store, emitter, slogger)

	// Out-of-band edits to files under review are advisory warnings;
	// conflicts are enforced at apply time.
	err = ws.Watch(func(relPath string) {
		if store.HasPendingPath(relPath) {
			logger.Warn("file with pending proposal changed outside the approval flow",
				"path", relPath,
			)
			emitter.Emit(events.TypeWorkspaceDrift, events.WorkspaceDriftData{Path: relPath})
		}
	})
	if err != nil {
		logger.Warn("workspace watcher unavailable", "error", err)
	}
	defer ws.CloseWatch()

	router := gin.Default()
	router.Use(middleware.CORS(cfg.Server.CORSOrigins))
	if cfg.Server.Tracing {
		router.Use(otelgin.Middleware("studio-backend"))
	}

	routes.SetupRoutes(router, routes.Dependencies{
		Store:      store,
		Controller: ctrl,
		Workspace:  ws,
		Tools:      toolset,
		Telemetry:  writer,
		Version:    version,
	})

	emitter.Emit(events.TypeSessionStart, nil)
	defer emitter.Emit(events.TypeSessionEnd, nil)

	logger.Info("starting the Studio backend",
		"port", cfg.Server.Port,
		"workspace", ws.Root(),
		"git_enabled", ws.GitEnabled(),
	)
	if err := router.Run(":" + strconv.Itoa(cfg.Server.Port)); err != nil {
		log.Fatalf("failed to start server: %v", err)
	}
}
