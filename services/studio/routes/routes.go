// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package routes wires the Studio HTTP surface.
package routes

import (
	"github.com/gin-gonic/gin"

	"github.com/AleutianAI/AleutianStudio/services/studio/approval"
	"github.com/AleutianAI/AleutianStudio/services/studio/events"
	"github.com/AleutianAI/AleutianStudio/services/studio/handlers"
	"github.com/AleutianAI/AleutianStudio/services/studio/proposals"
	"github.com/AleutianAI/AleutianStudio/services/studio/telemetry"
	"github.com/AleutianAI/AleutianStudio/services/studio/tools"
	"github.com/AleutianAI/AleutianStudio/services/studio/workspace"
)

// Dependencies carries the constructed components the routes call into.
type Dependencies struct {
	Store      *proposals.Store
	Controller *approval.Controller
	Workspace  *workspace.Manager
	Tools      *tools.Tools

	// Telemetry is the persisted event reader; nil when telemetry
	// persistence is disabled.
	Telemetry *events.JSONLWriter

	// Version is reported by the root endpoint.
	Version string
}

// SetupRoutes registers every Studio endpoint on the router.
func SetupRoutes(router *gin.Engine, deps Dependencies) {
	router.GET("/", handlers.Root(deps.Version))
	router.GET("/health", handlers.HealthCheck(deps.Store))
	router.GET("/metrics", telemetry.Handler())

	// Proposal review surface. Poll-driven: clients list pending
	// proposals and decide them; nothing is pushed.
	props := router.Group("/proposals")
	{
		props.GET("/pending", handlers.ListPendingProposals(deps.Store))
		props.GET("/:id", handlers.GetProposal(deps.Store))
		props.POST("/:id/approve", handlers.ApproveProposal(deps.Controller))
		props.POST("/:id/reject", handlers.RejectProposal(deps.Controller))
		props.DELETE("/all", handlers.ClearProposals(deps.Store))
	}

	ws := router.Group("/workspace")
	{
		ws.GET("/current", handlers.CurrentWorkspace(deps.Workspace))
		ws.POST("/select", handlers.SelectWorkspace(deps.Workspace))
	}

	files := router.Group("/files")
	{
		files.GET("", handlers.ListFiles(deps.Workspace))
		files.GET("/content", handlers.FileContent(deps.Workspace))
	}

	// Agent-facing tool endpoints. Mutating tools register proposals;
	// they never write to the workspace directly.
	tls := router.Group("/tools")
	{
		tls.POST("/write_file", handlers.WriteFileTool(deps.Tools))
		tls.POST("/edit_file", handlers.EditFileTool(deps.Tools))
		tls.POST("/delete_file", handlers.DeleteFileTool(deps.Tools))
		tls.POST("/delete_directory", handlers.DeleteDirectoryTool(deps.Tools))
		tls.GET("/ls", handlers.LsTool(deps.Tools))
		tls.GET("/read_file", handlers.ReadFileTool(deps.Tools))
	}

	tel := router.Group("/telemetry")
	if deps.Telemetry != nil {
		tel.GET("/events", handlers.TelemetryEvents(deps.Telemetry))
		tel.GET("/stats", handlers.TelemetryStats(deps.Telemetry))
	} else {
		tel.GET("/events", handlers.TelemetryDisabled())
		tel.GET("/stats", handlers.TelemetryDisabled())
	}
}
