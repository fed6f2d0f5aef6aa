// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/AleutianAI/AleutianStudio/services/studio/workspace"
)

// SelectWorkspaceRequest is the body for the workspace select endpoint.
type SelectWorkspaceRequest struct {
	Path string `json:"path" binding:"required"`
}

// CurrentWorkspace returns the active workspace root and git state.
//
// GET /workspace/current
func CurrentWorkspace(ws *workspace.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, ws.Current())
	}
}

// SelectWorkspace switches the active workspace root.
//
// POST /workspace/select
func SelectWorkspace(ws *workspace.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req SelectWorkspaceRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body: " + err.Error()})
			return
		}

		info, err := ws.Select(req.Path)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, info)
	}
}
