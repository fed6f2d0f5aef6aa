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
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/AleutianAI/AleutianStudio/services/studio/tools"
	"github.com/AleutianAI/AleutianStudio/services/studio/workspace"
)

// WriteFileRequest is the body for the write_file tool endpoint.
type WriteFileRequest struct {
	Path    string `json:"path" binding:"required"`
	Content string `json:"content"`
}

// EditFileRequest is the body for the edit_file tool endpoint.
type EditFileRequest struct {
	Path      string `json:"path" binding:"required"`
	OldString string `json:"old_string" binding:"required"`
	NewString string `json:"new_string"`
}

// PathRequest is the body for tool endpoints that take only a path.
type PathRequest struct {
	Path string `json:"path" binding:"required"`
}

// WriteFileTool proposes creating or overwriting a file.
//
// POST /tools/write_file
func WriteFileTool(t *tools.Tools) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req WriteFileRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body: " + err.Error()})
			return
		}

		result, err := t.WriteFile(req.Path, req.Content)
		if err != nil {
			writeToolError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"result": result})
	}
}

// EditFileTool proposes an exact single-match string replacement.
//
// POST /tools/edit_file
func EditFileTool(t *tools.Tools) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req EditFileRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body: " + err.Error()})
			return
		}

		result, err := t.EditFile(req.Path, req.OldString, req.NewString)
		if err != nil {
			writeToolError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"result": result})
	}
}

// DeleteFileTool proposes removing a file.
//
// POST /tools/delete_file
func DeleteFileTool(t *tools.Tools) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req PathRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body: " + err.Error()})
			return
		}

		result, err := t.DeleteFile(req.Path)
		if err != nil {
			writeToolError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"result": result})
	}
}

// DeleteDirectoryTool proposes removing a directory tree.
//
// POST /tools/delete_directory
func DeleteDirectoryTool(t *tools.Tools) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req PathRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body: " + err.Error()})
			return
		}

		result, err := t.DeleteDirectory(req.Path)
		if err != nil {
			writeToolError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"result": result})
	}
}

// LsTool lists a workspace directory in agent-readable form.
//
// GET /tools/ls?path=<relative dir>
func LsTool(t *tools.Tools) gin.HandlerFunc {
	return func(c *gin.Context) {
		result, err := t.Ls(c.Query("path"))
		if err != nil {
			writeToolError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"result": result})
	}
}

// ReadFileTool returns a workspace file's content in agent-readable form.
//
// GET /tools/read_file?path=<relative file>
func ReadFileTool(t *tools.Tools) gin.HandlerFunc {
	return func(c *gin.Context) {
		result, err := t.ReadFile(c.Query("path"))
		if err != nil {
			writeToolError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"result": result})
	}
}

// writeToolError maps tool sentinel errors to HTTP responses.
func writeToolError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, tools.ErrFileNotFound), errors.Is(err, tools.ErrDirectoryNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, tools.ErrAmbiguousMatch):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, tools.ErrNotFile),
		errors.Is(err, tools.ErrRootDeletion),
		errors.Is(err, workspace.ErrPathEscape),
		errors.Is(err, workspace.ErrAbsolutePath):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}
