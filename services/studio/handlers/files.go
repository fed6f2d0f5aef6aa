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
	"os"
	"path"
	"sort"

	"github.com/gin-gonic/gin"

	"github.com/AleutianAI/AleutianStudio/services/studio/workspace"
)

// FileEntry is one directory listing row for the review UI.
type FileEntry struct {
	Name  string `json:"name"`
	Path  string `json:"path"`
	IsDir bool   `json:"is_dir"`
	Size  int64  `json:"size,omitempty"`
}

// ListFiles lists a workspace directory for the UI file browser.
//
// GET /files?path=<relative dir>
func ListFiles(ws *workspace.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		rel := c.Query("path")

		abs, err := ws.SafePath(rel)
		if err != nil {
			writePathError(c, err)
			return
		}

		entries, err := os.ReadDir(abs)
		if err != nil {
			if os.IsNotExist(err) {
				c.JSON(http.StatusNotFound, gin.H{"error": "directory not found", "path": rel})
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}

		out := make([]FileEntry, 0, len(entries))
		for _, e := range entries {
			entry := FileEntry{
				Name:  e.Name(),
				Path:  path.Join(rel, e.Name()),
				IsDir: e.IsDir(),
			}
			if !e.IsDir() {
				if fi, err := e.Info(); err == nil {
					entry.Size = fi.Size()
				}
			}
			out = append(out, entry)
		}
		sort.Slice(out, func(i, j int) bool {
			if out[i].IsDir != out[j].IsDir {
				return out[i].IsDir
			}
			return out[i].Name < out[j].Name
		})

		c.JSON(http.StatusOK, gin.H{"path": rel, "entries": out})
	}
}

// FileContent returns a workspace file's content.
//
// GET /files/content?path=<relative file>
func FileContent(ws *workspace.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		rel := c.Query("path")
		if rel == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "path query parameter is required"})
			return
		}

		abs, err := ws.SafePath(rel)
		if err != nil {
			writePathError(c, err)
			return
		}

		fi, err := os.Stat(abs)
		if err != nil {
			if os.IsNotExist(err) {
				c.JSON(http.StatusNotFound, gin.H{"error": "file not found", "path": rel})
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		if fi.IsDir() {
			c.JSON(http.StatusBadRequest, gin.H{"error": "path is a directory", "path": rel})
			return
		}

		data, err := os.ReadFile(abs)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"path": rel, "content": string(data), "size": fi.Size()})
	}
}

// writePathError maps path guard violations to 400 responses.
func writePathError(c *gin.Context, err error) {
	if errors.Is(err, workspace.ErrPathEscape) || errors.Is(err, workspace.ErrAbsolutePath) {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
}
