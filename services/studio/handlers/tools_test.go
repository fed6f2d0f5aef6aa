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
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AleutianAI/AleutianStudio/services/studio/proposals"
	"github.com/AleutianAI/AleutianStudio/services/studio/tools"
	"github.com/AleutianAI/AleutianStudio/services/studio/workspace"
)

func newToolServer(t *testing.T) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	ws, err := workspace.NewManager(t.TempDir(), nil)
	require.NoError(t, err)
	store := proposals.NewStore(nil)
	toolset := tools.New(ws, store, nil, nil)

	router := gin.New()
	router.POST("/tools/write_file", WriteFileTool(toolset))
	router.POST("/tools/edit_file", EditFileTool(toolset))
	router.POST("/tools/delete_file", DeleteFileTool(toolset))
	router.GET("/tools/ls", LsTool(toolset))
	router.GET("/tools/read_file", ReadFileTool(toolset))
	router.GET("/files", ListFiles(ws))
	router.GET("/files/content", FileContent(ws))
	router.GET("/workspace/current", CurrentWorkspace(ws))

	return &testServer{router: router, store: store, tools: toolset, ws: ws}
}

// TestWriteFileTool_RegistersProposal verifies the tool endpoint
// returns the pending confirmation.
func TestWriteFileTool_RegistersProposal(t *testing.T) {
	s := newToolServer(t)

	w := s.do(t, http.MethodPost, "/tools/write_file",
		WriteFileRequest{Path: "a.txt", Content: "hi\n"})
	require.Equal(t, http.StatusOK, w.Code)

	result := decode(t, w)["result"].(string)
	assert.True(t, strings.HasPrefix(result, "Proposed create to 'a.txt' (proposal_id: "))
	assert.True(t, strings.HasSuffix(result, "). Awaiting user approval."))
	assert.Equal(t, 1, s.store.Count())
}

// TestWriteFileTool_SandboxEscapeIs400 verifies the guard surfaces as a
// client error with no proposal.
func TestWriteFileTool_SandboxEscapeIs400(t *testing.T) {
	s := newToolServer(t)

	w := s.do(t, http.MethodPost, "/tools/write_file",
		WriteFileRequest{Path: "../../etc/passwd", Content: "x"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, 0, s.store.Count())
}

// TestEditFileTool_StatusMapping covers 404, 409, and success.
func TestEditFileTool_StatusMapping(t *testing.T) {
	s := newToolServer(t)
	require.NoError(t, os.WriteFile(filepath.Join(s.ws.Root(), "f.txt"), []byte("foo foo"), 0o644))

	w := s.do(t, http.MethodPost, "/tools/edit_file",
		EditFileRequest{Path: "ghost.txt", OldString: "a", NewString: "b"})
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = s.do(t, http.MethodPost, "/tools/edit_file",
		EditFileRequest{Path: "f.txt", OldString: "foo", NewString: "bar"})
	assert.Equal(t, http.StatusConflict, w.Code)

	w = s.do(t, http.MethodPost, "/tools/edit_file",
		EditFileRequest{Path: "f.txt", OldString: "foo foo", NewString: "bar"})
	assert.Equal(t, http.StatusOK, w.Code)
}

// TestDeleteFileTool_MissingIs404 verifies the delete mapping.
func TestDeleteFileTool_MissingIs404(t *testing.T) {
	s := newToolServer(t)

	w := s.do(t, http.MethodPost, "/tools/delete_file", PathRequest{Path: "nope.txt"})
	assert.Equal(t, http.StatusNotFound, w.Code)
}

// TestReadOnlyToolEndpoints covers ls and read_file.
func TestReadOnlyToolEndpoints(t *testing.T) {
	s := newToolServer(t)
	require.NoError(t, os.WriteFile(filepath.Join(s.ws.Root(), "b.txt"), []byte("12345"), 0o644))

	w := s.do(t, http.MethodGet, "/tools/ls", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "[FILE] b.txt (5 bytes)", decode(t, w)["result"])

	w = s.do(t, http.MethodGet, "/tools/read_file?path=b.txt", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "12345", decode(t, w)["result"])
}

// TestFileBrowserEndpoints covers the UI listing and content routes.
func TestFileBrowserEndpoints(t *testing.T) {
	s := newToolServer(t)
	require.NoError(t, os.MkdirAll(filepath.Join(s.ws.Root(), "src"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(s.ws.Root(), "src", "m.go"), []byte("package m\n"), 0o644))

	w := s.do(t, http.MethodGet, "/files?path=src", nil)
	require.Equal(t, http.StatusOK, w.Code)
	entries := decode(t, w)["entries"].([]any)
	require.Len(t, entries, 1)
	entry := entries[0].(map[string]any)
	assert.Equal(t, "m.go", entry["name"])
	assert.Equal(t, "src/m.go", entry["path"])

	w = s.do(t, http.MethodGet, "/files/content?path=src/m.go", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "package m\n", decode(t, w)["content"])

	w = s.do(t, http.MethodGet, "/files/content?path=../../etc/passwd", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = s.do(t, http.MethodGet, "/files/content", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

// TestCurrentWorkspaceEndpoint reports the root.
func TestCurrentWorkspaceEndpoint(t *testing.T) {
	s := newToolServer(t)

	w := s.do(t, http.MethodGet, "/workspace/current", nil)
	require.Equal(t, http.StatusOK, w.Code)
	body := decode(t, w)
	assert.Equal(t, s.ws.Root(), body["root_path"])
	assert.Equal(t, false, body["git_enabled"])
}
