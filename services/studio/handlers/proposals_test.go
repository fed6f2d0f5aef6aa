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
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AleutianAI/AleutianStudio/services/studio/approval"
	"github.com/AleutianAI/AleutianStudio/services/studio/proposals"
	"github.com/AleutianAI/AleutianStudio/services/studio/tools"
	"github.com/AleutianAI/AleutianStudio/services/studio/workspace"
)

type testServer struct {
	router *gin.Engine
	store  *proposals.Store
	tools  *tools.Tools
	ws     *workspace.Manager
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	ws, err := workspace.NewManager(t.TempDir(), nil)
	require.NoError(t, err)
	store := proposals.NewStore(nil)
	ctrl := approval.NewController(store, ws, nil, nil, nil, nil)
	toolset := tools.New(ws, store, nil, nil)

	router := gin.New()
	router.GET("/proposals/pending", ListPendingProposals(store))
	router.GET("/proposals/:id", GetProposal(store))
	router.POST("/proposals/:id/approve", ApproveProposal(ctrl))
	router.POST("/proposals/:id/reject", RejectProposal(ctrl))
	router.DELETE("/proposals/all", ClearProposals(store))

	return &testServer{router: router, store: store, tools: toolset, ws: ws}
}

func (s *testServer) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	return out
}

// TestListPending_ShowsRegisteredProposal verifies the create-then-read
// path through the HTTP surface.
func TestListPending_ShowsRegisteredProposal(t *testing.T) {
	s := newTestServer(t)
	_, err := s.tools.WriteFile("a.txt", "one\ntwo\nthree\n")
	require.NoError(t, err)

	w := s.do(t, http.MethodGet, "/proposals/pending", nil)
	require.Equal(t, http.StatusOK, w.Code)

	body := decode(t, w)
	assert.EqualValues(t, 1, body["total"])
	entries := body["proposals"].([]any)
	require.Len(t, entries, 1)
	entry := entries[0].(map[string]any)
	assert.EqualValues(t, 3, entry["lines_added"])
	assert.EqualValues(t, 1, entry["file_count"])
}

// TestGetProposal_FullContentAnd404 verifies detail lookup.
func TestGetProposal_FullContentAnd404(t *testing.T) {
	s := newTestServer(t)
	_, err := s.tools.WriteFile("a.txt", "hi\n")
	require.NoError(t, err)
	id := s.store.List()[0].ProposalID

	w := s.do(t, http.MethodGet, "/proposals/"+id, nil)
	require.Equal(t, http.StatusOK, w.Code)
	body := decode(t, w)
	assert.Equal(t, id, body["proposal_id"])
	files := body["files"].([]any)
	require.Len(t, files, 1)
	assert.Equal(t, "hi\n", files[0].(map[string]any)["after"])

	w = s.do(t, http.MethodGet, "/proposals/nope1234", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

// TestApprove_WritesFileAndReports verifies approve end to end with an
// empty body.
func TestApprove_WritesFileAndReports(t *testing.T) {
	s := newTestServer(t)
	_, err := s.tools.WriteFile("out.txt", "payload\n")
	require.NoError(t, err)
	id := s.store.List()[0].ProposalID

	w := s.do(t, http.MethodPost, "/proposals/"+id+"/approve", nil)
	require.Equal(t, http.StatusOK, w.Code)

	body := decode(t, w)
	assert.Equal(t, "approved", body["action"])
	assert.Equal(t, []any{"out.txt"}, body["files_affected"])

	data, err := os.ReadFile(filepath.Join(s.ws.Root(), "out.txt"))
	require.NoError(t, err)
	assert.Equal(t, "payload\n", string(data))
}

// TestApprove_SecondCallIs404 verifies the idempotent terminal
// decision property over HTTP.
func TestApprove_SecondCallIs404(t *testing.T) {
	s := newTestServer(t)
	_, err := s.tools.WriteFile("a.txt", "x\n")
	require.NoError(t, err)
	id := s.store.List()[0].ProposalID

	first := s.do(t, http.MethodPost, "/proposals/"+id+"/approve", nil)
	require.Equal(t, http.StatusOK, first.Code)

	second := s.do(t, http.MethodPost, "/proposals/"+id+"/approve", nil)
	assert.Equal(t, http.StatusNotFound, second.Code)
}

// TestApprove_ConflictIs409WithRollbackConfirmed verifies the conflict
// response shape.
func TestApprove_ConflictIs409WithRollbackConfirmed(t *testing.T) {
	s := newTestServer(t)
	require.NoError(t, os.WriteFile(filepath.Join(s.ws.Root(), "x.txt"), []byte("v1\n"), 0o644))

	_, err := s.tools.WriteFile("x.txt", "v2\n")
	require.NoError(t, err)
	id := s.store.List()[0].ProposalID

	// Out-of-band drift after capture.
	require.NoError(t, os.WriteFile(filepath.Join(s.ws.Root(), "x.txt"), []byte("drift\n"), 0o644))

	w := s.do(t, http.MethodPost, "/proposals/"+id+"/approve", nil)
	require.Equal(t, http.StatusConflict, w.Code)

	body := decode(t, w)
	assert.Equal(t, "x.txt", body["path"])
	assert.Equal(t, true, body["rolled_back"])
}

// TestReject_LeavesDiskUntouched verifies reject over HTTP.
func TestReject_LeavesDiskUntouched(t *testing.T) {
	s := newTestServer(t)
	_, err := s.tools.WriteFile("never.txt", "x\n")
	require.NoError(t, err)
	id := s.store.List()[0].ProposalID

	w := s.do(t, http.MethodPost, "/proposals/"+id+"/reject", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "rejected", decode(t, w)["action"])
	assert.NoFileExists(t, filepath.Join(s.ws.Root(), "never.txt"))
}

// TestClearProposals reports the removed count.
func TestClearProposals(t *testing.T) {
	s := newTestServer(t)
	_, err := s.tools.WriteFile("a.txt", "x")
	require.NoError(t, err)
	_, err = s.tools.WriteFile("b.txt", "y")
	require.NoError(t, err)

	w := s.do(t, http.MethodDelete, "/proposals/all", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.EqualValues(t, 2, decode(t, w)["cleared"])
	assert.Equal(t, 0, s.store.Count())
}

// TestApprove_MalformedBodyIs400 verifies body validation.
func TestApprove_MalformedBodyIs400(t *testing.T) {
	s := newTestServer(t)
	_, err := s.tools.WriteFile("a.txt", "x")
	require.NoError(t, err)
	id := s.store.List()[0].ProposalID

	req := httptest.NewRequest(http.MethodPost, "/proposals/"+id+"/approve",
		bytes.NewReader([]byte("{not json")))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, 1, s.store.Count(), "proposal must stay pending")
}
