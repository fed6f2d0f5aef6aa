// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package routes

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AleutianAI/AleutianStudio/services/studio/approval"
	"github.com/AleutianAI/AleutianStudio/services/studio/proposals"
	"github.com/AleutianAI/AleutianStudio/services/studio/tools"
	"github.com/AleutianAI/AleutianStudio/services/studio/vcs"
	"github.com/AleutianAI/AleutianStudio/services/studio/workspace"
)

func newTestRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	ws, err := workspace.NewManager(t.TempDir(), nil)
	require.NoError(t, err)
	store := proposals.NewStore(nil)
	ctrl := approval.NewController(store, ws, vcs.New(nil), nil, nil, nil)
	toolset := tools.New(ws, store, nil, nil)

	router := gin.New()
	SetupRoutes(router, Dependencies{
		Store:      store,
		Controller: ctrl,
		Workspace:  ws,
		Tools:      toolset,
		Version:    "test",
	})
	return router
}

// TestSetupRoutes_AllEndpointsRegistered smoke-checks that every route
// responds with something other than 404.
func TestSetupRoutes_AllEndpointsRegistered(t *testing.T) {
	router := newTestRouter(t)

	tests := []struct {
		method string
		path   string
	}{
		{http.MethodGet, "/"},
		{http.MethodGet, "/health"},
		{http.MethodGet, "/metrics"},
		{http.MethodGet, "/proposals/pending"},
		{http.MethodGet, "/workspace/current"},
		{http.MethodGet, "/files"},
		{http.MethodGet, "/tools/ls"},
	}

	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, tt.path, nil)
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)
			assert.NotEqual(t, http.StatusNotFound, w.Code)
		})
	}
}

// TestSetupRoutes_PendingAndParamRoutesCoexist ensures the static
// /proposals/pending route does not collide with /proposals/:id.
func TestSetupRoutes_PendingAndParamRoutesCoexist(t *testing.T) {
	router := newTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/proposals/pending", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)

	req = httptest.NewRequest(http.MethodGet, "/proposals/deadbeef", nil)
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

// TestSetupRoutes_TelemetryDisabled returns 503 when no writer is wired.
func TestSetupRoutes_TelemetryDisabled(t *testing.T) {
	router := newTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/telemetry/events", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}
