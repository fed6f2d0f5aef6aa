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
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/AleutianAI/AleutianStudio/services/studio/events"
)

// defaultEventLimit caps unbounded telemetry event queries.
const defaultEventLimit = 100

// TelemetryEvents returns persisted telemetry events, newest first.
//
// GET /telemetry/events?limit=<n>&type=<event type>
func TelemetryEvents(w *events.JSONLWriter) gin.HandlerFunc {
	return func(c *gin.Context) {
		limit := defaultEventLimit
		if raw := c.Query("limit"); raw != "" {
			n, err := strconv.Atoi(raw)
			if err != nil || n <= 0 {
				c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be a positive integer"})
				return
			}
			limit = n
		}

		var types []events.Type
		for _, t := range c.QueryArray("type") {
			types = append(types, events.Type(t))
		}

		evs, err := w.ReadEvents(limit, types...)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"events": evs, "total": len(evs)})
	}
}

// TelemetryStats returns aggregate counts across all telemetry.
//
// GET /telemetry/stats
func TelemetryStats(w *events.JSONLWriter) gin.HandlerFunc {
	return func(c *gin.Context) {
		stats, err := w.ReadStats()
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, stats)
	}
}

// TelemetryDisabled answers telemetry routes when persistence is off.
func TelemetryDisabled() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "telemetry persistence is disabled"})
	}
}
