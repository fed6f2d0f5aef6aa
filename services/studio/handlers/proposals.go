// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package handlers implements the HTTP layer of the Studio backend.
//
// Handlers are thin: they bind and validate the request, call the
// injected component, and translate sentinel errors to status codes.
package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/AleutianAI/AleutianStudio/services/studio/approval"
	"github.com/AleutianAI/AleutianStudio/services/studio/proposals"
)

// ApproveRequest is the optional body for the approve endpoint.
type ApproveRequest struct {
	// Commit requests a git commit after apply.
	Commit bool `json:"commit"`

	// CommitMessage overrides the generated commit message.
	CommitMessage string `json:"commit_message"`
}

// ListPendingProposals returns all pending proposals, most recent first.
//
// GET /proposals/pending
func ListPendingProposals(store *proposals.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		summaries := store.List()
		c.JSON(http.StatusOK, gin.H{
			"proposals": summaries,
			"total":     len(summaries),
		})
	}
}

// GetProposal returns one proposal with full before/after content.
//
// GET /proposals/:id
func GetProposal(store *proposals.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.Param("id")
		p, ok := store.Get(id)
		if !ok {
			c.JSON(http.StatusNotFound, gin.H{"error": "proposal not found", "proposal_id": id})
			return
		}
		c.JSON(http.StatusOK, p)
	}
}

// ApproveProposal applies a proposal's changes to disk.
//
// POST /proposals/:id/approve
//
// The body is optional; an empty body approves without committing.
// Responses: 200 on success, 404 when already decided, 409 on a
// conflict with the workspace, 500 on an I/O failure. Both failure
// shapes confirm the rollback.
func ApproveProposal(ctrl *approval.Controller) gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.Param("id")

		var req ApproveRequest
		if c.Request.ContentLength > 0 {
			if err := c.ShouldBindJSON(&req); err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body: " + err.Error()})
				return
			}
		}

		result, err := ctrl.Approve(c.Request.Context(), id, approval.Options{
			Commit:        req.Commit,
			CommitMessage: req.CommitMessage,
		})
		if err != nil {
			writeDecisionError(c, id, err)
			return
		}
		c.JSON(http.StatusOK, result)
	}
}

// RejectProposal discards a proposal without touching disk.
//
// POST /proposals/:id/reject
func RejectProposal(ctrl *approval.Controller) gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.Param("id")

		result, err := ctrl.Reject(id)
		if err != nil {
			writeDecisionError(c, id, err)
			return
		}
		c.JSON(http.StatusOK, result)
	}
}

// ClearProposals discards every pending proposal.
//
// DELETE /proposals/all
func ClearProposals(store *proposals.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"cleared": store.Clear()})
	}
}

// writeDecisionError maps decision errors to HTTP responses.
func writeDecisionError(c *gin.Context, id string, err error) {
	if errors.Is(err, proposals.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "proposal not found", "proposal_id": id})
		return
	}

	var applyErr *approval.ApplyError
	if errors.As(err, &applyErr) {
		status := http.StatusInternalServerError
		if applyErr.Conflict {
			status = http.StatusConflict
		}
		c.JSON(status, gin.H{
			"error":       applyErr.Error(),
			"path":        applyErr.Path,
			"rolled_back": true,
		})
		return
	}

	c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
}
