// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package events carries Studio telemetry: proposal lifecycle events
// broadcast in-process and optionally persisted as JSONL.
package events

import "time"

// Type identifies a telemetry event type.
type Type string

// Event types emitted by the Studio backend.
const (
	// TypeSessionStart marks backend startup.
	TypeSessionStart Type = "SessionStart"

	// TypeSessionEnd marks graceful shutdown.
	TypeSessionEnd Type = "SessionEnd"

	// TypeProposalCreated is emitted when a tool call registers a new
	// pending proposal.
	TypeProposalCreated Type = "ProposalCreated"

	// TypeProposalDecision is emitted when a proposal is approved or
	// rejected, including the apply outcome.
	TypeProposalDecision Type = "ProposalDecision"

	// TypeWorkspaceDrift is emitted when a file touched by a pending
	// proposal changes on disk outside the approval flow.
	TypeWorkspaceDrift Type = "WorkspaceDrift"

	// TypeError records a non-fatal backend error.
	TypeError Type = "Error"
)

// Event is a single telemetry record.
type Event struct {
	// ID uniquely identifies the event.
	ID string `json:"event_id"`

	// Type is the event type.
	Type Type `json:"event_type"`

	// SessionID groups events from one backend run.
	SessionID string `json:"session_id,omitempty"`

	// Timestamp is when the event occurred (UTC).
	Timestamp time.Time `json:"timestamp"`

	// Data is the typed payload for the event type.
	Data any `json:"payload,omitempty"`
}

// ProposalCreatedData is the payload for TypeProposalCreated.
type ProposalCreatedData struct {
	ProposalID   string `json:"proposal_id"`
	Summary      string `json:"summary"`
	FileCount    int    `json:"file_count"`
	LinesAdded   int    `json:"lines_added"`
	LinesRemoved int    `json:"lines_removed"`
}

// ProposalDecisionData is the payload for TypeProposalDecision.
type ProposalDecisionData struct {
	ProposalID    string `json:"proposal_id"`
	Action        string `json:"action"`
	FilesAffected int    `json:"files_affected"`
	Warning       string `json:"warning,omitempty"`
	Error         string `json:"error,omitempty"`
}

// WorkspaceDriftData is the payload for TypeWorkspaceDrift.
type WorkspaceDriftData struct {
	Path string `json:"path"`
}

// ErrorData is the payload for TypeError.
type ErrorData struct {
	Source  string `json:"source"`
	Message string `json:"message"`
}

// Sink accepts telemetry events. The Emitter is the production Sink;
// tests substitute a MockEmitter.
type Sink interface {
	Emit(eventType Type, data any)
}

// Discard is a Sink that drops every event. Useful when telemetry is
// disabled but producers still want a non-nil sink.
type Discard struct{}

// Emit drops the event.
func (Discard) Emit(Type, any) {}
