// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package proposals implements the change proposal data model and the
// in-memory registry of proposals awaiting a user decision.
//
// # Description
//
// Every mutating filesystem operation requested by the agent is turned
// into a ChangeProposal instead of being written to disk. Proposals live
// in the Store until the user approves or rejects them; both outcomes
// remove the proposal, so a decision can be taken at most once.
//
// # Thread Safety
//
// The Store is safe for concurrent use. Individual ChangeProposal values
// returned by the Store are defensive copies; mutating them does not
// affect the stored proposal.
package proposals

import (
	"fmt"
	"time"
)

// =============================================================================
// Operations
// =============================================================================

// Operation is the kind of filesystem change a FileChange describes.
type Operation string

const (
	// OpCreate introduces a file that does not yet exist.
	OpCreate Operation = "create"

	// OpUpdate replaces the content of an existing file.
	OpUpdate Operation = "update"

	// OpDelete removes an existing file.
	OpDelete Operation = "delete"
)

// String returns the string representation of the operation.
func (o Operation) String() string {
	return string(o)
}

// Valid reports whether the operation is one of create, update, delete.
func (o Operation) Valid() bool {
	switch o {
	case OpCreate, OpUpdate, OpDelete:
		return true
	default:
		return false
	}
}

// =============================================================================
// File Change
// =============================================================================

// FileChange is a single file's delta within a proposal.
//
// # Description
//
// Before is the captured content prior to the change and must be nil
// exactly when Operation is OpCreate. After is the proposed content and
// must be nil exactly when Operation is OpDelete. LinesAdded and
// LinesRemoved are derived by the diff engine at creation time and are
// never set by callers.
type FileChange struct {
	// Path is the file path relative to the workspace root.
	Path string `json:"path"`

	// Operation is the kind of change.
	Operation Operation `json:"operation"`

	// Before is the original content (nil for create).
	Before *string `json:"before,omitempty"`

	// After is the proposed content (nil for delete).
	After *string `json:"after,omitempty"`

	// LinesAdded is the derived count of added lines.
	LinesAdded int `json:"lines_added"`

	// LinesRemoved is the derived count of removed lines.
	LinesRemoved int `json:"lines_removed"`
}

// clone returns a deep copy of the file change.
func (fc FileChange) clone() FileChange {
	out := fc
	if fc.Before != nil {
		b := *fc.Before
		out.Before = &b
	}
	if fc.After != nil {
		a := *fc.After
		out.After = &a
	}
	return out
}

// validate checks the structural invariants of a file change.
func (fc FileChange) validate() error {
	if fc.Path == "" {
		return fmt.Errorf("%w: file change has empty path", ErrInvalidProposal)
	}
	if !fc.Operation.Valid() {
		return fmt.Errorf("%w: unknown operation %q for %s", ErrInvalidProposal, fc.Operation, fc.Path)
	}
	if (fc.Before == nil) != (fc.Operation == OpCreate) {
		return fmt.Errorf("%w: before must be absent iff operation is create (%s)", ErrInvalidProposal, fc.Path)
	}
	if (fc.After == nil) != (fc.Operation == OpDelete) {
		return fmt.Errorf("%w: after must be absent iff operation is delete (%s)", ErrInvalidProposal, fc.Path)
	}
	return nil
}

// =============================================================================
// Change Proposal
// =============================================================================

// ChangeProposal is the unit of review and decision.
//
// # Description
//
// A proposal bundles one or more file changes under a single opaque ID.
// Once created its content is immutable; only its existence changes
// (present while pending, absent after a terminal decision).
type ChangeProposal struct {
	// ID is the opaque unique identifier assigned at creation.
	ID string `json:"proposal_id"`

	// Files is the non-empty ordered list of file changes.
	// Paths are unique within the proposal.
	Files []FileChange `json:"files"`

	// Summary is a short human-readable description.
	Summary string `json:"summary"`

	// CreatedAt is the creation timestamp.
	CreatedAt time.Time `json:"created_at"`

	// seq orders proposals by creation within this process.
	seq uint64
}

// FileCount returns the number of file changes in the proposal.
func (p *ChangeProposal) FileCount() int {
	return len(p.Files)
}

// TotalLinesAdded returns the total lines added across all files.
func (p *ChangeProposal) TotalLinesAdded() int {
	total := 0
	for _, fc := range p.Files {
		total += fc.LinesAdded
	}
	return total
}

// TotalLinesRemoved returns the total lines removed across all files.
func (p *ChangeProposal) TotalLinesRemoved() int {
	total := 0
	for _, fc := range p.Files {
		total += fc.LinesRemoved
	}
	return total
}

// Paths returns the file paths touched by the proposal, in order.
func (p *ChangeProposal) Paths() []string {
	paths := make([]string, 0, len(p.Files))
	for _, fc := range p.Files {
		paths = append(paths, fc.Path)
	}
	return paths
}

// Operations returns the operation of each file change, in order.
func (p *ChangeProposal) Operations() []string {
	ops := make([]string, 0, len(p.Files))
	for _, fc := range p.Files {
		ops = append(ops, fc.Operation.String())
	}
	return ops
}

// clone returns a deep copy of the proposal.
func (p *ChangeProposal) clone() *ChangeProposal {
	out := &ChangeProposal{
		ID:        p.ID,
		Summary:   p.Summary,
		CreatedAt: p.CreatedAt,
		Files:     make([]FileChange, 0, len(p.Files)),
		seq:       p.seq,
	}
	for _, fc := range p.Files {
		out.Files = append(out.Files, fc.clone())
	}
	return out
}

// =============================================================================
// Summary and Result
// =============================================================================

// Summary is the listing view of a pending proposal.
type Summary struct {
	ProposalID   string    `json:"proposal_id"`
	Summary      string    `json:"summary"`
	FileCount    int       `json:"file_count"`
	LinesAdded   int       `json:"lines_added"`
	LinesRemoved int       `json:"lines_removed"`
	CreatedAt    time.Time `json:"created_at"`
}

// SummaryOf builds the listing view for a proposal.
func SummaryOf(p *ChangeProposal) Summary {
	return Summary{
		ProposalID:   p.ID,
		Summary:      p.Summary,
		FileCount:    p.FileCount(),
		LinesAdded:   p.TotalLinesAdded(),
		LinesRemoved: p.TotalLinesRemoved(),
		CreatedAt:    p.CreatedAt,
	}
}

// Decision actions for a Result.
const (
	// ActionApproved marks a proposal whose changes were applied to disk.
	ActionApproved = "approved"

	// ActionRejected marks a proposal that was discarded without I/O.
	ActionRejected = "rejected"
)

// Result reports the outcome of a terminal decision on a proposal.
type Result struct {
	// ProposalID is the decided proposal's identifier.
	ProposalID string `json:"proposal_id"`

	// Action is ActionApproved or ActionRejected.
	Action string `json:"action"`

	// FilesAffected lists the workspace-relative paths the decision covered.
	FilesAffected []string `json:"files_affected"`

	// Message is a short human-readable outcome description.
	Message string `json:"message,omitempty"`

	// Warning carries a non-fatal follow-up failure, such as a git commit
	// that failed after the filesystem apply succeeded.
	Warning string `json:"warning,omitempty"`
}
