// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package proposals

import (
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// proposalIDLength is the number of UUID hex characters used for IDs.
// Short IDs keep tool confirmations readable for the agent and the user.
const proposalIDLength = 8

// Store is the process-wide registry of pending change proposals.
//
// # Description
//
// The Store exclusively owns the authoritative pending set. It is
// initialized empty at startup, populated by Create, and emptied by
// Remove (driven by approval/rejection) or Clear. It is deliberately
// never persisted: proposals do not survive a backend restart.
//
// # Thread Safety
//
// All operations are safe for concurrent use. Mutations are serialized
// behind a single mutex so two concurrent decisions for the same ID
// cannot both succeed; reads return defensive copies.
type Store struct {
	mu        sync.RWMutex
	proposals map[string]*ChangeProposal
	nextSeq   uint64
	logger    *slog.Logger
}

// NewStore creates an empty proposal store.
//
// # Inputs
//
//   - logger: Logger for diagnostic output (nil uses slog.Default).
//
// # Outputs
//
//   - *Store: Ready-to-use empty store.
func NewStore(logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{
		proposals: make(map[string]*ChangeProposal),
		logger:    logger.With("component", "proposal_store"),
	}
}

// Create validates and registers a new proposal.
//
// # Description
//
// Assigns a fresh unique ID, computes per-file diff stats, and stores a
// deep copy of the file changes. The caller's slice is not retained.
//
// # Inputs
//
//   - files: Non-empty ordered file changes with unique paths.
//   - summary: Short description; generated from the changes when empty.
//
// # Outputs
//
//   - *ChangeProposal: Copy of the stored proposal, including its ID.
//   - error: ErrInvalidProposal (wrapped) on empty files, duplicate
//     paths, or a file change violating the presence rules.
func (s *Store) Create(files []FileChange, summary string) (*ChangeProposal, error) {
	if len(files) == 0 {
		return nil, fmt.Errorf("%w: no file changes", ErrInvalidProposal)
	}

	seen := make(map[string]struct{}, len(files))
	copied := make([]FileChange, 0, len(files))
	for _, fc := range files {
		if err := fc.validate(); err != nil {
			return nil, err
		}
		if _, dup := seen[fc.Path]; dup {
			return nil, fmt.Errorf("%w: duplicate path %q", ErrInvalidProposal, fc.Path)
		}
		seen[fc.Path] = struct{}{}

		c := fc.clone()
		c.LinesAdded, c.LinesRemoved = DiffStats(c.Before, c.After)
		copied = append(copied, c)
	}

	p := &ChangeProposal{
		Files:     copied,
		Summary:   summary,
		CreatedAt: time.Now().UTC(),
	}
	if p.Summary == "" {
		p.Summary = generateSummary(copied)
	}

	s.mu.Lock()
	p.ID = s.newIDLocked()
	s.nextSeq++
	p.seq = s.nextSeq
	s.proposals[p.ID] = p
	pending := len(s.proposals)
	s.mu.Unlock()

	s.logger.Info("proposal created",
		"proposal_id", p.ID,
		"file_count", len(p.Files),
		"pending", pending,
	)
	return p.clone(), nil
}

// Get returns a copy of the proposal with the given ID.
func (s *Store) Get(id string) (*ChangeProposal, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.proposals[id]
	if !ok {
		return nil, false
	}
	return p.clone(), true
}

// List returns summaries of all pending proposals, most recent first.
func (s *Store) List() []Summary {
	s.mu.RLock()
	all := make([]*ChangeProposal, 0, len(s.proposals))
	for _, p := range s.proposals {
		all = append(all, p)
	}
	s.mu.RUnlock()

	sort.Slice(all, func(i, j int) bool {
		return all[i].seq > all[j].seq
	})

	summaries := make([]Summary, 0, len(all))
	for _, p := range all {
		summaries = append(summaries, SummaryOf(p))
	}
	return summaries
}

// Remove atomically removes and returns the proposal with the given ID.
//
// # Description
//
// Both approval and rejection go through Remove, so whichever decision
// arrives second observes ok=false. This is the store-level guarantee
// behind the pending -> {approved, rejected} state machine.
func (s *Store) Remove(id string) (*ChangeProposal, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.proposals[id]
	if !ok {
		return nil, false
	}
	delete(s.proposals, id)
	return p, true
}

// Clear removes all pending proposals and returns how many were removed.
func (s *Store) Clear() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	count := len(s.proposals)
	s.proposals = make(map[string]*ChangeProposal)
	return count
}

// Count returns the number of pending proposals.
func (s *Store) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.proposals)
}

// HasPendingPath reports whether any pending proposal touches the given
// workspace-relative path. Used for advisory out-of-band change warnings.
func (s *Store) HasPendingPath(path string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, p := range s.proposals {
		for _, fc := range p.Files {
			if fc.Path == path {
				return true
			}
		}
	}
	return false
}

// newIDLocked generates a fresh short ID. Retries on the unlikely
// collision within the pending set. Caller must hold s.mu.
func (s *Store) newIDLocked() string {
	for {
		id := strings.ReplaceAll(uuid.NewString(), "-", "")[:proposalIDLength]
		if _, exists := s.proposals[id]; !exists {
			return id
		}
	}
}

// generateSummary builds a default summary from the file changes.
func generateSummary(files []FileChange) string {
	if len(files) == 1 {
		fc := files[0]
		verb := map[Operation]string{
			OpCreate: "Create",
			OpUpdate: "Update",
			OpDelete: "Delete",
		}[fc.Operation]
		return fmt.Sprintf("%s %s", verb, fc.Path)
	}
	return fmt.Sprintf("Change %d files", len(files))
}
