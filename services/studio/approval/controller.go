// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package approval applies or discards change proposals.
//
// # Description
//
// The Controller owns the only code path permitted to mutate files
// belonging to a proposal. Approval removes the proposal from the
// store, verifies every file still matches its captured state, applies
// all changes, and rolls back already-applied files in reverse order if
// any step fails. Rejection removes the proposal without touching disk.
package approval

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/AleutianAI/AleutianStudio/services/studio/events"
	"github.com/AleutianAI/AleutianStudio/services/studio/proposals"
	"github.com/AleutianAI/AleutianStudio/services/studio/telemetry"
	"github.com/AleutianAI/AleutianStudio/services/studio/vcs"
	"github.com/AleutianAI/AleutianStudio/services/studio/workspace"
)

// ApplyError reports a failed approve with rollback already performed.
type ApplyError struct {
	// Path is the workspace-relative path of the failing file.
	Path string

	// Conflict is true when the failure was a mismatch between the
	// file's on-disk state and its captured "before" content.
	Conflict bool

	// Err is the underlying cause.
	Err error
}

// Error implements the error interface.
func (e *ApplyError) Error() string {
	if e.Conflict {
		return fmt.Sprintf("conflict at %s: %v", e.Path, e.Err)
	}
	return fmt.Sprintf("apply failed at %s: %v", e.Path, e.Err)
}

// Unwrap returns the underlying cause.
func (e *ApplyError) Unwrap() error {
	return e.Err
}

// Options controls the approve step.
type Options struct {
	// Commit requests a git commit after a successful apply. Ignored
	// when the workspace is not a repository.
	Commit bool

	// CommitMessage overrides the generated commit message.
	CommitMessage string
}

// Controller decides proposals.
//
// # Thread Safety
//
// Safe for concurrent use. Two concurrent decisions for the same
// proposal race on the store's atomic remove; exactly one wins and the
// other observes proposals.ErrNotFound.
type Controller struct {
	store   *proposals.Store
	ws      *workspace.Manager
	git     vcs.Committer
	sink    events.Sink
	metrics *telemetry.Metrics
	logger  *slog.Logger
}

// NewController creates a controller.
//
// # Inputs
//
//   - store: Proposal registry decisions drain.
//   - ws: Workspace manager; paths are re-validated through its guard.
//   - git: Optional committer for commit-after-apply (nil disables).
//   - sink: Telemetry sink (nil uses events.Discard).
//   - metrics: Optional metric set (nil disables).
//   - logger: Logger for diagnostic output (nil uses slog.Default).
func NewController(store *proposals.Store, ws *workspace.Manager, git vcs.Committer, sink events.Sink, metrics *telemetry.Metrics, logger *slog.Logger) *Controller {
	if sink == nil {
		sink = events.Discard{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Controller{
		store:   store,
		ws:      ws,
		git:     git,
		sink:    sink,
		metrics: metrics,
		logger:  logger.With("component", "approval"),
	}
}

// Approve applies a proposal's changes to disk.
//
// # Description
//
// The proposal is removed from the store first, so a concurrent second
// decision observes proposals.ErrNotFound. Every file is then verified
// against its captured state: an update or delete whose on-disk content
// no longer matches "before", or a create whose path meanwhile exists,
// is a conflict. Any failure rolls back already-applied files in
// reverse order and returns an *ApplyError; the proposal stays decided
// and is not re-registered. A requested git commit runs after a
// successful apply and is best-effort: its failure surfaces as
// Result.Warning, never as an error.
//
// # Inputs
//
//   - ctx: Honored by the commit step.
//   - id: Proposal identifier.
//   - opts: Commit options.
//
// # Outputs
//
//   - *proposals.Result: Outcome with affected paths on success.
//   - error: proposals.ErrNotFound for an unknown or already-decided
//     ID, or *ApplyError after rollback.
func (c *Controller) Approve(ctx context.Context, id string, opts Options) (*proposals.Result, error) {
	p, ok := c.store.Remove(id)
	if !ok {
		return nil, fmt.Errorf("%w: %s", proposals.ErrNotFound, id)
	}

	start := time.Now()
	if err := c.apply(p); err != nil {
		c.logger.Error("apply failed, rolled back",
			"proposal_id", p.ID,
			"error", err,
		)
		c.emitDecision(p, proposals.ActionApproved, "", err)
		return nil, err
	}
	c.metrics.ObserveApply(time.Since(start))

	result := &proposals.Result{
		ProposalID:    p.ID,
		Action:        proposals.ActionApproved,
		FilesAffected: p.Paths(),
		Message:       fmt.Sprintf("Applied %d file change(s)", p.FileCount()),
	}

	if opts.Commit {
		result.Warning = c.commit(ctx, p, opts.CommitMessage)
	}

	c.logger.Info("proposal approved",
		"proposal_id", p.ID,
		"files", p.FileCount(),
		"committed", opts.Commit && result.Warning == "",
	)
	c.emitDecision(p, proposals.ActionApproved, result.Warning, nil)
	return result, nil
}

// Reject discards a proposal without touching disk.
//
// # Outputs
//
//   - *proposals.Result: Outcome with the paths that were covered.
//   - error: proposals.ErrNotFound for an unknown or already-decided ID.
func (c *Controller) Reject(id string) (*proposals.Result, error) {
	p, ok := c.store.Remove(id)
	if !ok {
		return nil, fmt.Errorf("%w: %s", proposals.ErrNotFound, id)
	}

	c.logger.Info("proposal rejected", "proposal_id", p.ID, "files", p.FileCount())
	c.emitDecision(p, proposals.ActionRejected, "", nil)

	return &proposals.Result{
		ProposalID:    p.ID,
		Action:        proposals.ActionRejected,
		FilesAffected: p.Paths(),
		Message:       fmt.Sprintf("Discarded %d file change(s)", p.FileCount()),
	}, nil
}

// revertState captures a file's on-disk state before it is mutated.
type revertState struct {
	abs     string
	existed bool
	content []byte
}

// apply writes all file changes, rolling back on any failure.
func (c *Controller) apply(p *proposals.ChangeProposal) error {
	// Resolve and verify everything before the first write so most
	// conflicts fail without any disk mutation at all.
	absPaths := make([]string, len(p.Files))
	for i, fc := range p.Files {
		abs, err := c.ws.SafePath(fc.Path)
		if err != nil {
			return &ApplyError{Path: fc.Path, Err: err}
		}
		absPaths[i] = abs
		if err := verifyState(abs, fc); err != nil {
			return err
		}
	}

	applied := make([]revertState, 0, len(p.Files))
	for i, fc := range p.Files {
		// Re-verify right before the write; the preflight pass leaves a
		// window for out-of-band changes.
		if err := verifyState(absPaths[i], fc); err != nil {
			c.rollback(applied)
			return err
		}
		state, err := applyOne(absPaths[i], fc)
		if err != nil {
			c.rollback(applied)
			return &ApplyError{Path: fc.Path, Err: err}
		}
		applied = append(applied, state)
	}

	// Deletions may leave empty directories behind; prune them.
	for i, fc := range p.Files {
		if fc.Operation == proposals.OpDelete {
			c.pruneEmptyDirs(filepath.Dir(absPaths[i]))
		}
	}
	return nil
}

// verifyState checks a file change against the current disk state.
func verifyState(abs string, fc proposals.FileChange) error {
	data, err := os.ReadFile(abs)
	switch fc.Operation {
	case proposals.OpCreate:
		if err == nil {
			return &ApplyError{Path: fc.Path, Conflict: true,
				Err: errors.New("file was created outside the proposal")}
		}
		if !os.IsNotExist(err) {
			return &ApplyError{Path: fc.Path, Err: err}
		}
	case proposals.OpUpdate, proposals.OpDelete:
		if os.IsNotExist(err) {
			return &ApplyError{Path: fc.Path, Conflict: true,
				Err: errors.New("file was removed outside the proposal")}
		}
		if err != nil {
			return &ApplyError{Path: fc.Path, Err: err}
		}
		if fc.Before == nil || string(data) != *fc.Before {
			return &ApplyError{Path: fc.Path, Conflict: true,
				Err: errors.New("file content changed outside the proposal")}
		}
	}
	return nil
}

// applyOne performs a single file change and returns its revert state.
func applyOne(abs string, fc proposals.FileChange) (revertState, error) {
	state := revertState{abs: abs}
	if data, err := os.ReadFile(abs); err == nil {
		state.existed = true
		state.content = data
	}

	switch fc.Operation {
	case proposals.OpCreate, proposals.OpUpdate:
		if err := os.MkdirAll(filepath.Dir(abs), 0o755); err != nil {
			return state, fmt.Errorf("creating parent directory: %w", err)
		}
		if err := os.WriteFile(abs, []byte(*fc.After), 0o644); err != nil {
			return state, fmt.Errorf("writing file: %w", err)
		}
	case proposals.OpDelete:
		if err := os.Remove(abs); err != nil {
			return state, fmt.Errorf("removing file: %w", err)
		}
	}
	return state, nil
}

// rollback restores already-applied files in reverse order.
func (c *Controller) rollback(applied []revertState) {
	for i := len(applied) - 1; i >= 0; i-- {
		st := applied[i]
		var err error
		if st.existed {
			if mkErr := os.MkdirAll(filepath.Dir(st.abs), 0o755); mkErr == nil {
				err = os.WriteFile(st.abs, st.content, 0o644)
			} else {
				err = mkErr
			}
		} else {
			err = os.Remove(st.abs)
		}
		if err != nil {
			// Nothing further can be done; surface it loudly.
			c.logger.Error("rollback failed for file", "path", st.abs, "error", err)
		}
	}
}

// pruneEmptyDirs removes now-empty directories up to the workspace root.
func (c *Controller) pruneEmptyDirs(dir string) {
	root := c.ws.Root()
	for dir != root && len(dir) > len(root) {
		entries, err := os.ReadDir(dir)
		if err != nil || len(entries) > 0 {
			return
		}
		if err := os.Remove(dir); err != nil {
			return
		}
		dir = filepath.Dir(dir)
	}
}

// commit runs the optional commit-after-apply. Returns a warning
// message on failure, empty on success or skip.
func (c *Controller) commit(ctx context.Context, p *proposals.ChangeProposal, message string) string {
	if c.git == nil {
		return "commit requested but version control is not configured"
	}
	root := c.ws.Root()
	if !c.git.IsRepo(root) {
		return "commit requested but workspace is not a git repository"
	}
	if message == "" {
		message = fmt.Sprintf("Studio: %s", p.Summary)
	}

	hash, err := c.git.StageAndCommit(ctx, root, p.Paths(), message)
	if err != nil {
		if errors.Is(err, vcs.ErrNoChanges) {
			return ""
		}
		c.logger.Warn("commit after apply failed",
			"proposal_id", p.ID,
			"error", err,
		)
		return fmt.Sprintf("changes applied but commit failed: %v", err)
	}

	c.logger.Info("committed proposal", "proposal_id", p.ID, "commit", hash)
	return ""
}

// emitDecision reports a terminal decision to telemetry.
func (c *Controller) emitDecision(p *proposals.ChangeProposal, action, warning string, applyErr error) {
	data := events.ProposalDecisionData{
		ProposalID:    p.ID,
		Action:        action,
		FilesAffected: p.FileCount(),
		Warning:       warning,
	}
	if applyErr != nil {
		data.Error = applyErr.Error()
	}
	c.sink.Emit(events.TypeProposalDecision, data)
}
