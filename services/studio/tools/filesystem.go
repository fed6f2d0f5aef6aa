// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package tools implements the agent-facing filesystem operations.
//
// # Description
//
// The mutating tools (WriteFile, EditFile, DeleteFile, DeleteDirectory)
// never touch disk. Each one captures the current on-disk content,
// builds a change proposal, registers it, and returns a confirmation
// string the agent must treat as "pending", not "done". The read-only
// tools (Ls, ReadFile) answer directly.
//
// # Thread Safety
//
// Tools is safe for concurrent use; all shared state lives in the
// injected store and workspace manager.
package tools

import (
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/AleutianAI/AleutianStudio/services/studio/events"
	"github.com/AleutianAI/AleutianStudio/services/studio/proposals"
	"github.com/AleutianAI/AleutianStudio/services/studio/workspace"
)

// Tools exposes the filesystem operations available to the agent.
type Tools struct {
	ws     *workspace.Manager
	store  *proposals.Store
	sink   events.Sink
	logger *slog.Logger
}

// New creates the tool set.
//
// # Inputs
//
//   - ws: Workspace manager; every path passes through its guard.
//   - store: Proposal registry mutating tools write into.
//   - sink: Telemetry sink (nil uses events.Discard).
//   - logger: Logger for diagnostic output (nil uses slog.Default).
func New(ws *workspace.Manager, store *proposals.Store, sink events.Sink, logger *slog.Logger) *Tools {
	if sink == nil {
		sink = events.Discard{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Tools{
		ws:     ws,
		store:  store,
		sink:   sink,
		logger: logger.With("component", "tools"),
	}
}

// WriteFile proposes creating or overwriting a file.
//
// # Description
//
// If the file exists its content is captured as the proposal's "before"
// and the operation is an update; otherwise the operation is a create.
// No disk write occurs here; the change waits for user approval.
//
// # Inputs
//
//   - path: Workspace-relative file path.
//   - content: Full proposed file content.
//
// # Outputs
//
//   - string: Confirmation naming the proposal ID.
//   - error: Path guard violation, read failure, or ErrNotFile when the
//     path is a directory.
func (t *Tools) WriteFile(path, content string) (string, error) {
	abs, err := t.ws.SafePath(path)
	if err != nil {
		return "", err
	}

	fc := proposals.FileChange{
		Path:      path,
		Operation: proposals.OpCreate,
		After:     &content,
	}

	if before, err := t.readIfExists(abs, path); err != nil {
		return "", err
	} else if before != nil {
		fc.Operation = proposals.OpUpdate
		fc.Before = before
	}

	return t.register(fc)
}

// EditFile proposes an exact single-match string replacement.
//
// # Description
//
// The file must exist and oldStr must occur exactly once; zero or
// multiple occurrences fail with ErrAmbiguousMatch so the wrong
// occurrence is never edited. The substituted content becomes the
// proposal's "after".
//
// # Inputs
//
//   - path: Workspace-relative file path. Must exist.
//   - oldStr: Exact text to replace.
//   - newStr: Replacement text.
//
// # Outputs
//
//   - string: Confirmation naming the proposal ID.
//   - error: ErrFileNotFound, ErrAmbiguousMatch, or a path guard
//     violation.
func (t *Tools) EditFile(path, oldStr, newStr string) (string, error) {
	abs, err := t.ws.SafePath(path)
	if err != nil {
		return "", err
	}

	before, err := t.readIfExists(abs, path)
	if err != nil {
		return "", err
	}
	if before == nil {
		return "", fmt.Errorf("%w: %s", ErrFileNotFound, path)
	}

	switch n := strings.Count(*before, oldStr); n {
	case 1:
		// Exactly one occurrence; safe to substitute.
	case 0:
		return "", fmt.Errorf("%w: %q not found in %s", ErrAmbiguousMatch, oldStr, path)
	default:
		return "", fmt.Errorf("%w: %q occurs %d times in %s", ErrAmbiguousMatch, oldStr, n, path)
	}

	after := strings.Replace(*before, oldStr, newStr, 1)
	return t.register(proposals.FileChange{
		Path:      path,
		Operation: proposals.OpUpdate,
		Before:    before,
		After:     &after,
	})
}

// DeleteFile proposes removing a file.
//
// # Inputs
//
//   - path: Workspace-relative file path. Must exist.
//
// # Outputs
//
//   - string: Confirmation naming the proposal ID.
//   - error: ErrFileNotFound or a path guard violation.
func (t *Tools) DeleteFile(path string) (string, error) {
	abs, err := t.ws.SafePath(path)
	if err != nil {
		return "", err
	}

	before, err := t.readIfExists(abs, path)
	if err != nil {
		return "", err
	}
	if before == nil {
		return "", fmt.Errorf("%w: %s", ErrFileNotFound, path)
	}

	return t.register(proposals.FileChange{
		Path:      path,
		Operation: proposals.OpDelete,
		Before:    before,
	})
}

// DeleteDirectory proposes removing a directory tree.
//
// # Description
//
// Directory deletion goes through the same approval flow as file
// deletion: one proposal is registered containing a delete change for
// every file in the tree, so the user reviews the full blast radius
// before anything is removed. An already-empty directory has nothing to
// review and is removed immediately.
//
// # Inputs
//
//   - path: Workspace-relative directory path. Must exist and must not
//     be the workspace root.
//
// # Outputs
//
//   - string: Confirmation naming the proposal ID, or a notice for the
//     empty-directory case.
//   - error: ErrDirectoryNotFound, ErrRootDeletion, or a path guard
//     violation.
func (t *Tools) DeleteDirectory(path string) (string, error) {
	abs, err := t.ws.SafePath(path)
	if err != nil {
		return "", err
	}
	if abs == t.ws.Root() {
		return "", ErrRootDeletion
	}

	fi, err := os.Stat(abs)
	if err != nil {
		if os.IsNotExist(err) {
			return "", fmt.Errorf("%w: %s", ErrDirectoryNotFound, path)
		}
		return "", fmt.Errorf("stat %s: %w", path, err)
	}
	if !fi.IsDir() {
		return "", fmt.Errorf("%w: %s", ErrDirectoryNotFound, path)
	}

	var changes []proposals.FileChange
	err = filepath.WalkDir(abs, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		data, err := os.ReadFile(p)
		if err != nil {
			return fmt.Errorf("reading %s: %w", p, err)
		}
		rel, err := t.ws.Rel(p)
		if err != nil {
			return err
		}
		before := string(data)
		changes = append(changes, proposals.FileChange{
			Path:      rel,
			Operation: proposals.OpDelete,
			Before:    &before,
		})
		return nil
	})
	if err != nil {
		return "", err
	}

	if len(changes) == 0 {
		if err := os.Remove(abs); err != nil {
			return "", fmt.Errorf("removing empty directory %s: %w", path, err)
		}
		t.logger.Info("removed empty directory", "path", path)
		return fmt.Sprintf("Deleted empty directory '%s'.", path), nil
	}

	summary := fmt.Sprintf("Delete directory %s (%d files)", path, len(changes))
	p, err := t.store.Create(changes, summary)
	if err != nil {
		return "", err
	}
	t.emitCreated(p)

	return fmt.Sprintf("Proposed delete to '%s' (proposal_id: %s). Awaiting user approval.", path, p.ID), nil
}

// Ls lists a directory, directories first.
//
// # Inputs
//
//   - path: Workspace-relative directory path; empty means the root.
//
// # Outputs
//
//   - string: One entry per line, "[DIR] name/" or "[FILE] name (N bytes)".
//   - error: ErrDirectoryNotFound or a path guard violation.
func (t *Tools) Ls(path string) (string, error) {
	abs, err := t.ws.SafePath(path)
	if err != nil {
		return "", err
	}

	entries, err := os.ReadDir(abs)
	if err != nil {
		if os.IsNotExist(err) {
			return "", fmt.Errorf("%w: %s", ErrDirectoryNotFound, path)
		}
		return "", fmt.Errorf("reading directory %s: %w", path, err)
	}

	sort.Slice(entries, func(i, j int) bool {
		if entries[i].IsDir() != entries[j].IsDir() {
			return entries[i].IsDir()
		}
		return entries[i].Name() < entries[j].Name()
	})

	if len(entries) == 0 {
		return "(empty directory)", nil
	}

	var b strings.Builder
	for i, e := range entries {
		if i > 0 {
			b.WriteByte('\n')
		}
		if e.IsDir() {
			fmt.Fprintf(&b, "[DIR] %s/", e.Name())
			continue
		}
		size := int64(0)
		if fi, err := e.Info(); err == nil {
			size = fi.Size()
		}
		fmt.Fprintf(&b, "[FILE] %s (%d bytes)", e.Name(), size)
	}
	return b.String(), nil
}

// ReadFile returns a file's content.
//
// # Inputs
//
//   - path: Workspace-relative file path. Must exist.
//
// # Outputs
//
//   - string: File content, or "(empty file)" when the file has none.
//   - error: ErrFileNotFound, ErrNotFile, or a path guard violation.
func (t *Tools) ReadFile(path string) (string, error) {
	abs, err := t.ws.SafePath(path)
	if err != nil {
		return "", err
	}

	content, err := t.readIfExists(abs, path)
	if err != nil {
		return "", err
	}
	if content == nil {
		return "", fmt.Errorf("%w: %s", ErrFileNotFound, path)
	}
	if *content == "" {
		return "(empty file)", nil
	}
	return *content, nil
}

// register creates a one-file proposal and formats its confirmation.
func (t *Tools) register(fc proposals.FileChange) (string, error) {
	p, err := t.store.Create([]proposals.FileChange{fc}, "")
	if err != nil {
		return "", err
	}
	t.emitCreated(p)

	return fmt.Sprintf("Proposed %s to '%s' (proposal_id: %s). Awaiting user approval.",
		fc.Operation, fc.Path, p.ID), nil
}

// emitCreated reports a new proposal to telemetry.
func (t *Tools) emitCreated(p *proposals.ChangeProposal) {
	t.sink.Emit(events.TypeProposalCreated, events.ProposalCreatedData{
		ProposalID:   p.ID,
		Summary:      p.Summary,
		FileCount:    p.FileCount(),
		LinesAdded:   p.TotalLinesAdded(),
		LinesRemoved: p.TotalLinesRemoved(),
	})
}

// readIfExists returns the file's content, or nil when it does not
// exist. A directory at the path is an error.
func (t *Tools) readIfExists(abs, rel string) (*string, error) {
	fi, err := os.Stat(abs)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("stat %s: %w", rel, err)
	}
	if fi.IsDir() {
		return nil, fmt.Errorf("%w: %s", ErrNotFile, rel)
	}

	data, err := os.ReadFile(abs)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", rel, err)
	}
	s := string(data)
	return &s, nil
}
