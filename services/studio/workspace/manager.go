// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package workspace manages the user-selected sandbox root and resolves
// workspace-relative paths against it.
//
// # Description
//
// The Manager holds the current workspace root and answers SafePath,
// the single choke point through which every path in the system must
// pass — both reads performed to capture "before" content and writes
// performed by the approval controller. Paths that are absolute or that
// escape the root via ".." segments are rejected before any I/O.
//
// # Thread Safety
//
// Manager is safe for concurrent use; the root may be re-selected while
// requests are in flight and each call observes a consistent root.
package workspace

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	git "github.com/go-git/go-git/v5"
)

// Sentinel errors for path validation.
var (
	// ErrPathEscape is returned when a path resolves outside the
	// workspace root. This is a security error.
	ErrPathEscape = errors.New("path escapes workspace root")

	// ErrAbsolutePath is returned when an absolute path is supplied
	// where a workspace-relative path is expected.
	ErrAbsolutePath = errors.New("absolute path not permitted")

	// ErrNotDirectory is returned when a selected workspace path exists
	// but is not a directory.
	ErrNotDirectory = errors.New("path is not a directory")
)

// Info describes the current workspace for clients.
type Info struct {
	RootPath   string `json:"root_path"`
	GitEnabled bool   `json:"git_enabled"`
	GitBranch  string `json:"git_branch,omitempty"`
	GitRemote  string `json:"git_remote,omitempty"`
}

// Manager owns the current workspace root.
type Manager struct {
	mu         sync.RWMutex
	root       string
	gitEnabled bool
	gitBranch  string
	gitRemote  string
	watcher    *watcher
	logger     *slog.Logger
}

// NewManager creates a manager rooted at the given directory.
//
// # Description
//
// The root is resolved to an absolute path and created if it does not
// exist. Git state (repository, branch, remote) is detected eagerly and
// re-detected whenever the workspace is re-selected.
//
// # Inputs
//
//   - root: Workspace directory. Created with 0755 if missing.
//   - logger: Logger for diagnostic output (nil uses slog.Default).
//
// # Outputs
//
//   - *Manager: Ready-to-use manager.
//   - error: Non-nil if the root cannot be resolved or created.
func NewManager(root string, logger *slog.Logger) (*Manager, error) {
	if logger == nil {
		logger = slog.Default()
	}

	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolving workspace root: %w", err)
	}
	if err := os.MkdirAll(abs, 0o755); err != nil {
		return nil, fmt.Errorf("creating workspace root: %w", err)
	}

	m := &Manager{
		root:   abs,
		logger: logger.With("component", "workspace"),
	}
	m.detectGitLocked()
	return m, nil
}

// Root returns the current workspace root as an absolute path.
func (m *Manager) Root() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.root
}

// Current returns the current workspace information.
func (m *Manager) Current() Info {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return Info{
		RootPath:   m.root,
		GitEnabled: m.gitEnabled,
		GitBranch:  m.gitBranch,
		GitRemote:  m.gitRemote,
	}
}

// GitEnabled reports whether the current root is a git repository.
func (m *Manager) GitEnabled() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.gitEnabled
}

// Select switches the workspace to a new directory.
//
// # Description
//
// The path must exist and be a directory. Git state is re-detected and
// the out-of-band change watcher, if running, is re-armed on the new
// root.
//
// # Inputs
//
//   - path: Directory to select as the new workspace root.
//
// # Outputs
//
//   - Info: The workspace state after selection.
//   - error: Non-nil if the path does not exist or is not a directory.
func (m *Manager) Select(path string) (Info, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return Info{}, fmt.Errorf("resolving path: %w", err)
	}

	fi, err := os.Stat(abs)
	if err != nil {
		return Info{}, fmt.Errorf("stat workspace path: %w", err)
	}
	if !fi.IsDir() {
		return Info{}, fmt.Errorf("%w: %s", ErrNotDirectory, path)
	}

	m.mu.Lock()
	m.root = abs
	m.detectGitLocked()
	w := m.watcher
	info := Info{
		RootPath:   m.root,
		GitEnabled: m.gitEnabled,
		GitBranch:  m.gitBranch,
		GitRemote:  m.gitRemote,
	}
	m.mu.Unlock()

	if w != nil {
		if err := w.rearm(abs); err != nil {
			m.logger.Warn("failed to re-arm workspace watcher", "error", err)
		}
	}

	m.logger.Info("workspace selected",
		"root", info.RootPath,
		"git_enabled", info.GitEnabled,
	)
	return info, nil
}

// SafePath resolves a workspace-relative path against the current root.
//
// # Description
//
// This guard must run before any read performed to capture "before"
// content and before any write performed by the approval controller.
// Empty and "." inputs resolve to the root itself (callers that require
// a file target must reject that case themselves).
//
// # Inputs
//
//   - rel: Workspace-relative path.
//
// # Outputs
//
//   - string: Absolute path, guaranteed to be the root or a descendant.
//   - error: ErrAbsolutePath or ErrPathEscape (wrapped) on violation.
func (m *Manager) SafePath(rel string) (string, error) {
	if filepath.IsAbs(rel) {
		return "", fmt.Errorf("%w: %s", ErrAbsolutePath, rel)
	}

	m.mu.RLock()
	root := m.root
	m.mu.RUnlock()

	resolved := filepath.Clean(filepath.Join(root, rel))

	relToRoot, err := filepath.Rel(root, resolved)
	if err != nil {
		return "", fmt.Errorf("%w: %s", ErrPathEscape, rel)
	}
	if relToRoot == ".." || strings.HasPrefix(relToRoot, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("%w: %s", ErrPathEscape, rel)
	}
	return resolved, nil
}

// Rel converts an absolute path under the root back to workspace-relative
// form with forward slashes.
func (m *Manager) Rel(abs string) (string, error) {
	m.mu.RLock()
	root := m.root
	m.mu.RUnlock()

	rel, err := filepath.Rel(root, abs)
	if err != nil {
		return "", err
	}
	if rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("%w: %s", ErrPathEscape, abs)
	}
	return filepath.ToSlash(rel), nil
}

// detectGitLocked refreshes git state for the current root.
// Caller must hold m.mu for writing.
func (m *Manager) detectGitLocked() {
	m.gitEnabled = false
	m.gitBranch = ""
	m.gitRemote = ""

	repo, err := git.PlainOpen(m.root)
	if err != nil {
		return
	}
	m.gitEnabled = true

	if head, err := repo.Head(); err == nil && head.Name().IsBranch() {
		m.gitBranch = head.Name().Short()
	}
	if remote, err := repo.Remote("origin"); err == nil {
		urls := remote.Config().URLs
		if len(urls) > 0 {
			m.gitRemote = urls[0]
		}
	}
}
