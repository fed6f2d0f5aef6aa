// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package vcs provides the optional commit-after-apply integration.
//
// Commits are best-effort: the approval controller treats a commit
// failure as a warning, never as an apply failure, because by the time
// a commit is attempted the files are already on disk.
package vcs

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	git "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/config"
	"github.com/go-git/go-git/v5/plumbing/object"
)

// Default identity used when the repository has no configured user.
const (
	defaultAuthorName  = "Aleutian Studio"
	defaultAuthorEmail = "studio@aleutian.ai"
)

// ErrNoChanges is returned when a commit is requested but staging the
// given paths produced no change relative to HEAD.
var ErrNoChanges = errors.New("nothing to commit")

// Committer stages and commits applied file changes.
type Committer interface {
	// IsRepo reports whether root is inside a git repository.
	IsRepo(root string) bool

	// StageAndCommit stages the given repo-relative paths and commits
	// them, returning the new commit hash.
	StageAndCommit(ctx context.Context, root string, paths []string, message string) (string, error)
}

// Git is the go-git backed Committer.
type Git struct {
	logger *slog.Logger
}

// New creates a go-git backed committer.
func New(logger *slog.Logger) *Git {
	if logger == nil {
		logger = slog.Default()
	}
	return &Git{logger: logger.With("component", "vcs")}
}

// IsRepo reports whether root is a git repository work tree.
func (g *Git) IsRepo(root string) bool {
	_, err := git.PlainOpen(root)
	return err == nil
}

// StageAndCommit stages paths and records a commit on the current branch.
//
// # Description
//
// Each path is staged individually; staging covers creations, updates,
// and deletions alike. If none of the staged paths differ from HEAD the
// commit is skipped and ErrNoChanges is returned. The commit author
// falls back to the Studio identity when the repository config carries
// none.
//
// # Inputs
//
//   - ctx: Honored between staging steps; a cancelled context aborts
//     before the commit is written.
//   - root: Work tree root. Must be a git repository.
//   - paths: Repo-relative slash-separated paths to stage.
//   - message: Commit message. Must be non-empty.
//
// # Outputs
//
//   - string: Hex hash of the created commit.
//   - error: ErrNoChanges when staging was a no-op, otherwise any
//     go-git failure (wrapped).
func (g *Git) StageAndCommit(ctx context.Context, root string, paths []string, message string) (string, error) {
	if message == "" {
		return "", errors.New("commit message must not be empty")
	}

	repo, err := git.PlainOpen(root)
	if err != nil {
		return "", fmt.Errorf("opening repository: %w", err)
	}
	wt, err := repo.Worktree()
	if err != nil {
		return "", fmt.Errorf("opening worktree: %w", err)
	}

	for _, p := range paths {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		// Add stages deletions as well as new and modified content.
		if _, err := wt.Add(p); err != nil {
			return "", fmt.Errorf("staging %s: %w", p, err)
		}
	}

	status, err := wt.Status()
	if err != nil {
		return "", fmt.Errorf("reading worktree status: %w", err)
	}
	if !anyStaged(status, paths) {
		return "", ErrNoChanges
	}

	name, email := g.authorIdentity(repo)
	hash, err := wt.Commit(message, &git.CommitOptions{
		Author: &object.Signature{
			Name:  name,
			Email: email,
			When:  time.Now(),
		},
	})
	if err != nil {
		return "", fmt.Errorf("creating commit: %w", err)
	}

	g.logger.Info("committed applied changes",
		"commit", hash.String(),
		"files", len(paths),
	)
	return hash.String(), nil
}

// anyStaged reports whether at least one of paths has a staged change.
func anyStaged(status git.Status, paths []string) bool {
	for _, p := range paths {
		st := status.File(p)
		if st.Staging != git.Unmodified && st.Staging != git.Untracked {
			return true
		}
	}
	return false
}

// authorIdentity resolves the commit author from repo config, falling
// back to the Studio identity.
func (g *Git) authorIdentity(repo *git.Repository) (name, email string) {
	name, email = defaultAuthorName, defaultAuthorEmail
	cfg, err := repo.ConfigScoped(config.SystemScope)
	if err != nil {
		return name, email
	}
	if cfg.User.Name != "" {
		name = cfg.User.Name
	}
	if cfg.User.Email != "" {
		email = cfg.User.Email
	}
	return name, email
}

// HeadHash returns the current HEAD commit hash, or empty when the
// repository has no commits yet.
func (g *Git) HeadHash(root string) string {
	repo, err := git.PlainOpen(root)
	if err != nil {
		return ""
	}
	head, err := repo.Head()
	if err != nil {
		return ""
	}
	return head.Hash().String()
}
