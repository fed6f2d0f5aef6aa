// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package workspace

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"
)

// ignoredDirs are directory names never watched for changes.
var ignoredDirs = map[string]struct{}{
	".git":         {},
	"node_modules": {},
	".idea":        {},
	"__pycache__":  {},
}

// ChangeHandler receives the workspace-relative path of a changed file.
//
// The handler is advisory: it is invoked on a watcher goroutine and must
// not block. The proposal engine does not depend on it for correctness —
// conflicts are re-checked against captured content at apply time.
type ChangeHandler func(relPath string)

// watcher wraps fsnotify with recursive directory registration.
type watcher struct {
	mu      sync.Mutex
	fsw     *fsnotify.Watcher
	root    string
	handler ChangeHandler
	done    chan struct{}
	closed  bool
}

// Watch starts reporting out-of-band file changes under the current root.
//
// # Description
//
// Watches the workspace tree (excluding VCS and tooling directories) and
// calls handler with the workspace-relative path of every created,
// written, removed, or renamed file. Re-selecting the workspace re-arms
// the watch on the new root. Watch may be called at most once.
//
// # Inputs
//
//   - handler: Called for each changed file. Must not be nil.
//
// # Outputs
//
//   - error: Non-nil if the watcher could not be created.
func (m *Manager) Watch(handler ChangeHandler) error {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating fsnotify watcher: %w", err)
	}

	w := &watcher{
		fsw:     fsw,
		handler: handler,
		done:    make(chan struct{}),
	}

	m.mu.Lock()
	root := m.root
	m.watcher = w
	m.mu.Unlock()

	if err := w.addTree(root); err != nil {
		_ = fsw.Close()
		return err
	}
	w.root = root

	go w.loop(m)
	m.logger.Info("workspace watcher started", "root", root)
	return nil
}

// CloseWatch stops the out-of-band change watcher, if running.
func (m *Manager) CloseWatch() error {
	m.mu.Lock()
	w := m.watcher
	m.watcher = nil
	m.mu.Unlock()

	if w == nil {
		return nil
	}
	return w.close()
}

// loop dispatches fsnotify events until the watcher is closed.
func (w *watcher) loop(m *Manager) {
	for {
		select {
		case <-w.done:
			return
		case event, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			w.handleEvent(m, event)
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			m.logger.Warn("workspace watcher error", "error", err)
		}
	}
}

// handleEvent converts one fsnotify event into a handler call.
func (w *watcher) handleEvent(m *Manager, event fsnotify.Event) {
	name := filepath.Base(event.Name)
	if _, ignored := ignoredDirs[name]; ignored {
		return
	}

	// New directories must be registered for the watch to stay recursive.
	if event.Op.Has(fsnotify.Create) {
		if fi, err := os.Stat(event.Name); err == nil && fi.IsDir() {
			w.mu.Lock()
			_ = w.fsw.Add(event.Name)
			w.mu.Unlock()
			return
		}
	}

	if !event.Op.Has(fsnotify.Create) && !event.Op.Has(fsnotify.Write) &&
		!event.Op.Has(fsnotify.Remove) && !event.Op.Has(fsnotify.Rename) {
		return
	}

	rel, err := m.Rel(event.Name)
	if err != nil || rel == "." {
		return
	}
	w.handler(rel)
}

// addTree registers root and all non-ignored subdirectories.
func (w *watcher) addTree(root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			// Unreadable subtrees are skipped, not fatal.
			return fs.SkipDir
		}
		if !d.IsDir() {
			return nil
		}
		if _, ignored := ignoredDirs[d.Name()]; ignored && path != root {
			return fs.SkipDir
		}
		w.mu.Lock()
		addErr := w.fsw.Add(path)
		w.mu.Unlock()
		if addErr != nil && path == root {
			return fmt.Errorf("watching %s: %w", path, addErr)
		}
		return nil
	})
}

// rearm moves the watch to a new root after workspace selection.
func (w *watcher) rearm(root string) error {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return nil
	}
	for _, watched := range w.fsw.WatchList() {
		_ = w.fsw.Remove(watched)
	}
	w.root = root
	w.mu.Unlock()

	return w.addTree(root)
}

// close shuts the watcher down.
func (w *watcher) close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return nil
	}
	w.closed = true
	close(w.done)
	return w.fsw.Close()
}
