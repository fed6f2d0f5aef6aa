// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package events

import (
	"bufio"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"
)

// datePartitionLayout names one JSONL file per UTC day.
const datePartitionLayout = "2006-01-02"

// JSONLWriter persists events as newline-delimited JSON, one file per
// day under a telemetry directory.
//
// # Description
//
// Persistence is append-only and best-effort: a write failure is logged
// and dropped, never propagated to the emitting code path. The writer
// doubles as the read side for the telemetry endpoints.
//
// # Thread Safety
//
// All methods are safe for concurrent use; appends are serialized.
type JSONLWriter struct {
	mu     sync.Mutex
	dir    string
	subID  string
	logger *slog.Logger
}

// NewJSONLWriter creates a writer rooted at dir, creating it if needed.
func NewJSONLWriter(dir string, logger *slog.Logger) (*JSONLWriter, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating telemetry dir: %w", err)
	}
	return &JSONLWriter{
		dir:    dir,
		logger: logger.With("component", "telemetry_writer"),
	}, nil
}

// Attach subscribes the writer to an emitter so every broadcast event
// is persisted.
func (w *JSONLWriter) Attach(e *Emitter) {
	w.subID = e.Subscribe(func(event *Event) {
		w.Write(*event)
	})
}

// Detach removes the writer's subscription, if attached.
func (w *JSONLWriter) Detach(e *Emitter) {
	if w.subID != "" {
		e.Unsubscribe(w.subID)
		w.subID = ""
	}
}

// Write appends one event to the current day's partition.
func (w *JSONLWriter) Write(event Event) {
	line, err := json.Marshal(event)
	if err != nil {
		w.logger.Warn("failed to marshal telemetry event", "error", err)
		return
	}

	name := event.Timestamp.UTC().Format(datePartitionLayout) + ".jsonl"

	w.mu.Lock()
	defer w.mu.Unlock()

	f, err := os.OpenFile(filepath.Join(w.dir, name), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		w.logger.Warn("failed to open telemetry partition", "file", name, "error", err)
		return
	}
	defer f.Close()

	if _, err := f.Write(append(line, '\n')); err != nil {
		w.logger.Warn("failed to append telemetry event", "file", name, "error", err)
	}
}

// ReadEvents returns up to limit persisted events, most recent first.
//
// # Inputs
//
//   - limit: Maximum events to return; <= 0 means no limit.
//   - types: Optional type filter; empty means all types.
//
// # Outputs
//
//   - []Event: Matching events ordered newest to oldest.
//   - error: Non-nil only on directory read failure; unparseable lines
//     are skipped.
func (w *JSONLWriter) ReadEvents(limit int, types ...Type) ([]Event, error) {
	partitions, err := w.partitions()
	if err != nil {
		return nil, err
	}

	var out []Event
	// Newest partition first; within a partition events are appended in
	// order, so reverse each file's lines.
	for i := len(partitions) - 1; i >= 0; i-- {
		fileEvents, err := w.readPartition(partitions[i])
		if err != nil {
			w.logger.Warn("failed to read telemetry partition", "file", partitions[i], "error", err)
			continue
		}
		for j := len(fileEvents) - 1; j >= 0; j-- {
			ev := fileEvents[j]
			if len(types) > 0 && !matchesTypes(types, ev.Type) {
				continue
			}
			out = append(out, ev)
			if limit > 0 && len(out) >= limit {
				return out, nil
			}
		}
	}
	return out, nil
}

// Stats summarizes persisted telemetry.
type Stats struct {
	TotalEvents int            `json:"total_events"`
	ByType      map[string]int `json:"by_type"`
	Days        int            `json:"days"`
	OldestDay   string         `json:"oldest_day,omitempty"`
	NewestDay   string         `json:"newest_day,omitempty"`
}

// ReadStats aggregates counts across all partitions.
func (w *JSONLWriter) ReadStats() (Stats, error) {
	partitions, err := w.partitions()
	if err != nil {
		return Stats{}, err
	}

	stats := Stats{ByType: make(map[string]int), Days: len(partitions)}
	if len(partitions) > 0 {
		stats.OldestDay = strings.TrimSuffix(filepath.Base(partitions[0]), ".jsonl")
		stats.NewestDay = strings.TrimSuffix(filepath.Base(partitions[len(partitions)-1]), ".jsonl")
	}

	for _, p := range partitions {
		fileEvents, err := w.readPartition(p)
		if err != nil {
			w.logger.Warn("failed to read telemetry partition", "file", p, "error", err)
			continue
		}
		stats.TotalEvents += len(fileEvents)
		for _, ev := range fileEvents {
			stats.ByType[string(ev.Type)]++
		}
	}
	return stats, nil
}

// DeleteBefore removes partitions older than the given UTC day.
func (w *JSONLWriter) DeleteBefore(day time.Time) (int, error) {
	cutoff := day.UTC().Format(datePartitionLayout)

	partitions, err := w.partitions()
	if err != nil {
		return 0, err
	}

	removed := 0
	for _, p := range partitions {
		name := strings.TrimSuffix(filepath.Base(p), ".jsonl")
		if name < cutoff {
			if err := os.Remove(p); err != nil {
				return removed, fmt.Errorf("removing partition %s: %w", p, err)
			}
			removed++
		}
	}
	return removed, nil
}

// partitions lists partition files sorted by day, oldest first.
func (w *JSONLWriter) partitions() ([]string, error) {
	entries, err := os.ReadDir(w.dir)
	if err != nil {
		return nil, fmt.Errorf("reading telemetry dir: %w", err)
	}

	var files []string
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".jsonl") {
			continue
		}
		files = append(files, filepath.Join(w.dir, e.Name()))
	}
	sort.Strings(files)
	return files, nil
}

// readPartition parses one JSONL file, skipping malformed lines.
func (w *JSONLWriter) readPartition(path string) ([]Event, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var out []Event
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		var ev Event
		if err := json.Unmarshal([]byte(line), &ev); err != nil {
			continue
		}
		out = append(out, ev)
	}
	return out, scanner.Err()
}
