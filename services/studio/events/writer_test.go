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
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func eventAt(t time.Time, typ Type) Event {
	return Event{
		ID:        "ev-" + t.Format("20060102150405.000"),
		Type:      typ,
		Timestamp: t,
	}
}

// TestJSONLWriter_PartitionsByDay verifies one file per UTC day.
func TestJSONLWriter_PartitionsByDay(t *testing.T) {
	dir := t.TempDir()
	w, err := NewJSONLWriter(dir, nil)
	require.NoError(t, err)

	day1 := time.Date(2026, 8, 20, 10, 0, 0, 0, time.UTC)
	day2 := time.Date(2026, 8, 21, 10, 0, 0, 0, time.UTC)
	w.Write(eventAt(day1, TypeProposalCreated))
	w.Write(eventAt(day2, TypeProposalDecision))

	assert.FileExists(t, filepath.Join(dir, "2026-08-20.jsonl"))
	assert.FileExists(t, filepath.Join(dir, "2026-08-21.jsonl"))
}

// TestJSONLWriter_ReadEventsNewestFirst verifies ordering, limit, and
// type filtering.
func TestJSONLWriter_ReadEventsNewestFirst(t *testing.T) {
	w, err := NewJSONLWriter(t.TempDir(), nil)
	require.NoError(t, err)

	base := time.Date(2026, 8, 20, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 3; i++ {
		w.Write(eventAt(base.Add(time.Duration(i)*time.Hour), TypeProposalCreated))
	}
	w.Write(eventAt(base.AddDate(0, 0, 1), TypeProposalDecision))

	all, err := w.ReadEvents(0)
	require.NoError(t, err)
	require.Len(t, all, 4)
	assert.Equal(t, TypeProposalDecision, all[0].Type, "newest partition first")

	limited, err := w.ReadEvents(2)
	require.NoError(t, err)
	assert.Len(t, limited, 2)

	decisions, err := w.ReadEvents(0, TypeProposalDecision)
	require.NoError(t, err)
	require.Len(t, decisions, 1)
	assert.Equal(t, TypeProposalDecision, decisions[0].Type)
}

// TestJSONLWriter_SkipsMalformedLines verifies corrupt telemetry never
// breaks reads.
func TestJSONLWriter_SkipsMalformedLines(t *testing.T) {
	dir := t.TempDir()
	w, err := NewJSONLWriter(dir, nil)
	require.NoError(t, err)

	ts := time.Date(2026, 8, 20, 0, 0, 0, 0, time.UTC)
	w.Write(eventAt(ts, TypeProposalCreated))

	path := filepath.Join(dir, "2026-08-20.jsonl")
	f, err := os.OpenFile(path, os.O_APPEND|os.O_WRONLY, 0o644)
	require.NoError(t, err)
	_, err = f.WriteString("not json\n")
	require.NoError(t, err)
	require.NoError(t, f.Close())

	evs, err := w.ReadEvents(0)
	require.NoError(t, err)
	assert.Len(t, evs, 1)
}

// TestJSONLWriter_Stats aggregates across partitions.
func TestJSONLWriter_Stats(t *testing.T) {
	w, err := NewJSONLWriter(t.TempDir(), nil)
	require.NoError(t, err)

	day1 := time.Date(2026, 8, 20, 0, 0, 0, 0, time.UTC)
	day2 := day1.AddDate(0, 0, 2)
	w.Write(eventAt(day1, TypeProposalCreated))
	w.Write(eventAt(day1.Add(time.Hour), TypeProposalCreated))
	w.Write(eventAt(day2, TypeProposalDecision))

	stats, err := w.ReadStats()
	require.NoError(t, err)
	assert.Equal(t, 3, stats.TotalEvents)
	assert.Equal(t, 2, stats.Days)
	assert.Equal(t, "2026-08-20", stats.OldestDay)
	assert.Equal(t, "2026-08-22", stats.NewestDay)
	assert.Equal(t, 2, stats.ByType[string(TypeProposalCreated)])
	assert.Equal(t, 1, stats.ByType[string(TypeProposalDecision)])
}

// TestJSONLWriter_DeleteBefore removes old partitions only.
func TestJSONLWriter_DeleteBefore(t *testing.T) {
	dir := t.TempDir()
	w, err := NewJSONLWriter(dir, nil)
	require.NoError(t, err)

	old := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	recent := time.Date(2026, 8, 20, 0, 0, 0, 0, time.UTC)
	w.Write(eventAt(old, TypeProposalCreated))
	w.Write(eventAt(recent, TypeProposalCreated))

	removed, err := w.DeleteBefore(time.Date(2026, 8, 15, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Equal(t, 1, removed)
	assert.NoFileExists(t, filepath.Join(dir, "2026-08-01.jsonl"))
	assert.FileExists(t, filepath.Join(dir, "2026-08-20.jsonl"))
}

// TestJSONLWriter_AttachPersistsEmitterEvents verifies the emitter
// subscription path.
func TestJSONLWriter_AttachPersistsEmitterEvents(t *testing.T) {
	w, err := NewJSONLWriter(t.TempDir(), nil)
	require.NoError(t, err)

	e := NewEmitter(WithSessionID("s1"))
	w.Attach(e)
	e.Emit(TypeProposalCreated, ProposalCreatedData{ProposalID: "abc12345"})

	evs, err := w.ReadEvents(0)
	require.NoError(t, err)
	require.Len(t, evs, 1)
	assert.Equal(t, TypeProposalCreated, evs[0].Type)
	assert.Equal(t, "s1", evs[0].SessionID)

	w.Detach(e)
	e.Emit(TypeProposalCreated, nil)
	evs, err = w.ReadEvents(0)
	require.NoError(t, err)
	assert.Len(t, evs, 1, "detached writer must not persist")
}
