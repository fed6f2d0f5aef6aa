// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package tools

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AleutianAI/AleutianStudio/services/studio/events"
	"github.com/AleutianAI/AleutianStudio/services/studio/proposals"
	"github.com/AleutianAI/AleutianStudio/services/studio/workspace"
)

type fixture struct {
	tools *Tools
	store *proposals.Store
	ws    *workspace.Manager
	sink  *events.MockEmitter
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ws, err := workspace.NewManager(t.TempDir(), nil)
	require.NoError(t, err)
	store := proposals.NewStore(nil)
	sink := events.NewMockEmitter()
	return &fixture{
		tools: New(ws, store, sink, nil),
		store: store,
		ws:    ws,
		sink:  sink,
	}
}

func (f *fixture) write(t *testing.T, rel, content string) {
	t.Helper()
	abs := filepath.Join(f.ws.Root(), rel)
	require.NoError(t, os.MkdirAll(filepath.Dir(abs), 0o755))
	require.NoError(t, os.WriteFile(abs, []byte(content), 0o644))
}

// onlyProposal fetches the single pending proposal.
func (f *fixture) onlyProposal(t *testing.T) *proposals.ChangeProposal {
	t.Helper()
	list := f.store.List()
	require.Len(t, list, 1)
	p, ok := f.store.Get(list[0].ProposalID)
	require.True(t, ok)
	return p
}

// TestWriteFile_CreateRegistersProposalWithoutDiskWrite verifies the
// core interception property: propose, don't write.
func TestWriteFile_CreateRegistersProposalWithoutDiskWrite(t *testing.T) {
	f := newFixture(t)

	msg, err := f.tools.WriteFile("a.txt", "hi\nthere\n")
	require.NoError(t, err)

	p := f.onlyProposal(t)
	assert.Equal(t, fmt.Sprintf("Proposed create to 'a.txt' (proposal_id: %s). Awaiting user approval.", p.ID), msg)
	assert.Equal(t, proposals.OpCreate, p.Files[0].Operation)
	assert.Nil(t, p.Files[0].Before)
	assert.Equal(t, 2, p.Files[0].LinesAdded)

	_, statErr := os.Stat(filepath.Join(f.ws.Root(), "a.txt"))
	assert.True(t, os.IsNotExist(statErr), "file must not exist before approval")
}

// TestWriteFile_UpdateCapturesBefore verifies existing content becomes
// the proposal's before.
func TestWriteFile_UpdateCapturesBefore(t *testing.T) {
	f := newFixture(t)
	f.write(t, "a.txt", "old\n")

	msg, err := f.tools.WriteFile("a.txt", "new\n")
	require.NoError(t, err)
	assert.Contains(t, msg, "Proposed update to 'a.txt'")

	p := f.onlyProposal(t)
	assert.Equal(t, proposals.OpUpdate, p.Files[0].Operation)
	require.NotNil(t, p.Files[0].Before)
	assert.Equal(t, "old\n", *p.Files[0].Before)

	data, err := os.ReadFile(filepath.Join(f.ws.Root(), "a.txt"))
	require.NoError(t, err)
	assert.Equal(t, "old\n", string(data), "disk must be untouched")
}

// TestWriteFile_SandboxEscapeCreatesNoProposal verifies the path guard
// runs before registration.
func TestWriteFile_SandboxEscapeCreatesNoProposal(t *testing.T) {
	f := newFixture(t)

	_, err := f.tools.WriteFile("../../etc/passwd", "x")
	assert.ErrorIs(t, err, workspace.ErrPathEscape)
	assert.Equal(t, 0, f.store.Count())
	assert.Empty(t, f.sink.Events())
}

// TestEditFile_SingleMatch replaces exactly one occurrence.
func TestEditFile_SingleMatch(t *testing.T) {
	f := newFixture(t)
	f.write(t, "f.txt", "alpha beta gamma\n")

	msg, err := f.tools.EditFile("f.txt", "beta", "BETA")
	require.NoError(t, err)
	assert.Contains(t, msg, "Proposed update to 'f.txt'")

	p := f.onlyProposal(t)
	require.NotNil(t, p.Files[0].After)
	assert.Equal(t, "alpha BETA gamma\n", *p.Files[0].After)
}

// TestEditFile_AmbiguityAndMissing covers zero and multiple matches
// plus a missing file.
func TestEditFile_AmbiguityAndMissing(t *testing.T) {
	f := newFixture(t)
	f.write(t, "f.txt", "foo foo")

	_, err := f.tools.EditFile("f.txt", "foo", "bar")
	assert.ErrorIs(t, err, ErrAmbiguousMatch, "two occurrences")

	_, err = f.tools.EditFile("f.txt", "missing", "bar")
	assert.ErrorIs(t, err, ErrAmbiguousMatch, "zero occurrences")

	_, err = f.tools.EditFile("ghost.txt", "a", "b")
	assert.ErrorIs(t, err, ErrFileNotFound)

	assert.Equal(t, 0, f.store.Count(), "failed edits must not register proposals")
}

// TestDeleteFile proposes removal with captured content.
func TestDeleteFile(t *testing.T) {
	f := newFixture(t)
	f.write(t, "doomed.txt", "contents\n")

	msg, err := f.tools.DeleteFile("doomed.txt")
	require.NoError(t, err)
	assert.Contains(t, msg, "Proposed delete to 'doomed.txt'")

	p := f.onlyProposal(t)
	assert.Equal(t, proposals.OpDelete, p.Files[0].Operation)
	require.NotNil(t, p.Files[0].Before)
	assert.Equal(t, "contents\n", *p.Files[0].Before)
	assert.Nil(t, p.Files[0].After)

	_, err = f.tools.DeleteFile("ghost.txt")
	assert.ErrorIs(t, err, ErrFileNotFound)

	assert.FileExists(t, filepath.Join(f.ws.Root(), "doomed.txt"))
}

// TestDeleteDirectory_GatesTreeBehindOneProposal verifies a non-empty
// tree becomes a single multi-file delete proposal.
func TestDeleteDirectory_GatesTreeBehindOneProposal(t *testing.T) {
	f := newFixture(t)
	f.write(t, "pkg/a.go", "package pkg\n")
	f.write(t, "pkg/sub/b.go", "package sub\n")

	msg, err := f.tools.DeleteDirectory("pkg")
	require.NoError(t, err)
	assert.Contains(t, msg, "Proposed delete to 'pkg'")

	p := f.onlyProposal(t)
	require.Len(t, p.Files, 2)
	for _, fc := range p.Files {
		assert.Equal(t, proposals.OpDelete, fc.Operation)
		require.NotNil(t, fc.Before)
	}
	assert.ElementsMatch(t, []string{"pkg/a.go", "pkg/sub/b.go"}, p.Paths())

	assert.DirExists(t, filepath.Join(f.ws.Root(), "pkg"), "tree must survive until approval")
}

// TestDeleteDirectory_EdgeCases covers empty dirs, the root, and
// missing paths.
func TestDeleteDirectory_EdgeCases(t *testing.T) {
	f := newFixture(t)

	empty := filepath.Join(f.ws.Root(), "empty")
	require.NoError(t, os.Mkdir(empty, 0o755))
	msg, err := f.tools.DeleteDirectory("empty")
	require.NoError(t, err)
	assert.Equal(t, "Deleted empty directory 'empty'.", msg)
	assert.NoDirExists(t, empty)
	assert.Equal(t, 0, f.store.Count())

	_, err = f.tools.DeleteDirectory(".")
	assert.ErrorIs(t, err, ErrRootDeletion)

	_, err = f.tools.DeleteDirectory("ghost")
	assert.ErrorIs(t, err, ErrDirectoryNotFound)
}

// TestLsAndReadFile covers the read-only tools.
func TestLsAndReadFile(t *testing.T) {
	f := newFixture(t)
	f.write(t, "b.txt", "12345")
	f.write(t, "dir/inner.txt", "x")

	listing, err := f.tools.Ls("")
	require.NoError(t, err)
	assert.Equal(t, "[DIR] dir/\n[FILE] b.txt (5 bytes)", listing)

	content, err := f.tools.ReadFile("b.txt")
	require.NoError(t, err)
	assert.Equal(t, "12345", content)

	f.write(t, "zero.txt", "")
	content, err = f.tools.ReadFile("zero.txt")
	require.NoError(t, err)
	assert.Equal(t, "(empty file)", content)

	_, err = f.tools.ReadFile("nope.txt")
	assert.ErrorIs(t, err, ErrFileNotFound)

	listing, err = f.tools.Ls("dir")
	require.NoError(t, err)
	assert.Equal(t, "[FILE] inner.txt (1 bytes)", listing)
}

// TestTools_EmitsProposalCreated verifies telemetry on registration.
func TestTools_EmitsProposalCreated(t *testing.T) {
	f := newFixture(t)

	_, err := f.tools.WriteFile("a.txt", "x\n")
	require.NoError(t, err)

	evs := f.sink.EventsByType(events.TypeProposalCreated)
	require.Len(t, evs, 1)
	data, ok := evs[0].Data.(events.ProposalCreatedData)
	require.True(t, ok)
	assert.Equal(t, 1, data.FileCount)
	assert.Equal(t, 1, data.LinesAdded)
}
