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
	"strings"

	"github.com/sergi/go-diff/diffmatchpatch"
)

// DiffStats computes the line-level added/removed counts for a change.
//
// # Description
//
// Contents are aligned line-by-line using a longest-common-subsequence
// style diff (diffmatchpatch in line mode). Lines present only in after
// count as additions; lines present only in before count as deletions.
// A nil before means the file is being created (every line of after is
// an addition); a nil after means deletion (the mirror).
//
// The result is deterministic: identical inputs always produce identical
// counts. The counts feed both the review UI badges and the telemetry
// aggregates, so they must not depend on iteration order or timing.
//
// # Inputs
//
//   - before: Original content, or nil for create.
//   - after: New content, or nil for delete.
//
// # Outputs
//
//   - added: Number of added lines (non-negative).
//   - removed: Number of removed lines (non-negative).
func DiffStats(before, after *string) (added, removed int) {
	switch {
	case before == nil && after == nil:
		return 0, 0
	case before == nil:
		return countLines(*after), 0
	case after == nil:
		return 0, countLines(*before)
	}

	dmp := diffmatchpatch.New()
	beforeRunes, afterRunes, lineIndex := dmp.DiffLinesToChars(*before, *after)
	diffs := dmp.DiffMain(beforeRunes, afterRunes, false)
	diffs = dmp.DiffCharsToLines(diffs, lineIndex)

	for _, d := range diffs {
		switch d.Type {
		case diffmatchpatch.DiffInsert:
			added += countLines(d.Text)
		case diffmatchpatch.DiffDelete:
			removed += countLines(d.Text)
		}
	}
	return added, removed
}

// countLines counts the lines in s. A trailing newline does not start an
// extra empty line; the empty string has zero lines.
func countLines(s string) int {
	if s == "" {
		return 0
	}
	n := strings.Count(s, "\n")
	if !strings.HasSuffix(s, "\n") {
		n++
	}
	return n
}
