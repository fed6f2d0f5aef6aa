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

import "errors"

// Sentinel errors for tool operations.
var (
	// ErrFileNotFound is returned when an edit, delete, or read targets
	// a path with no file on disk.
	ErrFileNotFound = errors.New("file not found")

	// ErrNotFile is returned when a file operation targets a directory.
	ErrNotFile = errors.New("path is not a regular file")

	// ErrDirectoryNotFound is returned when a directory operation
	// targets a path with no directory on disk.
	ErrDirectoryNotFound = errors.New("directory not found")

	// ErrAmbiguousMatch is returned by EditFile when the target string
	// occurs zero times or more than once. Exact single-match
	// replacement is required so the wrong occurrence is never edited
	// silently.
	ErrAmbiguousMatch = errors.New("ambiguous match")

	// ErrRootDeletion is returned when DeleteDirectory targets the
	// workspace root itself.
	ErrRootDeletion = errors.New("refusing to delete workspace root")
)
