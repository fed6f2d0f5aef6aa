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

import "errors"

// Sentinel errors for proposal operations.
var (
	// ErrNotFound is returned when a proposal ID is unknown. A second
	// approve or reject for the same ID observes this error, which is how
	// at-most-once decisions are enforced.
	ErrNotFound = errors.New("proposal not found")

	// ErrInvalidProposal is returned at creation when the file list is
	// empty, contains duplicate paths, or a file change violates the
	// before/after presence rules.
	ErrInvalidProposal = errors.New("invalid proposal")
)
