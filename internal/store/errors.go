// Newsrec - Personalized News Recommendation and Retrieval Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/newsrec

package store

import "errors"

var (
	// ErrClosed is returned by operations on a closed repository.
	ErrClosed = errors.New("repository is closed")

	// ErrReadOnly is returned by writes attempted inside View.
	ErrReadOnly = errors.New("write in read-only transaction")
)
