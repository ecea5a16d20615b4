// Newsrec - Personalized News Recommendation and Retrieval Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/newsrec

// Package cache provides a generic, thread-safe LRU map with per-entry TTL.
//
// It backs the reading session store and the refresh request deduplicator.
package cache
