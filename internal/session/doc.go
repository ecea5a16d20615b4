// Newsrec - Personalized News Recommendation and Retrieval Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/newsrec

// Package session keeps per-user reading sessions: a result list from
// recommend, similar or search plus a cursor, paged one item at a time.
// Sessions live in a TTL-bounded LRU and are lost on restart.
package session
