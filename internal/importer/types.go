// Newsrec - Personalized News Recommendation and Retrieval Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/newsrec

package importer

import (
	"time"
)

// Record is one entry of a news dump.
type Record struct {
	Title       string     `json:"title"`
	Content     string     `json:"content"`
	Category    string     `json:"category"`
	Confidence  *float64   `json:"confidence"`
	Link        string     `json:"link"`
	PublishedAt *time.Time `json:"published_at"`
}

// Stats holds statistics about an import run.
type Stats struct {
	// Processed counts records read, including skipped ones.
	Processed int64 `json:"processed"`

	// Imported counts records stored (or that would be, on a dry run).
	Imported int64 `json:"imported"`

	// Skipped counts records rejected by validation.
	Skipped int64 `json:"skipped"`

	// Errors counts valid records the sink failed to store.
	Errors int64 `json:"errors"`

	// FirstID and LastID bound the ids assigned in this run. Zero when
	// nothing was stored.
	FirstID int64 `json:"first_id,omitempty"`
	LastID  int64 `json:"last_id,omitempty"`

	StartTime time.Time `json:"start_time"`
	EndTime   time.Time `json:"end_time"`
	DryRun    bool      `json:"dry_run"`
}

// Duration returns how long the run took, or has taken so far.
func (s *Stats) Duration() time.Duration {
	if s.EndTime.IsZero() {
		return time.Since(s.StartTime)
	}
	return s.EndTime.Sub(s.StartTime)
}

// RecordsPerSecond returns the processing rate.
func (s *Stats) RecordsPerSecond() float64 {
	d := s.Duration().Seconds()
	if d == 0 {
		return 0
	}
	return float64(s.Processed) / d
}
