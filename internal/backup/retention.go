// Newsrec - Personalized News Recommendation and Retrieval Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/newsrec

package backup

import (
	"sort"
	"time"
)

// selectExpired returns the snapshots policy no longer keeps, oldest
// first. backups may be in any order.
func selectExpired(backups []Backup, policy RetentionPolicy, now time.Time) []Backup {
	sorted := make([]Backup, len(backups))
	copy(sorted, backups)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].CreatedAt.After(sorted[j].CreatedAt)
	})

	var kept, expired []Backup
	for i, b := range sorted {
		switch {
		case i < policy.MinCount:
			kept = append(kept, b)
		case policy.MaxAge > 0 && b.CreatedAt.Before(now.Add(-policy.MaxAge)):
			expired = append(expired, b)
		default:
			kept = append(kept, b)
		}
	}

	// kept is newest first, so the tail is the excess.
	if policy.MaxCount > 0 && len(kept) > policy.MaxCount {
		expired = append(expired, kept[max(policy.MaxCount, policy.MinCount):]...)
	}

	sort.Slice(expired, func(i, j int) bool {
		return expired[i].CreatedAt.Before(expired[j].CreatedAt)
	})
	return expired
}
