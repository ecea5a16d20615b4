// Newsrec - Personalized News Recommendation and Retrieval Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/newsrec

package recommend

import (
	"math"
	"time"
)

// Score composition constants.
const (
	confidenceBonusScale   = 0.2
	popularityPenaltyScale = 0.05
	freshnessBonusScale    = 0.15
	freshnessHorizonHours  = 48.0
)

// ConfidenceBonus rewards confidently classified items and penalizes
// uncertain ones. Unknown confidence contributes nothing.
func ConfidenceBonus(confidence *float64) float64 {
	if confidence == nil {
		return 0
	}
	return (*confidence - 0.5) * confidenceBonusScale
}

// PopularityPenalty damps heavily shown items on a log scale.
func PopularityPenalty(shown int64) float64 {
	if shown <= 0 {
		return 0
	}
	return math.Log1p(float64(shown)) * popularityPenaltyScale
}

// FreshnessBonus decays linearly from 0.15 at age zero to 0 at 48 hours.
// Items dated in the future are treated as brand new.
func FreshnessBonus(age time.Duration) float64 {
	hours := age.Hours()
	if hours < 0 {
		hours = 0
	}
	return math.Max(0, (freshnessHorizonHours-hours)/freshnessHorizonHours) * freshnessBonusScale
}

// Score computes the personalized score of item for a user whose weight in
// the item's category is weight.
//
//nolint:gocritic // Item passed by pointer would imply mutation
func Score(weight float64, item Item, now time.Time) float64 {
	return weight +
		ConfidenceBonus(item.Confidence) -
		PopularityPenalty(item.ShownCount) +
		FreshnessBonus(now.Sub(item.PublishedAt))
}

// ScoreCandidates scores every item not in seen and keeps positive scores.
// Seen items are ineligible rather than low-scored.
func ScoreCandidates(userID int64, weights map[Category]float64, defaultWeight float64, items []Item, seen ItemSet, now time.Time) []ScoredCandidate {
	out := make([]ScoredCandidate, 0, len(items))
	for i := range items {
		it := &items[i]
		if seen.Has(it.ID) {
			continue
		}
		w, ok := weights[it.Category]
		if !ok {
			w = defaultWeight
		}
		s := Score(w, *it, now)
		if s <= 0 {
			continue
		}
		out = append(out, ScoredCandidate{
			UserID:     userID,
			ItemID:     it.ID,
			Score:      s,
			ComputedAt: now,
		})
	}
	SortCandidates(out)
	return out
}
