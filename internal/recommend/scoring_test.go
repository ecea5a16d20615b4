// Newsrec - Personalized News Recommendation and Retrieval Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/newsrec

package recommend

import (
	"math"
	"testing"
	"time"
)

func TestFreshnessBonus(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		age  time.Duration
		want float64
	}{
		{"brand new", 0, 0.15},
		{"half way", 24 * time.Hour, 0.075},
		{"horizon", 48 * time.Hour, 0},
		{"older than horizon", 72 * time.Hour, 0},
		{"future dated", -5 * time.Hour, 0.15},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := FreshnessBonus(tt.age); math.Abs(got-tt.want) > floatTolerance {
				t.Errorf("FreshnessBonus(%v) = %v, want %v", tt.age, got, tt.want)
			}
		})
	}
}

func TestFreshnessBonus_StrictlyDecreasing(t *testing.T) {
	t.Parallel()

	prev := FreshnessBonus(0)
	for age := 30 * time.Minute; age < 48*time.Hour; age += 30 * time.Minute {
		cur := FreshnessBonus(age)
		if cur >= prev {
			t.Fatalf("FreshnessBonus(%v) = %v, not below %v", age, cur, prev)
		}
		prev = cur
	}
}

func TestPopularityPenalty(t *testing.T) {
	t.Parallel()

	if got := PopularityPenalty(0); got != 0 {
		t.Errorf("PopularityPenalty(0) = %v, want 0", got)
	}
	if got, want := PopularityPenalty(9), math.Log(10)*0.05; math.Abs(got-want) > floatTolerance {
		t.Errorf("PopularityPenalty(9) = %v, want %v", got, want)
	}
	if PopularityPenalty(100) <= PopularityPenalty(10) {
		t.Error("penalty should grow with exposure")
	}
}

func TestScore(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		weight float64
		item   Item
		want   float64
	}{
		{
			name:   "fresh confident unseen",
			weight: 0.6,
			item:   Item{Confidence: floatPtr(0.9), PublishedAt: testNow},
			want:   0.6 + 0.08 + 0.15,
		},
		{
			name:   "unknown confidence old",
			weight: 0.5,
			item:   Item{PublishedAt: testNow.Add(-60 * time.Hour)},
			want:   0.5,
		},
		{
			name:   "low confidence popular",
			weight: 0.3,
			item:   Item{Confidence: floatPtr(0.2), ShownCount: 4, PublishedAt: testNow.Add(-24 * time.Hour)},
			want:   0.3 - 0.06 - math.Log(5)*0.05 + 0.075,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := Score(tt.weight, tt.item, testNow); math.Abs(got-tt.want) > floatTolerance {
				t.Errorf("Score = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestScoreCandidates(t *testing.T) {
	t.Parallel()

	items := []Item{
		{ID: 1, Category: CategorySports, PublishedAt: testNow},
		{ID: 2, Category: CategoryPolitics, PublishedAt: testNow},
		{ID: 3, Category: CategorySports, PublishedAt: testNow.Add(-time.Hour)},
		{ID: 4, Category: CategoryCulture, Confidence: floatPtr(0), ShownCount: 1000, PublishedAt: testNow.Add(-70 * time.Hour)},
		{ID: 5, Category: CategoryTravel, PublishedAt: testNow},
	}
	weights := map[Category]float64{
		CategorySports:   0.8,
		CategoryPolitics: 0.3,
		CategoryCulture:  0,
	}
	seen := ItemSet{3: {}}

	got := ScoreCandidates(7, weights, 0.5, items, seen, testNow)

	wantOrder := []int64{1, 5, 2}
	if len(got) != len(wantOrder) {
		t.Fatalf("got %d candidates, want %d: %+v", len(got), len(wantOrder), got)
	}
	for i, id := range wantOrder {
		if got[i].ItemID != id {
			t.Errorf("candidate[%d] = item %d, want %d", i, got[i].ItemID, id)
		}
		if got[i].UserID != 7 || !got[i].ComputedAt.Equal(testNow) {
			t.Errorf("candidate[%d] metadata = %+v", i, got[i])
		}
		if got[i].Score <= 0 {
			t.Errorf("candidate[%d] has non-positive score %v", i, got[i].Score)
		}
	}
}
