// Newsrec - Personalized News Recommendation and Retrieval Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/newsrec

package recommend

import (
	"fmt"
	"sort"
	"time"
)

// Category is a topic label from the closed category set.
type Category string

// The closed category set attached to every item by the upstream classifier.
const (
	CategoryClimate   Category = "climate"
	CategoryConflicts Category = "conflicts"
	CategoryCulture   Category = "culture"
	CategoryEconomy   Category = "economy"
	CategoryGloss     Category = "gloss"
	CategoryHealth    Category = "health"
	CategoryPolitics  Category = "politics"
	CategoryScience   Category = "science"
	CategorySociety   Category = "society"
	CategorySports    Category = "sports"
	CategoryTravel    Category = "travel"
)

var allCategories = []Category{
	CategoryClimate,
	CategoryConflicts,
	CategoryCulture,
	CategoryEconomy,
	CategoryGloss,
	CategoryHealth,
	CategoryPolitics,
	CategoryScience,
	CategorySociety,
	CategorySports,
	CategoryTravel,
}

// Categories returns the closed category set in stable order.
func Categories() []Category {
	out := make([]Category, len(allCategories))
	copy(out, allCategories)
	return out
}

// Valid reports whether c belongs to the closed category set.
func (c Category) Valid() bool {
	for _, known := range allCategories {
		if c == known {
			return true
		}
	}
	return false
}

// ParseCategory converts a label into a Category.
func ParseCategory(s string) (Category, error) {
	c := Category(s)
	if !c.Valid() {
		return "", fmt.Errorf("%w: unknown category %q", ErrValidation, s)
	}
	return c, nil
}

// Reaction is the implicit feedback a user gives on a shown item.
type Reaction string

const (
	ReactionLike    Reaction = "like"
	ReactionDislike Reaction = "dislike"
	ReactionSkip    Reaction = "skip"
)

// Reward maps a reaction onto the [0,1] reward scale used by the update law.
// The second return value is false for unknown reactions.
func (r Reaction) Reward() (float64, bool) {
	switch r {
	case ReactionLike:
		return 1.0, true
	case ReactionSkip:
		return 0.5, true
	case ReactionDislike:
		return 0.0, true
	default:
		return 0, false
	}
}

// ParseReaction validates a reaction label.
func ParseReaction(s string) (Reaction, error) {
	r := Reaction(s)
	if _, ok := r.Reward(); !ok {
		return "", fmt.Errorf("%w: unknown reaction %q", ErrValidation, s)
	}
	return r, nil
}

// Item is a content record in the shared corpus.
//
// Items are immutable once created except for ShownCount and ReactionCount,
// which only increase.
type Item struct {
	// ID is the corpus-wide identity of the item.
	ID int64 `json:"id"`

	// Category is the classifier-assigned topic.
	Category Category `json:"category"`

	// Confidence is the classification confidence in [0,1].
	// Nil when the classifier did not report one.
	Confidence *float64 `json:"confidence,omitempty"`

	Title   string `json:"title"`
	Content string `json:"content"`
	Link    string `json:"link,omitempty"`

	// ShownCount is the popularity counter (times the item was shown).
	ShownCount int64 `json:"shown_count"`

	// ReactionCount is the number of reactions recorded on the item.
	ReactionCount int64 `json:"reaction_count"`

	// PublishedAt is the recency timestamp used for freshness.
	PublishedAt time.Time `json:"published_at"`
}

// Text returns the document text used for similarity indexing.
func (it *Item) Text() string {
	return it.Title + " " + it.Content
}

// PreferenceWeight is a user's learned affinity for one category.
type PreferenceWeight struct {
	UserID   int64    `json:"user_id"`
	Category Category `json:"category"`

	// Weight is the affinity in [0,1].
	Weight float64 `json:"weight"`

	Positive int64 `json:"positive"`
	Negative int64 `json:"negative"`
	Neutral  int64 `json:"neutral"`

	// TotalShown counts every processed feedback event for the category.
	TotalShown int64 `json:"total_shown"`

	// Confidence is Positive/(Positive+Negative+Neutral), 0 with no reactions.
	Confidence float64 `json:"confidence"`

	// UpdatedAt is the last time the weight was moved by feedback.
	// Zero for records that have never been written.
	UpdatedAt time.Time `json:"updated_at"`
}

// ScoredCandidate is a cached personalized score. It is derived state and
// can always be recomputed from preferences and items.
type ScoredCandidate struct {
	UserID     int64     `json:"user_id"`
	ItemID     int64     `json:"item_id"`
	Score      float64   `json:"score"`
	ComputedAt time.Time `json:"computed_at"`
}

// Interaction is a write-once audit record of a single reaction.
type Interaction struct {
	ID       string   `json:"id"`
	UserID   int64    `json:"user_id"`
	ItemID   int64    `json:"item_id"`
	Category Category `json:"category"`
	Reaction Reaction `json:"reaction"`

	// Latency is how long the user took to react. Zero when unknown.
	Latency time.Duration `json:"latency"`

	CreatedAt time.Time `json:"created_at"`
}

// User is a registered reader.
type User struct {
	ID         int64      `json:"id"`
	ExternalID string     `json:"external_id,omitempty"`
	Interests  []Category `json:"interests"`
	CreatedAt  time.Time  `json:"created_at"`
	LastActive time.Time  `json:"last_active"`
}

// UserStats aggregates a user's engagement.
type UserStats struct {
	UserID         int64 `json:"user_id"`
	TotalShown     int64 `json:"total_shown"`
	TotalReactions int64 `json:"total_reactions"`
	Likes          int64 `json:"likes"`
	Dislikes       int64 `json:"dislikes"`
	Skips          int64 `json:"skips"`

	// EngagementRate is (Likes+Dislikes)/TotalShown.
	EngagementRate float64 `json:"engagement_rate"`

	// AvgLatency is an exponentially smoothed reaction latency.
	AvgLatency time.Duration `json:"avg_latency"`

	UpdatedAt time.Time `json:"updated_at"`
}

// Match is an item returned by a similarity lookup together with its
// cosine similarity to the query.
type Match struct {
	Item       Item    `json:"item"`
	Similarity float64 `json:"similarity"`
}

// SortCandidates orders candidates by score descending, breaking ties on
// item id so cache reads are stable.
func SortCandidates(cands []ScoredCandidate) {
	sort.SliceStable(cands, func(i, j int) bool {
		if cands[i].Score != cands[j].Score {
			return cands[i].Score > cands[j].Score
		}
		return cands[i].ItemID < cands[j].ItemID
	})
}

// SortByRecency orders items newest first, breaking ties on id descending.
func SortByRecency(items []Item) {
	sort.SliceStable(items, func(i, j int) bool {
		if !items[i].PublishedAt.Equal(items[j].PublishedAt) {
			return items[i].PublishedAt.After(items[j].PublishedAt)
		}
		return items[i].ID > items[j].ID
	})
}
