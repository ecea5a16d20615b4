// Newsrec - Personalized News Recommendation and Retrieval Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/newsrec

package recommend

import (
	"context"
	"time"
)

// Repository is the storage contract the engine runs against.
//
// All reads and writes happen inside a transaction. Update commits only when
// fn returns nil; any error discards every write made through the Tx, which
// is how feedback and cache recomputation get their all-or-nothing
// semantics. Implementations must make Update serializable per user.
type Repository interface {
	View(ctx context.Context, fn func(tx Tx) error) error
	Update(ctx context.Context, fn func(tx Tx) error) error
	Close() error
}

// ItemSet is a set of item identities.
type ItemSet map[int64]struct{}

// Has reports whether id is in the set.
func (s ItemSet) Has(id int64) bool {
	_, ok := s[id]
	return ok
}

// Tx exposes the repository operations available inside a transaction.
//
// Lookups of unknown identities return an error wrapping ErrNotFound.
type Tx interface {
	// Items.
	GetItem(id int64) (Item, error)
	CreateItem(item Item) (Item, error)
	PutItem(item Item) error
	ItemsSince(since time.Time, exclude ItemSet) ([]Item, error)
	LatestItems(limit int, exclude ItemSet) ([]Item, error)
	AllItems() ([]Item, error)
	IncrementItemCounters(id int64, shown, reactions int64) error

	// Users.
	GetUser(id int64) (User, error)
	PutUser(user User) error
	ListUsers() ([]User, error)

	// Scores. ReplaceScores drops every cached row for the user and stores
	// cands with computedAt, even when cands is empty.
	ReplaceScores(userID int64, cands []ScoredCandidate, computedAt time.Time) error
	TopScores(userID int64, limit int) ([]ScoredCandidate, error)
	ScoresComputedAt(userID int64) (time.Time, bool, error)
	DeleteScores(userID int64) error

	// Interactions.
	AppendInteraction(rec Interaction) error
	SeenItems(userID int64) (ItemSet, error)
	Interactions(userID int64, limit int) ([]Interaction, error)

	// Preferences.
	Preferences(userID int64) (map[Category]PreferenceWeight, error)
	UpsertPreference(pw PreferenceWeight) error
	DeletePreferences(userID int64) error

	// Stats. GetStats returns a zero record for users without stats.
	GetStats(userID int64) (UserStats, error)
	PutStats(stats UserStats) error
}
