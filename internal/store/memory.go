// Newsrec - Personalized News Recommendation and Retrieval Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/newsrec

package store

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/tomtom215/newsrec/internal/recommend"
)

// MemoryRepository is an in-process recommend.Repository.
//
// Update holds an exclusive lock for the whole transaction and records an
// undo step per write; a failing transaction is unwound before the lock is
// released, so View never observes a partial write.
type MemoryRepository struct {
	mu     sync.RWMutex
	closed bool

	items   map[int64]recommend.Item
	itemSeq int64

	users map[int64]recommend.User

	scores   map[int64][]recommend.ScoredCandidate
	scoresAt map[int64]time.Time

	interactions map[int64][]recommend.Interaction
	seen         map[int64]recommend.ItemSet

	prefs map[int64]map[recommend.Category]recommend.PreferenceWeight
	stats map[int64]recommend.UserStats
}

// NewMemoryRepository creates an empty repository.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		items:        make(map[int64]recommend.Item),
		users:        make(map[int64]recommend.User),
		scores:       make(map[int64][]recommend.ScoredCandidate),
		scoresAt:     make(map[int64]time.Time),
		interactions: make(map[int64][]recommend.Interaction),
		seen:         make(map[int64]recommend.ItemSet),
		prefs:        make(map[int64]map[recommend.Category]recommend.PreferenceWeight),
		stats:        make(map[int64]recommend.UserStats),
	}
}

// View runs fn with read-only access.
func (r *MemoryRepository) View(ctx context.Context, fn func(tx recommend.Tx) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.closed {
		return ErrClosed
	}
	return fn(&memTx{r: r})
}

// Update runs fn with read-write access, rolling back every write if fn
// returns an error.
func (r *MemoryRepository) Update(ctx context.Context, fn func(tx recommend.Tx) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return ErrClosed
	}

	tx := &memTx{r: r, writable: true}
	err := fn(tx)
	if err == nil {
		err = ctx.Err()
	}
	if err != nil {
		tx.rollback()
		return err
	}
	return nil
}

// Close marks the repository closed.
func (r *MemoryRepository) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.closed = true
	return nil
}

type memTx struct {
	r        *MemoryRepository
	writable bool
	undo     []func()
}

func (tx *memTx) rollback() {
	for i := len(tx.undo) - 1; i >= 0; i-- {
		tx.undo[i]()
	}
	tx.undo = nil
}

func (tx *memTx) checkWritable() error {
	if !tx.writable {
		return ErrReadOnly
	}
	return nil
}

func (tx *memTx) GetItem(id int64) (recommend.Item, error) {
	it, ok := tx.r.items[id]
	if !ok {
		return recommend.Item{}, fmt.Errorf("item %d: %w", id, recommend.ErrNotFound)
	}
	return it, nil
}

func (tx *memTx) CreateItem(item recommend.Item) (recommend.Item, error) {
	if err := tx.checkWritable(); err != nil {
		return recommend.Item{}, err
	}
	prevSeq := tx.r.itemSeq
	tx.r.itemSeq++
	item.ID = tx.r.itemSeq
	tx.r.items[item.ID] = item
	tx.undo = append(tx.undo, func() {
		delete(tx.r.items, item.ID)
		tx.r.itemSeq = prevSeq
	})
	return item, nil
}

func (tx *memTx) PutItem(item recommend.Item) error {
	if err := tx.checkWritable(); err != nil {
		return err
	}
	if item.ID <= 0 {
		return fmt.Errorf("%w: item id must be positive", recommend.ErrValidation)
	}
	prev, existed := tx.r.items[item.ID]
	prevSeq := tx.r.itemSeq
	tx.r.items[item.ID] = item
	if item.ID > tx.r.itemSeq {
		tx.r.itemSeq = item.ID
	}
	tx.undo = append(tx.undo, func() {
		if existed {
			tx.r.items[item.ID] = prev
		} else {
			delete(tx.r.items, item.ID)
		}
		tx.r.itemSeq = prevSeq
	})
	return nil
}

func (tx *memTx) ItemsSince(since time.Time, exclude recommend.ItemSet) ([]recommend.Item, error) {
	out := make([]recommend.Item, 0)
	for _, it := range tx.r.items {
		if it.PublishedAt.Before(since) || exclude.Has(it.ID) {
			continue
		}
		out = append(out, it)
	}
	recommend.SortByRecency(out)
	return out, nil
}

func (tx *memTx) LatestItems(limit int, exclude recommend.ItemSet) ([]recommend.Item, error) {
	out, err := tx.ItemsSince(time.Time{}, exclude)
	if err != nil {
		return nil, err
	}
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (tx *memTx) AllItems() ([]recommend.Item, error) {
	out := make([]recommend.Item, 0, len(tx.r.items))
	for _, it := range tx.r.items {
		out = append(out, it)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (tx *memTx) IncrementItemCounters(id int64, shown, reactions int64) error {
	if err := tx.checkWritable(); err != nil {
		return err
	}
	prev, ok := tx.r.items[id]
	if !ok {
		return fmt.Errorf("item %d: %w", id, recommend.ErrNotFound)
	}
	if shown < 0 || reactions < 0 {
		return fmt.Errorf("%w: counters only increase", recommend.ErrValidation)
	}
	next := prev
	next.ShownCount += shown
	next.ReactionCount += reactions
	tx.r.items[id] = next
	tx.undo = append(tx.undo, func() { tx.r.items[id] = prev })
	return nil
}

func (tx *memTx) GetUser(id int64) (recommend.User, error) {
	u, ok := tx.r.users[id]
	if !ok {
		return recommend.User{}, fmt.Errorf("user %d: %w", id, recommend.ErrNotFound)
	}
	u.Interests = append([]recommend.Category(nil), u.Interests...)
	return u, nil
}

func (tx *memTx) PutUser(user recommend.User) error {
	if err := tx.checkWritable(); err != nil {
		return err
	}
	prev, existed := tx.r.users[user.ID]
	user.Interests = append([]recommend.Category(nil), user.Interests...)
	tx.r.users[user.ID] = user
	tx.undo = append(tx.undo, func() {
		if existed {
			tx.r.users[user.ID] = prev
		} else {
			delete(tx.r.users, user.ID)
		}
	})
	return nil
}

func (tx *memTx) ListUsers() ([]recommend.User, error) {
	out := make([]recommend.User, 0, len(tx.r.users))
	for _, u := range tx.r.users {
		out = append(out, u)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (tx *memTx) ReplaceScores(userID int64, cands []recommend.ScoredCandidate, computedAt time.Time) error {
	if err := tx.checkWritable(); err != nil {
		return err
	}
	prevScores, hadScores := tx.r.scores[userID]
	prevAt, hadAt := tx.r.scoresAt[userID]

	rows := make([]recommend.ScoredCandidate, len(cands))
	copy(rows, cands)
	recommend.SortCandidates(rows)
	tx.r.scores[userID] = rows
	tx.r.scoresAt[userID] = computedAt

	tx.undo = append(tx.undo, func() {
		restoreScores(tx.r, userID, prevScores, hadScores, prevAt, hadAt)
	})
	return nil
}

func (tx *memTx) DeleteScores(userID int64) error {
	if err := tx.checkWritable(); err != nil {
		return err
	}
	prevScores, hadScores := tx.r.scores[userID]
	prevAt, hadAt := tx.r.scoresAt[userID]
	delete(tx.r.scores, userID)
	delete(tx.r.scoresAt, userID)
	tx.undo = append(tx.undo, func() {
		restoreScores(tx.r, userID, prevScores, hadScores, prevAt, hadAt)
	})
	return nil
}

func restoreScores(r *MemoryRepository, userID int64, rows []recommend.ScoredCandidate, hadRows bool, at time.Time, hadAt bool) {
	if hadRows {
		r.scores[userID] = rows
	} else {
		delete(r.scores, userID)
	}
	if hadAt {
		r.scoresAt[userID] = at
	} else {
		delete(r.scoresAt, userID)
	}
}

func (tx *memTx) TopScores(userID int64, limit int) ([]recommend.ScoredCandidate, error) {
	rows := tx.r.scores[userID]
	if limit > 0 && len(rows) > limit {
		rows = rows[:limit]
	}
	out := make([]recommend.ScoredCandidate, len(rows))
	copy(out, rows)
	return out, nil
}

func (tx *memTx) ScoresComputedAt(userID int64) (time.Time, bool, error) {
	at, ok := tx.r.scoresAt[userID]
	return at, ok, nil
}

func (tx *memTx) AppendInteraction(rec recommend.Interaction) error {
	if err := tx.checkWritable(); err != nil {
		return err
	}
	prev := tx.r.interactions[rec.UserID]
	prevLen := len(prev)
	tx.r.interactions[rec.UserID] = append(prev, rec)

	seen, ok := tx.r.seen[rec.UserID]
	if !ok {
		seen = make(recommend.ItemSet)
		tx.r.seen[rec.UserID] = seen
	}
	wasSeen := seen.Has(rec.ItemID)
	seen[rec.ItemID] = struct{}{}

	tx.undo = append(tx.undo, func() {
		tx.r.interactions[rec.UserID] = tx.r.interactions[rec.UserID][:prevLen]
		if !wasSeen {
			delete(tx.r.seen[rec.UserID], rec.ItemID)
		}
	})
	return nil
}

func (tx *memTx) SeenItems(userID int64) (recommend.ItemSet, error) {
	out := make(recommend.ItemSet, len(tx.r.seen[userID]))
	for id := range tx.r.seen[userID] {
		out[id] = struct{}{}
	}
	return out, nil
}

func (tx *memTx) Interactions(userID int64, limit int) ([]recommend.Interaction, error) {
	all := tx.r.interactions[userID]
	start := 0
	if limit > 0 && len(all) > limit {
		start = len(all) - limit
	}
	out := make([]recommend.Interaction, 0, len(all)-start)
	for i := len(all) - 1; i >= start; i-- {
		out = append(out, all[i])
	}
	return out, nil
}

func (tx *memTx) Preferences(userID int64) (map[recommend.Category]recommend.PreferenceWeight, error) {
	out := make(map[recommend.Category]recommend.PreferenceWeight, len(tx.r.prefs[userID]))
	for c, pw := range tx.r.prefs[userID] {
		out[c] = pw
	}
	return out, nil
}

func (tx *memTx) UpsertPreference(pw recommend.PreferenceWeight) error {
	if err := tx.checkWritable(); err != nil {
		return err
	}
	m, ok := tx.r.prefs[pw.UserID]
	if !ok {
		m = make(map[recommend.Category]recommend.PreferenceWeight)
		tx.r.prefs[pw.UserID] = m
	}
	prev, existed := m[pw.Category]
	m[pw.Category] = pw
	tx.undo = append(tx.undo, func() {
		if existed {
			m[pw.Category] = prev
		} else {
			delete(m, pw.Category)
		}
	})
	return nil
}

func (tx *memTx) DeletePreferences(userID int64) error {
	if err := tx.checkWritable(); err != nil {
		return err
	}
	prev, existed := tx.r.prefs[userID]
	delete(tx.r.prefs, userID)
	tx.undo = append(tx.undo, func() {
		if existed {
			tx.r.prefs[userID] = prev
		}
	})
	return nil
}

func (tx *memTx) GetStats(userID int64) (recommend.UserStats, error) {
	s, ok := tx.r.stats[userID]
	if !ok {
		return recommend.UserStats{UserID: userID}, nil
	}
	return s, nil
}

func (tx *memTx) PutStats(stats recommend.UserStats) error {
	if err := tx.checkWritable(); err != nil {
		return err
	}
	prev, existed := tx.r.stats[stats.UserID]
	tx.r.stats[stats.UserID] = stats
	tx.undo = append(tx.undo, func() {
		if existed {
			tx.r.stats[stats.UserID] = prev
		} else {
			delete(tx.r.stats, stats.UserID)
		}
	})
	return nil
}
