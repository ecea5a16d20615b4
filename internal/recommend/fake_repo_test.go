// Newsrec - Personalized News Recommendation and Retrieval Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/newsrec

package recommend

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
)

var errInjected = errors.New("injected failure")

// fakeState is the full repository content. Update works on a clone and
// swaps it in on success.
type fakeState struct {
	items        map[int64]Item
	nextItemID   int64
	users        map[int64]User
	scores       map[int64][]ScoredCandidate
	computedAt   map[int64]time.Time
	interactions map[int64][]Interaction
	prefs        map[int64]map[Category]PreferenceWeight
	stats        map[int64]UserStats
}

func newFakeState() *fakeState {
	return &fakeState{
		items:        make(map[int64]Item),
		users:        make(map[int64]User),
		scores:       make(map[int64][]ScoredCandidate),
		computedAt:   make(map[int64]time.Time),
		interactions: make(map[int64][]Interaction),
		prefs:        make(map[int64]map[Category]PreferenceWeight),
		stats:        make(map[int64]UserStats),
	}
}

func (s *fakeState) clone() *fakeState {
	c := newFakeState()
	c.nextItemID = s.nextItemID
	for k, v := range s.items {
		c.items[k] = v
	}
	for k, v := range s.users {
		c.users[k] = v
	}
	for k, v := range s.scores {
		c.scores[k] = append([]ScoredCandidate(nil), v...)
	}
	for k, v := range s.computedAt {
		c.computedAt[k] = v
	}
	for k, v := range s.interactions {
		c.interactions[k] = append([]Interaction(nil), v...)
	}
	for k, v := range s.prefs {
		m := make(map[Category]PreferenceWeight, len(v))
		for c2, pw := range v {
			m[c2] = pw
		}
		c.prefs[k] = m
	}
	for k, v := range s.stats {
		c.stats[k] = v
	}
	return c
}

// fakeRepo is an in-package Repository with failure injection.
type fakeRepo struct {
	mu      sync.Mutex
	st      *fakeState
	failOn  string
	updates atomic.Int64
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{st: newFakeState()}
}

// failNext makes the named Tx write operation fail until cleared.
func (r *fakeRepo) failNext(op string) {
	r.mu.Lock()
	r.failOn = op
	r.mu.Unlock()
}

func (r *fakeRepo) View(ctx context.Context, fn func(tx Tx) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	return fn(&fakeTx{st: r.st, failOn: r.failOn})
}

func (r *fakeRepo) Update(ctx context.Context, fn func(tx Tx) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.updates.Add(1)
	work := r.st.clone()
	if err := fn(&fakeTx{st: work, writable: true, failOn: r.failOn}); err != nil {
		return err
	}
	r.st = work
	return nil
}

func (r *fakeRepo) Close() error { return nil }

type fakeTx struct {
	st       *fakeState
	writable bool
	failOn   string
}

func (tx *fakeTx) write(op string) error {
	if !tx.writable {
		return errors.New("read-only transaction")
	}
	if tx.failOn == op {
		return fmt.Errorf("%s: %w", op, errInjected)
	}
	return nil
}

func (tx *fakeTx) GetItem(id int64) (Item, error) {
	it, ok := tx.st.items[id]
	if !ok {
		return Item{}, fmt.Errorf("item %d: %w", id, ErrNotFound)
	}
	return it, nil
}

func (tx *fakeTx) CreateItem(item Item) (Item, error) {
	if err := tx.write("CreateItem"); err != nil {
		return Item{}, err
	}
	tx.st.nextItemID++
	item.ID = tx.st.nextItemID
	tx.st.items[item.ID] = item
	return item, nil
}

func (tx *fakeTx) PutItem(item Item) error {
	if err := tx.write("PutItem"); err != nil {
		return err
	}
	tx.st.items[item.ID] = item
	if item.ID > tx.st.nextItemID {
		tx.st.nextItemID = item.ID
	}
	return nil
}

func (tx *fakeTx) ItemsSince(since time.Time, exclude ItemSet) ([]Item, error) {
	var out []Item
	for _, it := range tx.st.items {
		if it.PublishedAt.Before(since) || exclude.Has(it.ID) {
			continue
		}
		out = append(out, it)
	}
	SortByRecency(out)
	return out, nil
}

func (tx *fakeTx) LatestItems(limit int, exclude ItemSet) ([]Item, error) {
	out, _ := tx.ItemsSince(time.Time{}, exclude)
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (tx *fakeTx) AllItems() ([]Item, error) {
	out := make([]Item, 0, len(tx.st.items))
	for _, it := range tx.st.items {
		out = append(out, it)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (tx *fakeTx) IncrementItemCounters(id, shown, reactions int64) error {
	if err := tx.write("IncrementItemCounters"); err != nil {
		return err
	}
	it, err := tx.GetItem(id)
	if err != nil {
		return err
	}
	it.ShownCount += shown
	it.ReactionCount += reactions
	tx.st.items[id] = it
	return nil
}

func (tx *fakeTx) GetUser(id int64) (User, error) {
	u, ok := tx.st.users[id]
	if !ok {
		return User{}, fmt.Errorf("user %d: %w", id, ErrNotFound)
	}
	return u, nil
}

func (tx *fakeTx) PutUser(user User) error {
	if err := tx.write("PutUser"); err != nil {
		return err
	}
	tx.st.users[user.ID] = user
	return nil
}

func (tx *fakeTx) ListUsers() ([]User, error) {
	out := make([]User, 0, len(tx.st.users))
	for _, u := range tx.st.users {
		out = append(out, u)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (tx *fakeTx) ReplaceScores(userID int64, cands []ScoredCandidate, computedAt time.Time) error {
	if err := tx.write("ReplaceScores"); err != nil {
		return err
	}
	rows := append([]ScoredCandidate(nil), cands...)
	SortCandidates(rows)
	tx.st.scores[userID] = rows
	tx.st.computedAt[userID] = computedAt
	return nil
}

func (tx *fakeTx) TopScores(userID int64, limit int) ([]ScoredCandidate, error) {
	rows := tx.st.scores[userID]
	if limit > 0 && len(rows) > limit {
		rows = rows[:limit]
	}
	return append([]ScoredCandidate(nil), rows...), nil
}

func (tx *fakeTx) ScoresComputedAt(userID int64) (time.Time, bool, error) {
	at, ok := tx.st.computedAt[userID]
	return at, ok, nil
}

func (tx *fakeTx) DeleteScores(userID int64) error {
	if err := tx.write("DeleteScores"); err != nil {
		return err
	}
	delete(tx.st.scores, userID)
	delete(tx.st.computedAt, userID)
	return nil
}

func (tx *fakeTx) AppendInteraction(rec Interaction) error {
	if err := tx.write("AppendInteraction"); err != nil {
		return err
	}
	tx.st.interactions[rec.UserID] = append(tx.st.interactions[rec.UserID], rec)
	return nil
}

func (tx *fakeTx) SeenItems(userID int64) (ItemSet, error) {
	out := make(ItemSet)
	for _, rec := range tx.st.interactions[userID] {
		out[rec.ItemID] = struct{}{}
	}
	return out, nil
}

func (tx *fakeTx) Interactions(userID int64, limit int) ([]Interaction, error) {
	all := tx.st.interactions[userID]
	out := make([]Interaction, 0, len(all))
	for i := len(all) - 1; i >= 0; i-- {
		out = append(out, all[i])
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out, nil
}

func (tx *fakeTx) Preferences(userID int64) (map[Category]PreferenceWeight, error) {
	out := make(map[Category]PreferenceWeight)
	for c, pw := range tx.st.prefs[userID] {
		out[c] = pw
	}
	return out, nil
}

func (tx *fakeTx) UpsertPreference(pw PreferenceWeight) error {
	if err := tx.write("UpsertPreference"); err != nil {
		return err
	}
	m, ok := tx.st.prefs[pw.UserID]
	if !ok {
		m = make(map[Category]PreferenceWeight)
		tx.st.prefs[pw.UserID] = m
	}
	m[pw.Category] = pw
	return nil
}

func (tx *fakeTx) DeletePreferences(userID int64) error {
	if err := tx.write("DeletePreferences"); err != nil {
		return err
	}
	delete(tx.st.prefs, userID)
	return nil
}

func (tx *fakeTx) GetStats(userID int64) (UserStats, error) {
	s, ok := tx.st.stats[userID]
	if !ok {
		return UserStats{UserID: userID}, nil
	}
	return s, nil
}

func (tx *fakeTx) PutStats(stats UserStats) error {
	if err := tx.write("PutStats"); err != nil {
		return err
	}
	tx.st.stats[stats.UserID] = stats
	return nil
}

// Shared fixtures.

var testNow = time.Date(2026, 5, 10, 9, 0, 0, 0, time.UTC)

func testClock() time.Time { return testNow }

func testLogger() zerolog.Logger {
	return zerolog.Nop()
}

func floatPtr(v float64) *float64 { return &v }

// seedUser stores a user without touching preferences.
func seedUser(repo *fakeRepo, id int64) {
	_ = repo.Update(context.Background(), func(tx Tx) error {
		return tx.PutUser(User{ID: id, CreatedAt: testNow, LastActive: testNow})
	})
}

// seedItem stores an item published age before testNow and returns it.
func seedItem(repo *fakeRepo, cat Category, title string, age time.Duration, confidence *float64) Item {
	var created Item
	_ = repo.Update(context.Background(), func(tx Tx) error {
		var err error
		created, err = tx.CreateItem(Item{
			Category:    cat,
			Title:       title,
			Content:     title,
			Confidence:  confidence,
			PublishedAt: testNow.Add(-age),
		})
		return err
	})
	return created
}

func seedPreference(repo *fakeRepo, userID int64, cat Category, weight float64) {
	_ = repo.Update(context.Background(), func(tx Tx) error {
		return tx.UpsertPreference(PreferenceWeight{UserID: userID, Category: cat, Weight: weight})
	})
}

func newTestEngine(repo *fakeRepo, opts ...Option) *Engine {
	cfg := DefaultConfig()
	opts = append([]Option{WithClock(testClock)}, opts...)
	e, err := NewEngine(cfg, repo, testLogger(), opts...)
	if err != nil {
		panic(err)
	}
	return e
}
