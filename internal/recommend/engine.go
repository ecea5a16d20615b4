// Newsrec - Personalized News Recommendation and Retrieval Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/newsrec

package recommend

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/tomtom215/newsrec/internal/index"
	"github.com/tomtom215/newsrec/internal/metrics"
	"github.com/tomtom215/newsrec/internal/textutil"
)

// Engine is the personalization and retrieval facade used by the API,
// the scheduler and the importer. It is safe for concurrent use.
type Engine struct {
	cfg    Config
	repo   Repository
	logger zerolog.Logger
	now    func() time.Time

	locks     *userLocks
	prefs     *PreferenceStore
	cache     *RecommendationCache
	ranker    *Ranker
	feedback  *FeedbackProcessor
	refresher Refresher

	index     *index.Index
	rebuilder *index.Rebuilder
}

// Option configures an Engine.
type Option func(*Engine)

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		if now != nil {
			e.now = now
		}
	}
}

// WithRefresher routes Kth-reaction cache refreshes through r instead of
// refreshing synchronously on the reacting goroutine.
func WithRefresher(r Refresher) Option {
	return func(e *Engine) {
		e.refresher = r
	}
}

// NewEngine creates an engine over repo.
//
//nolint:gocritic // Config and zerolog.Logger passed by value
func NewEngine(cfg Config, repo Repository, logger zerolog.Logger, opts ...Option) (*Engine, error) {
	if repo == nil {
		return nil, errors.New("repository is required")
	}
	if cfg.Seed == 0 {
		cfg.Seed = 42
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	e := &Engine{
		cfg:    cfg,
		repo:   repo,
		logger: logger.With().Str("component", "recommend").Logger(),
		now:    time.Now,
		locks:  newUserLocks(),
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.refresher == nil {
		e.refresher = RefresherFunc(func(ctx context.Context, userID, _ int64) error {
			return e.RefreshCache(ctx, userID)
		})
	}

	stopwords := index.DefaultStopwords()
	if cfg.Index.StopwordsFile != "" {
		sw, err := index.LoadStopwords(cfg.Index.StopwordsFile)
		if err != nil {
			return nil, fmt.Errorf("load stopwords: %w", err)
		}
		stopwords = sw
	}

	e.prefs = NewPreferenceStore(cfg.Preference, e.now)
	e.cache = NewRecommendationCache(repo, e.prefs, cfg.Cache, e.now, logger)
	e.ranker = NewRanker(e.cache, repo, cfg.Ranker, cfg.Seed, logger)
	e.feedback = newFeedbackProcessor(repo, e.prefs, cfg.Feedback, e.locks, e.refresher, e.now, logger)
	e.index = index.New(index.Config{
		MaxFeatures: cfg.Index.MaxFeatures,
		NGramMax:    cfg.Index.NGramMax,
		Stopwords:   stopwords,
	}, e.loadCorpus, logger)
	e.rebuilder = index.NewRebuilder(e.index.Fit, cfg.Index.RebuildInterval, cfg.Index.RebuildBurst)

	return e, nil
}

// Config returns the engine configuration.
func (e *Engine) Config() Config {
	return e.cfg
}

// loadCorpus feeds the similarity index from the repository.
func (e *Engine) loadCorpus(ctx context.Context) ([]index.Document, error) {
	var docs []index.Document
	err := e.repo.View(ctx, func(tx Tx) error {
		items, err := tx.AllItems()
		if err != nil {
			return err
		}
		docs = make([]index.Document, len(items))
		for i := range items {
			docs[i] = toDocument(&items[i])
		}
		return nil
	})
	return docs, err
}

func toDocument(it *Item) index.Document {
	return index.Document{ID: it.ID, Category: string(it.Category), Text: it.Text()}
}

// resolveN applies the default for zero and bounds the result size.
func (e *Engine) resolveN(name string, n int) (int, error) {
	if n == 0 {
		return e.cfg.Limits.DefaultN, nil
	}
	if n < 0 || n > e.cfg.Limits.MaxN {
		return 0, fmt.Errorf("%w: %s must be in [1,%d], got %d", ErrValidation, name, e.cfg.Limits.MaxN, n)
	}
	return n, nil
}

func (e *Engine) requireUser(ctx context.Context, userID int64) error {
	return e.repo.View(ctx, func(tx Tx) error {
		_, err := tx.GetUser(userID)
		return err
	})
}

// Recommend returns up to n unseen items for the user.
//
// n of zero selects the configured default. diversity must be in [0,1];
// zero yields the pure top-n in score order. An empty corpus yields an
// empty list.
func (e *Engine) Recommend(ctx context.Context, userID int64, n int, diversity float64) ([]Item, error) {
	n, err := e.resolveN("n", n)
	if err != nil {
		return nil, err
	}
	if math.IsNaN(diversity) || diversity < 0 || diversity > 1 {
		return nil, fmt.Errorf("%w: diversity must be in [0,1], got %v", ErrValidation, diversity)
	}
	if err := e.requireUser(ctx, userID); err != nil {
		return nil, fmt.Errorf("recommend: %w", err)
	}

	unlock := e.locks.Lock(userID)
	items, source, err := e.ranker.Select(ctx, userID, n, diversity)
	unlock()
	if err != nil {
		return nil, fmt.Errorf("recommend: %w", err)
	}

	metrics.RecordRecommendation(source, len(items))
	if items == nil {
		items = []Item{}
	}
	return items, nil
}

// React records the user's reaction to an item. latency of zero means
// unknown.
func (e *Engine) React(ctx context.Context, userID, itemID int64, reaction Reaction, latency time.Duration) error {
	return e.feedback.RecordReaction(ctx, userID, itemID, reaction, latency)
}

// SimilarTo returns the items textually closest to itemID. The item itself
// is never included; excludeSameCategory also drops its category.
func (e *Engine) SimilarTo(ctx context.Context, itemID int64, topN int, excludeSameCategory bool) ([]Match, error) {
	topN, err := e.resolveN("top_n", topN)
	if err != nil {
		return nil, err
	}

	var item Item
	err = e.repo.View(ctx, func(tx Tx) error {
		item, err = tx.GetItem(itemID)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("similar to: %w", err)
	}

	results, err := e.index.Neighbors(ctx, toDocument(&item), topN, excludeSameCategory)
	if err != nil {
		return nil, fmt.Errorf("similar to: %w", err)
	}
	return e.hydrate(ctx, results)
}

// Search returns items similar to free text, strictly above the configured
// similarity floor. An empty category matches every category.
func (e *Engine) Search(ctx context.Context, text string, topN int, category Category) ([]Match, error) {
	topN, err := e.resolveN("top_n", topN)
	if err != nil {
		return nil, err
	}
	if category != "" && !category.Valid() {
		return nil, fmt.Errorf("%w: unknown category %q", ErrValidation, category)
	}

	results, err := e.index.Query(ctx, text, topN, string(category), e.cfg.Search.MinSimilarity)
	if err != nil {
		return nil, fmt.Errorf("search: %w", err)
	}
	return e.hydrate(ctx, results)
}

// hydrate resolves index results into items. Rows whose item has vanished
// since the last fit are skipped.
func (e *Engine) hydrate(ctx context.Context, results []index.Result) ([]Match, error) {
	out := make([]Match, 0, len(results))
	if len(results) == 0 {
		return out, nil
	}
	err := e.repo.View(ctx, func(tx Tx) error {
		for _, r := range results {
			it, err := tx.GetItem(r.ID)
			if errors.Is(err, ErrNotFound) {
				continue
			}
			if err != nil {
				return err
			}
			out = append(out, Match{Item: it, Similarity: r.Similarity})
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("load matched items: %w", err)
	}
	return out, nil
}

// RebuildIndex refits the similarity index unconditionally.
func (e *Engine) RebuildIndex(ctx context.Context) error {
	return e.index.Fit(ctx)
}

// RequestRebuild refits the similarity index unless on-demand rebuilds are
// arriving too fast, in which case index.ErrRebuildThrottled is returned.
func (e *Engine) RequestRebuild(ctx context.Context) error {
	return e.rebuilder.Rebuild(ctx)
}

// IndexStats describes the serving similarity index.
func (e *Engine) IndexStats() index.Stats {
	return e.index.Stats()
}

// RefreshCache recomputes the user's cached scores regardless of
// staleness.
func (e *Engine) RefreshCache(ctx context.Context, userID int64) error {
	if err := e.requireUser(ctx, userID); err != nil {
		return fmt.Errorf("refresh cache: %w", err)
	}
	unlock := e.locks.Lock(userID)
	defer unlock()
	return e.cache.Refresh(ctx, userID)
}

// RefreshAll refreshes every user's cache. Failures for one user are
// logged and counted; the sweep continues. The returned error is non-nil
// only when the user list could not be read or ctx ended.
func (e *Engine) RefreshAll(ctx context.Context) (refreshed, failed int, err error) {
	start := time.Now()

	var users []User
	err = e.repo.View(ctx, func(tx Tx) error {
		var err error
		users, err = tx.ListUsers()
		return err
	})
	if err != nil {
		return 0, 0, fmt.Errorf("list users: %w", err)
	}

	for i := range users {
		if err := ctx.Err(); err != nil {
			return refreshed, failed, err
		}
		if err := e.RefreshCache(ctx, users[i].ID); err != nil {
			failed++
			e.logger.Warn().Err(err).Int64("user_id", users[i].ID).Msg("Cache refresh failed")
			continue
		}
		refreshed++
	}

	metrics.CacheRefreshAllDuration.Observe(time.Since(start).Seconds())
	e.logger.Info().
		Int("users", len(users)).
		Int("refreshed", refreshed).
		Int("failed", failed).
		Dur("duration", time.Since(start)).
		Msg("Score caches refreshed")
	return refreshed, failed, nil
}

// RegisterUser creates a user and seeds one preference weight per
// category from the declared interests. Registering an existing user
// returns the stored record unchanged.
func (e *Engine) RegisterUser(ctx context.Context, userID int64, externalID string, declared []Category) (User, error) {
	if userID <= 0 {
		return User{}, fmt.Errorf("%w: user id must be positive, got %d", ErrValidation, userID)
	}
	if err := validateCategories(declared); err != nil {
		return User{}, err
	}

	unlock := e.locks.Lock(userID)
	defer unlock()

	var user User
	err := e.repo.Update(ctx, func(tx Tx) error {
		existing, err := tx.GetUser(userID)
		if err == nil {
			user = existing
			return nil
		}
		if !errors.Is(err, ErrNotFound) {
			return err
		}

		now := e.now()
		user = User{
			ID:         userID,
			ExternalID: externalID,
			Interests:  dedupeCategories(declared),
			CreatedAt:  now,
			LastActive: now,
		}
		if err := tx.PutUser(user); err != nil {
			return fmt.Errorf("store user: %w", err)
		}
		return e.prefs.Initialize(tx, userID, user.Interests)
	})
	if err != nil {
		return User{}, persistenceError("register user", err)
	}
	return user, nil
}

// ResetUser drops the user's learned weights and cached scores and
// reseeds them from newly declared interests. The interaction history is
// kept, so previously seen items stay excluded.
func (e *Engine) ResetUser(ctx context.Context, userID int64, declared []Category) error {
	if err := validateCategories(declared); err != nil {
		return err
	}

	unlock := e.locks.Lock(userID)
	defer unlock()

	err := e.repo.Update(ctx, func(tx Tx) error {
		user, err := tx.GetUser(userID)
		if err != nil {
			return err
		}
		if err := tx.DeletePreferences(userID); err != nil {
			return fmt.Errorf("delete preferences: %w", err)
		}
		if err := tx.DeleteScores(userID); err != nil {
			return fmt.Errorf("delete scores: %w", err)
		}
		user.Interests = dedupeCategories(declared)
		user.LastActive = e.now()
		if err := tx.PutUser(user); err != nil {
			return fmt.Errorf("store user: %w", err)
		}
		return e.prefs.Initialize(tx, userID, user.Interests)
	})
	if err != nil {
		return persistenceError("reset user", err)
	}
	e.logger.Info().Int64("user_id", userID).Int("interests", len(declared)).Msg("User preferences reset")
	return nil
}

// KeywordSearch returns items whose title or body contains keyword,
// ignoring case and accents. Title matches come first, then body-only
// matches, each newest first.
func (e *Engine) KeywordSearch(ctx context.Context, keyword string, limit int) ([]Item, error) {
	keyword = strings.TrimSpace(keyword)
	if keyword == "" {
		return nil, fmt.Errorf("%w: keyword is required", ErrValidation)
	}
	limit, err := e.resolveN("limit", limit)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	defer func() { metrics.RecordSimilarityQuery("keyword", time.Since(start)) }()

	var titleHits, bodyHits []Item
	err = e.repo.View(ctx, func(tx Tx) error {
		items, err := tx.AllItems()
		if err != nil {
			return err
		}
		for i := range items {
			switch {
			case textutil.ContainsFold(items[i].Title, keyword):
				titleHits = append(titleHits, items[i])
			case textutil.ContainsFold(items[i].Content, keyword):
				bodyHits = append(bodyHits, items[i])
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("keyword search: %w", err)
	}

	SortByRecency(titleHits)
	SortByRecency(bodyHits)
	out := append(titleHits, bodyHits...) //nolint:gocritic // titleHits is not reused
	if len(out) > limit {
		out = out[:limit]
	}
	if out == nil {
		out = []Item{}
	}
	return out, nil
}

// AddItem validates and stores a new corpus item. The index picks it up
// at the next fit.
func (e *Engine) AddItem(ctx context.Context, item Item) (Item, error) {
	if !item.Category.Valid() {
		return Item{}, fmt.Errorf("%w: unknown category %q", ErrValidation, item.Category)
	}
	if c := item.Confidence; c != nil && (math.IsNaN(*c) || *c < 0 || *c > 1) {
		return Item{}, fmt.Errorf("%w: confidence must be in [0,1], got %v", ErrValidation, *c)
	}
	if strings.TrimSpace(item.Title) == "" && strings.TrimSpace(item.Content) == "" {
		return Item{}, fmt.Errorf("%w: item has no text", ErrValidation)
	}
	if item.PublishedAt.IsZero() {
		item.PublishedAt = e.now()
	}
	item.ID = 0
	item.ShownCount = 0
	item.ReactionCount = 0

	var created Item
	err := e.repo.Update(ctx, func(tx Tx) error {
		var err error
		created, err = tx.CreateItem(item)
		return err
	})
	if err != nil {
		return Item{}, persistenceError("add item", err)
	}
	return created, nil
}

// Item returns a corpus item.
func (e *Engine) Item(ctx context.Context, itemID int64) (Item, error) {
	var it Item
	err := e.repo.View(ctx, func(tx Tx) error {
		var err error
		it, err = tx.GetItem(itemID)
		return err
	})
	return it, err
}

// Stats returns the user's engagement statistics.
func (e *Engine) Stats(ctx context.Context, userID int64) (UserStats, error) {
	var stats UserStats
	err := e.repo.View(ctx, func(tx Tx) error {
		if _, err := tx.GetUser(userID); err != nil {
			return err
		}
		var err error
		stats, err = tx.GetStats(userID)
		return err
	})
	if err != nil {
		return UserStats{}, fmt.Errorf("stats: %w", err)
	}
	return stats, nil
}

// Preferences returns one weight record per category, sorted by category.
// Categories without a stored record report the default weight.
func (e *Engine) Preferences(ctx context.Context, userID int64) ([]PreferenceWeight, error) {
	var out []PreferenceWeight
	err := e.repo.View(ctx, func(tx Tx) error {
		if _, err := tx.GetUser(userID); err != nil {
			return err
		}
		stored, err := tx.Preferences(userID)
		if err != nil {
			return err
		}
		for _, c := range allCategories {
			pw, ok := stored[c]
			if !ok {
				pw = e.prefs.Default(userID, c)
			}
			out = append(out, pw)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("preferences: %w", err)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Category < out[j].Category })
	return out, nil
}

// Interactions returns the user's most recent reactions, newest first.
// limit of zero returns all of them.
func (e *Engine) Interactions(ctx context.Context, userID int64, limit int) ([]Interaction, error) {
	if limit < 0 {
		return nil, fmt.Errorf("%w: limit must be non-negative, got %d", ErrValidation, limit)
	}
	var out []Interaction
	err := e.repo.View(ctx, func(tx Tx) error {
		if _, err := tx.GetUser(userID); err != nil {
			return err
		}
		var err error
		out, err = tx.Interactions(userID, limit)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("interactions: %w", err)
	}
	return out, nil
}

func validateCategories(cats []Category) error {
	for _, c := range cats {
		if !c.Valid() {
			return fmt.Errorf("%w: unknown category %q", ErrValidation, c)
		}
	}
	return nil
}

func dedupeCategories(cats []Category) []Category {
	seen := make(map[Category]struct{}, len(cats))
	out := make([]Category, 0, len(cats))
	for _, c := range cats {
		if _, ok := seen[c]; ok {
			continue
		}
		seen[c] = struct{}{}
		out = append(out, c)
	}
	return out
}
