// Newsrec - Personalized News Recommendation and Retrieval Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/newsrec

package recommend

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/tomtom215/newsrec/internal/metrics"
)

// RecommendationCache materializes per-user scored candidate sets.
//
// A user's rows are replaced wholesale inside one repository transaction,
// so readers see either the previous set or the new one. Callers serialize
// per user; the cache itself takes no locks.
type RecommendationCache struct {
	repo   Repository
	prefs  *PreferenceStore
	cfg    CacheConfig
	now    func() time.Time
	logger zerolog.Logger
}

// NewRecommendationCache creates a cache over repo.
//
//nolint:gocritic // zerolog.Logger is designed to be passed by value
func NewRecommendationCache(repo Repository, prefs *PreferenceStore, cfg CacheConfig, now func() time.Time, logger zerolog.Logger) *RecommendationCache {
	if now == nil {
		now = time.Now
	}
	return &RecommendationCache{
		repo:   repo,
		prefs:  prefs,
		cfg:    cfg,
		now:    now,
		logger: logger.With().Str("component", "score-cache").Logger(),
	}
}

// EnsureFresh recomputes the user's rows when they are absent or older than
// the staleness window. It reports whether a recompute happened.
func (c *RecommendationCache) EnsureFresh(ctx context.Context, userID int64) (bool, error) {
	recomputed := false
	err := c.repo.Update(ctx, func(tx Tx) error {
		computedAt, ok, err := tx.ScoresComputedAt(userID)
		if err != nil {
			return fmt.Errorf("read computed-at: %w", err)
		}
		if ok && c.now().Sub(computedAt) < c.cfg.Staleness {
			return nil
		}
		recomputed = true
		return c.recompute(tx, userID)
	})
	if err != nil {
		return false, persistenceError("ensure fresh", err)
	}
	return recomputed, nil
}

// Refresh recomputes the user's rows regardless of staleness.
func (c *RecommendationCache) Refresh(ctx context.Context, userID int64) error {
	err := c.repo.Update(ctx, func(tx Tx) error {
		return c.recompute(tx, userID)
	})
	return persistenceError("refresh", err)
}

// Top returns up to n cached candidates in descending score order,
// recomputing first when the rows are missing or stale.
func (c *RecommendationCache) Top(ctx context.Context, userID int64, n int) ([]ScoredCandidate, error) {
	if _, err := c.EnsureFresh(ctx, userID); err != nil {
		return nil, err
	}

	var out []ScoredCandidate
	err := c.repo.View(ctx, func(tx Tx) error {
		var err error
		out, err = tx.TopScores(userID, n)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("read top scores: %w", err)
	}
	return out, nil
}

// recompute scores every fresh unseen item and replaces the user's rows.
func (c *RecommendationCache) recompute(tx Tx, userID int64) (err error) {
	start := time.Now()
	stored := 0
	defer func() {
		metrics.RecordCacheRecompute(time.Since(start), stored, err)
	}()

	now := c.now()

	weights, err := c.prefs.Weights(tx, userID)
	if err != nil {
		return err
	}

	seen, err := tx.SeenItems(userID)
	if err != nil {
		return fmt.Errorf("load seen items: %w", err)
	}

	items, err := tx.ItemsSince(now.Add(-c.cfg.Lookback), seen)
	if err != nil {
		return fmt.Errorf("load fresh items: %w", err)
	}

	cands := ScoreCandidates(userID, weights, c.prefs.cfg.DefaultWeight, items, seen, now)
	if err := tx.ReplaceScores(userID, cands, now); err != nil {
		return fmt.Errorf("replace scores: %w", err)
	}
	stored = len(cands)

	c.logger.Debug().
		Int64("user_id", userID).
		Int("fresh_items", len(items)).
		Int("candidates", stored).
		Dur("duration", time.Since(start)).
		Msg("Score cache recomputed")

	return nil
}
