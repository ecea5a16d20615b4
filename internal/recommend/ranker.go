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
	"math/rand"
	"sync"

	"github.com/rs/zerolog"
)

// Selection sources reported with each ranked list.
const (
	SourceCache    = "cache"
	SourceFallback = "fallback"
)

// Ranker draws the final recommendation list from the score cache.
type Ranker struct {
	cache  *RecommendationCache
	repo   Repository
	cfg    RankerConfig
	logger zerolog.Logger

	// rng drives exploration sampling; guarded by rngMu.
	rng   *rand.Rand
	rngMu sync.Mutex
}

// NewRanker creates a ranker seeded with seed.
//
//nolint:gocritic // zerolog.Logger is designed to be passed by value
func NewRanker(cache *RecommendationCache, repo Repository, cfg RankerConfig, seed int64, logger zerolog.Logger) *Ranker {
	return &Ranker{
		cache:  cache,
		repo:   repo,
		cfg:    cfg,
		logger: logger.With().Str("component", "ranker").Logger(),
		//nolint:gosec // G404: sampling does not need cryptographic randomness
		rng: rand.New(rand.NewSource(seed)),
	}
}

// Select returns at most n distinct items for the user together with the
// source they came from. With diversity zero the result is exactly the top
// n cached candidates in score order. When the cache has nothing servable
// the most recent unseen items are returned instead.
func (r *Ranker) Select(ctx context.Context, userID int64, n int, diversity float64) ([]Item, string, error) {
	cands, err := r.cache.Top(ctx, userID, n*r.cfg.CandidateMultiplier)
	if err != nil {
		return nil, "", err
	}

	var (
		items  []Item
		source = SourceCache
	)
	err = r.repo.View(ctx, func(tx Tx) error {
		seen, err := tx.SeenItems(userID)
		if err != nil {
			return fmt.Errorf("load seen items: %w", err)
		}

		pool := make([]Item, 0, len(cands))
		for _, c := range cands {
			if seen.Has(c.ItemID) {
				continue
			}
			it, err := tx.GetItem(c.ItemID)
			if errors.Is(err, ErrNotFound) {
				continue
			}
			if err != nil {
				return fmt.Errorf("get item %d: %w", c.ItemID, err)
			}
			pool = append(pool, it)
		}

		if len(pool) > 0 {
			for _, i := range r.pick(len(pool), n, diversity) {
				items = append(items, pool[i])
			}
			return nil
		}

		source = SourceFallback
		items, err = tx.LatestItems(n, seen)
		if err != nil {
			return fmt.Errorf("load latest items: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, "", err
	}

	r.logger.Debug().
		Int64("user_id", userID).
		Int("requested", n).
		Int("returned", len(items)).
		Int("candidates", len(cands)).
		Float64("diversity", diversity).
		Str("source", source).
		Msg("Recommendations selected")

	return items, source, nil
}

// pick returns indices into a score-ordered pool of size total.
//
// The first floor(n*(1-diversity)) slots are the top of the pool; the rest
// are sampled uniformly without replacement from what remains. When the
// pool has no more than n entries, or diversity is zero, it is the plain
// top-n prefix.
func (r *Ranker) pick(total, n int, diversity float64) []int {
	if n <= 0 || total <= 0 {
		return nil
	}
	if diversity <= 0 || total <= n {
		k := min(n, total)
		out := make([]int, k)
		for i := range out {
			out[i] = i
		}
		return out
	}

	prefix := int(math.Floor(float64(n) * (1 - diversity)))
	if prefix > n {
		prefix = n
	}
	out := make([]int, 0, n)
	for i := 0; i < prefix; i++ {
		out = append(out, i)
	}

	remainder := total - prefix
	need := min(n-prefix, remainder)

	r.rngMu.Lock()
	perm := r.rng.Perm(remainder)
	r.rngMu.Unlock()

	for _, p := range perm[:need] {
		out = append(out, prefix+p)
	}
	return out
}
