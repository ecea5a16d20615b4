// Newsrec - Personalized News Recommendation and Retrieval Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/newsrec

package recommend

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/tomtom215/newsrec/internal/metrics"
)

// Refresher receives proactive cache refresh requests.
//
// The service wires an event publisher here so refreshes run outside the
// reaction path; tests and embedded uses can refresh synchronously.
//
// reactions is the user's reaction total that triggered the request, or
// zero when the request did not come from a reaction.
type Refresher interface {
	RequestRefresh(ctx context.Context, userID, reactions int64) error
}

// RefresherFunc adapts a function to the Refresher interface.
type RefresherFunc func(ctx context.Context, userID, reactions int64) error

// RequestRefresh calls f.
func (f RefresherFunc) RequestRefresh(ctx context.Context, userID, reactions int64) error {
	return f(ctx, userID, reactions)
}

// FeedbackProcessor applies reaction events.
type FeedbackProcessor struct {
	repo      Repository
	prefs     *PreferenceStore
	cfg       FeedbackConfig
	locks     *userLocks
	refresher Refresher
	now       func() time.Time
	logger    zerolog.Logger
}

//nolint:gocritic // zerolog.Logger is designed to be passed by value
func newFeedbackProcessor(repo Repository, prefs *PreferenceStore, cfg FeedbackConfig, locks *userLocks, refresher Refresher, now func() time.Time, logger zerolog.Logger) *FeedbackProcessor {
	return &FeedbackProcessor{
		repo:      repo,
		prefs:     prefs,
		cfg:       cfg,
		locks:     locks,
		refresher: refresher,
		now:       now,
		logger:    logger.With().Str("component", "feedback").Logger(),
	}
}

// RecordReaction applies one reaction as a single transaction: preference
// update, interaction record, item counters and user statistics. Every
// RefreshEvery-th reaction of the user then requests a cache refresh.
//
// A zero latency means the latency is unknown.
func (p *FeedbackProcessor) RecordReaction(ctx context.Context, userID, itemID int64, reaction Reaction, latency time.Duration) error {
	if _, ok := reaction.Reward(); !ok {
		metrics.ReactionErrors.WithLabelValues("validation").Inc()
		return fmt.Errorf("%w: unknown reaction %q", ErrValidation, reaction)
	}
	if latency < 0 {
		metrics.ReactionErrors.WithLabelValues("validation").Inc()
		return fmt.Errorf("%w: negative latency %v", ErrValidation, latency)
	}

	unlock := p.locks.Lock(userID)
	stats, pw, err := p.apply(ctx, userID, itemID, reaction, latency)
	unlock()

	if err != nil {
		switch {
		case errors.Is(err, ErrNotFound):
			metrics.ReactionErrors.WithLabelValues("not_found").Inc()
		case errors.Is(err, ErrValidation):
			metrics.ReactionErrors.WithLabelValues("validation").Inc()
		default:
			metrics.ReactionErrors.WithLabelValues("persistence").Inc()
		}
		return persistenceError("record reaction", err)
	}

	metrics.ReactionsTotal.WithLabelValues(string(reaction)).Inc()

	p.logger.Debug().
		Int64("user_id", userID).
		Int64("item_id", itemID).
		Str("reaction", string(reaction)).
		Str("category", string(pw.Category)).
		Float64("weight", pw.Weight).
		Int64("total_reactions", stats.TotalReactions).
		Msg("Reaction recorded")

	if p.refresher != nil && p.cfg.RefreshEvery > 0 && stats.TotalReactions%p.cfg.RefreshEvery == 0 {
		metrics.RefreshRequests.Inc()
		if err := p.refresher.RequestRefresh(ctx, userID, stats.TotalReactions); err != nil {
			// The reaction is committed; the next staleness check catches up.
			p.logger.Warn().Err(err).Int64("user_id", userID).Msg("Cache refresh request failed")
		}
	}

	return nil
}

func (p *FeedbackProcessor) apply(ctx context.Context, userID, itemID int64, reaction Reaction, latency time.Duration) (UserStats, PreferenceWeight, error) {
	var (
		stats UserStats
		pw    PreferenceWeight
	)
	err := p.repo.Update(ctx, func(tx Tx) error {
		now := p.now()

		user, err := tx.GetUser(userID)
		if err != nil {
			return fmt.Errorf("user %d: %w", userID, err)
		}
		item, err := tx.GetItem(itemID)
		if err != nil {
			return fmt.Errorf("item %d: %w", itemID, err)
		}

		pw, err = p.prefs.ApplyFeedback(tx, userID, item.Category, reaction, item.Confidence)
		if err != nil {
			return err
		}

		if err := tx.AppendInteraction(Interaction{
			ID:        uuid.NewString(),
			UserID:    userID,
			ItemID:    itemID,
			Category:  item.Category,
			Reaction:  reaction,
			Latency:   latency,
			CreatedAt: now,
		}); err != nil {
			return fmt.Errorf("append interaction: %w", err)
		}

		if err := tx.IncrementItemCounters(itemID, 1, 1); err != nil {
			return fmt.Errorf("increment item counters: %w", err)
		}

		stats, err = tx.GetStats(userID)
		if err != nil {
			return fmt.Errorf("load stats: %w", err)
		}
		stats = UpdateStats(stats, userID, reaction, latency, p.cfg.LatencySmoothing, now)
		if err := tx.PutStats(stats); err != nil {
			return fmt.Errorf("store stats: %w", err)
		}

		user.LastActive = now
		if err := tx.PutUser(user); err != nil {
			return fmt.Errorf("touch user: %w", err)
		}
		return nil
	})
	return stats, pw, err
}

// UpdateStats folds one reaction into a user's aggregate statistics.
//
// The average latency is an EMA with factor alpha, seeded with the first
// known latency; zero latencies leave it untouched.
//
//nolint:gocritic // UserStats passed by value, returned updated
func UpdateStats(s UserStats, userID int64, reaction Reaction, latency time.Duration, alpha float64, now time.Time) UserStats {
	s.UserID = userID
	s.TotalShown++
	s.TotalReactions++

	switch reaction {
	case ReactionLike:
		s.Likes++
	case ReactionDislike:
		s.Dislikes++
	case ReactionSkip:
		s.Skips++
	}

	if s.TotalShown > 0 {
		s.EngagementRate = float64(s.Likes+s.Dislikes) / float64(s.TotalShown)
	}

	if latency > 0 {
		if s.AvgLatency == 0 {
			s.AvgLatency = latency
		} else {
			s.AvgLatency = time.Duration(alpha*float64(latency) + (1-alpha)*float64(s.AvgLatency))
		}
	}

	s.UpdatedAt = now
	return s
}
