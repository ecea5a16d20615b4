// Newsrec - Personalized News Recommendation and Retrieval Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/newsrec

// Package recommend implements personalized news ranking and feedback
// learning over a shared item corpus.
//
// # Architecture
//
// The engine is a small pipeline of components sharing one Repository:
//
//   - PreferenceStore: per-(user, category) weights moved by a decaying
//     update law
//   - ScoringFunction: weight plus confidence, popularity and freshness terms
//   - RecommendationCache: per-user scored candidate sets replaced
//     wholesale when stale
//   - Ranker: top-n selection with an exploratory tail and a recency
//     fallback
//   - FeedbackProcessor: one transaction per reaction, with a refresh
//     request every Kth reaction
//
// Textual similarity is served by the index package and is
// personalization-free.
//
// # Update Law
//
//	w' = clamp(w*exp(-dt/tau) + eta*(reward-0.5), 0, 1)
//
// with reward 1 for like, 0.5 for skip and 0 for dislike. eta is amplified
// for items classified with high confidence.
//
// # Usage
//
//	engine, err := recommend.NewEngine(recommend.DefaultConfig(), repo, logger)
//	if err != nil {
//	    return err
//	}
//	items, err := engine.Recommend(ctx, userID, 5, 0.2)
//	err = engine.React(ctx, userID, items[0].ID, recommend.ReactionLike, 3*time.Second)
//
// # Thread Safety
//
// The engine is safe for concurrent use. Work for one user is serialized
// by a per-user lock; different users proceed in parallel and rely on the
// repository's transactions for isolation.
//
// # Errors
//
// Callers classify failures with errors.Is against ErrNotFound,
// ErrValidation and ErrPersistence. Stale caches and an unbuilt index are
// never errors; they are rebuilt on demand.
package recommend
