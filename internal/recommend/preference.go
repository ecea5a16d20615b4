// Newsrec - Personalized News Recommendation and Retrieval Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/newsrec

package recommend

import (
	"fmt"
	"math"
	"time"
)

// DecayWeight applies the preference update law:
//
//	w' = clamp(w*exp(-dt/tau) + eta*(reward-0.5), 0, 1)
//
// Negative elapsed times are treated as zero.
func DecayWeight(weight float64, dt, tau time.Duration, eta, reward float64) float64 {
	if dt < 0 {
		dt = 0
	}
	decayed := weight
	if dt > 0 {
		decayed = weight * math.Exp(-float64(dt)/float64(tau))
	}
	return clamp01(decayed + eta*(reward-0.5))
}

func clamp01(v float64) float64 {
	switch {
	case math.IsNaN(v):
		return 0
	case v < 0:
		return 0
	case v > 1:
		return 1
	default:
		return v
	}
}

// PreferenceStore reads and updates per-(user, category) weight records.
// It holds no state of its own; every call works inside the caller's Tx.
type PreferenceStore struct {
	cfg PreferenceConfig
	now func() time.Time
}

// NewPreferenceStore creates a store with the given law parameters.
func NewPreferenceStore(cfg PreferenceConfig, now func() time.Time) *PreferenceStore {
	if now == nil {
		now = time.Now
	}
	return &PreferenceStore{cfg: cfg, now: now}
}

// Default returns the record materialized for a pair that has never been
// written.
func (s *PreferenceStore) Default(userID int64, category Category) PreferenceWeight {
	return PreferenceWeight{
		UserID:   userID,
		Category: category,
		Weight:   s.cfg.DefaultWeight,
	}
}

// Get returns the record for (userID, category), or the default record
// when absent.
func (s *PreferenceStore) Get(tx Tx, userID int64, category Category) (PreferenceWeight, error) {
	prefs, err := tx.Preferences(userID)
	if err != nil {
		return PreferenceWeight{}, fmt.Errorf("load preferences: %w", err)
	}
	if pw, ok := prefs[category]; ok {
		return pw, nil
	}
	return s.Default(userID, category), nil
}

// Apply returns pw updated by one feedback event observed at now. It does
// not touch storage.
//
//nolint:gocritic // PreferenceWeight passed by value, returned updated
func (s *PreferenceStore) Apply(pw PreferenceWeight, reaction Reaction, confidence *float64, now time.Time) (PreferenceWeight, error) {
	reward, ok := reaction.Reward()
	if !ok {
		return pw, fmt.Errorf("%w: unknown reaction %q", ErrValidation, reaction)
	}

	var dt time.Duration
	if !pw.UpdatedAt.IsZero() {
		dt = now.Sub(pw.UpdatedAt)
	}

	eta := s.cfg.LearningRate
	if confidence != nil && *confidence > s.cfg.ConfidenceThreshold {
		eta *= s.cfg.ConfidenceBoost
	}

	pw.Weight = DecayWeight(pw.Weight, dt, s.cfg.Tau, eta, reward)

	switch reaction {
	case ReactionLike:
		pw.Positive++
	case ReactionDislike:
		pw.Negative++
	case ReactionSkip:
		pw.Neutral++
	}
	pw.TotalShown++
	if total := pw.Positive + pw.Negative + pw.Neutral; total > 0 {
		pw.Confidence = float64(pw.Positive) / float64(total)
	}
	pw.UpdatedAt = now

	return pw, nil
}

// ApplyFeedback loads, updates and persists the weight for one reaction.
func (s *PreferenceStore) ApplyFeedback(tx Tx, userID int64, category Category, reaction Reaction, confidence *float64) (PreferenceWeight, error) {
	pw, err := s.Get(tx, userID, category)
	if err != nil {
		return PreferenceWeight{}, err
	}

	updated, err := s.Apply(pw, reaction, confidence, s.now())
	if err != nil {
		return PreferenceWeight{}, err
	}

	if err := tx.UpsertPreference(updated); err != nil {
		return PreferenceWeight{}, fmt.Errorf("upsert preference: %w", err)
	}
	return updated, nil
}

// Initialize writes one record per category, using the declared weight for
// declared interests and the undeclared weight for the rest.
func (s *PreferenceStore) Initialize(tx Tx, userID int64, declared []Category) error {
	isDeclared := make(map[Category]bool, len(declared))
	for _, c := range declared {
		isDeclared[c] = true
	}

	for _, c := range allCategories {
		w := s.cfg.UndeclaredWeight
		if isDeclared[c] {
			w = s.cfg.DeclaredWeight
		}
		if err := tx.UpsertPreference(PreferenceWeight{
			UserID:   userID,
			Category: c,
			Weight:   w,
		}); err != nil {
			return fmt.Errorf("initialize %s: %w", c, err)
		}
	}
	return nil
}

// Weights returns the user's weight per category, filling absent
// categories with the default weight.
func (s *PreferenceStore) Weights(tx Tx, userID int64) (map[Category]float64, error) {
	prefs, err := tx.Preferences(userID)
	if err != nil {
		return nil, fmt.Errorf("load preferences: %w", err)
	}
	out := make(map[Category]float64, len(allCategories))
	for _, c := range allCategories {
		out[c] = s.cfg.DefaultWeight
	}
	for c, pw := range prefs {
		out[c] = pw.Weight
	}
	return out, nil
}
