// Newsrec - Personalized News Recommendation and Retrieval Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/newsrec

package recommend

import (
	"fmt"
	"time"
)

// Config contains all tunables of the personalization engine.
type Config struct {
	// Preference controls the per-category update law.
	Preference PreferenceConfig `json:"preference"`

	// Cache controls the precomputed score cache.
	Cache CacheConfig `json:"cache"`

	// Ranker controls candidate selection.
	Ranker RankerConfig `json:"ranker"`

	// Feedback controls reaction processing side effects.
	Feedback FeedbackConfig `json:"feedback"`

	// Search controls similarity lookups.
	Search SearchConfig `json:"search"`

	// Index controls the similarity index build.
	Index IndexConfig `json:"index"`

	// Limits contains operational limits.
	Limits LimitsConfig `json:"limits"`

	// Seed is the random seed for diversity sampling.
	// If zero, a fixed default seed is used.
	Seed int64 `json:"seed"`
}

// PreferenceConfig holds the decay law parameters.
type PreferenceConfig struct {
	// Tau is the decay time constant applied to the elapsed time since the
	// last update.
	Tau time.Duration `json:"tau"`

	// LearningRate is eta in the update law.
	LearningRate float64 `json:"learning_rate"`

	// ConfidenceThreshold is the item classification confidence above which
	// the learning rate is amplified by ConfidenceBoost.
	ConfidenceThreshold float64 `json:"confidence_threshold"`

	// ConfidenceBoost multiplies the learning rate for high confidence items.
	// 1 disables the amplification.
	ConfidenceBoost float64 `json:"confidence_boost"`

	// DefaultWeight is used for absent records.
	DefaultWeight float64 `json:"default_weight"`

	// DeclaredWeight and UndeclaredWeight seed the weights at registration.
	DeclaredWeight   float64 `json:"declared_weight"`
	UndeclaredWeight float64 `json:"undeclared_weight"`
}

// CacheConfig holds the score cache parameters.
type CacheConfig struct {
	// Staleness is how long a computed score set stays servable.
	Staleness time.Duration `json:"staleness"`

	// Lookback is the freshness window for candidate items.
	Lookback time.Duration `json:"lookback"`
}

// RankerConfig holds selection parameters.
type RankerConfig struct {
	// DefaultDiversity is used when the caller does not pass a factor.
	DefaultDiversity float64 `json:"default_diversity"`

	// CandidateMultiplier sets how many cached candidates are read per
	// requested slot.
	CandidateMultiplier int `json:"candidate_multiplier"`
}

// FeedbackConfig holds reaction processing parameters.
type FeedbackConfig struct {
	// RefreshEvery triggers a cache refresh every Nth reaction of a user.
	// Zero disables the trigger.
	RefreshEvery int64 `json:"refresh_every"`

	// LatencySmoothing is the EMA factor for the average reaction latency.
	LatencySmoothing float64 `json:"latency_smoothing"`
}

// SearchConfig holds similarity lookup parameters.
type SearchConfig struct {
	// MinSimilarity is the exclusive floor for free-text matches.
	MinSimilarity float64 `json:"min_similarity"`
}

// IndexConfig holds similarity index parameters.
type IndexConfig struct {
	// MaxFeatures bounds the vocabulary size.
	MaxFeatures int `json:"max_features"`

	// NGramMax is the longest n-gram indexed.
	NGramMax int `json:"ngram_max"`

	// StopwordsFile replaces the built-in stopword list when set. The
	// built-in list holds only generic English and Russian function words.
	StopwordsFile string `json:"stopwords_file"`

	// RebuildInterval and RebuildBurst throttle on-demand rebuilds.
	RebuildInterval time.Duration `json:"rebuild_interval"`
	RebuildBurst    int           `json:"rebuild_burst"`
}

// LimitsConfig holds request bounds.
type LimitsConfig struct {
	// MaxN caps recommend/similar/search result sizes.
	MaxN int `json:"max_n"`

	// DefaultN is used when the caller passes zero.
	DefaultN int `json:"default_n"`
}

// DefaultConfig returns the engine defaults.
func DefaultConfig() Config {
	return Config{
		Preference: PreferenceConfig{
			Tau:                 30 * 24 * time.Hour,
			LearningRate:        0.15,
			ConfidenceThreshold: 0.7,
			ConfidenceBoost:     1.5,
			DefaultWeight:       0.5,
			DeclaredWeight:      0.8,
			UndeclaredWeight:    0.3,
		},
		Cache: CacheConfig{
			Staleness: 30 * time.Minute,
			Lookback:  72 * time.Hour,
		},
		Ranker: RankerConfig{
			DefaultDiversity:    0.2,
			CandidateMultiplier: 2,
		},
		Feedback: FeedbackConfig{
			RefreshEvery:     5,
			LatencySmoothing: 0.2,
		},
		Search: SearchConfig{
			MinSimilarity: 0.1,
		},
		Index: IndexConfig{
			MaxFeatures:     1000,
			NGramMax:        2,
			RebuildInterval: time.Minute,
			RebuildBurst:    1,
		},
		Limits: LimitsConfig{
			MaxN:     100,
			DefaultN: 5,
		},
		Seed: 42,
	}
}

// Validate checks the configuration for errors.
//
//nolint:gocritic // Config passed by value for immutability
func (c Config) Validate() error {
	p := c.Preference
	if p.Tau <= 0 {
		return fmt.Errorf("preference.tau must be positive, got %v", p.Tau)
	}
	if p.LearningRate <= 0 || p.LearningRate > 1 {
		return fmt.Errorf("preference.learning_rate must be in (0,1], got %f", p.LearningRate)
	}
	if p.ConfidenceThreshold < 0 || p.ConfidenceThreshold > 1 {
		return fmt.Errorf("preference.confidence_threshold must be in [0,1], got %f", p.ConfidenceThreshold)
	}
	if p.ConfidenceBoost < 1 {
		return fmt.Errorf("preference.confidence_boost must be >= 1, got %f", p.ConfidenceBoost)
	}
	for name, w := range map[string]float64{
		"default_weight":    p.DefaultWeight,
		"declared_weight":   p.DeclaredWeight,
		"undeclared_weight": p.UndeclaredWeight,
	} {
		if w < 0 || w > 1 {
			return fmt.Errorf("preference.%s must be in [0,1], got %f", name, w)
		}
	}

	if c.Cache.Staleness <= 0 {
		return fmt.Errorf("cache.staleness must be positive, got %v", c.Cache.Staleness)
	}
	if c.Cache.Lookback <= 0 {
		return fmt.Errorf("cache.lookback must be positive, got %v", c.Cache.Lookback)
	}

	if c.Ranker.DefaultDiversity < 0 || c.Ranker.DefaultDiversity > 1 {
		return fmt.Errorf("ranker.default_diversity must be in [0,1], got %f", c.Ranker.DefaultDiversity)
	}
	if c.Ranker.CandidateMultiplier < 1 {
		return fmt.Errorf("ranker.candidate_multiplier must be >= 1, got %d", c.Ranker.CandidateMultiplier)
	}

	if c.Feedback.RefreshEvery < 0 {
		return fmt.Errorf("feedback.refresh_every must be non-negative, got %d", c.Feedback.RefreshEvery)
	}
	if c.Feedback.LatencySmoothing <= 0 || c.Feedback.LatencySmoothing > 1 {
		return fmt.Errorf("feedback.latency_smoothing must be in (0,1], got %f", c.Feedback.LatencySmoothing)
	}

	if c.Search.MinSimilarity < 0 || c.Search.MinSimilarity >= 1 {
		return fmt.Errorf("search.min_similarity must be in [0,1), got %f", c.Search.MinSimilarity)
	}

	if c.Index.MaxFeatures < 1 {
		return fmt.Errorf("index.max_features must be >= 1, got %d", c.Index.MaxFeatures)
	}
	if c.Index.NGramMax < 1 || c.Index.NGramMax > 3 {
		return fmt.Errorf("index.ngram_max must be in [1,3], got %d", c.Index.NGramMax)
	}
	if c.Index.RebuildInterval < 0 {
		return fmt.Errorf("index.rebuild_interval must be non-negative, got %v", c.Index.RebuildInterval)
	}

	if c.Limits.MaxN < 1 {
		return fmt.Errorf("limits.max_n must be >= 1, got %d", c.Limits.MaxN)
	}
	if c.Limits.DefaultN < 1 || c.Limits.DefaultN > c.Limits.MaxN {
		return fmt.Errorf("limits.default_n must be in [1,%d], got %d", c.Limits.MaxN, c.Limits.DefaultN)
	}

	return nil
}
