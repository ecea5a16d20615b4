// Newsrec - Personalized News Recommendation and Retrieval Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/newsrec

package config

import (
	"net"
	"strconv"
	"time"

	"github.com/tomtom215/newsrec/internal/backup"
	"github.com/tomtom215/newsrec/internal/events"
	"github.com/tomtom215/newsrec/internal/logging"
	"github.com/tomtom215/newsrec/internal/recommend"
	"github.com/tomtom215/newsrec/internal/store"
)

// Config holds all application configuration loaded from defaults, an
// optional YAML file and environment variables.
//
// Configuration Loading Order (Koanf v2):
//  1. Defaults: Built-in defaults for every setting
//  2. Config File: Optional YAML config file (config.yaml or CONFIG_PATH)
//  3. Environment Variables: Override any mapped setting
//
// Config is immutable after Load() and safe for concurrent read access.
type Config struct {
	Server    ServerConfig       `koanf:"server"`
	Storage   store.BadgerConfig `koanf:"storage"`
	Logging   logging.Config     `koanf:"logging"`
	Recommend RecommendConfig    `koanf:"recommend"`
	Index     IndexConfig        `koanf:"index"`
	Scheduler SchedulerConfig    `koanf:"scheduler"`
	Session   SessionConfig      `koanf:"session"`
	Events    events.Config      `koanf:"events"`
	Backup    backup.Config      `koanf:"backup"`
}

// ServerConfig holds HTTP server settings.
//
// Environment Variables:
//   - HTTP_HOST, HTTP_PORT
//   - HTTP_READ_TIMEOUT, HTTP_WRITE_TIMEOUT, HTTP_IDLE_TIMEOUT
//   - HTTP_SHUTDOWN_TIMEOUT
//   - CORS_ORIGINS: Comma-separated allowed origins (default: *)
//   - RATE_LIMIT_REQUESTS, RATE_LIMIT_WINDOW, DISABLE_RATE_LIMIT
type ServerConfig struct {
	Host              string        `koanf:"host"`
	Port              int           `koanf:"port"`
	ReadTimeout       time.Duration `koanf:"read_timeout"`
	WriteTimeout      time.Duration `koanf:"write_timeout"`
	IdleTimeout       time.Duration `koanf:"idle_timeout"`
	ShutdownTimeout   time.Duration `koanf:"shutdown_timeout"`
	CORSOrigins       []string      `koanf:"cors_origins"`
	RateLimitRequests int           `koanf:"rate_limit_requests"`
	RateLimitWindow   time.Duration `koanf:"rate_limit_window"`
	RateLimitDisabled bool          `koanf:"rate_limit_disabled"`
}

// RecommendConfig holds the personalization engine tunables.
//
// Environment Variables:
//   - RECOMMEND_TAU: Preference decay time constant (default: 720h)
//   - RECOMMEND_LEARNING_RATE: Update step eta (default: 0.15)
//   - RECOMMEND_CONFIDENCE_THRESHOLD, RECOMMEND_CONFIDENCE_BOOST
//   - RECOMMEND_DEFAULT_WEIGHT, RECOMMEND_DECLARED_WEIGHT, RECOMMEND_UNDECLARED_WEIGHT
//   - RECOMMEND_CACHE_STALENESS: Score cache lifetime (default: 30m)
//   - RECOMMEND_LOOKBACK: Candidate freshness window (default: 72h)
//   - RECOMMEND_DIVERSITY: Default diversity factor (default: 0.2)
//   - RECOMMEND_REFRESH_EVERY: Refresh the cache every Kth reaction (default: 5)
//   - RECOMMEND_SEED: Diversity sampling seed (default: 42)
type RecommendConfig struct {
	Tau                 time.Duration `koanf:"tau"`
	LearningRate        float64       `koanf:"learning_rate"`
	ConfidenceThreshold float64       `koanf:"confidence_threshold"`
	ConfidenceBoost     float64       `koanf:"confidence_boost"`
	DefaultWeight       float64       `koanf:"default_weight"`
	DeclaredWeight      float64       `koanf:"declared_weight"`
	UndeclaredWeight    float64       `koanf:"undeclared_weight"`
	CacheStaleness      time.Duration `koanf:"cache_staleness"`
	Lookback            time.Duration `koanf:"lookback"`
	DefaultDiversity    float64       `koanf:"default_diversity"`
	CandidateMultiplier int           `koanf:"candidate_multiplier"`
	RefreshEvery        int64         `koanf:"refresh_every"`
	LatencySmoothing    float64       `koanf:"latency_smoothing"`
	MaxN                int           `koanf:"max_n"`
	DefaultN            int           `koanf:"default_n"`
	Seed                int64         `koanf:"seed"`
}

// IndexConfig holds similarity index settings.
type IndexConfig struct {
	MaxFeatures     int           `koanf:"max_features"`
	NGramMax        int           `koanf:"ngram_max"`
	MinSimilarity   float64       `koanf:"min_similarity"`
	// StopwordsFile is the corpus-specific stopword list. Empty uses the
	// embedded generic English and Russian list.
	StopwordsFile   string        `koanf:"stopwords_file"`
	RebuildInterval time.Duration `koanf:"rebuild_interval"`
	RebuildBurst    int           `koanf:"rebuild_burst"`
}

// SchedulerConfig holds the cron specs of background maintenance jobs.
// Specs accept the standard five-field syntax and descriptors such as
// "@every 30m". An empty spec disables the job.
type SchedulerConfig struct {
	Enabled          bool   `koanf:"enabled"`
	Timezone         string `koanf:"timezone"`
	IndexRebuild     string `koanf:"index_rebuild"`
	CacheRefreshAll  string `koanf:"cache_refresh_all"`
	StorageGC        string `koanf:"storage_gc"`
	RebuildOnStartup bool   `koanf:"rebuild_on_startup"`
}

// SessionConfig bounds the reading session store.
type SessionConfig struct {
	Capacity int           `koanf:"capacity"`
	TTL      time.Duration `koanf:"ttl"`
	PageSize int           `koanf:"page_size"`
}

// defaultConfig returns a Config struct with all default values.
// These defaults are applied first, then overridden by config file and env vars.
func defaultConfig() *Config {
	engine := recommend.DefaultConfig()
	return &Config{
		Server: ServerConfig{
			Host:              "0.0.0.0",
			Port:              8080,
			ReadTimeout:       15 * time.Second,
			WriteTimeout:      30 * time.Second,
			IdleTimeout:       60 * time.Second,
			ShutdownTimeout:   10 * time.Second,
			CORSOrigins:       []string{"*"},
			RateLimitRequests: 100,
			RateLimitWindow:   time.Minute,
		},
		Storage: store.DefaultBadgerConfig(),
		Logging: logging.DefaultConfig(),
		Recommend: RecommendConfig{
			Tau:                 engine.Preference.Tau,
			LearningRate:        engine.Preference.LearningRate,
			ConfidenceThreshold: engine.Preference.ConfidenceThreshold,
			ConfidenceBoost:     engine.Preference.ConfidenceBoost,
			DefaultWeight:       engine.Preference.DefaultWeight,
			DeclaredWeight:      engine.Preference.DeclaredWeight,
			UndeclaredWeight:    engine.Preference.UndeclaredWeight,
			CacheStaleness:      engine.Cache.Staleness,
			Lookback:            engine.Cache.Lookback,
			DefaultDiversity:    engine.Ranker.DefaultDiversity,
			CandidateMultiplier: engine.Ranker.CandidateMultiplier,
			RefreshEvery:        engine.Feedback.RefreshEvery,
			LatencySmoothing:    engine.Feedback.LatencySmoothing,
			MaxN:                engine.Limits.MaxN,
			DefaultN:            engine.Limits.DefaultN,
			Seed:                engine.Seed,
		},
		Index: IndexConfig{
			MaxFeatures:     engine.Index.MaxFeatures,
			NGramMax:        engine.Index.NGramMax,
			MinSimilarity:   engine.Search.MinSimilarity,
			RebuildInterval: engine.Index.RebuildInterval,
			RebuildBurst:    engine.Index.RebuildBurst,
		},
		Scheduler: SchedulerConfig{
			Enabled:          true,
			Timezone:         "UTC",
			IndexRebuild:     "@every 30m",
			CacheRefreshAll:  "@every 10m",
			StorageGC:        "@every 1h",
			RebuildOnStartup: true,
		},
		Session: SessionConfig{
			Capacity: 10000,
			TTL:      30 * time.Minute,
			PageSize: 5,
		},
		Events: events.DefaultConfig(),
		Backup: backup.DefaultConfig(),
	}
}

// EngineConfig maps the recommend and index sections onto the engine's
// own configuration type.
func (c *Config) EngineConfig() recommend.Config {
	r := c.Recommend
	return recommend.Config{
		Preference: recommend.PreferenceConfig{
			Tau:                 r.Tau,
			LearningRate:        r.LearningRate,
			ConfidenceThreshold: r.ConfidenceThreshold,
			ConfidenceBoost:     r.ConfidenceBoost,
			DefaultWeight:       r.DefaultWeight,
			DeclaredWeight:      r.DeclaredWeight,
			UndeclaredWeight:    r.UndeclaredWeight,
		},
		Cache: recommend.CacheConfig{
			Staleness: r.CacheStaleness,
			Lookback:  r.Lookback,
		},
		Ranker: recommend.RankerConfig{
			DefaultDiversity:    r.DefaultDiversity,
			CandidateMultiplier: r.CandidateMultiplier,
		},
		Feedback: recommend.FeedbackConfig{
			RefreshEvery:     r.RefreshEvery,
			LatencySmoothing: r.LatencySmoothing,
		},
		Search: recommend.SearchConfig{
			MinSimilarity: c.Index.MinSimilarity,
		},
		Index: recommend.IndexConfig{
			MaxFeatures:     c.Index.MaxFeatures,
			NGramMax:        c.Index.NGramMax,
			StopwordsFile:   c.Index.StopwordsFile,
			RebuildInterval: c.Index.RebuildInterval,
			RebuildBurst:    c.Index.RebuildBurst,
		},
		Limits: recommend.LimitsConfig{
			MaxN:     r.MaxN,
			DefaultN: r.DefaultN,
		},
		Seed: r.Seed,
	}
}

// Addr returns the host:port listen address.
func (s ServerConfig) Addr() string {
	return net.JoinHostPort(s.Host, strconv.Itoa(s.Port))
}
