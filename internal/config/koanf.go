// Newsrec - Personalized News Recommendation and Retrieval Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/newsrec

package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// DefaultConfigPaths lists the paths where config files are searched in order of priority.
// The first file found will be used.
var DefaultConfigPaths = []string{
	"config.yaml",
	"config.yml",
	"/etc/newsrec/config.yaml",
	"/etc/newsrec/config.yml",
}

// ConfigPathEnvVar is the environment variable that can override the config file path.
const ConfigPathEnvVar = "CONFIG_PATH"

// Load loads configuration using Koanf with layered sources:
//  1. Defaults: Built-in defaults
//  2. Config File: Optional YAML config file (if exists)
//  3. Environment Variables: Override any mapped setting
//
// Callers that want .env support load it into the process environment
// before calling Load.
func Load() (*Config, error) {
	k := koanf.New(".")

	// Layer 1: Load defaults from struct
	if err := k.Load(structs.Provider(defaultConfig(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	// Layer 2: Load config file (optional)
	if configPath := findConfigFile(); configPath != "" {
		if err := k.Load(file.Provider(configPath), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
	}

	// Layer 3: Load environment variables (highest priority)
	if err := k.Load(env.Provider("", ".", envTransformFunc), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	if err := processSliceFields(k); err != nil {
		return nil, fmt.Errorf("failed to process slice fields: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// findConfigFile searches for a config file in the default paths.
// Returns the path to the first file found, or empty string if none found.
func findConfigFile() string {
	if envPath := os.Getenv(ConfigPathEnvVar); envPath != "" {
		if _, err := os.Stat(envPath); err == nil {
			return envPath
		}
	}

	for _, path := range DefaultConfigPaths {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}

	return ""
}

// sliceConfigPaths defines which config paths should be parsed as comma-separated slices
var sliceConfigPaths = []string{
	"server.cors_origins",
}

// processSliceFields converts comma-separated string values to slices for known slice fields.
// Env vars arrive as strings while the config expects slices.
func processSliceFields(k *koanf.Koanf) error {
	for _, path := range sliceConfigPaths {
		strVal, ok := k.Get(path).(string)
		if !ok || strVal == "" {
			continue
		}

		parts := strings.Split(strVal, ",")
		trimmed := make([]string, 0, len(parts))
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				trimmed = append(trimmed, p)
			}
		}
		if len(trimmed) > 0 {
			if err := k.Set(path, trimmed); err != nil {
				return fmt.Errorf("failed to set %s: %w", path, err)
			}
		}
	}
	return nil
}

// envMappings maps lower-cased environment variable names to koanf paths.
var envMappings = map[string]string{
	// Server
	"http_host":             "server.host",
	"http_port":             "server.port",
	"http_read_timeout":     "server.read_timeout",
	"http_write_timeout":    "server.write_timeout",
	"http_idle_timeout":     "server.idle_timeout",
	"http_shutdown_timeout": "server.shutdown_timeout",
	"cors_origins":          "server.cors_origins",
	"rate_limit_requests":   "server.rate_limit_requests",
	"rate_limit_window":     "server.rate_limit_window",
	"disable_rate_limit":    "server.rate_limit_disabled",

	// Storage
	"badger_path":             "storage.path",
	"badger_in_memory":        "storage.in_memory",
	"badger_sync_writes":      "storage.sync_writes",
	"badger_compression":      "storage.compression",
	"badger_gc_ratio":         "storage.gc_ratio",
	"badger_conflict_retries": "storage.conflict_retries",

	// Logging
	"log_level":  "logging.level",
	"log_format": "logging.format",
	"log_caller": "logging.caller",

	// Recommendation engine
	"recommend_tau":                  "recommend.tau",
	"recommend_learning_rate":        "recommend.learning_rate",
	"recommend_confidence_threshold": "recommend.confidence_threshold",
	"recommend_confidence_boost":     "recommend.confidence_boost",
	"recommend_default_weight":       "recommend.default_weight",
	"recommend_declared_weight":      "recommend.declared_weight",
	"recommend_undeclared_weight":    "recommend.undeclared_weight",
	"recommend_cache_staleness":      "recommend.cache_staleness",
	"recommend_lookback":             "recommend.lookback",
	"recommend_diversity":            "recommend.default_diversity",
	"recommend_candidate_multiplier": "recommend.candidate_multiplier",
	"recommend_refresh_every":        "recommend.refresh_every",
	"recommend_latency_smoothing":    "recommend.latency_smoothing",
	"recommend_max_n":                "recommend.max_n",
	"recommend_default_n":            "recommend.default_n",
	"recommend_seed":                 "recommend.seed",

	// Similarity index
	"index_max_features":     "index.max_features",
	"index_ngram_max":        "index.ngram_max",
	"index_min_similarity":   "index.min_similarity",
	"index_stopwords_file":   "index.stopwords_file",
	"index_rebuild_interval": "index.rebuild_interval",
	"index_rebuild_burst":    "index.rebuild_burst",

	// Scheduler
	"scheduler_enabled":          "scheduler.enabled",
	"scheduler_timezone":         "scheduler.timezone",
	"schedule_index_rebuild":     "scheduler.index_rebuild",
	"schedule_cache_refresh_all": "scheduler.cache_refresh_all",
	"schedule_storage_gc":        "scheduler.storage_gc",
	"index_rebuild_on_startup":   "scheduler.rebuild_on_startup",

	// Reading sessions
	"session_capacity":  "session.capacity",
	"session_ttl":       "session.ttl",
	"session_page_size": "session.page_size",

	// Refresh event pipeline
	"events_buffer_size":         "events.buffer_size",
	"events_retry_max":           "events.retry_max_retries",
	"events_throttle_per_second": "events.throttle_per_second",
	"events_dedup_window":        "events.dedup_window",

	// Storage backups
	"backup_enabled":   "backup.enabled",
	"backup_dir":       "backup.dir",
	"backup_schedule":  "backup.schedule",
	"backup_min_count": "backup.retention.min_count",
	"backup_max_count": "backup.retention.max_count",
	"backup_max_age":   "backup.retention.max_age",
}

// envTransformFunc transforms environment variable names to koanf config paths.
//
// Examples:
//   - HTTP_PORT -> server.port
//   - BADGER_PATH -> storage.path
//   - RECOMMEND_TAU -> recommend.tau
//
// Unmapped variables return an empty key and are skipped.
func envTransformFunc(key string) string {
	return envMappings[strings.ToLower(key)]
}
