// Newsrec - Personalized News Recommendation and Retrieval Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/newsrec

/*
Package config provides centralized configuration management for Newsrec.

# Configuration Sources

Configuration is layered with Koanf v2, later sources winning:
  - Built-in defaults (defaultConfig)
  - Optional YAML file: config.yaml, config.yml, /etc/newsrec/config.yaml,
    or the file named by CONFIG_PATH
  - Environment variables mapped through an explicit table

.env files are loaded into the process environment by the binaries with
godotenv before Load runs, so they feed the environment layer.

# Configuration Structure

  - ServerConfig: HTTP listener, timeouts, CORS, request rate limit
  - store.BadgerConfig: storage directory and Badger options
  - logging.Config: level, format, caller
  - RecommendConfig: preference decay law, cache staleness, ranking limits
  - IndexConfig: TF-IDF vocabulary, similarity floor, rebuild throttle
  - SchedulerConfig: cron specs for maintenance jobs
  - SessionConfig: reading session store bounds
  - events.Config: refresh bus buffer, retry and dedup window
  - backup.Config: snapshot directory, schedule and retention

# Environment Variables

Server:
  - HTTP_HOST (default: 0.0.0.0), HTTP_PORT (default: 8080)
  - CORS_ORIGINS: comma-separated (default: *)
  - RATE_LIMIT_REQUESTS (default: 100), RATE_LIMIT_WINDOW (default: 1m)

Storage:
  - BADGER_PATH (default: /data/newsrec)
  - BADGER_IN_MEMORY, BADGER_SYNC_WRITES, BADGER_GC_RATIO
  - BADGER_CONFLICT_RETRIES (default: 10)

Engine:
  - RECOMMEND_TAU (default: 720h), RECOMMEND_LEARNING_RATE (default: 0.15)
  - RECOMMEND_CACHE_STALENESS (default: 30m), RECOMMEND_LOOKBACK (default: 72h)
  - RECOMMEND_REFRESH_EVERY (default: 5)
  - INDEX_MIN_SIMILARITY (default: 0.1)
  - INDEX_STOPWORDS_FILE (default: embedded generic English and Russian
    list; set it to the corpus's own list, which replaces the default)

Scheduler:
  - SCHEDULE_INDEX_REBUILD (default: @every 30m)
  - SCHEDULE_CACHE_REFRESH_ALL (default: @every 10m)
  - SCHEDULE_STORAGE_GC (default: @every 1h)
  - INDEX_REBUILD_ON_STARTUP (default: true)

Backups:
  - BACKUP_ENABLED (default: false), BACKUP_DIR (default: /data/backups)
  - BACKUP_SCHEDULE (default: @daily)
  - BACKUP_MIN_COUNT (default: 3), BACKUP_MAX_COUNT (default: 14), BACKUP_MAX_AGE (default: 336h)

# Usage Example

	cfg, err := config.Load()
	if err != nil {
	    log.Fatal(err)
	}
	engine, err := recommend.NewEngine(cfg.EngineConfig(), repo, logger)

# Validation

Load validates the result and fails on out-of-range ports, timeouts, rate
limits, engine parameters, unparsable cron specs or time zones, and an
unknown log level or format.

# Thread Safety

Config is immutable after Load() and safe for concurrent read access.
*/
package config
