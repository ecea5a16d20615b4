// Newsrec - Personalized News Recommendation and Retrieval Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/newsrec

package config

import (
	"fmt"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/tomtom215/newsrec/internal/logging"
)

// Rate limit constants
const (
	minRateLimitRequests = 1
	maxRateLimitRequests = 100000
	minRateLimitWindow   = time.Second
	maxRateLimitWindow   = time.Hour
)

// Validate checks that the configuration is complete and consistent.
func (c *Config) Validate() error {
	if err := c.validateServer(); err != nil {
		return err
	}
	if err := c.validateStorage(); err != nil {
		return err
	}
	if err := c.validateLogging(); err != nil {
		return err
	}
	if err := c.EngineConfig().Validate(); err != nil {
		return fmt.Errorf("recommend: %w", err)
	}
	if err := c.validateScheduler(); err != nil {
		return err
	}
	if err := c.validateSession(); err != nil {
		return err
	}
	if err := c.Events.Validate(); err != nil {
		return fmt.Errorf("events: %w", err)
	}
	if err := c.validateBackup(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validateServer() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("HTTP_PORT must be between 1 and 65535")
	}
	for name, d := range map[string]time.Duration{
		"HTTP_READ_TIMEOUT":     c.Server.ReadTimeout,
		"HTTP_WRITE_TIMEOUT":    c.Server.WriteTimeout,
		"HTTP_IDLE_TIMEOUT":     c.Server.IdleTimeout,
		"HTTP_SHUTDOWN_TIMEOUT": c.Server.ShutdownTimeout,
	} {
		if d <= 0 {
			return fmt.Errorf("%s must be positive, got %v", name, d)
		}
	}
	return c.validateRateLimits()
}

// validateRateLimits validates rate limiting configuration bounds.
func (c *Config) validateRateLimits() error {
	if c.Server.RateLimitDisabled {
		return nil
	}
	if c.Server.RateLimitRequests < minRateLimitRequests || c.Server.RateLimitRequests > maxRateLimitRequests {
		return fmt.Errorf("RATE_LIMIT_REQUESTS must be between %d and %d", minRateLimitRequests, maxRateLimitRequests)
	}
	if c.Server.RateLimitWindow < minRateLimitWindow || c.Server.RateLimitWindow > maxRateLimitWindow {
		return fmt.Errorf("RATE_LIMIT_WINDOW must be between %v and %v", minRateLimitWindow, maxRateLimitWindow)
	}
	return nil
}

// HasWildcardCORS reports whether any origin is allowed.
func (c *Config) HasWildcardCORS() bool {
	for _, origin := range c.Server.CORSOrigins {
		if origin == "*" {
			return true
		}
	}
	return false
}

func (c *Config) validateStorage() error {
	if !c.Storage.InMemory && c.Storage.Path == "" {
		return fmt.Errorf("BADGER_PATH is required unless BADGER_IN_MEMORY=true")
	}
	if c.Storage.GCRatio <= 0 || c.Storage.GCRatio >= 1 {
		return fmt.Errorf("BADGER_GC_RATIO must be in (0,1), got %f", c.Storage.GCRatio)
	}
	if c.Storage.ConflictRetries < 0 {
		return fmt.Errorf("BADGER_CONFLICT_RETRIES must not be negative, got %d", c.Storage.ConflictRetries)
	}
	return nil
}

func (c *Config) validateLogging() error {
	if _, err := logging.ParseLevel(c.Logging.Level); err != nil {
		return fmt.Errorf("LOG_LEVEL: %w", err)
	}
	switch c.Logging.Format {
	case "json", "console":
		return nil
	default:
		return fmt.Errorf("LOG_FORMAT must be json or console, got %q", c.Logging.Format)
	}
}

// cronParser accepts standard five-field specs and descriptors.
var cronParser = cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)

// ParseSchedule parses a scheduler cron spec.
func ParseSchedule(spec string) (cron.Schedule, error) {
	return cronParser.Parse(spec)
}

func (c *Config) validateScheduler() error {
	if _, err := time.LoadLocation(c.Scheduler.Timezone); err != nil {
		return fmt.Errorf("SCHEDULER_TIMEZONE %q is invalid: %w", c.Scheduler.Timezone, err)
	}
	for name, spec := range map[string]string{
		"SCHEDULE_INDEX_REBUILD":     c.Scheduler.IndexRebuild,
		"SCHEDULE_CACHE_REFRESH_ALL": c.Scheduler.CacheRefreshAll,
		"SCHEDULE_STORAGE_GC":        c.Scheduler.StorageGC,
	} {
		if spec == "" {
			continue
		}
		if _, err := ParseSchedule(spec); err != nil {
			return fmt.Errorf("%s %q is invalid: %w", name, spec, err)
		}
	}
	return nil
}

func (c *Config) validateSession() error {
	if c.Session.Capacity < 1 {
		return fmt.Errorf("SESSION_CAPACITY must be >= 1, got %d", c.Session.Capacity)
	}
	if c.Session.TTL <= 0 {
		return fmt.Errorf("SESSION_TTL must be positive, got %v", c.Session.TTL)
	}
	if c.Session.PageSize < 1 || c.Session.PageSize > c.Recommend.MaxN {
		return fmt.Errorf("SESSION_PAGE_SIZE must be in [1,%d], got %d", c.Recommend.MaxN, c.Session.PageSize)
	}
	return nil
}

func (c *Config) validateBackup() error {
	if err := c.Backup.Validate(); err != nil {
		return err
	}
	if !c.Backup.Enabled {
		return nil
	}
	if c.Storage.InMemory {
		return fmt.Errorf("BACKUP_ENABLED requires on-disk storage")
	}
	if _, err := ParseSchedule(c.Backup.Schedule); err != nil {
		return fmt.Errorf("BACKUP_SCHEDULE %q is invalid: %w", c.Backup.Schedule, err)
	}
	return nil
}
