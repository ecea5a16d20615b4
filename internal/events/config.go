// Newsrec - Personalized News Recommendation and Retrieval Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/newsrec

package events

import (
	"errors"
	"time"
)

// Config holds bus and router settings.
type Config struct {
	// BufferSize is the per-subscription output buffer of the bus.
	BufferSize int64 `koanf:"buffer_size"`

	// CloseTimeout bounds how long the router waits for handlers on close.
	CloseTimeout time.Duration `koanf:"close_timeout"`

	RetryMaxRetries      int           `koanf:"retry_max_retries"`
	RetryInitialInterval time.Duration `koanf:"retry_initial_interval"`
	RetryMaxInterval     time.Duration `koanf:"retry_max_interval"`
	RetryMultiplier      float64       `koanf:"retry_multiplier"`

	// ThrottlePerSecond caps handled messages per second. Zero disables.
	ThrottlePerSecond int64 `koanf:"throttle_per_second"`

	// DedupWindow coalesces repeated refresh requests for the same user
	// and reaction total. Requests from distinct reactions are always
	// handled. Zero disables deduplication.
	DedupWindow time.Duration `koanf:"dedup_window"`
}

// DefaultConfig returns the defaults.
func DefaultConfig() Config {
	return Config{
		BufferSize:           256,
		CloseTimeout:         30 * time.Second,
		RetryMaxRetries:      3,
		RetryInitialInterval: 500 * time.Millisecond,
		RetryMaxInterval:     10 * time.Second,
		RetryMultiplier:      2.0,
		ThrottlePerSecond:    0,
		DedupWindow:          5 * time.Second,
	}
}

// Validate checks the configuration.
func (c Config) Validate() error {
	if c.BufferSize < 0 {
		return errors.New("buffer_size must not be negative")
	}
	if c.CloseTimeout <= 0 {
		return errors.New("close_timeout must be positive")
	}
	if c.RetryMaxRetries < 0 {
		return errors.New("retry_max_retries must not be negative")
	}
	if c.RetryMaxRetries > 0 && (c.RetryInitialInterval <= 0 || c.RetryMultiplier < 1) {
		return errors.New("retry_initial_interval must be positive and retry_multiplier at least 1")
	}
	if c.ThrottlePerSecond < 0 {
		return errors.New("throttle_per_second must not be negative")
	}
	if c.DedupWindow < 0 {
		return errors.New("dedup_window must not be negative")
	}
	return nil
}
