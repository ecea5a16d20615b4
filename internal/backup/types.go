// Newsrec - Personalized News Recommendation and Retrieval Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/newsrec

package backup

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"
)

// Snapshotter writes a full backup stream of a store.
type Snapshotter interface {
	Backup(ctx context.Context, w io.Writer) error
}

// Loader replays a backup stream into a store.
type Loader interface {
	Load(ctx context.Context, r io.Reader) error
}

var (
	// ErrNotFound is returned for an unknown snapshot name.
	ErrNotFound = errors.New("backup not found")

	// ErrChecksumMismatch is returned when a snapshot's content does not
	// match its recorded checksum.
	ErrChecksumMismatch = errors.New("backup checksum mismatch")
)

// RetentionPolicy bounds how many snapshots are kept.
type RetentionPolicy struct {
	// MinCount snapshots are kept regardless of age.
	MinCount int `koanf:"min_count"`

	// MaxCount is the most snapshots kept. Zero means unlimited.
	MaxCount int `koanf:"max_count"`

	// MaxAge is the oldest snapshot kept beyond MinCount. Zero means
	// unlimited.
	MaxAge time.Duration `koanf:"max_age"`
}

// Config configures a Manager.
type Config struct {
	Enabled   bool            `koanf:"enabled"`
	Dir       string          `koanf:"dir"`
	Schedule  string          `koanf:"schedule"`
	Retention RetentionPolicy `koanf:"retention"`
}

// DefaultConfig returns daily snapshots kept for two weeks.
func DefaultConfig() Config {
	return Config{
		Enabled:  false,
		Dir:      "/data/backups",
		Schedule: "@daily",
		Retention: RetentionPolicy{
			MinCount: 3,
			MaxCount: 14,
			MaxAge:   14 * 24 * time.Hour,
		},
	}
}

// Validate checks the configuration.
func (c Config) Validate() error {
	if !c.Enabled {
		return nil
	}
	if c.Dir == "" {
		return errors.New("backup dir is required")
	}
	r := c.Retention
	if r.MinCount < 0 || r.MaxCount < 0 || r.MaxAge < 0 {
		return errors.New("backup retention values must not be negative")
	}
	if r.MaxCount > 0 && r.MinCount > r.MaxCount {
		return fmt.Errorf("backup min_count %d exceeds max_count %d", r.MinCount, r.MaxCount)
	}
	return nil
}

// Backup describes one snapshot on disk.
type Backup struct {
	Name      string    `json:"name"`
	Path      string    `json:"path"`
	Size      int64     `json:"size"`
	Checksum  string    `json:"checksum"`
	CreatedAt time.Time `json:"created_at"`
}
