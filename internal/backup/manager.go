// Newsrec - Personalized News Recommendation and Retrieval Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/newsrec

package backup

import (
	"bufio"
	"compress/gzip"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

const (
	filePrefix     = "newsrec-"
	fileSuffix     = ".bak.gz"
	checksumSuffix = ".sha256"
	timeLayout     = "20060102T150405Z"
)

// Manager creates, lists, prunes and restores snapshots in one directory.
type Manager struct {
	src    Snapshotter
	cfg    Config
	logger zerolog.Logger
	now    func() time.Time

	mu sync.Mutex
}

// NewManager creates a Manager and its backup directory.
//
//nolint:gocritic // zerolog.Logger is designed to be passed by value
func NewManager(src Snapshotter, cfg Config, logger zerolog.Logger) (*Manager, error) {
	if cfg.Dir == "" {
		return nil, errors.New("backup dir is required")
	}
	if err := os.MkdirAll(cfg.Dir, 0o750); err != nil {
		return nil, fmt.Errorf("create backup dir: %w", err)
	}
	return &Manager{
		src:    src,
		cfg:    cfg,
		logger: logger,
		now:    time.Now,
	}, nil
}

// Run creates a snapshot and then prunes. It is the scheduled job body.
func (m *Manager) Run(ctx context.Context) error {
	b, err := m.Create(ctx)
	if err != nil {
		return err
	}
	deleted, err := m.Prune()
	if err != nil {
		return err
	}
	m.logger.Info().
		Str("backup", b.Name).
		Int64("size_bytes", b.Size).
		Int("pruned", deleted).
		Msg("Storage backup completed")
	return nil
}

// Create writes a new snapshot.
func (m *Manager) Create(ctx context.Context) (Backup, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	createdAt := m.now().UTC().Truncate(time.Second)
	name := filePrefix + createdAt.Format(timeLayout) + fileSuffix
	final := filepath.Join(m.cfg.Dir, name)
	tmp := final + ".tmp"

	checksum, size, err := m.writeSnapshot(ctx, tmp)
	if err != nil {
		_ = os.Remove(tmp)
		return Backup{}, err
	}
	if err := os.WriteFile(final+checksumSuffix, []byte(checksum+"  "+name+"\n"), 0o640); err != nil {
		_ = os.Remove(tmp)
		return Backup{}, fmt.Errorf("write checksum: %w", err)
	}
	if err := os.Rename(tmp, final); err != nil {
		_ = os.Remove(tmp)
		_ = os.Remove(final + checksumSuffix)
		return Backup{}, fmt.Errorf("finalize backup: %w", err)
	}

	return Backup{Name: name, Path: final, Size: size, Checksum: checksum, CreatedAt: createdAt}, nil
}

// writeSnapshot streams src through gzip into path and returns the SHA-256
// of the compressed file.
//
//nolint:gosec // G304: path is built from the configured backup dir
func (m *Manager) writeSnapshot(ctx context.Context, path string) (checksum string, size int64, err error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o640)
	if err != nil {
		return "", 0, fmt.Errorf("create backup file: %w", err)
	}
	defer func() {
		if closeErr := f.Close(); err == nil && closeErr != nil {
			err = closeErr
		}
	}()

	hasher := sha256.New()
	counter := &countingWriter{w: io.MultiWriter(f, hasher)}
	gz := gzip.NewWriter(counter)

	if err := m.src.Backup(ctx, gz); err != nil {
		return "", 0, fmt.Errorf("snapshot store: %w", err)
	}
	if err := gz.Close(); err != nil {
		return "", 0, fmt.Errorf("compress backup: %w", err)
	}
	if err := f.Sync(); err != nil {
		return "", 0, fmt.Errorf("sync backup: %w", err)
	}
	return hex.EncodeToString(hasher.Sum(nil)), counter.n, nil
}

type countingWriter struct {
	w io.Writer
	n int64
}

func (c *countingWriter) Write(p []byte) (int, error) {
	n, err := c.w.Write(p)
	c.n += int64(n)
	return n, err
}

// List returns the complete snapshots, newest first.
func (m *Manager) List() ([]Backup, error) {
	entries, err := os.ReadDir(m.cfg.Dir)
	if err != nil {
		return nil, fmt.Errorf("list backups: %w", err)
	}

	var out []Backup
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasPrefix(name, filePrefix) || !strings.HasSuffix(name, fileSuffix) {
			continue
		}
		createdAt, err := time.Parse(timeLayout, strings.TrimSuffix(strings.TrimPrefix(name, filePrefix), fileSuffix))
		if err != nil {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		path := filepath.Join(m.cfg.Dir, name)
		out = append(out, Backup{
			Name:      name,
			Path:      path,
			Size:      info.Size(),
			Checksum:  readChecksum(path + checksumSuffix),
			CreatedAt: createdAt,
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

//nolint:gosec // G304: path is built from the configured backup dir
func readChecksum(path string) string {
	data, err := os.ReadFile(path)
	if err != nil {
		return ""
	}
	sum, _, _ := strings.Cut(strings.TrimSpace(string(data)), " ")
	return sum
}

// Prune deletes the snapshots the retention policy no longer keeps and
// returns how many were removed.
func (m *Manager) Prune() (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	backups, err := m.List()
	if err != nil {
		return 0, err
	}

	deleted := 0
	for _, b := range selectExpired(backups, m.cfg.Retention, m.now()) {
		if err := os.Remove(b.Path); err != nil && !errors.Is(err, fs.ErrNotExist) {
			m.logger.Warn().Err(err).Str("backup", b.Name).Msg("Failed to delete backup")
			continue
		}
		_ = os.Remove(b.Path + checksumSuffix)
		deleted++
	}
	return deleted, nil
}

// Verify recomputes a snapshot's checksum.
//
//nolint:gosec // G304: path comes from List
func (m *Manager) Verify(b Backup) error {
	if b.Checksum == "" {
		return fmt.Errorf("%s: %w: no recorded checksum", b.Name, ErrChecksumMismatch)
	}
	f, err := os.Open(b.Path)
	if err != nil {
		return err
	}
	defer f.Close() //nolint:errcheck // read-only

	hasher := sha256.New()
	if _, err := io.Copy(hasher, f); err != nil {
		return err
	}
	if got := hex.EncodeToString(hasher.Sum(nil)); got != b.Checksum {
		return fmt.Errorf("%s: %w", b.Name, ErrChecksumMismatch)
	}
	return nil
}

// Restore verifies the named snapshot and loads it into dst.
//
//nolint:gosec // G304: path comes from List
func (m *Manager) Restore(ctx context.Context, name string, dst Loader) error {
	backups, err := m.List()
	if err != nil {
		return err
	}
	var b Backup
	for i := range backups {
		if backups[i].Name == name {
			b = backups[i]
			break
		}
	}
	if b.Name == "" {
		return fmt.Errorf("%s: %w", name, ErrNotFound)
	}
	if err := m.Verify(b); err != nil {
		return err
	}

	f, err := os.Open(b.Path)
	if err != nil {
		return err
	}
	defer f.Close() //nolint:errcheck // read-only

	gz, err := gzip.NewReader(bufio.NewReader(f))
	if err != nil {
		return fmt.Errorf("open %s: %w", name, err)
	}
	defer gz.Close() //nolint:errcheck // read-only

	if err := dst.Load(ctx, gz); err != nil {
		return fmt.Errorf("load %s: %w", name, err)
	}
	m.logger.Info().Str("backup", name).Msg("Storage restored from backup")
	return nil
}
