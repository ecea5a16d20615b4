// Newsrec - Personalized News Recommendation and Retrieval Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/newsrec

package importer

import (
	"context"
	"errors"
	"io"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/tomtom215/newsrec/internal/recommend"
)

// ItemSink stores corpus items.
type ItemSink interface {
	AddItem(ctx context.Context, item recommend.Item) (recommend.Item, error)
}

// Config controls an import run.
type Config struct {
	// BatchSize is the number of records read per batch. Defaults to 500.
	BatchSize int

	// DryRun validates records without storing them.
	DryRun bool
}

// ErrImportRunning is returned when Import is called while a run is in
// progress.
var ErrImportRunning = errors.New("import already in progress")

// Importer loads news dumps through an ItemSink.
type Importer struct {
	sink   ItemSink
	cfg    Config
	mapper *Mapper
	logger zerolog.Logger

	mu      sync.RWMutex
	running bool
	stats   Stats
}

// New creates an Importer.
func New(sink ItemSink, cfg Config, logger zerolog.Logger) *Importer {
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 500
	}
	return &Importer{
		sink:   sink,
		cfg:    cfg,
		mapper: NewMapper(),
		logger: logger,
	}
}

// Import reads the dump in r to the end. Per-record failures are counted
// and logged; only read errors and cancellation abort the run. The
// returned stats are valid even when err is non-nil.
func (i *Importer) Import(ctx context.Context, r io.Reader) (Stats, error) {
	i.mu.Lock()
	if i.running {
		i.mu.Unlock()
		return Stats{}, ErrImportRunning
	}
	i.running = true
	i.stats = Stats{StartTime: time.Now(), DryRun: i.cfg.DryRun}
	i.mu.Unlock()

	reader := NewReader(r)
	for batchNo := 0; ; batchNo++ {
		if err := ctx.Err(); err != nil {
			return i.finish(), err
		}
		records, err := reader.ReadBatch(i.cfg.BatchSize)
		if len(records) > 0 {
			i.processBatch(ctx, batchNo, records)
		}
		if err != nil {
			return i.finish(), err
		}
		if len(records) == 0 {
			break
		}

		st := i.Stats()
		i.logger.Info().
			Int64("processed", st.Processed).
			Int64("imported", st.Imported).
			Int64("skipped", st.Skipped).
			Int64("errors", st.Errors).
			Float64("records_per_second", st.RecordsPerSecond()).
			Msg("Import progress")
	}

	st := i.finish()
	i.logger.Info().
		Int64("imported", st.Imported).
		Int64("skipped", st.Skipped).
		Int64("errors", st.Errors).
		Int64("first_id", st.FirstID).
		Int64("last_id", st.LastID).
		Dur("duration", st.Duration()).
		Bool("dry_run", st.DryRun).
		Msg("Import completed")
	return st, nil
}

// finish marks the run done and returns its final stats.
func (i *Importer) finish() Stats {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.running = false
	i.stats.EndTime = time.Now()
	return i.stats
}

func (i *Importer) processBatch(ctx context.Context, batchNo int, records []Record) {
	var imported, skipped, failed int64
	var firstID, lastID int64

	for n := range records {
		rec := &records[n]
		pos := batchNo*i.cfg.BatchSize + n
		if err := i.mapper.ValidateRecord(rec); err != nil {
			i.logger.Warn().Err(err).Int("record", pos).Msg("Skipping invalid record")
			skipped++
			continue
		}
		if i.cfg.DryRun {
			imported++
			continue
		}
		item, err := i.sink.AddItem(ctx, i.mapper.ToItem(rec))
		if err != nil {
			i.logger.Error().Err(err).Int("record", pos).Msg("Failed to store record")
			failed++
			continue
		}
		if firstID == 0 {
			firstID = item.ID
		}
		lastID = item.ID
		imported++
	}

	i.mu.Lock()
	defer i.mu.Unlock()
	i.stats.Processed += int64(len(records))
	i.stats.Imported += imported
	i.stats.Skipped += skipped
	i.stats.Errors += failed
	if i.stats.FirstID == 0 {
		i.stats.FirstID = firstID
	}
	if lastID != 0 {
		i.stats.LastID = lastID
	}
}

// Stats returns a snapshot of the current or last run.
func (i *Importer) Stats() Stats {
	i.mu.RLock()
	defer i.mu.RUnlock()
	return i.stats
}

// IsRunning reports whether an import is in progress.
func (i *Importer) IsRunning() bool {
	i.mu.RLock()
	defer i.mu.RUnlock()
	return i.running
}

