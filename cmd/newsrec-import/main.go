// Newsrec - Personalized News Recommendation and Retrieval Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/newsrec

// Command newsrec-import loads a JSON news dump into the item corpus.
//
// It opens the same storage as the server, so the server must be stopped
// while importing into an on-disk store:
//
//	newsrec-import -file news.json
//	newsrec-import -file news.json -dry-run
//	newsrec-import -file news.json -fit=false -batch 1000
//	newsrec-import -restore newsrec-20260510T090000Z.bak.gz
//
// -restore loads a snapshot from the configured backup directory instead of
// a dump. The target store should be empty.
//
// Storage, logging and engine settings come from the usual configuration
// sources (.env, config.yaml, environment). After loading, the similarity
// index is fitted once to verify the corpus unless -fit=false.
package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/tomtom215/newsrec/internal/backup"
	"github.com/tomtom215/newsrec/internal/config"
	"github.com/tomtom215/newsrec/internal/importer"
	"github.com/tomtom215/newsrec/internal/logging"
	"github.com/tomtom215/newsrec/internal/recommend"
	"github.com/tomtom215/newsrec/internal/store"
)

func main() {
	file := flag.String("file", "", "Path to the JSON dump (- for stdin)")
	batchSize := flag.Int("batch", 500, "Records per batch")
	dryRun := flag.Bool("dry-run", false, "Validate records without storing them")
	fit := flag.Bool("fit", true, "Fit the similarity index after loading")
	restore := flag.String("restore", "", "Restore the named storage backup instead of importing")
	flag.Parse()

	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to load configuration")
	}
	if err := logging.Init(cfg.Logging); err != nil {
		logging.Fatal().Err(err).Msg("Failed to initialize logging")
	}
	if *restore != "" {
		if err := restoreBackup(cfg, *restore); err != nil {
			logging.Fatal().Err(err).Msg("Restore failed")
		}
		return
	}
	if *file == "" {
		flag.Usage()
		os.Exit(2)
	}

	if err := run(cfg, *file, importer.Config{BatchSize: *batchSize, DryRun: *dryRun}, *fit); err != nil {
		logging.Fatal().Err(err).Msg("Import failed")
	}
}

func run(cfg *config.Config, path string, icfg importer.Config, fit bool) error {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	in := os.Stdin
	if path != "-" {
		f, err := os.Open(path)
		if err != nil {
			return err
		}
		defer f.Close()
		in = f
	}

	repo, err := store.OpenBadger(cfg.Storage, logging.Component("store"))
	if err != nil {
		return err
	}
	defer func() {
		if err := repo.Close(); err != nil {
			logging.Error().Err(err).Msg("Error closing storage")
		}
	}()

	engine, err := recommend.NewEngine(cfg.EngineConfig(), repo, logging.Component("recommend"))
	if err != nil {
		return err
	}

	stats, err := importer.New(engine, icfg, logging.Component("importer")).Import(ctx, in)
	if err != nil {
		return err
	}

	if !fit || icfg.DryRun || stats.Imported == 0 {
		return nil
	}
	if err := engine.RebuildIndex(ctx); err != nil {
		return err
	}
	st := engine.IndexStats()
	logging.Info().
		Int("documents", st.Documents).
		Int("features", st.Features).
		Msg("Similarity index fitted")
	return nil
}

func restoreBackup(cfg *config.Config, name string) error {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	repo, err := store.OpenBadger(cfg.Storage, logging.Component("store"))
	if err != nil {
		return err
	}
	defer func() {
		if err := repo.Close(); err != nil {
			logging.Error().Err(err).Msg("Error closing storage")
		}
	}()

	mgr, err := backup.NewManager(repo, cfg.Backup, logging.Component("backup"))
	if err != nil {
		return err
	}
	return mgr.Restore(ctx, name, repo)
}
