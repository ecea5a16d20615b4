// Newsrec - Personalized News Recommendation and Retrieval Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/newsrec

// Package main is the entry point for the newsrec server.
//
// The server initializes components in the following order:
//
//  1. Configuration: .env file, defaults, config.yaml and environment (Koanf v2)
//  2. Logging: zerolog with the configured level and format
//  3. Storage: BadgerDB repository (on disk or in memory)
//  4. Event bus: in-process Watermill pub/sub for cache refresh requests
//  5. Engine: preferences, ranker, feedback and the similarity index
//  6. Services: scheduler, refresh consumer and HTTP server under a suture tree
//
// The scheduler runs index rebuilds, cache sweeps, Badger value log GC,
// session cleanup and, when enabled, storage backups.
//
// SIGINT and SIGTERM cancel the root context. The tree stops every service
// within its shutdown timeout and the storage is closed last.
package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/joho/godotenv"

	"github.com/tomtom215/newsrec/internal/api"
	"github.com/tomtom215/newsrec/internal/backup"
	"github.com/tomtom215/newsrec/internal/config"
	"github.com/tomtom215/newsrec/internal/events"
	"github.com/tomtom215/newsrec/internal/logging"
	"github.com/tomtom215/newsrec/internal/recommend"
	"github.com/tomtom215/newsrec/internal/session"
	"github.com/tomtom215/newsrec/internal/store"
	"github.com/tomtom215/newsrec/internal/supervisor"
	"github.com/tomtom215/newsrec/internal/supervisor/services"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

func main() {
	// A missing .env file is normal outside development.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to load configuration")
	}
	if err := logging.Init(cfg.Logging); err != nil {
		logging.Fatal().Err(err).Msg("Failed to initialize logging")
	}

	logging.Info().
		Str("version", version).
		Str("addr", cfg.Server.Addr()).
		Str("storage_path", cfg.Storage.Path).
		Bool("storage_in_memory", cfg.Storage.InMemory).
		Msg("Starting newsrec")

	if cfg.Index.StopwordsFile == "" {
		logging.Warn().Msg("INDEX_STOPWORDS_FILE not set, using the generic English and Russian stopword list")
	}

	if err := run(cfg); err != nil {
		logging.Fatal().Err(err).Msg("Server failed")
	}
	logging.Info().Msg("Application stopped gracefully")
}

func run(cfg *config.Config) error {
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

	wmLogger := watermill.NewSlogLogger(logging.NewSlogLogger("events"))
	bus := events.NewBus(cfg.Events, wmLogger)
	defer func() {
		if err := bus.Close(); err != nil {
			logging.Error().Err(err).Msg("Error closing event bus")
		}
	}()

	engine, err := recommend.NewEngine(cfg.EngineConfig(), repo, logging.Component("recommend"),
		recommend.WithRefresher(events.NewRefreshPublisher(bus)))
	if err != nil {
		return err
	}

	sessions := session.NewLRUStore(cfg.Session.Capacity, cfg.Session.TTL)
	pager := session.NewPager(sessions)

	tree, err := supervisor.NewSupervisorTree(logging.NewSlogLogger("supervisor"), supervisor.TreeConfig{
		ShutdownTimeout: cfg.Server.ShutdownTimeout + 5*time.Second,
	})
	if err != nil {
		return err
	}

	// Maintenance layer
	if cfg.Scheduler.Enabled {
		jobs, err := schedulerJobs(cfg, engine, repo, sessions)
		if err != nil {
			return err
		}
		if cfg.Backup.Enabled {
			job, err := backupJob(cfg, repo)
			if err != nil {
				return err
			}
			jobs = append(jobs, job)
		}
		loc, err := time.LoadLocation(cfg.Scheduler.Timezone)
		if err != nil {
			return err
		}
		tree.AddMaintenanceService(services.NewSchedulerService(jobs, loc, logging.Component("scheduler")))
		logging.Info().Int("jobs", len(jobs)).Msg("Scheduler added to supervisor tree")
	} else if cfg.Scheduler.RebuildOnStartup {
		if err := engine.RebuildIndex(ctx); err != nil {
			logging.Warn().Err(err).Msg("Initial index build failed; the first similarity query retries")
		}
	}

	consumerLogger := logging.Component("events")
	tree.AddMaintenanceService(services.NewConsumerService("cache-refresh-consumer", func() (services.Runner, error) {
		return events.NewRefreshRouter(cfg.Events, bus, engine, wmLogger, consumerLogger)
	}, consumerLogger))

	// API layer
	mwCfg := api.DefaultMiddlewareConfig()
	mwCfg.CORSAllowedOrigins = cfg.Server.CORSOrigins
	mwCfg.RateLimitRequests = cfg.Server.RateLimitRequests
	mwCfg.RateLimitWindow = cfg.Server.RateLimitWindow
	mwCfg.RateLimitDisabled = cfg.Server.RateLimitDisabled
	if cfg.HasWildcardCORS() {
		logging.Warn().Msg("CORS allows any origin")
	}

	handler := api.NewHandler(engine, pager,
		api.WithVersion(version),
		api.WithSessionPageSize(cfg.Session.PageSize),
		api.WithRequestTimeout(cfg.Server.WriteTimeout),
	)
	server := &http.Server{
		Addr:              cfg.Server.Addr(),
		Handler:           api.NewRouter(handler, mwCfg),
		ReadTimeout:       cfg.Server.ReadTimeout,
		ReadHeaderTimeout: cfg.Server.ReadTimeout,
		WriteTimeout:      cfg.Server.WriteTimeout,
		IdleTimeout:       cfg.Server.IdleTimeout,
	}
	tree.AddAPIService(services.NewHTTPServerService(server, cfg.Server.ShutdownTimeout))
	logging.Info().Str("addr", server.Addr).Msg("HTTP server service added")

	logging.Info().Msg("Starting supervisor tree...")
	errCh := tree.ServeBackground(ctx)

	select {
	case <-ctx.Done():
		logging.Info().Msg("Shutdown signal received, waiting for supervisor to finish...")
	case err := <-errCh:
		if err != nil && !errors.Is(err, context.Canceled) {
			logging.Error().Err(err).Msg("Supervisor tree error")
		}
	}
	cancel()
	for err := range errCh {
		if err != nil && !errors.Is(err, context.Canceled) {
			logging.Error().Err(err).Msg("Supervisor shutdown error")
		}
	}

	unstopped, _ := tree.UnstoppedServiceReport()
	for _, svc := range unstopped {
		logging.Warn().Str("service", svc.Name).Msg("Service failed to stop within timeout")
	}
	return nil
}

// schedulerJobs builds the maintenance jobs. A job with an empty spec is
// skipped.
func schedulerJobs(cfg *config.Config, engine *recommend.Engine, repo *store.BadgerRepository, sessions *session.LRUStore) ([]services.Job, error) {
	specs := []struct {
		spec string
		job  services.Job
	}{
		{cfg.Scheduler.IndexRebuild, services.Job{
			Name:       "index_rebuild",
			RunOnStart: cfg.Scheduler.RebuildOnStartup,
			Timeout:    10 * time.Minute,
			Run:        engine.RebuildIndex,
		}},
		{cfg.Scheduler.CacheRefreshAll, services.Job{
			Name:    "cache_refresh_all",
			Timeout: 10 * time.Minute,
			Run: func(ctx context.Context) error {
				refreshed, failed, err := engine.RefreshAll(ctx)
				logging.Ctx(ctx).Info().Int("refreshed", refreshed).Int("failed", failed).Msg("Score caches refreshed")
				return err
			},
		}},
		{cfg.Scheduler.StorageGC, services.Job{
			Name:    "storage_gc",
			Timeout: 30 * time.Minute,
			Run:     repo.RunGC,
		}},
		{"@every 1m", services.Job{
			Name: "session_cleanup",
			Run: func(ctx context.Context) error {
				if n := sessions.Cleanup(); n > 0 {
					logging.Ctx(ctx).Debug().Int("expired", n).Msg("Expired reading sessions dropped")
				}
				return nil
			},
		}},
	}

	jobs := make([]services.Job, 0, len(specs))
	for _, s := range specs {
		if s.spec == "" {
			continue
		}
		sched, err := config.ParseSchedule(s.spec)
		if err != nil {
			return nil, err
		}
		s.job.Schedule = sched
		jobs = append(jobs, s.job)
	}
	return jobs, nil
}

func backupJob(cfg *config.Config, repo *store.BadgerRepository) (services.Job, error) {
	mgr, err := backup.NewManager(repo, cfg.Backup, logging.Component("backup"))
	if err != nil {
		return services.Job{}, err
	}
	sched, err := config.ParseSchedule(cfg.Backup.Schedule)
	if err != nil {
		return services.Job{}, err
	}
	return services.Job{
		Name:     "storage_backup",
		Schedule: sched,
		Timeout:  time.Hour,
		Run:      mgr.Run,
	}, nil
}
