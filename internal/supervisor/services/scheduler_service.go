// Newsrec - Personalized News Recommendation and Retrieval Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/newsrec

package services

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	"github.com/tomtom215/newsrec/internal/logging"
	"github.com/tomtom215/newsrec/internal/metrics"
)

// Job is one scheduled maintenance task.
type Job struct {
	// Name labels logs and metrics.
	Name string

	// Schedule decides when the job fires. Nil jobs only run on start, if
	// RunOnStart is set.
	Schedule cron.Schedule

	// RunOnStart runs the job once before the schedule starts.
	RunOnStart bool

	// Timeout bounds one run. Zero means no limit beyond shutdown.
	Timeout time.Duration

	Run func(ctx context.Context) error
}

// SchedulerService runs Jobs on cron schedules under supervision.
// Overlapping runs of the same job are skipped.
type SchedulerService struct {
	jobs     []Job
	location *time.Location
	logger   zerolog.Logger
}

// NewSchedulerService creates a scheduler. A nil location means UTC.
//
//nolint:gocritic // zerolog.Logger is designed to be passed by value
func NewSchedulerService(jobs []Job, location *time.Location, logger zerolog.Logger) *SchedulerService {
	if location == nil {
		location = time.UTC
	}
	return &SchedulerService{
		jobs:     jobs,
		location: location,
		logger:   logger.With().Str("service", "scheduler").Logger(),
	}
}

// Serve implements suture.Service.
func (s *SchedulerService) Serve(ctx context.Context) error {
	c := cron.New(
		cron.WithLocation(s.location),
		cron.WithLogger(cronLogger{s.logger}),
		cron.WithChain(cron.Recover(cronLogger{s.logger}), cron.SkipIfStillRunning(cronLogger{s.logger})),
	)

	for i := range s.jobs {
		job := s.jobs[i]
		if job.Run == nil {
			return fmt.Errorf("job %q has no run function", job.Name)
		}
		if job.RunOnStart {
			s.runJob(ctx, job)
			if ctx.Err() != nil {
				return ctx.Err()
			}
		}
		if job.Schedule == nil {
			continue
		}
		c.Schedule(job.Schedule, cron.FuncJob(func() { s.runJob(ctx, job) }))
	}

	s.logger.Info().Int("jobs", len(c.Entries())).Str("timezone", s.location.String()).Msg("Scheduler started")
	c.Start()

	<-ctx.Done()
	stopped := c.Stop()
	select {
	case <-stopped.Done():
	case <-time.After(30 * time.Second):
		s.logger.Warn().Msg("Scheduler stopped with jobs still running")
	}
	s.logger.Info().Msg("Scheduler stopped")
	return ctx.Err()
}

func (s *SchedulerService) runJob(ctx context.Context, job Job) {
	ctx = logging.WithCorrelationID(ctx, logging.NewCorrelationID())
	if job.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, job.Timeout)
		defer cancel()
	}
	log := s.logger.With().Str("job", job.Name).Str("correlation_id", logging.CorrelationID(ctx)).Logger()

	start := time.Now()
	err := job.Run(ctx)
	elapsed := time.Since(start)
	metrics.RecordJobRun(job.Name, elapsed, err)

	if err != nil {
		log.Error().Err(err).Dur("duration", elapsed).Msg("Scheduled job failed")
		return
	}
	log.Debug().Dur("duration", elapsed).Msg("Scheduled job finished")
}

func (s *SchedulerService) String() string {
	return "scheduler"
}

// cronLogger adapts zerolog to cron.Logger.
type cronLogger struct {
	logger zerolog.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.logger.Debug().Fields(keysAndValues).Msg(msg)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.logger.Error().Err(err).Fields(keysAndValues).Msg(msg)
}
