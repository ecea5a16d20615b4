// Newsrec - Personalized News Recommendation and Retrieval Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/newsrec

/*
Package services provides suture.Service wrappers for Newsrec components.

Each wrapper translates a component's lifecycle into suture's
Serve(ctx) error and implements fmt.Stringer so supervisor logs name it.

  - HTTPServerService: ListenAndServe with graceful Shutdown
  - SchedulerService: robfig/cron jobs (index rebuild, cache refresh-all,
    storage GC, session cleanup) with skip-if-running and per-run metrics
  - ConsumerService: rebuilds and runs a Watermill router on every start
*/
package services
