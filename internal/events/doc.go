// Newsrec - Personalized News Recommendation and Retrieval Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/newsrec

/*
Package events moves proactive cache refreshes off the reaction path using
Watermill.

The engine asks for a refresh after every Kth reaction. RefreshPublisher
implements recommend.Refresher by publishing a RefreshRequested event on
an in-process GoChannel bus. A Watermill router consumes the topic and
calls RefreshCache for the user.

# Router middleware

Middleware runs in this order:

  - PoisonQueue moves requests that failed for good to
    TopicCacheRefreshFailed and acks them
  - Recoverer turns handler panics into errors
  - Deduplicator coalesces requests for the same user and reaction total
    within DedupWindow
  - Retry backs off exponentially on refresh failures
  - Throttle caps handled messages per second (optional)

# Delivery

The bus is not persistent. Requests published while no router is
subscribed are dropped; the user's cache is then recomputed on the next
stale read instead.

Malformed payloads are logged and acknowledged so they are never
redelivered. Refreshes for users that no longer exist are acknowledged
the same way.

# Usage

	bus := events.NewBus(cfg.Events, wmLogger)
	defer bus.Close()

	engine, _ := recommend.NewEngine(engineCfg, repo, logger,
	    recommend.WithRefresher(events.NewRefreshPublisher(bus)))

	router, _ := events.NewRefreshRouter(cfg.Events, bus, engine, wmLogger, logger)
	_ = router.Run(ctx)
*/
package events
