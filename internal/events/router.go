// Newsrec - Personalized News Recommendation and Retrieval Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/newsrec

package events

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/message/router/middleware"
	"github.com/rs/zerolog"

	"github.com/tomtom215/newsrec/internal/cache"
)

// Router wraps a Watermill router with the refresh middleware chain.
type Router struct {
	router *message.Router
	config Config
	logger watermill.LoggerAdapter
	dedup  *Deduplicator
}

// Deduplicator is a Watermill ExpiringKeyRepository backed by the LRU.
type Deduplicator struct {
	cache *cache.LRU[struct{}]
}

// NewDeduplicator remembers keys for window.
func NewDeduplicator(window time.Duration, now func() time.Time) *Deduplicator {
	return &Deduplicator{cache: cache.NewLRU[struct{}](10000, window, now)}
}

// IsDuplicate implements middleware.ExpiringKeyRepository.
func (d *Deduplicator) IsDuplicate(_ context.Context, key string) (bool, error) {
	return d.cache.IsDuplicate(key, struct{}{}), nil
}

// refreshKey groups messages by handler, user and triggering reaction
// total. Requests raised at different reaction totals never share a key,
// so a burst of reactions cannot hide the latest refresh behind an earlier
// one. Undecodable payloads keep their own key so the handler sees them
// and acks them.
func refreshKey(msg *message.Message) (string, error) {
	handler := message.HandlerNameFromCtx(msg.Context())
	if id := msg.Metadata.Get("user_id"); id != "" {
		return handler + ":" + id + ":" + msg.Metadata.Get("reactions"), nil
	}
	ev, err := DecodeRefreshRequested(msg.Payload)
	if err != nil {
		return handler + ":msg:" + msg.UUID, nil
	}
	key := handler + ":" + strconv.FormatInt(ev.UserID, 10) + ":"
	if ev.Reactions > 0 {
		key += strconv.FormatInt(ev.Reactions, 10)
	}
	return key, nil
}

// NewRouter creates a router with the middleware chain described in the
// package docs. poisonPublisher may be nil to disable the poison queue.
func NewRouter(cfg Config, poisonPublisher message.Publisher, logger watermill.LoggerAdapter) (*Router, error) {
	if logger == nil {
		logger = watermill.NopLogger{}
	}

	wmRouter, err := message.NewRouter(message.RouterConfig{CloseTimeout: cfg.CloseTimeout}, logger)
	if err != nil {
		return nil, fmt.Errorf("create watermill router: %w", err)
	}

	r := &Router{
		router: wmRouter,
		config: cfg,
		logger: logger,
	}

	if poisonPublisher != nil {
		poisonQueue, err := middleware.PoisonQueue(poisonPublisher, TopicCacheRefreshFailed)
		if err != nil {
			return nil, fmt.Errorf("create poison queue middleware: %w", err)
		}
		wmRouter.AddMiddleware(poisonQueue)
	}

	wmRouter.AddMiddleware(middleware.Recoverer)

	if cfg.DedupWindow > 0 {
		r.dedup = NewDeduplicator(cfg.DedupWindow, time.Now)
		dedup := middleware.Deduplicator{
			KeyFactory: refreshKey,
			Repository: r.dedup,
		}
		wmRouter.AddMiddleware(dedup.Middleware)
	}

	if cfg.RetryMaxRetries > 0 {
		retry := middleware.Retry{
			MaxRetries:      cfg.RetryMaxRetries,
			InitialInterval: cfg.RetryInitialInterval,
			MaxInterval:     cfg.RetryMaxInterval,
			Multiplier:      cfg.RetryMultiplier,
			Logger:          logger,
		}
		wmRouter.AddMiddleware(retry.Middleware)
	}

	if cfg.ThrottlePerSecond > 0 {
		throttle := middleware.NewThrottle(cfg.ThrottlePerSecond, time.Second)
		wmRouter.AddMiddleware(throttle.Middleware)
	}

	return r, nil
}

// NewRefreshRouter creates a router that consumes refresh requests from
// bus and applies them with refresher. Requests that exhaust their retries
// are logged from the failure topic.
//
//nolint:gocritic // zerolog.Logger is designed to be passed by value
func NewRefreshRouter(cfg Config, bus *Bus, refresher CacheRefresher, wmLogger watermill.LoggerAdapter, logger zerolog.Logger) (*Router, error) {
	r, err := NewRouter(cfg, bus, wmLogger)
	if err != nil {
		return nil, err
	}
	h := NewRefreshHandler(refresher, logger)
	r.AddConsumerHandler("cache-refresh", TopicCacheRefreshRequested, bus.subscriber(), h.Handle)
	r.AddConsumerHandler("cache-refresh-failed", TopicCacheRefreshFailed, bus.subscriber(), h.HandleFailed)
	return r, nil
}

// AddConsumerHandler registers a handler that publishes nothing.
func (r *Router) AddConsumerHandler(name, topic string, subscriber message.Subscriber, handler message.NoPublishHandlerFunc) *message.Handler {
	return r.router.AddConsumerHandler(name, topic, subscriber, handler)
}

// Run blocks until ctx ends or the router is closed.
func (r *Router) Run(ctx context.Context) error {
	return r.router.Run(ctx)
}

// Running is closed once all handlers are subscribed.
func (r *Router) Running() <-chan struct{} {
	return r.router.Running()
}

// Close stops the router.
func (r *Router) Close() error {
	return r.router.Close()
}
