// Newsrec - Personalized News Recommendation and Retrieval Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/newsrec

package events

import (
	"context"
	"errors"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/message/router/middleware"
	"github.com/rs/zerolog"

	"github.com/tomtom215/newsrec/internal/logging"
	"github.com/tomtom215/newsrec/internal/metrics"
	"github.com/tomtom215/newsrec/internal/recommend"
)

// CacheRefresher recomputes one user's score cache.
type CacheRefresher interface {
	RefreshCache(ctx context.Context, userID int64) error
}

// RefreshHandler applies RefreshRequested events.
type RefreshHandler struct {
	refresher CacheRefresher
	logger    zerolog.Logger
}

// NewRefreshHandler creates a handler.
//
//nolint:gocritic // zerolog.Logger is designed to be passed by value
func NewRefreshHandler(refresher CacheRefresher, logger zerolog.Logger) *RefreshHandler {
	return &RefreshHandler{
		refresher: refresher,
		logger:    logger.With().Str("component", "refresh-consumer").Logger(),
	}
}

// Handle refreshes the requested user's cache. Malformed events and
// unknown users are acknowledged; persistence failures are returned so the
// router retries them.
func (h *RefreshHandler) Handle(msg *message.Message) error {
	ev, err := DecodeRefreshRequested(msg.Payload)
	if err != nil {
		h.logger.Warn().Err(err).Str("message_id", msg.UUID).Msg("Dropping malformed refresh request")
		metrics.RecordEventHandled(TopicCacheRefreshRequested, err)
		return nil
	}

	ctx := msg.Context()
	if cid := middleware.MessageCorrelationID(msg); cid != "" {
		ctx = logging.WithCorrelationID(ctx, cid)
	}

	err = h.refresher.RefreshCache(ctx, ev.UserID)
	metrics.RecordEventHandled(TopicCacheRefreshRequested, err)
	switch {
	case err == nil:
		h.logger.Debug().Int64("user_id", ev.UserID).Str("event_id", ev.EventID).Msg("Score cache refreshed")
		return nil
	case errors.Is(err, recommend.ErrNotFound), errors.Is(err, recommend.ErrValidation):
		h.logger.Warn().Err(err).Int64("user_id", ev.UserID).Msg("Discarding refresh request")
		return nil
	default:
		return err
	}
}

// HandleFailed logs a request that exhausted its retries.
func (h *RefreshHandler) HandleFailed(msg *message.Message) error {
	h.logger.Error().
		Str("message_id", msg.UUID).
		Str("user_id", msg.Metadata.Get("user_id")).
		Str("reason", msg.Metadata.Get(middleware.ReasonForPoisonedKey)).
		Msg("Cache refresh request abandoned")
	metrics.RecordEventHandled(TopicCacheRefreshFailed, nil)
	return nil
}
