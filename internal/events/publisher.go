// Newsrec - Personalized News Recommendation and Retrieval Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/newsrec

package events

import (
	"context"
	"fmt"
	"time"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/message/router/middleware"

	"github.com/tomtom215/newsrec/internal/logging"
	"github.com/tomtom215/newsrec/internal/metrics"
)

// RefreshPublisher implements recommend.Refresher by publishing
// RefreshRequested events.
type RefreshPublisher struct {
	publisher message.Publisher
	now       func() time.Time
}

// NewRefreshPublisher creates a publisher over pub.
func NewRefreshPublisher(pub message.Publisher) *RefreshPublisher {
	return &RefreshPublisher{publisher: pub, now: time.Now}
}

// RequestRefresh publishes a refresh request for userID triggered at the
// given reaction total. The correlation
// id in ctx, or the request id when there is none, travels with the
// message.
func (p *RefreshPublisher) RequestRefresh(ctx context.Context, userID, reactions int64) error {
	ev := NewRefreshRequested(userID, p.now())
	ev.Reactions = reactions
	ev.CorrelationID = logging.CorrelationID(ctx)
	if ev.CorrelationID == "" {
		ev.CorrelationID = logging.RequestID(ctx)
	}

	msg, err := ev.Message()
	if err != nil {
		return err
	}
	if ev.CorrelationID != "" {
		middleware.SetCorrelationID(ev.CorrelationID, msg)
	}

	if err := p.publisher.Publish(TopicCacheRefreshRequested, msg); err != nil {
		return fmt.Errorf("publish refresh request: %w", err)
	}
	metrics.EventsPublished.WithLabelValues(TopicCacheRefreshRequested).Inc()
	return nil
}
