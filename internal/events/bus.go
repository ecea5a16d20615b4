// Newsrec - Personalized News Recommendation and Retrieval Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/newsrec

package events

import (
	"context"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
)

// Bus is the in-process pub/sub shared by publishers and routers.
type Bus struct {
	pubsub *gochannel.GoChannel
}

// NewBus creates a bus. A nil logger discards Watermill's own logs.
func NewBus(cfg Config, logger watermill.LoggerAdapter) *Bus {
	if logger == nil {
		logger = watermill.NopLogger{}
	}
	return &Bus{
		pubsub: gochannel.NewGoChannel(gochannel.Config{
			OutputChannelBuffer: cfg.BufferSize,
		}, logger),
	}
}

// Publish publishes messages to topic.
func (b *Bus) Publish(topic string, messages ...*message.Message) error {
	return b.pubsub.Publish(topic, messages...)
}

// Subscribe subscribes to topic until ctx ends.
func (b *Bus) Subscribe(ctx context.Context, topic string) (<-chan *message.Message, error) {
	return b.pubsub.Subscribe(ctx, topic)
}

// Close shuts the bus down. Open subscriptions are closed.
func (b *Bus) Close() error {
	return b.pubsub.Close()
}

// subscriber returns a view of the bus whose Close is a no-op. Watermill
// closes handler subscribers when a router stops; the bus must outlive
// router restarts.
func (b *Bus) subscriber() message.Subscriber {
	return routerSubscriber{b}
}

type routerSubscriber struct {
	bus *Bus
}

func (s routerSubscriber) Subscribe(ctx context.Context, topic string) (<-chan *message.Message, error) {
	return s.bus.Subscribe(ctx, topic)
}

func (s routerSubscriber) Close() error { return nil }
