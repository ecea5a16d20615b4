// Newsrec - Personalized News Recommendation and Retrieval Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/newsrec

package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"
)

// Runner is a component that runs until its context ends, such as an
// events.Router.
type Runner interface {
	Run(ctx context.Context) error
}

// ConsumerService runs a message router under supervision. A Watermill
// router cannot be run twice, so build is called on every (re)start.
type ConsumerService struct {
	name   string
	build  func() (Runner, error)
	logger zerolog.Logger
}

// NewConsumerService creates a consumer service.
//
//nolint:gocritic // zerolog.Logger is designed to be passed by value
func NewConsumerService(name string, build func() (Runner, error), logger zerolog.Logger) *ConsumerService {
	return &ConsumerService{
		name:   name,
		build:  build,
		logger: logger.With().Str("service", name).Logger(),
	}
}

// Serve implements suture.Service.
func (s *ConsumerService) Serve(ctx context.Context) error {
	r, err := s.build()
	if err != nil {
		return fmt.Errorf("build %s: %w", s.name, err)
	}

	s.logger.Info().Msg("Consumer starting")
	err = r.Run(ctx)
	if ctx.Err() != nil {
		s.logger.Info().Msg("Consumer stopped")
		return ctx.Err()
	}
	if err == nil {
		err = errors.New("router stopped unexpectedly")
	}
	return fmt.Errorf("%s: %w", s.name, err)
}

func (s *ConsumerService) String() string {
	return s.name
}
