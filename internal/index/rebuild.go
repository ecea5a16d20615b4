// Newsrec - Personalized News Recommendation and Retrieval Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/newsrec

package index

import (
	"context"
	"errors"
	"time"

	"golang.org/x/time/rate"
)

// ErrRebuildThrottled is returned when manual rebuilds arrive faster than
// the configured rate.
var ErrRebuildThrottled = errors.New("index rebuild throttled")

// Rebuilder gates on-demand fits behind a token bucket. Scheduled fits call
// Index.Fit directly and are not throttled.
type Rebuilder struct {
	fit     func(ctx context.Context) error
	limiter *rate.Limiter
}

// NewRebuilder allows burst rebuilds per interval through fit.
func NewRebuilder(fit func(ctx context.Context) error, interval time.Duration, burst int) *Rebuilder {
	if burst < 1 {
		burst = 1
	}
	limit := rate.Inf
	if interval > 0 {
		limit = rate.Every(interval)
	}
	return &Rebuilder{
		fit:     fit,
		limiter: rate.NewLimiter(limit, burst),
	}
}

// Rebuild runs a fit if the rate allows it.
func (r *Rebuilder) Rebuild(ctx context.Context) error {
	if !r.limiter.Allow() {
		return ErrRebuildThrottled
	}
	return r.fit(ctx)
}
