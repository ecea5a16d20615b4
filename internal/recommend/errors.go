// Newsrec - Personalized News Recommendation and Retrieval Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/newsrec

package recommend

import (
	"context"
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned for unknown user or item identities.
	ErrNotFound = errors.New("not found")

	// ErrValidation is returned for malformed input. Validation always
	// happens before any state is mutated.
	ErrValidation = errors.New("validation failed")

	// ErrPersistence wraps repository failures on write paths. The unit of
	// work that produced it has been rolled back.
	ErrPersistence = errors.New("persistence failure")
)

// persistenceError tags err as a persistence failure unless it already
// carries one of the engine's sentinel errors or a context error.
func persistenceError(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, ErrNotFound) || errors.Is(err, ErrValidation) || errors.Is(err, ErrPersistence) ||
		errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%s: %w", op, err)
	}
	return fmt.Errorf("%s: %w: %w", op, ErrPersistence, err)
}
