// Newsrec - Personalized News Recommendation and Retrieval Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/newsrec

package events

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/goccy/go-json"
	"github.com/google/uuid"
)

// Topics.
const (
	// TopicCacheRefreshRequested carries RefreshRequested events.
	TopicCacheRefreshRequested = "cache.refresh.requested"

	// TopicCacheRefreshFailed receives refresh requests whose retries
	// were exhausted.
	TopicCacheRefreshFailed = "cache.refresh.failed"
)

// RefreshRequested asks for one user's score cache to be recomputed.
type RefreshRequested struct {
	EventID string `json:"event_id"`
	UserID  int64  `json:"user_id"`

	// Reactions is the user's reaction total that triggered the request.
	// Zero for requests that did not come from a reaction.
	Reactions int64 `json:"reactions,omitempty"`

	RequestedAt   time.Time `json:"requested_at"`
	CorrelationID string    `json:"correlation_id,omitempty"`
}

// ErrInvalidEvent is returned when a payload cannot be decoded into a
// usable event.
var ErrInvalidEvent = errors.New("invalid event")

// NewRefreshRequested creates an event with a fresh id.
func NewRefreshRequested(userID int64, at time.Time) RefreshRequested {
	return RefreshRequested{
		EventID:     uuid.NewString(),
		UserID:      userID,
		RequestedAt: at.UTC(),
	}
}

// Validate checks required fields.
func (e *RefreshRequested) Validate() error {
	if e.EventID == "" {
		return fmt.Errorf("%w: event_id is required", ErrInvalidEvent)
	}
	if e.UserID <= 0 {
		return fmt.Errorf("%w: user_id must be positive, got %d", ErrInvalidEvent, e.UserID)
	}
	if e.Reactions < 0 {
		return fmt.Errorf("%w: reactions must not be negative, got %d", ErrInvalidEvent, e.Reactions)
	}
	return nil
}

// Message encodes the event as a Watermill message. The message UUID is
// the event id.
func (e *RefreshRequested) Message() (*message.Message, error) {
	if err := e.Validate(); err != nil {
		return nil, err
	}
	payload, err := json.Marshal(e)
	if err != nil {
		return nil, fmt.Errorf("marshal refresh request: %w", err)
	}
	msg := message.NewMessage(e.EventID, payload)
	msg.Metadata.Set("user_id", strconv.FormatInt(e.UserID, 10))
	if e.Reactions > 0 {
		msg.Metadata.Set("reactions", strconv.FormatInt(e.Reactions, 10))
	}
	return msg, nil
}

// DecodeRefreshRequested parses and validates a RefreshRequested payload.
func DecodeRefreshRequested(payload []byte) (RefreshRequested, error) {
	var e RefreshRequested
	if err := json.Unmarshal(payload, &e); err != nil {
		return RefreshRequested{}, fmt.Errorf("%w: %w", ErrInvalidEvent, err)
	}
	if err := e.Validate(); err != nil {
		return RefreshRequested{}, err
	}
	return e, nil
}
