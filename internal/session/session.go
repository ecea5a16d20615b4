// Newsrec - Personalized News Recommendation and Retrieval Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/newsrec

package session

import (
	"fmt"
	"strconv"
	"time"

	"github.com/tomtom215/newsrec/internal/cache"
	"github.com/tomtom215/newsrec/internal/metrics"
	"github.com/tomtom215/newsrec/internal/recommend"
)

// Mode identifies which result list a session pages through.
type Mode string

const (
	ModeNews    Mode = "news"
	ModeSimilar Mode = "similar"
	ModeSearch  Mode = "search"
)

// ParseMode validates a mode label.
func ParseMode(s string) (Mode, error) {
	switch m := Mode(s); m {
	case ModeNews, ModeSimilar, ModeSearch:
		return m, nil
	default:
		return "", fmt.Errorf("%w: unknown session mode %q", recommend.ErrValidation, s)
	}
}

var (
	// ErrNoSession is returned when stepping a session that does not exist
	// or has expired.
	ErrNoSession = fmt.Errorf("%w: no active session", recommend.ErrNotFound)

	// ErrEmptySession is returned when starting a session without items.
	ErrEmptySession = fmt.Errorf("%w: nothing to page through", recommend.ErrNotFound)
)

// Session is one user's position in a result list.
type Session struct {
	UserID    int64
	Mode      Mode
	Items     []recommend.Item
	Cursor    int
	Query     string
	CreatedAt time.Time
}

// Key returns the store key for a user and mode.
func Key(userID int64, mode Mode) string {
	return strconv.FormatInt(userID, 10) + ":" + string(mode)
}

// Store holds sessions by key.
type Store interface {
	Get(key string) (*Session, bool)
	Put(key string, s *Session)
	Delete(key string)
	Len() int
}

// LRUStore is a Store bounded by capacity and idle TTL.
type LRUStore struct {
	lru *cache.LRU[*Session]
}

// NewLRUStore creates an LRUStore.
func NewLRUStore(capacity int, ttl time.Duration) *LRUStore {
	return &LRUStore{lru: cache.NewLRU[*Session](capacity, ttl, time.Now)}
}

func (s *LRUStore) Get(key string) (*Session, bool) { return s.lru.Get(key) }

func (s *LRUStore) Put(key string, sess *Session) {
	s.lru.Put(key, sess)
	metrics.SessionStoreEntries.Set(float64(s.lru.Len()))
}

func (s *LRUStore) Delete(key string) {
	s.lru.Remove(key)
	metrics.SessionStoreEntries.Set(float64(s.lru.Len()))
}

func (s *LRUStore) Len() int { return s.lru.Len() }

// Cleanup drops expired sessions.
func (s *LRUStore) Cleanup() int {
	n := s.lru.CleanupExpired()
	metrics.SessionStoreEntries.Set(float64(s.lru.Len()))
	return n
}
