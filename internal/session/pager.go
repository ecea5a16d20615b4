// Newsrec - Personalized News Recommendation and Retrieval Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/newsrec

package session

import (
	"sync"
	"time"

	"github.com/tomtom215/newsrec/internal/recommend"
)

// Page is the item under a session's cursor.
type Page struct {
	Mode     Mode           `json:"mode"`
	Item     recommend.Item `json:"item"`
	Position int            `json:"position"`
	Total    int            `json:"total"`
	HasPrev  bool           `json:"has_prev"`
	HasNext  bool           `json:"has_next"`
	Query    string         `json:"query,omitempty"`
}

// Pager steps through result lists one item at a time. Each user has at
// most one session per mode; starting a new one replaces the old.
type Pager struct {
	mu    sync.Mutex
	store Store
	now   func() time.Time
}

// NewPager creates a Pager over store.
func NewPager(store Store) *Pager {
	return &Pager{store: store, now: time.Now}
}

// Start opens a session positioned on the first item.
func (p *Pager) Start(userID int64, mode Mode, items []recommend.Item, query string) (Page, error) {
	if len(items) == 0 {
		return Page{}, ErrEmptySession
	}
	owned := make([]recommend.Item, len(items))
	copy(owned, items)

	s := &Session{
		UserID:    userID,
		Mode:      mode,
		Items:     owned,
		Query:     query,
		CreatedAt: p.now(),
	}

	p.mu.Lock()
	p.store.Put(Key(userID, mode), s)
	p.mu.Unlock()
	return pageOf(s), nil
}

// Current returns the page under the cursor without moving it.
func (p *Pager) Current(userID int64, mode Mode) (Page, error) {
	return p.step(userID, mode, 0)
}

// Next advances the cursor, stopping at the last item.
func (p *Pager) Next(userID int64, mode Mode) (Page, error) {
	return p.step(userID, mode, 1)
}

// Prev moves the cursor back, stopping at the first item.
func (p *Pager) Prev(userID int64, mode Mode) (Page, error) {
	return p.step(userID, mode, -1)
}

// End drops the session.
func (p *Pager) End(userID int64, mode Mode) {
	p.mu.Lock()
	p.store.Delete(Key(userID, mode))
	p.mu.Unlock()
}

func (p *Pager) step(userID int64, mode Mode, delta int) (Page, error) {
	key := Key(userID, mode)

	p.mu.Lock()
	defer p.mu.Unlock()

	cur, ok := p.store.Get(key)
	if !ok {
		return Page{}, ErrNoSession
	}
	next := *cur
	next.Cursor = clamp(cur.Cursor+delta, 0, len(cur.Items)-1)
	p.store.Put(key, &next)
	return pageOf(&next), nil
}

func pageOf(s *Session) Page {
	return Page{
		Mode:     s.Mode,
		Item:     s.Items[s.Cursor],
		Position: s.Cursor + 1,
		Total:    len(s.Items),
		HasPrev:  s.Cursor > 0,
		HasNext:  s.Cursor < len(s.Items)-1,
		Query:    s.Query,
	}
}

func clamp(v, lo, hi int) int {
	return max(lo, min(v, hi))
}
