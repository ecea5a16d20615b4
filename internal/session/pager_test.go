// Newsrec - Personalized News Recommendation and Retrieval Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/newsrec

package session

import (
	"errors"
	"testing"
	"time"

	"github.com/tomtom215/newsrec/internal/cache"
	"github.com/tomtom215/newsrec/internal/recommend"
)

func items(ids ...int64) []recommend.Item {
	out := make([]recommend.Item, len(ids))
	for i, id := range ids {
		out[i] = recommend.Item{ID: id, Category: recommend.CategorySports, Title: "t"}
	}
	return out
}

func TestParseMode(t *testing.T) {
	t.Parallel()

	for _, s := range []string{"news", "similar", "search"} {
		if m, err := ParseMode(s); err != nil || string(m) != s {
			t.Errorf("ParseMode(%q) = %q, %v", s, m, err)
		}
	}
	if _, err := ParseMode("feed"); !errors.Is(err, recommend.ErrValidation) {
		t.Errorf("ParseMode(feed) error = %v, want ErrValidation", err)
	}
}

func TestPager_Walk(t *testing.T) {
	t.Parallel()

	p := NewPager(NewLRUStore(10, time.Minute))

	page, err := p.Start(1, ModeNews, items(10, 20, 30), "")
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	if page.Item.ID != 10 || page.Position != 1 || page.Total != 3 || page.HasPrev || !page.HasNext {
		t.Errorf("first page = %+v", page)
	}

	steps := []struct {
		name    string
		step    func(int64, Mode) (Page, error)
		wantID  int64
		wantPos int
	}{
		{"prev at start stays", p.Prev, 10, 1},
		{"next", p.Next, 20, 2},
		{"next to last", p.Next, 30, 3},
		{"next past end stays", p.Next, 30, 3},
		{"current", p.Current, 30, 3},
		{"prev", p.Prev, 20, 2},
	}
	for _, s := range steps {
		page, err := s.step(1, ModeNews)
		if err != nil {
			t.Fatalf("%s: %v", s.name, err)
		}
		if page.Item.ID != s.wantID || page.Position != s.wantPos {
			t.Errorf("%s: page = item %d pos %d, want item %d pos %d", s.name, page.Item.ID, page.Position, s.wantID, s.wantPos)
		}
		if page.HasPrev != (s.wantPos > 1) || page.HasNext != (s.wantPos < 3) {
			t.Errorf("%s: nav flags = %v/%v", s.name, page.HasPrev, page.HasNext)
		}
	}
}

func TestPager_SessionsAreKeyedByUserAndMode(t *testing.T) {
	t.Parallel()

	p := NewPager(NewLRUStore(10, time.Minute))
	if _, err := p.Start(1, ModeNews, items(1, 2), ""); err != nil {
		t.Fatal(err)
	}
	if _, err := p.Start(1, ModeSearch, items(7, 8), "storm"); err != nil {
		t.Fatal(err)
	}
	if _, err := p.Start(2, ModeNews, items(5), ""); err != nil {
		t.Fatal(err)
	}

	if page, _ := p.Next(1, ModeNews); page.Item.ID != 2 {
		t.Errorf("user 1 news next = %d, want 2", page.Item.ID)
	}
	page, _ := p.Current(1, ModeSearch)
	if page.Item.ID != 7 || page.Query != "storm" {
		t.Errorf("user 1 search current = %+v", page)
	}
	if page, _ := p.Current(2, ModeNews); page.Item.ID != 5 || page.HasNext {
		t.Errorf("user 2 news current = %+v", page)
	}

	// Restarting replaces the list and resets the cursor.
	if page, _ := p.Start(1, ModeNews, items(9, 8), ""); page.Item.ID != 9 {
		t.Errorf("restarted page = %+v", page)
	}
}

func TestPager_Errors(t *testing.T) {
	t.Parallel()

	p := NewPager(NewLRUStore(10, time.Minute))

	if _, err := p.Next(1, ModeSimilar); !errors.Is(err, ErrNoSession) || !errors.Is(err, recommend.ErrNotFound) {
		t.Errorf("Next without session error = %v", err)
	}
	if _, err := p.Start(1, ModeSimilar, nil, ""); !errors.Is(err, ErrEmptySession) {
		t.Errorf("Start(empty) error = %v", err)
	}

	if _, err := p.Start(1, ModeSimilar, items(1), ""); err != nil {
		t.Fatal(err)
	}
	p.End(1, ModeSimilar)
	if _, err := p.Current(1, ModeSimilar); !errors.Is(err, ErrNoSession) {
		t.Errorf("Current after End error = %v", err)
	}
}

func TestPager_StartCopiesItems(t *testing.T) {
	t.Parallel()

	p := NewPager(NewLRUStore(10, time.Minute))
	list := items(1, 2)
	if _, err := p.Start(3, ModeNews, list, ""); err != nil {
		t.Fatal(err)
	}
	list[0].ID = 99

	if page, _ := p.Current(3, ModeNews); page.Item.ID != 1 {
		t.Errorf("session aliases caller slice: item %d", page.Item.ID)
	}
}

func TestLRUStore_ExpiredSessionIsGone(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 5, 10, 9, 0, 0, 0, time.UTC)
	store := &LRUStore{lru: cache.NewLRU[*Session](10, time.Minute, func() time.Time { return now })}
	p := NewPager(store)

	if _, err := p.Start(1, ModeNews, items(1, 2), ""); err != nil {
		t.Fatal(err)
	}
	now = now.Add(2 * time.Minute)

	if _, err := p.Next(1, ModeNews); !errors.Is(err, ErrNoSession) {
		t.Errorf("Next on expired session error = %v", err)
	}
	if store.Cleanup() != 0 || store.Len() != 0 {
		t.Errorf("store not empty after expiry: %d", store.Len())
	}
}
