// Newsrec - Personalized News Recommendation and Retrieval Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/newsrec

package index

import (
	"context"
	"errors"
	"math"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

func testCorpus() []Document {
	return []Document{
		{ID: 1, Category: "sports", Text: "Football championship final ends in penalty shootout"},
		{ID: 2, Category: "sports", Text: "Football club signs striker before championship season"},
		{ID: 3, Category: "politics", Text: "Parliament passes budget after long debate"},
		{ID: 4, Category: "politics", Text: "Election campaign debate focuses on budget deficit"},
		{ID: 5, Category: "science", Text: "Telescope captures images of distant galaxy cluster"},
		{ID: 6, Category: "economy", Text: "Football club revenue grows as championship sponsorship rises"},
	}
}

type countingLoader struct {
	docs  []Document
	calls atomic.Int32
}

func (l *countingLoader) load(_ context.Context) ([]Document, error) {
	l.calls.Add(1)
	return l.docs, nil
}

func newTestIndex(docs []Document) (*Index, *countingLoader) {
	l := &countingLoader{docs: docs}
	return New(DefaultConfig(), l.load, zerolog.Nop()), l
}

func TestIndex_SelfSimilarity(t *testing.T) {
	t.Parallel()

	ix, _ := newTestIndex(testCorpus())
	if err := ix.Fit(context.Background()); err != nil {
		t.Fatalf("Fit: %v", err)
	}

	for _, d := range testCorpus() {
		sim, ok := ix.Similarity(d.ID, d.ID)
		if !ok {
			t.Fatalf("document %d missing from index", d.ID)
		}
		if math.Abs(sim-1) > 1e-9 {
			t.Errorf("similarity(%d,%d) = %f, want 1", d.ID, d.ID, sim)
		}
	}
}

func TestIndex_RowsMapBackToIdentity(t *testing.T) {
	t.Parallel()

	ix, _ := newTestIndex(testCorpus())

	for _, d := range testCorpus() {
		results, err := ix.Query(context.Background(), d.Text, 1, "", 0.1)
		if err != nil {
			t.Fatalf("Query: %v", err)
		}
		if len(results) == 0 || results[0].ID != d.ID {
			t.Fatalf("Query(own text of %d) = %+v, want it first", d.ID, results)
		}
		if results[0].Category != d.Category {
			t.Errorf("category = %q, want %q", results[0].Category, d.Category)
		}
		if math.Abs(results[0].Similarity-1) > 1e-9 {
			t.Errorf("similarity = %f, want 1", results[0].Similarity)
		}
	}
}

func TestIndex_Neighbors(t *testing.T) {
	t.Parallel()

	ix, _ := newTestIndex(testCorpus())
	ctx := context.Background()
	query := testCorpus()[0]

	t.Run("excludes self", func(t *testing.T) {
		results, err := ix.Neighbors(ctx, query, 10, false)
		if err != nil {
			t.Fatalf("Neighbors: %v", err)
		}
		if len(results) != len(testCorpus())-1 {
			t.Errorf("got %d results, want %d", len(results), len(testCorpus())-1)
		}
		for _, r := range results {
			if r.ID == query.ID {
				t.Error("neighbors include the query item")
			}
		}
		if results[0].ID != 2 && results[0].ID != 6 {
			t.Errorf("nearest neighbor = %d, want a football article", results[0].ID)
		}
		for i := 1; i < len(results); i++ {
			if results[i].Similarity > results[i-1].Similarity {
				t.Fatalf("results not sorted descending at %d", i)
			}
		}
	})

	t.Run("excludes same category", func(t *testing.T) {
		results, err := ix.Neighbors(ctx, query, 10, true)
		if err != nil {
			t.Fatalf("Neighbors: %v", err)
		}
		for _, r := range results {
			if r.Category == query.Category {
				t.Errorf("result %d shares category %q", r.ID, r.Category)
			}
		}
		if len(results) == 0 || results[0].ID != 6 {
			t.Errorf("nearest cross-category neighbor = %+v, want item 6", results)
		}
	})

	t.Run("top n bound", func(t *testing.T) {
		results, err := ix.Neighbors(ctx, query, 2, false)
		if err != nil {
			t.Fatalf("Neighbors: %v", err)
		}
		if len(results) != 2 {
			t.Errorf("got %d results, want 2", len(results))
		}
	})

	t.Run("unindexed document is vectorized", func(t *testing.T) {
		fresh := Document{ID: 99, Category: "sports", Text: "Championship football final"}
		results, err := ix.Neighbors(ctx, fresh, 1, false)
		if err != nil {
			t.Fatalf("Neighbors: %v", err)
		}
		if len(results) != 1 || results[0].Category != "sports" && results[0].ID != 6 {
			t.Errorf("unexpected neighbors %+v", results)
		}
	})
}

func TestIndex_Query(t *testing.T) {
	t.Parallel()

	ix, _ := newTestIndex(testCorpus())
	ctx := context.Background()

	tests := []struct {
		name     string
		text     string
		category string
		minSim   float64
		wantIDs  map[int64]bool
		wantNone bool
	}{
		{
			name:    "matches on shared terms",
			text:    "budget debate",
			minSim:  0.1,
			wantIDs: map[int64]bool{3: true, 4: true},
		},
		{
			name:     "category filter",
			text:     "football championship",
			category: "economy",
			minSim:   0.1,
			wantIDs:  map[int64]bool{6: true},
		},
		{
			name:     "unknown vocabulary",
			text:     "zebra xylophone",
			minSim:   0.1,
			wantNone: true,
		},
		{
			name:     "floor excludes everything",
			text:     "budget debate",
			minSim:   0.99,
			wantNone: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			results, err := ix.Query(ctx, tt.text, 5, tt.category, tt.minSim)
			if err != nil {
				t.Fatalf("Query: %v", err)
			}
			if tt.wantNone {
				if len(results) != 0 {
					t.Errorf("expected no results, got %+v", results)
				}
				return
			}
			if len(results) == 0 {
				t.Fatal("expected results")
			}
			for _, r := range results {
				if !tt.wantIDs[r.ID] {
					t.Errorf("unexpected result %+v", r)
				}
				if r.Similarity <= tt.minSim {
					t.Errorf("result %d similarity %f not above floor %f", r.ID, r.Similarity, tt.minSim)
				}
				if tt.category != "" && r.Category != tt.category {
					t.Errorf("result %d category %q, want %q", r.ID, r.Category, tt.category)
				}
			}
		})
	}
}

func TestIndex_LazyFit(t *testing.T) {
	t.Parallel()

	ix, loader := newTestIndex(testCorpus())
	if ix.Stats().Built {
		t.Fatal("new index should be unbuilt")
	}

	for i := 0; i < 3; i++ {
		if _, err := ix.Query(context.Background(), "budget", 3, "", 0.1); err != nil {
			t.Fatalf("Query: %v", err)
		}
	}
	if got := loader.calls.Load(); got != 1 {
		t.Errorf("loader called %d times, want 1", got)
	}
	if st := ix.Stats(); !st.Built || st.Documents != len(testCorpus()) {
		t.Errorf("Stats() = %+v", st)
	}
}

func TestIndex_EmptyCorpus(t *testing.T) {
	t.Parallel()

	ix, loader := newTestIndex(nil)
	ctx := context.Background()

	results, err := ix.Query(ctx, "x", 5, "", 0.1)
	if err != nil {
		t.Fatalf("Query on empty corpus: %v", err)
	}
	if len(results) != 0 {
		t.Errorf("expected no results, got %v", results)
	}

	neighbors, err := ix.Neighbors(ctx, Document{ID: 1, Text: "x"}, 5, false)
	if err != nil || len(neighbors) != 0 {
		t.Errorf("Neighbors on empty corpus = %v, %v", neighbors, err)
	}

	if ix.Stats().Built {
		t.Error("empty corpus must leave the index unbuilt")
	}
	if got := loader.calls.Load(); got != 2 {
		t.Errorf("loader called %d times, want a retry per query (2)", got)
	}
}

func TestIndex_FailedFitKeepsServingSnapshot(t *testing.T) {
	t.Parallel()

	var fail atomic.Bool
	docs := testCorpus()
	ix := New(DefaultConfig(), func(ctx context.Context) ([]Document, error) {
		if fail.Load() {
			return nil, errors.New("storage unavailable")
		}
		return docs, nil
	}, zerolog.Nop())

	if err := ix.Fit(context.Background()); err != nil {
		t.Fatalf("Fit: %v", err)
	}
	before := ix.Stats()

	fail.Store(true)
	if err := ix.Fit(context.Background()); err == nil {
		t.Fatal("expected fit error")
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	fail.Store(false)
	if err := ix.Fit(ctx); !errors.Is(err, context.Canceled) {
		t.Fatalf("Fit(canceled) error = %v, want context.Canceled", err)
	}

	after := ix.Stats()
	if !after.Built || after.Documents != before.Documents || !after.BuiltAt.Equal(before.BuiltAt) {
		t.Errorf("serving snapshot changed: before %+v after %+v", before, after)
	}
}

func TestIndex_ConcurrentQueriesDuringFit(t *testing.T) {
	t.Parallel()

	ix, _ := newTestIndex(testCorpus())
	ctx := context.Background()
	if err := ix.Fit(ctx); err != nil {
		t.Fatalf("Fit: %v", err)
	}

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 20; j++ {
				if _, err := ix.Query(ctx, "football budget", 3, "", 0.05); err != nil {
					t.Errorf("Query: %v", err)
					return
				}
			}
		}()
	}
	for i := 0; i < 3; i++ {
		if err := ix.Fit(ctx); err != nil {
			t.Errorf("Fit: %v", err)
		}
	}
	wg.Wait()
}

func TestRebuilder_Throttles(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	r := NewRebuilder(func(context.Context) error {
		calls.Add(1)
		return nil
	}, time.Hour, 1)

	if err := r.Rebuild(context.Background()); err != nil {
		t.Fatalf("first Rebuild: %v", err)
	}
	if err := r.Rebuild(context.Background()); !errors.Is(err, ErrRebuildThrottled) {
		t.Errorf("second Rebuild error = %v, want ErrRebuildThrottled", err)
	}
	if got := calls.Load(); got != 1 {
		t.Errorf("fit called %d times, want 1", got)
	}
}

func TestLoadStopwords(t *testing.T) {
	t.Parallel()

	sw := DefaultStopwords()
	for _, w := range []string{"the", "and", "что"} {
		if !sw.Has(w) {
			t.Errorf("default stopwords missing %q", w)
		}
	}
	if sw.Has("# Russian") || sw.Has("") {
		t.Error("comments and blank lines must be skipped")
	}

	if _, err := LoadStopwords("/nonexistent/stopwords.txt"); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestLoadStopwords_FileReplacesDefault(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "stopwords.txt")
	content := "# domain list\nзаявил\nСообщает\n\nsaid\n"
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}

	sw, err := LoadStopwords(path)
	if err != nil {
		t.Fatalf("LoadStopwords: %v", err)
	}
	if len(sw) != 3 {
		t.Errorf("loaded %d words, want 3", len(sw))
	}
	for _, w := range []string{"заявил", "сообщает", "said"} {
		if !sw.Has(w) {
			t.Errorf("file stopwords missing %q", w)
		}
	}
	if sw.Has("the") || sw.Has("что") {
		t.Error("file list was merged with the embedded default")
	}
}
