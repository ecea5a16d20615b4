// Newsrec - Personalized News Recommendation and Retrieval Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/newsrec

package index

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"github.com/tomtom215/newsrec/internal/metrics"
)

// Document is one corpus entry as seen by the index.
type Document struct {
	ID       int64
	Category string
	Text     string
}

// Result is a scored match.
type Result struct {
	ID         int64   `json:"id"`
	Category   string  `json:"category"`
	Similarity float64 `json:"similarity"`
}

// Loader returns the full corpus for a fit.
type Loader func(ctx context.Context) ([]Document, error)

// Config holds index parameters.
type Config struct {
	// MaxFeatures bounds the vocabulary size.
	MaxFeatures int `json:"max_features"`

	// NGramMax is the longest n-gram indexed (2 for unigrams+bigrams).
	NGramMax int `json:"ngram_max"`

	// Stopwords are excluded before n-grams are built.
	Stopwords Stopwords `json:"-"`
}

// DefaultConfig returns the default index parameters.
func DefaultConfig() Config {
	return Config{
		MaxFeatures: 1000,
		NGramMax:    2,
		Stopwords:   DefaultStopwords(),
	}
}

// snapshot is an immutable built index. ids, categories and vectors are
// parallel: row i of each describes the same document.
type snapshot struct {
	ids        []int64
	categories []string
	vectors    []vector
	rows       map[int64]int
	vec        *vectorizer
	builtAt    time.Time
}

// Index is a TF-IDF similarity index over the corpus.
//
// Queries read the current snapshot through an atomic pointer and never
// block on a fit. Fits are serialized and swap in a complete snapshot only
// on success, so a canceled or failed fit leaves the previous one serving.
type Index struct {
	cfg    Config
	loader Loader
	logger zerolog.Logger

	current atomic.Pointer[snapshot]
	fitMu   sync.Mutex
}

// New creates an unbuilt index. The first query triggers a fit through
// loader.
//
//nolint:gocritic // zerolog.Logger is designed to be passed by value
func New(cfg Config, loader Loader, logger zerolog.Logger) *Index {
	if cfg.NGramMax < 1 {
		cfg.NGramMax = 1
	}
	if cfg.Stopwords == nil {
		cfg.Stopwords = Stopwords{}
	}
	return &Index{
		cfg:    cfg,
		loader: loader,
		logger: logger.With().Str("component", "similarity-index").Logger(),
	}
}

// Fit loads the corpus and rebuilds the index wholesale.
//
// An empty corpus leaves the index unbuilt so the next query retries.
func (ix *Index) Fit(ctx context.Context) error {
	ix.fitMu.Lock()
	defer ix.fitMu.Unlock()
	return ix.fitLocked(ctx)
}

func (ix *Index) fitLocked(ctx context.Context) error {
	start := time.Now()

	docs, err := ix.loader(ctx)
	if err != nil {
		ix.recordFailure(err)
		return fmt.Errorf("load corpus: %w", err)
	}
	if len(docs) == 0 {
		ix.logger.Info().Msg("Corpus is empty, similarity index left unbuilt")
		return nil
	}

	snap, err := ix.build(ctx, docs)
	if err != nil {
		ix.recordFailure(err)
		return fmt.Errorf("build index: %w", err)
	}
	ix.current.Store(snap)

	metrics.RecordIndexBuild(time.Since(start), len(snap.ids), snap.vec.features())
	ix.logger.Info().
		Int("documents", len(snap.ids)).
		Int("features", snap.vec.features()).
		Dur("duration", time.Since(start)).
		Msg("Similarity index built")
	return nil
}

func (ix *Index) recordFailure(err error) {
	reason := "error"
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		reason = "canceled"
	}
	metrics.IndexBuildErrors.WithLabelValues(reason).Inc()
	ix.logger.Warn().Err(err).Str("reason", reason).Msg("Similarity index fit discarded")
}

func (ix *Index) build(ctx context.Context, docs []Document) (*snapshot, error) {
	texts := make([]string, len(docs))
	for i := range docs {
		texts[i] = docs[i].Text
	}

	a := analyzer{stopwords: ix.cfg.Stopwords, ngramMax: ix.cfg.NGramMax}
	vec, vectors, err := fitVectorizer(ctx, a, texts, ix.cfg.MaxFeatures)
	if err != nil {
		return nil, err
	}

	snap := &snapshot{
		ids:        make([]int64, len(docs)),
		categories: make([]string, len(docs)),
		vectors:    vectors,
		rows:       make(map[int64]int, len(docs)),
		vec:        vec,
		builtAt:    time.Now(),
	}
	for i := range docs {
		snap.ids[i] = docs[i].ID
		snap.categories[i] = docs[i].Category
		snap.rows[docs[i].ID] = i
	}
	return snap, nil
}

// ensure returns the serving snapshot, fitting lazily when none exists.
// A nil snapshot with a nil error means the corpus is empty.
func (ix *Index) ensure(ctx context.Context) (*snapshot, error) {
	if s := ix.current.Load(); s != nil {
		return s, nil
	}

	ix.fitMu.Lock()
	defer ix.fitMu.Unlock()
	if s := ix.current.Load(); s != nil {
		return s, nil
	}
	if err := ix.fitLocked(ctx); err != nil {
		return nil, err
	}
	return ix.current.Load(), nil
}

// Neighbors returns the topN documents most similar to doc, excluding doc
// itself and, when excludeSameCategory is set, documents sharing its
// category. Documents added after the last fit are vectorized from text.
//
//nolint:gocritic // Document is a small read-only value
func (ix *Index) Neighbors(ctx context.Context, doc Document, topN int, excludeSameCategory bool) ([]Result, error) {
	start := time.Now()
	defer func() { metrics.RecordSimilarityQuery("neighbors", time.Since(start)) }()

	snap, err := ix.ensure(ctx)
	if err != nil || snap == nil || topN <= 0 {
		return nil, err
	}

	var q vector
	if row, ok := snap.rows[doc.ID]; ok {
		q = snap.vectors[row]
	} else {
		q = snap.vec.transform(doc.Text)
	}

	return snap.rank(q, topN, func(row int) bool {
		if snap.ids[row] == doc.ID {
			return false
		}
		return !excludeSameCategory || snap.categories[row] != doc.Category
	}, nil), nil
}

// Query vectorizes text against the fitted vocabulary and returns up to
// topN documents with similarity strictly above minSimilarity. A non-empty
// category restricts matches to that category.
func (ix *Index) Query(ctx context.Context, text string, topN int, category string, minSimilarity float64) ([]Result, error) {
	start := time.Now()
	defer func() { metrics.RecordSimilarityQuery("query", time.Since(start)) }()

	snap, err := ix.ensure(ctx)
	if err != nil || snap == nil || topN <= 0 {
		return nil, err
	}

	q := snap.vec.transform(text)
	if len(q) == 0 {
		return nil, nil
	}

	return snap.rank(q, topN, func(row int) bool {
		return category == "" || snap.categories[row] == category
	}, func(sim float64) bool {
		return sim > minSimilarity
	}), nil
}

// Similarity returns the cosine similarity between two indexed documents.
// The second return value is false when either is not in the serving
// snapshot.
func (ix *Index) Similarity(a, b int64) (float64, bool) {
	snap := ix.current.Load()
	if snap == nil {
		return 0, false
	}
	ra, okA := snap.rows[a]
	rb, okB := snap.rows[b]
	if !okA || !okB {
		return 0, false
	}
	return dot(snap.vectors[ra], snap.vectors[rb]), true
}

// Stats describes the serving snapshot.
type Stats struct {
	Built     bool      `json:"built"`
	Documents int       `json:"documents"`
	Features  int       `json:"features"`
	BuiltAt   time.Time `json:"built_at,omitempty"`
}

// Stats returns information about the serving snapshot.
func (ix *Index) Stats() Stats {
	snap := ix.current.Load()
	if snap == nil {
		return Stats{}
	}
	return Stats{
		Built:     true,
		Documents: len(snap.ids),
		Features:  snap.vec.features(),
		BuiltAt:   snap.builtAt,
	}
}

// rank scores every eligible row against q and returns the best topN.
func (s *snapshot) rank(q vector, topN int, eligible func(row int) bool, accept func(sim float64) bool) []Result {
	results := make([]Result, 0, len(s.ids))
	for row := range s.ids {
		if !eligible(row) {
			continue
		}
		sim := dot(q, s.vectors[row])
		if accept != nil && !accept(sim) {
			continue
		}
		results = append(results, Result{
			ID:         s.ids[row],
			Category:   s.categories[row],
			Similarity: sim,
		})
	}

	sort.SliceStable(results, func(i, j int) bool {
		if results[i].Similarity != results[j].Similarity {
			return results[i].Similarity > results[j].Similarity
		}
		return results[i].ID < results[j].ID
	})
	if len(results) > topN {
		results = results[:topN]
	}
	return results
}
