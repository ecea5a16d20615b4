// Newsrec - Personalized News Recommendation and Retrieval Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/newsrec

package index

import (
	"context"
	"math"
	"sort"
	"strings"

	"github.com/tomtom215/newsrec/internal/textutil"
)

// minTokenLen is the shortest token kept, in runes.
const minTokenLen = 2

// entry is one non-zero component of a sparse vector.
type entry struct {
	idx int
	w   float64
}

// vector is a sparse L2-normalized vector ordered by feature index.
type vector []entry

// dot returns the inner product of two index-ordered sparse vectors. For
// normalized vectors this is their cosine similarity.
func dot(a, b vector) float64 {
	var sum float64
	i, j := 0, 0
	for i < len(a) && j < len(b) {
		switch {
		case a[i].idx == b[j].idx:
			sum += a[i].w * b[j].w
			i++
			j++
		case a[i].idx < b[j].idx:
			i++
		default:
			j++
		}
	}
	return sum
}

// analyzer turns raw text into unigram and bigram terms.
type analyzer struct {
	stopwords Stopwords
	ngramMax  int
}

// terms returns the n-gram terms of text. Stopwords are dropped before
// n-grams are formed, so bigrams join the surviving neighbors.
func (a analyzer) terms(text string) []string {
	raw := textutil.Tokens(text, minTokenLen)
	tokens := raw[:0]
	for _, t := range raw {
		if !a.stopwords.Has(t) {
			tokens = append(tokens, t)
		}
	}

	out := make([]string, 0, len(tokens)*a.ngramMax)
	out = append(out, tokens...)
	for n := 2; n <= a.ngramMax; n++ {
		for i := 0; i+n <= len(tokens); i++ {
			out = append(out, strings.Join(tokens[i:i+n], " "))
		}
	}
	return out
}

// vectorizer holds a fitted vocabulary and its inverse document
// frequencies.
type vectorizer struct {
	analyzer analyzer
	vocab    map[string]int
	idf      []float64
}

// fitVectorizer learns the vocabulary from the analyzed documents and
// returns the vectorizer together with each document's vector.
//
// The vocabulary keeps the maxFeatures terms with the highest corpus
// frequency (ties broken alphabetically) and indexes them alphabetically.
// IDF is smoothed: ln((1+n)/(1+df)) + 1.
func fitVectorizer(ctx context.Context, a analyzer, texts []string, maxFeatures int) (*vectorizer, []vector, error) {
	docs := make([][]string, len(texts))
	termFreq := make(map[string]int)
	docFreq := make(map[string]int)

	for i, text := range texts {
		if i%256 == 0 && ctx.Err() != nil {
			return nil, nil, ctx.Err()
		}
		terms := a.terms(text)
		docs[i] = terms

		seen := make(map[string]struct{}, len(terms))
		for _, t := range terms {
			termFreq[t]++
			if _, ok := seen[t]; !ok {
				seen[t] = struct{}{}
				docFreq[t]++
			}
		}
	}

	kept := make([]string, 0, len(termFreq))
	for t := range termFreq {
		kept = append(kept, t)
	}
	if maxFeatures > 0 && len(kept) > maxFeatures {
		sort.Slice(kept, func(i, j int) bool {
			if termFreq[kept[i]] != termFreq[kept[j]] {
				return termFreq[kept[i]] > termFreq[kept[j]]
			}
			return kept[i] < kept[j]
		})
		kept = kept[:maxFeatures]
	}
	sort.Strings(kept)

	v := &vectorizer{
		analyzer: a,
		vocab:    make(map[string]int, len(kept)),
		idf:      make([]float64, len(kept)),
	}
	n := float64(len(texts))
	for i, t := range kept {
		v.vocab[t] = i
		v.idf[i] = math.Log((1+n)/(1+float64(docFreq[t]))) + 1
	}

	vectors := make([]vector, len(docs))
	for i, terms := range docs {
		if i%256 == 0 && ctx.Err() != nil {
			return nil, nil, ctx.Err()
		}
		vectors[i] = v.vectorize(terms)
	}
	return v, vectors, nil
}

// transform vectorizes arbitrary text against the fitted vocabulary.
func (v *vectorizer) transform(text string) vector {
	return v.vectorize(v.analyzer.terms(text))
}

func (v *vectorizer) vectorize(terms []string) vector {
	counts := make(map[int]int)
	for _, t := range terms {
		if idx, ok := v.vocab[t]; ok {
			counts[idx]++
		}
	}
	if len(counts) == 0 {
		return nil
	}

	vec := make(vector, 0, len(counts))
	var norm float64
	for idx, c := range counts {
		w := float64(c) * v.idf[idx]
		vec = append(vec, entry{idx: idx, w: w})
		norm += w * w
	}
	norm = math.Sqrt(norm)
	for i := range vec {
		vec[i].w /= norm
	}
	sort.Slice(vec, func(i, j int) bool { return vec[i].idx < vec[j].idx })
	return vec
}

// features returns the vocabulary size.
func (v *vectorizer) features() int {
	return len(v.idf)
}
