// Newsrec - Personalized News Recommendation and Retrieval Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/newsrec

package api

import (
	"net/http"
	"strings"
	"time"

	"github.com/tomtom215/newsrec/internal/recommend"
)

// AddItem handles POST /items.
func (h *Handler) AddItem(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	var req addItemRequest
	if err := decodeBody(w, r, &req); err != nil {
		respondError(w, r, err)
		return
	}

	item := recommend.Item{
		Category:   recommend.Category(req.Category),
		Confidence: req.Confidence,
		Title:      strings.TrimSpace(req.Title),
		Content:    strings.TrimSpace(req.Content),
		Link:       req.Link,
	}
	if req.PublishedAt != nil {
		item.PublishedAt = req.PublishedAt.UTC()
	}

	ctx, cancel := h.ctx(r)
	defer cancel()
	created, err := h.engine.AddItem(ctx, item)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respond(w, r, http.StatusCreated, created, start)
}

// Item handles GET /items/{itemID}.
func (h *Handler) Item(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	itemID, err := pathID(r, "itemID")
	if err != nil {
		respondError(w, r, err)
		return
	}
	ctx, cancel := h.ctx(r)
	defer cancel()
	item, err := h.engine.Item(ctx, itemID)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respond(w, r, http.StatusOK, item, start)
}

// Similar handles GET /items/{itemID}/similar?top_n=&exclude_same_category=.
func (h *Handler) Similar(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	itemID, err := pathID(r, "itemID")
	if err != nil {
		respondError(w, r, err)
		return
	}
	q, err := parseSimilarQuery(r)
	if err != nil {
		respondError(w, r, err)
		return
	}

	ctx, cancel := h.ctx(r)
	defer cancel()
	matches, err := h.engine.SimilarTo(ctx, itemID, q.TopN, q.ExcludeSameCategory)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondList(w, r, matches, start)
}

func parseSimilarQuery(r *http.Request) (similarQuery, error) {
	var q similarQuery
	var err error
	if q.TopN, err = queryInt(r, "top_n"); err != nil {
		return q, err
	}
	if q.ExcludeSameCategory, err = queryBool(r, "exclude_same_category"); err != nil {
		return q, err
	}
	return q, validate(&q)
}

// Search handles GET /search?q=&top_n=&category=.
func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	q, err := parseSearchQuery(r)
	if err != nil {
		respondError(w, r, err)
		return
	}

	ctx, cancel := h.ctx(r)
	defer cancel()
	matches, err := h.engine.Search(ctx, q.Q, q.TopN, recommend.Category(q.Category))
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondList(w, r, matches, start)
}

func parseSearchQuery(r *http.Request) (searchQuery, error) {
	q := searchQuery{
		Q:        r.URL.Query().Get("q"),
		Category: r.URL.Query().Get("category"),
	}
	var err error
	if q.TopN, err = queryInt(r, "top_n"); err != nil {
		return q, err
	}
	return q, validate(&q)
}

// KeywordSearch handles GET /search/keyword?q=&limit=.
func (h *Handler) KeywordSearch(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	q := keywordQuery{Q: strings.TrimSpace(r.URL.Query().Get("q"))}
	var err error
	if q.Limit, err = queryInt(r, "limit"); err != nil {
		respondError(w, r, err)
		return
	}
	if err := validate(&q); err != nil {
		respondError(w, r, err)
		return
	}

	ctx, cancel := h.ctx(r)
	defer cancel()
	items, err := h.engine.KeywordSearch(ctx, q.Q, q.Limit)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondList(w, r, items, start)
}

// RebuildIndex handles POST /index/rebuild. Calls beyond the configured
// rate get 429.
func (h *Handler) RebuildIndex(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	ctx, cancel := h.ctx(r)
	defer cancel()
	if err := h.engine.RequestRebuild(ctx); err != nil {
		respondError(w, r, err)
		return
	}
	respond(w, r, http.StatusOK, h.engine.IndexStats(), start)
}

// IndexStats handles GET /index.
func (h *Handler) IndexStats(w http.ResponseWriter, r *http.Request) {
	respond(w, r, http.StatusOK, h.engine.IndexStats(), time.Time{})
}
