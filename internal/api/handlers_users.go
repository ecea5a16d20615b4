// Newsrec - Personalized News Recommendation and Retrieval Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/newsrec

package api

import (
	"net/http"
	"time"

	"github.com/tomtom215/newsrec/internal/logging"
	"github.com/tomtom215/newsrec/internal/models"
	"github.com/tomtom215/newsrec/internal/recommend"
)

// RegisterUser handles POST /users.
func (h *Handler) RegisterUser(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	var req registerUserRequest
	if err := decodeBody(w, r, &req); err != nil {
		respondError(w, r, err)
		return
	}

	ctx, cancel := h.ctx(r)
	defer cancel()
	user, err := h.engine.RegisterUser(ctx, req.ID, req.ExternalID, toCategories(req.Interests))
	if err != nil {
		respondError(w, r, err)
		return
	}
	respond(w, r, http.StatusCreated, user, start)
}

// ResetUser handles POST /users/{userID}/reset and returns the fresh
// preference weights.
func (h *Handler) ResetUser(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	userID, err := pathID(r, "userID")
	if err != nil {
		respondError(w, r, err)
		return
	}
	var req resetUserRequest
	if err := decodeBody(w, r, &req); err != nil {
		respondError(w, r, err)
		return
	}

	ctx, cancel := h.ctx(r)
	defer cancel()
	ctx = logging.WithUserID(ctx, userID)
	if err := h.engine.ResetUser(ctx, userID, toCategories(req.Interests)); err != nil {
		respondError(w, r, err)
		return
	}
	prefs, err := h.engine.Preferences(ctx, userID)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondList(w, r, prefs, start)
}

// Recommendations handles GET /users/{userID}/recommendations?n=&diversity=.
func (h *Handler) Recommendations(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	userID, err := pathID(r, "userID")
	if err != nil {
		respondError(w, r, err)
		return
	}
	q, err := parseRecommendQuery(r)
	if err != nil {
		respondError(w, r, err)
		return
	}

	ctx, cancel := h.ctx(r)
	defer cancel()
	items, err := h.engine.Recommend(logging.WithUserID(ctx, userID), userID, q.N, h.diversity(q.Diversity))
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondList(w, r, items, start)
}

func parseRecommendQuery(r *http.Request) (recommendQuery, error) {
	var q recommendQuery
	var err error
	if q.N, err = queryInt(r, "n"); err != nil {
		return q, err
	}
	if q.Diversity, err = queryFloat(r, "diversity"); err != nil {
		return q, err
	}
	return q, validate(&q)
}

func (h *Handler) diversity(d *float64) float64 {
	if d == nil {
		return h.engine.Config().Ranker.DefaultDiversity
	}
	return *d
}

// React handles POST /users/{userID}/reactions and returns the updated
// engagement stats.
func (h *Handler) React(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	userID, err := pathID(r, "userID")
	if err != nil {
		respondError(w, r, err)
		return
	}
	var req reactionRequest
	if err := decodeBody(w, r, &req); err != nil {
		respondError(w, r, err)
		return
	}

	ctx, cancel := h.ctx(r)
	defer cancel()
	ctx = logging.WithUserID(ctx, userID)
	latency := time.Duration(req.LatencyMs) * time.Millisecond
	if err := h.engine.React(ctx, userID, req.ItemID, recommend.Reaction(req.Reaction), latency); err != nil {
		respondError(w, r, err)
		return
	}
	stats, err := h.engine.Stats(ctx, userID)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respond(w, r, http.StatusOK, stats, start)
}

// Stats handles GET /users/{userID}/stats.
func (h *Handler) Stats(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	userID, err := pathID(r, "userID")
	if err != nil {
		respondError(w, r, err)
		return
	}
	ctx, cancel := h.ctx(r)
	defer cancel()
	stats, err := h.engine.Stats(ctx, userID)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respond(w, r, http.StatusOK, stats, start)
}

// Preferences handles GET /users/{userID}/preferences.
func (h *Handler) Preferences(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	userID, err := pathID(r, "userID")
	if err != nil {
		respondError(w, r, err)
		return
	}
	ctx, cancel := h.ctx(r)
	defer cancel()
	prefs, err := h.engine.Preferences(ctx, userID)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondList(w, r, prefs, start)
}

// Interactions handles GET /users/{userID}/interactions?limit=.
func (h *Handler) Interactions(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	userID, err := pathID(r, "userID")
	if err != nil {
		respondError(w, r, err)
		return
	}
	var q interactionsQuery
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
	recs, err := h.engine.Interactions(ctx, userID, q.Limit)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondList(w, r, recs, start)
}

// RefreshCache handles POST /users/{userID}/cache/refresh.
func (h *Handler) RefreshCache(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	userID, err := pathID(r, "userID")
	if err != nil {
		respondError(w, r, err)
		return
	}
	ctx, cancel := h.ctx(r)
	defer cancel()
	if err := h.engine.RefreshCache(logging.WithUserID(ctx, userID), userID); err != nil {
		respondError(w, r, err)
		return
	}
	respond(w, r, http.StatusOK, models.RefreshResult{Refreshed: 1}, start)
}

// RefreshAll handles POST /cache/refresh-all.
func (h *Handler) RefreshAll(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	ctx, cancel := h.ctx(r)
	defer cancel()
	refreshed, failed, err := h.engine.RefreshAll(ctx)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respond(w, r, http.StatusOK, models.RefreshResult{Refreshed: refreshed, Failed: failed}, start)
}
