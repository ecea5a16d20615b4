// Newsrec - Personalized News Recommendation and Retrieval Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/newsrec

package api

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/tomtom215/newsrec/internal/logging"
	"github.com/tomtom215/newsrec/internal/recommend"
	"github.com/tomtom215/newsrec/internal/session"
)

func sessionParams(r *http.Request) (int64, session.Mode, error) {
	userID, err := pathID(r, "userID")
	if err != nil {
		return 0, "", err
	}
	mode, err := session.ParseMode(chi.URLParam(r, "mode"))
	if err != nil {
		return 0, "", err
	}
	return userID, mode, nil
}

// StartSession handles POST /users/{userID}/sessions/{mode}. It runs the
// mode's query and opens a session on the first result.
func (h *Handler) StartSession(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	userID, mode, err := sessionParams(r)
	if err != nil {
		respondError(w, r, err)
		return
	}
	var req startSessionRequest
	if err := decodeBody(w, r, &req); err != nil {
		respondError(w, r, err)
		return
	}

	ctx, cancel := h.ctx(r)
	defer cancel()
	ctx = logging.WithUserID(ctx, userID)

	items, err := h.sessionItems(ctx, userID, mode, &req)
	if err != nil {
		respondError(w, r, err)
		return
	}
	page, err := h.pager.Start(userID, mode, items, strings.TrimSpace(req.Query))
	if err != nil {
		respondError(w, r, err)
		return
	}
	respond(w, r, http.StatusCreated, page, start)
}

func (h *Handler) sessionItems(ctx context.Context, userID int64, mode session.Mode, req *startSessionRequest) ([]recommend.Item, error) {
	switch mode {
	case session.ModeNews:
		n := req.N
		if n == 0 {
			n = h.pageSize
		}
		return h.engine.Recommend(ctx, userID, n, h.diversity(req.Diversity))

	case session.ModeSimilar:
		if req.ItemID <= 0 {
			return nil, invalid("item_id is required for similar sessions")
		}
		matches, err := h.engine.SimilarTo(ctx, req.ItemID, h.topN(req.TopN), req.ExcludeSameCategory)
		return matchItems(matches), err

	default:
		query := strings.TrimSpace(req.Query)
		if query == "" {
			return nil, invalid("query is required for search sessions")
		}
		matches, err := h.engine.Search(ctx, query, h.topN(req.TopN), recommend.Category(req.Category))
		return matchItems(matches), err
	}
}

func (h *Handler) topN(n int) int {
	if n == 0 {
		return h.pageSize
	}
	return n
}

func matchItems(matches []recommend.Match) []recommend.Item {
	items := make([]recommend.Item, len(matches))
	for i := range matches {
		items[i] = matches[i].Item
	}
	return items
}

// CurrentPage handles GET /users/{userID}/sessions/{mode}.
func (h *Handler) CurrentPage(w http.ResponseWriter, r *http.Request) {
	h.step(w, r, h.pager.Current)
}

// NextPage handles GET /users/{userID}/sessions/{mode}/next.
func (h *Handler) NextPage(w http.ResponseWriter, r *http.Request) {
	h.step(w, r, h.pager.Next)
}

// PrevPage handles GET /users/{userID}/sessions/{mode}/prev.
func (h *Handler) PrevPage(w http.ResponseWriter, r *http.Request) {
	h.step(w, r, h.pager.Prev)
}

func (h *Handler) step(w http.ResponseWriter, r *http.Request, move func(int64, session.Mode) (session.Page, error)) {
	start := time.Now()
	userID, mode, err := sessionParams(r)
	if err != nil {
		respondError(w, r, err)
		return
	}
	page, err := move(userID, mode)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respond(w, r, http.StatusOK, page, start)
}

// EndSession handles DELETE /users/{userID}/sessions/{mode}.
func (h *Handler) EndSession(w http.ResponseWriter, r *http.Request) {
	userID, mode, err := sessionParams(r)
	if err != nil {
		respondError(w, r, err)
		return
	}
	h.pager.End(userID, mode)
	w.WriteHeader(http.StatusNoContent)
}
