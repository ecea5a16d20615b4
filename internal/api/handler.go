// Newsrec - Personalized News Recommendation and Retrieval Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/newsrec

package api

import (
	"context"
	"net/http"
	"time"

	"github.com/tomtom215/newsrec/internal/models"
	"github.com/tomtom215/newsrec/internal/recommend"
	"github.com/tomtom215/newsrec/internal/session"
)

// Handler serves the HTTP API.
type Handler struct {
	engine    *recommend.Engine
	pager     *session.Pager
	pageSize  int
	timeout   time.Duration
	version   string
	startedAt time.Time
}

// HandlerOption configures a Handler.
type HandlerOption func(*Handler)

// WithVersion sets the version reported by /health.
func WithVersion(v string) HandlerOption {
	return func(h *Handler) { h.version = v }
}

// WithSessionPageSize sets how many items a session is started with when
// the request does not say.
func WithSessionPageSize(n int) HandlerOption {
	return func(h *Handler) {
		if n > 0 {
			h.pageSize = n
		}
	}
}

// WithRequestTimeout bounds engine calls made by a single request.
func WithRequestTimeout(d time.Duration) HandlerOption {
	return func(h *Handler) {
		if d > 0 {
			h.timeout = d
		}
	}
}

// NewHandler creates a Handler.
func NewHandler(engine *recommend.Engine, pager *session.Pager, opts ...HandlerOption) *Handler {
	h := &Handler{
		engine:    engine,
		pager:     pager,
		pageSize:  engine.Config().Limits.DefaultN,
		timeout:   30 * time.Second,
		startedAt: time.Now(),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

func (h *Handler) ctx(r *http.Request) (context.Context, context.CancelFunc) {
	return context.WithTimeout(r.Context(), h.timeout)
}

// Health reports liveness and the state of the similarity index.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	st := h.engine.IndexStats()
	status := "ok"
	if !st.Built {
		status = "degraded"
	}
	respond(w, r, http.StatusOK, models.HealthStatus{
		Status:  status,
		Version: h.version,
		Uptime:  time.Since(h.startedAt).Round(time.Second).String(),
		Index: models.IndexHealth{
			Built:     st.Built,
			Documents: st.Documents,
			Features:  st.Features,
			BuiltAt:   st.BuiltAt,
		},
	}, time.Time{})
}
