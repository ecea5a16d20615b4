// Newsrec - Personalized News Recommendation and Retrieval Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/newsrec

package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/tomtom215/newsrec/internal/middleware"
	"github.com/tomtom215/newsrec/internal/models"
)

// NewRouter builds the HTTP routing tree.
func NewRouter(h *Handler, cfg MiddlewareConfig) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(corsMiddleware(cfg)) // global so OPTIONS preflight is answered

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		respondAPIError(w, r, http.StatusNotFound, &models.APIError{Code: models.ErrCodeNotFound, Message: "route not found"})
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		respondAPIError(w, r, http.StatusMethodNotAllowed, &models.APIError{Code: "METHOD_NOT_ALLOWED", Message: "method not allowed"})
	})

	r.Get("/health", h.Health)
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(rateLimit(cfg))
		r.Use(middleware.PrometheusMetrics)
		r.Use(chimiddleware.Compress(5, "application/json"))

		r.Post("/users", h.RegisterUser)
		r.Route("/users/{userID}", func(r chi.Router) {
			r.Post("/reset", h.ResetUser)
			r.Get("/recommendations", h.Recommendations)
			r.Post("/reactions", h.React)
			r.Get("/stats", h.Stats)
			r.Get("/preferences", h.Preferences)
			r.Get("/interactions", h.Interactions)
			r.Post("/cache/refresh", h.RefreshCache)

			r.Route("/sessions/{mode}", func(r chi.Router) {
				r.Post("/", h.StartSession)
				r.Get("/", h.CurrentPage)
				r.Delete("/", h.EndSession)
				r.Get("/next", h.NextPage)
				r.Get("/prev", h.PrevPage)
			})
		})

		r.Post("/items", h.AddItem)
		r.Get("/items/{itemID}", h.Item)
		r.Get("/items/{itemID}/similar", h.Similar)

		r.Get("/search", h.Search)
		r.Get("/search/keyword", h.KeywordSearch)

		r.Get("/index", h.IndexStats)
		r.Post("/index/rebuild", h.RebuildIndex)
		r.Post("/cache/refresh-all", h.RefreshAll)
	})

	return r
}
