// Newsrec - Personalized News Recommendation and Retrieval Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/newsrec

/*
Package middleware provides HTTP middleware for the API router.

  - RequestID: X-Request-ID propagation plus request-scoped correlation id
    and logger (see logging.Ctx)
  - PrometheusMetrics: request count, latency and in-flight gauge labeled
    by chi route pattern

Both have the standard func(http.Handler) http.Handler shape and are
mounted with chi's Use:

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Route("/api/v1", func(r chi.Router) {
	    r.Use(middleware.PrometheusMetrics)
	})
*/
package middleware
