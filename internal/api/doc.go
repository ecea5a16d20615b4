// Newsrec - Personalized News Recommendation and Retrieval Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/newsrec

/*
Package api exposes the recommendation engine over HTTP.

Routes are served by chi under /api/v1 and share one JSON envelope
(models.APIResponse). Engine errors map onto status codes:

	recommend.ErrValidation      400 VALIDATION_ERROR
	recommend.ErrNotFound        404 NOT_FOUND
	index.ErrRebuildThrottled    429 RATE_LIMIT_EXCEEDED
	recommend.ErrPersistence     500 PERSISTENCE_ERROR
	anything else                500 INTERNAL_ERROR

Request bodies and query parameters are validated with
go-playground/validator before they reach the engine; failures carry a
per-field list in error.details.fields.

# Middleware

Global: RequestID, chi RealIP, chi Recoverer, CORS. The /api/v1 group adds
a per-IP httprate limit, Prometheus request metrics and gzip compression.
GET /health and GET /metrics sit outside the rate limit.

# Reading sessions

A session pages one item at a time through a recommendation, similarity
or search result, mirroring a chat front-end's next/previous buttons:

	POST /api/v1/users/{userID}/sessions/{mode}       start (mode: news|similar|search)
	GET  /api/v1/users/{userID}/sessions/{mode}       current item
	GET  /api/v1/users/{userID}/sessions/{mode}/next
	GET  /api/v1/users/{userID}/sessions/{mode}/prev
	DELETE /api/v1/users/{userID}/sessions/{mode}
*/
package api
