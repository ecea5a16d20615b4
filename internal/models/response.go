// Newsrec - Personalized News Recommendation and Retrieval Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/newsrec

package models

import (
	"time"
)

// Response status values.
const (
	StatusSuccess = "success"
	StatusError   = "error"
)

// APIResponse is the envelope used by every HTTP endpoint.
//
// Example successful response:
//
//	{
//	  "status": "success",
//	  "data": [{"id": 12, "category": "science", "title": "..."}],
//	  "metadata": {
//	    "timestamp": "2026-05-10T09:00:00Z",
//	    "request_id": "6f1c...",
//	    "query_time_ms": 4
//	  }
//	}
//
// Example error response:
//
//	{
//	  "status": "error",
//	  "data": null,
//	  "metadata": {"timestamp": "2026-05-10T09:00:00Z", "request_id": "6f1c..."},
//	  "error": {
//	    "code": "VALIDATION_ERROR",
//	    "message": "diversity must be in [0,1], got 2"
//	  }
//	}
type APIResponse struct {
	Status   string      `json:"status"`
	Data     interface{} `json:"data"`
	Metadata Metadata    `json:"metadata"`
	Error    *APIError   `json:"error,omitempty"`
}

// Metadata describes how a response was produced.
type Metadata struct {
	Timestamp   time.Time `json:"timestamp"`
	RequestID   string    `json:"request_id,omitempty"`
	QueryTimeMS int64     `json:"query_time_ms,omitempty"`
	Count       *int      `json:"count,omitempty"`
}

// APIError is a machine-readable error.
//
// Codes:
//   - VALIDATION_ERROR: malformed or out-of-range input (400)
//   - NOT_FOUND: unknown user, item or session (404)
//   - RATE_LIMIT_EXCEEDED: throttled, including index rebuilds (429)
//   - PERSISTENCE_ERROR: the store failed; nothing was changed (500)
//   - INTERNAL_ERROR: anything else (500)
type APIError struct {
	Code    string                 `json:"code"`
	Message string                 `json:"message"`
	Details map[string]interface{} `json:"details,omitempty"`
}

// Error codes.
const (
	ErrCodeValidation  = "VALIDATION_ERROR"
	ErrCodeNotFound    = "NOT_FOUND"
	ErrCodeRateLimit   = "RATE_LIMIT_EXCEEDED"
	ErrCodePersistence = "PERSISTENCE_ERROR"
	ErrCodeInternal    = "INTERNAL_ERROR"
	ErrCodeUnavailable = "SERVICE_UNAVAILABLE"
)

// HealthStatus is the body of GET /health.
type HealthStatus struct {
	Status  string      `json:"status"`
	Version string      `json:"version,omitempty"`
	Uptime  string      `json:"uptime"`
	Index   IndexHealth `json:"index"`
}

// IndexHealth summarizes the serving similarity index.
type IndexHealth struct {
	Built     bool      `json:"built"`
	Documents int       `json:"documents"`
	Features  int       `json:"features"`
	BuiltAt   time.Time `json:"built_at,omitempty"`
}

// RefreshResult reports a cache refresh sweep.
type RefreshResult struct {
	Refreshed int `json:"refreshed"`
	Failed    int `json:"failed"`
}
