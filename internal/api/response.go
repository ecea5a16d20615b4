// Newsrec - Personalized News Recommendation and Retrieval Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/newsrec

package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/goccy/go-json"

	"github.com/tomtom215/newsrec/internal/index"
	"github.com/tomtom215/newsrec/internal/logging"
	"github.com/tomtom215/newsrec/internal/models"
	"github.com/tomtom215/newsrec/internal/recommend"
	"github.com/tomtom215/newsrec/internal/validation"
)

func writeJSON(w http.ResponseWriter, r *http.Request, status int, resp *models.APIResponse) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")

	data, err := json.Marshal(resp)
	if err != nil {
		logging.Ctx(r.Context()).Error().Err(err).Msg("Failed to marshal JSON response")
		w.WriteHeader(http.StatusInternalServerError)
		return
	}
	w.WriteHeader(status)
	if _, err := w.Write(data); err != nil {
		logging.Ctx(r.Context()).Debug().Err(err).Msg("Failed to write JSON response")
	}
}

func metadata(r *http.Request, start time.Time) models.Metadata {
	md := models.Metadata{
		Timestamp: time.Now().UTC(),
		RequestID: logging.RequestID(r.Context()),
	}
	if !start.IsZero() {
		md.QueryTimeMS = time.Since(start).Milliseconds()
	}
	return md
}

// respond writes a success envelope.
func respond(w http.ResponseWriter, r *http.Request, status int, data interface{}, start time.Time) {
	writeJSON(w, r, status, &models.APIResponse{
		Status:   models.StatusSuccess,
		Data:     data,
		Metadata: metadata(r, start),
	})
}

// respondList writes a success envelope with the element count.
func respondList[T any](w http.ResponseWriter, r *http.Request, list []T, start time.Time) {
	if list == nil {
		list = []T{}
	}
	n := len(list)
	md := metadata(r, start)
	md.Count = &n
	writeJSON(w, r, http.StatusOK, &models.APIResponse{
		Status:   models.StatusSuccess,
		Data:     list,
		Metadata: md,
	})
}

func respondAPIError(w http.ResponseWriter, r *http.Request, status int, apiErr *models.APIError) {
	writeJSON(w, r, status, &models.APIResponse{
		Status:   models.StatusError,
		Metadata: metadata(r, time.Time{}),
		Error:    apiErr,
	})
}

// respondError maps err onto a status code and writes an error envelope.
// Server-side failures are logged with the request's ids.
func respondError(w http.ResponseWriter, r *http.Request, err error) {
	status, apiErr := classify(err)
	if status >= http.StatusInternalServerError {
		logging.Ctx(r.Context()).Error().Err(err).
			Str("method", r.Method).
			Str("path", sanitizeLogValue(r.URL.Path)).
			Msg("API request failed")
	}
	respondAPIError(w, r, status, apiErr)
}

func classify(err error) (int, *models.APIError) {
	var verr *validation.RequestValidationError
	switch {
	case errors.As(err, &verr):
		return http.StatusBadRequest, &models.APIError{
			Code:    models.ErrCodeValidation,
			Message: verr.Error(),
			Details: verr.Details(),
		}
	case errors.Is(err, recommend.ErrValidation):
		return http.StatusBadRequest, &models.APIError{Code: models.ErrCodeValidation, Message: err.Error()}
	case errors.Is(err, recommend.ErrNotFound):
		return http.StatusNotFound, &models.APIError{Code: models.ErrCodeNotFound, Message: err.Error()}
	case errors.Is(err, index.ErrRebuildThrottled):
		return http.StatusTooManyRequests, &models.APIError{Code: models.ErrCodeRateLimit, Message: err.Error()}
	case errors.Is(err, recommend.ErrPersistence):
		return http.StatusInternalServerError, &models.APIError{
			Code:    models.ErrCodePersistence,
			Message: "storage failure; no changes were made",
		}
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusServiceUnavailable, &models.APIError{Code: models.ErrCodeUnavailable, Message: "request timed out"}
	default:
		return http.StatusInternalServerError, &models.APIError{Code: models.ErrCodeInternal, Message: "internal error"}
	}
}

// sanitizeLogValue escapes control characters so request data cannot
// forge log lines.
func sanitizeLogValue(s string) string {
	out := make([]byte, 0, len(s))
	const hex = "0123456789abcdef"
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c < 0x20 || c == 0x7f {
			out = append(out, '\\', 'x', hex[c>>4], hex[c&0xf])
			continue
		}
		out = append(out, c)
	}
	return string(out)
}
