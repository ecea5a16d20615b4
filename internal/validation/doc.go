// Newsrec - Personalized News Recommendation and Retrieval Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/newsrec

/*
Package validation provides request validation using go-playground/validator v10.

It exposes a thread-safe singleton validator with the custom tags
"category" and "reaction", and reports failed fields by their json or
query tag names so messages match the wire format.

# Usage

	type reactionRequest struct {
	    ItemID    int64  `json:"item_id" validate:"required,gt=0"`
	    Reaction  string `json:"reaction" validate:"required,reaction"`
	    LatencyMs int64  `json:"latency_ms" validate:"gte=0"`
	}

	if verr := validation.ValidateStruct(&req); verr != nil {
	    // verr unwraps to recommend.ErrValidation
	}

ValidateStruct returns a concrete *RequestValidationError. Compare it with
nil before assigning it to an error interface.
*/
package validation
