// Newsrec - Personalized News Recommendation and Retrieval Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/newsrec

package validation

import (
	"errors"
	"strings"
	"testing"

	"github.com/tomtom215/newsrec/internal/recommend"
)

func TestGetValidator_Singleton(t *testing.T) {
	t.Parallel()

	v1 := GetValidator()
	v2 := GetValidator()
	if v1 == nil {
		t.Fatal("GetValidator() returned nil")
	}
	if v1 != v2 {
		t.Error("GetValidator() should return the same singleton instance")
	}
}

type reactionRequest struct {
	ItemID    int64  `json:"item_id" validate:"required,gt=0"`
	Reaction  string `json:"reaction" validate:"required,reaction"`
	LatencyMs int64  `json:"latency_ms" validate:"gte=0"`
}

type registerRequest struct {
	ID        int64    `json:"id" validate:"required,gt=0"`
	Interests []string `json:"interests" validate:"max=11,unique,dive,category"`
}

type searchQuery struct {
	Text     string `query:"q" validate:"required,max=500"`
	TopN     int    `query:"top_n" validate:"gte=0,lte=100"`
	Category string `query:"category" validate:"omitempty,category"`
	Internal string `json:"-" validate:"omitempty"`
}

func TestValidateStruct_Valid(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		input interface{}
	}{
		{"reaction", &reactionRequest{ItemID: 3, Reaction: "like", LatencyMs: 1200}},
		{"skip with zero latency", &reactionRequest{ItemID: 3, Reaction: "skip"}},
		{"register with interests", &registerRequest{ID: 7, Interests: []string{"sports", "science"}}},
		{"register without interests", &registerRequest{ID: 7}},
		{"search", &searchQuery{Text: "election results", TopN: 5, Category: "politics"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if err := ValidateStruct(tt.input); err != nil {
				t.Errorf("ValidateStruct() returned unexpected error: %v", err)
			}
		})
	}
}

func TestValidateStruct_Invalid(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		input     interface{}
		wantField string
		wantTag   string
	}{
		{"missing item", &reactionRequest{Reaction: "like"}, "item_id", "required"},
		{"unknown reaction", &reactionRequest{ItemID: 1, Reaction: "love"}, "reaction", "reaction"},
		{"negative latency", &reactionRequest{ItemID: 1, Reaction: "like", LatencyMs: -5}, "latency_ms", "gte"},
		{"unknown interest", &registerRequest{ID: 1, Interests: []string{"sports", "astrology"}}, "interests[1]", "category"},
		{"duplicate interest", &registerRequest{ID: 1, Interests: []string{"sports", "sports"}}, "interests", "unique"},
		{"empty query", &searchQuery{}, "q", "required"},
		{"top_n too large", &searchQuery{Text: "x", TopN: 101}, "top_n", "lte"},
		{"unknown category filter", &searchQuery{Text: "x", Category: "weather"}, "category", "category"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			err := ValidateStruct(tt.input)
			if err == nil {
				t.Fatal("ValidateStruct() should have returned an error")
			}

			found := false
			for _, f := range err.Fields {
				if f.Field == tt.wantField && f.Tag == tt.wantTag {
					found = true
					if f.Message == "" {
						t.Error("field error has no message")
					}
				}
			}
			if !found {
				t.Errorf("expected error on field %s with tag %s, got: %+v", tt.wantField, tt.wantTag, err.Fields)
			}
		})
	}
}

func TestRequestValidationError_UnwrapsToErrValidation(t *testing.T) {
	t.Parallel()

	verr := ValidateStruct(&reactionRequest{})
	if verr == nil {
		t.Fatal("expected validation error")
	}
	var err error = verr
	if !errors.Is(err, recommend.ErrValidation) {
		t.Errorf("errors.Is(%v, ErrValidation) = false", err)
	}

	if !strings.Contains(err.Error(), "item_id is required") {
		t.Errorf("Error() = %q, want item_id message", err.Error())
	}
	if fields, ok := verr.Details()["fields"].([]FieldError); !ok || len(fields) != len(verr.Fields) {
		t.Errorf("Details() = %+v", verr.Details())
	}
}

func TestTranslateError_Messages(t *testing.T) {
	t.Parallel()

	type bounds struct {
		Name  string   `json:"name" validate:"min=3"`
		Tags  []string `json:"tags" validate:"max=1"`
		Count int      `json:"count" validate:"max=2"`
		Mode  string   `json:"mode" validate:"oneof=news similar search"`
	}

	err := ValidateStruct(&bounds{Name: "ab", Tags: []string{"a", "b"}, Count: 3, Mode: "feed"})
	if err == nil {
		t.Fatal("expected validation error")
	}

	want := map[string]string{
		"name":  "name must be at least 3 characters",
		"tags":  "tags must be at most 1 elements",
		"count": "count must be at most 2",
		"mode":  "mode must be one of: news similar search",
	}
	for _, f := range err.Fields {
		if msg, ok := want[f.Field]; ok && f.Message != msg {
			t.Errorf("%s message = %q, want %q", f.Field, f.Message, msg)
		}
		delete(want, f.Field)
	}
	if len(want) != 0 {
		t.Errorf("missing field errors: %v", want)
	}
}
