// Newsrec - Personalized News Recommendation and Retrieval Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/newsrec

package api

import "time"

type registerUserRequest struct {
	ID         int64    `json:"id" validate:"required,gt=0"`
	ExternalID string   `json:"external_id" validate:"max=128"`
	Interests  []string `json:"interests" validate:"unique,dive,category"`
}

type resetUserRequest struct {
	Interests []string `json:"interests" validate:"unique,dive,category"`
}

type reactionRequest struct {
	ItemID    int64  `json:"item_id" validate:"required,gt=0"`
	Reaction  string `json:"reaction" validate:"required,reaction"`
	LatencyMs int64  `json:"latency_ms" validate:"gte=0,lte=86400000"`
}

type addItemRequest struct {
	Title       string     `json:"title" validate:"required_without=Content,max=1000"`
	Content     string     `json:"content" validate:"max=100000"`
	Category    string     `json:"category" validate:"required,category"`
	Confidence  *float64   `json:"confidence" validate:"omitempty,gte=0,lte=1"`
	Link        string     `json:"link" validate:"omitempty,url"`
	PublishedAt *time.Time `json:"published_at"`
}

type recommendQuery struct {
	N         int      `query:"n" validate:"gte=0"`
	Diversity *float64 `query:"diversity" validate:"omitempty,gte=0,lte=1"`
}

type similarQuery struct {
	TopN                int  `query:"top_n" validate:"gte=0"`
	ExcludeSameCategory bool `query:"exclude_same_category"`
}

type searchQuery struct {
	Q        string `query:"q" validate:"max=1000"`
	TopN     int    `query:"top_n" validate:"gte=0"`
	Category string `query:"category" validate:"omitempty,category"`
}

type keywordQuery struct {
	Q     string `query:"q" validate:"required,max=200"`
	Limit int    `query:"limit" validate:"gte=0"`
}

type interactionsQuery struct {
	Limit int `query:"limit" validate:"gte=0,lte=1000"`
}

// startSessionRequest selects the list a session pages through. Which
// fields apply depends on the mode: news uses n and diversity, similar
// uses item_id, top_n and exclude_same_category, search uses query, top_n
// and category.
type startSessionRequest struct {
	N                   int      `json:"n" validate:"gte=0"`
	Diversity           *float64 `json:"diversity" validate:"omitempty,gte=0,lte=1"`
	ItemID              int64    `json:"item_id" validate:"gte=0"`
	TopN                int      `json:"top_n" validate:"gte=0"`
	ExcludeSameCategory bool     `json:"exclude_same_category"`
	Query               string   `json:"query" validate:"max=1000"`
	Category            string   `json:"category" validate:"omitempty,category"`
}
