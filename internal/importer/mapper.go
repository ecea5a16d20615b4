// Newsrec - Personalized News Recommendation and Retrieval Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/newsrec

package importer

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/tomtom215/newsrec/internal/recommend"
)

// Mapper converts dump records into corpus items.
type Mapper struct {
	now func() time.Time
}

// NewMapper creates a Mapper. Records without a timestamp are stamped with
// the time of mapping.
func NewMapper() *Mapper {
	return &Mapper{now: time.Now}
}

// ValidateRecord reports why a record cannot be imported.
func (m *Mapper) ValidateRecord(rec *Record) error {
	if _, err := recommend.ParseCategory(strings.TrimSpace(rec.Category)); err != nil {
		return err
	}
	if c := rec.Confidence; c != nil && (math.IsNaN(*c) || *c < 0 || *c > 1) {
		return fmt.Errorf("%w: confidence %v outside [0,1]", recommend.ErrValidation, *c)
	}
	if strings.TrimSpace(rec.Title) == "" && strings.TrimSpace(rec.Content) == "" {
		return fmt.Errorf("%w: record has neither title nor content", recommend.ErrValidation)
	}
	return nil
}

// ToItem maps a validated record. The returned item has no id.
func (m *Mapper) ToItem(rec *Record) recommend.Item {
	item := recommend.Item{
		Category:   recommend.Category(strings.TrimSpace(rec.Category)),
		Confidence: rec.Confidence,
		Title:      strings.TrimSpace(rec.Title),
		Content:    strings.TrimSpace(rec.Content),
		Link:       strings.TrimSpace(rec.Link),
	}
	if rec.PublishedAt != nil && !rec.PublishedAt.IsZero() {
		item.PublishedAt = rec.PublishedAt.UTC()
	} else {
		item.PublishedAt = m.now().UTC()
	}
	return item
}
