// Newsrec - Personalized News Recommendation and Retrieval Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/newsrec

package importer

import (
	"errors"
	"fmt"
	"io"

	"github.com/goccy/go-json"
)

// ErrNotArray is returned when a dump does not start with '['.
var ErrNotArray = errors.New("dump is not a JSON array")

// Reader streams records out of a JSON array.
type Reader struct {
	dec     *json.Decoder
	read    int
	started bool
	done    bool
}

// NewReader creates a Reader over r.
func NewReader(r io.Reader) *Reader {
	return &Reader{dec: json.NewDecoder(r)}
}

// ReadBatch returns up to size records. An empty batch with a nil error
// means the array is exhausted.
func (r *Reader) ReadBatch(size int) ([]Record, error) {
	if r.done {
		return nil, nil
	}
	if !r.started {
		tok, err := r.dec.Token()
		if err != nil {
			return nil, fmt.Errorf("read dump: %w", err)
		}
		if delim, ok := tok.(json.Delim); !ok || delim != '[' {
			return nil, ErrNotArray
		}
		r.started = true
	}

	batch := make([]Record, 0, size)
	for len(batch) < size && r.dec.More() {
		var rec Record
		if err := r.dec.Decode(&rec); err != nil {
			return batch, fmt.Errorf("decode record %d: %w", r.read, err)
		}
		r.read++
		batch = append(batch, rec)
	}
	if !r.dec.More() {
		if _, err := r.dec.Token(); err != nil {
			return batch, fmt.Errorf("read dump end: %w", err)
		}
		r.done = true
	}
	return batch, nil
}
