// Newsrec - Personalized News Recommendation and Retrieval Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/newsrec

package index

import (
	"bufio"
	_ "embed"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/tomtom215/newsrec/internal/textutil"
)

//go:embed stopwords.txt
var defaultStopwords string

// Stopwords is a set of folded words excluded from the vocabulary.
type Stopwords map[string]struct{}

// Has reports whether word is a stopword.
func (s Stopwords) Has(word string) bool {
	_, ok := s[word]
	return ok
}

// DefaultStopwords returns the embedded stopword list: generic English and
// Russian function words. It is a placeholder for a corpus-specific list,
// which LoadStopwords reads from disk.
func DefaultStopwords() Stopwords {
	sw, _ := parseStopwords(strings.NewReader(defaultStopwords))
	return sw
}

// LoadStopwords reads a stopword file. The file replaces the embedded list
// rather than extending it. An empty path yields the embedded list.
func LoadStopwords(path string) (Stopwords, error) {
	if path == "" {
		return DefaultStopwords(), nil
	}
	f, err := os.Open(path) //nolint:gosec // path comes from operator configuration
	if err != nil {
		return nil, fmt.Errorf("open stopwords: %w", err)
	}
	defer f.Close()

	sw, err := parseStopwords(f)
	if err != nil {
		return nil, fmt.Errorf("read stopwords %s: %w", path, err)
	}
	return sw, nil
}

func parseStopwords(r io.Reader) (Stopwords, error) {
	sw := make(Stopwords)
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		sw[textutil.Fold(line)] = struct{}{}
	}
	return sw, sc.Err()
}
