// Package reftag detects reference-tag abbreviations (citation and
// cross-reference markers such as "Metaphys." or "cap.") so they can be
// diverted out of the vocabulary counts.
package reftag

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/wgomg/vocabula/internal/vocab"
)

// Detector maps a candidate key to the matched, normalized tag or "".
type Detector func(key string) string

// LoadSet reads ref-tag abbreviations, one per line, '#' comments allowed.
func LoadSet(path string) (vocab.Set, error) {
	set, err := vocab.LoadWordList(path)
	if err != nil {
		return nil, fmt.Errorf("load ref tags: %w", err)
	}
	return set, nil
}

func isEdge(r rune) bool {
	return !unicode.IsLetter(r) && !unicode.IsDigit(r)
}

// Normalize trims, lowercases and strips leading/trailing non-alphanumeric
// runes. A trailing period left after that pass is removed and the edges
// are stripped again.
func Normalize(key string) string {
	t := strings.ToLower(strings.TrimSpace(key))
	t = strings.TrimFunc(t, isEdge)
	if strings.HasSuffix(t, ".") {
		t = strings.TrimSuffix(t, ".")
		t = strings.TrimFunc(t, isEdge)
	}
	return t
}

// NewDetector returns a Detector over tags. Matching is exact after
// normalization; an empty key never matches.
func NewDetector(tags vocab.Set) Detector {
	return func(key string) string {
		t := Normalize(key)
		if t == "" {
			return ""
		}
		if tags.Has(t) {
			return t
		}
		return ""
	}
}
