// Package preprocess prepares raw corpus text before counting.
package preprocess

import (
	"context"
	"fmt"
	"strings"
	"unicode"

	"github.com/wgomg/vocabula/internal/annotate"
)

func isWordRune(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r)
}

// NormalizeLinebreaks unifies line endings, joins words hyphenated across a
// line break, folds single newlines inside paragraphs into spaces (blank
// lines survive), collapses runs of spaces and tabs, and trims the result.
func NormalizeLinebreaks(raw string) string {
	s := strings.ReplaceAll(raw, "\r\n", "\n")
	s = strings.ReplaceAll(s, "\r", "\n")
	rs := []rune(s)

	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(rs); i++ {
		r := rs[i]
		switch {
		case r == '-' && i > 0 && i+2 < len(rs) && rs[i+1] == '\n' &&
			isWordRune(rs[i-1]) && isWordRune(rs[i+2]):
			i++
		case r == '\n':
			prevNL := i > 0 && rs[i-1] == '\n'
			nextNL := i+1 < len(rs) && rs[i+1] == '\n'
			if prevNL || nextNL {
				b.WriteRune('\n')
			} else {
				b.WriteRune(' ')
			}
		default:
			b.WriteRune(r)
		}
	}
	return strings.TrimSpace(collapseBlanks(b.String()))
}

func collapseBlanks(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	inBlank := false
	for _, r := range s {
		if r == ' ' || r == '\t' {
			if !inBlank {
				b.WriteByte(' ')
			}
			inBlank = true
			continue
		}
		inBlank = false
		b.WriteRune(r)
	}
	return b.String()
}

// SentencesPerLine normalizes raw and returns one annotator sentence per
// line, with a trailing newline when there is at least one sentence.
func SentencesPerLine(ctx context.Context, raw string, ann annotate.Annotator) (string, error) {
	normalized := NormalizeLinebreaks(raw)
	if normalized == "" {
		return "", nil
	}
	doc, err := ann.Annotate(ctx, normalized)
	if err != nil {
		return "", fmt.Errorf("sentence split: %w", err)
	}

	var lines []string
	for _, s := range doc.Sentences {
		if t := s.JoinedText(); t != "" {
			lines = append(lines, t)
		}
	}
	if len(lines) == 0 {
		return "", nil
	}
	return strings.Join(lines, "\n") + "\n", nil
}
