// Package chunk splits long texts into bounded chunks at sentence ends so
// the annotator never receives a truncated sentence.
package chunk

import (
	"iter"
	"strings"
	"unicode"
	"unicode/utf8"
)

// DefaultMaxChars is the chunk budget used when none is configured.
const DefaultMaxChars = 200_000

func isTerminal(r rune) bool {
	switch r {
	case '.', '!', '?', ';', '·', '…':
		return true
	}
	return false
}

func isCloser(r rune) bool {
	switch r {
	case '"', '\'', '”', '’', '»', ')', ']':
		return true
	}
	return false
}

// piece is one sentence: text[start:contentEnd] is the sentence itself,
// text[contentEnd:end] the whitespace that follows it.
type piece struct {
	start        int
	contentEnd   int
	end          int
	contentRunes int
	wsRunes      int
}

type scanner struct {
	text string
	pos  int
}

// next returns the sentence starting at s.pos. A sentence ends after a run
// of terminal punctuation and closing quotes/brackets that is followed by
// whitespace or the end of the text.
func (s *scanner) next() (piece, bool) {
	if s.pos >= len(s.text) {
		return piece{}, false
	}
	p := piece{start: s.pos}
	i := s.pos
	runes := 0
	for i < len(s.text) {
		r, w := utf8.DecodeRuneInString(s.text[i:])
		i += w
		runes++
		if !isTerminal(r) {
			continue
		}
		j, extra := i, 0
		for j < len(s.text) {
			r2, w2 := utf8.DecodeRuneInString(s.text[j:])
			if !isTerminal(r2) && !isCloser(r2) {
				break
			}
			j += w2
			extra++
		}
		if j == len(s.text) {
			i, runes = j, runes+extra
			break
		}
		if r2, _ := utf8.DecodeRuneInString(s.text[j:]); unicode.IsSpace(r2) {
			i, runes = j, runes+extra
			break
		}
	}

	// Trailing whitespace belongs to the sentence as its separator; a final
	// sentence without a terminal may itself end in whitespace.
	content := strings.TrimRightFunc(s.text[p.start:i], unicode.IsSpace)
	p.contentEnd = p.start + len(content)
	p.contentRunes = runes - utf8.RuneCountInString(s.text[p.contentEnd:i])

	end := i
	for end < len(s.text) {
		r, w := utf8.DecodeRuneInString(s.text[end:])
		if !unicode.IsSpace(r) {
			break
		}
		end += w
	}
	p.end = end
	p.wsRunes = utf8.RuneCountInString(s.text[p.contentEnd:end])
	s.pos = end
	return p, true
}

// Split yields whitespace-trimmed chunks of text of at most maxChars runes.
// Boundaries fall only between sentences; a single sentence longer than
// maxChars is yielded whole as its own chunk. Empty or blank text yields
// nothing, and maxChars <= 0 disables the bound.
func Split(text string, maxChars int) iter.Seq[string] {
	return func(yield func(string) bool) {
		lead := len(text) - len(strings.TrimLeftFunc(text, unicode.IsSpace))
		sc := &scanner{text: text, pos: lead}

		start, contentEnd := -1, 0
		curLen, lastWS := 0, 0
		for {
			p, ok := sc.next()
			if !ok {
				break
			}
			if p.contentRunes == 0 {
				continue
			}
			if start < 0 {
				start, contentEnd, curLen, lastWS = p.start, p.contentEnd, p.contentRunes, p.wsRunes
				continue
			}
			newLen := curLen + lastWS + p.contentRunes
			if maxChars > 0 && newLen > maxChars {
				if !yield(text[start:contentEnd]) {
					return
				}
				start, curLen = p.start, p.contentRunes
			} else {
				curLen = newLen
			}
			contentEnd, lastWS = p.contentEnd, p.wsRunes
		}
		if start >= 0 {
			yield(text[start:contentEnd])
		}
	}
}

// Collect drains Split into a slice. Only meant for tests and small texts;
// the counter consumes Split lazily.
func Collect(text string, maxChars int) []string {
	var out []string
	for c := range Split(text, maxChars) {
		out = append(out, c)
	}
	return out
}
