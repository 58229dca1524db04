// Package dictcheck splits a frequency table into rows whose lemma is in a
// reference word list and rows whose lemma is not.
package dictcheck

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

const extraEdgePunct = "“”‘’«»…—–-\u00ad"

var romanRe = regexp.MustCompile(`^m{0,4}(cm|cd|d?c{0,3})(xc|xl|l?x{0,3})(ix|iv|v?i{0,3})$`)

var latinReplacer = strings.NewReplacer("j", "i", "v", "u", "æ", "ae", "œ", "oe")

func isEdgePunct(r rune) bool {
	if r < 0x80 {
		return unicode.IsPunct(r) || unicode.IsSymbol(r)
	}
	return strings.ContainsRune(extraEdgePunct, r)
}

// StripEdgePunct removes ASCII punctuation and typographic quotes, dashes
// and soft hyphens from both ends.
func StripEdgePunct(s string) string {
	return strings.TrimFunc(s, isEdgePunct)
}

// NormalizeToken folds a Latin word to its plain classical spelling:
// lowercase, j to i, v to u, ligatures expanded and diacritics removed.
func NormalizeToken(s string) string {
	t := strings.ToLower(s)
	t = latinReplacer.Replace(t)
	stripped, _, err := transform.String(transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC), t)
	if err != nil {
		return t
	}
	return stripped
}

// IsRoman reports whether s is a Roman numeral, ignoring case. The empty
// string is not.
func IsRoman(s string) bool {
	return s != "" && romanRe.MatchString(strings.ToLower(s))
}

// Key is the dictionary lookup key for s, or "" when s is a Roman numeral,
// shorter than two runes or contains anything but letters. The numeral test
// applies to the normalized form, so "vi" survives as "ui" while "xl" and
// "mdclx" are dropped.
func Key(s string, normalize bool) string {
	return keyWith(s, normalize, NormalizeToken)
}

func keyWith(s string, normalize bool, normalizeFn func(string) string) string {
	t := StripEdgePunct(strings.TrimSpace(s))
	if normalize {
		t = normalizeFn(t)
	}
	if IsRoman(t) {
		return ""
	}
	n := 0
	for _, r := range t {
		if !unicode.IsLetter(r) {
			return ""
		}
		n++
	}
	if n < 2 {
		return ""
	}
	return t
}
