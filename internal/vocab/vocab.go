// Package vocab loads the flat, line-oriented auxiliary files used by a
// counting run: word lists, exclusion lists and lemma-normalization maps.
package vocab

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
)

// ErrMalformedLine is returned when a normalize-map line does not have
// exactly two tab-separated columns.
var ErrMalformedLine = errors.New("malformed line")

// Set is an immutable-by-convention set of case-folded entries.
type Set map[string]struct{}

// Has reports whether s is a member.
func (s Set) Has(key string) bool {
	_, ok := s[key]
	return ok
}

// LoadWordList reads one entry per line. Blank lines and lines starting
// with '#' are skipped; entries are trimmed and lowercased.
func LoadWordList(path string) (Set, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open word list: %w", err)
	}
	defer f.Close()

	set, err := ReadWordList(f)
	if err != nil {
		return nil, fmt.Errorf("read word list %s: %w", path, err)
	}
	return set, nil
}

// ReadWordList is LoadWordList over an arbitrary reader.
func ReadWordList(r io.Reader) (Set, error) {
	set := make(Set)
	sc := newScanner(r)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		set[strings.ToLower(line)] = struct{}{}
	}
	return set, sc.Err()
}

// LoadExcludeList reads an exclusion list. The format is the word-list
// format; the separate name keeps call sites readable.
func LoadExcludeList(path string) (Set, error) {
	set, err := LoadWordList(path)
	if err != nil {
		return nil, fmt.Errorf("load exclude list: %w", err)
	}
	return set, nil
}

// LoadNormalizeMap reads a two-column TSV (source lemma, target lemma).
// Blank and '#' lines are skipped. Any other line without exactly two
// columns is a load error. Pairs with an empty side are ignored.
func LoadNormalizeMap(path string) (map[string]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open normalize map: %w", err)
	}
	defer f.Close()

	m := make(map[string]string)
	sc := newScanner(f)
	lineNo := 0
	for sc.Scan() {
		lineNo++
		raw := sc.Text()
		line := strings.TrimSpace(raw)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		parts := strings.Split(line, "\t")
		if len(parts) != 2 {
			return nil, fmt.Errorf(
				"lemma normalize TSV must have 2 columns: %s line %d %q: %w",
				path, lineNo, raw, ErrMalformedLine,
			)
		}
		src, dst := strings.TrimSpace(parts[0]), strings.TrimSpace(parts[1])
		if src != "" && dst != "" {
			m[src] = dst
		}
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read normalize map %s: %w", path, err)
	}
	return m, nil
}

// newScanner allows long lines; word lists exported from spreadsheets
// occasionally carry very long comment lines.
func newScanner(r io.Reader) *bufio.Scanner {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 64*1024), 4*1024*1024)
	return sc
}
