// Package corpus resolves group file globs, reads corpus files and writes
// the tabular outputs of a run.
package corpus

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/wgomg/vocabula/internal/counter"
	"github.com/wgomg/vocabula/internal/utils"
)

// File is one resolved corpus file.
type File struct {
	Path string
	Size int64
}

// ExpandGlobs resolves patterns, "**" included, to a sorted, de-duplicated
// list of absolute regular-file paths. Patterns that match nothing are not
// an error.
func ExpandGlobs(patterns []string) ([]string, error) {
	seen := make(map[string]struct{})
	for _, pat := range patterns {
		matches, err := doublestar.FilepathGlob(pat)
		if err != nil {
			return nil, fmt.Errorf("bad glob %q: %w", pat, err)
		}
		for _, m := range matches {
			info, err := os.Stat(m)
			if err != nil || !info.Mode().IsRegular() {
				continue
			}
			abs, err := filepath.Abs(m)
			if err != nil {
				return nil, fmt.Errorf("resolve %s: %w", m, err)
			}
			seen[abs] = struct{}{}
		}
	}

	files := make([]string, 0, len(seen))
	for p := range seen {
		files = append(files, p)
	}
	sort.Strings(files)
	return files, nil
}

// Transform rewrites one file's text before it is joined.
type Transform func(path, text string) (string, error)

// ReadConcat joins the contents of paths with "\n", passing each through
// transform when it is not nil. Unreadable or untransformable files are
// logged and skipped; the returned slice lists the files actually used.
func ReadConcat(paths []string, transform Transform, logger *utils.Logger, runID *string) (string, []File) {
	var (
		b    strings.Builder
		read []File
	)
	for _, p := range paths {
		data, err := os.ReadFile(p)
		if err != nil {
			logger.Warn(runID, "failed to read %s: %v", p, err)
			continue
		}
		text := string(data)
		if transform != nil {
			if text, err = transform(p, text); err != nil {
				logger.Warn(runID, "failed to preprocess %s: %v", p, err)
				continue
			}
		}
		if len(read) > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(text)
		read = append(read, File{Path: p, Size: int64(len(data))})
	}
	return b.String(), read
}

// WriteFrequencyCSV writes f as "word,frequency" rows by descending count.
func WriteFrequencyCSV(path string, f *counter.Freq) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}
	out, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer out.Close()

	if err := EncodeFrequencyCSV(out, f); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return out.Close()
}

func EncodeFrequencyCSV(w io.Writer, f *counter.Freq) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"word", "frequency"}); err != nil {
		return err
	}
	for _, e := range f.MostCommon(0) {
		if err := cw.Write([]string{e.Key, strconv.Itoa(e.Count)}); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// ReadFrequencyCSV loads a table written by WriteFrequencyCSV. Row order is
// kept as insertion order. Every frequency must be positive, since a Freq
// holds no zero counts.
func ReadFrequencyCSV(path string) (*counter.Freq, error) {
	in, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer in.Close()

	cr := csv.NewReader(in)
	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("read header of %s: %w", path, err)
	}
	if len(header) < 2 || strings.TrimPrefix(header[0], "\ufeff") != "word" || header[1] != "frequency" {
		return nil, fmt.Errorf("%s: expected header word,frequency, got %q", path, header)
	}

	f := counter.NewFreq()
	for line := 2; ; line++ {
		row, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", path, err)
		}
		n, err := strconv.Atoi(strings.TrimSpace(row[1]))
		if err != nil || n < 1 {
			return nil, fmt.Errorf("%s line %d: frequency must be a positive integer, got %q", path, line, row[1])
		}
		f.Add(row[0], n)
	}
	return f, nil
}

// WriteSummary writes lines joined by newlines.
func WriteSummary(path string, lines []string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}
	if err := os.WriteFile(path, []byte(strings.Join(lines, "\n")), 0o644); err != nil {
		return fmt.Errorf("write summary: %w", err)
	}
	return nil
}
