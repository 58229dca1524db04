package dictcheck

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/wgomg/vocabula/internal/utils"
	"github.com/wgomg/vocabula/internal/vocab"
)

var ErrMissingColumn = errors.New("missing column")

type Options struct {
	LemmaColumn string
	CountColumn string
	Normalize   bool
	// NormalizeMap rewrites a raw lemma before it is keyed.
	NormalizeMap map[string]string
}

func DefaultOptions() Options {
	return Options{LemmaColumn: "word", CountColumn: "frequency", Normalize: true}
}

type Classifier struct {
	words vocab.Set
	opts  Options
	cache *utils.KeyCache
}

// NewClassifier keys every word-list entry the same way lemmas are keyed.
func NewClassifier(words vocab.Set, opts Options) *Classifier {
	c := &Classifier{words: make(vocab.Set, len(words)), opts: opts, cache: utils.NewKeyCache()}
	for w := range words {
		if k := c.key(w); k != "" {
			c.words[k] = struct{}{}
		}
	}
	return c
}

func (c *Classifier) key(s string) string {
	return keyWith(s, c.opts.Normalize, func(t string) string {
		return c.cache.GetOrCompute(t, NormalizeToken)
	})
}

// Classify returns the key for lemma and whether it is known. An empty key
// means the lemma is filtered out entirely.
func (c *Classifier) Classify(lemma string) (string, bool) {
	lemma = strings.TrimSpace(lemma)
	if mapped, ok := c.opts.NormalizeMap[lemma]; ok {
		lemma = mapped
	}
	k := c.key(lemma)
	if k == "" {
		return "", false
	}
	return k, c.words.Has(k)
}

// CacheHitRate reports how often normalization was served from cache.
func (c *Classifier) CacheHitRate() float64 {
	return c.cache.HitRate()
}

type Result struct {
	Known   int
	Unknown int
	Dropped int
}

// Split reads a frequency CSV from r and writes the known and unknown rows,
// header included and columns untouched, to the two writers.
func (c *Classifier) Split(r io.Reader, known, unknown io.Writer) (Result, error) {
	var res Result

	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	header, err := cr.Read()
	if err != nil && !errors.Is(err, io.EOF) {
		return res, fmt.Errorf("read header: %w", err)
	}
	lemmaIdx, countIdx := -1, -1
	for i, name := range header {
		switch strings.TrimPrefix(name, "\ufeff") {
		case c.opts.LemmaColumn:
			lemmaIdx = i
		case c.opts.CountColumn:
			countIdx = i
		}
	}
	if lemmaIdx < 0 || countIdx < 0 {
		return res, fmt.Errorf("%w: CSV must have columns '%s' and '%s', got %q",
			ErrMissingColumn, c.opts.LemmaColumn, c.opts.CountColumn, header)
	}

	kw, uw := csv.NewWriter(known), csv.NewWriter(unknown)
	if err := kw.Write(header); err != nil {
		return res, fmt.Errorf("write header: %w", err)
	}
	if err := uw.Write(header); err != nil {
		return res, fmt.Errorf("write header: %w", err)
	}

	for {
		row, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return res, fmt.Errorf("read row: %w", err)
		}
		if lemmaIdx >= len(row) || strings.TrimSpace(row[lemmaIdx]) == "" {
			res.Dropped++
			continue
		}
		key, isKnown := c.Classify(row[lemmaIdx])
		switch {
		case key == "":
			res.Dropped++
		case isKnown:
			err = kw.Write(row)
			res.Known++
		default:
			err = uw.Write(row)
			res.Unknown++
		}
		if err != nil {
			return res, fmt.Errorf("write row: %w", err)
		}
	}

	kw.Flush()
	uw.Flush()
	if err := kw.Error(); err != nil {
		return res, fmt.Errorf("flush known rows: %w", err)
	}
	if err := uw.Error(); err != nil {
		return res, fmt.Errorf("flush unknown rows: %w", err)
	}
	return res, nil
}

// SplitCSV classifies the rows of freqCSV against the word list at
// wordlistPath and writes knownCSV and unknownCSV.
func SplitCSV(freqCSV, wordlistPath, knownCSV, unknownCSV string, opts Options) (int, int, error) {
	words, err := vocab.LoadWordList(wordlistPath)
	if err != nil {
		return 0, 0, fmt.Errorf("load wordlist: %w", err)
	}
	res, err := NewClassifier(words, opts).SplitFiles(freqCSV, knownCSV, unknownCSV)
	if err != nil {
		return 0, 0, err
	}
	return res.Known, res.Unknown, nil
}

// SplitFiles is Split over files. Output directories are created.
func (c *Classifier) SplitFiles(freqCSV, knownCSV, unknownCSV string) (Result, error) {
	in, err := os.Open(freqCSV)
	if err != nil {
		return Result{}, fmt.Errorf("open frequency csv: %w", err)
	}
	defer in.Close()

	known, err := createFile(knownCSV)
	if err != nil {
		return Result{}, err
	}
	defer known.Close()

	unknown, err := createFile(unknownCSV)
	if err != nil {
		return Result{}, err
	}
	defer unknown.Close()

	res, err := c.Split(in, known, unknown)
	if err != nil {
		return res, fmt.Errorf("split %s: %w", freqCSV, err)
	}
	if err := known.Close(); err != nil {
		return res, fmt.Errorf("close %s: %w", knownCSV, err)
	}
	if err := unknown.Close(); err != nil {
		return res, fmt.Errorf("close %s: %w", unknownCSV, err)
	}
	return res, nil
}

func createFile(path string) (*os.File, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create output directory: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", path, err)
	}
	return f, nil
}
