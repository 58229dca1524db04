package dictcheck

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/wgomg/vocabula/internal/vocab"
)

func TestKey(t *testing.T) {
	tests := []struct {
		in        string
		normalize bool
		want      string
	}{
		{"Rosa", true, "rosa"},
		{"«Iūlius»", true, "iulius"},
		{"vīta", true, "uita"},
		{"Cæsar", true, "caesar"},
		{"  puella, ", true, "puella"},
		{"XL", true, ""},
		{"mdclx", true, ""},
		{"XIV", false, ""},
		{"vi", false, ""},
		{"vi", true, "ui"},
		{"XIV", true, "xiu"},
		{"xv", true, "xu"},
		{"a", true, ""},
		{"ab3", true, ""},
		{"rosa-rubra", true, ""},
		{"…", true, ""},
		{"Rosa", false, "Rosa"},
		{"Iūlius", false, "Iūlius"},
	}
	for _, tt := range tests {
		if got := Key(tt.in, tt.normalize); got != tt.want {
			t.Errorf("Key(%q, %t) = %q, want %q", tt.in, tt.normalize, got, tt.want)
		}
	}
}

func TestIsRoman(t *testing.T) {
	for _, s := range []string{"i", "IV", "xlii", "MCMXCIX"} {
		if !IsRoman(s) {
			t.Errorf("IsRoman(%q) = false", s)
		}
	}
	for _, s := range []string{"", "rosa", "iiii", "vv"} {
		if IsRoman(s) {
			t.Errorf("IsRoman(%q) = true", s)
		}
	}
}

func TestClassifierSplit(t *testing.T) {
	c := NewClassifier(vocab.Set{"rosa": {}}, DefaultOptions())
	in := "word,frequency\nrosa,2\npuella,1\nXI,4\n,3\n"

	var known, unknown bytes.Buffer
	res, err := c.Split(strings.NewReader(in), &known, &unknown)
	if err != nil {
		t.Fatalf("Split: %v", err)
	}
	if res.Known != 1 || res.Unknown != 1 || res.Dropped != 2 {
		t.Errorf("result = %+v", res)
	}
	if got := known.String(); got != "word,frequency\nrosa,2\n" {
		t.Errorf("known = %q", got)
	}
	if got := unknown.String(); got != "word,frequency\npuella,1\n" {
		t.Errorf("unknown = %q", got)
	}
}

func TestClassifierKeepsExtraColumns(t *testing.T) {
	c := NewClassifier(vocab.Set{"rosa": {}}, Options{LemmaColumn: "lemma", CountColumn: "count", Normalize: true})
	in := "rank,lemma,count,note\n1,Rosa,5,\"flos, ruber\"\n"

	var known, unknown bytes.Buffer
	if _, err := c.Split(strings.NewReader(in), &known, &unknown); err != nil {
		t.Fatal(err)
	}
	if got := known.String(); got != "rank,lemma,count,note\n1,Rosa,5,\"flos, ruber\"\n" {
		t.Errorf("known = %q", got)
	}
}

func TestClassifierMissingColumn(t *testing.T) {
	c := NewClassifier(vocab.Set{}, DefaultOptions())
	var known, unknown bytes.Buffer
	_, err := c.Split(strings.NewReader("lemma,count\nrosa,1\n"), &known, &unknown)
	if !errors.Is(err, ErrMissingColumn) {
		t.Fatalf("err = %v, want ErrMissingColumn", err)
	}
}

func TestClassifierNormalizeMap(t *testing.T) {
	opts := DefaultOptions()
	opts.NormalizeMap = map[string]string{"materium": "materia"}
	c := NewClassifier(vocab.Set{"materia": {}}, opts)

	key, known := c.Classify("materium")
	if key != "materia" || !known {
		t.Errorf("Classify = %q, %t", key, known)
	}
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	if err := os.WriteFile(p, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return p
}

func TestSplitCSVKnownUnknown(t *testing.T) {
	dir := t.TempDir()
	wordlist := writeFile(t, dir, "latin_words.txt", "rosa\n")
	freq := writeFile(t, dir, "noun_frequency_text.csv", "word,frequency\nrosa,2\npuella,1\n")
	knownPath := filepath.Join(dir, "out", "noun_frequency_text.known.csv")
	unknownPath := filepath.Join(dir, "out", "noun_frequency_text.unknown.csv")

	k, u, err := SplitCSV(freq, wordlist, knownPath, unknownPath, DefaultOptions())
	if err != nil {
		t.Fatalf("SplitCSV: %v", err)
	}
	if k != 1 || u != 1 {
		t.Errorf("known=%d unknown=%d", k, u)
	}
	data, err := os.ReadFile(knownPath)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), "rosa,2") {
		t.Errorf("known file = %q", data)
	}
	data, err = os.ReadFile(unknownPath)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), "puella,1") {
		t.Errorf("unknown file = %q", data)
	}
}

func TestSplitCSVWithNormalizeMapFile(t *testing.T) {
	dir := t.TempDir()
	wordlist := writeFile(t, dir, "latin_words.txt", "materia\n")
	freq := writeFile(t, dir, "noun_frequency.csv", "word,frequency\nmaterium,10\n")
	normPath := writeFile(t, dir, "lemma_normalize.tsv", "materium\tmateria\n")

	m, err := vocab.LoadNormalizeMap(normPath)
	if err != nil {
		t.Fatal(err)
	}
	opts := DefaultOptions()
	opts.NormalizeMap = m

	k, u, err := SplitCSV(freq, wordlist, filepath.Join(dir, "k.csv"), filepath.Join(dir, "u.csv"), opts)
	if err != nil {
		t.Fatalf("SplitCSV: %v", err)
	}
	if k != 1 || u != 0 {
		t.Errorf("known=%d unknown=%d, want 1/0", k, u)
	}
}

func TestSplitCSVMissingWordlist(t *testing.T) {
	dir := t.TempDir()
	freq := writeFile(t, dir, "f.csv", "word,frequency\n")
	_, _, err := SplitCSV(freq, filepath.Join(dir, "nope.txt"), filepath.Join(dir, "k.csv"), filepath.Join(dir, "u.csv"), DefaultOptions())
	if !errors.Is(err, os.ErrNotExist) {
		t.Errorf("err = %v", err)
	}
}
