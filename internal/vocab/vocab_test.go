package vocab

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(p, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return p
}

func TestLoadWordList(t *testing.T) {
	p := writeFile(t, "words.txt", "# header\nRosa\n\n  puella  \n#rosa2\nLIBER\n")
	set, err := LoadWordList(p)
	if err != nil {
		t.Fatalf("LoadWordList: %v", err)
	}
	want := []string{"rosa", "puella", "liber"}
	if len(set) != len(want) {
		t.Fatalf("got %d entries, want %d: %v", len(set), len(want), set)
	}
	for _, w := range want {
		if !set.Has(w) {
			t.Errorf("missing %q", w)
		}
	}
	if set.Has("") {
		t.Error("empty entry loaded")
	}
}

func TestLoadExcludeListMissingFile(t *testing.T) {
	_, err := LoadExcludeList(filepath.Join(t.TempDir(), "nope.txt"))
	if err == nil {
		t.Fatal("expected error for missing file")
	}
	if !errors.Is(err, os.ErrNotExist) {
		t.Errorf("error %v does not wrap os.ErrNotExist", err)
	}
}

func TestLoadNormalizeMap(t *testing.T) {
	p := writeFile(t, "norm.tsv", "# comment\nmaterium\tmateria\n\n x \t y \n")
	m, err := LoadNormalizeMap(p)
	if err != nil {
		t.Fatalf("LoadNormalizeMap: %v", err)
	}
	if m["materium"] != "materia" {
		t.Errorf("materium -> %q, want materia", m["materium"])
	}
	if m["x"] != "y" {
		t.Errorf("x -> %q, want y", m["x"])
	}
	if len(m) != 2 {
		t.Errorf("got %d pairs, want 2: %v", len(m), m)
	}
}

func TestLoadNormalizeMapMalformed(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"one column", "materium\n"},
		{"three columns", "a\tb\tc\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := writeFile(t, "norm.tsv", tt.content)
			_, err := LoadNormalizeMap(p)
			if !errors.Is(err, ErrMalformedLine) {
				t.Fatalf("want ErrMalformedLine, got %v", err)
			}
		})
	}
}
