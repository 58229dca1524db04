package processor

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/wgomg/vocabula/internal/annotate"
	"github.com/wgomg/vocabula/internal/config"
	"github.com/wgomg/vocabula/internal/counter"
	"github.com/wgomg/vocabula/internal/utils"
)

// latinAnnotator tags a small fixed vocabulary; every other word is X.
func latinAnnotator() annotate.AnnotatorFunc {
	nouns := map[string]string{"puella": "puella", "rosam": "rosa", "rosa": "rosa", "liber": "liber", "metaphys": "Metaphys."}
	return func(ctx context.Context, text string) (*annotate.Document, error) {
		doc := &annotate.Document{}
		for _, raw := range strings.Split(text, ".") {
			var s annotate.Sentence
			for _, w := range strings.Fields(raw) {
				if lemma, ok := nouns[strings.ToLower(w)]; ok {
					s.Tokens = append(s.Tokens, annotate.Token{Surface: w, Lemma: lemma, UPOS: "NOUN"})
					continue
				}
				s.Tokens = append(s.Tokens, annotate.Token{Surface: w, UPOS: "X"})
			}
			if len(s.Tokens) > 0 {
				doc.Sentences = append(doc.Sentences, s)
			}
		}
		return doc, nil
	}
}

func write(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func read(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	return string(data)
}

func newRun(t *testing.T, dir, yml string) (*config.Config, *config.RunConfig) {
	t.Helper()
	run, err := config.ParseRun([]byte(yml), dir)
	if err != nil {
		t.Fatalf("ParseRun: %v", err)
	}
	run.Path = filepath.Join(dir, "groups.config.yml")
	cfg := &config.Config{Count: config.CountConfig{ChunkChars: 30}}
	cfg.ApplyRun(run)
	return cfg, run
}

func TestRunEndToEnd(t *testing.T) {
	dir := t.TempDir()
	write(t, filepath.Join(dir, "data", "prose", "a.txt"), "Puella rosam amat. Liber est.")
	write(t, filepath.Join(dir, "data", "prose", "deep", "b.txt"), "Rosa pulchra est. Metaphys. puella.")
	write(t, filepath.Join(dir, "data", "verse", "c.txt"), "Puella canit. Puella ridet.")
	write(t, filepath.Join(dir, "exclude.txt"), "liber\n")
	write(t, filepath.Join(dir, "ref_tags.txt"), "metaphys\n")
	write(t, filepath.Join(dir, "words.txt"), "rosa\n")

	cfg, run := newRun(t, dir, `
groups:
  prose:
    files: ["data/prose/**/*.txt"]
  verse:
    files: ["data/verse/*.txt"]
  empty:
    files: ["data/none/*.txt"]
out_dir: out
exclude_lemmas: exclude.txt
ref_tags: ref_tags.txt
trace:
  enabled: true
  max_rows: 2
dictcheck:
  enabled: true
  wordlist: words.txt
`)

	res, err := NewRunner(cfg, run, latinAnnotator(), utils.NewDiscardLogger()).Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	prose := res.Groups["prose"]
	if prose.Get("puella") != 2 || prose.Get("rosa") != 2 || prose.Has("liber") || prose.Has("metaphys.") {
		t.Errorf("prose = %v", prose.MostCommon(0))
	}
	if res.RefTags["prose"].Get("metaphys") != 1 {
		t.Errorf("prose refs = %v", res.RefTags["prose"].MostCommon(0))
	}
	if _, ok := res.Groups["empty"]; ok {
		t.Error("empty group should be skipped")
	}
	all := res.Groups[AllGroup]
	if all == nil || all.Get("puella") != 4 || all.Get("rosa") != 2 {
		t.Fatalf("ALL = %v", all)
	}

	out := filepath.Join(dir, "out")
	if got := read(t, filepath.Join(out, "noun_frequency_ALL.csv")); got != "word,frequency\npuella,4\nrosa,2\n" {
		t.Errorf("ALL csv = %q", got)
	}
	if got := read(t, filepath.Join(out, "noun_frequency_verse.known.csv")); got != "word,frequency\n" {
		t.Errorf("verse known = %q", got)
	}
	if got := read(t, filepath.Join(out, "noun_frequency_prose.known.csv")); !strings.Contains(got, "rosa,2") {
		t.Errorf("prose known = %q", got)
	}
	if got := read(t, filepath.Join(out, "ref_tags_prose.csv")); got != "word,frequency\nmetaphys,1\n" {
		t.Errorf("ref tags csv = %q", got)
	}

	trace := strings.Split(strings.TrimSpace(read(t, filepath.Join(out, "trace_prose.tsv"))), "\n")
	if len(trace) != 3 || !strings.HasPrefix(trace[0], "label\tchunk") {
		t.Errorf("trace = %q", trace)
	}

	summary := read(t, filepath.Join(out, "summary.txt"))
	for _, want := range []string{"prose: raw_unique=2 tokens=4", "ALL: raw_unique=2 tokens=6", "prose ~ verse: jaccard=0.5000", "kind: custom"} {
		if !strings.Contains(summary, want) {
			t.Errorf("summary missing %q:\n%s", want, summary)
		}
	}

	var m Manifest
	if err := json.Unmarshal([]byte(read(t, filepath.Join(out, "manifest.json"))), &m); err != nil {
		t.Fatalf("manifest: %v", err)
	}
	if m.RunID != res.RunID || m.ConfigSHA256 == "" {
		t.Errorf("manifest = %+v", m)
	}
	if len(m.Groups) != 4 || !m.Groups[2].Skipped || m.Groups[3].Name != AllGroup {
		t.Errorf("manifest groups = %+v", m.Groups)
	}
	if len(m.Groups[0].Files) != 2 || len(m.Groups[0].Files[0].SHA256) != 64 {
		t.Errorf("prose files = %+v", m.Groups[0].Files)
	}
}

func TestRunSingleGroupHasNoAll(t *testing.T) {
	dir := t.TempDir()
	write(t, filepath.Join(dir, "t1.txt"), "Puella rosam amat.\n")
	cfg, run := newRun(t, dir, "group:\n  name: text\n  files: [\"*.txt\"]\nout_dir: out\n")

	res, err := NewRunner(cfg, run, latinAnnotator(), utils.NewDiscardLogger()).Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if _, ok := res.Groups[AllGroup]; ok {
		t.Error("ALL should need at least two groups")
	}
	if _, err := os.Stat(filepath.Join(dir, "out", "noun_frequency_ALL.csv")); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("ALL csv stat err = %v", err)
	}
	if got := read(t, filepath.Join(dir, "out", "noun_frequency_text.csv")); got != "word,frequency\npuella,1\nrosa,1\n" {
		t.Errorf("csv = %q", got)
	}
}

func TestRunAnnotatorFailureIsFatal(t *testing.T) {
	dir := t.TempDir()
	write(t, filepath.Join(dir, "t1.txt"), "Puella rosam amat.")
	cfg, run := newRun(t, dir, "group:\n  files: [\"*.txt\"]\n")

	boom := errors.New("model crashed")
	ann := annotate.AnnotatorFunc(func(ctx context.Context, text string) (*annotate.Document, error) {
		return nil, boom
	})
	if _, err := NewRunner(cfg, run, ann, utils.NewDiscardLogger()).Run(context.Background()); !errors.Is(err, boom) {
		t.Fatalf("err = %v", err)
	}
}

func TestJaccard(t *testing.T) {
	a := counter.FromEntries(counter.Entry{Key: "rosa", Count: 3}, counter.Entry{Key: "puella", Count: 1})
	b := counter.FromEntries(counter.Entry{Key: "puella", Count: 2}, counter.Entry{Key: "liber", Count: 1})
	if got := Jaccard(a, b); got < 0.333 || got > 0.334 {
		t.Errorf("Jaccard = %f", got)
	}
	if got := Jaccard(counter.NewFreq(), counter.NewFreq()); got != 0 {
		t.Errorf("empty Jaccard = %f", got)
	}
}
