package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestParseAnnotatorKind(t *testing.T) {
	tests := []struct {
		in      string
		want    AnnotatorKind
		wantErr bool
	}{
		{"", AnnotatorStanza, false},
		{"Stanza", AnnotatorStanza, false},
		{" udpipe ", AnnotatorUDPipe, false},
		{"spacy", 0, true},
	}
	for _, tt := range tests {
		got, err := ParseAnnotatorKind(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseAnnotatorKind(%q) err = %v", tt.in, err)
			continue
		}
		if !tt.wantErr && got != tt.want {
			t.Errorf("ParseAnnotatorKind(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("APP_ENV", "production")
	t.Setenv("ANNOTATOR_KIND", "udpipe")
	t.Setenv("UDPIPE_REQUESTS_PER_SECOND", "2.5")
	t.Setenv("COUNT_CHUNK_CHARS", "5000")
	t.Setenv("APP_CORS_ORIGINS", "http://a.example, http://b.example")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.App.Env != Production || cfg.App.LogLevel != "info" {
		t.Errorf("env = %q level = %q", cfg.App.Env, cfg.App.LogLevel)
	}
	if cfg.Annotator.Kind != AnnotatorUDPipe {
		t.Errorf("kind = %v", cfg.Annotator.Kind)
	}
	if cfg.Annotator.UDPipe.RequestsPerSecond != 2.5 {
		t.Errorf("rps = %v", cfg.Annotator.UDPipe.RequestsPerSecond)
	}
	if cfg.Count.ChunkChars != 5000 {
		t.Errorf("chunk chars = %d", cfg.Count.ChunkChars)
	}
	if len(cfg.App.CorsOrigins) != 2 || cfg.App.CorsOrigins[1] != "http://b.example" {
		t.Errorf("cors = %q", cfg.App.CorsOrigins)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate: %v", err)
	}
}

func TestLoadRejectsUnknownAnnotator(t *testing.T) {
	t.Setenv("ANNOTATOR_KIND", "treetagger")
	if _, err := Load(); err == nil {
		t.Fatal("expected error")
	}
}

func TestValidate(t *testing.T) {
	cfg := &Config{
		Annotator: AnnotatorConfig{Kind: AnnotatorUDPipe, UDPipe: UDPipeConfig{URL: "http://x", RequestsPerSecond: 0}},
	}
	if err := cfg.Validate(); err == nil {
		t.Error("expected error for zero rate")
	}
	cfg.Annotator.UDPipe.RequestsPerSecond = 1
	cfg.Count.ChunkChars = -1
	if err := cfg.Validate(); err == nil {
		t.Error("expected error for negative chunk size")
	}
}

func writeRun(t *testing.T, content string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), "groups.config.yml")
	if err := os.WriteFile(p, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return p
}

func TestLoadRunGroups(t *testing.T) {
	p := writeRun(t, `
groups:
  zeta:
    files: ["z/*.txt"]
  alpha:
    files: ["a/*.txt", "b/**/*.txt"]
out_dir: results
use_lemma: false
ref_tags: tags.txt
annotator: udpipe
dictcheck:
  enabled: true
  wordlist: lemmas.csv
`)
	run, err := LoadRun(p)
	if err != nil {
		t.Fatalf("LoadRun: %v", err)
	}
	if len(run.Groups) != 2 || run.Groups[0].Name != "zeta" || run.Groups[1].Name != "alpha" {
		t.Fatalf("groups = %+v", run.Groups)
	}
	if run.UseLemma {
		t.Error("use_lemma should be false")
	}
	if len(run.UPOSTargets) != 1 || run.UPOSTargets[0] != "NOUN" {
		t.Errorf("upos targets = %q", run.UPOSTargets)
	}
	dir := filepath.Dir(p)
	if run.OutDir != filepath.Join(dir, "results") {
		t.Errorf("out dir = %q", run.OutDir)
	}
	if run.RefTags != filepath.Join(dir, "tags.txt") {
		t.Errorf("ref tags = %q", run.RefTags)
	}
	if run.Dictcheck.Wordlist != filepath.Join(dir, "lemmas.csv") {
		t.Errorf("wordlist = %q", run.Dictcheck.Wordlist)
	}
	if !run.Dictcheck.Normalize || run.Dictcheck.LemmaColumn != "word" {
		t.Errorf("dictcheck defaults = %+v", run.Dictcheck)
	}
	if run.Annotator == nil || *run.Annotator != AnnotatorUDPipe {
		t.Errorf("annotator = %v", run.Annotator)
	}
	if run.SHA256 == "" {
		t.Error("missing digest")
	}
}

func TestLoadRunSingleGroup(t *testing.T) {
	p := writeRun(t, "group:\n  files: [\"corpus/*.txt\"]\n")
	run, err := LoadRun(p)
	if err != nil {
		t.Fatalf("LoadRun: %v", err)
	}
	if len(run.Groups) != 1 || run.Groups[0].Name != "group" {
		t.Errorf("groups = %+v", run.Groups)
	}
}

func TestLoadRunErrors(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    string
	}{
		{"no groups", "out_dir: out\n", "groups"},
		{"group without files", "groups:\n  a:\n    files: []\n", "must have 'files'"},
		{"single group without files", "group:\n  name: x\n", "group.files"},
		{"deprecated cleaner key", "cleaner_config: c.yml\ngroup:\n  files: [a]\n", "cleaner_config"},
		{"deprecated stanza key", "stanza_pkg: proiel\ngroup:\n  files: [a]\n", "stanza_pkg"},
		{"bad preprocess", "preprocess:\n  kind: pdf\ngroup:\n  files: [a]\n", "preprocess.kind"},
		{"cleaner without config", "preprocess:\n  kind: cleaner\n  command: [clean]\ngroup:\n  files: [a]\n", "preprocess.config"},
		{"dictcheck without wordlist", "dictcheck:\n  enabled: true\ngroup:\n  files: [a]\n", "dictcheck.wordlist"},
		{"reserved group name", "groups:\n  prose:\n    files: [a]\n  ALL:\n    files: [b]\n", "reserved"},
		{"reserved single group name", "group:\n  name: ALL\n  files: [a]\n", "reserved"},
		{"bad annotator", "annotator: spacy\ngroup:\n  files: [a]\n", "unsupported annotator"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadRun(writeRun(t, tt.content))
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("error %q does not mention %q", err, tt.want)
			}
		})
	}
}

func TestLoadRunNoGroupsSentinel(t *testing.T) {
	_, err := LoadRun(writeRun(t, "out_dir: out\n"))
	if !errors.Is(err, ErrNoGroups) {
		t.Errorf("err = %v, want ErrNoGroups", err)
	}
}

func TestLoadRunRequiresYAMLSuffix(t *testing.T) {
	p := filepath.Join(t.TempDir(), "groups.json")
	if err := os.WriteFile(p, []byte("{}"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadRun(p); err == nil {
		t.Fatal("expected error for non-yaml suffix")
	}
}

func TestApplyRun(t *testing.T) {
	cfg := &Config{Count: CountConfig{ChunkChars: 100}}
	cpu := false
	kind := AnnotatorUDPipe
	cfg.ApplyRun(&RunConfig{Language: "grc", StanzaPackage: "proiel", CPUOnly: &cpu, Annotator: &kind, ChunkChars: 50})
	if cfg.Annotator.Kind != AnnotatorUDPipe || cfg.Annotator.Stanza.Language != "grc" ||
		cfg.Annotator.Stanza.Package != "proiel" || cfg.Annotator.Stanza.CPUOnly || cfg.Count.ChunkChars != 50 {
		t.Errorf("ApplyRun result = %+v", cfg)
	}
}
