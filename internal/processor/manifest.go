package processor

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/wgomg/vocabula/internal/annotate"
)

type Manifest struct {
	RunID        string          `json:"run_id"`
	StartedAt    time.Time       `json:"started_at"`
	FinishedAt   time.Time       `json:"finished_at"`
	ConfigPath   string          `json:"config_path"`
	ConfigSHA256 string          `json:"config_sha256"`
	Annotator    annotate.Info   `json:"annotator"`
	Settings     Settings        `json:"settings"`
	Groups       []GroupManifest `json:"groups"`
	Outputs      []string        `json:"outputs"`
}

type Settings struct {
	UseLemma      bool     `json:"use_lemma"`
	UPOSTargets   []string `json:"upos_targets"`
	ChunkChars    int      `json:"chunk_chars"`
	Preprocess    string   `json:"preprocess"`
	ExcludeLemmas string   `json:"exclude_lemmas,omitempty"`
	RefTags       string   `json:"ref_tags,omitempty"`
	TraceEnabled  bool     `json:"trace_enabled"`
	TraceMaxRows  int      `json:"trace_max_rows"`
	Dictcheck     bool     `json:"dictcheck"`
	Wordlist      string   `json:"wordlist,omitempty"`
}

type GroupManifest struct {
	Name    string         `json:"name"`
	Skipped bool           `json:"skipped,omitempty"`
	Files   []FileManifest `json:"files"`
	Chars   int            `json:"chars"`
	Chunks  int            `json:"chunks"`
	Unique  int            `json:"raw_unique"`
	Tokens  int            `json:"tokens"`
	Known   int            `json:"known,omitempty"`
	Unknown int            `json:"unknown,omitempty"`
}

type FileManifest struct {
	Path   string `json:"path"`
	Size   int64  `json:"size"`
	SHA256 string `json:"sha256"`
}

func hashFile(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

func writeManifest(path string, m *Manifest) error {
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal manifest: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}
	if err := os.WriteFile(path, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("write manifest: %w", err)
	}
	return nil
}
