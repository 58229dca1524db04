package config

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

var ErrNoGroups = errors.New("config must define 'groups' or 'group'")

// AllGroup names the table composed from every counted group. It cannot be
// used as a group name.
const AllGroup = "ALL"

type PreprocessKind int

const (
	PreprocessNone PreprocessKind = iota
	PreprocessNormalize
	PreprocessHTML
	PreprocessCleaner
)

func (k PreprocessKind) String() string {
	switch k {
	case PreprocessNone:
		return "none"
	case PreprocessNormalize:
		return "normalize"
	case PreprocessHTML:
		return "html"
	case PreprocessCleaner:
		return "cleaner"
	default:
		return "unknown"
	}
}

func ParsePreprocessKind(s string) (PreprocessKind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "none":
		return PreprocessNone, nil
	case "normalize":
		return PreprocessNormalize, nil
	case "html":
		return PreprocessHTML, nil
	case "cleaner":
		return PreprocessCleaner, nil
	default:
		return 0, fmt.Errorf("unsupported preprocess.kind %q (none, normalize, html, cleaner)", s)
	}
}

// Group is a named list of file globs counted together.
type Group struct {
	Name  string
	Files []string
}

type PreprocessConfig struct {
	Kind    PreprocessKind
	Config  string
	Command []string
}

type TraceConfig struct {
	Enabled bool
	MaxRows int
}

type DictcheckConfig struct {
	Enabled      bool
	Wordlist     string
	LemmaColumn  string
	CountColumn  string
	Normalize    bool
	NormalizeMap string
}

// RunConfig is one batch run as read from a YAML file. Relative paths are
// resolved against the directory holding the file.
type RunConfig struct {
	Path   string
	Dir    string
	SHA256 string

	Groups        []Group
	Preprocess    PreprocessConfig
	OutDir        string
	Language      string
	StanzaPackage string
	CPUOnly       *bool
	Annotator     *AnnotatorKind
	UseLemma      bool
	UPOSTargets   []string
	ChunkChars    int
	ExcludeLemmas string
	RefTags       string
	Trace         TraceConfig
	Dictcheck     DictcheckConfig
}

type rawRun struct {
	Groups *yaml.Node `yaml:"groups"`
	Group  *struct {
		Name  string   `yaml:"name"`
		Files []string `yaml:"files"`
	} `yaml:"group"`
	Preprocess *struct {
		Kind    string   `yaml:"kind"`
		Config  string   `yaml:"config"`
		Command []string `yaml:"command"`
	} `yaml:"preprocess"`
	OutDir        string   `yaml:"out_dir"`
	Language      string   `yaml:"language"`
	StanzaPackage string   `yaml:"stanza_package"`
	CPUOnly       *bool    `yaml:"cpu_only"`
	Annotator     string   `yaml:"annotator"`
	UseLemma      *bool    `yaml:"use_lemma"`
	UPOSTargets   []string `yaml:"upos_targets"`
	ChunkChars    int      `yaml:"chunk_chars"`
	ExcludeLemmas string   `yaml:"exclude_lemmas"`
	RefTags       string   `yaml:"ref_tags"`
	Trace         struct {
		Enabled bool `yaml:"enabled"`
		MaxRows int  `yaml:"max_rows"`
	} `yaml:"trace"`
	Dictcheck struct {
		Enabled      bool   `yaml:"enabled"`
		Wordlist     string `yaml:"wordlist"`
		LemmaColumn  string `yaml:"lemma_column"`
		CountColumn  string `yaml:"count_column"`
		Normalize    *bool  `yaml:"normalize"`
		NormalizeMap string `yaml:"normalize_map"`
	} `yaml:"dictcheck"`
}

var deprecatedKeys = map[string]string{
	"cleaner_config": "use preprocess: {kind: cleaner, config: ...}",
	"stanza_pkg":     "use stanza_package",
}

// LoadRun reads and validates a run file.
func LoadRun(path string) (*RunConfig, error) {
	ext := strings.ToLower(filepath.Ext(path))
	if ext != ".yml" && ext != ".yaml" {
		return nil, fmt.Errorf("run config %s: expected a .yml or .yaml file", path)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read run config: %w", err)
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolve run config path: %w", err)
	}
	run, err := ParseRun(data, filepath.Dir(abs))
	if err != nil {
		return nil, fmt.Errorf("run config %s: %w", path, err)
	}
	run.Path = abs
	return run, nil
}

// ParseRun validates a run document. baseDir anchors relative paths.
func ParseRun(data []byte, baseDir string) (*RunConfig, error) {
	var top map[string]any
	if err := yaml.Unmarshal(data, &top); err != nil {
		return nil, fmt.Errorf("parse yaml: %w", err)
	}
	if top == nil {
		return nil, ErrNoGroups
	}
	for key, hint := range deprecatedKeys {
		if _, ok := top[key]; ok {
			return nil, fmt.Errorf("deprecated key '%s' is not supported; %s", key, hint)
		}
	}

	var raw rawRun
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parse yaml: %w", err)
	}

	sum := sha256.Sum256(data)
	run := &RunConfig{
		Dir:           baseDir,
		SHA256:        hex.EncodeToString(sum[:]),
		OutDir:        raw.OutDir,
		Language:      raw.Language,
		StanzaPackage: raw.StanzaPackage,
		CPUOnly:       raw.CPUOnly,
		UseLemma:      true,
		UPOSTargets:   raw.UPOSTargets,
		ChunkChars:    raw.ChunkChars,
		ExcludeLemmas: raw.ExcludeLemmas,
		RefTags:       raw.RefTags,
		Trace:         TraceConfig{Enabled: raw.Trace.Enabled, MaxRows: raw.Trace.MaxRows},
		Dictcheck: DictcheckConfig{
			Enabled:      raw.Dictcheck.Enabled,
			Wordlist:     raw.Dictcheck.Wordlist,
			LemmaColumn:  raw.Dictcheck.LemmaColumn,
			CountColumn:  raw.Dictcheck.CountColumn,
			Normalize:    true,
			NormalizeMap: raw.Dictcheck.NormalizeMap,
		},
	}
	if raw.UseLemma != nil {
		run.UseLemma = *raw.UseLemma
	}
	if raw.Dictcheck.Normalize != nil {
		run.Dictcheck.Normalize = *raw.Dictcheck.Normalize
	}
	if len(run.UPOSTargets) == 0 {
		run.UPOSTargets = []string{"NOUN"}
	}
	if run.OutDir == "" {
		run.OutDir = "out"
	}
	if run.Dictcheck.LemmaColumn == "" {
		run.Dictcheck.LemmaColumn = "word"
	}
	if run.Dictcheck.CountColumn == "" {
		run.Dictcheck.CountColumn = "frequency"
	}
	if raw.Annotator != "" {
		kind, err := ParseAnnotatorKind(raw.Annotator)
		if err != nil {
			return nil, err
		}
		run.Annotator = &kind
	}

	groups, err := parseGroups(&raw)
	if err != nil {
		return nil, err
	}
	run.Groups = groups

	if raw.Preprocess != nil {
		kind, err := ParsePreprocessKind(raw.Preprocess.Kind)
		if err != nil {
			return nil, err
		}
		run.Preprocess = PreprocessConfig{Kind: kind, Config: raw.Preprocess.Config, Command: raw.Preprocess.Command}
		if kind == PreprocessCleaner {
			if strings.TrimSpace(run.Preprocess.Config) == "" {
				return nil, fmt.Errorf("'preprocess.config' must be a non-empty string path")
			}
			if len(run.Preprocess.Command) == 0 {
				return nil, fmt.Errorf("'preprocess.command' is required for the cleaner kind")
			}
		}
	}

	if run.ChunkChars < 0 {
		return nil, fmt.Errorf("'chunk_chars' must not be negative")
	}
	if run.Trace.MaxRows < 0 {
		return nil, fmt.Errorf("'trace.max_rows' must not be negative")
	}
	if run.Dictcheck.Enabled && strings.TrimSpace(run.Dictcheck.Wordlist) == "" {
		return nil, fmt.Errorf("dictcheck.wordlist is required when dictcheck.enabled is true")
	}

	run.OutDir = run.ResolvePath(run.OutDir)
	run.ExcludeLemmas = run.ResolvePath(run.ExcludeLemmas)
	run.RefTags = run.ResolvePath(run.RefTags)
	run.Preprocess.Config = run.ResolvePath(run.Preprocess.Config)
	run.Dictcheck.Wordlist = run.ResolvePath(run.Dictcheck.Wordlist)
	run.Dictcheck.NormalizeMap = run.ResolvePath(run.Dictcheck.NormalizeMap)
	return run, nil
}

// parseGroups keeps the document order of the groups mapping.
func parseGroups(raw *rawRun) ([]Group, error) {
	if raw.Groups != nil && raw.Groups.Kind != 0 {
		if raw.Groups.Kind != yaml.MappingNode {
			return nil, fmt.Errorf("'groups' must be a mapping of name to {files: [...]}")
		}
		var groups []Group
		for i := 0; i+1 < len(raw.Groups.Content); i += 2 {
			name := raw.Groups.Content[i].Value
			var def struct {
				Files []string `yaml:"files"`
			}
			if err := raw.Groups.Content[i+1].Decode(&def); err != nil {
				return nil, fmt.Errorf("group '%s': %w", name, err)
			}
			if name == AllGroup {
				return nil, fmt.Errorf("group name '%s' is reserved for the composed table", AllGroup)
			}
			if len(def.Files) == 0 {
				return nil, fmt.Errorf("group '%s' must have 'files' list", name)
			}
			groups = append(groups, Group{Name: name, Files: def.Files})
		}
		if len(groups) == 0 {
			return nil, ErrNoGroups
		}
		return groups, nil
	}
	if raw.Group != nil {
		if len(raw.Group.Files) == 0 {
			return nil, fmt.Errorf("'group.files' is required")
		}
		name := raw.Group.Name
		if name == "" {
			name = "group"
		}
		if name == AllGroup {
			return nil, fmt.Errorf("group name '%s' is reserved for the composed table", AllGroup)
		}
		return []Group{{Name: name, Files: raw.Group.Files}}, nil
	}
	return nil, ErrNoGroups
}

// ResolvePath anchors a relative path at the run file's directory.
func (r *RunConfig) ResolvePath(p string) string {
	if p == "" || filepath.IsAbs(p) || r.Dir == "" {
		return p
	}
	return filepath.Join(r.Dir, p)
}
