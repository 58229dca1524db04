// Package processor runs a whole counting job: every group of a run file is
// resolved, read, counted and written, followed by the aggregate table, the
// summary and the manifest.
package processor

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/wgomg/vocabula/internal/annotate"
	"github.com/wgomg/vocabula/internal/config"
	"github.com/wgomg/vocabula/internal/corpus"
	"github.com/wgomg/vocabula/internal/counter"
	"github.com/wgomg/vocabula/internal/dictcheck"
	"github.com/wgomg/vocabula/internal/preprocess"
	"github.com/wgomg/vocabula/internal/reftag"
	"github.com/wgomg/vocabula/internal/utils"
	"github.com/wgomg/vocabula/internal/vocab"
)

// AllGroup names the table composed from every counted group.
const AllGroup = config.AllGroup

type Runner struct {
	cfg    *config.Config
	run    *config.RunConfig
	ann    annotate.Annotator
	logger *utils.Logger
	now    func() time.Time
}

type Result struct {
	RunID    string
	Groups   map[string]*counter.Freq
	RefTags  map[string]*counter.Freq
	Manifest *Manifest
}

// aux holds the auxiliary lists loaded once per run.
type aux struct {
	exclude    vocab.Set
	detector   reftag.Detector
	classifier *dictcheck.Classifier
}

func NewRunner(cfg *config.Config, run *config.RunConfig, ann annotate.Annotator, logger *utils.Logger) *Runner {
	return &Runner{cfg: cfg, run: run, ann: ann, logger: logger, now: time.Now}
}

func (r *Runner) loadAux() (*aux, error) {
	a := &aux{}
	var err error

	if r.run.ExcludeLemmas != "" {
		if a.exclude, err = vocab.LoadExcludeList(r.run.ExcludeLemmas); err != nil {
			return nil, err
		}
	}
	if r.run.RefTags != "" {
		tags, err := reftag.LoadSet(r.run.RefTags)
		if err != nil {
			return nil, err
		}
		a.detector = reftag.NewDetector(tags)
	}
	if r.run.Dictcheck.Enabled {
		words, err := vocab.LoadWordList(r.run.Dictcheck.Wordlist)
		if err != nil {
			return nil, fmt.Errorf("load dictcheck wordlist: %w", err)
		}
		opts := dictcheck.Options{
			LemmaColumn: r.run.Dictcheck.LemmaColumn,
			CountColumn: r.run.Dictcheck.CountColumn,
			Normalize:   r.run.Dictcheck.Normalize,
		}
		if r.run.Dictcheck.NormalizeMap != "" {
			if opts.NormalizeMap, err = vocab.LoadNormalizeMap(r.run.Dictcheck.NormalizeMap); err != nil {
				return nil, err
			}
		}
		a.classifier = dictcheck.NewClassifier(words, opts)
	}
	return a, nil
}

func (r *Runner) info() annotate.Info {
	if d, ok := r.ann.(annotate.Describer); ok {
		return d.Info()
	}
	return annotate.Info{Kind: "custom"}
}

// Run processes every group in run-file order. Annotation and output errors
// abort the run; groups without files are skipped with a warning.
func (r *Runner) Run(ctx context.Context) (*Result, error) {
	runID := uuid.NewString()
	started := r.now()

	r.logger.Info(&runID, "Starting run for %s (%d groups)", r.run.Path, len(r.run.Groups))

	a, err := r.loadAux()
	if err != nil {
		return nil, err
	}

	if err := os.MkdirAll(r.run.OutDir, 0o755); err != nil {
		return nil, fmt.Errorf("create output directory: %w", err)
	}

	cleanedDir := ""
	if r.run.Preprocess.Kind == config.PreprocessCleaner {
		cleaner := preprocess.NewCleaner(r.run.Preprocess.Config, r.run.Preprocess.Command, r.logger)
		if cleanedDir, err = cleaner.Run(ctx, &runID); err != nil {
			return nil, err
		}
	}

	manifest := &Manifest{
		RunID:        runID,
		StartedAt:    started.UTC(),
		ConfigPath:   r.run.Path,
		ConfigSHA256: r.run.SHA256,
		Annotator:    r.info(),
		Settings: Settings{
			UseLemma:      r.run.UseLemma,
			UPOSTargets:   r.run.UPOSTargets,
			ChunkChars:    r.cfg.Count.ChunkChars,
			Preprocess:    r.run.Preprocess.Kind.String(),
			ExcludeLemmas: r.run.ExcludeLemmas,
			RefTags:       r.run.RefTags,
			TraceEnabled:  r.run.Trace.Enabled,
			TraceMaxRows:  r.cfg.Count.TraceMaxRows,
			Dictcheck:     r.run.Dictcheck.Enabled,
			Wordlist:      r.run.Dictcheck.Wordlist,
		},
	}
	res := &Result{
		RunID:    runID,
		Groups:   make(map[string]*counter.Freq),
		RefTags:  make(map[string]*counter.Freq),
		Manifest: manifest,
	}

	for _, g := range r.run.Groups {
		gm, err := r.runGroup(ctx, runID, g, cleanedDir, a, res)
		if err != nil {
			return nil, err
		}
		manifest.Groups = append(manifest.Groups, *gm)
	}

	if len(res.Groups) >= 2 {
		all := counter.Compose(res.Groups)
		res.Groups[AllGroup] = all
		if a.detector != nil {
			res.RefTags[AllGroup] = counter.Compose(res.RefTags)
		}
		gm := GroupManifest{Name: AllGroup, Unique: all.Len(), Tokens: all.Total()}
		if err := r.writeTables(&runID, AllGroup, all, res.RefTags[AllGroup], a, &gm, manifest); err != nil {
			return nil, err
		}
		manifest.Groups = append(manifest.Groups, gm)
	}

	summaryPath := filepath.Join(r.run.OutDir, "summary.txt")
	if err := corpus.WriteSummary(summaryPath, r.summary(res)); err != nil {
		return nil, err
	}
	manifest.Outputs = append(manifest.Outputs, summaryPath)

	manifest.FinishedAt = r.now().UTC()
	manifestPath := filepath.Join(r.run.OutDir, "manifest.json")
	manifest.Outputs = append(manifest.Outputs, manifestPath)
	if err := writeManifest(manifestPath, manifest); err != nil {
		return nil, err
	}

	r.logger.Info(&runID, "Done in %s, saved to %s", manifest.FinishedAt.Sub(manifest.StartedAt).Round(time.Millisecond), r.run.OutDir)
	return res, nil
}

func (r *Runner) runGroup(ctx context.Context, runID string, g config.Group, cleanedDir string, a *aux, res *Result) (*GroupManifest, error) {
	gm := &GroupManifest{Name: g.Name}

	patterns := preprocess.ExpandCleanedDir(g.Files, cleanedDir)
	for i, p := range patterns {
		patterns[i] = r.run.ResolvePath(p)
	}
	paths, err := corpus.ExpandGlobs(patterns)
	if err != nil {
		return nil, fmt.Errorf("group '%s': %w", g.Name, err)
	}
	if len(paths) == 0 {
		r.logger.Warn(&runID, "group '%s' matched no files; skipping", g.Name)
		gm.Skipped = true
		return gm, nil
	}

	kind := r.run.Preprocess.Kind
	text, files := corpus.ReadConcat(paths, func(_, t string) (string, error) {
		return preprocess.Apply(kind, t)
	}, r.logger, &runID)
	if len(files) == 0 {
		r.logger.Warn(&runID, "group '%s' has no readable files; skipping", g.Name)
		gm.Skipped = true
		return gm, nil
	}

	for _, f := range files {
		sum, err := hashFile(f.Path)
		if err != nil {
			return nil, fmt.Errorf("hash %s: %w", f.Path, err)
		}
		gm.Files = append(gm.Files, FileManifest{Path: f.Path, Size: f.Size, SHA256: sum})
	}
	gm.Chars = utils.CountChars(text)

	r.logger.Info(&runID, "[Processing] %s: %d chars / %d files", g.Name, gm.Chars, len(files))

	opts := counter.Options{
		UseLemma:   r.run.UseLemma,
		Targets:    r.run.UPOSTargets,
		ChunkChars: r.cfg.Count.ChunkChars,
		Label:      g.Name,
		Logger:     r.logger,
		RunID:      &runID,
	}
	var refs *counter.Freq
	if a.detector != nil {
		refs = counter.NewFreq()
		opts.RefTags = a.detector
		opts.RefCounter = refs
	}

	var traceFile *os.File
	if r.run.Trace.Enabled {
		tracePath := filepath.Join(r.run.OutDir, fmt.Sprintf("trace_%s.tsv", g.Name))
		if traceFile, err = os.Create(tracePath); err != nil {
			return nil, fmt.Errorf("create trace: %w", err)
		}
		defer traceFile.Close()
		opts.Trace = counter.NewTraceWriter(traceFile, r.cfg.Count.TraceMaxRows)
		res.Manifest.Outputs = append(res.Manifest.Outputs, tracePath)
	}

	freq, stats, err := counter.CountWithStats(ctx, text, r.ann, opts)
	if err != nil {
		return nil, fmt.Errorf("group '%s': %w", g.Name, err)
	}
	if opts.Trace != nil {
		if err := opts.Trace.Flush(); err != nil {
			return nil, fmt.Errorf("flush trace: %w", err)
		}
		if err := traceFile.Close(); err != nil {
			return nil, fmt.Errorf("close trace: %w", err)
		}
		r.logger.Debug(&runID, "[%s] trace rows written=%d of %d", g.Name, opts.Trace.Written(), opts.Trace.GlobalRow)
	}

	if a.exclude != nil {
		freq = counter.Filter(freq, a.exclude)
	}

	gm.Chunks = stats.Chunks
	gm.Unique = freq.Len()
	gm.Tokens = freq.Total()
	r.logger.Info(&runID, "[%s] chunks=%d raw_unique=%d tokens=%d diverted=%d",
		g.Name, stats.Chunks, gm.Unique, gm.Tokens, stats.Diverted)

	res.Groups[g.Name] = freq
	if refs != nil {
		res.RefTags[g.Name] = refs
	}
	if err := r.writeTables(&runID, g.Name, freq, refs, a, gm, res.Manifest); err != nil {
		return nil, err
	}
	return gm, nil
}

// writeTables writes the frequency table of one group and, when enabled,
// its ref-tag table and dictionary split.
func (r *Runner) writeTables(runID *string, name string, freq, refs *counter.Freq, a *aux, gm *GroupManifest, m *Manifest) error {
	freqPath := filepath.Join(r.run.OutDir, fmt.Sprintf("noun_frequency_%s.csv", name))
	if err := corpus.WriteFrequencyCSV(freqPath, freq); err != nil {
		return err
	}
	m.Outputs = append(m.Outputs, freqPath)

	if refs != nil {
		refPath := filepath.Join(r.run.OutDir, fmt.Sprintf("ref_tags_%s.csv", name))
		if err := corpus.WriteFrequencyCSV(refPath, refs); err != nil {
			return err
		}
		m.Outputs = append(m.Outputs, refPath)
	}

	if a.classifier == nil {
		return nil
	}
	base := strings.TrimSuffix(freqPath, ".csv")
	knownPath, unknownPath := base+".known.csv", base+".unknown.csv"
	split, err := a.classifier.SplitFiles(freqPath, knownPath, unknownPath)
	if err != nil {
		return fmt.Errorf("dictcheck %s: %w", name, err)
	}
	gm.Known, gm.Unknown = split.Known, split.Unknown
	m.Outputs = append(m.Outputs, knownPath, unknownPath)
	r.logger.Info(runID, "[%s] dictcheck known=%d unknown=%d dropped=%d", name, split.Known, split.Unknown, split.Dropped)
	return nil
}

func (r *Runner) summary(res *Result) []string {
	names := make([]string, 0, len(res.Groups))
	for n := range res.Groups {
		names = append(names, n)
	}
	sort.Strings(names)

	lines := []string{"=== Summary ==="}
	for _, n := range names {
		f := res.Groups[n]
		lines = append(lines, fmt.Sprintf("%s: raw_unique=%d tokens=%d ttr=%.4f",
			n, f.Len(), f.Total(), utils.TypeTokenRatio(f.Len(), f.Total())))
	}

	counted := make(map[string]*counter.Freq, len(res.Groups))
	for n, f := range res.Groups {
		if n != AllGroup {
			counted[n] = f
		}
	}
	if len(counted) >= 2 {
		lines = append(lines, "", "=== Vocabulary overlap ===")
		lines = append(lines, overlapLines(counted)...)
	}

	lines = append(lines, "")
	lines = append(lines, annotatorTable(res.Manifest.Annotator)...)
	return lines
}

func annotatorTable(info annotate.Info) []string {
	lines := []string{
		"=== Annotator ===",
		fmt.Sprintf("kind: %s", info.Kind),
		fmt.Sprintf("language: %s", info.Language),
	}
	if info.Package != "" {
		lines = append(lines, fmt.Sprintf("package: %s", info.Package))
	}
	if info.Model != "" {
		lines = append(lines, fmt.Sprintf("model: %s", info.Model))
	}
	keys := make([]string, 0, len(info.Extra))
	for k := range info.Extra {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		lines = append(lines, fmt.Sprintf("%s: %s", k, info.Extra[k]))
	}
	return lines
}
