// Package counter counts target part-of-speech tokens over annotated text,
// one chunk at a time, and combines the resulting frequency maps.
package counter

import (
	"context"
	"fmt"
	"iter"
	"strings"
	"time"

	"golang.org/x/text/unicode/norm"

	"github.com/wgomg/vocabula/internal/annotate"
	"github.com/wgomg/vocabula/internal/chunk"
	"github.com/wgomg/vocabula/internal/reftag"
	"github.com/wgomg/vocabula/internal/utils"
)

type Options struct {
	UseLemma bool
	// Targets lists the UPOS tags that are counted. Empty means NOUN.
	Targets []string
	// ChunkChars is the chunk budget in runes. 0 uses chunk.DefaultMaxChars,
	// a negative value disables chunking.
	ChunkChars int
	Label      string

	// RefTags diverts matching tokens into RefCounter. Both must be set for
	// diversion to happen.
	RefTags    reftag.Detector
	RefCounter *Freq

	Trace *TraceWriter

	Logger *utils.Logger
	RunID  *string
}

// DefaultOptions counts NOUN lemmas in chunks of chunk.DefaultMaxChars.
func DefaultOptions() Options {
	return Options{UseLemma: true, Targets: []string{"NOUN"}}
}

// Stats describes one counting pass.
type Stats struct {
	Chunks    int
	Sentences int
	Tokens    int
	Counted   int
	Diverted  int
}

type pass struct {
	opts    Options
	targets map[string]struct{}
	freq    *Freq
	stats   Stats
}

func newPass(opts Options) *pass {
	targets := make(map[string]struct{}, len(opts.Targets))
	for _, t := range opts.Targets {
		targets[strings.ToUpper(strings.TrimSpace(t))] = struct{}{}
	}
	if len(targets) == 0 {
		targets["NOUN"] = struct{}{}
	}
	return &pass{opts: opts, targets: targets, freq: NewFreq()}
}

// CountNouns annotates text in a single call and counts its target tokens.
func CountNouns(ctx context.Context, text string, ann annotate.Annotator, opts Options) (*Freq, error) {
	freq, _, err := countChunks(ctx, singleChunk(text), ann, opts)
	return freq, err
}

// CountNounsStreaming splits text at sentence ends and annotates one chunk
// at a time, so only a single chunk's annotation is held in memory.
func CountNounsStreaming(ctx context.Context, text string, ann annotate.Annotator, opts Options) (*Freq, error) {
	freq, _, err := CountWithStats(ctx, text, ann, opts)
	return freq, err
}

// CountWithStats is CountNounsStreaming that also reports pass statistics.
func CountWithStats(ctx context.Context, text string, ann annotate.Annotator, opts Options) (*Freq, Stats, error) {
	maxChars := opts.ChunkChars
	if maxChars == 0 {
		maxChars = chunk.DefaultMaxChars
	}
	return countChunks(ctx, chunk.Split(text, maxChars), ann, opts)
}

func singleChunk(text string) iter.Seq[string] {
	return func(yield func(string) bool) {
		if strings.TrimSpace(text) != "" {
			yield(text)
		}
	}
}

func countChunks(ctx context.Context, chunks iter.Seq[string], ann annotate.Annotator, opts Options) (*Freq, Stats, error) {
	p := newPass(opts)
	idx := 0
	for c := range chunks {
		if err := ctx.Err(); err != nil {
			return nil, p.stats, err
		}

		start := time.Now()
		doc, err := ann.Annotate(ctx, c)
		if err != nil {
			return nil, p.stats, fmt.Errorf("annotate chunk %d of %q: %w", idx, opts.Label, err)
		}
		if opts.Logger != nil {
			opts.Logger.Debug(opts.RunID, "[%s] chunk %d: %d chars, %d sentences, %s",
				opts.Label, idx, utils.CountChars(c), len(doc.Sentences), time.Since(start).Round(time.Millisecond))
		}

		if err := p.consume(idx, doc); err != nil {
			return nil, p.stats, err
		}
		idx++
	}
	p.stats.Chunks = idx
	return p.freq, p.stats, nil
}

func (p *pass) consume(chunkIdx int, doc *annotate.Document) error {
	if doc == nil {
		return nil
	}
	for sentIdx, sent := range doc.Sentences {
		p.stats.Sentences++
		if len(sent.Tokens) == 0 {
			continue
		}
		var sentText string
		if p.opts.Trace != nil {
			sentText = sent.JoinedText()
		}

		for tokIdx, tok := range sent.Tokens {
			p.stats.Tokens++
			if _, ok := p.targets[tok.UPOS]; !ok {
				continue
			}

			raw := tok.Surface
			if p.opts.UseLemma && tok.Lemma != "" {
				raw = tok.Lemma
			}
			key := foldKey(raw)
			if key == "" {
				continue
			}

			var tag string
			if p.opts.RefTags != nil && p.opts.RefCounter != nil {
				tag = p.opts.RefTags(refCandidate(tok))
			}
			if tag != "" {
				p.opts.RefCounter.Inc(tag)
				p.stats.Diverted++
			} else {
				p.freq.Inc(key)
				p.stats.Counted++
			}

			if p.opts.Trace != nil {
				err := p.opts.Trace.Write(TraceRow{
					Label:    p.opts.Label,
					Chunk:    chunkIdx,
					SentIdx:  sentIdx,
					TokenIdx: tokIdx,
					Sentence: sentText,
					Token:    tok.Surface,
					Lemma:    tok.Lemma,
					UPOS:     tok.UPOS,
					RefTag:   tag,
				})
				if err != nil {
					return err
				}
			}
		}
	}
	return nil
}

// refCandidate is the lemma when the annotator gave one, else the surface,
// regardless of UseLemma.
func refCandidate(tok annotate.Token) string {
	if tok.Lemma != "" {
		return tok.Lemma
	}
	return tok.Surface
}

// foldKey is the single case-folding applied to lemma and surface keys.
func foldKey(s string) string {
	return norm.NFC.String(strings.ToLower(strings.TrimSpace(s)))
}
