package annotate

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// Token is one annotated word. An empty Lemma means the annotator gave none.
type Token struct {
	Surface string `json:"text"`
	Lemma   string `json:"lemma,omitempty"`
	UPOS    string `json:"upos"`
}

// Sentence is an ordered token sequence. Text is the sentence as the
// annotator saw it and may be empty.
type Sentence struct {
	Text   string  `json:"text,omitempty"`
	Tokens []Token `json:"tokens"`
}

// JoinedText returns Text or, when empty, the token surfaces joined by spaces.
func (s Sentence) JoinedText() string {
	if t := strings.TrimSpace(s.Text); t != "" {
		return t
	}
	parts := make([]string, 0, len(s.Tokens))
	for _, tok := range s.Tokens {
		if tok.Surface != "" {
			parts = append(parts, tok.Surface)
		}
	}
	return strings.Join(parts, " ")
}

type Document struct {
	Sentences []Sentence `json:"sentences"`
}

// Annotator turns a chunk of text into sentences of tagged, lemmatized
// tokens. Implementations normalize their engine's output shape; callers
// never inspect engine-specific structures.
type Annotator interface {
	Annotate(ctx context.Context, text string) (*Document, error)
}

// AnnotatorFunc adapts a plain function to Annotator.
type AnnotatorFunc func(ctx context.Context, text string) (*Document, error)

func (f AnnotatorFunc) Annotate(ctx context.Context, text string) (*Document, error) {
	return f(ctx, text)
}

// Info describes the engine behind an annotator for summaries and manifests.
type Info struct {
	Kind     string            `json:"kind"`
	Language string            `json:"language"`
	Package  string            `json:"package,omitempty"`
	Model    string            `json:"model,omitempty"`
	Extra    map[string]string `json:"extra,omitempty"`
}

// Describer is implemented by annotators that can report Info.
type Describer interface {
	Info() Info
}

// HealthChecker is implemented by engines backed by a process that can go
// down between requests.
type HealthChecker interface {
	Healthy() bool
}

var ErrWorkerClosed = errors.New("annotator worker closed")

type APIError struct {
	StatusCode int
	Message    string
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("API error %d: %s", e.StatusCode, e.Message)
}
