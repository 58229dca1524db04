package annotate

import (
	"bufio"
	"fmt"
	"io"
	"strings"
)

// ParseCoNLLU reads CoNLL-U into a Document. Multi-word token ranges are
// skipped in favour of their syntactic words, empty nodes are dropped, and
// "_" in the LEMMA or UPOS column counts as absent.
func ParseCoNLLU(r io.Reader) (*Document, error) {
	doc := &Document{}
	var cur *Sentence

	flush := func() {
		if cur != nil && (len(cur.Tokens) > 0 || cur.Text != "") {
			doc.Sentences = append(doc.Sentences, *cur)
		}
		cur = nil
	}

	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), maxResponseBytes)
	lineNo := 0
	for sc.Scan() {
		lineNo++
		line := strings.TrimRight(sc.Text(), "\r")
		if strings.TrimSpace(line) == "" {
			flush()
			continue
		}
		if cur == nil {
			cur = &Sentence{}
		}
		if strings.HasPrefix(line, "#") {
			if text, ok := strings.CutPrefix(line, "# text ="); ok {
				cur.Text = strings.TrimSpace(text)
			}
			continue
		}

		cols := strings.Split(line, "\t")
		if len(cols) < 4 {
			return nil, fmt.Errorf("conllu line %d: expected 10 columns, got %d", lineNo, len(cols))
		}
		if strings.ContainsAny(cols[0], "-.") {
			continue
		}
		cur.Tokens = append(cur.Tokens, Token{
			Surface: cols[1],
			Lemma:   underscoreEmpty(cols[2]),
			UPOS:    underscoreEmpty(cols[3]),
		})
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read conllu: %w", err)
	}
	flush()
	return doc, nil
}

func underscoreEmpty(s string) string {
	if s == "_" {
		return ""
	}
	return s
}
