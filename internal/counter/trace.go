package counter

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"
)

var traceHeader = []string{
	"label", "chunk", "sent_idx", "token_idx", "sentence",
	"token", "lemma", "upos", "ref_tag", "global_row",
}

type TraceRow struct {
	Label     string
	Chunk     int
	SentIdx   int
	TokenIdx  int
	Sentence  string
	Token     string
	Lemma     string
	UPOS      string
	RefTag    string
	GlobalRow int
}

// TraceWriter writes token-level TSV rows. Once MaxRows rows are written
// further rows are dropped, but GlobalRow keeps counting. MaxRows 0 means
// no cap.
type TraceWriter struct {
	w         *bufio.Writer
	MaxRows   int
	GlobalRow int
	written   int
	header    bool
}

func NewTraceWriter(w io.Writer, maxRows int) *TraceWriter {
	return &TraceWriter{w: bufio.NewWriter(w), MaxRows: maxRows}
}

// Write records r if the cap allows and advances GlobalRow either way. The
// row's GlobalRow field is set from the writer.
func (t *TraceWriter) Write(r TraceRow) error {
	defer func() { t.GlobalRow++ }()

	if t.MaxRows > 0 && t.GlobalRow >= t.MaxRows {
		return nil
	}
	if !t.header {
		if _, err := t.w.WriteString(strings.Join(traceHeader, "\t") + "\n"); err != nil {
			return fmt.Errorf("write trace header: %w", err)
		}
		t.header = true
	}

	r.GlobalRow = t.GlobalRow
	fields := []string{
		r.Label,
		strconv.Itoa(r.Chunk),
		strconv.Itoa(r.SentIdx),
		strconv.Itoa(r.TokenIdx),
		tsvField(r.Sentence),
		tsvField(r.Token),
		tsvField(r.Lemma),
		r.UPOS,
		r.RefTag,
		strconv.Itoa(r.GlobalRow),
	}
	if _, err := t.w.WriteString(strings.Join(fields, "\t") + "\n"); err != nil {
		return fmt.Errorf("write trace row: %w", err)
	}
	t.written++
	return nil
}

// Written is the number of data rows actually emitted.
func (t *TraceWriter) Written() int {
	return t.written
}

// Flush writes the header if nothing else was written, then flushes.
func (t *TraceWriter) Flush() error {
	if !t.header {
		if _, err := t.w.WriteString(strings.Join(traceHeader, "\t") + "\n"); err != nil {
			return fmt.Errorf("write trace header: %w", err)
		}
		t.header = true
	}
	return t.w.Flush()
}

var tsvReplacer = strings.NewReplacer("\t", " ", "\r\n", " ", "\n", " ", "\r", " ")

func tsvField(s string) string {
	return tsvReplacer.Replace(s)
}
