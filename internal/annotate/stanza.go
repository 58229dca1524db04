package annotate

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/wgomg/vocabula/internal/config"
	"github.com/wgomg/vocabula/internal/utils"
)

const maxResponseBytes = 512 << 20

// StanzaWorker drives one long-lived Python process running Stanza. Requests
// are serialized; the process keeps its pipeline loaded between chunks.
// A process killed by a canceled request is restarted by the next Annotate;
// only Close retires the worker for good.
type StanzaWorker struct {
	logger *utils.Logger
	cfg    *config.StanzaConfig
	script string
	venv   string

	mu      sync.Mutex
	process *exec.Cmd
	stdin   io.WriteCloser
	stdout  io.ReadCloser
	scanner *bufio.Scanner
	down    bool
	closed  bool
	up      atomic.Bool
	info    Info
}

type stanzaRequest struct {
	Text string `json:"text"`
}

type stanzaWord struct {
	Text  string  `json:"text"`
	Lemma *string `json:"lemma"`
	UPOS  string  `json:"upos"`
}

type stanzaToken struct {
	Text  string       `json:"text"`
	Lemma *string      `json:"lemma"`
	UPOS  string       `json:"upos"`
	Words []stanzaWord `json:"words"`
}

type stanzaSentence struct {
	Text   string        `json:"text"`
	Words  []stanzaWord  `json:"words"`
	Tokens []stanzaToken `json:"tokens"`
}

type stanzaResponse struct {
	Sentences []stanzaSentence `json:"sentences"`
	Error     string           `json:"error,omitempty"`
}

type stanzaReady struct {
	Status        string            `json:"status"`
	Error         string            `json:"error,omitempty"`
	StanzaVersion string            `json:"stanza_version"`
	Processors    map[string]string `json:"processors"`
}

func NewStanzaWorker(logger *utils.Logger, cfg *config.StanzaConfig) *StanzaWorker {
	pythonDir := filepath.Join(cfg.ConfigDir, "python")

	return &StanzaWorker{
		logger: logger,
		cfg:    cfg,
		script: filepath.Join(pythonDir, "stanza_annotator.py"),
		venv:   filepath.Join(cfg.ConfigDir, "venv"),
		info: Info{
			Kind:     config.AnnotatorStanza.String(),
			Language: cfg.Language,
			Package:  cfg.Package,
		},
	}
}

// Initialize prepares the Python environment, starts the process and waits
// until the pipeline reports ready.
func (w *StanzaWorker) Initialize(ctx context.Context) error {
	w.logger.Info(nil, "Initializing Stanza annotator (lang=%s, package=%s, cpu_only=%t)",
		w.cfg.Language, w.cfg.Package, w.cfg.CPUOnly)

	if err := w.setupEnvironment(); err != nil {
		return fmt.Errorf("failed to setup environment: %w", err)
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	if err := w.start(ctx); err != nil {
		return err
	}

	w.logger.Info(nil, "Stanza annotator ready (stanza %s)", w.info.Extra["stanza_version"])
	return nil
}

func (w *StanzaWorker) pythonPath() string {
	if w.cfg.Python != "" {
		return w.cfg.Python
	}
	return filepath.Join(w.venv, "bin", "python")
}

func (w *StanzaWorker) start(ctx context.Context) error {
	cmd := exec.Command(w.pythonPath(), w.script)
	stdin, err := cmd.StdinPipe()
	if err != nil {
		return fmt.Errorf("stdin pipe: %w", err)
	}

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		stdin.Close()
		return fmt.Errorf("stdout pipe: %w", err)
	}

	cmd.Stderr = os.Stderr

	if err := cmd.Start(); err != nil {
		stdin.Close()
		stdout.Close()
		return fmt.Errorf("start process: %w", err)
	}

	w.process, w.stdin, w.stdout = cmd, stdin, stdout
	w.down = false
	w.scanner = bufio.NewScanner(stdout)
	w.scanner.Buffer(make([]byte, 0, 1<<20), maxResponseBytes)

	configJSON, err := json.Marshal(map[string]any{
		"language": w.cfg.Language,
		"package":  w.cfg.Package,
		"cpu_only": w.cfg.CPUOnly,
	})
	if err != nil {
		w.kill()
		return fmt.Errorf("marshal config: %w", err)
	}

	if _, err := w.stdin.Write(append(configJSON, '\n')); err != nil {
		w.kill()
		return fmt.Errorf("send config: %w", err)
	}

	timeout := time.Duration(w.cfg.StartupTimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Minute
	}
	readyCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	line, err := w.readLine(readyCtx)
	if err != nil {
		return fmt.Errorf("failed to read ready message: %w", err)
	}

	var ready stanzaReady
	if err := json.Unmarshal(line, &ready); err != nil {
		w.kill()
		return fmt.Errorf("failed to parse ready message: %w", err)
	}
	if ready.Status != "ready" {
		w.kill()
		if ready.Error != "" {
			return fmt.Errorf("stanza startup failed: %s", ready.Error)
		}
		return fmt.Errorf("unexpected startup status: %s", ready.Status)
	}

	w.info.Extra = map[string]string{"stanza_version": ready.StanzaVersion}
	for name, path := range ready.Processors {
		if path != "" {
			w.info.Extra["processor_"+name] = path
		}
	}
	w.up.Store(true)
	return nil
}

// readLine waits for the next stdout line. Cancellation kills the process,
// since a half-read response would desynchronize the protocol.
func (w *StanzaWorker) readLine(ctx context.Context) ([]byte, error) {
	type result struct {
		line []byte
		err  error
	}
	ch := make(chan result, 1)
	sc := w.scanner

	go func() {
		if sc.Scan() {
			ch <- result{line: append([]byte(nil), sc.Bytes()...)}
			return
		}
		err := sc.Err()
		if err == nil {
			err = ErrWorkerClosed
		}
		ch <- result{err: err}
	}()

	select {
	case <-ctx.Done():
		w.kill()
		return nil, ctx.Err()
	case res := <-ch:
		if res.err != nil {
			w.kill()
			return nil, fmt.Errorf("read stdout: %w", res.err)
		}
		return res.line, nil
	}
}

// Annotate sends one chunk and returns its normalized annotation.
func (w *StanzaWorker) Annotate(ctx context.Context, text string) (*Document, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed || w.process == nil {
		return nil, ErrWorkerClosed
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if w.down {
		w.logger.Warn(nil, "Stanza process is down; restarting")
		if err := w.start(ctx); err != nil {
			return nil, fmt.Errorf("restart stanza process: %w", err)
		}
		w.logger.Info(nil, "Stanza process restarted")
	}

	reqJSON, err := json.Marshal(stanzaRequest{Text: text})
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	if _, err := w.stdin.Write(append(reqJSON, '\n')); err != nil {
		w.kill()
		return nil, fmt.Errorf("write request: %w", err)
	}

	line, err := w.readLine(ctx)
	if err != nil {
		return nil, err
	}

	return decodeStanza(line)
}

// decodeStanza accepts the three shapes Stanza output takes: sentence-level
// words, words nested under tokens, or bare tokens.
func decodeStanza(line []byte) (*Document, error) {
	var resp stanzaResponse
	if err := json.Unmarshal(line, &resp); err != nil {
		return nil, fmt.Errorf("parse response: %w", err)
	}
	if resp.Error != "" {
		return nil, fmt.Errorf("python error: %s", resp.Error)
	}

	doc := &Document{Sentences: make([]Sentence, 0, len(resp.Sentences))}
	for _, s := range resp.Sentences {
		sent := Sentence{Text: s.Text}
		switch {
		case len(s.Words) > 0:
			for _, wd := range s.Words {
				sent.Tokens = append(sent.Tokens, wordToken(wd.Text, wd.Lemma, wd.UPOS))
			}
		default:
			for _, tk := range s.Tokens {
				if len(tk.Words) == 0 {
					sent.Tokens = append(sent.Tokens, wordToken(tk.Text, tk.Lemma, tk.UPOS))
					continue
				}
				for _, wd := range tk.Words {
					sent.Tokens = append(sent.Tokens, wordToken(wd.Text, wd.Lemma, wd.UPOS))
				}
			}
		}
		doc.Sentences = append(doc.Sentences, sent)
	}
	return doc, nil
}

func wordToken(text string, lemma *string, upos string) Token {
	tok := Token{Surface: text, UPOS: upos}
	if lemma != nil {
		tok.Lemma = *lemma
	}
	return tok
}

func (w *StanzaWorker) Info() Info {
	return w.info
}

// Healthy reports whether the Python process is running. It does not wait
// for an in-flight request.
func (w *StanzaWorker) Healthy() bool {
	return w.up.Load()
}

// kill stops the current process and marks the worker down. Callers hold mu.
func (w *StanzaWorker) kill() {
	w.up.Store(false)
	if w.down {
		return
	}
	w.down = true
	if w.stdin != nil {
		w.stdin.Close()
	}
	if w.process != nil && w.process.Process != nil {
		w.process.Process.Kill()
		w.process.Wait()
	}
}

func (w *StanzaWorker) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return nil
	}
	w.kill()
	w.closed = true
	return nil
}

func (w *StanzaWorker) setupEnvironment() error {
	if err := os.MkdirAll(w.cfg.ConfigDir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	if err := w.extractScript(); err != nil {
		return fmt.Errorf("failed to extract script: %w", err)
	}

	if w.cfg.Python != "" {
		w.logger.Debug(nil, "Using configured interpreter %s", w.cfg.Python)
		return nil
	}

	if err := w.checkPython(); err != nil {
		return fmt.Errorf("python check failed: %w", err)
	}

	if err := w.createVenv(); err != nil {
		return fmt.Errorf("failed to create venv: %w", err)
	}

	if err := w.installRequirements(); err != nil {
		return fmt.Errorf("failed to install requirements: %w", err)
	}

	return nil
}

func (w *StanzaWorker) checkPython() error {
	cmd := exec.Command("python3", "--version")
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("python3 not found: %w", err)
	}

	w.logger.Debug(nil, "Python3 found")
	return nil
}

func (w *StanzaWorker) createVenv() error {
	venvPython := filepath.Join(w.venv, "bin", "python")

	if _, err := os.Stat(venvPython); err == nil {
		w.logger.Debug(nil, "Virtual environment already exists at %s", w.venv)
		return nil
	}

	w.logger.Info(nil, "Creating virtual environment at %s", w.venv)

	cmd := exec.Command("python3", "-m", "venv", w.venv)
	if output, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("failed to create venv: %s: %w", output, err)
	}
	return nil
}

func (w *StanzaWorker) installRequirements() error {
	marker := filepath.Join(w.venv, ".requirements-installed")
	if _, err := os.Stat(marker); err == nil {
		return nil
	}

	venvPip := filepath.Join(w.venv, "bin", "pip")
	w.logger.Info(nil, "Installing Python requirements")

	for _, req := range requirementLines() {
		w.logger.Debug(nil, "Installing: %s", req)

		cmd := exec.Command(venvPip, "install", req)
		if output, err := cmd.CombinedOutput(); err != nil {
			return fmt.Errorf("failed to install %s: %s: %w", req, output, err)
		}
	}

	if err := os.WriteFile(marker, []byte(time.Now().UTC().Format(time.RFC3339)), 0644); err != nil {
		return fmt.Errorf("write install marker: %w", err)
	}
	w.logger.Info(nil, "Python requirements installed successfully")
	return nil
}

func (w *StanzaWorker) extractScript() error {
	pythonDir := filepath.Dir(w.script)

	if err := os.MkdirAll(pythonDir, 0755); err != nil {
		return fmt.Errorf("failed to create python directory: %w", err)
	}

	// The script is rewritten on every start to match this build.
	if err := os.WriteFile(w.script, []byte(embeddedStanzaScript), 0755); err != nil {
		return fmt.Errorf("failed to write python script: %w", err)
	}

	requirementsPath := filepath.Join(pythonDir, "requirements.txt")
	if err := os.WriteFile(requirementsPath, []byte(requirementsContent()), 0644); err != nil {
		return fmt.Errorf("failed to write requirements file: %w", err)
	}
	return nil
}

func requirementsContent() string {
	if strings.TrimSpace(embeddedRequirements) == "" {
		return defaultRequirements
	}
	return embeddedRequirements
}

func requirementLines() []string {
	var out []string
	for _, line := range strings.Split(requirementsContent(), "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		out = append(out, line)
	}
	return out
}
