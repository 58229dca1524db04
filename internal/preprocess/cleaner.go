package preprocess

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/wgomg/vocabula/internal/utils"
)

// CleanedDirPlaceholder in a group glob is replaced by the cleaner's output
// directory.
const CleanedDirPlaceholder = "{cleaned_dir}"

// Cleaner runs an external corpus cleaner configured by a YAML file whose
// "output" key names the directory the cleaned files land in.
type Cleaner struct {
	ConfigPath string
	// Command is the cleaner invocation. A "{config}" argument is replaced
	// by ConfigPath; without one, ConfigPath is appended.
	Command []string
	logger  *utils.Logger
}

type cleanerConfig struct {
	Kind   string `yaml:"kind"`
	Input  string `yaml:"input"`
	Output string `yaml:"output"`
}

func NewCleaner(configPath string, command []string, logger *utils.Logger) *Cleaner {
	return &Cleaner{ConfigPath: configPath, Command: command, logger: logger}
}

// Run executes the cleaner and returns its absolute output directory.
func (c *Cleaner) Run(ctx context.Context, runID *string) (string, error) {
	outDir, err := ResolveCleanerOutputDir(c.ConfigPath)
	if err != nil {
		return "", err
	}
	if len(c.Command) == 0 {
		return "", fmt.Errorf("cleaner command is empty")
	}

	args := make([]string, 0, len(c.Command)+1)
	replaced := false
	for _, a := range c.Command[1:] {
		if strings.Contains(a, "{config}") {
			a = strings.ReplaceAll(a, "{config}", c.ConfigPath)
			replaced = true
		}
		args = append(args, a)
	}
	if !replaced {
		args = append(args, c.ConfigPath)
	}

	c.logger.Info(runID, "Running cleaner: %s %s", c.Command[0], strings.Join(args, " "))

	cmd := exec.CommandContext(ctx, c.Command[0], args...)
	cmd.Dir = filepath.Dir(c.ConfigPath)
	if output, err := cmd.CombinedOutput(); err != nil {
		return "", fmt.Errorf("cleaner failed: %s: %w", utils.Truncate(string(output), 2000), err)
	}

	c.logger.Info(runID, "Cleaner output directory: %s", outDir)
	return outDir, nil
}

// ResolveCleanerOutputDir reads the cleaner config and returns its "output"
// directory as an absolute path, relative paths anchored at the config's
// directory.
func ResolveCleanerOutputDir(configPath string) (string, error) {
	data, err := os.ReadFile(configPath)
	if err != nil {
		return "", fmt.Errorf("read cleaner config: %w", err)
	}
	var cfg cleanerConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return "", fmt.Errorf("parse cleaner config %s: %w", configPath, err)
	}
	out := strings.TrimSpace(cfg.Output)
	if out == "" {
		return "", fmt.Errorf("cleaner config %s has no 'output' directory", configPath)
	}
	if !filepath.IsAbs(out) {
		out = filepath.Join(filepath.Dir(configPath), out)
	}
	abs, err := filepath.Abs(out)
	if err != nil {
		return "", fmt.Errorf("resolve cleaner output: %w", err)
	}
	return abs, nil
}

// ExpandCleanedDir substitutes CleanedDirPlaceholder in patterns. An empty
// cleanedDir leaves the patterns untouched; other braces are never
// interpreted.
func ExpandCleanedDir(patterns []string, cleanedDir string) []string {
	out := make([]string, len(patterns))
	for i, p := range patterns {
		if cleanedDir != "" {
			p = strings.ReplaceAll(p, CleanedDirPlaceholder, filepath.ToSlash(cleanedDir))
		}
		out[i] = p
	}
	return out
}
