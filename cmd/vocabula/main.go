// Command vocabula counts noun lemmas over the groups of a run file.
//
// Usage:
//
//	vocabula [run] [-config groups.config.yml]
//	vocabula compose -out noun_frequency_ALL.csv a.csv b.csv ...
//	vocabula dictcheck -wordlist words.txt [-normalize-map map.tsv] freq.csv ...
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/wgomg/vocabula/internal/annotate"
	"github.com/wgomg/vocabula/internal/config"
	"github.com/wgomg/vocabula/internal/corpus"
	"github.com/wgomg/vocabula/internal/counter"
	"github.com/wgomg/vocabula/internal/dictcheck"
	"github.com/wgomg/vocabula/internal/processor"
	"github.com/wgomg/vocabula/internal/utils"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		utils.NewLogger("error", false).Fatal("Failed to load configuration: ", err)
	}
	if err := cfg.Validate(); err != nil {
		utils.NewLogger("error", false).Fatal("Invalid configuration: ", err)
	}
	logger := utils.NewLogger(cfg.App.LogLevel, cfg.App.RawBodyLog)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	args := os.Args[1:]
	cmd := "run"
	if len(args) > 0 && !strings.HasPrefix(args[0], "-") {
		cmd, args = args[0], args[1:]
	}

	switch cmd {
	case "run":
		err = runCommand(ctx, cfg, logger, args)
	case "compose":
		err = composeCommand(logger, args)
	case "dictcheck":
		err = dictcheckCommand(logger, args)
	default:
		err = fmt.Errorf("unknown command %q (run, compose, dictcheck)", cmd)
	}
	if err != nil {
		stop()
		logger.Fatal(err)
	}
}

func runCommand(ctx context.Context, cfg *config.Config, logger *utils.Logger, args []string) error {
	fs := flag.NewFlagSet("run", flag.ExitOnError)
	configPath := fs.String("config", cfg.App.RunConfigPath, "run file (.yml or .yaml)")
	fs.Parse(args)

	run, err := config.LoadRun(*configPath)
	if err != nil {
		return err
	}
	cfg.ApplyRun(run)
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration after applying %s: %w", run.Path, err)
	}

	logger.Info(nil, "Starting vocabula run")
	logger.Info(nil, "Environment: %s", cfg.App.Env)
	logger.Info(nil, "Run file: %s", run.Path)
	logger.Info(nil, "Annotator: %s", cfg.Annotator.Kind)

	engine, err := annotate.New(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer engine.Close()

	res, err := processor.NewRunner(cfg, run, engine, logger).Run(ctx)
	if err != nil {
		return err
	}
	logger.Info(&res.RunID, "Done: %d tables in %s", len(res.Groups), run.OutDir)
	return nil
}

func composeCommand(logger *utils.Logger, args []string) error {
	fs := flag.NewFlagSet("compose", flag.ExitOnError)
	out := fs.String("out", "noun_frequency_ALL.csv", "output CSV")
	fs.Parse(args)
	if fs.NArg() == 0 {
		return fmt.Errorf("compose: no input CSV files")
	}

	groups := make(map[string]*counter.Freq, fs.NArg())
	for _, path := range fs.Args() {
		f, err := corpus.ReadFrequencyCSV(path)
		if err != nil {
			return err
		}
		groups[path] = f
	}
	total := counter.Compose(groups)
	if err := corpus.WriteFrequencyCSV(*out, total); err != nil {
		return err
	}
	logger.Info(nil, "Composed %d tables into %s: unique=%d, tokens=%d", len(groups), *out, total.Len(), total.Total())
	return nil
}

func dictcheckCommand(logger *utils.Logger, args []string) error {
	opts := dictcheck.DefaultOptions()
	fs := flag.NewFlagSet("dictcheck", flag.ExitOnError)
	wordlist := fs.String("wordlist", "", "known-word list, one entry per line")
	fs.StringVar(&opts.LemmaColumn, "lemma-column", opts.LemmaColumn, "lemma column of the input CSV")
	fs.StringVar(&opts.CountColumn, "count-column", opts.CountColumn, "count column of the input CSV")
	fs.BoolVar(&opts.Normalize, "normalize", opts.Normalize, "compare orthographically normalized keys")
	fs.StringVar(&opts.NormalizeMap, "normalize-map", "", "tab-separated variant-to-lemma map")
	fs.Parse(args)
	if *wordlist == "" {
		return fmt.Errorf("dictcheck: -wordlist is required")
	}
	if fs.NArg() == 0 {
		return fmt.Errorf("dictcheck: no frequency CSV files")
	}

	for _, path := range fs.Args() {
		stem := strings.TrimSuffix(path, filepath.Ext(path))
		known, unknown, err := dictcheck.SplitCSV(path, *wordlist, stem+".known.csv", stem+".unknown.csv", opts)
		if err != nil {
			return err
		}
		logger.Info(nil, "%s: known=%d, unknown=%d", path, known, unknown)
	}
	return nil
}
