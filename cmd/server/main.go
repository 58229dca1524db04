// Command server exposes noun counting over HTTP.
//
//	GET  /health
//	POST /count      body: {"text":"...", "preprocess":"normalize", "top":100}
//	POST /sentences  body: {"text":"..."}
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/cors"

	"github.com/wgomg/vocabula/internal/annotate"
	"github.com/wgomg/vocabula/internal/api"
	"github.com/wgomg/vocabula/internal/config"
	"github.com/wgomg/vocabula/internal/reftag"
	"github.com/wgomg/vocabula/internal/utils"
	"github.com/wgomg/vocabula/internal/vocab"
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
	logger.Info(nil, "Starting vocabula count service")
	logger.Info(nil, "Environment: %s", cfg.App.Env)
	logger.Info(nil, "Log level: %s", cfg.App.LogLevel)

	lists, err := loadLists(cfg, logger)
	if err != nil {
		logger.Fatal("Failed to load auxiliary lists: ", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	engine, err := annotate.New(ctx, cfg, logger)
	if err != nil {
		logger.Error(nil, "Failed to create annotator: %v", err)
		logger.Fatal("Failed to initialize annotator")
	}
	defer engine.Close()

	mux := http.NewServeMux()
	api.RegisterRoutes(mux, api.NewHandler(logger, engine, cfg, lists))

	c := cors.New(cors.Options{
		AllowedOrigins: cfg.App.CorsOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Content-Type", api.RequestIDHeader},
		ExposedHeaders: []string{api.RequestIDHeader},
	})

	timeout := time.Duration(cfg.App.HttpTimeoutSeconds) * time.Second
	srv := &http.Server{
		Addr:              "0.0.0.0:" + cfg.App.ServerPort,
		Handler:           c.Handler(api.WithRequestID(mux, logger)),
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      timeout,
		IdleTimeout:       2 * timeout,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error(nil, "Server shutdown: %v", err)
		}
	}()

	logger.Info(nil, "Starting server on port %s", cfg.App.ServerPort)
	logger.Info(nil, "Endpoints:")
	logger.Info(nil, "  GET  /health")
	logger.Info(nil, "  POST /count")
	logger.Info(nil, "  POST /sentences")
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Fatal(err)
	}
}

// loadLists reads the exclusion and ref-tag lists named by the run file, if
// one exists at VOCABULA_CONFIG. The server runs without them otherwise.
func loadLists(cfg *config.Config, logger *utils.Logger) (api.Lists, error) {
	var lists api.Lists
	if _, err := os.Stat(cfg.App.RunConfigPath); err != nil {
		logger.Info(nil, "No run file at %s; counting without exclusion or ref-tag lists", cfg.App.RunConfigPath)
		return lists, nil
	}
	run, err := config.LoadRun(cfg.App.RunConfigPath)
	if err != nil {
		return lists, err
	}
	cfg.ApplyRun(run)

	if run.ExcludeLemmas != "" {
		if lists.Exclude, err = vocab.LoadExcludeList(run.ExcludeLemmas); err != nil {
			return lists, err
		}
		logger.Info(nil, "Loaded %d excluded lemmas", len(lists.Exclude))
	}
	if run.RefTags != "" {
		tags, err := reftag.LoadSet(run.RefTags)
		if err != nil {
			return lists, err
		}
		lists.RefTags = reftag.NewDetector(tags)
		logger.Info(nil, "Loaded %d ref tags", len(tags))
	}
	return lists, nil
}
