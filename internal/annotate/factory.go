package annotate

import (
	"context"
	"fmt"

	"github.com/wgomg/vocabula/internal/config"
	"github.com/wgomg/vocabula/internal/utils"
)

// Engine is an Annotator backed by a real annotation service or process.
type Engine interface {
	Annotator
	Describer
	Close() error
}

// New builds the engine selected by cfg.Annotator.Kind. A Stanza engine is
// started and ready when New returns.
func New(ctx context.Context, cfg *config.Config, logger *utils.Logger) (Engine, error) {
	switch cfg.Annotator.Kind {
	case config.AnnotatorStanza:
		worker := NewStanzaWorker(logger, &cfg.Annotator.Stanza)
		if err := worker.Initialize(ctx); err != nil {
			worker.Close()
			return nil, fmt.Errorf("failed to initialize stanza annotator: %w", err)
		}
		return worker, nil
	case config.AnnotatorUDPipe:
		client, err := NewUDPipeClient(cfg, logger)
		if err != nil {
			return nil, fmt.Errorf("failed to create udpipe client: %w", err)
		}
		logger.Info(nil, "Using UDPipe annotator at %s (model=%s)", cfg.Annotator.UDPipe.URL, cfg.Annotator.UDPipe.Model)
		return client, nil
	default:
		return nil, fmt.Errorf("unsupported annotator kind %v", cfg.Annotator.Kind)
	}
}
