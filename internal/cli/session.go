package cli

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/aretw0/parley"
	"github.com/aretw0/parley/internal/presentation/tui"
	"github.com/aretw0/parley/pkg/domain"
	"github.com/aretw0/parley/pkg/runner"
)

// RunSession plays a single dialogue to its end.
func RunSession(opts RunOptions) error {
	logger := NewLogger(opts.Config.Level(), opts.Debug)

	if !opts.JSON {
		tui.PrintBanner(opts.Out, parley.Version)
	}

	signals := runner.NewSignalManager(context.Background())
	defer signals.Stop()
	ctx := signals.Context()

	engine, err := NewEngine(ctx, opts.Config, logger)
	if err != nil {
		return err
	}
	defer engine.Close()

	doc, err := loadEntryDocument(ctx, engine, opts, logger)
	if err != nil {
		return err
	}
	if opts.Fresh {
		if err := engine.ClearRuntimeState(ctx, doc); err != nil {
			return fmt.Errorf("failed to reset runtime state: %w", err)
		}
	}

	presenter := newPresenter(opts.JSON, opts.In, opts.Out)
	signals.CloseOn(presenter.Closed())

	r := runner.NewRunner(presenter, runner.WithLogger(logger))
	step, runErr := r.Play(ctx, engine, doc)

	logCompletion(step, runErr, opts.JSON, signals)
	return handleExecutionError(runErr)
}

// loadEntryDocument loads the named document, or the default entry point.
func loadEntryDocument(ctx context.Context, engine *Engine, opts RunOptions, logger *slog.Logger) (*domain.Document, error) {
	id := opts.DocumentID
	if id == "" {
		ids, err := engine.Documents(ctx)
		if err != nil {
			return nil, err
		}
		if id, err = determineEntryPoint(ids, opts.Config.Docs); err != nil {
			return nil, err
		}
		logger.Debug("entry point selected", "document_id", id)
	}
	doc, err := engine.Document(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to load document: %w", err)
	}
	return doc, nil
}
